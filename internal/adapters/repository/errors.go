package repository

import (
	"errors"
	"fmt"
)

// Sentinel kinds for document errors.
var (
	ErrFormat            = errors.New("malformed scoreboard document")
	ErrUnsupportedFormat = errors.New("unsupported scoreboard format")
)

func formatErr(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrFormat, fmt.Sprintf(format, args...))
}

func unsupported(what string) error {
	return fmt.Errorf("%w: %q", ErrUnsupportedFormat, what)
}
