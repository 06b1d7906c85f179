// Package repository loads and saves scoreboards as CSV or JSON documents.
package repository

import (
	"context"
	"io"
	"path/filepath"
	"strings"

	"github.com/okian/scoreboard/internal/domain/scoreboard"
)

// Format names a document encoding.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// Repository reads and writes a scoreboard from a byte stream.
type Repository interface {
	// Load parses a whole document. On error no matrix is returned.
	Load(ctx context.Context, r io.Reader) (*scoreboard.Matrix, error)
	// Save writes m in the repository's format.
	Save(ctx context.Context, m *scoreboard.Matrix, w io.Writer) error
}

// ForFormat returns the codec for f.
func ForFormat(f Format) (Repository, error) {
	switch f {
	case FormatCSV:
		return CSV{}, nil
	case FormatJSON:
		return JSON{}, nil
	default:
		return nil, unsupported(string(f))
	}
}

// FormatForPath picks a format from the file extension, case-insensitively.
func FormatForPath(path string) (Format, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return FormatCSV, true
	case ".json":
		return FormatJSON, true
	default:
		return "", false
	}
}
