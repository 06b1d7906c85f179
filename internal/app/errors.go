package service

import (
	"errors"

	"github.com/okian/scoreboard/internal/adapters/repository"
	"github.com/okian/scoreboard/internal/domain/reveal"
	"github.com/okian/scoreboard/internal/domain/scoreboard"
)

// Sentinel kinds for editor errors.
var (
	ErrNoDocument   = errors.New("no scoreboard is open")
	ErrInvalidScore = errors.New("invalid score")
	ErrNoPath       = errors.New("scoreboard has no file name")
	ErrNotFound     = errors.New("no such team or category")
)

// kind labels err for metrics.
func kind(err error) string {
	switch {
	case errors.Is(err, ErrNoDocument):
		return "no_document"
	case errors.Is(err, ErrInvalidScore):
		return "invalid_score"
	case errors.Is(err, ErrNoPath):
		return "no_path"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, repository.ErrFormat):
		return "format"
	case errors.Is(err, repository.ErrUnsupportedFormat):
		return "unsupported_format"
	case errors.Is(err, reveal.ErrNotPresentable):
		return "not_presentable"
	case errors.Is(err, reveal.ErrInvalidState):
		return "invalid_state"
	case errors.Is(err, reveal.ErrInvalidOptions):
		return "invalid_options"
	default:
		return scoreboard.Kind(err)
	}
}
