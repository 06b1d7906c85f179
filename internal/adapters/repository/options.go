package repository

import (
	"os"

	"github.com/okian/scoreboard/pkg/logger"
)

// Option applies a configuration option to the FileStore.
type Option func(*FileStore)

// WithDefaultFormat sets the format used to save paths whose extension is
// not recognized.
func WithDefaultFormat(f Format) Option {
	return func(s *FileStore) {
		if f == FormatCSV || f == FormatJSON {
			s.defaultFormat = f
		}
	}
}

// WithFileMode sets the permission bits of saved documents.
func WithFileMode(mode os.FileMode) Option {
	return func(s *FileStore) {
		if mode != 0 {
			s.mode = mode
		}
	}
}

// WithLogger sets the logger used for open and save events.
func WithLogger(l logger.Logger) Option {
	return func(s *FileStore) {
		if l != nil {
			s.logger = l
		}
	}
}
