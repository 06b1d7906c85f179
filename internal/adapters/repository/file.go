package repository

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/okian/scoreboard/internal/domain/scoreboard"
	"github.com/okian/scoreboard/pkg/logger"
	"github.com/okian/scoreboard/pkg/metrics"
)

// FileStore opens and saves documents on disk, choosing the codec from the
// file extension.
type FileStore struct {
	defaultFormat Format
	mode          os.FileMode
	logger        logger.Logger
}

// NewFileStore constructs a file store with configuration options.
func NewFileStore(opts ...Option) *FileStore {
	s := &FileStore{
		defaultFormat: FormatCSV,
		mode:          0o644,
		logger:        logger.GetOr(logger.Nop()),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.Named("repository")
	return s
}

// Open loads the document at path. Unknown extensions are rejected with
// ErrUnsupportedFormat.
func (s *FileStore) Open(ctx context.Context, path string) (m *scoreboard.Matrix, err error) {
	format, ok := FormatForPath(path)
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryOperation("open", string(format), err, float64(time.Since(start).Milliseconds()))
	}()
	if !ok {
		format = "unknown"
		return nil, unsupported(filepath.Ext(path))
	}

	codec, err := ForFormat(format)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	m, err = codec.Load(ctx, f)
	if err != nil {
		s.logger.Warn(ctx, "document rejected", logger.String("path", path), logger.Error(err))
		return nil, fmt.Errorf("load %s: %w", path, err)
	}

	s.logger.Info(ctx, "document opened",
		logger.String("path", path),
		logger.String("format", string(format)),
		logger.Int("teams", m.TeamCount()),
		logger.Int("categories", m.CategoryCount()),
	)
	return m, nil
}

// Save writes m to path. The document is written to a temporary file in the
// same directory and renamed over path, so a failed save leaves the previous
// file intact.
func (s *FileStore) Save(ctx context.Context, path string, m *scoreboard.Matrix) (err error) {
	format, ok := FormatForPath(path)
	if !ok {
		format = s.defaultFormat
	}
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryOperation("save", string(format), err, float64(time.Since(start).Milliseconds()))
	}()

	if m == nil {
		return fmt.Errorf("save %s: no scoreboard", path)
	}
	codec, err := ForFormat(format)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if err := codec.Save(ctx, m, tmp); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	if err := tmp.Chmod(s.mode); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	committed = true

	s.logger.Info(ctx, "document saved",
		logger.String("path", path),
		logger.String("format", string(format)),
	)
	return nil
}
