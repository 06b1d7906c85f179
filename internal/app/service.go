// Package service holds the editor session: the open scoreboard, its file
// and the reveal running on it. The HTTP API and the CLI drive it.
package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/okian/scoreboard/internal/adapters/repository"
	"github.com/okian/scoreboard/internal/adapters/surface"
	"github.com/okian/scoreboard/internal/domain/reveal"
	"github.com/okian/scoreboard/internal/domain/scoreboard"
	"github.com/okian/scoreboard/internal/domain/types"
	"github.com/okian/scoreboard/pkg/logger"
	"github.com/okian/scoreboard/pkg/metrics"
	"github.com/shopspring/decimal"
)

// Store loads and saves documents by path.
type Store interface {
	Open(ctx context.Context, path string) (*scoreboard.Matrix, error)
	Save(ctx context.Context, path string, m *scoreboard.Matrix) error
}

// BoardAnnouncer is implemented by surfaces that want the grid layout before
// a reveal starts.
type BoardAnnouncer interface {
	SetBoard(board surface.Board) error
}

// RevealRequest tunes one reveal. Zero values fall back to the session
// defaults.
type RevealRequest struct {
	InterStepDelay    time.Duration
	ShowRunningTotals *bool
	Surface           reveal.Surface
}

// Session serializes every command on one open scoreboard.
type Session struct {
	mu sync.RWMutex

	doc   *scoreboard.Matrix
	path  string
	dirty bool

	store   Store
	surface reveal.Surface
	seq     *reveal.Sequencer

	revealDelay   time.Duration
	runningTotals bool

	logger logger.Logger
}

// Option applies a configuration option to the Session.
type Option func(*Session)

// WithStore sets the document store.
func WithStore(store Store) Option {
	return func(s *Session) {
		if store != nil {
			s.store = store
		}
	}
}

// WithSurface sets the surface reveals render to when a request names none.
func WithSurface(sf reveal.Surface) Option {
	return func(s *Session) {
		s.surface = sf
	}
}

// WithRevealDefaults sets the pacing and running-totals default.
func WithRevealDefaults(delay time.Duration, runningTotals bool) Option {
	return func(s *Session) {
		if delay > 0 {
			s.revealDelay = delay
		}
		s.runningTotals = runningTotals
	}
}

// WithLogger sets a custom logger for the session.
func WithLogger(l logger.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a Session with no open document.
func New(opts ...Option) *Session {
	s := &Session{
		revealDelay: reveal.DefaultInterStepDelay,
		logger:      logger.GetOr(logger.Nop()),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.store == nil {
		s.store = repository.NewFileStore(repository.WithLogger(s.logger))
	}
	s.logger = s.logger.Named("session")
	return s
}

// NewDocument replaces the open document with a zero-filled one.
func (s *Session) NewDocument(ctx context.Context, teams, categories int) error {
	m, err := scoreboard.New(teams, categories)
	if err != nil {
		return s.failed(ctx, "new", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.replace(m, "", true)
	s.done(ctx, "new")
	return nil
}

// Open replaces the open document with the one at path. On error the
// current document is kept.
func (s *Session) Open(ctx context.Context, path string) error {
	m, err := s.store.Open(ctx, path)
	if err != nil {
		return s.failed(ctx, "open", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.replace(m, path, false)
	s.done(ctx, "open", logger.String("path", path))
	return nil
}

// Save writes the document to path, or to the path it was opened from when
// path is empty.
func (s *Session) Save(ctx context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.doc == nil {
		return s.failed(ctx, "save", ErrNoDocument)
	}
	if path == "" {
		path = s.path
	}
	if path == "" {
		return s.failed(ctx, "save", ErrNoPath)
	}
	if err := s.store.Save(ctx, path, s.doc); err != nil {
		return s.failed(ctx, "save", err)
	}
	s.path = path
	s.dirty = false
	s.done(ctx, "save", logger.String("path", path))
	return nil
}

// Close drops the open document. A running reveal keeps its snapshot.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.doc == nil {
		return s.failed(ctx, "close", ErrNoDocument)
	}
	s.doc = nil
	s.path = ""
	s.dirty = false
	metrics.UpdateDocumentShape(0, 0)
	s.done(ctx, "close")
	return nil
}

// AddTeam appends a team with zero scores.
func (s *Session) AddTeam(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.doc == nil {
		return s.failed(ctx, "add_team", ErrNoDocument)
	}
	if err := s.doc.AddTeam(name); err != nil {
		return s.failed(ctx, "add_team", err)
	}
	s.touched()
	s.done(ctx, "add_team", logger.String("team", name))
	return nil
}

// AddCategory appends a category. scores holds one value per team in team
// order; nil means all zero.
func (s *Session) AddCategory(ctx context.Context, name string, scores []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.doc == nil {
		return s.failed(ctx, "add_category", ErrNoDocument)
	}

	var values []decimal.Decimal
	if scores == nil {
		values = make([]decimal.Decimal, s.doc.TeamCount())
	} else {
		values = make([]decimal.Decimal, len(scores))
		for i, raw := range scores {
			v, err := parseScore(raw)
			if err != nil {
				return s.failed(ctx, "add_category", err)
			}
			values[i] = v
		}
	}

	if err := s.doc.AddCategory(name, values); err != nil {
		return s.failed(ctx, "add_category", err)
	}
	s.touched()
	s.done(ctx, "add_category", logger.String("category", name))
	return nil
}

// SetScore sets one cell. team and category are names, or 1-based
// positions when no name matches.
func (s *Session) SetScore(ctx context.Context, team, category, value string) (types.ScoreUpdate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.doc == nil {
		return types.ScoreUpdate{}, s.failed(ctx, "set_score", ErrNoDocument)
	}
	ti, err := resolve("team", team, s.doc.TeamIndex, s.doc.TeamCount())
	if err != nil {
		return types.ScoreUpdate{}, s.failed(ctx, "set_score", err)
	}
	ci, err := resolve("category", category, s.doc.CategoryIndex, s.doc.CategoryCount())
	if err != nil {
		return types.ScoreUpdate{}, s.failed(ctx, "set_score", err)
	}
	v, err := parseScore(value)
	if err != nil {
		return types.ScoreUpdate{}, s.failed(ctx, "set_score", err)
	}

	changed, err := s.doc.SetScore(ti, ci, v)
	if err != nil {
		return types.ScoreUpdate{}, s.failed(ctx, "set_score", err)
	}
	if changed {
		s.touched()
	}
	total, _ := s.doc.TotalScore(ti)
	teamName, _ := s.doc.TeamName(ti)
	categoryName, _ := s.doc.CategoryName(ci)
	s.done(ctx, "set_score",
		logger.String("team", teamName),
		logger.String("category", categoryName),
		logger.Bool("changed", changed),
	)

	return types.ScoreUpdate{
		Team:     teamName,
		Category: categoryName,
		Value:    v,
		Changed:  changed,
		Total:    total,
	}, nil
}

// View returns a copy of the open document with totals.
func (s *Session) View(context.Context) (types.Scoreboard, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.doc == nil {
		return types.Scoreboard{}, ErrNoDocument
	}
	return types.Scoreboard{
		Path:        s.path,
		Dirty:       s.dirty,
		Teams:       s.doc.TeamNames(),
		Categories:  s.doc.CategoryNames(),
		Scores:      s.doc.Scores(),
		Totals:      s.doc.Totals(),
		Presentable: s.doc.IsValid(),
	}, nil
}

// Matrix returns a copy of the open document.
func (s *Session) Matrix() (*scoreboard.Matrix, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.doc == nil {
		return nil, ErrNoDocument
	}
	return s.doc.Clone(), nil
}

// StartReveal starts a reveal of the open document. The run is detached from
// ctx cancellation so it outlives the request that started it; use
// CancelReveal or Shutdown to stop it.
func (s *Session) StartReveal(ctx context.Context, req RevealRequest) (types.RevealStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.doc == nil {
		return types.RevealStatus{}, s.failed(ctx, "reveal_start", ErrNoDocument)
	}
	if s.seq != nil && s.seq.State() == reveal.Running {
		return s.statusLocked(), s.failed(ctx, "reveal_start",
			fmt.Errorf("%w: reveal %s is still running", reveal.ErrInvalidState, s.seq.ID()))
	}

	opts := reveal.Options{
		InterStepDelay:    req.InterStepDelay,
		ShowRunningTotals: s.runningTotals,
		Surface:           req.Surface,
	}
	if opts.InterStepDelay <= 0 {
		opts.InterStepDelay = s.revealDelay
	}
	if req.ShowRunningTotals != nil {
		opts.ShowRunningTotals = *req.ShowRunningTotals
	}
	if opts.Surface == nil {
		opts.Surface = s.surface
	}

	if announcer, ok := opts.Surface.(BoardAnnouncer); ok && s.doc.IsValid() {
		board := surface.Board{Title: s.title(), Teams: s.doc.TeamNames(), Categories: s.doc.CategoryNames()}
		if err := announcer.SetBoard(board); err != nil {
			return types.RevealStatus{}, s.failed(ctx, "reveal_start", err)
		}
	}

	seq := reveal.NewSequencer(reveal.WithLogger(s.logger))
	if err := seq.Start(context.WithoutCancel(ctx), s.doc, opts); err != nil {
		return types.RevealStatus{}, s.failed(ctx, "reveal_start", err)
	}
	s.seq = seq
	s.done(ctx, "reveal_start", logger.String("run", seq.ID()))
	return s.statusLocked(), nil
}

// CancelReveal stops the running reveal.
func (s *Session) CancelReveal(ctx context.Context) (types.RevealStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.seq == nil {
		return s.statusLocked(), s.failed(ctx, "reveal_cancel",
			fmt.Errorf("%w: no reveal has been started", reveal.ErrInvalidState))
	}
	if err := s.seq.Cancel(); err != nil {
		return s.statusLocked(), s.failed(ctx, "reveal_cancel", err)
	}
	s.done(ctx, "reveal_cancel", logger.String("run", s.seq.ID()))
	return s.statusLocked(), nil
}

// RevealStatus reports the current or last reveal.
func (s *Session) RevealStatus(context.Context) types.RevealStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.statusLocked()
}

// WaitReveal blocks until the current reveal ends or ctx is done.
func (s *Session) WaitReveal(ctx context.Context) (types.RevealStatus, error) {
	s.mu.RLock()
	seq := s.seq
	s.mu.RUnlock()

	if seq == nil {
		return types.RevealStatus{State: reveal.Idle.String()}, nil
	}
	if _, err := seq.Wait(ctx); err != nil && ctx.Err() != nil {
		return s.RevealStatus(ctx), err
	}
	return s.RevealStatus(ctx), nil
}

// Shutdown cancels a running reveal and waits for it to stop.
func (s *Session) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	seq := s.seq
	if seq != nil && seq.State() == reveal.Running {
		_ = seq.Cancel()
	}
	s.mu.Unlock()

	if seq == nil {
		return nil
	}
	_, err := seq.Wait(ctx)
	if ctx.Err() != nil {
		return err
	}
	return nil
}

// GetStats returns session statistics for monitoring.
func (s *Session) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"open":   s.doc != nil,
		"reveal": s.statusLocked(),
	}
	if s.doc != nil {
		stats["path"] = s.path
		stats["dirty"] = s.dirty
		stats["teams"] = s.doc.TeamCount()
		stats["categories"] = s.doc.CategoryCount()
		stats["presentable"] = s.doc.IsValid()
		metrics.UpdateDocumentShape(s.doc.TeamCount(), s.doc.CategoryCount())
	}
	return stats
}

func (s *Session) statusLocked() types.RevealStatus {
	if s.seq == nil {
		return types.RevealStatus{State: reveal.Idle.String()}
	}
	status := types.RevealStatus{
		ID:       s.seq.ID(),
		State:    s.seq.State().String(),
		Rendered: s.seq.Rendered(),
		Total:    s.seq.Total(),
	}
	if err := s.seq.Err(); err != nil {
		status.Error = err.Error()
	}
	return status
}

// replace installs m as the open document. Caller holds mu.
func (s *Session) replace(m *scoreboard.Matrix, path string, dirty bool) {
	s.doc = m
	s.path = path
	s.dirty = dirty
	metrics.UpdateDocumentShape(m.TeamCount(), m.CategoryCount())
}

// touched marks the document modified. Caller holds mu.
func (s *Session) touched() {
	s.dirty = true
	metrics.UpdateDocumentShape(s.doc.TeamCount(), s.doc.CategoryCount())
}

func (s *Session) title() string {
	if s.path == "" {
		return "Scoreboard"
	}
	name := s.path[strings.LastIndexAny(s.path, `/\`)+1:]
	if dot := strings.LastIndex(name, "."); dot > 0 {
		name = name[:dot]
	}
	return name
}

func (s *Session) done(ctx context.Context, op string, fields ...logger.Field) {
	metrics.RecordMutation(op)
	s.logger.Debug(ctx, op, fields...)
}

func (s *Session) failed(ctx context.Context, op string, err error) error {
	metrics.RecordMutationError(op, kind(err))
	s.logger.Debug(ctx, op+" failed", logger.Error(err))
	return err
}

func parseScore(raw string) (decimal.Decimal, error) {
	v, err := repository.ParseScore(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %w", ErrInvalidScore, err)
	}
	return v, nil
}

// resolve maps a name, or a 1-based position, to an index.
func resolve(axis, ref string, byName func(string) int, count int) (int, error) {
	if i := byName(ref); i >= 0 {
		return i, nil
	}
	if n, err := strconv.Atoi(strings.TrimSpace(ref)); err == nil {
		if n < 1 || n > count {
			return 0, fmt.Errorf("%w: %s %d of %d", scoreboard.ErrIndexOutOfRange, axis, n, count)
		}
		return n - 1, nil
	}
	return 0, fmt.Errorf("%w: %s %q", ErrNotFound, axis, ref)
}
