// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/okian/scoreboard/internal/adapters/repository"
	service "github.com/okian/scoreboard/internal/app"
	"github.com/okian/scoreboard/internal/domain/reveal"
	"github.com/okian/scoreboard/internal/domain/scoreboard"
	"github.com/okian/scoreboard/internal/domain/types"
)

// maxBodyBytes caps request bodies; scoreboards are small.
const maxBodyBytes = 1 << 20

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	NewDocument(ctx context.Context, teams, categories int) error
	Open(ctx context.Context, path string) error
	Save(ctx context.Context, path string) error
	Close(ctx context.Context) error

	AddTeam(ctx context.Context, name string) error
	AddCategory(ctx context.Context, name string, scores []string) error
	SetScore(ctx context.Context, team, category, value string) (types.ScoreUpdate, error)
	View(ctx context.Context) (types.Scoreboard, error)

	StartReveal(ctx context.Context, req service.RevealRequest) (types.RevealStatus, error)
	CancelReveal(ctx context.Context) (types.RevealStatus, error)
	RevealStatus(ctx context.Context) types.RevealStatus

	StatsProvider
}

// Server wires HTTP routes for the editor API.
type Server struct {
	healthHandler     *HealthHandler
	statsHandler      *StatsHandler
	scoreboardHandler *ScoreboardHandler
	revealHandler     *RevealHandler
	display           http.HandlerFunc
}

// ServerOption customizes a Server.
type ServerOption func(*serverConfig)

type serverConfig struct {
	root              string
	defaultTeams      int
	defaultCategories int
	display           http.HandlerFunc
	extraStats        map[string]StatsProvider
}

// WithDocumentRoot confines open and save paths to dir.
func WithDocumentRoot(dir string) ServerOption {
	return func(c *serverConfig) {
		c.root = dir
	}
}

// WithDefaultShape sets the size of documents created without one.
func WithDefaultShape(teams, categories int) ServerOption {
	return func(c *serverConfig) {
		if teams >= 0 {
			c.defaultTeams = teams
		}
		if categories >= 0 {
			c.defaultCategories = categories
		}
	}
}

// WithDisplay mounts the websocket endpoint for browser displays at /ws.
func WithDisplay(handler http.HandlerFunc) ServerOption {
	return func(c *serverConfig) {
		c.display = handler
	}
}

// WithStats adds a provider to GET /stats under name.
func WithStats(name string, p StatsProvider) ServerOption {
	return func(c *serverConfig) {
		c.extraStats[name] = p
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, opts ...ServerOption) *Server {
	cfg := &serverConfig{
		defaultTeams:      4,
		defaultCategories: 3,
		extraStats:        map[string]StatsProvider{},
	}
	for _, opt := range opts {
		opt(cfg)
	}

	stats := map[string]StatsProvider{"session": deps}
	for name, p := range cfg.extraStats {
		stats[name] = p
	}

	return &Server{
		healthHandler:     NewHealthHandler(),
		statsHandler:      NewStatsHandler(stats),
		scoreboardHandler: NewScoreboardHandler(deps, cfg.root, cfg.defaultTeams, cfg.defaultCategories),
		revealHandler:     NewRevealHandler(deps),
		display:           cfg.display,
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	// Specific paths first (most specific to least specific)
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/scoreboard", MetricsMiddleware(s.scoreboardHandler.HandleScoreboard, "scoreboard"))
	mux.HandleFunc("/scoreboard/open", MetricsMiddleware(s.scoreboardHandler.HandleOpen, "scoreboard_open"))
	mux.HandleFunc("/scoreboard/save", MetricsMiddleware(s.scoreboardHandler.HandleSave, "scoreboard_save"))
	mux.HandleFunc("/teams", MetricsMiddleware(s.scoreboardHandler.HandleAddTeam, "teams"))
	mux.HandleFunc("/categories", MetricsMiddleware(s.scoreboardHandler.HandleAddCategory, "categories"))
	mux.HandleFunc("/scores/{team}/{category}", MetricsMiddleware(s.scoreboardHandler.HandleSetScore, "scores"))
	mux.HandleFunc("/reveal", MetricsMiddleware(s.revealHandler.HandleReveal, "reveal"))
	if s.display != nil {
		mux.HandleFunc("/ws", MetricsMiddleware(s.display, "ws"))
	}
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeFailure maps domain errors to a status and code. noDocument is the
// status used when no scoreboard is open: reads answer 404, commands 409.
func writeFailure(w http.ResponseWriter, err error, noDocument int) {
	status, code := classify(err, noDocument)
	writeError(w, status, code, err)
}

func classify(err error, noDocument int) (int, string) {
	switch {
	case errors.Is(err, service.ErrNoDocument):
		return noDocument, "no_document"
	case errors.Is(err, reveal.ErrNotPresentable):
		return http.StatusUnprocessableEntity, "not_presentable"
	case errors.Is(err, reveal.ErrInvalidState):
		return http.StatusConflict, "invalid_state"
	case errors.Is(err, service.ErrNotFound), errors.Is(err, os.ErrNotExist):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, repository.ErrFormat):
		return http.StatusBadRequest, "format"
	case errors.Is(err, repository.ErrUnsupportedFormat):
		return http.StatusBadRequest, "unsupported_format"
	case errors.Is(err, service.ErrInvalidScore):
		return http.StatusBadRequest, "invalid_score"
	case errors.Is(err, service.ErrNoPath):
		return http.StatusBadRequest, "no_path"
	case errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, scoreboard.ErrInvalidName),
		errors.Is(err, scoreboard.ErrDuplicateName),
		errors.Is(err, scoreboard.ErrShapeMismatch),
		errors.Is(err, scoreboard.ErrIndexOutOfRange),
		errors.Is(err, scoreboard.ErrInvalidSize):
		return http.StatusBadRequest, scoreboard.Kind(err)
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// decode reads a JSON body into v. An empty body leaves v untouched.
func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// confine resolves path inside root. With no root the path is used as given.
func confine(root, path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", nil
	}
	if root == "" {
		return path, nil
	}
	if filepath.IsAbs(path) {
		return "", fmt.Errorf("%w: path must be relative to the document root", ErrBadRequest)
	}
	full := filepath.Join(root, path)
	rel, err := filepath.Rel(root, full)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: path escapes the document root", ErrBadRequest)
	}
	return full, nil
}
