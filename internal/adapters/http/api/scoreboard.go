package api

import (
	"net/http"
	"strings"
)

type newScoreboardRequest struct {
	Teams      *int `json:"teams"`
	Categories *int `json:"categories"`
}

type pathRequest struct {
	Path string `json:"path"`
}

type nameRequest struct {
	Name string `json:"name"`
}

type categoryRequest struct {
	Name   string   `json:"name"`
	Scores []string `json:"scores"`
}

type scoreRequest struct {
	Value string `json:"value"`
}

// ScoreboardHandler serves document and editing routes.
type ScoreboardHandler struct {
	deps              Dependencies
	root              string
	defaultTeams      int
	defaultCategories int
}

// NewScoreboardHandler creates a scoreboard handler. root confines file
// paths; empty means unrestricted.
func NewScoreboardHandler(deps Dependencies, root string, defaultTeams, defaultCategories int) *ScoreboardHandler {
	return &ScoreboardHandler{
		deps:              deps,
		root:              root,
		defaultTeams:      defaultTeams,
		defaultCategories: defaultCategories,
	}
}

// HandleScoreboard handles GET, POST and DELETE /scoreboard.
func (h *ScoreboardHandler) HandleScoreboard(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.view(w, r, http.StatusOK, http.StatusNotFound)

	case http.MethodPost:
		const op = "api.new_scoreboard"
		var req newScoreboardRequest
		if err := decode(r, &req); err != nil {
			writeFailure(w, WrapKind(op, ErrBadRequest, err), http.StatusConflict)
			return
		}
		teams, categories := h.defaultTeams, h.defaultCategories
		if req.Teams != nil {
			teams = *req.Teams
		}
		if req.Categories != nil {
			categories = *req.Categories
		}
		if err := h.deps.NewDocument(r.Context(), teams, categories); err != nil {
			writeFailure(w, Wrap(op, err), http.StatusConflict)
			return
		}
		h.view(w, r, http.StatusCreated, http.StatusConflict)

	case http.MethodDelete:
		if err := h.deps.Close(r.Context()); err != nil {
			writeFailure(w, Wrap("api.close_scoreboard", err), http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		http.NotFound(w, r)
	}
}

// HandleOpen handles POST /scoreboard/open.
func (h *ScoreboardHandler) HandleOpen(w http.ResponseWriter, r *http.Request) {
	const op = "api.open_scoreboard"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req pathRequest
	if err := decode(r, &req); err != nil {
		writeFailure(w, WrapKind(op, ErrBadRequest, err), http.StatusConflict)
		return
	}
	path, err := confine(h.root, req.Path)
	if err != nil {
		writeFailure(w, Wrap(op, err), http.StatusConflict)
		return
	}
	if path == "" {
		writeFailure(w, NewKind(op, ErrBadRequest), http.StatusConflict)
		return
	}
	if err := h.deps.Open(r.Context(), path); err != nil {
		writeFailure(w, Wrap(op, err), http.StatusConflict)
		return
	}
	h.view(w, r, http.StatusOK, http.StatusConflict)
}

// HandleSave handles POST /scoreboard/save. An empty path saves over the
// file the document came from.
func (h *ScoreboardHandler) HandleSave(w http.ResponseWriter, r *http.Request) {
	const op = "api.save_scoreboard"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req pathRequest
	if err := decode(r, &req); err != nil {
		writeFailure(w, WrapKind(op, ErrBadRequest, err), http.StatusConflict)
		return
	}
	path, err := confine(h.root, req.Path)
	if err != nil {
		writeFailure(w, Wrap(op, err), http.StatusConflict)
		return
	}
	if err := h.deps.Save(r.Context(), path); err != nil {
		writeFailure(w, Wrap(op, err), http.StatusConflict)
		return
	}
	h.view(w, r, http.StatusOK, http.StatusConflict)
}

// HandleAddTeam handles POST /teams.
func (h *ScoreboardHandler) HandleAddTeam(w http.ResponseWriter, r *http.Request) {
	const op = "api.add_team"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req nameRequest
	if err := decode(r, &req); err != nil {
		writeFailure(w, WrapKind(op, ErrBadRequest, err), http.StatusConflict)
		return
	}
	if err := h.deps.AddTeam(r.Context(), req.Name); err != nil {
		writeFailure(w, Wrap(op, err), http.StatusConflict)
		return
	}
	h.view(w, r, http.StatusCreated, http.StatusConflict)
}

// HandleAddCategory handles POST /categories.
func (h *ScoreboardHandler) HandleAddCategory(w http.ResponseWriter, r *http.Request) {
	const op = "api.add_category"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req categoryRequest
	if err := decode(r, &req); err != nil {
		writeFailure(w, WrapKind(op, ErrBadRequest, err), http.StatusConflict)
		return
	}
	if err := h.deps.AddCategory(r.Context(), req.Name, req.Scores); err != nil {
		writeFailure(w, Wrap(op, err), http.StatusConflict)
		return
	}
	h.view(w, r, http.StatusCreated, http.StatusConflict)
}

// HandleSetScore handles PUT /scores/{team}/{category}.
func (h *ScoreboardHandler) HandleSetScore(w http.ResponseWriter, r *http.Request) {
	const op = "api.set_score"
	if r.Method != http.MethodPut {
		http.NotFound(w, r)
		return
	}
	team, category := r.PathValue("team"), r.PathValue("category")
	if strings.TrimSpace(team) == "" || strings.TrimSpace(category) == "" {
		writeFailure(w, NewKind(op, ErrBadRequest), http.StatusConflict)
		return
	}
	var req scoreRequest
	if err := decode(r, &req); err != nil {
		writeFailure(w, WrapKind(op, ErrBadRequest, err), http.StatusConflict)
		return
	}
	update, err := h.deps.SetScore(r.Context(), team, category, req.Value)
	if err != nil {
		writeFailure(w, Wrap(op, err), http.StatusConflict)
		return
	}
	writeJSON(w, http.StatusOK, update)
}

func (h *ScoreboardHandler) view(w http.ResponseWriter, r *http.Request, status, noDocument int) {
	view, err := h.deps.View(r.Context())
	if err != nil {
		writeFailure(w, Wrap("api.view_scoreboard", err), noDocument)
		return
	}
	writeJSON(w, status, view)
}
