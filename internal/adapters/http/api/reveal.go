package api

import (
	"net/http"
	"time"

	service "github.com/okian/scoreboard/internal/app"
)

type revealRequest struct {
	InterStepDelayMS  int64 `json:"inter_step_delay_ms"`
	ShowRunningTotals *bool `json:"show_running_totals"`
}

// RevealHandler starts, cancels and reports reveals on the display surface.
type RevealHandler struct {
	deps Dependencies
}

// NewRevealHandler creates a reveal handler.
func NewRevealHandler(deps Dependencies) *RevealHandler {
	return &RevealHandler{deps: deps}
}

// HandleReveal handles GET, POST and DELETE /reveal.
func (h *RevealHandler) HandleReveal(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, h.deps.RevealStatus(r.Context()))

	case http.MethodPost:
		const op = "api.start_reveal"
		var req revealRequest
		if err := decode(r, &req); err != nil {
			writeFailure(w, WrapKind(op, ErrBadRequest, err), http.StatusConflict)
			return
		}
		if req.InterStepDelayMS < 0 {
			writeFailure(w, NewKind(op, ErrBadRequest), http.StatusConflict)
			return
		}
		status, err := h.deps.StartReveal(r.Context(), service.RevealRequest{
			InterStepDelay:    time.Duration(req.InterStepDelayMS) * time.Millisecond,
			ShowRunningTotals: req.ShowRunningTotals,
		})
		if err != nil {
			writeFailure(w, Wrap(op, err), http.StatusConflict)
			return
		}
		writeJSON(w, http.StatusAccepted, status)

	case http.MethodDelete:
		status, err := h.deps.CancelReveal(r.Context())
		if err != nil {
			writeFailure(w, Wrap("api.cancel_reveal", err), http.StatusConflict)
			return
		}
		writeJSON(w, http.StatusOK, status)

	default:
		http.NotFound(w, r)
	}
}
