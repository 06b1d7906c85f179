// Package site serves the embedded display page that projects a reveal in a
// browser.
package site

import (
	"context"
	"errors"
	"net/http"
)

// Error constants
var (
	ErrServe = errors.New("display site serve failed")
)

// Register attaches the display page routes to mux. The page itself opens
// a websocket to /ws.
//
//	GET /          -> redirect to /display/
//	GET /display/  -> display page and assets
func Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}

	mux.Handle("/display/", http.StripPrefix("/display/", http.FileServer(FS())))
	mux.Handle("/{$}", NewRootHandler())
}

// RootHandler sends visitors of the bare host to the display page.
type RootHandler struct{}

// NewRootHandler creates a new root handler
func NewRootHandler() *RootHandler {
	return &RootHandler{}
}

func (h *RootHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.NotFound(w, r)
		return
	}
	http.Redirect(w, r, "/display/", http.StatusFound)
}
