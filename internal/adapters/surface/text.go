// Package surface holds the places a reveal can be shown: a plain text
// stream, an interactive terminal and browser displays over a websocket.
package surface

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/okian/scoreboard/internal/domain/reveal"
)

// Text writes one line per step. It suits pipes, logs and CI output.
type Text struct {
	mu    sync.Mutex
	w     io.Writer
	teams []string
}

var _ reveal.Surface = (*Text)(nil)

// NewText returns a text surface. teams labels running-totals lines and may
// be nil.
func NewText(w io.Writer, teams []string) *Text {
	return &Text{w: w, teams: append([]string(nil), teams...)}
}

// Render implements reveal.Surface.
func (t *Text) Render(_ context.Context, step reveal.Step) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, err := fmt.Fprintln(t.w, Describe(step, t.teams))
	return err
}

// Clear implements reveal.Surface.
func (t *Text) Clear(context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, err := fmt.Fprintln(t.w, "--- reveal ---")
	return err
}

// Describe renders a step as a single human readable line.
func Describe(step reveal.Step, teams []string) string {
	switch step.Kind {
	case reveal.KindCell:
		return fmt.Sprintf("%s / %s: %s", step.CategoryName, step.TeamName, step.Value.String())
	case reveal.KindRunningTotals:
		parts := make([]string, len(step.Totals))
		for i, v := range step.Totals {
			name := fmt.Sprintf("#%d", i+1)
			if i < len(teams) {
				name = teams[i]
			}
			parts[i] = name + " " + v.String()
		}
		return fmt.Sprintf("after %s: %s", step.CategoryName, strings.Join(parts, ", "))
	case reveal.KindTotal:
		return fmt.Sprintf("Total / %s: %s", step.TeamName, step.Value.String())
	default:
		return fmt.Sprintf("step %d", step.Index)
	}
}
