// Package reveal turns a scoreboard into a paced, cancellable disclosure of
// scores on a presentation surface.
//
// The package has three layers: BuildPlan derives the ordered steps from a
// snapshot of the scoreboard, Next decides what the driver does at any
// moment, and Sequencer runs the Idle -> Running -> Completed|Cancelled state
// machine that pushes steps to a Surface.
package reveal

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Source is the read surface a plan is built from. *scoreboard.Matrix
// satisfies it.
type Source interface {
	IsValid() bool
	TeamNames() []string
	CategoryNames() []string
	// Scores returns a copy of the grid indexed [team][category].
	Scores() [][]decimal.Decimal
}

// PlanOptions tunes which optional phases a plan contains.
type PlanOptions struct {
	// ShowRunningTotals adds one KindRunningTotals step after every
	// category, carrying totals accumulated over the categories revealed
	// so far.
	ShowRunningTotals bool
}

// BuildPlan returns the canonical reveal order for src: categories in stored
// order, teams in stored order within each category, then one final total
// per team. The order never depends on score values. The returned steps hold
// copies of the values, so later edits to src do not affect them.
func BuildPlan(src Source, opts PlanOptions) ([]Step, error) {
	if src == nil || !src.IsValid() {
		return nil, ErrNotPresentable
	}

	teams := src.TeamNames()
	categories := src.CategoryNames()
	grid := src.Scores()
	if len(grid) != len(teams) {
		return nil, fmt.Errorf("%w: %d score columns for %d teams", ErrNotPresentable, len(grid), len(teams))
	}
	for i := range grid {
		if len(grid[i]) != len(categories) {
			return nil, fmt.Errorf("%w: team %q has %d scores for %d categories",
				ErrNotPresentable, teams[i], len(grid[i]), len(categories))
		}
	}

	size := len(teams)*len(categories) + len(teams)
	if opts.ShowRunningTotals {
		size += len(categories)
	}
	steps := make([]Step, 0, size)

	running := make([]decimal.Decimal, len(teams))
	for i := range running {
		running[i] = decimal.Zero
	}

	for j, category := range categories {
		for i, team := range teams {
			value := grid[i][j]
			running[i] = running[i].Add(value)
			steps = append(steps, Step{
				Index:        len(steps),
				Kind:         KindCell,
				Team:         i,
				TeamName:     team,
				Category:     j,
				CategoryName: category,
				Value:        value,
			})
		}
		if opts.ShowRunningTotals {
			steps = append(steps, Step{
				Index:        len(steps),
				Kind:         KindRunningTotals,
				Team:         -1,
				Category:     j,
				CategoryName: category,
				Value:        decimal.Zero,
				Totals:       append([]decimal.Decimal(nil), running...),
			})
		}
	}

	// After the last category the running totals are the final totals.
	for i, team := range teams {
		steps = append(steps, Step{
			Index:    len(steps),
			Kind:     KindTotal,
			Team:     i,
			TeamName: team,
			Category: -1,
			Value:    running[i],
		})
	}

	return steps, nil
}
