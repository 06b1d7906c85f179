package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/okian/scoreboard/internal/domain/scoreboard"
	"github.com/shopspring/decimal"
)

// document is the JSON layout. Scores are indexed [team][category] and
// written as decimal strings.
type document struct {
	Teams      []string   `json:"teams"`
	Categories []string   `json:"categories"`
	Scores     [][]string `json:"scores"`
}

// JSON stores the scoreboard as a single object.
type JSON struct{}

var _ Repository = JSON{}

// Load implements Repository.
func (JSON) Load(ctx context.Context, r io.Reader) (*scoreboard.Matrix, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()

	var doc document
	if err := dec.Decode(&doc); err != nil {
		if err == io.EOF {
			return nil, formatErr("empty document")
		}
		return nil, fmt.Errorf("%w: %w", ErrFormat, err)
	}
	if err := dec.Decode(&json.RawMessage{}); !errors.Is(err, io.EOF) {
		return nil, formatErr("trailing data after the document")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if len(doc.Scores) != len(doc.Teams) {
		return nil, formatErr("%d score columns for %d teams", len(doc.Scores), len(doc.Teams))
	}
	teams := doc.Teams
	scores := make([][]decimal.Decimal, len(doc.Scores))
	for i, col := range doc.Scores {
		if len(col) != len(doc.Categories) {
			return nil, formatErr("team %q has %d scores for %d categories", teams[i], len(col), len(doc.Categories))
		}
		scores[i] = make([]decimal.Decimal, len(col))
		for j, cell := range col {
			v, err := ParseScore(cell)
			if err != nil {
				return nil, formatErr("team %q, category %d: %v", teams[i], j, err)
			}
			scores[i][j] = v
		}
	}

	return build(teams, doc.Categories, scores)
}

// Save implements Repository.
func (JSON) Save(_ context.Context, m *scoreboard.Matrix, w io.Writer) error {
	grid := m.Scores()
	doc := document{
		Teams:      m.TeamNames(),
		Categories: m.CategoryNames(),
		Scores:     make([][]string, len(grid)),
	}
	for i, col := range grid {
		doc.Scores[i] = make([]string, len(col))
		for j, v := range col {
			doc.Scores[i][j] = v.String()
		}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}
