package repository

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/okian/scoreboard/internal/domain/scoreboard"
	"github.com/shopspring/decimal"
)

// CornerMarker is the first header cell. It says rows are categories and
// columns are teams.
const CornerMarker = "Category"

var numberPattern = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)$`)

// CSV stores one category per row and one team per column:
//
//	Category,Alpha,Beta
//	Round 1,10,7.5
//	Round 2,3,-1
type CSV struct{}

var _ Repository = CSV{}

// Load implements Repository.
func (CSV) Load(ctx context.Context, r io.Reader) (*scoreboard.Matrix, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFormat, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, formatErr("empty document")
	}

	header := records[0]
	if !strings.EqualFold(strings.TrimSpace(header[0]), CornerMarker) {
		return nil, formatErr("corner cell is %q, want %q", header[0], CornerMarker)
	}

	teams := header[1:]
	categories := make([]string, 0, len(records)-1)
	scores := make([][]decimal.Decimal, len(teams))
	for i := range scores {
		scores[i] = make([]decimal.Decimal, 0, len(records)-1)
	}

	for n, row := range records[1:] {
		line := n + 2
		if len(row) != len(header) {
			return nil, formatErr("line %d has %d cells, want %d", line, len(row), len(header))
		}
		categories = append(categories, row[0])
		for i, cell := range row[1:] {
			v, err := ParseScore(cell)
			if err != nil {
				return nil, formatErr("line %d, team %q: %v", line, teams[i], err)
			}
			scores[i] = append(scores[i], v)
		}
	}

	return build(teams, categories, scores)
}

// Save implements Repository.
func (CSV) Save(_ context.Context, m *scoreboard.Matrix, w io.Writer) error {
	writer := csv.NewWriter(w)
	teams := m.TeamNames()
	grid := m.Scores()

	if err := writer.Write(append([]string{CornerMarker}, teams...)); err != nil {
		return err
	}
	for j, category := range m.CategoryNames() {
		row := make([]string, 0, len(teams)+1)
		row = append(row, category)
		for i := range teams {
			row = append(row, grid[i][j].String())
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// ParseScore parses a score written with an optional sign and a decimal
// point. Exponents, thousands separators and decimal commas are rejected.
func ParseScore(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if !numberPattern.MatchString(s) {
		return decimal.Zero, fmt.Errorf("%q is not a number", s)
	}
	return decimal.NewFromString(strings.TrimPrefix(s, "+"))
}

// build turns parsed cells into a matrix, reporting any name problem as a
// format error. Names are trimmed by the matrix, matching what AddTeam and
// AddCategory store.
func build(teams, categories []string, scores [][]decimal.Decimal) (*scoreboard.Matrix, error) {
	m, err := scoreboard.FromGrid(teams, categories, scores)
	if err != nil {
		if errors.Is(err, scoreboard.ErrInvalidName) ||
			errors.Is(err, scoreboard.ErrDuplicateName) ||
			errors.Is(err, scoreboard.ErrShapeMismatch) {
			return nil, fmt.Errorf("%w: %w", ErrFormat, err)
		}
		return nil, err
	}
	return m, nil
}
