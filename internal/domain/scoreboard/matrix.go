// Package scoreboard holds the score matrix: ordered teams, ordered
// categories and a dense grid of decimal scores indexed [team][category].
//
// Teams and categories are only ever appended. Names are stored with
// surrounding whitespace removed, so " A" and "A" name the same team. Every
// mutation validates its input completely before touching state, so a failed
// call leaves the matrix exactly as it was. Totals are derived on demand and
// never stored.
package scoreboard

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Team is a participant; one column of the grid.
type Team struct {
	Index int    `json:"index"`
	Name  string `json:"name"`
}

// Category is a scoring dimension; one row of the grid.
type Category struct {
	Index int    `json:"index"`
	Name  string `json:"name"`
}

// Matrix is a scoreboard document. The zero value is an empty, valid
// matrix with no teams and no categories. A Matrix is not safe for
// concurrent use; callers serialize access.
type Matrix struct {
	teams      []string
	categories []string
	// scores[team][category]
	scores [][]decimal.Decimal
}

// New creates a matrix with teamCount teams named "Team 1".."Team N" and
// categoryCount categories named "Category 1".."Category M", all scores zero.
func New(teamCount, categoryCount int) (*Matrix, error) {
	if teamCount < 0 || categoryCount < 0 {
		return nil, fmt.Errorf("%w: %d teams x %d categories", ErrInvalidSize, teamCount, categoryCount)
	}

	m := &Matrix{
		teams:      make([]string, teamCount),
		categories: make([]string, categoryCount),
		scores:     make([][]decimal.Decimal, teamCount),
	}
	for i := range m.teams {
		m.teams[i] = fmt.Sprintf("Team %d", i+1)
		m.scores[i] = zeroRow(categoryCount)
	}
	for j := range m.categories {
		m.categories[j] = fmt.Sprintf("Category %d", j+1)
	}
	return m, nil
}

// FromGrid builds a matrix from complete data. scores is indexed
// [team][category]. Nothing is returned unless every name and the grid shape
// are valid. The inputs are copied.
func FromGrid(teams, categories []string, scores [][]decimal.Decimal) (*Matrix, error) {
	teams, categories = trimNames(teams), trimNames(categories)
	if err := validateNames("team", teams); err != nil {
		return nil, err
	}
	if err := validateNames("category", categories); err != nil {
		return nil, err
	}
	if len(scores) != len(teams) {
		return nil, fmt.Errorf("%w: %d score columns for %d teams", ErrShapeMismatch, len(scores), len(teams))
	}
	for i, row := range scores {
		if len(row) != len(categories) {
			return nil, fmt.Errorf("%w: team %q has %d scores for %d categories",
				ErrShapeMismatch, teams[i], len(row), len(categories))
		}
	}

	return &Matrix{
		teams:      teams,
		categories: categories,
		scores:     copyGrid(scores),
	}, nil
}

// TeamCount returns the number of teams.
func (m *Matrix) TeamCount() int { return len(m.teams) }

// CategoryCount returns the number of categories.
func (m *Matrix) CategoryCount() int { return len(m.categories) }

// IsValid reports whether the matrix can be presented: at least one team and
// one category.
func (m *Matrix) IsValid() bool {
	return len(m.teams) >= 1 && len(m.categories) >= 1
}

// AddTeam appends a team with a zero score for every existing category.
func (m *Matrix) AddTeam(name string) error {
	name = strings.TrimSpace(name)
	if err := checkName("team", name, m.teams); err != nil {
		return err
	}
	m.teams = append(m.teams, name)
	m.scores = append(m.scores, zeroRow(len(m.categories)))
	return nil
}

// AddCategory appends a category. initialScores supplies one value per
// existing team, in team order.
func (m *Matrix) AddCategory(name string, initialScores []decimal.Decimal) error {
	name = strings.TrimSpace(name)
	if err := checkName("category", name, m.categories); err != nil {
		return err
	}
	if len(initialScores) != len(m.teams) {
		return fmt.Errorf("%w: category %q has %d scores for %d teams",
			ErrShapeMismatch, name, len(initialScores), len(m.teams))
	}
	m.categories = append(m.categories, name)
	for i := range m.scores {
		m.scores[i] = append(m.scores[i], initialScores[i])
	}
	return nil
}

// SetScore replaces one cell and reports whether its numeric value changed.
func (m *Matrix) SetScore(team, category int, value decimal.Decimal) (bool, error) {
	if err := m.checkCell(team, category); err != nil {
		return false, err
	}
	if m.scores[team][category].Equal(value) {
		return false, nil
	}
	m.scores[team][category] = value
	return true, nil
}

// Score returns one cell.
func (m *Matrix) Score(team, category int) (decimal.Decimal, error) {
	if err := m.checkCell(team, category); err != nil {
		return decimal.Zero, err
	}
	return m.scores[team][category], nil
}

// TotalScore returns the sum of a team's scores over all categories.
func (m *Matrix) TotalScore(team int) (decimal.Decimal, error) {
	if err := m.checkTeam(team); err != nil {
		return decimal.Zero, err
	}
	return decimal.Sum(decimal.Zero, m.scores[team]...), nil
}

// Totals returns every team's total in team order.
func (m *Matrix) Totals() []decimal.Decimal {
	out := make([]decimal.Decimal, len(m.teams))
	for i, row := range m.scores {
		out[i] = decimal.Sum(decimal.Zero, row...)
	}
	return out
}

// Teams returns the teams in order.
func (m *Matrix) Teams() []Team {
	out := make([]Team, len(m.teams))
	for i, name := range m.teams {
		out[i] = Team{Index: i, Name: name}
	}
	return out
}

// Categories returns the categories in order.
func (m *Matrix) Categories() []Category {
	out := make([]Category, len(m.categories))
	for j, name := range m.categories {
		out[j] = Category{Index: j, Name: name}
	}
	return out
}

// TeamNames returns a copy of the team names in order.
func (m *Matrix) TeamNames() []string { return append([]string{}, m.teams...) }

// CategoryNames returns a copy of the category names in order.
func (m *Matrix) CategoryNames() []string { return append([]string{}, m.categories...) }

// Scores returns a deep copy of the grid indexed [team][category].
func (m *Matrix) Scores() [][]decimal.Decimal { return copyGrid(m.scores) }

// TeamName returns the name of one team.
func (m *Matrix) TeamName(team int) (string, error) {
	if err := m.checkTeam(team); err != nil {
		return "", err
	}
	return m.teams[team], nil
}

// CategoryName returns the name of one category.
func (m *Matrix) CategoryName(category int) (string, error) {
	if err := m.checkCategory(category); err != nil {
		return "", err
	}
	return m.categories[category], nil
}

// TeamIndex looks a team up by name, ignoring surrounding whitespace; -1
// when absent.
func (m *Matrix) TeamIndex(name string) int { return indexOf(m.teams, strings.TrimSpace(name)) }

// CategoryIndex looks a category up like TeamIndex; -1 when absent.
func (m *Matrix) CategoryIndex(name string) int {
	return indexOf(m.categories, strings.TrimSpace(name))
}

// Clone returns an independent copy.
func (m *Matrix) Clone() *Matrix {
	return &Matrix{
		teams:      append([]string{}, m.teams...),
		categories: append([]string{}, m.categories...),
		scores:     copyGrid(m.scores),
	}
}

// Equal reports whether other has the same names in the same order and
// numerically equal scores.
func (m *Matrix) Equal(other *Matrix) bool {
	if other == nil {
		return false
	}
	if !equalStrings(m.teams, other.teams) || !equalStrings(m.categories, other.categories) {
		return false
	}
	for i := range m.scores {
		for j := range m.scores[i] {
			if !m.scores[i][j].Equal(other.scores[i][j]) {
				return false
			}
		}
	}
	return true
}

func (m *Matrix) checkTeam(team int) error {
	if team < 0 || team >= len(m.teams) {
		return fmt.Errorf("%w: team %d of %d", ErrIndexOutOfRange, team, len(m.teams))
	}
	return nil
}

func (m *Matrix) checkCategory(category int) error {
	if category < 0 || category >= len(m.categories) {
		return fmt.Errorf("%w: category %d of %d", ErrIndexOutOfRange, category, len(m.categories))
	}
	return nil
}

func (m *Matrix) checkCell(team, category int) error {
	if err := m.checkTeam(team); err != nil {
		return err
	}
	return m.checkCategory(category)
}

// trimNames returns a trimmed copy of names, never nil.
func trimNames(names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = strings.TrimSpace(n)
	}
	return out
}

// checkName validates a candidate name against the existing names of its axis.
func checkName(axis, name string, existing []string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: %s name must not be blank", ErrInvalidName, axis)
	}
	if indexOf(existing, name) >= 0 {
		return fmt.Errorf("%w: %s %q already exists", ErrDuplicateName, axis, name)
	}
	return nil
}

func validateNames(axis string, names []string) error {
	for i, name := range names {
		if err := checkName(axis, name, names[:i]); err != nil {
			return err
		}
	}
	return nil
}

func indexOf(names []string, name string) int {
	for i, n := range names {
		if n == name {
			return i
		}
	}
	return -1
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func zeroRow(n int) []decimal.Decimal {
	row := make([]decimal.Decimal, n)
	for j := range row {
		row[j] = decimal.Zero
	}
	return row
}

func copyGrid(src [][]decimal.Decimal) [][]decimal.Decimal {
	out := make([][]decimal.Decimal, len(src))
	for i, row := range src {
		out[i] = append([]decimal.Decimal{}, row...)
	}
	return out
}
