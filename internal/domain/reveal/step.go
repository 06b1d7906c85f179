package reveal

import "github.com/shopspring/decimal"

// StepKind tells a surface what a step discloses.
type StepKind string

const (
	// KindCell discloses one team's score in one category.
	KindCell StepKind = "cell"
	// KindRunningTotals discloses every team's cumulative total after a
	// category; Totals carries one value per team.
	KindRunningTotals StepKind = "running_totals"
	// KindTotal discloses one team's final total.
	KindTotal StepKind = "total"
)

// Step is one unit of disclosure. Team and Category are -1 when the step is
// not about a single team or a single category.
type Step struct {
	Index        int               `json:"index"`
	Kind         StepKind          `json:"kind"`
	Team         int               `json:"team"`
	TeamName     string            `json:"team_name,omitempty"`
	Category     int               `json:"category"`
	CategoryName string            `json:"category_name,omitempty"`
	Value        decimal.Decimal   `json:"value"`
	Totals       []decimal.Decimal `json:"totals,omitempty"`
}

func (s Step) clone() Step {
	if s.Totals != nil {
		s.Totals = append([]decimal.Decimal(nil), s.Totals...)
	}
	return s
}
