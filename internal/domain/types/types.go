// Package types contains common types used across the application
package types

import "github.com/shopspring/decimal"

// Scoreboard is the editor's view of the open document. Scores are indexed
// [team][category].
type Scoreboard struct {
	Path        string              `json:"path,omitempty"`
	Dirty       bool                `json:"dirty"`
	Teams       []string            `json:"teams"`
	Categories  []string            `json:"categories"`
	Scores      [][]decimal.Decimal `json:"scores"`
	Totals      []decimal.Decimal   `json:"totals"`
	Presentable bool                `json:"presentable"`
}

// ScoreUpdate reports the outcome of setting one cell
type ScoreUpdate struct {
	Team     string          `json:"team"`
	Category string          `json:"category"`
	Value    decimal.Decimal `json:"value"`
	Changed  bool            `json:"changed"`
	Total    decimal.Decimal `json:"total"`
}

// RevealStatus describes the current or last reveal run
type RevealStatus struct {
	ID       string `json:"id,omitempty"`
	State    string `json:"state"`
	Rendered int    `json:"rendered"`
	Total    int    `json:"total"`
	Error    string `json:"error,omitempty"`
}
