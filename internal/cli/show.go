package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/okian/scoreboard/internal/domain/types"
	"github.com/spf13/cobra"
)

var (
	showBorderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	showHeaderStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1).Align(lipgloss.Center)
	showLabelStyle  = lipgloss.NewStyle().Padding(0, 1)
	showCellStyle   = lipgloss.NewStyle().Padding(0, 1).Align(lipgloss.Right)
	showTotalStyle  = showCellStyle.Bold(true).Foreground(lipgloss.Color("#10B981"))
	showNoteStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#9CA3AF"))
)

func newShowCommand(rt *commandRuntime) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "show FILE",
		Short: "Print a scoreboard with team totals",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			sess := rt.session()
			if err := sess.Open(ctx, args[0]); err != nil {
				return err
			}
			view, err := sess.View(ctx)
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(view)
			}
			return printBoard(cmd.OutOrStdout(), view)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the board as JSON")
	return cmd
}

// printBoard writes categories as rows and teams as columns, closed by a
// totals row.
func printBoard(w io.Writer, view types.Scoreboard) error {
	if len(view.Teams) == 0 {
		_, err := fmt.Fprintln(w, showNoteStyle.Render("No teams yet."))
		return err
	}

	rows := make([][]string, 0, len(view.Categories)+1)
	for j, category := range view.Categories {
		row := make([]string, 0, len(view.Teams)+1)
		row = append(row, category)
		for i := range view.Teams {
			row = append(row, view.Scores[i][j].String())
		}
		rows = append(rows, row)
	}
	totals := make([]string, 0, len(view.Teams)+1)
	totals = append(totals, "Σ Total")
	for _, total := range view.Totals {
		totals = append(totals, total.String())
	}
	rows = append(rows, totals)
	totalRow := len(rows) - 1

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(showBorderStyle).
		Headers(append([]string{"Category"}, view.Teams...)...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return showHeaderStyle
			case col == 0:
				return showLabelStyle
			case row == totalRow:
				return showTotalStyle
			default:
				return showCellStyle
			}
		})

	var b strings.Builder
	b.WriteString(t.String())
	b.WriteString("\n")
	if !view.Presentable {
		b.WriteString(showNoteStyle.Render("Add a category before presenting."))
		b.WriteString("\n")
	}
	_, err := io.WriteString(w, b.String())
	return err
}
