package surface

import "github.com/charmbracelet/lipgloss"

var (
	accentColor = lipgloss.Color("#A78BFA")
	totalColor  = lipgloss.Color("#10B981")
	mutedColor  = lipgloss.Color("#9CA3AF")
	borderColor = lipgloss.Color("#6B7280")
	errorColor  = lipgloss.Color("#F87171")

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(accentColor).
			MarginBottom(1)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Padding(0, 1).
			Align(lipgloss.Center)

	cellStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Align(lipgloss.Right)

	labelStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Align(lipgloss.Left)

	hiddenStyle = cellStyle.Foreground(mutedColor)

	latestStyle = cellStyle.Bold(true).Foreground(accentColor)

	totalStyle = cellStyle.Bold(true).Foreground(totalColor)

	statusStyle = lipgloss.NewStyle().Foreground(mutedColor).MarginTop(1)

	errorStyle = lipgloss.NewStyle().Foreground(errorColor).MarginTop(1)

	helpStyle = lipgloss.NewStyle().Foreground(mutedColor)
)
