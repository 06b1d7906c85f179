package surface

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/okian/scoreboard/internal/domain/reveal"
)

// hiddenCell stands in for a score that has not been revealed yet.
const hiddenCell = "?"

// Messages

type stepMsg struct{ step reveal.Step }
type clearMsg struct{}

// FinishedMsg tells the model that the run reached a terminal state.
type FinishedMsg struct {
	State reveal.State
	Err   error
}

type keyMap struct {
	Stop key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Stop: key.NewBinding(
			key.WithKeys("q", "esc", "ctrl+c"),
			key.WithHelp("q/esc", "stop and exit"),
		),
	}
}

// Model is the Bubbletea model of the scoreboard being revealed. It only
// knows names up front; every score arrives through a step.
type Model struct {
	title      string
	teams      []string
	categories []string

	cells   [][]string // [category][team]
	running []string
	totals  []string

	latest    reveal.Step
	hasLatest bool

	keys     keyMap
	onStop   func()
	finished bool
	state    reveal.State
	err      error
	quitting bool
}

// NewModel builds an empty board. onStop runs when the user asks to stop a
// reveal that has not finished; it may be nil.
func NewModel(title string, teams, categories []string, onStop func()) Model {
	m := Model{
		title:      title,
		teams:      append([]string(nil), teams...),
		categories: append([]string(nil), categories...),
		keys:       defaultKeyMap(),
		onStop:     onStop,
	}
	m.reset()
	return m
}

func (m *Model) reset() {
	m.cells = make([][]string, len(m.categories))
	for j := range m.cells {
		m.cells[j] = make([]string, len(m.teams))
	}
	m.running = nil
	m.totals = make([]string, len(m.teams))
	m.hasLatest = false
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Stop) {
			if !m.finished && m.onStop != nil {
				m.onStop()
			}
			m.quitting = true
			return m, tea.Quit
		}

	case clearMsg:
		m.reset()

	case stepMsg:
		m.apply(msg.step)

	case FinishedMsg:
		m.finished = true
		m.state = msg.State
		m.err = msg.Err
	}
	return m, nil
}

func (m *Model) apply(step reveal.Step) {
	switch step.Kind {
	case reveal.KindCell:
		if step.Category < 0 || step.Category >= len(m.cells) || step.Team < 0 || step.Team >= len(m.teams) {
			return
		}
		m.cells[step.Category][step.Team] = step.Value.String()
	case reveal.KindRunningTotals:
		m.running = make([]string, len(step.Totals))
		for i, v := range step.Totals {
			m.running[i] = v.String()
		}
	case reveal.KindTotal:
		if step.Team < 0 || step.Team >= len(m.totals) {
			return
		}
		m.totals[step.Team] = step.Value.String()
	default:
		return
	}
	m.latest = step
	m.hasLatest = true
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(m.title))
	b.WriteString("\n")
	b.WriteString(m.board())
	b.WriteString("\n")

	switch {
	case m.err != nil:
		b.WriteString(errorStyle.Render("reveal stopped: " + m.err.Error()))
	case m.finished:
		b.WriteString(statusStyle.Render("reveal " + m.state.String()))
	case m.hasLatest:
		b.WriteString(statusStyle.Render(Describe(m.latest, m.teams)))
	default:
		b.WriteString(statusStyle.Render("get ready..."))
	}
	b.WriteString("\n")

	help := m.keys.Stop.Help()
	b.WriteString(helpStyle.Render(fmt.Sprintf("%s: %s", help.Key, help.Desc)))
	return b.String()
}

// board lays out categories as rows and teams as columns, followed by the
// running and final totals.
func (m Model) board() string {
	headers := append([]string{"Category"}, m.teams...)

	rows := make([][]string, 0, len(m.categories)+2)
	for j, category := range m.categories {
		rows = append(rows, append([]string{category}, orHidden(m.cells[j])...))
	}
	runningRow := -1
	if m.running != nil {
		runningRow = len(rows)
		rows = append(rows, append([]string{"So far"}, orHidden(m.running)...))
	}
	totalRow := len(rows)
	rows = append(rows, append([]string{"Σ Total"}, orHidden(m.totals)...))

	latestRow, latestCol := m.latestCell(runningRow, totalRow)

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(borderColor)).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case col == 0:
				return labelStyle
			case row == latestRow && col == latestCol:
				return latestStyle
			case row < len(rows) && col < len(rows[row]) && rows[row][col] == hiddenCell:
				return hiddenStyle
			case row == totalRow:
				return totalStyle
			default:
				return cellStyle
			}
		})
	return t.String()
}

// latestCell locates the most recently revealed value, or -1, -1. A running
// totals step highlights the whole row through its label column.
func (m Model) latestCell(runningRow, totalRow int) (int, int) {
	if !m.hasLatest {
		return -1, -1
	}
	switch m.latest.Kind {
	case reveal.KindCell:
		return m.latest.Category, m.latest.Team + 1
	case reveal.KindRunningTotals:
		return runningRow, 0
	case reveal.KindTotal:
		return totalRow, m.latest.Team + 1
	default:
		return -1, -1
	}
}

func orHidden(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		if v == "" {
			v = hiddenCell
		}
		out[i] = v
	}
	return out
}

// Terminal shows the reveal in an interactive full-screen board.
type Terminal struct {
	program *tea.Program
}

var _ reveal.Surface = (*Terminal)(nil)

// NewTerminal creates the terminal surface. Run must be called for steps to
// be displayed; Render blocks until the program accepts the step.
func NewTerminal(title string, teams, categories []string, onStop func(), opts ...tea.ProgramOption) *Terminal {
	return &Terminal{
		program: tea.NewProgram(NewModel(title, teams, categories, onStop), opts...),
	}
}

// Render implements reveal.Surface.
func (t *Terminal) Render(_ context.Context, step reveal.Step) error {
	t.program.Send(stepMsg{step: step})
	return nil
}

// Clear implements reveal.Surface.
func (t *Terminal) Clear(context.Context) error {
	t.program.Send(clearMsg{})
	return nil
}

// Finish reports the end of the run; the board stays up until the user exits.
func (t *Terminal) Finish(state reveal.State, err error) {
	t.program.Send(FinishedMsg{State: state, Err: err})
}

// Run blocks until the user exits.
func (t *Terminal) Run() error {
	_, err := t.program.Run()
	return err
}
