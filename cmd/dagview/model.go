package main

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/irhox/daphne/pkg/daphne"
)

type viewState int

const (
	stateBrowse viewState = iota
	stateConfirm
	stateResult
)

var (
	styleBase = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("240"))

	styleTitle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("99")).
			Padding(0, 1)

	styleHelp = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Padding(0, 1)

	styleScript = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)

	styleOverlay = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("214")).
			Padding(1, 3).
			MarginLeft(2)

	styleOverlayTitle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("214"))

	styleKey = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("99"))

	styleOK = lipgloss.NewStyle().
		Foreground(lipgloss.Color("42")).
		Padding(0, 1)

	styleErr = lipgloss.NewStyle().
		Foreground(lipgloss.Color("196")).
		Padding(0, 1)
)

type model struct {
	name      string
	table     table.Model
	targets   []target
	trace     *bytes.Buffer
	state     viewState
	resultMsg string
	resultErr error
}

func newModel(name string, targets []target, trace *bytes.Buffer) model {
	columns := []table.Column{
		{Title: "TARGET", Width: 18},
		{Title: "DESTINATION", Width: 28},
		{Title: "LINES", Width: 6},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithRows(toRows(targets)),
		table.WithFocused(true),
		table.WithHeight(8),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true).
		Foreground(lipgloss.Color("99"))
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	return model{
		name:    name,
		table:   t,
		targets: targets,
		trace:   trace,
		state:   stateBrowse,
	}
}

func toRows(targets []target) []table.Row {
	rows := make([]table.Row, len(targets))
	for i, t := range targets {
		lines := strings.Count(strings.TrimRight(t.script, "\n"), "\n") + 1
		rows[i] = table.Row{t.name, t.dest, fmt.Sprintf("%d", lines)}
	}
	return rows
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch m.state {
	case stateBrowse:
		return m.updateBrowse(msg)
	case stateConfirm:
		return m.updateConfirm(msg)
	case stateResult:
		return m.updateResult(msg)
	}
	return m, nil
}

func (m model) updateBrowse(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "enter":
			if len(m.targets) > 0 {
				m.state = stateConfirm
			}
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m model) updateConfirm(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch strings.ToLower(msg.String()) {
		case "y":
			m.runSelected()
			m.state = stateResult
			return m, nil
		case "n", "esc", "q":
			m.state = stateBrowse
			return m, nil
		}
	}
	return m, nil
}

func (m model) updateResult(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "esc", "enter":
			m.state = stateBrowse
			return m, nil
		}
	}
	return m, nil
}

// runSelected materializes the selected target. The engine run blocks
// the view; output collects in the trace buffer.
func (m *model) runSelected() {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.targets) {
		return
	}
	t := m.targets[idx]
	m.trace.Reset()
	err := t.root.Compute(daphne.Verbose(true))
	m.resultErr = err
	out := strings.TrimSpace(m.trace.String())
	switch {
	case err != nil:
		m.resultMsg = err.Error()
	case out != "":
		m.resultMsg = out
	default:
		m.resultMsg = "ran " + t.name + " -> " + t.dest
	}
}

func (m model) View() string {
	title := styleTitle.Render("DAGVIEW  [" + m.name + "]  targets")
	tableView := styleBase.Render(m.table.View())

	switch m.state {
	case stateConfirm:
		var run string
		if idx := m.table.Cursor(); idx >= 0 && idx < len(m.targets) {
			t := m.targets[idx]
			run = fmt.Sprintf("%s -> %s", t.name, t.dest)
		}
		overlay := styleOverlay.Render(
			styleOverlayTitle.Render("Run "+run+" ?") + "\n\n" +
				styleKey.Render("y") + " run    " +
				styleKey.Render("n") + " cancel",
		)
		return title + "\n" + tableView + "\n" + overlay

	case stateResult:
		var msg string
		if m.resultErr != nil {
			msg = styleErr.Render(m.resultMsg)
		} else {
			msg = styleOK.Render(m.resultMsg)
		}
		help := styleHelp.Render("enter  back    q  quit")
		return title + "\n" + tableView + "\n" + msg + "\n" + help

	default:
		var help string
		if len(m.targets) == 0 {
			help = styleHelp.Render("no targets.  q  quit")
		} else {
			help = styleHelp.Render("↑/↓  navigate    enter  run    q  quit")
		}
		return title + "\n" + tableView + "\n" + m.scriptPreview() + "\n" + help
	}
}

// scriptPreview renders the emitted script of the selected target.
func (m model) scriptPreview() string {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.targets) {
		return ""
	}
	return styleScript.Render(strings.TrimRight(m.targets[idx].script, "\n"))
}
