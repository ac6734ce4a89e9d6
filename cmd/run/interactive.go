package main

import (
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/docker/go-units"
	"golang.org/x/term"

	"github.com/wippyai/account-runtime/runtime"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	keyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	flagStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

// outcome is an execution to show next to the buffer.
type outcome struct {
	err   error
	res   *runtime.Result
	store *runtime.Store
}

type browserModel struct {
	snap     *snapshot
	result   *outcome
	filename string
	detail   viewport.Model
	selected int
	state    browserState
}

type browserState int

const (
	stateList browserState = iota
	stateDetail
)

func newBrowserModel(filename string, snap *snapshot, result *outcome) *browserModel {
	return &browserModel{
		snap:     snap,
		result:   result,
		filename: filename,
		detail:   viewport.New(80, 20),
		state:    stateList,
	}
}

func (m *browserModel) Init() tea.Cmd {
	return nil
}

func (m *browserModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.detail.Width = msg.Width
		m.detail.Height = msg.Height - 4

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit

		case "up", "k":
			if m.state == stateList && m.selected > 0 {
				m.selected--
				return m, nil
			}

		case "down", "j":
			if m.state == stateList && m.selected < len(m.snap.Rows)-1 {
				m.selected++
				return m, nil
			}

		case "enter":
			if m.state == stateList && len(m.snap.Rows) > 0 {
				m.detail.SetContent(m.describe(m.snap.Rows[m.selected]))
				m.detail.GotoTop()
				m.state = stateDetail
				return m, nil
			}

		case "esc":
			if m.state == stateDetail {
				m.state = stateList
				return m, nil
			}
		}
	}

	if m.state == stateDetail {
		var cmd tea.Cmd
		m.detail, cmd = m.detail.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *browserModel) describe(row accountRow) string {
	if row.DuplicateOf >= 0 {
		row = m.snap.Rows[row.DuplicateOf]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Key:      %s\n", keyStyle.Render(row.Key.String()))
	fmt.Fprintf(&b, "Owner:    %s\n", row.Owner)
	fmt.Fprintf(&b, "Flags:    %s\n", flagStyle.Render(row.flags()))
	fmt.Fprintf(&b, "Balance:  %d\n", row.Balance)
	fmt.Fprintf(&b, "Data:     %s\n", units.HumanSize(float64(len(row.Data))))

	if m.result != nil && m.result.store != nil {
		if after, ok := m.result.store.Get(row.Key); ok {
			fmt.Fprintf(&b, "After:    balance %d, data %s\n", after.Balance, units.HumanSize(float64(len(after.Data))))
		}
	}

	if len(row.Data) > 0 {
		b.WriteString("\n")
		b.WriteString(hex.Dump(row.Data))
	}
	return b.String()
}

func (m *browserModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Input Buffer"))
	b.WriteString(" ")
	b.WriteString(m.filename)
	b.WriteString("\n\n")

	switch m.state {
	case stateList:
		fmt.Fprintf(&b, "Program %s, %s of instruction data\n",
			keyStyle.Render(m.snap.Program.String()), units.HumanSize(float64(len(m.snap.Data))))
		if m.result != nil {
			b.WriteString(m.resultLine())
		}
		b.WriteString("\n")

		for i, row := range m.snap.Rows {
			line := fmt.Sprintf("%3d %s %s %12d", row.Index, row.flags(), row.Key, row.Balance)
			if row.DuplicateOf >= 0 {
				line = fmt.Sprintf("%3d duplicate of %d", row.Index, row.DuplicateOf)
			}
			if i == m.selected {
				b.WriteString(selectedStyle.Render("> " + line))
			} else {
				b.WriteString("  " + line)
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("↑/↓ select • enter inspect • q quit"))

	case stateDetail:
		b.WriteString(m.detail.View())
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("↑/↓ scroll • esc back • q quit"))
	}

	return b.String()
}

func (m *browserModel) resultLine() string {
	if m.result.err != nil {
		return errorStyle.Render(fmt.Sprintf("Execution failed: %v", m.result.err)) + "\n"
	}
	return resultStyle.Render(fmt.Sprintf("Execution %s succeeded, %d units, %d log lines",
		m.result.res.ID, m.result.res.UnitsConsumed, len(m.result.res.Logs))) + "\n"
}

func runInteractive(filename string, snap *snapshot, result *outcome) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("interactive mode needs a terminal")
	}
	p := tea.NewProgram(newBrowserModel(filename, snap, result), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
