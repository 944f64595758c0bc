package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/isohyet-io/isohyet/types"
)

// LedgerView is the payload for the inspect_ledger view: the failure
// ledger as written by the most recent pass.
type LedgerView struct {
	Path    string                `json:"path"`
	Records []types.FailureRecord `json:"records"`
}

// UltimateView is the payload for the inspect_ultimate view: the
// accumulated ultimate failure log.
type UltimateView struct {
	Path    string                `json:"path"`
	Records []types.FailureRecord `json:"records"`
}

// AggregatesView is the payload for the inspect_aggregates view: the
// dates with a completed daily aggregate on disk.
type AggregatesView struct {
	DataDir string   `json:"data_dir"`
	Dates   []string `json:"dates"`
}

// InspectModel is a Bubble Tea model for inspect views.
type InspectModel struct {
	viewType string
	data     any
	width    int
	height   int
	quitting bool
}

// NewInspectModel creates a new inspect model.
func NewInspectModel(viewType string, data any) InspectModel {
	return InspectModel{
		viewType: viewType,
		data:     data,
	}
}

// Init implements tea.Model.
func (m InspectModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m InspectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, keys.Quit) {
			m.quitting = true
			return m, tea.Quit
		}
	}

	return m, nil
}

// View implements tea.Model.
func (m InspectModel) View() string {
	if m.quitting {
		return ""
	}

	var content string
	switch m.viewType {
	case "inspect_ledger":
		content = m.renderLedger()
	case "inspect_ultimate":
		content = m.renderUltimate()
	case "inspect_aggregates":
		content = m.renderAggregates()
	default:
		content = fmt.Sprintf("Unknown view type: %s", m.viewType)
	}

	help := HelpStyle.Render("Press q or Ctrl+C to quit")
	return content + "\n" + help
}

func (m InspectModel) renderLedger() string {
	data, ok := m.data.(*LedgerView)
	if !ok {
		return "Invalid data type for inspect_ledger"
	}
	return renderFailures("Failure Ledger", data.Path, data.Records,
		"No failures recorded. The next retry pass has nothing to do.")
}

func (m InspectModel) renderUltimate() string {
	data, ok := m.data.(*UltimateView)
	if !ok {
		return "Invalid data type for inspect_ultimate"
	}
	return renderFailures("Ultimate Failures", data.Path, data.Records,
		"No dates have failed both passes.")
}

func renderFailures(title, path string, records []types.FailureRecord, emptyMsg string) string {
	var b strings.Builder
	b.WriteString(TitleStyle.Render(title))
	b.WriteString("\n\n")
	b.WriteString(fmt.Sprintf("%s %s\n",
		LabelStyle.Render("File:"),
		ValueStyle.Render(path)))
	b.WriteString(fmt.Sprintf("%s %s\n\n",
		LabelStyle.Render("Records:"),
		ValueStyle.Render(fmt.Sprintf("%d", len(records)))))

	if len(records) == 0 {
		b.WriteString(SuccessStyle.Render(emptyMsg))
		b.WriteString("\n")
		return BoxStyle.Render(b.String())
	}

	for _, rec := range records {
		b.WriteString(fmt.Sprintf("  %s  %s  %s\n",
			ValueStyle.Render(rec.Date.String()),
			KindStyle(string(rec.Kind)).Render(string(rec.Kind)),
			HelpStyle.Render(truncate(rec.Message, 60))))
	}
	return BoxStyle.Render(b.String())
}

func (m InspectModel) renderAggregates() string {
	data, ok := m.data.(*AggregatesView)
	if !ok {
		return "Invalid data type for inspect_aggregates"
	}

	var b strings.Builder
	b.WriteString(TitleStyle.Render("Daily Aggregates"))
	b.WriteString("\n\n")
	b.WriteString(fmt.Sprintf("%s %s\n",
		LabelStyle.Render("Data dir:"),
		ValueStyle.Render(data.DataDir)))
	b.WriteString(fmt.Sprintf("%s %s\n",
		LabelStyle.Render("Dates:"),
		ValueStyle.Render(fmt.Sprintf("%d", len(data.Dates)))))

	if len(data.Dates) > 0 {
		b.WriteString("\n")
		first, last := data.Dates[0], data.Dates[len(data.Dates)-1]
		b.WriteString(fmt.Sprintf("%s %s\n",
			LabelStyle.Render("First:"),
			SuccessStyle.Render(first)))
		b.WriteString(fmt.Sprintf("%s %s\n",
			LabelStyle.Render("Last:"),
			SuccessStyle.Render(last)))
	}
	return BoxStyle.Render(b.String())
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

// keyMap defines key bindings.
type keyMap struct {
	Quit key.Binding
}

var keys = keyMap{
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

// RunInspectTUI runs the inspect TUI.
func RunInspectTUI(viewType string, data any) error {
	model := NewInspectModel(viewType, data)
	p := tea.NewProgram(model, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// RenderInspectStatic renders inspect data without full TUI (for fallback
// and tests).
func RenderInspectStatic(viewType string, data any) string {
	model := NewInspectModel(viewType, data)
	model.width = 80
	model.height = 24
	return lipgloss.NewStyle().Padding(1, 2).Render(model.View())
}
