// Package statistics provides the statistics tab: remote aggregates, the
// crawl log and the locally recorded cycle history.
package statistics

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/crawler-dashboard-tui/internal/app"
	"github.com/j-veylop/crawler-dashboard-tui/internal/models"
)

// recentCrawls is how many crawl log entries are listed.
const recentCrawls = 10

// keyMap defines the key bindings specific to the statistics tab.
type keyMap struct {
	ToggleRange key.Binding
	Reload      key.Binding
	Up          key.Binding
	Down        key.Binding
}

// defaultKeyMap returns the default key bindings for the statistics tab.
func defaultKeyMap() keyMap {
	return keyMap{
		ToggleRange: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "toggle time range"),
		),
		Reload: key.NewBinding(
			key.WithKeys("l"),
			key.WithHelp("l", "reload history"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "scroll up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "scroll down"),
		),
	}
}

// Model represents the statistics tab state.
type Model struct {
	state     *app.State
	commands  *app.Commands
	width     int
	height    int
	keys      keyMap
	viewport  viewport.Model
	timeRange models.TimeRange
	errorMsg  string
}

// New creates a new statistics model.
func New(state *app.State, commands *app.Commands) *Model {
	return &Model{
		state:     state,
		commands:  commands,
		keys:      defaultKeyMap(),
		viewport:  viewport.New(0, 0),
		timeRange: models.TimeRange24Hours,
	}
}

// Init initializes the statistics tab.
func (m *Model) Init() tea.Cmd {
	return nil
}

// TimeRange returns the selected history window.
func (m *Model) TimeRange() models.TimeRange {
	return m.timeRange
}

// loadHistory requests the local history for the selected range.
func (m *Model) loadHistory() tea.Cmd {
	cmd := m.commands.LoadHistory(m.timeRange)
	if cmd != nil {
		m.state.SetLoading(app.ResourceHistory, true)
	}
	return cmd
}

// Update handles messages for the statistics tab.
func (m *Model) Update(msg tea.Msg) (app.Tab, tea.Cmd) {
	switch msg := msg.(type) {
	case app.TabActivatedMsg:
		return m, m.loadHistory()

	case app.HistoryLoadedMsg:
		m.errorMsg = ""
		if msg.Err != nil {
			m.errorMsg = msg.Err.Error()
		}

	case tea.KeyMsg:
		return m, m.handleKeyMsg(msg)
	}

	return m, nil
}

func (m *Model) handleKeyMsg(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.ToggleRange):
		m.timeRange = m.timeRange.Next()
		return m.loadHistory()

	case key.Matches(msg, m.keys.Reload):
		return m.loadHistory()

	default:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return cmd
	}
}

// SetSize sets the available size for the statistics tab.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height
}

// ShortHelp returns the key bindings for the short help view.
func (m *Model) ShortHelp() []key.Binding {
	return []key.Binding{
		m.keys.ToggleRange,
		m.keys.Reload,
	}
}

// FullHelp returns the key bindings for the full help view.
func (m *Model) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{m.keys.ToggleRange, m.keys.Reload},
		{m.keys.Up, m.keys.Down},
	}
}
