// Package keywords provides the keyword monitor tab.
package keywords

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/crawler-dashboard-tui/internal/app"
	kw "github.com/j-veylop/crawler-dashboard-tui/internal/keywords"
)

type keyMap struct {
	Raise key.Binding
	Lower key.Binding
	Reset key.Binding
	Up    key.Binding
	Down  key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Raise: key.NewBinding(
			key.WithKeys("+", "="),
			key.WithHelp("+", "raise threshold"),
		),
		Lower: key.NewBinding(
			key.WithKeys("-", "_"),
			key.WithHelp("-", "lower threshold"),
		),
		Reset: key.NewBinding(
			key.WithKeys("R"),
			key.WithHelp("R", "reset counts"),
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

// Model represents the keyword monitor tab state.
type Model struct {
	state    *app.State
	commands *app.Commands
	width    int
	height   int
	keys     keyMap
	viewport viewport.Model
}

// New creates a new keyword monitor model.
func New(state *app.State, commands *app.Commands) *Model {
	return &Model{
		state:    state,
		commands: commands,
		keys:     defaultKeyMap(),
		viewport: viewport.New(0, 0),
	}
}

// Init initializes the keywords tab.
func (m *Model) Init() tea.Cmd {
	return nil
}

// threshold returns the active alert threshold.
func (m *Model) threshold() int {
	if t := m.state.Settings().AlertThreshold; t > 0 {
		return t
	}
	return kw.DefaultThreshold
}

// Update handles messages for the keywords tab.
func (m *Model) Update(msg tea.Msg) (app.Tab, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		return m, m.handleKeyMsg(msg)
	}
	return m, nil
}

func (m *Model) handleKeyMsg(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Raise):
		return m.setThreshold(m.threshold() + 1)

	case key.Matches(msg, m.keys.Lower):
		cur := m.threshold()
		if cur <= 1 {
			return m.commands.NotifyWarning("Alert threshold cannot go below 1")
		}
		return m.setThreshold(cur - 1)

	case key.Matches(msg, m.keys.Reset):
		cmd := m.commands.ResetKeywords()
		if cmd == nil {
			return m.commands.NotifyWarning("Crawler service not connected")
		}
		return cmd

	default:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return cmd
	}
}

func (m *Model) setThreshold(n int) tea.Cmd {
	cmd := m.commands.SetAlertThreshold(kw.ClampThreshold(n))
	if cmd == nil {
		return m.commands.NotifyWarning("Crawler service not connected")
	}
	return cmd
}

// SetSize sets the available size for the keywords tab.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height
}

// ShortHelp returns the key bindings for the short help view.
func (m *Model) ShortHelp() []key.Binding {
	return []key.Binding{m.keys.Raise, m.keys.Lower, m.keys.Reset}
}

// FullHelp returns the key bindings for the full help view.
func (m *Model) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{m.keys.Raise, m.keys.Lower, m.keys.Reset},
		{m.keys.Up, m.keys.Down},
	}
}
