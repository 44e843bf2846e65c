// Package dashboard provides the overview tab: automation control, headline
// numbers and the live records table.
package dashboard

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/crawler-dashboard-tui/internal/app"
	"github.com/j-veylop/crawler-dashboard-tui/internal/ui/components"
)

// maxRecordRows caps the live records table.
const maxRecordRows = 50

// keyMap defines the key bindings specific to the dashboard tab.
type keyMap struct {
	ToggleAutomation key.Binding
	Export           key.Binding
	ScrollDown       key.Binding
	ScrollUp         key.Binding
	Top              key.Binding
	Bottom           key.Binding
}

// defaultKeyMap returns the default key bindings for the dashboard tab.
func defaultKeyMap() keyMap {
	return keyMap{
		ToggleAutomation: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "start/stop automation"),
		),
		Export: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "export csv"),
		),
		ScrollDown: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "scroll down"),
		),
		ScrollUp: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "scroll up"),
		),
		Top: key.NewBinding(
			key.WithKeys("g", "home"),
			key.WithHelp("g", "top"),
		),
		Bottom: key.NewBinding(
			key.WithKeys("G", "end"),
			key.WithHelp("G", "bottom"),
		),
	}
}

// Model represents the dashboard tab state.
type Model struct {
	state          *app.State
	commands       *app.Commands
	spinner        components.LoadingSpinner
	activeBar      components.ProgressBar
	keys           keyMap
	viewport       viewport.Model
	width          int
	height         int
	animationFrame int
}

// New creates a new dashboard model.
func New(state *app.State, commands *app.Commands) *Model {
	return &Model{
		state:     state,
		commands:  commands,
		spinner:   components.NewSpinner("Connecting to crawler service..."),
		activeBar: components.NewProgressBar(),
		keys:      defaultKeyMap(),
		viewport:  viewport.New(0, 0),
	}
}

// Init initializes the model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Init(), components.AnimationTick())
}

// Update handles messages and updates the model.
func (m *Model) Update(msg tea.Msg) (app.Tab, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case components.AnimationTickMsg:
		m.animationFrame++
		// Only the initial load shimmers.
		if m.state.IsInitialLoading() {
			cmds = append(cmds, components.AnimationTick())
		}

	case app.ServiceEventMsg, app.TabActivatedMsg:
		cmds = append(cmds, m.syncActiveBar())

	case tea.KeyMsg:
		cmds = append(cmds, m.handleKeyMsg(msg))

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	default:
		var cmd tea.Cmd
		m.activeBar, cmd = m.activeBar.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// syncActiveBar animates the active accounts bar towards the latest ratio.
func (m *Model) syncActiveBar() tea.Cmd {
	auto := m.state.Snapshot().Automation
	percent := 0.0
	if auto.TotalAccounts > 0 {
		percent = float64(auto.ActiveAccounts) / float64(auto.TotalAccounts) * 100
	}
	if percent == m.activeBar.Percent() {
		return nil
	}
	return m.activeBar.SetPercent(percent)
}

func (m *Model) handleKeyMsg(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.ToggleAutomation):
		if m.commands.AutomationPhase().Transient() {
			return m.commands.NotifyInfo("Automation toggle already in progress")
		}
		return m.commands.ToggleAutomation()
	case key.Matches(msg, m.keys.Export):
		return m.commands.Export()
	case key.Matches(msg, m.keys.Top):
		m.viewport.GotoTop()
	case key.Matches(msg, m.keys.Bottom):
		m.viewport.GotoBottom()
	default:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return cmd
	}
	return nil
}

// SetSize sets the available size for the dashboard.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height
	m.activeBar.SetWidth(max(width/3, 20))
}

// ShortHelp returns the key bindings for the short help view.
func (m *Model) ShortHelp() []key.Binding {
	return []key.Binding{
		m.keys.ToggleAutomation,
		m.keys.Export,
		m.keys.ScrollDown,
		m.keys.ScrollUp,
	}
}

// FullHelp returns the key bindings for the full help view.
func (m *Model) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{m.keys.ToggleAutomation, m.keys.Export},
		{m.keys.ScrollDown, m.keys.ScrollUp},
		{m.keys.Top, m.keys.Bottom},
	}
}
