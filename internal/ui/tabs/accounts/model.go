// Package accounts provides the crawler account management tab.
package accounts

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"

	"github.com/j-veylop/crawler-dashboard-tui/internal/app"
	"github.com/j-veylop/crawler-dashboard-tui/internal/models"
	"github.com/j-veylop/crawler-dashboard-tui/internal/services/actions"
	"github.com/j-veylop/crawler-dashboard-tui/internal/ui/components"
)

// formField represents which field is currently focused in the add form.
type formField int

const (
	fieldUsername formField = iota
	fieldPassword
	fieldGuild
	fieldSubmit
	fieldCancel

	formFieldCount
)

// keyMap defines the key bindings specific to the accounts tab.
type keyMap struct {
	Select      key.Binding
	SelectAll   key.Binding
	ClearSelect key.Binding
	Delete      key.Binding
	Add         key.Binding
	BatchStart  key.Binding
	BatchStop   key.Binding
	BatchDelete key.Binding
	Escape      key.Binding
}

// defaultKeyMap returns the default key bindings for the accounts tab.
func defaultKeyMap() keyMap {
	return keyMap{
		Select: key.NewBinding(
			key.WithKeys(" ", "space"),
			key.WithHelp("space", "select"),
		),
		SelectAll: key.NewBinding(
			key.WithKeys("A"),
			key.WithHelp("A", "select all"),
		),
		ClearSelect: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "clear selection"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d", "delete"),
			key.WithHelp("d", "delete"),
		),
		Add: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "add account"),
		),
		BatchStart: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "start selected"),
		),
		BatchStop: key.NewBinding(
			key.WithKeys("S"),
			key.WithHelp("S", "stop selected"),
		),
		BatchDelete: key.NewBinding(
			key.WithKeys("D"),
			key.WithHelp("D", "delete selected"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel"),
		),
	}
}

var columns = []table.Column{
	{Title: " ", Width: 2},
	{Title: "Username", Width: 20},
	{Title: "Status", Width: 9},
	{Title: "Success", Width: 8},
	{Title: "Crawls", Width: 8},
	{Title: "Auto", Width: 5},
	{Title: "Last crawl", Width: 16},
}

// Model represents the accounts tab state.
type Model struct {
	state         *app.State
	commands      *app.Commands
	table         table.Model
	width         int
	height        int
	adding        bool
	focusedField  formField
	usernameInput textinput.Model
	passwordInput textinput.Model
	guildInput    textinput.Model
	spinner       components.LoadingSpinner
	keys          keyMap
	ids           []string
	selected      map[string]bool
}

// New creates a new accounts model.
func New(state *app.State, commands *app.Commands) *Model {
	usernameInput := textinput.New()
	usernameInput.Placeholder = "crawler login"
	usernameInput.CharLimit = 64
	usernameInput.Width = 40

	passwordInput := textinput.New()
	passwordInput.Placeholder = "password"
	passwordInput.CharLimit = 128
	passwordInput.Width = 40
	passwordInput.EchoMode = textinput.EchoPassword

	guildInput := textinput.New()
	guildInput.Placeholder = "optional"
	guildInput.CharLimit = 64
	guildInput.Width = 40

	return &Model{
		state:         state,
		commands:      commands,
		table:         components.NewTable(columns, 10),
		usernameInput: usernameInput,
		passwordInput: passwordInput,
		guildInput:    guildInput,
		spinner:       components.NewSpinner("Loading accounts..."),
		keys:          defaultKeyMap(),
		focusedField:  fieldUsername,
		selected:      make(map[string]bool),
	}
}

// Init initializes the accounts tab.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Capturing reports whether the add form has keyboard focus.
func (m *Model) Capturing() bool {
	return m.adding
}

// Update handles messages for the accounts tab.
func (m *Model) Update(msg tea.Msg) (app.Tab, tea.Cmd) {
	if m.adding {
		if km, ok := msg.(tea.KeyMsg); ok {
			return m, m.updateAddForm(km)
		}
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m, m.handleKeyMsg(msg)

	case app.ServiceEventMsg, app.TabActivatedMsg:
		m.updateTableData()

	case app.ActionResultMsg:
		if msg.Err == nil && !msg.Result.Declined && msg.Command == actions.CmdAddAccount {
			m.closeForm()
		}
		m.updateTableData()
	}

	return m, nil
}

func (m *Model) handleKeyMsg(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Select):
		if id := m.cursorID(); id != "" {
			m.commands.ToggleSelected(id)
			m.updateTableData()
		}

	case key.Matches(msg, m.keys.SelectAll):
		for _, id := range m.ids {
			if !m.selected[id] {
				m.commands.ToggleSelected(id)
			}
		}
		m.updateTableData()

	case key.Matches(msg, m.keys.ClearSelect):
		m.commands.ClearSelection()
		m.updateTableData()

	case key.Matches(msg, m.keys.Delete):
		if id := m.cursorID(); id != "" {
			return m.commands.DeleteAccount(id)
		}

	case key.Matches(msg, m.keys.BatchStart):
		return m.batch(models.BatchStart)
	case key.Matches(msg, m.keys.BatchStop):
		return m.batch(models.BatchStop)
	case key.Matches(msg, m.keys.BatchDelete):
		return m.batch(models.BatchDelete)

	case key.Matches(msg, m.keys.Add):
		return m.openForm()

	default:
		var cmd tea.Cmd
		m.table, cmd = m.table.Update(msg)
		return cmd
	}
	return nil
}

// batch runs op on the current selection. An empty selection is passed
// through so the operator sees the validation error.
func (m *Model) batch(op models.BatchOperation) tea.Cmd {
	return m.commands.BatchOperate(m.commands.Selected(), op)
}

func (m *Model) cursorID() string {
	i := m.table.Cursor()
	if i < 0 || i >= len(m.ids) {
		return ""
	}
	return m.ids[i]
}

func (m *Model) openForm() tea.Cmd {
	m.adding = true
	m.focusedField = fieldUsername
	m.usernameInput.SetValue("")
	m.passwordInput.SetValue("")
	m.guildInput.SetValue("")
	m.updateFormFocus()
	return textinput.Blink
}

func (m *Model) closeForm() {
	m.adding = false
	m.usernameInput.Blur()
	m.passwordInput.Blur()
	m.guildInput.Blur()
}

// updateAddForm handles the add account form.
func (m *Model) updateAddForm(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		m.closeForm()
		return nil

	case "tab", "down":
		m.focusedField = (m.focusedField + 1) % formFieldCount
		m.updateFormFocus()
		return textinput.Blink

	case "shift+tab", "up":
		m.focusedField = (m.focusedField - 1 + formFieldCount) % formFieldCount
		m.updateFormFocus()
		return textinput.Blink

	case "enter":
		switch m.focusedField {
		case fieldSubmit:
			return m.submit()
		case fieldCancel:
			m.closeForm()
			return nil
		default:
			m.focusedField++
			m.updateFormFocus()
			return textinput.Blink
		}
	}

	var cmd tea.Cmd
	switch m.focusedField {
	case fieldUsername:
		m.usernameInput, cmd = m.usernameInput.Update(msg)
	case fieldPassword:
		m.passwordInput, cmd = m.passwordInput.Update(msg)
	case fieldGuild:
		m.guildInput, cmd = m.guildInput.Update(msg)
	}
	return cmd
}

// submit sends the form. The form stays open until the add succeeds so a
// rejected username can be corrected.
func (m *Model) submit() tea.Cmd {
	acc := models.NewAccount{
		Username:       m.usernameInput.Value(),
		Password:       m.passwordInput.Value(),
		PreferredGuild: m.guildInput.Value(),
	}.Normalized()
	if err := acc.Validate(); err != nil {
		return m.commands.NotifyError(err.Error())
	}
	cmd := m.commands.AddAccount(acc)
	if cmd == nil {
		m.closeForm()
		return m.commands.NotifyWarning("Crawler service not connected")
	}
	return cmd
}

// updateFormFocus updates which form field is focused.
func (m *Model) updateFormFocus() {
	m.usernameInput.Blur()
	m.passwordInput.Blur()
	m.guildInput.Blur()

	switch m.focusedField {
	case fieldUsername:
		m.usernameInput.Focus()
	case fieldPassword:
		m.passwordInput.Focus()
	case fieldGuild:
		m.guildInput.Focus()
	}
}

// updateTableData rebuilds the rows from the latest snapshot.
func (m *Model) updateTableData() {
	snap := m.state.Snapshot()

	selected := m.commands.Selected()
	if selected == nil {
		selected = snap.Selected
	}
	m.selected = make(map[string]bool, len(selected))
	for _, id := range selected {
		m.selected[id] = true
	}

	m.ids = make([]string, 0, len(snap.Accounts))
	rows := make([]table.Row, 0, len(snap.Accounts))
	for _, acc := range snap.Accounts {
		mark := " "
		if m.selected[acc.ID] {
			mark = "✓"
		}
		auto := "off"
		if acc.AutoEnabled {
			auto = "on"
		}
		last := "never"
		if !acc.LastCrawlAt.IsZero() {
			last = humanize.Time(acc.LastCrawlAt.Time)
		}

		m.ids = append(m.ids, acc.ID)
		rows = append(rows, table.Row{
			mark,
			acc.Username,
			acc.Status.Label(),
			fmt.Sprintf("%.0f%%", acc.Rate()*100),
			humanize.Comma(int64(acc.CrawlCount)),
			auto,
			last,
		})
	}

	m.table.SetRows(rows)
	if m.table.Cursor() >= len(rows) {
		m.table.SetCursor(max(len(rows)-1, 0))
	}
}

// SetSize sets the available size for the accounts tab.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.table.SetHeight(max(height-12, 5))
	m.table.SetColumns(components.FitColumn(columns, 1, width-10, 16))
}

// ShortHelp returns the key bindings for the short help view.
func (m *Model) ShortHelp() []key.Binding {
	if m.adding {
		return []key.Binding{
			key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next field")),
			key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "submit")),
			m.keys.Escape,
		}
	}
	return []key.Binding{
		m.keys.Select,
		m.keys.Add,
		m.keys.Delete,
		m.keys.BatchStart,
		m.keys.BatchStop,
	}
}

// FullHelp returns the key bindings for the full help view.
func (m *Model) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{m.keys.Select, m.keys.SelectAll, m.keys.ClearSelect},
		{m.keys.Add, m.keys.Delete},
		{m.keys.BatchStart, m.keys.BatchStop, m.keys.BatchDelete},
	}
}
