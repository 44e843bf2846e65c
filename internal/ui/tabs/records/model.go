// Package records provides the record filter tab.
package records

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/crawler-dashboard-tui/internal/app"
	"github.com/j-veylop/crawler-dashboard-tui/internal/models"
	"github.com/j-veylop/crawler-dashboard-tui/internal/ui/components"
)

// field is an input of the criteria form.
type field int

const (
	fieldAccount field = iota
	fieldGuild
	fieldType
	fieldStatus
	fieldKeyword
	fieldMinLevel
	fieldMaxLevel

	fieldCount
)

func (f field) label() string {
	switch f {
	case fieldAccount:
		return "Account"
	case fieldGuild:
		return "Guild"
	case fieldType:
		return "Type"
	case fieldStatus:
		return "Status"
	case fieldKeyword:
		return "Keyword"
	case fieldMinLevel:
		return "Min level"
	case fieldMaxLevel:
		return "Max level"
	default:
		return ""
	}
}

// keyMap defines the key bindings specific to the filter tab.
type keyMap struct {
	Edit      key.Binding
	Clear     key.Binding
	Apply     key.Binding
	NextField key.Binding
	PrevField key.Binding
	Escape    key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Edit: key.NewBinding(
			key.WithKeys("/", "f"),
			key.WithHelp("/", "edit filter"),
		),
		Clear: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "clear filter"),
		),
		Apply: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "apply"),
		),
		NextField: key.NewBinding(
			key.WithKeys("tab", "down"),
			key.WithHelp("tab", "next field"),
		),
		PrevField: key.NewBinding(
			key.WithKeys("shift+tab", "up"),
			key.WithHelp("shift+tab", "prev field"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "close form"),
		),
	}
}

var columns = []table.Column{
	{Title: "Name", Width: 16},
	{Title: "Account", Width: 12},
	{Title: "Type", Width: 10},
	{Title: "Guild", Width: 14},
	{Title: "Lv", Width: 4},
	{Title: "Progress", Width: 9},
	{Title: "Cycles", Width: 6},
	{Title: "Status", Width: 10},
}

// Model represents the filter tab state.
type Model struct {
	state    *app.State
	commands *app.Commands
	table    table.Model
	inputs   []textinput.Model
	keys     keyMap
	criteria models.FilterCriteria
	results  []models.Record
	total    int
	focused  field
	editing  bool
	width    int
	height   int
}

// New creates a new filter tab.
func New(state *app.State, commands *app.Commands) *Model {
	inputs := make([]textinput.Model, fieldCount)
	for i := range inputs {
		in := textinput.New()
		in.Prompt = ""
		in.CharLimit = 64
		in.Width = 24
		switch field(i) {
		case fieldMinLevel, fieldMaxLevel:
			in.Placeholder = "any"
			in.CharLimit = 4
		case fieldKeyword:
			in.Placeholder = "matches name, guild or type"
		default:
			in.Placeholder = "any"
		}
		inputs[i] = in
	}

	return &Model{
		state:    state,
		commands: commands,
		table:    components.NewTable(columns, 10),
		inputs:   inputs,
		keys:     defaultKeyMap(),
	}
}

// Capturing reports whether the form has keyboard focus.
func (m *Model) Capturing() bool {
	return m.editing
}

// Criteria returns the applied criteria.
func (m *Model) Criteria() models.FilterCriteria {
	return m.criteria
}

// Init initializes the filter tab.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the filter tab.
func (m *Model) Update(msg tea.Msg) (app.Tab, tea.Cmd) {
	if m.editing {
		if km, ok := msg.(tea.KeyMsg); ok {
			return m, m.updateForm(km)
		}
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Edit):
			return m, m.openForm()
		case key.Matches(msg, m.keys.Clear):
			for i := range m.inputs {
				m.inputs[i].SetValue("")
			}
			return m, m.apply(models.FilterCriteria{})
		default:
			var cmd tea.Cmd
			m.table, cmd = m.table.Update(msg)
			return m, cmd
		}

	case app.TabActivatedMsg:
		return m, m.apply(m.criteria)

	case app.ServiceEventMsg:
		// Empty criteria track the live records without a round trip.
		if m.criteria.IsEmpty() {
			m.setResults(m.state.Snapshot().Records, len(m.state.Snapshot().Records))
		}

	case app.FilterResultMsg:
		if msg.Err == nil {
			m.criteria = msg.Criteria
			m.setResults(msg.Records, msg.Total)
		}
	}

	return m, nil
}

func (m *Model) openForm() tea.Cmd {
	m.editing = true
	m.focused = fieldAccount
	m.updateFocus()
	return textinput.Blink
}

func (m *Model) closeForm() {
	m.editing = false
	for i := range m.inputs {
		m.inputs[i].Blur()
	}
}

func (m *Model) updateForm(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Escape):
		m.closeForm()
		return nil
	case key.Matches(msg, m.keys.NextField):
		m.focused = (m.focused + 1) % fieldCount
		m.updateFocus()
		return textinput.Blink
	case key.Matches(msg, m.keys.PrevField):
		m.focused = (m.focused - 1 + fieldCount) % fieldCount
		m.updateFocus()
		return textinput.Blink
	case key.Matches(msg, m.keys.Apply):
		criteria, err := m.formCriteria()
		if err != nil {
			return m.commands.NotifyError(err.Error())
		}
		m.closeForm()
		return m.apply(criteria)
	}

	var cmd tea.Cmd
	m.inputs[m.focused], cmd = m.inputs[m.focused].Update(msg)
	return cmd
}

func (m *Model) updateFocus() {
	for i := range m.inputs {
		if field(i) == m.focused {
			m.inputs[i].Focus()
		} else {
			m.inputs[i].Blur()
		}
	}
}

// formCriteria builds criteria from the form.
func (m *Model) formCriteria() (models.FilterCriteria, error) {
	value := func(f field) string { return strings.TrimSpace(m.inputs[f].Value()) }

	c := models.FilterCriteria{}.
		WithAccount(value(fieldAccount)).
		WithGuild(value(fieldGuild)).
		WithActivityType(value(fieldType)).
		WithStatus(value(fieldStatus)).
		WithKeyword(value(fieldKeyword))

	minLevel, err := parseLevel(value(fieldMinLevel))
	if err != nil {
		return c, fmt.Errorf("min level: %w", err)
	}
	maxLevel, err := parseLevel(value(fieldMaxLevel))
	if err != nil {
		return c, fmt.Errorf("max level: %w", err)
	}
	if minLevel != nil && maxLevel != nil && *minLevel > *maxLevel {
		return c, fmt.Errorf("min level %d is above max level %d", *minLevel, *maxLevel)
	}
	return c.WithMinLevel(minLevel).WithMaxLevel(maxLevel), nil
}

func parseLevel(s string) (*int, error) {
	if s == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return nil, fmt.Errorf("%q is not a level", s)
	}
	return models.Level(n), nil
}

func (m *Model) apply(criteria models.FilterCriteria) tea.Cmd {
	cmd := m.commands.Filter(criteria)
	if cmd == nil {
		// No service: evaluate nothing, show the snapshot.
		m.criteria = criteria
		m.setResults(m.state.Snapshot().Records, len(m.state.Snapshot().Records))
		return nil
	}
	m.state.SetLoading(app.ResourceFilter, true)
	return cmd
}

func (m *Model) setResults(records []models.Record, total int) {
	m.results = records
	m.total = total

	rows := make([]table.Row, 0, len(records))
	for _, r := range records {
		rows = append(rows, table.Row{
			r.CharacterName,
			r.AccountUsername,
			r.ActivityType,
			r.Guild,
			strconv.Itoa(r.Level),
			fmt.Sprintf("%d/%d", r.ProgressCurrent, r.ProgressTotal),
			strconv.Itoa(r.CycleCount),
			r.Status,
		})
	}
	m.table.SetRows(rows)
	if m.table.Cursor() >= len(rows) {
		m.table.SetCursor(max(len(rows)-1, 0))
	}
}

// SetSize sets the available size for the filter tab.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.table.SetHeight(max(height-14, 5))
	m.table.SetColumns(components.FitColumn(columns, 0, width-10, 16))
}

// ShortHelp returns the key bindings for the short help view.
func (m *Model) ShortHelp() []key.Binding {
	if m.editing {
		return []key.Binding{m.keys.NextField, m.keys.Apply, m.keys.Escape}
	}
	return []key.Binding{m.keys.Edit, m.keys.Clear}
}

// FullHelp returns the key bindings for the full help view.
func (m *Model) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{m.keys.Edit, m.keys.Clear},
		{m.keys.NextField, m.keys.PrevField, m.keys.Apply, m.keys.Escape},
	}
}
