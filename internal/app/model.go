// Package app implements the main Bubble Tea application with tab-based navigation.
package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/dustin/go-humanize"

	"github.com/j-veylop/crawler-dashboard-tui/internal/apperr"
	"github.com/j-veylop/crawler-dashboard-tui/internal/keywords"
	"github.com/j-veylop/crawler-dashboard-tui/internal/logger"
	"github.com/j-veylop/crawler-dashboard-tui/internal/services"
	"github.com/j-veylop/crawler-dashboard-tui/internal/services/actions"
	"github.com/j-veylop/crawler-dashboard-tui/internal/services/poller"
	"github.com/j-veylop/crawler-dashboard-tui/internal/store"
	"github.com/j-veylop/crawler-dashboard-tui/internal/ui/styles"
)

// TabID represents the identifier for a tab in the application.
type TabID int

const (
	// TabDashboard is the ID for the dashboard tab.
	TabDashboard TabID = iota
	// TabFilter is the ID for the record filter tab.
	TabFilter
	// TabAccounts is the ID for the account management tab.
	TabAccounts
	// TabStatistics is the ID for the statistics tab.
	TabStatistics
	// TabKeywords is the ID for the keyword monitor tab.
	TabKeywords
	// TabInfo is the ID for the info tab.
	TabInfo

	tabCount
)

// String returns the string representation of the TabID.
func (t TabID) String() string {
	switch t {
	case TabDashboard:
		return "Dashboard"
	case TabFilter:
		return "Filter"
	case TabAccounts:
		return "Accounts"
	case TabStatistics:
		return "Statistics"
	case TabKeywords:
		return "Keywords"
	case TabInfo:
		return "Info"
	default:
		return "Unknown"
	}
}

// View returns the poller view the tab needs.
func (t TabID) View() poller.View {
	switch t {
	case TabStatistics:
		return poller.ViewStatistics
	case TabKeywords:
		return poller.ViewKeywords
	default:
		return poller.ViewOverview
	}
}

// Tab defines the interface that all tabs must implement.
type Tab interface {
	// Init initializes the tab and returns any initial commands.
	Init() tea.Cmd

	// Update handles messages and returns the updated tab and any commands.
	Update(msg tea.Msg) (Tab, tea.Cmd)

	// View renders the tab content.
	View() string

	// SetSize sets the available size for the tab.
	SetSize(width, height int)

	// ShortHelp returns key bindings for the short help view.
	ShortHelp() []key.Binding

	// FullHelp returns key bindings for the full help view.
	FullHelp() [][]key.Binding
}

// InputCapturer is implemented by tabs with text inputs. While Capturing
// returns true, keys go to the tab instead of the global bindings.
type InputCapturer interface {
	Capturing() bool
}

// KeyMap defines the keybindings for the application.
type KeyMap struct {
	Tabs    [tabCount]key.Binding
	NextTab key.Binding
	PrevTab key.Binding
	Refresh key.Binding
	Help    key.Binding
	Quit    key.Binding
	Escape  key.Binding
	Confirm key.Binding
	Decline key.Binding
}

// DefaultKeyMap returns the default keybindings.
func DefaultKeyMap() KeyMap {
	km := KeyMap{}
	km = setTabKeys(km)
	km = setActionKeys(km)
	return km
}

func setTabKeys(k KeyMap) KeyMap {
	for i := range tabCount {
		n := fmt.Sprintf("%d", i+1)
		k.Tabs[i] = key.NewBinding(key.WithKeys(n), key.WithHelp(n, strings.ToLower(i.String())))
	}
	k.NextTab = key.NewBinding(key.WithKeys("tab", "right"), key.WithHelp("tab/→", "next tab"))
	k.PrevTab = key.NewBinding(key.WithKeys("shift+tab", "left"), key.WithHelp("shift+tab/←", "prev tab"))
	return k
}

func setActionKeys(k KeyMap) KeyMap {
	k.Refresh = key.NewBinding(key.WithKeys("r", "ctrl+r"), key.WithHelp("r", "refresh"))
	k.Help = key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "toggle help"))
	k.Quit = key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit"))
	k.Escape = key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel"))
	k.Confirm = key.NewBinding(key.WithKeys("y", "Y", "enter"), key.WithHelp("y", "confirm"))
	k.Decline = key.NewBinding(key.WithKeys("n", "N", "esc"), key.WithHelp("n", "decline"))
	return k
}

// ShortHelp returns key bindings for the short help view.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Help, k.Refresh, k.Quit}
}

// FullHelp returns key bindings for the full help view.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		k.Tabs[:],
		{k.NextTab, k.PrevTab},
		{k.Refresh, k.Help, k.Quit},
	}
}

// Styles defines the application styles.
type Styles struct {
	// Tab bar styles
	TabBar      lipgloss.Style
	ActiveTab   lipgloss.Style
	InactiveTab lipgloss.Style
	StatusLine  lipgloss.Style

	// Notification styles
	NotificationSuccess lipgloss.Style
	NotificationError   lipgloss.Style
	NotificationWarning lipgloss.Style
	NotificationInfo    lipgloss.Style

	// Content styles
	Content lipgloss.Style
	Help    lipgloss.Style
	Toast   lipgloss.Style
	Modal   lipgloss.Style

	// Common styles
	Title     lipgloss.Style
	Subtle    lipgloss.Style
	Highlight lipgloss.Style
	Error     lipgloss.Style
	Success   lipgloss.Style
	Warning   lipgloss.Style
}

// DefaultStyles returns the default application styles.
func DefaultStyles() Styles {
	subtle := lipgloss.AdaptiveColor{Light: "#9B9B9B", Dark: "#5C5C5C"}
	highlight := lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#7D56F4"}
	success := lipgloss.AdaptiveColor{Light: "#04B575", Dark: "#04B575"}
	warning := lipgloss.AdaptiveColor{Light: "#FF8C00", Dark: "#FF8C00"}
	errorColor := lipgloss.AdaptiveColor{Light: "#FF5F87", Dark: "#FF5F87"}
	info := lipgloss.AdaptiveColor{Light: "#0087D7", Dark: "#5FAFFF"}

	s := Styles{}
	s.TabBar = lipgloss.NewStyle().Padding(0, 1).BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).BorderForeground(subtle)
	s.ActiveTab = lipgloss.NewStyle().Bold(true).Foreground(highlight).Padding(0, 2)
	s.InactiveTab = lipgloss.NewStyle().Foreground(subtle).Padding(0, 2)
	s.StatusLine = lipgloss.NewStyle().Foreground(subtle).Padding(0, 1)

	s.NotificationSuccess = lipgloss.NewStyle().Foreground(success).Padding(0, 1)
	s.NotificationError = lipgloss.NewStyle().Foreground(errorColor).Bold(true).Padding(0, 1)
	s.NotificationWarning = lipgloss.NewStyle().Foreground(warning).Padding(0, 1)
	s.NotificationInfo = lipgloss.NewStyle().Foreground(info).Padding(0, 1)

	s.Content = lipgloss.NewStyle().Padding(1, 2)
	s.Help = lipgloss.NewStyle().Foreground(subtle).Padding(0, 1)
	s.Toast = styles.ToastStyle
	s.Modal = styles.ModalContentStyle

	s.Title = lipgloss.NewStyle().Bold(true).Foreground(highlight)
	s.Subtle = lipgloss.NewStyle().Foreground(subtle)
	s.Highlight = lipgloss.NewStyle().Foreground(highlight)
	s.Error = lipgloss.NewStyle().Foreground(errorColor)
	s.Success = lipgloss.NewStyle().Foreground(success)
	s.Warning = lipgloss.NewStyle().Foreground(warning)

	return s
}

// Model is the main application model.
type Model struct {
	// Tab management
	activeTab TabID
	tabs      []Tab

	// Shared state
	state    *State
	services *services.Manager
	commands *Commands
	keymap   KeyMap
	styles   Styles

	// UI components
	spinner spinner.Model

	// Window dimensions
	width  int
	height int

	// UI state
	showHelp bool
	ready    bool

	// Questions from command goroutines, oldest first.
	confirms []ConfirmRequestMsg

	// Service subscription
	eventChannel chan services.ServiceEvent
}

// NewModel initializes a new application model.
func NewModel(mgr *services.Manager) *Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(styles.Primary)

	state := NewState()
	if mgr != nil {
		state.SetSnapshot(mgr.Store().Read())
		state.SetSettings(mgr.Settings())
	}

	return &Model{
		activeTab: TabDashboard,
		tabs:      make([]Tab, tabCount), // set by SetTabs
		state:     state,
		services:  mgr,
		commands:  NewCommands(mgr),
		keymap:    DefaultKeyMap(),
		styles:    DefaultStyles(),
		spinner:   s,
	}
}

// SetContext sets the context used by service commands.
func (m *Model) SetContext(ctx context.Context) {
	m.commands.SetContext(ctx)
}

// SetTabs sets the tabs for the model.
func (m *Model) SetTabs(tabs []Tab) {
	m.tabs = tabs
	if m.width > 0 && m.height > 0 {
		m.updateTabSizes()
	}
}

// GetState returns the application state.
func (m *Model) GetState() *State {
	return m.state
}

// GetServices returns the service manager.
func (m *Model) GetServices() *services.Manager {
	return m.services
}

// GetCommands returns the commands helper.
func (m *Model) GetCommands() *Commands {
	return m.commands
}

// GetActiveTab returns the currently active tab ID.
func (m *Model) GetActiveTab() TabID {
	return m.activeTab
}

// PendingConfirmations returns the number of unanswered questions.
func (m *Model) PendingConfirmations() int {
	return len(m.confirms)
}

// Init initializes the model.
func (m *Model) Init() tea.Cmd {
	m.state.SetLoadingNotification("Waiting for the crawler service...")

	cmds := []tea.Cmd{
		m.spinner.Tick,
		defaultTickCmd(),
		m.commands.SubscribeToServices(),
	}

	for _, tab := range m.tabs {
		if tab != nil {
			cmds = append(cmds, tab.Init())
		}
	}

	return tea.Batch(cmds...)
}

// Update handles messages and updates the model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		cmd, handled := m.handleKeyMsg(msg)
		cmds = append(cmds, cmd)
		if handled {
			return m, tea.Batch(cmds...)
		}

	case tea.WindowSizeMsg:
		m.handleWindowSize(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	default:
		cmds = append(cmds, m.handleAppMsg(msg)...)
	}

	if cmd := m.updateActiveTab(msg); cmd != nil {
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m *Model) handleAppMsg(msg tea.Msg) []tea.Cmd {
	var cmds []tea.Cmd
	switch msg := msg.(type) {
	case TickMsg:
		m.state.ClearExpiredNotifications()
		cmds = append(cmds, defaultTickCmd())
	case SubscriptionEventMsg:
		m.eventChannel = msg.Channel
		cmds = append(cmds, waitForServiceEventCmd(m.eventChannel))
	case ServiceEventMsg:
		cmds = append(cmds, m.handleServiceEvent(msg.Event))
		if m.eventChannel != nil {
			cmds = append(cmds, waitForServiceEventCmd(m.eventChannel))
		}
	case ConfirmRequestMsg:
		m.confirms = append(m.confirms, msg)
	case RefreshMsg:
		cmds = append(cmds, m.startRefresh(msg.Reason))
	case RefreshResultMsg:
		cmds = append(cmds, m.handleRefreshResult(msg))
	case ActionResultMsg:
		cmds = append(cmds, m.handleActionResult(msg))
	case FilterResultMsg:
		m.state.SetLoading(ResourceFilter, false)
		if msg.Err != nil {
			cmds = append(cmds, notifyErrorCmd("Filter failed: "+apperr.UserMessage(msg.Err)))
		}
	case HistoryLoadedMsg:
		m.state.SetLoading(ResourceHistory, false)
		if msg.Err != nil {
			logger.Error("failed to load history", "error", msg.Err)
			cmds = append(cmds, notifyErrorCmd("Failed to load local history"))
		} else {
			m.state.SetHistory(msg.Report)
		}
	case ThresholdChangedMsg:
		m.state.SetAlertThreshold(msg.Threshold)
	case AddNotificationMsg:
		id := m.state.AddNotification(msg.Type, msg.Message, msg.Duration)
		if msg.Duration > 0 {
			cmds = append(cmds, clearNotificationCmd(id, msg.Duration))
		}
	case RemoveNotificationMsg:
		m.state.RemoveNotification(msg.ID)
	case ClearNotificationsMsg:
		m.state.ClearAllNotifications()
	case ClearExpiredNotificationsMsg:
		m.state.ClearExpiredNotifications()
	case StartLoadingMsg:
		m.state.SetLoading(msg.Resource, true)
	case StopLoadingMsg:
		m.state.SetLoading(msg.Resource, false)
		m.clearLoadingIfIdle()
	case ErrorMsg:
		text := apperr.UserMessage(msg.Error)
		if msg.Context != "" {
			text = msg.Context + ": " + text
		}
		cmds = append(cmds, notifyErrorCmd(text))
	case TabSwitchMsg:
		cmds = append(cmds, m.switchTab(msg.Tab))
	case ToggleHelpMsg:
		m.showHelp = !m.showHelp
	}
	return cmds
}

func (m *Model) handleWindowSize(msg tea.WindowSizeMsg) {
	m.width = msg.Width
	m.height = msg.Height
	m.ready = true
	m.updateTabSizes()
}

func (m *Model) clearLoadingIfIdle() {
	if !m.state.AnyLoading() {
		m.state.ClearLoadingNotification()
	}
}

func (m *Model) startRefresh(reason string) tea.Cmd {
	cmd := m.commands.Refresh(reason)
	if cmd == nil {
		return nil
	}
	m.state.SetLoading(ResourceRefresh, true)
	m.state.SetLoadingNotification("Refreshing...")
	return cmd
}

// handleRefreshResult reports user-initiated cycles. Timer cycles never reach
// here; their failures only mark the data stale.
func (m *Model) handleRefreshResult(msg RefreshResultMsg) tea.Cmd {
	m.state.SetLoading(ResourceRefresh, false)
	m.clearLoadingIfIdle()

	out := msg.Outcome
	switch {
	case out.Discarded:
		return nil
	case out.Err != nil:
		return notifyErrorCmd("Refresh failed: " + apperr.UserMessage(out.Err))
	case msg.Reason == "manual":
		return notifyInfoCmd("Data refreshed")
	}
	return nil
}

func (m *Model) handleActionResult(msg ActionResultMsg) tea.Cmd {
	if msg.Err != nil {
		return notifyErrorCmd(fmt.Sprintf("%s failed: %s", capitalize(string(msg.Command)), apperr.UserMessage(msg.Err)))
	}

	res := msg.Result
	switch {
	case res.Declined:
		return notifyInfoCmd(capitalize(string(msg.Command)) + " cancelled")
	case res.Batch != nil && res.Batch.Partial():
		return notifyWarningCmd(res.Message)
	case res.Command == actions.CmdExport:
		return notifySuccessCmd(fmt.Sprintf("%s (%s)", res.Message, humanize.Bytes(uint64(max(res.Bytes, 0)))))
	default:
		return notifySuccessCmd(res.Message)
	}
}

func (m *Model) handleServiceEvent(event services.ServiceEvent) tea.Cmd {
	switch e := event.(type) {
	case services.SnapshotEvent:
		m.state.SetSnapshot(e.Snapshot)
		if m.state.IsInitialLoading() && e.Snapshot.Loaded(store.Records) {
			m.state.MarkLoaded(e.Snapshot.Updated(store.Records))
			m.clearLoadingIfIdle()
		}

	case services.CycleEvent:
		m.state.RecordCycle(e.Event)
		if e.Event.Type == poller.EventCycleApplied || e.Event.Type == poller.EventCycleFailed {
			m.clearLoadingIfIdle()
		}

	case services.KeywordAlertEvent:
		return notifyWarningCmd(keywordAlertText(e.Entries, e.Threshold))

	case services.AutomationStoppedEvent:
		return notifyErrorCmd("Automation stopped unexpectedly")

	case services.SettingsChangedEvent:
		m.state.SetSettings(e.Settings)
		return notifyInfoCmd("Settings reloaded")

	case services.ErrorEvent:
		// Poll failures are passive; the status line shows staleness.
		if e.Service == "poller" {
			return nil
		}
		return notifyErrorCmd(fmt.Sprintf("[%s] %s", e.Service, apperr.UserMessage(e.Error)))
	}

	return nil
}

func keywordAlertText(entries []keywords.Entry, threshold int) string {
	parts := make([]string, len(entries))
	for i, e := range entries {
		parts[i] = fmt.Sprintf("%s (%d)", e.Keyword, e.Count)
	}
	return fmt.Sprintf("Keyword alert (≥%d): %s", threshold, strings.Join(parts, ", "))
}

func (m *Model) updateActiveTab(msg tea.Msg) tea.Cmd {
	if int(m.activeTab) < len(m.tabs) && m.tabs[m.activeTab] != nil {
		var cmd tea.Cmd
		m.tabs[m.activeTab], cmd = m.tabs[m.activeTab].Update(msg)
		return cmd
	}
	return nil
}

func (m *Model) updateTabSizes() {
	contentHeight := max(0, m.height-5)

	for _, tab := range m.tabs {
		if tab != nil {
			tab.SetSize(m.width, contentHeight)
		}
	}
}

// switchTab activates id, tells the tab and switches the polled view.
func (m *Model) switchTab(id TabID) tea.Cmd {
	if id < 0 || int(id) >= len(m.tabs) {
		return nil
	}
	m.activeTab = id
	m.updateTabSizes()

	var cmds []tea.Cmd
	if tab := m.tabs[id]; tab != nil {
		var cmd tea.Cmd
		m.tabs[id], cmd = tab.Update(TabActivatedMsg{Tab: id})
		cmds = append(cmds, cmd)
	}
	cmds = append(cmds, m.commands.SetView(id.View()))
	return tea.Batch(cmds...)
}

func (m *Model) capturing() bool {
	if int(m.activeTab) >= len(m.tabs) || m.tabs[m.activeTab] == nil {
		return false
	}
	c, ok := m.tabs[m.activeTab].(InputCapturer)
	return ok && c.Capturing()
}

// answerConfirm replies to the oldest pending question.
func (m *Model) answerConfirm(ok bool) {
	if len(m.confirms) == 0 {
		return
	}
	req := m.confirms[0]
	m.confirms = m.confirms[1:]
	// Buffered by the prompter, so this never blocks.
	select {
	case req.Reply <- ok:
	default:
	}
}

// handleKeyMsg handles keyboard input. handled reports whether the key was
// consumed and must not reach the active tab.
func (m *Model) handleKeyMsg(msg tea.KeyMsg) (cmd tea.Cmd, handled bool) {
	if msg.String() == "ctrl+c" {
		for len(m.confirms) > 0 {
			m.answerConfirm(false)
		}
		return tea.Quit, true
	}

	if len(m.confirms) > 0 {
		switch {
		case key.Matches(msg, m.keymap.Confirm):
			m.answerConfirm(true)
		case key.Matches(msg, m.keymap.Decline):
			m.answerConfirm(false)
		}
		return nil, true
	}

	if m.capturing() {
		return nil, false
	}

	switch {
	case key.Matches(msg, m.keymap.Quit):
		return tea.Quit, true

	case key.Matches(msg, m.keymap.Help):
		m.showHelp = !m.showHelp
		return nil, true

	case key.Matches(msg, m.keymap.Escape):
		if m.showHelp {
			m.showHelp = false
			return nil, true
		}
		return nil, false

	case key.Matches(msg, m.keymap.NextTab):
		if m.showHelp || len(m.tabs) == 0 {
			return nil, true
		}
		return m.switchTab(TabID((int(m.activeTab) + 1) % len(m.tabs))), true

	case key.Matches(msg, m.keymap.PrevTab):
		if m.showHelp || len(m.tabs) == 0 {
			return nil, true
		}
		return m.switchTab(TabID((int(m.activeTab) - 1 + len(m.tabs)) % len(m.tabs))), true

	case key.Matches(msg, m.keymap.Refresh):
		return m.startRefresh("manual"), true
	}

	for i, b := range m.keymap.Tabs {
		if key.Matches(msg, b) {
			return m.switchTab(TabID(i)), true
		}
	}

	return nil, false
}

// View renders the application UI.
func (m *Model) View() string {
	var b strings.Builder

	if m.width > 0 {
		b.WriteString(m.renderNavbar())
		b.WriteString("\n")
	}

	if !m.ready {
		b.WriteString(m.styles.Content.Render(fmt.Sprintf("%s Loading...", m.spinner.View())))
		return b.String()
	}

	if int(m.activeTab) < len(m.tabs) && m.tabs[m.activeTab] != nil {
		b.WriteString(m.tabs[m.activeTab].View())
	} else {
		b.WriteString(m.renderPlaceholder())
	}

	mainView := b.String()

	if m.showHelp {
		mainView = m.overlayCentered(mainView, m.renderHelp())
	}
	if len(m.confirms) > 0 {
		mainView = m.overlayCentered(mainView, m.renderConfirm(m.confirms[0].Question))
	}

	if notifications := m.renderNotifications(); len(notifications) > 0 {
		return m.overlayToasts(mainView, notifications)
	}

	return mainView
}

func (m *Model) overlayCentered(mainView string, overlay string) string {
	mainLines := strings.Split(mainView, "\n")
	overlayLines := strings.Split(overlay, "\n")

	overlayHeight := len(overlayLines)
	overlayWidth := lipgloss.Width(overlay)

	y := max((m.height-overlayHeight)/2, 0)
	x := max((m.width-overlayWidth)/2, 0)

	// Make room when the content is shorter than the overlay.
	for len(mainLines) < y+overlayHeight {
		mainLines = append(mainLines, "")
	}

	for i, overlayLine := range overlayLines {
		mainLine := mainLines[y+i]

		left := ansi.Truncate(mainLine, x, "")
		right := ansi.TruncateLeft(mainLine, x+overlayWidth, "")

		if lipgloss.Width(left) < x {
			left += strings.Repeat(" ", x-lipgloss.Width(left))
		}

		mainLines[y+i] = left + overlayLine + right
	}

	return strings.Join(mainLines, "\n")
}

func (m *Model) renderNavbar() string {
	tabs := make([]string, 0, len(m.tabs))
	for i := range m.tabs {
		name := TabID(i).String()
		if TabID(i) == m.activeTab {
			tabs = append(tabs, m.styles.ActiveTab.Render(fmt.Sprintf("[%d] %s", i+1, name)))
		} else {
			tabs = append(tabs, m.styles.InactiveTab.Render(fmt.Sprintf(" %d  %s", i+1, name)))
		}
	}

	tabBar := lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
	status := m.renderStatus()
	gap := m.width - lipgloss.Width(tabBar) - lipgloss.Width(status) - 4
	if gap > 0 {
		tabBar += strings.Repeat(" ", gap) + status
	}

	return m.styles.TabBar.Width(m.width).Render(tabBar)
}

// renderStatus summarizes data freshness for the navbar.
func (m *Model) renderStatus() string {
	updated := m.state.GetLastUpdated()
	switch {
	case updated.IsZero() && m.state.LastError() != nil:
		return m.styles.Error.Render("service unreachable")
	case updated.IsZero():
		return m.styles.StatusLine.Render("waiting for first cycle")
	case m.state.IsStale():
		return styles.StaleStyle.Render("stale · updated " + humanize.Time(updated))
	default:
		return m.styles.StatusLine.Render("updated " + humanize.Time(updated))
	}
}

func (m *Model) renderNotifications() []string {
	notifications := m.state.GetNotifications()
	if len(notifications) == 0 {
		return nil
	}

	toasts := make([]string, 0, len(notifications))
	for _, n := range notifications {
		var style lipgloss.Style
		var prefix string

		switch n.Type {
		case NotificationSuccess:
			style = m.styles.NotificationSuccess
			prefix = "[OK]"
		case NotificationError:
			style = m.styles.NotificationError
			prefix = "[ERR]"
		case NotificationWarning:
			style = m.styles.NotificationWarning
			prefix = "[WARN]"
		case NotificationInfo:
			style = m.styles.NotificationInfo
			prefix = "[INFO]"
		case NotificationLoading:
			style = m.styles.NotificationInfo
			prefix = m.spinner.View()
		}

		content := style.Render(fmt.Sprintf("%s %s", prefix, n.Message))
		toasts = append(toasts, m.styles.Toast.Render(content))
	}

	return toasts
}

func (m *Model) overlayToasts(mainView string, toasts []string) string {
	if len(toasts) == 0 {
		return mainView
	}

	toastStack := lipgloss.JoinVertical(lipgloss.Right, toasts...)
	toastLines := strings.Split(toastStack, "\n")
	mainLines := strings.Split(mainView, "\n")

	toastWidth := lipgloss.Width(toastStack)
	startX := max(m.width-toastWidth-2, 0)
	startY := 2

	// Short views are padded so the stack is not clipped, up to the terminal height.
	need := startY + len(toastLines)
	if m.height > 0 {
		need = min(need, m.height)
	}
	for len(mainLines) < need {
		mainLines = append(mainLines, "")
	}

	for i, toastLine := range toastLines {
		lineIdx := startY + i
		if lineIdx >= len(mainLines) {
			break
		}

		mainLine := mainLines[lineIdx]
		mainLineWidth := lipgloss.Width(mainLine)

		if mainLineWidth < startX {
			mainLines[lineIdx] = mainLine + strings.Repeat(" ", startX-mainLineWidth) + toastLine
		} else {
			mainLines[lineIdx] = ansi.Truncate(mainLine, startX, "") + toastLine
		}
	}

	return strings.Join(mainLines, "\n")
}

func (m *Model) renderConfirm(question string) string {
	lines := []string{
		m.styles.Warning.Bold(true).Render("Confirm"),
		"",
		question,
		"",
		lipgloss.JoinHorizontal(lipgloss.Top,
			styles.ButtonActiveStyle.Render("y  Yes"),
			styles.ButtonInactiveStyle.Render("n  No"),
		),
	}
	if extra := len(m.confirms) - 1; extra > 0 {
		lines = append(lines, "", m.styles.Subtle.Render(fmt.Sprintf("%d more waiting", extra)))
	}
	return m.styles.Modal.Render(strings.Join(lines, "\n"))
}

func (m *Model) renderHelp() string {
	var lines []string

	lines = append(lines, m.styles.Highlight.Render("Navigation"))
	lines = append(lines, fmt.Sprintf("  1-%d        Switch tabs", len(m.tabs)))
	lines = append(lines, "  Tab        Next tab")
	lines = append(lines, "  Shift+Tab  Previous tab")
	lines = append(lines, "")

	lines = append(lines, m.styles.Highlight.Render("Actions"))
	lines = append(lines, "  r          Refresh data")
	lines = append(lines, "  ?          Toggle help")
	lines = append(lines, "  q/Ctrl+C   Quit")
	lines = append(lines, "")

	if int(m.activeTab) < len(m.tabs) && m.tabs[m.activeTab] != nil {
		tabHelp := m.tabs[m.activeTab].ShortHelp()
		if len(tabHelp) > 0 {
			lines = append(lines, m.styles.Highlight.Render(fmt.Sprintf("%s Tab", m.activeTab)))
			for _, binding := range tabHelp {
				lines = append(lines, "  "+
					styles.HelpKeyStyle.Width(11).Render(binding.Help().Key)+
					styles.HelpDescStyle.Render(binding.Help().Desc))
			}
			lines = append(lines, "")
		}
	}

	lines = append(lines, m.styles.Subtle.Render("Press ? or Esc to close"))

	width := 0
	for _, l := range lines {
		width = max(width, lipgloss.Width(l))
	}
	title := styles.CenterHorizontal(m.styles.Title.Render("Keyboard Shortcuts"), width)
	lines = append([]string{title, ""}, lines...)

	return styles.HelpPanelStyle.Render(strings.Join(lines, "\n"))
}

func (m *Model) renderPlaceholder() string {
	content := fmt.Sprintf(
		"Tab %d: %s\n\n%s",
		m.activeTab+1,
		m.activeTab,
		m.styles.Subtle.Render("This tab is not yet implemented."),
	)
	return m.styles.Content.Render(content)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
