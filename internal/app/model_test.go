package app

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"

	"github.com/j-veylop/crawler-dashboard-tui/internal/apperr"
	"github.com/j-veylop/crawler-dashboard-tui/internal/config"
	"github.com/j-veylop/crawler-dashboard-tui/internal/keywords"
	"github.com/j-veylop/crawler-dashboard-tui/internal/models"
	"github.com/j-veylop/crawler-dashboard-tui/internal/services"
	"github.com/j-veylop/crawler-dashboard-tui/internal/services/actions"
	"github.com/j-veylop/crawler-dashboard-tui/internal/services/poller"
	"github.com/j-veylop/crawler-dashboard-tui/internal/store"
)

// fakeTab records the messages it receives.
type fakeTab struct {
	msgs      []tea.Msg
	capturing bool
	width     int
	height    int
}

func (f *fakeTab) Init() tea.Cmd { return nil }

func (f *fakeTab) Update(msg tea.Msg) (Tab, tea.Cmd) {
	f.msgs = append(f.msgs, msg)
	return f, nil
}

func (f *fakeTab) View() string { return "fake tab" }

func (f *fakeTab) SetSize(w, h int) { f.width, f.height = w, h }

func (f *fakeTab) ShortHelp() []key.Binding {
	return []key.Binding{key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "do thing"))}
}

func (f *fakeTab) FullHelp() [][]key.Binding { return [][]key.Binding{f.ShortHelp()} }

func (f *fakeTab) Capturing() bool { return f.capturing }

func (f *fakeTab) received(match func(tea.Msg) bool) bool {
	for _, m := range f.msgs {
		if match(m) {
			return true
		}
	}
	return false
}

func newFakeTabs() []*fakeTab {
	fakes := make([]*fakeTab, tabCount)
	for i := range fakes {
		fakes[i] = &fakeTab{}
	}
	return fakes
}

func readyModel(fakes []*fakeTab) *Model {
	model := NewModel(nil)
	if fakes != nil {
		tabs := make([]Tab, len(fakes))
		for i, f := range fakes {
			tabs[i] = f
		}
		model.SetTabs(tabs)
	}
	model.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return model
}

func runeKey(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func notificationFrom(t *testing.T, cmd tea.Cmd) AddNotificationMsg {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a notification command, got nil")
	}
	msg, ok := cmd().(AddNotificationMsg)
	if !ok {
		t.Fatalf("expected AddNotificationMsg, got %T", cmd())
	}
	return msg
}

func TestNewModel(t *testing.T) {
	model := NewModel(nil)
	if model == nil {
		t.Fatal("NewModel returned nil")
	}
	if model.state == nil {
		t.Error("State should be initialized")
	}
	if model.activeTab != TabDashboard {
		t.Error("Default tab should be Dashboard")
	}
	if len(model.tabs) != int(tabCount) {
		t.Errorf("Should have %d tab placeholders, got %d", tabCount, len(model.tabs))
	}
	if model.GetCommands() == nil {
		t.Error("Commands should be initialized")
	}
}

func TestModel_Init(t *testing.T) {
	model := NewModel(nil)
	if cmd := model.Init(); cmd == nil {
		t.Error("Init returned nil command")
	}
	found := false
	for _, n := range model.state.GetNotifications() {
		if n.ID == LoadingNotificationID {
			found = true
		}
	}
	if !found {
		t.Error("Init should show the loading notification")
	}
}

func TestModel_Update_WindowSize(t *testing.T) {
	fakes := newFakeTabs()
	model := readyModel(fakes)

	if model.width != 120 || model.height != 40 {
		t.Errorf("size = %dx%d, want 120x40", model.width, model.height)
	}
	if !model.ready {
		t.Error("Model should be ready after WindowSizeMsg")
	}
	if fakes[0].width != 120 || fakes[0].height != 35 {
		t.Errorf("tab size = %dx%d, want 120x35", fakes[0].width, fakes[0].height)
	}
}

func TestModel_TabSwitching(t *testing.T) {
	fakes := newFakeTabs()
	model := readyModel(fakes)

	model.Update(TabSwitchMsg{Tab: TabKeywords})
	if model.GetActiveTab() != TabKeywords {
		t.Errorf("ActiveTab = %v, want Keywords", model.GetActiveTab())
	}
	activated := func(m tea.Msg) bool {
		a, ok := m.(TabActivatedMsg)
		return ok && a.Tab == TabKeywords
	}
	if !fakes[TabKeywords].received(activated) {
		t.Error("Keywords tab should receive TabActivatedMsg")
	}

	model.Update(runeKey('3'))
	if model.GetActiveTab() != TabAccounts {
		t.Errorf("ActiveTab = %v, want Accounts", model.GetActiveTab())
	}

	model.Update(tea.KeyMsg{Type: tea.KeyTab})
	if model.GetActiveTab() != TabStatistics {
		t.Errorf("ActiveTab = %v, want Statistics", model.GetActiveTab())
	}

	model.activeTab = TabDashboard
	model.Update(tea.KeyMsg{Type: tea.KeyShiftTab})
	if model.GetActiveTab() != TabInfo {
		t.Errorf("ActiveTab = %v, want Info (wrap around)", model.GetActiveTab())
	}

	// Out of range is ignored.
	model.Update(TabSwitchMsg{Tab: TabID(42)})
	if model.GetActiveTab() != TabInfo {
		t.Errorf("ActiveTab = %v, want Info", model.GetActiveTab())
	}
}

func TestModel_CapturingTabReceivesKeys(t *testing.T) {
	fakes := newFakeTabs()
	model := readyModel(fakes)
	fakes[TabDashboard].capturing = true

	cmd, handled := model.handleKeyMsg(runeKey('q'))
	if handled || cmd != nil {
		t.Error("q should not quit while the tab captures input")
	}

	model.Update(runeKey('2'))
	if model.GetActiveTab() != TabDashboard {
		t.Error("digits should reach the capturing tab instead of switching tabs")
	}
	typed := func(m tea.Msg) bool {
		k, ok := m.(tea.KeyMsg)
		return ok && k.String() == "2"
	}
	if !fakes[TabDashboard].received(typed) {
		t.Error("capturing tab should receive the key")
	}

	cmd, handled = model.handleKeyMsg(tea.KeyMsg{Type: tea.KeyCtrlC})
	if !handled || cmd == nil {
		t.Fatal("ctrl+c should always quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("ctrl+c should return tea.Quit")
	}
}

func TestModel_Update_Tick(t *testing.T) {
	model := NewModel(nil)
	_, cmd := model.Update(TickMsg{Time: time.Now()})
	if cmd == nil {
		t.Error("TickMsg should return a command (next tick)")
	}
}

func TestModel_View(t *testing.T) {
	model := NewModel(nil)

	if view := model.View(); !strings.Contains(view, "Loading...") {
		t.Error("View should show Loading when not ready")
	}

	model.Update(tea.WindowSizeMsg{Width: 200, Height: 30})
	view := model.View()
	for _, want := range []string{"Dashboard", "Keywords", "not yet implemented", "waiting for first cycle"} {
		if !strings.Contains(view, want) {
			t.Errorf("View should contain %q", want)
		}
	}
}

func TestModel_Help(t *testing.T) {
	model := readyModel(newFakeTabs())

	model.Update(runeKey('?'))
	if !model.showHelp {
		t.Fatal("? should show help")
	}
	view := model.View()
	if !strings.Contains(view, "Keyboard Shortcuts") {
		t.Error("help overlay should be rendered")
	}
	if !strings.Contains(view, "do thing") {
		t.Error("help should list the active tab's bindings")
	}

	model.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if model.showHelp {
		t.Error("esc should close help")
	}
}

func TestModel_HelpTitleCentered(t *testing.T) {
	model := readyModel(newFakeTabs())

	titleCol, footerCol := -1, -1
	for _, line := range strings.Split(ansi.Strip(model.renderHelp()), "\n") {
		if i := strings.Index(line, "Keyboard Shortcuts"); i >= 0 {
			titleCol = i
		}
		if i := strings.Index(line, "Press ? or Esc to close"); i >= 0 {
			footerCol = i
		}
	}
	if titleCol < 0 || footerCol < 0 {
		t.Fatalf("help panel is missing its title or footer (title %d, footer %d)", titleCol, footerCol)
	}
	if titleCol <= footerCol {
		t.Errorf("title column = %d, want it centered past the footer column %d", titleCol, footerCol)
	}
}

func TestModel_ConfirmQueue(t *testing.T) {
	model := readyModel(newFakeTabs())

	first := make(chan bool, 1)
	second := make(chan bool, 1)
	model.Update(ConfirmRequestMsg{Question: "Delete account alice?", Reply: first})
	model.Update(ConfirmRequestMsg{Question: "Reset keyword statistics?", Reply: second})

	if model.PendingConfirmations() != 2 {
		t.Fatalf("pending = %d, want 2", model.PendingConfirmations())
	}
	view := model.View()
	if !strings.Contains(view, "Delete account alice?") {
		t.Error("oldest question should be shown")
	}
	if !strings.Contains(view, "1 more waiting") {
		t.Error("queued count should be shown")
	}

	// Keys other than y/n are swallowed.
	model.Update(runeKey('3'))
	if model.GetActiveTab() != TabDashboard {
		t.Error("tab switch should be blocked while a question is open")
	}

	model.Update(runeKey('y'))
	if got := <-first; !got {
		t.Error("y should confirm")
	}

	model.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if got := <-second; got {
		t.Error("esc should decline")
	}
	if model.PendingConfirmations() != 0 {
		t.Errorf("pending = %d, want 0", model.PendingConfirmations())
	}
}

func TestModel_QuitDeclinesPendingConfirmations(t *testing.T) {
	model := readyModel(nil)
	reply := make(chan bool, 1)
	model.Update(ConfirmRequestMsg{Question: "Stop automation?", Reply: reply})

	cmd, handled := model.handleKeyMsg(tea.KeyMsg{Type: tea.KeyCtrlC})
	if !handled || cmd == nil {
		t.Fatal("ctrl+c should quit")
	}
	select {
	case ok := <-reply:
		if ok {
			t.Error("pending confirmation should be declined on quit")
		}
	default:
		t.Error("pending confirmation should be answered on quit")
	}
}

func TestModel_Notifications(t *testing.T) {
	model := readyModel(nil)

	model.Update(AddNotificationMsg{Type: NotificationSuccess, Message: "Account added", Duration: time.Minute})
	model.Update(AddNotificationMsg{Type: NotificationError, Message: "Export failed", Duration: time.Minute})

	view := model.View()
	if !strings.Contains(view, "[OK] Account added") {
		t.Error("success toast should be rendered")
	}
	if !strings.Contains(view, "[ERR] Export failed") {
		t.Error("error toast should be rendered")
	}

	if n := len(model.state.GetNotifications()); n != 2 {
		t.Errorf("notifications = %d, want 2", n)
	}

	model.Update(ClearNotificationsMsg{})
	if len(model.state.GetNotifications()) != 0 {
		t.Error("ClearNotificationsMsg should clear all notifications")
	}
}

func TestModel_OverlayToastsPadsShortViews(t *testing.T) {
	model := readyModel(nil)
	toasts := []string{"one\none", "two\ntwo", "three\nthree"}

	out := model.overlayToasts("nav\nbody", toasts)
	for _, want := range []string{"one", "two", "three"} {
		if !strings.Contains(out, want) {
			t.Errorf("overlay should keep toast %q: %q", want, out)
		}
	}

	model.height = 4
	if lines := strings.Count(model.overlayToasts("nav\nbody", toasts), "\n") + 1; lines != 4 {
		t.Errorf("overlay lines = %d, want terminal height 4", lines)
	}
}

func TestModel_SnapshotEndsInitialLoading(t *testing.T) {
	model := NewModel(nil)
	model.Init()
	if !model.state.IsInitialLoading() {
		t.Fatal("model should start in initial loading")
	}

	var snap store.Snapshot
	model.handleServiceEvent(services.SnapshotEvent{Snapshot: snap})
	if !model.state.IsInitialLoading() {
		t.Error("an empty snapshot should not end initial loading")
	}

	snap.Records = []models.Record{{CharacterName: "Zhang"}}
	snap.Cycles[store.Records] = 1
	model.handleServiceEvent(services.SnapshotEvent{Snapshot: snap, Changed: []store.Slice{store.Records}})
	if model.state.IsInitialLoading() {
		t.Error("a loaded snapshot should end initial loading without a cycle event")
	}
	for _, n := range model.state.GetNotifications() {
		if n.ID == LoadingNotificationID {
			t.Error("loading notification should be cleared")
		}
	}
}

func TestModel_HandleServiceEvent(t *testing.T) {
	model := NewModel(nil)

	snap := store.Snapshot{Records: []models.Record{{CharacterName: "Zhang"}}}
	if cmd := model.handleServiceEvent(services.SnapshotEvent{Snapshot: snap}); cmd != nil {
		t.Error("SnapshotEvent should not notify")
	}
	if got := len(model.state.Snapshot().Records); got != 1 {
		t.Errorf("snapshot records = %d, want 1", got)
	}

	model.handleServiceEvent(services.CycleEvent{Event: poller.Event{Type: poller.EventCycleApplied, Cycle: 1}})
	if model.state.GetLastUpdated().IsZero() {
		t.Error("applied cycle should set LastUpdated")
	}

	model.handleServiceEvent(services.CycleEvent{Event: poller.Event{Type: poller.EventCycleFailed, Err: errors.New("boom")}})
	if !model.state.IsStale() {
		t.Error("failed cycle after an applied one should mark data stale")
	}

	if cmd := model.handleServiceEvent(services.ErrorEvent{Service: "poller", Error: errors.New("boom")}); cmd != nil {
		t.Error("poller errors should be passive")
	}

	n := notificationFrom(t, model.handleServiceEvent(services.ErrorEvent{Service: "config", Error: errors.New("bad file")}))
	if n.Type != NotificationError || !strings.Contains(n.Message, "bad file") {
		t.Errorf("config error notification = %+v", n)
	}

	n = notificationFrom(t, model.handleServiceEvent(services.KeywordAlertEvent{
		Entries:   []keywords.Entry{{Keyword: "ban", Count: 12}},
		Threshold: 10,
	}))
	if n.Type != NotificationWarning || !strings.Contains(n.Message, "ban (12)") {
		t.Errorf("keyword alert notification = %+v", n)
	}

	n = notificationFrom(t, model.handleServiceEvent(services.AutomationStoppedEvent{}))
	if n.Type != NotificationError {
		t.Errorf("automation stopped should be an error, got %v", n.Type)
	}

	n = notificationFrom(t, model.handleServiceEvent(services.SettingsChangedEvent{Settings: config.Settings{AlertThreshold: 7}}))
	if n.Type != NotificationInfo {
		t.Errorf("settings change should be info, got %v", n.Type)
	}
	if model.state.Settings().AlertThreshold != 7 {
		t.Error("settings should be stored")
	}
}

func TestModel_HandleActionResult(t *testing.T) {
	model := NewModel(nil)

	tests := []struct {
		name     string
		msg      ActionResultMsg
		wantType NotificationType
		contains string
	}{
		{
			name:     "success",
			msg:      ActionResultMsg{Command: actions.CmdAddAccount, Result: actions.Result{Message: "Account bob added"}},
			wantType: NotificationSuccess,
			contains: "Account bob added",
		},
		{
			name:     "declined",
			msg:      ActionResultMsg{Command: actions.CmdDeleteAccount, Result: actions.Result{Declined: true}},
			wantType: NotificationInfo,
			contains: "cancelled",
		},
		{
			name:     "validation error",
			msg:      ActionResultMsg{Command: actions.CmdAddAccount, Err: apperr.Validation("add account", "username is required")},
			wantType: NotificationError,
			contains: "Invalid input: username is required",
		},
		{
			name: "export size",
			msg: ActionResultMsg{Command: actions.CmdExport, Result: actions.Result{
				Command: actions.CmdExport, Message: "Exported to /tmp/x.csv", Bytes: 2048,
			}},
			wantType: NotificationSuccess,
			contains: "2.0 kB",
		},
		{
			name: "partial batch",
			msg: ActionResultMsg{Command: actions.CmdBatch, Result: actions.Result{
				Message: "1 of 2 succeeded",
				Batch:   &models.BatchResult{Succeeded: []string{"a"}, Failed: []models.BatchFailure{{ID: "b", Reason: "busy"}}},
			}},
			wantType: NotificationWarning,
			contains: "1 of 2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := notificationFrom(t, model.handleActionResult(tt.msg))
			if n.Type != tt.wantType {
				t.Errorf("type = %v, want %v", n.Type, tt.wantType)
			}
			if !strings.Contains(n.Message, tt.contains) {
				t.Errorf("message %q should contain %q", n.Message, tt.contains)
			}
		})
	}
}

func TestModel_HandleRefreshResult(t *testing.T) {
	model := NewModel(nil)
	model.state.SetLoading(ResourceRefresh, true)

	if cmd := model.handleRefreshResult(RefreshResultMsg{Outcome: poller.Outcome{Discarded: true}, Reason: "manual"}); cmd != nil {
		t.Error("discarded cycles should not notify")
	}
	if model.state.Loading.Refresh {
		t.Error("refresh loading should be cleared")
	}

	n := notificationFrom(t, model.handleRefreshResult(RefreshResultMsg{
		Outcome: poller.Outcome{Err: errors.New("timeout")},
		Reason:  "manual",
	}))
	if n.Type != NotificationError || !strings.Contains(n.Message, "timeout") {
		t.Errorf("failed refresh notification = %+v", n)
	}

	if cmd := model.handleRefreshResult(RefreshResultMsg{Outcome: poller.Outcome{Applied: []store.Slice{store.Records}}, Reason: "view statistics"}); cmd != nil {
		t.Error("view switches should not notify on success")
	}
}

func TestModel_HistoryAndThreshold(t *testing.T) {
	model := NewModel(nil)
	model.state.SetLoading(ResourceHistory, true)

	model.Update(HistoryLoadedMsg{Report: services.HistoryReport{Range: models.TimeRange7Days}})
	if model.state.Loading.History {
		t.Error("history loading should be cleared")
	}
	if h := model.state.History(); h == nil || h.Range != models.TimeRange7Days {
		t.Error("history report should be stored")
	}

	model.Update(ThresholdChangedMsg{Threshold: 25})
	if got := model.state.Settings().AlertThreshold; got != 25 {
		t.Errorf("threshold = %d, want 25", got)
	}
}

func TestModel_RenderStatus(t *testing.T) {
	model := NewModel(nil)
	if got := model.renderStatus(); !strings.Contains(got, "waiting") {
		t.Errorf("status = %q, want waiting", got)
	}

	model.state.RecordCycle(poller.Event{Type: poller.EventCycleFailed, Err: errors.New("down")})
	if got := model.renderStatus(); !strings.Contains(got, "unreachable") {
		t.Errorf("status = %q, want unreachable", got)
	}

	model.state.RecordCycle(poller.Event{Type: poller.EventCycleApplied})
	if got := model.renderStatus(); !strings.Contains(got, "updated") || strings.Contains(got, "stale") {
		t.Errorf("status = %q, want fresh", got)
	}

	model.state.RecordCycle(poller.Event{Type: poller.EventCycleFailed, Err: errors.New("down")})
	if got := model.renderStatus(); !strings.Contains(got, "stale") {
		t.Errorf("status = %q, want stale", got)
	}
}

func TestModel_HandleSpinnerTick(t *testing.T) {
	model := NewModel(nil)
	_, cmd := model.Update(spinner.TickMsg{})
	if cmd == nil {
		t.Error("Spinner tick should return next tick command")
	}
}

func TestTabID_String(t *testing.T) {
	tests := []struct {
		tab  TabID
		want string
		view poller.View
	}{
		{TabDashboard, "Dashboard", poller.ViewOverview},
		{TabFilter, "Filter", poller.ViewOverview},
		{TabAccounts, "Accounts", poller.ViewOverview},
		{TabStatistics, "Statistics", poller.ViewStatistics},
		{TabKeywords, "Keywords", poller.ViewKeywords},
		{TabInfo, "Info", poller.ViewOverview},
		{TabID(99), "Unknown", poller.ViewOverview},
	}

	for _, tt := range tests {
		if got := tt.tab.String(); got != tt.want {
			t.Errorf("TabID(%d).String() = %q, want %q", tt.tab, got, tt.want)
		}
		if got := tt.tab.View(); got != tt.view {
			t.Errorf("TabID(%d).View() = %v, want %v", tt.tab, got, tt.view)
		}
	}
}

func TestDefaultKeyMap(t *testing.T) {
	km := DefaultKeyMap()
	if len(km.Tabs) != int(tabCount) {
		t.Errorf("tab bindings = %d, want %d", len(km.Tabs), tabCount)
	}
	if !key.Matches(runeKey('6'), km.Tabs[TabInfo]) {
		t.Error("6 should select the Info tab")
	}
	if len(km.FullHelp()) == 0 || len(km.ShortHelp()) == 0 {
		t.Error("help bindings should not be empty")
	}
}

func TestCapitalize(t *testing.T) {
	if got := capitalize("export"); got != "Export" {
		t.Errorf("capitalize = %q", got)
	}
	if got := capitalize(""); got != "" {
		t.Errorf("capitalize(\"\") = %q", got)
	}
}
