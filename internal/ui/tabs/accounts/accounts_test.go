package accounts

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/crawler-dashboard-tui/internal/app"
	"github.com/j-veylop/crawler-dashboard-tui/internal/config"
	"github.com/j-veylop/crawler-dashboard-tui/internal/models"
	"github.com/j-veylop/crawler-dashboard-tui/internal/remote/remotetest"
	"github.com/j-veylop/crawler-dashboard-tui/internal/services"
	"github.com/j-veylop/crawler-dashboard-tui/internal/services/poller"
	"github.com/j-veylop/crawler-dashboard-tui/internal/store"
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

var testAccounts = []models.Account{
	{ID: "acc-1111-aaaa", Username: "alice", Status: models.AccountActive, CrawlCount: 1200, SuccessRate: 0.95, AutoEnabled: true},
	{ID: "acc-2222-bbbb", Username: "bob", Status: models.AccountError, LastError: "login expired"},
	{ID: "acc-3333-cccc", Username: "carol", Status: models.AccountStandby},
}

func loadedState(accounts []models.Account) *app.State {
	state := app.NewState()
	state.SetSnapshot(store.Snapshot{Accounts: accounts})
	state.RecordCycle(poller.Event{Type: poller.EventCycleApplied, Cycle: 1})
	return state
}

// newManagedModel wires the tab to a manager backed by a fake crawler
// service and loads its accounts into the store.
func newManagedModel(t *testing.T) (*Model, *app.State, *services.Manager) {
	t.Helper()
	srv := remotetest.New()
	t.Cleanup(srv.Close)
	srv.SetAccounts(testAccounts)

	tmpDir := t.TempDir()
	mgr, err := services.NewManager(&config.Config{
		APIURL:         srv.APIURL(),
		DatabasePath:   filepath.Join(tmpDir, "history.db"),
		ExportDir:      tmpDir,
		RequestTimeout: 5 * time.Second,
		PollInterval:   time.Hour,
		AlertThreshold: 5,
	})
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	t.Cleanup(func() { _ = mgr.Close() })
	mgr.SetNotifier(func(string, string) error { return nil })

	if out := mgr.Refresh(context.Background(), "test"); out.Err != nil {
		t.Fatalf("Refresh failed: %v", out.Err)
	}

	state := loadedState(nil)
	state.SetSnapshot(mgr.Store().Read())
	m := New(state, app.NewCommands(mgr))
	m.SetSize(140, 40)
	m.Update(app.TabActivatedMsg{Tab: app.TabAccounts})
	return m, state, mgr
}

func TestModel_Rows(t *testing.T) {
	m := New(loadedState(testAccounts), app.NewCommands(nil))
	m.SetSize(140, 40)
	m.Update(app.TabActivatedMsg{Tab: app.TabAccounts})

	rows := m.table.Rows()
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(rows))
	}
	if rows[0][1] != "alice" || rows[0][2] != "Active" || rows[0][3] != "95%" || rows[0][4] != "1,200" || rows[0][5] != "on" {
		t.Errorf("alice row = %v", rows[0])
	}
	if rows[2][6] != "never" {
		t.Errorf("carol last crawl = %q, want never", rows[2][6])
	}

	view := m.View()
	for _, want := range []string{"Account Management", "3 accounts", "1 error", "alice"} {
		if !strings.Contains(view, want) {
			t.Errorf("view should contain %q", want)
		}
	}
}

func TestModel_ViewEmptyAndLoading(t *testing.T) {
	m := New(app.NewState(), app.NewCommands(nil))
	m.SetSize(100, 30)
	if view := m.View(); !strings.Contains(view, "Loading accounts") {
		t.Error("initial view should show the spinner")
	}

	m = New(loadedState(nil), app.NewCommands(nil))
	m.SetSize(100, 30)
	if view := m.View(); !strings.Contains(view, "No Accounts Configured") {
		t.Error("empty view should show the empty state")
	}
}

func TestModel_LastErrorDetail(t *testing.T) {
	m := New(loadedState(testAccounts), app.NewCommands(nil))
	m.SetSize(140, 40)
	m.Update(app.TabActivatedMsg{Tab: app.TabAccounts})

	m.table.SetCursor(1)
	view := m.View()
	if !strings.Contains(view, "login expired") {
		t.Error("view should show the last error of the account under the cursor")
	}
	if !strings.Contains(view, "bob (") {
		t.Error("view should show the success rate of the account under the cursor")
	}

	m.table.SetCursor(0)
	if view := m.View(); strings.Contains(view, "Last error") || !strings.Contains(view, "95%") {
		t.Error("a healthy account shows only its success rate")
	}
}

func TestModel_AddForm(t *testing.T) {
	m := New(loadedState(nil), app.NewCommands(nil))
	m.SetSize(100, 30)

	m.Update(runes("n"))
	if !m.Capturing() {
		t.Fatal("n should open the add form")
	}

	// Keys that are bindings outside the form are typed into the input.
	m.Update(runes("dan"))
	if got := m.usernameInput.Value(); got != "dan" {
		t.Errorf("username = %q, want dan", got)
	}

	// Submitting without a password is rejected locally.
	m.focusedField = fieldSubmit
	m.updateFormFocus()
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if !m.Capturing() {
		t.Error("an invalid form should stay open")
	}
	if msg, ok := cmd().(app.AddNotificationMsg); !ok || !strings.Contains(msg.Message, "password") {
		t.Errorf("expected a missing password notification, got %#v", msg)
	}

	m.passwordInput.SetValue("secret")
	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if m.Capturing() {
		t.Error("without a service the form should close")
	}
	if msg, ok := cmd().(app.AddNotificationMsg); !ok || msg.Type != app.NotificationWarning {
		t.Errorf("expected a not connected warning, got %#v", msg)
	}
}

func TestModel_FormNavigation(t *testing.T) {
	m := New(loadedState(nil), app.NewCommands(nil))
	m.Update(runes("n"))

	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if m.focusedField != fieldPassword {
		t.Errorf("enter on a field should advance, got %v", m.focusedField)
	}
	m.Update(tea.KeyMsg{Type: tea.KeyShiftTab})
	m.Update(tea.KeyMsg{Type: tea.KeyShiftTab})
	if m.focusedField != fieldCancel {
		t.Errorf("focus should wrap backwards, got %v", m.focusedField)
	}
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if m.Capturing() {
		t.Error("enter on cancel should close the form")
	}
}

func TestModel_Selection(t *testing.T) {
	m, _, mgr := newManagedModel(t)

	m.Update(tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	if got := mgr.Store().Selected(); len(got) != 1 || got[0] != "acc-1111-aaaa" {
		t.Fatalf("selected = %v", got)
	}
	if m.table.Rows()[0][0] != "✓" {
		t.Error("selected row should be marked")
	}

	m.Update(runes("A"))
	if got := mgr.Store().Selected(); len(got) != 3 {
		t.Errorf("select all = %v", got)
	}

	m.Update(runes("x"))
	if got := mgr.Store().Selected(); len(got) != 0 {
		t.Errorf("clear selection left %v", got)
	}
}

func TestModel_BatchEmptySelection(t *testing.T) {
	m, _, _ := newManagedModel(t)

	_, cmd := m.Update(runes("s"))
	if cmd == nil {
		t.Fatal("batch should return a command")
	}
	msg, ok := cmd().(app.ActionResultMsg)
	if !ok {
		t.Fatalf("expected ActionResultMsg, got %T", msg)
	}
	if msg.Err == nil {
		t.Error("batch with an empty selection should fail validation")
	}
}

func TestModel_BatchStop(t *testing.T) {
	m, _, mgr := newManagedModel(t)
	mgr.Store().SetSelected([]string{"acc-1111-aaaa"})

	_, cmd := m.Update(runes("S"))
	msg, ok := cmd().(app.ActionResultMsg)
	if !ok || msg.Err != nil {
		t.Fatalf("batch stop failed: %#v", msg)
	}
	if msg.Result.Batch == nil || len(msg.Result.Batch.Succeeded) != 1 {
		t.Errorf("batch result = %+v", msg.Result.Batch)
	}
}

func TestModel_AddThroughService(t *testing.T) {
	m, _, mgr := newManagedModel(t)

	m.Update(runes("n"))
	m.usernameInput.SetValue("dan")
	m.passwordInput.SetValue("secret")
	m.focusedField = fieldSubmit

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	msg, ok := cmd().(app.ActionResultMsg)
	if !ok || msg.Err != nil {
		t.Fatalf("add failed: %#v", msg)
	}

	m.Update(msg)
	if m.Capturing() {
		t.Error("a successful add should close the form")
	}
	found := false
	for _, a := range mgr.Store().Read().Accounts {
		if a.Username == "dan" {
			found = true
		}
	}
	if !found {
		t.Error("added account should appear after the post-command refresh")
	}
}

func TestModel_Help(t *testing.T) {
	m := New(loadedState(nil), app.NewCommands(nil))
	if len(m.ShortHelp()) != 5 {
		t.Errorf("ShortHelp() = %d bindings", len(m.ShortHelp()))
	}
	m.Update(runes("n"))
	if len(m.ShortHelp()) != 3 {
		t.Errorf("form ShortHelp() = %d bindings", len(m.ShortHelp()))
	}
	if len(m.FullHelp()) != 3 {
		t.Errorf("FullHelp() = %d groups", len(m.FullHelp()))
	}
}
