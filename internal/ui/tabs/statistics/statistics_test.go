package statistics

import (
	"context"
	"errors"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/crawler-dashboard-tui/internal/app"
	"github.com/j-veylop/crawler-dashboard-tui/internal/config"
	"github.com/j-veylop/crawler-dashboard-tui/internal/models"
	"github.com/j-veylop/crawler-dashboard-tui/internal/remote/remotetest"
	"github.com/j-veylop/crawler-dashboard-tui/internal/services"
	"github.com/j-veylop/crawler-dashboard-tui/internal/store"
)

func newModel(snap store.Snapshot) (*Model, *app.State) {
	state := app.NewState()
	state.SetSnapshot(snap)
	m := New(state, app.NewCommands(nil))
	m.SetSize(160, 200)
	return m, state
}

func TestNew(t *testing.T) {
	m, _ := newModel(store.Snapshot{})
	if m.TimeRange() != models.TimeRange24Hours {
		t.Errorf("default range = %v", m.TimeRange())
	}
	if m.Init() != nil {
		t.Error("Init should not load anything before the tab is shown")
	}
}

func TestModel_ViewWaiting(t *testing.T) {
	m, _ := newModel(store.Snapshot{})
	view := m.View()
	for _, want := range []string{"Statistics", "[t] 24 Hours", "Waiting for statistics", "No crawls recorded yet", "No cycles recorded"} {
		if !strings.Contains(view, want) {
			t.Errorf("view should contain %q", want)
		}
	}
}

func TestModel_ViewRemoteStatistics(t *testing.T) {
	snap := store.Snapshot{
		Statistics: models.Statistics{
			Basic:             models.BasicStats{TotalRecords: 12345, TotalAccounts: 4, ActiveAccounts: 3, TotalCrawls: 99},
			Accumulation:      models.AccumulationStats{TotalAccumulatedCount: 500, TotalCycles: 20, AvgAccumulatedPerRecord: 2.5},
			GuildDistribution: map[string]int{"Wudang": 10, "Shaolin": 4},
			TypeDistribution:  map[string]int{"quest": 7},
		},
		History: models.CrawlHistory{
			TotalCrawls: 2,
			SuccessRate: 0.5,
			History: []models.CrawlHistoryEntry{
				{Account: "alice", DataCount: 1500, Success: true},
				{Account: "bob", DataCount: 0, Success: false},
			},
		},
	}
	snap.Cycles[store.Statistics] = 1

	m, _ := newModel(snap)
	view := m.View()
	for _, want := range []string{"12,345", "3/4", "2.5", "Wudang", "Shaolin", "quest", "50% success", "alice", "1,500", "✗"} {
		if !strings.Contains(view, want) {
			t.Errorf("view should contain %q", want)
		}
	}
	if strings.Contains(view, "Waiting for statistics") {
		t.Error("loaded statistics should replace the waiting hint")
	}
}

func TestModel_ViewCycleHistory(t *testing.T) {
	m, state := newModel(store.Snapshot{})
	now := time.Now()
	cycles := []models.CycleMetric{
		{Timestamp: now.Add(-2 * time.Minute), Cycle: 1, Records: 10, ActiveAccounts: 1, Running: true},
		{Timestamp: now.Add(-time.Minute), Cycle: 2, Records: 30, ActiveAccounts: 2, Running: false, KeywordTotal: 4},
	}
	state.SetHistory(services.HistoryReport{
		Range:   models.TimeRange24Hours,
		Cycles:  cycles,
		Summary: models.Summarize(cycles),
		Alerts:  []models.KeywordAlert{{Timestamp: now, Keyword: "ban", Count: 12, Threshold: 10}},
		Exports: []models.ExportRecord{{Timestamp: now, Path: "/tmp/export.csv", Bytes: 2048}},
	})

	view := m.View()
	for _, want := range []string{"2 cycles", "peak 30", "avg 20.0", "50%", "Records", "Active accounts", "keyword detections per cycle", "ban", "reached 12", "/tmp/export.csv", "2.0 kB"} {
		if !strings.Contains(view, want) {
			t.Errorf("view should contain %q", want)
		}
	}
}

func TestModel_HistoryError(t *testing.T) {
	m, _ := newModel(store.Snapshot{})
	m.Update(app.HistoryLoadedMsg{Err: errors.New("database is locked")})
	if view := m.View(); !strings.Contains(view, "database is locked") {
		t.Error("view should show the history error")
	}

	m.Update(app.HistoryLoadedMsg{})
	if m.errorMsg != "" {
		t.Error("a successful load should clear the error")
	}
}

func TestModel_ToggleRangeWithoutManager(t *testing.T) {
	m, _ := newModel(store.Snapshot{})

	want := []models.TimeRange{models.TimeRange7Days, models.TimeRangeAllTime, models.TimeRangeHour, models.TimeRange24Hours}
	for _, w := range want {
		_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'t'}})
		if cmd != nil {
			t.Error("without a manager no history command is issued")
		}
		if m.TimeRange() != w {
			t.Errorf("range = %v, want %v", m.TimeRange(), w)
		}
	}
}

func TestModel_LoadHistory(t *testing.T) {
	srv := remotetest.New()
	t.Cleanup(srv.Close)

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

	state := app.NewState()
	commands := app.NewCommands(mgr)
	commands.SetContext(context.Background())
	m := New(state, commands)
	m.SetSize(120, 100)

	_, cmd := m.Update(app.TabActivatedMsg{Tab: app.TabStatistics})
	if cmd == nil {
		t.Fatal("activating the tab should load history")
	}
	if !slices.Contains(state.GetLoadingResources(), app.ResourceHistory) {
		t.Error("history should be marked loading")
	}

	msg, ok := cmd().(app.HistoryLoadedMsg)
	if !ok {
		t.Fatalf("expected HistoryLoadedMsg, got %T", msg)
	}
	if msg.Err != nil {
		t.Fatalf("history load failed: %v", msg.Err)
	}
	if msg.Report.Range != models.TimeRange24Hours {
		t.Errorf("report range = %v", msg.Report.Range)
	}
}

func TestKeywordSeries(t *testing.T) {
	if _, ok := keywordSeries([]models.CycleMetric{{Records: 3}, {Records: 4}}); ok {
		t.Error("cycles without detections have no keyword series")
	}
	got, ok := keywordSeries([]models.CycleMetric{{KeywordTotal: 0}, {KeywordTotal: 7}})
	if !ok || len(got) != 2 || got[1] != 7 {
		t.Errorf("keywordSeries() = %v, %v", got, ok)
	}
}

func TestIndent(t *testing.T) {
	if got := indent("a\nb"); got != "  a\n  b" {
		t.Errorf("indent() = %q", got)
	}
}

func TestModel_Help(t *testing.T) {
	m, _ := newModel(store.Snapshot{})
	if len(m.ShortHelp()) != 2 || len(m.FullHelp()) != 2 {
		t.Error("unexpected help bindings")
	}
}
