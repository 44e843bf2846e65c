// Package services provides service orchestration for the TUI.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gen2brain/beeep"

	"github.com/j-veylop/crawler-dashboard-tui/internal/config"
	"github.com/j-veylop/crawler-dashboard-tui/internal/db"
	"github.com/j-veylop/crawler-dashboard-tui/internal/filter"
	"github.com/j-veylop/crawler-dashboard-tui/internal/keywords"
	"github.com/j-veylop/crawler-dashboard-tui/internal/logger"
	"github.com/j-veylop/crawler-dashboard-tui/internal/models"
	"github.com/j-veylop/crawler-dashboard-tui/internal/remote"
	"github.com/j-veylop/crawler-dashboard-tui/internal/services/actions"
	"github.com/j-veylop/crawler-dashboard-tui/internal/services/poller"
	"github.com/j-veylop/crawler-dashboard-tui/internal/store"
)

// historyRetention is how long local history rows are kept.
const historyRetention = 30 * 24 * time.Hour

type (
	// SnapshotEvent is emitted whenever the store view changes.
	SnapshotEvent struct {
		Snapshot store.Snapshot
		Changed  []store.Slice
	}

	// CycleEvent is emitted for every poller event.
	CycleEvent struct {
		Event poller.Event
	}

	// KeywordAlertEvent is emitted when keywords newly reach the alert threshold.
	KeywordAlertEvent struct {
		Entries   []keywords.Entry
		Threshold int
	}

	// AutomationStoppedEvent is emitted when automation stops without an
	// operator request.
	AutomationStoppedEvent struct{}

	// SettingsChangedEvent is emitted when the .env file is reloaded.
	SettingsChangedEvent struct {
		Settings config.Settings
	}

	// ErrorEvent is emitted when an error occurs in any service.
	ErrorEvent struct {
		Service string
		Error   error
	}
)

// ServiceEvent is the interface implemented by all service events.
type ServiceEvent interface {
	isServiceEvent()
}

func (SnapshotEvent) isServiceEvent()          {}
func (CycleEvent) isServiceEvent()             {}
func (KeywordAlertEvent) isServiceEvent()      {}
func (AutomationStoppedEvent) isServiceEvent() {}
func (SettingsChangedEvent) isServiceEvent()   {}
func (ErrorEvent) isServiceEvent()             {}

// NotifyFunc delivers a desktop notification.
type NotifyFunc func(title, message string) error

func desktopNotify(title, message string) error {
	return beeep.Notify(title, message, "")
}

// Manager orchestrates services and event routing.
type Manager struct {
	mu           sync.RWMutex
	cfg          *config.Config
	settings     config.Settings
	client       *remote.Client
	store        *store.Store
	poller       *poller.Poller
	actions      *actions.Coordinator
	filter       filter.Engine
	database     *db.DB
	watcher      *config.Watcher
	notify       NotifyFunc
	changeChan   chan SnapshotEvent
	eventChan    chan ServiceEvent
	stopChan     chan struct{}
	routeDone    chan struct{}
	subscribers  []chan<- ServiceEvent
	prevKeywords map[string]int
	prevRunning  *bool
	closeOnce    sync.Once
}

// NewManager creates a new service manager. Nothing is fetched until Start.
func NewManager(cfg *config.Config) (*Manager, error) {
	m := &Manager{
		cfg:        cfg,
		settings:   cfg.Settings(),
		notify:     desktopNotify,
		changeChan: make(chan SnapshotEvent, 50),
		eventChan:  make(chan ServiceEvent, 100),
		stopChan:   make(chan struct{}),
		routeDone:  make(chan struct{}),
	}

	var err error
	m.database, err = db.New(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	m.client = remote.New(cfg.APIURL, remote.WithTimeout(cfg.RequestTimeout))
	m.store = store.New()
	m.poller = poller.New(m.client, m.store, poller.Config{Interval: m.settings.PollInterval})
	m.actions = actions.New(m.client, m.store, actions.RefreshFunc(m.refreshErr), nil,
		actions.Config{ExportDir: cfg.ExportDir})
	m.filter = filter.Fallback{
		Primary:   filter.Remote{Client: m.client},
		Secondary: filter.Local{},
	}

	if cfg.EnvPath != "" {
		m.watcher, err = config.NewWatcher(cfg.EnvPath, m.settings)
		if err != nil {
			// Live reload is optional.
			logger.Warn("settings watcher disabled", "path", cfg.EnvPath, "error", err)
			m.watcher = nil
		}
	}

	m.store.OnChange(m.onStoreChange)

	go m.routeEvents()

	return m, nil
}

// Start prunes old history and starts the poller.
func (m *Manager) Start(ctx context.Context) error {
	if n, err := m.database.Prune(ctx, time.Now().Add(-historyRetention)); err != nil {
		logger.Warn("failed to prune history", "error", err)
	} else if n > 0 {
		logger.Info("pruned history", "rows", n)
		if err := m.database.Vacuum(); err != nil {
			logger.Warn("failed to vacuum history", "error", err)
		}
	}
	return m.poller.Start(ctx)
}

// onStoreChange runs on the goroutine that changed the store and must not block.
func (m *Manager) onStoreChange(snap store.Snapshot, changed []store.Slice) {
	ev := SnapshotEvent{Snapshot: snap, Changed: changed}
	select {
	case m.changeChan <- ev:
	default:
		// Only the newest view matters.
		select {
		case <-m.changeChan:
		default:
		}
		select {
		case m.changeChan <- ev:
		default:
		}
	}
}

// routeEvents routes events from individual services to subscribers.
func (m *Manager) routeEvents() {
	defer close(m.routeDone)

	var watchEvents <-chan config.WatchEvent
	if m.watcher != nil {
		watchEvents = m.watcher.Events()
	}

	for {
		select {
		case ev := <-m.changeChan:
			m.broadcast(ev)

		case ev := <-m.poller.Events():
			m.handleCycleEvent(ev)

		case ev := <-watchEvents:
			m.handleWatchEvent(ev)

		case <-m.stopChan:
			return
		}
	}
}

func (m *Manager) handleCycleEvent(ev poller.Event) {
	m.broadcast(CycleEvent{Event: ev})

	switch ev.Type {
	case poller.EventCycleApplied:
		snap := m.store.Confirmed()
		if ev.Applied.Has(store.Automation) {
			m.checkAutomation(snap.Automation.Running)
		}
		if ev.Applied.Has(store.Keywords) {
			m.checkKeywords(snap.Keywords.Counts)
		}
		if store.BaseSet.SubsetOf(ev.Slices) {
			m.recordCycle(ev.Cycle, snap)
		}

	case poller.EventCycleFailed:
		// Background failures are passive; the dashboard shows staleness.
		m.broadcast(ErrorEvent{Service: "poller", Error: ev.Err})
	}
}

func (m *Manager) recordCycle(cycle uint64, snap store.Snapshot) {
	metric := models.CycleMetric{
		Timestamp:      time.Now(),
		Cycle:          cycle,
		Records:        len(snap.Records),
		Accounts:       len(snap.Accounts),
		ActiveAccounts: snap.Automation.ActiveAccounts,
		KeywordTotal:   snap.Keywords.TotalDetected,
		Running:        snap.Automation.Running,
	}
	if err := m.database.RecordCycle(context.Background(), metric); err != nil {
		logger.Error("failed to record cycle", "cycle", cycle, "error", err)
	}
}

// checkAutomation reports automation that stopped while the operator
// expected it to run.
func (m *Manager) checkAutomation(running bool) {
	phase := m.actions.Phase()

	m.mu.Lock()
	prev := m.prevRunning
	m.prevRunning = &running
	notifyOn := m.settings.DesktopNotify
	m.mu.Unlock()

	m.actions.SyncPhase(running)

	if prev == nil || !*prev || running || phase != actions.PhaseRunning {
		return
	}

	logger.Warn("automation stopped unexpectedly")
	m.broadcast(AutomationStoppedEvent{})
	if notifyOn {
		m.sendNotification("Crawler automation stopped", "Automation is no longer running.")
	}
}

// checkKeywords records and announces keywords that newly reach the threshold.
// The first observation only establishes a baseline.
func (m *Manager) checkKeywords(counts map[string]int) {
	m.mu.Lock()
	prev := m.prevKeywords
	next := make(map[string]int, len(counts))
	for k, v := range counts {
		next[k] = v
	}
	m.prevKeywords = next
	threshold := m.settings.AlertThreshold
	notifyOn := m.settings.DesktopNotify
	m.mu.Unlock()

	if prev == nil {
		return
	}

	crossed := keywords.Crossings(prev, next, threshold)
	if len(crossed) == 0 {
		return
	}

	now := time.Now()
	names := make([]string, len(crossed))
	for i, e := range crossed {
		names[i] = e.Keyword
		alert := models.KeywordAlert{Timestamp: now, Keyword: e.Keyword, Count: e.Count, Threshold: threshold}
		if err := m.database.RecordAlert(context.Background(), alert); err != nil {
			logger.Error("failed to record keyword alert", "keyword", e.Keyword, "error", err)
		}
	}
	logger.Info("keywords reached alert threshold", "keywords", names, "threshold", threshold)

	m.broadcast(KeywordAlertEvent{Entries: crossed, Threshold: threshold})
	if notifyOn {
		title := fmt.Sprintf("Keyword alert: %d keyword(s)", len(crossed))
		body := fmt.Sprintf("%s reached %d detections", strings.Join(names, ", "), threshold)
		m.sendNotification(title, body)
	}
}

func (m *Manager) sendNotification(title, body string) {
	m.mu.RLock()
	notify := m.notify
	m.mu.RUnlock()
	if err := notify(title, body); err != nil {
		logger.Warn("desktop notification failed", "error", err)
	}
}

func (m *Manager) handleWatchEvent(ev config.WatchEvent) {
	if ev.Err != nil {
		m.broadcast(ErrorEvent{Service: "config", Error: ev.Err})
		return
	}
	m.ApplySettings(ev.Settings)
}

// ApplySettings switches to new reloadable settings.
func (m *Manager) ApplySettings(s config.Settings) {
	m.mu.Lock()
	m.settings = s
	m.mu.Unlock()

	m.poller.SetInterval(s.PollInterval)
	m.broadcast(SettingsChangedEvent{Settings: s})
}

// Settings returns the current reloadable settings.
func (m *Manager) Settings() config.Settings {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.settings
}

// AlertThreshold returns the keyword alert threshold.
func (m *Manager) AlertThreshold() int {
	return m.Settings().AlertThreshold
}

// SetAlertThreshold changes the keyword alert threshold; values below 1 become 1.
func (m *Manager) SetAlertThreshold(n int) int {
	n = keywords.ClampThreshold(n)
	m.mu.Lock()
	m.settings.AlertThreshold = n
	m.mu.Unlock()
	return n
}

// SetNotifier replaces the desktop notifier.
func (m *Manager) SetNotifier(fn NotifyFunc) {
	m.mu.Lock()
	m.notify = fn
	m.mu.Unlock()
}

// broadcast sends an event to all subscribers.
func (m *Manager) broadcast(event ServiceEvent) {
	// Send to main event channel
	select {
	case m.eventChan <- event:
	default:
	}

	// Send to subscribers
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, sub := range m.subscribers {
		select {
		case sub <- event:
		default:
			// Subscriber channel full, skip
		}
	}
}

// Subscribe creates a channel for receiving service events. When the store
// already holds data the channel starts with a SnapshotEvent of it, so a
// subscriber attached after the first cycle still sees that cycle.
// Returns a tea.Cmd that can be used in Bubble Tea's Init or Update.
func (m *Manager) Subscribe() (chan ServiceEvent, tea.Cmd) {
	ch := make(chan ServiceEvent, 50)

	m.mu.Lock()
	snap := m.store.Read()
	if loaded := snap.LoadedSlices(); len(loaded) > 0 {
		ch <- SnapshotEvent{Snapshot: snap, Changed: loaded}
	}
	m.subscribers = append(m.subscribers, ch)
	m.mu.Unlock()

	return ch, waitForEvent(ch)
}

// waitForEvent returns a tea.Cmd that waits for the next event.
func waitForEvent(ch <-chan ServiceEvent) tea.Cmd {
	return func() tea.Msg {
		return <-ch
	}
}

// WaitForEvent returns a tea.Cmd for the next event on a channel.
func WaitForEvent(ch <-chan ServiceEvent) tea.Cmd {
	return waitForEvent(ch)
}

// Unsubscribe removes a subscriber channel.
func (m *Manager) Unsubscribe(ch chan ServiceEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, sub := range m.subscribers {
		if sub == ch {
			m.subscribers = append(m.subscribers[:i], m.subscribers[i+1:]...)
			close(ch)
			break
		}
	}
}

func (m *Manager) refreshErr(ctx context.Context, reason string) error {
	return m.poller.Refresh(ctx, reason).Err
}

// Refresh runs an on-demand poll cycle.
func (m *Manager) Refresh(ctx context.Context, reason string) poller.Outcome {
	return m.poller.Refresh(ctx, reason)
}

// SetView switches the polled slices and refreshes when the view changed.
func (m *Manager) SetView(ctx context.Context, v poller.View) poller.Outcome {
	if m.poller.View() == v {
		return poller.Outcome{}
	}
	m.poller.SetView(v)
	return m.poller.Refresh(ctx, "view "+v.String())
}

// Export downloads a data export and records it in the local history.
func (m *Manager) Export(ctx context.Context) (actions.Result, error) {
	res, err := m.actions.RequestExport(ctx)
	if err != nil {
		return res, err
	}
	rec := models.ExportRecord{Timestamp: time.Now(), Path: res.Path, Bytes: res.Bytes}
	if err := m.database.RecordExport(ctx, rec); err != nil {
		logger.Error("failed to record export", "path", res.Path, "error", err)
	}
	return res, nil
}

// Filter evaluates criteria remotely, falling back to the current records.
func (m *Manager) Filter(ctx context.Context, criteria models.FilterCriteria) ([]models.Record, error) {
	return m.filter.Filter(ctx, m.store.Read().Records, criteria)
}

// HistoryReport holds the local history shown on the statistics tab.
type HistoryReport struct {
	Range   models.TimeRange
	Cycles  []models.CycleMetric
	Summary models.CycleSummary
	Alerts  []models.KeywordAlert
	Exports []models.ExportRecord
}

// History loads the local history for a time range.
func (m *Manager) History(ctx context.Context, r models.TimeRange) (HistoryReport, error) {
	report := HistoryReport{Range: r}

	cycles, err := m.database.CyclesSince(ctx, r.Since(time.Now()))
	if err != nil {
		return report, err
	}
	report.Cycles = cycles
	report.Summary = models.Summarize(cycles)

	if report.Alerts, err = m.database.RecentAlerts(ctx, 20); err != nil {
		return report, err
	}
	if report.Exports, err = m.database.RecentExports(ctx, 10); err != nil {
		return report, err
	}
	return report, nil
}

// Store returns the view model store.
func (m *Manager) Store() *store.Store {
	return m.store
}

// Poller returns the polling scheduler.
func (m *Manager) Poller() *poller.Poller {
	return m.poller
}

// Actions returns the command coordinator.
func (m *Manager) Actions() *actions.Coordinator {
	return m.actions
}

// Client returns the remote client.
func (m *Manager) Client() *remote.Client {
	return m.client
}

// Config returns the startup configuration.
func (m *Manager) Config() *config.Config {
	return m.cfg
}

// Database returns the database instance for direct access.
func (m *Manager) Database() *db.DB {
	return m.database
}

// Close closes the manager and all its services.
func (m *Manager) Close() error {
	var errs []error
	m.closeOnce.Do(func() {
		if err := m.poller.Close(); err != nil {
			errs = append(errs, err)
		}

		close(m.stopChan)
		<-m.routeDone

		m.mu.Lock()
		for _, sub := range m.subscribers {
			close(sub)
		}
		m.subscribers = nil
		m.mu.Unlock()

		if m.watcher != nil {
			if err := m.watcher.Close(); err != nil {
				errs = append(errs, err)
			}
		}

		if err := m.database.Close(); err != nil {
			errs = append(errs, err)
		}
	})
	return errors.Join(errs...)
}
