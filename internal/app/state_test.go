package app

import (
	"errors"
	"testing"
	"time"

	"github.com/j-veylop/crawler-dashboard-tui/internal/config"
	"github.com/j-veylop/crawler-dashboard-tui/internal/models"
	"github.com/j-veylop/crawler-dashboard-tui/internal/services"
	"github.com/j-veylop/crawler-dashboard-tui/internal/services/poller"
	"github.com/j-veylop/crawler-dashboard-tui/internal/store"
)

func TestNewState(t *testing.T) {
	s := NewState()
	if s == nil {
		t.Fatal("NewState returned nil")
	}
	if len(s.Snapshot().Records) != 0 {
		t.Error("Records should be empty")
	}
	if !s.IsInitialLoading() {
		t.Error("Initial loading should be true")
	}
	if s.History() != nil {
		t.Error("History should be nil before the first load")
	}
}

func TestState_SetLoading(t *testing.T) {
	s := NewState()

	s.SetLoading(ResourceRefresh, true)
	if !s.Loading.Refresh {
		t.Error("Refresh loading should be true")
	}
	if !s.AnyLoading() {
		t.Error("AnyLoading should be true")
	}

	s.SetLoading(ResourceRefresh, false)
	// Initial is still true
	if !s.AnyLoading() {
		t.Error("AnyLoading should be true (Initial is true)")
	}

	s.SetLoading(ResourceInitial, false)
	if s.AnyLoading() {
		t.Error("AnyLoading should be false")
	}

	if resources := s.GetLoadingResources(); len(resources) != 0 {
		t.Errorf("GetLoadingResources should be empty, got %v", resources)
	}

	s.SetLoading(ResourceHistory, true)
	s.SetLoading(ResourceFilter, true)
	resources := s.GetLoadingResources()
	if len(resources) != 2 || resources[0] != ResourceHistory || resources[1] != ResourceFilter {
		t.Errorf("GetLoadingResources = %v, want [history filter]", resources)
	}

	// Unknown resources are ignored.
	s.SetLoading("nonexistent", true)
	if len(s.GetLoadingResources()) != 2 {
		t.Error("unknown resource should not change loading state")
	}
}

func TestState_SnapshotAndSettings(t *testing.T) {
	s := NewState()

	s.SetSnapshot(store.Snapshot{
		Records:  []models.Record{{CharacterName: "Zhang"}, {CharacterName: "Li"}},
		Accounts: []models.Account{{ID: "a", Username: "alice"}},
	})
	snap := s.Snapshot()
	if len(snap.Records) != 2 || len(snap.Accounts) != 1 {
		t.Errorf("snapshot = %d records %d accounts, want 2 and 1", len(snap.Records), len(snap.Accounts))
	}

	s.SetSettings(config.Settings{AlertThreshold: 10, PollInterval: time.Minute})
	s.SetAlertThreshold(15)
	got := s.Settings()
	if got.AlertThreshold != 15 {
		t.Errorf("AlertThreshold = %d, want 15", got.AlertThreshold)
	}
	if got.PollInterval != time.Minute {
		t.Error("SetAlertThreshold should keep other settings")
	}

	s.SetHistory(services.HistoryReport{Range: models.TimeRange24Hours})
	if h := s.History(); h == nil || h.Range != models.TimeRange24Hours {
		t.Error("History should return the stored report")
	}
}

func TestState_RecordCycle(t *testing.T) {
	s := NewState()

	s.RecordCycle(poller.Event{Type: poller.EventCycleStarted, Cycle: 1})
	if !s.IsInitialLoading() {
		t.Error("a started cycle should not end initial loading")
	}

	s.RecordCycle(poller.Event{Type: poller.EventCycleFailed, Cycle: 1, Err: errors.New("down")})
	if s.IsInitialLoading() {
		t.Error("a failed first cycle should end initial loading")
	}
	if s.IsStale() {
		t.Error("nothing was shown yet, so nothing is stale")
	}
	if s.LastError() == nil {
		t.Error("LastError should be set")
	}

	s.RecordCycle(poller.Event{Type: poller.EventCycleApplied, Cycle: 2})
	if s.LastError() != nil {
		t.Error("an applied cycle should clear LastError")
	}
	if s.LastCycle().Cycle != 2 {
		t.Errorf("LastCycle = %d, want 2", s.LastCycle().Cycle)
	}
	if s.GetLastUpdated().IsZero() {
		t.Error("LastUpdated should be set")
	}

	s.RecordCycle(poller.Event{Type: poller.EventCycleDiscarded, Cycle: 3})
	if s.LastCycle().Cycle != 2 {
		t.Error("a discarded cycle should not replace the last applied one")
	}

	s.RecordCycle(poller.Event{Type: poller.EventCycleFailed, Cycle: 4, Err: errors.New("timeout")})
	if !s.IsStale() {
		t.Error("data should be stale after a failed cycle")
	}
	if s.LastCycle().Cycle != 2 {
		t.Error("a failed cycle should keep the last applied one")
	}
}

func TestState_Notifications(t *testing.T) {
	s := NewState()

	id := s.AddNotification(NotificationInfo, "test", time.Minute)
	if id == "" {
		t.Error("AddNotification returned empty ID")
	}

	notifs := s.GetNotifications()
	if len(notifs) != 1 {
		t.Errorf("GetNotifications len = %d, want 1", len(notifs))
	}
	if notifs[0].Message != "test" {
		t.Errorf("Notification message = %s, want test", notifs[0].Message)
	}

	s.RemoveNotification(id)
	if len(s.GetNotifications()) != 0 {
		t.Error("Notification should be removed")
	}
}

func TestState_ClearExpiredNotifications(t *testing.T) {
	s := NewState()

	// Expired
	s.notifications = append(s.notifications, Notification{
		ID:        "expired",
		CreatedAt: time.Now().Add(-2 * time.Minute),
		Duration:  time.Minute,
	})

	// Active
	s.notifications = append(s.notifications, Notification{
		ID:        "active",
		CreatedAt: time.Now(),
		Duration:  time.Minute,
	})

	s.ClearExpiredNotifications()

	notifs := s.GetNotifications()
	if len(notifs) != 1 {
		t.Fatalf("Expected 1 notification, got %d", len(notifs))
	}
	if notifs[0].ID != "active" {
		t.Errorf("Expected active notification, got %s", notifs[0].ID)
	}
}

func TestState_LoadingNotification(t *testing.T) {
	s := NewState()

	s.SetLoadingNotification("loading...")
	notifs := s.GetNotifications()
	if len(notifs) != 1 {
		t.Errorf("Expected 1 notification, got %d", len(notifs))
	}
	if notifs[0].ID != LoadingNotificationID {
		t.Errorf("Expected ID %s, got %s", LoadingNotificationID, notifs[0].ID)
	}
	if notifs[0].Message != "loading..." {
		t.Errorf("Expected message loading..., got %s", notifs[0].Message)
	}

	// Update message
	s.SetLoadingNotification("still loading...")
	notifs = s.GetNotifications()
	if len(notifs) != 1 {
		t.Errorf("Expected 1 notification after update")
	}
	if notifs[0].Message != "still loading..." {
		t.Errorf("Expected message still loading..., got %s", notifs[0].Message)
	}

	s.ClearLoadingNotification()
	if len(s.GetNotifications()) != 0 {
		t.Error("Loading notification should be cleared")
	}
}

func TestState_NotificationLimit(t *testing.T) {
	s := NewState()
	for range maxNotifications + 5 {
		s.AddNotification(NotificationInfo, "x", time.Minute)
	}
	if got := len(s.GetNotifications()); got != maxNotifications {
		t.Errorf("notifications = %d, want %d", got, maxNotifications)
	}
}

func TestState_TimeSinceUpdate(t *testing.T) {
	s := NewState()
	if s.TimeSinceUpdate() != 0 {
		t.Error("TimeSinceUpdate should be 0 before the first cycle")
	}
	s.LastUpdated = time.Now().Add(-time.Minute)
	if s.TimeSinceUpdate() < time.Minute {
		t.Error("TimeSinceUpdate should be at least a minute")
	}
}

func TestNotificationType_String(t *testing.T) {
	tests := []struct {
		t    NotificationType
		want string
	}{
		{NotificationSuccess, "success"},
		{NotificationError, "error"},
		{NotificationWarning, "warning"},
		{NotificationInfo, "info"},
		{NotificationLoading, "loading"},
		{NotificationType(999), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.t.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}
