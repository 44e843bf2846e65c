// Package app provides the main Bubble Tea application model and state management.
package app

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/j-veylop/crawler-dashboard-tui/internal/config"
	"github.com/j-veylop/crawler-dashboard-tui/internal/services"
	"github.com/j-veylop/crawler-dashboard-tui/internal/services/poller"
	"github.com/j-veylop/crawler-dashboard-tui/internal/store"
)

// NotificationType defines the type of notification.
type NotificationType int

const (
	// NotificationSuccess represents a success notification.
	NotificationSuccess NotificationType = iota
	// NotificationError represents an error notification.
	NotificationError
	// NotificationWarning represents a warning notification.
	NotificationWarning
	// NotificationInfo represents an informational notification.
	NotificationInfo
	// NotificationLoading represents a loading notification with spinner.
	NotificationLoading
)

const (
	// LoadingNotificationID is the fixed ID for loading notifications.
	LoadingNotificationID = "__loading__"

	maxNotifications = 10
)

// String returns the string representation of a NotificationType.
func (n NotificationType) String() string {
	switch n {
	case NotificationSuccess:
		return "success"
	case NotificationError:
		return "error"
	case NotificationWarning:
		return "warning"
	case NotificationInfo:
		return "info"
	case NotificationLoading:
		return "loading"
	default:
		return "unknown"
	}
}

// Notification represents a user-facing notification message.
type Notification struct {
	CreatedAt time.Time
	ID        string
	Message   string
	Type      NotificationType
	Duration  time.Duration
}

// IsExpired returns true if the notification has expired.
func (n *Notification) IsExpired() bool {
	if n.Duration <= 0 {
		return false
	}
	return time.Since(n.CreatedAt) > n.Duration
}

// Loading resources.
const (
	ResourceInitial = "initial"
	ResourceRefresh = "refresh"
	ResourceHistory = "history"
	ResourceFilter  = "filter"
)

// LoadingState tracks loading states for different resources.
type LoadingState struct {
	Initial bool
	Refresh bool
	History bool
	Filter  bool
}

// State is the presentation state shared by the root model and its tabs.
// Tabs read the latest store snapshot from here rather than from the store
// so that a render never races a poll cycle.
type State struct {
	mu sync.RWMutex

	snapshot  store.Snapshot
	settings  config.Settings
	history   *services.HistoryReport
	lastCycle poller.Event
	lastErr   error

	Loading     LoadingState
	LastUpdated time.Time

	notifications []Notification
}

// NewState creates an empty state that is waiting for the first cycle.
func NewState() *State {
	return &State{
		notifications: make([]Notification, 0),
		Loading: LoadingState{
			Initial: true,
		},
	}
}

// SetLoading sets the loading state for a specific resource.
func (s *State) SetLoading(resource string, loading bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch resource {
	case ResourceInitial:
		s.Loading.Initial = loading
	case ResourceRefresh:
		s.Loading.Refresh = loading
	case ResourceHistory:
		s.Loading.History = loading
	case ResourceFilter:
		s.Loading.Filter = loading
	}
}

// AnyLoading returns true if any resource is currently loading.
func (s *State) AnyLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.Loading.Initial ||
		s.Loading.Refresh ||
		s.Loading.History ||
		s.Loading.Filter
}

// IsInitialLoading returns true until the first cycle resolved.
func (s *State) IsInitialLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Loading.Initial
}

// GetLoadingResources returns a list of currently loading resources.
func (s *State) GetLoadingResources() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var resources []string
	if s.Loading.Initial {
		resources = append(resources, ResourceInitial)
	}
	if s.Loading.Refresh {
		resources = append(resources, ResourceRefresh)
	}
	if s.Loading.History {
		resources = append(resources, ResourceHistory)
	}
	if s.Loading.Filter {
		resources = append(resources, ResourceFilter)
	}
	return resources
}

// SetSnapshot stores the latest store view.
func (s *State) SetSnapshot(snap store.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot = snap
}

// Snapshot returns the latest store view.
func (s *State) Snapshot() store.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}

// SetSettings stores the current reloadable settings.
func (s *State) SetSettings(settings config.Settings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = settings
}

// Settings returns the current reloadable settings.
func (s *State) Settings() config.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// SetAlertThreshold updates only the alert threshold.
func (s *State) SetAlertThreshold(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings.AlertThreshold = n
}

// SetHistory stores the last loaded local history report.
func (s *State) SetHistory(report services.HistoryReport) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = &report
}

// History returns the last loaded local history report, or nil.
func (s *State) History() *services.HistoryReport {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.history
}

// RecordCycle tracks the outcome of a resolved poll cycle. A failed cycle
// leaves the data from the last applied cycle in place and marks it stale.
func (s *State) RecordCycle(ev poller.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch ev.Type {
	case poller.EventCycleApplied:
		s.lastCycle = ev
		s.lastErr = nil
		s.LastUpdated = time.Now()
		s.Loading.Initial = false
	case poller.EventCycleFailed:
		s.lastErr = ev.Err
		s.Loading.Initial = false
	}
}

// MarkLoaded ends the initial loading state for data confirmed at updated,
// used when a snapshot arrives without its cycle event.
func (s *State) MarkLoaded(updated time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Loading.Initial = false
	if updated.IsZero() {
		updated = time.Now()
	}
	if s.LastUpdated.IsZero() {
		s.LastUpdated = updated
	}
}

// LastCycle returns the last applied cycle event.
func (s *State) LastCycle() poller.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastCycle
}

// LastError returns the error of the newest failed cycle, or nil when the
// newest resolved cycle was applied.
func (s *State) LastError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// IsStale reports whether the shown data predates a failed cycle.
func (s *State) IsStale() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr != nil && !s.LastUpdated.IsZero()
}

// AddNotification adds a new notification and returns its ID.
func (s *State) AddNotification(notifType NotificationType, message string, duration time.Duration) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.NewString()
	s.notifications = append(s.notifications, Notification{
		ID:        id,
		Type:      notifType,
		Message:   message,
		CreatedAt: time.Now(),
		Duration:  duration,
	})

	if len(s.notifications) > maxNotifications {
		s.notifications = s.notifications[len(s.notifications)-maxNotifications:]
	}

	return id
}

// RemoveNotification removes a notification by ID.
func (s *State) RemoveNotification(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, n := range s.notifications {
		if n.ID == id {
			s.notifications = append(s.notifications[:i], s.notifications[i+1:]...)
			return
		}
	}
}

// ClearExpiredNotifications removes all expired notifications.
func (s *State) ClearExpiredNotifications() {
	s.mu.Lock()
	defer s.mu.Unlock()

	active := make([]Notification, 0, len(s.notifications))
	for _, n := range s.notifications {
		if !n.IsExpired() {
			active = append(active, n)
		}
	}
	s.notifications = active
}

// GetNotifications returns a copy of all active notifications.
func (s *State) GetNotifications() []Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()

	active := make([]Notification, 0, len(s.notifications))
	for _, n := range s.notifications {
		if !n.IsExpired() {
			active = append(active, n)
		}
	}
	return active
}

// ClearAllNotifications removes all notifications.
func (s *State) ClearAllNotifications() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifications = make([]Notification, 0)
}

// SetLoadingNotification sets a loading notification message.
func (s *State) SetLoadingNotification(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, n := range s.notifications {
		if n.ID == LoadingNotificationID {
			s.notifications[i].Message = message
			return
		}
	}

	s.notifications = append(s.notifications, Notification{
		ID:        LoadingNotificationID,
		Type:      NotificationLoading,
		Message:   message,
		CreatedAt: time.Now(),
	})
}

// ClearLoadingNotification removes the loading notification.
func (s *State) ClearLoadingNotification() {
	s.RemoveNotification(LoadingNotificationID)
}

// GetLastUpdated returns the time of the last applied cycle.
func (s *State) GetLastUpdated() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.LastUpdated
}

// TimeSinceUpdate returns the duration since the last applied cycle.
func (s *State) TimeSinceUpdate() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.LastUpdated.IsZero() {
		return 0
	}
	return time.Since(s.LastUpdated)
}
