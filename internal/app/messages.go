package app

import (
	"time"

	"github.com/j-veylop/crawler-dashboard-tui/internal/models"
	"github.com/j-veylop/crawler-dashboard-tui/internal/services"
	"github.com/j-veylop/crawler-dashboard-tui/internal/services/actions"
	"github.com/j-veylop/crawler-dashboard-tui/internal/services/poller"
)

// TickMsg is sent periodically to expire notifications and age timestamps.
type TickMsg struct {
	Time time.Time
}

// StartLoadingMsg signals that a resource is starting to load.
type StartLoadingMsg struct {
	Resource string
}

// StopLoadingMsg signals that a resource has finished loading.
type StopLoadingMsg struct {
	Resource string
}

// RefreshMsg requests an on-demand poll cycle.
type RefreshMsg struct {
	Reason string
}

// RefreshResultMsg carries the outcome of a user-initiated cycle.
type RefreshResultMsg struct {
	Outcome poller.Outcome
	Reason  string
}

// ActionResultMsg carries the outcome of an operator command.
type ActionResultMsg struct {
	Err     error
	Command actions.Command
	Result  actions.Result
}

// FilterResultMsg carries the records matching Criteria out of Total.
type FilterResultMsg struct {
	Err      error
	Records  []models.Record
	Criteria models.FilterCriteria
	Total    int
}

// HistoryLoadedMsg carries a local history report.
type HistoryLoadedMsg struct {
	Err    error
	Report services.HistoryReport
}

// ThresholdChangedMsg reports a new keyword alert threshold.
type ThresholdChangedMsg struct {
	Threshold int
}

// ConfirmRequestMsg asks the operator a yes/no question on behalf of a
// command goroutine, which waits on Reply.
type ConfirmRequestMsg struct {
	Reply    chan<- bool
	Question string
}

// AddNotificationMsg requests adding a new notification.
type AddNotificationMsg struct {
	Message  string
	Type     NotificationType
	Duration time.Duration
}

// RemoveNotificationMsg requests removal of a notification.
type RemoveNotificationMsg struct {
	ID string
}

// ClearNotificationsMsg requests clearing all notifications.
type ClearNotificationsMsg struct{}

// ClearExpiredNotificationsMsg triggers clearing of expired notifications.
type ClearExpiredNotificationsMsg struct{}

// ServiceEventMsg wraps a service event from the service manager.
type ServiceEventMsg struct {
	Event services.ServiceEvent
}

// SubscriptionEventMsg is the callback wrapper for service subscription.
type SubscriptionEventMsg struct {
	Channel chan services.ServiceEvent
}

// ErrorMsg represents a general error.
type ErrorMsg struct {
	Error   error
	Context string
}

// TabSwitchMsg requests switching to a specific tab.
type TabSwitchMsg struct {
	Tab TabID
}

// TabActivatedMsg is delivered to a tab when it becomes the active tab.
type TabActivatedMsg struct {
	Tab TabID
}

// ToggleHelpMsg toggles the help display.
type ToggleHelpMsg struct{}
