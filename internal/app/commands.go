package app

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/crawler-dashboard-tui/internal/models"
	"github.com/j-veylop/crawler-dashboard-tui/internal/services"
	"github.com/j-veylop/crawler-dashboard-tui/internal/services/actions"
	"github.com/j-veylop/crawler-dashboard-tui/internal/services/poller"
)

const (
	// DefaultTickInterval is the default interval between ticks.
	DefaultTickInterval = 2 * time.Second

	// DefaultNotificationDuration is the default duration for notifications.
	DefaultNotificationDuration = 5 * time.Second

	// QuickNotificationDuration is for brief notifications.
	QuickNotificationDuration = 3 * time.Second

	// LongNotificationDuration is for important notifications.
	LongNotificationDuration = 10 * time.Second
)

// tickCmd returns a command that sends a TickMsg after the specified interval.
func tickCmd(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return TickMsg{Time: t}
	})
}

// defaultTickCmd returns a command that sends a TickMsg after the default interval.
func defaultTickCmd() tea.Cmd {
	return tickCmd(DefaultTickInterval)
}

// subscribeToServicesCmd returns a command that subscribes to service events.
func subscribeToServicesCmd(mgr *services.Manager) tea.Cmd {
	ch, _ := mgr.Subscribe()
	return func() tea.Msg {
		return SubscriptionEventMsg{Channel: ch}
	}
}

// waitForServiceEventCmd returns a command that waits for the next service event.
func waitForServiceEventCmd(ch <-chan services.ServiceEvent) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-ch
		if !ok {
			return nil
		}
		return ServiceEventMsg{Event: event}
	}
}

// clearNotificationCmd returns a command that removes a notification after a delay.
func clearNotificationCmd(id string, delay time.Duration) tea.Cmd {
	return tea.Tick(delay, func(_ time.Time) tea.Msg {
		return RemoveNotificationMsg{ID: id}
	})
}

func notifyCmd(t NotificationType, message string, d time.Duration) tea.Cmd {
	return func() tea.Msg {
		return AddNotificationMsg{Type: t, Message: message, Duration: d}
	}
}

// notifySuccessCmd returns a command that adds a success notification.
func notifySuccessCmd(message string) tea.Cmd {
	return notifyCmd(NotificationSuccess, message, DefaultNotificationDuration)
}

// notifyErrorCmd returns a command that adds an error notification.
func notifyErrorCmd(message string) tea.Cmd {
	return notifyCmd(NotificationError, message, LongNotificationDuration)
}

// notifyWarningCmd returns a command that adds a warning notification.
func notifyWarningCmd(message string) tea.Cmd {
	return notifyCmd(NotificationWarning, message, DefaultNotificationDuration)
}

// notifyInfoCmd returns a command that adds an info notification.
func notifyInfoCmd(message string) tea.Cmd {
	return notifyCmd(NotificationInfo, message, QuickNotificationDuration)
}

// delayedCmd returns a command that sends a message after a delay.
func delayedCmd(delay time.Duration, msg tea.Msg) tea.Cmd {
	return tea.Tick(delay, func(_ time.Time) tea.Msg {
		return msg
	})
}

// Commands builds tea.Cmds that run service calls off the update loop.
// Every domain command is nil when no manager is attached.
type Commands struct {
	manager *services.Manager
	ctx     context.Context
}

// NewCommands creates a new Commands instance.
func NewCommands(mgr *services.Manager) *Commands {
	return &Commands{manager: mgr, ctx: context.Background()}
}

// SetContext sets the context passed to service calls. Cancelling it aborts
// in-flight requests and pending confirmations.
func (c *Commands) SetContext(ctx context.Context) {
	c.ctx = ctx
}

func (c *Commands) action(cmd actions.Command, run func(ctx context.Context) (actions.Result, error)) tea.Cmd {
	if c.manager == nil {
		return nil
	}
	ctx := c.ctx
	return func() tea.Msg {
		res, err := run(ctx)
		return ActionResultMsg{Command: cmd, Result: res, Err: err}
	}
}

// Tick returns a tick command with the specified interval.
func (c *Commands) Tick(interval time.Duration) tea.Cmd {
	return tickCmd(interval)
}

// DefaultTick returns a tick command with the default interval.
func (c *Commands) DefaultTick() tea.Cmd {
	return defaultTickCmd()
}

// SubscribeToServices returns a command that subscribes to service events.
func (c *Commands) SubscribeToServices() tea.Cmd {
	if c.manager == nil {
		return nil
	}
	return subscribeToServicesCmd(c.manager)
}

// Refresh runs an on-demand poll cycle.
func (c *Commands) Refresh(reason string) tea.Cmd {
	if c.manager == nil {
		return nil
	}
	ctx, mgr := c.ctx, c.manager
	return func() tea.Msg {
		return RefreshResultMsg{Outcome: mgr.Refresh(ctx, reason), Reason: reason}
	}
}

// SetView switches the polled slices. An unchanged view is a no-op.
func (c *Commands) SetView(v poller.View) tea.Cmd {
	if c.manager == nil {
		return nil
	}
	ctx, mgr := c.ctx, c.manager
	reason := "view " + v.String()
	return func() tea.Msg {
		return RefreshResultMsg{Outcome: mgr.SetView(ctx, v), Reason: reason}
	}
}

// AutomationPhase returns the automation toggle phase, stopped when no
// manager is attached.
func (c *Commands) AutomationPhase() actions.Phase {
	if c.manager == nil {
		return actions.PhaseStopped
	}
	return c.manager.Actions().Phase()
}

// ToggleAutomation starts or stops automation relative to its current phase.
func (c *Commands) ToggleAutomation() tea.Cmd {
	if c.manager == nil {
		return nil
	}
	return c.action(actions.CmdToggleAutomation, c.manager.Actions().ToggleAutomationFromPhase)
}

// AddAccount registers a new crawler account.
func (c *Commands) AddAccount(acc models.NewAccount) tea.Cmd {
	if c.manager == nil {
		return nil
	}
	return c.action(actions.CmdAddAccount, func(ctx context.Context) (actions.Result, error) {
		return c.manager.Actions().AddAccount(ctx, acc)
	})
}

// DeleteAccount deletes one account after confirmation.
func (c *Commands) DeleteAccount(id string) tea.Cmd {
	if c.manager == nil {
		return nil
	}
	return c.action(actions.CmdDeleteAccount, func(ctx context.Context) (actions.Result, error) {
		return c.manager.Actions().DeleteAccount(ctx, id)
	})
}

// BatchOperate applies op to the given accounts.
func (c *Commands) BatchOperate(ids []string, op models.BatchOperation) tea.Cmd {
	if c.manager == nil {
		return nil
	}
	ids = append([]string(nil), ids...)
	return c.action(actions.CmdBatch, func(ctx context.Context) (actions.Result, error) {
		return c.manager.Actions().BatchOperate(ctx, ids, op)
	})
}

// ToggleSelected flips the batch selection of an account and reports
// whether it is now selected.
func (c *Commands) ToggleSelected(id string) bool {
	if c.manager == nil {
		return false
	}
	return c.manager.Store().ToggleSelected(id)
}

// Selected returns the selected account ids.
func (c *Commands) Selected() []string {
	if c.manager == nil {
		return nil
	}
	return c.manager.Store().Selected()
}

// ClearSelection deselects every account.
func (c *Commands) ClearSelection() {
	if c.manager != nil {
		c.manager.Store().ClearSelection()
	}
}

// ResetKeywords zeroes keyword statistics after confirmation.
func (c *Commands) ResetKeywords() tea.Cmd {
	if c.manager == nil {
		return nil
	}
	return c.action(actions.CmdResetKeywords, c.manager.Actions().ResetKeywordStats)
}

// Export downloads the CSV export.
func (c *Commands) Export() tea.Cmd {
	if c.manager == nil {
		return nil
	}
	return c.action(actions.CmdExport, c.manager.Export)
}

// Filter evaluates criteria against the current records.
func (c *Commands) Filter(criteria models.FilterCriteria) tea.Cmd {
	if c.manager == nil {
		return nil
	}
	ctx, mgr := c.ctx, c.manager
	return func() tea.Msg {
		all := mgr.Store().Read().Records
		if criteria.IsEmpty() {
			return FilterResultMsg{Criteria: criteria, Records: all, Total: len(all)}
		}
		records, err := mgr.Filter(ctx, criteria)
		return FilterResultMsg{Criteria: criteria, Records: records, Total: len(all), Err: err}
	}
}

// LoadHistory loads the local history report for a time range.
func (c *Commands) LoadHistory(r models.TimeRange) tea.Cmd {
	if c.manager == nil {
		return nil
	}
	ctx, mgr := c.ctx, c.manager
	return func() tea.Msg {
		report, err := mgr.History(ctx, r)
		return HistoryLoadedMsg{Report: report, Err: err}
	}
}

// SetAlertThreshold changes the keyword alert threshold.
func (c *Commands) SetAlertThreshold(n int) tea.Cmd {
	if c.manager == nil {
		return nil
	}
	mgr := c.manager
	return func() tea.Msg {
		return ThresholdChangedMsg{Threshold: mgr.SetAlertThreshold(n)}
	}
}

// NotifySuccess returns a command that adds a success notification.
func (c *Commands) NotifySuccess(message string) tea.Cmd {
	return notifySuccessCmd(message)
}

// NotifyError returns a command that adds an error notification.
func (c *Commands) NotifyError(message string) tea.Cmd {
	return notifyErrorCmd(message)
}

// NotifyWarning returns a command that adds a warning notification.
func (c *Commands) NotifyWarning(message string) tea.Cmd {
	return notifyWarningCmd(message)
}

// NotifyInfo returns a command that adds an info notification.
func (c *Commands) NotifyInfo(message string) tea.Cmd {
	return notifyInfoCmd(message)
}

// ClearNotification returns a command that removes a notification after a delay.
func (c *Commands) ClearNotification(id string, delay time.Duration) tea.Cmd {
	return clearNotificationCmd(id, delay)
}

// Quit returns a command that quits the application.
func (c *Commands) Quit() tea.Cmd {
	return tea.Quit
}

// Delayed returns a command that sends a message after a delay.
func (c *Commands) Delayed(delay time.Duration, msg tea.Msg) tea.Cmd {
	return delayedCmd(delay, msg)
}

// Batch combines multiple commands into one.
func (c *Commands) Batch(cmds ...tea.Cmd) tea.Cmd {
	return tea.Batch(cmds...)
}
