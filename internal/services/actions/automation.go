package actions

import (
	"context"

	"github.com/j-veylop/crawler-dashboard-tui/internal/apperr"
	"github.com/j-veylop/crawler-dashboard-tui/internal/logger"
	"github.com/j-veylop/crawler-dashboard-tui/internal/store"
)

// Phase is the automation toggle state as seen by the operator.
type Phase int

const (
	// PhaseStopped means automation is confirmed off.
	PhaseStopped Phase = iota
	// PhaseStarting means a start request is in flight.
	PhaseStarting
	// PhaseRunning means automation is confirmed on.
	PhaseRunning
	// PhaseStopping means a stop request is in flight.
	PhaseStopping
)

func (p Phase) String() string {
	switch p {
	case PhaseStarting:
		return "starting"
	case PhaseRunning:
		return "running"
	case PhaseStopping:
		return "stopping"
	default:
		return "stopped"
	}
}

// Transient reports whether a toggle is in flight.
func (p Phase) Transient() bool {
	return p == PhaseStarting || p == PhaseStopping
}

// Phase returns the current automation phase.
func (c *Coordinator) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// SyncPhase aligns an idle phase with confirmed automation status. It does
// nothing while a toggle is in flight.
func (c *Coordinator) SyncPhase(running bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase.Transient() {
		return
	}
	if running {
		c.phase = PhaseRunning
	} else {
		c.phase = PhaseStopped
	}
}

func (c *Coordinator) setPhase(p Phase) {
	c.mu.Lock()
	c.phase = p
	c.mu.Unlock()
}

// ToggleAutomation starts or stops process-wide automation. The running flag
// flips optimistically and is rolled back if the service rejects the change.
func (c *Coordinator) ToggleAutomation(ctx context.Context, targetRunning bool) (Result, error) {
	release, err := c.acquire(CmdToggleAutomation)
	if err != nil {
		return Result{}, err
	}
	defer release()

	prior := c.Phase()
	transient, final, verb := PhaseStopping, PhaseStopped, "stopped"
	if targetRunning {
		transient, final, verb = PhaseStarting, PhaseRunning, "started"
	}
	c.setPhase(transient)
	patch := c.store.ApplyOptimistic(store.SetAutomationRunning(targetRunning))

	logger.Info("toggling automation", "running", targetRunning)
	if targetRunning {
		err = c.remote.StartAutomation(ctx)
	} else {
		err = c.remote.StopAutomation(ctx)
	}
	if err != nil {
		c.store.Revert(patch)
		c.setPhase(prior)
		logger.Error("toggle automation failed", "running", targetRunning, "error", err)
		return Result{}, err
	}

	c.setPhase(final)
	c.refresh(ctx, string(CmdToggleAutomation))
	return Result{Command: CmdToggleAutomation, Message: "Automation " + verb}, nil
}

// ToggleAutomationFromPhase flips automation relative to the current phase.
// It fails with Busy while a toggle is in flight.
func (c *Coordinator) ToggleAutomationFromPhase(ctx context.Context) (Result, error) {
	p := c.Phase()
	if p.Transient() {
		return Result{}, apperr.Busy(string(CmdToggleAutomation))
	}
	return c.ToggleAutomation(ctx, p != PhaseRunning)
}
