package poller

import (
	"time"

	"github.com/j-veylop/crawler-dashboard-tui/internal/store"
)

// EventType defines the type of poller event.
type EventType int

const (
	// EventCycleStarted indicates that a cycle was issued.
	EventCycleStarted EventType = iota
	// EventCycleApplied indicates that a cycle updated the store.
	EventCycleApplied
	// EventCycleFailed indicates that a fetch failed and the cycle was dropped.
	EventCycleFailed
	// EventCycleDiscarded indicates that a cycle was superseded by a newer one.
	EventCycleDiscarded
)

func (t EventType) String() string {
	switch t {
	case EventCycleStarted:
		return "started"
	case EventCycleApplied:
		return "applied"
	case EventCycleFailed:
		return "failed"
	case EventCycleDiscarded:
		return "discarded"
	default:
		return "unknown"
	}
}

// Event represents a poller event.
type Event struct {
	Err      error
	Reason   string
	Cycle    uint64
	Duration time.Duration
	Type     EventType
	Slices   store.Set
	Applied  store.Set
}
