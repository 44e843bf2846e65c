package models

import "fmt"

// BatchOperation is an operation applied to several accounts at once.
type BatchOperation string

const (
	// BatchStart enables automation for the accounts.
	BatchStart BatchOperation = "start"
	// BatchStop disables automation for the accounts.
	BatchStop BatchOperation = "stop"
	// BatchDelete removes the accounts.
	BatchDelete BatchOperation = "delete"
)

// Valid reports whether op is a known operation.
func (op BatchOperation) Valid() bool {
	switch op {
	case BatchStart, BatchStop, BatchDelete:
		return true
	default:
		return false
	}
}

// BatchFailure is the reason one account of a batch was not processed.
type BatchFailure struct {
	ID     string `json:"id"`
	Reason string `json:"reason"`
}

// BatchResult is the per-id outcome of a batch operation. A batch with
// failures is still a result, not an error.
type BatchResult struct {
	Operation BatchOperation `json:"operation"`
	Succeeded []string       `json:"succeeded"`
	Failed    []BatchFailure `json:"failed"`
}

// Partial reports whether some but not all ids succeeded.
func (r BatchResult) Partial() bool {
	return len(r.Succeeded) > 0 && len(r.Failed) > 0
}

// Summary returns a one-line human readable outcome.
func (r BatchResult) Summary() string {
	switch {
	case len(r.Failed) == 0:
		return fmt.Sprintf("batch %s: %d succeeded", r.Operation, len(r.Succeeded))
	case len(r.Succeeded) == 0:
		return fmt.Sprintf("batch %s: all %d failed (%s)", r.Operation, len(r.Failed), r.Failed[0].Reason)
	default:
		return fmt.Sprintf("batch %s: %d succeeded, %d failed (%s: %s)",
			r.Operation, len(r.Succeeded), len(r.Failed), r.Failed[0].ID, r.Failed[0].Reason)
	}
}
