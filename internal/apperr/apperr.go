// Package apperr classifies failures surfaced to the operator.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is the category of a failure.
type Kind int

const (
	// KindUnknown is any error not produced by this package.
	KindUnknown Kind = iota
	// KindNetwork means the remote could not be reached or failed (5xx, or any
	// non-2xx on a fetch).
	KindNetwork
	// KindValidation means a command was rejected locally before any remote call.
	KindValidation
	// KindConflict means the remote rejected a command (4xx).
	KindConflict
	// KindBusy means an identical command was already in flight.
	KindBusy
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindBusy:
		return "busy"
	default:
		return "unknown"
	}
}

// Error is a classified failure.
type Error struct {
	Err     error
	Op      string
	Message string
	Kind    Kind
	Status  int
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Status != 0 {
		return fmt.Sprintf("%s: %s (HTTP %d): %s", e.Op, e.Kind, e.Status, msg)
	}
	return fmt.Sprintf("%s: %s: %s", e.Op, e.Kind, msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Network wraps a transport failure.
func Network(op string, err error) *Error {
	return &Error{Kind: KindNetwork, Op: op, Err: err}
}

// HTTPStatus classifies a non-2xx response. Fetches always map to Network;
// commands map 4xx to Conflict and everything else to Network.
func HTTPStatus(op string, status int, msg string, command bool) *Error {
	kind := KindNetwork
	if command && status >= http.StatusBadRequest && status < http.StatusInternalServerError {
		kind = KindConflict
	}
	if msg == "" {
		msg = http.StatusText(status)
	}
	return &Error{Kind: kind, Op: op, Status: status, Message: msg}
}

// Conflict reports that the remote rejected a command.
func Conflict(op string, status int, msg string) *Error {
	return &Error{Kind: KindConflict, Op: op, Status: status, Message: msg}
}

// Validation reports a locally rejected command.
func Validation(op, msg string) *Error {
	return &Error{Kind: KindValidation, Op: op, Message: msg}
}

// Busy reports that an identical command is already in flight.
func Busy(op string) *Error {
	return &Error{Kind: KindBusy, Op: op, Message: "already in progress"}
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsNetwork reports whether err is a network failure.
func IsNetwork(err error) bool { return KindOf(err) == KindNetwork }

// IsValidation reports whether err is a validation failure.
func IsValidation(err error) bool { return KindOf(err) == KindValidation }

// IsConflict reports whether err is a remote rejection.
func IsConflict(err error) bool { return KindOf(err) == KindConflict }

// IsBusy reports whether err is an idempotence guard rejection.
func IsBusy(err error) bool { return KindOf(err) == KindBusy }

// UserMessage returns a short, human readable reason for err.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if !errors.As(err, &e) {
		return err.Error()
	}
	switch e.Kind {
	case KindNetwork:
		if e.Status != 0 {
			return fmt.Sprintf("Service error (HTTP %d): %s", e.Status, e.Message)
		}
		if e.Err != nil {
			return "Service unreachable: " + e.Err.Error()
		}
		return "Service unreachable"
	case KindConflict:
		return "Rejected: " + e.Message
	case KindValidation:
		return "Invalid input: " + e.Message
	case KindBusy:
		return "Please wait: " + e.Op + " is " + e.Message
	default:
		if e.Message != "" {
			return e.Message
		}
		return err.Error()
	}
}
