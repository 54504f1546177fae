// Package herrors implements the error taxonomy used across the engine:
// OutOfRange, InvalidArgument, InvalidState, Corruption, Transient and
// Cancelled conditions, each surfaced or fatal per their own rules.
package herrors

import (
	"errors"
	"fmt"
)

// Kind classifies an Error so callers can branch with errors.As without
// parsing messages.
type Kind int

const (
	// OutOfRange marks offsets, lines or cursor indices outside the valid
	// extent of a document, surface or ring. Never fatal.
	OutOfRange Kind = iota
	// InvalidArgument marks an unknown operation variant, a negative
	// dimension, or an empty required name.
	InvalidArgument
	// InvalidState marks an operation attempted while the owning component
	// is in a state that forbids it (no workload configured, recording
	// already in progress).
	InvalidState
	// Corruption marks a failed internal invariant check. Fatal: the
	// session that observes it must abort.
	Corruption
	// Transient marks a failure isolated to one connection or client (a
	// dropped attach socket, a malformed diagnostic request).
	Transient
	// Cancelled marks clean propagation of a cancellation request. Not an
	// error to the caller that issued the cancellation.
	Cancelled
)

func (k Kind) String() string {
	switch k {
	case OutOfRange:
		return "out_of_range"
	case InvalidArgument:
		return "invalid_argument"
	case InvalidState:
		return "invalid_state"
	case Corruption:
		return "corruption"
	case Transient:
		return "transient"
	case Cancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Error is the concrete error type carrying a Kind and an optional wrapped
// cause.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %s: %v", e.Op, e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s: %s", e.Op, e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// Is lets errors.Is(err, OutOfRange-sentinel style) work against a bare Kind
// wrapped in an Error created with New.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Kind == t.Kind
	}
	return false
}

// New builds an *Error with no wrapped cause.
func New(kind Kind, op, message string) *Error {
	return &Error{Kind: kind, Op: op, Message: message}
}

// Wrap builds an *Error wrapping cause.
func Wrap(kind Kind, op, message string, cause error) *Error {
	return &Error{Kind: kind, Op: op, Message: message, Cause: cause}
}

// OfKind reports whether err (or something it wraps) is an *Error of kind k.
func OfKind(err error, k Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == k
	}
	return false
}
