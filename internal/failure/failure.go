// Package failure defines the error taxonomy shared by the scoring components.
//
// Only NotFound is expected to reach callers. Upstream and decode failures are
// absorbed by each component into its documented fallback value, and invariant
// violations are guarded into edge values.
package failure

import (
	"errors"
	"fmt"
)

// Kind classifies an error by how callers are expected to react to it.
type Kind int

const (
	// UpstreamUnavailable marks a failed or timed out external call.
	UpstreamUnavailable Kind = iota + 1
	// MalformedResponse marks oracle output that does not decode into the expected record.
	MalformedResponse
	// NotFound marks a missing persisted entity.
	NotFound
	// InvariantViolation marks inputs that break a documented precondition.
	InvariantViolation
)

func (k Kind) String() string {
	switch k {
	case UpstreamUnavailable:
		return "upstream_unavailable"
	case MalformedResponse:
		return "malformed_response"
	case NotFound:
		return "not_found"
	case InvariantViolation:
		return "invariant_violation"
	default:
		return "unknown"
	}
}

// Error carries the kind together with the failing operation.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New wraps err with the given kind and operation name.
func New(kind Kind, op string, err error) error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Upstream is a shorthand for New(UpstreamUnavailable, ...).
func Upstream(op string, err error) error {
	return New(UpstreamUnavailable, op, err)
}

// Malformed is a shorthand for New(MalformedResponse, ...).
func Malformed(op string, err error) error {
	return New(MalformedResponse, op, err)
}

// Missing is a shorthand for New(NotFound, ...).
func Missing(op string, err error) error {
	return New(NotFound, op, err)
}

// KindOf reports the kind of the first *Error in err's chain.
func KindOf(err error) (Kind, bool) {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind, true
	}
	return 0, false
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}
