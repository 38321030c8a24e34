package events

import "errors"

// Sentinel errors forming the core's error taxonomy (spec §7). Callers
// should compare against these with errors.Is; helper constructors below
// attach the offending detail via fmt.Errorf's %w wrapping.
var (
	// ErrValidation marks construction-time invariant failures: empty
	// audience scope, out-of-range priority/progress, malformed save names.
	ErrValidation = errors.New("validation error")

	// ErrCapacityExceeded marks a publish rejected because the queue is full.
	ErrCapacityExceeded = errors.New("capacity exceeded")

	// ErrNotFound marks a reference to an unknown event, save, or
	// subscription target.
	ErrNotFound = errors.New("not found")

	// ErrNotOwned marks a lifecycle transition attempted by an actor that
	// does not currently hold the event's claim.
	ErrNotOwned = errors.New("not owned")

	// ErrInvalidState marks a lifecycle transition attempted from an
	// incompatible source state.
	ErrInvalidState = errors.New("invalid state")

	// ErrInvalidArgument marks a factory-specific domain error.
	ErrInvalidArgument = errors.New("invalid argument")
)
