package services

import (
	"errors"
	"fmt"
)

// Typed failures surfaced to callers. Route-evaluation warnings are never
// errors; they ride along on successful results.
var (
	// ErrInvalidState marks an operation attempted outside its legal
	// session state. No mutation occurs.
	ErrInvalidState = errors.New("operation not allowed in current session state")

	// ErrSessionConflict marks an attempt to start a session when a
	// non-terminal one already exists for the same route and date.
	ErrSessionConflict = errors.New("active session already exists for route and date")

	// ErrDependencyUnavailable marks a failed or timed-out call to the
	// absence provider or history sink during completion. The session is
	// left untouched; callers retry.
	ErrDependencyUnavailable = errors.New("required dependency unavailable")

	ErrRouteNotFound   = errors.New("route not found")
	ErrSessionNotFound = errors.New("session not found")
	ErrPickupNotFound  = errors.New("no pickup record for student in session")
)

// ConstraintError rejects invalid optimization input before any
// assignment work happens.
type ConstraintError struct {
	Field  string
	Reason string
}

func (e *ConstraintError) Error() string {
	return fmt.Sprintf("invalid constraint %s: %s", e.Field, e.Reason)
}

// IncompletePickupsError rejects completion while pickups remain pending
// with no matching absence record. StudentIDs lists the offenders so the
// caller can resolve them.
type IncompletePickupsError struct {
	StudentIDs []int64
}

func (e *IncompletePickupsError) Error() string {
	return fmt.Sprintf("session has %d unresolved pickups", len(e.StudentIDs))
}
