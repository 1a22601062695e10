package domain

import "time"

type SessionStatus string

const (
	SessionPending    SessionStatus = "pending"
	SessionInProgress SessionStatus = "in_progress"
	SessionCompleted  SessionStatus = "completed"
	SessionCancelled  SessionStatus = "cancelled"
)

// Terminal reports whether the status permits no further transitions.
func (s SessionStatus) Terminal() bool {
	return s == SessionCompleted || s == SessionCancelled
}

// Represents one vehicle's execution of one route on one calendar date.
// At most one non-terminal session exists per (route, date). Historical
// sessions are retained, never deleted.
type Session struct {
	SessionID       int64
	RouteID         int64
	DriverID        int64
	Date            ServiceDate
	Status          SessionStatus
	StartedAt       *time.Time
	CompletedAt     *time.Time
	StartCoords     *Coordinates
	EndCoords       *Coordinates
	DurationMinutes *int
}

type PickupStatus string

const (
	PickupPending  PickupStatus = "pending"
	PickupPickedUp PickupStatus = "picked_up"
	PickupAbsent   PickupStatus = "absent"
	PickupNoShow   PickupStatus = "no_show"
)

// ValidPickupStatus reports whether s is one of the four known states.
func ValidPickupStatus(s PickupStatus) bool {
	switch s {
	case PickupPending, PickupPickedUp, PickupAbsent, PickupNoShow:
		return true
	}
	return false
}

// Resolved reports whether the pickup no longer blocks session completion.
func (s PickupStatus) Resolved() bool {
	return s == PickupPickedUp || s == PickupAbsent || s == PickupNoShow
}

// The per-student, per-session resolution record. Exactly one exists per
// (session, student) pair, seeded when the session is opened and mutated
// only while the session is in progress.
type StudentPickup struct {
	PickupID   int64
	SessionID  int64
	StudentID  int64
	SchoolID   int64
	Status     PickupStatus
	PickedUpAt *time.Time
	Note       string
}
