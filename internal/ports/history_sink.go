package ports

import (
	"context"

	"pickup-route-service/internal/domain"
)

// Summary of a completed session, recorded alongside it for reporting.
type SessionSummary struct {
	DurationMinutes int
	TotalStudents   int
	PickedUp        int
	Absent          int
	NoShow          int
	DistanceMiles   float64
}

// Port: receives the permanent record of a completed session.
// Invoked exactly once per successful completion; implementations must be
// idempotent so a retried completion cannot double-record.
type HistorySink interface {
	RecordCompletedSession(ctx context.Context, session domain.Session, pickups []domain.StudentPickup, summary SessionSummary) error
}
