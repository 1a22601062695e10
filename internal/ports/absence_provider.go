package ports

import (
	"context"

	"pickup-route-service/internal/domain"
)

// Port: supplies the same-day absence list consulted during session
// completion. Treated as a fallible remote call with a bounded timeout.
type AbsenceProvider interface {
	// Return the IDs of students with an absence record for the date.
	AbsencesForDate(ctx context.Context, date domain.ServiceDate) ([]int64, error)
}
