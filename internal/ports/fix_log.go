package ports

import (
	"context"

	"pickup-route-service/internal/domain"
)

// Port: append-only store for the location fix stream.
type FixLog interface {
	Append(ctx context.Context, fix domain.LocationFix) error

	// Return the most recent fix for (driver, session), or nil.
	Latest(ctx context.Context, driverID int64, sessionID int64) (*domain.LocationFix, error)

	// Return all fixes for a session ordered by recording time.
	ListForSession(ctx context.Context, sessionID int64) ([]domain.LocationFix, error)
}
