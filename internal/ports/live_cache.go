package ports

import (
	"context"

	"pickup-route-service/internal/domain"
)

// Port: fast-expiring store for per-session live state. Backing storage is
// expected to evict on its own (TTL); losing this data only degrades the
// live view, never correctness.
type LiveCache interface {
	SetLatestFix(ctx context.Context, fix domain.LocationFix) error

	// Return the cached latest fix for a session, or nil.
	LatestFix(ctx context.Context, sessionID int64) (*domain.LocationFix, error)

	// Append an alert to the session's capped recent-alert log.
	PushAlert(ctx context.Context, alert domain.ProximityAlert) error

	RecentAlerts(ctx context.Context, sessionID int64) ([]domain.ProximityAlert, error)
}
