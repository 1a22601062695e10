package ports

import (
	"context"
	"time"

	"pickup-route-service/internal/domain"
)

// Port: persistence boundary for sessions and their pickup rows.
type SessionStore interface {
	// Atomically create the session and seed its pickup rows. Returns
	// ErrDuplicateActiveSession when a non-terminal session already
	// exists for the same (route, date).
	CreateSession(ctx context.Context, session domain.Session, pickups []domain.StudentPickup) (*domain.Session, error)

	GetSession(ctx context.Context, sessionID int64) (*domain.Session, error)

	// Return the non-terminal session for (route, date), or nil.
	FindActiveSession(ctx context.Context, routeID int64, date domain.ServiceDate) (*domain.Session, error)

	// Persist a status transition together with its timestamps.
	UpdateSession(ctx context.Context, session domain.Session) error

	ListPickups(ctx context.Context, sessionID int64) ([]domain.StudentPickup, error)

	GetPickup(ctx context.Context, sessionID int64, studentID int64) (*domain.StudentPickup, error)

	UpdatePickup(ctx context.Context, sessionID int64, studentID int64, status domain.PickupStatus, pickedUpAt *time.Time, note string) error
}
