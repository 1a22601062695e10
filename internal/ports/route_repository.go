package ports

import (
	"context"

	"pickup-route-service/internal/domain"
)

// Port: persistence boundary for committed routes and their stops.
type RouteRepository interface {
	// Persist the given routes with their ordered stops, generating a
	// route-assignment row for every active student at each assigned
	// school. Returns the stored routes with identities filled in.
	SaveRoutes(ctx context.Context, routes []domain.Route) ([]domain.Route, error)

	GetRoute(ctx context.Context, routeID int64) (*domain.Route, error)

	ListRoutes(ctx context.Context) ([]domain.Route, error)
}
