package api

import (
	"net/http"

	"pickup-route-service/internal/api/handlers"
	"pickup-route-service/internal/ports"
	"pickup-route-service/internal/services"
)

// Dependencies collects everything the HTTP surface needs. Live is
// optional; without it the track view falls back to the fix log and
// returns no alert history.
type Dependencies struct {
	Roster   ports.RosterProvider
	Routes   ports.RouteRepository
	Store    ports.SessionStore
	Fixes    ports.FixLog
	Live     ports.LiveCache
	Sessions *services.SessionManager
	Tracker  *services.Tracker
}

// NewRouter wires HTTP handlers with their dependencies and returns an
// http.Handler. This is the API composition root; handlers stay unaware
// of concrete adapters.
func NewRouter(deps Dependencies) http.Handler {
	mux := http.NewServeMux()

	schoolHandler := &handlers.SchoolHandler{Roster: deps.Roster}
	routeHandler := &handlers.RouteHandler{Roster: deps.Roster, Repo: deps.Routes}
	sessionHandler := &handlers.SessionHandler{Manager: deps.Sessions, Store: deps.Store}
	trackHandler := &handlers.TrackHandler{
		Tracker: deps.Tracker,
		Store:   deps.Store,
		Fixes:   deps.Fixes,
		Live:    deps.Live,
	}

	mux.HandleFunc("GET /health", handlers.Health)

	mux.HandleFunc("GET /schools", schoolHandler.List)

	mux.HandleFunc("POST /optimize", routeHandler.Optimize)
	mux.HandleFunc("POST /routes/commit", routeHandler.Commit)
	mux.HandleFunc("GET /routes", routeHandler.List)
	mux.HandleFunc("GET /routes/{id}", routeHandler.Get)

	mux.HandleFunc("POST /sessions/start", sessionHandler.Start)
	mux.HandleFunc("GET /sessions/{id}", sessionHandler.Get)
	mux.HandleFunc("POST /sessions/{id}/pickups", sessionHandler.RecordPickup)
	mux.HandleFunc("POST /sessions/{id}/complete", sessionHandler.Complete)
	mux.HandleFunc("POST /sessions/{id}/cancel", sessionHandler.Cancel)
	mux.HandleFunc("GET /sessions/{id}/track", trackHandler.Track)

	mux.HandleFunc("POST /tracking/fixes", trackHandler.IngestFix)

	return loggingMiddleware(mux)
}
