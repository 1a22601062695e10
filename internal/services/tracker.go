package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"pickup-route-service/internal/domain"
	"pickup-route-service/internal/geo"
	"pickup-route-service/internal/ports"
)

// TrackerConfig holds the proximity alert thresholds. The condition is
// deliberately conjunctive: distance alone is noisy early in a run, and
// time alone is not actionable without knowing the vehicle can't close
// the gap.
type TrackerConfig struct {
	DistanceThresholdMiles float64
	MinutesThreshold       int

	// At or below this many minutes the alert escalates to critical.
	CriticalMinutes int
}

func DefaultTrackerConfig() TrackerConfig {
	return TrackerConfig{
		DistanceThresholdMiles: 2,
		MinutesThreshold:       10,
		CriticalMinutes:        5,
	}
}

// IngestResult reports what happened to one fix.
type IngestResult struct {
	// Recorded is true once the fix is in the append-only log. Fixes for
	// non-active sessions are recorded but not evaluated: transient
	// network lag can deliver a stale fix after completion.
	Recorded  bool
	Evaluated bool

	NextStop      *domain.Stop
	DistanceMiles *float64
	Alert         *domain.ProximityAlert
}

// Tracker ingests vehicle position fixes and raises proximity alerts
// against the session's next unvisited stop.
//
// Ingestion and evaluation for one session are serialized so each fix is
// judged against a consistent pickup state; distinct sessions proceed in
// parallel.
type Tracker struct {
	store    ports.SessionStore
	routes   ports.RouteRepository
	fixes    ports.FixLog
	live     ports.LiveCache     // optional
	notifier ports.AlertNotifier // optional

	cfg TrackerConfig
	now Clock

	locks *keyedMutex[int64]
}

func NewTracker(
	store ports.SessionStore,
	routes ports.RouteRepository,
	fixes ports.FixLog,
	live ports.LiveCache,
	notifier ports.AlertNotifier,
	cfg TrackerConfig,
	now Clock,
) *Tracker {
	if now == nil {
		now = time.Now
	}

	return &Tracker{
		store:    store,
		routes:   routes,
		fixes:    fixes,
		live:     live,
		notifier: notifier,
		cfg:      cfg,
		now:      now,
		locks:    newKeyedMutex[int64](),
	}
}

// Now exposes the tracker's clock so callers stamping fixes on its behalf
// agree with the evaluation clock.
func (t *Tracker) Now() time.Time { return t.now() }

// Ingest appends a fix to the log and, when its session is in progress,
// evaluates it against the next stop. It never blocks on alert delivery.
func (t *Tracker) Ingest(ctx context.Context, fix domain.LocationFix) (*IngestResult, error) {
	unlock := t.locks.Lock(fix.SessionID)
	defer unlock()

	if err := t.fixes.Append(ctx, fix); err != nil {
		return nil, fmt.Errorf("ingest fix: append: %w", err)
	}

	result := &IngestResult{Recorded: true}

	session, err := t.store.GetSession(ctx, fix.SessionID)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return result, nil
		}
		return nil, fmt.Errorf("ingest fix: load session: %w", err)
	}
	if session.Status != domain.SessionInProgress {
		return result, nil
	}

	if t.live != nil {
		if err := t.live.SetLatestFix(ctx, fix); err != nil {
			log.Warn().Err(err).Int64("session_id", fix.SessionID).Msg("Failed to cache latest fix")
		}
	}

	if err := t.evaluate(ctx, session, fix, result); err != nil {
		return nil, err
	}
	return result, nil
}

// Evaluate recomputes the proximity state of a fix without recording it.
func (t *Tracker) Evaluate(ctx context.Context, session *domain.Session, fix domain.LocationFix) (*IngestResult, error) {
	unlock := t.locks.Lock(session.SessionID)
	defer unlock()

	result := &IngestResult{}
	if err := t.evaluate(ctx, session, fix, result); err != nil {
		return nil, err
	}
	return result, nil
}

func (t *Tracker) evaluate(ctx context.Context, session *domain.Session, fix domain.LocationFix, result *IngestResult) error {
	result.Evaluated = true

	next, err := t.nextStop(ctx, session)
	if err != nil {
		return fmt.Errorf("evaluate fix: %w", err)
	}
	if next == nil {
		// Every pickup resolved: the route is logically complete even if
		// Complete has not been called yet.
		return nil
	}
	result.NextStop = next

	if next.School.Coords == nil {
		return nil
	}

	distance := geo.Miles(fix.Coords, *next.School.Coords)
	result.DistanceMiles = &distance

	now := t.now()
	minutes := int(next.School.Dismissal) - int(domain.MinuteOf(now))

	if distance > t.cfg.DistanceThresholdMiles && minutes > 0 && minutes <= t.cfg.MinutesThreshold {
		severity := domain.SeverityWarning
		if minutes <= t.cfg.CriticalMinutes {
			severity = domain.SeverityCritical
		}

		alert := &domain.ProximityAlert{
			SessionID:             session.SessionID,
			SchoolID:              next.School.SchoolID,
			SchoolName:            next.School.Name,
			DistanceMiles:         distance,
			MinutesUntilDismissal: minutes,
			Severity:              severity,
			RaisedAt:              now,
		}
		result.Alert = alert

		if t.notifier != nil {
			if err := t.notifier.NotifyProximity(ctx, *alert); err != nil {
				log.Warn().Err(err).Int64("session_id", session.SessionID).Msg("Failed to dispatch proximity alert")
			}
		}
		if t.live != nil {
			if err := t.live.PushAlert(ctx, *alert); err != nil {
				log.Warn().Err(err).Int64("session_id", session.SessionID).Msg("Failed to log proximity alert")
			}
		}
	}

	return nil
}

// NextStop returns the lowest-order stop whose pickups are not all
// resolved, or nil when none remain.
func (t *Tracker) NextStop(ctx context.Context, sessionID int64) (*domain.Stop, error) {
	session, err := t.store.GetSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("next stop: load session: %w", err)
	}
	return t.nextStop(ctx, session)
}

func (t *Tracker) nextStop(ctx context.Context, session *domain.Session) (*domain.Stop, error) {
	route, err := t.routes.GetRoute(ctx, session.RouteID)
	if err != nil {
		return nil, fmt.Errorf("next stop: load route %d: %w", session.RouteID, err)
	}

	pickups, err := t.store.ListPickups(ctx, session.SessionID)
	if err != nil {
		return nil, fmt.Errorf("next stop: list pickups: %w", err)
	}

	unresolved := make(map[int64]int)
	for _, p := range pickups {
		if !p.Status.Resolved() {
			unresolved[p.SchoolID]++
		}
	}

	for i := range route.Stops {
		if unresolved[route.Stops[i].School.SchoolID] > 0 {
			return &route.Stops[i], nil
		}
	}
	return nil, nil
}
