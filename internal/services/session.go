package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pickup-route-service/internal/domain"
	"pickup-route-service/internal/ports"
)

// Clock supplies the current time; injected so tests control it.
type Clock func() time.Time

// DefaultDependencyTimeout bounds the absence-provider and history-sink
// calls made during completion.
const DefaultDependencyTimeout = 5 * time.Second

// SessionManager owns the session lifecycle:
// pending -> in_progress -> {completed, cancelled}.
//
// Transitions on the same session are serialized through a per-session
// mutex, so Complete always sees a fully up-to-date pickup set. Session
// starts are additionally serialized per (route, date) to keep the
// one-active-session rule race-free.
type SessionManager struct {
	store    ports.SessionStore
	routes   ports.RouteRepository
	roster   ports.RosterProvider
	absences ports.AbsenceProvider
	history  ports.HistorySink
	fixes    ports.FixLog

	now        Clock
	depTimeout time.Duration

	sessionLocks *keyedMutex[int64]
	startLocks   *keyedMutex[string]
}

func NewSessionManager(
	store ports.SessionStore,
	routes ports.RouteRepository,
	roster ports.RosterProvider,
	absences ports.AbsenceProvider,
	history ports.HistorySink,
	fixes ports.FixLog,
	now Clock,
) *SessionManager {
	if now == nil {
		now = time.Now
	}

	return &SessionManager{
		store:        store,
		routes:       routes,
		roster:       roster,
		absences:     absences,
		history:      history,
		fixes:        fixes,
		now:          now,
		depTimeout:   DefaultDependencyTimeout,
		sessionLocks: newKeyedMutex[int64](),
		startLocks:   newKeyedMutex[string](),
	}
}

// Start opens a session for (route, date) and seeds one pending pickup row
// per active student at every school on the route. Fails with
// ErrSessionConflict if a non-terminal session already exists for the pair.
func (m *SessionManager) Start(
	ctx context.Context,
	routeID int64,
	driverID int64,
	date domain.ServiceDate,
	startCoords *domain.Coordinates,
) (*domain.Session, error) {
	unlock := m.startLocks.Lock(fmt.Sprintf("%d|%s", routeID, date))
	defer unlock()

	route, err := m.routes.GetRoute(ctx, routeID)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return nil, ErrRouteNotFound
		}
		return nil, fmt.Errorf("start session: load route %d: %w", routeID, err)
	}

	existing, err := m.store.FindActiveSession(ctx, routeID, date)
	if err != nil {
		return nil, fmt.Errorf("start session: check active session: %w", err)
	}
	if existing != nil {
		return nil, ErrSessionConflict
	}

	schoolIDs := make([]int64, 0, len(route.Stops))
	for _, stop := range route.Stops {
		schoolIDs = append(schoolIDs, stop.School.SchoolID)
	}

	students, err := m.roster.ActiveStudentsForSchools(ctx, schoolIDs)
	if err != nil {
		return nil, fmt.Errorf("start session: load students: %w", err)
	}

	startedAt := m.now()
	session := domain.Session{
		RouteID:     routeID,
		DriverID:    driverID,
		Date:        date,
		Status:      domain.SessionInProgress,
		StartedAt:   &startedAt,
		StartCoords: startCoords,
	}

	pickups := make([]domain.StudentPickup, 0, len(students))
	for _, st := range students {
		pickups = append(pickups, domain.StudentPickup{
			StudentID: st.StudentID,
			SchoolID:  st.SchoolID,
			Status:    domain.PickupPending,
		})
	}

	created, err := m.store.CreateSession(ctx, session, pickups)
	if err != nil {
		if errors.Is(err, ports.ErrDuplicateActiveSession) {
			return nil, ErrSessionConflict
		}
		return nil, fmt.Errorf("start session: create: %w", err)
	}

	return created, nil
}

// RecordPickup resolves one student's pickup while the session is in
// progress. picked_up stamps the pickup time; every other status clears
// it. A note is conventional for absent/no_show but not enforced.
func (m *SessionManager) RecordPickup(
	ctx context.Context,
	sessionID int64,
	studentID int64,
	status domain.PickupStatus,
	note string,
) (*domain.StudentPickup, error) {
	if !domain.ValidPickupStatus(status) {
		return nil, fmt.Errorf("record pickup: unknown status %q", status)
	}

	unlock := m.sessionLocks.Lock(sessionID)
	defer unlock()

	session, err := m.getSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status != domain.SessionInProgress {
		return nil, ErrInvalidState
	}

	if _, err := m.store.GetPickup(ctx, sessionID, studentID); err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return nil, ErrPickupNotFound
		}
		return nil, fmt.Errorf("record pickup: load pickup: %w", err)
	}

	var pickedUpAt *time.Time
	if status == domain.PickupPickedUp {
		t := m.now()
		pickedUpAt = &t
	}

	if err := m.store.UpdatePickup(ctx, sessionID, studentID, status, pickedUpAt, note); err != nil {
		return nil, fmt.Errorf("record pickup: update: %w", err)
	}

	updated, err := m.store.GetPickup(ctx, sessionID, studentID)
	if err != nil {
		return nil, fmt.Errorf("record pickup: reload: %w", err)
	}
	return updated, nil
}

// Complete closes an in-progress session.
//
// Pending pickups are cross-checked against the same-day absence list:
// students with an absence record auto-transition to absent, anything
// still pending fails the call with the offending student IDs. The
// permanent history record is written before the terminal status is
// persisted; since the sink is idempotent, a retry after a partial
// failure cannot double-record.
func (m *SessionManager) Complete(
	ctx context.Context,
	sessionID int64,
	endCoords *domain.Coordinates,
) (*domain.Session, error) {
	unlock := m.sessionLocks.Lock(sessionID)
	defer unlock()

	session, err := m.getSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status != domain.SessionInProgress {
		return nil, ErrInvalidState
	}

	pickups, err := m.store.ListPickups(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("complete session: list pickups: %w", err)
	}

	var pending []domain.StudentPickup
	for _, p := range pickups {
		if !p.Status.Resolved() {
			pending = append(pending, p)
		}
	}

	if len(pending) > 0 {
		if err := m.resolveFromAbsences(ctx, session, pending); err != nil {
			return nil, err
		}

		// Reload so the history record reflects the auto-resolutions.
		pickups, err = m.store.ListPickups(ctx, sessionID)
		if err != nil {
			return nil, fmt.Errorf("complete session: reload pickups: %w", err)
		}
	}

	completedAt := m.now()
	session.Status = domain.SessionCompleted
	session.CompletedAt = &completedAt
	session.EndCoords = endCoords
	if session.StartedAt != nil {
		d := int(completedAt.Sub(*session.StartedAt).Minutes())
		session.DurationMinutes = &d
	}

	fixes, err := m.fixes.ListForSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("complete session: list fixes: %w", err)
	}
	summary := BuildSessionSummary(*session, pickups, fixes)

	hctx, cancel := context.WithTimeout(ctx, m.depTimeout)
	defer cancel()
	if err := m.history.RecordCompletedSession(hctx, *session, pickups, summary); err != nil {
		return nil, fmt.Errorf("%w: record session history: %v", ErrDependencyUnavailable, err)
	}

	if err := m.store.UpdateSession(ctx, *session); err != nil {
		return nil, fmt.Errorf("complete session: persist: %w", err)
	}

	return session, nil
}

// resolveFromAbsences flips pending pickups with a same-day absence record
// to absent. Remaining pending students fail the completion.
func (m *SessionManager) resolveFromAbsences(
	ctx context.Context,
	session *domain.Session,
	pending []domain.StudentPickup,
) error {
	actx, cancel := context.WithTimeout(ctx, m.depTimeout)
	defer cancel()

	absentIDs, err := m.absences.AbsencesForDate(actx, session.Date)
	if err != nil {
		return fmt.Errorf("%w: absence lookup: %v", ErrDependencyUnavailable, err)
	}

	absent := make(map[int64]struct{}, len(absentIDs))
	for _, id := range absentIDs {
		absent[id] = struct{}{}
	}

	var unresolved []int64
	for _, p := range pending {
		if _, ok := absent[p.StudentID]; !ok {
			unresolved = append(unresolved, p.StudentID)
			continue
		}

		err := m.store.UpdatePickup(ctx, session.SessionID, p.StudentID,
			domain.PickupAbsent, nil, "auto-resolved from absence record")
		if err != nil {
			return fmt.Errorf("complete session: auto-resolve student %d: %w", p.StudentID, err)
		}
	}

	if len(unresolved) > 0 {
		return &IncompletePickupsError{StudentIDs: unresolved}
	}
	return nil
}

// Cancel terminates a session from pending or in_progress. No further
// pickups are accepted afterwards.
func (m *SessionManager) Cancel(ctx context.Context, sessionID int64) (*domain.Session, error) {
	unlock := m.sessionLocks.Lock(sessionID)
	defer unlock()

	session, err := m.getSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status.Terminal() {
		return nil, ErrInvalidState
	}

	session.Status = domain.SessionCancelled

	if err := m.store.UpdateSession(ctx, *session); err != nil {
		return nil, fmt.Errorf("cancel session: persist: %w", err)
	}

	return session, nil
}

func (m *SessionManager) getSession(ctx context.Context, sessionID int64) (*domain.Session, error) {
	session, err := m.store.GetSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("load session %d: %w", sessionID, err)
	}
	return session, nil
}
