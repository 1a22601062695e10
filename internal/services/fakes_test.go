package services

import (
	"context"
	"sync"
	"time"

	"pickup-route-service/internal/domain"
	"pickup-route-service/internal/ports"
)

// In-memory port implementations shared by the service tests.

type memStore struct {
	mu       sync.Mutex
	nextID   int64
	sessions map[int64]domain.Session
	pickups  map[int64][]domain.StudentPickup
}

func newMemStore() *memStore {
	return &memStore{
		sessions: make(map[int64]domain.Session),
		pickups:  make(map[int64][]domain.StudentPickup),
	}
}

func (s *memStore) CreateSession(ctx context.Context, session domain.Session, pickups []domain.StudentPickup) (*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.sessions {
		if existing.RouteID == session.RouteID && existing.Date == session.Date && !existing.Status.Terminal() {
			return nil, ports.ErrDuplicateActiveSession
		}
	}

	s.nextID++
	session.SessionID = s.nextID
	s.sessions[session.SessionID] = session

	rows := make([]domain.StudentPickup, len(pickups))
	for i, p := range pickups {
		s.nextID++
		p.PickupID = s.nextID
		p.SessionID = session.SessionID
		rows[i] = p
	}
	s.pickups[session.SessionID] = rows

	out := session
	return &out, nil
}

func (s *memStore) GetSession(ctx context.Context, sessionID int64) (*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return nil, ports.ErrNotFound
	}
	out := session
	return &out, nil
}

func (s *memStore) FindActiveSession(ctx context.Context, routeID int64, date domain.ServiceDate) (*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, session := range s.sessions {
		if session.RouteID == routeID && session.Date == date && !session.Status.Terminal() {
			out := session
			return &out, nil
		}
	}
	return nil, nil
}

func (s *memStore) UpdateSession(ctx context.Context, session domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[session.SessionID]; !ok {
		return ports.ErrNotFound
	}
	s.sessions[session.SessionID] = session
	return nil
}

func (s *memStore) ListPickups(ctx context.Context, sessionID int64) ([]domain.StudentPickup, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.StudentPickup, len(s.pickups[sessionID]))
	copy(out, s.pickups[sessionID])
	return out, nil
}

func (s *memStore) GetPickup(ctx context.Context, sessionID int64, studentID int64) (*domain.StudentPickup, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.pickups[sessionID] {
		if p.StudentID == studentID {
			out := p
			return &out, nil
		}
	}
	return nil, ports.ErrNotFound
}

func (s *memStore) UpdatePickup(ctx context.Context, sessionID int64, studentID int64, status domain.PickupStatus, pickedUpAt *time.Time, note string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows := s.pickups[sessionID]
	for i := range rows {
		if rows[i].StudentID == studentID {
			rows[i].Status = status
			rows[i].PickedUpAt = pickedUpAt
			if note != "" {
				rows[i].Note = note
			}
			return nil
		}
	}
	return ports.ErrNotFound
}

type memRoutes struct {
	mu     sync.Mutex
	nextID int64
	routes map[int64]domain.Route
}

func newMemRoutes() *memRoutes {
	return &memRoutes{routes: make(map[int64]domain.Route)}
}

func (r *memRoutes) SaveRoutes(ctx context.Context, routes []domain.Route) ([]domain.Route, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]domain.Route, len(routes))
	for i, route := range routes {
		r.nextID++
		route.RouteID = r.nextID
		r.routes[route.RouteID] = route
		out[i] = route
	}
	return out, nil
}

func (r *memRoutes) GetRoute(ctx context.Context, routeID int64) (*domain.Route, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	route, ok := r.routes[routeID]
	if !ok {
		return nil, ports.ErrNotFound
	}
	out := route
	return &out, nil
}

func (r *memRoutes) ListRoutes(ctx context.Context) ([]domain.Route, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]domain.Route, 0, len(r.routes))
	for _, route := range r.routes {
		out = append(out, route)
	}
	return out, nil
}

type memRoster struct {
	schools  []domain.School
	students []domain.Student
}

func (r *memRoster) SchoolsWithActiveStudentCounts(ctx context.Context) ([]domain.School, error) {
	return r.schools, nil
}

func (r *memRoster) ActiveStudentsForSchools(ctx context.Context, schoolIDs []int64) ([]domain.Student, error) {
	wanted := make(map[int64]struct{}, len(schoolIDs))
	for _, id := range schoolIDs {
		wanted[id] = struct{}{}
	}

	var out []domain.Student
	for _, st := range r.students {
		if _, ok := wanted[st.SchoolID]; ok && st.Active {
			out = append(out, st)
		}
	}
	return out, nil
}

type memAbsences struct {
	byDate map[domain.ServiceDate][]int64
	err    error
}

func (a *memAbsences) AbsencesForDate(ctx context.Context, date domain.ServiceDate) ([]int64, error) {
	if a.err != nil {
		return nil, a.err
	}
	return a.byDate[date], nil
}

type historyRecord struct {
	Session domain.Session
	Pickups []domain.StudentPickup
	Summary ports.SessionSummary
}

type memHistory struct {
	mu      sync.Mutex
	records []historyRecord
	err     error
}

func (h *memHistory) RecordCompletedSession(ctx context.Context, session domain.Session, pickups []domain.StudentPickup, summary ports.SessionSummary) error {
	if h.err != nil {
		return h.err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = append(h.records, historyRecord{Session: session, Pickups: pickups, Summary: summary})
	return nil
}

type memFixLog struct {
	mu    sync.Mutex
	fixes []domain.LocationFix
}

func (l *memFixLog) Append(ctx context.Context, fix domain.LocationFix) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.fixes = append(l.fixes, fix)
	return nil
}

func (l *memFixLog) Latest(ctx context.Context, driverID int64, sessionID int64) (*domain.LocationFix, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i := len(l.fixes) - 1; i >= 0; i-- {
		if l.fixes[i].DriverID == driverID && l.fixes[i].SessionID == sessionID {
			out := l.fixes[i]
			return &out, nil
		}
	}
	return nil, nil
}

func (l *memFixLog) ListForSession(ctx context.Context, sessionID int64) ([]domain.LocationFix, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var out []domain.LocationFix
	for _, f := range l.fixes {
		if f.SessionID == sessionID {
			out = append(out, f)
		}
	}
	return out, nil
}

type memNotifier struct {
	mu     sync.Mutex
	alerts []domain.ProximityAlert
}

func (n *memNotifier) NotifyProximity(ctx context.Context, alert domain.ProximityAlert) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.alerts = append(n.alerts, alert)
	return nil
}
