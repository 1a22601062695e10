package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"pickup-route-service/internal/domain"
	"pickup-route-service/internal/platform/obs"
	"pickup-route-service/internal/ports"
)

// SQLite-backed implementation of the SessionStore port. The
// one-active-session-per-(route, date) rule is enforced by a partial
// unique index, so concurrent starts race on the database instead of on
// application state.
type SqliteSessionStore struct{ DB *sql.DB }

func NewSqliteSessionStore(db *sql.DB) *SqliteSessionStore {
	return &SqliteSessionStore{DB: db}
}

// CreateSession inserts the session row and seeds its pickup rows in one
// transaction. Violating the active-session index surfaces as
// ports.ErrDuplicateActiveSession.
func (s *SqliteSessionStore) CreateSession(ctx context.Context, session domain.Session, pickups []domain.StudentPickup) (_ *domain.Session, err error) {
	defer obs.Time(ctx, "sessions.Create")(&err)

	if s.DB == nil {
		return nil, errors.New("session store: DB is nil")
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("create session: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	startLat, startLon := coordsColumns(session.StartCoords)
	endLat, endLon := coordsColumns(session.EndCoords)

	res, err := tx.ExecContext(ctx,
		`INSERT INTO sessions
			(route_id, driver_id, service_date, status, started_at, completed_at,
			 duration_minutes, start_lat, start_lon, end_lat, end_lon)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);`,
		session.RouteID, session.DriverID, string(session.Date), string(session.Status),
		timeColumn(session.StartedAt), timeColumn(session.CompletedAt),
		session.DurationMinutes, startLat, startLon, endLat, endLon,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ports.ErrDuplicateActiveSession
		}
		return nil, fmt.Errorf("create session: insert: %w", err)
	}

	session.SessionID, err = res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("create session: id: %w", err)
	}

	for i := range pickups {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO student_pickups (session_id, student_id, school_id, status, note)
			 VALUES (?, ?, ?, ?, ?);`,
			session.SessionID, pickups[i].StudentID, pickups[i].SchoolID,
			string(pickups[i].Status), pickups[i].Note,
		); err != nil {
			return nil, fmt.Errorf("create session: seed pickup for student %d: %w", pickups[i].StudentID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		if isUniqueViolation(err) {
			return nil, ports.ErrDuplicateActiveSession
		}
		return nil, fmt.Errorf("create session: commit tx: %w", err)
	}

	return &session, nil
}

func (s *SqliteSessionStore) GetSession(ctx context.Context, sessionID int64) (_ *domain.Session, err error) {
	defer obs.Time(ctx, "sessions.Get")(&err)

	if s.DB == nil {
		return nil, errors.New("session store: DB is nil")
	}

	row := s.DB.QueryRowContext(ctx,
		`SELECT session_id, route_id, driver_id, service_date, status, started_at,
			completed_at, duration_minutes, start_lat, start_lon, end_lat, end_lon
		 FROM sessions WHERE session_id = ?;`, sessionID)

	session, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ports.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session %d: %w", sessionID, err)
	}
	return session, nil
}

// FindActiveSession returns the non-terminal session for (route, date),
// or nil when none exists.
func (s *SqliteSessionStore) FindActiveSession(ctx context.Context, routeID int64, date domain.ServiceDate) (_ *domain.Session, err error) {
	defer obs.Time(ctx, "sessions.FindActive")(&err)

	if s.DB == nil {
		return nil, errors.New("session store: DB is nil")
	}

	row := s.DB.QueryRowContext(ctx,
		`SELECT session_id, route_id, driver_id, service_date, status, started_at,
			completed_at, duration_minutes, start_lat, start_lon, end_lat, end_lon
		 FROM sessions
		 WHERE route_id = ? AND service_date = ? AND status IN ('pending', 'in_progress');`,
		routeID, string(date))

	session, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find active session (route=%d date=%s): %w", routeID, date, err)
	}
	return session, nil
}

func (s *SqliteSessionStore) UpdateSession(ctx context.Context, session domain.Session) (err error) {
	defer obs.Time(ctx, "sessions.Update")(&err)

	if s.DB == nil {
		return errors.New("session store: DB is nil")
	}

	startLat, startLon := coordsColumns(session.StartCoords)
	endLat, endLon := coordsColumns(session.EndCoords)

	res, err := s.DB.ExecContext(ctx,
		`UPDATE sessions SET
			status = ?, started_at = ?, completed_at = ?, duration_minutes = ?,
			start_lat = ?, start_lon = ?, end_lat = ?, end_lon = ?
		 WHERE session_id = ?;`,
		string(session.Status), timeColumn(session.StartedAt), timeColumn(session.CompletedAt),
		session.DurationMinutes, startLat, startLon, endLat, endLon, session.SessionID,
	)
	if err != nil {
		return fmt.Errorf("update session %d: %w", session.SessionID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update session %d: rows affected: %w", session.SessionID, err)
	}
	if n == 0 {
		return ports.ErrNotFound
	}
	return nil
}

func (s *SqliteSessionStore) ListPickups(ctx context.Context, sessionID int64) (_ []domain.StudentPickup, err error) {
	defer obs.Time(ctx, "pickups.List")(&err)

	if s.DB == nil {
		return nil, errors.New("session store: DB is nil")
	}

	rows, err := s.DB.QueryContext(ctx,
		`SELECT pickup_id, session_id, student_id, school_id, status, picked_up_at, note
		 FROM student_pickups WHERE session_id = ? ORDER BY student_id;`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list pickups for session %d: %w", sessionID, err)
	}
	defer rows.Close()

	pickups := make([]domain.StudentPickup, 0, 32)
	for rows.Next() {
		p, err := scanPickup(rows)
		if err != nil {
			return nil, fmt.Errorf("list pickups for session %d: %w", sessionID, err)
		}
		pickups = append(pickups, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list pickups for session %d: row iteration: %w", sessionID, err)
	}
	return pickups, nil
}

func (s *SqliteSessionStore) GetPickup(ctx context.Context, sessionID int64, studentID int64) (_ *domain.StudentPickup, err error) {
	defer obs.Time(ctx, "pickups.Get")(&err)

	if s.DB == nil {
		return nil, errors.New("session store: DB is nil")
	}

	row := s.DB.QueryRowContext(ctx,
		`SELECT pickup_id, session_id, student_id, school_id, status, picked_up_at, note
		 FROM student_pickups WHERE session_id = ? AND student_id = ?;`,
		sessionID, studentID)

	p, err := scanPickup(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ports.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get pickup (session=%d student=%d): %w", sessionID, studentID, err)
	}
	return p, nil
}

// UpdatePickup overwrites status and timestamp; an empty note leaves the
// stored note untouched.
func (s *SqliteSessionStore) UpdatePickup(ctx context.Context, sessionID int64, studentID int64, status domain.PickupStatus, pickedUpAt *time.Time, note string) (err error) {
	defer obs.Time(ctx, "pickups.Update")(&err)

	if s.DB == nil {
		return errors.New("session store: DB is nil")
	}

	res, err := s.DB.ExecContext(ctx,
		`UPDATE student_pickups SET
			status = ?, picked_up_at = ?, note = COALESCE(NULLIF(?, ''), note)
		 WHERE session_id = ? AND student_id = ?;`,
		string(status), timeColumn(pickedUpAt), note, sessionID, studentID,
	)
	if err != nil {
		return fmt.Errorf("update pickup (session=%d student=%d): %w", sessionID, studentID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update pickup (session=%d student=%d): rows affected: %w", sessionID, studentID, err)
	}
	if n == 0 {
		return ports.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*domain.Session, error) {
	var (
		session                domain.Session
		date, status           string
		startedAt, completedAt sql.NullString
		duration               sql.NullInt64
		startLat, startLon     sql.NullFloat64
		endLat, endLon         sql.NullFloat64
	)
	if err := row.Scan(
		&session.SessionID, &session.RouteID, &session.DriverID, &date, &status,
		&startedAt, &completedAt, &duration, &startLat, &startLon, &endLat, &endLon,
	); err != nil {
		return nil, err
	}

	session.Date = domain.ServiceDate(date)
	session.Status = domain.SessionStatus(status)

	var err error
	if session.StartedAt, err = timeValue(startedAt); err != nil {
		return nil, fmt.Errorf("started_at: %w", err)
	}
	if session.CompletedAt, err = timeValue(completedAt); err != nil {
		return nil, fmt.Errorf("completed_at: %w", err)
	}
	if duration.Valid {
		d := int(duration.Int64)
		session.DurationMinutes = &d
	}
	if startLat.Valid && startLon.Valid {
		session.StartCoords = &domain.Coordinates{Lat: startLat.Float64, Lon: startLon.Float64}
	}
	if endLat.Valid && endLon.Valid {
		session.EndCoords = &domain.Coordinates{Lat: endLat.Float64, Lon: endLon.Float64}
	}

	return &session, nil
}

func scanPickup(row rowScanner) (*domain.StudentPickup, error) {
	var (
		p          domain.StudentPickup
		status     string
		pickedUpAt sql.NullString
	)
	if err := row.Scan(&p.PickupID, &p.SessionID, &p.StudentID, &p.SchoolID, &status, &pickedUpAt, &p.Note); err != nil {
		return nil, err
	}

	p.Status = domain.PickupStatus(status)

	var err error
	if p.PickedUpAt, err = timeValue(pickedUpAt); err != nil {
		return nil, fmt.Errorf("picked_up_at: %w", err)
	}
	return &p, nil
}

// Timestamps are stored as RFC 3339 text.
func timeColumn(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func timeValue(s sql.NullString) (*time.Time, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func coordsColumns(c *domain.Coordinates) (lat any, lon any) {
	if c == nil {
		return nil, nil
	}
	return c.Lat, c.Lon
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
