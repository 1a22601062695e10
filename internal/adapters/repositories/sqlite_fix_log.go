package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"pickup-route-service/internal/domain"
	"pickup-route-service/internal/ports"
)

// SQLite-backed implementation of the FixLog port.
type SqliteFixLog struct{ DB *sql.DB }

func NewSqliteFixLog(db *sql.DB) *SqliteFixLog {
	return &SqliteFixLog{DB: db}
}

func (l *SqliteFixLog) Append(ctx context.Context, fix domain.LocationFix) error {
	if l.DB == nil {
		return errors.New("fix log: DB is nil")
	}

	_, err := l.DB.ExecContext(ctx,
		`INSERT INTO location_fixes
			(driver_id, session_id, lat, lon, recorded_at, speed_mph, bearing, accuracy_m)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?);`,
		fix.DriverID, fix.SessionID, fix.Coords.Lat, fix.Coords.Lon,
		timeColumn(&fix.RecordedAt), fix.SpeedMPH, fix.Bearing, fix.AccuracyM,
	)
	if err != nil {
		return fmt.Errorf("append fix (session=%d): %w", fix.SessionID, err)
	}
	return nil
}

func (l *SqliteFixLog) Latest(ctx context.Context, driverID int64, sessionID int64) (*domain.LocationFix, error) {
	if l.DB == nil {
		return nil, errors.New("fix log: DB is nil")
	}

	row := l.DB.QueryRowContext(ctx,
		`SELECT driver_id, session_id, lat, lon, recorded_at, speed_mph, bearing, accuracy_m
		 FROM location_fixes
		 WHERE driver_id = ? AND session_id = ?
		 ORDER BY recorded_at DESC LIMIT 1;`,
		driverID, sessionID)

	fix, err := scanFix(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest fix (driver=%d session=%d): %w", driverID, sessionID, err)
	}
	return fix, nil
}

func (l *SqliteFixLog) ListForSession(ctx context.Context, sessionID int64) ([]domain.LocationFix, error) {
	if l.DB == nil {
		return nil, errors.New("fix log: DB is nil")
	}

	rows, err := l.DB.QueryContext(ctx,
		`SELECT driver_id, session_id, lat, lon, recorded_at, speed_mph, bearing, accuracy_m
		 FROM location_fixes
		 WHERE session_id = ?
		 ORDER BY recorded_at;`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list fixes for session %d: %w", sessionID, err)
	}
	defer rows.Close()

	fixes := make([]domain.LocationFix, 0, 64)
	for rows.Next() {
		fix, err := scanFix(rows)
		if err != nil {
			return nil, fmt.Errorf("list fixes for session %d: %w", sessionID, err)
		}
		fixes = append(fixes, *fix)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list fixes for session %d: row iteration: %w", sessionID, err)
	}
	return fixes, nil
}

func scanFix(row rowScanner) (*domain.LocationFix, error) {
	var (
		fix        domain.LocationFix
		recordedAt sql.NullString
	)
	if err := row.Scan(
		&fix.DriverID, &fix.SessionID, &fix.Coords.Lat, &fix.Coords.Lon,
		&recordedAt, &fix.SpeedMPH, &fix.Bearing, &fix.AccuracyM,
	); err != nil {
		return nil, err
	}

	t, err := timeValue(recordedAt)
	if err != nil {
		return nil, fmt.Errorf("recorded_at: %w", err)
	}
	if t != nil {
		fix.RecordedAt = *t
	}
	return &fix, nil
}

var _ ports.FixLog = (*SqliteFixLog)(nil)
