package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"pickup-route-service/internal/domain"
	"pickup-route-service/internal/platform/obs"
	"pickup-route-service/internal/ports"
)

// SQLFixLog is the Postgres-backed implementation of the FixLog port,
// used when fixes should outlive the service node's local database.
type SQLFixLog struct{ DB *sql.DB }

func NewSQLFixLog(db *sql.DB) *SQLFixLog {
	return &SQLFixLog{DB: db}
}

func (l *SQLFixLog) Append(ctx context.Context, fix domain.LocationFix) (err error) {
	defer obs.Time(ctx, "fixlog.Append")(&err)

	if l.DB == nil {
		return errors.New("fix log: db is nil")
	}

	_, err = l.DB.ExecContext(ctx,
		`INSERT INTO location_fixes
			(driver_id, session_id, lat, lon, recorded_at, speed_mph, bearing, accuracy_m)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8);`,
		fix.DriverID, fix.SessionID, fix.Coords.Lat, fix.Coords.Lon,
		fix.RecordedAt.UTC(), fix.SpeedMPH, fix.Bearing, fix.AccuracyM,
	)
	if err != nil {
		return fmt.Errorf("append fix (session=%d): %w", fix.SessionID, err)
	}
	return nil
}

func (l *SQLFixLog) Latest(ctx context.Context, driverID int64, sessionID int64) (_ *domain.LocationFix, err error) {
	defer obs.Time(ctx, "fixlog.Latest")(&err)

	if l.DB == nil {
		return nil, errors.New("fix log: db is nil")
	}

	row := l.DB.QueryRowContext(ctx,
		`SELECT driver_id, session_id, lat, lon, recorded_at, speed_mph, bearing, accuracy_m
		 FROM location_fixes
		 WHERE driver_id = $1 AND session_id = $2
		 ORDER BY recorded_at DESC LIMIT 1;`,
		driverID, sessionID)

	fix, err := scanFixSQL(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest fix (driver=%d session=%d): %w", driverID, sessionID, err)
	}
	return fix, nil
}

func (l *SQLFixLog) ListForSession(ctx context.Context, sessionID int64) (_ []domain.LocationFix, err error) {
	defer obs.Time(ctx, "fixlog.ListForSession")(&err)

	if l.DB == nil {
		return nil, errors.New("fix log: db is nil")
	}

	rows, err := l.DB.QueryContext(ctx,
		`SELECT driver_id, session_id, lat, lon, recorded_at, speed_mph, bearing, accuracy_m
		 FROM location_fixes
		 WHERE session_id = $1
		 ORDER BY recorded_at;`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list fixes for session %d: %w", sessionID, err)
	}
	defer rows.Close()

	fixes := make([]domain.LocationFix, 0, 64)
	for rows.Next() {
		fix, err := scanFixSQL(rows)
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

// Postgres stores timestamptz, so recorded_at scans straight into time.Time.
func scanFixSQL(row rowScanner) (*domain.LocationFix, error) {
	var (
		fix        domain.LocationFix
		recordedAt time.Time
	)
	if err := row.Scan(
		&fix.DriverID, &fix.SessionID, &fix.Coords.Lat, &fix.Coords.Lon,
		&recordedAt, &fix.SpeedMPH, &fix.Bearing, &fix.AccuracyM,
	); err != nil {
		return nil, err
	}
	fix.RecordedAt = recordedAt.UTC()
	return &fix, nil
}

var _ ports.FixLog = (*SQLFixLog)(nil)
