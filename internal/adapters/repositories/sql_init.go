package repositories

import (
	"database/sql"
	"errors"
	"fmt"
)

// Initialize the PostgreSQL database schema. Kept in step with the SQLite
// variant; the dialects differ in identity columns and partial indexes.
func InitSchemaPostgres(db *sql.DB) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	statements := []string{
		`CREATE TABLE IF NOT EXISTS schools (
			school_id BIGINT PRIMARY KEY,
			name TEXT NOT NULL,
			lat DOUBLE PRECISION,
			lon DOUBLE PRECISION,
			dismissal_time TEXT NOT NULL
		);`,

		`CREATE TABLE IF NOT EXISTS students (
			student_id BIGINT PRIMARY KEY,
			name TEXT NOT NULL,
			school_id BIGINT NOT NULL REFERENCES schools(school_id),
			active BOOLEAN NOT NULL DEFAULT TRUE
		);`,

		`CREATE TABLE IF NOT EXISTS absences (
			student_id BIGINT NOT NULL REFERENCES students(student_id),
			absence_date TEXT NOT NULL,
			PRIMARY KEY (student_id, absence_date)
		);`,

		`CREATE TABLE IF NOT EXISTS routes (
			route_id BIGSERIAL PRIMARY KEY,
			name TEXT NOT NULL,
			driver_id BIGINT
		);`,

		`CREATE TABLE IF NOT EXISTS route_stops (
			route_id BIGINT NOT NULL REFERENCES routes(route_id),
			order_index INTEGER NOT NULL,
			school_id BIGINT NOT NULL REFERENCES schools(school_id),
			estimated_arrival TEXT NOT NULL,
			PRIMARY KEY (route_id, order_index)
		);`,

		`CREATE TABLE IF NOT EXISTS route_students (
			route_id BIGINT NOT NULL REFERENCES routes(route_id),
			student_id BIGINT NOT NULL REFERENCES students(student_id),
			school_id BIGINT NOT NULL,
			PRIMARY KEY (route_id, student_id)
		);`,

		`CREATE TABLE IF NOT EXISTS sessions (
			session_id BIGSERIAL PRIMARY KEY,
			route_id BIGINT NOT NULL REFERENCES routes(route_id),
			driver_id BIGINT NOT NULL,
			service_date TEXT NOT NULL,
			status TEXT NOT NULL,
			started_at TIMESTAMPTZ,
			completed_at TIMESTAMPTZ,
			duration_minutes INTEGER,
			start_lat DOUBLE PRECISION, start_lon DOUBLE PRECISION,
			end_lat DOUBLE PRECISION, end_lon DOUBLE PRECISION
		);`,

		`CREATE UNIQUE INDEX IF NOT EXISTS ux_sessions_active
			ON sessions(route_id, service_date)
			WHERE status IN ('pending', 'in_progress');`,

		`CREATE TABLE IF NOT EXISTS student_pickups (
			pickup_id BIGSERIAL PRIMARY KEY,
			session_id BIGINT NOT NULL REFERENCES sessions(session_id),
			student_id BIGINT NOT NULL REFERENCES students(student_id),
			school_id BIGINT NOT NULL,
			status TEXT NOT NULL DEFAULT 'pending',
			picked_up_at TIMESTAMPTZ,
			note TEXT NOT NULL DEFAULT '',
			UNIQUE (session_id, student_id)
		);`,

		`CREATE TABLE IF NOT EXISTS location_fixes (
			driver_id BIGINT NOT NULL,
			session_id BIGINT NOT NULL,
			lat DOUBLE PRECISION NOT NULL,
			lon DOUBLE PRECISION NOT NULL,
			recorded_at TIMESTAMPTZ NOT NULL,
			speed_mph DOUBLE PRECISION,
			bearing DOUBLE PRECISION,
			accuracy_m DOUBLE PRECISION
		);`,

		`CREATE INDEX IF NOT EXISTS idx_location_fixes_session
			ON location_fixes(session_id, recorded_at);`,

		`CREATE TABLE IF NOT EXISTS session_history (
			session_id BIGINT PRIMARY KEY,
			route_id BIGINT NOT NULL,
			driver_id BIGINT NOT NULL,
			service_date TEXT NOT NULL,
			duration_minutes INTEGER NOT NULL,
			total_students INTEGER NOT NULL,
			picked_up INTEGER NOT NULL,
			absent INTEGER NOT NULL,
			no_show INTEGER NOT NULL,
			distance_miles DOUBLE PRECISION NOT NULL,
			recorded_at TIMESTAMPTZ NOT NULL
		);`,
	}

	for i, stmt := range statements {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}
