package repositories

import (
	"database/sql"
	"errors"
	"fmt"
)

// Initialize the SQLite database schema.
func InitSchema(db *sql.DB) error {
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
			school_id INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			lat REAL,
			lon REAL,
			dismissal_time TEXT NOT NULL
		);`,

		`CREATE TABLE IF NOT EXISTS students (
			student_id INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			school_id INTEGER NOT NULL REFERENCES schools(school_id),
			active INTEGER NOT NULL DEFAULT 1
		);`,

		`CREATE TABLE IF NOT EXISTS absences (
			student_id INTEGER NOT NULL REFERENCES students(student_id),
			absence_date TEXT NOT NULL,
			PRIMARY KEY (student_id, absence_date)
		);`,

		`CREATE TABLE IF NOT EXISTS routes (
			route_id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			driver_id INTEGER
		);`,

		`CREATE TABLE IF NOT EXISTS route_stops (
			route_id INTEGER NOT NULL REFERENCES routes(route_id),
			order_index INTEGER NOT NULL,
			school_id INTEGER NOT NULL REFERENCES schools(school_id),
			estimated_arrival TEXT NOT NULL,
			PRIMARY KEY (route_id, order_index)
		);`,

		`CREATE TABLE IF NOT EXISTS route_students (
			route_id INTEGER NOT NULL REFERENCES routes(route_id),
			student_id INTEGER NOT NULL REFERENCES students(student_id),
			school_id INTEGER NOT NULL,
			PRIMARY KEY (route_id, student_id)
		);`,

		`CREATE TABLE IF NOT EXISTS sessions (
			session_id INTEGER PRIMARY KEY AUTOINCREMENT,
			route_id INTEGER NOT NULL REFERENCES routes(route_id),
			driver_id INTEGER NOT NULL,
			service_date TEXT NOT NULL,
			status TEXT NOT NULL,
			started_at TEXT,
			completed_at TEXT,
			duration_minutes INTEGER,
			start_lat REAL, start_lon REAL,
			end_lat REAL, end_lon REAL
		);`,

		// One non-terminal session per (route, date); history rows stay.
		`CREATE UNIQUE INDEX IF NOT EXISTS ux_sessions_active
			ON sessions(route_id, service_date)
			WHERE status IN ('pending', 'in_progress');`,

		`CREATE TABLE IF NOT EXISTS student_pickups (
			pickup_id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id INTEGER NOT NULL REFERENCES sessions(session_id),
			student_id INTEGER NOT NULL REFERENCES students(student_id),
			school_id INTEGER NOT NULL,
			status TEXT NOT NULL DEFAULT 'pending',
			picked_up_at TEXT,
			note TEXT NOT NULL DEFAULT '',
			UNIQUE (session_id, student_id)
		);`,

		`CREATE TABLE IF NOT EXISTS location_fixes (
			driver_id INTEGER NOT NULL,
			session_id INTEGER NOT NULL,
			lat REAL NOT NULL,
			lon REAL NOT NULL,
			recorded_at TEXT NOT NULL,
			speed_mph REAL,
			bearing REAL,
			accuracy_m REAL
		);`,

		`CREATE INDEX IF NOT EXISTS idx_location_fixes_session
			ON location_fixes(session_id, recorded_at);`,

		`CREATE TABLE IF NOT EXISTS session_history (
			session_id INTEGER PRIMARY KEY,
			route_id INTEGER NOT NULL,
			driver_id INTEGER NOT NULL,
			service_date TEXT NOT NULL,
			duration_minutes INTEGER NOT NULL,
			total_students INTEGER NOT NULL,
			picked_up INTEGER NOT NULL,
			absent INTEGER NOT NULL,
			no_show INTEGER NOT NULL,
			distance_miles REAL NOT NULL,
			recorded_at TEXT NOT NULL
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
