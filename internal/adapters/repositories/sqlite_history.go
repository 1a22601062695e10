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

// SQLite-backed implementation of the HistorySink port. Rows are keyed by
// session id and upserted, so a retried completion rewrites the same
// record instead of adding a second one.
type SqliteHistorySink struct{ DB *sql.DB }

func NewSqliteHistorySink(db *sql.DB) *SqliteHistorySink {
	return &SqliteHistorySink{DB: db}
}

func (s *SqliteHistorySink) RecordCompletedSession(ctx context.Context, session domain.Session, pickups []domain.StudentPickup, summary ports.SessionSummary) (err error) {
	defer obs.Time(ctx, "history.Record")(&err)

	if s.DB == nil {
		return errors.New("history sink: DB is nil")
	}

	_, err = s.DB.ExecContext(ctx,
		`INSERT OR REPLACE INTO session_history
			(session_id, route_id, driver_id, service_date, duration_minutes,
			 total_students, picked_up, absent, no_show, distance_miles, recorded_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);`,
		session.SessionID, session.RouteID, session.DriverID, string(session.Date),
		summary.DurationMinutes, summary.TotalStudents, summary.PickedUp,
		summary.Absent, summary.NoShow, summary.DistanceMiles,
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("record session %d history: %w", session.SessionID, err)
	}
	return nil
}
