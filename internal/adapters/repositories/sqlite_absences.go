package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"pickup-route-service/internal/domain"
)

// SQLite-backed implementation of the AbsenceProvider port.
type SqliteAbsences struct{ DB *sql.DB }

func NewSqliteAbsences(db *sql.DB) *SqliteAbsences {
	return &SqliteAbsences{DB: db}
}

// Return the IDs of students with an absence record for the date.
func (s *SqliteAbsences) AbsencesForDate(ctx context.Context, date domain.ServiceDate) ([]int64, error) {
	if s.DB == nil {
		return nil, errors.New("sqlite absences: DB is nil")
	}

	rows, err := s.DB.QueryContext(ctx,
		`SELECT student_id FROM absences WHERE absence_date = ? ORDER BY student_id;`,
		string(date),
	)
	if err != nil {
		return nil, fmt.Errorf("list absences: query: %w", err)
	}
	defer rows.Close()

	ids := make([]int64, 0, 16)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("list absences: scan row: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list absences: row iteration: %w", err)
	}

	return ids, nil
}
