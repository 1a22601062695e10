package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"pickup-route-service/internal/domain"
)

// SQLite-backed implementation of the RosterProvider port.
type SqliteRoster struct{ DB *sql.DB }

func NewSqliteRoster(db *sql.DB) *SqliteRoster {
	return &SqliteRoster{DB: db}
}

// Return every school with at least one active student, with the derived
// student count attached.
func (s *SqliteRoster) SchoolsWithActiveStudentCounts(ctx context.Context) ([]domain.School, error) {
	if s.DB == nil {
		return nil, errors.New("sqlite roster: DB is nil")
	}

	query := `
	SELECT
		sc.school_id,
		sc.name,
		sc.lat,
		sc.lon,
		sc.dismissal_time,
		COUNT(st.student_id) AS student_count
	FROM schools sc
	JOIN students st ON st.school_id = sc.school_id AND st.active = 1
	GROUP BY sc.school_id, sc.name, sc.lat, sc.lon, sc.dismissal_time
	ORDER BY sc.school_id;
	`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list schools: query: %w", err)
	}
	defer rows.Close()

	schools := make([]domain.School, 0, 32)
	for rows.Next() {
		var (
			school    domain.School
			lat, lon  sql.NullFloat64
			dismissal string
		)
		if err := rows.Scan(&school.SchoolID, &school.Name, &lat, &lon, &dismissal, &school.StudentCount); err != nil {
			return nil, fmt.Errorf("list schools: scan row: %w", err)
		}

		if lat.Valid && lon.Valid {
			school.Coords = &domain.Coordinates{Lat: lat.Float64, Lon: lon.Float64}
		}

		school.Dismissal, err = domain.ParseClock(dismissal)
		if err != nil {
			return nil, fmt.Errorf("list schools: school %d: %w", school.SchoolID, err)
		}

		schools = append(schools, school)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list schools: row iteration: %w", err)
	}

	return schools, nil
}

// Return the active students enrolled at any of the given schools.
func (s *SqliteRoster) ActiveStudentsForSchools(ctx context.Context, schoolIDs []int64) ([]domain.Student, error) {
	if s.DB == nil {
		return nil, errors.New("sqlite roster: DB is nil")
	}

	if len(schoolIDs) == 0 {
		return []domain.Student{}, nil
	}

	// SQLite does not support binding slices directly in an IN (...)
	// clause. Only the placeholder structure is interpolated; all values
	// remain parameterized.
	ph := make([]string, len(schoolIDs))
	args := make([]any, len(schoolIDs))
	for i, id := range schoolIDs {
		ph[i] = "?"
		args[i] = id
	}

	query := fmt.Sprintf(`
	SELECT student_id, name, school_id, active
	FROM students
	WHERE active = 1 AND school_id IN (%s)
	ORDER BY student_id;
	`, strings.Join(ph, ","))

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list students: query: %w", err)
	}
	defer rows.Close()

	students := make([]domain.Student, 0, 64)
	for rows.Next() {
		var st domain.Student
		if err := rows.Scan(&st.StudentID, &st.Name, &st.SchoolID, &st.Active); err != nil {
			return nil, fmt.Errorf("list students: scan row: %w", err)
		}
		students = append(students, st)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list students: row iteration: %w", err)
	}

	return students, nil
}
