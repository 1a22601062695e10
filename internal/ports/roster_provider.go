package ports

import (
	"context"

	"pickup-route-service/internal/domain"
)

// Port: a boundary for reading the active school/student roster.
type RosterProvider interface {
	// Return every school that has at least one active student, with the
	// derived student count attached. Inactive schools and students are
	// excluded.
	SchoolsWithActiveStudentCounts(ctx context.Context) ([]domain.School, error)

	// Return the active students enrolled at any of the given schools.
	ActiveStudentsForSchools(ctx context.Context, schoolIDs []int64) ([]domain.Student, error)
}
