package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/classroom/internal/domain"
)

// CourseStore persists the course aggregate together with its enrollments,
// announcements and materials.
type CourseStore interface {
	// Create saves a new course.
	// Returns ErrAccessCodeExists if another course uses the same access code.
	Create(ctx context.Context, course *domain.Course) error

	// Update replaces the stored course, including its child collections.
	// Returns ErrCourseNotFound if the course does not exist.
	Update(ctx context.Context, course *domain.Course) error

	// GetByID retrieves a course.
	// Returns ErrCourseNotFound if the course does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Course, error)

	// GetByAccessCode retrieves the course using code.
	// Returns ErrCourseNotFound if no course matches.
	GetByAccessCode(ctx context.Context, code domain.AccessCode) (*domain.Course, error)

	// ListActive returns all active courses ordered by creation time.
	ListActive(ctx context.Context) ([]*domain.Course, error)

	// ListByTeacher returns the courses in which personID is a teacher.
	ListByTeacher(ctx context.Context, personID uuid.UUID) ([]*domain.Course, error)
}
