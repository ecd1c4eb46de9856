package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/classroom/internal/domain"
)

// AssignmentStore defines the interface for assignment persistence.
// Assignments are immutable, so there is no Update.
type AssignmentStore interface {
	// Create saves a new assignment.
	Create(ctx context.Context, assignment *domain.Assignment) error

	// GetByID retrieves an assignment.
	// Returns ErrAssignmentNotFound if the assignment does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Assignment, error)

	// ListByCourse returns a course's assignments ordered by due date.
	ListByCourse(ctx context.Context, courseID uuid.UUID) ([]*domain.Assignment, error)

	// ListUpcoming returns a course's assignments due after now, ordered by due date.
	ListUpcoming(ctx context.Context, courseID uuid.UUID, now time.Time) ([]*domain.Assignment, error)
}
