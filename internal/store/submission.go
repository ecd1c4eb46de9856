package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/classroom/internal/domain"
)

// SubmissionStore defines the interface for submission persistence.
//
// Implementations must enforce that at most one active (non-withdrawn)
// submission exists per assignment and student; Create and Update return
// ErrActiveSubmissionExists when a write would break that rule.
type SubmissionStore interface {
	// Create saves a new submission.
	Create(ctx context.Context, submission *domain.Submission) error

	// Update saves changes to an existing submission.
	// Returns ErrSubmissionNotFound if the submission does not exist.
	Update(ctx context.Context, submission *domain.Submission) error

	// GetByID retrieves a submission.
	// Returns ErrSubmissionNotFound if the submission does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Submission, error)

	// FindByAssignmentAndStudent returns the student's active submission for
	// the assignment. Returns ErrSubmissionNotFound when there is none.
	FindByAssignmentAndStudent(ctx context.Context, assignmentID, studentID uuid.UUID) (*domain.Submission, error)

	// ListByAssignment returns every submission for the assignment, withdrawn
	// ones included, ordered by submission time.
	ListByAssignment(ctx context.Context, assignmentID uuid.UUID) ([]*domain.Submission, error)

	// ListUngraded returns the active, ungraded submissions for the assignment.
	ListUngraded(ctx context.Context, assignmentID uuid.UUID) ([]*domain.Submission, error)
}
