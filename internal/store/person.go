package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/classroom/internal/domain"
)

// PersonStore defines the interface for person data persistence.
type PersonStore interface {
	// Create saves a new person.
	// Returns ErrEmailExists if the email is already taken.
	Create(ctx context.Context, person *domain.Person) error

	// GetByID retrieves a person by their unique ID.
	// Returns ErrPersonNotFound if the person does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Person, error)

	// GetByEmail retrieves a person by email address.
	// Returns ErrPersonNotFound if no person has that email.
	GetByEmail(ctx context.Context, email string) (*domain.Person, error)
}

// EnrollmentLookup resolves the role a person holds in a course.
type EnrollmentLookup interface {
	// RoleOf returns the person's role in the course, or domain.RoleNone
	// when they are not enrolled. A missing course is not an error.
	RoleOf(ctx context.Context, personID, courseID uuid.UUID) (domain.Role, error)
}
