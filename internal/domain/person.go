package domain

import (
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Role is the capacity in which a person takes part in one course.
// It is an attribute of the enrollment, never of the person.
type Role string

// Possible role values. RoleNone means the person is not enrolled.
const (
	RoleNone    Role = ""
	RoleTeacher Role = "teacher"
	RoleStudent Role = "student"
)

// IsValid reports whether r is one of the enrollment roles.
func (r Role) IsValid() bool {
	return r == RoleTeacher || r == RoleStudent
}

// Person is an identity known to the classroom. The same person may teach one
// course and study in another.
type Person struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// NewPerson creates a Person with a fresh ID.
// Returns an error if validation fails.
func NewPerson(name, email string) (*Person, error) {
	p := &Person{
		ID:        uuid.New(),
		Name:      strings.TrimSpace(name),
		Email:     strings.TrimSpace(email),
		CreatedAt: time.Now().UTC(),
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}

	return p, nil
}

// Validate checks if the Person has valid data.
func (p *Person) Validate() error {
	if p.ID == uuid.Nil {
		return NewValidationError("id", "cannot be empty", nil)
	}
	if p.Name == "" {
		return NewValidationError("name", "cannot be empty", nil)
	}
	if p.Email == "" {
		return NewValidationError("email", "cannot be empty", nil)
	}
	addr, err := mail.ParseAddress(p.Email)
	if err != nil || addr.Address != p.Email {
		return NewValidationError("email", "invalid format", nil)
	}
	return nil
}

// Actor is a person resolved against a course: who is acting, where, and in
// which role. Aggregates check capabilities against an Actor rather than
// against the person.
type Actor struct {
	Person   *Person
	CourseID uuid.UUID
	Role     Role
}

// NewActor pairs a person with the role they hold in course.
func NewActor(person *Person, courseID uuid.UUID, role Role) Actor {
	return Actor{Person: person, CourseID: courseID, Role: role}
}

// ID returns the acting person's ID, or uuid.Nil for an empty actor.
func (a Actor) ID() uuid.UUID {
	if a.Person == nil {
		return uuid.Nil
	}
	return a.Person.ID
}

// ActsIn reports whether the actor was resolved for courseID.
func (a Actor) ActsIn(courseID uuid.UUID) bool {
	return a.Person != nil && a.CourseID == courseID
}

// IsTeacherOf reports whether the actor teaches courseID.
func (a Actor) IsTeacherOf(courseID uuid.UUID) bool {
	return a.ActsIn(courseID) && a.Role == RoleTeacher
}

// IsStudentOf reports whether the actor studies in courseID.
func (a Actor) IsStudentOf(courseID uuid.UUID) bool {
	return a.ActsIn(courseID) && a.Role == RoleStudent
}
