package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Assignment is a piece of graded work set by a teacher of a course.
// It is immutable once created.
type Assignment struct {
	ID          uuid.UUID `json:"id"`
	CourseID    uuid.UUID `json:"course_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	DueAt       time.Time `json:"due_at"`
	MaxPoints   float64   `json:"max_points"`
	AllowLate   bool      `json:"allow_late"`
	CreatedBy   uuid.UUID `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewAssignmentParams holds the caller-supplied fields of a new assignment.
type NewAssignmentParams struct {
	CourseID    uuid.UUID
	Title       string
	Description string
	DueAt       time.Time
	MaxPoints   float64
	AllowLate   bool
}

// NewAssignment creates an assignment on behalf of creator.
// Returns ErrPermission unless creator teaches the course, and a validation
// error when the due date is unset, max points is not positive or the title is empty.
func NewAssignment(params NewAssignmentParams, creator Actor, now time.Time) (*Assignment, error) {
	if !creator.IsTeacherOf(params.CourseID) {
		return nil, permissionError("only teachers of the course can create assignments")
	}

	a := &Assignment{
		ID:          uuid.New(),
		CourseID:    params.CourseID,
		Title:       strings.TrimSpace(params.Title),
		Description: params.Description,
		DueAt:       params.DueAt.UTC(),
		MaxPoints:   params.MaxPoints,
		AllowLate:   params.AllowLate,
		CreatedBy:   creator.ID(),
		CreatedAt:   now.UTC(),
	}

	if err := a.Validate(); err != nil {
		return nil, err
	}

	return a, nil
}

// Validate checks if the Assignment has valid data.
func (a *Assignment) Validate() error {
	if a.ID == uuid.Nil {
		return NewValidationError("id", "cannot be empty", nil)
	}
	if a.CourseID == uuid.Nil {
		return NewValidationError("course_id", "cannot be empty", nil)
	}
	if a.Title == "" {
		return NewValidationError("title", "cannot be empty", nil)
	}
	if a.DueAt.IsZero() {
		return NewValidationError("due_at", "must be set", nil)
	}
	if !isFinite(a.MaxPoints) || a.MaxPoints <= 0 {
		return NewValidationError("max_points", "must be greater than zero", nil)
	}
	return nil
}

// IsLate reports whether work submitted at submittedAt is after the due date.
// Submitting exactly at the due instant is on time.
func (a *Assignment) IsLate(submittedAt time.Time) bool {
	return submittedAt.After(a.DueAt)
}

// AcceptsLateSubmissions reports whether work after the due date is accepted.
func (a *Assignment) AcceptsLateSubmissions() bool {
	return a.AllowLate
}

// IsPastDue reports whether the due date has passed at now.
func (a *Assignment) IsPastDue(now time.Time) bool {
	return now.After(a.DueAt)
}

// IsUpcoming reports whether the due date is still ahead of now.
func (a *Assignment) IsUpcoming(now time.Time) bool {
	return a.DueAt.After(now)
}
