package domain

import (
	"errors"
	"fmt"
)

// Error kinds surfaced by domain operations. Callers match them with errors.Is;
// more specific errors below wrap one of these.
var (
	// ErrValidation is returned when input is malformed, e.g. a missing due date.
	ErrValidation = errors.New("validation failed")

	// ErrPermission is returned when the actor's course role does not allow the action.
	ErrPermission = errors.New("permission denied")

	// ErrNotFound is returned when a referenced entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDeadlinePassed is returned for a late submission when late work is not accepted.
	ErrDeadlinePassed = errors.New("deadline has passed")

	// ErrDuplicateSubmission is returned when the student already has an active
	// submission for the assignment.
	ErrDuplicateSubmission = errors.New("submission already exists")

	// ErrInvalidGrade is returned when grade points fall outside [0, maxPoints]
	// or maxPoints is not positive.
	ErrInvalidGrade = errors.New("invalid grade")

	// ErrResubmissionNotAllowed is returned when the configured policy forbids
	// replacing an existing submission.
	ErrResubmissionNotAllowed = errors.New("resubmission not allowed")
)

// Entity-specific not-found errors.
var (
	ErrPersonNotFound     = fmt.Errorf("%w: person", ErrNotFound)
	ErrCourseNotFound     = fmt.Errorf("%w: course", ErrNotFound)
	ErrAssignmentNotFound = fmt.Errorf("%w: assignment", ErrNotFound)
	ErrSubmissionNotFound = fmt.Errorf("%w: submission", ErrNotFound)
)

// ValidationError describes which field failed validation.
// It unwraps to ErrValidation.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

// Error implements the error interface for ValidationError.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NewValidationError creates a ValidationError for field. If err is nil the
// error wraps ErrValidation.
func NewValidationError(field, message string, err error) *ValidationError {
	if err == nil {
		err = ErrValidation
	}
	return &ValidationError{
		Field:   field,
		Message: message,
		Err:     err,
	}
}

// permissionError builds an error wrapping ErrPermission with the reason.
func permissionError(reason string) error {
	return fmt.Errorf("%w: %s", ErrPermission, reason)
}
