package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/classroom/internal/domain"
	"github.com/phrazzld/classroom/internal/store"
)

// ServiceError wraps an unexpected failure with the operation that hit it.
type ServiceError struct {
	Operation string
	Message   string
	Err       error
}

// Error implements the error interface for ServiceError.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("%s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewServiceError creates a new ServiceError.
func NewServiceError(operation, message string, err error) *ServiceError {
	return &ServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}

var storeToDomain = []struct {
	storeErr  error
	domainErr error
}{
	{store.ErrPersonNotFound, domain.ErrPersonNotFound},
	{store.ErrCourseNotFound, domain.ErrCourseNotFound},
	{store.ErrAssignmentNotFound, domain.ErrAssignmentNotFound},
	{store.ErrSubmissionNotFound, domain.ErrSubmissionNotFound},
	{store.ErrActiveSubmissionExists, domain.ErrDuplicateSubmission},
}

// translateStoreError maps store errors onto the domain error kinds callers
// match against. Anything unrecognized becomes a ServiceError.
func translateStoreError(operation, message string, err error) error {
	if err == nil {
		return nil
	}
	for _, m := range storeToDomain {
		if errors.Is(err, m.storeErr) {
			return fmt.Errorf("%w: %w", m.domainErr, err)
		}
	}
	switch {
	case store.IsNotFoundError(err):
		return fmt.Errorf("%w: %w", domain.ErrNotFound, err)
	case errors.Is(err, store.ErrDuplicate):
		return fmt.Errorf("%w: %s: %w", domain.ErrValidation, message, err)
	}
	return NewServiceError(operation, message, err)
}

var validate = validator.New()

// validateRequest runs the struct tags of a request and reports the first
// failing field as a domain.ValidationError.
func validateRequest(req interface{}) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return domain.NewValidationError(toSnake(fe.Field()), "failed "+fe.Tag()+" check", nil)
	}
	return domain.NewValidationError("request", err.Error(), nil)
}

func toSnake(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 && (s[i-1] < 'A' || s[i-1] > 'Z') {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}
