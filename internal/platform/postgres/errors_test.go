package postgres_test

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/phrazzld/classroom/internal/platform/postgres"
	"github.com/phrazzld/classroom/internal/store"
	"github.com/stretchr/testify/assert"
)

func newPgError(code, constraint string) *pgconn.PgError {
	return &pgconn.PgError{
		Code:           code,
		Message:        "error message",
		SchemaName:     "public",
		TableName:      "test_table",
		ColumnName:     "test_column",
		ConstraintName: constraint,
	}
}

// MockResult implements sql.Result for testing.
type MockResult struct {
	rowsAffected int64
	err          error
}

func (m MockResult) LastInsertId() (int64, error) { return 0, nil }
func (m MockResult) RowsAffected() (int64, error) { return m.rowsAffected, m.err }

func TestMapError(t *testing.T) {
	t.Parallel()

	generic := errors.New("some error")

	tests := []struct {
		name  string
		err   error
		errIs error
	}{
		{"nil error", nil, nil},
		{"no rows", sql.ErrNoRows, store.ErrNotFound},
		{"generic error passes through", generic, generic},
		{"email unique", newPgError("23505", "persons_email_key"), store.ErrEmailExists},
		{"access code unique", newPgError("23505", "courses_access_code_key"), store.ErrAccessCodeExists},
		{"active submission unique", newPgError("23505", "submissions_active_pair_idx"), store.ErrActiveSubmissionExists},
		{"other unique", newPgError("23505", "something_else"), store.ErrDuplicate},
		{"assignment course fk", newPgError("23503", "assignments_course_id_fkey"), store.ErrCourseNotFound},
		{"submission assignment fk", newPgError("23503", "submissions_assignment_id_fkey"), store.ErrAssignmentNotFound},
		{"other fk", newPgError("23503", "enrollments_person_id_fkey"), store.ErrInvalidEntity},
		{"check", newPgError("23514", "assignments_max_points_check"), store.ErrInvalidEntity},
		{"not null", newPgError("23502", ""), store.ErrInvalidEntity},
		{"wrapped pg error", fmt.Errorf("insert: %w", newPgError("23505", "persons_email_key")), store.ErrEmailExists},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := postgres.MapError(tt.err)
			if tt.errIs == nil {
				assert.NoError(t, got)
				return
			}
			assert.ErrorIs(t, got, tt.errIs)
		})
	}
}

func TestMapErrorKeepsDuplicateFamily(t *testing.T) {
	t.Parallel()

	got := postgres.MapError(newPgError("23505", "submissions_active_pair_idx"))
	assert.True(t, store.IsDuplicateError(got))
	assert.False(t, store.IsNotFoundError(got))
	assert.Contains(t, got.Error(), "error message", "original error text is preserved")
}

func TestViolationPredicates(t *testing.T) {
	t.Parallel()

	assert.True(t, postgres.IsUniqueViolation(newPgError("23505", "")))
	assert.False(t, postgres.IsUniqueViolation(newPgError("23503", "")))
	assert.False(t, postgres.IsUniqueViolation(errors.New("23505")))
	assert.True(t, postgres.IsForeignKeyViolation(fmt.Errorf("wrapped: %w", newPgError("23503", ""))))
	assert.False(t, postgres.IsForeignKeyViolation(nil))
}

func TestCheckRowsAffected(t *testing.T) {
	t.Parallel()

	assert.Error(t, postgres.CheckRowsAffected(nil, nil))
	assert.ErrorIs(t, postgres.CheckRowsAffected(MockResult{}, nil), store.ErrNotFound)
	assert.ErrorIs(t,
		postgres.CheckRowsAffected(MockResult{}, store.ErrSubmissionNotFound),
		store.ErrSubmissionNotFound)
	assert.NoError(t, postgres.CheckRowsAffected(MockResult{rowsAffected: 1}, nil))

	rowsErr := errors.New("rows affected error")
	assert.ErrorIs(t, postgres.CheckRowsAffected(MockResult{err: rowsErr}, nil), rowsErr)
}
