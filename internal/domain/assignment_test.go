package domain_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/classroom/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAssignment(t *testing.T) {
	t.Parallel()
	c := newClassroom(t)
	now := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

	valid := domain.NewAssignmentParams{
		CourseID:  c.courseID,
		Title:     "Repositories",
		DueAt:     dueAt,
		MaxPoints: 50,
	}

	t.Run("teacher creates assignment", func(t *testing.T) {
		t.Parallel()
		a, err := domain.NewAssignment(valid, c.teacher, now)
		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, a.ID)
		assert.Equal(t, c.teacher.ID(), a.CreatedBy)
		assert.Equal(t, dueAt, a.DueAt)
		assert.False(t, a.AcceptsLateSubmissions())
	})

	t.Run("student cannot create", func(t *testing.T) {
		t.Parallel()
		_, err := domain.NewAssignment(valid, c.student, now)
		assert.ErrorIs(t, err, domain.ErrPermission)
	})

	t.Run("teacher of another course cannot create", func(t *testing.T) {
		t.Parallel()
		outsider := domain.NewActor(c.teacher.Person, uuid.New(), domain.RoleTeacher)
		_, err := domain.NewAssignment(valid, outsider, now)
		assert.ErrorIs(t, err, domain.ErrPermission)
	})

	t.Run("missing due date", func(t *testing.T) {
		t.Parallel()
		p := valid
		p.DueAt = time.Time{}
		_, err := domain.NewAssignment(p, c.teacher, now)
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("non-positive max points", func(t *testing.T) {
		t.Parallel()
		for _, mp := range []float64{0, -10} {
			p := valid
			p.MaxPoints = mp
			_, err := domain.NewAssignment(p, c.teacher, now)
			assert.ErrorIs(t, err, domain.ErrValidation, "max points %v", mp)
		}
	})

	t.Run("permission is checked before validation", func(t *testing.T) {
		t.Parallel()
		p := valid
		p.MaxPoints = 0
		_, err := domain.NewAssignment(p, c.student, now)
		assert.ErrorIs(t, err, domain.ErrPermission)
	})
}

func TestAssignmentIsLate(t *testing.T) {
	t.Parallel()
	a := newClassroom(t).assignment(t, false)

	assert.False(t, a.IsLate(dueAt.Add(-time.Hour)))
	assert.False(t, a.IsLate(dueAt), "submitting exactly at the due instant is on time")
	assert.True(t, a.IsLate(dueAt.Add(time.Second)))
	assert.True(t, a.IsUpcoming(dueAt.Add(-time.Minute)))
	assert.False(t, a.IsUpcoming(dueAt))
	assert.False(t, a.IsPastDue(dueAt))
	assert.True(t, a.IsPastDue(dueAt.Add(time.Nanosecond)))
}
