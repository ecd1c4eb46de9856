package domain_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/classroom/internal/domain"
	"github.com/stretchr/testify/require"
)

var dueAt = time.Date(2024, 1, 10, 23, 59, 59, 0, time.UTC)

type classroom struct {
	courseID uuid.UUID
	teacher  domain.Actor
	student  domain.Actor
	other    domain.Actor
}

func newClassroom(t *testing.T) classroom {
	t.Helper()
	courseID := uuid.New()
	return classroom{
		courseID: courseID,
		teacher:  domain.NewActor(mustPerson(t, "Dr. Taylor", "taylor@school.edu"), courseID, domain.RoleTeacher),
		student:  domain.NewActor(mustPerson(t, "Sam Parker", "sam@student.edu"), courseID, domain.RoleStudent),
		other:    domain.NewActor(mustPerson(t, "Jamie Stone", "jamie@student.edu"), courseID, domain.RoleStudent),
	}
}

func mustPerson(t *testing.T, name, email string) *domain.Person {
	t.Helper()
	p, err := domain.NewPerson(name, email)
	require.NoError(t, err)
	return p
}

func (c classroom) assignment(t *testing.T, allowLate bool) *domain.Assignment {
	t.Helper()
	a, err := domain.NewAssignment(domain.NewAssignmentParams{
		CourseID:  c.courseID,
		Title:     "Modeling",
		DueAt:     dueAt,
		MaxPoints: 100,
		AllowLate: allowLate,
	}, c.teacher, dueAt.Add(-72*time.Hour))
	require.NoError(t, err)
	return a
}
