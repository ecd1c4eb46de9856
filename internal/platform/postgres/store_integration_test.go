//go:build integration

package postgres_test

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/classroom/internal/domain"
	"github.com/phrazzld/classroom/internal/platform/postgres"
	"github.com/phrazzld/classroom/internal/store"
	"github.com/phrazzld/classroom/internal/testdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type seeded struct {
	repos      store.Repos
	course     *domain.Course
	teacher    *domain.Person
	student    *domain.Person
	assignment *domain.Assignment
}

// seed creates a course with one teacher, one student and one assignment.
// Emails and access codes are randomised so parallel transactions never
// collide on unique indexes.
func seed(t *testing.T, tx *sql.Tx) seeded {
	t.Helper()
	ctx := context.Background()
	repos := postgres.NewRepos(tx, nil)
	suffix := uuid.NewString()[:8]

	teacher, err := domain.NewPerson("Dr. Taylor", "taylor-"+suffix+"@school.edu")
	require.NoError(t, err)
	student, err := domain.NewPerson("Sam Parker", "sam-"+suffix+"@student.edu")
	require.NoError(t, err)
	require.NoError(t, repos.Persons.Create(ctx, teacher))
	require.NoError(t, repos.Persons.Create(ctx, student))

	code := domain.AccessCode("CODE-" + suffix)
	course, err := domain.NewCourse(teacher, "Software Engineering", "", code, nil, dueAt.Add(-240*time.Hour))
	require.NoError(t, err)
	require.NoError(t, course.Activate())
	require.NoError(t, repos.Courses.Create(ctx, course))

	_, err = course.EnrollStudent(student, string(code), dueAt.Add(-200*time.Hour))
	require.NoError(t, err)
	require.NoError(t, repos.Courses.Update(ctx, course))

	a, err := domain.NewAssignment(domain.NewAssignmentParams{
		CourseID:  course.ID,
		Title:     "Modeling",
		DueAt:     dueAt,
		MaxPoints: 100,
	}, domain.NewActor(teacher, course.ID, domain.RoleTeacher), dueAt.Add(-72*time.Hour))
	require.NoError(t, err)
	require.NoError(t, repos.Assignments.Create(ctx, a))

	return seeded{repos: repos, course: course, teacher: teacher, student: student, assignment: a}
}

func (s seeded) studentActor() domain.Actor {
	return domain.NewActor(s.student, s.course.ID, domain.RoleStudent)
}

func TestPostgresCourseStore_RoundTrip(t *testing.T) {
	t.Parallel()
	db := testdb.GetTestDBWithT(t)

	testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
		s := seed(t, tx)
		ctx := context.Background()

		_, err := s.course.PostAnnouncement(s.teacher.ID, "Welcome", "Hello", domain.VisibilityAll, dueAt)
		require.NoError(t, err)
		_, err = s.course.AddMaterial(s.teacher.ID, "Key", "", "", domain.VisibilityTeachersOnly, dueAt)
		require.NoError(t, err)
		require.NoError(t, s.repos.Courses.Update(ctx, s.course))

		got, err := s.repos.Courses.GetByID(ctx, s.course.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.CourseStatusActive, got.Status)
		assert.Len(t, got.Enrollments, 2)
		assert.Len(t, got.Announcements, 1)
		assert.Len(t, got.Materials, 1)
		assert.Nil(t, got.MaxStudents)

		role, err := s.repos.Enrollments.RoleOf(ctx, s.student.ID, s.course.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.RoleStudent, role)

		byCode, err := s.repos.Courses.GetByAccessCode(ctx, s.course.AccessCode)
		require.NoError(t, err)
		assert.Equal(t, s.course.ID, byCode.ID)

		taught, err := s.repos.Courses.ListByTeacher(ctx, s.teacher.ID)
		require.NoError(t, err)
		assert.Len(t, taught, 1)
	})
}

func TestPostgresSubmissionStore_ActivePairIndex(t *testing.T) {
	t.Parallel()
	db := testdb.GetTestDBWithT(t)

	testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
		s := seed(t, tx)
		ctx := context.Background()

		first, err := domain.NewSubmission(s.assignment, s.studentActor(), nil, dueAt.Add(-time.Hour), "v1")
		require.NoError(t, err)
		require.NoError(t, s.repos.Submissions.Create(ctx, first))

		found, err := s.repos.Submissions.FindByAssignmentAndStudent(ctx, s.assignment.ID, s.student.ID)
		require.NoError(t, err)
		assert.Equal(t, first.ID(), found.ID())
		assert.Equal(t, first.SubmittedAt(), found.SubmittedAt())

		// The partial unique index aborts the transaction, so probe it inside a savepoint.
		_, err = tx.Exec("SAVEPOINT dup")
		require.NoError(t, err)
		second, err := domain.NewSubmission(s.assignment, s.studentActor(), nil, dueAt.Add(-time.Minute), "v2")
		require.NoError(t, err)
		assert.ErrorIs(t, s.repos.Submissions.Create(ctx, second), store.ErrActiveSubmissionExists)
		_, err = tx.Exec("ROLLBACK TO SAVEPOINT dup")
		require.NoError(t, err)

		require.NoError(t, first.Withdraw(s.studentActor(), dueAt.Add(-30*time.Minute)))
		require.NoError(t, s.repos.Submissions.Update(ctx, first))
		require.NoError(t, s.repos.Submissions.Create(ctx, second), "withdrawal frees the slot")

		all, err := s.repos.Submissions.ListByAssignment(ctx, s.assignment.ID)
		require.NoError(t, err)
		assert.Len(t, all, 2)
	})
}

func TestPostgresSubmissionStore_GradePersists(t *testing.T) {
	t.Parallel()
	db := testdb.GetTestDBWithT(t)

	testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
		s := seed(t, tx)
		ctx := context.Background()

		sub, err := domain.NewSubmission(s.assignment, s.studentActor(), nil, dueAt.Add(-time.Hour), "work")
		require.NoError(t, err)
		require.NoError(t, s.repos.Submissions.Create(ctx, sub))

		ungraded, err := s.repos.Submissions.ListUngraded(ctx, s.assignment.ID)
		require.NoError(t, err)
		assert.Len(t, ungraded, 1)

		grader := domain.NewActor(s.teacher, s.course.ID, domain.RoleTeacher)
		require.NoError(t, sub.AttachGrade(s.assignment, grader, 85, "Good", dueAt.Add(time.Hour)))
		require.NoError(t, s.repos.Submissions.Update(ctx, sub))

		got, err := s.repos.Submissions.GetByID(ctx, sub.ID())
		require.NoError(t, err)
		g, ok := got.Grade()
		require.True(t, ok)
		assert.InDelta(t, 85.0, g.Points(), 1e-9)
		assert.InDelta(t, 100.0, g.MaxPoints(), 1e-9)
		assert.Equal(t, s.teacher.ID, got.GradedBy())

		ungraded, err = s.repos.Submissions.ListUngraded(ctx, s.assignment.ID)
		require.NoError(t, err)
		assert.Empty(t, ungraded)
	})
}

func TestPostgresAssignmentStore_ListUpcoming(t *testing.T) {
	t.Parallel()
	db := testdb.GetTestDBWithT(t)

	testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
		s := seed(t, tx)
		ctx := context.Background()

		upcoming, err := s.repos.Assignments.ListUpcoming(ctx, s.course.ID, dueAt.Add(-time.Hour))
		require.NoError(t, err)
		assert.Len(t, upcoming, 1)

		upcoming, err = s.repos.Assignments.ListUpcoming(ctx, s.course.ID, dueAt)
		require.NoError(t, err)
		assert.Empty(t, upcoming)

		_, err = s.repos.Assignments.GetByID(ctx, uuid.New())
		assert.ErrorIs(t, err, store.ErrAssignmentNotFound)
	})
}

func TestSchemaVersion(t *testing.T) {
	db := testdb.GetTestDBWithT(t)

	v, err := postgres.SchemaVersion(context.Background(), db, nil)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, v, int64(4))
}

// TestMigrateDownAndUp drops the whole schema, which breaks integration tests
// running concurrently in other packages, so it only runs when asked for.
func TestMigrateDownAndUp(t *testing.T) {
	if os.Getenv("CLASSROOM_TEST_MIGRATE_DOWN") != "1" {
		t.Skip("set CLASSROOM_TEST_MIGRATE_DOWN=1 to run")
	}
	db := testdb.GetTestDBWithT(t)
	ctx := context.Background()

	require.NoError(t, postgres.MigrateDown(ctx, db, nil))
	v, err := postgres.SchemaVersion(ctx, db, nil)
	require.NoError(t, err)
	assert.Zero(t, v)

	require.NoError(t, postgres.Migrate(ctx, db, nil))
	v, err = postgres.SchemaVersion(ctx, db, nil)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, v, int64(4))
}
