package memory_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/classroom/internal/domain"
	"github.com/phrazzld/classroom/internal/platform/memory"
	"github.com/phrazzld/classroom/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var dueAt = time.Date(2024, 1, 10, 23, 59, 59, 0, time.UTC)

type fixture struct {
	db         *memory.DB
	repos      store.Repos
	course     *domain.Course
	teacher    *domain.Person
	student    *domain.Person
	assignment *domain.Assignment
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	ctx := context.Background()
	db := memory.NewDB(nil)
	repos := db.Repos()

	teacher, err := domain.NewPerson("Dr. Taylor", "taylor@school.edu")
	require.NoError(t, err)
	student, err := domain.NewPerson("Sam Parker", "sam@student.edu")
	require.NoError(t, err)
	require.NoError(t, repos.Persons.Create(ctx, teacher))
	require.NoError(t, repos.Persons.Create(ctx, student))

	course, err := domain.NewCourse(teacher, "Software Engineering", "", "ENG123", nil, dueAt.Add(-240*time.Hour))
	require.NoError(t, err)
	require.NoError(t, course.Activate())
	_, err = course.EnrollStudent(student, "ENG123", dueAt.Add(-200*time.Hour))
	require.NoError(t, err)
	require.NoError(t, repos.Courses.Create(ctx, course))

	assignment, err := domain.NewAssignment(domain.NewAssignmentParams{
		CourseID:  course.ID,
		Title:     "Modeling",
		DueAt:     dueAt,
		MaxPoints: 100,
	}, domain.NewActor(teacher, course.ID, domain.RoleTeacher), dueAt.Add(-72*time.Hour))
	require.NoError(t, err)
	require.NoError(t, repos.Assignments.Create(ctx, assignment))

	return fixture{db: db, repos: repos, course: course, teacher: teacher, student: student, assignment: assignment}
}

func (f fixture) studentActor() domain.Actor {
	return domain.NewActor(f.student, f.course.ID, domain.RoleStudent)
}

func (f fixture) submission(t *testing.T, at time.Time) *domain.Submission {
	t.Helper()
	s, err := domain.NewSubmission(f.assignment, f.studentActor(), nil, at, "my work")
	require.NoError(t, err)
	return s
}

func TestPersonStore(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	got, err := f.repos.Persons.GetByEmail(ctx, "SAM@student.edu")
	require.NoError(t, err)
	assert.Equal(t, f.student.ID, got.ID)

	dup, err := domain.NewPerson("Sam Again", "sam@student.edu")
	require.NoError(t, err)
	assert.ErrorIs(t, f.repos.Persons.Create(ctx, dup), store.ErrEmailExists)

	_, err = f.repos.Persons.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, store.ErrPersonNotFound)
}

func TestCourseStore(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	t.Run("reads are copies", func(t *testing.T) {
		got, err := f.repos.Courses.GetByID(ctx, f.course.ID)
		require.NoError(t, err)
		got.Enrollments = nil
		got.Name = "changed"

		again, err := f.repos.Courses.GetByID(ctx, f.course.ID)
		require.NoError(t, err)
		assert.Equal(t, "Software Engineering", again.Name)
		assert.Len(t, again.Enrollments, 2)
	})

	t.Run("role lookup", func(t *testing.T) {
		role, err := f.repos.Enrollments.RoleOf(ctx, f.student.ID, f.course.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.RoleStudent, role)

		role, err = f.repos.Enrollments.RoleOf(ctx, f.teacher.ID, uuid.New())
		require.NoError(t, err)
		assert.Equal(t, domain.RoleNone, role)
	})

	t.Run("access code is unique", func(t *testing.T) {
		other, err := domain.NewCourse(f.teacher, "Other", "", "ENG123", nil, dueAt)
		require.NoError(t, err)
		assert.ErrorIs(t, f.repos.Courses.Create(ctx, other), store.ErrAccessCodeExists)
	})

	t.Run("listing", func(t *testing.T) {
		active, err := f.repos.Courses.ListActive(ctx)
		require.NoError(t, err)
		require.Len(t, active, 1)

		taught, err := f.repos.Courses.ListByTeacher(ctx, f.teacher.ID)
		require.NoError(t, err)
		assert.Len(t, taught, 1)

		taught, err = f.repos.Courses.ListByTeacher(ctx, f.student.ID)
		require.NoError(t, err)
		assert.Empty(t, taught)

		byCode, err := f.repos.Courses.GetByAccessCode(ctx, "ENG123")
		require.NoError(t, err)
		assert.Equal(t, f.course.ID, byCode.ID)
	})
}

func TestAssignmentStoreListUpcoming(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	later, err := domain.NewAssignment(domain.NewAssignmentParams{
		CourseID:  f.course.ID,
		Title:     "Later",
		DueAt:     dueAt.Add(7 * 24 * time.Hour),
		MaxPoints: 10,
	}, domain.NewActor(f.teacher, f.course.ID, domain.RoleTeacher), dueAt)
	require.NoError(t, err)
	require.NoError(t, f.repos.Assignments.Create(ctx, later))

	all, err := f.repos.Assignments.ListByCourse(ctx, f.course.ID)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, f.assignment.ID, all[0].ID, "ordered by due date")

	upcoming, err := f.repos.Assignments.ListUpcoming(ctx, f.course.ID, dueAt.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, upcoming, 1)
	assert.Equal(t, later.ID, upcoming[0].ID)
}

func TestSubmissionStoreActivePairUniqueness(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	first := f.submission(t, dueAt.Add(-time.Hour))
	require.NoError(t, f.repos.Submissions.Create(ctx, first))

	second := f.submission(t, dueAt.Add(-time.Minute))
	err := f.repos.Submissions.Create(ctx, second)
	assert.ErrorIs(t, err, store.ErrActiveSubmissionExists)
	assert.True(t, store.IsDuplicateError(err))

	found, err := f.repos.Submissions.FindByAssignmentAndStudent(ctx, f.assignment.ID, f.student.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID(), found.ID())

	require.NoError(t, first.Withdraw(f.studentActor(), dueAt.Add(-30*time.Minute)))
	require.NoError(t, f.repos.Submissions.Update(ctx, first))

	_, err = f.repos.Submissions.FindByAssignmentAndStudent(ctx, f.assignment.ID, f.student.ID)
	assert.ErrorIs(t, err, store.ErrSubmissionNotFound)

	require.NoError(t, f.repos.Submissions.Create(ctx, second), "withdrawal frees the slot")

	all, err := f.repos.Submissions.ListByAssignment(ctx, f.assignment.ID)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, first.ID(), all[0].ID())
	assert.True(t, all[0].IsWithdrawn())

	ungraded, err := f.repos.Submissions.ListUngraded(ctx, f.assignment.ID)
	require.NoError(t, err)
	require.Len(t, ungraded, 1)
	assert.Equal(t, second.ID(), ungraded[0].ID())
}

func TestSubmissionStoreConcurrentCreate(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	const attempts = 16
	var wg sync.WaitGroup
	errs := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		sub := f.submission(t, dueAt.Add(-time.Hour))
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- f.repos.Submissions.Create(ctx, sub)
		}()
	}
	wg.Wait()
	close(errs)

	var ok, dup int
	for err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, store.ErrActiveSubmissionExists):
			dup++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, attempts-1, dup)
}

func TestSubmissionStoreGradeRoundTrip(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	sub := f.submission(t, dueAt.Add(-time.Hour))
	require.NoError(t, f.repos.Submissions.Create(ctx, sub))

	teacher := domain.NewActor(f.teacher, f.course.ID, domain.RoleTeacher)
	require.NoError(t, sub.AttachGrade(f.assignment, teacher, 85, "Good", dueAt.Add(time.Hour)))
	require.NoError(t, f.repos.Submissions.Update(ctx, sub))

	got, err := f.repos.Submissions.GetByID(ctx, sub.ID())
	require.NoError(t, err)
	g, ok := got.Grade()
	require.True(t, ok)
	assert.InDelta(t, 85.0, g.Points(), 1e-9)
	assert.Equal(t, "Good", got.Feedback())
	assert.Equal(t, domain.SubmissionStatusGraded, got.Status())

	ungraded, err := f.repos.Submissions.ListUngraded(ctx, f.assignment.ID)
	require.NoError(t, err)
	assert.Empty(t, ungraded)
}

func TestRunInTxRollsBack(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	boom := errors.New("boom")

	newcomer, err := domain.NewPerson("Jamie Stone", "jamie@student.edu")
	require.NoError(t, err)

	err = f.db.RunInTx(ctx, func(ctx context.Context, repos store.Repos) error {
		require.NoError(t, repos.Persons.Create(ctx, newcomer))
		require.NoError(t, repos.Submissions.Create(ctx, f.submission(t, dueAt.Add(-time.Hour))))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = f.repos.Persons.GetByID(ctx, newcomer.ID)
	assert.ErrorIs(t, err, store.ErrPersonNotFound)
	_, err = f.repos.Submissions.FindByAssignmentAndStudent(ctx, f.assignment.ID, f.student.ID)
	assert.ErrorIs(t, err, store.ErrSubmissionNotFound, "active index is restored too")

	err = f.db.RunInTx(ctx, func(ctx context.Context, repos store.Repos) error {
		return repos.Persons.Create(ctx, newcomer)
	})
	require.NoError(t, err)
	_, err = f.repos.Persons.GetByID(ctx, newcomer.ID)
	assert.NoError(t, err)
}

func TestRunInTxRollsBackOnPanic(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	newcomer, err := domain.NewPerson("Jamie Stone", "jamie@student.edu")
	require.NoError(t, err)

	assert.Panics(t, func() {
		_ = f.db.RunInTx(ctx, func(ctx context.Context, repos store.Repos) error {
			_ = repos.Persons.Create(ctx, newcomer)
			panic("test panic")
		})
	})

	_, err = f.repos.Persons.GetByID(ctx, newcomer.ID)
	assert.ErrorIs(t, err, store.ErrPersonNotFound)
}

func TestCanceledContext(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.repos.Courses.GetByID(ctx, f.course.ID)
	assert.ErrorIs(t, err, context.Canceled)
	err = f.db.RunInTx(ctx, func(context.Context, store.Repos) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}
