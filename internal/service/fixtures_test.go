package service_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/phrazzld/classroom/internal/domain"
	"github.com/phrazzld/classroom/internal/events"
	"github.com/phrazzld/classroom/internal/platform/memory"
	"github.com/phrazzld/classroom/internal/service"
	"github.com/stretchr/testify/require"
)

var (
	start = time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	dueAt = time.Date(2024, 1, 10, 23, 59, 59, 0, time.UTC)
)

// recorder collects emitted events.
type recorder struct {
	mu     sync.Mutex
	events []*events.Event
}

func (r *recorder) HandleEvent(_ context.Context, e *events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

func (r *recorder) last() *events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.events) == 0 {
		return nil
	}
	return r.events[len(r.events)-1]
}

func (r *recorder) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

// env is a classroom backed by the in-memory store: one active course taught
// by teacher with alice and bob enrolled as students.
type env struct {
	db          *memory.DB
	persons     service.PersonService
	courses     service.CourseService
	assignments service.AssignmentService
	submissions service.SubmissionService
	events      *recorder

	teacher *domain.Person
	alice   *domain.Person
	bob     *domain.Person
	course  *domain.Course
}

func newEnv(t *testing.T, policy domain.SubmissionPolicy) *env {
	t.Helper()
	ctx := context.Background()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	db := memory.NewDB(log)
	rec := &recorder{}
	emitter := events.NewInMemoryEventEmitter(log)
	emitter.RegisterHandler(rec)
	opts := []service.Option{
		service.WithEmitter(emitter),
		service.WithClock(func() time.Time { return start }),
	}

	e := &env{db: db, events: rec}
	var err error
	e.persons, err = service.NewPersonService(db, log, opts...)
	require.NoError(t, err)
	e.courses, err = service.NewCourseService(db, log, opts...)
	require.NoError(t, err)
	e.assignments, err = service.NewAssignmentService(db, log, opts...)
	require.NoError(t, err)
	e.submissions, err = service.NewSubmissionService(db, policy, log, opts...)
	require.NoError(t, err)

	e.teacher = e.register(t, "Dr. Taylor", "taylor@school.edu")
	e.alice = e.register(t, "Alice Johnson", "alice@student.edu")
	e.bob = e.register(t, "Bob Smith", "bob@student.edu")

	e.course, err = e.courses.Create(ctx, service.CreateCourseRequest{
		CreatorID:  e.teacher.ID,
		Name:       "Software Engineering",
		AccessCode: "ENG123",
	})
	require.NoError(t, err)
	_, err = e.courses.Activate(ctx, e.course.ID, e.teacher.ID)
	require.NoError(t, err)
	for _, p := range []*domain.Person{e.alice, e.bob} {
		_, err = e.courses.Enroll(ctx, p.ID, "ENG123")
		require.NoError(t, err)
	}

	rec.reset()
	return e
}

func (e *env) register(t *testing.T, name, email string) *domain.Person {
	t.Helper()
	p, err := e.persons.Register(context.Background(), name, email)
	require.NoError(t, err)
	return p
}

func (e *env) assignment(t *testing.T, allowLate bool) *domain.Assignment {
	t.Helper()
	a, err := e.assignments.Create(context.Background(), service.CreateAssignmentRequest{
		CourseID:  e.course.ID,
		CreatorID: e.teacher.ID,
		Title:     "Domain modeling",
		DueAt:     dueAt,
		MaxPoints: 100,
		AllowLate: allowLate,
	})
	require.NoError(t, err)
	return a
}

func (e *env) submit(t *testing.T, a *domain.Assignment, student *domain.Person, at time.Time) *domain.Submission {
	t.Helper()
	sub, err := e.submissions.Submit(context.Background(), service.SubmitRequest{
		AssignmentID: a.ID,
		StudentID:    student.ID,
		Content:      "my answer",
		SubmittedAt:  at,
	})
	require.NoError(t, err)
	return sub
}

func (e *env) grade(t *testing.T, sub *domain.Submission, points float64) *domain.Submission {
	t.Helper()
	graded, err := e.submissions.Grade(context.Background(), service.GradeRequest{
		SubmissionID: sub.ID(),
		GraderID:     e.teacher.ID,
		Points:       points,
		Feedback:     "ok",
		GradedAt:     dueAt.Add(48 * time.Hour),
	})
	require.NoError(t, err)
	return graded
}

func resubmitPolicy(afterGrading bool, basis domain.LatenessBasis) domain.SubmissionPolicy {
	return domain.SubmissionPolicy{
		AllowResubmission:         true,
		AllowResubmitAfterGrading: afterGrading,
		LatenessBasis:             basis,
	}
}
