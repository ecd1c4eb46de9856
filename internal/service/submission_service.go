package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/classroom/internal/domain"
	"github.com/phrazzld/classroom/internal/events"
	"github.com/phrazzld/classroom/internal/store"
)

// SubmitRequest asks to record a student's work for an assignment.
type SubmitRequest struct {
	AssignmentID uuid.UUID `validate:"required"`
	StudentID    uuid.UUID `validate:"required"`
	Content      string
	// SubmittedAt defaults to the service clock.
	SubmittedAt time.Time
}

// GradeRequest asks to grade a submission.
type GradeRequest struct {
	SubmissionID uuid.UUID `validate:"required"`
	GraderID     uuid.UUID `validate:"required"`
	Points       float64
	Feedback     string
	// GradedAt defaults to the service clock.
	GradedAt time.Time
}

// ResubmitRequest asks to replace the content of an active submission.
type ResubmitRequest struct {
	SubmissionID uuid.UUID `validate:"required"`
	StudentID    uuid.UUID `validate:"required"`
	Content      string
	// SubmittedAt defaults to the service clock.
	SubmittedAt time.Time
}

// WithdrawRequest asks to retract an ungraded submission.
type WithdrawRequest struct {
	SubmissionID uuid.UUID `validate:"required"`
	StudentID    uuid.UUID `validate:"required"`
	// WithdrawnAt defaults to the service clock.
	WithdrawnAt time.Time
}

// SubmissionService runs the submission lifecycle use cases.
type SubmissionService interface {
	// Submit records a new submission. It fails with ErrNotFound for an unknown
	// assignment or student, ErrPermission when the student is not enrolled as
	// a student, ErrValidation for empty content, ErrDeadlinePassed for late
	// work the assignment does not accept, and ErrDuplicateSubmission when an
	// active submission already exists. Nothing is stored on failure.
	Submit(ctx context.Context, req SubmitRequest) (*domain.Submission, error)

	// Grade attaches or replaces the grade of a submission. The grader must
	// teach the course; points must lie within the assignment's maximum.
	Grade(ctx context.Context, req GradeRequest) (*domain.Submission, error)

	// Resubmit replaces the content of the student's submission when the
	// configured policy allows it.
	Resubmit(ctx context.Context, req ResubmitRequest) (*domain.Submission, error)

	// Withdraw retracts an ungraded submission so the student may submit again.
	Withdraw(ctx context.Context, req WithdrawRequest) (*domain.Submission, error)

	// Get returns a submission by ID.
	Get(ctx context.Context, id uuid.UUID) (*domain.Submission, error)

	// ListForAssignment returns every submission for an assignment. Only
	// teachers of the course may list them.
	ListForAssignment(ctx context.Context, assignmentID, viewerID uuid.UUID) ([]*domain.Submission, error)

	// ListUngraded returns the grading queue: active submissions that have
	// no grade yet. Only teachers of the course may list them.
	ListUngraded(ctx context.Context, assignmentID, viewerID uuid.UUID) ([]*domain.Submission, error)

	// PendingStudents returns the enrolled students without an active
	// submission for the assignment. Only teachers of the course may ask.
	PendingStudents(ctx context.Context, assignmentID, viewerID uuid.UUID) ([]*domain.Person, error)

	// AverageGrade returns the mean grade percentage over graded submissions.
	// ok is false when nothing has been graded yet.
	AverageGrade(ctx context.Context, assignmentID uuid.UUID) (avg float64, ok bool, err error)
}

type submissionServiceImpl struct {
	base
	policy domain.SubmissionPolicy
}

// NewSubmissionService creates a SubmissionService that applies policy to
// resubmissions. It returns an error if tx is nil or the policy is invalid.
func NewSubmissionService(
	tx store.Transactor,
	policy domain.SubmissionPolicy,
	logger *slog.Logger,
	opts ...Option,
) (SubmissionService, error) {
	b, err := newBase(tx, logger, "submission_service", opts)
	if err != nil {
		return nil, err
	}
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	return &submissionServiceImpl{base: b, policy: policy}, nil
}

// Submit implements SubmissionService.Submit.
func (s *submissionServiceImpl) Submit(ctx context.Context, req SubmitRequest) (sub *domain.Submission, err error) {
	const op = "submit"
	defer s.track(op, time.Now(), &err)

	if err := validateRequest(req); err != nil {
		return nil, err
	}
	log := s.log(ctx).With(
		slog.String("assignment_id", req.AssignmentID.String()),
		slog.String("student_id", req.StudentID.String()))
	at := s.at(req.SubmittedAt)

	err = s.tx.RunInTx(ctx, func(ctx context.Context, repos store.Repos) error {
		assignment, err := repos.Assignments.GetByID(ctx, req.AssignmentID)
		if err != nil {
			return translateStoreError(op, "load assignment", err)
		}
		student, err := resolveActor(ctx, repos, op, req.StudentID, assignment.CourseID)
		if err != nil {
			return err
		}
		prior, err := repos.Submissions.FindByAssignmentAndStudent(ctx, assignment.ID, req.StudentID)
		if err != nil && !store.IsNotFoundError(err) {
			return translateStoreError(op, "load prior submission", err)
		}

		sub, err = domain.NewSubmission(assignment, student, prior, at, req.Content)
		if err != nil {
			return err
		}
		if err := repos.Submissions.Create(ctx, sub); err != nil {
			return translateStoreError(op, "save submission", err)
		}
		return nil
	})
	if err != nil {
		logOutcome(log, "submission", err)
		return nil, err
	}

	log.Info("submission recorded",
		slog.String("submission_id", sub.ID().String()),
		slog.String("status", string(sub.Status())))
	s.emit(ctx, events.TypeSubmissionCreated, sub.CourseID(), sub.StudentID(), submissionPayload(sub), at)
	return sub, nil
}

// Grade implements SubmissionService.Grade.
func (s *submissionServiceImpl) Grade(ctx context.Context, req GradeRequest) (sub *domain.Submission, err error) {
	const op = "grade"
	defer s.track(op, time.Now(), &err)

	if err := validateRequest(req); err != nil {
		return nil, err
	}
	log := s.log(ctx).With(
		slog.String("submission_id", req.SubmissionID.String()),
		slog.String("grader_id", req.GraderID.String()))
	at := s.at(req.GradedAt)

	err = s.tx.RunInTx(ctx, func(ctx context.Context, repos store.Repos) error {
		sub, err = repos.Submissions.GetByID(ctx, req.SubmissionID)
		if err != nil {
			return translateStoreError(op, "load submission", err)
		}
		assignment, err := repos.Assignments.GetByID(ctx, sub.AssignmentID())
		if err != nil {
			return translateStoreError(op, "load assignment", err)
		}
		grader, err := resolveActor(ctx, repos, op, req.GraderID, sub.CourseID())
		if err != nil {
			return err
		}

		if err := sub.AttachGrade(assignment, grader, req.Points, req.Feedback, at); err != nil {
			return err
		}
		if err := repos.Submissions.Update(ctx, sub); err != nil {
			return translateStoreError(op, "save grade", err)
		}
		return nil
	})
	if err != nil {
		logOutcome(log, "grading", err)
		return nil, err
	}

	g, _ := sub.Grade()
	log.Info("submission graded",
		slog.Float64("points", g.Points()),
		slog.Float64("max_points", g.MaxPoints()))
	s.emit(ctx, events.TypeSubmissionGraded, sub.CourseID(), req.GraderID, submissionPayload(sub), at)
	return sub, nil
}

// Resubmit implements SubmissionService.Resubmit.
func (s *submissionServiceImpl) Resubmit(ctx context.Context, req ResubmitRequest) (sub *domain.Submission, err error) {
	const op = "resubmit"
	defer s.track(op, time.Now(), &err)

	if err := validateRequest(req); err != nil {
		return nil, err
	}
	log := s.log(ctx).With(
		slog.String("submission_id", req.SubmissionID.String()),
		slog.String("student_id", req.StudentID.String()))
	at := s.at(req.SubmittedAt)

	err = s.tx.RunInTx(ctx, func(ctx context.Context, repos store.Repos) error {
		sub, err = repos.Submissions.GetByID(ctx, req.SubmissionID)
		if err != nil {
			return translateStoreError(op, "load submission", err)
		}
		assignment, err := repos.Assignments.GetByID(ctx, sub.AssignmentID())
		if err != nil {
			return translateStoreError(op, "load assignment", err)
		}
		student, err := resolveActor(ctx, repos, op, req.StudentID, sub.CourseID())
		if err != nil {
			return err
		}

		if err := sub.Resubmit(assignment, student, s.policy, req.Content, at); err != nil {
			return err
		}
		if err := repos.Submissions.Update(ctx, sub); err != nil {
			return translateStoreError(op, "save resubmission", err)
		}
		return nil
	})
	if err != nil {
		logOutcome(log, "resubmission", err)
		return nil, err
	}

	log.Info("submission resubmitted",
		slog.Int("attempt", sub.Attempt()),
		slog.Bool("late", sub.IsLate()))
	s.emit(ctx, events.TypeSubmissionResubmitted, sub.CourseID(), sub.StudentID(), submissionPayload(sub), at)
	return sub, nil
}

// Withdraw implements SubmissionService.Withdraw.
func (s *submissionServiceImpl) Withdraw(ctx context.Context, req WithdrawRequest) (sub *domain.Submission, err error) {
	const op = "withdraw"
	defer s.track(op, time.Now(), &err)

	if err := validateRequest(req); err != nil {
		return nil, err
	}
	at := s.at(req.WithdrawnAt)

	err = s.tx.RunInTx(ctx, func(ctx context.Context, repos store.Repos) error {
		sub, err = repos.Submissions.GetByID(ctx, req.SubmissionID)
		if err != nil {
			return translateStoreError(op, "load submission", err)
		}
		student, err := resolveActor(ctx, repos, op, req.StudentID, sub.CourseID())
		if err != nil {
			return err
		}
		if err := sub.Withdraw(student, at); err != nil {
			return err
		}
		if err := repos.Submissions.Update(ctx, sub); err != nil {
			return translateStoreError(op, "save withdrawal", err)
		}
		return nil
	})
	if err != nil {
		logOutcome(s.log(ctx), "withdrawal", err)
		return nil, err
	}

	s.log(ctx).Info("submission withdrawn", slog.String("submission_id", sub.ID().String()))
	s.emit(ctx, events.TypeSubmissionWithdrawn, sub.CourseID(), sub.StudentID(), submissionPayload(sub), at)
	return sub, nil
}

// Get implements SubmissionService.Get.
func (s *submissionServiceImpl) Get(ctx context.Context, id uuid.UUID) (sub *domain.Submission, err error) {
	err = s.tx.RunInTx(ctx, func(ctx context.Context, repos store.Repos) error {
		sub, err = repos.Submissions.GetByID(ctx, id)
		return translateStoreError("get_submission", "load submission", err)
	})
	if err != nil {
		return nil, err
	}
	return sub, nil
}

// ListForAssignment implements SubmissionService.ListForAssignment.
func (s *submissionServiceImpl) ListForAssignment(
	ctx context.Context,
	assignmentID, viewerID uuid.UUID,
) ([]*domain.Submission, error) {
	return s.listForTeacher(ctx, "list_submissions", assignmentID, viewerID, store.SubmissionStore.ListByAssignment)
}

// ListUngraded implements SubmissionService.ListUngraded.
func (s *submissionServiceImpl) ListUngraded(
	ctx context.Context,
	assignmentID, viewerID uuid.UUID,
) ([]*domain.Submission, error) {
	return s.listForTeacher(ctx, "list_ungraded", assignmentID, viewerID, store.SubmissionStore.ListUngraded)
}

func (s *submissionServiceImpl) listForTeacher(
	ctx context.Context,
	op string,
	assignmentID, viewerID uuid.UUID,
	list func(store.SubmissionStore, context.Context, uuid.UUID) ([]*domain.Submission, error),
) (subs []*domain.Submission, err error) {
	err = s.tx.RunInTx(ctx, func(ctx context.Context, repos store.Repos) error {
		assignment, err := repos.Assignments.GetByID(ctx, assignmentID)
		if err != nil {
			return translateStoreError(op, "load assignment", err)
		}
		if _, err := requireTeacher(ctx, repos, op, viewerID, assignment.CourseID); err != nil {
			return err
		}
		subs, err = list(repos.Submissions, ctx, assignmentID)
		return translateStoreError(op, "list submissions", err)
	})
	if err != nil {
		return nil, err
	}
	return subs, nil
}

// PendingStudents implements SubmissionService.PendingStudents.
func (s *submissionServiceImpl) PendingStudents(
	ctx context.Context,
	assignmentID, viewerID uuid.UUID,
) (pending []*domain.Person, err error) {
	const op = "pending_students"
	err = s.tx.RunInTx(ctx, func(ctx context.Context, repos store.Repos) error {
		assignment, err := repos.Assignments.GetByID(ctx, assignmentID)
		if err != nil {
			return translateStoreError(op, "load assignment", err)
		}
		if _, err := requireTeacher(ctx, repos, op, viewerID, assignment.CourseID); err != nil {
			return err
		}
		course, err := repos.Courses.GetByID(ctx, assignment.CourseID)
		if err != nil {
			return translateStoreError(op, "load course", err)
		}

		for _, studentID := range course.Students() {
			_, err := repos.Submissions.FindByAssignmentAndStudent(ctx, assignmentID, studentID)
			if err == nil {
				continue
			}
			if !store.IsNotFoundError(err) {
				return translateStoreError(op, "load submission", err)
			}
			person, err := repos.Persons.GetByID(ctx, studentID)
			if err != nil {
				return translateStoreError(op, "load student", err)
			}
			pending = append(pending, person)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return pending, nil
}

// AverageGrade implements SubmissionService.AverageGrade.
func (s *submissionServiceImpl) AverageGrade(
	ctx context.Context,
	assignmentID uuid.UUID,
) (avg float64, ok bool, err error) {
	const op = "average_grade"
	err = s.tx.RunInTx(ctx, func(ctx context.Context, repos store.Repos) error {
		if _, err := repos.Assignments.GetByID(ctx, assignmentID); err != nil {
			return translateStoreError(op, "load assignment", err)
		}
		subs, err := repos.Submissions.ListByAssignment(ctx, assignmentID)
		if err != nil {
			return translateStoreError(op, "list submissions", err)
		}
		avg, ok = domain.AverageGradePercentage(subs)
		return nil
	})
	if err != nil {
		return 0, false, err
	}
	return avg, ok, nil
}

func submissionPayload(sub *domain.Submission) events.SubmissionPayload {
	p := events.SubmissionPayload{
		SubmissionID: sub.ID(),
		AssignmentID: sub.AssignmentID(),
		StudentID:    sub.StudentID(),
		Late:         sub.IsLate(),
		Attempt:      sub.Attempt(),
	}
	if g, ok := sub.Grade(); ok {
		pct := g.Percentage()
		p.Percentage = &pct
	}
	return p
}
