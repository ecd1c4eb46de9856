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

// CreateAssignmentRequest asks a teacher to publish an assignment.
type CreateAssignmentRequest struct {
	CourseID    uuid.UUID `validate:"required"`
	CreatorID   uuid.UUID `validate:"required"`
	Title       string
	Description string
	DueAt       time.Time
	MaxPoints   float64
	AllowLate   bool
}

// AssignmentService manages the assignments of a course.
type AssignmentService interface {
	// Create publishes a new assignment. Only teachers of the course may
	// create one.
	Create(ctx context.Context, req CreateAssignmentRequest) (*domain.Assignment, error)

	// Get returns an assignment by ID.
	Get(ctx context.Context, id uuid.UUID) (*domain.Assignment, error)

	// ListByCourse returns a course's assignments ordered by due date.
	ListByCourse(ctx context.Context, courseID uuid.UUID) ([]*domain.Assignment, error)

	// ListUpcoming returns the assignments of a course still open at now.
	ListUpcoming(ctx context.Context, courseID uuid.UUID, now time.Time) ([]*domain.Assignment, error)
}

type assignmentServiceImpl struct {
	base
}

// NewAssignmentService creates an AssignmentService.
func NewAssignmentService(tx store.Transactor, logger *slog.Logger, opts ...Option) (AssignmentService, error) {
	b, err := newBase(tx, logger, "assignment_service", opts)
	if err != nil {
		return nil, err
	}
	return &assignmentServiceImpl{base: b}, nil
}

// Create implements AssignmentService.Create.
func (s *assignmentServiceImpl) Create(
	ctx context.Context,
	req CreateAssignmentRequest,
) (a *domain.Assignment, err error) {
	const op = "create_assignment"
	defer s.track(op, time.Now(), &err)

	if err := validateRequest(req); err != nil {
		return nil, err
	}
	log := s.log(ctx).With(slog.String("course_id", req.CourseID.String()))
	now := s.now().UTC()

	err = s.tx.RunInTx(ctx, func(ctx context.Context, repos store.Repos) error {
		if _, err := repos.Courses.GetByID(ctx, req.CourseID); err != nil {
			return translateStoreError(op, "load course", err)
		}
		creator, err := resolveActor(ctx, repos, op, req.CreatorID, req.CourseID)
		if err != nil {
			return err
		}
		a, err = domain.NewAssignment(domain.NewAssignmentParams{
			CourseID:    req.CourseID,
			Title:       req.Title,
			Description: req.Description,
			DueAt:       req.DueAt,
			MaxPoints:   req.MaxPoints,
			AllowLate:   req.AllowLate,
		}, creator, now)
		if err != nil {
			return err
		}
		return translateStoreError(op, "save assignment", repos.Assignments.Create(ctx, a))
	})
	if err != nil {
		logOutcome(log, "assignment creation", err)
		return nil, err
	}

	log.Info("assignment created",
		slog.String("assignment_id", a.ID.String()),
		slog.Time("due_at", a.DueAt))
	s.emit(ctx, events.TypeAssignmentCreated, a.CourseID, req.CreatorID, events.AssignmentPayload{
		AssignmentID: a.ID,
		DueAt:        a.DueAt,
		MaxPoints:    a.MaxPoints,
	}, now)
	return a, nil
}

// Get implements AssignmentService.Get.
func (s *assignmentServiceImpl) Get(ctx context.Context, id uuid.UUID) (a *domain.Assignment, err error) {
	err = s.tx.RunInTx(ctx, func(ctx context.Context, repos store.Repos) error {
		a, err = repos.Assignments.GetByID(ctx, id)
		return translateStoreError("get_assignment", "load assignment", err)
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

// ListByCourse implements AssignmentService.ListByCourse.
func (s *assignmentServiceImpl) ListByCourse(
	ctx context.Context,
	courseID uuid.UUID,
) (list []*domain.Assignment, err error) {
	err = s.tx.RunInTx(ctx, func(ctx context.Context, repos store.Repos) error {
		list, err = repos.Assignments.ListByCourse(ctx, courseID)
		return translateStoreError("list_assignments", "list assignments", err)
	})
	if err != nil {
		return nil, err
	}
	return list, nil
}

// ListUpcoming implements AssignmentService.ListUpcoming.
func (s *assignmentServiceImpl) ListUpcoming(
	ctx context.Context,
	courseID uuid.UUID,
	now time.Time,
) (list []*domain.Assignment, err error) {
	at := s.at(now)
	err = s.tx.RunInTx(ctx, func(ctx context.Context, repos store.Repos) error {
		list, err = repos.Assignments.ListUpcoming(ctx, courseID, at)
		return translateStoreError("list_upcoming_assignments", "list assignments", err)
	})
	if err != nil {
		return nil, err
	}
	return list, nil
}
