package memory

import (
	"context"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/classroom/internal/domain"
	"github.com/phrazzld/classroom/internal/store"
)

// AssignmentStore implements store.AssignmentStore.
type AssignmentStore struct {
	db *DB
}

// NewAssignmentStore creates an AssignmentStore backed by db.
func NewAssignmentStore(db *DB) *AssignmentStore {
	return &AssignmentStore{db: db}
}

var _ store.AssignmentStore = (*AssignmentStore)(nil)

// Create implements store.AssignmentStore.
func (s *AssignmentStore) Create(ctx context.Context, assignment *domain.Assignment) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := assignment.Validate(); err != nil {
		return store.NewStoreError("assignment", "create", "invalid assignment", err)
	}

	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	if _, ok := s.db.data.courses[assignment.CourseID]; !ok {
		return store.NewStoreError("assignment", "create", "course does not exist", store.ErrCourseNotFound)
	}
	if _, ok := s.db.data.assignments[assignment.ID]; ok {
		return store.NewStoreError("assignment", "create", "id already exists", store.ErrDuplicate)
	}
	s.db.data.assignments[assignment.ID] = *assignment
	return nil
}

// GetByID implements store.AssignmentStore.
func (s *AssignmentStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Assignment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	a, ok := s.db.data.assignments[id]
	if !ok {
		return nil, store.ErrAssignmentNotFound
	}
	return &a, nil
}

// ListByCourse implements store.AssignmentStore.
func (s *AssignmentStore) ListByCourse(ctx context.Context, courseID uuid.UUID) ([]*domain.Assignment, error) {
	return s.list(ctx, func(a domain.Assignment) bool { return a.CourseID == courseID })
}

// ListUpcoming implements store.AssignmentStore.
func (s *AssignmentStore) ListUpcoming(ctx context.Context, courseID uuid.UUID, now time.Time) ([]*domain.Assignment, error) {
	return s.list(ctx, func(a domain.Assignment) bool {
		return a.CourseID == courseID && a.IsUpcoming(now)
	})
}

func (s *AssignmentStore) list(ctx context.Context, keep func(domain.Assignment) bool) ([]*domain.Assignment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	out := make([]*domain.Assignment, 0)
	for _, a := range s.db.data.assignments {
		if keep(a) {
			out = append(out, &a)
		}
	}
	slices.SortFunc(out, func(a, b *domain.Assignment) int {
		if c := a.DueAt.Compare(b.DueAt); c != 0 {
			return c
		}
		return compareIDs(a.ID, b.ID)
	})
	return out, nil
}
