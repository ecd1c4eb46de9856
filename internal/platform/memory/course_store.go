package memory

import (
	"context"
	"slices"

	"github.com/google/uuid"
	"github.com/phrazzld/classroom/internal/domain"
	"github.com/phrazzld/classroom/internal/store"
)

// CourseStore implements store.CourseStore and store.EnrollmentLookup.
type CourseStore struct {
	db *DB
}

// NewCourseStore creates a CourseStore backed by db.
func NewCourseStore(db *DB) *CourseStore {
	return &CourseStore{db: db}
}

var (
	_ store.CourseStore      = (*CourseStore)(nil)
	_ store.EnrollmentLookup = (*CourseStore)(nil)
)

// Create implements store.CourseStore.
func (s *CourseStore) Create(ctx context.Context, course *domain.Course) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	if _, ok := s.db.data.courses[course.ID]; ok {
		return store.NewStoreError("course", "create", "id already exists", store.ErrDuplicate)
	}
	if s.codeTaken(course.AccessCode, course.ID) {
		return store.ErrAccessCodeExists
	}
	s.db.data.courses[course.ID] = course.Clone()
	return nil
}

// Update implements store.CourseStore.
func (s *CourseStore) Update(ctx context.Context, course *domain.Course) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	if _, ok := s.db.data.courses[course.ID]; !ok {
		return store.ErrCourseNotFound
	}
	if s.codeTaken(course.AccessCode, course.ID) {
		return store.ErrAccessCodeExists
	}
	s.db.data.courses[course.ID] = course.Clone()
	return nil
}

// codeTaken must be called with the lock held.
func (s *CourseStore) codeTaken(code domain.AccessCode, except uuid.UUID) bool {
	for id, c := range s.db.data.courses {
		if id != except && c.AccessCode == code {
			return true
		}
	}
	return false
}

// GetByID implements store.CourseStore.
func (s *CourseStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Course, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	c, ok := s.db.data.courses[id]
	if !ok {
		return nil, store.ErrCourseNotFound
	}
	return c.Clone(), nil
}

// GetByAccessCode implements store.CourseStore.
func (s *CourseStore) GetByAccessCode(ctx context.Context, code domain.AccessCode) (*domain.Course, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	for _, c := range s.db.data.courses {
		if c.AccessCode == code {
			return c.Clone(), nil
		}
	}
	return nil, store.ErrCourseNotFound
}

// ListActive implements store.CourseStore.
func (s *CourseStore) ListActive(ctx context.Context) ([]*domain.Course, error) {
	return s.list(ctx, func(c *domain.Course) bool { return c.IsActive() })
}

// ListByTeacher implements store.CourseStore.
func (s *CourseStore) ListByTeacher(ctx context.Context, personID uuid.UUID) ([]*domain.Course, error) {
	return s.list(ctx, func(c *domain.Course) bool { return c.RoleOf(personID) == domain.RoleTeacher })
}

func (s *CourseStore) list(ctx context.Context, keep func(*domain.Course) bool) ([]*domain.Course, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	out := make([]*domain.Course, 0)
	for _, c := range s.db.data.courses {
		if keep(c) {
			out = append(out, c.Clone())
		}
	}
	slices.SortFunc(out, func(a, b *domain.Course) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return compareIDs(a.ID, b.ID)
	})
	return out, nil
}

// RoleOf implements store.EnrollmentLookup.
func (s *CourseStore) RoleOf(ctx context.Context, personID, courseID uuid.UUID) (domain.Role, error) {
	if err := ctx.Err(); err != nil {
		return domain.RoleNone, err
	}

	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	c, ok := s.db.data.courses[courseID]
	if !ok {
		return domain.RoleNone, nil
	}
	return c.RoleOf(personID), nil
}

func compareIDs(a, b uuid.UUID) int {
	return slices.Compare(a[:], b[:])
}
