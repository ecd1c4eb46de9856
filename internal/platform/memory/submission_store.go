package memory

import (
	"context"
	"slices"

	"github.com/google/uuid"
	"github.com/phrazzld/classroom/internal/domain"
	"github.com/phrazzld/classroom/internal/store"
)

// SubmissionStore implements store.SubmissionStore. Submissions are kept in
// their record form and rebuilt on every read.
type SubmissionStore struct {
	db *DB
}

// NewSubmissionStore creates a SubmissionStore backed by db.
func NewSubmissionStore(db *DB) *SubmissionStore {
	return &SubmissionStore{db: db}
}

var _ store.SubmissionStore = (*SubmissionStore)(nil)

// Create implements store.SubmissionStore.
func (s *SubmissionStore) Create(ctx context.Context, submission *domain.Submission) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	rec := submission.Record()

	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	if _, ok := s.db.data.submissions[rec.ID]; ok {
		return store.NewStoreError("submission", "create", "id already exists", store.ErrDuplicate)
	}
	if _, ok := s.db.data.assignments[rec.AssignmentID]; !ok {
		return store.NewStoreError("submission", "create", "assignment does not exist", store.ErrAssignmentNotFound)
	}
	if err := s.claimActive(rec); err != nil {
		return err
	}
	s.db.data.submissions[rec.ID] = rec
	return nil
}

// Update implements store.SubmissionStore.
func (s *SubmissionStore) Update(ctx context.Context, submission *domain.Submission) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	rec := submission.Record()

	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	if _, ok := s.db.data.submissions[rec.ID]; !ok {
		return store.ErrSubmissionNotFound
	}
	if err := s.claimActive(rec); err != nil {
		return err
	}
	s.db.data.submissions[rec.ID] = rec
	return nil
}

// claimActive keeps the active-pair index in step with rec. It must be called
// with the write lock held.
func (s *SubmissionStore) claimActive(rec domain.SubmissionRecord) error {
	key := pairKey{assignmentID: rec.AssignmentID, studentID: rec.StudentID}
	holder, held := s.db.data.active[key]

	if rec.WithdrawnAt != nil {
		if held && holder == rec.ID {
			delete(s.db.data.active, key)
		}
		return nil
	}
	if held && holder != rec.ID {
		return store.ErrActiveSubmissionExists
	}
	s.db.data.active[key] = rec.ID
	return nil
}

// GetByID implements store.SubmissionStore.
func (s *SubmissionStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Submission, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.db.mu.RLock()
	rec, ok := s.db.data.submissions[id]
	s.db.mu.RUnlock()

	if !ok {
		return nil, store.ErrSubmissionNotFound
	}
	return fromRecord(rec)
}

// FindByAssignmentAndStudent implements store.SubmissionStore.
func (s *SubmissionStore) FindByAssignmentAndStudent(
	ctx context.Context,
	assignmentID, studentID uuid.UUID,
) (*domain.Submission, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.db.mu.RLock()
	id, ok := s.db.data.active[pairKey{assignmentID: assignmentID, studentID: studentID}]
	rec := s.db.data.submissions[id]
	s.db.mu.RUnlock()

	if !ok {
		return nil, store.ErrSubmissionNotFound
	}
	return fromRecord(rec)
}

// ListByAssignment implements store.SubmissionStore.
func (s *SubmissionStore) ListByAssignment(ctx context.Context, assignmentID uuid.UUID) ([]*domain.Submission, error) {
	return s.list(ctx, func(rec domain.SubmissionRecord) bool {
		return rec.AssignmentID == assignmentID
	})
}

// ListUngraded implements store.SubmissionStore.
func (s *SubmissionStore) ListUngraded(ctx context.Context, assignmentID uuid.UUID) ([]*domain.Submission, error) {
	return s.list(ctx, func(rec domain.SubmissionRecord) bool {
		return rec.AssignmentID == assignmentID && rec.WithdrawnAt == nil && rec.Points == nil
	})
}

func (s *SubmissionStore) list(ctx context.Context, keep func(domain.SubmissionRecord) bool) ([]*domain.Submission, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.db.mu.RLock()
	recs := make([]domain.SubmissionRecord, 0)
	for _, rec := range s.db.data.submissions {
		if keep(rec) {
			recs = append(recs, rec)
		}
	}
	s.db.mu.RUnlock()

	slices.SortFunc(recs, func(a, b domain.SubmissionRecord) int {
		if c := a.SubmittedAt.Compare(b.SubmittedAt); c != 0 {
			return c
		}
		return compareIDs(a.ID, b.ID)
	})

	out := make([]*domain.Submission, 0, len(recs))
	for _, rec := range recs {
		sub, err := fromRecord(rec)
		if err != nil {
			return nil, err
		}
		out = append(out, sub)
	}
	return out, nil
}

func fromRecord(rec domain.SubmissionRecord) (*domain.Submission, error) {
	sub, err := domain.SubmissionFromRecord(rec)
	if err != nil {
		return nil, store.NewStoreError("submission", "load", "stored record is invalid", err)
	}
	return sub, nil
}
