package memory

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/phrazzld/classroom/internal/domain"
	"github.com/phrazzld/classroom/internal/store"
)

// PersonStore implements store.PersonStore.
type PersonStore struct {
	db *DB
}

// NewPersonStore creates a PersonStore backed by db.
func NewPersonStore(db *DB) *PersonStore {
	return &PersonStore{db: db}
}

var _ store.PersonStore = (*PersonStore)(nil)

// Create implements store.PersonStore.
func (s *PersonStore) Create(ctx context.Context, person *domain.Person) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := person.Validate(); err != nil {
		return store.NewStoreError("person", "create", "invalid person", err)
	}

	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	if _, ok := s.db.data.persons[person.ID]; ok {
		return store.NewStoreError("person", "create", "id already exists", store.ErrDuplicate)
	}
	for _, p := range s.db.data.persons {
		if strings.EqualFold(p.Email, person.Email) {
			return store.ErrEmailExists
		}
	}
	s.db.data.persons[person.ID] = *person
	return nil
}

// GetByID implements store.PersonStore.
func (s *PersonStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Person, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	p, ok := s.db.data.persons[id]
	if !ok {
		return nil, store.ErrPersonNotFound
	}
	return &p, nil
}

// GetByEmail implements store.PersonStore. Matching is case-insensitive.
func (s *PersonStore) GetByEmail(ctx context.Context, email string) (*domain.Person, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	for _, p := range s.db.data.persons {
		if strings.EqualFold(p.Email, email) {
			return &p, nil
		}
	}
	return nil, store.ErrPersonNotFound
}
