package memory

import (
	"context"
	"log/slog"
	"maps"
	"sync"

	"github.com/google/uuid"
	"github.com/phrazzld/classroom/internal/domain"
	"github.com/phrazzld/classroom/internal/platform/logger"
	"github.com/phrazzld/classroom/internal/store"
)

type pairKey struct {
	assignmentID uuid.UUID
	studentID    uuid.UUID
}

type tables struct {
	persons     map[uuid.UUID]domain.Person
	courses     map[uuid.UUID]*domain.Course
	assignments map[uuid.UUID]domain.Assignment
	submissions map[uuid.UUID]domain.SubmissionRecord
	// active indexes the single non-withdrawn submission per pair.
	active map[pairKey]uuid.UUID
}

func newTables() tables {
	return tables{
		persons:     make(map[uuid.UUID]domain.Person),
		courses:     make(map[uuid.UUID]*domain.Course),
		assignments: make(map[uuid.UUID]domain.Assignment),
		submissions: make(map[uuid.UUID]domain.SubmissionRecord),
		active:      make(map[pairKey]uuid.UUID),
	}
}

// snapshot copies the maps. Stored values are never mutated in place, so the
// copies may share them.
func (t tables) snapshot() tables {
	return tables{
		persons:     maps.Clone(t.persons),
		courses:     maps.Clone(t.courses),
		assignments: maps.Clone(t.assignments),
		submissions: maps.Clone(t.submissions),
		active:      maps.Clone(t.active),
	}
}

// DB is an in-memory database shared by the memory stores.
type DB struct {
	mu   sync.RWMutex
	txMu sync.Mutex
	data tables

	logger *slog.Logger
}

// NewDB creates an empty database.
func NewDB(logger *slog.Logger) *DB {
	if logger == nil {
		logger = slog.Default()
	}
	return &DB{
		data:   newTables(),
		logger: logger.With(slog.String("component", "memory_db")),
	}
}

// Repos returns the stores backed by db.
func (db *DB) Repos() store.Repos {
	courses := NewCourseStore(db)
	return store.Repos{
		Persons:     NewPersonStore(db),
		Enrollments: courses,
		Courses:     courses,
		Assignments: NewAssignmentStore(db),
		Submissions: NewSubmissionStore(db),
	}
}

// RunInTx runs fn with exclusive use of the database. If fn returns an error
// or panics, every write it made is discarded.
func (db *DB) RunInTx(ctx context.Context, fn func(ctx context.Context, repos store.Repos) error) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	log := logger.FromContextOrDefault(ctx, db.logger)

	db.txMu.Lock()
	defer db.txMu.Unlock()

	db.mu.RLock()
	saved := db.data.snapshot()
	db.mu.RUnlock()

	rollback := func() {
		db.mu.Lock()
		db.data = saved
		db.mu.Unlock()
	}

	defer func() {
		if p := recover(); p != nil {
			rollback()
			log.Error("rolled back unit of work after panic", slog.Any("panic", p))
			panic(p)
		}
	}()

	if err := fn(ctx, db.Repos()); err != nil {
		rollback()
		log.Debug("rolled back unit of work", slog.String("error", err.Error()))
		return err
	}
	return nil
}

var _ store.Transactor = (*DB)(nil)
