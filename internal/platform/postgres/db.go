package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver
	"github.com/phrazzld/classroom/internal/platform/logger"
	"github.com/phrazzld/classroom/internal/store"
)

// Connection pool settings.
const (
	maxOpenConns    = 25
	maxIdleConns    = 5
	connMaxLifetime = 5 * time.Minute
	pingTimeout     = 5 * time.Second
)

// Open connects to the database at url using the pgx stdlib driver and
// verifies the connection.
func Open(ctx context.Context, url string) (*sql.DB, error) {
	db, err := sql.Open("pgx", url)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxLifetime(connMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

// NewRepos returns postgres stores that all run against db, which may be a
// connection pool or a transaction.
func NewRepos(db store.DBTX, logger *slog.Logger) store.Repos {
	courses := NewPostgresCourseStore(db, logger)
	return store.Repos{
		Persons:     NewPostgresPersonStore(db, logger),
		Enrollments: courses,
		Courses:     courses,
		Assignments: NewPostgresAssignmentStore(db, logger),
		Submissions: NewPostgresSubmissionStore(db, logger),
	}
}

// Transactor implements store.Transactor on top of database/sql transactions.
type Transactor struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewTransactor creates a Transactor for db.
func NewTransactor(db *sql.DB, logger *slog.Logger) *Transactor {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Transactor{db: db, logger: logger}
}

var _ store.Transactor = (*Transactor)(nil)

// RunInTx implements store.Transactor.
func (t *Transactor) RunInTx(ctx context.Context, fn func(ctx context.Context, repos store.Repos) error) error {
	log := logger.FromContextOrDefault(ctx, t.logger)
	return store.RunInTransaction(logger.WithLogger(ctx, log), t.db, func(ctx context.Context, tx *sql.Tx) error {
		return fn(ctx, NewRepos(tx, t.logger))
	})
}
