package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/classroom/internal/domain"
	"github.com/phrazzld/classroom/internal/platform/logger"
	"github.com/phrazzld/classroom/internal/redact"
	"github.com/phrazzld/classroom/internal/store"
)

// PostgresPersonStore implements the store.PersonStore interface
// using a PostgreSQL database as the storage backend.
type PostgresPersonStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresPersonStore creates a new PostgreSQL implementation of the PersonStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresPersonStore(db store.DBTX, logger *slog.Logger) *PostgresPersonStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresPersonStore{
		db:     db,
		logger: logger.With(slog.String("component", "person_store")),
	}
}

var _ store.PersonStore = (*PostgresPersonStore)(nil)

// Create implements store.PersonStore.Create
func (s *PostgresPersonStore) Create(ctx context.Context, person *domain.Person) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := person.Validate(); err != nil {
		log.Warn("person validation failed during create",
			slog.String("error", err.Error()),
			slog.String("person_id", person.ID.String()))
		return err
	}

	query := `
		INSERT INTO persons (id, name, email, created_at)
		VALUES ($1, $2, $3, $4)
	`
	_, err := s.db.ExecContext(ctx, query, person.ID, person.Name, person.Email, person.CreatedAt)
	if err != nil {
		log.Error("failed to create person",
			slog.String("error", err.Error()),
			slog.String("person_id", person.ID.String()),
			slog.String("email", redact.Email(person.Email)))
		return MapError(err)
	}

	log.Debug("person created", slog.String("person_id", person.ID.String()))
	return nil
}

// GetByID implements store.PersonStore.GetByID
func (s *PostgresPersonStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Person, error) {
	query := `SELECT id, name, email, created_at FROM persons WHERE id = $1`
	return s.getOne(ctx, query, id)
}

// GetByEmail implements store.PersonStore.GetByEmail
func (s *PostgresPersonStore) GetByEmail(ctx context.Context, email string) (*domain.Person, error) {
	query := `SELECT id, name, email, created_at FROM persons WHERE LOWER(email) = LOWER($1)`
	return s.getOne(ctx, query, email)
}

func (s *PostgresPersonStore) getOne(ctx context.Context, query string, arg any) (*domain.Person, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var p domain.Person
	err := s.db.QueryRowContext(ctx, query, arg).Scan(&p.ID, &p.Name, &p.Email, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrPersonNotFound
		}
		log.Error("failed to get person", slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	p.CreatedAt = p.CreatedAt.UTC()
	return &p, nil
}
