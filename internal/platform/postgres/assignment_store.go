package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/classroom/internal/domain"
	"github.com/phrazzld/classroom/internal/platform/logger"
	"github.com/phrazzld/classroom/internal/store"
)

// PostgresAssignmentStore implements the store.AssignmentStore interface
// using a PostgreSQL database as the storage backend.
type PostgresAssignmentStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresAssignmentStore creates a new PostgreSQL implementation of the AssignmentStore interface.
func NewPostgresAssignmentStore(db store.DBTX, logger *slog.Logger) *PostgresAssignmentStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresAssignmentStore{
		db:     db,
		logger: logger.With(slog.String("component", "assignment_store")),
	}
}

var _ store.AssignmentStore = (*PostgresAssignmentStore)(nil)

const assignmentColumns = `id, course_id, title, description, due_at, max_points, allow_late, created_by, created_at`

// Create implements store.AssignmentStore.Create
func (s *PostgresAssignmentStore) Create(ctx context.Context, a *domain.Assignment) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := a.Validate(); err != nil {
		log.Warn("assignment validation failed during create",
			slog.String("error", err.Error()),
			slog.String("assignment_id", a.ID.String()))
		return err
	}

	query := `
		INSERT INTO assignments (` + assignmentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := s.db.ExecContext(ctx, query,
		a.ID, a.CourseID, a.Title, a.Description, a.DueAt, a.MaxPoints, a.AllowLate, a.CreatedBy, a.CreatedAt,
	)
	if err != nil {
		log.Error("failed to create assignment",
			slog.String("error", err.Error()),
			slog.String("assignment_id", a.ID.String()),
			slog.String("course_id", a.CourseID.String()))
		return MapError(err)
	}

	log.Debug("assignment created",
		slog.String("assignment_id", a.ID.String()),
		slog.Time("due_at", a.DueAt))
	return nil
}

// GetByID implements store.AssignmentStore.GetByID
func (s *PostgresAssignmentStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Assignment, error) {
	a, err := scanAssignment(s.db.QueryRowContext(ctx,
		`SELECT `+assignmentColumns+` FROM assignments WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrAssignmentNotFound
		}
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to get assignment",
			slog.String("error", err.Error()),
			slog.String("assignment_id", id.String()))
		return nil, MapError(err)
	}
	return a, nil
}

// ListByCourse implements store.AssignmentStore.ListByCourse
func (s *PostgresAssignmentStore) ListByCourse(ctx context.Context, courseID uuid.UUID) ([]*domain.Assignment, error) {
	return s.list(ctx, `
		SELECT `+assignmentColumns+` FROM assignments
		WHERE course_id = $1
		ORDER BY due_at, id
	`, courseID)
}

// ListUpcoming implements store.AssignmentStore.ListUpcoming
func (s *PostgresAssignmentStore) ListUpcoming(
	ctx context.Context,
	courseID uuid.UUID,
	now time.Time,
) ([]*domain.Assignment, error) {
	return s.list(ctx, `
		SELECT `+assignmentColumns+` FROM assignments
		WHERE course_id = $1 AND due_at > $2
		ORDER BY due_at, id
	`, courseID, now)
}

func (s *PostgresAssignmentStore) list(ctx context.Context, query string, args ...any) ([]*domain.Assignment, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query assignments", slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	assignments := []*domain.Assignment{}
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		assignments = append(assignments, a)
	}
	return assignments, rows.Err()
}

func scanAssignment(row rowScanner) (*domain.Assignment, error) {
	var a domain.Assignment
	if err := row.Scan(
		&a.ID,
		&a.CourseID,
		&a.Title,
		&a.Description,
		&a.DueAt,
		&a.MaxPoints,
		&a.AllowLate,
		&a.CreatedBy,
		&a.CreatedAt,
	); err != nil {
		return nil, err
	}
	a.DueAt = a.DueAt.UTC()
	a.CreatedAt = a.CreatedAt.UTC()
	return &a, nil
}
