package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/classroom/internal/domain"
	"github.com/phrazzld/classroom/internal/platform/logger"
	"github.com/phrazzld/classroom/internal/store"
)

// PostgresSubmissionStore implements the store.SubmissionStore interface.
// The submissions_active_pair_idx partial unique index enforces one active
// submission per assignment and student.
type PostgresSubmissionStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresSubmissionStore creates a new PostgreSQL implementation of the SubmissionStore interface.
func NewPostgresSubmissionStore(db store.DBTX, logger *slog.Logger) *PostgresSubmissionStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresSubmissionStore{
		db:     db,
		logger: logger.With(slog.String("component", "submission_store")),
	}
}

var _ store.SubmissionStore = (*PostgresSubmissionStore)(nil)

const submissionColumns = `id, assignment_id, course_id, student_id, content, first_submitted_at,
	submitted_at, late, attempt, points, max_points, feedback, graded_by, graded_at,
	withdrawn_at, updated_at`

// Create implements store.SubmissionStore.Create
func (s *PostgresSubmissionStore) Create(ctx context.Context, submission *domain.Submission) error {
	log := logger.FromContextOrDefault(ctx, s.logger)
	rec := submission.Record()

	query := `
		INSERT INTO submissions (` + submissionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`
	_, err := s.db.ExecContext(ctx, query,
		rec.ID,
		rec.AssignmentID,
		rec.CourseID,
		rec.StudentID,
		rec.Content,
		rec.FirstSubmittedAt,
		rec.SubmittedAt,
		rec.Late,
		rec.Attempt,
		rec.Points,
		rec.MaxPoints,
		rec.Feedback,
		nullableUUID(rec.GradedBy),
		rec.GradedAt,
		rec.WithdrawnAt,
		rec.UpdatedAt,
	)
	if err != nil {
		mapped := MapError(err)
		if errors.Is(mapped, store.ErrActiveSubmissionExists) {
			log.Debug("active submission already exists",
				slog.String("assignment_id", rec.AssignmentID.String()),
				slog.String("student_id", rec.StudentID.String()))
			return mapped
		}
		log.Error("failed to create submission",
			slog.String("error", err.Error()),
			slog.String("submission_id", rec.ID.String()))
		return mapped
	}

	log.Debug("submission created",
		slog.String("submission_id", rec.ID.String()),
		slog.Bool("late", rec.Late))
	return nil
}

// Update implements store.SubmissionStore.Update
func (s *PostgresSubmissionStore) Update(ctx context.Context, submission *domain.Submission) error {
	log := logger.FromContextOrDefault(ctx, s.logger)
	rec := submission.Record()

	query := `
		UPDATE submissions
		SET content = $1, submitted_at = $2, late = $3, attempt = $4, points = $5,
			max_points = $6, feedback = $7, graded_by = $8, graded_at = $9,
			withdrawn_at = $10, updated_at = $11
		WHERE id = $12
	`
	result, err := s.db.ExecContext(ctx, query,
		rec.Content,
		rec.SubmittedAt,
		rec.Late,
		rec.Attempt,
		rec.Points,
		rec.MaxPoints,
		rec.Feedback,
		nullableUUID(rec.GradedBy),
		rec.GradedAt,
		rec.WithdrawnAt,
		rec.UpdatedAt,
		rec.ID,
	)
	if err != nil {
		log.Error("failed to update submission",
			slog.String("error", err.Error()),
			slog.String("submission_id", rec.ID.String()))
		return MapError(err)
	}
	return CheckRowsAffected(result, store.ErrSubmissionNotFound)
}

// GetByID implements store.SubmissionStore.GetByID
func (s *PostgresSubmissionStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Submission, error) {
	return s.getOne(ctx, `SELECT `+submissionColumns+` FROM submissions WHERE id = $1`, id)
}

// FindByAssignmentAndStudent implements store.SubmissionStore.FindByAssignmentAndStudent
func (s *PostgresSubmissionStore) FindByAssignmentAndStudent(
	ctx context.Context,
	assignmentID, studentID uuid.UUID,
) (*domain.Submission, error) {
	return s.getOne(ctx, `
		SELECT `+submissionColumns+` FROM submissions
		WHERE assignment_id = $1 AND student_id = $2 AND withdrawn_at IS NULL
	`, assignmentID, studentID)
}

// ListByAssignment implements store.SubmissionStore.ListByAssignment
func (s *PostgresSubmissionStore) ListByAssignment(ctx context.Context, assignmentID uuid.UUID) ([]*domain.Submission, error) {
	return s.list(ctx, `
		SELECT `+submissionColumns+` FROM submissions
		WHERE assignment_id = $1
		ORDER BY submitted_at, id
	`, assignmentID)
}

// ListUngraded implements store.SubmissionStore.ListUngraded
func (s *PostgresSubmissionStore) ListUngraded(ctx context.Context, assignmentID uuid.UUID) ([]*domain.Submission, error) {
	return s.list(ctx, `
		SELECT `+submissionColumns+` FROM submissions
		WHERE assignment_id = $1 AND withdrawn_at IS NULL AND points IS NULL
		ORDER BY submitted_at, id
	`, assignmentID)
}

func (s *PostgresSubmissionStore) getOne(ctx context.Context, query string, args ...any) (*domain.Submission, error) {
	sub, err := scanSubmission(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrSubmissionNotFound
		}
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to get submission",
			slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	return sub, nil
}

func (s *PostgresSubmissionStore) list(ctx context.Context, query string, args ...any) ([]*domain.Submission, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query submissions", slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	submissions := []*domain.Submission{}
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, err
		}
		submissions = append(submissions, sub)
	}
	return submissions, rows.Err()
}

func scanSubmission(row rowScanner) (*domain.Submission, error) {
	var (
		rec         domain.SubmissionRecord
		points      sql.NullFloat64
		maxPoints   sql.NullFloat64
		gradedBy    uuid.NullUUID
		gradedAt    sql.NullTime
		withdrawnAt sql.NullTime
	)
	if err := row.Scan(
		&rec.ID,
		&rec.AssignmentID,
		&rec.CourseID,
		&rec.StudentID,
		&rec.Content,
		&rec.FirstSubmittedAt,
		&rec.SubmittedAt,
		&rec.Late,
		&rec.Attempt,
		&points,
		&maxPoints,
		&rec.Feedback,
		&gradedBy,
		&gradedAt,
		&withdrawnAt,
		&rec.UpdatedAt,
	); err != nil {
		return nil, err
	}

	if points.Valid {
		rec.Points = &points.Float64
	}
	if maxPoints.Valid {
		rec.MaxPoints = &maxPoints.Float64
	}
	if gradedBy.Valid {
		rec.GradedBy = gradedBy.UUID
	}
	if gradedAt.Valid {
		rec.GradedAt = &gradedAt.Time
	}
	if withdrawnAt.Valid {
		rec.WithdrawnAt = &withdrawnAt.Time
	}

	sub, err := domain.SubmissionFromRecord(rec)
	if err != nil {
		return nil, store.NewStoreError("submission", "load", "stored row is invalid", err)
	}
	return sub, nil
}

func nullableUUID(id uuid.UUID) uuid.NullUUID {
	return uuid.NullUUID{UUID: id, Valid: id != uuid.Nil}
}
