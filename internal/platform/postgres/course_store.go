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

// PostgresCourseStore implements store.CourseStore and store.EnrollmentLookup.
// The course row and its enrollments, announcements and materials are kept in
// separate tables; child rows are append-only.
type PostgresCourseStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresCourseStore creates a new PostgreSQL implementation of the CourseStore interface.
func NewPostgresCourseStore(db store.DBTX, logger *slog.Logger) *PostgresCourseStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresCourseStore{
		db:     db,
		logger: logger.With(slog.String("component", "course_store")),
	}
}

var (
	_ store.CourseStore      = (*PostgresCourseStore)(nil)
	_ store.EnrollmentLookup = (*PostgresCourseStore)(nil)
)

const courseColumns = `id, name, description, created_by, access_code, status, max_students, created_at`

// Create implements store.CourseStore.Create
func (s *PostgresCourseStore) Create(ctx context.Context, course *domain.Course) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		INSERT INTO courses (` + courseColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.db.ExecContext(ctx, query,
		course.ID,
		course.Name,
		course.Description,
		course.CreatedBy,
		string(course.AccessCode),
		string(course.Status),
		nullableInt(course.MaxStudents),
		course.CreatedAt,
	)
	if err != nil {
		log.Error("failed to create course",
			slog.String("error", err.Error()),
			slog.String("course_id", course.ID.String()))
		return MapError(err)
	}

	if err := s.saveChildren(ctx, course); err != nil {
		return err
	}

	log.Debug("course created", slog.String("course_id", course.ID.String()))
	return nil
}

// Update implements store.CourseStore.Update
func (s *PostgresCourseStore) Update(ctx context.Context, course *domain.Course) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE courses
		SET name = $1, description = $2, access_code = $3, status = $4, max_students = $5
		WHERE id = $6
	`
	result, err := s.db.ExecContext(ctx, query,
		course.Name,
		course.Description,
		string(course.AccessCode),
		string(course.Status),
		nullableInt(course.MaxStudents),
		course.ID,
	)
	if err != nil {
		log.Error("failed to update course",
			slog.String("error", err.Error()),
			slog.String("course_id", course.ID.String()))
		return MapError(err)
	}
	if err := CheckRowsAffected(result, store.ErrCourseNotFound); err != nil {
		return err
	}

	return s.saveChildren(ctx, course)
}

// saveChildren inserts child rows that are not stored yet.
func (s *PostgresCourseStore) saveChildren(ctx context.Context, course *domain.Course) error {
	for _, e := range course.Enrollments {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO enrollments (id, course_id, person_id, role, enrolled_at)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (id) DO NOTHING
		`, e.ID, course.ID, e.PersonID, string(e.Role), e.EnrolledAt)
		if err != nil {
			return MapError(err)
		}
	}
	for _, a := range course.Announcements {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO announcements (id, course_id, title, content, created_by, visibility, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (id) DO NOTHING
		`, a.ID, course.ID, a.Title, a.Content, a.CreatedBy, string(a.Visibility), a.CreatedAt)
		if err != nil {
			return MapError(err)
		}
	}
	for _, m := range course.Materials {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO materials (id, course_id, title, description, content_url, created_by, visibility, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (id) DO NOTHING
		`, m.ID, course.ID, m.Title, m.Description, m.ContentURL, m.CreatedBy, string(m.Visibility), m.CreatedAt)
		if err != nil {
			return MapError(err)
		}
	}
	return nil
}

// GetByID implements store.CourseStore.GetByID
func (s *PostgresCourseStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Course, error) {
	return s.getOne(ctx, `SELECT `+courseColumns+` FROM courses WHERE id = $1`, id)
}

// GetByAccessCode implements store.CourseStore.GetByAccessCode
func (s *PostgresCourseStore) GetByAccessCode(ctx context.Context, code domain.AccessCode) (*domain.Course, error) {
	return s.getOne(ctx, `SELECT `+courseColumns+` FROM courses WHERE access_code = $1`, string(code))
}

// ListActive implements store.CourseStore.ListActive
func (s *PostgresCourseStore) ListActive(ctx context.Context) ([]*domain.Course, error) {
	return s.list(ctx, `
		SELECT `+courseColumns+` FROM courses
		WHERE status = $1
		ORDER BY created_at, id
	`, string(domain.CourseStatusActive))
}

// ListByTeacher implements store.CourseStore.ListByTeacher
func (s *PostgresCourseStore) ListByTeacher(ctx context.Context, personID uuid.UUID) ([]*domain.Course, error) {
	return s.list(ctx, `
		SELECT c.id, c.name, c.description, c.created_by, c.access_code, c.status, c.max_students, c.created_at
		FROM courses c
		JOIN enrollments e ON e.course_id = c.id
		WHERE e.person_id = $1 AND e.role = $2
		ORDER BY c.created_at, c.id
	`, personID, string(domain.RoleTeacher))
}

// RoleOf implements store.EnrollmentLookup.RoleOf
func (s *PostgresCourseStore) RoleOf(ctx context.Context, personID, courseID uuid.UUID) (domain.Role, error) {
	var role string
	err := s.db.QueryRowContext(ctx,
		`SELECT role FROM enrollments WHERE person_id = $1 AND course_id = $2`,
		personID, courseID,
	).Scan(&role)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.RoleNone, nil
		}
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to look up role",
			slog.String("error", err.Error()),
			slog.String("course_id", courseID.String()))
		return domain.RoleNone, MapError(err)
	}
	return domain.Role(role), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCourse(row rowScanner) (*domain.Course, error) {
	var (
		c           domain.Course
		accessCode  string
		status      string
		maxStudents sql.NullInt64
	)
	if err := row.Scan(
		&c.ID,
		&c.Name,
		&c.Description,
		&c.CreatedBy,
		&accessCode,
		&status,
		&maxStudents,
		&c.CreatedAt,
	); err != nil {
		return nil, err
	}
	c.AccessCode = domain.AccessCode(accessCode)
	c.Status = domain.CourseStatus(status)
	c.CreatedAt = c.CreatedAt.UTC()
	if maxStudents.Valid {
		n := int(maxStudents.Int64)
		c.MaxStudents = &n
	}
	return &c, nil
}

func (s *PostgresCourseStore) getOne(ctx context.Context, query string, arg any) (*domain.Course, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	c, err := scanCourse(s.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrCourseNotFound
		}
		log.Error("failed to get course", slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	if err := s.loadChildren(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *PostgresCourseStore) list(ctx context.Context, query string, args ...any) ([]*domain.Course, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query courses", slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	courses := []*domain.Course{}
	for rows.Next() {
		c, err := scanCourse(rows)
		if err != nil {
			return nil, err
		}
		courses = append(courses, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Children are loaded after the cursor is drained; a transaction cannot
	// run a second query while rows are still open.
	for _, c := range courses {
		if err := s.loadChildren(ctx, c); err != nil {
			return nil, err
		}
	}
	return courses, nil
}

func (s *PostgresCourseStore) loadChildren(ctx context.Context, c *domain.Course) error {
	if err := s.loadEnrollments(ctx, c); err != nil {
		return err
	}
	if err := s.loadAnnouncements(ctx, c); err != nil {
		return err
	}
	return s.loadMaterials(ctx, c)
}

func (s *PostgresCourseStore) loadEnrollments(ctx context.Context, c *domain.Course) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, person_id, role, enrolled_at FROM enrollments
		WHERE course_id = $1 ORDER BY enrolled_at, id
	`, c.ID)
	if err != nil {
		return MapError(err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var e domain.Enrollment
		var role string
		if err := rows.Scan(&e.ID, &e.PersonID, &role, &e.EnrolledAt); err != nil {
			return err
		}
		e.Role = domain.Role(role)
		e.EnrolledAt = e.EnrolledAt.UTC()
		c.Enrollments = append(c.Enrollments, e)
	}
	return rows.Err()
}

func (s *PostgresCourseStore) loadAnnouncements(ctx context.Context, c *domain.Course) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, content, created_by, visibility, created_at FROM announcements
		WHERE course_id = $1 ORDER BY created_at, id
	`, c.ID)
	if err != nil {
		return MapError(err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var a domain.Announcement
		var visibility string
		if err := rows.Scan(&a.ID, &a.Title, &a.Content, &a.CreatedBy, &visibility, &a.CreatedAt); err != nil {
			return err
		}
		a.Visibility = domain.Visibility(visibility)
		a.CreatedAt = a.CreatedAt.UTC()
		c.Announcements = append(c.Announcements, a)
	}
	return rows.Err()
}

func (s *PostgresCourseStore) loadMaterials(ctx context.Context, c *domain.Course) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, description, content_url, created_by, visibility, created_at FROM materials
		WHERE course_id = $1 ORDER BY created_at, id
	`, c.ID)
	if err != nil {
		return MapError(err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var m domain.Material
		var visibility string
		if err := rows.Scan(&m.ID, &m.Title, &m.Description, &m.ContentURL, &m.CreatedBy, &visibility, &m.CreatedAt); err != nil {
			return err
		}
		m.Visibility = domain.Visibility(visibility)
		m.CreatedAt = m.CreatedAt.UTC()
		c.Materials = append(c.Materials, m)
	}
	return rows.Err()
}

func nullableInt(p *int) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*p), Valid: true}
}
