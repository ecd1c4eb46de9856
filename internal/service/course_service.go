package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/classroom/internal/domain"
	"github.com/phrazzld/classroom/internal/events"
	"github.com/phrazzld/classroom/internal/store"
)

// CreateCourseRequest asks to open a new course. The creator becomes its
// first teacher.
type CreateCourseRequest struct {
	CreatorID   uuid.UUID `validate:"required"`
	Name        string    `validate:"required"`
	Description string
	AccessCode  string `validate:"required"`
	// MaxStudents nil means unlimited.
	MaxStudents *int `validate:"omitempty,gte=1"`
}

// PostAnnouncementRequest asks a teacher to post to a course.
type PostAnnouncementRequest struct {
	CourseID   uuid.UUID `validate:"required"`
	AuthorID   uuid.UUID `validate:"required"`
	Title      string
	Content    string
	// Visibility defaults to domain.VisibilityAll.
	Visibility domain.Visibility
}

// AddMaterialRequest asks a teacher to attach learning material.
type AddMaterialRequest struct {
	CourseID    uuid.UUID `validate:"required"`
	AuthorID    uuid.UUID `validate:"required"`
	Title       string
	Description string
	ContentURL  string `validate:"omitempty,url"`
	// Visibility defaults to domain.VisibilityAll.
	Visibility domain.Visibility
}

// BulkEnrollResult reports which students joined and why the others did not.
type BulkEnrollResult struct {
	Enrolled []uuid.UUID
	Failed   map[uuid.UUID]error
}

// CourseService manages courses, their enrollment and their content.
type CourseService interface {
	// Create opens a draft course.
	Create(ctx context.Context, req CreateCourseRequest) (*domain.Course, error)

	// Activate opens a draft course for enrollment. Teachers only.
	Activate(ctx context.Context, courseID, actorID uuid.UUID) (*domain.Course, error)

	// Archive closes a course. Teachers only.
	Archive(ctx context.Context, courseID, actorID uuid.UUID) (*domain.Course, error)

	// Enroll adds a student to the course identified by accessCode.
	Enroll(ctx context.Context, studentID uuid.UUID, accessCode string) (*domain.Course, error)

	// BulkEnroll enrolls each student with accessCode. A failure for one
	// student does not prevent the others from joining.
	BulkEnroll(ctx context.Context, accessCode string, studentIDs []uuid.UUID) (BulkEnrollResult, error)

	// AddTeacher enrolls personID as a teacher. Only an existing teacher of
	// the course may add one.
	AddTeacher(ctx context.Context, courseID, actorID, personID uuid.UUID) (*domain.Course, error)

	// PostAnnouncement posts an announcement. Teachers only.
	PostAnnouncement(ctx context.Context, req PostAnnouncementRequest) (domain.Announcement, error)

	// AddMaterial attaches learning material. Teachers only.
	AddMaterial(ctx context.Context, req AddMaterialRequest) (domain.Material, error)

	// VisibleAnnouncements returns the announcements viewerID may read.
	VisibleAnnouncements(ctx context.Context, courseID, viewerID uuid.UUID) ([]domain.Announcement, error)

	// VisibleMaterials returns the materials viewerID may read.
	VisibleMaterials(ctx context.Context, courseID, viewerID uuid.UUID) ([]domain.Material, error)

	// Statistics summarizes a course.
	Statistics(ctx context.Context, courseID uuid.UUID) (domain.CourseStatistics, error)

	// ListActive returns the courses open for enrollment, oldest first.
	ListActive(ctx context.Context) ([]*domain.Course, error)

	// ListTeaching returns the courses personID teaches.
	ListTeaching(ctx context.Context, personID uuid.UUID) ([]*domain.Course, error)
}

type courseServiceImpl struct {
	base
}

// NewCourseService creates a CourseService.
func NewCourseService(tx store.Transactor, logger *slog.Logger, opts ...Option) (CourseService, error) {
	b, err := newBase(tx, logger, "course_service", opts)
	if err != nil {
		return nil, err
	}
	return &courseServiceImpl{base: b}, nil
}

// Create implements CourseService.Create.
func (s *courseServiceImpl) Create(ctx context.Context, req CreateCourseRequest) (c *domain.Course, err error) {
	const op = "create_course"
	defer s.track(op, time.Now(), &err)

	if err := validateRequest(req); err != nil {
		return nil, err
	}
	code, err := domain.NewAccessCode(req.AccessCode)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()

	err = s.tx.RunInTx(ctx, func(ctx context.Context, repos store.Repos) error {
		creator, err := repos.Persons.GetByID(ctx, req.CreatorID)
		if err != nil {
			return translateStoreError(op, "load creator", err)
		}
		c, err = domain.NewCourse(creator, req.Name, req.Description, code, req.MaxStudents, now)
		if err != nil {
			return err
		}
		return translateStoreError(op, "save course", repos.Courses.Create(ctx, c))
	})
	if err != nil {
		logOutcome(s.log(ctx), "course creation", err)
		return nil, err
	}

	s.log(ctx).Info("course created",
		slog.String("course_id", c.ID.String()),
		slog.String("name", c.Name))
	s.emit(ctx, events.TypeCourseCreated, c.ID, req.CreatorID, events.CoursePayload{Name: c.Name}, now)
	return c, nil
}

// Activate implements CourseService.Activate.
func (s *courseServiceImpl) Activate(ctx context.Context, courseID, actorID uuid.UUID) (*domain.Course, error) {
	return s.changeStatus(ctx, "activate_course", events.TypeCourseActivated, courseID, actorID,
		func(c *domain.Course) error { return c.Activate() })
}

// Archive implements CourseService.Archive.
func (s *courseServiceImpl) Archive(ctx context.Context, courseID, actorID uuid.UUID) (*domain.Course, error) {
	return s.changeStatus(ctx, "archive_course", events.TypeCourseArchived, courseID, actorID,
		func(c *domain.Course) error { c.Archive(); return nil })
}

func (s *courseServiceImpl) changeStatus(
	ctx context.Context,
	op, eventType string,
	courseID, actorID uuid.UUID,
	change func(*domain.Course) error,
) (c *domain.Course, err error) {
	defer s.track(op, time.Now(), &err)

	err = s.tx.RunInTx(ctx, func(ctx context.Context, repos store.Repos) error {
		c, err = repos.Courses.GetByID(ctx, courseID)
		if err != nil {
			return translateStoreError(op, "load course", err)
		}
		if _, err := requireTeacher(ctx, repos, op, actorID, courseID); err != nil {
			return err
		}
		if err := change(c); err != nil {
			return err
		}
		return translateStoreError(op, "save course", repos.Courses.Update(ctx, c))
	})
	if err != nil {
		logOutcome(s.log(ctx), op, err)
		return nil, err
	}

	s.log(ctx).Info("course status changed",
		slog.String("course_id", courseID.String()),
		slog.String("status", string(c.Status)))
	s.emit(ctx, eventType, courseID, actorID, events.CoursePayload{Name: c.Name}, s.now())
	return c, nil
}

// Enroll implements CourseService.Enroll.
func (s *courseServiceImpl) Enroll(ctx context.Context, studentID uuid.UUID, accessCode string) (c *domain.Course, err error) {
	const op = "enroll"
	defer s.track(op, time.Now(), &err)

	now := s.now().UTC()
	err = s.tx.RunInTx(ctx, func(ctx context.Context, repos store.Repos) error {
		c, err = courseByCode(ctx, repos, accessCode)
		if err != nil {
			return err
		}
		return s.enrollOne(ctx, repos, c, studentID, accessCode, now)
	})
	if err != nil {
		logOutcome(s.log(ctx).With(slog.String("student_id", studentID.String())), "enrollment", err)
		return nil, err
	}

	s.enrolled(ctx, c, studentID, now)
	return c, nil
}

// BulkEnroll implements CourseService.BulkEnroll.
func (s *courseServiceImpl) BulkEnroll(
	ctx context.Context,
	accessCode string,
	studentIDs []uuid.UUID,
) (res BulkEnrollResult, err error) {
	const op = "bulk_enroll"
	defer s.track(op, time.Now(), &err)

	now := s.now().UTC()
	var course *domain.Course
	err = s.tx.RunInTx(ctx, func(ctx context.Context, repos store.Repos) error {
		res = BulkEnrollResult{Failed: make(map[uuid.UUID]error)}
		course, err = courseByCode(ctx, repos, accessCode)
		if err != nil {
			return err
		}
		for _, id := range studentIDs {
			if err := s.enrollOne(ctx, repos, course, id, accessCode, now); err != nil {
				if !isRejection(err) {
					return err
				}
				res.Failed[id] = err
				continue
			}
			res.Enrolled = append(res.Enrolled, id)
		}
		return nil
	})
	if err != nil {
		logOutcome(s.log(ctx), "bulk enrollment", err)
		return BulkEnrollResult{}, err
	}

	s.log(ctx).Info("bulk enrollment finished",
		slog.String("course_id", course.ID.String()),
		slog.Int("enrolled", len(res.Enrolled)),
		slog.Int("failed", len(res.Failed)))
	for _, id := range res.Enrolled {
		s.enrolled(ctx, course, id, now)
	}
	return res, nil
}

func courseByCode(ctx context.Context, repos store.Repos, accessCode string) (*domain.Course, error) {
	c, err := repos.Courses.GetByAccessCode(ctx, domain.AccessCode(accessCode))
	if errors.Is(err, store.ErrCourseNotFound) {
		return nil, domain.ErrInvalidAccessCode
	}
	if err != nil {
		return nil, translateStoreError("enroll", "load course", err)
	}
	return c, nil
}

// enrollOne enrolls a single student and saves the course. The course is
// left unchanged when enrollment is rejected. A failed save is always a
// ServiceError, since the unit of work cannot continue after it.
func (s *courseServiceImpl) enrollOne(
	ctx context.Context,
	repos store.Repos,
	c *domain.Course,
	studentID uuid.UUID,
	accessCode string,
	now time.Time,
) error {
	person, err := repos.Persons.GetByID(ctx, studentID)
	if err != nil {
		return translateStoreError("enroll", "load student", err)
	}
	if _, err := c.EnrollStudent(person, accessCode, now); err != nil {
		return err
	}
	if err := repos.Courses.Update(ctx, c); err != nil {
		return NewServiceError("enroll", "failed to save enrollment", err)
	}
	return nil
}

func (s *courseServiceImpl) enrolled(ctx context.Context, c *domain.Course, studentID uuid.UUID, at time.Time) {
	s.log(ctx).Info("student enrolled",
		slog.String("course_id", c.ID.String()),
		slog.String("student_id", studentID.String()))
	s.emit(ctx, events.TypeEnrollmentCreated, c.ID, studentID, events.CoursePayload{PersonID: studentID}, at)
}

// AddTeacher implements CourseService.AddTeacher.
func (s *courseServiceImpl) AddTeacher(
	ctx context.Context,
	courseID, actorID, personID uuid.UUID,
) (c *domain.Course, err error) {
	const op = "add_teacher"
	defer s.track(op, time.Now(), &err)

	now := s.now().UTC()
	err = s.tx.RunInTx(ctx, func(ctx context.Context, repos store.Repos) error {
		c, err = repos.Courses.GetByID(ctx, courseID)
		if err != nil {
			return translateStoreError(op, "load course", err)
		}
		if _, err := requireTeacher(ctx, repos, op, actorID, courseID); err != nil {
			return err
		}
		person, err := repos.Persons.GetByID(ctx, personID)
		if err != nil {
			return translateStoreError(op, "load person", err)
		}
		if _, err := c.AddTeacher(person, now); err != nil {
			return err
		}
		return translateStoreError(op, "save course", repos.Courses.Update(ctx, c))
	})
	if err != nil {
		logOutcome(s.log(ctx), "adding teacher", err)
		return nil, err
	}

	s.log(ctx).Info("teacher added",
		slog.String("course_id", courseID.String()),
		slog.String("person_id", personID.String()))
	s.emit(ctx, events.TypeEnrollmentCreated, courseID, actorID, events.CoursePayload{PersonID: personID}, now)
	return c, nil
}

// PostAnnouncement implements CourseService.PostAnnouncement.
func (s *courseServiceImpl) PostAnnouncement(
	ctx context.Context,
	req PostAnnouncementRequest,
) (a domain.Announcement, err error) {
	const op = "post_announcement"
	defer s.track(op, time.Now(), &err)

	if err := validateRequest(req); err != nil {
		return domain.Announcement{}, err
	}
	if req.Visibility == "" {
		req.Visibility = domain.VisibilityAll
	}
	now := s.now().UTC()
	err = s.updateCourse(ctx, op, req.CourseID, func(c *domain.Course) error {
		a, err = c.PostAnnouncement(req.AuthorID, req.Title, req.Content, req.Visibility, now)
		return err
	})
	if err != nil {
		return domain.Announcement{}, err
	}

	s.emit(ctx, events.TypeAnnouncementPosted, req.CourseID, req.AuthorID, events.CoursePayload{ContentID: a.ID}, now)
	return a, nil
}

// AddMaterial implements CourseService.AddMaterial.
func (s *courseServiceImpl) AddMaterial(ctx context.Context, req AddMaterialRequest) (m domain.Material, err error) {
	const op = "add_material"
	defer s.track(op, time.Now(), &err)

	if err := validateRequest(req); err != nil {
		return domain.Material{}, err
	}
	if req.Visibility == "" {
		req.Visibility = domain.VisibilityAll
	}
	now := s.now().UTC()
	err = s.updateCourse(ctx, op, req.CourseID, func(c *domain.Course) error {
		m, err = c.AddMaterial(req.AuthorID, req.Title, req.Description, req.ContentURL, req.Visibility, now)
		return err
	})
	if err != nil {
		return domain.Material{}, err
	}

	s.emit(ctx, events.TypeMaterialAdded, req.CourseID, req.AuthorID, events.CoursePayload{ContentID: m.ID}, now)
	return m, nil
}

// updateCourse loads a course, applies change and saves it in one unit of work.
func (s *courseServiceImpl) updateCourse(
	ctx context.Context,
	op string,
	courseID uuid.UUID,
	change func(*domain.Course) error,
) error {
	err := s.tx.RunInTx(ctx, func(ctx context.Context, repos store.Repos) error {
		c, err := repos.Courses.GetByID(ctx, courseID)
		if err != nil {
			return translateStoreError(op, "load course", err)
		}
		if err := change(c); err != nil {
			return err
		}
		return translateStoreError(op, "save course", repos.Courses.Update(ctx, c))
	})
	if err != nil {
		logOutcome(s.log(ctx).With(slog.String("course_id", courseID.String())), op, err)
	}
	return err
}

// VisibleAnnouncements implements CourseService.VisibleAnnouncements.
func (s *courseServiceImpl) VisibleAnnouncements(
	ctx context.Context,
	courseID, viewerID uuid.UUID,
) ([]domain.Announcement, error) {
	c, err := s.getCourse(ctx, "visible_announcements", courseID)
	if err != nil {
		return nil, err
	}
	return c.VisibleAnnouncements(viewerID), nil
}

// VisibleMaterials implements CourseService.VisibleMaterials.
func (s *courseServiceImpl) VisibleMaterials(
	ctx context.Context,
	courseID, viewerID uuid.UUID,
) ([]domain.Material, error) {
	c, err := s.getCourse(ctx, "visible_materials", courseID)
	if err != nil {
		return nil, err
	}
	return c.VisibleMaterials(viewerID), nil
}

// Statistics implements CourseService.Statistics.
func (s *courseServiceImpl) Statistics(ctx context.Context, courseID uuid.UUID) (domain.CourseStatistics, error) {
	c, err := s.getCourse(ctx, "course_statistics", courseID)
	if err != nil {
		return domain.CourseStatistics{}, err
	}
	return c.Statistics(), nil
}

func (s *courseServiceImpl) getCourse(ctx context.Context, op string, courseID uuid.UUID) (c *domain.Course, err error) {
	err = s.tx.RunInTx(ctx, func(ctx context.Context, repos store.Repos) error {
		c, err = repos.Courses.GetByID(ctx, courseID)
		return translateStoreError(op, "load course", err)
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

// ListActive implements CourseService.ListActive.
func (s *courseServiceImpl) ListActive(ctx context.Context) (courses []*domain.Course, err error) {
	err = s.tx.RunInTx(ctx, func(ctx context.Context, repos store.Repos) error {
		courses, err = repos.Courses.ListActive(ctx)
		return translateStoreError("list_active_courses", "list courses", err)
	})
	if err != nil {
		return nil, err
	}
	return courses, nil
}

// ListTeaching implements CourseService.ListTeaching.
func (s *courseServiceImpl) ListTeaching(ctx context.Context, personID uuid.UUID) (courses []*domain.Course, err error) {
	const op = "list_teaching"
	err = s.tx.RunInTx(ctx, func(ctx context.Context, repos store.Repos) error {
		if _, err := repos.Persons.GetByID(ctx, personID); err != nil {
			return translateStoreError(op, "load person", err)
		}
		courses, err = repos.Courses.ListByTeacher(ctx, personID)
		return translateStoreError(op, "list courses", err)
	})
	if err != nil {
		return nil, err
	}
	return courses, nil
}
