package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// CourseStatus represents the lifecycle state of a course.
type CourseStatus string

// Possible course status values.
const (
	CourseStatusDraft    CourseStatus = "draft"
	CourseStatusActive   CourseStatus = "active"
	CourseStatusArchived CourseStatus = "archived"
)

// Visibility controls who in a course sees a piece of content.
type Visibility string

// Possible visibility values.
const (
	VisibilityAll          Visibility = "all"
	VisibilityTeachersOnly Visibility = "teachers_only"
)

// MinAccessCodeLength is the shortest access code accepted.
const MinAccessCodeLength = 6

// Enrollment errors. Each wraps ErrValidation.
var (
	ErrCourseNotActive   = fmt.Errorf("%w: course is not active", ErrValidation)
	ErrInvalidAccessCode = fmt.Errorf("%w: invalid access code", ErrValidation)
	ErrAlreadyEnrolled   = fmt.Errorf("%w: already enrolled", ErrValidation)
	ErrCourseFull        = fmt.Errorf("%w: course has reached maximum enrollment", ErrValidation)
	ErrCourseArchived    = fmt.Errorf("%w: course is archived", ErrValidation)
)

// AccessCode is the code students present to join a course.
type AccessCode string

// NewAccessCode validates and returns an access code.
func NewAccessCode(value string) (AccessCode, error) {
	value = strings.TrimSpace(value)
	if len(value) < MinAccessCodeLength {
		return "", NewValidationError("access_code",
			fmt.Sprintf("must be at least %d characters", MinAccessCodeLength), nil)
	}
	return AccessCode(value), nil
}

// Enrollment is a person's membership of a course in a given role.
type Enrollment struct {
	ID         uuid.UUID `json:"id"`
	PersonID   uuid.UUID `json:"person_id"`
	Role       Role      `json:"role"`
	EnrolledAt time.Time `json:"enrolled_at"`
}

// Announcement is a message posted to a course.
type Announcement struct {
	ID         uuid.UUID  `json:"id"`
	Title      string     `json:"title"`
	Content    string     `json:"content"`
	CreatedBy  uuid.UUID  `json:"created_by"`
	CreatedAt  time.Time  `json:"created_at"`
	Visibility Visibility `json:"visibility"`
}

// Material is a learning resource attached to a course.
type Material struct {
	ID          uuid.UUID  `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	ContentURL  string     `json:"content_url,omitempty"`
	CreatedBy   uuid.UUID  `json:"created_by"`
	CreatedAt   time.Time  `json:"created_at"`
	Visibility  Visibility `json:"visibility"`
}

func visibleTo(v Visibility, role Role) bool {
	if v == VisibilityAll {
		return true
	}
	return role == RoleTeacher
}

// Course owns its enrollments and content.
type Course struct {
	ID            uuid.UUID      `json:"id"`
	Name          string         `json:"name"`
	Description   string         `json:"description"`
	CreatedBy     uuid.UUID      `json:"created_by"`
	AccessCode    AccessCode     `json:"-"`
	Status        CourseStatus   `json:"status"`
	MaxStudents   *int           `json:"max_students,omitempty"`
	Enrollments   []Enrollment   `json:"enrollments"`
	Announcements []Announcement `json:"announcements"`
	Materials     []Material     `json:"materials"`
	CreatedAt     time.Time      `json:"created_at"`
}

// NewCourse creates a draft course with creator enrolled as its first teacher.
// maxStudents nil means unlimited; a limit must be at least one.
func NewCourse(
	creator *Person,
	name, description string,
	code AccessCode,
	maxStudents *int,
	now time.Time,
) (*Course, error) {
	if creator == nil {
		return nil, NewValidationError("created_by", "cannot be nil", nil)
	}
	if _, err := NewAccessCode(string(code)); err != nil {
		return nil, err
	}
	if maxStudents != nil && *maxStudents < 1 {
		return nil, NewValidationError("max_students", "must be at least 1, or unset for no limit", nil)
	}

	c := &Course{
		ID:          uuid.New(),
		Name:        strings.TrimSpace(name),
		Description: description,
		CreatedBy:   creator.ID,
		AccessCode:  code,
		Status:      CourseStatusDraft,
		MaxStudents: maxStudents,
		CreatedAt:   now.UTC(),
	}
	if c.Name == "" {
		return nil, NewValidationError("name", "cannot be empty", nil)
	}

	c.Enrollments = append(c.Enrollments, Enrollment{
		ID:         uuid.New(),
		PersonID:   creator.ID,
		Role:       RoleTeacher,
		EnrolledAt: now.UTC(),
	})
	return c, nil
}

// IsActive reports whether the course is active.
func (c *Course) IsActive() bool {
	return c.Status == CourseStatusActive
}

// Activate opens the course. Archived courses cannot be reactivated.
func (c *Course) Activate() error {
	if c.Status == CourseStatusArchived {
		return ErrCourseArchived
	}
	c.Status = CourseStatusActive
	return nil
}

// Archive closes the course.
func (c *Course) Archive() {
	c.Status = CourseStatusArchived
}

// StudentCount returns the number of enrolled students.
func (c *Course) StudentCount() int {
	return c.countRole(RoleStudent)
}

// TeacherCount returns the number of enrolled teachers.
func (c *Course) TeacherCount() int {
	return c.countRole(RoleTeacher)
}

func (c *Course) countRole(role Role) int {
	n := 0
	for _, e := range c.Enrollments {
		if e.Role == role {
			n++
		}
	}
	return n
}

// CanAcceptStudents reports whether the course is active and below capacity.
func (c *Course) CanAcceptStudents() bool {
	if !c.IsActive() {
		return false
	}
	if c.MaxStudents == nil {
		return true
	}
	return c.StudentCount() < *c.MaxStudents
}

// EnrollStudent adds person as a student after checking the course is
// active, the code matches, the person is new to the course and capacity remains.
func (c *Course) EnrollStudent(person *Person, code string, now time.Time) (Enrollment, error) {
	if person == nil {
		return Enrollment{}, NewValidationError("person", "cannot be nil", nil)
	}
	if !c.IsActive() {
		return Enrollment{}, fmt.Errorf("%w: %q", ErrCourseNotActive, c.Name)
	}
	if code != string(c.AccessCode) {
		return Enrollment{}, ErrInvalidAccessCode
	}
	if c.IsEnrolled(person.ID) {
		return Enrollment{}, fmt.Errorf("%w: %s", ErrAlreadyEnrolled, person.Name)
	}
	if !c.CanAcceptStudents() {
		return Enrollment{}, fmt.Errorf("%w of %d", ErrCourseFull, *c.MaxStudents)
	}

	e := Enrollment{
		ID:         uuid.New(),
		PersonID:   person.ID,
		Role:       RoleStudent,
		EnrolledAt: now.UTC(),
	}
	c.Enrollments = append(c.Enrollments, e)
	return e, nil
}

// AddTeacher enrolls person as an additional teacher.
func (c *Course) AddTeacher(person *Person, now time.Time) (Enrollment, error) {
	if person == nil {
		return Enrollment{}, NewValidationError("person", "cannot be nil", nil)
	}
	if c.IsEnrolled(person.ID) {
		return Enrollment{}, fmt.Errorf("%w: %s", ErrAlreadyEnrolled, person.Name)
	}
	e := Enrollment{
		ID:         uuid.New(),
		PersonID:   person.ID,
		Role:       RoleTeacher,
		EnrolledAt: now.UTC(),
	}
	c.Enrollments = append(c.Enrollments, e)
	return e, nil
}

// RoleOf returns the role personID holds in the course, or RoleNone.
func (c *Course) RoleOf(personID uuid.UUID) Role {
	for _, e := range c.Enrollments {
		if e.PersonID == personID {
			return e.Role
		}
	}
	return RoleNone
}

// IsEnrolled reports whether personID holds any role in the course.
func (c *Course) IsEnrolled(personID uuid.UUID) bool {
	return c.RoleOf(personID) != RoleNone
}

// Students returns the IDs of enrolled students in enrollment order.
func (c *Course) Students() []uuid.UUID {
	var ids []uuid.UUID
	for _, e := range c.Enrollments {
		if e.Role == RoleStudent {
			ids = append(ids, e.PersonID)
		}
	}
	return ids
}

// PostAnnouncement adds an announcement. Only teachers may post.
func (c *Course) PostAnnouncement(
	authorID uuid.UUID,
	title, content string,
	visibility Visibility,
	now time.Time,
) (Announcement, error) {
	if c.RoleOf(authorID) != RoleTeacher {
		return Announcement{}, permissionError("only teachers can post announcements")
	}
	if err := validateVisibility(visibility); err != nil {
		return Announcement{}, err
	}
	if strings.TrimSpace(title) == "" {
		return Announcement{}, NewValidationError("title", "cannot be empty", nil)
	}

	a := Announcement{
		ID:         uuid.New(),
		Title:      title,
		Content:    content,
		CreatedBy:  authorID,
		CreatedAt:  now.UTC(),
		Visibility: visibility,
	}
	c.Announcements = append(c.Announcements, a)
	return a, nil
}

// AddMaterial attaches learning material. Only teachers may add material.
func (c *Course) AddMaterial(
	authorID uuid.UUID,
	title, description, contentURL string,
	visibility Visibility,
	now time.Time,
) (Material, error) {
	if c.RoleOf(authorID) != RoleTeacher {
		return Material{}, permissionError("only teachers can add materials")
	}
	if err := validateVisibility(visibility); err != nil {
		return Material{}, err
	}
	if strings.TrimSpace(title) == "" {
		return Material{}, NewValidationError("title", "cannot be empty", nil)
	}

	m := Material{
		ID:          uuid.New(),
		Title:       title,
		Description: description,
		ContentURL:  contentURL,
		CreatedBy:   authorID,
		CreatedAt:   now.UTC(),
		Visibility:  visibility,
	}
	c.Materials = append(c.Materials, m)
	return m, nil
}

// VisibleAnnouncements returns the announcements personID may read.
// Non-members see nothing.
func (c *Course) VisibleAnnouncements(personID uuid.UUID) []Announcement {
	role := c.RoleOf(personID)
	if role == RoleNone {
		return nil
	}
	var out []Announcement
	for _, a := range c.Announcements {
		if visibleTo(a.Visibility, role) {
			out = append(out, a)
		}
	}
	return out
}

// VisibleMaterials returns the materials personID may read.
func (c *Course) VisibleMaterials(personID uuid.UUID) []Material {
	role := c.RoleOf(personID)
	if role == RoleNone {
		return nil
	}
	var out []Material
	for _, m := range c.Materials {
		if visibleTo(m.Visibility, role) {
			out = append(out, m)
		}
	}
	return out
}

// CourseStatistics summarizes a course.
type CourseStatistics struct {
	TotalStudents      int          `json:"total_students"`
	TotalTeachers      int          `json:"total_teachers"`
	TotalAnnouncements int          `json:"total_announcements"`
	TotalMaterials     int          `json:"total_materials"`
	Status             CourseStatus `json:"status"`
	// EnrollmentPercentage is nil for courses without a student limit.
	EnrollmentPercentage *float64 `json:"enrollment_percentage,omitempty"`
}

// Statistics computes the course summary.
func (c *Course) Statistics() CourseStatistics {
	stats := CourseStatistics{
		TotalStudents:      c.StudentCount(),
		TotalTeachers:      c.TeacherCount(),
		TotalAnnouncements: len(c.Announcements),
		TotalMaterials:     len(c.Materials),
		Status:             c.Status,
	}
	if c.MaxStudents != nil && *c.MaxStudents > 0 {
		pct := float64(stats.TotalStudents) / float64(*c.MaxStudents) * 100
		stats.EnrollmentPercentage = &pct
	}
	return stats
}

// Clone returns a deep copy of the course.
func (c *Course) Clone() *Course {
	cp := *c
	if c.MaxStudents != nil {
		m := *c.MaxStudents
		cp.MaxStudents = &m
	}
	cp.Enrollments = append([]Enrollment(nil), c.Enrollments...)
	cp.Announcements = append([]Announcement(nil), c.Announcements...)
	cp.Materials = append([]Material(nil), c.Materials...)
	return &cp
}

func validateVisibility(v Visibility) error {
	switch v {
	case VisibilityAll, VisibilityTeachersOnly:
		return nil
	default:
		return NewValidationError("visibility", fmt.Sprintf("unknown value %q", v), nil)
	}
}
