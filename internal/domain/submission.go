package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// SubmissionStatus is the externally reported state of a submission.
type SubmissionStatus string

// Possible submission status values. Graded overlays the on-time/late fact,
// which stays available through Submission.IsLate.
const (
	SubmissionStatusSubmitted SubmissionStatus = "submitted"
	SubmissionStatusLate      SubmissionStatus = "late"
	SubmissionStatusGraded    SubmissionStatus = "graded"
	SubmissionStatusWithdrawn SubmissionStatus = "withdrawn"
)

// Submission is a student's work for one assignment. It is created only by
// NewSubmission and changed only through its methods.
type Submission struct {
	id               uuid.UUID
	assignmentID     uuid.UUID
	courseID         uuid.UUID
	studentID        uuid.UUID
	content          string
	firstSubmittedAt time.Time
	submittedAt      time.Time
	late             bool
	attempt          int
	grade            *Grade
	feedback         string
	gradedBy         uuid.UUID
	gradedAt         time.Time
	withdrawnAt      time.Time
	updatedAt        time.Time
}

// NewSubmission records student's work for assignment at submittedAt.
//
// Checks run in this order: the student must hold the student role in the
// assignment's course (ErrPermission), content must be present (ErrValidation),
// late work must be accepted by the assignment (ErrDeadlinePassed), and prior,
// if given, must not be an active submission for the same pair
// (ErrDuplicateSubmission). On failure nothing is created.
func NewSubmission(
	assignment *Assignment,
	student Actor,
	prior *Submission,
	submittedAt time.Time,
	content string,
) (*Submission, error) {
	if assignment == nil {
		return nil, NewValidationError("assignment", "cannot be nil", nil)
	}
	if !student.IsStudentOf(assignment.CourseID) {
		return nil, permissionError("only students of the course can submit work")
	}
	if strings.TrimSpace(content) == "" {
		return nil, NewValidationError("content", "cannot be empty", nil)
	}
	if submittedAt.IsZero() {
		return nil, NewValidationError("submitted_at", "must be set", nil)
	}

	late := assignment.IsLate(submittedAt)
	if late && !assignment.AcceptsLateSubmissions() {
		return nil, deadlineError(assignment, submittedAt)
	}

	if prior != nil && prior.IsActive() &&
		prior.assignmentID == assignment.ID && prior.studentID == student.ID() {
		return nil, fmt.Errorf("%w: submission %s is still active", ErrDuplicateSubmission, prior.id)
	}

	at := submittedAt.UTC()
	return &Submission{
		id:               uuid.New(),
		assignmentID:     assignment.ID,
		courseID:         assignment.CourseID,
		studentID:        student.ID(),
		content:          content,
		firstSubmittedAt: at,
		submittedAt:      at,
		late:             late,
		attempt:          1,
		updatedAt:        at,
	}, nil
}

// AttachGrade grades the submission for points out of the assignment's maximum.
// The grader must teach the owning course and must not be the submitting
// student. An existing grade is replaced.
func (s *Submission) AttachGrade(
	assignment *Assignment,
	grader Actor,
	points float64,
	feedback string,
	at time.Time,
) error {
	if err := s.checkAssignment(assignment); err != nil {
		return err
	}
	if !grader.IsTeacherOf(s.courseID) {
		return permissionError("only teachers of the course can grade submissions")
	}
	if grader.ID() == s.studentID {
		return permissionError("cannot grade own submission")
	}
	if s.IsWithdrawn() {
		return NewValidationError("submission", "withdrawn submissions cannot be graded", nil)
	}

	g, err := NewGrade(points, assignment.MaxPoints)
	if err != nil {
		return err
	}

	s.grade = &g
	s.feedback = feedback
	s.gradedBy = grader.ID()
	s.gradedAt = at.UTC()
	s.updatedAt = at.UTC()
	return nil
}

// Resubmit replaces the content of the submission as permitted by policy.
// Lateness is recomputed from the timestamp the policy selects; a resubmission
// after grading, when allowed, discards the grade.
func (s *Submission) Resubmit(
	assignment *Assignment,
	student Actor,
	policy SubmissionPolicy,
	content string,
	at time.Time,
) error {
	if err := s.checkAssignment(assignment); err != nil {
		return err
	}
	if !student.IsStudentOf(s.courseID) || student.ID() != s.studentID {
		return permissionError("only the submitting student can resubmit")
	}
	if s.IsWithdrawn() {
		return NewValidationError("submission", "withdrawn submissions cannot be resubmitted", nil)
	}
	if !policy.AllowResubmission {
		return fmt.Errorf("%w: resubmission is disabled", ErrResubmissionNotAllowed)
	}
	if s.IsGraded() && !policy.AllowResubmitAfterGrading {
		return fmt.Errorf("%w: submission has already been graded", ErrResubmissionNotAllowed)
	}
	if strings.TrimSpace(content) == "" {
		return NewValidationError("content", "cannot be empty", nil)
	}
	if at.IsZero() {
		return NewValidationError("submitted_at", "must be set", nil)
	}

	basis := at
	if policy.LatenessBasis == LatenessFromOriginal {
		basis = s.firstSubmittedAt
	}
	late := assignment.IsLate(basis)
	if late && !assignment.AcceptsLateSubmissions() {
		return deadlineError(assignment, basis)
	}

	s.content = content
	s.submittedAt = at.UTC()
	s.late = late
	s.attempt++
	s.grade = nil
	s.feedback = ""
	s.gradedBy = uuid.Nil
	s.gradedAt = time.Time{}
	s.updatedAt = at.UTC()
	return nil
}

// Withdraw retracts an ungraded submission, freeing the student to submit again.
func (s *Submission) Withdraw(student Actor, at time.Time) error {
	if !student.IsStudentOf(s.courseID) || student.ID() != s.studentID {
		return permissionError("only the submitting student can withdraw")
	}
	if s.IsWithdrawn() {
		return NewValidationError("submission", "already withdrawn", nil)
	}
	if s.IsGraded() {
		return NewValidationError("submission", "graded submissions cannot be withdrawn", nil)
	}
	s.withdrawnAt = at.UTC()
	s.updatedAt = at.UTC()
	return nil
}

func (s *Submission) checkAssignment(assignment *Assignment) error {
	if assignment == nil {
		return NewValidationError("assignment", "cannot be nil", nil)
	}
	if assignment.ID != s.assignmentID {
		return NewValidationError("assignment", "does not match submission", nil)
	}
	return nil
}

func deadlineError(assignment *Assignment, at time.Time) error {
	return fmt.Errorf("%w: due %s, submitted %s",
		ErrDeadlinePassed,
		assignment.DueAt.Format(time.RFC3339),
		at.UTC().Format(time.RFC3339))
}

// ID returns the submission ID.
func (s *Submission) ID() uuid.UUID { return s.id }

// AssignmentID returns the assignment the work was submitted for.
func (s *Submission) AssignmentID() uuid.UUID { return s.assignmentID }

// CourseID returns the course owning the assignment.
func (s *Submission) CourseID() uuid.UUID { return s.courseID }

// StudentID returns the submitting student.
func (s *Submission) StudentID() uuid.UUID { return s.studentID }

// Content returns the submitted payload.
func (s *Submission) Content() string { return s.content }

// SubmittedAt returns the time of the latest (re)submission.
func (s *Submission) SubmittedAt() time.Time { return s.submittedAt }

// FirstSubmittedAt returns the time of the original submission.
func (s *Submission) FirstSubmittedAt() time.Time { return s.firstSubmittedAt }

// Attempt returns how many times content has been submitted.
func (s *Submission) Attempt() int { return s.attempt }

// Feedback returns the grader's feedback, if any.
func (s *Submission) Feedback() string { return s.feedback }

// GradedBy returns the grading teacher, or uuid.Nil.
func (s *Submission) GradedBy() uuid.UUID { return s.gradedBy }

// GradedAt returns when the grade was attached, or the zero time.
func (s *Submission) GradedAt() time.Time { return s.gradedAt }

// UpdatedAt returns the time of the last change.
func (s *Submission) UpdatedAt() time.Time { return s.updatedAt }

// Grade returns the attached grade and whether there is one.
func (s *Submission) Grade() (Grade, bool) {
	if s.grade == nil {
		return Grade{}, false
	}
	return *s.grade, true
}

// IsLate reports whether the work was submitted after the due date.
func (s *Submission) IsLate() bool { return s.late }

// IsGraded reports whether a grade is attached.
func (s *Submission) IsGraded() bool { return s.grade != nil }

// IsWithdrawn reports whether the student withdrew the submission.
func (s *Submission) IsWithdrawn() bool { return !s.withdrawnAt.IsZero() }

// IsActive reports whether the submission occupies its (assignment, student) slot.
func (s *Submission) IsActive() bool { return !s.IsWithdrawn() }

// Status derives the reported status from the grading and lateness flags.
func (s *Submission) Status() SubmissionStatus {
	switch {
	case s.IsWithdrawn():
		return SubmissionStatusWithdrawn
	case s.IsGraded():
		return SubmissionStatusGraded
	case s.late:
		return SubmissionStatusLate
	default:
		return SubmissionStatusSubmitted
	}
}
