package domain

import (
	"time"

	"github.com/google/uuid"
)

// SubmissionRecord is the flat, persistable form of a Submission.
// Stores convert with Submission.Record and SubmissionFromRecord; it is not a
// way to construct new submissions.
type SubmissionRecord struct {
	ID               uuid.UUID  `json:"id"`
	AssignmentID     uuid.UUID  `json:"assignment_id"`
	CourseID         uuid.UUID  `json:"course_id"`
	StudentID        uuid.UUID  `json:"student_id"`
	Content          string     `json:"content"`
	FirstSubmittedAt time.Time  `json:"first_submitted_at"`
	SubmittedAt      time.Time  `json:"submitted_at"`
	Late             bool       `json:"late"`
	Attempt          int        `json:"attempt"`
	Points           *float64   `json:"points,omitempty"`
	MaxPoints        *float64   `json:"max_points,omitempty"`
	Feedback         string     `json:"feedback,omitempty"`
	GradedBy         uuid.UUID  `json:"graded_by,omitempty"`
	GradedAt         *time.Time `json:"graded_at,omitempty"`
	WithdrawnAt      *time.Time `json:"withdrawn_at,omitempty"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// Record returns the persistable form of s.
func (s *Submission) Record() SubmissionRecord {
	rec := SubmissionRecord{
		ID:               s.id,
		AssignmentID:     s.assignmentID,
		CourseID:         s.courseID,
		StudentID:        s.studentID,
		Content:          s.content,
		FirstSubmittedAt: s.firstSubmittedAt,
		SubmittedAt:      s.submittedAt,
		Late:             s.late,
		Attempt:          s.attempt,
		Feedback:         s.feedback,
		GradedBy:         s.gradedBy,
		UpdatedAt:        s.updatedAt,
	}
	if s.grade != nil {
		points, maxPoints := s.grade.points, s.grade.maxPoints
		gradedAt := s.gradedAt
		rec.Points = &points
		rec.MaxPoints = &maxPoints
		rec.GradedAt = &gradedAt
	}
	if s.IsWithdrawn() {
		withdrawnAt := s.withdrawnAt
		rec.WithdrawnAt = &withdrawnAt
	}
	return rec
}

// SubmissionFromRecord rebuilds a Submission loaded from storage.
// The grade, if present, is re-validated.
func SubmissionFromRecord(rec SubmissionRecord) (*Submission, error) {
	if rec.ID == uuid.Nil {
		return nil, NewValidationError("id", "cannot be empty", nil)
	}
	if rec.AssignmentID == uuid.Nil || rec.StudentID == uuid.Nil || rec.CourseID == uuid.Nil {
		return nil, NewValidationError("submission", "assignment, course and student are required", nil)
	}
	if rec.Attempt < 1 {
		return nil, NewValidationError("attempt", "must be at least 1", nil)
	}

	s := &Submission{
		id:               rec.ID,
		assignmentID:     rec.AssignmentID,
		courseID:         rec.CourseID,
		studentID:        rec.StudentID,
		content:          rec.Content,
		firstSubmittedAt: rec.FirstSubmittedAt.UTC(),
		submittedAt:      rec.SubmittedAt.UTC(),
		late:             rec.Late,
		attempt:          rec.Attempt,
		feedback:         rec.Feedback,
		gradedBy:         rec.GradedBy,
		updatedAt:        rec.UpdatedAt.UTC(),
	}

	if rec.Points != nil {
		if rec.MaxPoints == nil {
			return nil, NewValidationError("max_points", "required when points are set", nil)
		}
		g, err := NewGrade(*rec.Points, *rec.MaxPoints)
		if err != nil {
			return nil, err
		}
		s.grade = &g
		if rec.GradedAt != nil {
			s.gradedAt = rec.GradedAt.UTC()
		}
	}
	if rec.WithdrawnAt != nil {
		s.withdrawnAt = rec.WithdrawnAt.UTC()
	}

	return s, nil
}

// Clone returns an independent copy of s.
func (s *Submission) Clone() *Submission {
	c := *s
	if s.grade != nil {
		g := *s.grade
		c.grade = &g
	}
	return &c
}
