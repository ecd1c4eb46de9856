package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/classroom/internal/domain"
	"github.com/phrazzld/classroom/internal/service"
)

// demoPerson is someone the walkthrough registers.
type demoPerson struct {
	name  string
	email string
}

var (
	demoTeacher  = demoPerson{"Dr. Smith", "smith@school.edu"}
	demoStudents = []demoPerson{
		{"Alice Johnson", "alice@student.edu"},
		{"Bob Williams", "bob@student.edu"},
	}
)

// runDemo walks one course through enrollment, submission and grading and
// reports each step to out.
func (app *application) runDemo(ctx context.Context, out io.Writer) error {
	now := time.Now().UTC()
	p := func(format string, args ...any) { fmt.Fprintf(out, format+"\n", args...) }

	p("=== Virtual Classroom ===")

	teacher, err := app.ensurePerson(ctx, demoTeacher)
	if err != nil {
		return err
	}
	students := make([]*domain.Person, 0, len(demoStudents))
	for _, dp := range demoStudents {
		s, err := app.ensurePerson(ctx, dp)
		if err != nil {
			return err
		}
		students = append(students, s)
	}
	alice, bob := students[0], students[1]

	p("\n1. Creating course")
	code := "WEB" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:5])
	course, err := app.courses.Create(ctx, service.CreateCourseRequest{
		CreatorID:   teacher.ID,
		Name:        "Web Development 101",
		Description: "Learn HTML, CSS, and JavaScript",
		AccessCode:  code,
		MaxStudents: intPtr(20),
	})
	if err != nil {
		return fmt.Errorf("create course: %w", err)
	}
	if _, err := app.courses.Activate(ctx, course.ID, teacher.ID); err != nil {
		return fmt.Errorf("activate course: %w", err)
	}
	p("   course %q created, access code %s", course.Name, code)

	p("\n2. Enrolling students")
	res, err := app.courses.BulkEnroll(ctx, code, []uuid.UUID{alice.ID, bob.ID})
	if err != nil {
		return fmt.Errorf("enroll students: %w", err)
	}
	p("   %d enrolled, %d failed", len(res.Enrolled), len(res.Failed))

	if _, err := app.courses.PostAnnouncement(ctx, service.PostAnnouncementRequest{
		CourseID:   course.ID,
		AuthorID:   teacher.ID,
		Title:      "Welcome",
		Content:    "Office hours are on Fridays.",
		Visibility: domain.VisibilityAll,
	}); err != nil {
		return fmt.Errorf("post announcement: %w", err)
	}
	if _, err := app.courses.AddMaterial(ctx, service.AddMaterialRequest{
		CourseID:   course.ID,
		AuthorID:   teacher.ID,
		Title:      "Grading rubric",
		Visibility: domain.VisibilityTeachersOnly,
	}); err != nil {
		return fmt.Errorf("add material: %w", err)
	}

	p("\n3. Creating assignments")
	html, err := app.assignments.Create(ctx, service.CreateAssignmentRequest{
		CourseID:    course.ID,
		CreatorID:   teacher.ID,
		Title:       "HTML Basics",
		Description: "Create a simple HTML page",
		DueAt:       now.Add(72 * time.Hour),
		MaxPoints:   100,
	})
	if err != nil {
		return fmt.Errorf("create assignment: %w", err)
	}
	quiz, err := app.assignments.Create(ctx, service.CreateAssignmentRequest{
		CourseID:  course.ID,
		CreatorID: teacher.ID,
		Title:     "Warm-up quiz",
		DueAt:     now.Add(-time.Hour),
		MaxPoints: 10,
		AllowLate: true,
	})
	if err != nil {
		return fmt.Errorf("create assignment: %w", err)
	}
	p("   %q due %s", html.Title, html.DueAt.Format("2006-01-02"))
	p("   %q was due %s, late work accepted", quiz.Title, quiz.DueAt.Format(time.RFC3339))

	p("\n4. Submitting work")
	sub, err := app.submissions.Submit(ctx, service.SubmitRequest{
		AssignmentID: html.ID,
		StudentID:    alice.ID,
		Content:      "<html><body><h1>Hello World</h1></body></html>",
		SubmittedAt:  now,
	})
	if err != nil {
		return fmt.Errorf("submit: %w", err)
	}
	p("   %s submitted %q: %s", alice.Name, html.Title, sub.Status())

	_, err = app.submissions.Submit(ctx, service.SubmitRequest{
		AssignmentID: html.ID,
		StudentID:    alice.ID,
		Content:      "second try",
		SubmittedAt:  now.Add(time.Minute),
	})
	p("   second submission by %s: %s", alice.Name, outcome(err))

	_, err = app.submissions.Submit(ctx, service.SubmitRequest{
		AssignmentID: html.ID,
		StudentID:    teacher.ID,
		Content:      "answer key",
		SubmittedAt:  now,
	})
	p("   submission by the teacher: %s", outcome(err))

	lateSub, err := app.submissions.Submit(ctx, service.SubmitRequest{
		AssignmentID: quiz.ID,
		StudentID:    bob.ID,
		Content:      "b, c, a",
		SubmittedAt:  now,
	})
	if err != nil {
		return fmt.Errorf("submit late: %w", err)
	}
	p("   %s submitted %q: %s", bob.Name, quiz.Title, lateSub.Status())

	p("\n5. Grading")
	graded, err := app.submissions.Grade(ctx, service.GradeRequest{
		SubmissionID: sub.ID(),
		GraderID:     teacher.ID,
		Points:       95,
		Feedback:     "Excellent work! Clean HTML structure.",
		GradedAt:     now.Add(time.Hour),
	})
	if err != nil {
		return fmt.Errorf("grade: %w", err)
	}
	g, _ := graded.Grade()
	p("   %s: %s (%.1f%%), %q", alice.Name, g, g.Percentage(), graded.Feedback())

	lateGraded, err := app.submissions.Grade(ctx, service.GradeRequest{
		SubmissionID: lateSub.ID(),
		GraderID:     teacher.ID,
		Points:       7,
		GradedAt:     now.Add(time.Hour),
	})
	if err != nil {
		return fmt.Errorf("grade late: %w", err)
	}
	p("   %s: status %s, late %t", bob.Name, lateGraded.Status(), lateGraded.IsLate())

	_, err = app.submissions.Grade(ctx, service.GradeRequest{
		SubmissionID: sub.ID(),
		GraderID:     bob.ID,
		Points:       100,
	})
	p("   grading by a student: %s", outcome(err))

	_, err = app.submissions.Resubmit(ctx, service.ResubmitRequest{
		SubmissionID: sub.ID(),
		StudentID:    alice.ID,
		Content:      "<html><body><h1>Hello again</h1></body></html>",
		SubmittedAt:  now.Add(2 * time.Hour),
	})
	p("   resubmission after grading: %s", outcome(err))

	p("\n6. Course overview")
	pending, err := app.submissions.PendingStudents(ctx, html.ID, teacher.ID)
	if err != nil {
		return fmt.Errorf("pending students: %w", err)
	}
	for _, s := range pending {
		p("   still waiting on %s for %q", s.Name, html.Title)
	}
	for _, a := range []*domain.Assignment{html, quiz} {
		queue, err := app.submissions.ListUngraded(ctx, a.ID, teacher.ID)
		if err != nil {
			return fmt.Errorf("grading queue: %w", err)
		}
		p("   %d submission(s) to grade for %q", len(queue), a.Title)
	}
	if avg, ok, err := app.submissions.AverageGrade(ctx, html.ID); err != nil {
		return fmt.Errorf("average grade: %w", err)
	} else if ok {
		p("   average for %q: %.1f%%", html.Title, avg)
	}
	stats, err := app.courses.Statistics(ctx, course.ID)
	if err != nil {
		return fmt.Errorf("statistics: %w", err)
	}
	p("   %d students, %d teachers, %d announcements, %d materials",
		stats.TotalStudents, stats.TotalTeachers, stats.TotalAnnouncements, stats.TotalMaterials)
	if stats.EnrollmentPercentage != nil {
		p("   enrollment at %.0f%% of capacity", *stats.EnrollmentPercentage)
	}
	teaching, err := app.courses.ListTeaching(ctx, teacher.ID)
	if err != nil {
		return fmt.Errorf("courses taught: %w", err)
	}
	active, err := app.courses.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("active courses: %w", err)
	}
	p("   %s teaches %d course(s); %d course(s) open overall", teacher.Name, len(teaching), len(active))

	return app.reportMetrics(out)
}

// ensurePerson registers dp, or finds them when a previous run already did.
func (app *application) ensurePerson(ctx context.Context, dp demoPerson) (*domain.Person, error) {
	person, err := app.persons.Register(ctx, dp.name, dp.email)
	if errors.Is(err, service.ErrEmailTaken) {
		return app.persons.GetByEmail(ctx, dp.email)
	}
	if err != nil {
		return nil, fmt.Errorf("register %s: %w", dp.name, err)
	}
	return person, nil
}

func (app *application) reportMetrics(out io.Writer) error {
	if app.recorder == nil {
		return nil
	}
	samples, err := app.recorder.Snapshot()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}

	fmt.Fprintln(out, "\n7. Metrics")
	for _, s := range samples {
		fmt.Fprintf(out, "   %s%s %g\n", s.Name, formatLabels(s.Labels), s.Value)
	}
	return nil
}

func formatLabels(labels map[string]string) string {
	if len(labels) == 0 {
		return ""
	}
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%q", k, labels[k]))
	}
	return "{" + strings.Join(parts, ",") + "}"
}

// outcome describes the result of an operation expected to be rejected.
func outcome(err error) string {
	if err == nil {
		return "accepted"
	}
	return "rejected (" + err.Error() + ")"
}

func intPtr(i int) *int { return &i }
