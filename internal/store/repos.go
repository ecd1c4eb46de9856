package store

import "context"

// Repos bundles the stores a use case may touch. Within Transactor.RunInTx
// every store in the bundle shares the same transaction.
type Repos struct {
	Persons     PersonStore
	Enrollments EnrollmentLookup
	Courses     CourseStore
	Assignments AssignmentStore
	Submissions SubmissionStore
}

// Transactor runs a unit of work atomically. If fn returns an error nothing
// it wrote is kept.
type Transactor interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context, repos Repos) error) error
}
