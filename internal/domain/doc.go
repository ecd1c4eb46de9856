// Package domain contains the classroom's business entities, value objects and
// rules: course-scoped roles, grades, assignments and the submission lifecycle.
// It has no knowledge of storage or delivery.
package domain
