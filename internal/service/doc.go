// Package service implements the classroom use cases.
//
// Each use case resolves the acting person's role in the course, loads the
// aggregates it needs, lets the domain decide, and persists the result inside
// one store.Transactor unit of work. Domain errors pass through unchanged so
// callers can match them with errors.Is; store failures are translated to
// domain errors or wrapped in a ServiceError. Events are emitted only after a
// unit of work commits.
package service
