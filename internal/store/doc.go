// Package store defines the persistence contracts for the classroom domain.
// Interfaces here are implemented by the in-memory platform (for tests and
// demos) and the postgres platform, so use cases never depend on a specific
// database technology.
package store
