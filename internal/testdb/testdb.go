//go:build integration

package testdb

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/phrazzld/classroom/internal/ciutil"
	"github.com/phrazzld/classroom/internal/platform/logger"
	"github.com/phrazzld/classroom/internal/platform/postgres"
	"github.com/phrazzld/classroom/internal/redact"
	"github.com/stretchr/testify/require"
)

// TestTimeout bounds connection and migration work in tests.
const TestTimeout = 30 * time.Second

// Environment variables consulted for the test database, in order.
const (
	TestDatabaseURLEnv = "CLASSROOM_TEST_DB_URL"
	DatabaseURLEnv     = "DATABASE_URL"
)

var (
	migrateOnce sync.Once
	migrateErr  error
)

// GetTestDatabaseURL returns the first non-empty of CLASSROOM_TEST_DB_URL and DATABASE_URL.
func GetTestDatabaseURL() string {
	return ciutil.GetEnvWithFallbacks([]string{TestDatabaseURLEnv, DatabaseURLEnv}, "", nil)
}

// ShouldSkipDatabaseTest reports whether no test database is configured.
func ShouldSkipDatabaseTest() bool {
	return GetTestDatabaseURL() == ""
}

// GetTestDBWithT opens the test database and applies migrations once per
// process. Without a configured database the test is skipped locally and
// fails in CI. The connection is closed when the test finishes.
func GetTestDBWithT(t *testing.T) *sql.DB {
	t.Helper()

	dbURL := GetTestDatabaseURL()
	if dbURL == "" {
		if ciutil.IsCI() {
			t.Fatalf("%s must be set in CI", TestDatabaseURLEnv)
		}
		t.Skipf("%s not set - skipping integration test", TestDatabaseURLEnv)
	}

	ctx, cancel := context.WithTimeout(context.Background(), TestTimeout)
	defer cancel()

	db, err := postgres.Open(ctx, dbURL)
	require.NoError(t, err, "failed to connect to %s", redact.DatabaseURL(dbURL))
	t.Cleanup(func() { _ = db.Close() })

	migrateOnce.Do(func() {
		l, _ := logger.GetTestLogger(t)
		migrateErr = postgres.Migrate(ctx, db, l)
	})
	require.NoError(t, migrateErr, "failed to apply migrations")

	return db
}

// WithTx runs fn inside a transaction that is always rolled back.
func WithTx(t *testing.T, db *sql.DB, fn func(t *testing.T, tx *sql.Tx)) {
	t.Helper()

	tx, err := db.Begin()
	require.NoError(t, err, "failed to begin transaction")

	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			t.Logf("warning: failed to roll back transaction: %v", err)
		}
	}()

	fn(t, tx)
}
