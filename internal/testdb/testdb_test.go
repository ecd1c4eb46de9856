//go:build integration

package testdb

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetTestDatabaseURL(t *testing.T) {
	t.Setenv(TestDatabaseURLEnv, "")
	t.Setenv(DatabaseURLEnv, "")
	assert.True(t, ShouldSkipDatabaseTest())

	t.Setenv(DatabaseURLEnv, "postgres://fallback@localhost/classroom")
	assert.Equal(t, "postgres://fallback@localhost/classroom", GetTestDatabaseURL())

	t.Setenv(TestDatabaseURLEnv, "postgres://preferred@localhost/classroom_test")
	assert.Equal(t, "postgres://preferred@localhost/classroom_test", GetTestDatabaseURL())
	assert.False(t, ShouldSkipDatabaseTest())
}

func TestWithTxRollsBack(t *testing.T) {
	db := GetTestDBWithT(t)

	WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
		_, err := tx.Exec(`INSERT INTO persons (id, name, email) VALUES (gen_random_uuid(), 'Temp', 'temp@rollback.test')`)
		assert.NoError(t, err)
	})

	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM persons WHERE email = 'temp@rollback.test'`).Scan(&n)
	assert.NoError(t, err)
	assert.Zero(t, n)
}
