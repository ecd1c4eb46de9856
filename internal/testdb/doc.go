//go:build integration

// Package testdb provides helpers for tests that run against a real
// PostgreSQL database.
//
// Tests obtain a migrated connection with GetTestDBWithT and run each case in
// a transaction that WithTx rolls back afterwards, so cases can run in
// parallel without cleaning up after themselves:
//
//	func TestSomething(t *testing.T) {
//	    db := testdb.GetTestDBWithT(t)
//	    testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
//	        repos := postgres.NewRepos(tx, nil)
//	        ...
//	    })
//	}
//
// When neither CLASSROOM_TEST_DB_URL nor DATABASE_URL is set the tests are skipped.
package testdb
