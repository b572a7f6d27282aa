//go:build integration

// Package testdb provides helpers for database integration tests.
//
// Each test runs inside a transaction that is rolled back when the test
// finishes, so tests can share one database and run in parallel:
//
//	func TestSomething(t *testing.T) {
//	    db := testdb.GetTestDBWithT(t)
//	    testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
//	        users := postgres.NewPostgresUserStore(tx, bcrypt.MinCost, nil)
//	        ...
//	    })
//	}
//
// Tests are skipped when TASKHUB_TEST_DB_URL and DATABASE_URL are both unset.
package testdb
