// Package testdb provides an isolated SurrealDB namespace per test.
//
// Tests that use it are skipped unless TEST_DB_HOST points at a running
// SurrealDB (TEST_DB_PORT, TEST_DB_USER and TEST_DB_PASSWORD default to
// 8000, root and root):
//
//	func TestSomething(t *testing.T) {
//	    tdb := testdb.New(t)
//	    // every migration applied, taxonomy empty
//	    repo := repository.NewTechniqueRepository(tdb.DB)
//	}
//
// The namespace is removed when the test ends.
package testdb
