// Package fixtures creates users, media and catalog records for tests that
// run against a real SurrealDB from testdb. Technique rows are not created
// here; tests build the taxonomy through the repositories or the technique
// service so the nested-set fields stay consistent.
package fixtures
