// Package database provides SurrealDB connectivity for the media API.
//
// Repositories depend on the Database interface rather than the driver:
//
//	type Database interface {
//	    Query(ctx context.Context, query string, vars map[string]interface{}) ([]interface{}, error)
//	    QueryOne(ctx context.Context, query string, vars map[string]interface{}) (interface{}, error)
//	    Execute(ctx context.Context, query string, vars map[string]interface{}) error
//	    ...
//	}
//
// Query returns one {"status": "OK", "result": ...} map per statement.
// QueryOne unwraps the first record of the first statement and reports an
// empty result as ErrNotFound.
//
// # Connection Management
//
//	db := database.NewSurrealDB(database.Config{
//	    Host:      "localhost",
//	    Port:      "8000",
//	    User:      "root",
//	    Password:  "root",
//	    Namespace: "mediacms",
//	    Database:  "main",
//	})
//	if err := db.Connect(ctx); err != nil { ... }
//	defer db.Close()
//
// Every round trip is timed into the mediacms_db_query_duration_seconds
// histogram.
//
// # Error Types
//
//   - ErrNotFound: record does not exist
//   - ErrDuplicate: unique index violation
//   - ErrConnection: connection or authentication failure
//   - ErrQuery: statement failed
//
// Atomic multi-statement writes go through AtomicBatch or TxBuilder, see
// transaction.go.
package database
