// Package repository implements SurrealDB data access for the media API.
//
// Each repository wraps a database.Database and maps records to model
// types. Lookups by key return (nil, nil) when the record does not exist;
// unique index violations surface as database.ErrDuplicate.
//
// Record links are passed as "table:id" strings and converted with
// type::record() inside the query.
package repository
