// Package migrate applies the versioned schema of the media database.
//
// Schema changes are SurrealQL files embedded from schema/; the technique
// data migration (0004_populate_techniques) is Go code that builds the
// technique tree from a seed document, numbers it with package mptt and
// rewrites slug-based technique_media rows into technique links:
//
//	runner := migrate.NewRunner(migrate.RunnerConfig{
//	    DB:         db,
//	    Store:      repository.NewMigrationRepository(db),
//	    Migrations: migrate.Migrations(nil),
//	})
//	applied, err := runner.Up(ctx)
//
// Applied versions are stored in the schema_migration table.
package migrate
