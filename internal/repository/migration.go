package repository

import (
	"context"
	"time"

	"github.com/forgo/mediacms/api/internal/database"
)

// AppliedMigration is a row of the schema_migration table
type AppliedMigration struct {
	Version   string
	AppliedAt time.Time
}

// MigrationRepository records which schema migrations have run
type MigrationRepository struct {
	db database.Database
}

// NewMigrationRepository creates a new migration repository
func NewMigrationRepository(db database.Database) *MigrationRepository {
	return &MigrationRepository{db: db}
}

// EnsureTable defines the bookkeeping table if it does not exist yet
func (r *MigrationRepository) EnsureTable(ctx context.Context) error {
	query := `
		DEFINE TABLE IF NOT EXISTS schema_migration SCHEMAFULL;
		DEFINE FIELD IF NOT EXISTS version ON schema_migration TYPE string;
		DEFINE FIELD IF NOT EXISTS applied_at ON schema_migration TYPE datetime DEFAULT time::now();
		DEFINE INDEX IF NOT EXISTS schema_migration_version ON schema_migration FIELDS version UNIQUE;
	`
	return r.db.Execute(ctx, query, nil)
}

// Applied returns applied migrations ordered by version
func (r *MigrationRepository) Applied(ctx context.Context) ([]AppliedMigration, error) {
	query := `SELECT version, applied_at FROM schema_migration ORDER BY version`

	result, err := r.db.Query(ctx, query, nil)
	if err != nil {
		return nil, err
	}

	rows := statementRows(result)
	applied := make([]AppliedMigration, 0, len(rows))
	for _, row := range rows {
		applied = append(applied, AppliedMigration{
			Version:   getString(row, "version"),
			AppliedAt: getTime(row, "applied_at"),
		})
	}
	return applied, nil
}

// Record marks a migration as applied
func (r *MigrationRepository) Record(ctx context.Context, version string) error {
	query := `CREATE schema_migration CONTENT { version: $version, applied_at: time::now() }`
	return r.db.Execute(ctx, query, map[string]interface{}{"version": version})
}

// Remove unmarks a migration after it has been reverted
func (r *MigrationRepository) Remove(ctx context.Context, version string) error {
	query := `DELETE schema_migration WHERE version = $version`
	return r.db.Execute(ctx, query, map[string]interface{}{"version": version})
}
