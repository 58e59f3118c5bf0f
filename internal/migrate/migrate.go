package migrate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/forgo/mediacms/api/internal/database"
	"github.com/forgo/mediacms/api/internal/metrics"
	"github.com/forgo/mediacms/api/internal/repository"
)

var (
	// ErrIrreversible is returned by Down for a migration without a reverse step
	ErrIrreversible = errors.New("migration cannot be reverted")

	// ErrUnknownMigration is returned when the database records a version
	// this binary does not know
	ErrUnknownMigration = errors.New("unknown applied migration")

	// ErrOutOfOrder is returned when migrations are not sorted by version
	ErrOutOfOrder = errors.New("migrations out of order")
)

// Step changes the database in one direction
type Step func(ctx context.Context, db database.Database) error

// Migration is one versioned schema or data change. Down is nil when the
// change cannot be reverted.
type Migration struct {
	Version     string
	Description string
	Up          Step
	Down        Step
}

// Store records applied migrations
type Store interface {
	EnsureTable(ctx context.Context) error
	Applied(ctx context.Context) ([]repository.AppliedMigration, error)
	Record(ctx context.Context, version string) error
	Remove(ctx context.Context, version string) error
}

// StatusEntry reports whether one migration has been applied
type StatusEntry struct {
	Version     string    `json:"version"`
	Description string    `json:"description"`
	Applied     bool      `json:"applied"`
	AppliedAt   time.Time `json:"applied_at,omitempty"`
}

// RunnerConfig holds the dependencies of a Runner
type RunnerConfig struct {
	DB         database.Database
	Store      Store
	Migrations []Migration
	Logger     *slog.Logger
}

// Runner applies and reverts migrations in version order
type Runner struct {
	db         database.Database
	store      Store
	migrations []Migration
	logger     *slog.Logger
}

// NewRunner creates a migration runner
func NewRunner(cfg RunnerConfig) *Runner {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		db:         cfg.DB,
		store:      cfg.Store,
		migrations: cfg.Migrations,
		logger:     logger,
	}
}

// Up applies every pending migration. If one fails, its own Down runs to
// clear partial writes, the migrations applied by this call are reverted in
// reverse order and the error is returned.
func (r *Runner) Up(ctx context.Context) ([]string, error) {
	applied, err := r.applied(ctx)
	if err != nil {
		return nil, err
	}

	var pending []string
	op := database.NewMultiStepOperation(r.db)
	for _, m := range r.migrations {
		if _, done := applied[m.Version]; done {
			continue
		}
		pending = append(pending, m.Version)
		op.AddStep(m.Version,
			func(ctx context.Context, db database.Database) error {
				r.logger.Info("applying migration", slog.String("version", m.Version))
				err := m.Up(ctx, db)
				if err != nil {
					r.undoPartial(ctx, db, m)
				} else {
					err = r.store.Record(ctx, m.Version)
				}
				metrics.RecordMigration("up", err)
				return err
			},
			r.revertStep(m),
		)
	}

	if len(pending) == 0 {
		r.logger.Info("no pending migrations")
		return nil, nil
	}
	if err := op.Execute(ctx); err != nil {
		return nil, err
	}
	return pending, nil
}

// undoPartial runs the Down step of a migration whose Up failed midway so
// rows it already wrote do not block the next attempt. Failures are logged.
func (r *Runner) undoPartial(ctx context.Context, db database.Database, m Migration) {
	if m.Down == nil {
		return
	}
	r.logger.Warn("undoing partially applied migration", slog.String("version", m.Version))
	if err := m.Down(ctx, db); err != nil {
		r.logger.Error("undo of partial migration failed",
			slog.String("version", m.Version),
			slog.String("error", err.Error()),
		)
	}
}

// revertStep undoes m during an Up rollback. Irreversible migrations only
// lose their bookkeeping row.
func (r *Runner) revertStep(m Migration) func(ctx context.Context, db database.Database) error {
	return func(ctx context.Context, db database.Database) error {
		r.logger.Warn("reverting migration after failure", slog.String("version", m.Version))
		if m.Down != nil {
			if err := m.Down(ctx, db); err != nil {
				return err
			}
		}
		return r.store.Remove(ctx, m.Version)
	}
}

// Down reverts the last steps applied migrations, newest first
func (r *Runner) Down(ctx context.Context, steps int) ([]string, error) {
	applied, err := r.applied(ctx)
	if err != nil {
		return nil, err
	}

	var reverted []string
	for i := len(r.migrations) - 1; i >= 0 && len(reverted) < steps; i-- {
		m := r.migrations[i]
		if _, done := applied[m.Version]; !done {
			continue
		}
		if m.Down == nil {
			return reverted, fmt.Errorf("%w: %s", ErrIrreversible, m.Version)
		}

		r.logger.Info("reverting migration", slog.String("version", m.Version))
		err := m.Down(ctx, r.db)
		if err == nil {
			err = r.store.Remove(ctx, m.Version)
		}
		metrics.RecordMigration("down", err)
		if err != nil {
			return reverted, fmt.Errorf("revert %s: %w", m.Version, err)
		}
		reverted = append(reverted, m.Version)
	}
	return reverted, nil
}

// Status lists every known migration and whether it has been applied
func (r *Runner) Status(ctx context.Context) ([]StatusEntry, error) {
	applied, err := r.applied(ctx)
	if err != nil {
		return nil, err
	}

	entries := make([]StatusEntry, 0, len(r.migrations))
	for _, m := range r.migrations {
		entry := StatusEntry{Version: m.Version, Description: m.Description}
		if at, done := applied[m.Version]; done {
			entry.Applied = true
			entry.AppliedAt = at
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (r *Runner) applied(ctx context.Context) (map[string]time.Time, error) {
	for i := 1; i < len(r.migrations); i++ {
		if r.migrations[i-1].Version >= r.migrations[i].Version {
			return nil, fmt.Errorf("%w: %s before %s", ErrOutOfOrder, r.migrations[i-1].Version, r.migrations[i].Version)
		}
	}

	if err := r.store.EnsureTable(ctx); err != nil {
		return nil, fmt.Errorf("ensure migration table: %w", err)
	}
	rows, err := r.store.Applied(ctx)
	if err != nil {
		return nil, fmt.Errorf("read applied migrations: %w", err)
	}

	known := make(map[string]struct{}, len(r.migrations))
	for _, m := range r.migrations {
		known[m.Version] = struct{}{}
	}

	applied := make(map[string]time.Time, len(rows))
	for _, row := range rows {
		if _, ok := known[row.Version]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownMigration, row.Version)
		}
		applied[row.Version] = row.AppliedAt
	}
	return applied, nil
}
