package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/forgo/mediacms/api/internal/config"
	"github.com/forgo/mediacms/api/internal/database"
	"github.com/forgo/mediacms/api/internal/migrate"
	"github.com/forgo/mediacms/api/internal/repository"
)

// NewMigrateCommand creates the migrate command group.
func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	var seedPath string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply, revert or list schema and data migrations",
	}
	cmd.PersistentFlags().StringVar(&seedPath, "seed", "", "technique seed document for the populate migration (default: taxonomy.seed_path, then the bundled seed)")

	up := &cobra.Command{
		Use:   "up",
		Short: "Apply every pending migration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			runner, db, err := newRunner(cmd, rootOpts, seedPath)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			applied, err := runner.Up(cmd.Context())
			if err != nil {
				return err
			}
			return printVersions(cmd, rootOpts, "applied", applied)
		},
	}

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Revert the most recently applied migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if steps < 1 {
				return fmt.Errorf("--steps must be at least 1")
			}
			runner, db, err := newRunner(cmd, rootOpts, seedPath)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			reverted, err := runner.Down(cmd.Context(), steps)
			if perr := printVersions(cmd, rootOpts, "reverted", reverted); perr != nil && err == nil {
				err = perr
			}
			return err
		},
	}
	down.Flags().IntVarP(&steps, "steps", "n", 1, "number of migrations to revert")

	status := &cobra.Command{
		Use:   "status",
		Short: "List migrations and whether each has been applied",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			runner, db, err := newRunner(cmd, rootOpts, seedPath)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			entries, err := runner.Status(cmd.Context())
			if err != nil {
				return err
			}
			return printStatus(cmd, rootOpts, entries)
		},
	}

	cmd.AddCommand(up, down, status)
	return cmd
}

func newRunner(cmd *cobra.Command, rootOpts *RootOptions, seedPath string) (*migrate.Runner, database.Database, error) {
	cfg, db, err := rootOpts.open(cmd.Context())
	if err != nil {
		return nil, nil, err
	}
	return migrate.NewRunner(migrate.RunnerConfig{
		DB:         db,
		Store:      repository.NewMigrationRepository(db),
		Migrations: migrate.Migrations(seedLoader(cfg, seedPath)),
		Logger:     rootOpts.log(),
	}), db, nil
}

// seedLoader prefers the --seed flag, then the configured seed path. Nil
// selects the bundled seed.
func seedLoader(cfg *config.Config, flagPath string) migrate.SeedLoader {
	switch {
	case flagPath != "":
		return migrate.SeedFile(flagPath)
	case cfg != nil && cfg.Taxonomy.SeedPath != "":
		return migrate.SeedFile(cfg.Taxonomy.SeedPath)
	default:
		return nil
	}
}

func printVersions(cmd *cobra.Command, rootOpts *RootOptions, verb string, versions []string) error {
	out := cmd.OutOrStdout()
	if rootOpts.Format == "json" {
		if versions == nil {
			versions = []string{}
		}
		return writeJSON(out, map[string][]string{verb: versions})
	}
	if len(versions) == 0 {
		_, err := fmt.Fprintf(out, "nothing %s\n", verb)
		return err
	}
	for _, v := range versions {
		if _, err := fmt.Fprintf(out, "%s %s\n", verb, v); err != nil {
			return err
		}
	}
	return nil
}

func printStatus(cmd *cobra.Command, rootOpts *RootOptions, entries []migrate.StatusEntry) error {
	out := cmd.OutOrStdout()
	if rootOpts.Format == "json" {
		return writeJSON(out, entries)
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "VERSION\tAPPLIED\tDESCRIPTION")
	for _, e := range entries {
		applied := "no"
		if e.Applied {
			applied = e.AppliedAt.UTC().Format("2006-01-02 15:04:05")
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", e.Version, applied, e.Description)
	}
	return tw.Flush()
}
