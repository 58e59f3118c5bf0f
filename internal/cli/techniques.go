package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/forgo/mediacms/api/internal/authz"
	"github.com/forgo/mediacms/api/internal/database"
	"github.com/forgo/mediacms/api/internal/model"
	"github.com/forgo/mediacms/api/internal/repository"
	"github.com/forgo/mediacms/api/internal/service"
	"github.com/forgo/mediacms/api/internal/taxonomy"
)

// errTreeDrifted makes `techniques check` exit non-zero on unrepaired drift
var errTreeDrifted = errors.New("technique tree drifted; rerun with --repair")

// operator is the principal the CLI acts as for service calls
var operator = &model.Principal{
	UserID:   "mediactl",
	Username: "mediactl",
	Role:     model.UserRoleSuperuser,
}

// NewTechniquesCommand creates the techniques command group.
func NewTechniquesCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "techniques",
		Short: "Inspect, import and export the technique taxonomy",
	}
	cmd.AddCommand(newTechniquesShowCommand(rootOpts))
	cmd.AddCommand(newTechniquesImportCommand(rootOpts))
	cmd.AddCommand(newTechniquesExportCommand(rootOpts))
	cmd.AddCommand(newTechniquesCheckCommand(rootOpts))
	return cmd
}

// showResult is the JSON output of `techniques show`
type showResult struct {
	File  string          `json:"file"`
	Stats taxonomy.Stats  `json:"stats"`
	Nodes []showNodeEntry `json:"nodes"`
}

type showNodeEntry struct {
	ID     string `json:"id"`
	Parent string `json:"parent,omitempty"`
	Title  string `json:"title"`
}

func newTechniquesShowCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <file>",
		Short: "Validate a seed document and print its outline",
		Long: `Decode a JSON or YAML technique seed document, check that every node
has a unique id and print it as an indented outline. No database is needed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := taxonomy.LoadFile(args[0])
			if err != nil {
				return err
			}
			flat, err := taxonomy.Flatten(doc)
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}

			out := cmd.OutOrStdout()
			if rootOpts.Format == "json" {
				result := showResult{File: args[0], Stats: taxonomy.Summarize(doc), Nodes: make([]showNodeEntry, 0, len(flat))}
				for _, n := range flat {
					result.Nodes = append(result.Nodes, showNodeEntry{ID: n.Slug, Parent: n.ParentSlug, Title: n.Title})
				}
				return writeJSON(out, result)
			}

			stats := taxonomy.Summarize(doc)
			if _, err := io.WriteString(out, taxonomy.Outline(doc)); err != nil {
				return err
			}
			_, err = fmt.Fprintf(out, "\n%d techniques, %d roots, deepest level %d, %d resources\n",
				stats.Nodes, stats.Roots, stats.MaxDepth, stats.Resources)
			return err
		},
	}
}

func newTechniquesImportCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Create the techniques of a seed document in an empty taxonomy",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := taxonomy.LoadFile(args[0])
			if err != nil {
				return err
			}

			_, db, err := rootOpts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			svc, err := newTechniqueService(db, rootOpts)
			if err != nil {
				return err
			}
			created, err := svc.ImportSeed(cmd.Context(), doc)
			if err != nil {
				return err
			}

			if rootOpts.Format == "json" {
				return writeJSON(cmd.OutOrStdout(), map[string]int{"created": created})
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "imported %d techniques from %s\n", created, args[0])
			return err
		},
	}
}

func newTechniquesExportCommand(rootOpts *RootOptions) *cobra.Command {
	var output, as string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the stored taxonomy as a seed document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format := taxonomy.Format(as)
			if as == "" && output != "" {
				var err error
				if format, err = taxonomy.FormatForPath(output); err != nil {
					return err
				}
			}
			if format == "" {
				format = taxonomy.FormatJSON
			}
			if format != taxonomy.FormatJSON && format != taxonomy.FormatYAML {
				return fmt.Errorf("%w: %s", taxonomy.ErrUnsupportedFormat, as)
			}

			_, db, err := rootOpts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			svc, err := newTechniqueService(db, rootOpts)
			if err != nil {
				return err
			}
			tree, err := svc.Tree(cmd.Context(), operator)
			if err != nil {
				return err
			}
			doc := taxonomy.FromTree(model.TechniqueDocumentVersion, tree)

			if output == "" {
				return taxonomy.Encode(cmd.OutOrStdout(), doc, format)
			}
			f, err := os.Create(output)
			if err != nil {
				return err
			}
			if err := taxonomy.Encode(f, doc, format); err != nil {
				_ = f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			rootOpts.log().Info("taxonomy exported",
				slog.String("path", output),
				slog.Int("roots", len(doc.Tree)),
			)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to this file instead of stdout")
	cmd.Flags().StringVar(&as, "as", "", "document encoding (json|yaml); default from --output extension, else json")
	return cmd
}

func newTechniquesCheckCommand(rootOpts *RootOptions) *cobra.Command {
	var repair bool

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Verify the stored nested-set fields against the parent links",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, db, err := rootOpts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			svc, err := newTechniqueService(db, rootOpts)
			if err != nil {
				return err
			}
			check, err := svc.CheckTree(cmd.Context(), repair)
			if err != nil {
				return err
			}
			if err := printTreeCheck(cmd.OutOrStdout(), rootOpts, check); err != nil {
				return err
			}
			if !check.Healthy() && !check.Repaired {
				return errTreeDrifted
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&repair, "repair", false, "rewrite drifted rows")
	return cmd
}

func printTreeCheck(out io.Writer, rootOpts *RootOptions, check *service.TreeCheck) error {
	if rootOpts.Format == "json" {
		return writeJSON(out, check)
	}
	if _, err := fmt.Fprintf(out, "%d techniques, %d drifted\n", check.Nodes, check.Drifted); err != nil {
		return err
	}
	if check.Problem != "" {
		if _, err := fmt.Fprintf(out, "problem: %s\n", check.Problem); err != nil {
			return err
		}
	}
	if check.Repaired {
		_, err := fmt.Fprintln(out, "repaired")
		return err
	}
	return nil
}

func newTechniqueService(db database.Database, rootOpts *RootOptions) (*service.TechniqueService, error) {
	enforcer, err := authz.NewEnforcer(authz.EnforcerConfig{})
	if err != nil {
		return nil, err
	}
	return service.NewTechniqueService(service.TechniqueServiceConfig{
		Techniques:     repository.NewTechniqueRepository(db),
		TechniqueMedia: repository.NewTechniqueMediaRepository(db),
		Media:          repository.NewMediaRepository(db),
		Authorizer:     enforcer,
		Logger:         rootOpts.log(),
	}), nil
}
