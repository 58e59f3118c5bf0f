package migrate

import (
	"bytes"
	"context"
	"embed"
	"fmt"

	"github.com/forgo/mediacms/api/internal/database"
	"github.com/forgo/mediacms/api/internal/repository"
	"github.com/forgo/mediacms/api/internal/taxonomy"
)

//go:embed schema/*.surql
var schemaFS embed.FS

//go:embed data/techniques.json
var defaultSeed []byte

// SeedLoader supplies the technique document for the data migration
type SeedLoader func() (*taxonomy.Document, error)

// DefaultSeed loads the technique tree bundled with the binary
func DefaultSeed() (*taxonomy.Document, error) {
	return taxonomy.Decode(bytes.NewReader(defaultSeed), taxonomy.FormatJSON)
}

// SeedFile loads the technique tree from a JSON or YAML file
func SeedFile(path string) SeedLoader {
	return func() (*taxonomy.Document, error) {
		return taxonomy.LoadFile(path)
	}
}

// Migrations returns every migration in version order. seed supplies the
// technique tree created by 0004_populate_techniques; nil uses DefaultSeed.
func Migrations(seed SeedLoader) []Migration {
	if seed == nil {
		seed = DefaultSeed
	}
	return []Migration{
		{
			Version:     "0001_init",
			Description: "media, category, tag, user and encode profile tables",
			Up:          script("0001_init.up.surql"),
			Down:        script("0001_init.down.surql"),
		},
		{
			Version:     "0002_technique_media",
			Description: "slug-based technique media associations",
			Up:          script("0002_technique_media.up.surql"),
			Down:        script("0002_technique_media.down.surql"),
		},
		{
			Version:     "0003_technique",
			Description: "technique tree and nullable technique link",
			Up:          script("0003_technique.up.surql"),
			Down:        script("0003_technique.down.surql"),
		},
		{
			Version:     "0004_populate_techniques",
			Description: "create techniques from the seed and remap associations",
			Up:          populateStep(seed),
			Down:        unpopulateStep,
		},
		{
			Version:     "0005_finalize_technique_fk",
			Description: "drop the slug column and require the technique link",
			Up:          script("0005_finalize_technique_fk.up.surql"),
			Down:        script("0005_finalize_technique_fk.down.surql"),
		},
		{
			Version:     "0006_remove_comments",
			Description: "drop comments",
			Up:          script("0006_remove_comments.up.surql"),
			Down:        script("0006_remove_comments.down.surql"),
		},
		{
			Version:     "0007_drop_social_accounts",
			Description: "drop leftover social account tables",
			Up:          script("0007_drop_social_accounts.up.surql"),
			Down:        noop,
		},
	}
}

// script executes an embedded SurrealQL file
func script(name string) Step {
	return func(ctx context.Context, db database.Database) error {
		body, err := schemaFS.ReadFile("schema/" + name)
		if err != nil {
			return fmt.Errorf("read %s: %w", name, err)
		}
		return db.Execute(ctx, string(body), nil)
	}
}

func populateStep(seed SeedLoader) Step {
	return func(ctx context.Context, db database.Database) error {
		doc, err := seed()
		if err != nil {
			return fmt.Errorf("load technique seed: %w", err)
		}
		_, err = PopulateTechniques(ctx,
			repository.NewTechniqueRepository(db),
			repository.NewTechniqueMediaRepository(db),
			doc,
		)
		return err
	}
}

func unpopulateStep(ctx context.Context, db database.Database) error {
	return UnpopulateTechniques(ctx,
		repository.NewTechniqueRepository(db),
		repository.NewTechniqueMediaRepository(db),
	)
}

func noop(context.Context, database.Database) error { return nil }
