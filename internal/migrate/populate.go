package migrate

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/forgo/mediacms/api/internal/metrics"
	"github.com/forgo/mediacms/api/internal/model"
	"github.com/forgo/mediacms/api/internal/mptt"
	"github.com/forgo/mediacms/api/internal/repository"
	"github.com/forgo/mediacms/api/internal/taxonomy"
)

// TechniqueStore is the technique persistence used by the data migration
type TechniqueStore interface {
	Create(ctx context.Context, t *model.Technique) error
	DeleteAll(ctx context.Context) error
}

// LinkStore is the technique_media persistence used by the data migration
type LinkStore interface {
	ListLegacy(ctx context.Context) ([]*model.LegacyTechniqueMedia, error)
	SetTechnique(ctx context.Context, assignments map[string]string) error
	DeleteByIDs(ctx context.Context, ids []string) error
	ClearTechnique(ctx context.Context) error
}

// Report summarizes a PopulateTechniques run
type Report struct {
	Created  int `json:"created"`
	Remapped int `json:"remapped"`
	Orphaned int `json:"orphaned"`
}

// CreateTechniques writes every node of doc as a technique row, parents
// before children, with nested-set fields already numbered. It returns the
// record ID of each created technique keyed by slug.
func CreateTechniques(ctx context.Context, techniques TechniqueStore, doc *taxonomy.Document) (map[string]string, error) {
	flat, err := taxonomy.Flatten(doc)
	if err != nil {
		return nil, fmt.Errorf("flatten seed: %w", err)
	}

	rows := make([]mptt.Node, len(flat))
	bySlug := make(map[string]taxonomy.FlatNode, len(flat))
	for i, n := range flat {
		rows[i] = mptt.Node{Key: n.Slug, ParentKey: n.ParentSlug}
		bySlug[n.Slug] = n
	}

	forest, err := mptt.Build(rows)
	if err != nil {
		return nil, fmt.Errorf("build technique tree: %w", err)
	}

	ids := make(map[string]string, len(flat))
	for _, node := range forest.Nodes() {
		src := bySlug[node.Key]
		t := &model.Technique{
			Title:     src.Title,
			Slug:      src.Slug,
			Status:    src.Status,
			Notes:     src.Notes,
			Resources: src.Resources,
			Lft:       node.Lft,
			Rght:      node.Rght,
			TreeID:    node.TreeID,
			Level:     node.Level,
		}
		if !node.IsRoot() {
			parentID := ids[node.ParentKey]
			t.ParentID = &parentID
		}
		if err := techniques.Create(ctx, t); err != nil {
			return nil, fmt.Errorf("create technique %s: %w", src.Slug, err)
		}
		ids[src.Slug] = t.ID
	}
	return ids, nil
}

// RemapLinks points every legacy association at the technique whose slug it
// names and deletes associations whose slug matches no technique.
func RemapLinks(ctx context.Context, links LinkStore, techniqueIDs map[string]string) (remapped, orphaned int, err error) {
	legacy, err := links.ListLegacy(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("list technique media: %w", err)
	}

	assignments := make(map[string]string, len(legacy))
	var orphans []string
	for _, tm := range legacy {
		if id, ok := techniqueIDs[tm.TechniqueSlug]; ok {
			assignments[tm.ID] = id
		} else {
			orphans = append(orphans, tm.ID)
		}
	}

	if err := links.SetTechnique(ctx, assignments); err != nil {
		return 0, 0, fmt.Errorf("remap technique media: %w", err)
	}
	if err := links.DeleteByIDs(ctx, orphans); err != nil {
		return 0, 0, fmt.Errorf("delete orphaned technique media: %w", err)
	}
	return len(assignments), len(orphans), nil
}

// PopulateTechniques creates the technique tree from doc and converts every
// slug-based association into a technique link.
func PopulateTechniques(ctx context.Context, techniques TechniqueStore, links LinkStore, doc *taxonomy.Document) (*Report, error) {
	ids, err := CreateTechniques(ctx, techniques, doc)
	if err != nil {
		return nil, err
	}

	remapped, orphaned, err := RemapLinks(ctx, links, ids)
	if err != nil {
		return nil, err
	}

	report := &Report{Created: len(ids), Remapped: remapped, Orphaned: orphaned}
	metrics.RecordTechniqueRemap(remapped, orphaned)
	slog.Info("techniques populated",
		slog.Int("created", report.Created),
		slog.Int("remapped", report.Remapped),
		slog.Int("orphaned", report.Orphaned),
	)
	return report, nil
}

// UnpopulateTechniques reverses PopulateTechniques. Associations lose their
// technique link; the original slugs are not restored.
func UnpopulateTechniques(ctx context.Context, techniques TechniqueStore, links LinkStore) error {
	if err := links.ClearTechnique(ctx); err != nil {
		return fmt.Errorf("clear technique links: %w", err)
	}
	if err := techniques.DeleteAll(ctx); err != nil {
		return fmt.Errorf("delete techniques: %w", err)
	}
	return nil
}

var (
	_ TechniqueStore = (*repository.TechniqueRepository)(nil)
	_ LinkStore      = (*repository.TechniqueMediaRepository)(nil)
)
