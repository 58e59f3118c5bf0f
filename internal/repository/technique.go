package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/forgo/mediacms/api/internal/database"
	"github.com/forgo/mediacms/api/internal/model"
)

// TechniqueRepository handles technique tree data access
type TechniqueRepository struct {
	db database.Database
}

// NewTechniqueRepository creates a new technique repository
func NewTechniqueRepository(db database.Database) *TechniqueRepository {
	return &TechniqueRepository{db: db}
}

// List returns every technique in tree order
func (r *TechniqueRepository) List(ctx context.Context) ([]*model.Technique, error) {
	query := `SELECT * FROM technique ORDER BY tree_id, lft`

	result, err := r.db.Query(ctx, query, nil)
	if err != nil {
		return nil, err
	}

	rows := statementRows(result)
	techniques := make([]*model.Technique, 0, len(rows))
	for _, row := range rows {
		techniques = append(techniques, parseTechnique(row))
	}
	return techniques, nil
}

// GetBySlug retrieves a technique by slug. Returns nil when absent.
func (r *TechniqueRepository) GetBySlug(ctx context.Context, slug string) (*model.Technique, error) {
	query := `SELECT * FROM technique WHERE slug = $slug LIMIT 1`
	vars := map[string]interface{}{"slug": slug}

	result, err := r.db.QueryOne(ctx, query, vars)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	data, err := recordMap(result)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return parseTechnique(data), nil
}

const techniqueContent = `{
			title: $title,
			slug: $slug,
			status: $status,
			notes: $notes,
			resources: $resources,
			parent: IF $parent THEN type::record($parent) ELSE NONE END,
			lft: $lft,
			rght: $rght,
			tree_id: $tree_id,
			level: $level
		}`

func techniqueVars(t *model.Technique) map[string]interface{} {
	var parent interface{}
	if t.ParentID != nil {
		parent = *t.ParentID
	}
	return map[string]interface{}{
		"title":     t.Title,
		"slug":      t.Slug,
		"status":    t.Status,
		"notes":     t.Notes,
		"resources": resourcesValue(t.Resources),
		"parent":    parent,
		"lft":       t.Lft,
		"rght":      t.Rght,
		"tree_id":   t.TreeID,
		"level":     t.Level,
	}
}

// Create inserts a technique and sets its ID. A taken slug yields
// database.ErrDuplicate.
func (r *TechniqueRepository) Create(ctx context.Context, t *model.Technique) error {
	result, err := r.db.Query(ctx, `CREATE technique CONTENT `+techniqueContent, techniqueVars(t))
	if err != nil {
		if isUniqueConstraintError(err) {
			return fmt.Errorf("%w: technique slug %q already exists", database.ErrDuplicate, t.Slug)
		}
		return err
	}

	record, err := database.FirstRecord(result)
	if err != nil {
		return err
	}
	data, err := recordMap(record)
	if err != nil {
		return err
	}
	t.ID = getRecordID(data, "id")
	return nil
}

// CreateInTree inserts t together with the bookkeeping of the techniques its
// placement shifted, in one transaction. The record key is generated here so
// the ID is known without reading the result back.
func (r *TechniqueRepository) CreateInTree(ctx context.Context, t *model.Technique, shifted []model.TreeFields) error {
	key := strings.ReplaceAll(uuid.NewString(), "-", "")
	vars := techniqueVars(t)
	vars["key"] = key

	batch := database.NewAtomicBatch()
	batch.Add(`CREATE type::thing("technique", $key) CONTENT `+techniqueContent, vars)
	addTreeUpdates(batch, shifted)

	if err := batch.Execute(ctx, r.db); err != nil {
		if isUniqueConstraintError(err) {
			return fmt.Errorf("%w: technique slug %q already exists", database.ErrDuplicate, t.Slug)
		}
		return err
	}
	t.ID = "technique:" + key
	return nil
}

// UpdateTreeFields writes nested-set bookkeeping for the given techniques in
// one transaction
func (r *TechniqueRepository) UpdateTreeFields(ctx context.Context, fields []model.TreeFields) error {
	batch := database.NewAtomicBatch()
	addTreeUpdates(batch, fields)
	return batch.Execute(ctx, r.db)
}

// DeleteInTree deletes the given techniques and their media associations and
// writes the renumbered bookkeeping of the survivors, in one transaction
func (r *TechniqueRepository) DeleteInTree(ctx context.Context, ids []string, shifted []model.TreeFields) error {
	if len(ids) == 0 && len(shifted) == 0 {
		return nil
	}

	batch := database.NewAtomicBatch()
	if len(ids) > 0 {
		vars := map[string]interface{}{"ids": ids}
		batch.Add(`FOR $t IN $ids { DELETE technique_media WHERE technique = type::record($t); }`, vars)
		batch.Add(`FOR $t IN $ids { DELETE type::record($t); }`, vars)
	}
	addTreeUpdates(batch, shifted)
	return batch.Execute(ctx, r.db)
}

// DeleteAll deletes every technique
func (r *TechniqueRepository) DeleteAll(ctx context.Context) error {
	return r.db.Execute(ctx, `DELETE technique`, nil)
}

func addTreeUpdates(batch *database.AtomicBatch, fields []model.TreeFields) {
	for _, f := range fields {
		batch.Add(
			`UPDATE type::record($id) SET lft = $lft, rght = $rght, tree_id = $tree_id, level = $level`,
			map[string]interface{}{
				"id":      f.ID,
				"lft":     f.Lft,
				"rght":    f.Rght,
				"tree_id": f.TreeID,
				"level":   f.Level,
			},
		)
	}
}

func parseTechnique(data map[string]interface{}) *model.Technique {
	t := &model.Technique{
		ID:        getRecordID(data, "id"),
		Title:     getString(data, "title"),
		Slug:      getString(data, "slug"),
		Status:    getString(data, "status"),
		Notes:     getString(data, "notes"),
		Resources: getResources(data, "resources"),
		Lft:       getInt(data, "lft"),
		Rght:      getInt(data, "rght"),
		TreeID:    getInt(data, "tree_id"),
		Level:     getInt(data, "level"),
	}
	if parent := getRecordID(data, "parent"); parent != "" {
		t.ParentID = &parent
	}
	return t
}
