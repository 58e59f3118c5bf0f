package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/forgo/mediacms/api/internal/database"
	"github.com/forgo/mediacms/api/internal/model"
)

// TechniqueMediaRepository handles technique/media associations
type TechniqueMediaRepository struct {
	db database.Database
}

// NewTechniqueMediaRepository creates a new technique media repository
func NewTechniqueMediaRepository(db database.Database) *TechniqueMediaRepository {
	return &TechniqueMediaRepository{db: db}
}

// Create attaches a media item to a technique. An existing association for
// the same pair yields database.ErrDuplicate.
func (r *TechniqueMediaRepository) Create(ctx context.Context, tm *model.TechniqueMedia) error {
	query := `
		CREATE technique_media CONTENT {
			technique: type::record($technique),
			media: type::record($media),
			added_by: IF $added_by THEN type::record($added_by) ELSE NONE END,
			title_override: $title_override,
			add_date: time::now()
		}
	`
	vars := map[string]interface{}{
		"technique":      tm.TechniqueID,
		"media":          tm.MediaID,
		"added_by":       tm.AddedByID,
		"title_override": tm.TitleOverride,
	}

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		if isUniqueConstraintError(err) {
			return fmt.Errorf("%w: media already attached to technique", database.ErrDuplicate)
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
	tm.ID = getRecordID(data, "id")
	tm.AddDate = getTime(data, "add_date")
	return nil
}

// Get retrieves the association of a technique and a media item. Returns nil
// when absent.
func (r *TechniqueMediaRepository) Get(ctx context.Context, techniqueID, mediaID string) (*model.TechniqueMedia, error) {
	query := `
		SELECT * FROM technique_media
		WHERE technique = type::record($technique) AND media = type::record($media)
		LIMIT 1
	`
	vars := map[string]interface{}{
		"technique": techniqueID,
		"media":     mediaID,
	}

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

	return &model.TechniqueMedia{
		ID:            getRecordID(data, "id"),
		TechniqueID:   getRecordID(data, "technique"),
		MediaID:       getRecordID(data, "media"),
		AddedByID:     getRecordID(data, "added_by"),
		TitleOverride: getString(data, "title_override"),
		AddDate:       getTime(data, "add_date"),
	}, nil
}

// Delete deletes an association
func (r *TechniqueMediaRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE type::record($id)`
	return r.db.Execute(ctx, query, map[string]interface{}{"id": id})
}

// ListWithMedia returns every association joined with its media item and
// adder, newest first. Title carries the media title; TitleOverride is left
// for the caller to apply.
func (r *TechniqueMediaRepository) ListWithMedia(ctx context.Context) ([]*model.TechniqueMediaItem, error) {
	query := `
		SELECT
			technique.slug AS technique_slug,
			title_override,
			add_date,
			media.friendly_token AS friendly_token,
			media.title AS media_title,
			media.thumbnail_url AS thumbnail_url,
			added_by.username AS added_by_username
		FROM technique_media
		WHERE technique != NONE
		ORDER BY add_date DESC
	`

	result, err := r.db.Query(ctx, query, nil)
	if err != nil {
		return nil, err
	}

	rows := statementRows(result)
	items := make([]*model.TechniqueMediaItem, 0, len(rows))
	for _, row := range rows {
		token := getString(row, "friendly_token")
		items = append(items, &model.TechniqueMediaItem{
			FriendlyToken: token,
			Title:         getString(row, "media_title"),
			ThumbnailURL:  getStringPtr(row, "thumbnail_url"),
			URL:           model.MediaURL(token),
			AddedBy:       getString(row, "added_by_username"),
			AddDate:       getTime(row, "add_date"),
			TechniqueID:   getString(row, "technique_slug"),
			TitleOverride: getString(row, "title_override"),
		})
	}
	return items, nil
}

// ListLegacy returns every association with its slug-based technique
// reference
func (r *TechniqueMediaRepository) ListLegacy(ctx context.Context) ([]*model.LegacyTechniqueMedia, error) {
	query := `SELECT id, technique_slug, media FROM technique_media ORDER BY id`

	result, err := r.db.Query(ctx, query, nil)
	if err != nil {
		return nil, err
	}

	rows := statementRows(result)
	legacy := make([]*model.LegacyTechniqueMedia, 0, len(rows))
	for _, row := range rows {
		legacy = append(legacy, &model.LegacyTechniqueMedia{
			ID:            getRecordID(row, "id"),
			TechniqueSlug: getString(row, "technique_slug"),
			MediaID:       getRecordID(row, "media"),
		})
	}
	return legacy, nil
}

// SetTechnique points each association (key) at a technique (value) in one
// transaction
func (r *TechniqueMediaRepository) SetTechnique(ctx context.Context, assignments map[string]string) error {
	ids := make([]string, 0, len(assignments))
	for id := range assignments {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	batch := database.NewAtomicBatch()
	for _, id := range ids {
		batch.Add(
			`UPDATE type::record($id) SET technique = type::record($technique)`,
			map[string]interface{}{"id": id, "technique": assignments[id]},
		)
	}
	return batch.Execute(ctx, r.db)
}

// DeleteByIDs deletes the given associations
func (r *TechniqueMediaRepository) DeleteByIDs(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	query := `FOR $id IN $ids { DELETE type::record($id); }`
	return r.db.Execute(ctx, query, map[string]interface{}{"ids": ids})
}

// ClearTechnique unlinks every association from its technique
func (r *TechniqueMediaRepository) ClearTechnique(ctx context.Context) error {
	return r.db.Execute(ctx, `UPDATE technique_media SET technique = NONE`, nil)
}
