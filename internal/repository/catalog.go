package repository

import (
	"context"

	"github.com/forgo/mediacms/api/internal/database"
	"github.com/forgo/mediacms/api/internal/model"
)

// CategoryRepository handles media category data access
type CategoryRepository struct {
	db database.Database
}

// NewCategoryRepository creates a new category repository
func NewCategoryRepository(db database.Database) *CategoryRepository {
	return &CategoryRepository{db: db}
}

// List returns every category ordered by title
func (r *CategoryRepository) List(ctx context.Context) ([]*model.Category, error) {
	query := `SELECT *, user.username AS username FROM category ORDER BY title`

	result, err := r.db.Query(ctx, query, nil)
	if err != nil {
		return nil, err
	}

	rows := statementRows(result)
	categories := make([]*model.Category, 0, len(rows))
	for _, row := range rows {
		categories = append(categories, &model.Category{
			ID:           getRecordID(row, "id"),
			Title:        getString(row, "title"),
			Description:  getString(row, "description"),
			IsGlobal:     getBool(row, "is_global"),
			MediaCount:   getInt(row, "media_count"),
			User:         getString(row, "username"),
			ThumbnailURL: getStringPtr(row, "thumbnail_url"),
		})
	}
	return categories, nil
}

// TagRepository handles media tag data access
type TagRepository struct {
	db database.Database
}

// NewTagRepository creates a new tag repository
func NewTagRepository(db database.Database) *TagRepository {
	return &TagRepository{db: db}
}

// List returns tags with the most media first, with the total tag count
func (r *TagRepository) List(ctx context.Context, limit, offset int) ([]*model.Tag, int, error) {
	limit, offset = clampPage(limit, offset)

	query := `
		SELECT * FROM tag ORDER BY media_count DESC, title LIMIT $limit START $offset;
		SELECT count() FROM tag GROUP ALL;
	`
	vars := map[string]interface{}{"limit": limit, "offset": offset}

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return nil, 0, err
	}

	rows := statementRows(result)
	tags := make([]*model.Tag, 0, len(rows))
	for _, row := range rows {
		tags = append(tags, &model.Tag{
			ID:           getRecordID(row, "id"),
			Title:        getString(row, "title"),
			MediaCount:   getInt(row, "media_count"),
			ThumbnailURL: getStringPtr(row, "thumbnail_url"),
		})
	}

	total := 0
	if len(result) > 1 {
		total = extractCount(result[1:])
	}
	return tags, total, nil
}
