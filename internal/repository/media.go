package repository

import (
	"context"
	"errors"

	"github.com/forgo/mediacms/api/internal/database"
	"github.com/forgo/mediacms/api/internal/model"
)

// MediaRepository handles media data access
type MediaRepository struct {
	db database.Database
}

// NewMediaRepository creates a new media repository
func NewMediaRepository(db database.Database) *MediaRepository {
	return &MediaRepository{db: db}
}

const mediaProjection = `
	*,
	user.username AS username,
	categories.title AS category_titles,
	tags.title AS tag_titles
`

// GetByFriendlyToken retrieves a media item by its public token. Returns nil
// when absent.
func (r *MediaRepository) GetByFriendlyToken(ctx context.Context, token string) (*model.Media, error) {
	query := `SELECT ` + mediaProjection + ` FROM media WHERE friendly_token = $token LIMIT 1`
	vars := map[string]interface{}{"token": token}

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
	return parseMedia(data), nil
}

// List returns public media newest first, with the total number of public
// media items
func (r *MediaRepository) List(ctx context.Context, limit, offset int) ([]*model.Media, int, error) {
	limit, offset = clampPage(limit, offset)

	query := `
		SELECT ` + mediaProjection + ` FROM media
		WHERE state = $state
		ORDER BY add_date DESC
		LIMIT $limit START $offset;
		SELECT count() FROM media WHERE state = $state GROUP ALL;
	`
	vars := map[string]interface{}{
		"state":  model.MediaStatePublic,
		"limit":  limit,
		"offset": offset,
	}

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return nil, 0, err
	}

	rows := statementRows(result)
	media := make([]*model.Media, 0, len(rows))
	for _, row := range rows {
		media = append(media, parseMedia(row))
	}

	total := 0
	if len(result) > 1 {
		total = extractCount(result[1:])
	}
	return media, total, nil
}

func parseMedia(data map[string]interface{}) *model.Media {
	return &model.Media{
		ID:             getRecordID(data, "id"),
		FriendlyToken:  getString(data, "friendly_token"),
		Title:          getString(data, "title"),
		Description:    getString(data, "description"),
		MediaType:      model.MediaType(getString(data, "media_type")),
		State:          model.MediaState(getString(data, "state")),
		EncodingStatus: model.EncodingStatus(getString(data, "encoding_status")),
		UserID:         getRecordID(data, "user"),
		Username:       getString(data, "username"),
		ThumbnailURL:   getStringPtr(data, "thumbnail_url"),
		Duration:       getInt(data, "duration"),
		Views:          getInt(data, "views"),
		Likes:          getInt(data, "likes"),
		Dislikes:       getInt(data, "dislikes"),
		Featured:       getBool(data, "featured"),
		IsReviewed:     getBool(data, "is_reviewed"),
		Categories:     getStringSlice(data, "category_titles"),
		Tags:           getStringSlice(data, "tag_titles"),
		AddDate:        getTime(data, "add_date"),
		EditDate:       getTime(data, "edit_date"),
	}
}
