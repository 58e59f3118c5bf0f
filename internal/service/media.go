package service

import (
	"context"
	"strings"

	"github.com/forgo/mediacms/api/internal/model"
)

// MediaServiceConfig holds configuration for the media service
type MediaServiceConfig struct {
	Media      MediaRepository
	Authorizer Authorizer
}

// MediaService serves read access to media items
type MediaService struct {
	media MediaRepository
	authz Authorizer
}

// NewMediaService creates a new media service
func NewMediaService(cfg MediaServiceConfig) *MediaService {
	return &MediaService{
		media: cfg.Media,
		authz: cfg.Authorizer,
	}
}

// Get returns a media item by friendly token
func (s *MediaService) Get(ctx context.Context, p *model.Principal, token string) (*model.Media, error) {
	if err := authorize(s.authz, p, ObjectMedia, ActionRead); err != nil {
		return nil, err
	}

	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrMediaNotFound
	}
	media, err := s.media.GetByFriendlyToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if media == nil {
		return nil, ErrMediaNotFound
	}
	return media, nil
}

// List returns a page of public media summaries and the total count
func (s *MediaService) List(ctx context.Context, p *model.Principal, limit, offset int) ([]*model.MediaSummary, int, error) {
	if err := authorize(s.authz, p, ObjectMedia, ActionRead); err != nil {
		return nil, 0, err
	}

	media, total, err := s.media.List(ctx, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	summaries := make([]*model.MediaSummary, 0, len(media))
	for _, m := range media {
		summaries = append(summaries, m.Summary())
	}
	return summaries, total, nil
}
