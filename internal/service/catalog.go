package service

import (
	"context"

	"github.com/forgo/mediacms/api/internal/model"
)

// CategoryRepository defines the interface for category storage
type CategoryRepository interface {
	List(ctx context.Context) ([]*model.Category, error)
}

// TagRepository defines the interface for tag storage
type TagRepository interface {
	List(ctx context.Context, limit, offset int) ([]*model.Tag, int, error)
}

// CatalogService lists media categories and tags
type CatalogService struct {
	categories CategoryRepository
	tags       TagRepository
	authz      Authorizer
}

// NewCatalogService creates a new catalog service
func NewCatalogService(categories CategoryRepository, tags TagRepository, authz Authorizer) *CatalogService {
	return &CatalogService{
		categories: categories,
		tags:       tags,
		authz:      authz,
	}
}

// Categories returns every category
func (s *CatalogService) Categories(ctx context.Context, p *model.Principal) ([]*model.Category, error) {
	if err := authorize(s.authz, p, ObjectCatalog, ActionRead); err != nil {
		return nil, err
	}
	return s.categories.List(ctx)
}

// Tags returns a page of tags and the total tag count
func (s *CatalogService) Tags(ctx context.Context, p *model.Principal, limit, offset int) ([]*model.Tag, int, error) {
	if err := authorize(s.authz, p, ObjectCatalog, ActionRead); err != nil {
		return nil, 0, err
	}
	return s.tags.List(ctx, limit, offset)
}
