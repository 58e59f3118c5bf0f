package handler

import (
	"context"
	"net/http"

	"github.com/forgo/mediacms/api/internal/middleware"
	"github.com/forgo/mediacms/api/internal/model"
)

// CatalogService defines the category and tag listings the handler needs
type CatalogService interface {
	Categories(ctx context.Context, p *model.Principal) ([]*model.Category, error)
	Tags(ctx context.Context, p *model.Principal, limit, offset int) ([]*model.Tag, int, error)
}

// CatalogHandler serves media categories and tags
type CatalogHandler struct {
	catalog CatalogService
}

// NewCatalogHandler creates a new catalog handler
func NewCatalogHandler(catalog CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// Categories handles GET /api/v1/categories
func (h *CatalogHandler) Categories(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	categories, err := h.catalog.Categories(ctx, middleware.GetPrincipal(ctx))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteCollection(w, http.StatusOK, categories, nil)
}

// Tags handles GET /api/v1/tags?limit=&offset=
func (h *CatalogHandler) Tags(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit, offset, errs := parsePage(r)
	if errs != nil {
		WriteError(w, model.NewValidationError(errs))
		return
	}

	tags, total, err := h.catalog.Tags(ctx, middleware.GetPrincipal(ctx), limit, offset)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteCollection(w, http.StatusOK, tags, NewPaginationInfo(total, limit, offset, len(tags)))
}
