package handler

import (
	"context"
	"net/http"

	"github.com/forgo/mediacms/api/internal/middleware"
	"github.com/forgo/mediacms/api/internal/model"
)

// MediaService defines the media operations the handler needs
type MediaService interface {
	Get(ctx context.Context, p *model.Principal, token string) (*model.Media, error)
	List(ctx context.Context, p *model.Principal, limit, offset int) ([]*model.MediaSummary, int, error)
}

// MediaHandler handles read-only media endpoints
type MediaHandler struct {
	media MediaService
}

// NewMediaHandler creates a new media handler
func NewMediaHandler(media MediaService) *MediaHandler {
	return &MediaHandler{media: media}
}

// List handles GET /api/v1/media?limit=&offset=
func (h *MediaHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit, offset, errs := parsePage(r)
	if errs != nil {
		WriteError(w, model.NewValidationError(errs))
		return
	}

	items, total, err := h.media.List(ctx, middleware.GetPrincipal(ctx), limit, offset)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteCollection(w, http.StatusOK, items, NewPaginationInfo(total, limit, offset, len(items)))
}

// Get handles GET /api/v1/media/{token}
func (h *MediaHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	media, err := h.media.Get(ctx, middleware.GetPrincipal(ctx), r.PathValue("token"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, media)
}
