package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/forgo/mediacms/api/internal/middleware"
	"github.com/forgo/mediacms/api/internal/model"
	"github.com/forgo/mediacms/api/internal/validation"
)

// TechniqueService defines the technique operations the handler needs
type TechniqueService interface {
	Document(ctx context.Context, p *model.Principal) (*model.TechniquesDocument, error)
	Tree(ctx context.Context, p *model.Principal) ([]*model.TechniqueNode, error)
	AuthorizeAddMedia(p *model.Principal) error
	AuthorizeCreateCategory(p *model.Principal) error
	AddMedia(ctx context.Context, p *model.Principal, slug string, req *model.AddTechniqueMediaRequest) (*model.TechniqueMediaItem, error)
	RemoveMedia(ctx context.Context, p *model.Principal, slug, token string) error
	CreateCategory(ctx context.Context, p *model.Principal, req *model.CreateTechniqueCategoryRequest) (*model.TechniqueCategoryResponse, error)
	DeleteTechnique(ctx context.Context, p *model.Principal, slug string) error
}

// TechniqueHandler handles technique taxonomy endpoints. Responses are the
// bare payloads clients of the taxonomy expect, without a data envelope.
type TechniqueHandler struct {
	techniques TechniqueService
}

// NewTechniqueHandler creates a new technique handler
func NewTechniqueHandler(techniques TechniqueService) *TechniqueHandler {
	return &TechniqueHandler{techniques: techniques}
}

// Document handles GET /api/v1/techniques
func (h *TechniqueHandler) Document(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	doc, err := h.techniques.Document(ctx, middleware.GetPrincipal(ctx))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, doc)
}

// Tree handles GET /api/v1/techniques/tree
func (h *TechniqueHandler) Tree(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tree, err := h.techniques.Tree(ctx, middleware.GetPrincipal(ctx))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, tree)
}

// CreateCategory handles POST /api/v1/techniques/categories
func (h *TechniqueHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	principal := middleware.GetPrincipal(ctx)

	// permission is checked before the body is decoded
	if err := h.techniques.AuthorizeCreateCategory(principal); err != nil {
		writeServiceError(w, r, err)
		return
	}

	var req model.CreateTechniqueCategoryRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, model.NewBadRequestError("invalid request body"))
		return
	}
	if errs := validation.Struct(&req); errs != nil {
		WriteError(w, model.NewValidationError(errs))
		return
	}

	created, err := h.techniques.CreateCategory(ctx, principal, &req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, created)
}

// DeleteTechnique handles DELETE /api/v1/techniques/{techniqueId}
func (h *TechniqueHandler) DeleteTechnique(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	slug := r.PathValue("techniqueId")

	if err := h.techniques.DeleteTechnique(ctx, middleware.GetPrincipal(ctx), slug); err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteNoContent(w)
}

// AddMedia handles POST /api/v1/techniques/{techniqueId}/media
func (h *TechniqueHandler) AddMedia(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	slug := r.PathValue("techniqueId")
	principal := middleware.GetPrincipal(ctx)

	if err := h.techniques.AuthorizeAddMedia(principal); err != nil {
		writeServiceError(w, r, err)
		return
	}

	var req model.AddTechniqueMediaRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, model.NewBadRequestError("invalid request body"))
		return
	}
	if errs := validation.Struct(&req); errs != nil {
		WriteError(w, model.NewValidationError(errs))
		return
	}

	item, err := h.techniques.AddMedia(ctx, principal, slug, &req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, item)
}

// RemoveMedia handles DELETE /api/v1/techniques/{techniqueId}/media/{token}
func (h *TechniqueHandler) RemoveMedia(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	slug := r.PathValue("techniqueId")
	token := r.PathValue("token")

	if err := h.techniques.RemoveMedia(ctx, middleware.GetPrincipal(ctx), slug, token); err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteNoContent(w)
}

// writeServiceError maps err to a problem response and logs server faults
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	problem := MapServiceError(err)
	if problem.Status >= http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
	}
	WriteError(w, problem)
}
