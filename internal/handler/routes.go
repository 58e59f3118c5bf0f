package handler

import (
	"net/http"

	"github.com/forgo/mediacms/api/internal/middleware"
)

// Routes groups the handlers and per-route middleware served by the API
type Routes struct {
	Health     *HealthHandler
	Techniques *TechniqueHandler
	Media      *MediaHandler
	Catalog    *CatalogHandler

	// Metrics serves the Prometheus exposition; nil leaves /metrics unrouted
	Metrics http.Handler

	// Auth authenticates every /api/v1 route
	Auth middleware.Middleware
	// Idempotency wraps POST routes after authentication; optional
	Idempotency middleware.Middleware
}

// Register adds every route to mux
func (rt *Routes) Register(mux *http.ServeMux) {
	authed := func(h http.HandlerFunc) http.Handler {
		return rt.Auth(h)
	}
	authedPost := func(h http.HandlerFunc) http.Handler {
		if rt.Idempotency == nil {
			return rt.Auth(h)
		}
		return rt.Auth(rt.Idempotency(h))
	}

	mux.HandleFunc("GET /health", rt.Health.Health)
	if rt.Metrics != nil {
		mux.Handle("GET /metrics", rt.Metrics)
	}

	// Techniques
	mux.Handle("GET /api/v1/techniques", authed(rt.Techniques.Document))
	mux.Handle("GET /api/v1/techniques/tree", authed(rt.Techniques.Tree))
	mux.Handle("POST /api/v1/techniques/categories", authedPost(rt.Techniques.CreateCategory))
	mux.Handle("DELETE /api/v1/techniques/{techniqueId}", authed(rt.Techniques.DeleteTechnique))
	mux.Handle("POST /api/v1/techniques/{techniqueId}/media", authedPost(rt.Techniques.AddMedia))
	mux.Handle("DELETE /api/v1/techniques/{techniqueId}/media/{token}", authed(rt.Techniques.RemoveMedia))

	// Media
	mux.Handle("GET /api/v1/media", authed(rt.Media.List))
	mux.Handle("GET /api/v1/media/{token}", authed(rt.Media.Get))

	// Catalog
	mux.Handle("GET /api/v1/categories", authed(rt.Catalog.Categories))
	mux.Handle("GET /api/v1/tags", authed(rt.Catalog.Tags))
}
