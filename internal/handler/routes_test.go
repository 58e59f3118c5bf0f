package handler

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgo/mediacms/api/internal/middleware"
	"github.com/forgo/mediacms/api/internal/model"
	"github.com/forgo/mediacms/api/pkg/jwt"
)

type mockPinger struct {
	err error
}

func (m *mockPinger) Ping(ctx context.Context) error {
	return m.err
}

// ============================================================================
// Health
// ============================================================================

func TestHealthHandler(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		db        Pinger
		status    string
		connected bool
	}{
		{name: "connected", db: &mockPinger{}, status: "healthy", connected: true},
		{name: "ping fails", db: &mockPinger{err: errors.New("closed")}, status: "degraded"},
		{name: "no database", db: nil, status: "degraded"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h := NewHealthHandler(tt.db)
			rr := httptest.NewRecorder()
			h.Health(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

			require.Equal(t, http.StatusOK, rr.Code)
			var body HealthStatus
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
			assert.Equal(t, tt.status, body.Status)
			assert.Equal(t, tt.connected, body.DatabaseConnected)
		})
	}
}

// ============================================================================
// Routes
// ============================================================================

type testRouter struct {
	mux        *http.ServeMux
	tokens     *jwt.Service
	techniques *mockTechniqueService
}

func newTestRouter(t *testing.T) *testRouter {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	tokens := jwt.NewTestService(key, "mediacms-test", time.Hour)

	techniques := &mockTechniqueService{}
	routes := &Routes{
		Health:     NewHealthHandler(&mockPinger{}),
		Techniques: NewTechniqueHandler(techniques),
		Media:      NewMediaHandler(&mockMediaService{}),
		Catalog:    NewCatalogHandler(&mockCatalogService{}),
		Metrics: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("# metrics\n"))
		}),
		Auth: middleware.Auth(tokens),
	}
	mux := http.NewServeMux()
	routes.Register(mux)

	return &testRouter{mux: mux, tokens: tokens, techniques: techniques}
}

func (tr *testRouter) do(t *testing.T, method, path, role string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, nil)
	if role != "" {
		token, err := tr.tokens.Sign(jwt.Claims{UserID: "app_user:" + role, Username: role, Role: role})
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	tr.mux.ServeHTTP(rr, req)
	return rr
}

func TestRoutes_PublicEndpoints(t *testing.T) {
	t.Parallel()
	tr := newTestRouter(t)

	assert.Equal(t, http.StatusOK, tr.do(t, http.MethodGet, "/health", "").Code)

	rr := tr.do(t, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, strings.HasPrefix(rr.Body.String(), "# metrics"))
}

func TestRoutes_AnonymousRejected(t *testing.T) {
	t.Parallel()
	tr := newTestRouter(t)

	paths := []struct{ method, path string }{
		{http.MethodGet, "/api/v1/techniques"},
		{http.MethodGet, "/api/v1/techniques/tree"},
		{http.MethodPost, "/api/v1/techniques/categories"},
		{http.MethodDelete, "/api/v1/techniques/root.guard"},
		{http.MethodPost, "/api/v1/techniques/root.guard/media"},
		{http.MethodDelete, "/api/v1/techniques/root.guard/media/abc"},
		{http.MethodGet, "/api/v1/media"},
		{http.MethodGet, "/api/v1/media/abc"},
		{http.MethodGet, "/api/v1/categories"},
		{http.MethodGet, "/api/v1/tags"},
	}
	for _, p := range paths {
		rr := tr.do(t, p.method, p.path, "")
		assert.Equal(t, http.StatusUnauthorized, rr.Code, "%s %s", p.method, p.path)
	}
}

func TestRoutes_PathValuesReachHandlers(t *testing.T) {
	t.Parallel()
	tr := newTestRouter(t)

	var gotSlug, gotToken string
	var gotPrincipal *model.Principal
	tr.techniques.removeMediaFunc = func(ctx context.Context, p *model.Principal, slug, token string) error {
		gotPrincipal = p
		gotSlug, gotToken = slug, token
		return nil
	}

	rr := tr.do(t, http.MethodDelete, "/api/v1/techniques/root.guard.slx/media/abc123", "superuser")

	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, "root.guard.slx", gotSlug)
	assert.Equal(t, "abc123", gotToken)
	require.NotNil(t, gotPrincipal)
	assert.True(t, gotPrincipal.IsSuperuser())
	assert.Equal(t, "superuser", gotPrincipal.Username)
}

func TestRoutes_TreeIsNotATechniqueID(t *testing.T) {
	t.Parallel()
	tr := newTestRouter(t)

	called := false
	tr.techniques.treeFunc = func(ctx context.Context, p *model.Principal) ([]*model.TechniqueNode, error) {
		called = true
		return []*model.TechniqueNode{}, nil
	}

	rr := tr.do(t, http.MethodGet, "/api/v1/techniques/tree", "superuser")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, called)
}

func TestRoutes_MethodNotAllowed(t *testing.T) {
	t.Parallel()
	tr := newTestRouter(t)

	rr := tr.do(t, http.MethodPut, "/api/v1/techniques/categories", "superuser")
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}
