package handler

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgo/mediacms/api/internal/authz"
	"github.com/forgo/mediacms/api/internal/middleware"
	"github.com/forgo/mediacms/api/internal/model"
	"github.com/forgo/mediacms/api/internal/service"
)

// ============================================================================
// Mock TechniqueService
// ============================================================================

type mockTechniqueService struct {
	documentFunc        func(ctx context.Context, p *model.Principal) (*model.TechniquesDocument, error)
	treeFunc            func(ctx context.Context, p *model.Principal) ([]*model.TechniqueNode, error)
	addMediaFunc        func(ctx context.Context, p *model.Principal, slug string, req *model.AddTechniqueMediaRequest) (*model.TechniqueMediaItem, error)
	removeMediaFunc     func(ctx context.Context, p *model.Principal, slug, token string) error
	authorizeWriteFunc  func(p *model.Principal) error
	createCategoryFunc  func(ctx context.Context, p *model.Principal, req *model.CreateTechniqueCategoryRequest) (*model.TechniqueCategoryResponse, error)
	deleteTechniqueFunc func(ctx context.Context, p *model.Principal, slug string) error
}

func (m *mockTechniqueService) Document(ctx context.Context, p *model.Principal) (*model.TechniquesDocument, error) {
	if m.documentFunc != nil {
		return m.documentFunc(ctx, p)
	}
	return &model.TechniquesDocument{Version: model.TechniqueDocumentVersion, Tree: []*model.TechniqueNode{}}, nil
}

func (m *mockTechniqueService) Tree(ctx context.Context, p *model.Principal) ([]*model.TechniqueNode, error) {
	if m.treeFunc != nil {
		return m.treeFunc(ctx, p)
	}
	return []*model.TechniqueNode{}, nil
}

func (m *mockTechniqueService) AuthorizeAddMedia(p *model.Principal) error {
	if m.authorizeWriteFunc != nil {
		return m.authorizeWriteFunc(p)
	}
	return nil
}

func (m *mockTechniqueService) AuthorizeCreateCategory(p *model.Principal) error {
	if m.authorizeWriteFunc != nil {
		return m.authorizeWriteFunc(p)
	}
	return nil
}

func (m *mockTechniqueService) AddMedia(ctx context.Context, p *model.Principal, slug string, req *model.AddTechniqueMediaRequest) (*model.TechniqueMediaItem, error) {
	if m.addMediaFunc != nil {
		return m.addMediaFunc(ctx, p, slug, req)
	}
	return nil, nil
}

func (m *mockTechniqueService) RemoveMedia(ctx context.Context, p *model.Principal, slug, token string) error {
	if m.removeMediaFunc != nil {
		return m.removeMediaFunc(ctx, p, slug, token)
	}
	return nil
}

func (m *mockTechniqueService) CreateCategory(ctx context.Context, p *model.Principal, req *model.CreateTechniqueCategoryRequest) (*model.TechniqueCategoryResponse, error) {
	if m.createCategoryFunc != nil {
		return m.createCategoryFunc(ctx, p, req)
	}
	return nil, nil
}

func (m *mockTechniqueService) DeleteTechnique(ctx context.Context, p *model.Principal, slug string) error {
	if m.deleteTechniqueFunc != nil {
		return m.deleteTechniqueFunc(ctx, p, slug)
	}
	return nil
}

// ============================================================================
// Test Helpers
// ============================================================================

var (
	admin  = &model.Principal{UserID: "app_user:admin", Username: "admin", Role: model.UserRoleSuperuser}
	member = &model.Principal{UserID: "app_user:alice", Username: "alice", Role: model.UserRoleUser}
)

// newRequest builds a request carrying principal p, with path values set
// the way ServeMux would
func newRequest(method, path string, body interface{}, p *model.Principal, pathValues map[string]string) *http.Request {
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		_ = json.NewEncoder(&buf).Encode(b)
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range pathValues {
		req.SetPathValue(k, v)
	}
	if p != nil {
		req = req.WithContext(context.WithValue(req.Context(), middleware.PrincipalKey, p))
	}
	return req
}

func decodeProblem(t *testing.T, rr *httptest.ResponseRecorder) model.ProblemDetails {
	t.Helper()
	assert.Equal(t, "application/problem+json", rr.Header().Get("Content-Type"))
	var problem model.ProblemDetails
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &problem))
	return problem
}

// ============================================================================
// Document / Tree
// ============================================================================

func TestTechniqueHandler_Document(t *testing.T) {
	t.Parallel()

	var gotPrincipal *model.Principal
	svc := &mockTechniqueService{
		documentFunc: func(ctx context.Context, p *model.Principal) (*model.TechniquesDocument, error) {
			gotPrincipal = p
			return &model.TechniquesDocument{
				Version: 1,
				Tree: []*model.TechniqueNode{{
					ID:        "root.guard",
					Title:     "Guard",
					Resources: []model.Resource{},
					Media: []*model.TechniqueMediaItem{{
						FriendlyToken: "abc123",
						Title:         "Guard basics",
						URL:           "/view?m=abc123",
						AddedBy:       "admin",
						AddDate:       time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
						TechniqueID:   "root.guard",
					}},
					Children: []*model.TechniqueNode{},
				}},
			}, nil
		},
	}
	h := NewTechniqueHandler(svc)

	rr := httptest.NewRecorder()
	h.Document(rr, newRequest(http.MethodGet, "/api/v1/techniques", nil, member, nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, member, gotPrincipal)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.EqualValues(t, 1, body["version"])
	assert.NotContains(t, body, "data", "technique document is not enveloped")

	tree := body["tree"].([]interface{})
	require.Len(t, tree, 1)
	node := tree[0].(map[string]interface{})
	assert.Equal(t, "root.guard", node["id"])
	media := node["media"].([]interface{})
	require.Len(t, media, 1)
	assert.Equal(t, "abc123", media[0].(map[string]interface{})["friendly_token"])
}

func TestTechniqueHandler_Tree(t *testing.T) {
	t.Parallel()

	h := NewTechniqueHandler(&mockTechniqueService{})

	rr := httptest.NewRecorder()
	h.Tree(rr, newRequest(http.MethodGet, "/api/v1/techniques/tree", nil, admin, nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, "[]", strings.TrimSpace(rr.Body.String()))
}

func TestTechniqueHandler_Tree_Forbidden(t *testing.T) {
	t.Parallel()

	h := NewTechniqueHandler(&mockTechniqueService{
		treeFunc: func(ctx context.Context, p *model.Principal) ([]*model.TechniqueNode, error) {
			return nil, service.ErrForbidden
		},
	})

	rr := httptest.NewRecorder()
	h.Tree(rr, newRequest(http.MethodGet, "/api/v1/techniques/tree", nil, member, nil))

	require.Equal(t, http.StatusForbidden, rr.Code)
	assert.Equal(t, http.StatusForbidden, decodeProblem(t, rr).Status)
}

func TestTechniqueHandler_Document_InternalErrorHidesDetail(t *testing.T) {
	t.Parallel()

	h := NewTechniqueHandler(&mockTechniqueService{
		documentFunc: func(ctx context.Context, p *model.Principal) (*model.TechniquesDocument, error) {
			return nil, errors.New("surreal: connection reset")
		},
	})

	rr := httptest.NewRecorder()
	h.Document(rr, newRequest(http.MethodGet, "/api/v1/techniques", nil, member, nil))

	require.Equal(t, http.StatusInternalServerError, rr.Code)
	problem := decodeProblem(t, rr)
	assert.NotContains(t, problem.Detail, "surreal")
}

// ============================================================================
// Write permissions
// ============================================================================

func TestTechniqueHandler_WritesForbiddenBeforeBodyIsRead(t *testing.T) {
	t.Parallel()

	enforcer, err := authz.NewEnforcer(authz.EnforcerConfig{})
	require.NoError(t, err)
	h := NewTechniqueHandler(service.NewTechniqueService(service.TechniqueServiceConfig{Authorizer: enforcer}))

	for _, body := range []interface{}{`{}`, `not json`, map[string]string{"title": strings.Repeat("a", 500)}} {
		rr := httptest.NewRecorder()
		h.CreateCategory(rr, newRequest(http.MethodPost, "/api/v1/techniques/categories", body, member, nil))
		assert.Equal(t, http.StatusForbidden, rr.Code, "create category with %v", body)

		rr = httptest.NewRecorder()
		h.AddMedia(rr, newRequest(http.MethodPost, "/api/v1/techniques/root.guard/media", body, member,
			map[string]string{"techniqueId": "root.guard"}))
		assert.Equal(t, http.StatusForbidden, rr.Code, "add media with %v", body)
	}

	rr := httptest.NewRecorder()
	h.AddMedia(rr, newRequest(http.MethodPost, "/api/v1/techniques/root.guard/media", `{}`, nil,
		map[string]string{"techniqueId": "root.guard"}))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestTechniqueHandler_ForbiddenSkipsService(t *testing.T) {
	t.Parallel()

	called := false
	h := NewTechniqueHandler(&mockTechniqueService{
		authorizeWriteFunc: func(p *model.Principal) error { return service.ErrForbidden },
		createCategoryFunc: func(ctx context.Context, p *model.Principal, req *model.CreateTechniqueCategoryRequest) (*model.TechniqueCategoryResponse, error) {
			called = true
			return nil, nil
		},
	})

	rr := httptest.NewRecorder()
	h.CreateCategory(rr, newRequest(http.MethodPost, "/api/v1/techniques/categories", `{"title":`, member, nil))
	require.Equal(t, http.StatusForbidden, rr.Code)
	assert.False(t, called)
	assert.Equal(t, http.StatusForbidden, decodeProblem(t, rr).Status)
}

// ============================================================================
// CreateCategory
// ============================================================================

func TestTechniqueHandler_CreateCategory(t *testing.T) {
	t.Parallel()

	parent := "root.guard"
	var got *model.CreateTechniqueCategoryRequest
	h := NewTechniqueHandler(&mockTechniqueService{
		createCategoryFunc: func(ctx context.Context, p *model.Principal, req *model.CreateTechniqueCategoryRequest) (*model.TechniqueCategoryResponse, error) {
			got = req
			return &model.TechniqueCategoryResponse{ID: "root.guard.slx", Title: req.Title, ParentID: &parent, Level: 1}, nil
		},
	})

	rr := httptest.NewRecorder()
	h.CreateCategory(rr, newRequest(http.MethodPost, "/api/v1/techniques/categories",
		map[string]string{"title": "SLX", "parent_id": "root.guard"}, admin, nil))

	require.Equal(t, http.StatusCreated, rr.Code)
	require.NotNil(t, got)
	assert.Equal(t, "SLX", got.Title)
	assert.Equal(t, "root.guard", got.ParentID)
	assert.JSONEq(t, `{"id":"root.guard.slx","title":"SLX","parent_id":"root.guard","level":1}`, rr.Body.String())
}

func TestTechniqueHandler_CreateCategory_RootHasNullParent(t *testing.T) {
	t.Parallel()

	h := NewTechniqueHandler(&mockTechniqueService{
		createCategoryFunc: func(ctx context.Context, p *model.Principal, req *model.CreateTechniqueCategoryRequest) (*model.TechniqueCategoryResponse, error) {
			return &model.TechniqueCategoryResponse{ID: "root.takedowns", Title: req.Title}, nil
		},
	})

	rr := httptest.NewRecorder()
	h.CreateCategory(rr, newRequest(http.MethodPost, "/api/v1/techniques/categories",
		map[string]string{"title": "Takedowns"}, admin, nil))

	require.Equal(t, http.StatusCreated, rr.Code)
	assert.JSONEq(t, `{"id":"root.takedowns","title":"Takedowns","parent_id":null,"level":0}`, rr.Body.String())
}

func TestTechniqueHandler_CreateCategory_BadInput(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		body  interface{}
		field string
	}{
		{name: "malformed json", body: `{"title":`},
		{name: "unknown field", body: `{"title":"x","slug":"y"}`},
		{name: "missing title", body: map[string]string{"parent_id": "root.guard"}, field: "title"},
		{name: "title too long", body: map[string]string{"title": strings.Repeat("a", 201)}, field: "title"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			called := false
			h := NewTechniqueHandler(&mockTechniqueService{
				createCategoryFunc: func(ctx context.Context, p *model.Principal, req *model.CreateTechniqueCategoryRequest) (*model.TechniqueCategoryResponse, error) {
					called = true
					return nil, nil
				},
			})

			rr := httptest.NewRecorder()
			h.CreateCategory(rr, newRequest(http.MethodPost, "/api/v1/techniques/categories", tt.body, admin, nil))

			require.Equal(t, http.StatusBadRequest, rr.Code)
			assert.False(t, called)
			problem := decodeProblem(t, rr)
			if tt.field != "" {
				require.NotEmpty(t, problem.Errors)
				assert.Equal(t, tt.field, problem.Errors[0].Field)
			}
		})
	}
}

func TestTechniqueHandler_CreateCategory_ServiceErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err    error
		status int
	}{
		{service.ErrForbidden, http.StatusForbidden},
		{service.ErrParentNotFound, http.StatusNotFound},
		{service.ErrTechniqueExists, http.StatusConflict},
		{service.ErrTechniqueTitleInvalid, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			t.Parallel()

			h := NewTechniqueHandler(&mockTechniqueService{
				createCategoryFunc: func(ctx context.Context, p *model.Principal, req *model.CreateTechniqueCategoryRequest) (*model.TechniqueCategoryResponse, error) {
					return nil, tt.err
				},
			})

			rr := httptest.NewRecorder()
			h.CreateCategory(rr, newRequest(http.MethodPost, "/api/v1/techniques/categories",
				map[string]string{"title": "!!!"}, admin, nil))

			assert.Equal(t, tt.status, rr.Code)
		})
	}
}

// ============================================================================
// DeleteTechnique
// ============================================================================

func TestTechniqueHandler_DeleteTechnique(t *testing.T) {
	t.Parallel()

	var gotSlug string
	h := NewTechniqueHandler(&mockTechniqueService{
		deleteTechniqueFunc: func(ctx context.Context, p *model.Principal, slug string) error {
			gotSlug = slug
			return nil
		},
	})

	rr := httptest.NewRecorder()
	h.DeleteTechnique(rr, newRequest(http.MethodDelete, "/api/v1/techniques/root.guard", nil, admin,
		map[string]string{"techniqueId": "root.guard"}))

	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Empty(t, rr.Body.String())
	assert.Equal(t, "root.guard", gotSlug)
}

func TestTechniqueHandler_DeleteTechnique_NotFound(t *testing.T) {
	t.Parallel()

	h := NewTechniqueHandler(&mockTechniqueService{
		deleteTechniqueFunc: func(ctx context.Context, p *model.Principal, slug string) error {
			return service.ErrTechniqueNotFound
		},
	})

	rr := httptest.NewRecorder()
	h.DeleteTechnique(rr, newRequest(http.MethodDelete, "/api/v1/techniques/nope", nil, admin,
		map[string]string{"techniqueId": "nope"}))

	require.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "technique not found", decodeProblem(t, rr).Detail)
}

// ============================================================================
// AddMedia / RemoveMedia
// ============================================================================

func TestTechniqueHandler_AddMedia(t *testing.T) {
	t.Parallel()

	var gotSlug string
	var gotReq *model.AddTechniqueMediaRequest
	h := NewTechniqueHandler(&mockTechniqueService{
		addMediaFunc: func(ctx context.Context, p *model.Principal, slug string, req *model.AddTechniqueMediaRequest) (*model.TechniqueMediaItem, error) {
			gotSlug = slug
			gotReq = req
			return &model.TechniqueMediaItem{
				FriendlyToken: req.MediaFriendlyToken,
				Title:         "Override",
				URL:           "/view?m=" + req.MediaFriendlyToken,
				AddedBy:       p.Username,
				TechniqueID:   slug,
				TitleOverride: req.TitleOverride,
			}, nil
		},
	})

	rr := httptest.NewRecorder()
	h.AddMedia(rr, newRequest(http.MethodPost, "/api/v1/techniques/root.guard/media",
		map[string]string{"media_friendly_token": "abc123", "title_override": "Override"}, admin,
		map[string]string{"techniqueId": "root.guard"}))

	require.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, "root.guard", gotSlug)
	assert.Equal(t, "abc123", gotReq.MediaFriendlyToken)

	var item model.TechniqueMediaItem
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &item))
	assert.Equal(t, "admin", item.AddedBy)
	assert.Equal(t, "Override", item.TitleOverride)
}

func TestTechniqueHandler_AddMedia_MissingToken(t *testing.T) {
	t.Parallel()

	h := NewTechniqueHandler(&mockTechniqueService{})

	rr := httptest.NewRecorder()
	h.AddMedia(rr, newRequest(http.MethodPost, "/api/v1/techniques/root.guard/media",
		map[string]string{"title_override": "x"}, admin,
		map[string]string{"techniqueId": "root.guard"}))

	require.Equal(t, http.StatusBadRequest, rr.Code)
	problem := decodeProblem(t, rr)
	require.Len(t, problem.Errors, 1)
	assert.Equal(t, "media_friendly_token", problem.Errors[0].Field)
	assert.Equal(t, "is required", problem.Errors[0].Message)
}

func TestTechniqueHandler_AddMedia_ServiceErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err    error
		status int
	}{
		{service.ErrForbidden, http.StatusForbidden},
		{service.ErrMediaTokenRequired, http.StatusBadRequest},
		{service.ErrTechniqueNotFound, http.StatusNotFound},
		{service.ErrMediaNotFound, http.StatusNotFound},
		{service.ErrTechniqueMediaExists, http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			t.Parallel()

			h := NewTechniqueHandler(&mockTechniqueService{
				addMediaFunc: func(ctx context.Context, p *model.Principal, slug string, req *model.AddTechniqueMediaRequest) (*model.TechniqueMediaItem, error) {
					return nil, tt.err
				},
			})

			rr := httptest.NewRecorder()
			h.AddMedia(rr, newRequest(http.MethodPost, "/api/v1/techniques/root.guard/media",
				map[string]string{"media_friendly_token": "   "}, admin,
				map[string]string{"techniqueId": "root.guard"}))

			assert.Equal(t, tt.status, rr.Code)
		})
	}
}

func TestTechniqueHandler_RemoveMedia(t *testing.T) {
	t.Parallel()

	var gotSlug, gotToken string
	h := NewTechniqueHandler(&mockTechniqueService{
		removeMediaFunc: func(ctx context.Context, p *model.Principal, slug, token string) error {
			gotSlug, gotToken = slug, token
			return nil
		},
	})

	rr := httptest.NewRecorder()
	h.RemoveMedia(rr, newRequest(http.MethodDelete, "/api/v1/techniques/root.guard/media/abc123", nil, admin,
		map[string]string{"techniqueId": "root.guard", "token": "abc123"}))

	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, "root.guard", gotSlug)
	assert.Equal(t, "abc123", gotToken)
}

func TestTechniqueHandler_RemoveMedia_NotAttached(t *testing.T) {
	t.Parallel()

	h := NewTechniqueHandler(&mockTechniqueService{
		removeMediaFunc: func(ctx context.Context, p *model.Principal, slug, token string) error {
			return service.ErrTechniqueMediaNotFound
		},
	})

	rr := httptest.NewRecorder()
	h.RemoveMedia(rr, newRequest(http.MethodDelete, "/api/v1/techniques/root.guard/media/abc123", nil, admin,
		map[string]string{"techniqueId": "root.guard", "token": "abc123"}))

	assert.Equal(t, http.StatusNotFound, rr.Code)
}
