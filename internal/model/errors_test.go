package model

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"
)

// ============================================================================
// ProblemDetails Tests
// ============================================================================

func TestProblemDetails_Error_ReturnsFormattedMessage(t *testing.T) {
	t.Parallel()

	pd := &ProblemDetails{
		Status: http.StatusNotFound,
		Title:  "Not Found",
		Detail: "technique not found",
	}

	msg := pd.Error()
	for _, want := range []string{"404", "Not Found", "technique not found"} {
		if !strings.Contains(msg, want) {
			t.Errorf("error message should contain %q, got: %s", want, msg)
		}
	}
}

func TestProblemDetails_WriteJSON(t *testing.T) {
	t.Parallel()

	rr := httptest.NewRecorder()
	NewConflictError("media already attached").WriteJSON(rr)

	if rr.Code != http.StatusConflict {
		t.Errorf("expected status %d, got %d", http.StatusConflict, rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/problem+json" {
		t.Errorf("expected problem+json content type, got %q", ct)
	}

	var decoded ProblemDetails
	if err := json.Unmarshal(rr.Body.Bytes(), &decoded); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if decoded.Detail != "media already attached" {
		t.Errorf("unexpected detail %q", decoded.Detail)
	}
	if decoded.Code != ErrCodeConflict {
		t.Errorf("expected code %d, got %d", ErrCodeConflict, decoded.Code)
	}
}

// ============================================================================
// Constructor Tests
// ============================================================================

func TestConstructors_StatusAndType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		pd     *ProblemDetails
		status int
		suffix string
	}{
		{"unauthorized", NewUnauthorizedError("missing token"), http.StatusUnauthorized, "unauthorized"},
		{"forbidden", NewForbiddenError("superuser required"), http.StatusForbidden, "forbidden"},
		{"not found", NewNotFoundError("media"), http.StatusNotFound, "not-found"},
		{"conflict", NewConflictError("duplicate"), http.StatusConflict, "conflict"},
		{"bad request", NewBadRequestError("bad body"), http.StatusBadRequest, "bad-request"},
		{"internal", NewInternalError(""), http.StatusInternalServerError, "internal"},
		{"unavailable", NewServiceUnavailableError("db down"), http.StatusServiceUnavailable, "unavailable"},
		{"rate limited", NewRateLimitError(3), http.StatusTooManyRequests, "rate-limited"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.pd.Status != tt.status {
				t.Errorf("expected status %d, got %d", tt.status, tt.pd.Status)
			}
			if !strings.HasSuffix(tt.pd.Type, "/errors/"+tt.suffix) {
				t.Errorf("unexpected type %q", tt.pd.Type)
			}
		})
	}
}

func TestNewNotFoundError_FormatsResourceName(t *testing.T) {
	t.Parallel()

	pd := NewNotFoundError("technique")
	if pd.Detail != "technique not found" {
		t.Errorf("unexpected detail %q", pd.Detail)
	}
}

func TestNewInternalError_EmptyDetail_UsesDefault(t *testing.T) {
	t.Parallel()

	pd := NewInternalError("")
	if pd.Detail != "An unexpected error occurred" {
		t.Errorf("unexpected detail %q", pd.Detail)
	}
}

func TestNewValidationError_SummarizesFields(t *testing.T) {
	t.Parallel()

	pd := NewValidationError([]FieldError{
		{Field: "media_friendly_token", Message: "is required"},
		{Field: "title_override", Message: "too long"},
	})

	if pd.Status != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", pd.Status)
	}
	if pd.Detail != "media_friendly_token: is required (and 1 more errors)" {
		t.Errorf("unexpected detail %q", pd.Detail)
	}
	if len(pd.Errors) != 2 {
		t.Errorf("expected 2 field errors, got %d", len(pd.Errors))
	}
}

func TestNewValidationError_Empty_UsesDefault(t *testing.T) {
	t.Parallel()

	pd := NewValidationError(nil)
	if pd.Detail != "One or more fields failed validation" {
		t.Errorf("unexpected detail %q", pd.Detail)
	}
}
