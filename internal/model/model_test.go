package model

import (
	"testing"
	"time"
)

// ============================================================================
// User / Principal Tests
// ============================================================================

func TestUser_IsSuperuser(t *testing.T) {
	t.Parallel()

	if (&User{Role: UserRoleUser}).IsSuperuser() {
		t.Error("expected user role not to be superuser")
	}
	if !(&User{Role: UserRoleSuperuser}).IsSuperuser() {
		t.Error("expected superuser role to be superuser")
	}
}

func TestPrincipal_IsSuperuser_Nil(t *testing.T) {
	t.Parallel()

	var p *Principal
	if p.IsSuperuser() {
		t.Error("expected nil principal not to be superuser")
	}
	if !(&Principal{Role: UserRoleSuperuser}).IsSuperuser() {
		t.Error("expected superuser principal to be superuser")
	}
}

// ============================================================================
// Media Tests
// ============================================================================

func TestMediaURL_EscapesToken(t *testing.T) {
	t.Parallel()

	if got := MediaURL("abc123"); got != "/view?m=abc123" {
		t.Errorf("MediaURL = %q", got)
	}
	if got := MediaURL("a b&c"); got != "/view?m=a+b%26c" {
		t.Errorf("MediaURL = %q", got)
	}
}

func TestMedia_Summary(t *testing.T) {
	t.Parallel()

	added := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	m := &Media{
		FriendlyToken: "Xy9/z",
		Title:         "Single leg X entry",
		Username:      "coach",
		State:         MediaStatePublic,
		AddDate:       added,
		Views:         10,
	}

	s := m.Summary()
	if s.URL != "/view?m=Xy9%2Fz" {
		t.Errorf("URL = %q", s.URL)
	}
	if s.APIURL != "/api/v1/media/Xy9%2Fz" {
		t.Errorf("APIURL = %q", s.APIURL)
	}
	if s.User != "coach" || s.Title != m.Title || !s.AddDate.Equal(added) || s.Views != 10 {
		t.Errorf("unexpected summary %+v", s)
	}
}

// ============================================================================
// Technique Tests
// ============================================================================

func TestTechnique_IsRoot(t *testing.T) {
	t.Parallel()

	parent := "technique:1"
	if !(&Technique{}).IsRoot() {
		t.Error("expected technique without parent to be a root")
	}
	if (&Technique{ParentID: &parent}).IsRoot() {
		t.Error("expected technique with parent not to be a root")
	}
}
