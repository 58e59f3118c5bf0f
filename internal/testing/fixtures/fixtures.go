// Package fixtures provides test data factories for database-backed tests.
//
// Each factory method creates a record with sensible defaults, allows
// customization via option functions and returns the record as the
// repositories read it back.
//
// Usage:
//
//	f := fixtures.New(tdb.DB)
//	admin := f.CreateSuperuser(t)
//	media := f.CreateMedia(t, admin)
package fixtures

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/forgo/mediacms/api/internal/database"
	"github.com/forgo/mediacms/api/internal/model"
	"github.com/forgo/mediacms/api/internal/repository"
)

// Factory creates test entities in the database
type Factory struct {
	db database.Database
}

// New creates a new fixture factory
func New(db database.Database) *Factory {
	return &Factory{db: db}
}

// randomID returns a short unique suffix
func randomID() string {
	return uuid.NewString()[:8]
}

func ctx(t *testing.T) context.Context {
	c, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	return c
}

// ============================================================================
// User Fixtures
// ============================================================================

// UserOpts customizes user creation
type UserOpts struct {
	Username string
	Email    string
	Role     model.UserRole
	IsActive bool
}

// CreateUser creates a user with optional customizations
func (f *Factory) CreateUser(t *testing.T, opts ...func(*UserOpts)) *model.User {
	t.Helper()

	id := randomID()
	o := &UserOpts{
		Username: "user_" + id,
		Email:    fmt.Sprintf("user_%s@test.local", id),
		Role:     model.UserRoleUser,
		IsActive: true,
	}
	for _, fn := range opts {
		fn(o)
	}

	query := `
		CREATE app_user CONTENT {
			username: $username,
			email: $email,
			role: $role,
			is_active: $is_active
		}
	`
	vars := map[string]interface{}{
		"username":  o.Username,
		"email":     o.Email,
		"role":      string(o.Role),
		"is_active": o.IsActive,
	}
	if err := f.db.Execute(ctx(t), query, vars); err != nil {
		t.Fatalf("fixtures: failed to create user: %v", err)
	}

	user, err := repository.NewUserRepository(f.db).GetByUsername(ctx(t), o.Username)
	if err != nil || user == nil {
		t.Fatalf("fixtures: failed to read back user %s: %v", o.Username, err)
	}
	return user
}

// CreateSuperuser creates a user allowed to edit the technique taxonomy
func (f *Factory) CreateSuperuser(t *testing.T) *model.User {
	return f.CreateUser(t, func(o *UserOpts) {
		o.Role = model.UserRoleSuperuser
	})
}

// ============================================================================
// Media Fixtures
// ============================================================================

// MediaOpts customizes media creation
type MediaOpts struct {
	FriendlyToken string
	Title         string
	State         model.MediaState
	AddDate       time.Time
}

// WithMediaState sets the visibility of a media item
func WithMediaState(state model.MediaState) func(*MediaOpts) {
	return func(o *MediaOpts) {
		o.State = state
	}
}

// CreateMedia creates a media item owned by owner
func (f *Factory) CreateMedia(t *testing.T, owner *model.User, opts ...func(*MediaOpts)) *model.Media {
	t.Helper()

	id := randomID()
	o := &MediaOpts{
		FriendlyToken: "tok" + id,
		Title:         "Clip " + id,
		State:         model.MediaStatePublic,
		AddDate:       time.Now().UTC(),
	}
	for _, fn := range opts {
		fn(o)
	}

	query := `
		CREATE media CONTENT {
			friendly_token: $token,
			title: $title,
			state: $state,
			user: type::record($user),
			add_date: <datetime>$add_date
		}
	`
	vars := map[string]interface{}{
		"token":    o.FriendlyToken,
		"title":    o.Title,
		"state":    string(o.State),
		"user":     owner.ID,
		"add_date": o.AddDate.Format(time.RFC3339Nano),
	}
	if err := f.db.Execute(ctx(t), query, vars); err != nil {
		t.Fatalf("fixtures: failed to create media: %v", err)
	}

	media, err := repository.NewMediaRepository(f.db).GetByFriendlyToken(ctx(t), o.FriendlyToken)
	if err != nil || media == nil {
		t.Fatalf("fixtures: failed to read back media %s: %v", o.FriendlyToken, err)
	}
	return media
}

// ============================================================================
// Catalog Fixtures
// ============================================================================

// CreateCategory creates a media category and returns its title
func (f *Factory) CreateCategory(t *testing.T, title string) string {
	t.Helper()
	query := `CREATE category CONTENT { title: $title, is_global: true }`
	if err := f.db.Execute(ctx(t), query, map[string]interface{}{"title": title}); err != nil {
		t.Fatalf("fixtures: failed to create category: %v", err)
	}
	return title
}

// CreateTag creates a media tag and returns its title
func (f *Factory) CreateTag(t *testing.T, title string) string {
	t.Helper()
	query := `CREATE tag CONTENT { title: $title }`
	if err := f.db.Execute(ctx(t), query, map[string]interface{}{"title": title}); err != nil {
		t.Fatalf("fixtures: failed to create tag: %v", err)
	}
	return title
}
