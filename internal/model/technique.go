package model

import "time"

// Field limits for technique taxonomy records
const (
	MaxTechniqueTitleLength  = 200
	MaxTechniqueSlugLength   = 200
	MaxTechniqueStatusLength = 20
	MaxTitleOverrideLength   = 200
)

// TechniqueDocumentVersion is the version stamped on every technique document
// served by the API.
const TechniqueDocumentVersion = 1

// Technique is a node in the technique taxonomy. Lft, Rght, TreeID and Level
// are nested-set bookkeeping and are never edited directly.
type Technique struct {
	ID        string     `json:"-"`
	Title     string     `json:"title"`
	Slug      string     `json:"slug"`
	Status    string     `json:"status"`
	Notes     string     `json:"notes"`
	Resources []Resource `json:"resources"`
	ParentID  *string    `json:"parent_id,omitempty"`
	Lft       int        `json:"lft"`
	Rght      int        `json:"rght"`
	TreeID    int        `json:"tree_id"`
	Level     int        `json:"level"`
}

// IsRoot returns true if the technique has no parent
func (t *Technique) IsRoot() bool {
	return t.ParentID == nil
}

// TreeFields is the nested-set bookkeeping of one technique, keyed by
// record ID
type TreeFields struct {
	ID     string
	Lft    int
	Rght   int
	TreeID int
	Level  int
}

// Resource is an external reference attached to a technique
type Resource struct {
	URL       string `json:"url" yaml:"url"`
	Source    string `json:"source,omitempty" yaml:"source,omitempty"`
	SeedTitle string `json:"seed_title,omitempty" yaml:"seed_title,omitempty"`
}

// TechniqueMedia links a media item to a technique node. The pair
// (TechniqueID, MediaID) is unique.
type TechniqueMedia struct {
	ID            string    `json:"id"`
	TechniqueID   string    `json:"technique"`
	MediaID       string    `json:"media"`
	AddedByID     string    `json:"added_by"`
	TitleOverride string    `json:"title_override"`
	AddDate       time.Time `json:"add_date"`
}

// LegacyTechniqueMedia is an association row that still references its
// technique by slug. Only the data migration reads these.
type LegacyTechniqueMedia struct {
	ID            string
	TechniqueSlug string
	MediaID       string
}

// TechniqueMediaItem is the API view of an association, flattened with the
// media fields a client needs to render it.
type TechniqueMediaItem struct {
	FriendlyToken string    `json:"friendly_token"`
	Title         string    `json:"title"`
	ThumbnailURL  *string   `json:"thumbnail_url"`
	URL           string    `json:"url"`
	AddedBy       string    `json:"added_by"`
	AddDate       time.Time `json:"add_date"`
	TechniqueID   string    `json:"technique_id"`
	TitleOverride string    `json:"title_override"`
}

// TechniqueNode is the nested API representation of a technique.
// The node id is the technique slug.
type TechniqueNode struct {
	ID        string                `json:"id"`
	Title     string                `json:"title"`
	Status    string                `json:"status"`
	Notes     string                `json:"notes"`
	Resources []Resource            `json:"resources"`
	Media     []*TechniqueMediaItem `json:"media"`
	Children  []*TechniqueNode      `json:"children"`
}

// TechniquesDocument is the payload of GET /api/v1/techniques
type TechniquesDocument struct {
	Version int              `json:"version"`
	Tree    []*TechniqueNode `json:"tree"`
}

// Requests

// AddTechniqueMediaRequest attaches a media item to a technique
type AddTechniqueMediaRequest struct {
	MediaFriendlyToken string `json:"media_friendly_token" validate:"required,max=150"`
	TitleOverride      string `json:"title_override" validate:"max=200"`
}

// CreateTechniqueCategoryRequest creates a technique node. An empty ParentID
// creates a top-level category.
type CreateTechniqueCategoryRequest struct {
	Title    string `json:"title" validate:"required,max=200"`
	ParentID string `json:"parent_id" validate:"max=200"`
}

// TechniqueCategoryResponse is returned after a category is created
type TechniqueCategoryResponse struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	ParentID *string `json:"parent_id"`
	Level    int     `json:"level"`
}
