package model

import (
	"net/url"
	"time"
)

// MediaType classifies uploaded media
type MediaType string

const (
	MediaTypeVideo MediaType = "video"
	MediaTypeImage MediaType = "image"
	MediaTypeAudio MediaType = "audio"
	MediaTypePDF   MediaType = "pdf"
)

// MediaState is the visibility of a media item
type MediaState string

const (
	MediaStatePublic   MediaState = "public"
	MediaStatePrivate  MediaState = "private"
	MediaStateUnlisted MediaState = "unlisted"
)

// EncodingStatus tracks the external encoding pipeline
type EncodingStatus string

const (
	EncodingPending EncodingStatus = "pending"
	EncodingRunning EncodingStatus = "running"
	EncodingFail    EncodingStatus = "fail"
	EncodingSuccess EncodingStatus = "success"
)

// Media is an uploaded media item. FriendlyToken is the public identifier.
type Media struct {
	ID             string         `json:"-"`
	FriendlyToken  string         `json:"friendly_token"`
	Title          string         `json:"title"`
	Description    string         `json:"description"`
	MediaType      MediaType      `json:"media_type"`
	State          MediaState     `json:"state"`
	EncodingStatus EncodingStatus `json:"encoding_status"`
	UserID         string         `json:"-"`
	Username       string         `json:"user"`
	ThumbnailURL   *string        `json:"thumbnail_url"`
	Duration       int            `json:"duration"`
	Views          int            `json:"views"`
	Likes          int            `json:"likes"`
	Dislikes       int            `json:"dislikes"`
	Featured       bool           `json:"featured"`
	IsReviewed     bool           `json:"is_reviewed"`
	Categories     []string       `json:"categories"`
	Tags           []string       `json:"tags"`
	AddDate        time.Time      `json:"add_date"`
	EditDate       time.Time      `json:"edit_date"`
}

// AbsoluteURL returns the site-relative page URL of the media item
func (m *Media) AbsoluteURL() string {
	return MediaURL(m.FriendlyToken)
}

// APIURL returns the site-relative API URL of the media item
func (m *Media) APIURL() string {
	return "/api/v1/media/" + url.PathEscape(m.FriendlyToken)
}

// MediaURL builds the page URL for a friendly token
func MediaURL(friendlyToken string) string {
	return "/view?m=" + url.QueryEscape(friendlyToken)
}

// MediaSummary is the list representation of a media item
type MediaSummary struct {
	FriendlyToken  string         `json:"friendly_token"`
	URL            string         `json:"url"`
	APIURL         string         `json:"api_url"`
	User           string         `json:"user"`
	Title          string         `json:"title"`
	Description    string         `json:"description"`
	AddDate        time.Time      `json:"add_date"`
	Views          int            `json:"views"`
	MediaType      MediaType      `json:"media_type"`
	State          MediaState     `json:"state"`
	Duration       int            `json:"duration"`
	ThumbnailURL   *string        `json:"thumbnail_url"`
	EncodingStatus EncodingStatus `json:"encoding_status"`
	Likes          int            `json:"likes"`
	Dislikes       int            `json:"dislikes"`
	Featured       bool           `json:"featured"`
	IsReviewed     bool           `json:"is_reviewed"`
}

// Summary converts a media item to its list representation
func (m *Media) Summary() *MediaSummary {
	return &MediaSummary{
		FriendlyToken:  m.FriendlyToken,
		URL:            m.AbsoluteURL(),
		APIURL:         m.APIURL(),
		User:           m.Username,
		Title:          m.Title,
		Description:    m.Description,
		AddDate:        m.AddDate,
		Views:          m.Views,
		MediaType:      m.MediaType,
		State:          m.State,
		Duration:       m.Duration,
		ThumbnailURL:   m.ThumbnailURL,
		EncodingStatus: m.EncodingStatus,
		Likes:          m.Likes,
		Dislikes:       m.Dislikes,
		Featured:       m.Featured,
		IsReviewed:     m.IsReviewed,
	}
}

// Category groups media. Global categories are visible to every user.
type Category struct {
	ID           string  `json:"-"`
	Title        string  `json:"title"`
	Description  string  `json:"description"`
	IsGlobal     bool    `json:"is_global"`
	MediaCount   int     `json:"media_count"`
	User         string  `json:"user"`
	ThumbnailURL *string `json:"thumbnail_url"`
}

// Tag is a free-form media label
type Tag struct {
	ID           string  `json:"-"`
	Title        string  `json:"title"`
	MediaCount   int     `json:"media_count"`
	ThumbnailURL *string `json:"thumbnail_url"`
}

// EncodeProfile describes an output rendition of the encoding pipeline
type EncodeProfile struct {
	ID          string `json:"-"`
	Name        string `json:"name"`
	Extension   string `json:"extension"`
	Resolution  int    `json:"resolution"`
	Codec       string `json:"codec"`
	Description string `json:"description"`
	Active      bool   `json:"active"`
}

// Pagination defaults for list endpoints
const (
	DefaultPageSize = 50
	MaxPageSize     = 200
)
