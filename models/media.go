package models

import (
	"encoding/json"
	"time"
)

// MediaType enumerates the sources an activity can be logged against.
type MediaType string

const (
	MediaMovie  MediaType = "movie"
	MediaTV     MediaType = "tv"
	MediaBook   MediaType = "book"
	MediaCustom MediaType = "custom"
)

// Valid reports whether t is one of the known media types.
func (t MediaType) Valid() bool {
	switch t {
	case MediaMovie, MediaTV, MediaBook, MediaCustom:
		return true
	}
	return false
}

// Media is a third-party (TMDB) title persisted locally. TMDBID is zero for
// custom media, which lives in its own table but shares this id space at the
// API boundary.
type Media struct {
	ID          string    `json:"id"`
	TMDBID      int64     `json:"tmdbId,omitempty"`
	Title       string    `json:"title"`
	Type        MediaType `json:"mediaType"`
	ReleaseDate string    `json:"releaseDate,omitempty"` // YYYY-MM-DD when known
	Popularity  float64   `json:"popularity,omitempty"`
	PosterURL   string    `json:"posterUrl,omitempty"`
	SyncedAt    time.Time `json:"syncedAt,omitempty"`
}

// Stale reports whether the locally stored copy is older than ttl and should
// be refreshed from TMDB on next access.
func (m Media) Stale(ttl time.Duration, now time.Time) bool {
	if m.TMDBID == 0 {
		return false
	}
	return m.SyncedAt.IsZero() || now.Sub(m.SyncedAt) > ttl
}

// CustomMedia is a user-authored media entry not sourced from TMDB. Every
// custom media entry owns a shadow row in the media table (type "custom")
// so activities can reference either source through one foreign key; the two
// rows are created in a single transaction.
type CustomMedia struct {
	ID        string          `json:"id"`
	UserID    string          `json:"userId"`
	MediaID   string          `json:"mediaId"`
	Title     string          `json:"title"`
	Slug      string          `json:"slug"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// CustomMediaInput carries create/update fields for custom media.
type CustomMediaInput struct {
	Title    string          `json:"title"`
	Metadata json.RawMessage `json:"metadata,omitempty"`
}

// SearchResult is the unified shape returned by media search, covering both
// TMDB titles and the user's custom media.
type SearchResult struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Type        MediaType `json:"mediaType"`
	ReleaseDate string    `json:"releaseDate,omitempty"`
	Popularity  float64   `json:"popularity,omitempty"`
	PosterURL   string    `json:"posterUrl,omitempty"`
	Custom      bool      `json:"custom"`
}
