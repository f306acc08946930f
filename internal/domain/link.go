package domain

import (
	"encoding/json"
	"time"
)

// Link is a single tile of the start page grid.
//
// The collection order is the display order; Link itself carries no position.
type Link struct {
	// ─────────────────────────────
	// Identity (immutable)
	// ─────────────────────────────

	// ID is opaque and unique across the whole collection.
	ID string

	// CreatedAt is set once at creation, in milliseconds since epoch.
	CreatedAt int64

	// ─────────────────────────────
	// Editable content
	// ─────────────────────────────

	// Title may be empty on input; display falls back to the hostname.
	Title string

	// URL is always normalized and never empty for a stored link.
	URL string

	// Thumb is a self-contained data URI.
	// Empty means the generated initials glyph is shown instead.
	Thumb string
}

// linkJSON is the persisted/exported shape: {id, title, url, thumb, createdAt}.
type linkJSON struct {
	ID        string  `json:"id"`
	Title     string  `json:"title"`
	URL       string  `json:"url"`
	Thumb     *string `json:"thumb"`
	CreatedAt int64   `json:"createdAt"`
}

func (l Link) MarshalJSON() ([]byte, error) {
	out := linkJSON{
		ID:        l.ID,
		Title:     l.Title,
		URL:       l.URL,
		CreatedAt: l.CreatedAt,
	}
	if l.Thumb != "" {
		thumb := l.Thumb
		out.Thumb = &thumb
	}
	return json.Marshal(out)
}

func (l *Link) UnmarshalJSON(data []byte) error {
	var in linkJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*l = Link{
		ID:        in.ID,
		Title:     in.Title,
		URL:       in.URL,
		CreatedAt: in.CreatedAt,
	}
	if in.Thumb != nil {
		l.Thumb = *in.Thumb
	}
	return nil
}

// HasThumb reports whether the link carries an uploaded thumbnail.
func (l Link) HasThumb() bool { return l.Thumb != "" }

// Created returns CreatedAt as a time.Time.
func (l Link) Created() time.Time { return time.UnixMilli(l.CreatedAt) }

// DisplayTitle is the title shown on the card: the title, or the hostname when empty.
func (l Link) DisplayTitle() string {
	if l.Title != "" {
		return l.Title
	}
	return Hostname(l.URL)
}

// Envelope is the export/import file format.
// The live persistence slot stores a bare array, never this envelope.
type Envelope struct {
	Version int    `json:"version"`
	Links   []Link `json:"links"`
}

// ExportVersion is written into every export envelope.
const ExportVersion = 1
