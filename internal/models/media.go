package models

import "time"

// NoSeason marks a key that is not scoped to a TV season.
const NoSeason = -1

// ExternalMediaRecord is a raw item as returned by the catalog API.
// List endpoints use media_type plus either title (movies) or name
// (TV); detail endpoints fill the same fields. The record is read-only
// input to classification and resolution.
type ExternalMediaRecord struct {
	ExternalID    int      `json:"id"`
	Title         string   `json:"title,omitempty"`
	Name          string   `json:"name,omitempty"`
	PosterPath    string   `json:"poster_path,omitempty"`
	OriginCountry []string `json:"origin_country,omitempty"`
	GenreIDs      []int    `json:"genre_ids,omitempty"`
	MediaType     string   `json:"media_type,omitempty"` // "movie", "tv" or "person"
}

// DisplayTitle returns the title field appropriate for the record's
// shape: movies carry Title, TV carries Name.
func (r *ExternalMediaRecord) DisplayTitle() string {
	if r.Title != "" {
		return r.Title
	}
	return r.Name
}

// MediaKey is the natural key of a canonical media row. Season is
// NoSeason unless the key addresses a TV-season-scoped sub-record.
// The zero Season value is a real season (specials), so NoSeason is a
// dedicated sentinel.
type MediaKey struct {
	ExternalID int
	Kind       MediaKind
	Season     int
}

// CanonicalMedia is the locally-owned, deduplicated representation of
// a title. At most one row exists per (external_id, kind, season).
type CanonicalMedia struct {
	ID               int64      `json:"id"`
	ExternalID       int        `json:"external_id"`
	Kind             MediaKind  `json:"kind"`
	SeasonNumber     *int       `json:"season_number,omitempty"`
	ParentExternalID *int       `json:"parent_external_id,omitempty"`
	Title            string     `json:"title"`
	PosterPath       string     `json:"poster_path"`
	CreatedAt        time.Time  `json:"created_at"`
}

// Key returns the natural key of the row.
func (m *CanonicalMedia) Key() MediaKey {
	season := NoSeason
	if m.SeasonNumber != nil {
		season = *m.SeasonNumber
	}
	return MediaKey{ExternalID: m.ExternalID, Kind: m.Kind, Season: season}
}
