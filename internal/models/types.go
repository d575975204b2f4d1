package models

// MediaKind is the canonical classification of a catalog record.
// It is always derived from the record's shape, never stored as raw
// catalog data.
type MediaKind string

const (
	KindFilm    MediaKind = "Film"
	KindTV      MediaKind = "TV"
	KindAnime   MediaKind = "Anime"
	KindUnknown MediaKind = "Unknown"
)

// ActivityKind tags a single user action against a media item.
type ActivityKind string

const (
	ActivityWatched     ActivityKind = "Watched"
	ActivityLiked       ActivityKind = "Liked"
	ActivityWatchlisted ActivityKind = "Watchlisted"
	ActivityRated       ActivityKind = "Rated"
	ActivityReviewed    ActivityKind = "Reviewed"
)

// Toggleable reports whether the kind follows presence/absence toggle
// semantics (one active row at most, delete to turn off).
func (k ActivityKind) Toggleable() bool {
	switch k {
	case ActivityWatched, ActivityLiked, ActivityWatchlisted:
		return true
	}
	return false
}
