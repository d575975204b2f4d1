package models

import (
	"time"

	"github.com/google/uuid"
)

// Activity is one recorded user action against a canonical media row.
// Rated rows carry a rating payload; Reviewed rows carry the review
// payload plus an optional rating/liked claim mirrored into their own
// Rated/Liked rows by the store.
type Activity struct {
	ID         int64        `json:"id"`
	UserID     int64        `json:"user_id"`
	MediaID    int64        `json:"media_id"`
	Kind       ActivityKind `json:"kind"`
	Rating     *float64     `json:"rating,omitempty"`
	ReviewID   *uuid.UUID   `json:"review_id,omitempty"`
	ReviewText *string      `json:"review_text,omitempty"`
	Spoiler    bool         `json:"spoiler,omitempty"`
	Rewatched  bool         `json:"rewatched,omitempty"`
	Liked      bool         `json:"liked,omitempty"`
	CreatedAt  time.Time    `json:"created_at"`
}

// ReviewPayload is the input for creating a review.
type ReviewPayload struct {
	Text      string   `json:"text"`
	Spoiler   bool     `json:"spoiler"`
	Rewatched bool     `json:"rewatched"`
	Rating    *float64 `json:"rating,omitempty"`
	Liked     bool     `json:"liked"`
}

// ActivitySummary is the per-item fold of a user's activity rows. It
// is a read projection, never persisted.
type ActivitySummary struct {
	Kinds  []ActivityKind `json:"kinds"`
	Rating *float64       `json:"rating,omitempty"`
}

// NoRating is the boundary sentinel for "no rating recorded",
// preserved from the contract existing consumers render against.
const NoRating float64 = -1

// MediaWithActivity is the per-item output shape of the aggregator.
// Rating is NoRating when the caller is anonymous or has not rated.
type MediaWithActivity struct {
	ExternalID    int       `json:"external_id"`
	Title         string    `json:"title"`
	PosterPath    string    `json:"poster_path"`
	Kind          MediaKind `json:"kind"`
	Rating        float64   `json:"rating"`
	ActivityKinds []string  `json:"activity_kinds"`
}
