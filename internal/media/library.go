package media

import (
	"context"
	"math"

	"github.com/google/uuid"

	"github.com/cinelog/cinelog/internal/models"
)

// ActivityWriter is the write side of the activity storage
// collaborator. Every method runs as a single transaction so a
// concurrent summary read never observes an intermediate state
// (rating deleted, replacement not yet inserted).
type ActivityWriter interface {
	// Toggle flips the presence of a toggleable activity row and
	// reports the resulting state (true = now active).
	Toggle(ctx context.Context, userID, mediaID int64, kind models.ActivityKind) (bool, error)

	// ReplaceRating retracts any active rating row and inserts the
	// new one.
	ReplaceRating(ctx context.Context, userID, mediaID int64, rating float64) error

	// ClearRating retracts any active rating row.
	ClearRating(ctx context.Context, userID, mediaID int64) error

	// CreateReview inserts a review row and, in the same
	// transaction, mirrors its rating and liked claims into their
	// Rated/Liked rows via the same retract-then-create pattern.
	CreateReview(ctx context.Context, userID, mediaID int64, review models.ReviewPayload) (uuid.UUID, error)

	// DeleteReview removes one review row owned by the user.
	DeleteReview(ctx context.Context, userID int64, reviewID uuid.UUID) error
}

// Library exposes the user-activity write operations, validating
// inputs before they reach storage. Toggle operations are their own
// inverse; rating writes follow retract-then-create so at most one
// active rating exists per (user, media).
type Library struct {
	store ActivityWriter
}

// NewLibrary returns a library backed by store.
func NewLibrary(store ActivityWriter) *Library {
	return &Library{store: store}
}

// RecordRating replaces the user's rating for a media item. Ratings
// are 0-5 in half-point steps.
func (l *Library) RecordRating(ctx context.Context, identity *int64, mediaID int64, rating float64) error {
	if identity == nil {
		return ErrIdentityRequired
	}
	if !validRating(rating) {
		return ErrInvalidRating
	}
	return l.store.ReplaceRating(ctx, *identity, mediaID, rating)
}

// ClearRating retracts the user's rating, if any.
func (l *Library) ClearRating(ctx context.Context, identity *int64, mediaID int64) error {
	if identity == nil {
		return ErrIdentityRequired
	}
	return l.store.ClearRating(ctx, *identity, mediaID)
}

// ToggleWatched flips watched state and returns the new state.
func (l *Library) ToggleWatched(ctx context.Context, identity *int64, mediaID int64) (bool, error) {
	return l.toggle(ctx, identity, mediaID, models.ActivityWatched)
}

// ToggleLiked flips liked state and returns the new state.
func (l *Library) ToggleLiked(ctx context.Context, identity *int64, mediaID int64) (bool, error) {
	return l.toggle(ctx, identity, mediaID, models.ActivityLiked)
}

// ToggleWatchlisted flips watchlist membership and returns the new
// state.
func (l *Library) ToggleWatchlisted(ctx context.Context, identity *int64, mediaID int64) (bool, error) {
	return l.toggle(ctx, identity, mediaID, models.ActivityWatchlisted)
}

func (l *Library) toggle(ctx context.Context, identity *int64, mediaID int64, kind models.ActivityKind) (bool, error) {
	if identity == nil {
		return false, ErrIdentityRequired
	}
	return l.store.Toggle(ctx, *identity, mediaID, kind)
}

// RecordReview creates a review. A rating or liked claim on the
// payload is applied the same way as the standalone
// operations, atomically with the review row itself: a partial
// failure rolls the whole write back.
func (l *Library) RecordReview(ctx context.Context, identity *int64, mediaID int64, review models.ReviewPayload) (uuid.UUID, error) {
	if identity == nil {
		return uuid.Nil, ErrIdentityRequired
	}
	if review.Rating != nil && !validRating(*review.Rating) {
		return uuid.Nil, ErrInvalidRating
	}
	return l.store.CreateReview(ctx, *identity, mediaID, review)
}

// DeleteReview removes one of the user's reviews.
func (l *Library) DeleteReview(ctx context.Context, identity *int64, reviewID uuid.UUID) error {
	if identity == nil {
		return ErrIdentityRequired
	}
	return l.store.DeleteReview(ctx, *identity, reviewID)
}

func validRating(rating float64) bool {
	if rating < 0 || rating > 5 {
		return false
	}
	return math.Mod(rating*2, 1) == 0
}
