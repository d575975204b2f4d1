package media

import (
	"context"

	"github.com/cinelog/cinelog/internal/models"
)

// ActivityReader is the read side of the activity storage
// collaborator. Both calls are batched with an IN-filter over the
// full ID set; implementations must not fan out per item.
type ActivityReader interface {
	// KindsByMedia returns the distinct activity kinds the user has
	// recorded, grouped by canonical media ID.
	KindsByMedia(ctx context.Context, userID int64, mediaIDs []int64) (map[int64][]models.ActivityKind, error)

	// RatingsByMedia returns the current rating per canonical media
	// ID, for the IDs the user has rated.
	RatingsByMedia(ctx context.Context, userID int64, mediaIDs []int64) (map[int64]float64, error)
}

// Folder loads per-item activity summaries for a user.
type Folder struct {
	store ActivityReader
}

// NewFolder returns a folder backed by store.
func NewFolder(store ActivityReader) *Folder {
	return &Folder{store: store}
}

// LoadSummaries returns one summary per requested ID. An absent
// identity is a valid state, not an error: every ID maps to the empty
// summary and storage is never touched. With an identity present the
// load costs exactly two batched queries regardless of len(mediaIDs).
func (f *Folder) LoadSummaries(ctx context.Context, identity *int64, mediaIDs []int64) (map[int64]models.ActivitySummary, error) {
	summaries := make(map[int64]models.ActivitySummary, len(mediaIDs))
	for _, id := range mediaIDs {
		summaries[id] = models.ActivitySummary{}
	}
	if identity == nil || len(mediaIDs) == 0 {
		return summaries, nil
	}

	kinds, err := f.store.KindsByMedia(ctx, *identity, mediaIDs)
	if err != nil {
		return nil, Transient(err)
	}
	ratings, err := f.store.RatingsByMedia(ctx, *identity, mediaIDs)
	if err != nil {
		return nil, Transient(err)
	}

	for id := range summaries {
		s := models.ActivitySummary{Kinds: kinds[id]}
		if rating, ok := ratings[id]; ok {
			r := rating
			s.Rating = &r
		}
		summaries[id] = s
	}
	return summaries, nil
}
