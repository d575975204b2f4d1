package media

import (
	"context"

	"github.com/cinelog/cinelog/internal/models"
)

// Aggregator composes the full pipeline: classify raw records,
// resolve them to canonical rows in one batched call, then fold the
// caller's activity on in one batched load. It replaces the inline
// per-page variants of this logic with a single code path.
type Aggregator struct {
	resolver *Resolver
	folder   *Folder
}

// NewAggregator wires the pipeline over the two storage collaborators.
func NewAggregator(mediaStore MediaStore, activityStore ActivityReader) *Aggregator {
	return &Aggregator{
		resolver: NewResolver(mediaStore),
		folder:   NewFolder(activityStore),
	}
}

// Resolver exposes the canonical resolver for callers that need a
// canonical ID outside the build pipeline (activity writes).
func (a *Aggregator) Resolver() *Resolver { return a.resolver }

// BuildForOne is the single-item path of BuildForMany and produces
// exactly what the batch path produces for a singleton list.
func (a *Aggregator) BuildForOne(ctx context.Context, identity *int64, rec *models.ExternalMediaRecord) (*models.MediaWithActivity, error) {
	items, err := a.BuildForMany(ctx, identity, []*models.ExternalMediaRecord{rec})
	if err != nil {
		return nil, err
	}
	return items[0], nil
}

// BuildForMany runs the batch pipeline. The output preserves the
// input's order and length; records with no usable catalog key still
// yield an item (from their raw fields) with an empty summary.
// Anonymous callers cost zero activity-storage round-trips.
func (a *Aggregator) BuildForMany(ctx context.Context, identity *int64, recs []*models.ExternalMediaRecord) ([]*models.MediaWithActivity, error) {
	items := make([]*models.MediaWithActivity, len(recs))
	cands := make([]Candidate, len(recs))
	keys := make([]models.MediaKey, len(recs))

	for i, rec := range recs {
		kind := Classify(rec)
		items[i] = &models.MediaWithActivity{
			Kind:          kind,
			Rating:        models.NoRating,
			ActivityKinds: []string{},
		}
		if rec == nil {
			continue
		}
		items[i].ExternalID = rec.ExternalID
		items[i].Title = rec.DisplayTitle()
		items[i].PosterPath = rec.PosterPath

		key := models.MediaKey{ExternalID: rec.ExternalID, Kind: kind, Season: models.NoSeason}
		keys[i] = key
		cands[i] = Candidate{Key: key, Title: rec.DisplayTitle(), PosterPath: rec.PosterPath}
	}

	res, err := a.resolver.ResolveMany(ctx, cands)
	if err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(res.IDs))
	for _, id := range res.IDs {
		ids = append(ids, id)
	}
	summaries, err := a.folder.LoadSummaries(ctx, identity, ids)
	if err != nil {
		return nil, err
	}

	for i := range items {
		id, ok := res.IDs[keys[i]]
		if !ok {
			continue
		}
		summary := summaries[id]
		if summary.Rating != nil {
			items[i].Rating = *summary.Rating
		}
		for _, kind := range summary.Kinds {
			items[i].ActivityKinds = append(items[i].ActivityKinds, string(kind))
		}
	}

	return items, nil
}
