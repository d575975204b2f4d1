package media

import (
	"context"

	"github.com/cinelog/cinelog/internal/models"
)

// MediaStore is the storage collaborator for canonical rows. The
// uniqueness of the natural key is the store's guarantee (a unique
// index, not application locking): CreateIfAbsent must never produce
// a second row for a key that already exists, including under
// concurrent calls from separate processes.
type MediaStore interface {
	// FindByKeys returns the rows that exist for the given keys, in
	// one round-trip.
	FindByKeys(ctx context.Context, keys []models.MediaKey) (map[models.MediaKey]*models.CanonicalMedia, error)

	// CreateIfAbsent inserts the given rows, silently skipping any
	// whose natural key already exists, in one round-trip.
	CreateIfAbsent(ctx context.Context, items []*models.CanonicalMedia) error
}

// Candidate pairs a natural key with the display fields used if a new
// canonical row has to be created for it.
type Candidate struct {
	Key        models.MediaKey
	Title      string
	PosterPath string
}

// InvalidCandidate reports a single rejected batch entry by its input
// position.
type InvalidCandidate struct {
	Index int
	Err   error
}

// Resolution is the outcome of a batch resolve: canonical IDs for
// every valid key, plus the entries that were rejected.
type Resolution struct {
	IDs     map[models.MediaKey]int64
	Invalid []InvalidCandidate
}

// Resolver maps natural keys to canonical media IDs, creating rows on
// first sight. Existing rows are never rewritten: the canonical table
// is a stable local cache of the catalog's first-seen representation.
type Resolver struct {
	store MediaStore
}

// NewResolver returns a resolver backed by store.
func NewResolver(store MediaStore) *Resolver {
	return &Resolver{store: store}
}

// ResolveOne finds or creates the canonical row for a single
// candidate. Calling it twice with the same key returns the same ID
// and leaves exactly one row behind.
func (r *Resolver) ResolveOne(ctx context.Context, cand Candidate) (int64, error) {
	if cand.Key.ExternalID == 0 {
		return 0, ErrInvalidKey
	}
	res, err := r.ResolveMany(ctx, []Candidate{cand})
	if err != nil {
		return 0, err
	}
	id, ok := res.IDs[normalizeKey(cand.Key)]
	if !ok {
		return 0, ErrNotFound
	}
	return id, nil
}

// ResolveMany batch-resolves candidates in a bounded number of store
// round-trips: one lookup, one insert of the missing keys, and one
// re-lookup to pick up rows created here or by a concurrent resolver.
// Duplicate keys collapse; malformed entries are reported in the
// result without aborting the batch. Storage failures propagate as
// transient errors and are not retried here.
func (r *Resolver) ResolveMany(ctx context.Context, cands []Candidate) (*Resolution, error) {
	res := &Resolution{IDs: make(map[models.MediaKey]int64, len(cands))}

	seen := make(map[models.MediaKey]Candidate, len(cands))
	keys := make([]models.MediaKey, 0, len(cands))
	for i, cand := range cands {
		if cand.Key.ExternalID == 0 {
			res.Invalid = append(res.Invalid, InvalidCandidate{Index: i, Err: ErrInvalidKey})
			continue
		}
		key := normalizeKey(cand.Key)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = cand
		keys = append(keys, key)
	}
	if len(keys) == 0 {
		return res, nil
	}

	found, err := r.store.FindByKeys(ctx, keys)
	if err != nil {
		return nil, Transient(err)
	}
	for key, row := range found {
		res.IDs[key] = row.ID
	}

	var missing []*models.CanonicalMedia
	for _, key := range keys {
		if _, ok := found[key]; ok {
			continue
		}
		missing = append(missing, newRow(key, seen[key]))
	}
	if len(missing) == 0 {
		return res, nil
	}

	if err := r.store.CreateIfAbsent(ctx, missing); err != nil {
		return nil, Transient(err)
	}

	// Re-read instead of trusting the insert: a concurrent resolver
	// may have won the race on some keys, and their IDs are what the
	// unique index kept.
	missingKeys := make([]models.MediaKey, len(missing))
	for i, row := range missing {
		missingKeys[i] = row.Key()
	}
	created, err := r.store.FindByKeys(ctx, missingKeys)
	if err != nil {
		return nil, Transient(err)
	}
	for key, row := range created {
		res.IDs[key] = row.ID
	}

	return res, nil
}

func normalizeKey(key models.MediaKey) models.MediaKey {
	if key.Kind == "" {
		key.Kind = models.KindUnknown
	}
	return key
}

func newRow(key models.MediaKey, cand Candidate) *models.CanonicalMedia {
	row := &models.CanonicalMedia{
		ExternalID: key.ExternalID,
		Kind:       key.Kind,
		Title:      cand.Title,
		PosterPath: cand.PosterPath,
	}
	if key.Season != models.NoSeason {
		season := key.Season
		row.SeasonNumber = &season
		parent := key.ExternalID
		row.ParentExternalID = &parent
	}
	return row
}
