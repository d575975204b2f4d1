package media

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cinelog/cinelog/internal/models"
)

func filmKey(externalID int) models.MediaKey {
	return models.MediaKey{ExternalID: externalID, Kind: models.KindFilm, Season: models.NoSeason}
}

func TestResolveOneIsIdempotent(t *testing.T) {
	store := newMemStore()
	resolver := NewResolver(store)
	ctx := context.Background()

	cand := Candidate{Key: filmKey(550), Title: "Fight Club", PosterPath: "/poster.jpg"}

	first, err := resolver.ResolveOne(ctx, cand)
	require.NoError(t, err)
	second, err := resolver.ResolveOne(ctx, cand)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, store.rowCount())
}

func TestResolveOneRejectsMissingExternalID(t *testing.T) {
	resolver := NewResolver(newMemStore())
	_, err := resolver.ResolveOne(context.Background(), Candidate{Key: models.MediaKey{Kind: models.KindFilm}})
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestResolveManyBatches(t *testing.T) {
	store := newMemStore()
	resolver := NewResolver(store)

	cands := make([]Candidate, 0, 40)
	for i := 1; i <= 40; i++ {
		cands = append(cands, Candidate{Key: filmKey(i)})
	}

	res, err := resolver.ResolveMany(context.Background(), cands)
	require.NoError(t, err)
	assert.Len(t, res.IDs, 40)
	assert.Empty(t, res.Invalid)

	// Bounded round-trips regardless of batch size: lookup, insert,
	// re-lookup of the created keys.
	assert.Equal(t, 2, store.findCalls)
	assert.Equal(t, 1, store.createCalls)
}

func TestResolveManyCollapsesDuplicates(t *testing.T) {
	store := newMemStore()
	resolver := NewResolver(store)

	res, err := resolver.ResolveMany(context.Background(), []Candidate{
		{Key: filmKey(550), Title: "Fight Club"},
		{Key: filmKey(550), Title: "Fight Club"},
		{Key: filmKey(550), Title: "Fight Club"},
	})
	require.NoError(t, err)
	assert.Len(t, res.IDs, 1)
	assert.Equal(t, 1, store.rowCount())
}

func TestResolveManyReportsInvalidWithoutAborting(t *testing.T) {
	store := newMemStore()
	resolver := NewResolver(store)

	res, err := resolver.ResolveMany(context.Background(), []Candidate{
		{Key: filmKey(550), Title: "Fight Club"},
		{Key: models.MediaKey{Kind: models.KindFilm}}, // no external id
		{Key: filmKey(27205), Title: "Inception"},
	})
	require.NoError(t, err)
	assert.Len(t, res.IDs, 2)
	require.Len(t, res.Invalid, 1)
	assert.Equal(t, 1, res.Invalid[0].Index)
	assert.ErrorIs(t, res.Invalid[0].Err, ErrInvalidKey)
}

func TestResolveManyAllExistingSkipsInsert(t *testing.T) {
	store := newMemStore()
	resolver := NewResolver(store)
	ctx := context.Background()

	_, err := resolver.ResolveMany(ctx, []Candidate{{Key: filmKey(550)}})
	require.NoError(t, err)

	store.findCalls = 0
	store.createCalls = 0

	_, err = resolver.ResolveMany(ctx, []Candidate{{Key: filmKey(550)}})
	require.NoError(t, err)
	assert.Equal(t, 1, store.findCalls)
	assert.Equal(t, 0, store.createCalls)
}

func TestResolveDoesNotRefreshExistingRows(t *testing.T) {
	store := newMemStore()
	resolver := NewResolver(store)
	ctx := context.Background()

	id, err := resolver.ResolveOne(ctx, Candidate{Key: filmKey(550), Title: "Fight Club", PosterPath: "/a.jpg"})
	require.NoError(t, err)

	// The catalog's representation changed; the canonical row is a
	// stable cache and keeps its first-seen fields.
	again, err := resolver.ResolveOne(ctx, Candidate{Key: filmKey(550), Title: "Fight Club (1999)", PosterPath: "/b.jpg"})
	require.NoError(t, err)
	assert.Equal(t, id, again)

	row := store.rows[filmKey(550)]
	assert.Equal(t, "Fight Club", row.Title)
	assert.Equal(t, "/a.jpg", row.PosterPath)
}

func TestResolveSeasonScopedKey(t *testing.T) {
	store := newMemStore()
	resolver := NewResolver(store)
	ctx := context.Background()

	showKey := models.MediaKey{ExternalID: 1399, Kind: models.KindTV, Season: models.NoSeason}
	seasonKey := models.MediaKey{ExternalID: 1399, Kind: models.KindTV, Season: 1}

	showID, err := resolver.ResolveOne(ctx, Candidate{Key: showKey, Title: "Game of Thrones"})
	require.NoError(t, err)
	seasonID, err := resolver.ResolveOne(ctx, Candidate{Key: seasonKey, Title: "Game of Thrones: Season 1"})
	require.NoError(t, err)

	assert.NotEqual(t, showID, seasonID)
	assert.Equal(t, 2, store.rowCount())

	seasonRow := store.rows[seasonKey]
	require.NotNil(t, seasonRow.SeasonNumber)
	assert.Equal(t, 1, *seasonRow.SeasonNumber)
	require.NotNil(t, seasonRow.ParentExternalID)
	assert.Equal(t, 1399, *seasonRow.ParentExternalID)
}

type failingMediaStore struct{ err error }

func (s *failingMediaStore) FindByKeys(context.Context, []models.MediaKey) (map[models.MediaKey]*models.CanonicalMedia, error) {
	return nil, s.err
}

func (s *failingMediaStore) CreateIfAbsent(context.Context, []*models.CanonicalMedia) error {
	return s.err
}

func TestResolvePropagatesStorageFailureAsTransient(t *testing.T) {
	storeErr := errors.New("connection refused")
	resolver := NewResolver(&failingMediaStore{err: storeErr})

	_, err := resolver.ResolveMany(context.Background(), []Candidate{{Key: filmKey(550)}})
	require.Error(t, err)
	assert.True(t, IsTransient(err))
	assert.ErrorIs(t, err, storeErr)
}
