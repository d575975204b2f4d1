package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cinelog/cinelog/internal/auth"
	"github.com/cinelog/cinelog/internal/logger"
	"github.com/cinelog/cinelog/internal/media"
	"github.com/cinelog/cinelog/internal/models"
)

// fakeCatalog serves canned records for every list endpoint.
type fakeCatalog struct {
	records []*models.ExternalMediaRecord
	err     error
}

func (f *fakeCatalog) Trending(context.Context, string, int) ([]*models.ExternalMediaRecord, error) {
	return f.records, f.err
}
func (f *fakeCatalog) PopularMovies(context.Context, int) ([]*models.ExternalMediaRecord, error) {
	return f.records, f.err
}
func (f *fakeCatalog) PopularTV(context.Context, int) ([]*models.ExternalMediaRecord, error) {
	return f.records, f.err
}
func (f *fakeCatalog) SearchMulti(context.Context, string, int) ([]*models.ExternalMediaRecord, error) {
	return f.records, f.err
}
func (f *fakeCatalog) GetMovie(_ context.Context, id int) (*models.ExternalMediaRecord, error) {
	for _, r := range f.records {
		if r.ExternalID == id {
			return r, f.err
		}
	}
	return nil, f.err
}
func (f *fakeCatalog) GetTV(_ context.Context, id int) (*models.ExternalMediaRecord, error) {
	return f.GetMovie(nil, id)
}

// fakeMediaStore implements media.MediaStore over a map.
type fakeMediaStore struct {
	nextID int64
	rows   map[models.MediaKey]*models.CanonicalMedia
}

func newFakeMediaStore() *fakeMediaStore {
	return &fakeMediaStore{rows: make(map[models.MediaKey]*models.CanonicalMedia)}
}

func (s *fakeMediaStore) FindByKeys(_ context.Context, keys []models.MediaKey) (map[models.MediaKey]*models.CanonicalMedia, error) {
	found := make(map[models.MediaKey]*models.CanonicalMedia)
	for _, key := range keys {
		if row, ok := s.rows[key]; ok {
			found[key] = row
		}
	}
	return found, nil
}

func (s *fakeMediaStore) CreateIfAbsent(_ context.Context, items []*models.CanonicalMedia) error {
	for _, item := range items {
		key := item.Key()
		if _, ok := s.rows[key]; ok {
			continue
		}
		s.nextID++
		row := *item
		row.ID = s.nextID
		s.rows[key] = &row
	}
	return nil
}

// fakeActivityReader implements media.ActivityReader from preloaded maps.
type fakeActivityReader struct {
	kinds   map[int64][]models.ActivityKind
	ratings map[int64]float64
}

func (f *fakeActivityReader) KindsByMedia(_ context.Context, _ int64, ids []int64) (map[int64][]models.ActivityKind, error) {
	out := make(map[int64][]models.ActivityKind)
	for _, id := range ids {
		if k, ok := f.kinds[id]; ok {
			out[id] = k
		}
	}
	return out, nil
}

func (f *fakeActivityReader) RatingsByMedia(_ context.Context, _ int64, ids []int64) (map[int64]float64, error) {
	out := make(map[int64]float64)
	for _, id := range ids {
		if r, ok := f.ratings[id]; ok {
			out[id] = r
		}
	}
	return out, nil
}

func newTestRouter(catalog Catalog, reader media.ActivityReader, tokens *auth.TokenManager) http.Handler {
	builder := media.NewAggregator(newFakeMediaStore(), reader)
	handler := NewHandler(catalog, builder, nil, nil, nil, tokens, logger.New("test", "disabled"))
	return SetupRoutes(handler)
}

func TestGetTrendingAnonymous(t *testing.T) {
	catalog := &fakeCatalog{records: []*models.ExternalMediaRecord{
		{ExternalID: 550, MediaType: "movie", Title: "Fight Club",
			PosterPath: "https://image.tmdb.org/t/p/w500/fc.jpg"},
	}}
	router := newTestRouter(catalog, &fakeActivityReader{}, auth.NewTokenManager("test-secret"))

	req := httptest.NewRequest("GET", "/api/v1/browse/trending", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var items []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &items))
	require.Len(t, items, 1)

	assert.Equal(t, float64(550), items[0]["external_id"])
	assert.Equal(t, "Fight Club", items[0]["title"])
	assert.Equal(t, "Film", items[0]["kind"])
	assert.Equal(t, "https://image.tmdb.org/t/p/w500/fc.jpg", items[0]["poster_path"])
	// Boundary contract: -1 sentinel and an empty (not null) tag list.
	assert.Equal(t, float64(-1), items[0]["rating"])
	assert.Equal(t, []interface{}{}, items[0]["activity_kinds"])
}

func TestGetTrendingFoldsSignedInActivity(t *testing.T) {
	catalog := &fakeCatalog{records: []*models.ExternalMediaRecord{
		{ExternalID: 550, MediaType: "movie", Title: "Fight Club"},
	}}
	// Canonical IDs are assigned in order, so the single record
	// resolves to ID 1.
	reader := &fakeActivityReader{
		kinds:   map[int64][]models.ActivityKind{1: {models.ActivityWatched, models.ActivityRated}},
		ratings: map[int64]float64{1: 4.5},
	}
	tokens := auth.NewTokenManager("test-secret")
	router := newTestRouter(catalog, reader, tokens)

	token, _, err := tokens.GenerateToken(7, "frank", false)
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/api/v1/browse/trending", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var items []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &items))
	require.Len(t, items, 1)
	assert.Equal(t, float64(4.5), items[0]["rating"])
	assert.ElementsMatch(t, []interface{}{"Watched", "Rated"}, items[0]["activity_kinds"])
}

func TestBrowseIgnoresInvalidToken(t *testing.T) {
	catalog := &fakeCatalog{records: []*models.ExternalMediaRecord{
		{ExternalID: 550, MediaType: "movie", Title: "Fight Club"},
	}}
	router := newTestRouter(catalog, &fakeActivityReader{}, auth.NewTokenManager("test-secret"))

	req := httptest.NewRequest("GET", "/api/v1/browse/trending", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	// Browse is anonymous-friendly: a bad token degrades to the
	// anonymous view instead of failing.
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestActivityEndpointsRequireAuth(t *testing.T) {
	router := newTestRouter(&fakeCatalog{}, &fakeActivityReader{}, auth.NewTokenManager("test-secret"))

	req := httptest.NewRequest("POST", "/api/v1/activity/watched", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSearchRequiresQuery(t *testing.T) {
	router := newTestRouter(&fakeCatalog{}, &fakeActivityReader{}, auth.NewTokenManager("test-secret"))

	req := httptest.NewRequest("GET", "/api/v1/search", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRespondStoreErrorMatchesWrappedSentinels(t *testing.T) {
	// Store errors carry context around the sentinel; the mapping
	// must see through the wrapping.
	rec := httptest.NewRecorder()
	respondStoreError(rec, fmt.Errorf("media 42: %w", media.ErrNotFound))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	respondStoreError(rec, fmt.Errorf("%w: insert rating: connection reset", media.ErrInconsistentWrite))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "review write failed, nothing was saved", body["error"])

	rec = httptest.NewRecorder()
	respondStoreError(rec, media.Transient(fmt.Errorf("dial tcp: refused")))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestIsUniqueViolation(t *testing.T) {
	dup := &pq.Error{Code: "23505", Constraint: "users_username_key"}
	assert.True(t, isUniqueViolation(dup))
	assert.True(t, isUniqueViolation(fmt.Errorf("create user: %w", dup)))

	assert.False(t, isUniqueViolation(&pq.Error{Code: "23503"}))
	assert.False(t, isUniqueViolation(fmt.Errorf("duplicate key value")))
	assert.False(t, isUniqueViolation(nil))
}

func TestHealthCheck(t *testing.T) {
	router := newTestRouter(&fakeCatalog{}, &fakeActivityReader{}, auth.NewTokenManager("test-secret"))

	req := httptest.NewRequest("GET", "/api/v1/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}
