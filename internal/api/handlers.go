package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/cinelog/cinelog/internal/auth"
	"github.com/cinelog/cinelog/internal/database"
	"github.com/cinelog/cinelog/internal/media"
	"github.com/cinelog/cinelog/internal/models"
)

// Catalog is the slice of the catalog client the handlers use.
type Catalog interface {
	Trending(ctx context.Context, timeWindow string, page int) ([]*models.ExternalMediaRecord, error)
	PopularMovies(ctx context.Context, page int) ([]*models.ExternalMediaRecord, error)
	PopularTV(ctx context.Context, page int) ([]*models.ExternalMediaRecord, error)
	SearchMulti(ctx context.Context, query string, page int) ([]*models.ExternalMediaRecord, error)
	GetMovie(ctx context.Context, externalID int) (*models.ExternalMediaRecord, error)
	GetTV(ctx context.Context, externalID int) (*models.ExternalMediaRecord, error)
}

// Builder is the aggregation pipeline the browse handlers run catalog
// batches through.
type Builder interface {
	BuildForOne(ctx context.Context, identity *int64, rec *models.ExternalMediaRecord) (*models.MediaWithActivity, error)
	BuildForMany(ctx context.Context, identity *int64, recs []*models.ExternalMediaRecord) ([]*models.MediaWithActivity, error)
	Resolver() *media.Resolver
}

type Handler struct {
	catalog       Catalog
	builder       Builder
	library       *media.Library
	activityStore *database.ActivityStore
	userStore     *database.UserStore
	tokens        *auth.TokenManager
	log           zerolog.Logger
}

func NewHandler(
	catalog Catalog,
	builder Builder,
	library *media.Library,
	activityStore *database.ActivityStore,
	userStore *database.UserStore,
	tokens *auth.TokenManager,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		catalog:       catalog,
		builder:       builder,
		library:       library,
		activityStore: activityStore,
		userStore:     userStore,
		tokens:        tokens,
		log:           log,
	}
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondStoreError maps core error kinds to HTTP statuses. Store
// errors arrive wrapped, so matching goes through errors.Is.
func respondStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, media.ErrInvalidKey), errors.Is(err, media.ErrInvalidRating):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, media.ErrIdentityRequired):
		respondError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, media.ErrNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, media.ErrInconsistentWrite):
		respondError(w, http.StatusInternalServerError, "review write failed, nothing was saved")
	case media.IsTransient(err):
		respondError(w, http.StatusServiceUnavailable, "storage temporarily unavailable")
	default:
		respondError(w, http.StatusInternalServerError, err.Error())
	}
}

// HealthCheck handles GET /api/v1/health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func queryPage(r *http.Request) int {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

// GetTrending handles GET /api/v1/browse/trending
func (h *Handler) GetTrending(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	timeWindow := r.URL.Query().Get("time_window")
	if timeWindow == "" {
		timeWindow = "day"
	}

	records, err := h.catalog.Trending(ctx, timeWindow, queryPage(r))
	if err != nil {
		respondError(w, http.StatusBadGateway, "failed to get trending: "+err.Error())
		return
	}

	items, err := h.builder.BuildForMany(ctx, auth.IdentityFromContext(ctx), records)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, items)
}

// GetPopular handles GET /api/v1/browse/popular
func (h *Handler) GetPopular(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var records []*models.ExternalMediaRecord
	var err error
	switch r.URL.Query().Get("media_type") {
	case "tv":
		records, err = h.catalog.PopularTV(ctx, queryPage(r))
	default:
		records, err = h.catalog.PopularMovies(ctx, queryPage(r))
	}
	if err != nil {
		respondError(w, http.StatusBadGateway, "failed to get popular: "+err.Error())
		return
	}

	items, err := h.builder.BuildForMany(ctx, auth.IdentityFromContext(ctx), records)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, items)
}

// Search handles GET /api/v1/search
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	query := r.URL.Query().Get("query")
	if query == "" {
		respondError(w, http.StatusBadRequest, "query parameter required")
		return
	}

	records, err := h.catalog.SearchMulti(ctx, query, queryPage(r))
	if err != nil {
		respondError(w, http.StatusBadGateway, "search failed: "+err.Error())
		return
	}

	items, err := h.builder.BuildForMany(ctx, auth.IdentityFromContext(ctx), records)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, items)
}

// GetMediaDetail handles GET /api/v1/media/{media_type}/{id}
func (h *Handler) GetMediaDetail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	externalID, err := strconv.Atoi(pathVar(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid media id")
		return
	}

	var rec *models.ExternalMediaRecord
	switch pathVar(r, "media_type") {
	case "movie":
		rec, err = h.catalog.GetMovie(ctx, externalID)
	case "tv":
		rec, err = h.catalog.GetTV(ctx, externalID)
	default:
		respondError(w, http.StatusBadRequest, "media_type must be movie or tv")
		return
	}
	if err != nil {
		respondError(w, http.StatusBadGateway, "failed to get media: "+err.Error())
		return
	}

	item, err := h.builder.BuildForOne(ctx, auth.IdentityFromContext(ctx), rec)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, item)
}
