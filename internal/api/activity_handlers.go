package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/cinelog/cinelog/internal/auth"
	"github.com/cinelog/cinelog/internal/media"
	"github.com/cinelog/cinelog/internal/models"
)

// MediaRef identifies a media item in an activity request. The client
// sends the catalog fields it already holds from the browse payload;
// the handler resolves them to a canonical ID before writing.
type MediaRef struct {
	ExternalID int    `json:"external_id"`
	Kind       string `json:"kind"`
	Season     *int   `json:"season,omitempty"`
	Title      string `json:"title,omitempty"`
	PosterPath string `json:"poster_path,omitempty"`
}

func parseKind(s string) (models.MediaKind, bool) {
	switch models.MediaKind(s) {
	case models.KindFilm, models.KindTV, models.KindAnime, models.KindUnknown:
		return models.MediaKind(s), true
	}
	return "", false
}

func (h *Handler) resolveRef(r *http.Request, ref MediaRef) (int64, error) {
	kind, ok := parseKind(ref.Kind)
	if !ok {
		return 0, media.ErrInvalidKey
	}
	season := models.NoSeason
	if ref.Season != nil {
		season = *ref.Season
	}
	return h.builder.Resolver().ResolveOne(r.Context(), media.Candidate{
		Key:        models.MediaKey{ExternalID: ref.ExternalID, Kind: kind, Season: season},
		Title:      ref.Title,
		PosterPath: ref.PosterPath,
	})
}

// RateRequest is the body of POST /api/v1/activity/rating
type RateRequest struct {
	Media  MediaRef `json:"media"`
	Rating float64  `json:"rating"`
}

// RecordRating handles POST /api/v1/activity/rating
func (h *Handler) RecordRating(w http.ResponseWriter, r *http.Request) {
	var req RateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	mediaID, err := h.resolveRef(r, req.Media)
	if err != nil {
		respondStoreError(w, err)
		return
	}

	identity := auth.IdentityFromContext(r.Context())
	if err := h.library.RecordRating(r.Context(), identity, mediaID, req.Rating); err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"media_id": mediaID, "rating": req.Rating})
}

// ClearRating handles DELETE /api/v1/activity/rating
func (h *Handler) ClearRating(w http.ResponseWriter, r *http.Request) {
	var ref MediaRef
	if err := json.NewDecoder(r.Body).Decode(&ref); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	mediaID, err := h.resolveRef(r, ref)
	if err != nil {
		respondStoreError(w, err)
		return
	}

	identity := auth.IdentityFromContext(r.Context())
	if err := h.library.ClearRating(r.Context(), identity, mediaID); err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"media_id": mediaID})
}

func (h *Handler) toggle(w http.ResponseWriter, r *http.Request,
	flip func(ctx context.Context, identity *int64, mediaID int64) (bool, error)) {
	var ref MediaRef
	if err := json.NewDecoder(r.Body).Decode(&ref); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	mediaID, err := h.resolveRef(r, ref)
	if err != nil {
		respondStoreError(w, err)
		return
	}

	active, err := flip(r.Context(), auth.IdentityFromContext(r.Context()), mediaID)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"media_id": mediaID, "active": active})
}

// ToggleWatched handles POST /api/v1/activity/watched
func (h *Handler) ToggleWatched(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, h.library.ToggleWatched)
}

// ToggleLiked handles POST /api/v1/activity/liked
func (h *Handler) ToggleLiked(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, h.library.ToggleLiked)
}

// ToggleWatchlisted handles POST /api/v1/activity/watchlist
func (h *Handler) ToggleWatchlisted(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, h.library.ToggleWatchlisted)
}

// ReviewRequest is the body of POST /api/v1/activity/review
type ReviewRequest struct {
	Media  MediaRef             `json:"media"`
	Review models.ReviewPayload `json:"review"`
}

// RecordReview handles POST /api/v1/activity/review
func (h *Handler) RecordReview(w http.ResponseWriter, r *http.Request) {
	var req ReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	mediaID, err := h.resolveRef(r, req.Media)
	if err != nil {
		respondStoreError(w, err)
		return
	}

	identity := auth.IdentityFromContext(r.Context())
	reviewID, err := h.library.RecordReview(r.Context(), identity, mediaID, req.Review)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]interface{}{"media_id": mediaID, "review_id": reviewID})
}

// DeleteReview handles DELETE /api/v1/activity/review/{id}
func (h *Handler) DeleteReview(w http.ResponseWriter, r *http.Request) {
	reviewID, err := uuid.Parse(pathVar(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid review id")
		return
	}

	identity := auth.IdentityFromContext(r.Context())
	if err := h.library.DeleteReview(r.Context(), identity, reviewID); err != nil {
		respondStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// profileItem joins one activity row with its media row.
type profileItem struct {
	Activity *models.Activity       `json:"activity"`
	Media    *models.CanonicalMedia `json:"media"`
}

func (h *Handler) listProfile(w http.ResponseWriter, r *http.Request, kind models.ActivityKind) {
	identity := auth.IdentityFromContext(r.Context())
	if identity == nil {
		respondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	activities, medias, err := h.activityStore.ListByUser(r.Context(), *identity, kind)
	if err != nil {
		respondStoreError(w, err)
		return
	}

	items := make([]profileItem, len(activities))
	for i := range activities {
		items[i] = profileItem{Activity: activities[i], Media: medias[i]}
	}
	respondJSON(w, http.StatusOK, items)
}

// GetWatchlist handles GET /api/v1/profile/watchlist
func (h *Handler) GetWatchlist(w http.ResponseWriter, r *http.Request) {
	h.listProfile(w, r, models.ActivityWatchlisted)
}

// GetWatched handles GET /api/v1/profile/watched
func (h *Handler) GetWatched(w http.ResponseWriter, r *http.Request) {
	h.listProfile(w, r, models.ActivityWatched)
}

// GetReviews handles GET /api/v1/profile/reviews
func (h *Handler) GetReviews(w http.ResponseWriter, r *http.Request) {
	h.listProfile(w, r, models.ActivityReviewed)
}
