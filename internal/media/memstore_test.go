package media

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/cinelog/cinelog/internal/models"
)

// memStore is an in-memory stand-in for both storage collaborators.
// It mirrors the database semantics the core relies on: natural-key
// uniqueness for media rows and at-most-one active row for the
// toggleable and Rated activity kinds.
type memStore struct {
	mu sync.Mutex

	nextID int64
	rows   map[models.MediaKey]*models.CanonicalMedia

	nextActivityID int64
	activities     []*models.Activity

	// reviewErr makes CreateReview fail before applying anything,
	// like a rolled-back transaction.
	reviewErr error

	findCalls   int
	createCalls int
	kindsCalls  int
	ratingCalls int
}

func newMemStore() *memStore {
	return &memStore{rows: make(map[models.MediaKey]*models.CanonicalMedia)}
}

func (s *memStore) FindByKeys(_ context.Context, keys []models.MediaKey) (map[models.MediaKey]*models.CanonicalMedia, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.findCalls++

	found := make(map[models.MediaKey]*models.CanonicalMedia)
	for _, key := range keys {
		if row, ok := s.rows[key]; ok {
			found[key] = row
		}
	}
	return found, nil
}

func (s *memStore) CreateIfAbsent(_ context.Context, items []*models.CanonicalMedia) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.createCalls++

	for _, item := range items {
		key := item.Key()
		if _, exists := s.rows[key]; exists {
			continue
		}
		s.nextID++
		row := *item
		row.ID = s.nextID
		s.rows[key] = &row
	}
	return nil
}

func (s *memStore) rowCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}

func (s *memStore) KindsByMedia(_ context.Context, userID int64, mediaIDs []int64) (map[int64][]models.ActivityKind, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.kindsCalls++

	wanted := make(map[int64]bool, len(mediaIDs))
	for _, id := range mediaIDs {
		wanted[id] = true
	}

	kinds := make(map[int64][]models.ActivityKind)
	for _, a := range s.activities {
		if a.UserID != userID || !wanted[a.MediaID] {
			continue
		}
		if !containsKind(kinds[a.MediaID], a.Kind) {
			kinds[a.MediaID] = append(kinds[a.MediaID], a.Kind)
		}
	}
	return kinds, nil
}

func (s *memStore) RatingsByMedia(_ context.Context, userID int64, mediaIDs []int64) (map[int64]float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ratingCalls++

	wanted := make(map[int64]bool, len(mediaIDs))
	for _, id := range mediaIDs {
		wanted[id] = true
	}

	ratings := make(map[int64]float64)
	for _, a := range s.activities {
		if a.UserID == userID && a.Kind == models.ActivityRated && wanted[a.MediaID] && a.Rating != nil {
			ratings[a.MediaID] = *a.Rating
		}
	}
	return ratings, nil
}

func (s *memStore) Toggle(_ context.Context, userID, mediaID int64, kind models.ActivityKind) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.removeLocked(userID, mediaID, kind) {
		return false, nil
	}
	s.insertLocked(&models.Activity{UserID: userID, MediaID: mediaID, Kind: kind})
	return true, nil
}

func (s *memStore) ReplaceRating(_ context.Context, userID, mediaID int64, rating float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replaceRatingLocked(userID, mediaID, rating)
	return nil
}

func (s *memStore) ClearRating(_ context.Context, userID, mediaID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeLocked(userID, mediaID, models.ActivityRated)
	return nil
}

func (s *memStore) CreateReview(_ context.Context, userID, mediaID int64, review models.ReviewPayload) (uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.reviewErr != nil {
		return uuid.Nil, s.reviewErr
	}

	reviewID := uuid.New()
	text := review.Text
	s.insertLocked(&models.Activity{
		UserID:     userID,
		MediaID:    mediaID,
		Kind:       models.ActivityReviewed,
		ReviewID:   &reviewID,
		ReviewText: &text,
		Spoiler:    review.Spoiler,
		Rewatched:  review.Rewatched,
		Rating:     review.Rating,
		Liked:      review.Liked,
	})
	if review.Rating != nil {
		s.replaceRatingLocked(userID, mediaID, *review.Rating)
	}
	if review.Liked {
		s.removeLocked(userID, mediaID, models.ActivityLiked)
		s.insertLocked(&models.Activity{UserID: userID, MediaID: mediaID, Kind: models.ActivityLiked})
	}
	return reviewID, nil
}

func (s *memStore) DeleteReview(_ context.Context, userID int64, reviewID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, a := range s.activities {
		if a.UserID == userID && a.Kind == models.ActivityReviewed && a.ReviewID != nil && *a.ReviewID == reviewID {
			s.activities = append(s.activities[:i], s.activities[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (s *memStore) activityCount(userID, mediaID int64, kind models.ActivityKind) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, a := range s.activities {
		if a.UserID == userID && a.MediaID == mediaID && a.Kind == kind {
			count++
		}
	}
	return count
}

func (s *memStore) insertLocked(a *models.Activity) {
	s.nextActivityID++
	a.ID = s.nextActivityID
	s.activities = append(s.activities, a)
}

func (s *memStore) removeLocked(userID, mediaID int64, kind models.ActivityKind) bool {
	removed := false
	kept := s.activities[:0]
	for _, a := range s.activities {
		if a.UserID == userID && a.MediaID == mediaID && a.Kind == kind {
			removed = true
			continue
		}
		kept = append(kept, a)
	}
	s.activities = kept
	return removed
}

func (s *memStore) replaceRatingLocked(userID, mediaID int64, rating float64) {
	s.removeLocked(userID, mediaID, models.ActivityRated)
	r := rating
	s.insertLocked(&models.Activity{UserID: userID, MediaID: mediaID, Kind: models.ActivityRated, Rating: &r})
}

func containsKind(kinds []models.ActivityKind, kind models.ActivityKind) bool {
	for _, k := range kinds {
		if k == kind {
			return true
		}
	}
	return false
}
