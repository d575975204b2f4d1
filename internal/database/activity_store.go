package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/cinelog/cinelog/internal/media"
	"github.com/cinelog/cinelog/internal/models"
)

// ActivityStore handles user activity rows. The activity table is an
// append/retract log, not a set of mutable flags: toggleable kinds
// are represented by the presence of a row, and rating replacement is
// delete-then-create inside one transaction.
type ActivityStore struct {
	db *sql.DB
}

func NewActivityStore(db *sql.DB) *ActivityStore {
	return &ActivityStore{db: db}
}

// KindsByMedia returns the distinct activity kinds the user has for
// each of the given media IDs, in one query.
func (s *ActivityStore) KindsByMedia(ctx context.Context, userID int64, mediaIDs []int64) (map[int64][]models.ActivityKind, error) {
	kinds := make(map[int64][]models.ActivityKind, len(mediaIDs))
	if len(mediaIDs) == 0 {
		return kinds, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT media_id, kind
		FROM activities
		WHERE user_id = $1 AND media_id = ANY($2)
		ORDER BY media_id, kind
	`, userID, pq.Array(mediaIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to load activity kinds: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var mediaID int64
		var kind models.ActivityKind
		if err := rows.Scan(&mediaID, &kind); err != nil {
			return nil, fmt.Errorf("failed to scan activity kind: %w", err)
		}
		kinds[mediaID] = append(kinds[mediaID], kind)
	}
	return kinds, rows.Err()
}

// RatingsByMedia returns the current rating per media ID. The
// retract-then-create write path keeps at most one Rated row per
// (user, media), so a plain select is sufficient.
func (s *ActivityStore) RatingsByMedia(ctx context.Context, userID int64, mediaIDs []int64) (map[int64]float64, error) {
	ratings := make(map[int64]float64, len(mediaIDs))
	if len(mediaIDs) == 0 {
		return ratings, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT media_id, rating
		FROM activities
		WHERE user_id = $1 AND kind = $2 AND media_id = ANY($3)
	`, userID, string(models.ActivityRated), pq.Array(mediaIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to load ratings: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var mediaID int64
		var rating float64
		if err := rows.Scan(&mediaID, &rating); err != nil {
			return nil, fmt.Errorf("failed to scan rating: %w", err)
		}
		ratings[mediaID] = rating
	}
	return ratings, rows.Err()
}

// Toggle flips the presence of a toggleable activity row inside one
// transaction and reports the new state.
func (s *ActivityStore) Toggle(ctx context.Context, userID, mediaID int64, kind models.ActivityKind) (bool, error) {
	if !kind.Toggleable() {
		return false, fmt.Errorf("activity kind %q is not toggleable", kind)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin toggle: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		DELETE FROM activities WHERE user_id = $1 AND media_id = $2 AND kind = $3
	`, userID, mediaID, string(kind))
	if err != nil {
		return false, fmt.Errorf("failed to retract %s: %w", kind, err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	active := deleted == 0
	if active {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO activities (user_id, media_id, kind) VALUES ($1, $2, $3)
		`, userID, mediaID, string(kind))
		if err != nil {
			return false, fmt.Errorf("failed to record %s: %w", kind, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit toggle: %w", err)
	}
	return active, nil
}

// ReplaceRating retracts any existing rating row and inserts the new
// one in a single transaction.
func (s *ActivityStore) ReplaceRating(ctx context.Context, userID, mediaID int64, rating float64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin rating write: %w", err)
	}
	defer tx.Rollback()

	if err := replaceRatingTx(ctx, tx, userID, mediaID, rating); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit rating write: %w", err)
	}
	return nil
}

// ClearRating retracts any existing rating row.
func (s *ActivityStore) ClearRating(ctx context.Context, userID, mediaID int64) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM activities WHERE user_id = $1 AND media_id = $2 AND kind = $3
	`, userID, mediaID, string(models.ActivityRated))
	if err != nil {
		return fmt.Errorf("failed to clear rating: %w", err)
	}
	return nil
}

// CreateReview inserts the review row and, in the same transaction,
// applies its rating and liked claims with the usual
// retract-then-create semantics. Any failure rolls the whole write
// back so the stored rating can never disagree with the review.
func (s *ActivityStore) CreateReview(ctx context.Context, userID, mediaID int64, review models.ReviewPayload) (uuid.UUID, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to begin review write: %w", err)
	}
	defer tx.Rollback()

	reviewID := uuid.New()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO activities (user_id, media_id, kind, review_id, review_text, spoiler, rewatched, rating, liked)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, userID, mediaID, string(models.ActivityReviewed), reviewID, review.Text,
		review.Spoiler, review.Rewatched, review.Rating, review.Liked)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: failed to insert review: %v", media.ErrInconsistentWrite, err)
	}

	if review.Rating != nil {
		if err := replaceRatingTx(ctx, tx, userID, mediaID, *review.Rating); err != nil {
			return uuid.Nil, fmt.Errorf("%w: %v", media.ErrInconsistentWrite, err)
		}
	}
	if review.Liked {
		if err := replaceToggleTx(ctx, tx, userID, mediaID, models.ActivityLiked); err != nil {
			return uuid.Nil, fmt.Errorf("%w: %v", media.ErrInconsistentWrite, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return uuid.Nil, fmt.Errorf("%w: failed to commit review: %v", media.ErrInconsistentWrite, err)
	}
	return reviewID, nil
}

// DeleteReview removes one review row owned by the user.
func (s *ActivityStore) DeleteReview(ctx context.Context, userID int64, reviewID uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM activities WHERE user_id = $1 AND kind = $2 AND review_id = $3
	`, userID, string(models.ActivityReviewed), reviewID)
	if err != nil {
		return fmt.Errorf("failed to delete review: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return media.ErrNotFound
	}
	return nil
}

// ListByUser returns the user's activity rows of one kind joined with
// their media rows, newest first. Used by the profile endpoints
// (watchlist, watch history, reviews).
func (s *ActivityStore) ListByUser(ctx context.Context, userID int64, kind models.ActivityKind) ([]*models.Activity, []*models.CanonicalMedia, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT a.id, a.user_id, a.media_id, a.kind, a.rating, a.review_id, a.review_text,
		       a.spoiler, a.rewatched, a.liked, a.created_at,
		       m.id, m.external_id, m.kind, m.season_number, m.parent_external_id,
		       m.title, m.poster_path, m.created_at
		FROM activities a
		JOIN canonical_media m ON m.id = a.media_id
		WHERE a.user_id = $1 AND a.kind = $2
		ORDER BY a.created_at DESC
	`, userID, string(kind))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list %s activity: %w", kind, err)
	}
	defer rows.Close()

	var activities []*models.Activity
	var medias []*models.CanonicalMedia
	for rows.Next() {
		activity := &models.Activity{}
		mediaRow := &models.CanonicalMedia{}
		var reviewText sql.NullString
		var spoiler, rewatched, liked sql.NullBool
		err := rows.Scan(
			&activity.ID, &activity.UserID, &activity.MediaID, &activity.Kind,
			&activity.Rating, &activity.ReviewID, &reviewText,
			&spoiler, &rewatched, &liked, &activity.CreatedAt,
			&mediaRow.ID, &mediaRow.ExternalID, &mediaRow.Kind, &mediaRow.SeasonNumber,
			&mediaRow.ParentExternalID, &mediaRow.Title, &mediaRow.PosterPath, &mediaRow.CreatedAt,
		)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to scan activity row: %w", err)
		}
		if reviewText.Valid {
			activity.ReviewText = &reviewText.String
		}
		activity.Spoiler = spoiler.Bool
		activity.Rewatched = rewatched.Bool
		activity.Liked = liked.Bool
		activities = append(activities, activity)
		medias = append(medias, mediaRow)
	}
	return activities, medias, rows.Err()
}

func replaceRatingTx(ctx context.Context, tx *sql.Tx, userID, mediaID int64, rating float64) error {
	_, err := tx.ExecContext(ctx, `
		DELETE FROM activities WHERE user_id = $1 AND media_id = $2 AND kind = $3
	`, userID, mediaID, string(models.ActivityRated))
	if err != nil {
		return fmt.Errorf("failed to retract rating: %w", err)
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO activities (user_id, media_id, kind, rating) VALUES ($1, $2, $3, $4)
	`, userID, mediaID, string(models.ActivityRated), rating)
	if err != nil {
		return fmt.Errorf("failed to record rating: %w", err)
	}
	return nil
}

func replaceToggleTx(ctx context.Context, tx *sql.Tx, userID, mediaID int64, kind models.ActivityKind) error {
	_, err := tx.ExecContext(ctx, `
		DELETE FROM activities WHERE user_id = $1 AND media_id = $2 AND kind = $3
	`, userID, mediaID, string(kind))
	if err != nil {
		return fmt.Errorf("failed to retract %s: %w", kind, err)
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO activities (user_id, media_id, kind) VALUES ($1, $2, $3)
	`, userID, mediaID, string(kind))
	if err != nil {
		return fmt.Errorf("failed to record %s: %w", kind, err)
	}
	return nil
}
