package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/cinelog/cinelog/internal/models"
)

// MediaStore handles canonical media rows. The natural key
// (external_id, kind, season) carries a unique index, which is what
// makes concurrent find-or-create safe across processes.
type MediaStore struct {
	db *sql.DB
}

func NewMediaStore(db *sql.DB) *MediaStore {
	return &MediaStore{db: db}
}

const mediaColumns = `id, external_id, kind, season_number, parent_external_id, title, poster_path, created_at`

// FindByKeys looks up existing rows for the given natural keys in a
// single query.
func (s *MediaStore) FindByKeys(ctx context.Context, keys []models.MediaKey) (map[models.MediaKey]*models.CanonicalMedia, error) {
	found := make(map[models.MediaKey]*models.CanonicalMedia, len(keys))
	if len(keys) == 0 {
		return found, nil
	}

	tuples := make([]string, len(keys))
	args := make([]interface{}, 0, len(keys)*3)
	for i, key := range keys {
		tuples[i] = fmt.Sprintf("($%d::int, $%d::text, $%d::int)", i*3+1, i*3+2, i*3+3)
		args = append(args, key.ExternalID, string(key.Kind), key.Season)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM canonical_media
		WHERE (external_id, kind, COALESCE(season_number, %d)) IN (%s)
	`, mediaColumns, models.NoSeason, strings.Join(tuples, ", "))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to look up media keys: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		media, err := scanMedia(rows)
		if err != nil {
			return nil, err
		}
		found[media.Key()] = media
	}
	return found, rows.Err()
}

// CreateIfAbsent inserts rows in one statement, skipping keys that
// already exist. The unique index resolves races between concurrent
// inserts of the same key; the loser's row is simply not created.
func (s *MediaStore) CreateIfAbsent(ctx context.Context, items []*models.CanonicalMedia) error {
	if len(items) == 0 {
		return nil
	}

	tuples := make([]string, len(items))
	args := make([]interface{}, 0, len(items)*6)
	for i, item := range items {
		base := i * 6
		tuples[i] = fmt.Sprintf("($%d, $%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5, base+6)
		args = append(args, item.ExternalID, string(item.Kind), item.SeasonNumber,
			item.ParentExternalID, item.Title, item.PosterPath)
	}

	query := fmt.Sprintf(`
		INSERT INTO canonical_media (external_id, kind, season_number, parent_external_id, title, poster_path)
		VALUES %s
		ON CONFLICT DO NOTHING
	`, strings.Join(tuples, ", "))

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert media rows: %w", err)
	}
	return nil
}

// GetByID retrieves a canonical row by its local ID.
func (s *MediaStore) GetByID(ctx context.Context, id int64) (*models.CanonicalMedia, error) {
	row := s.db.QueryRowContext(ctx, fmt.Sprintf(`
		SELECT %s FROM canonical_media WHERE id = $1
	`, mediaColumns), id)

	media := &models.CanonicalMedia{}
	err := row.Scan(&media.ID, &media.ExternalID, &media.Kind, &media.SeasonNumber,
		&media.ParentExternalID, &media.Title, &media.PosterPath, &media.CreatedAt)
	if err != nil {
		return nil, err
	}
	return media, nil
}

func scanMedia(rows *sql.Rows) (*models.CanonicalMedia, error) {
	media := &models.CanonicalMedia{}
	err := rows.Scan(&media.ID, &media.ExternalID, &media.Kind, &media.SeasonNumber,
		&media.ParentExternalID, &media.Title, &media.PosterPath, &media.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to scan media row: %w", err)
	}
	return media, nil
}
