package main

import (
	"database/sql"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"github.com/cinelog/cinelog/internal/config"
	"github.com/cinelog/cinelog/internal/logger"
)

func main() {
	godotenv.Load()

	cfg := config.Load()
	log := logger.New("cinelog-migrate", cfg.LogLevel)

	if len(os.Args) < 2 {
		log.Fatal().Msg("usage: migrate [up|down]")
	}
	command := os.Args[1]

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("failed to ping database")
	}

	switch command {
	case "up":
		if err := migrateUp(db); err != nil {
			log.Fatal().Err(err).Msg("migration failed")
		}
		log.Info().Msg("migration completed")
	case "down":
		if err := migrateDown(db); err != nil {
			log.Fatal().Err(err).Msg("migration rollback failed")
		}
		log.Info().Msg("migration rolled back")
	default:
		log.Fatal().Str("command", command).Msg("unknown command, use 'up' or 'down'")
	}
}

func migrateUp(db *sql.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id BIGSERIAL PRIMARY KEY,
			username VARCHAR(255) UNIQUE NOT NULL,
			email VARCHAR(255) UNIQUE NOT NULL,
			password VARCHAR(255) NOT NULL,
			bio TEXT,
			avatar_url TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			last_active TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS canonical_media (
			id BIGSERIAL PRIMARY KEY,
			external_id INTEGER NOT NULL,
			kind TEXT NOT NULL,
			season_number INTEGER,
			parent_external_id INTEGER,
			title TEXT NOT NULL DEFAULT '',
			poster_path TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		// The natural-key unique index is what makes concurrent
		// find-or-create safe: the losing insert simply no-ops.
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_media_natural_key
			ON canonical_media (external_id, kind, COALESCE(season_number, -1))`,
		`CREATE TABLE IF NOT EXISTS activities (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			media_id BIGINT NOT NULL REFERENCES canonical_media(id) ON DELETE CASCADE,
			kind TEXT NOT NULL,
			rating NUMERIC(2,1),
			review_id UUID,
			review_text TEXT,
			spoiler BOOLEAN,
			rewatched BOOLEAN,
			liked BOOLEAN,
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		// Toggleable kinds and Rated keep at most one active row per
		// (user, media); Reviewed may repeat.
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_activities_single_active
			ON activities (user_id, media_id, kind)
			WHERE kind IN ('Watched', 'Liked', 'Watchlisted', 'Rated')`,
		`CREATE INDEX IF NOT EXISTS idx_activities_user_media
			ON activities (user_id, media_id)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_activities_review_id
			ON activities (review_id) WHERE review_id IS NOT NULL`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("failed to apply migration: %w", err)
		}
	}
	return nil
}

func migrateDown(db *sql.DB) error {
	queries := []string{
		`DROP TABLE IF EXISTS activities`,
		`DROP TABLE IF EXISTS canonical_media`,
		`DROP TABLE IF EXISTS users`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("failed to roll back migration: %w", err)
		}
	}
	return nil
}
