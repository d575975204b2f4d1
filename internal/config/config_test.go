package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, 8080, cfg.ServerPort)
	assert.Equal(t, "0.0.0.0", cfg.Host)
	assert.Equal(t, time.Hour, cfg.WarmInterval)
	assert.Equal(t, 3, cfg.TrendingPages)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.Debug)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("DATABASE_URL", "postgres://test:test@db:5432/test")
	t.Setenv("TMDB_API_KEY", "abc123")
	t.Setenv("WARM_INTERVAL", "30m")
	t.Setenv("TRENDING_PAGES", "5")
	t.Setenv("DEBUG", "true")

	cfg := Load()

	assert.Equal(t, 9000, cfg.ServerPort)
	assert.Equal(t, "postgres://test:test@db:5432/test", cfg.DatabaseURL)
	assert.Equal(t, "abc123", cfg.CatalogAPIKey)
	assert.Equal(t, 30*time.Minute, cfg.WarmInterval)
	assert.Equal(t, 5, cfg.TrendingPages)
	assert.True(t, cfg.Debug)
}

func TestLoadIgnoresMalformedValues(t *testing.T) {
	t.Setenv("PORT", "not-a-number")
	t.Setenv("WARM_INTERVAL", "soon")
	t.Setenv("DEBUG", "maybe")

	cfg := Load()

	assert.Equal(t, 8080, cfg.ServerPort)
	assert.Equal(t, time.Hour, cfg.WarmInterval)
	assert.False(t, cfg.Debug)
}
