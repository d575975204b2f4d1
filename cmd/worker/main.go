package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"github.com/cinelog/cinelog/internal/catalog"
	"github.com/cinelog/cinelog/internal/config"
	"github.com/cinelog/cinelog/internal/database"
	"github.com/cinelog/cinelog/internal/logger"
	"github.com/cinelog/cinelog/internal/media"
)

// The worker periodically runs the trending and popular pages through
// the resolver so first page loads find local canonical rows already
// in place. It never rewrites existing rows: canonical media is a
// stable cache of the first-seen catalog representation.
func main() {
	godotenv.Load()

	cfg := config.Load()
	log := logger.New("cinelog-worker", cfg.LogLevel)

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	mediaStore := database.NewMediaStore(db)
	activityStore := database.NewActivityStore(db)
	catalogClient := catalog.NewClient(cfg.CatalogAPIKey)
	aggregator := media.NewAggregator(mediaStore, activityStore)

	warm := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()

		total := 0
		for page := 1; page <= cfg.TrendingPages; page++ {
			records, err := catalogClient.Trending(ctx, "day", page)
			if err != nil {
				log.Error().Err(err).Int("page", page).Msg("trending fetch failed")
				return
			}
			// Anonymous build: resolves canonical rows, folds nothing.
			if _, err := aggregator.BuildForMany(ctx, nil, records); err != nil {
				log.Error().Err(err).Int("page", page).Msg("trending warm failed")
				return
			}
			total += len(records)
		}
		for page := 1; page <= cfg.TrendingPages; page++ {
			movies, err := catalogClient.PopularMovies(ctx, page)
			if err != nil {
				log.Error().Err(err).Int("page", page).Msg("popular movies fetch failed")
				return
			}
			shows, err := catalogClient.PopularTV(ctx, page)
			if err != nil {
				log.Error().Err(err).Int("page", page).Msg("popular tv fetch failed")
				return
			}
			if _, err := aggregator.BuildForMany(ctx, nil, append(movies, shows...)); err != nil {
				log.Error().Err(err).Int("page", page).Msg("popular warm failed")
				return
			}
			total += len(movies) + len(shows)
		}
		log.Info().Int("records", total).Msg("catalog warm complete")
	}

	c := cron.New()
	if _, err := c.AddFunc("@every "+cfg.WarmInterval.String(), warm); err != nil {
		log.Fatal().Err(err).Msg("failed to schedule warm job")
	}
	c.Start()
	log.Info().Dur("interval", cfg.WarmInterval).Msg("worker started")

	// Run once at startup, then on schedule.
	warm()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	<-c.Stop().Done()
	log.Info().Msg("worker stopped")
}
