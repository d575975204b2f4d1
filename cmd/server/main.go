package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/cinelog/cinelog/internal/api"
	"github.com/cinelog/cinelog/internal/auth"
	"github.com/cinelog/cinelog/internal/catalog"
	"github.com/cinelog/cinelog/internal/config"
	"github.com/cinelog/cinelog/internal/database"
	"github.com/cinelog/cinelog/internal/logger"
	"github.com/cinelog/cinelog/internal/media"
)

func main() {
	// Load .env file
	godotenv.Load()

	cfg := config.Load()
	log := logger.New("cinelog-api", cfg.LogLevel)

	log.Info().Msg("starting cinelog API server")

	// Connect to database
	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()
	log.Info().Msg("database connection established")

	// Initialize stores
	mediaStore := database.NewMediaStore(db)
	activityStore := database.NewActivityStore(db)
	userStore := database.NewUserStore(db)

	// Catalog client and the aggregation pipeline
	catalogClient := catalog.NewClient(cfg.CatalogAPIKey)
	aggregator := media.NewAggregator(mediaStore, activityStore)
	library := media.NewLibrary(activityStore)

	tokens := auth.NewTokenManager(cfg.JWTSecret)

	handler := api.NewHandler(catalogClient, aggregator, library, activityStore, userStore, tokens, log)
	router := api.SetupRoutes(handler)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}
}
