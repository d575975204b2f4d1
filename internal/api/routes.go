package api

import (
	"net/http"

	"github.com/gorilla/mux"
)

func pathVar(r *http.Request, name string) string {
	return mux.Vars(r)[name]
}

// SetupRoutes configures all API routes
func SetupRoutes(handler *Handler) http.Handler {
	r := mux.NewRouter()

	// API v1 routes
	api := r.PathPrefix("/api/v1").Subrouter()

	// Health check
	api.HandleFunc("/health", handler.HealthCheck).Methods("GET")

	// Auth
	api.HandleFunc("/auth/register", handler.Register).Methods("POST")
	api.HandleFunc("/auth/login", handler.Login).Methods("POST")

	// Browse endpoints work with or without a signed-in user; a
	// valid token just folds that user's activity onto the results.
	browse := api.NewRoute().Subrouter()
	browse.Use(handler.tokens.OptionalUser)
	browse.HandleFunc("/browse/trending", handler.GetTrending).Methods("GET")
	browse.HandleFunc("/browse/popular", handler.GetPopular).Methods("GET")
	browse.HandleFunc("/search", handler.Search).Methods("GET")
	browse.HandleFunc("/media/{media_type}/{id}", handler.GetMediaDetail).Methods("GET")

	// Activity and profile endpoints require a user.
	user := api.NewRoute().Subrouter()
	user.Use(handler.tokens.RequireUser)
	user.HandleFunc("/activity/rating", handler.RecordRating).Methods("POST")
	user.HandleFunc("/activity/rating", handler.ClearRating).Methods("DELETE")
	user.HandleFunc("/activity/watched", handler.ToggleWatched).Methods("POST")
	user.HandleFunc("/activity/liked", handler.ToggleLiked).Methods("POST")
	user.HandleFunc("/activity/watchlist", handler.ToggleWatchlisted).Methods("POST")
	user.HandleFunc("/activity/review", handler.RecordReview).Methods("POST")
	user.HandleFunc("/activity/review/{id}", handler.DeleteReview).Methods("DELETE")
	user.HandleFunc("/profile", handler.GetProfile).Methods("GET")
	user.HandleFunc("/profile", handler.UpdateProfile).Methods("PUT")
	user.HandleFunc("/profile/watchlist", handler.GetWatchlist).Methods("GET")
	user.HandleFunc("/profile/watched", handler.GetWatched).Methods("GET")
	user.HandleFunc("/profile/reviews", handler.GetReviews).Methods("GET")

	// Enable CORS
	r.Use(corsMiddleware)

	// Request logging
	r.Use(loggingMiddleware(handler.log))

	return r
}

// corsMiddleware adds CORS headers
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
