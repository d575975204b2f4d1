package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/cinelog/cinelog/internal/auth"
)

// uniqueViolation is Postgres error class 23505 (unique_violation).
const uniqueViolation = pq.ErrorCode("23505")

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

// RegisterRequest represents a new account
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest represents login credentials
type LoginRequest struct {
	Username   string `json:"username"`
	Password   string `json:"password"`
	RememberMe bool   `json:"remember_me"`
}

// LoginResponse contains the JWT token
type LoginResponse struct {
	Token     string    `json:"token"`
	UserID    int64     `json:"user_id"`
	Username  string    `json:"username"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Register handles POST /api/v1/auth/register
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	if req.Username == "" || req.Email == "" || len(req.Password) < 8 {
		respondError(w, http.StatusBadRequest, "username, email and a password of at least 8 characters required")
		return
	}

	userID, err := h.userStore.CreateUser(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		if isUniqueViolation(err) {
			respondError(w, http.StatusConflict, "username or email already taken")
			return
		}
		h.log.Error().Err(err).Msg("failed to create user")
		respondError(w, http.StatusInternalServerError, "registration failed")
		return
	}

	token, expiresAt, err := h.tokens.GenerateToken(userID, req.Username, false)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to generate token")
		respondError(w, http.StatusInternalServerError, "failed to generate token")
		return
	}

	respondJSON(w, http.StatusCreated, LoginResponse{
		Token:     token,
		UserID:    userID,
		Username:  req.Username,
		ExpiresAt: expiresAt,
	})
}

// Login handles POST /api/v1/auth/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Username == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "username and password required")
		return
	}

	user, err := h.userStore.VerifyPassword(r.Context(), req.Username, req.Password)
	if err != nil {
		if err != sql.ErrNoRows {
			h.log.Debug().Str("username", req.Username).Msg("login rejected")
		}
		respondError(w, http.StatusUnauthorized, "invalid username or password")
		return
	}

	token, expiresAt, err := h.tokens.GenerateToken(user.ID, user.Username, req.RememberMe)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to generate token")
		respondError(w, http.StatusInternalServerError, "failed to generate token")
		return
	}

	if err := h.userStore.UpdateLastActive(r.Context(), user.ID); err != nil {
		h.log.Warn().Err(err).Int64("user_id", user.ID).Msg("failed to update last active")
	}

	respondJSON(w, http.StatusOK, LoginResponse{
		Token:     token,
		UserID:    user.ID,
		Username:  user.Username,
		ExpiresAt: expiresAt,
	})
}

// GetProfile handles GET /api/v1/profile
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	claims := auth.UserFromContext(r.Context())
	if claims == nil {
		respondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	user, err := h.userStore.GetUserByID(r.Context(), claims.UserID)
	if err != nil {
		if err == sql.ErrNoRows {
			respondError(w, http.StatusNotFound, "user not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to load profile")
		return
	}
	respondJSON(w, http.StatusOK, user)
}

// UpdateProfileRequest represents editable profile fields
type UpdateProfileRequest struct {
	Bio       string `json:"bio"`
	AvatarURL string `json:"avatar_url"`
}

// UpdateProfile handles PUT /api/v1/profile
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	claims := auth.UserFromContext(r.Context())
	if claims == nil {
		respondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.userStore.UpdateProfile(r.Context(), claims.UserID, req.Bio, req.AvatarURL); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to update profile")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
