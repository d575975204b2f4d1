package auth

import (
	"context"
	"net/http"
	"strings"
)

type contextKey string

const userContextKey contextKey = "user"

// RequireUser rejects requests without a valid bearer token and
// attaches the claims to the request context.
func (m *TokenManager) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := m.claimsFromRequest(r)
		if err != nil {
			if err == ErrExpiredToken {
				http.Error(w, "Unauthorized - Token expired", http.StatusUnauthorized)
			} else {
				http.Error(w, "Unauthorized - Invalid or missing token", http.StatusUnauthorized)
			}
			return
		}
		ctx := context.WithValue(r.Context(), userContextKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// OptionalUser attaches claims when a valid bearer token is present
// and lets the request through anonymously otherwise. Browse
// endpoints use this: an absent identity is a recognized state, not
// an auth failure.
func (m *TokenManager) OptionalUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if claims, err := m.claimsFromRequest(r); err == nil {
			ctx := context.WithValue(r.Context(), userContextKey, claims)
			r = r.WithContext(ctx)
		}
		next.ServeHTTP(w, r)
	})
}

func (m *TokenManager) claimsFromRequest(r *http.Request) (*Claims, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return nil, ErrInvalidToken
	}
	tokenString := strings.TrimPrefix(authHeader, "Bearer ")
	if tokenString == authHeader {
		return nil, ErrInvalidToken
	}
	return m.ValidateToken(tokenString)
}

// UserFromContext returns the claims set by the middleware, or nil
// for anonymous requests.
func UserFromContext(ctx context.Context) *Claims {
	claims, _ := ctx.Value(userContextKey).(*Claims)
	return claims
}

// IdentityFromContext returns the signed-in user ID, or nil for
// anonymous requests. This is the identity threaded through every
// aggregator call.
func IdentityFromContext(ctx context.Context) *int64 {
	claims := UserFromContext(ctx)
	if claims == nil {
		return nil
	}
	id := claims.UserID
	return &id
}
