package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"watchlist/internal/auth"
)

type contextKey string

const claimsKey contextKey = "claims"

type Middleware struct {
	Tokens *auth.TokenService
}

func NewMiddleware(tokens *auth.TokenService) *Middleware {
	return &Middleware{Tokens: tokens}
}

// AuthMiddleware requires a valid "Authorization: Bearer <token>" header
func (m *Middleware) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		tokenStr, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok || tokenStr == "" {
			unauthorized(w)
			return
		}

		claims, err := m.Tokens.ParseToken(tokenStr)
		if err != nil {
			unauthorized(w)
			return
		}

		ctx := context.WithValue(r.Context(), claimsKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ClaimsFromContext returns the token claims stored by AuthMiddleware
func ClaimsFromContext(ctx context.Context) (*auth.Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(*auth.Claims)
	return claims, ok
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", `Bearer realm="watchlist"`)
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": "Unauthorized"})
}
