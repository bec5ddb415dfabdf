// Package middleware provides the HTTP middleware in front of the QA
// handlers: API-key authentication, per-key rate limiting and CORS.
package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/ragqa/internal/auth/apikey"
	"github.com/Adithya-Monish-Kumar-K/ragqa/pkg/logger"
)

type contextKey string

const apiKeyKey contextKey = "api_key"

// Auth returns middleware that checks the presented API key against guard.
// When guard is disabled every request passes. The presented key, if any,
// is stored in the context for RateLimit. Public paths are exempt.
func Auth(guard *apikey.Guard) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if IsPublicPath(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			key := extractAPIKey(r)
			if !guard.Validate(key) {
				logger.FromContext(r.Context()).Info("request rejected",
					"reason", "unauthorized", "path", r.URL.Path, "key_present", key != "")
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			ctx := context.WithValue(r.Context(), apiKeyKey, key)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetAPIKey returns the key stored by Auth, or "" when none was presented.
func GetAPIKey(ctx context.Context) string {
	key, _ := ctx.Value(apiKeyKey).(string)
	return key
}

// IsPublicPath reports whether path skips authentication and rate limiting.
func IsPublicPath(path string) bool {
	return path == "/version" ||
		strings.HasPrefix(path, "/health") ||
		strings.HasPrefix(path, "/metrics")
}

// extractAPIKey reads the API key from the X-API-Key header, falling back
// to Authorization: Bearer.
func extractAPIKey(r *http.Request) string {
	if key := r.Header.Get("X-API-Key"); key != "" {
		return key
	}
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return ""
}

// writeError writes a JSON error response to the client.
func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
