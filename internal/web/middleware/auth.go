package middleware

import (
	"crypto/subtle"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/JonMunkholm/clinicroster/internal/config"
	"github.com/JonMunkholm/clinicroster/internal/core"
)

// APIKeyAuth checks the X-API-Key header against the configured keys and
// records which key was used as the import actor. With RequireAPIKey off,
// every request passes. With it on and no keys configured, none do.
func APIKeyAuth(cfg *config.SecurityConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !cfg.RequireAPIKey {
				next.ServeHTTP(w, r)
				return
			}

			apiKey := r.Header.Get("X-API-Key")
			if apiKey == "" {
				slog.Warn("auth: missing API key",
					"path", r.URL.Path,
					"method", r.Method,
					"remote_addr", r.RemoteAddr,
				)
				writeAuthError(w, http.StatusUnauthorized, "missing API key", "AUTH001")
				return
			}

			idx := matchAPIKey(apiKey, cfg.APIKeys)
			if idx < 0 {
				slog.Warn("auth: invalid API key",
					"path", r.URL.Path,
					"method", r.Method,
					"remote_addr", r.RemoteAddr,
				)
				writeAuthError(w, http.StatusForbidden, "invalid API key", "AUTH002")
				return
			}

			ctx := core.ContextWithActor(r.Context(), fmt.Sprintf("api-key-%d", idx+1))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// matchAPIKey returns the index of the matching key, or -1. Every key is
// compared in constant time so timing does not reveal which one matched.
func matchAPIKey(key string, validKeys []string) int {
	match := -1
	for i, validKey := range validKeys {
		if subtle.ConstantTimeCompare([]byte(key), []byte(validKey)) == 1 && match < 0 {
			match = i
		}
	}
	return match
}

func writeAuthError(w http.ResponseWriter, status int, msg, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	fmt.Fprintf(w, `{"error":%q,"message":%q,"code":%q}`, msg, msg, code)
}
