package mw

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/oneinstack/mirror/internal/logger"
)

// RequireToken guards admin endpoints with a bearer token. When no token is
// configured the admin API is disabled entirely rather than left open.
func RequireToken(token string, log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token == "" {
				log.Warn("admin endpoint hit but no admin token configured",
					logger.String("path", r.URL.Path))
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}

			got := bearerToken(r)
			if subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// bearerToken extracts the credential from the Authorization header, with
// X-Admin-Token as a fallback for clients that cannot set Authorization
// (e.g. browser WebSocket handshakes use a query parameter instead).
func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	if t := r.Header.Get("X-Admin-Token"); t != "" {
		return t
	}
	return r.URL.Query().Get("token")
}
