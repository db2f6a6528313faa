package middleware

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
)

// InternalTokenHeader carries the shared secret for operator-only routes.
const InternalTokenHeader = "X-Internal-Token"

// InternalAuth guards routes meant for the job scheduler and operators, which
// are not store-scoped and must never be reachable by tenant traffic. The
// token is a shared secret from config; when it is not configured the route
// is disabled rather than left open.
func InternalAuth(token string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token == "" {
				logger.Warn("internal route called with no internal token configured", "path", r.URL.Path)
				writeAuthError(w, "internal access not configured")
				return
			}

			presented := r.Header.Get(InternalTokenHeader)
			if subtle.ConstantTimeCompare([]byte(presented), []byte(token)) != 1 {
				logger.Warn("rejected internal token", "path", r.URL.Path)
				writeAuthError(w, "invalid internal token")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
