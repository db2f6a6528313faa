package middleware

import (
	"crypto/rsa"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/cashbookhq/cashbook/internal"
	"github.com/golang-jwt/jwt/v5"
)

// StoreClaims is the token payload the upstream gateway signs for each
// authenticated store. Only the store ID matters here; user identity stays
// with the gateway.
type StoreClaims struct {
	StoreID string `json:"store_id"`
	jwt.RegisteredClaims
}

// StoreAuth validates the bearer token and threads the store ID through the
// request context. Every repository call downstream is scoped by that ID,
// which is what keeps one store's templates out of another store's data.
func StoreAuth(publicKey *rsa.PublicKey, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := extractBearer(r)
			if tokenString == "" {
				writeAuthError(w, "missing bearer token")
				return
			}

			claims := &StoreClaims{}
			token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodRSA); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return publicKey, nil
			})
			if err != nil || !token.Valid {
				logger.Warn("rejected store token", "error", err, "path", r.URL.Path)
				writeAuthError(w, "invalid token")
				return
			}
			if claims.StoreID == "" {
				logger.Warn("store token without store_id claim", "path", r.URL.Path)
				writeAuthError(w, "token missing store identity")
				return
			}

			ctx := internal.ContextWithStoreID(r.Context(), claims.StoreID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func extractBearer(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return ""
	}
	return strings.TrimPrefix(authHeader, "Bearer ")
}

func writeAuthError(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"code":    http.StatusUnauthorized,
		"message": message,
	})
}
