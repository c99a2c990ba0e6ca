package http

import (
	"net/http"
	"strings"

	"github.com/rs/zerolog"
	"github.com/wellgate/wellgate/config"
	"golang.org/x/crypto/bcrypt"
)

// RequireServiceToken guards mutating endpoints behind the admin service
// token. Only the bcrypt hash of the token lives in config; the plaintext
// arrives per request and is compared here.
func RequireServiceToken(cfg *config.Holder, log zerolog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hash := cfg.Get().Admin.TokenHash
			if hash == "" {
				log.Warn().Str("path", r.URL.Path).Msg("admin token not configured, rejecting mutating request")
				writeFailure(w, r, http.StatusForbidden, "service token authentication is not configured", nil)
				return
			}

			token := extractServiceToken(r)
			if token == "" {
				writeFailure(w, r, http.StatusUnauthorized, "missing service token", nil)
				return
			}

			if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(token)); err != nil {
				log.Warn().Str("path", r.URL.Path).Msg("invalid service token")
				writeFailure(w, r, http.StatusForbidden, "invalid service token", nil)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// extractServiceToken reads the token from the Authorization bearer header
// or the X-Service-Token header.
func extractServiceToken(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return r.Header.Get("X-Service-Token")
}
