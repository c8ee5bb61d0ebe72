package middleware

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/chystahata/site/api/internal/account"
	"github.com/chystahata/site/api/internal/interfaces/http/common"
	"go.uber.org/zap"
)

// SessionAuthenticator validates admin session tokens.
type SessionAuthenticator interface {
	Authenticate(ctx context.Context, token string) (*account.Claims, error)
}

// RequireAnonKey demands "Authorization: Bearer <key>" on every request except OPTIONS and
// the exempt paths. An empty key disables the check.
func RequireAnonKey(key string, logger *zap.Logger, exempt ...string) func(http.Handler) http.Handler {
	key = strings.TrimSpace(key)
	skip := make(map[string]struct{}, len(exempt))
	for _, path := range exempt {
		skip[path] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		if key == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}
			if _, ok := skip[r.URL.Path]; ok {
				next.ServeHTTP(w, r)
				return
			}
			token, ok := bearerToken(r)
			if !ok || subtle.ConstantTimeCompare([]byte(token), []byte(key)) != 1 {
				common.WriteError(logger, w, http.StatusUnauthorized, "missing or invalid API key")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin validates the X-Admin-Token header and stores the claims in the context.
func RequireAdmin(authenticator SessionAuthenticator, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := strings.TrimSpace(r.Header.Get(common.AdminTokenHeader))
			if token == "" {
				common.WriteError(logger, w, http.StatusUnauthorized, "admin session required")
				return
			}
			claims, err := authenticator.Authenticate(r.Context(), token)
			if err != nil {
				common.WriteServiceError(logger, w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(common.ContextWithSession(r.Context(), claims)))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	const prefix = "Bearer "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}
