package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/atrium-admin/atrium/internal/shared"
)

// Middleware resolves the bearer token on incoming requests and stores
// the principal in the request context. Requests without a valid token
// pass through without a principal; authorization guards decide what
// that means per route.
type Middleware struct {
	Service *Service
	Logger  *slog.Logger
}

// Authenticate is the principal-loading middleware.
func (m Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}
		principal, err := m.Service.ResolvePrincipal(r.Context(), token)
		if err != nil {
			if !errors.Is(err, shared.ErrSessionExpired) && !errors.Is(err, shared.ErrNotFound) {
				if m.Logger != nil {
					m.Logger.Error("auth resolve principal", slog.Any("error", err))
				}
			}
			next.ServeHTTP(w, r)
			return
		}
		ctx := shared.ContextWithPrincipal(r.Context(), principal)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}
