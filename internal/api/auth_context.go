package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/digitalrsvp/rsvp-server/internal/service"
)

// ctxKey is the type for context keys to avoid collisions.
type ctxKey string

// hostKey is the context key for the authenticated host name.
const hostKey ctxKey = "host"

// GetHost returns the authenticated host from context.
// Returns 401 error if the request carries no valid token.
func GetHost(ctx context.Context) (string, error) {
	host, ok := ctx.Value(hostKey).(string)
	if !ok || host == "" {
		return "", huma.Error401Unauthorized("Authentication required")
	}
	return host, nil
}

func setHost(ctx context.Context, host string) context.Context {
	return context.WithValue(ctx, hostKey, host)
}

// authMiddleware validates Bearer tokens and stores the host in context.
// Requests without a valid token continue anonymously; host handlers reject
// them through GetHost.
func authMiddleware(auth *service.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || token == "" {
				next.ServeHTTP(w, r)
				return
			}

			host, err := auth.VerifyAccessToken(r.Context(), token)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(setHost(r.Context(), host)))
		})
	}
}
