package api

import (
	"log/slog"
	"net"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/digitalrsvp/rsvp-server/internal/ratelimit"
)

// RateLimiter wraps KeyedRateLimiter for API use.
type RateLimiter = ratelimit.KeyedRateLimiter

// NewRateLimiter creates a limiter allowing perMinute requests per client
// with the given burst.
func NewRateLimiter(perMinute, burst int) *RateLimiter {
	return ratelimit.New(ratelimit.PerMinute(perMinute), burst)
}

// rateLimitMiddleware limits huma operations by client IP.
// Returns 429 Too Many Requests when limit is exceeded.
func rateLimitMiddleware(api huma.API, limiter *RateLimiter, logger *slog.Logger) func(huma.Context, func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		key := clientIP(ctx.Header, ctx.RemoteAddr())
		if !limiter.Allow(key) {
			logger.Warn("rate limit exceeded",
				"ip", key,
				"path", ctx.URL().Path,
			)
			ctx.SetHeader("Retry-After", "60")
			_ = huma.WriteErr(api, ctx, http.StatusTooManyRequests, "Too many requests. Please try again later.")
			return
		}
		next(ctx)
	}
}

// getClientIP extracts the client IP from the request.
func getClientIP(r *http.Request) string {
	return clientIP(r.Header.Get, r.RemoteAddr)
}

// clientIP checks X-Forwarded-For and X-Real-IP headers before falling back
// to the remote address.
func clientIP(header func(string) string, remoteAddr string) string {
	// First entry of X-Forwarded-For is the client.
	if xff := header("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}

	if xri := header("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	if host, _, err := net.SplitHostPort(remoteAddr); err == nil {
		return host
	}
	return remoteAddr
}
