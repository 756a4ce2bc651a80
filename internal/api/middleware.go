package api

import (
	"log/slog"
	"net/http"
	"net/netip"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/digitalrsvp/rsvp-server/internal/http/response"
	"github.com/digitalrsvp/rsvp-server/internal/logger"
)

// allowlistMiddleware rejects clients whose IP matches none of the allowed
// addresses or CIDR ranges. An empty list allows everyone.
func allowlistMiddleware(allowed []string, log *slog.Logger) (func(http.Handler) http.Handler, error) {
	prefixes := make([]netip.Prefix, 0, len(allowed))
	for _, entry := range allowed {
		if addr, err := netip.ParseAddr(entry); err == nil {
			prefixes = append(prefixes, netip.PrefixFrom(addr.Unmap(), addr.Unmap().BitLen()))
			continue
		}
		prefix, err := netip.ParsePrefix(entry)
		if err != nil {
			return nil, err
		}
		prefixes = append(prefixes, prefix.Masked())
	}

	return func(next http.Handler) http.Handler {
		if len(prefixes) == 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := getClientIP(r)
			if !ipAllowed(prefixes, ip) {
				log.Warn("client not in allowlist", "ip", ip, "path", r.URL.Path)
				response.Forbidden(w, "Access from this address is not allowed", log)
				return
			}
			next.ServeHTTP(w, r)
		})
	}, nil
}

func ipAllowed(prefixes []netip.Prefix, ip string) bool {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, p := range prefixes {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

// requestLogAttrs tags every log record of a request with its chi request id.
func requestLogAttrs(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if reqID := chimiddleware.GetReqID(ctx); reqID != "" {
			ctx = logger.WithAttrs(ctx, slog.String("request_id", reqID))
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
