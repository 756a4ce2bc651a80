// Package api exposes the RSVP engine over HTTP using huma on a chi router.
package api

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/digitalrsvp/rsvp-server/internal/store"
)

// Options tunes the HTTP surface.
type Options struct {
	AllowedIPs  []string // empty allows every client
	CORSOrigins []string
	// Public RSVP budget per client IP.
	RSVPRateLimit int
	RSVPRateBurst int
}

// Server is the HTTP API server.
type Server struct {
	backend     store.Backend
	services    *Services
	router      *chi.Mux
	api         huma.API
	logger      *slog.Logger
	rsvpLimiter *RateLimiter
}

// NewServer creates a new API server with all routes registered.
func NewServer(backend store.Backend, services *Services, opts Options, logger *slog.Logger) (*Server, error) {
	allowlist, err := allowlistMiddleware(opts.AllowedIPs, logger)
	if err != nil {
		return nil, fmt.Errorf("parse allowed IPs: %w", err)
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(requestLogAttrs)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(allowlist)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: opts.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))
	router.Use(authMiddleware(services.Auth))

	humaConfig := huma.DefaultConfig("Digital RSVP API", "1.0.0")
	humaConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "PASETO",
		},
	}
	humaConfig.Transformers = append(humaConfig.Transformers, EnvelopeTransformer)

	api := humachi.New(router, humaConfig)
	RegisterErrorHandler()

	rateLimit, rateBurst := opts.RSVPRateLimit, opts.RSVPRateBurst
	if rateLimit <= 0 {
		rateLimit = 30
	}
	if rateBurst <= 0 {
		rateBurst = 10
	}

	s := &Server{
		backend:     backend,
		services:    services,
		router:      router,
		api:         api,
		logger:      logger,
		rsvpLimiter: NewRateLimiter(rateLimit, rateBurst),
	}

	s.registerHealthRoutes()
	s.registerAuthRoutes()
	s.registerRSVPRoutes()
	s.registerEventRoutes()
	s.registerInvitationRoutes()
	s.registerGuestRoutes()

	return s, nil
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// API returns the huma API, for OpenAPI export and tests.
func (s *Server) API() huma.API {
	return s.api
}

// Close stops background work owned by the server.
func (s *Server) Close() {
	s.rsvpLimiter.Stop()
}

// hostSecurity marks an operation as requiring a host token.
var hostSecurity = []map[string][]string{{"bearer": {}}}
