package api

import (
	"crypto/rand"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/require"

	"github.com/digitalrsvp/rsvp-server/internal/auth"
	"github.com/digitalrsvp/rsvp-server/internal/domain"
	"github.com/digitalrsvp/rsvp-server/internal/search"
	"github.com/digitalrsvp/rsvp-server/internal/service"
	"github.com/digitalrsvp/rsvp-server/internal/store"
	"github.com/digitalrsvp/rsvp-server/internal/store/cache"
	"github.com/digitalrsvp/rsvp-server/internal/validation"
)

const (
	testHost     = "admin"
	testPassword = "correct horse battery staple"
)

// testEnvelope mirrors the response envelope for decoding in tests.
type testEnvelope[T any] struct {
	V       int            `json:"v"`
	Success bool           `json:"success"`
	Data    T              `json:"data"`
	Error   string         `json:"error"`
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details"`
}

func decodeEnvelope[T any](t *testing.T, resp *httptest.ResponseRecorder) testEnvelope[T] {
	t.Helper()
	var env testEnvelope[T]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &env), resp.Body.String())
	return env
}

type testServer struct {
	*Server
	api  humatest.TestAPI
	cols *store.Collections
}

// passwordHash is computed once; argon2 is slow enough to matter across tests.
var passwordHash = func() string {
	h, err := auth.HashPassword(testPassword)
	if err != nil {
		panic(err)
	}
	return h
}()

func setupTestServer(t *testing.T, opts Options) *testServer {
	t.Helper()

	st, err := store.NewInMemory(nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	index, err := search.NewGuestIndex(nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })

	key := make([]byte, 32)
	_, err = rand.Read(key)
	require.NoError(t, err)
	tokens, err := auth.NewTokenService(key, time.Hour)
	require.NoError(t, err)

	logger := slog.New(slog.DiscardHandler)
	validator := validation.New()
	cols := cache.Wrap(st.Collections())
	resolver := service.NewResolver(cols, logger)

	services := &Services{
		Auth: service.NewAuthService(
			service.HostCredentials{Username: testHost, PasswordHash: passwordHash},
			tokens, validator, logger,
		),
		RSVP:       service.NewRSVPService(cols, resolver, index, domain.ResubmissionReject, logger),
		Event:      service.NewEventService(cols, index, validator, logger),
		Invitation: service.NewInvitationService(cols, validator, logger, "https://rsvp.example.com"),
		Guest:      service.NewGuestService(cols, index, validator, logger),
		Index:      index,
	}

	if opts.RSVPRateLimit == 0 {
		opts.RSVPRateLimit, opts.RSVPRateBurst = 10000, 1000
	}
	if opts.CORSOrigins == nil {
		opts.CORSOrigins = []string{"*"}
	}

	srv, err := NewServer(st, services, opts, logger)
	require.NoError(t, err)
	t.Cleanup(srv.Close)

	return &testServer{
		Server: srv,
		api:    humatest.Wrap(t, srv.API()),
		cols:   cols,
	}
}

// login returns an Authorization header for the test host.
func (ts *testServer) login(t *testing.T) string {
	t.Helper()

	resp := ts.api.Post("/api/v1/auth/login", map[string]any{
		"username": testHost,
		"password": testPassword,
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	env := decodeEnvelope[service.AuthResponse](t, resp)
	require.NotEmpty(t, env.Data.AccessToken)
	return "Authorization: Bearer " + env.Data.AccessToken
}

func (ts *testServer) createEvent(t *testing.T, authz string, body map[string]any) *domain.Event {
	t.Helper()

	resp := ts.api.Post("/api/v1/events", authz, body)
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	return decodeEnvelope[*domain.Event](t, resp).Data
}

func (ts *testServer) createInvitation(t *testing.T, authz string, body map[string]any) *service.InvitationView {
	t.Helper()

	resp := ts.api.Post("/api/v1/invitations", authz, body)
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	return decodeEnvelope[*service.InvitationView](t, resp).Data
}

func weddingBody() map[string]any {
	return map[string]any{
		"title":                    "Casamento Ana & Rui",
		"event_type":               "wedding",
		"date":                     "2026-09-12",
		"time":                     "16:00",
		"venue":                    map[string]any{"name": "Quinta do Lago", "city": "Sintra"},
		"allow_plus_one":           true,
		"ask_dietary_restrictions": true,
		"ask_children_info":        true,
	}
}
