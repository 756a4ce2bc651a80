package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/digitalrsvp/rsvp-server/internal/service"
)

func (s *Server) registerAuthRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "login",
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/login",
		Summary:     "Host login",
		Description: "Checks the host credentials and returns a PASETO access token for the host endpoints",
		Tags:        []string{"Authentication"},
	}, s.handleLogin)
}

// === DTOs ===

// LoginInput wraps the login request for Huma.
type LoginInput struct {
	Body service.LoginRequest
}

// AuthOutput wraps the auth response for Huma.
type AuthOutput struct {
	Body service.AuthResponse
}

// === Handlers ===

func (s *Server) handleLogin(ctx context.Context, input *LoginInput) (*AuthOutput, error) {
	resp, err := s.services.Auth.Login(ctx, input.Body)
	if err != nil {
		return nil, err
	}
	return &AuthOutput{Body: *resp}, nil
}
