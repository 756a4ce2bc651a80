package api

import (
	"context"
	"strings"

	"github.com/danielgtaylor/huma/v2"
)

// authenticateRequest returns the host behind the Authorization header.
// The auth middleware has usually resolved it already.
func (s *Server) authenticateRequest(ctx context.Context, authHeader string) (string, error) {
	if host, err := GetHost(ctx); err == nil {
		return host, nil
	}

	if authHeader == "" {
		return "", huma.Error401Unauthorized("Missing authorization header")
	}

	token, ok := strings.CutPrefix(authHeader, "Bearer ")
	if !ok || token == "" {
		return "", huma.Error401Unauthorized("Invalid authorization header format")
	}

	host, err := s.services.Auth.VerifyAccessToken(ctx, token)
	if err != nil {
		return "", huma.Error401Unauthorized("Invalid or expired token")
	}

	return host, nil
}
