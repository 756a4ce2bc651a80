package service

import (
	"context"
	"crypto/subtle"
	"fmt"
	"log/slog"
	"time"

	"github.com/digitalrsvp/rsvp-server/internal/auth"
	domainerrors "github.com/digitalrsvp/rsvp-server/internal/errors"
	"github.com/digitalrsvp/rsvp-server/internal/validation"
)

// HostCredentials identifies the single host account.
type HostCredentials struct {
	Username     string
	PasswordHash string // argon2id PHC string; empty disables login
}

// AuthService signs the host in and checks access tokens.
type AuthService struct {
	creds        HostCredentials
	tokenService *auth.TokenService
	validator    *validation.Validator
	logger       *slog.Logger
}

// NewAuthService creates a new authentication service.
func NewAuthService(creds HostCredentials, tokenService *auth.TokenService, validator *validation.Validator, logger *slog.Logger) *AuthService {
	return &AuthService{
		creds:        creds,
		tokenService: tokenService,
		validator:    validator,
		logger:       logger,
	}
}

// LoginRequest contains the host credentials.
type LoginRequest struct {
	Username string `json:"username" validate:"required,max=100"`
	Password string `json:"password" validate:"required,max=1024"`
}

// AuthResponse is returned on successful login.
type AuthResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
	ExpiresIn   int       `json:"expires_in"` // seconds
	Host        string    `json:"host"`
}

// Login checks the host credentials and issues an access token.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	if s.creds.PasswordHash == "" {
		s.logger.WarnContext(ctx, "login attempted but no host password is configured")
		return nil, domainerrors.InvalidCredentials("invalid username or password")
	}

	// Always verify the password so a wrong username costs the same as a wrong password.
	valid, err := auth.VerifyPassword(s.creds.PasswordHash, req.Password)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to verify password")
	}
	userOK := subtle.ConstantTimeCompare([]byte(req.Username), []byte(s.creds.Username)) == 1
	if !valid || !userOK {
		s.logger.InfoContext(ctx, "host login rejected", "username", req.Username)
		return nil, domainerrors.InvalidCredentials("invalid username or password")
	}

	token, expiresAt, err := s.tokenService.GenerateAccessToken(s.creds.Username)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}

	s.logger.InfoContext(ctx, "host logged in", "host", s.creds.Username)

	return &AuthResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresAt:   expiresAt,
		ExpiresIn:   int(s.tokenService.AccessTokenDuration().Seconds()),
		Host:        s.creds.Username,
	}, nil
}

// VerifyAccessToken returns the host named by a valid token.
func (s *AuthService) VerifyAccessToken(_ context.Context, token string) (string, error) {
	claims, err := s.tokenService.VerifyAccessToken(token)
	if err != nil {
		return "", domainerrors.Unauthorized("invalid or expired access token")
	}
	if claims.Host != s.creds.Username {
		return "", domainerrors.Unauthorized("token does not belong to the configured host")
	}
	return claims.Host, nil
}
