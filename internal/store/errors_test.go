package store_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/digitalrsvp/rsvp-server/internal/store"
)

func TestError_Error(t *testing.T) {
	err := &store.Error{
		Code:    http.StatusNotFound,
		Message: "not found",
	}

	assert.Equal(t, "not found", err.Error())
}

func TestError_ErrorWithCause(t *testing.T) {
	cause := errors.New("underlying error")
	err := store.ErrUnavailable.WithCause(cause)

	assert.Contains(t, err.Error(), "storage unavailable")
	assert.Contains(t, err.Error(), "underlying error")
	assert.Equal(t, cause, errors.Unwrap(err))
}

func TestError_WithMessage(t *testing.T) {
	modified := store.ErrNotFound.WithMessage("invitation not found")

	assert.Equal(t, http.StatusNotFound, modified.HTTPCode())
	assert.Equal(t, "invitation not found", modified.Message)
	assert.ErrorIs(t, modified, store.ErrNotFound)
	assert.NotErrorIs(t, modified, store.ErrAlreadyExists)
}

func TestSentinelErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      *store.Error
		wantCode int
	}{
		{"not found", store.ErrNotFound, http.StatusNotFound},
		{"already exists", store.ErrAlreadyExists, http.StatusConflict},
		{"invalid field", store.ErrInvalidField, http.StatusBadRequest},
		{"unavailable", store.ErrUnavailable, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantCode, tt.err.HTTPCode())
			assert.NotEmpty(t, tt.err.Message)
		})
	}
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"unavailable", store.ErrUnavailable, true},
		{"wrapped unavailable", fmt.Errorf("find guest: %w", store.ErrUnavailable.WithCause(errors.New("connection reset"))), true},
		{"not found", store.ErrNotFound, false},
		{"canceled", context.Canceled, false},
		{"canceled and unavailable", errors.Join(context.Canceled, store.ErrUnavailable), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, store.IsTransient(tt.err))
		})
	}
}
