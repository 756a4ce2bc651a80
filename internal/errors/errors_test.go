package errors_test

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/digitalrsvp/rsvp-server/internal/errors"
)

func TestCode_HTTPStatus(t *testing.T) {
	tests := []struct {
		code errors.Code
		want int
	}{
		{errors.CodeNotFound, http.StatusNotFound},
		{errors.CodeValidation, http.StatusBadRequest},
		{errors.CodeAlreadySubmitted, http.StatusConflict},
		{errors.CodeAlreadyExists, http.StatusConflict},
		{errors.CodeUnauthorized, http.StatusUnauthorized},
		{errors.CodeInvalidCredentials, http.StatusUnauthorized},
		{errors.CodeForbidden, http.StatusForbidden},
		{errors.CodeIntegrity, http.StatusServiceUnavailable},
		{errors.CodeUnavailable, http.StatusServiceUnavailable},
		{errors.CodeInternal, http.StatusInternalServerError},
		{errors.Code("SOMETHING_ELSE"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.code.HTTPStatus())
		})
	}
}

func TestError_IsMatchesByCode(t *testing.T) {
	err := fmt.Errorf("submit rsvp: %w", errors.AlreadySubmitted("already answered"))

	assert.True(t, errors.Is(err, errors.ErrAlreadySubmitted))
	assert.False(t, errors.Is(err, errors.ErrNotFound))
}

func TestUnavailable_KeepsCause(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := errors.Unavailable(cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, http.StatusServiceUnavailable, err.HTTPStatus())
	assert.Contains(t, err.Error(), "connection refused")
}

func TestFieldValidation_Details(t *testing.T) {
	err := errors.FieldValidation("name", "name is required")

	details, ok := err.Details.(map[string]string)
	if assert.True(t, ok) {
		assert.Equal(t, "name is required", details["name"])
	}
}
