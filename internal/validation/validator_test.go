package validation_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/digitalrsvp/rsvp-server/internal/errors"
	"github.com/digitalrsvp/rsvp-server/internal/validation"
)

type venue struct {
	City string `json:"city" validate:"required"`
}

type eventRequest struct {
	Title     string `json:"title" validate:"required,max=200"`
	EventType string `json:"event_type" validate:"required,event_type"`
	Theme     string `json:"theme" validate:"omitempty,theme"`
	Language  string `json:"language" validate:"omitempty,language"`
	Email     string `json:"email,omitempty" validate:"omitempty,email"`
	Venue     venue  `json:"venue"`
	MaxGuests int    `json:"max_guests" validate:"gte=0"`
}

func validRequest() eventRequest {
	return eventRequest{
		Title:     "Casamento Ana & Rui",
		EventType: "wedding",
		Theme:     "elegant",
		Language:  "pt-PT",
		Venue:     venue{City: "Lisboa"},
	}
}

func TestValidator_ValidateSuccess(t *testing.T) {
	assert.NoError(t, validation.New().Validate(validRequest()))
}

func TestValidator_ValidateErrors(t *testing.T) {
	v := validation.New()

	tests := []struct {
		name      string
		mutate    func(*eventRequest)
		wantField string
		wantMsg   string
	}{
		{"missing title", func(r *eventRequest) { r.Title = "" }, "title", "is required"},
		{"unknown event type", func(r *eventRequest) { r.EventType = "funeral" }, "event_type", "must be a known event type"},
		{"unknown theme", func(r *eventRequest) { r.Theme = "neon" }, "theme", "must be a known theme"},
		{"bad language", func(r *eventRequest) { r.Language = "not a language!" }, "language", "must be a valid language tag"},
		{"bad email", func(r *eventRequest) { r.Email = "nope" }, "email", "must be a valid email address"},
		{"nested field", func(r *eventRequest) { r.Venue.City = "" }, "venue.city", "is required"},
		{"negative number", func(r *eventRequest) { r.MaxGuests = -1 }, "max_guests", "must be greater than or equal to 0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(&req)

			err := v.Validate(req)
			require.Error(t, err)

			var domainErr *domainerrors.Error
			require.ErrorAs(t, err, &domainErr)
			assert.Equal(t, http.StatusBadRequest, domainErr.HTTPStatus())

			details, ok := domainErr.Details.(map[string]string)
			require.True(t, ok)
			assert.Equal(t, tt.wantMsg, details[tt.wantField])
		})
	}
}

func TestValidator_Var(t *testing.T) {
	v := validation.New()

	assert.NoError(t, v.Var("code", "ABCDEFGHJK", "share_code"))

	err := v.Var("code", "ab-12", "share_code")
	require.Error(t, err)
	assert.ErrorIs(t, err, domainerrors.ErrValidation)
	assert.Contains(t, err.Error(), "code must be 4 to 32 letters or digits")

	assert.NoError(t, v.Var("dietary", "", "dietary"))
	assert.Error(t, v.Var("dietary", "carnivore", "dietary"))
	assert.NoError(t, v.Var("invitation_type", "single-plus-one", "invitation_type"))
	assert.NoError(t, v.Var("rsvp_status", "maybe", "rsvp_status"))
}
