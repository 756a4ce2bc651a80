package api

import (
	"github.com/digitalrsvp/rsvp-server/internal/search"
	"github.com/digitalrsvp/rsvp-server/internal/service"
)

// Services groups all business logic services used by the API server.
type Services struct {
	Auth       *service.AuthService
	RSVP       *service.RSVPService // Public lookup and submission
	Event      *service.EventService
	Invitation *service.InvitationService
	Guest      *service.GuestService
	Index      *search.GuestIndex // Health reporting only
}
