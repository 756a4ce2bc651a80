package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/digitalrsvp/rsvp-server/internal/domain"
	"github.com/digitalrsvp/rsvp-server/internal/service"
)

func (s *Server) registerGuestRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listGuests",
		Method:      http.MethodGet,
		Path:        "/api/v1/guests",
		Summary:     "List guests",
		Description: "Returns the guests of an event in the order they were added",
		Tags:        []string{"Guests"},
		Security:    hostSecurity,
	}, s.handleListGuests)

	huma.Register(s.api, huma.Operation{
		OperationID: "listEventGuests",
		Method:      http.MethodGet,
		Path:        "/api/v1/events/{id}/guests",
		Summary:     "List event guests",
		Tags:        []string{"Guests"},
		Security:    hostSecurity,
	}, s.handleListEventGuests)

	huma.Register(s.api, huma.Operation{
		OperationID: "searchGuests",
		Method:      http.MethodGet,
		Path:        "/api/v1/events/{id}/guests/search",
		Summary:     "Search guests",
		Description: "Searches guest names, plus-one names and notes, ignoring case and accents",
		Tags:        []string{"Guests"},
		Security:    hostSecurity,
	}, s.handleSearchGuests)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createGuest",
		Method:        http.MethodPost,
		Path:          "/api/v1/guests",
		Summary:       "Create guest",
		Description:   "Adds a guest by hand. The status defaults to pending.",
		Tags:          []string{"Guests"},
		DefaultStatus: http.StatusCreated,
		Security:      hostSecurity,
	}, s.handleCreateGuest)

	huma.Register(s.api, huma.Operation{
		OperationID: "getGuest",
		Method:      http.MethodGet,
		Path:        "/api/v1/guests/{id}",
		Summary:     "Get guest",
		Tags:        []string{"Guests"},
		Security:    hostSecurity,
	}, s.handleGetGuest)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateGuest",
		Method:      http.MethodPut,
		Path:        "/api/v1/guests/{id}",
		Summary:     "Update guest",
		Tags:        []string{"Guests"},
		Security:    hostSecurity,
	}, s.handleUpdateGuest)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteGuest",
		Method:      http.MethodDelete,
		Path:        "/api/v1/guests/{id}",
		Summary:     "Delete guest",
		Tags:        []string{"Guests"},
		Security:    hostSecurity,
	}, s.handleDeleteGuest)
}

// === DTOs ===

// ListGuestsInput filters guests by event.
type ListGuestsInput struct {
	Authorization string `header:"Authorization"`
	EventID       string `query:"event_id" required:"true" doc:"Event ID"`
}

// SearchGuestsInput is the guest search query.
type SearchGuestsInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Event ID"`
	Query         string `query:"q" maxLength:"200" doc:"Search text; empty lists every guest"`
	Status        string `query:"status" doc:"Only guests with this status"`
	Limit         int    `query:"limit" default:"50" minimum:"1" maximum:"200" doc:"Maximum results"`
}

// GuestIDInput identifies a guest.
type GuestIDInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Guest ID"`
}

// CreateGuestInput wraps the create request for Huma.
type CreateGuestInput struct {
	Authorization string `header:"Authorization"`
	Body          service.CreateGuestRequest
}

// UpdateGuestInput wraps the update request for Huma.
type UpdateGuestInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Guest ID"`
	Body          service.UpdateGuestRequest
}

// GuestOutput wraps a single guest for Huma.
type GuestOutput struct {
	Body *domain.Guest
}

// ListGuestsResponse contains the guests of an event.
type ListGuestsResponse struct {
	Guests []*domain.Guest `json:"guests"`
}

// ListGuestsOutput wraps the guest list for Huma.
type ListGuestsOutput struct {
	Body ListGuestsResponse
}

// SearchGuestsOutput wraps search results for Huma.
type SearchGuestsOutput struct {
	Body *service.SearchResult
}

// === Handlers ===

func (s *Server) handleListGuests(ctx context.Context, input *ListGuestsInput) (*ListGuestsOutput, error) {
	if _, err := s.authenticateRequest(ctx, input.Authorization); err != nil {
		return nil, err
	}
	return s.listGuests(ctx, input.EventID)
}

func (s *Server) handleListEventGuests(ctx context.Context, input *EventIDInput) (*ListGuestsOutput, error) {
	if _, err := s.authenticateRequest(ctx, input.Authorization); err != nil {
		return nil, err
	}
	if _, err := s.services.Event.GetEvent(ctx, input.ID); err != nil {
		return nil, err
	}
	return s.listGuests(ctx, input.ID)
}

func (s *Server) listGuests(ctx context.Context, eventID string) (*ListGuestsOutput, error) {
	guests, err := s.services.Guest.ListGuests(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if guests == nil {
		guests = []*domain.Guest{}
	}
	return &ListGuestsOutput{Body: ListGuestsResponse{Guests: guests}}, nil
}

func (s *Server) handleSearchGuests(ctx context.Context, input *SearchGuestsInput) (*SearchGuestsOutput, error) {
	if _, err := s.authenticateRequest(ctx, input.Authorization); err != nil {
		return nil, err
	}
	if _, err := s.services.Event.GetEvent(ctx, input.ID); err != nil {
		return nil, err
	}

	result, err := s.services.Guest.SearchGuests(ctx, input.ID, input.Query, domain.RSVPStatus(input.Status), input.Limit)
	if err != nil {
		return nil, err
	}
	return &SearchGuestsOutput{Body: result}, nil
}

func (s *Server) handleCreateGuest(ctx context.Context, input *CreateGuestInput) (*GuestOutput, error) {
	if _, err := s.authenticateRequest(ctx, input.Authorization); err != nil {
		return nil, err
	}

	guest, err := s.services.Guest.CreateGuest(ctx, input.Body)
	if err != nil {
		return nil, err
	}
	return &GuestOutput{Body: guest}, nil
}

func (s *Server) handleGetGuest(ctx context.Context, input *GuestIDInput) (*GuestOutput, error) {
	if _, err := s.authenticateRequest(ctx, input.Authorization); err != nil {
		return nil, err
	}

	guest, err := s.services.Guest.GetGuest(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &GuestOutput{Body: guest}, nil
}

func (s *Server) handleUpdateGuest(ctx context.Context, input *UpdateGuestInput) (*GuestOutput, error) {
	if _, err := s.authenticateRequest(ctx, input.Authorization); err != nil {
		return nil, err
	}

	guest, err := s.services.Guest.UpdateGuest(ctx, input.ID, input.Body)
	if err != nil {
		return nil, err
	}
	return &GuestOutput{Body: guest}, nil
}

func (s *Server) handleDeleteGuest(ctx context.Context, input *GuestIDInput) (*struct{}, error) {
	if _, err := s.authenticateRequest(ctx, input.Authorization); err != nil {
		return nil, err
	}

	if err := s.services.Guest.DeleteGuest(ctx, input.ID); err != nil {
		return nil, err
	}
	return nil, nil
}
