package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/digitalrsvp/rsvp-server/internal/service"
)

func (s *Server) registerInvitationRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listInvitations",
		Method:      http.MethodGet,
		Path:        "/api/v1/invitations",
		Summary:     "List invitations",
		Description: "Returns the invitations of an event with their share links",
		Tags:        []string{"Invitations"},
		Security:    hostSecurity,
	}, s.handleListInvitations)

	huma.Register(s.api, huma.Operation{
		OperationID: "listEventInvitations",
		Method:      http.MethodGet,
		Path:        "/api/v1/events/{id}/invitations",
		Summary:     "List event invitations",
		Tags:        []string{"Invitations"},
		Security:    hostSecurity,
	}, s.handleListEventInvitations)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createInvitation",
		Method:        http.MethodPost,
		Path:          "/api/v1/invitations",
		Summary:       "Create invitation",
		Description:   "Creates an invitation with a generated share code. The invitation type decides whether a plus-one is offered.",
		Tags:          []string{"Invitations"},
		DefaultStatus: http.StatusCreated,
		Security:      hostSecurity,
	}, s.handleCreateInvitation)

	huma.Register(s.api, huma.Operation{
		OperationID: "getInvitation",
		Method:      http.MethodGet,
		Path:        "/api/v1/invitations/{id}",
		Summary:     "Get invitation",
		Tags:        []string{"Invitations"},
		Security:    hostSecurity,
	}, s.handleGetInvitation)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateInvitation",
		Method:      http.MethodPut,
		Path:        "/api/v1/invitations/{id}",
		Summary:     "Update invitation",
		Description: "Updates invitees and type. The event, share code and answered state are kept.",
		Tags:        []string{"Invitations"},
		Security:    hostSecurity,
	}, s.handleUpdateInvitation)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteInvitation",
		Method:      http.MethodDelete,
		Path:        "/api/v1/invitations/{id}",
		Summary:     "Delete invitation",
		Description: "Deletes the invitation. Guests that already answered are kept.",
		Tags:        []string{"Invitations"},
		Security:    hostSecurity,
	}, s.handleDeleteInvitation)
}

// === DTOs ===

// ListInvitationsInput filters invitations by event.
type ListInvitationsInput struct {
	Authorization string `header:"Authorization"`
	EventID       string `query:"event_id" required:"true" doc:"Event ID"`
}

// InvitationIDInput identifies an invitation.
type InvitationIDInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Invitation ID"`
}

// CreateInvitationInput wraps the create request for Huma.
type CreateInvitationInput struct {
	Authorization string `header:"Authorization"`
	Body          service.CreateInvitationRequest
}

// UpdateInvitationInput wraps the update request for Huma.
type UpdateInvitationInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Invitation ID"`
	Body          service.UpdateInvitationRequest
}

// InvitationOutput wraps a single invitation for Huma.
type InvitationOutput struct {
	Body *service.InvitationView
}

// ListInvitationsResponse contains the invitations of an event.
type ListInvitationsResponse struct {
	Invitations []*service.InvitationView `json:"invitations"`
}

// ListInvitationsOutput wraps the invitation list for Huma.
type ListInvitationsOutput struct {
	Body ListInvitationsResponse
}

// === Handlers ===

func (s *Server) handleListInvitations(ctx context.Context, input *ListInvitationsInput) (*ListInvitationsOutput, error) {
	if _, err := s.authenticateRequest(ctx, input.Authorization); err != nil {
		return nil, err
	}
	return s.listInvitations(ctx, input.EventID)
}

func (s *Server) handleListEventInvitations(ctx context.Context, input *EventIDInput) (*ListInvitationsOutput, error) {
	if _, err := s.authenticateRequest(ctx, input.Authorization); err != nil {
		return nil, err
	}
	if _, err := s.services.Event.GetEvent(ctx, input.ID); err != nil {
		return nil, err
	}
	return s.listInvitations(ctx, input.ID)
}

func (s *Server) listInvitations(ctx context.Context, eventID string) (*ListInvitationsOutput, error) {
	invitations, err := s.services.Invitation.ListInvitations(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if invitations == nil {
		invitations = []*service.InvitationView{}
	}
	return &ListInvitationsOutput{Body: ListInvitationsResponse{Invitations: invitations}}, nil
}

func (s *Server) handleCreateInvitation(ctx context.Context, input *CreateInvitationInput) (*InvitationOutput, error) {
	if _, err := s.authenticateRequest(ctx, input.Authorization); err != nil {
		return nil, err
	}

	inv, err := s.services.Invitation.CreateInvitation(ctx, input.Body)
	if err != nil {
		return nil, err
	}
	return &InvitationOutput{Body: inv}, nil
}

func (s *Server) handleGetInvitation(ctx context.Context, input *InvitationIDInput) (*InvitationOutput, error) {
	if _, err := s.authenticateRequest(ctx, input.Authorization); err != nil {
		return nil, err
	}

	inv, err := s.services.Invitation.GetInvitation(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &InvitationOutput{Body: inv}, nil
}

func (s *Server) handleUpdateInvitation(ctx context.Context, input *UpdateInvitationInput) (*InvitationOutput, error) {
	if _, err := s.authenticateRequest(ctx, input.Authorization); err != nil {
		return nil, err
	}

	inv, err := s.services.Invitation.UpdateInvitation(ctx, input.ID, input.Body)
	if err != nil {
		return nil, err
	}
	return &InvitationOutput{Body: inv}, nil
}

func (s *Server) handleDeleteInvitation(ctx context.Context, input *InvitationIDInput) (*struct{}, error) {
	if _, err := s.authenticateRequest(ctx, input.Authorization); err != nil {
		return nil, err
	}

	if err := s.services.Invitation.DeleteInvitation(ctx, input.ID); err != nil {
		return nil, err
	}
	return nil, nil
}
