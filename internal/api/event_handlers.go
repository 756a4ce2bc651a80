package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/digitalrsvp/rsvp-server/internal/domain"
	"github.com/digitalrsvp/rsvp-server/internal/service"
)

func (s *Server) registerEventRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listEvents",
		Method:      http.MethodGet,
		Path:        "/api/v1/events",
		Summary:     "List events",
		Description: "Returns all events, newest first",
		Tags:        []string{"Events"},
		Security:    hostSecurity,
	}, s.handleListEvents)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createEvent",
		Method:        http.MethodPost,
		Path:          "/api/v1/events",
		Summary:       "Create event",
		Description:   "Creates an event with a generated share code",
		Tags:          []string{"Events"},
		DefaultStatus: http.StatusCreated,
		Security:      hostSecurity,
	}, s.handleCreateEvent)

	huma.Register(s.api, huma.Operation{
		OperationID: "getEvent",
		Method:      http.MethodGet,
		Path:        "/api/v1/events/{id}",
		Summary:     "Get event",
		Tags:        []string{"Events"},
		Security:    hostSecurity,
	}, s.handleGetEvent)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateEvent",
		Method:      http.MethodPut,
		Path:        "/api/v1/events/{id}",
		Summary:     "Update event",
		Description: "Updates the given event fields. The share code cannot change.",
		Tags:        []string{"Events"},
		Security:    hostSecurity,
	}, s.handleUpdateEvent)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteEvent",
		Method:      http.MethodDelete,
		Path:        "/api/v1/events/{id}",
		Summary:     "Delete event",
		Description: "Deletes the event together with its invitations and guests",
		Tags:        []string{"Events"},
		Security:    hostSecurity,
	}, s.handleDeleteEvent)

	huma.Register(s.api, huma.Operation{
		OperationID: "getEventStats",
		Method:      http.MethodGet,
		Path:        "/api/v1/events/{id}/stats",
		Summary:     "Event statistics",
		Description: "Aggregates the event's guests by status, plus-ones, attendance and dietary needs",
		Tags:        []string{"Events"},
		Security:    hostSecurity,
	}, s.handleGetEventStats)
}

// === DTOs ===

// EventIDInput identifies an event.
type EventIDInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Event ID"`
}

// ListEventsInput is the input for listing events.
type ListEventsInput struct {
	Authorization string `header:"Authorization"`
}

// CreateEventInput wraps the create request for Huma.
type CreateEventInput struct {
	Authorization string `header:"Authorization"`
	Body          service.CreateEventRequest
}

// UpdateEventInput wraps the update request for Huma.
type UpdateEventInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Event ID"`
	Body          service.UpdateEventRequest
}

// EventOutput wraps a single event for Huma.
type EventOutput struct {
	Body *domain.Event
}

// ListEventsResponse contains the events.
type ListEventsResponse struct {
	Events []*domain.Event `json:"events" doc:"Events, newest first"`
}

// ListEventsOutput wraps the event list for Huma.
type ListEventsOutput struct {
	Body ListEventsResponse
}

// StatsOutput wraps event statistics for Huma.
type StatsOutput struct {
	Body *domain.GuestStats
}

// === Handlers ===

func (s *Server) handleListEvents(ctx context.Context, input *ListEventsInput) (*ListEventsOutput, error) {
	if _, err := s.authenticateRequest(ctx, input.Authorization); err != nil {
		return nil, err
	}

	events, err := s.services.Event.ListEvents(ctx)
	if err != nil {
		return nil, err
	}
	if events == nil {
		events = []*domain.Event{}
	}
	return &ListEventsOutput{Body: ListEventsResponse{Events: events}}, nil
}

func (s *Server) handleCreateEvent(ctx context.Context, input *CreateEventInput) (*EventOutput, error) {
	if _, err := s.authenticateRequest(ctx, input.Authorization); err != nil {
		return nil, err
	}

	event, err := s.services.Event.CreateEvent(ctx, input.Body)
	if err != nil {
		return nil, err
	}
	return &EventOutput{Body: event}, nil
}

func (s *Server) handleGetEvent(ctx context.Context, input *EventIDInput) (*EventOutput, error) {
	if _, err := s.authenticateRequest(ctx, input.Authorization); err != nil {
		return nil, err
	}

	event, err := s.services.Event.GetEvent(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &EventOutput{Body: event}, nil
}

func (s *Server) handleUpdateEvent(ctx context.Context, input *UpdateEventInput) (*EventOutput, error) {
	if _, err := s.authenticateRequest(ctx, input.Authorization); err != nil {
		return nil, err
	}

	event, err := s.services.Event.UpdateEvent(ctx, input.ID, input.Body)
	if err != nil {
		return nil, err
	}
	return &EventOutput{Body: event}, nil
}

func (s *Server) handleDeleteEvent(ctx context.Context, input *EventIDInput) (*struct{}, error) {
	if _, err := s.authenticateRequest(ctx, input.Authorization); err != nil {
		return nil, err
	}

	if err := s.services.Event.DeleteEvent(ctx, input.ID); err != nil {
		return nil, err
	}
	return nil, nil
}

func (s *Server) handleGetEventStats(ctx context.Context, input *EventIDInput) (*StatsOutput, error) {
	if _, err := s.authenticateRequest(ctx, input.Authorization); err != nil {
		return nil, err
	}

	stats, err := s.services.Guest.Stats(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &StatsOutput{Body: stats}, nil
}
