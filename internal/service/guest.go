package service

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/digitalrsvp/rsvp-server/internal/domain"
	domainerrors "github.com/digitalrsvp/rsvp-server/internal/errors"
	"github.com/digitalrsvp/rsvp-server/internal/id"
	"github.com/digitalrsvp/rsvp-server/internal/search"
	"github.com/digitalrsvp/rsvp-server/internal/store"
	"github.com/digitalrsvp/rsvp-server/internal/validation"
)

// GuestService manages guest records on behalf of the host.
type GuestService struct {
	cols      *store.Collections
	index     *search.GuestIndex
	validator *validation.Validator
	logger    *slog.Logger
	now       func() time.Time
}

// NewGuestService creates a new guest service.
func NewGuestService(cols *store.Collections, index *search.GuestIndex, validator *validation.Validator, logger *slog.Logger) *GuestService {
	return &GuestService{
		cols:      cols,
		index:     index,
		validator: validator,
		logger:    logger,
		now:       time.Now,
	}
}

// CreateGuestRequest is a guest entered manually by the host.
type CreateGuestRequest struct {
	EventID      string `json:"event_id" validate:"required"`
	InvitationID string `json:"invitation_id,omitempty"`

	Name  string `json:"name" validate:"required,max=200"`
	Email string `json:"email,omitempty" validate:"omitempty,email"`
	Phone string `json:"phone,omitempty" validate:"max=50"`

	RSVPStatus domain.RSVPStatus `json:"rsvp_status,omitempty" validate:"omitempty,rsvp_status"`

	PlusOne                    bool   `json:"plus_one,omitempty"`
	PlusOneName                string `json:"plus_one_name,omitempty" validate:"max=200"`
	PlusOneConfirmed           bool   `json:"plus_one_confirmed,omitempty"`
	PlusOneDietaryRestrictions string `json:"plus_one_dietary_restrictions,omitempty" validate:"max=500"`

	DietaryRestrictions string `json:"dietary_restrictions,omitempty" validate:"max=500"`
	Allergies           string `json:"allergies,omitempty" validate:"max=500"`
	SongRequest         string `json:"song_request,omitempty" validate:"max=200"`

	ChildrenAttending           *int   `json:"children_attending,omitempty" validate:"omitempty,gte=0,lte=20"`
	ChildrenDietaryRestrictions string `json:"children_dietary_restrictions,omitempty" validate:"max=500"`

	CustomAnswers domain.CustomAnswers `json:"custom_answers,omitempty"`
	Notes         string               `json:"notes,omitempty" validate:"max=2000"`

	TableNumber int    `json:"table_number,omitempty" validate:"gte=0"`
	Group       string `json:"group,omitempty" validate:"max=100"`

	InvitationSent bool `json:"invitation_sent,omitempty"`
	ReminderSent   bool `json:"reminder_sent,omitempty"`
}

// UpdateGuestRequest is a partial guest update. Nil fields are left unchanged.
type UpdateGuestRequest struct {
	Name  *string `json:"name,omitempty" validate:"omitempty,max=200"`
	Email *string `json:"email,omitempty" validate:"omitempty,email"`
	Phone *string `json:"phone,omitempty" validate:"omitempty,max=50"`

	RSVPStatus *domain.RSVPStatus `json:"rsvp_status,omitempty" validate:"omitempty,rsvp_status"`

	PlusOne                    *bool   `json:"plus_one,omitempty"`
	PlusOneName                *string `json:"plus_one_name,omitempty" validate:"omitempty,max=200"`
	PlusOneConfirmed           *bool   `json:"plus_one_confirmed,omitempty"`
	PlusOneDietaryRestrictions *string `json:"plus_one_dietary_restrictions,omitempty" validate:"omitempty,max=500"`

	DietaryRestrictions *string `json:"dietary_restrictions,omitempty" validate:"omitempty,max=500"`
	Allergies           *string `json:"allergies,omitempty" validate:"omitempty,max=500"`
	SongRequest         *string `json:"song_request,omitempty" validate:"omitempty,max=200"`

	ChildrenAttending           *int    `json:"children_attending,omitempty" validate:"omitempty,gte=0,lte=20"`
	ChildrenDietaryRestrictions *string `json:"children_dietary_restrictions,omitempty" validate:"omitempty,max=500"`

	CustomAnswers *domain.CustomAnswers `json:"custom_answers,omitempty"`
	Notes         *string               `json:"notes,omitempty" validate:"omitempty,max=2000"`

	TableNumber *int    `json:"table_number,omitempty" validate:"omitempty,gte=0"`
	Group       *string `json:"group,omitempty" validate:"omitempty,max=100"`

	InvitationSent *bool `json:"invitation_sent,omitempty"`
	ReminderSent   *bool `json:"reminder_sent,omitempty"`
}

// CreateGuest stores a host-entered guest. The status defaults to pending.
func (s *GuestService) CreateGuest(ctx context.Context, req CreateGuestRequest) (*domain.Guest, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	if err := req.CustomAnswers.Validate(); err != nil {
		return nil, domainerrors.FieldValidation("custom_answers", err.Error())
	}

	if _, err := readWithRetry(ctx, s.logger, "get guest event", func(ctx context.Context) (*domain.Event, error) {
		return s.cols.Events.Get(ctx, req.EventID)
	}); err != nil {
		return nil, storeError(err, "event")
	}
	if req.InvitationID != "" {
		if err := s.checkInvitation(ctx, req.EventID, req.InvitationID); err != nil {
			return nil, err
		}
	}

	guestID, err := id.Generate("guest")
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to generate guest id")
	}

	now := s.now().UTC()
	status := req.RSVPStatus
	if status == "" {
		status = domain.RSVPPending
	}

	g := &domain.Guest{
		Record:                      domain.Record{ID: guestID, CreatedAt: now, UpdatedAt: now},
		EventID:                     req.EventID,
		InvitationID:                req.InvitationID,
		Name:                        strings.TrimSpace(req.Name),
		Email:                       strings.TrimSpace(req.Email),
		Phone:                       strings.TrimSpace(req.Phone),
		RSVPStatus:                  status,
		PlusOne:                     req.PlusOne,
		PlusOneName:                 strings.TrimSpace(req.PlusOneName),
		PlusOneConfirmed:            req.PlusOneConfirmed,
		PlusOneDietaryRestrictions:  strings.TrimSpace(req.PlusOneDietaryRestrictions),
		DietaryRestrictions:         strings.TrimSpace(req.DietaryRestrictions),
		Allergies:                   strings.TrimSpace(req.Allergies),
		SongRequest:                 strings.TrimSpace(req.SongRequest),
		ChildrenAttending:           req.ChildrenAttending,
		ChildrenDietaryRestrictions: strings.TrimSpace(req.ChildrenDietaryRestrictions),
		CustomAnswers:               req.CustomAnswers,
		Notes:                       strings.TrimSpace(req.Notes),
		TableNumber:                 req.TableNumber,
		Group:                       strings.TrimSpace(req.Group),
		InvitationSent:              req.InvitationSent,
		ReminderSent:                req.ReminderSent,
	}
	if status != domain.RSVPPending {
		g.RSVPDate = &now
	}
	if g.InvitationSent {
		g.InvitationSentDate = &now
	}
	if g.ReminderSent {
		g.ReminderSentDate = &now
	}

	if err := s.cols.Guests.Insert(ctx, g.ID, g); err != nil {
		return nil, storeError(err, "guest")
	}
	s.reindex(ctx, g)

	s.logger.InfoContext(ctx, "guest created", "guest_id", g.ID, "event_id", g.EventID)
	return g, nil
}

func (s *GuestService) checkInvitation(ctx context.Context, eventID, invitationID string) error {
	inv, err := readWithRetry(ctx, s.logger, "get guest invitation", func(ctx context.Context) (*domain.Invitation, error) {
		return s.cols.Invitations.Get(ctx, invitationID)
	})
	if errors.Is(err, store.ErrNotFound) {
		return domainerrors.FieldValidation("invitation_id", "invitation does not exist")
	}
	if err != nil {
		return storeError(err, "invitation")
	}
	if inv.EventID != eventID {
		return domainerrors.FieldValidation("invitation_id", "invitation belongs to another event")
	}
	return nil
}

// ListGuests returns the guests of an event, oldest first.
func (s *GuestService) ListGuests(ctx context.Context, eventID string) ([]*domain.Guest, error) {
	if eventID == "" {
		return nil, domainerrors.FieldValidation("event_id", "event_id is required")
	}

	guests, err := s.eventGuests(ctx, eventID)
	if err != nil {
		return nil, err
	}
	slices.SortFunc(guests, func(a, b *domain.Guest) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return guests, nil
}

func (s *GuestService) eventGuests(ctx context.Context, eventID string) ([]*domain.Guest, error) {
	guests, err := readWithRetry(ctx, s.logger, "list guests", func(ctx context.Context) ([]*domain.Guest, error) {
		return s.cols.Guests.Find(ctx, store.Filter{store.FieldEventID: eventID})
	})
	if err != nil {
		return nil, storeError(err, "guests")
	}
	return guests, nil
}

// GetGuest returns one guest.
func (s *GuestService) GetGuest(ctx context.Context, guestID string) (*domain.Guest, error) {
	g, err := readWithRetry(ctx, s.logger, "get guest", func(ctx context.Context) (*domain.Guest, error) {
		return s.cols.Guests.Get(ctx, guestID)
	})
	if err != nil {
		return nil, storeError(err, "guest")
	}
	return g, nil
}

// UpdateGuest applies a partial update. Changing the status re-stamps
// rsvp_date; turning on a sent flag stamps its date.
func (s *GuestService) UpdateGuest(ctx context.Context, guestID string, req UpdateGuestRequest) (*domain.Guest, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	if req.CustomAnswers != nil {
		if err := req.CustomAnswers.Validate(); err != nil {
			return nil, domainerrors.FieldValidation("custom_answers", err.Error())
		}
	}

	current, err := s.GetGuest(ctx, guestID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	patch := store.Patch{}
	setString := func(field string, v *string) {
		if v != nil {
			patch[field] = strings.TrimSpace(*v)
		}
	}
	setBool := func(field string, v *bool) {
		if v != nil {
			patch[field] = *v
		}
	}

	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			return nil, domainerrors.FieldValidation("name", "name is required")
		}
		setString("name", req.Name)
	}
	setString("email", req.Email)
	setString("phone", req.Phone)
	if req.RSVPStatus != nil && *req.RSVPStatus != current.RSVPStatus {
		patch["rsvp_status"] = *req.RSVPStatus
		if *req.RSVPStatus == domain.RSVPPending {
			patch["rsvp_date"] = nil
		} else {
			patch["rsvp_date"] = now
		}
	}
	setBool("plus_one", req.PlusOne)
	setString("plus_one_name", req.PlusOneName)
	setBool("plus_one_confirmed", req.PlusOneConfirmed)
	setString("plus_one_dietary_restrictions", req.PlusOneDietaryRestrictions)
	setString("dietary_restrictions", req.DietaryRestrictions)
	setString("allergies", req.Allergies)
	setString("song_request", req.SongRequest)
	if req.ChildrenAttending != nil {
		patch["children_attending"] = *req.ChildrenAttending
	}
	setString("children_dietary_restrictions", req.ChildrenDietaryRestrictions)
	if req.CustomAnswers != nil {
		patch["custom_answers"] = *req.CustomAnswers
	}
	setString("notes", req.Notes)
	if req.TableNumber != nil {
		patch["table_number"] = *req.TableNumber
	}
	setString("group", req.Group)
	if req.InvitationSent != nil {
		patch["invitation_sent"] = *req.InvitationSent
		if *req.InvitationSent && !current.InvitationSent {
			patch["invitation_sent_date"] = now
		}
	}
	if req.ReminderSent != nil {
		patch["reminder_sent"] = *req.ReminderSent
		if *req.ReminderSent && !current.ReminderSent {
			patch["reminder_sent_date"] = now
		}
	}

	g, err := s.cols.Guests.Update(ctx, guestID, patch)
	if err != nil {
		return nil, storeError(err, "guest")
	}
	s.reindex(ctx, g)

	s.logger.InfoContext(ctx, "guest updated", "guest_id", guestID, "fields", len(patch))
	return g, nil
}

// DeleteGuest removes a guest.
func (s *GuestService) DeleteGuest(ctx context.Context, guestID string) error {
	if _, err := s.GetGuest(ctx, guestID); err != nil {
		return err
	}
	if err := s.cols.Guests.Delete(ctx, guestID); err != nil {
		return storeError(err, "guest")
	}
	if err := s.index.DeleteGuest(guestID); err != nil {
		s.logger.WarnContext(ctx, "failed to remove guest from search index", "guest_id", guestID, "error", err)
	}

	s.logger.InfoContext(ctx, "guest deleted", "guest_id", guestID)
	return nil
}

// SearchResult holds the guests matching a search, best match first.
type SearchResult struct {
	Query  string          `json:"query"`
	Total  uint64          `json:"total"`
	Guests []*domain.Guest `json:"guests"`
}

// SearchGuests finds guests of an event by name, plus-one name or notes.
func (s *GuestService) SearchGuests(ctx context.Context, eventID, query string, status domain.RSVPStatus, limit int) (*SearchResult, error) {
	if status != "" && !status.IsValid() {
		return nil, domainerrors.FieldValidation("status", "status must be pending, confirmed, declined or maybe")
	}

	hits, total, err := s.index.Search(ctx, search.Params{
		EventID: eventID,
		Query:   query,
		Status:  string(status),
		Limit:   limit,
	})
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "search failed")
	}

	guests := make([]*domain.Guest, 0, len(hits))
	for _, hit := range hits {
		g, err := s.GetGuest(ctx, hit.ID)
		if errors.Is(err, domainerrors.ErrNotFound) {
			// Deleted since it was indexed.
			continue
		}
		if err != nil {
			return nil, err
		}
		guests = append(guests, g)
	}

	return &SearchResult{Query: query, Total: total, Guests: guests}, nil
}

// RebuildIndex reindexes every stored guest.
func (s *GuestService) RebuildIndex(ctx context.Context) error {
	guests, err := readWithRetry(ctx, s.logger, "list all guests", func(ctx context.Context) ([]*domain.Guest, error) {
		return s.cols.Guests.Find(ctx, nil)
	})
	if err != nil {
		return storeError(err, "guests")
	}
	return s.index.Rebuild(guests)
}

func (s *GuestService) reindex(ctx context.Context, g *domain.Guest) {
	if err := s.index.IndexGuest(g); err != nil {
		s.logger.WarnContext(ctx, "failed to index guest", "guest_id", g.ID, "error", err)
	}
}
