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
	"github.com/digitalrsvp/rsvp-server/internal/store"
	"github.com/digitalrsvp/rsvp-server/internal/validation"
)

// InvitationService manages personalized invitations.
type InvitationService struct {
	cols      *store.Collections
	validator *validation.Validator
	logger    *slog.Logger
	publicURL string // base URL for share links
	now       func() time.Time
}

// NewInvitationService creates a new invitation service.
func NewInvitationService(cols *store.Collections, validator *validation.Validator, logger *slog.Logger, publicURL string) *InvitationService {
	return &InvitationService{
		cols:      cols,
		validator: validator,
		logger:    logger,
		publicURL: strings.TrimRight(publicURL, "/"),
		now:       time.Now,
	}
}

// PersonInput names an invitee.
type PersonInput struct {
	Name  string `json:"name" validate:"required,max=200"`
	Email string `json:"email,omitempty" validate:"omitempty,email"`
	Phone string `json:"phone,omitempty" validate:"max=50"`
}

// ChildInput is a child listed on a family invitation.
// Children with a blank name are dropped.
type ChildInput struct {
	Name string `json:"name,omitempty" validate:"max=200"`
	Age  *int   `json:"age,omitempty" validate:"omitempty,gte=0,lte=25"`
}

// CreateInvitationRequest contains the data needed to create an invitation.
type CreateInvitationRequest struct {
	EventID        string                `json:"event_id" validate:"required"`
	InvitationType domain.InvitationType `json:"invitation_type" validate:"required,invitation_type"`
	PrimaryGuest   PersonInput           `json:"primary_guest"`
	SecondaryGuest *PersonInput          `json:"secondary_guest,omitempty"`
	// AllowPlusOne is only honored for single and group invitations.
	AllowPlusOne *bool        `json:"allow_plus_one,omitempty"`
	Children     []ChildInput `json:"children,omitempty" validate:"max=20,dive"`
}

// UpdateInvitationRequest is a partial invitation update. The event, share
// code and submission state cannot be changed here.
type UpdateInvitationRequest struct {
	InvitationType *domain.InvitationType `json:"invitation_type,omitempty" validate:"omitempty,invitation_type"`
	PrimaryGuest   *PersonInput           `json:"primary_guest,omitempty"`
	SecondaryGuest *PersonInput           `json:"secondary_guest,omitempty"`
	AllowPlusOne   *bool                  `json:"allow_plus_one,omitempty"`
	Children       *[]ChildInput          `json:"children,omitempty" validate:"omitempty,max=20,dive"`
}

// InvitationView is an invitation with its public share link.
type InvitationView struct {
	*domain.Invitation
	ShareURL string `json:"share_url"`
}

// View wraps an invitation with its share URL.
func (s *InvitationService) View(inv *domain.Invitation) *InvitationView {
	return &InvitationView{Invitation: inv, ShareURL: s.publicURL + "/rsvp/" + inv.ShareCode}
}

// CreateInvitation creates an invitation with a fresh share code.
func (s *InvitationService) CreateInvitation(ctx context.Context, req CreateInvitationRequest) (*InvitationView, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	event, err := readWithRetry(ctx, s.logger, "get invitation event", func(ctx context.Context) (*domain.Event, error) {
		return s.cols.Events.Get(ctx, req.EventID)
	})
	if err != nil {
		return nil, storeError(err, "event")
	}

	invitationID, err := id.Generate("inv")
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to generate invitation id")
	}

	now := s.now().UTC()
	inv := &domain.Invitation{
		Record:         domain.Record{ID: invitationID, CreatedAt: now, UpdatedAt: now},
		EventID:        event.ID,
		InvitationType: req.InvitationType,
		PrimaryGuest:   req.PrimaryGuest.toDomain(),
		AllowPlusOne:   domain.DefaultAllowPlusOne(req.InvitationType, req.AllowPlusOne, event),
		Children:       childrenToDomain(req.Children),
		RSVPSubmitted:  false,
	}
	if req.SecondaryGuest != nil {
		p := req.SecondaryGuest.toDomain()
		inv.SecondaryGuest = &p
	}
	inv.Normalize()

	for attempt := 1; ; attempt++ {
		inv.ShareCode, err = id.InvitationCode()
		if err != nil {
			return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to generate share code")
		}
		err = s.cols.Invitations.Insert(ctx, inv.ID, inv)
		if err == nil {
			break
		}
		if !errors.Is(err, store.ErrAlreadyExists) || attempt == codeAttempts {
			return nil, storeError(err, "invitation")
		}
		s.logger.DebugContext(ctx, "invitation share code taken, regenerating", "attempt", attempt)
	}

	s.logger.InfoContext(ctx, "invitation created",
		"invitation_id", inv.ID,
		"event_id", inv.EventID,
		"type", inv.InvitationType,
		"code", inv.ShareCode,
	)
	return s.View(inv), nil
}

// ListInvitations returns the invitations of an event, oldest first.
func (s *InvitationService) ListInvitations(ctx context.Context, eventID string) ([]*InvitationView, error) {
	if eventID == "" {
		return nil, domainerrors.FieldValidation("event_id", "event_id is required")
	}

	invitations, err := readWithRetry(ctx, s.logger, "list invitations", func(ctx context.Context) ([]*domain.Invitation, error) {
		return s.cols.Invitations.Find(ctx, store.Filter{store.FieldEventID: eventID})
	})
	if err != nil {
		return nil, storeError(err, "invitations")
	}

	slices.SortFunc(invitations, func(a, b *domain.Invitation) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})

	views := make([]*InvitationView, len(invitations))
	for i, inv := range invitations {
		views[i] = s.View(inv)
	}
	return views, nil
}

// GetInvitation returns one invitation.
func (s *InvitationService) GetInvitation(ctx context.Context, invitationID string) (*InvitationView, error) {
	inv, err := s.get(ctx, invitationID)
	if err != nil {
		return nil, err
	}
	return s.View(inv), nil
}

func (s *InvitationService) get(ctx context.Context, invitationID string) (*domain.Invitation, error) {
	inv, err := readWithRetry(ctx, s.logger, "get invitation", func(ctx context.Context) (*domain.Invitation, error) {
		return s.cols.Invitations.Get(ctx, invitationID)
	})
	if err != nil {
		return nil, storeError(err, "invitation")
	}
	return inv, nil
}

// UpdateInvitation applies a partial update and re-establishes the
// invariants of the (possibly new) invitation type.
func (s *InvitationService) UpdateInvitation(ctx context.Context, invitationID string, req UpdateInvitationRequest) (*InvitationView, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	current, err := s.get(ctx, invitationID)
	if err != nil {
		return nil, err
	}

	next := *current
	if req.InvitationType != nil {
		next.InvitationType = *req.InvitationType
	}
	if req.PrimaryGuest != nil {
		next.PrimaryGuest = req.PrimaryGuest.toDomain()
	}
	if req.SecondaryGuest != nil {
		p := req.SecondaryGuest.toDomain()
		next.SecondaryGuest = &p
	}
	if req.Children != nil {
		next.Children = childrenToDomain(*req.Children)
	}

	switch {
	case req.AllowPlusOne != nil:
		next.AllowPlusOne = *req.AllowPlusOne
	case next.InvitationType != current.InvitationType:
		if allow, ok := next.InvitationType.PlusOneDefault(); ok {
			next.AllowPlusOne = allow
		}
	}
	next.Normalize()

	patch, err := replacementPatch(current, &next)
	if err != nil {
		return nil, err
	}
	for _, field := range []string{store.FieldEventID, store.FieldShareCode, store.FieldRSVPSubmitted, store.FieldRSVPDate} {
		delete(patch, field)
	}

	updated, err := s.cols.Invitations.Update(ctx, invitationID, patch)
	if err != nil {
		return nil, storeError(err, "invitation")
	}

	s.logger.InfoContext(ctx, "invitation updated", "invitation_id", invitationID)
	return s.View(updated), nil
}

// DeleteInvitation removes an invitation. A guest who already answered it
// keeps the response, still linked by invitation_id.
func (s *InvitationService) DeleteInvitation(ctx context.Context, invitationID string) error {
	if _, err := s.get(ctx, invitationID); err != nil {
		return err
	}
	if err := s.cols.Invitations.Delete(ctx, invitationID); err != nil {
		return storeError(err, "invitation")
	}
	s.logger.InfoContext(ctx, "invitation deleted", "invitation_id", invitationID)
	return nil
}

func (p PersonInput) toDomain() domain.InvitedPerson {
	return domain.InvitedPerson{Name: p.Name, Email: p.Email, Phone: p.Phone}
}

func childrenToDomain(children []ChildInput) []domain.InvitedChild {
	if len(children) == 0 {
		return nil
	}
	out := make([]domain.InvitedChild, len(children))
	for i, c := range children {
		out[i] = domain.InvitedChild{Name: c.Name, Age: c.Age}
	}
	return out
}
