package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/digitalrsvp/rsvp-server/internal/domain"
	domainerrors "github.com/digitalrsvp/rsvp-server/internal/errors"
	"github.com/digitalrsvp/rsvp-server/internal/id"
	"github.com/digitalrsvp/rsvp-server/internal/search"
	"github.com/digitalrsvp/rsvp-server/internal/store"
)

// RSVPService serves the public RSVP flow: code lookup and submission.
type RSVPService struct {
	cols     *store.Collections
	resolver *Resolver
	index    *search.GuestIndex
	policy   domain.ResubmissionPolicy
	logger   *slog.Logger
	now      func() time.Time
}

// NewRSVPService creates a new RSVP service.
func NewRSVPService(
	cols *store.Collections,
	resolver *Resolver,
	index *search.GuestIndex,
	policy domain.ResubmissionPolicy,
	logger *slog.Logger,
) *RSVPService {
	return &RSVPService{
		cols:     cols,
		resolver: resolver,
		index:    index,
		policy:   policy,
		logger:   logger,
		now:      time.Now,
	}
}

// LookupResult is what the public RSVP page needs to render its form.
type LookupResult struct {
	Kind       domain.ResolutionKind `json:"kind"`
	Available  bool                  `json:"available"`
	Event      *domain.Event         `json:"event,omitempty"`
	Invitation *domain.Invitation    `json:"invitation,omitempty"`
	Shape      domain.Shape          `json:"shape"`

	// AlreadySubmitted is set for answered invitations. Under the reject
	// policy the form should show the previous answer date instead.
	AlreadySubmitted bool                   `json:"already_submitted"`
	CanSubmit        bool                   `json:"can_submit"`
	DietaryChoices   []domain.DietaryChoice `json:"dietary_choices"`
}

// SubmitResult is returned after a successful submission.
type SubmitResult struct {
	Guest       *domain.Guest `json:"guest"`
	Resubmitted bool          `json:"resubmitted"`
}

// Lookup resolves a share code for display. Unknown codes are NotFound.
func (s *RSVPService) Lookup(ctx context.Context, code string) (*LookupResult, error) {
	res, err := s.resolver.Resolve(ctx, code)
	if err != nil {
		return nil, err
	}
	if res.Kind == domain.ResolvedNotFound {
		return nil, domainerrors.NotFound("invitation not found")
	}

	out := &LookupResult{
		Kind:           res.Kind,
		Available:      res.Available(),
		Event:          res.Event,
		Invitation:     res.Invitation,
		Shape:          res.Shape(),
		CanSubmit:      res.Available(),
		DietaryChoices: domain.DietaryChoices,
	}
	if inv := res.Invitation; inv != nil {
		out.AlreadySubmitted = inv.RSVPSubmitted
		out.CanSubmit = out.Available && inv.CanSubmit(s.policy)
	}
	return out, nil
}

// Submit records a response for code.
//
// In invitation mode the response is linked to the invitation, which is then
// marked submitted. A repeated submission either replaces the earlier guest
// record or fails with AlreadySubmitted, depending on the policy. Only the
// lookups are retried; the writes are not.
func (s *RSVPService) Submit(ctx context.Context, code string, in domain.RawRSVPInput) (*SubmitResult, error) {
	res, err := s.resolver.Resolve(ctx, code)
	if err != nil {
		return nil, err
	}

	switch {
	case res.Kind == domain.ResolvedNotFound:
		return nil, domainerrors.NotFound("invitation not found")
	case res.Kind == domain.ResolvedInvitation && res.Event == nil:
		s.logger.ErrorContext(ctx, "rsvp refused, invitation event missing",
			"invitation_id", res.Invitation.ID,
			"event_id", res.Invitation.EventID,
		)
		return nil, domainerrors.Integrity("invitation unavailable")
	}

	inv := res.Invitation
	if inv != nil && !inv.CanSubmit(s.policy) {
		return nil, domainerrors.AlreadySubmitted("this invitation has already been answered").
			WithDetails(map[string]any{"rsvp_date": inv.RSVPDate})
	}

	now := s.now().UTC()
	guest, err := ValidateRSVP(res, in, now)
	if err != nil {
		return nil, err
	}

	resubmitted := false
	if inv != nil {
		existing, err := s.previousGuest(ctx, inv.ID)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			guest, err = s.replaceGuest(ctx, existing, guest)
			resubmitted = true
		} else {
			err = s.insertGuest(ctx, guest, now)
		}
		if err != nil {
			return nil, err
		}

		inv.MarkSubmitted(now)
		_, err = s.cols.Invitations.Update(ctx, inv.ID, store.Patch{
			store.FieldRSVPSubmitted: inv.RSVPSubmitted,
			store.FieldRSVPDate:      inv.RSVPDate,
		})
		if err != nil {
			// The guest is stored; the host still sees the answer.
			s.logger.ErrorContext(ctx, "failed to mark invitation submitted",
				"invitation_id", inv.ID,
				"guest_id", guest.ID,
				"error", err,
			)
			return nil, storeError(err, "invitation")
		}
	} else if err := s.insertGuest(ctx, guest, now); err != nil {
		return nil, err
	}

	if err := s.index.IndexGuest(guest); err != nil {
		s.logger.WarnContext(ctx, "failed to index guest", "guest_id", guest.ID, "error", err)
	}

	s.logger.InfoContext(ctx, "rsvp submitted",
		"mode", res.Kind,
		"event_id", guest.EventID,
		"invitation_id", guest.InvitationID,
		"guest_id", guest.ID,
		"status", guest.RSVPStatus,
		"resubmitted", resubmitted,
	)

	return &SubmitResult{Guest: guest, Resubmitted: resubmitted}, nil
}

// previousGuest returns the guest already linked to the invitation, if any.
func (s *RSVPService) previousGuest(ctx context.Context, invitationID string) (*domain.Guest, error) {
	g, err := readWithRetry(ctx, s.logger, "find invitation guest", func(ctx context.Context) (*domain.Guest, error) {
		return s.cols.Guests.FindOne(ctx, store.FieldInvitationID, invitationID)
	})
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, storeError(err, "guest")
	}
	return g, nil
}

func (s *RSVPService) insertGuest(ctx context.Context, g *domain.Guest, now time.Time) error {
	guestID, err := id.Generate("guest")
	if err != nil {
		return domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to generate guest id")
	}
	g.ID = guestID
	g.CreatedAt = now
	g.UpdatedAt = now

	if err := s.cols.Guests.Insert(ctx, g.ID, g); err != nil {
		return storeError(err, "guest")
	}
	return nil
}

// replaceGuest overwrites the previous response in place, keeping the id
// and everything the host tracks about the guest: seating, reminders and
// when the invitation first went out.
func (s *RSVPService) replaceGuest(ctx context.Context, existing, next *domain.Guest) (*domain.Guest, error) {
	next.TableNumber = existing.TableNumber
	next.Group = existing.Group
	next.ReminderSent = existing.ReminderSent
	next.ReminderSentDate = existing.ReminderSentDate
	if existing.InvitationSentDate != nil {
		next.InvitationSentDate = existing.InvitationSentDate
	}

	patch, err := replacementPatch(existing, next)
	if err != nil {
		return nil, err
	}
	updated, err := s.cols.Guests.Update(ctx, existing.ID, patch)
	if err != nil {
		return nil, storeError(err, "guest")
	}
	return updated, nil
}
