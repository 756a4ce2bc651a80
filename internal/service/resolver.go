package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/digitalrsvp/rsvp-server/internal/domain"
	"github.com/digitalrsvp/rsvp-server/internal/store"
)

// Resolver maps public share codes to invitations or events.
//
// Invitation codes are tried first; event codes are the fallback for events
// created before personalized invitations existed. Both lookups are reads
// and get one retry on transport failure.
type Resolver struct {
	cols   *store.Collections
	logger *slog.Logger
}

// NewResolver creates a resolver over the given collections.
func NewResolver(cols *store.Collections, logger *slog.Logger) *Resolver {
	return &Resolver{cols: cols, logger: logger}
}

// NormalizeCode upper-cases and trims a share code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Resolve looks up code. Unknown codes give a not_found resolution, not an error;
// errors are reserved for storage failures.
func (r *Resolver) Resolve(ctx context.Context, code string) (*domain.Resolution, error) {
	code = NormalizeCode(code)
	if code == "" {
		return domain.NotFoundResolution(), nil
	}

	inv, err := readWithRetry(ctx, r.logger, "resolve invitation", func(ctx context.Context) (*domain.Invitation, error) {
		return r.cols.Invitations.FindOne(ctx, store.FieldShareCode, code)
	})
	switch {
	case err == nil:
		return r.withEvent(ctx, inv)
	case !errors.Is(err, store.ErrNotFound):
		return nil, storeError(err, "invitation")
	}

	event, err := readWithRetry(ctx, r.logger, "resolve event", func(ctx context.Context) (*domain.Event, error) {
		return r.cols.Events.FindOne(ctx, store.FieldShareCode, code)
	})
	switch {
	case err == nil:
		return domain.EventResolution(event), nil
	case errors.Is(err, store.ErrNotFound):
		return domain.NotFoundResolution(), nil
	default:
		return nil, storeError(err, "event")
	}
}

// withEvent loads the invitation's event. A dangling event reference is
// logged and reported as a resolution without an event.
func (r *Resolver) withEvent(ctx context.Context, inv *domain.Invitation) (*domain.Resolution, error) {
	event, err := readWithRetry(ctx, r.logger, "resolve invitation event", func(ctx context.Context) (*domain.Event, error) {
		return r.cols.Events.Get(ctx, inv.EventID)
	})
	switch {
	case err == nil:
		return domain.InvitationResolution(inv, event), nil
	case errors.Is(err, store.ErrNotFound):
		r.logger.WarnContext(ctx, "invitation references missing event",
			"invitation_id", inv.ID,
			"event_id", inv.EventID,
		)
		return domain.InvitationResolution(inv, nil), nil
	default:
		return nil, storeError(err, "event")
	}
}
