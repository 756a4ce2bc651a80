package service

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/digitalrsvp/rsvp-server/internal/domain"
	"github.com/digitalrsvp/rsvp-server/internal/search"
	"github.com/digitalrsvp/rsvp-server/internal/store"
	"github.com/digitalrsvp/rsvp-server/internal/validation"
)

var testNow = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

type testEnv struct {
	cols        *store.Collections
	index       *search.GuestIndex
	resolver    *Resolver
	rsvp        *RSVPService
	events      *EventService
	invitations *InvitationService
	guests      *GuestService
}

func setupTestEnv(t *testing.T, policy domain.ResubmissionPolicy) *testEnv {
	t.Helper()

	s, err := store.NewInMemory(nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	return newTestEnv(t, s.Collections(), policy)
}

func newTestEnv(t *testing.T, cols *store.Collections, policy domain.ResubmissionPolicy) *testEnv {
	t.Helper()

	logger := slog.New(slog.DiscardHandler)
	index, err := search.NewGuestIndex(logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })

	v := validation.New()
	env := &testEnv{
		cols:        cols,
		index:       index,
		resolver:    NewResolver(cols, logger),
		events:      NewEventService(cols, index, v, logger),
		invitations: NewInvitationService(cols, v, logger, "https://rsvp.example.com"),
		guests:      NewGuestService(cols, index, v, logger),
	}
	env.rsvp = NewRSVPService(cols, env.resolver, index, policy, logger)

	clock := func() time.Time { return testNow }
	env.rsvp.now = clock
	env.events.now = clock
	env.invitations.now = clock
	env.guests.now = clock
	return env
}

func (e *testEnv) addEvent(t *testing.T, id, code string) *domain.Event {
	t.Helper()
	event := &domain.Event{
		Record:          domain.Record{ID: id, CreatedAt: testNow, UpdatedAt: testNow},
		Title:           "Casamento Ana & Rui",
		EventType:       domain.EventTypeWedding,
		Date:            "2026-09-12",
		Hosts:           []string{"Ana", "Rui"},
		Theme:           domain.ThemeElegant,
		Language:        "pt-PT",
		AskChildrenInfo: true,
		ShareCode:       code,
	}
	require.NoError(t, e.cols.Events.Insert(context.Background(), id, event))
	return event
}

func (e *testEnv) addInvitation(t *testing.T, inv *domain.Invitation) *domain.Invitation {
	t.Helper()
	if inv.CreatedAt.IsZero() {
		inv.CreatedAt = testNow
		inv.UpdatedAt = testNow
	}
	require.NoError(t, e.cols.Invitations.Insert(context.Background(), inv.ID, inv))
	return inv
}

func intPtr(v int) *int    { return &v }
func boolPtr(v bool) *bool { return &v }

// flakyCollection fails the next readFailures reads with ErrUnavailable and
// the next writeFailures writes with ErrUnavailable.
type flakyCollection[T any] struct {
	store.Collection[T]

	mu            sync.Mutex
	readFailures  int
	writeFailures int
	reads         int
	writes        int
}

func (c *flakyCollection[T]) failRead() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reads++
	if c.readFailures > 0 {
		c.readFailures--
		return store.ErrUnavailable.WithMessage("connection reset")
	}
	return nil
}

func (c *flakyCollection[T]) failWrite() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.writes++
	if c.writeFailures > 0 {
		c.writeFailures--
		return store.ErrUnavailable.WithMessage("connection reset")
	}
	return nil
}

func (c *flakyCollection[T]) Get(ctx context.Context, id string) (*T, error) {
	if err := c.failRead(); err != nil {
		return nil, err
	}
	return c.Collection.Get(ctx, id)
}

func (c *flakyCollection[T]) FindOne(ctx context.Context, field, value string) (*T, error) {
	if err := c.failRead(); err != nil {
		return nil, err
	}
	return c.Collection.FindOne(ctx, field, value)
}

func (c *flakyCollection[T]) Find(ctx context.Context, filter store.Filter) ([]*T, error) {
	if err := c.failRead(); err != nil {
		return nil, err
	}
	return c.Collection.Find(ctx, filter)
}

func (c *flakyCollection[T]) Insert(ctx context.Context, id string, doc *T) error {
	if err := c.failWrite(); err != nil {
		return err
	}
	return c.Collection.Insert(ctx, id, doc)
}

func (c *flakyCollection[T]) Update(ctx context.Context, id string, patch store.Patch) (*T, error) {
	if err := c.failWrite(); err != nil {
		return nil, err
	}
	return c.Collection.Update(ctx, id, patch)
}

func (c *flakyCollection[T]) counts() (reads, writes int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reads, c.writes
}
