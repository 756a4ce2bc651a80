package store_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/digitalrsvp/rsvp-server/internal/domain"
	"github.com/digitalrsvp/rsvp-server/internal/store"
)

func setupTestStore(t *testing.T) *store.Store {
	t.Helper()

	s, err := store.NewInMemory(nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func newInvitation(id, eventID, code string) *domain.Invitation {
	return &domain.Invitation{
		Record:         domain.Record{ID: id},
		EventID:        eventID,
		InvitationType: domain.InvitationCouple,
		ShareCode:      code,
		PrimaryGuest:   domain.InvitedPerson{Name: "Ana"},
		SecondaryGuest: &domain.InvitedPerson{Name: "Rui"},
	}
}

func TestEntity_Insert_Get(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	inv := newInvitation("inv-1", "evt-1", "ABCDEFGHJK")
	require.NoError(t, s.Invitations.Insert(ctx, inv.ID, inv))

	got, err := s.Invitations.Get(ctx, "inv-1")
	require.NoError(t, err)
	assert.Equal(t, "inv-1", got.ID)
	assert.Equal(t, "Rui", got.SecondaryGuest.Name)

	_, err = s.Invitations.Get(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestEntity_Insert_Conflicts(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Invitations.Insert(ctx, "inv-1", newInvitation("inv-1", "evt-1", "CODE000001")))

	err := s.Invitations.Insert(ctx, "inv-1", newInvitation("inv-1", "evt-1", "CODE000002"))
	assert.ErrorIs(t, err, store.ErrAlreadyExists)

	err = s.Invitations.Insert(ctx, "inv-2", newInvitation("inv-2", "evt-1", "code000001"))
	assert.ErrorIs(t, err, store.ErrAlreadyExists, "share codes are unique regardless of case")
}

func TestEntity_FindOne_ShareCodeIsCaseInsensitive(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Invitations.Insert(ctx, "inv-1", newInvitation("inv-1", "evt-1", "ABCDEFGHJK")))

	got, err := s.Invitations.FindOne(ctx, store.FieldShareCode, "abcdefghjk")
	require.NoError(t, err)
	assert.Equal(t, "inv-1", got.ID)

	_, err = s.Invitations.FindOne(ctx, store.FieldShareCode, "ZZZZZZZZZZ")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestEntity_Find(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Invitations.Insert(ctx, "inv-1", newInvitation("inv-1", "evt-1", "CODE000001")))
	require.NoError(t, s.Invitations.Insert(ctx, "inv-2", newInvitation("inv-2", "evt-1", "CODE000002")))
	require.NoError(t, s.Invitations.Insert(ctx, "inv-3", newInvitation("inv-3", "evt-2", "CODE000003")))

	t.Run("by indexed field", func(t *testing.T) {
		found, err := s.Invitations.Find(ctx, store.Filter{store.FieldEventID: "evt-1"})
		require.NoError(t, err)
		assert.Len(t, found, 2)
	})

	t.Run("by unindexed field", func(t *testing.T) {
		found, err := s.Invitations.Find(ctx, store.Filter{"invitation_type": "couple"})
		require.NoError(t, err)
		assert.Len(t, found, 3)
	})

	t.Run("combined", func(t *testing.T) {
		found, err := s.Invitations.Find(ctx, store.Filter{store.FieldEventID: "evt-2", store.FieldRSVPSubmitted: "false"})
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, "inv-3", found[0].ID)
	})

	t.Run("all", func(t *testing.T) {
		found, err := s.Invitations.Find(ctx, nil)
		require.NoError(t, err)
		assert.Len(t, found, 3)
	})

	t.Run("invalid field", func(t *testing.T) {
		_, err := s.Invitations.Find(ctx, store.Filter{"bad field": "x"})
		assert.ErrorIs(t, err, store.ErrInvalidField)
	})
}

func TestEntity_Update(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	inv := newInvitation("inv-1", "evt-1", "CODE000001")
	inv.InitTimestamps()
	require.NoError(t, s.Invitations.Insert(ctx, inv.ID, inv))

	at := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)
	got, err := s.Invitations.Update(ctx, "inv-1", store.Patch{
		store.FieldRSVPSubmitted: true,
		store.FieldRSVPDate:      at,
		store.FieldID:            "hijack",
	})
	require.NoError(t, err)

	assert.Equal(t, "inv-1", got.ID)
	assert.True(t, got.RSVPSubmitted)
	require.NotNil(t, got.RSVPDate)
	assert.True(t, at.Equal(*got.RSVPDate))
	assert.True(t, got.CreatedAt.Equal(inv.CreatedAt))
	assert.False(t, got.UpdatedAt.Before(inv.UpdatedAt))

	stored, err := s.Invitations.Get(ctx, "inv-1")
	require.NoError(t, err)
	assert.True(t, stored.RSVPSubmitted)

	_, err = s.Invitations.Update(ctx, "missing", store.Patch{store.FieldRSVPSubmitted: true})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestEntity_Update_ConcurrentWritersAllSucceed(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Invitations.Insert(ctx, "inv-1", newInvitation("inv-1", "evt-1", "CODE000001")))

	const writers = 8
	var wg sync.WaitGroup
	errs := make([]error, writers)
	for i := range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = s.Invitations.Update(ctx, "inv-1", store.Patch{
				"primary_guest": map[string]any{"name": fmt.Sprintf("writer %d", i)},
			})
		}()
	}
	wg.Wait()

	for i, err := range errs {
		assert.NoError(t, err, "writer %d", i)
	}

	got, err := s.Invitations.Get(ctx, "inv-1")
	require.NoError(t, err)
	assert.Contains(t, got.PrimaryGuest.Name, "writer ")
}

func TestEntity_Update_MovesIndexes(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Invitations.Insert(ctx, "inv-1", newInvitation("inv-1", "evt-1", "CODE000001")))
	require.NoError(t, s.Invitations.Insert(ctx, "inv-2", newInvitation("inv-2", "evt-1", "CODE000002")))

	_, err := s.Invitations.Update(ctx, "inv-1", store.Patch{store.FieldShareCode: "CODE000009", store.FieldEventID: "evt-9"})
	require.NoError(t, err)

	_, err = s.Invitations.FindOne(ctx, store.FieldShareCode, "CODE000001")
	assert.ErrorIs(t, err, store.ErrNotFound)

	got, err := s.Invitations.FindOne(ctx, store.FieldShareCode, "CODE000009")
	require.NoError(t, err)
	assert.Equal(t, "inv-1", got.ID)

	found, err := s.Invitations.Find(ctx, store.Filter{store.FieldEventID: "evt-1"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "inv-2", found[0].ID)

	_, err = s.Invitations.Update(ctx, "inv-2", store.Patch{store.FieldShareCode: "CODE000009"})
	assert.ErrorIs(t, err, store.ErrAlreadyExists)
}

func TestEntity_Delete(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Invitations.Insert(ctx, "inv-1", newInvitation("inv-1", "evt-1", "CODE000001")))
	require.NoError(t, s.Invitations.Delete(ctx, "inv-1"))

	_, err := s.Invitations.Get(ctx, "inv-1")
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.Invitations.FindOne(ctx, store.FieldShareCode, "CODE000001")
	assert.ErrorIs(t, err, store.ErrNotFound)

	// idempotent
	require.NoError(t, s.Invitations.Delete(ctx, "inv-1"))

	// code is free again
	require.NoError(t, s.Invitations.Insert(ctx, "inv-2", newInvitation("inv-2", "evt-1", "CODE000001")))
}

func TestEntity_List(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	for _, id := range []string{"g-1", "g-2", "g-3"} {
		require.NoError(t, s.Guests.Insert(ctx, id, &domain.Guest{Record: domain.Record{ID: id}, EventID: "evt-1", Name: id}))
	}

	var ids []string
	for g, err := range s.Guests.List(ctx) {
		require.NoError(t, err)
		ids = append(ids, g.ID)
	}
	assert.ElementsMatch(t, []string{"g-1", "g-2", "g-3"}, ids)

	count := 0
	for range s.Guests.List(ctx) {
		count++
		break
	}
	assert.Equal(t, 1, count)
}

func TestStore_ClosedIsUnavailable(t *testing.T) {
	s, err := store.NewInMemory(nil)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	ctx := context.Background()
	assert.ErrorIs(t, s.Ping(ctx), store.ErrUnavailable)

	_, err = s.Events.Get(ctx, "evt-1")
	assert.ErrorIs(t, err, store.ErrUnavailable)
	assert.True(t, store.IsTransient(err))
}
