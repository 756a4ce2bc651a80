package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/digitalrsvp/rsvp-server/internal/domain"
	domainerrors "github.com/digitalrsvp/rsvp-server/internal/errors"
	"github.com/digitalrsvp/rsvp-server/internal/search"
	"github.com/digitalrsvp/rsvp-server/internal/store"
)

func addSingleInvitation(t *testing.T, env *testEnv) *domain.Invitation {
	t.Helper()
	env.addEvent(t, "E2", "EVENT0002")
	return env.addInvitation(t, &domain.Invitation{
		Record:         domain.Record{ID: "I1"},
		EventID:        "E2",
		InvitationType: domain.InvitationSingle,
		ShareCode:      "QWERTY1234",
		PrimaryGuest:   domain.InvitedPerson{Name: "Miguel Costa", Email: "miguel@example.com"},
		AllowPlusOne:   true,
	})
}

func TestRSVPService_InvitationSubmit(t *testing.T) {
	env := setupTestEnv(t, domain.ResubmissionOverwrite)
	addSingleInvitation(t, env)
	ctx := context.Background()

	result, err := env.rsvp.Submit(ctx, "qwerty1234", domain.RawRSVPInput{
		Attending:       domain.AttendingYes,
		BringingPlusOne: true,
		PlusOneName:     "Ana",
	})
	require.NoError(t, err)
	assert.False(t, result.Resubmitted)

	g := result.Guest
	assert.NotEmpty(t, g.ID)
	assert.Equal(t, "Miguel Costa", g.Name)
	assert.Equal(t, domain.RSVPConfirmed, g.RSVPStatus)
	assert.True(t, g.PlusOne)
	assert.Equal(t, "Ana", g.PlusOneName)
	assert.Equal(t, "I1", g.InvitationID)
	assert.Equal(t, "E2", g.EventID)

	inv, err := env.cols.Invitations.Get(ctx, "I1")
	require.NoError(t, err)
	assert.True(t, inv.RSVPSubmitted)
	require.NotNil(t, inv.RSVPDate)
	assert.True(t, testNow.Equal(*inv.RSVPDate))

	stored, err := env.cols.Guests.FindOne(ctx, store.FieldInvitationID, "I1")
	require.NoError(t, err)
	assert.Equal(t, g.ID, stored.ID)

	hits, _, err := env.index.Search(ctx, search.Params{EventID: "E2", Query: "ana"})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, g.ID, hits[0].ID)
}

func TestRSVPService_LegacySubmit(t *testing.T) {
	env := setupTestEnv(t, domain.ResubmissionReject)
	env.addEvent(t, "E1", "ABC12345")
	ctx := context.Background()

	for range 2 {
		result, err := env.rsvp.Submit(ctx, "ABC12345", domain.RawRSVPInput{
			Name:      "Carla",
			Attending: domain.AttendingMaybe,
		})
		require.NoError(t, err)
		assert.Equal(t, domain.RSVPMaybe, result.Guest.RSVPStatus)
		assert.Empty(t, result.Guest.InvitationID)
	}

	guests, err := env.cols.Guests.Find(ctx, store.Filter{store.FieldEventID: "E1"})
	require.NoError(t, err)
	assert.Len(t, guests, 2)
}

func TestRSVPService_FamilyAges(t *testing.T) {
	env := setupTestEnv(t, domain.ResubmissionOverwrite)
	env.addEvent(t, "E1", "ABC12345")
	inv := familyInvitation()
	inv.AllowPlusOne = false
	env.addInvitation(t, inv)
	ctx := context.Background()

	_, err := env.rsvp.Submit(ctx, "FAMILY0001", domain.RawRSVPInput{Attending: domain.AttendingYes})
	requireField(t, err, "children_ages[1]")

	stored, err := env.cols.Invitations.Get(ctx, "I1")
	require.NoError(t, err)
	assert.False(t, stored.RSVPSubmitted)

	result, err := env.rsvp.Submit(ctx, "FAMILY0001", domain.RawRSVPInput{
		Attending:    domain.AttendingYes,
		ChildrenAges: []domain.SuppliedAge{{Index: 1, Age: 7}},
	})
	require.NoError(t, err)
	assert.JSONEq(t, `[{"index":1,"name":"Tomás","age":7}]`, result.Guest.CustomAnswers[domain.AnswerChildrenAges])
}

func TestRSVPService_ResubmitOverwrite(t *testing.T) {
	env := setupTestEnv(t, domain.ResubmissionOverwrite)
	addSingleInvitation(t, env)
	ctx := context.Background()

	first, err := env.rsvp.Submit(ctx, "QWERTY1234", domain.RawRSVPInput{
		Attending:       domain.AttendingYes,
		BringingPlusOne: true,
		PlusOneName:     "Ana",
		SongRequest:     "Dancing Queen",
	})
	require.NoError(t, err)

	// The host seats the guest between the two answers.
	_, err = env.cols.Guests.Update(ctx, first.Guest.ID, store.Patch{"table_number": 4, "group": "Família"})
	require.NoError(t, err)

	second, err := env.rsvp.Submit(ctx, "QWERTY1234", domain.RawRSVPInput{Attending: domain.AttendingNo})
	require.NoError(t, err)
	assert.True(t, second.Resubmitted)

	g := second.Guest
	assert.Equal(t, first.Guest.ID, g.ID)
	assert.Equal(t, domain.RSVPDeclined, g.RSVPStatus)
	assert.False(t, g.PlusOne)
	assert.Empty(t, g.PlusOneName)
	assert.Empty(t, g.SongRequest)
	assert.Equal(t, 4, g.TableNumber)
	assert.Equal(t, "Família", g.Group)

	guests, err := env.cols.Guests.Find(ctx, store.Filter{store.FieldInvitationID: "I1"})
	require.NoError(t, err)
	assert.Len(t, guests, 1)
}

func TestRSVPService_ConcurrentSubmitsAllSucceed(t *testing.T) {
	env := setupTestEnv(t, domain.ResubmissionOverwrite)
	addSingleInvitation(t, env)
	ctx := context.Background()

	// Seed a guest so every submission overwrites the same record.
	_, err := env.rsvp.Submit(ctx, "QWERTY1234", domain.RawRSVPInput{Attending: domain.AttendingMaybe})
	require.NoError(t, err)

	const submitters = 8
	var wg sync.WaitGroup
	errs := make([]error, submitters)
	for i := range submitters {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = env.rsvp.Submit(ctx, "QWERTY1234", domain.RawRSVPInput{Attending: domain.AttendingYes})
		}()
	}
	wg.Wait()

	for i, err := range errs {
		assert.NoError(t, err, "submission %d", i)
	}

	inv, err := env.cols.Invitations.Get(ctx, "I1")
	require.NoError(t, err)
	assert.True(t, inv.RSVPSubmitted)

	guests, err := env.cols.Guests.Find(ctx, store.Filter{store.FieldInvitationID: "I1"})
	require.NoError(t, err)
	require.Len(t, guests, 1)
	assert.Equal(t, domain.RSVPConfirmed, guests[0].RSVPStatus)
}

func TestRSVPService_ResubmitKeepsReminderState(t *testing.T) {
	env := setupTestEnv(t, domain.ResubmissionOverwrite)
	addSingleInvitation(t, env)
	ctx := context.Background()

	first, err := env.rsvp.Submit(ctx, "QWERTY1234", domain.RawRSVPInput{Attending: domain.AttendingMaybe})
	require.NoError(t, err)

	reminded := time.Date(2026, 5, 20, 9, 0, 0, 0, time.UTC)
	_, err = env.cols.Guests.Update(ctx, first.Guest.ID, store.Patch{
		"reminder_sent":      true,
		"reminder_sent_date": reminded,
	})
	require.NoError(t, err)

	second, err := env.rsvp.Submit(ctx, "QWERTY1234", domain.RawRSVPInput{Attending: domain.AttendingYes})
	require.NoError(t, err)

	g := second.Guest
	assert.Equal(t, domain.RSVPConfirmed, g.RSVPStatus)
	assert.True(t, g.ReminderSent)
	require.NotNil(t, g.ReminderSentDate)
	assert.True(t, reminded.Equal(*g.ReminderSentDate))
	require.NotNil(t, g.InvitationSentDate)
	assert.True(t, first.Guest.InvitationSentDate.Equal(*g.InvitationSentDate))
}

func TestRSVPService_ResubmitReject(t *testing.T) {
	env := setupTestEnv(t, domain.ResubmissionReject)
	addSingleInvitation(t, env)
	ctx := context.Background()

	_, err := env.rsvp.Submit(ctx, "QWERTY1234", domain.RawRSVPInput{Attending: domain.AttendingYes})
	require.NoError(t, err)

	_, err = env.rsvp.Submit(ctx, "QWERTY1234", domain.RawRSVPInput{Attending: domain.AttendingNo})
	require.Error(t, err)
	assert.ErrorIs(t, err, domainerrors.ErrAlreadySubmitted)

	guests, err := env.cols.Guests.Find(ctx, store.Filter{store.FieldInvitationID: "I1"})
	require.NoError(t, err)
	require.Len(t, guests, 1)
	assert.Equal(t, domain.RSVPConfirmed, guests[0].RSVPStatus)

	lookup, err := env.rsvp.Lookup(ctx, "QWERTY1234")
	require.NoError(t, err)
	assert.True(t, lookup.AlreadySubmitted)
	assert.False(t, lookup.CanSubmit)
}

func TestRSVPService_Lookup(t *testing.T) {
	env := setupTestEnv(t, domain.ResubmissionOverwrite)
	addSingleInvitation(t, env)
	ctx := context.Background()

	lookup, err := env.rsvp.Lookup(ctx, "QWERTY1234")
	require.NoError(t, err)
	assert.Equal(t, domain.ResolvedInvitation, lookup.Kind)
	assert.True(t, lookup.Available)
	assert.True(t, lookup.CanSubmit)
	assert.False(t, lookup.AlreadySubmitted)
	assert.Equal(t, domain.Shape{ShowPlusOne: true}, lookup.Shape)
	assert.Equal(t, domain.DietaryChoices, lookup.DietaryChoices)

	lookup, err = env.rsvp.Lookup(ctx, "EVENT0002")
	require.NoError(t, err)
	assert.Equal(t, domain.ResolvedEvent, lookup.Kind)
	assert.Nil(t, lookup.Invitation)

	_, err = env.rsvp.Lookup(ctx, "UNKNOWN00")
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestRSVPService_SubmitErrors(t *testing.T) {
	env := setupTestEnv(t, domain.ResubmissionOverwrite)
	env.addInvitation(t, &domain.Invitation{
		Record:         domain.Record{ID: "I9"},
		EventID:        "deleted",
		InvitationType: domain.InvitationSingle,
		ShareCode:      "ORPHAN0001",
		PrimaryGuest:   domain.InvitedPerson{Name: "Marta"},
	})
	ctx := context.Background()

	_, err := env.rsvp.Submit(ctx, "NOPE0000", domain.RawRSVPInput{Attending: domain.AttendingYes})
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)

	_, err = env.rsvp.Submit(ctx, "ORPHAN0001", domain.RawRSVPInput{Attending: domain.AttendingYes})
	assert.ErrorIs(t, err, domainerrors.ErrIntegrity)

	guests, err := env.cols.Guests.Find(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, guests)
}

func TestRSVPService_WriteNotRetried(t *testing.T) {
	s, err := store.NewInMemory(nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	base := s.Collections()
	guests := &flakyCollection[domain.Guest]{Collection: base.Guests, readFailures: 1, writeFailures: 1}
	cols := &store.Collections{Events: base.Events, Invitations: base.Invitations, Guests: guests}
	env := newTestEnv(t, cols, domain.ResubmissionOverwrite)
	addSingleInvitation(t, env)
	ctx := context.Background()

	_, err = env.rsvp.Submit(ctx, "QWERTY1234", domain.RawRSVPInput{Attending: domain.AttendingYes})
	require.Error(t, err)
	assert.ErrorIs(t, err, domainerrors.ErrUnavailable)

	reads, writes := guests.counts()
	assert.Equal(t, 2, reads, "the previous-guest lookup is retried once")
	assert.Equal(t, 1, writes, "the insert is attempted once")

	inv, err := env.cols.Invitations.Get(ctx, "I1")
	require.NoError(t, err)
	assert.False(t, inv.RSVPSubmitted)

	_, err = env.rsvp.Submit(ctx, "QWERTY1234", domain.RawRSVPInput{Attending: domain.AttendingYes})
	require.NoError(t, err)
}
