package sqlite

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/digitalrsvp/rsvp-server/internal/domain"
	"github.com/digitalrsvp/rsvp-server/internal/store"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	s, err := Open(dbPath, logger)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpen(t *testing.T) {
	s := newTestStore(t)

	var journalMode string
	if err := s.db.QueryRow("PRAGMA journal_mode").Scan(&journalMode); err != nil {
		t.Fatalf("query journal_mode: %v", err)
	}
	if journalMode != "wal" {
		t.Errorf("expected wal, got %s", journalMode)
	}

	for _, table := range []string{"events", "invitations", "guests"} {
		var name string
		err := s.db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Errorf("table %s not found: %v", table, err)
		}
	}
}

func TestOpenClose(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	s, err := Open(dbPath, logger)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close store: %v", err)
	}

	// Re-open should work (schema is idempotent).
	s2, err := Open(dbPath, logger)
	if err != nil {
		t.Fatalf("re-open store: %v", err)
	}
	defer s2.Close()
}

func makeInvitation(id, eventID, code string) *domain.Invitation {
	inv := &domain.Invitation{
		Record:         domain.Record{ID: id},
		EventID:        eventID,
		InvitationType: domain.InvitationSingle,
		ShareCode:      code,
		PrimaryGuest:   domain.InvitedPerson{Name: "Ana"},
	}
	inv.InitTimestamps()
	return inv
}

func TestTable_InsertGetFind(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, inv := range []*domain.Invitation{
		makeInvitation("inv-1", "evt-1", "CODE000001"),
		makeInvitation("inv-2", "evt-1", "CODE000002"),
		makeInvitation("inv-3", "evt-2", "CODE000003"),
	} {
		if err := s.Invitations.Insert(ctx, inv.ID, inv); err != nil {
			t.Fatalf("insert %s: %v", inv.ID, err)
		}
	}

	got, err := s.Invitations.Get(ctx, "inv-2")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ShareCode != "CODE000002" {
		t.Errorf("share code = %q", got.ShareCode)
	}

	if _, err := s.Invitations.Get(ctx, "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	byCode, err := s.Invitations.FindOne(ctx, store.FieldShareCode, "code000003")
	if err != nil {
		t.Fatalf("find by code: %v", err)
	}
	if byCode.ID != "inv-3" {
		t.Errorf("expected inv-3, got %s", byCode.ID)
	}

	byEvent, err := s.Invitations.Find(ctx, store.Filter{store.FieldEventID: "evt-1"})
	if err != nil {
		t.Fatalf("find by event: %v", err)
	}
	if len(byEvent) != 2 {
		t.Errorf("expected 2 invitations, got %d", len(byEvent))
	}

	pending, err := s.Invitations.Find(ctx, store.Filter{store.FieldRSVPSubmitted: "false", "invitation_type": "single"})
	if err != nil {
		t.Fatalf("find by document fields: %v", err)
	}
	if len(pending) != 3 {
		t.Errorf("expected 3 pending invitations, got %d", len(pending))
	}

	if _, err := s.Invitations.Find(ctx, store.Filter{"doc; DROP TABLE guests": "x"}); !errors.Is(err, store.ErrInvalidField) {
		t.Errorf("expected ErrInvalidField, got %v", err)
	}
}

func TestTable_DuplicateShareCode(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.Invitations.Insert(ctx, "inv-1", makeInvitation("inv-1", "evt-1", "CODE000001")); err != nil {
		t.Fatalf("insert: %v", err)
	}
	err := s.Invitations.Insert(ctx, "inv-2", makeInvitation("inv-2", "evt-1", "code000001"))
	if !errors.Is(err, store.ErrAlreadyExists) {
		t.Errorf("expected ErrAlreadyExists, got %v", err)
	}
	err = s.Invitations.Insert(ctx, "inv-1", makeInvitation("inv-1", "evt-1", "CODE000009"))
	if !errors.Is(err, store.ErrAlreadyExists) {
		t.Errorf("expected ErrAlreadyExists for duplicate id, got %v", err)
	}
}

func TestTable_Update(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.Invitations.Insert(ctx, "inv-1", makeInvitation("inv-1", "evt-1", "CODE000001")); err != nil {
		t.Fatalf("insert: %v", err)
	}

	at := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)
	got, err := s.Invitations.Update(ctx, "inv-1", store.Patch{
		store.FieldRSVPSubmitted: true,
		store.FieldRSVPDate:      at,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !got.RSVPSubmitted || got.RSVPDate == nil || !got.RSVPDate.Equal(at) {
		t.Errorf("patch not applied: %+v", got)
	}

	submitted, err := s.Invitations.Find(ctx, store.Filter{store.FieldRSVPSubmitted: "true"})
	if err != nil {
		t.Fatalf("find submitted: %v", err)
	}
	if len(submitted) != 1 {
		t.Errorf("expected 1 submitted invitation, got %d", len(submitted))
	}

	if _, err := s.Invitations.Update(ctx, "missing", store.Patch{store.FieldRSVPSubmitted: true}); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestTable_Delete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	g := &domain.Guest{Record: domain.Record{ID: "g-1"}, EventID: "evt-1", InvitationID: "inv-1", Name: "Ana"}
	if err := s.Guests.Insert(ctx, g.ID, g); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := s.Guests.Delete(ctx, g.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.Guests.Delete(ctx, g.ID); err != nil {
		t.Fatalf("second delete should be a no-op: %v", err)
	}
	if _, err := s.Guests.Get(ctx, g.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestClosedStoreIsUnavailable(t *testing.T) {
	s := newTestStore(t)
	s.Close()

	_, err := s.Events.Get(context.Background(), "evt-1")
	if !errors.Is(err, store.ErrUnavailable) {
		t.Errorf("expected ErrUnavailable, got %v", err)
	}
}
