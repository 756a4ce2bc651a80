package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/jpillora/backoff"

	"github.com/digitalrsvp/rsvp-server/internal/domain"
)

// BackendBadger is the name of the embedded Badger backend.
const BackendBadger = "badger"

// txnAttempts bounds how often a write transaction is re-run after losing
// a conflict to a concurrent writer.
const txnAttempts = 16

// Store wraps a Badger database instance.
type Store struct {
	db     *badger.DB
	logger *slog.Logger

	Events      *Entity[domain.Event]
	Invitations *Entity[domain.Invitation]
	Guests      *Entity[domain.Guest]
}

// New opens (or creates) the Badger database at path.
func New(path string, logger *slog.Logger) (*Store, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil            // Disable Badger's internal logging
	opts.SyncWrites = true       // Ensure writes are synced to disk to prevent corruption on crashes
	opts.CompactL0OnClose = true // Compact L0 tables on close for faster startup

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}

	s := newStore(db, logger)
	if logger != nil {
		logger.Info("Badger database opened successfully", "path", path)
	}
	return s, nil
}

// NewInMemory opens a Badger database that lives only in memory. Used by tests.
func NewInMemory(logger *slog.Logger) (*Store, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory badger db: %w", err)
	}
	return newStore(db, logger), nil
}

func newStore(db *badger.DB, logger *slog.Logger) *Store {
	s := &Store{db: db, logger: logger}

	s.Events = NewEntity[domain.Event](s, "event:").
		WithUniqueIndex(FieldShareCode, func(e *domain.Event) []string {
			return []string{normalizeCode(e.ShareCode)}
		}, normalizeCode)

	s.Invitations = NewEntity[domain.Invitation](s, "invitation:").
		WithUniqueIndex(FieldShareCode, func(i *domain.Invitation) []string {
			return []string{normalizeCode(i.ShareCode)}
		}, normalizeCode).
		WithIndex(FieldEventID, func(i *domain.Invitation) []string {
			return []string{i.EventID}
		})

	s.Guests = NewEntity[domain.Guest](s, "guest:").
		WithIndex(FieldEventID, func(g *domain.Guest) []string {
			return []string{g.EventID}
		}).
		WithIndex(FieldInvitationID, func(g *domain.Guest) []string {
			return []string{g.InvitationID}
		})

	return s
}

// update runs fn in a read-write transaction. When Badger aborts it with
// ErrConflict nothing was committed, so fn is re-run against a fresh
// snapshot; the last writer wins.
func (s *Store) update(ctx context.Context, fn func(txn *badger.Txn) error) error {
	pause := backoff.Backoff{
		Min:    time.Millisecond,
		Max:    50 * time.Millisecond,
		Factor: 2,
		Jitter: true,
	}

	for attempt := 1; ; attempt++ {
		err := s.db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
		if attempt == txnAttempts {
			return ErrUnavailable.WithMessage("write kept conflicting with concurrent writers").WithCause(err)
		}

		timer := time.NewTimer(pause.Duration())
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// normalizeCode makes share code lookups case-insensitive.
func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Name implements Backend.
func (s *Store) Name() string { return BackendBadger }

// Collections implements Backend.
func (s *Store) Collections() *Collections {
	return &Collections{
		Events:      s.Events,
		Invitations: s.Invitations,
		Guests:      s.Guests,
	}
}

// Ping implements Backend.
func (s *Store) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.db.IsClosed() {
		return ErrUnavailable.WithMessage("badger database is closed")
	}
	return nil
}

// Close gracefully closes the database connection.
func (s *Store) Close() error {
	if s.logger != nil {
		s.logger.Info("Closing database connection")
	}
	return s.db.Close()
}
