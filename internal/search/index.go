package search

import (
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/blevesearch/bleve/v2"

	"github.com/digitalrsvp/rsvp-server/internal/domain"
)

// GuestIndex wraps an in-memory Bleve index of guests.
//
// All public methods are safe for concurrent use. The mutex guards the index
// pointer, which Rebuild swaps.
type GuestIndex struct {
	index  bleve.Index
	logger *slog.Logger
	mu     sync.RWMutex
}

// NewGuestIndex creates an empty in-memory index.
// The store is the source of truth, so nothing is persisted; callers
// rebuild the index from the store at start-up.
func NewGuestIndex(logger *slog.Logger) (*GuestIndex, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
	}

	index, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("create index: %w", err)
	}

	return &GuestIndex{index: index, logger: logger}, nil
}

// Close closes the index and releases resources.
func (s *GuestIndex) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index.Close()
}

// IndexGuest adds or replaces a guest.
func (s *GuestIndex) IndexGuest(g *domain.Guest) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.Index(g.ID, NewGuestDocument(g).ToMap())
}

// IndexGuests indexes guests in batches.
func (s *GuestIndex) IndexGuests(guests []*domain.Guest) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return indexBatch(s.index, guests)
}

func indexBatch(index bleve.Index, guests []*domain.Guest) error {
	const batchSize = 500

	for i := 0; i < len(guests); i += batchSize {
		end := min(i+batchSize, len(guests))

		batch := index.NewBatch()
		for _, g := range guests[i:end] {
			if err := batch.Index(g.ID, NewGuestDocument(g).ToMap()); err != nil {
				return fmt.Errorf("batch index %s: %w", g.ID, err)
			}
		}

		if err := index.Batch(batch); err != nil {
			return fmt.Errorf("commit batch %d-%d: %w", i, end, err)
		}
	}

	return nil
}

// DeleteGuest removes a guest. Unknown ids are ignored.
func (s *GuestIndex) DeleteGuest(id string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.Delete(id)
}

// DeleteGuests removes several guests in one batch.
func (s *GuestIndex) DeleteGuests(ids []string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	batch := s.index.NewBatch()
	for _, id := range ids {
		batch.Delete(id)
	}

	return s.index.Batch(batch)
}

// DocumentCount returns the total number of indexed guests.
func (s *GuestIndex) DocumentCount() (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.DocCount()
}

// Rebuild replaces the index contents with guests.
//
// The new index is built before the swap, so searches keep answering from
// the old one until it is ready.
func (s *GuestIndex) Rebuild(guests []*domain.Guest) error {
	fresh, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	if err := indexBatch(fresh, guests); err != nil {
		_ = fresh.Close()
		return err
	}

	s.mu.Lock()
	old := s.index
	s.index = fresh
	s.mu.Unlock()

	if err := old.Close(); err != nil {
		s.logger.Warn("failed to close previous search index", "error", err)
	}
	s.logger.Info("rebuilt guest search index", "guests", len(guests))
	return nil
}
