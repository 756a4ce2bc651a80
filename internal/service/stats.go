package service

import (
	"context"

	"github.com/digitalrsvp/rsvp-server/internal/domain"
)

// Stats aggregates the guests of an event. Nothing is cached: every call
// reads the current guest set.
func (s *GuestService) Stats(ctx context.Context, eventID string) (*domain.GuestStats, error) {
	if _, err := readWithRetry(ctx, s.logger, "get stats event", func(ctx context.Context) (*domain.Event, error) {
		return s.cols.Events.Get(ctx, eventID)
	}); err != nil {
		return nil, storeError(err, "event")
	}

	guests, err := s.eventGuests(ctx, eventID)
	if err != nil {
		return nil, err
	}

	stats := domain.AggregateStats(guests)
	return &stats, nil
}
