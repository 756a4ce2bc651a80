package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/digitalrsvp/rsvp-server/internal/logger"
	"github.com/digitalrsvp/rsvp-server/internal/search"
	"github.com/digitalrsvp/rsvp-server/internal/service"
)

// SearchIndexHandle wraps the guest index with shutdown capability.
type SearchIndexHandle struct {
	*search.GuestIndex
}

// Shutdown implements do.Shutdownable.
func (h *SearchIndexHandle) Shutdown() error {
	return h.Close()
}

// ProvideSearchIndex provides the in-memory guest search index.
func ProvideSearchIndex(i do.Injector) (*SearchIndexHandle, error) {
	log := do.MustInvoke[*logger.Logger](i)

	index, err := search.NewGuestIndex(log.Logger)
	if err != nil {
		return nil, err
	}

	return &SearchIndexHandle{GuestIndex: index}, nil
}

// RebuildSearchIndex fills the index from the store. The index lives in
// memory only, so this runs on every start.
func RebuildSearchIndex(i do.Injector) {
	guests := do.MustInvoke[*service.GuestService](i)
	index := do.MustInvoke[*SearchIndexHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	if err := guests.RebuildIndex(context.Background()); err != nil {
		// Search degrades, RSVP keeps working.
		log.WithError(err).Error("Guest index rebuild failed")
		return
	}

	count, _ := index.DocumentCount()
	log.Info("Guest index rebuilt", "documents", count)
}
