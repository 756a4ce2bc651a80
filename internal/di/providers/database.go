package providers

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/samber/do/v2"

	"github.com/digitalrsvp/rsvp-server/internal/config"
	"github.com/digitalrsvp/rsvp-server/internal/logger"
	"github.com/digitalrsvp/rsvp-server/internal/store"
	"github.com/digitalrsvp/rsvp-server/internal/store/cache"
	"github.com/digitalrsvp/rsvp-server/internal/store/mongodb"
	"github.com/digitalrsvp/rsvp-server/internal/store/sqlite"
)

// StoreHandle wraps the configured backend with shutdown capability.
// Cols is what services use: the backend's collections, cached when enabled.
type StoreHandle struct {
	store.Backend
	Cols *store.Collections
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore opens the configured store backend.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	backend, err := openBackend(cfg, log.Logger)
	if err != nil {
		return nil, err
	}

	cols := backend.Collections()
	if cfg.Store.Cache {
		cols = cache.Wrap(cols)
	}

	log.Info("Database initialized",
		"backend", backend.Name(),
		"cache", cfg.Store.Cache,
	)

	return &StoreHandle{Backend: backend, Cols: cols}, nil
}

func openBackend(cfg *config.Config, log *slog.Logger) (store.Backend, error) {
	switch cfg.Store.Backend {
	case config.BackendSQLite:
		if err := os.MkdirAll(cfg.Data.BasePath, 0o750); err != nil {
			return nil, fmt.Errorf("create data directory: %w", err)
		}
		return sqlite.Open(filepath.Join(cfg.Data.BasePath, "rsvp.db"), log)

	case config.BackendMongoDB:
		ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		defer cancel()
		return mongodb.Open(ctx, cfg.Store.MongoURI, cfg.Store.MongoDatabase, log)

	default:
		return store.New(filepath.Join(cfg.Data.BasePath, "db"), log)
	}
}

// ProvideSlogLogger provides access to the underlying slog.Logger for packages that need it.
func ProvideSlogLogger(i do.Injector) (*slog.Logger, error) {
	log := do.MustInvoke[*logger.Logger](i)
	return log.Logger, nil
}
