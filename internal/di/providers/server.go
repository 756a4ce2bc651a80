package providers

import (
	"context"
	"errors"
	"net/http"

	"github.com/samber/do/v2"

	"github.com/digitalrsvp/rsvp-server/internal/api"
	"github.com/digitalrsvp/rsvp-server/internal/config"
	"github.com/digitalrsvp/rsvp-server/internal/logger"
	"github.com/digitalrsvp/rsvp-server/internal/service"
)

// HTTPServerHandle wraps http.Server with Shutdownable.
type HTTPServerHandle struct {
	*http.Server
	handler *api.Server
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	defer h.handler.Close()
	return h.Server.Shutdown(ctx)
}

// ProvideHTTPServer provides the HTTP server and starts listening.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	index := do.MustInvoke[*SearchIndexHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	services := &api.Services{
		Auth:       do.MustInvoke[*service.AuthService](i),
		RSVP:       do.MustInvoke[*service.RSVPService](i),
		Event:      do.MustInvoke[*service.EventService](i),
		Invitation: do.MustInvoke[*service.InvitationService](i),
		Guest:      do.MustInvoke[*service.GuestService](i),
		Index:      index.GuestIndex,
	}

	handler, err := api.NewServer(storeHandle.Backend, services, api.Options{
		AllowedIPs:    cfg.Access.AllowedIPs,
		CORSOrigins:   cfg.Access.CORSOrigins,
		RSVPRateLimit: cfg.RSVP.RateLimit,
		RSVPRateBurst: cfg.RSVP.RateBurst,
	}, log.Logger)
	if err != nil {
		return nil, err
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start in background
	go func() {
		log.Info("HTTP server starting", "addr", srv.Addr, "public_url", cfg.Server.PublicURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server error", "error", err)
		}
	}()

	return &HTTPServerHandle{Server: srv, handler: handler}, nil
}
