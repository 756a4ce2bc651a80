// Package di provides dependency injection configuration for the RSVP server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/digitalrsvp/rsvp-server/internal/auth"
	"github.com/digitalrsvp/rsvp-server/internal/config"
	"github.com/digitalrsvp/rsvp-server/internal/di/providers"
	"github.com/digitalrsvp/rsvp-server/internal/logger"
	"github.com/digitalrsvp/rsvp-server/internal/service"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideAuthKey)
	do.Provide(injector, providers.ProvideValidator)

	// Database layer
	do.Provide(injector, providers.ProvideStore)

	// Search layer
	do.Provide(injector, providers.ProvideSearchIndex)

	// Auth layer
	do.Provide(injector, providers.ProvideTokenService)

	// Business services
	do.Provide(injector, providers.ProvideAuthService)
	do.Provide(injector, providers.ProvideResolver)
	do.Provide(injector, providers.ProvideRSVPService)
	do.Provide(injector, providers.ProvideEventService)
	do.Provide(injector, providers.ProvideInvitationService)
	do.Provide(injector, providers.ProvideGuestService)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes all services and returns handles for lifecycle management.
// This triggers lazy initialization of all core services.
func Bootstrap(injector *do.RootScope) error {
	_ = do.MustInvoke[*config.Config](injector)
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[providers.AuthKey](injector)
	_ = do.MustInvoke[*providers.StoreHandle](injector)
	_ = do.MustInvoke[*providers.SearchIndexHandle](injector)
	_ = do.MustInvoke[*auth.TokenService](injector)

	// Business services
	_ = do.MustInvoke[*service.AuthService](injector)
	_ = do.MustInvoke[*service.RSVPService](injector)
	_ = do.MustInvoke[*service.EventService](injector)
	_ = do.MustInvoke[*service.InvitationService](injector)
	_ = do.MustInvoke[*service.GuestService](injector)

	// The index must be filled before the first search request.
	providers.RebuildSearchIndex(injector)

	// Server
	_ = do.MustInvoke[*providers.HTTPServerHandle](injector)

	return nil
}
