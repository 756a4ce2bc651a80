package providers

import (
	"github.com/samber/do/v2"

	"github.com/digitalrsvp/rsvp-server/internal/auth"
	"github.com/digitalrsvp/rsvp-server/internal/config"
	"github.com/digitalrsvp/rsvp-server/internal/logger"
	"github.com/digitalrsvp/rsvp-server/internal/service"
	"github.com/digitalrsvp/rsvp-server/internal/validation"
)

// ProvideValidator provides the request validator.
func ProvideValidator(i do.Injector) (*validation.Validator, error) {
	return validation.New(), nil
}

// ProvideAuthService provides the host authentication service.
func ProvideAuthService(i do.Injector) (*service.AuthService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	tokenService := do.MustInvoke[*auth.TokenService](i)
	validator := do.MustInvoke[*validation.Validator](i)
	log := do.MustInvoke[*logger.Logger](i)

	if cfg.Auth.HostPasswordHash == "" {
		log.Warn("HOST_PASSWORD_HASH is not set, host login is disabled")
	}

	creds := service.HostCredentials{
		Username:     cfg.Auth.HostUsername,
		PasswordHash: cfg.Auth.HostPasswordHash,
	}
	return service.NewAuthService(creds, tokenService, validator, log.Logger), nil
}

// ProvideResolver provides the share code resolver.
func ProvideResolver(i do.Injector) (*service.Resolver, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)
	return service.NewResolver(storeHandle.Cols, log.Logger), nil
}

// ProvideRSVPService provides the public RSVP service.
func ProvideRSVPService(i do.Injector) (*service.RSVPService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	resolver := do.MustInvoke[*service.Resolver](i)
	index := do.MustInvoke[*SearchIndexHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewRSVPService(storeHandle.Cols, resolver, index.GuestIndex, cfg.RSVP.Resubmission, log.Logger), nil
}

// ProvideEventService provides the event service.
func ProvideEventService(i do.Injector) (*service.EventService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	index := do.MustInvoke[*SearchIndexHandle](i)
	validator := do.MustInvoke[*validation.Validator](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewEventService(storeHandle.Cols, index.GuestIndex, validator, log.Logger), nil
}

// ProvideInvitationService provides the invitation service.
func ProvideInvitationService(i do.Injector) (*service.InvitationService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	validator := do.MustInvoke[*validation.Validator](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewInvitationService(storeHandle.Cols, validator, log.Logger, cfg.Server.PublicURL), nil
}

// ProvideGuestService provides the guest service.
func ProvideGuestService(i do.Injector) (*service.GuestService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	index := do.MustInvoke[*SearchIndexHandle](i)
	validator := do.MustInvoke[*validation.Validator](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewGuestService(storeHandle.Cols, index.GuestIndex, validator, log.Logger), nil
}
