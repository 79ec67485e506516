package services

import (
	portsrepo "github.com/SscSPs/auth_session_service/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/auth_session_service/internal/core/ports/services"
	"github.com/SscSPs/auth_session_service/internal/platform/config"
)

// NewServiceContainer creates a new service container with properly initialized dependencies
func NewServiceContainer(
	cfg *config.Config,
	repos portsrepo.RepositoryProvider,
	hasher portssvc.PasswordHasher,
	notifier portssvc.Notifier,
	authOptions ...AuthServiceOption,
) *portssvc.ServiceContainer {
	container := &portssvc.ServiceContainer{}

	container.Token = NewTokenService(cfg)
	container.Verification = NewVerificationService(cfg, notifier)
	container.User = NewUserService(repos.UserRepo, repos.SessionRepo, hasher)
	container.Auth = NewAuthService(
		repos,
		hasher,
		container.Token,
		container.Verification,
		cfg.RefreshTokenTTL,
		authOptions...,
	)

	return container
}
