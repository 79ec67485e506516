package pgsql

import (
	portsrepo "github.com/SscSPs/auth_session_service/internal/core/ports/repositories"
)

// NewRepositoryProvider builds the pgx-backed repositories. Pass a *pgxpool.Pool.
func NewRepositoryProvider(db DBTX) portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		UserRepo:    newPgxUserRepository(db),
		SessionRepo: newPgxSessionRepository(db),
	}
}
