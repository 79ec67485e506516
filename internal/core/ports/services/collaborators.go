package services

import (
	"context"

	"github.com/SscSPs/auth_session_service/internal/core/domain"
)

// PasswordHasher is a salted one-way hash with a verify counterpart.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, digest string) bool
}

// Notifier delivers rendered notifications. Callers treat failures as "not sent".
type Notifier interface {
	Send(ctx context.Context, n domain.Notification) error
}

// RoleLookup returns the roles a user holds right now.
type RoleLookup interface {
	GetUserRoles(ctx context.Context, userID string) ([]string, error)
}
