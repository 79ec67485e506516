package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/auth_session_service/internal/core/domain"
)

// SessionRepository persists refresh-token sessions. Sessions are keyed by the
// fingerprint of the refresh secret; raw secrets never reach this layer.
type SessionRepository interface {
	// CreateSession stores a new session for userID, created and updated at now.
	CreateSession(ctx context.Context, userID string, fingerprint string, now time.Time) (*domain.Session, error)

	// FindSessionByFingerprint returns the session joined with its owner.
	FindSessionByFingerprint(ctx context.Context, fingerprint string) (*domain.SessionWithUser, error)

	// FindSessionByID retrieves a session by its ID.
	FindSessionByID(ctx context.Context, sessionID string) (*domain.Session, error)

	// ReplaceSessionFingerprint swaps fingerprint for newFingerprint in one conditional
	// update and sets updated_at to now. When no row holds fingerprint any more, for example
	// because a concurrent rotation won, it returns apperrors.ErrNotFound.
	ReplaceSessionFingerprint(ctx context.Context, fingerprint string, newFingerprint string, now time.Time) (*domain.Session, error)

	// DeleteSessionByFingerprint removes the session; apperrors.ErrNotFound if absent.
	DeleteSessionByFingerprint(ctx context.Context, fingerprint string) error

	// DeleteSessionByID removes the session; apperrors.ErrNotFound if absent.
	DeleteSessionByID(ctx context.Context, sessionID string) error

	// DeleteSessionsByUserID removes every session of the user and returns the count.
	DeleteSessionsByUserID(ctx context.Context, userID string) (int64, error)

	// ListSessionsByUserID lists the sessions of a user, newest first.
	ListSessionsByUserID(ctx context.Context, userID string) ([]domain.Session, error)
}
