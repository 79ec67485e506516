package services

import (
	"context"

	"github.com/SscSPs/auth_session_service/internal/core/domain"
)

// VerificationSvcFacade issues, verifies and mails purpose-scoped tokens.
// Verify* methods return ok=false for any invalid token, including payloads of the wrong shape.
type VerificationSvcFacade interface {
	IssueEmailToken(ctx context.Context, payload domain.EmailTokenPayload) (string, error)
	IssuePasswordToken(ctx context.Context, payload domain.RecoveryTokenPayload) (string, error)
	IssueChangeEmailToken(ctx context.Context, payload domain.ChangeEmailTokenPayload) (string, error)

	VerifyEmailToken(ctx context.Context, token string) (*domain.EmailTokenPayload, bool)
	VerifyPasswordToken(ctx context.Context, token string) (*domain.RecoveryTokenPayload, bool)
	VerifyChangeEmailToken(ctx context.Context, token string) (*domain.ChangeEmailTokenPayload, bool)

	// Send* return whether the message was handed to the notifier successfully.
	SendVerificationEmail(ctx context.Context, user *domain.User) bool
	SendPasswordRecoveryEmail(ctx context.Context, user *domain.User) bool
	SendChangeEmail(ctx context.Context, user *domain.User, newEmail string) bool
}
