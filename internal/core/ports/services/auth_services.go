package services

import (
	"context"
	"time"

	"github.com/SscSPs/auth_session_service/internal/core/domain"
	"github.com/SscSPs/auth_session_service/internal/dto"
)

// TokenSvcFacade issues and validates access tokens.
type TokenSvcFacade interface {
	GenerateAccessToken(ctx context.Context, user *domain.User) (string, time.Time, error)
	// ValidateAccessToken verifies signature, expiry, purpose and payload shape.
	ValidateAccessToken(ctx context.Context, token string) (*domain.SignedUser, error)
}

// CredentialSvc covers account creation and credential checks.
type CredentialSvc interface {
	// SignUp creates an unverified account and sends a verification email.
	SignUp(ctx context.Context, req dto.SignUpRequest) (*domain.User, error)
	// ValidateUser checks username and password. Bad credentials yield apperrors.ErrUnauthenticated.
	ValidateUser(ctx context.Context, username, password string) (*domain.User, error)
	ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error
}

// SessionSvc covers the refresh-token lifecycle.
type SessionSvc interface {
	SignIn(ctx context.Context, username string) (*domain.AuthResult, error)
	Refresh(ctx context.Context, refreshToken string) (*domain.AuthResult, error)
	SignOut(ctx context.Context, refreshToken string) error
	SignOutAll(ctx context.Context, username string) error
	SignOutAllByID(ctx context.Context, userID string) error
	TerminateSession(ctx context.Context, requestingUserID, sessionID string) error
	FindSessions(ctx context.Context, userID string) ([]domain.Session, error)
}

// RecoverySvc covers flows redeemed with purpose-scoped tokens.
type RecoverySvc interface {
	ResendVerification(ctx context.Context, userID string) error
	VerifyEmail(ctx context.Context, token string) (*domain.User, error)
	SendRecoveryPasswordToken(ctx context.Context, email string) error
	RecoveryPassword(ctx context.Context, token, newPassword string) error
	RequestChangeEmail(ctx context.Context, userID, newEmail string) error
	ChangeEmail(ctx context.Context, token string) (*domain.User, error)
}

// AuthSvcFacade combines all auth-related service interfaces
type AuthSvcFacade interface {
	CredentialSvc
	SessionSvc
	RecoverySvc
}
