package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/SscSPs/auth_session_service/internal/apperrors"
	"github.com/SscSPs/auth_session_service/internal/core/domain"
	portsrepo "github.com/SscSPs/auth_session_service/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/auth_session_service/internal/core/ports/services"
	"github.com/SscSPs/auth_session_service/internal/dto"
	"github.com/SscSPs/auth_session_service/internal/utils"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

// AuthService orchestrates sign-up, sessions and credential recovery.
//
// A session is ACTIVE while its row exists and is younger than the refresh TTL.
// Refresh moves it to a new fingerprint (the old one is dead), sign-out and
// termination delete it.
type AuthService struct {
	BaseService
	users        portsrepo.UserRepositoryFacade
	sessions     portsrepo.SessionRepository
	hasher       portssvc.PasswordHasher
	tokens       portssvc.TokenSvcFacade
	verification portssvc.VerificationSvcFacade
	refreshTTL   time.Duration
	now          func() time.Time
}

// AuthServiceOption is a functional option for configuring the auth service
type AuthServiceOption func(*AuthService)

// WithClock replaces the clock used for session age checks and timestamps.
func WithClock(now func() time.Time) AuthServiceOption {
	return func(s *AuthService) {
		s.now = now
	}
}

// NewAuthService creates a new AuthService with the provided options
func NewAuthService(
	repos portsrepo.RepositoryProvider,
	hasher portssvc.PasswordHasher,
	tokens portssvc.TokenSvcFacade,
	verification portssvc.VerificationSvcFacade,
	refreshTTL time.Duration,
	options ...AuthServiceOption,
) *AuthService {
	svc := &AuthService{
		users:        repos.UserRepo,
		sessions:     repos.SessionRepo,
		hasher:       hasher,
		tokens:       tokens,
		verification: verification,
		refreshTTL:   refreshTTL,
		now:          time.Now,
	}
	for _, option := range options {
		option(svc)
	}
	return svc
}

var _ portssvc.AuthSvcFacade = (*AuthService)(nil)

func (s *AuthService) SignUp(ctx context.Context, req dto.SignUpRequest) (user *domain.User, err error) {
	ctx, span := s.StartSpan(ctx, "AuthService.SignUp")
	defer func() { s.EndSpan(span, err) }()

	if err := s.ensureAvailable(ctx, req.Username, req.Email); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		s.LogError(ctx, err, "Failed to hash password")
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := s.now().UTC()
	newUser := domain.User{
		ID:            uuid.NewString(),
		Username:      req.Username,
		Email:         req.Email,
		PasswordHash:  hash,
		EmailVerified: false,
		Roles:         domain.DefaultRoles(),
		AuditFields:   domain.AuditFields{CreatedAt: now, UpdatedAt: now},
	}
	if err := s.users.SaveUser(ctx, newUser); err != nil {
		if errors.Is(err, apperrors.ErrDuplicate) {
			return nil, apperrors.NewConflict("Username or email already in use")
		}
		s.LogError(ctx, err, "Failed to save user", slog.String("username", req.Username))
		return nil, fmt.Errorf("failed to save user: %w", err)
	}

	if !s.verification.SendVerificationEmail(ctx, &newUser) {
		s.LogWarn(ctx, "Verification email not sent", slog.String("user_id", newUser.ID))
	}

	s.LogInfo(ctx, "User signed up", slog.String("user_id", newUser.ID))
	return &newUser, nil
}

// ensureAvailable fails Conflict when username or email is already taken.
func (s *AuthService) ensureAvailable(ctx context.Context, username, email string) error {
	if _, err := s.users.FindUserByUsername(ctx, username); err == nil {
		return apperrors.NewConflict("Username already in use")
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return fmt.Errorf("failed to check username: %w", err)
	}
	if _, err := s.users.FindUserByEmail(ctx, email); err == nil {
		return apperrors.NewConflict("Email already in use")
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return fmt.Errorf("failed to check email: %w", err)
	}
	return nil
}

func (s *AuthService) ValidateUser(ctx context.Context, username, password string) (*domain.User, error) {
	user, err := s.users.FindUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NewUnauthenticated("Invalid username or password")
		}
		s.LogError(ctx, err, "Failed to look up user for sign-in")
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, apperrors.NewUnauthenticated("Invalid username or password")
	}
	return user, nil
}

func (s *AuthService) SignIn(ctx context.Context, username string) (result *domain.AuthResult, err error) {
	ctx, span := s.StartSpan(ctx, "AuthService.SignIn")
	defer func() { s.EndSpan(span, err) }()

	// the user may have been removed since the credentials guard accepted it
	user, err := s.users.FindUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NewNotFound("User not found")
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	pair, fingerprint, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, err
	}
	session, err := s.sessions.CreateSession(ctx, user.ID, fingerprint, s.now())
	if err != nil {
		s.LogError(ctx, err, "Failed to create session", slog.String("user_id", user.ID))
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	s.LogInfo(ctx, "User signed in", slog.String("user_id", user.ID), slog.String("session_id", session.ID))
	return &domain.AuthResult{TokenPair: *pair, User: *user}, nil
}

func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (result *domain.AuthResult, err error) {
	ctx, span := s.StartSpan(ctx, "AuthService.Refresh")
	defer func() { s.EndSpan(span, err) }()

	fingerprint := utils.FingerprintToken(refreshToken)
	found, err := s.sessions.FindSessionByFingerprint(ctx, fingerprint)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NewNotFound("Session not found")
		}
		s.LogError(ctx, err, "Failed to find session")
		return nil, fmt.Errorf("failed to find session: %w", err)
	}
	span.SetAttributes(attribute.String("session.id", found.ID))

	now := s.now()
	if found.Expired(now, s.refreshTTL) {
		return nil, apperrors.NewBadRequest("Refresh token expired")
	}

	pair, newFingerprint, err := s.issueTokens(ctx, &found.User)
	if err != nil {
		return nil, err
	}

	// conditional on the old fingerprint: a concurrent rotation that got there
	// first leaves no row to update
	if _, err := s.sessions.ReplaceSessionFingerprint(ctx, fingerprint, newFingerprint, now); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			s.LogWarn(ctx, "Refresh token consumed concurrently", slog.String("session_id", found.ID))
			return nil, apperrors.NewNotFound("Session not found")
		}
		s.LogError(ctx, err, "Failed to rotate session", slog.String("session_id", found.ID))
		return nil, fmt.Errorf("failed to rotate session: %w", err)
	}

	return &domain.AuthResult{TokenPair: *pair, User: found.User}, nil
}

// issueTokens signs an access token and draws a new refresh secret.
// It returns the pair and the fingerprint to persist.
func (s *AuthService) issueTokens(ctx context.Context, user *domain.User) (*domain.TokenPair, string, error) {
	accessToken, accessExpiresAt, err := s.tokens.GenerateAccessToken(ctx, user)
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate access token: %w", err)
	}
	refreshToken, fingerprint, err := utils.GenerateRefreshToken()
	if err != nil {
		s.LogError(ctx, err, "Failed to generate refresh token")
		return nil, "", fmt.Errorf("failed to generate refresh token: %w", err)
	}
	return &domain.TokenPair{
		AccessToken:           accessToken,
		AccessTokenExpiresAt:  accessExpiresAt,
		RefreshToken:          refreshToken,
		RefreshTokenExpiresAt: s.now().Add(s.refreshTTL),
	}, fingerprint, nil
}

func (s *AuthService) SignOut(ctx context.Context, refreshToken string) error {
	if err := s.sessions.DeleteSessionByFingerprint(ctx, utils.FingerprintToken(refreshToken)); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.NewNotFound("Session not found")
		}
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

func (s *AuthService) SignOutAll(ctx context.Context, username string) error {
	user, err := s.users.FindUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.NewForbidden("User not found")
		}
		return fmt.Errorf("failed to find user: %w", err)
	}
	return s.revokeAll(ctx, user.ID)
}

// SignOutAllByID is SignOutAll keyed by user id. Unlike the username, the id
// cannot change while an access token is live.
func (s *AuthService) SignOutAllByID(ctx context.Context, userID string) error {
	user, err := s.users.FindUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.NewForbidden("User not found")
		}
		return fmt.Errorf("failed to find user: %w", err)
	}
	return s.revokeAll(ctx, user.ID)
}

func (s *AuthService) revokeAll(ctx context.Context, userID string) error {
	count, err := s.sessions.DeleteSessionsByUserID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to delete sessions: %w", err)
	}
	s.LogInfo(ctx, "Signed out everywhere", slog.String("user_id", userID), slog.Int64("sessions", count))
	return nil
}

func (s *AuthService) TerminateSession(ctx context.Context, requestingUserID, sessionID string) error {
	session, err := s.sessions.FindSessionByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.NewNotFound("Session not found")
		}
		return fmt.Errorf("failed to find session: %w", err)
	}
	if session.UserID != requestingUserID {
		s.LogWarn(ctx, "Attempt to terminate a foreign session", slog.String("session_id", sessionID))
		return apperrors.NewForbidden("You can only terminate your own sessions")
	}
	if err := s.sessions.DeleteSessionByID(ctx, sessionID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.NewNotFound("Session not found")
		}
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

func (s *AuthService) FindSessions(ctx context.Context, userID string) ([]domain.Session, error) {
	sessions, err := s.sessions.ListSessionsByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return sessions, nil
}

func (s *AuthService) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) (err error) {
	ctx, span := s.StartSpan(ctx, "AuthService.ChangePassword", attribute.String("user.id", userID))
	defer func() { s.EndSpan(span, err) }()

	if oldPassword == newPassword {
		return apperrors.NewBadRequest("New password must differ from the old one")
	}
	user, err := s.users.FindUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.NewNotFound("User not found")
		}
		return fmt.Errorf("failed to find user: %w", err)
	}
	if !s.hasher.Verify(oldPassword, user.PasswordHash) {
		return apperrors.NewBadRequest("Old password is incorrect")
	}
	return s.setPassword(ctx, user.ID, newPassword)
}

// setPassword stores a new hash and revokes every session of the user.
func (s *AuthService) setPassword(ctx context.Context, userID, password string) error {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if _, err := s.users.UpdateUser(ctx, userID, domain.UserPatch{PasswordHash: &hash}); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.NewNotFound("User not found")
		}
		return fmt.Errorf("failed to update password: %w", err)
	}
	count, err := s.sessions.DeleteSessionsByUserID(ctx, userID)
	if err != nil {
		s.LogError(ctx, err, "Failed to revoke sessions after password change", slog.String("user_id", userID))
		return fmt.Errorf("failed to revoke sessions: %w", err)
	}
	s.LogInfo(ctx, "Password changed", slog.String("user_id", userID), slog.Int64("revoked_sessions", count))
	return nil
}

func (s *AuthService) ResendVerification(ctx context.Context, userID string) error {
	user, err := s.users.FindUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.NewBadRequest("User not found")
		}
		return fmt.Errorf("failed to find user: %w", err)
	}
	if !s.verification.SendVerificationEmail(ctx, user) {
		s.LogWarn(ctx, "Verification email not sent", slog.String("user_id", user.ID))
	}
	return nil
}

func (s *AuthService) VerifyEmail(ctx context.Context, token string) (user *domain.User, err error) {
	ctx, span := s.StartSpan(ctx, "AuthService.VerifyEmail")
	defer func() { s.EndSpan(span, err) }()

	payload, ok := s.verification.VerifyEmailToken(ctx, token)
	if !ok {
		return nil, apperrors.NewBadRequest("Invalid or expired token")
	}
	current, err := s.users.FindUserByID(ctx, payload.UserID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NewBadRequest("Invalid or expired token")
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	// a token minted for a previous address, or already redeemed, is spent
	if !strings.EqualFold(current.Email, payload.Email) {
		return nil, apperrors.NewBadRequest("Token does not match the current email address")
	}
	if current.EmailVerified {
		return nil, apperrors.NewBadRequest("Email address already verified")
	}

	verified := true
	updated, err := s.users.UpdateUser(ctx, current.ID, domain.UserPatch{EmailVerified: &verified})
	if err != nil {
		return nil, fmt.Errorf("failed to mark email verified: %w", err)
	}
	return updated, nil
}

func (s *AuthService) SendRecoveryPasswordToken(ctx context.Context, email string) error {
	user, err := s.users.FindUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			// the response must not reveal which addresses are registered
			s.LogInfo(ctx, "Password recovery requested for unknown email")
			return nil
		}
		return fmt.Errorf("failed to find user: %w", err)
	}
	if !s.verification.SendPasswordRecoveryEmail(ctx, user) {
		s.LogWarn(ctx, "Password recovery email not sent", slog.String("user_id", user.ID))
	}
	return nil
}

func (s *AuthService) RecoveryPassword(ctx context.Context, token, newPassword string) (err error) {
	ctx, span := s.StartSpan(ctx, "AuthService.RecoveryPassword")
	defer func() { s.EndSpan(span, err) }()

	payload, ok := s.verification.VerifyPasswordToken(ctx, token)
	if !ok {
		return apperrors.NewBadRequest("Invalid or expired token")
	}
	if _, err := s.users.FindUserByID(ctx, payload.UserID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.NewBadRequest("Invalid or expired token")
		}
		return fmt.Errorf("failed to find user: %w", err)
	}
	return s.setPassword(ctx, payload.UserID, newPassword)
}

func (s *AuthService) RequestChangeEmail(ctx context.Context, userID, newEmail string) error {
	user, err := s.users.FindUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.NewNotFound("User not found")
		}
		return fmt.Errorf("failed to find user: %w", err)
	}
	if strings.EqualFold(user.Email, newEmail) {
		return apperrors.NewBadRequest("New email must differ from the current one")
	}
	if _, err := s.users.FindUserByEmail(ctx, newEmail); err == nil {
		return apperrors.NewConflict("Email already in use")
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return fmt.Errorf("failed to check email: %w", err)
	}
	if !s.verification.SendChangeEmail(ctx, user, newEmail) {
		s.LogWarn(ctx, "Change email confirmation not sent", slog.String("user_id", user.ID))
	}
	return nil
}

func (s *AuthService) ChangeEmail(ctx context.Context, token string) (user *domain.User, err error) {
	ctx, span := s.StartSpan(ctx, "AuthService.ChangeEmail")
	defer func() { s.EndSpan(span, err) }()

	payload, ok := s.verification.VerifyChangeEmailToken(ctx, token)
	if !ok {
		return nil, apperrors.NewBadRequest("Invalid or expired token")
	}
	current, err := s.users.FindUserByID(ctx, payload.UserID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NewBadRequest("Invalid or expired token")
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if strings.EqualFold(current.Email, payload.NewEmail) {
		return nil, apperrors.NewBadRequest("Email address already changed")
	}

	verified := true
	updated, err := s.users.UpdateUser(ctx, current.ID, domain.UserPatch{Email: &payload.NewEmail, EmailVerified: &verified})
	if err != nil {
		if errors.Is(err, apperrors.ErrDuplicate) {
			return nil, apperrors.NewConflict("Email already in use")
		}
		return nil, fmt.Errorf("failed to change email: %w", err)
	}
	return updated, nil
}
