package services_test

import (
	"context"
	"time"

	"github.com/SscSPs/auth_session_service/internal/core/domain"
	portsrepo "github.com/SscSPs/auth_session_service/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/auth_session_service/internal/core/ports/services"
	"github.com/stretchr/testify/mock"
)

// --- Mock UserRepository ---
type MockUserRepository struct {
	mock.Mock
}

func userOrNil(args mock.Arguments) *domain.User {
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*domain.User)
}

func (m *MockUserRepository) FindUserByID(ctx context.Context, userID string) (*domain.User, error) {
	args := m.Called(ctx, userID)
	return userOrNil(args), args.Error(1)
}

func (m *MockUserRepository) FindUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	args := m.Called(ctx, username)
	return userOrNil(args), args.Error(1)
}

func (m *MockUserRepository) FindUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	return userOrNil(args), args.Error(1)
}

func (m *MockUserRepository) FindUsers(ctx context.Context, limit, offset int) ([]domain.User, error) {
	args := m.Called(ctx, limit, offset)
	var users []domain.User
	if args.Get(0) != nil {
		users = args.Get(0).([]domain.User)
	}
	return users, args.Error(1)
}

func (m *MockUserRepository) SaveUser(ctx context.Context, user domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) UpdateUser(ctx context.Context, userID string, patch domain.UserPatch) (*domain.User, error) {
	args := m.Called(ctx, userID, patch)
	return userOrNil(args), args.Error(1)
}

func (m *MockUserRepository) DeleteUser(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockUserRepository) DeleteUsersByUsernames(ctx context.Context, usernames []string) (int64, error) {
	args := m.Called(ctx, usernames)
	return args.Get(0).(int64), args.Error(1)
}

var _ portsrepo.UserRepositoryFacade = (*MockUserRepository)(nil)

// --- Mock SessionRepository ---
type MockSessionRepository struct {
	mock.Mock
}

func sessionOrNil(args mock.Arguments) *domain.Session {
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*domain.Session)
}

func (m *MockSessionRepository) CreateSession(ctx context.Context, userID string, fingerprint string, now time.Time) (*domain.Session, error) {
	args := m.Called(ctx, userID, fingerprint, now)
	return sessionOrNil(args), args.Error(1)
}

func (m *MockSessionRepository) FindSessionByFingerprint(ctx context.Context, fingerprint string) (*domain.SessionWithUser, error) {
	args := m.Called(ctx, fingerprint)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SessionWithUser), args.Error(1)
}

func (m *MockSessionRepository) FindSessionByID(ctx context.Context, sessionID string) (*domain.Session, error) {
	args := m.Called(ctx, sessionID)
	return sessionOrNil(args), args.Error(1)
}

func (m *MockSessionRepository) ReplaceSessionFingerprint(ctx context.Context, fingerprint string, newFingerprint string, now time.Time) (*domain.Session, error) {
	args := m.Called(ctx, fingerprint, newFingerprint, now)
	return sessionOrNil(args), args.Error(1)
}

func (m *MockSessionRepository) DeleteSessionByFingerprint(ctx context.Context, fingerprint string) error {
	args := m.Called(ctx, fingerprint)
	return args.Error(0)
}

func (m *MockSessionRepository) DeleteSessionByID(ctx context.Context, sessionID string) error {
	args := m.Called(ctx, sessionID)
	return args.Error(0)
}

func (m *MockSessionRepository) DeleteSessionsByUserID(ctx context.Context, userID string) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockSessionRepository) ListSessionsByUserID(ctx context.Context, userID string) ([]domain.Session, error) {
	args := m.Called(ctx, userID)
	var sessions []domain.Session
	if args.Get(0) != nil {
		sessions = args.Get(0).([]domain.Session)
	}
	return sessions, args.Error(1)
}

var _ portsrepo.SessionRepository = (*MockSessionRepository)(nil)

// --- Mock TokenService ---
type MockTokenService struct {
	mock.Mock
}

func (m *MockTokenService) GenerateAccessToken(ctx context.Context, user *domain.User) (string, time.Time, error) {
	args := m.Called(ctx, user)
	return args.String(0), args.Get(1).(time.Time), args.Error(2)
}

func (m *MockTokenService) ValidateAccessToken(ctx context.Context, token string) (*domain.SignedUser, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SignedUser), args.Error(1)
}

var _ portssvc.TokenSvcFacade = (*MockTokenService)(nil)

// --- Mock VerificationService ---
type MockVerificationService struct {
	mock.Mock
}

func (m *MockVerificationService) IssueEmailToken(ctx context.Context, payload domain.EmailTokenPayload) (string, error) {
	args := m.Called(ctx, payload)
	return args.String(0), args.Error(1)
}

func (m *MockVerificationService) IssuePasswordToken(ctx context.Context, payload domain.RecoveryTokenPayload) (string, error) {
	args := m.Called(ctx, payload)
	return args.String(0), args.Error(1)
}

func (m *MockVerificationService) IssueChangeEmailToken(ctx context.Context, payload domain.ChangeEmailTokenPayload) (string, error) {
	args := m.Called(ctx, payload)
	return args.String(0), args.Error(1)
}

func (m *MockVerificationService) VerifyEmailToken(ctx context.Context, token string) (*domain.EmailTokenPayload, bool) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Bool(1)
	}
	return args.Get(0).(*domain.EmailTokenPayload), args.Bool(1)
}

func (m *MockVerificationService) VerifyPasswordToken(ctx context.Context, token string) (*domain.RecoveryTokenPayload, bool) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Bool(1)
	}
	return args.Get(0).(*domain.RecoveryTokenPayload), args.Bool(1)
}

func (m *MockVerificationService) VerifyChangeEmailToken(ctx context.Context, token string) (*domain.ChangeEmailTokenPayload, bool) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Bool(1)
	}
	return args.Get(0).(*domain.ChangeEmailTokenPayload), args.Bool(1)
}

func (m *MockVerificationService) SendVerificationEmail(ctx context.Context, user *domain.User) bool {
	return m.Called(ctx, user).Bool(0)
}

func (m *MockVerificationService) SendPasswordRecoveryEmail(ctx context.Context, user *domain.User) bool {
	return m.Called(ctx, user).Bool(0)
}

func (m *MockVerificationService) SendChangeEmail(ctx context.Context, user *domain.User, newEmail string) bool {
	return m.Called(ctx, user, newEmail).Bool(0)
}

var _ portssvc.VerificationSvcFacade = (*MockVerificationService)(nil)

// plainHasher is a deterministic stand-in for bcrypt in unit tests.
type plainHasher struct{}

func (plainHasher) Hash(plaintext string) (string, error) { return "hashed:" + plaintext, nil }
func (plainHasher) Verify(plaintext, digest string) bool  { return digest == "hashed:"+plaintext }

// recordingNotifier keeps every notification it is handed.
type recordingNotifier struct {
	sent []domain.Notification
	err  error
}

func (n *recordingNotifier) Send(_ context.Context, notification domain.Notification) error {
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, notification)
	return nil
}

func (n *recordingNotifier) last() domain.Notification {
	return n.sent[len(n.sent)-1]
}
