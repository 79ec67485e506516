package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/SscSPs/auth_session_service/internal/apperrors"
	"github.com/SscSPs/auth_session_service/internal/core/domain"
	portsrepo "github.com/SscSPs/auth_session_service/internal/core/ports/repositories"
	"github.com/SscSPs/auth_session_service/internal/core/services"
	"github.com/SscSPs/auth_session_service/internal/dto"
	"github.com/SscSPs/auth_session_service/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

const refreshTTL = 24 * time.Hour

type AuthServiceTestSuite struct {
	suite.Suite
	users        *MockUserRepository
	sessions     *MockSessionRepository
	tokens       *MockTokenService
	verification *MockVerificationService
	now          time.Time
	service      *services.AuthService
}

func (suite *AuthServiceTestSuite) SetupTest() {
	suite.users = new(MockUserRepository)
	suite.sessions = new(MockSessionRepository)
	suite.tokens = new(MockTokenService)
	suite.verification = new(MockVerificationService)
	suite.now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	suite.service = services.NewAuthService(
		portsrepo.RepositoryProvider{UserRepo: suite.users, SessionRepo: suite.sessions},
		plainHasher{},
		suite.tokens,
		suite.verification,
		refreshTTL,
		services.WithClock(func() time.Time { return suite.now }),
	)
}

func (suite *AuthServiceTestSuite) TearDownTest() {
	suite.users.AssertExpectations(suite.T())
	suite.sessions.AssertExpectations(suite.T())
	suite.verification.AssertExpectations(suite.T())
}

func (suite *AuthServiceTestSuite) alice() *domain.User {
	return &domain.User{
		ID:           "alice-id",
		Username:     "alice",
		Email:        "alice@example.com",
		PasswordHash: "hashed:old-password",
		Roles:        []string{"user"},
	}
}

func (suite *AuthServiceTestSuite) expectAccessToken() {
	suite.tokens.On("GenerateAccessToken", mock.Anything, mock.Anything).
		Return("access-token", suite.now.Add(15*time.Minute), nil)
}

// --- SignUp ---

func (suite *AuthServiceTestSuite) TestSignUp_Success() {
	req := dto.SignUpRequest{Username: "alice", Password: "pw", Email: "alice@example.com"}
	suite.users.On("FindUserByUsername", mock.Anything, "alice").Return(nil, apperrors.ErrNotFound).Once()
	suite.users.On("FindUserByEmail", mock.Anything, "alice@example.com").Return(nil, apperrors.ErrNotFound).Once()
	suite.users.On("SaveUser", mock.Anything, mock.MatchedBy(func(u domain.User) bool {
		return u.PasswordHash == "hashed:pw" && !u.EmailVerified && u.CreatedAt.Equal(suite.now)
	})).Return(nil).Once()
	suite.verification.On("SendVerificationEmail", mock.Anything, mock.AnythingOfType("*domain.User")).Return(true).Once()

	user, err := suite.service.SignUp(context.Background(), req)

	suite.Require().NoError(err)
	suite.False(user.EmailVerified)
	suite.Equal(domain.DefaultRoles(), user.Roles)
	suite.NotEmpty(user.ID)
}

func (suite *AuthServiceTestSuite) TestSignUp_NotificationFailureStillSucceeds() {
	suite.users.On("FindUserByUsername", mock.Anything, "alice").Return(nil, apperrors.ErrNotFound).Once()
	suite.users.On("FindUserByEmail", mock.Anything, "alice@example.com").Return(nil, apperrors.ErrNotFound).Once()
	suite.users.On("SaveUser", mock.Anything, mock.Anything).Return(nil).Once()
	suite.verification.On("SendVerificationEmail", mock.Anything, mock.Anything).Return(false).Once()

	user, err := suite.service.SignUp(context.Background(), dto.SignUpRequest{Username: "alice", Password: "pw", Email: "alice@example.com"})

	suite.Require().NoError(err)
	suite.NotNil(user)
}

func (suite *AuthServiceTestSuite) TestSignUp_UsernameTaken() {
	suite.users.On("FindUserByUsername", mock.Anything, "alice").Return(suite.alice(), nil).Once()

	_, err := suite.service.SignUp(context.Background(), dto.SignUpRequest{Username: "alice", Password: "pw", Email: "new@example.com"})

	suite.ErrorIs(err, apperrors.ErrDuplicate)
}

func (suite *AuthServiceTestSuite) TestSignUp_EmailTaken() {
	suite.users.On("FindUserByUsername", mock.Anything, "bob").Return(nil, apperrors.ErrNotFound).Once()
	suite.users.On("FindUserByEmail", mock.Anything, "alice@example.com").Return(suite.alice(), nil).Once()

	_, err := suite.service.SignUp(context.Background(), dto.SignUpRequest{Username: "bob", Password: "pw", Email: "alice@example.com"})

	suite.ErrorIs(err, apperrors.ErrDuplicate)
}

func (suite *AuthServiceTestSuite) TestSignUp_LostInsertRace() {
	suite.users.On("FindUserByUsername", mock.Anything, "alice").Return(nil, apperrors.ErrNotFound).Once()
	suite.users.On("FindUserByEmail", mock.Anything, "alice@example.com").Return(nil, apperrors.ErrNotFound).Once()
	suite.users.On("SaveUser", mock.Anything, mock.Anything).Return(apperrors.ErrDuplicate).Once()

	_, err := suite.service.SignUp(context.Background(), dto.SignUpRequest{Username: "alice", Password: "pw", Email: "alice@example.com"})

	suite.Equal(409, apperrors.StatusCode(err))
}

// --- ValidateUser / SignIn ---

func (suite *AuthServiceTestSuite) TestValidateUser() {
	suite.users.On("FindUserByUsername", mock.Anything, "alice").Return(suite.alice(), nil)
	suite.users.On("FindUserByUsername", mock.Anything, "ghost").Return(nil, apperrors.ErrNotFound)

	user, err := suite.service.ValidateUser(context.Background(), "alice", "old-password")
	suite.Require().NoError(err)
	suite.Equal("alice-id", user.ID)

	_, err = suite.service.ValidateUser(context.Background(), "alice", "wrong")
	suite.ErrorIs(err, apperrors.ErrUnauthenticated)

	_, err = suite.service.ValidateUser(context.Background(), "ghost", "old-password")
	suite.ErrorIs(err, apperrors.ErrUnauthenticated)
}

func (suite *AuthServiceTestSuite) TestSignIn_StoresFingerprintOnly() {
	suite.expectAccessToken()
	suite.users.On("FindUserByUsername", mock.Anything, "alice").Return(suite.alice(), nil).Once()

	var storedFingerprint string
	suite.sessions.On("CreateSession", mock.Anything, "alice-id", mock.AnythingOfType("string"), suite.now).
		Run(func(args mock.Arguments) { storedFingerprint = args.String(2) }).
		Return(&domain.Session{ID: "s1", UserID: "alice-id"}, nil).Once()

	result, err := suite.service.SignIn(context.Background(), "alice")

	suite.Require().NoError(err)
	suite.Equal("access-token", result.AccessToken)
	suite.NotEqual(result.RefreshToken, storedFingerprint)
	suite.Equal(utils.FingerprintToken(result.RefreshToken), storedFingerprint)
	suite.Equal(suite.now.Add(refreshTTL), result.RefreshTokenExpiresAt)
}

func (suite *AuthServiceTestSuite) TestSignIn_UserRemovedMeanwhile() {
	suite.users.On("FindUserByUsername", mock.Anything, "alice").Return(nil, apperrors.ErrNotFound).Once()

	_, err := suite.service.SignIn(context.Background(), "alice")

	suite.ErrorIs(err, apperrors.ErrNotFound)
}

// --- Refresh ---

func (suite *AuthServiceTestSuite) sessionFor(raw string, age time.Duration) *domain.SessionWithUser {
	return &domain.SessionWithUser{
		Session: domain.Session{
			ID:          "s1",
			Token:       utils.FingerprintToken(raw),
			UserID:      "alice-id",
			AuditFields: domain.AuditFields{CreatedAt: suite.now.Add(-age), UpdatedAt: suite.now.Add(-age)},
		},
		User: *suite.alice(),
	}
}

func (suite *AuthServiceTestSuite) TestRefresh_Rotates() {
	suite.expectAccessToken()
	raw := "raw-refresh"
	suite.sessions.On("FindSessionByFingerprint", mock.Anything, utils.FingerprintToken(raw)).Return(suite.sessionFor(raw, time.Hour), nil).Once()

	var newFingerprint string
	suite.sessions.On("ReplaceSessionFingerprint", mock.Anything, utils.FingerprintToken(raw), mock.AnythingOfType("string"), suite.now).
		Run(func(args mock.Arguments) { newFingerprint = args.String(2) }).
		Return(&domain.Session{ID: "s1"}, nil).Once()

	result, err := suite.service.Refresh(context.Background(), raw)

	suite.Require().NoError(err)
	suite.NotEqual(raw, result.RefreshToken)
	suite.Equal(utils.FingerprintToken(result.RefreshToken), newFingerprint)
	suite.Equal("alice-id", result.User.ID)
}

func (suite *AuthServiceTestSuite) TestRefresh_UnknownToken() {
	suite.sessions.On("FindSessionByFingerprint", mock.Anything, mock.Anything).Return(nil, apperrors.ErrNotFound).Once()

	_, err := suite.service.Refresh(context.Background(), "unknown")

	suite.ErrorIs(err, apperrors.ErrNotFound)
}

func (suite *AuthServiceTestSuite) TestRefresh_ExpiredKeepsRow() {
	raw := "old-refresh"
	suite.sessions.On("FindSessionByFingerprint", mock.Anything, utils.FingerprintToken(raw)).Return(suite.sessionFor(raw, refreshTTL+time.Second), nil).Once()

	_, err := suite.service.Refresh(context.Background(), raw)

	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.Equal(400, apperrors.StatusCode(err))
	suite.sessions.AssertNotCalled(suite.T(), "ReplaceSessionFingerprint", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	suite.sessions.AssertNotCalled(suite.T(), "DeleteSessionByFingerprint", mock.Anything, mock.Anything)
}

func (suite *AuthServiceTestSuite) TestRefresh_LostRotationRace() {
	suite.expectAccessToken()
	raw := "raw-refresh"
	suite.sessions.On("FindSessionByFingerprint", mock.Anything, mock.Anything).Return(suite.sessionFor(raw, time.Minute), nil).Once()
	suite.sessions.On("ReplaceSessionFingerprint", mock.Anything, utils.FingerprintToken(raw), mock.Anything, mock.Anything).Return(nil, apperrors.ErrNotFound).Once()

	result, err := suite.service.Refresh(context.Background(), raw)

	suite.Nil(result)
	suite.ErrorIs(err, apperrors.ErrNotFound)
}

// --- Sign-out and sessions ---

func (suite *AuthServiceTestSuite) TestSignOut() {
	suite.sessions.On("DeleteSessionByFingerprint", mock.Anything, utils.FingerprintToken("raw")).Return(nil).Once()
	suite.sessions.On("DeleteSessionByFingerprint", mock.Anything, utils.FingerprintToken("raw")).Return(apperrors.ErrNotFound).Once()

	suite.NoError(suite.service.SignOut(context.Background(), "raw"))
	suite.ErrorIs(suite.service.SignOut(context.Background(), "raw"), apperrors.ErrNotFound)
}

func (suite *AuthServiceTestSuite) TestSignOutAll_MissingUserIsForbidden() {
	suite.users.On("FindUserByUsername", mock.Anything, "ghost").Return(nil, apperrors.ErrNotFound).Once()

	err := suite.service.SignOutAll(context.Background(), "ghost")

	suite.ErrorIs(err, apperrors.ErrForbidden)
}

func (suite *AuthServiceTestSuite) TestSignOutAll() {
	suite.users.On("FindUserByUsername", mock.Anything, "alice").Return(suite.alice(), nil).Once()
	suite.sessions.On("DeleteSessionsByUserID", mock.Anything, "alice-id").Return(int64(3), nil).Once()

	suite.NoError(suite.service.SignOutAll(context.Background(), "alice"))
}

func (suite *AuthServiceTestSuite) TestSignOutAllByID() {
	suite.users.On("FindUserByID", mock.Anything, "alice-id").Return(suite.alice(), nil).Once()
	suite.sessions.On("DeleteSessionsByUserID", mock.Anything, "alice-id").Return(int64(2), nil).Once()

	suite.NoError(suite.service.SignOutAllByID(context.Background(), "alice-id"))
	suite.users.AssertNotCalled(suite.T(), "FindUserByUsername", mock.Anything, mock.Anything)
}

func (suite *AuthServiceTestSuite) TestSignOutAllByID_DeletedUserIsForbidden() {
	suite.users.On("FindUserByID", mock.Anything, "gone").Return(nil, apperrors.ErrNotFound).Once()

	suite.ErrorIs(suite.service.SignOutAllByID(context.Background(), "gone"), apperrors.ErrForbidden)
}

func (suite *AuthServiceTestSuite) TestTerminateSession() {
	suite.sessions.On("FindSessionByID", mock.Anything, "mine").Return(&domain.Session{ID: "mine", UserID: "alice-id"}, nil).Once()
	suite.sessions.On("DeleteSessionByID", mock.Anything, "mine").Return(nil).Once()
	suite.sessions.On("FindSessionByID", mock.Anything, "theirs").Return(&domain.Session{ID: "theirs", UserID: "bob-id"}, nil).Once()
	suite.sessions.On("FindSessionByID", mock.Anything, "gone").Return(nil, apperrors.ErrNotFound).Once()

	suite.NoError(suite.service.TerminateSession(context.Background(), "alice-id", "mine"))
	suite.ErrorIs(suite.service.TerminateSession(context.Background(), "alice-id", "theirs"), apperrors.ErrForbidden)
	suite.ErrorIs(suite.service.TerminateSession(context.Background(), "alice-id", "gone"), apperrors.ErrNotFound)
	suite.sessions.AssertNotCalled(suite.T(), "DeleteSessionByID", mock.Anything, "theirs")
}

// --- ChangePassword ---

func (suite *AuthServiceTestSuite) TestChangePassword_Success() {
	suite.users.On("FindUserByID", mock.Anything, "alice-id").Return(suite.alice(), nil).Once()
	suite.users.On("UpdateUser", mock.Anything, "alice-id", mock.MatchedBy(func(p domain.UserPatch) bool {
		return p.PasswordHash != nil && *p.PasswordHash == "hashed:new-password"
	})).Return(suite.alice(), nil).Once()
	suite.sessions.On("DeleteSessionsByUserID", mock.Anything, "alice-id").Return(int64(2), nil).Once()

	suite.NoError(suite.service.ChangePassword(context.Background(), "alice-id", "old-password", "new-password"))
}

func (suite *AuthServiceTestSuite) TestChangePassword_WrongOldPassword() {
	suite.users.On("FindUserByID", mock.Anything, "alice-id").Return(suite.alice(), nil).Once()

	err := suite.service.ChangePassword(context.Background(), "alice-id", "guess", "new-password")

	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.users.AssertNotCalled(suite.T(), "UpdateUser", mock.Anything, mock.Anything, mock.Anything)
	suite.sessions.AssertNotCalled(suite.T(), "DeleteSessionsByUserID", mock.Anything, mock.Anything)
}

func (suite *AuthServiceTestSuite) TestChangePassword_SamePassword() {
	err := suite.service.ChangePassword(context.Background(), "alice-id", "same", "same")

	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *AuthServiceTestSuite) TestChangePassword_MissingUser() {
	suite.users.On("FindUserByID", mock.Anything, "ghost").Return(nil, apperrors.ErrNotFound).Once()

	err := suite.service.ChangePassword(context.Background(), "ghost", "a", "b")

	suite.ErrorIs(err, apperrors.ErrNotFound)
}

// --- Email verification ---

func (suite *AuthServiceTestSuite) TestVerifyEmail() {
	payload := &domain.EmailTokenPayload{UserID: "alice-id", Email: "alice@example.com"}
	verified := *suite.alice()
	verified.EmailVerified = true

	suite.verification.On("VerifyEmailToken", mock.Anything, "good").Return(payload, true).Once()
	suite.users.On("FindUserByID", mock.Anything, "alice-id").Return(suite.alice(), nil).Once()
	suite.users.On("UpdateUser", mock.Anything, "alice-id", mock.MatchedBy(func(p domain.UserPatch) bool {
		return p.EmailVerified != nil && *p.EmailVerified
	})).Return(&verified, nil).Once()

	user, err := suite.service.VerifyEmail(context.Background(), "good")

	suite.Require().NoError(err)
	suite.True(user.EmailVerified)
}

func (suite *AuthServiceTestSuite) TestVerifyEmail_Rejections() {
	stale := &domain.EmailTokenPayload{UserID: "alice-id", Email: "previous@example.com"}
	current := &domain.EmailTokenPayload{UserID: "alice-id", Email: "ALICE@example.com"}
	alreadyVerified := suite.alice()
	alreadyVerified.EmailVerified = true

	suite.verification.On("VerifyEmailToken", mock.Anything, "invalid").Return(nil, false).Once()
	suite.verification.On("VerifyEmailToken", mock.Anything, "stale").Return(stale, true).Once()
	suite.verification.On("VerifyEmailToken", mock.Anything, "spent").Return(current, true).Once()
	suite.users.On("FindUserByID", mock.Anything, "alice-id").Return(suite.alice(), nil).Once()
	suite.users.On("FindUserByID", mock.Anything, "alice-id").Return(alreadyVerified, nil).Once()

	for _, token := range []string{"invalid", "stale", "spent"} {
		_, err := suite.service.VerifyEmail(context.Background(), token)
		suite.ErrorIs(err, apperrors.ErrValidation, token)
	}
	suite.users.AssertNotCalled(suite.T(), "UpdateUser", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *AuthServiceTestSuite) TestResendVerification_MissingUser() {
	suite.users.On("FindUserByID", mock.Anything, "ghost").Return(nil, apperrors.ErrNotFound).Once()

	err := suite.service.ResendVerification(context.Background(), "ghost")

	suite.ErrorIs(err, apperrors.ErrValidation)
}

// --- Password recovery ---

func (suite *AuthServiceTestSuite) TestSendRecoveryPasswordToken_UnknownEmailIsSilent() {
	suite.users.On("FindUserByEmail", mock.Anything, "nobody@example.com").Return(nil, apperrors.ErrNotFound).Once()

	suite.NoError(suite.service.SendRecoveryPasswordToken(context.Background(), "nobody@example.com"))
	suite.verification.AssertNotCalled(suite.T(), "SendPasswordRecoveryEmail", mock.Anything, mock.Anything)
}

func (suite *AuthServiceTestSuite) TestSendRecoveryPasswordToken() {
	suite.users.On("FindUserByEmail", mock.Anything, "alice@example.com").Return(suite.alice(), nil).Once()
	suite.verification.On("SendPasswordRecoveryEmail", mock.Anything, mock.Anything).Return(true).Once()

	suite.NoError(suite.service.SendRecoveryPasswordToken(context.Background(), "alice@example.com"))
}

func (suite *AuthServiceTestSuite) TestRecoveryPassword_RevokesSessions() {
	suite.verification.On("VerifyPasswordToken", mock.Anything, "recovery").Return(&domain.RecoveryTokenPayload{UserID: "alice-id"}, true).Once()
	suite.users.On("FindUserByID", mock.Anything, "alice-id").Return(suite.alice(), nil).Once()
	suite.users.On("UpdateUser", mock.Anything, "alice-id", mock.Anything).Return(suite.alice(), nil).Once()
	suite.sessions.On("DeleteSessionsByUserID", mock.Anything, "alice-id").Return(int64(1), nil).Once()

	suite.NoError(suite.service.RecoveryPassword(context.Background(), "recovery", "brand-new"))
}

func (suite *AuthServiceTestSuite) TestRecoveryPassword_InvalidToken() {
	suite.verification.On("VerifyPasswordToken", mock.Anything, "bogus").Return(nil, false).Once()

	err := suite.service.RecoveryPassword(context.Background(), "bogus", "brand-new")

	suite.ErrorIs(err, apperrors.ErrValidation)
}

// --- Change email ---

func (suite *AuthServiceTestSuite) TestRequestChangeEmail() {
	suite.users.On("FindUserByID", mock.Anything, "alice-id").Return(suite.alice(), nil).Times(3)
	suite.users.On("FindUserByEmail", mock.Anything, "taken@example.com").Return(&domain.User{ID: "bob-id"}, nil).Once()
	suite.users.On("FindUserByEmail", mock.Anything, "free@example.com").Return(nil, apperrors.ErrNotFound).Once()
	suite.verification.On("SendChangeEmail", mock.Anything, mock.Anything, "free@example.com").Return(true).Once()

	suite.ErrorIs(suite.service.RequestChangeEmail(context.Background(), "alice-id", "Alice@Example.com"), apperrors.ErrValidation)
	suite.ErrorIs(suite.service.RequestChangeEmail(context.Background(), "alice-id", "taken@example.com"), apperrors.ErrDuplicate)
	suite.NoError(suite.service.RequestChangeEmail(context.Background(), "alice-id", "free@example.com"))
}

func (suite *AuthServiceTestSuite) TestChangeEmail() {
	payload := &domain.ChangeEmailTokenPayload{UserID: "alice-id", NewEmail: "new@example.com"}
	changed := suite.alice()
	changed.Email = payload.NewEmail
	changed.EmailVerified = true

	suite.verification.On("VerifyChangeEmailToken", mock.Anything, "change").Return(payload, true).Twice()
	suite.users.On("FindUserByID", mock.Anything, "alice-id").Return(suite.alice(), nil).Once()
	suite.users.On("UpdateUser", mock.Anything, "alice-id", mock.MatchedBy(func(p domain.UserPatch) bool {
		return p.Email != nil && *p.Email == "new@example.com" && p.EmailVerified != nil && *p.EmailVerified
	})).Return(changed, nil).Once()
	suite.users.On("FindUserByID", mock.Anything, "alice-id").Return(changed, nil).Once()

	user, err := suite.service.ChangeEmail(context.Background(), "change")
	suite.Require().NoError(err)
	suite.Equal("new@example.com", user.Email)

	// second redemption of the same token
	_, err = suite.service.ChangeEmail(context.Background(), "change")
	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *AuthServiceTestSuite) TestChangeEmail_AddressTakenMeanwhile() {
	payload := &domain.ChangeEmailTokenPayload{UserID: "alice-id", NewEmail: "new@example.com"}
	suite.verification.On("VerifyChangeEmailToken", mock.Anything, "change").Return(payload, true).Once()
	suite.users.On("FindUserByID", mock.Anything, "alice-id").Return(suite.alice(), nil).Once()
	suite.users.On("UpdateUser", mock.Anything, "alice-id", mock.Anything).Return(nil, apperrors.ErrDuplicate).Once()

	_, err := suite.service.ChangeEmail(context.Background(), "change")

	suite.ErrorIs(err, apperrors.ErrDuplicate)
}

func TestAuthService(t *testing.T) {
	suite.Run(t, new(AuthServiceTestSuite))
}

func TestAuthService_NoClockOptionUsesWallClock(t *testing.T) {
	users := new(MockUserRepository)
	sessions := new(MockSessionRepository)
	tokens := new(MockTokenService)
	svc := services.NewAuthService(portsrepo.RepositoryProvider{UserRepo: users, SessionRepo: sessions}, plainHasher{}, tokens, new(MockVerificationService), time.Hour)

	users.On("FindUserByUsername", mock.Anything, "alice").Return(&domain.User{ID: "a", Username: "alice"}, nil).Once()
	tokens.On("GenerateAccessToken", mock.Anything, mock.Anything).Return("t", time.Now(), nil).Once()
	sessions.On("CreateSession", mock.Anything, "a", mock.Anything, mock.AnythingOfType("time.Time")).Return(&domain.Session{ID: "s"}, nil).Once()

	result, err := svc.SignIn(context.Background(), "alice")
	if assert.NoError(t, err) {
		assert.WithinDuration(t, time.Now().Add(time.Hour), result.RefreshTokenExpiresAt, 5*time.Second)
	}
}
