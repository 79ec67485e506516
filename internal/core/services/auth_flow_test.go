package services_test

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/SscSPs/auth_session_service/internal/apperrors"
	"github.com/SscSPs/auth_session_service/internal/core/domain"
	portsrepo "github.com/SscSPs/auth_session_service/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/auth_session_service/internal/core/ports/services"
	"github.com/SscSPs/auth_session_service/internal/core/services"
	"github.com/SscSPs/auth_session_service/internal/dto"
	"github.com/SscSPs/auth_session_service/internal/middleware"
	"github.com/SscSPs/auth_session_service/internal/repositories/database/sqlite"
	"github.com/SscSPs/auth_session_service/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// flow wires the real services over a temporary SQLite store.
type flow struct {
	t         *testing.T
	ctx       context.Context
	repos     portsrepo.RepositoryProvider
	container *portssvc.ServiceContainer
	notifier  *recordingNotifier

	mu  sync.Mutex
	now time.Time
}

func newFlow(t *testing.T) *flow {
	t.Helper()
	store, err := sqlite.Open(context.Background(), filepath.Join(t.TempDir(), "auth.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	f := &flow{
		t:        t,
		ctx:      context.Background(),
		repos:    store.RepositoryProvider(),
		notifier: &recordingNotifier{},
		now:      time.Now(),
	}
	f.container = services.NewServiceContainer(
		testConfig(),
		f.repos,
		utils.NewBcryptHasher(bcrypt.MinCost),
		f.notifier,
		services.WithClock(f.clock),
	)
	return f
}

func (f *flow) clock() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *flow) advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

func (f *flow) signUp(username, password string) *domain.User {
	f.t.Helper()
	user, err := f.container.Auth.SignUp(f.ctx, dto.SignUpRequest{
		Username: username,
		Password: password,
		Email:    username + "@example.com",
	})
	require.NoError(f.t, err)
	return user
}

func (f *flow) signIn(username, password string) *domain.AuthResult {
	f.t.Helper()
	_, err := f.container.Auth.ValidateUser(f.ctx, username, password)
	require.NoError(f.t, err)
	result, err := f.container.Auth.SignIn(f.ctx, username)
	require.NoError(f.t, err)
	return result
}

func (f *flow) tokenFromLastMail() string {
	f.t.Helper()
	require.NotEmpty(f.t, f.notifier.sent)
	return tokenFromLink(f.t, f.notifier.last().Data["link"])
}

func TestFlow_SignUpSignInVerify(t *testing.T) {
	f := newFlow(t)

	user := f.signUp("alice", "correct horse")
	assert.False(t, user.EmailVerified)
	assert.Equal(t, domain.DefaultRoles(), user.Roles)
	require.Len(t, f.notifier.sent, 1)
	assert.Equal(t, "alice@example.com", f.notifier.last().To)

	result := f.signIn("alice", "correct horse")
	assert.NotEmpty(t, result.AccessToken)
	assert.NotEmpty(t, result.RefreshToken)

	identity, err := f.container.Token.ValidateAccessToken(f.ctx, result.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, identity.ID)

	emailToken := f.tokenFromLastMail()
	verified, err := f.container.Auth.VerifyEmail(f.ctx, emailToken)
	require.NoError(t, err)
	assert.True(t, verified.EmailVerified)

	// a second redemption of the same token fails
	_, err = f.container.Auth.VerifyEmail(f.ctx, emailToken)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestFlow_StoredSessionHoldsOnlyFingerprint(t *testing.T) {
	f := newFlow(t)
	user := f.signUp("alice", "pw")
	result := f.signIn("alice", "pw")

	sessions, err := f.container.Auth.FindSessions(f.ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.NotEqual(t, result.RefreshToken, sessions[0].Token)
	assert.True(t, utils.CompareFingerprint(result.RefreshToken, sessions[0].Token))
}

func TestFlow_RefreshRotationIsSingleUse(t *testing.T) {
	f := newFlow(t)
	f.signUp("alice", "pw")
	first := f.signIn("alice", "pw")

	second, err := f.container.Auth.Refresh(f.ctx, first.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)

	_, err = f.container.Auth.Refresh(f.ctx, first.RefreshToken)
	assert.ErrorIs(t, err, apperrors.ErrNotFound, "a rotated token must not work again")

	third, err := f.container.Auth.Refresh(f.ctx, second.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, third.RefreshToken)
}

func TestFlow_ConcurrentRefreshHasOneWinner(t *testing.T) {
	f := newFlow(t)
	f.signUp("alice", "pw")
	start := f.signIn("alice", "pw")

	const racers = 6
	var wg sync.WaitGroup
	errs := make([]error, racers)
	for i := range racers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.container.Auth.Refresh(f.ctx, start.RefreshToken)
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
			continue
		}
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	}
	assert.Equal(t, 1, winners)
}

func TestFlow_ExpiredRefreshIsRejectedAndKept(t *testing.T) {
	f := newFlow(t)
	user := f.signUp("alice", "pw")
	result := f.signIn("alice", "pw")

	f.advance(testConfig().RefreshTokenTTL + time.Minute)

	_, err := f.container.Auth.Refresh(f.ctx, result.RefreshToken)
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	sessions, err := f.container.Auth.FindSessions(f.ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, sessions, 1, "an expired session is not deleted by refresh")

	// it can still be signed out explicitly
	require.NoError(t, f.container.Auth.SignOut(f.ctx, result.RefreshToken))
}

func TestFlow_DoubleSignOut(t *testing.T) {
	f := newFlow(t)
	f.signUp("alice", "pw")
	result := f.signIn("alice", "pw")

	require.NoError(t, f.container.Auth.SignOut(f.ctx, result.RefreshToken))
	assert.ErrorIs(t, f.container.Auth.SignOut(f.ctx, result.RefreshToken), apperrors.ErrNotFound)

	_, err := f.container.Auth.Refresh(f.ctx, result.RefreshToken)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestFlow_SignOutAll(t *testing.T) {
	f := newFlow(t)
	alice := f.signUp("alice", "pw")
	f.signUp("bob", "pw")
	laptop := f.signIn("alice", "pw")
	phone := f.signIn("alice", "pw")
	bobs := f.signIn("bob", "pw")

	require.NoError(t, f.container.Auth.SignOutAll(f.ctx, "alice"))

	for _, token := range []string{laptop.RefreshToken, phone.RefreshToken} {
		_, err := f.container.Auth.Refresh(f.ctx, token)
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	}
	sessions, err := f.container.Auth.FindSessions(f.ctx, alice.ID)
	require.NoError(t, err)
	assert.Empty(t, sessions)

	_, err = f.container.Auth.Refresh(f.ctx, bobs.RefreshToken)
	assert.NoError(t, err, "other users keep their sessions")

	assert.ErrorIs(t, f.container.Auth.SignOutAll(f.ctx, "ghost"), apperrors.ErrForbidden)
}

func TestFlow_OwnershipIsolation(t *testing.T) {
	f := newFlow(t)
	alice := f.signUp("alice", "pw-alice")
	bob := f.signUp("bob", "pw-bob")
	f.signIn("alice", "pw-alice")
	bobSession := f.signIn("bob", "pw-bob")

	bobSessions, err := f.container.Auth.FindSessions(f.ctx, bob.ID)
	require.NoError(t, err)
	require.Len(t, bobSessions, 1)

	err = f.container.Auth.TerminateSession(f.ctx, alice.ID, bobSessions[0].ID)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	_, err = f.container.Auth.Refresh(f.ctx, bobSession.RefreshToken)
	assert.NoError(t, err, "bob's session survives alice's attempt")

	// the owner guard in front of change-password
	aliceIdentity := alice.Signed()
	assert.ErrorIs(t, middleware.CheckOwner(&aliceIdentity, bob.ID), apperrors.ErrForbidden)
	_, err = f.container.Auth.ValidateUser(f.ctx, "bob", "pw-bob")
	assert.NoError(t, err)

	assert.ErrorIs(t, f.container.Auth.TerminateSession(f.ctx, bob.ID, "no-such-session"), apperrors.ErrNotFound)
}

func TestFlow_RolesAreReadFromTheStore(t *testing.T) {
	f := newFlow(t)
	alice := f.signUp("alice", "pw")
	stale, err := f.container.Token.ValidateAccessToken(f.ctx, f.signIn("alice", "pw").AccessToken)
	require.NoError(t, err)
	assert.Equal(t, []string{"user"}, stale.Roles)

	admin := []domain.Role{domain.RoleAdmin}
	current := func() []string {
		roles, err := f.container.User.GetUserRoles(f.ctx, alice.ID)
		require.NoError(t, err)
		return roles
	}

	assert.ErrorIs(t, middleware.CheckRoles(current(), admin), apperrors.ErrForbidden)

	_, err = f.container.User.PromoteRole(f.ctx, alice.ID, domain.RoleAdmin)
	require.NoError(t, err)
	assert.NoError(t, middleware.CheckRoles(current(), admin), "promotion applies before the token is renewed")

	_, err = f.container.User.PromoteRole(f.ctx, alice.ID, domain.RoleAdmin)
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = f.container.User.FullUpdateUser(f.ctx, alice.ID, dto.FullUpdateUserRequest{Roles: []string{"user"}})
	require.NoError(t, err)
	assert.ErrorIs(t, middleware.CheckRoles(current(), admin), apperrors.ErrForbidden, "demotion applies immediately")
}

func TestFlow_WrongOldPasswordLeavesHash(t *testing.T) {
	f := newFlow(t)
	alice := f.signUp("alice", "original")
	before, err := f.repos.UserRepo.FindUserByID(f.ctx, alice.ID)
	require.NoError(t, err)

	err = f.container.Auth.ChangePassword(f.ctx, alice.ID, "guess", "replacement")
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	after, err := f.repos.UserRepo.FindUserByID(f.ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, before.PasswordHash, after.PasswordHash)
	_, err = f.container.Auth.ValidateUser(f.ctx, "alice", "original")
	assert.NoError(t, err)
}

func TestFlow_ChangePasswordRevokesSessions(t *testing.T) {
	f := newFlow(t)
	alice := f.signUp("alice", "original")
	session := f.signIn("alice", "original")

	require.NoError(t, f.container.Auth.ChangePassword(f.ctx, alice.ID, "original", "replacement"))

	_, err := f.container.Auth.Refresh(f.ctx, session.RefreshToken)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	_, err = f.container.Auth.ValidateUser(f.ctx, "alice", "original")
	assert.ErrorIs(t, err, apperrors.ErrUnauthenticated)
	f.signIn("alice", "replacement")
}

func TestFlow_PasswordRecovery(t *testing.T) {
	f := newFlow(t)
	f.signUp("alice", "forgotten")
	session := f.signIn("alice", "forgotten")
	emailToken := f.tokenFromLastMail()

	require.NoError(t, f.container.Auth.SendRecoveryPasswordToken(f.ctx, "alice@example.com"))
	recoveryToken := f.tokenFromLastMail()

	// tokens of another purpose are refused
	assert.ErrorIs(t, f.container.Auth.RecoveryPassword(f.ctx, emailToken, "new-one"), apperrors.ErrValidation)

	require.NoError(t, f.container.Auth.RecoveryPassword(f.ctx, recoveryToken, "new-one"))
	f.signIn("alice", "new-one")

	_, err := f.container.Auth.Refresh(f.ctx, session.RefreshToken)
	assert.ErrorIs(t, err, apperrors.ErrNotFound, "recovery revokes existing sessions")

	sent := len(f.notifier.sent)
	require.NoError(t, f.container.Auth.SendRecoveryPasswordToken(f.ctx, "nobody@example.com"))
	assert.Len(t, f.notifier.sent, sent, "unknown addresses get no mail and no error")
}

func TestFlow_ChangeEmail(t *testing.T) {
	f := newFlow(t)
	alice := f.signUp("alice", "pw")
	f.signUp("bob", "pw")

	assert.ErrorIs(t, f.container.Auth.RequestChangeEmail(f.ctx, alice.ID, "bob@example.com"), apperrors.ErrDuplicate)
	assert.ErrorIs(t, f.container.Auth.RequestChangeEmail(f.ctx, alice.ID, "alice@example.com"), apperrors.ErrValidation)

	require.NoError(t, f.container.Auth.RequestChangeEmail(f.ctx, alice.ID, "alice.new@example.com"))
	assert.Equal(t, "alice.new@example.com", f.notifier.last().To)
	changeToken := f.tokenFromLastMail()

	updated, err := f.container.Auth.ChangeEmail(f.ctx, changeToken)
	require.NoError(t, err)
	assert.Equal(t, "alice.new@example.com", updated.Email)
	assert.True(t, updated.EmailVerified)

	_, err = f.container.Auth.ChangeEmail(f.ctx, changeToken)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestFlow_ChangeEmailTakenMeanwhile(t *testing.T) {
	f := newFlow(t)
	alice := f.signUp("alice", "pw")

	require.NoError(t, f.container.Auth.RequestChangeEmail(f.ctx, alice.ID, "wanted@example.com"))
	changeToken := f.tokenFromLastMail()

	_, err := f.container.Auth.SignUp(f.ctx, dto.SignUpRequest{Username: "carol", Password: "pw", Email: "wanted@example.com"})
	require.NoError(t, err)

	_, err = f.container.Auth.ChangeEmail(f.ctx, changeToken)
	assert.ErrorIs(t, err, apperrors.ErrDuplicate)
}

func TestFlow_SignUpConflicts(t *testing.T) {
	f := newFlow(t)
	f.signUp("alice", "pw")

	_, err := f.container.Auth.SignUp(f.ctx, dto.SignUpRequest{Username: "alice", Password: "pw", Email: "other@example.com"})
	assert.ErrorIs(t, err, apperrors.ErrDuplicate)
	_, err = f.container.Auth.SignUp(f.ctx, dto.SignUpRequest{Username: "alice2", Password: "pw", Email: "alice@example.com"})
	assert.ErrorIs(t, err, apperrors.ErrDuplicate)
}

func TestFlow_DeleteUserRemovesSessions(t *testing.T) {
	f := newFlow(t)
	alice := f.signUp("alice", "pw")
	session := f.signIn("alice", "pw")

	require.NoError(t, f.container.User.DeleteUser(f.ctx, alice.ID))

	_, err := f.container.Auth.Refresh(f.ctx, session.RefreshToken)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.ErrorIs(t, f.container.User.DeleteUser(f.ctx, alice.ID), apperrors.ErrNotFound)
}

func TestFlow_AdminPasswordResetRevokesSessions(t *testing.T) {
	f := newFlow(t)
	alice := f.signUp("alice", "original")
	session := f.signIn("alice", "original")

	password := "set-by-admin"
	_, err := f.container.User.FullUpdateUser(f.ctx, alice.ID, dto.FullUpdateUserRequest{Password: &password})
	require.NoError(t, err)

	_, err = f.container.Auth.Refresh(f.ctx, session.RefreshToken)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	f.signIn("alice", "set-by-admin")
}
