package domain

import "time"

// TokenPurpose scopes a signed token to one use.
type TokenPurpose string

const (
	PurposeAccess           TokenPurpose = "access"
	PurposeEmailVerify      TokenPurpose = "email-verify"
	PurposePasswordRecovery TokenPurpose = "password-recovery"
	PurposeChangeEmail      TokenPurpose = "change-email"
)

// SignedUser is the user projection carried by access tokens. It excludes the
// password hash and updatedAt.
type SignedUser struct {
	ID            string    `json:"id" validate:"required"`
	Username      string    `json:"username" validate:"required"`
	Email         string    `json:"email" validate:"required"`
	EmailVerified bool      `json:"emailVerified"`
	Roles         []string  `json:"roles"`
	Avatar        *string   `json:"avatar,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

// EmailTokenPayload is carried by email-verification tokens.
type EmailTokenPayload struct {
	UserID string `json:"userId" validate:"required"`
	Email  string `json:"email" validate:"required,email"`
}

// RecoveryTokenPayload is carried by password-recovery tokens.
type RecoveryTokenPayload struct {
	UserID string `json:"userId" validate:"required"`
}

// ChangeEmailTokenPayload is carried by change-email tokens.
type ChangeEmailTokenPayload struct {
	UserID   string `json:"userId" validate:"required"`
	NewEmail string `json:"newEmail" validate:"required,email"`
}

// TokenPair is returned by sign-in and refresh.
type TokenPair struct {
	AccessToken           string
	AccessTokenExpiresAt  time.Time
	RefreshToken          string
	RefreshTokenExpiresAt time.Time
}

// AuthResult bundles issued tokens with the sanitized user.
type AuthResult struct {
	TokenPair
	User User
}
