package dto

// SignUpRequest registers a new account.
type SignUpRequest struct {
	Username string `json:"username" binding:"required,min=3,max=64"`
	Password string `json:"password" binding:"required,min=1"`
	Email    string `json:"email" binding:"required,email"`
}

// SignInRequest carries the credentials checked by the credentials guard.
type SignInRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RefreshTokenRequest carries a raw refresh secret.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// TokenRequest carries a purpose-scoped token.
type TokenRequest struct {
	Token string `json:"token" binding:"required"`
}

// PasswordRecoveryRequest starts password recovery.
type PasswordRecoveryRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// RedeemPasswordRecoveryRequest sets a new password with a recovery token.
type RedeemPasswordRecoveryRequest struct {
	Token    string `json:"token" binding:"required"`
	Password string `json:"password" binding:"required,min=1"`
}

// ChangePasswordRequest changes the password of an authenticated user.
type ChangePasswordRequest struct {
	OldPassword string `json:"oldPassword" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required,min=1"`
}

// ChangeEmailRequest asks for a confirmation link at the new address.
type ChangeEmailRequest struct {
	Email string `json:"email" binding:"required,email"`
}
