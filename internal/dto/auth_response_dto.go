package dto

import (
	"time"

	"github.com/SscSPs/auth_session_service/internal/core/domain"
)

// AuthResponse is returned by sign-in and refresh.
type AuthResponse struct {
	User                  UserResponse `json:"user"`
	AccessToken           string       `json:"accessToken"`
	AccessTokenExpiresAt  time.Time    `json:"accessTokenExpiresAt"`
	RefreshToken          string       `json:"refreshToken"`
	RefreshTokenExpiresAt time.Time    `json:"refreshTokenExpiresAt"`
}

// ToAuthResponse converts a domain.AuthResult to AuthResponse.
func ToAuthResponse(res *domain.AuthResult) AuthResponse {
	return AuthResponse{
		User:                  ToUserResponse(&res.User),
		AccessToken:           res.AccessToken,
		AccessTokenExpiresAt:  res.AccessTokenExpiresAt,
		RefreshToken:          res.RefreshToken,
		RefreshTokenExpiresAt: res.RefreshTokenExpiresAt,
	}
}

// SessionResponse describes one signed-in device. Token is the stored fingerprint.
type SessionResponse struct {
	ID        string    `json:"id"`
	Token     string    `json:"token"`
	UserID    string    `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ToSessionResponseList converts sessions to their response form.
func ToSessionResponseList(sessions []domain.Session) []SessionResponse {
	out := make([]SessionResponse, len(sessions))
	for i, s := range sessions {
		out[i] = SessionResponse{
			ID:        s.ID,
			Token:     s.Token,
			UserID:    s.UserID,
			CreatedAt: s.CreatedAt,
			UpdatedAt: s.UpdatedAt,
		}
	}
	return out
}

// TokenResponse carries a single issued token (dev helpers).
type TokenResponse struct {
	Token string `json:"token"`
}

// MessageResponse is a plain acknowledgement.
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse is the error body shared by handlers and guards.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}
