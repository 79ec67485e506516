package dto

import (
	"time"

	"github.com/SscSPs/auth_session_service/internal/core/domain"
)

// UserResponse is the outward representation of a user. It has no password field.
type UserResponse struct {
	ID            string    `json:"id"`
	Username      string    `json:"username"`
	Email         string    `json:"email"`
	EmailVerified bool      `json:"emailVerified"`
	Roles         []string  `json:"roles"`
	Avatar        *string   `json:"avatar,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func ToUserResponse(user *domain.User) UserResponse {
	roles := user.Roles
	if roles == nil {
		roles = []string{}
	}
	return UserResponse{
		ID:            user.GetUserID(),
		Username:      user.GetUsername(),
		Email:         user.GetEmail(),
		EmailVerified: user.EmailVerified,
		Roles:         roles,
		Avatar:        user.Avatar,
		CreatedAt:     user.CreatedAt,
		UpdatedAt:     user.UpdatedAt,
	}
}
