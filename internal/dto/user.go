package dto

import (
	"github.com/SscSPs/auth_session_service/internal/core/domain"
)

// CreateUserRequest is the administrative create-user body.
type CreateUserRequest struct {
	Username      string   `json:"username" binding:"required,min=3,max=64"`
	Email         string   `json:"email" binding:"required,email"`
	Password      string   `json:"password" binding:"required,min=1"`
	EmailVerified bool     `json:"emailVerified"`
	Roles         []string `json:"roles" binding:"omitempty,dive,oneof=user admin"`
}

// UpdateUserRequest defines the data a user may change on their own profile.
// Using pointers to differentiate between omitted fields and zero-value fields.
type UpdateUserRequest struct {
	Username *string `json:"username" binding:"omitempty,min=3,max=64"`
	Avatar   *string `json:"avatar" binding:"omitempty,url"`
}

// FullUpdateUserRequest is the administrative update; omitted fields are left untouched.
type FullUpdateUserRequest struct {
	Username      *string  `json:"username" binding:"omitempty,min=3,max=64"`
	Email         *string  `json:"email" binding:"omitempty,email"`
	Password      *string  `json:"password" binding:"omitempty,min=1"`
	EmailVerified *bool    `json:"emailVerified"`
	Roles         []string `json:"roles" binding:"omitempty,dive,oneof=user admin"`
	Avatar        *string  `json:"avatar" binding:"omitempty,url"`
}

// PromoteRoleRequest adds a role to a user.
type PromoteRoleRequest struct {
	Role string `json:"role" binding:"required,oneof=user admin"`
}

// RemoveByUsernamesRequest lists usernames to remove.
type RemoveByUsernamesRequest struct {
	Usernames []string `json:"usernames" binding:"required,min=1,dive,required"`
}

// RemoveByUsernamesResponse reports how many users were removed.
type RemoveByUsernamesResponse struct {
	Count int64 `json:"count"`
}

// ListUsersParams defines query parameters for listing users.
type ListUsersParams struct {
	Skip int `form:"skip,default=0" binding:"min=0"`
	Take int `form:"take,default=20" binding:"min=1,max=100"`
}

// ListUsersResponse wraps the list of users.
type ListUsersResponse struct {
	Users []UserResponse `json:"users"`
	Skip  int            `json:"skip"`
	Take  int            `json:"take"`
}

// ToListUserResponse converts a slice of domain.User to ListUsersResponse DTO
func ToListUserResponse(users []domain.User, params ListUsersParams) ListUsersResponse {
	userResponses := make([]UserResponse, len(users))
	for i := range users {
		userResponses[i] = ToUserResponse(&users[i])
	}
	return ListUsersResponse{
		Users: userResponses,
		Skip:  params.Skip,
		Take:  params.Take,
	}
}
