package services

import (
	"context"

	"github.com/SscSPs/auth_session_service/internal/core/domain"
	"github.com/SscSPs/auth_session_service/internal/dto"
)

// UserReaderSvc defines read operations for user data
type UserReaderSvc interface {
	// GetUserByID retrieves a user by ID.
	GetUserByID(ctx context.Context, userID string) (*domain.User, error)

	// GetUserByUsername retrieves a user by username.
	GetUserByUsername(ctx context.Context, username string) (*domain.User, error)

	// ListUsers retrieves a paginated list of users.
	ListUsers(ctx context.Context, skip, take int) ([]domain.User, error)

	RoleLookup
}

// UserWriterSvc defines write operations for user data
type UserWriterSvc interface {
	// CreateUser creates a new user.
	CreateUser(ctx context.Context, req dto.CreateUserRequest) (*domain.User, error)

	// UpdateUser updates the profile fields a user may change themselves.
	UpdateUser(ctx context.Context, userID string, req dto.UpdateUserRequest) (*domain.User, error)

	// FullUpdateUser is the administrative update of every field.
	FullUpdateUser(ctx context.Context, userID string, req dto.FullUpdateUserRequest) (*domain.User, error)

	// PromoteRole adds role to the user.
	PromoteRole(ctx context.Context, userID string, role domain.Role) (*domain.User, error)
}

// UserLifecycleSvc defines operations for managing user lifecycle
type UserLifecycleSvc interface {
	// DeleteUser removes the user and all of their sessions.
	DeleteUser(ctx context.Context, userID string) error

	// DeleteUsersByUsernames removes several users at once.
	DeleteUsersByUsernames(ctx context.Context, usernames []string) (int64, error)
}

// UserSvcFacade combines all user-related service interfaces
type UserSvcFacade interface {
	UserReaderSvc
	UserWriterSvc
	UserLifecycleSvc
}
