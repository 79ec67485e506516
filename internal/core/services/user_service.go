package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/SscSPs/auth_session_service/internal/apperrors"
	"github.com/SscSPs/auth_session_service/internal/core/domain"
	portsrepo "github.com/SscSPs/auth_session_service/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/auth_session_service/internal/core/ports/services"
	"github.com/SscSPs/auth_session_service/internal/dto"
	"github.com/google/uuid"
)

type UserService struct {
	BaseService
	userRepo    portsrepo.UserRepositoryFacade
	sessionRepo portsrepo.SessionRepository
	hasher      portssvc.PasswordHasher
}

func NewUserService(userRepo portsrepo.UserRepositoryFacade, sessionRepo portsrepo.SessionRepository, hasher portssvc.PasswordHasher) *UserService {
	return &UserService{userRepo: userRepo, sessionRepo: sessionRepo, hasher: hasher}
}

var _ portssvc.UserSvcFacade = (*UserService)(nil)

func (s *UserService) CreateUser(ctx context.Context, req dto.CreateUserRequest) (*domain.User, error) {
	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	roles := req.Roles
	if len(roles) == 0 {
		roles = domain.DefaultRoles()
	}

	now := time.Now().UTC()
	user := domain.User{
		ID:            uuid.NewString(),
		Username:      req.Username,
		Email:         req.Email,
		PasswordHash:  hash,
		EmailVerified: req.EmailVerified,
		Roles:         slices.Compact(slices.Sorted(slices.Values(roles))),
		AuditFields:   domain.AuditFields{CreatedAt: now, UpdatedAt: now},
	}

	if err := s.userRepo.SaveUser(ctx, user); err != nil {
		if errors.Is(err, apperrors.ErrDuplicate) {
			return nil, apperrors.NewConflict("Username or email already in use")
		}
		s.LogError(ctx, err, "Failed to create user", slog.String("username", req.Username))
		return nil, fmt.Errorf("failed to create user in service: %w", err)
	}
	s.LogInfo(ctx, "User created", slog.String("user_id", user.ID))
	return &user, nil
}

func (s *UserService) GetUserByID(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.userRepo.FindUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NewNotFound("User not found")
		}
		return nil, fmt.Errorf("failed to get user by ID in service: %w", err)
	}
	return user, nil
}

func (s *UserService) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	user, err := s.userRepo.FindUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NewNotFound("User not found")
		}
		return nil, fmt.Errorf("failed to get user by username in service: %w", err)
	}
	return user, nil
}

// GetUserRoles reads the roles a user holds now; the role guard depends on it.
func (s *UserService) GetUserRoles(ctx context.Context, userID string) ([]string, error) {
	user, err := s.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return user.Roles, nil
}

func (s *UserService) ListUsers(ctx context.Context, skip, take int) ([]domain.User, error) {
	users, err := s.userRepo.FindUsers(ctx, take, skip)
	if err != nil {
		return nil, fmt.Errorf("failed to list users in service: %w", err)
	}
	return users, nil
}

func (s *UserService) UpdateUser(ctx context.Context, userID string, req dto.UpdateUserRequest) (*domain.User, error) {
	patch := domain.UserPatch{Username: req.Username, Avatar: req.Avatar}
	return s.applyPatch(ctx, userID, patch)
}

func (s *UserService) FullUpdateUser(ctx context.Context, userID string, req dto.FullUpdateUserRequest) (*domain.User, error) {
	patch := domain.UserPatch{
		Username:      req.Username,
		Email:         req.Email,
		EmailVerified: req.EmailVerified,
		Avatar:        req.Avatar,
	}
	if req.Roles != nil {
		patch.Roles = slices.Compact(slices.Sorted(slices.Values(req.Roles)))
	}
	if req.Password != nil {
		hash, err := s.hasher.Hash(*req.Password)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		patch.PasswordHash = &hash
	}
	user, err := s.applyPatch(ctx, userID, patch)
	if err != nil {
		return nil, err
	}

	// a password set by an administrator ends every session, as a password change does
	if req.Password != nil {
		count, err := s.sessionRepo.DeleteSessionsByUserID(ctx, userID)
		if err != nil {
			s.LogError(ctx, err, "Failed to revoke sessions after password reset", slog.String("user_id", userID))
			return nil, fmt.Errorf("failed to revoke sessions: %w", err)
		}
		s.LogInfo(ctx, "Sessions revoked after password reset", slog.String("user_id", userID), slog.Int64("sessions", count))
	}
	return user, nil
}

func (s *UserService) PromoteRole(ctx context.Context, userID string, role domain.Role) (*domain.User, error) {
	user, err := s.userRepo.FindUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NewBadRequest("User not found")
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user.HasRole(role) {
		return nil, apperrors.NewBadRequest("User already has role " + string(role))
	}
	roles := append(slices.Clone(user.Roles), string(role))
	s.LogInfo(ctx, "Promoting user", slog.String("user_id", userID), slog.String("role", string(role)))
	return s.applyPatch(ctx, userID, domain.UserPatch{Roles: roles})
}

func (s *UserService) applyPatch(ctx context.Context, userID string, patch domain.UserPatch) (*domain.User, error) {
	if patch.IsEmpty() {
		return s.GetUserByID(ctx, userID)
	}
	user, err := s.userRepo.UpdateUser(ctx, userID, patch)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrNotFound):
			return nil, apperrors.NewNotFound("User not found")
		case errors.Is(err, apperrors.ErrDuplicate):
			return nil, apperrors.NewConflict("Username or email already in use")
		}
		s.LogError(ctx, err, "Failed to update user", slog.String("user_id", userID))
		return nil, fmt.Errorf("failed to update user in service: %w", err)
	}
	return user, nil
}

func (s *UserService) DeleteUser(ctx context.Context, userID string) error {
	if err := s.userRepo.DeleteUser(ctx, userID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.NewNotFound("User not found")
		}
		return fmt.Errorf("failed to delete user in service: %w", err)
	}
	s.LogInfo(ctx, "User deleted", slog.String("user_id", userID))
	return nil
}

func (s *UserService) DeleteUsersByUsernames(ctx context.Context, usernames []string) (int64, error) {
	count, err := s.userRepo.DeleteUsersByUsernames(ctx, usernames)
	if err != nil {
		return 0, fmt.Errorf("failed to delete users in service: %w", err)
	}
	s.LogInfo(ctx, "Users deleted", slog.Int64("count", count))
	return count, nil
}
