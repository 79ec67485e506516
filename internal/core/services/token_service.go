package services

import (
	"context"
	"time"

	"github.com/SscSPs/auth_session_service/internal/core/domain"
	portssvc "github.com/SscSPs/auth_session_service/internal/core/ports/services"
	"github.com/SscSPs/auth_session_service/internal/platform/config"
	"github.com/SscSPs/auth_session_service/internal/utils"
)

// TokenService issues and validates access tokens.
type TokenService struct {
	BaseService
	issuer string
	access utils.SigningKey
}

// NewTokenService creates a TokenService from the access-token settings.
func NewTokenService(cfg *config.Config) *TokenService {
	return &TokenService{
		issuer: cfg.JWTIssuer,
		access: utils.SigningKey{Secret: cfg.AccessTokenSecret, Expiry: cfg.AccessTokenExpiry},
	}
}

var _ portssvc.TokenSvcFacade = (*TokenService)(nil)

// GenerateAccessToken signs the reduced user projection.
func (s *TokenService) GenerateAccessToken(ctx context.Context, user *domain.User) (string, time.Time, error) {
	token, expiresAt, err := utils.SignToken(user.Signed(), s.access, s.issuer, string(domain.PurposeAccess))
	if err != nil {
		s.LogError(ctx, err, "Failed to sign access token")
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

// ValidateAccessToken verifies an access token and returns the identity it carries.
func (s *TokenService) ValidateAccessToken(ctx context.Context, token string) (*domain.SignedUser, error) {
	return utils.VerifyToken[domain.SignedUser](token, s.access.Secret, s.issuer, string(domain.PurposeAccess))
}
