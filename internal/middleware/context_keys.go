package middleware

import (
	"context"

	"github.com/SscSPs/auth_session_service/internal/core/domain"
	"github.com/gin-gonic/gin"
)

const (
	identityKey         = contextKey("identity")
	validatedUserKey    = contextKey("validatedUser")
	authorizationBearer = "bearer"
)

// WithIdentity returns a copy of ctx carrying the authenticated identity.
func WithIdentity(ctx context.Context, identity *domain.SignedUser) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

// GetIdentityFromContext retrieves the authenticated identity set by Authenticated.
func GetIdentityFromContext(c *gin.Context) (*domain.SignedUser, bool) {
	identity, ok := c.Request.Context().Value(identityKey).(*domain.SignedUser)
	if !ok || identity == nil {
		return nil, false
	}
	return identity, true
}

// GetUserIDFromContext retrieves the authenticated user ID from the Gin context.
// It returns the user ID and a boolean indicating if it was found.
func GetUserIDFromContext(c *gin.Context) (string, bool) {
	identity, ok := GetIdentityFromContext(c)
	if !ok {
		return "", false
	}
	return identity.ID, true
}

// GetValidatedUserFromContext retrieves the user accepted by the Credentials guard.
func GetValidatedUserFromContext(c *gin.Context) (*domain.User, bool) {
	v, exists := c.Get(string(validatedUserKey))
	if !exists {
		return nil, false
	}
	user, ok := v.(*domain.User)
	return user, ok && user != nil
}
