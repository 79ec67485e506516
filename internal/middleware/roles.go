package middleware

import (
	"context"
	"errors"
	"log/slog"

	"github.com/SscSPs/auth_session_service/internal/apperrors"
	"github.com/SscSPs/auth_session_service/internal/core/domain"
	"github.com/gin-gonic/gin"
)

// RoleLookup returns the roles a user holds in the store right now.
type RoleLookup interface {
	GetUserRoles(ctx context.Context, userID string) ([]string, error)
}

// CheckRoles allows when nothing is required, otherwise held must intersect required.
func CheckRoles(held []string, required []domain.Role) error {
	if len(required) == 0 {
		return nil
	}
	if !domain.HasAnyRole(held, required...) {
		return apperrors.NewForbidden("Insufficient role")
	}
	return nil
}

// Roles requires the authenticated user to currently hold one of required.
// Roles are re-read through lookup, so a demotion takes effect before the
// access token expires. It must run after Authenticated.
func Roles(lookup RoleLookup, required ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		if len(required) == 0 {
			c.Next()
			return
		}
		identity, ok := GetIdentityFromContext(c)
		if !ok {
			abortWithError(c, apperrors.NewUnauthenticated("Authentication required"))
			return
		}

		logger := GetLoggerFromCtx(c.Request.Context())
		held, err := lookup.GetUserRoles(c.Request.Context(), identity.ID)
		if err != nil {
			logger.Warn("Role lookup failed", slog.String("error", err.Error()))
			if errors.Is(err, apperrors.ErrNotFound) {
				err = apperrors.NewForbidden("Insufficient role")
			}
			abortWithError(c, err)
			return
		}
		if err := CheckRoles(held, required); err != nil {
			logger.Warn("Role check failed", slog.Any("held", held))
			abortWithError(c, err)
			return
		}
		c.Next()
	}
}
