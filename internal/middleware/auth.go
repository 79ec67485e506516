package middleware

import (
	"context"
	"log/slog"
	"strings"

	"github.com/SscSPs/auth_session_service/internal/apperrors"
	"github.com/SscSPs/auth_session_service/internal/core/domain"
	"github.com/gin-gonic/gin"
)

// AccessTokenValidator verifies access tokens.
type AccessTokenValidator interface {
	ValidateAccessToken(ctx context.Context, token string) (*domain.SignedUser, error)
}

// Authenticated requires a valid bearer access token. The verified identity is
// stored in the request context and the request logger gains a user_id field.
func Authenticated(tokens AccessTokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := GetLoggerFromCtx(c.Request.Context())

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			logger.Warn("Authorization header missing")
			abortWithError(c, apperrors.NewUnauthenticated("Authorization header required"))
			return
		}

		parts := strings.Fields(authHeader)
		if len(parts) != 2 || strings.ToLower(parts[0]) != authorizationBearer {
			logger.Warn("Authorization header format invalid")
			abortWithError(c, apperrors.NewUnauthenticated("Authorization header format must be Bearer {token}"))
			return
		}

		identity, err := tokens.ValidateAccessToken(c.Request.Context(), parts[1])
		if err != nil {
			logger.Warn("Invalid access token", slog.String("error", err.Error()))
			abortWithError(c, apperrors.NewUnauthenticated("Invalid token"))
			return
		}

		ctx := WithIdentity(c.Request.Context(), identity)
		ctx = WithLogger(ctx, logger.With(slog.String("user_id", identity.ID)))
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}
