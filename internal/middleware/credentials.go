package middleware

import (
	"context"

	"github.com/SscSPs/auth_session_service/internal/apperrors"
	"github.com/SscSPs/auth_session_service/internal/core/domain"
	"github.com/SscSPs/auth_session_service/internal/dto"
	"github.com/gin-gonic/gin"
)

// CredentialValidator checks a username and password pair.
type CredentialValidator interface {
	ValidateUser(ctx context.Context, username, password string) (*domain.User, error)
}

// Credentials is the pre-authentication guard of sign-in. It binds the
// credentials body and lets the request through only for a valid pair.
func Credentials(validator CredentialValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req dto.SignInRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			abortWithError(c, apperrors.NewBadRequest("Invalid request body: "+err.Error()))
			return
		}

		user, err := validator.ValidateUser(c.Request.Context(), req.Username, req.Password)
		if err != nil {
			abortWithError(c, err)
			return
		}
		if user == nil {
			abortWithError(c, apperrors.NewUnauthenticated("Invalid username or password"))
			return
		}

		c.Set(string(validatedUserKey), user)
		c.Next()
	}
}
