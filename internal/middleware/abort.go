package middleware

import (
	"github.com/SscSPs/auth_session_service/internal/apperrors"
	"github.com/SscSPs/auth_session_service/internal/dto"
	"github.com/gin-gonic/gin"
)

// abortWithError stops the chain and writes the typed error body.
func abortWithError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(apperrors.StatusCode(err), dto.ErrorResponse{
		Error: apperrors.Message(err),
		Code:  apperrors.ErrorCode(err),
	})
}
