package middleware

import (
	"github.com/SscSPs/auth_session_service/internal/apperrors"
	"github.com/gin-gonic/gin"
)

// DevOnly hides a route outside the development and test environments.
func DevOnly(appEnv string) gin.HandlerFunc {
	enabled := appEnv == "development" || appEnv == "test"
	return func(c *gin.Context) {
		if !enabled {
			abortWithError(c, apperrors.NewNotFound("Not found"))
			return
		}
		c.Next()
	}
}
