package handlers

import (
	"log/slog"
	"net/http"

	"github.com/SscSPs/auth_session_service/internal/apperrors"
	"github.com/SscSPs/auth_session_service/internal/dto"
	"github.com/SscSPs/auth_session_service/internal/middleware"
	"github.com/gin-gonic/gin"
)

// respondWithError maps err to its status and writes the shared error body.
// Unclassified errors are logged and reported as a generic 500.
func respondWithError(c *gin.Context, err error, msg string) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	status := apperrors.StatusCode(err)
	if status >= http.StatusInternalServerError {
		logger.Error(msg, slog.String("error", err.Error()))
		c.JSON(status, dto.ErrorResponse{Error: msg, Code: apperrors.ErrorCode(err)})
		return
	}
	logger.Warn(msg, slog.String("error", err.Error()))
	c.JSON(status, dto.ErrorResponse{Error: apperrors.Message(err), Code: apperrors.ErrorCode(err)})
}

// respondBindError reports a request body or query that failed binding.
func respondBindError(c *gin.Context, err error) {
	respondWithError(c, apperrors.NewBadRequest("Invalid request format: "+err.Error()), "Invalid request")
}

// identityOrAbort returns the authenticated identity or writes 401.
func identityOrAbort(c *gin.Context) (string, bool) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		respondWithError(c, apperrors.NewUnauthenticated("Unauthorized"), "Unauthorized")
		return "", false
	}
	return userID, true
}
