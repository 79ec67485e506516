package handlers

import (
	"log/slog"
	"net/http"

	portssvc "github.com/SscSPs/auth_session_service/internal/core/ports/services"
	"github.com/SscSPs/auth_session_service/internal/dto"
	"github.com/SscSPs/auth_session_service/internal/middleware"

	"github.com/gin-gonic/gin"
)

// userHandler handles HTTP requests related to users.
type userHandler struct {
	userService portssvc.UserSvcFacade
	authService portssvc.AuthSvcFacade
}

// newUserHandler creates a new userHandler.
func newUserHandler(us portssvc.UserSvcFacade, as portssvc.AuthSvcFacade) *userHandler {
	return &userHandler{
		userService: us,
		authService: as,
	}
}

// registerUserRoutes registers all user-related routes.
func registerUserRoutes(rg *gin.RouterGroup, services *portssvc.ServiceContainer) {
	h := newUserHandler(services.User, services.Auth)
	authenticated := middleware.Authenticated(services.Token)

	users := rg.Group("/users")
	{
		users.GET("/me", authenticated, h.getMe)
		users.DELETE("/me", authenticated, middleware.Owner(middleware.OwnerSelf()), h.deleteMe)
		users.GET("/:id", h.getUser)
		users.PATCH("/:id", authenticated, middleware.Owner(middleware.OwnerParam("id")), h.updateUser)
		users.POST("/:id/password", authenticated, middleware.Owner(middleware.OwnerParam("id")), h.changePassword)
	}
}

// getMe godoc
// @Summary Get the signed-in user
// @Tags users
// @Produce json
// @Success 200 {object} dto.UserResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /users/me [get]
func (h *userHandler) getMe(c *gin.Context) {
	userID, ok := identityOrAbort(c)
	if !ok {
		return
	}
	user, err := h.userService.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		respondWithError(c, err, "Failed to retrieve user")
		return
	}
	c.JSON(http.StatusOK, dto.ToUserResponse(user))
}

// getUser godoc
// @Summary Get a user by ID
// @Description Retrieves details for a specific user by their ID
// @Tags users
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} dto.UserResponse
// @Failure 404 {object} dto.ErrorResponse "User not found"
// @Failure 500 {object} dto.ErrorResponse
// @Router /users/{id} [get]
func (h *userHandler) getUser(c *gin.Context) {
	user, err := h.userService.GetUserByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondWithError(c, err, "Failed to retrieve user")
		return
	}
	c.JSON(http.StatusOK, dto.ToUserResponse(user))
}

// updateUser godoc
// @Summary Update own profile
// @Description Changes username and avatar. Omitted fields are left untouched.
// @Tags users
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param user body dto.UpdateUserRequest true "Fields to update"
// @Success 200 {object} dto.UserResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse "Not the owner"
// @Failure 409 {object} dto.ErrorResponse "Username already in use"
// @Security BearerAuth
// @Router /users/{id} [patch]
func (h *userHandler) updateUser(c *gin.Context) {
	var req dto.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	user, err := h.userService.UpdateUser(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondWithError(c, err, "Failed to update user")
		return
	}
	c.JSON(http.StatusOK, dto.ToUserResponse(user))
}

// deleteMe godoc
// @Summary Remove own account
// @Description Deletes the account and every session of it.
// @Tags users
// @Success 204
// @Failure 401 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /users/me [delete]
func (h *userHandler) deleteMe(c *gin.Context) {
	userID, ok := identityOrAbort(c)
	if !ok {
		return
	}
	if err := h.userService.DeleteUser(c.Request.Context(), userID); err != nil {
		respondWithError(c, err, "Failed to delete user")
		return
	}
	middleware.GetLoggerFromCtx(c.Request.Context()).Info("Account removed by owner", slog.String("user_id", userID))
	c.Status(http.StatusNoContent)
}

// changePassword godoc
// @Summary Change own password
// @Description Every session of the user is revoked, including the current one.
// @Tags users
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param password body dto.ChangePasswordRequest true "Old and new password"
// @Success 204
// @Failure 400 {object} dto.ErrorResponse "Wrong old password or unchanged password"
// @Failure 401 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse "Not the owner"
// @Security BearerAuth
// @Router /users/{id}/password [post]
func (h *userHandler) changePassword(c *gin.Context) {
	var req dto.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	if err := h.authService.ChangePassword(c.Request.Context(), c.Param("id"), req.OldPassword, req.NewPassword); err != nil {
		respondWithError(c, err, "Failed to change password")
		return
	}
	c.Status(http.StatusNoContent)
}
