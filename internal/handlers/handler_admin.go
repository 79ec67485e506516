package handlers

import (
	"log/slog"
	"net/http"

	"github.com/SscSPs/auth_session_service/internal/core/domain"
	portssvc "github.com/SscSPs/auth_session_service/internal/core/ports/services"
	"github.com/SscSPs/auth_session_service/internal/dto"
	"github.com/SscSPs/auth_session_service/internal/middleware"
	"github.com/gin-gonic/gin"
)

// adminHandler serves user administration. Every route requires the admin role.
type adminHandler struct {
	userService portssvc.UserSvcFacade
}

func newAdminHandler(us portssvc.UserSvcFacade) *adminHandler {
	return &adminHandler{userService: us}
}

func registerAdminRoutes(rg *gin.RouterGroup, services *portssvc.ServiceContainer) {
	h := newAdminHandler(services.User)

	admin := rg.Group("/admin",
		middleware.Authenticated(services.Token),
		middleware.Roles(services.User, domain.RoleAdmin),
	)
	{
		admin.GET("/users", h.listUsers)
		admin.POST("/users", h.createUser)
		admin.PUT("/users/:id", h.fullUpdateUser)
		admin.DELETE("/users/:id", h.deleteUser)
	}
}

// listUsers godoc
// @Summary List users
// @Tags admin
// @Produce json
// @Param skip query int false "Rows to skip" default(0)
// @Param take query int false "Rows to return" default(20)
// @Success 200 {object} dto.ListUsersResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /admin/users [get]
func (h *adminHandler) listUsers(c *gin.Context) {
	var params dto.ListUsersParams
	if err := c.ShouldBindQuery(&params); err != nil {
		respondBindError(c, err)
		return
	}
	users, err := h.userService.ListUsers(c.Request.Context(), params.Skip, params.Take)
	if err != nil {
		respondWithError(c, err, "Failed to list users")
		return
	}
	c.JSON(http.StatusOK, dto.ToListUserResponse(users, params))
}

// createUser godoc
// @Summary Create a new user
// @Description Creates a user with explicit roles and verification state.
// @Tags admin
// @Accept json
// @Produce json
// @Param user body dto.CreateUserRequest true "User details"
// @Success 201 {object} dto.UserResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /admin/users [post]
func (h *adminHandler) createUser(c *gin.Context) {
	var req dto.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	user, err := h.userService.CreateUser(c.Request.Context(), req)
	if err != nil {
		respondWithError(c, err, "Failed to create user")
		return
	}
	middleware.GetLoggerFromCtx(c.Request.Context()).Info("User created by admin", slog.String("new_user_id", user.ID))
	c.JSON(http.StatusCreated, dto.ToUserResponse(user))
}

// fullUpdateUser godoc
// @Summary Update any field of a user
// @Tags admin
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param user body dto.FullUpdateUserRequest true "Fields to update"
// @Success 200 {object} dto.UserResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /admin/users/{id} [put]
func (h *adminHandler) fullUpdateUser(c *gin.Context) {
	var req dto.FullUpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	user, err := h.userService.FullUpdateUser(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondWithError(c, err, "Failed to update user")
		return
	}
	c.JSON(http.StatusOK, dto.ToUserResponse(user))
}

// deleteUser godoc
// @Summary Remove a user
// @Tags admin
// @Param id path string true "User ID"
// @Success 204
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /admin/users/{id} [delete]
func (h *adminHandler) deleteUser(c *gin.Context) {
	if err := h.userService.DeleteUser(c.Request.Context(), c.Param("id")); err != nil {
		respondWithError(c, err, "Failed to delete user")
		return
	}
	c.Status(http.StatusNoContent)
}
