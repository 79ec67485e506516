package handlers

import (
	"net/http"

	"github.com/SscSPs/auth_session_service/internal/core/domain"
	portssvc "github.com/SscSPs/auth_session_service/internal/core/ports/services"
	"github.com/SscSPs/auth_session_service/internal/dto"
	"github.com/SscSPs/auth_session_service/internal/middleware"
	"github.com/gin-gonic/gin"
)

// devHandler exposes test helpers. The routes answer 404 outside development and test.
type devHandler struct {
	userService         portssvc.UserSvcFacade
	verificationService portssvc.VerificationSvcFacade
}

func newDevHandler(us portssvc.UserSvcFacade, vs portssvc.VerificationSvcFacade) *devHandler {
	return &devHandler{userService: us, verificationService: vs}
}

func registerDevRoutes(rg *gin.RouterGroup, appEnv string, services *portssvc.ServiceContainer) {
	h := newDevHandler(services.User, services.Verification)

	dev := rg.Group("/dev", middleware.DevOnly(appEnv))
	{
		dev.POST("/users/remove-by-usernames", h.removeByUsernames)
		dev.POST("/users/:id/roles", h.promoteRole)
		dev.DELETE("/users/:id", h.removeUser)
		dev.POST("/users/:id/email-token", h.issueEmailToken)
		dev.POST("/users/:id/password-token", h.issuePasswordToken)
	}
}

// promoteRole godoc
// @Summary Add a role to a user
// @Tags dev
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param role body dto.PromoteRoleRequest true "Role"
// @Success 200 {object} dto.UserResponse
// @Failure 400 {object} dto.ErrorResponse "Missing user or role already held"
// @Router /dev/users/{id}/roles [post]
func (h *devHandler) promoteRole(c *gin.Context) {
	var req dto.PromoteRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	user, err := h.userService.PromoteRole(c.Request.Context(), c.Param("id"), domain.Role(req.Role))
	if err != nil {
		respondWithError(c, err, "Failed to promote user")
		return
	}
	c.JSON(http.StatusOK, dto.ToUserResponse(user))
}

// removeUser godoc
// @Summary Remove a user
// @Tags dev
// @Param id path string true "User ID"
// @Success 204
// @Failure 404 {object} dto.ErrorResponse
// @Router /dev/users/{id} [delete]
func (h *devHandler) removeUser(c *gin.Context) {
	if err := h.userService.DeleteUser(c.Request.Context(), c.Param("id")); err != nil {
		respondWithError(c, err, "Failed to delete user")
		return
	}
	c.Status(http.StatusNoContent)
}

// removeByUsernames godoc
// @Summary Remove several users
// @Tags dev
// @Accept json
// @Produce json
// @Param usernames body dto.RemoveByUsernamesRequest true "Usernames"
// @Success 200 {object} dto.RemoveByUsernamesResponse
// @Failure 400 {object} dto.ErrorResponse
// @Router /dev/users/remove-by-usernames [post]
func (h *devHandler) removeByUsernames(c *gin.Context) {
	var req dto.RemoveByUsernamesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	count, err := h.userService.DeleteUsersByUsernames(c.Request.Context(), req.Usernames)
	if err != nil {
		respondWithError(c, err, "Failed to delete users")
		return
	}
	c.JSON(http.StatusOK, dto.RemoveByUsernamesResponse{Count: count})
}

// issueEmailToken godoc
// @Summary Issue an email verification token
// @Tags dev
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} dto.TokenResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /dev/users/{id}/email-token [post]
func (h *devHandler) issueEmailToken(c *gin.Context) {
	user, err := h.userService.GetUserByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondWithError(c, err, "Failed to retrieve user")
		return
	}
	token, err := h.verificationService.IssueEmailToken(c.Request.Context(), domain.EmailTokenPayload{UserID: user.ID, Email: user.Email})
	if err != nil {
		respondWithError(c, err, "Failed to issue token")
		return
	}
	c.JSON(http.StatusOK, dto.TokenResponse{Token: token})
}

// issuePasswordToken godoc
// @Summary Issue a password recovery token
// @Tags dev
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} dto.TokenResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /dev/users/{id}/password-token [post]
func (h *devHandler) issuePasswordToken(c *gin.Context) {
	user, err := h.userService.GetUserByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondWithError(c, err, "Failed to retrieve user")
		return
	}
	token, err := h.verificationService.IssuePasswordToken(c.Request.Context(), domain.RecoveryTokenPayload{UserID: user.ID})
	if err != nil {
		respondWithError(c, err, "Failed to issue token")
		return
	}
	c.JSON(http.StatusOK, dto.TokenResponse{Token: token})
}
