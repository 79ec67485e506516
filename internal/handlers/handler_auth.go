package handlers

import (
	"log/slog"
	"net/http"

	"github.com/SscSPs/auth_session_service/internal/apperrors"
	portssvc "github.com/SscSPs/auth_session_service/internal/core/ports/services"
	"github.com/SscSPs/auth_session_service/internal/dto"
	"github.com/SscSPs/auth_session_service/internal/middleware"
	"github.com/gin-gonic/gin"
)

// authHandler handles sign-up, sessions and token redemption.
type authHandler struct {
	authService portssvc.AuthSvcFacade
}

func newAuthHandler(as portssvc.AuthSvcFacade) *authHandler {
	return &authHandler{authService: as}
}

// registerAuthRoutes sets up the routes for authentication.
func registerAuthRoutes(rg *gin.RouterGroup, services *portssvc.ServiceContainer) {
	h := newAuthHandler(services.Auth)
	authenticated := middleware.Authenticated(services.Token)

	auth := rg.Group("/auth")
	{
		auth.POST("/sign-up", h.signUp)
		auth.POST("/sign-in", middleware.Credentials(services.Auth), h.signIn)
		auth.POST("/refresh", h.refresh)
		auth.POST("/sign-out", authenticated, h.signOut)
		auth.POST("/sign-out-all", authenticated, h.signOutAll)
		auth.GET("/sessions", authenticated, h.findSessions)
		auth.DELETE("/sessions/:id", authenticated, h.terminateSession)
		auth.POST("/verify-email", h.verifyEmail)
		auth.POST("/resend-verification", authenticated, h.resendVerification)
		auth.POST("/password-recovery", h.sendRecoveryPasswordToken)
		auth.POST("/password-recovery/redeem", h.recoveryPassword)
		auth.POST("/change-email", authenticated, h.requestChangeEmail)
		auth.POST("/change-email/redeem", h.changeEmail)
	}
}

// signUp godoc
// @Summary Register new user
// @Description Creates an unverified account and mails an email verification link.
// @Tags auth
// @Accept json
// @Produce json
// @Param signUp body dto.SignUpRequest true "Account details"
// @Success 201 {object} dto.UserResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse "Username or email already in use"
// @Failure 500 {object} dto.ErrorResponse
// @Router /auth/sign-up [post]
func (h *authHandler) signUp(c *gin.Context) {
	var req dto.SignUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	user, err := h.authService.SignUp(c.Request.Context(), req)
	if err != nil {
		respondWithError(c, err, "Failed to register user")
		return
	}
	c.JSON(http.StatusCreated, dto.ToUserResponse(user))
}

// signIn godoc
// @Summary User sign-in
// @Description Checks credentials and opens a new session.
// @Tags auth
// @Accept json
// @Produce json
// @Param signIn body dto.SignInRequest true "Credentials"
// @Success 200 {object} dto.AuthResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /auth/sign-in [post]
func (h *authHandler) signIn(c *gin.Context) {
	user, ok := middleware.GetValidatedUserFromContext(c)
	if !ok {
		respondWithError(c, apperrors.NewUnauthenticated("Invalid username or password"), "Sign-in rejected")
		return
	}
	result, err := h.authService.SignIn(c.Request.Context(), user.Username)
	if err != nil {
		respondWithError(c, err, "Failed to sign in")
		return
	}
	c.JSON(http.StatusOK, dto.ToAuthResponse(result))
}

// refresh godoc
// @Summary Rotate a refresh token
// @Description Exchanges a refresh token for a new token pair. The presented token stops working.
// @Tags auth
// @Accept json
// @Produce json
// @Param refresh body dto.RefreshTokenRequest true "Refresh token"
// @Success 200 {object} dto.AuthResponse
// @Failure 400 {object} dto.ErrorResponse "Refresh token expired"
// @Failure 404 {object} dto.ErrorResponse "Session not found"
// @Failure 500 {object} dto.ErrorResponse
// @Router /auth/refresh [post]
func (h *authHandler) refresh(c *gin.Context) {
	var req dto.RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	result, err := h.authService.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		respondWithError(c, err, "Failed to refresh session")
		return
	}
	c.JSON(http.StatusOK, dto.ToAuthResponse(result))
}

// signOut godoc
// @Summary Sign out of one session
// @Tags auth
// @Accept json
// @Produce json
// @Param signOut body dto.RefreshTokenRequest true "Refresh token of the session"
// @Success 204
// @Failure 401 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse "Session not found"
// @Security BearerAuth
// @Router /auth/sign-out [post]
func (h *authHandler) signOut(c *gin.Context) {
	var req dto.RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	if err := h.authService.SignOut(c.Request.Context(), req.RefreshToken); err != nil {
		respondWithError(c, err, "Failed to sign out")
		return
	}
	c.Status(http.StatusNoContent)
}

// signOutAll godoc
// @Summary Sign out of every session
// @Tags auth
// @Produce json
// @Success 204
// @Failure 401 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /auth/sign-out-all [post]
func (h *authHandler) signOutAll(c *gin.Context) {
	identity, ok := middleware.GetIdentityFromContext(c)
	if !ok {
		respondWithError(c, apperrors.NewUnauthenticated("Unauthorized"), "Unauthorized")
		return
	}
	if err := h.authService.SignOutAllByID(c.Request.Context(), identity.ID); err != nil {
		respondWithError(c, err, "Failed to sign out everywhere")
		return
	}
	c.Status(http.StatusNoContent)
}

// findSessions godoc
// @Summary List own sessions
// @Tags auth
// @Produce json
// @Success 200 {array} dto.SessionResponse
// @Failure 401 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /auth/sessions [get]
func (h *authHandler) findSessions(c *gin.Context) {
	userID, ok := identityOrAbort(c)
	if !ok {
		return
	}
	sessions, err := h.authService.FindSessions(c.Request.Context(), userID)
	if err != nil {
		respondWithError(c, err, "Failed to list sessions")
		return
	}
	c.JSON(http.StatusOK, dto.ToSessionResponseList(sessions))
}

// terminateSession godoc
// @Summary Terminate one of own sessions
// @Tags auth
// @Produce json
// @Param id path string true "Session ID"
// @Success 204
// @Failure 401 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse "Session belongs to another user"
// @Failure 404 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /auth/sessions/{id} [delete]
func (h *authHandler) terminateSession(c *gin.Context) {
	userID, ok := identityOrAbort(c)
	if !ok {
		return
	}
	sessionID := c.Param("id")
	if err := h.authService.TerminateSession(c.Request.Context(), userID, sessionID); err != nil {
		respondWithError(c, err, "Failed to terminate session")
		return
	}
	middleware.GetLoggerFromCtx(c.Request.Context()).Info("Session terminated", slog.String("session_id", sessionID))
	c.Status(http.StatusNoContent)
}

// verifyEmail godoc
// @Summary Redeem an email verification token
// @Tags auth
// @Accept json
// @Produce json
// @Param token body dto.TokenRequest true "Verification token"
// @Success 200 {object} dto.UserResponse
// @Failure 400 {object} dto.ErrorResponse "Invalid, expired or spent token"
// @Router /auth/verify-email [post]
func (h *authHandler) verifyEmail(c *gin.Context) {
	var req dto.TokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	user, err := h.authService.VerifyEmail(c.Request.Context(), req.Token)
	if err != nil {
		respondWithError(c, err, "Failed to verify email")
		return
	}
	c.JSON(http.StatusOK, dto.ToUserResponse(user))
}

// resendVerification godoc
// @Summary Mail a new email verification link
// @Tags auth
// @Produce json
// @Success 202 {object} dto.MessageResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /auth/resend-verification [post]
func (h *authHandler) resendVerification(c *gin.Context) {
	userID, ok := identityOrAbort(c)
	if !ok {
		return
	}
	if err := h.authService.ResendVerification(c.Request.Context(), userID); err != nil {
		respondWithError(c, err, "Failed to resend verification")
		return
	}
	c.JSON(http.StatusAccepted, dto.MessageResponse{Message: "Verification email sent"})
}

// sendRecoveryPasswordToken godoc
// @Summary Start password recovery
// @Description Mails a reset link when the address is registered. The response is the same either way.
// @Tags auth
// @Accept json
// @Produce json
// @Param recovery body dto.PasswordRecoveryRequest true "Account email"
// @Success 202 {object} dto.MessageResponse
// @Failure 400 {object} dto.ErrorResponse
// @Router /auth/password-recovery [post]
func (h *authHandler) sendRecoveryPasswordToken(c *gin.Context) {
	var req dto.PasswordRecoveryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	if err := h.authService.SendRecoveryPasswordToken(c.Request.Context(), req.Email); err != nil {
		respondWithError(c, err, "Failed to start password recovery")
		return
	}
	c.JSON(http.StatusAccepted, dto.MessageResponse{Message: "If the address is registered, a reset link has been sent"})
}

// recoveryPassword godoc
// @Summary Set a new password with a recovery token
// @Description Every session of the user is revoked.
// @Tags auth
// @Accept json
// @Produce json
// @Param redeem body dto.RedeemPasswordRecoveryRequest true "Token and new password"
// @Success 204
// @Failure 400 {object} dto.ErrorResponse
// @Router /auth/password-recovery/redeem [post]
func (h *authHandler) recoveryPassword(c *gin.Context) {
	var req dto.RedeemPasswordRecoveryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	if err := h.authService.RecoveryPassword(c.Request.Context(), req.Token, req.Password); err != nil {
		respondWithError(c, err, "Failed to reset password")
		return
	}
	c.Status(http.StatusNoContent)
}

// requestChangeEmail godoc
// @Summary Ask to change the account email
// @Description Mails a confirmation link to the new address.
// @Tags auth
// @Accept json
// @Produce json
// @Param changeEmail body dto.ChangeEmailRequest true "New email"
// @Success 202 {object} dto.MessageResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse "Email already in use"
// @Security BearerAuth
// @Router /auth/change-email [post]
func (h *authHandler) requestChangeEmail(c *gin.Context) {
	userID, ok := identityOrAbort(c)
	if !ok {
		return
	}
	var req dto.ChangeEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	if err := h.authService.RequestChangeEmail(c.Request.Context(), userID, req.Email); err != nil {
		respondWithError(c, err, "Failed to request email change")
		return
	}
	c.JSON(http.StatusAccepted, dto.MessageResponse{Message: "Confirmation sent to the new address"})
}

// changeEmail godoc
// @Summary Redeem a change-email token
// @Tags auth
// @Accept json
// @Produce json
// @Param token body dto.TokenRequest true "Change-email token"
// @Success 200 {object} dto.UserResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse "Email already in use"
// @Router /auth/change-email/redeem [post]
func (h *authHandler) changeEmail(c *gin.Context) {
	var req dto.TokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	user, err := h.authService.ChangeEmail(c.Request.Context(), req.Token)
	if err != nil {
		respondWithError(c, err, "Failed to change email")
		return
	}
	c.JSON(http.StatusOK, dto.ToUserResponse(user))
}
