package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/KatanaSword/chit-chat/internal/repository"
	"github.com/KatanaSword/chit-chat/internal/transport/http/middleware"
	"github.com/KatanaSword/chit-chat/internal/usecase"
)

// PasswordHandler exposes the forgot-password flow and direct password
// changes.
type PasswordHandler struct {
	auth  *usecase.AuthService
	reset *usecase.PasswordResetService
}

// NewPasswordHandler constructs PasswordHandler.
func NewPasswordHandler(auth *usecase.AuthService, reset *usecase.PasswordResetService) *PasswordHandler {
	return &PasswordHandler{auth: auth, reset: reset}
}

// RegisterRoutes binds password routes. Forgot and reset are anonymous;
// change requires authentication.
func (h *PasswordHandler) RegisterRoutes(r *gin.RouterGroup, forgotLimit gin.HandlerFunc) {
	r.POST("/forgot", wrap(forgotLimit, h.forgot)...)
	r.POST("/reset", h.resetPassword)
	r.POST("/change", middleware.RequireAuth(h.auth), h.change)
}

func (h *PasswordHandler) forgot(c *gin.Context) {
	var req ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "identifier is required"))
		return
	}

	_, err := h.reset.Begin(c.Request.Context(), req.Identifier)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to start password reset"))
		return
	}

	// Unknown identifiers get the same answer so the endpoint cannot be used
	// to probe which accounts exist.
	c.JSON(http.StatusAccepted, MessageResponse{Message: "if the account exists, a reset token has been sent"})
}

func (h *PasswordHandler) resetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "token and new_password are required"))
		return
	}

	if err := h.reset.Reset(c.Request.Context(), req.Token, req.NewPassword); err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrSecretInvalid, Status: http.StatusBadRequest, Message: "reset token invalid"},
			{Err: usecase.ErrSecretExpired, Status: http.StatusGone, Message: "reset token expired"},
			{Err: usecase.ErrPasswordPolicyViolation, Status: http.StatusBadRequest, Message: "password does not meet requirements"},
		}, http.StatusInternalServerError, "failed to reset password")
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "password updated, sign in again"})
}

func (h *PasswordHandler) change(c *gin.Context) {
	userID, ok := middleware.GetAuthenticatedUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "current_password and new_password are required"))
		return
	}

	if err := h.reset.ChangePassword(c.Request.Context(), userID, req.CurrentPassword, req.NewPassword); err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrInvalidCredentials, Status: http.StatusUnauthorized, Message: "current password is incorrect"},
			{Err: usecase.ErrPasswordPolicyViolation, Status: http.StatusBadRequest, Message: "password does not meet requirements"},
		}, http.StatusInternalServerError, "failed to change password")
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "password updated, sign in again"})
}
