package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/KatanaSword/chit-chat/internal/core/domain"
	"github.com/KatanaSword/chit-chat/internal/transport/http/middleware"
	"github.com/KatanaSword/chit-chat/internal/usecase"
)

// VerificationHandler exposes email and phone verification endpoints.
type VerificationHandler struct {
	auth         *usecase.AuthService
	verification *usecase.VerificationService
}

// NewVerificationHandler constructs VerificationHandler.
func NewVerificationHandler(auth *usecase.AuthService, verification *usecase.VerificationService) *VerificationHandler {
	return &VerificationHandler{auth: auth, verification: verification}
}

// RegisterRoutes binds verification routes. All of them require an
// authenticated caller; the secret proves control of the contact channel,
// not the identity.
func (h *VerificationHandler) RegisterRoutes(r *gin.RouterGroup) {
	authed := r.Group("", middleware.RequireAuth(h.auth))
	authed.POST("/email/request", h.beginFor(domain.VerifyEmail))
	authed.POST("/email/confirm", h.completeFor(domain.VerifyEmail))
	authed.POST("/phone/request", h.beginFor(domain.VerifyPhone))
	authed.POST("/phone/confirm", h.completeFor(domain.VerifyPhone))
}

func (h *VerificationHandler) beginFor(purpose domain.VerificationPurpose) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := middleware.GetAuthenticatedUserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
			return
		}

		if _, err := h.verification.Begin(c.Request.Context(), userID, purpose); err != nil {
			c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to issue verification secret"))
			return
		}

		c.JSON(http.StatusAccepted, MessageResponse{Message: "verification secret sent"})
	}
}

func (h *VerificationHandler) completeFor(purpose domain.VerificationPurpose) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := middleware.GetAuthenticatedUserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
			return
		}

		var req VerificationCompleteRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, NewErrorResponse(c, "secret is required"))
			return
		}

		if err := h.verification.Complete(c.Request.Context(), userID, purpose, req.Secret); err != nil {
			RespondWithMappedError(c, err, []ErrorCase{
				{Err: usecase.ErrSecretInvalid, Status: http.StatusBadRequest, Message: "verification secret invalid"},
				{Err: usecase.ErrSecretExpired, Status: http.StatusGone, Message: "verification secret expired"},
			}, http.StatusInternalServerError, "failed to complete verification")
			return
		}

		c.JSON(http.StatusOK, MessageResponse{Message: "verified"})
	}
}
