package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/KatanaSword/chit-chat/internal/core/domain"
	"github.com/KatanaSword/chit-chat/internal/infra/security"
	"github.com/KatanaSword/chit-chat/internal/repository"
	"github.com/KatanaSword/chit-chat/internal/transport/http/middleware"
	"github.com/KatanaSword/chit-chat/internal/usecase"
)

// AuthHandler exposes registration, login, refresh, and logout endpoints.
type AuthHandler struct {
	auth         *usecase.AuthService
	registration *usecase.RegistrationService
	verification *usecase.VerificationService
}

// NewAuthHandler constructs AuthHandler.
func NewAuthHandler(auth *usecase.AuthService, registration *usecase.RegistrationService, verification *usecase.VerificationService) *AuthHandler {
	return &AuthHandler{
		auth:         auth,
		registration: registration,
		verification: verification,
	}
}

// RegisterRoutes binds authentication routes, applying optional middleware
// ahead of the credential-accepting handlers.
func (h *AuthHandler) RegisterRoutes(r *gin.RouterGroup, registerLimit, loginLimit, refreshLimit gin.HandlerFunc) {
	r.POST("/register", wrap(registerLimit, h.register)...)
	r.POST("/login", wrap(loginLimit, h.login)...)
	r.POST("/refresh", wrap(refreshLimit, h.refresh)...)
	r.POST("/logout", middleware.RequireAuth(h.auth), h.logout)
}

func wrap(mw gin.HandlerFunc, handler gin.HandlerFunc) []gin.HandlerFunc {
	if mw == nil {
		return []gin.HandlerFunc{handler}
	}
	return []gin.HandlerFunc{mw, handler}
}

func (h *AuthHandler) register(c *gin.Context) {
	var req RegistrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid registration payload"))
		return
	}

	user, err := h.registration.Register(c.Request.Context(), usecase.RegisterInput{
		Username:    req.Username,
		Email:       req.Email,
		PhoneNumber: req.PhoneNumber,
		Password:    req.Password,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
	})
	if err != nil {
		if field, ok := repository.IsDuplicateKey(err); ok {
			c.JSON(http.StatusConflict, NewErrorResponse(c, field+" already registered"))
			return
		}
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrMissingField, Status: http.StatusBadRequest, Message: "required field missing"},
			{Err: usecase.ErrInvalidPhoneNumber, Status: http.StatusBadRequest, Message: "phone number must be a ten-digit string"},
			{Err: usecase.ErrPasswordPolicyViolation, Status: http.StatusBadRequest, Message: "password does not meet requirements"},
		}, http.StatusInternalServerError, "failed to register user")
		return
	}

	// Kick off email verification right away; delivery happens out of band.
	if _, err := h.verification.Begin(c.Request.Context(), user.ID, domain.VerifyEmail); err != nil {
		c.JSON(http.StatusCreated, RegistrationResponse{
			User:    newUserSummary(user),
			Message: "registered, request email verification separately",
		})
		return
	}

	c.JSON(http.StatusCreated, RegistrationResponse{
		User:    newUserSummary(user),
		Message: "registered, verification email sent",
	})
}

func (h *AuthHandler) login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid login payload"))
		return
	}

	pair, user, err := h.auth.Authenticate(c.Request.Context(), strings.TrimSpace(req.Identifier), req.Password)
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrInvalidCredentials, Status: http.StatusUnauthorized, Message: "invalid credentials"},
		}, http.StatusInternalServerError, "authentication failed")
		return
	}

	c.JSON(http.StatusOK, LoginResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int(h.auth.AccessTokenTTL().Seconds()),
		User:         newUserSummary(user),
	})
}

func (h *AuthHandler) refresh(c *gin.Context) {
	var req TokenRefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "refresh_token is required"))
		return
	}

	pair, err := h.auth.RefreshSession(c.Request.Context(), req.RefreshToken)
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: security.ErrTokenExpired, Status: http.StatusUnauthorized, Message: "refresh token expired"},
			{Err: security.ErrTokenInvalidSignature, Status: http.StatusUnauthorized, Message: "invalid refresh token signature"},
			{Err: security.ErrTokenMalformed, Status: http.StatusUnauthorized, Message: "malformed refresh token"},
			{Err: usecase.ErrRefreshTokenRevoked, Status: http.StatusUnauthorized, Message: "refresh token revoked"},
		}, http.StatusInternalServerError, "failed to refresh session")
		return
	}

	c.JSON(http.StatusOK, TokenRefreshResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int(h.auth.AccessTokenTTL().Seconds()),
	})
}

func (h *AuthHandler) logout(c *gin.Context) {
	userID, ok := middleware.GetAuthenticatedUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	if err := h.auth.Logout(c.Request.Context(), userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.Status(http.StatusNoContent)
			return
		}
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to logout"))
		return
	}

	c.Status(http.StatusNoContent)
}
