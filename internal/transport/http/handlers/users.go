package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/KatanaSword/chit-chat/internal/core/port"
	"github.com/KatanaSword/chit-chat/internal/repository"
	"github.com/KatanaSword/chit-chat/internal/transport/http/middleware"
	"github.com/KatanaSword/chit-chat/internal/usecase"
)

// UserHandler exposes the current user's profile.
type UserHandler struct {
	auth    *usecase.AuthService
	profile *usecase.ProfileService
}

// NewUserHandler constructs UserHandler.
func NewUserHandler(auth *usecase.AuthService, profile *usecase.ProfileService) *UserHandler {
	return &UserHandler{auth: auth, profile: profile}
}

// RegisterRoutes binds profile routes.
func (h *UserHandler) RegisterRoutes(r *gin.RouterGroup) {
	authed := r.Group("", middleware.RequireAuth(h.auth))
	authed.GET("/me", h.current)
	authed.PATCH("/me", h.update)
}

func (h *UserHandler) current(c *gin.Context) {
	userID, ok := middleware.GetAuthenticatedUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	user, err := h.profile.Get(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, NewErrorResponse(c, "user not found"))
			return
		}
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to load profile"))
		return
	}

	c.JSON(http.StatusOK, newUserSummary(user))
}

func (h *UserHandler) update(c *gin.Context) {
	userID, ok := middleware.GetAuthenticatedUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid profile payload"))
		return
	}

	user, err := h.profile.Update(c.Request.Context(), userID, port.ProfileUpdate{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		About:     req.About,
		Avatar:    req.Avatar,
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, NewErrorResponse(c, "user not found"))
			return
		}
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to update profile"))
		return
	}

	c.JSON(http.StatusOK, newUserSummary(user))
}
