package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/KatanaSword/chit-chat/internal/repository"
	"github.com/KatanaSword/chit-chat/internal/transport/http/middleware"
	"github.com/KatanaSword/chit-chat/internal/usecase"
)

// ChatHandler exposes conversation and message endpoints.
type ChatHandler struct {
	auth  *usecase.AuthService
	chats *usecase.ChatService
}

// NewChatHandler constructs ChatHandler.
func NewChatHandler(auth *usecase.AuthService, chats *usecase.ChatService) *ChatHandler {
	return &ChatHandler{auth: auth, chats: chats}
}

// RegisterRoutes binds chat routes. All of them require authentication.
func (h *ChatHandler) RegisterRoutes(r *gin.RouterGroup) {
	authed := r.Group("", middleware.RequireAuth(h.auth))
	authed.POST("", h.create)
	authed.GET("", h.list)
	authed.POST("/:chatId/messages", h.send)
	authed.GET("/:chatId/messages", h.messages)
}

func (h *ChatHandler) create(c *gin.Context) {
	userID, ok := middleware.GetAuthenticatedUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	var req CreateChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid chat payload"))
		return
	}

	chat, err := h.chats.CreateChat(c.Request.Context(), userID, req.Name, req.Participants, req.IsGroupChat)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusBadRequest, NewErrorResponse(c, "participant does not exist"))
			return
		}
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrTooFewParticipants, Status: http.StatusBadRequest, Message: "chat needs at least two participants"},
		}, http.StatusInternalServerError, "failed to create chat")
		return
	}

	c.JSON(http.StatusCreated, chat)
}

func (h *ChatHandler) list(c *gin.Context) {
	userID, ok := middleware.GetAuthenticatedUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	chats, err := h.chats.ListChats(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to list chats"))
		return
	}

	c.JSON(http.StatusOK, chats)
}

func (h *ChatHandler) send(c *gin.Context) {
	userID, ok := middleware.GetAuthenticatedUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid message payload"))
		return
	}

	message, err := h.chats.SendMessage(c.Request.Context(), c.Param("chatId"), userID, req.Content, req.Attachments)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, NewErrorResponse(c, "chat not found"))
			return
		}
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrNotParticipant, Status: http.StatusForbidden, Message: "not a chat participant"},
			{Err: usecase.ErrEmptyMessage, Status: http.StatusBadRequest, Message: "message must carry content or attachments"},
		}, http.StatusInternalServerError, "failed to send message")
		return
	}

	c.JSON(http.StatusCreated, message)
}

func (h *ChatHandler) messages(c *gin.Context) {
	userID, ok := middleware.GetAuthenticatedUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			c.JSON(http.StatusBadRequest, NewErrorResponse(c, "limit must be a non-negative integer"))
			return
		}
		limit = parsed
	}

	messages, err := h.chats.ListMessages(c.Request.Context(), c.Param("chatId"), userID, limit)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, NewErrorResponse(c, "chat not found"))
			return
		}
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrNotParticipant, Status: http.StatusForbidden, Message: "not a chat participant"},
		}, http.StatusInternalServerError, "failed to list messages")
		return
	}

	c.JSON(http.StatusOK, messages)
}
