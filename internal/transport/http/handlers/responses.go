package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/KatanaSword/chit-chat/internal/transport/http/middleware"
)

// ErrorResponse represents a generic error payload with the request id for
// debugging.
type ErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

// NewErrorResponse creates an error response carrying the request id.
func NewErrorResponse(c *gin.Context, errorMsg string) ErrorResponse {
	return ErrorResponse{
		Error:     errorMsg,
		RequestID: middleware.GetRequestID(c),
	}
}

// MessageResponse represents a simple message payload.
type MessageResponse struct {
	Message string `json:"message"`
}
