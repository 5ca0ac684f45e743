package middleware

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/KatanaSword/chit-chat/internal/infra/logger"
	"github.com/KatanaSword/chit-chat/internal/infra/security"
)

const (
	// RequestIDHeader is the HTTP header carrying the correlation identifier.
	RequestIDHeader = "X-Request-ID"
	// RequestIDKey is the gin context key for the correlation identifier.
	RequestIDKey = "request_id"
	// UserIDKey is the gin context key for the authenticated user id.
	UserIDKey = "user_id"
	// ClaimsKey is the gin context key for the parsed access token claims.
	ClaimsKey = "claims"
)

// GetRequestID retrieves the correlation identifier from the gin context.
func GetRequestID(c *gin.Context) string {
	if id, exists := c.Get(RequestIDKey); exists {
		if s, ok := id.(string); ok {
			return s
		}
	}
	return ""
}

// GetAuthenticatedUserID retrieves the user id set by RequireAuth.
func GetAuthenticatedUserID(c *gin.Context) (string, bool) {
	raw, exists := c.Get(UserIDKey)
	if !exists {
		return "", false
	}
	id, ok := raw.(string)
	if !ok || id == "" {
		return "", false
	}
	return id, true
}

// GetAccessTokenClaims retrieves the claims set by RequireAuth.
func GetAccessTokenClaims(c *gin.Context) *security.AccessTokenClaims {
	raw, exists := c.Get(ClaimsKey)
	if !exists {
		return nil
	}
	claims, ok := raw.(*security.AccessTokenClaims)
	if !ok {
		return nil
	}
	return claims
}

func requestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if id, ok := ctx.Value(logger.RequestIDKey{}).(string); ok {
		return id
	}
	return ""
}
