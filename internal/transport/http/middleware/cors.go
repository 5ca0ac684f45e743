package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/KatanaSword/chit-chat/internal/infra/config"
)

const corsAllowedMethods = "GET,POST,PUT,PATCH,DELETE,OPTIONS"

// corsDefaultHeaders answers preflights that do not name the headers they
// intend to send.
const corsDefaultHeaders = "Authorization,Content-Type,X-Request-ID"

// CORS answers preflight requests and stamps the headers browser clients
// need, driven by the configured origin allow-list. A wildcard entry admits
// every origin but never with credentials; browsers reject that pairing.
func CORS(settings config.CORSSettings) gin.HandlerFunc {
	allowAll := false
	allowed := make(map[string]struct{}, len(settings.AllowedOrigins))
	for _, origin := range settings.AllowedOrigins {
		origin = normalizeOrigin(origin)
		if origin == "*" {
			allowAll = true
			continue
		}
		if origin != "" {
			allowed[origin] = struct{}{}
		}
	}

	maxAge := settings.MaxAge
	if maxAge <= 0 {
		maxAge = 12 * time.Hour
	}
	maxAgeSeconds := strconv.Itoa(int(maxAge.Seconds()))

	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin == "" {
			c.Next()
			return
		}

		header := c.Writer.Header()
		header.Add("Vary", "Origin")

		_, known := allowed[normalizeOrigin(origin)]
		switch {
		case known:
			header.Set("Access-Control-Allow-Origin", origin)
			if settings.AllowCredentials {
				header.Set("Access-Control-Allow-Credentials", "true")
			}
		case allowAll:
			header.Set("Access-Control-Allow-Origin", "*")
		default:
			if c.Request.Method == http.MethodOptions {
				c.AbortWithStatus(http.StatusForbidden)
				return
			}
			c.Next()
			return
		}

		if c.Request.Method == http.MethodOptions {
			requested := c.Request.Header.Get("Access-Control-Request-Headers")
			if requested == "" {
				requested = corsDefaultHeaders
			}
			header.Set("Access-Control-Allow-Methods", corsAllowedMethods)
			header.Set("Access-Control-Allow-Headers", requested)
			header.Set("Access-Control-Max-Age", maxAgeSeconds)
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func normalizeOrigin(origin string) string {
	return strings.ToLower(strings.TrimRight(strings.TrimSpace(origin), "/"))
}
