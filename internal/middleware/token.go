package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/nooreldin2735/exams-console/internal/response"
)

// ContextKeyUpstreamToken is the Gin context key for the caller's bearer
// token. The console never validates the token itself; it is forwarded
// verbatim to the upstream API, which owns authentication.
const ContextKeyUpstreamToken = "upstream_token"

// RequireUpstreamToken extracts the caller's bearer token and stashes it
// in the request context. Requests without one are rejected up front so
// handlers never reach the upstream unauthenticated.
//
// WebSocket clients cannot set headers from the browser, so a token query
// parameter is accepted as a fallback.
func RequireUpstreamToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractBearer(c.GetHeader("Authorization"))
		if token == "" {
			token = c.Query("token")
		}
		if token == "" {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenRequired)
			return
		}
		c.Set(ContextKeyUpstreamToken, token)
		c.Next()
	}
}

// UpstreamToken reads the token stashed by RequireUpstreamToken.
func UpstreamToken(c *gin.Context) string {
	v, _ := c.Get(ContextKeyUpstreamToken)
	token, _ := v.(string)
	return token
}

func extractBearer(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
