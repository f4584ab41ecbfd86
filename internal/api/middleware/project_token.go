package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/blockscrafting-arch/VoiceCoPilot/internal/utils"
)

type apiError struct {
	Code    utils.Code `json:"code"`
	Message string     `json:"message"`
}

// ProjectToken pulls the caller's opaque project token from the
// X-Project-Token header, falling back to a bearer Authorization header,
// and stores it on the request context. The token is not validated here;
// repositories scope every query by it, so an unknown token simply
// matches nothing.
func ProjectToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := strings.TrimSpace(c.GetHeader("X-Project-Token"))
		if token == "" {
			auth := c.GetHeader("Authorization")
			if strings.HasPrefix(auth, "Bearer ") {
				token = strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
			}
		}
		if token != "" {
			c.Set("project_token", token)
		}
		c.Next()
	}
}

// RequireProjectToken aborts requests that carry no project token.
// Mounted on the project-scoped routes; creation stays open because the
// first project of a new caller mints the token.
func RequireProjectToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		if v, ok := c.Get("project_token"); ok {
			if s, ok := v.(string); ok && s != "" {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, apiError{
			Code:    utils.CodeUnauthorized,
			Message: "missing project token",
		})
	}
}
