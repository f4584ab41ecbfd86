package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/blockscrafting-arch/VoiceCoPilot/internal/utils"
)

type APIError struct {
	Code    utils.Code `json:"code"`
	Message string     `json:"message"`
}

func writeError(c *gin.Context, err error) {
	status := utils.HTTPStatus(err)

	var ae *utils.AppError
	if errors.As(err, &ae) {
		c.JSON(status, APIError{
			Code:    ae.Code,
			Message: ae.Message,
		})
		return
	}

	c.JSON(status, APIError{
		Code:    utils.CodeInternal,
		Message: http.StatusText(status),
	})
}

// projectToken returns the token extracted by the middleware, empty when
// the request carried none. Routes that demand one gate on the
// RequireProjectToken middleware instead.
func projectToken(c *gin.Context) string {
	if v, ok := c.Get("project_token"); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
