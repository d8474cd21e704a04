package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yoockh/bikeshop-agent/internal/utils"
)

// APIError is the body of every non-2xx response.
type APIError struct {
	Code    utils.Code `json:"code"`
	Message string     `json:"message"`
}

// writeError renders err as an APIError. Only AppError messages reach the
// client; anything else is reported by its status text.
func writeError(c *gin.Context, err error) {
	status := utils.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		_ = c.Error(err) // picked up by RequestLogger
	}

	body := APIError{Code: utils.CodeOf(err), Message: http.StatusText(status)}
	var ae *utils.AppError
	if errors.As(err, &ae) && ae.Message != "" {
		body.Message = ae.Message
	}
	c.JSON(status, body)
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, APIError{Code: utils.CodeInvalidArgument, Message: msg})
}

// subject returns the authenticated caller, if any.
func subject(c *gin.Context) string { return c.GetString("user_id") }
