package httptransport

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"melodix-server-go/internal/platform/errors"
)

// APIResponse is the uniform response envelope.
type APIResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// RespondSuccess writes a success envelope.
func RespondSuccess(c *gin.Context, httpStatus int, data any, message string) {
	if message == "" {
		message = "ok"
	}
	c.JSON(httpStatus, APIResponse{
		Success: true,
		Message: message,
		Code:    httpStatus,
		Data:    data,
	})
}

// RespondError writes a failure envelope.
func RespondError(c *gin.Context, httpStatus int, message string) {
	c.JSON(httpStatus, APIResponse{
		Success: false,
		Message: message,
		Code:    httpStatus,
	})
}

// RespondDomainError maps a typed domain error onto its status code. Client
// errors surface the domain message; anything else collapses to a generic 500
// so internals never leak.
func RespondDomainError(c *gin.Context, err error) {
	switch {
	case errors.IsKind(err, errors.KindConflict):
		RespondError(c, http.StatusConflict, errors.UserMessage(err, "conflict"))
	case errors.IsKind(err, errors.KindAuth):
		RespondError(c, http.StatusUnauthorized, errors.UserMessage(err, "unauthorized"))
	case errors.IsKind(err, errors.KindNotFound):
		RespondError(c, http.StatusNotFound, errors.UserMessage(err, "not found"))
	case errors.IsKind(err, errors.KindForbidden):
		RespondError(c, http.StatusForbidden, errors.UserMessage(err, "forbidden"))
	default:
		RespondError(c, http.StatusInternalServerError, "internal server error")
	}
}
