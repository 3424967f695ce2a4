// Package httpkit provides HTTP response utilities.
// This is part of the platform layer and contains no business logic.
package httpkit

import (
	"net/http"

	"followup_backend/platform/apperr"

	"github.com/gin-gonic/gin"
)

const msgInternalError = "internal server error"

// Envelope is the standard success response format.
type Envelope struct {
	Result  interface{} `json:"result"`
	Message string      `json:"message"`
	Success bool        `json:"success"`
}

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	Success bool        `json:"success"`
	Status  int         `json:"status"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// OK sends a 200 response wrapping result in the success envelope.
func OK(c *gin.Context, result interface{}, message string) {
	c.JSON(http.StatusOK, Envelope{Result: result, Message: message, Success: true})
}

// Error sends an error response with the given status code and message.
func Error(c *gin.Context, status int, message string, details interface{}) {
	c.JSON(status, ErrorResponse{Success: false, Status: status, Message: message, Details: details})
}

// AbortError is Error followed by c.Abort, for middleware.
func AbortError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, ErrorResponse{Success: false, Status: status, Message: message})
}

// HandleError maps domain errors to HTTP responses.
// Typed *apperr.Error values use their Kind; anything else is an unexpected
// failure and is reported as a generic 500 without leaking the cause.
// Returns true if an error was handled, false otherwise.
func HandleError(c *gin.Context, err error) bool {
	if err == nil {
		return false
	}

	if domainErr, ok := apperr.As(err); ok {
		status := domainErr.HTTPStatus()
		message := domainErr.Message
		if status == http.StatusInternalServerError {
			message = msgInternalError
		}
		Error(c, status, message, domainErr.Details)
		return true
	}

	_ = c.Error(err)
	Error(c, http.StatusInternalServerError, msgInternalError, nil)
	return true
}
