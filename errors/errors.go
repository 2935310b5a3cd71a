package errors

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Error represents an application error
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a new Error
func New(code int, message string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Wrap returns a copy of template carrying err as its cause.
func Wrap(template *Error, err error) *Error {
	return &Error{Code: template.Code, Message: template.Message, Err: err}
}

// Payment lifecycle error types
var (
	ErrInvalidSignature      = New(http.StatusBadRequest, "Invalid signature", nil)
	ErrOrderNotFound         = New(http.StatusNotFound, "Order not found", nil)
	ErrConflictingTransition = New(http.StatusConflict, "Conflicting transition", nil)
	ErrInvalidTransition     = New(http.StatusConflict, "Invalid transition", nil)
	ErrProviderUnavailable   = New(http.StatusBadGateway, "Payment provider unavailable", nil)
	ErrWebhookNotConfigured  = New(http.StatusBadRequest, "Webhook secret not configured", nil)
)

// Validation and auth error types
var (
	ErrBadRequest         = New(http.StatusBadRequest, "Bad request", nil)
	ErrValidation         = New(http.StatusBadRequest, "Validation error", nil)
	ErrUnauthorized       = New(http.StatusUnauthorized, "Unauthorized", nil)
	ErrForbidden          = New(http.StatusForbidden, "Forbidden", nil)
	ErrNotFound           = New(http.StatusNotFound, "Not found", nil)
	ErrInvalidCredentials = New(http.StatusUnauthorized, "Invalid credentials", nil)
	ErrInvalidToken       = New(http.StatusUnauthorized, "Invalid token", nil)
	ErrInternalServer     = New(http.StatusInternalServerError, "Internal server error", nil)
)

// Is lets stdlib errors.Is match wrapped errors against their template by
// code and message rather than pointer identity.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && e.Code == t.Code && e.Message == t.Message
}

// Respond writes err to the gin context as a JSON error response, mapping
// unknown error values to a generic 500.
func Respond(c *gin.Context, err error) {
	var appErr *Error
	if e, ok := err.(*Error); ok {
		appErr = e
	} else {
		appErr = Wrap(ErrInternalServer, err)
	}
	c.JSON(appErr.Code, appErr)
}
