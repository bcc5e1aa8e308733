package httperr

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

type HTTPError struct {
	Code    string `json:"error_code"`
	Kind    Kind   `json:"kind,omitempty"`
	Message string `json:"message"`
}

func Write(c *gin.Context, status int, code, message string) {
	c.JSON(status, HTTPError{
		Code:    code,
		Message: message,
	})
}

func BadRequest(c *gin.Context, code, message string) {
	Write(c, http.StatusBadRequest, code, message)
}

func Internal(c *gin.Context, code, message string) {
	Write(c, http.StatusInternalServerError, code, message)
}

func Unauthorized(c *gin.Context, code, message string) {
	Write(c, http.StatusUnauthorized, code, message)
}

// StatusFor maps an error kind to the HTTP status returned to callers.
func StatusFor(kind Kind) int {
	switch kind {
	case KindValidation, KindSignature:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindForbidden:
		return http.StatusForbidden
	case KindInvalidState, KindTooEarly, KindIssuePaused, KindInvalidTransition:
		return http.StatusConflict
	case KindPrecondition:
		return http.StatusPreconditionFailed
	case KindPaymentConfig:
		return http.StatusServiceUnavailable
	case KindGateway:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// FromError renders err. Business errors keep their code and kind; anything
// else becomes an opaque internal error.
func FromError(c *gin.Context, err error) {
	var be BusinessError
	if !errors.As(err, &be) {
		Internal(c, "internal_error", "Something went wrong. Please try again.")
		return
	}

	msg := be.Code
	if be.Kind == KindGateway {
		msg = "Payment processor unavailable. Please retry later."
	}

	c.JSON(StatusFor(be.Kind), HTTPError{
		Code:    be.Code,
		Kind:    be.Kind,
		Message: msg,
	})
}
