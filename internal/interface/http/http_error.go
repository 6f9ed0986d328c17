package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/astro-clock/internal/domain/access"
	"github.com/yanqian/astro-clock/internal/domain/reading"
	apperrors "github.com/yanqian/astro-clock/pkg/errors"
)

const (
	codeInternal    = "internal_error"
	codeRateLimited = "rate_limited"
)

// codeStatus maps the domain error codes the API exposes onto statuses.
var codeStatus = map[string]int{
	reading.CodeInvalidPayload:       http.StatusBadRequest,
	reading.CodeMissingRequiredField: http.StatusBadRequest,
	reading.CodePayloadTooLarge:      http.StatusRequestEntityTooLarge,
	reading.CodeTimeout:              http.StatusRequestTimeout,
	reading.CodeGenerationFailed:     http.StatusInternalServerError,
	access.CodeInvalidInput:          http.StatusBadRequest,
	access.CodeUnauthorized:          http.StatusUnauthorized,
	access.CodeInvalidPass:           http.StatusForbidden,
	access.CodeIssuingDisabled:       http.StatusNotFound,
	access.CodeAccessError:           http.StatusInternalServerError,
}

// HTTPError is a failed API call on its way to the {"error","code"} body
// written by errorHandlingMiddleware. Err is logged, never sent.
type HTTPError struct {
	Status  int
	Code    string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *HTTPError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

// NewHTTPError is a helper to build an HTTPError instance.
func NewHTTPError(status int, code, message string, err error) *HTTPError {
	return &HTTPError{Status: status, Code: code, Message: message, Err: err}
}

// fromAppError keeps the code and public message of client errors. Server
// errors and codes outside codeStatus collapse to fallbackCode with
// fallbackMessage.
func fromAppError(err error, fallbackCode, fallbackMessage string) *HTTPError {
	code := apperrors.CodeOf(err)
	status, ok := codeStatus[code]
	if !ok || status >= http.StatusInternalServerError {
		return NewHTTPError(http.StatusInternalServerError, fallbackCode, fallbackMessage, err)
	}
	return NewHTTPError(status, code, apperrors.PublicMessage(err, fallbackMessage), err)
}

func asHTTPError(err error) *HTTPError {
	if err == nil {
		return nil
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}
	return NewHTTPError(http.StatusInternalServerError, codeInternal, "Internal server error", err)
}

func abortWithError(c *gin.Context, err *HTTPError) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}
