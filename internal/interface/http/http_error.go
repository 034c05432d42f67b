package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/moodmirror/moodmirror/pkg/errors"
)

const fallbackMessage = "could not process the mood request"

// HTTPError is the transport view of a failure: status, stable code and the
// message shown to clients.
type HTTPError struct {
	Status  int
	Code    string
	Message string
	Err     error
}

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

// appErrorStatus maps domain codes to their HTTP status and public code.
var appErrorStatus = map[string]struct {
	status int
	code   string
}{
	apperrors.CodeInvalidInput:       {http.StatusBadRequest, "invalid_request"},
	apperrors.CodeSubmissionDisabled: {http.StatusServiceUnavailable, apperrors.CodeSubmissionDisabled},
}

// asHTTPError keeps HTTPErrors, translates known AppError codes and hides
// everything else behind a 500 with a fixed message.
func asHTTPError(err error) *HTTPError {
	if err == nil {
		return nil
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		if mapped, ok := appErrorStatus[appErr.Code]; ok {
			return NewHTTPError(mapped.status, mapped.code, appErr.Error(), err)
		}
	}
	return NewHTTPError(http.StatusInternalServerError, "internal_error", fallbackMessage, err)
}

func abortWithError(c *gin.Context, err *HTTPError) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}
