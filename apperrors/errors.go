package apperrors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Kind classifies an application error independently of its message.
type Kind string

const (
	KindValidation Kind = "validation"
	KindAuth       Kind = "auth"
	KindForbidden  Kind = "forbidden"
	KindNotFound   Kind = "not_found"
	KindConflict   Kind = "conflict"
	KindInternal   Kind = "internal"
)

// Error represents an application error
type Error struct {
	Kind    Kind     `json:"kind"`
	Code    int      `json:"code"`
	Message string   `json:"message"`
	Fields  []string `json:"fields,omitempty"`
	Err     error    `json:"-"`
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

// Is reports whether target is an *Error of the same kind, so callers can
// write errors.Is(err, apperrors.ErrNotFound).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// JSON returns the error as a JSON string
func (e *Error) JSON() string {
	b, _ := json.Marshal(e)
	return string(b)
}

// New creates a new Error
func New(kind Kind, code int, message string, err error) *Error {
	return &Error{
		Kind:    kind,
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Sentinels for errors.Is checks. Never mutate these; use the constructors below.
var (
	ErrValidation = New(KindValidation, http.StatusBadRequest, "Validation error", nil)
	ErrAuth       = New(KindAuth, http.StatusUnauthorized, "Unauthorized", nil)
	ErrForbidden  = New(KindForbidden, http.StatusForbidden, "Forbidden", nil)
	ErrNotFound   = New(KindNotFound, http.StatusNotFound, "Not found", nil)
	ErrConflict   = New(KindConflict, http.StatusBadRequest, "Conflict", nil)
	ErrInternal   = New(KindInternal, http.StatusInternalServerError, "Internal server error", nil)
)

// Validation reports malformed or missing input. fields names the offending inputs.
func Validation(message string, fields ...string) *Error {
	e := New(KindValidation, http.StatusBadRequest, message, nil)
	e.Fields = fields
	return e
}

func Unauthorized(message string) *Error {
	return New(KindAuth, http.StatusUnauthorized, message, nil)
}

func Forbidden(message string) *Error {
	return New(KindForbidden, http.StatusForbidden, message, nil)
}

func NotFound(message string) *Error {
	return New(KindNotFound, http.StatusNotFound, message, nil)
}

// Conflict reports an action that is invalid for the entity's current state.
func Conflict(message string) *Error {
	return New(KindConflict, http.StatusBadRequest, message, nil)
}

// Internal wraps an unexpected failure, usually from storage.
func Internal(message string, err error) *Error {
	return New(KindInternal, http.StatusInternalServerError, message, err)
}

// From converts any error into an *Error, treating unknown errors as internal.
func From(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal("Internal server error", err)
}

// ErrorMiddleware renders the last error attached to the gin context.
// The wrapped cause is only included when exposeDetails is set.
func ErrorMiddleware(exposeDetails bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		appErr := From(c.Errors.Last().Err)
		body := gin.H{
			"error": appErr.Message,
			"kind":  appErr.Kind,
		}
		if len(appErr.Fields) > 0 {
			body["fields"] = appErr.Fields
		}
		if exposeDetails && appErr.Err != nil {
			body["details"] = appErr.Err.Error()
		}
		if appErr.Kind == KindInternal {
			zap.L().Error("Request failed",
				zap.String("path", c.Request.URL.Path),
				zap.Error(appErr),
			)
		}

		c.AbortWithStatusJSON(appErr.Code, body)
	}
}
