// Package httperr defines the typed HTTP errors raised by handlers and the
// terminal Echo error handler that renders every failure as the uniform
// JSON envelope {"errors":[{"type","msg","path","location"}]}.
package httperr

import (
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
)

// Field is one entry of the error envelope.  Path and Location are only
// populated for validation failures, where they name the offending request
// field and where it was found (body, params).
type Field struct {
	Type     string `json:"type"`
	Msg      string `json:"msg"`
	Path     string `json:"path"`
	Location string `json:"location"`
}

// Error is an HTTP-ready error carrying a status code and one or more
// envelope entries.  Handlers return it and let the terminal error handler
// do the rendering.
type Error struct {
	Status int
	Fields []Field
}

func (e *Error) Error() string {
	if len(e.Fields) == 0 {
		return http.StatusText(e.Status)
	}
	return e.Fields[0].Msg
}

// New builds a single-message error for the given status code.
func New(status int, msg string) *Error {
	return &Error{Status: status, Fields: []Field{{Type: typeName(status), Msg: msg}}}
}

// Newf is New with formatting.
func Newf(status int, format string, args ...interface{}) *Error {
	return New(status, fmt.Sprintf(format, args...))
}

// Validation builds a 400 carrying one entry per invalid field.
func Validation(fields []Field) *Error {
	return &Error{Status: http.StatusBadRequest, Fields: fields}
}

// typeName maps a status code to the error name used in the envelope.
func typeName(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "BadRequestError"
	case http.StatusUnauthorized:
		return "UnauthorizedError"
	case http.StatusForbidden:
		return "ForbiddenError"
	case http.StatusNotFound:
		return "NotFoundError"
	case http.StatusConflict:
		return "ConflictError"
	default:
		return "InternalServerError"
	}
}

type envelope struct {
	Errors []Field `json:"errors"`
}

// Handler is the single terminal error handler.  Typed errors render as-is;
// echo's own errors (404 route misses, bind failures) are re-wrapped; any
// other error is logged and surfaced as a generic 500 so no internal detail
// reaches the client.
func Handler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var he *Error
	if !errors.As(err, &he) {
		var ee *echo.HTTPError
		if errors.As(err, &ee) {
			he = New(ee.Code, fmt.Sprintf("%v", ee.Message))
		} else {
			log.Printf("unhandled error: %v", err)
			he = New(http.StatusInternalServerError, "Internal Server Error")
		}
	}

	if he.Status >= http.StatusInternalServerError {
		log.Printf("request failed: %s", he.Error())
	}
	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(he.Status)
		return
	}
	_ = c.JSON(he.Status, envelope{Errors: he.Fields})
}
