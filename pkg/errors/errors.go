// Package errors defines the error taxonomy shared by the service layers and
// its mapping onto HTTP statuses and envelope codes.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinels that repositories and services wrap. Handlers test for them with
// errors.Is.
var (
	ErrNotFound       = errors.New("resource not found")
	ErrAlreadyExists  = errors.New("resource already exists")
	ErrInvalidInput   = errors.New("invalid input")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrServiceUnavail = errors.New("service unavailable")
)

// Codes written to the "code" field of the error envelope.
const (
	CodeNotFound           = "NOT_FOUND"
	CodeAlreadyExists      = "ALREADY_EXISTS"
	CodeInvalidInput       = "INVALID_INPUT"
	CodeInvalidParameter   = "INVALID_PARAMETER"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeServiceUnavailable = "SERVICE_UNAVAILABLE"
	CodeInternal           = "INTERNAL_ERROR"
)

// AppError is an error that already knows how it should be reported to a
// client.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func newAppError(code string, status int, sentinel error, message string) *AppError {
	return &AppError{Code: code, Message: message, Status: status, Err: sentinel}
}

// NotFound reports a missing resource by kind and id.
func NotFound(resource, id string) *AppError {
	return newAppError(CodeNotFound, http.StatusNotFound, ErrNotFound,
		fmt.Sprintf("%s with id %s not found", resource, id))
}

// NotFoundMessage is a 404 with a caller-chosen message, for lookups where the
// message must not reveal whether the resource exists.
func NotFoundMessage(message string) *AppError {
	return newAppError(CodeNotFound, http.StatusNotFound, ErrNotFound, message)
}

// AlreadyExists reports a uniqueness conflict on field=value.
func AlreadyExists(resource, field, value string) *AppError {
	return newAppError(CodeAlreadyExists, http.StatusConflict, ErrAlreadyExists,
		fmt.Sprintf("%s with %s %q already exists", resource, field, value))
}

// InvalidInput is a 400 for a request that breaks a domain rule.
func InvalidInput(message string) *AppError {
	return newAppError(CodeInvalidInput, http.StatusBadRequest, ErrInvalidInput, message)
}

// InvalidParameter is a 400 for a malformed query or path parameter.
func InvalidParameter(message string) *AppError {
	return newAppError(CodeInvalidParameter, http.StatusBadRequest, ErrInvalidInput, message)
}

type sentinelMapping struct {
	err     error
	code    string
	status  int
	message string
}

// An empty message means the wrapped error text is safe to show.
var sentinelMappings = []sentinelMapping{
	{ErrNotFound, CodeNotFound, http.StatusNotFound, "resource not found"},
	{ErrAlreadyExists, CodeAlreadyExists, http.StatusConflict, "resource already exists"},
	{ErrInvalidInput, CodeInvalidInput, http.StatusBadRequest, ""},
	{ErrUnauthorized, CodeUnauthorized, http.StatusUnauthorized, "authentication required"},
	{ErrServiceUnavail, CodeServiceUnavailable, http.StatusServiceUnavailable, "service temporarily unavailable"},
}

// Classify returns the AppError describing err. An *AppError anywhere in the
// chain wins; otherwise the first matching sentinel decides. Anything else is
// an opaque 500.
func Classify(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	for _, m := range sentinelMappings {
		if errors.Is(err, m.err) {
			message := m.message
			if message == "" {
				message = err.Error()
			}
			return newAppError(m.code, m.status, err, message)
		}
	}

	return newAppError(CodeInternal, http.StatusInternalServerError, err, "an internal error occurred")
}

// HTTPStatus returns the HTTP status code for err.
func HTTPStatus(err error) int {
	return Classify(err).Status
}
