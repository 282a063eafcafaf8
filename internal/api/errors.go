package api

import (
	"errors"
	"net/http"
	"strings"
)

// Sentinel kinds. Callers match with errors.Is; the user facing text lives on *Error.
var (
	ErrValidation      = errors.New("validation failed")
	ErrNotFound        = errors.New("requested item not found")
	ErrConflict        = errors.New("item already exists or conflict")
	ErrUnauthenticated = errors.New("authentication required or invalid credentials")
)

// InternalErrorMessage is the only detail a client sees for unexpected failures.
const InternalErrorMessage = "Internal server error."

// Error pairs a sentinel kind with the message returned to the client.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Kind }

func NotFound(message string) error {
	return &Error{Kind: ErrNotFound, Message: message}
}

func Conflict(message string) error {
	return &Error{Kind: ErrConflict, Message: message}
}

func Unauthenticated(message string) error {
	return &Error{Kind: ErrUnauthenticated, Message: message}
}

// ValidationError collects every violated constraint of one input, in order.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string { return strings.Join(e.Messages, " ") }

func (e *ValidationError) Unwrap() error { return ErrValidation }

// Add records a violation.
func (e *ValidationError) Add(message string) {
	e.Messages = append(e.Messages, message)
}

// OrNil returns e when at least one violation was recorded.
func (e *ValidationError) OrNil() error {
	if e == nil || len(e.Messages) == 0 {
		return nil
	}
	return e
}

func NewValidationError(messages ...string) *ValidationError {
	return &ValidationError{Messages: messages}
}

// StatusFor maps an error produced by a service to the HTTP status code and
// the message safe to show to the client.
func StatusFor(err error) (int, string) {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return http.StatusBadRequest, verr.Error()
	}

	var apiErr *Error
	if errors.As(err, &apiErr) {
		switch {
		case errors.Is(apiErr.Kind, ErrNotFound):
			return http.StatusNotFound, apiErr.Message
		case errors.Is(apiErr.Kind, ErrConflict):
			return http.StatusConflict, apiErr.Message
		case errors.Is(apiErr.Kind, ErrUnauthenticated):
			return http.StatusUnauthorized, apiErr.Message
		case errors.Is(apiErr.Kind, ErrValidation):
			return http.StatusBadRequest, apiErr.Message
		}
	}

	return http.StatusInternalServerError, InternalErrorMessage
}
