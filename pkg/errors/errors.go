package errors

import (
	"errors"
	"fmt"
)

// Error kinds shared by the client packages and the dev server

var (
	// ErrInvalidInput indicates a local validation failure; no request was sent
	ErrInvalidInput = errors.New("invalid input")

	// ErrTransport indicates no HTTP response was received at all
	ErrTransport = errors.New("transport error")

	// ErrRequestRejected indicates the server answered with a non-2xx status
	ErrRequestRejected = errors.New("request rejected")

	// ErrInvalidResponse indicates a 2xx response whose body could not be decoded
	ErrInvalidResponse = errors.New("invalid response")

	// ErrServerUnreachable indicates the connectivity pre-flight failed
	ErrServerUnreachable = errors.New("server not reachable")

	// ErrOperationInProgress indicates a session operation is already in flight
	ErrOperationInProgress = errors.New("operation already in progress")

	// ErrNoTransition indicates the current screen has no edge for the event
	ErrNoTransition = errors.New("no transition")

	// ErrMissingParams indicates a transition was dispatched without its required params
	ErrMissingParams = errors.New("missing navigation params")

	// ErrNotFound indicates a requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized indicates missing or invalid credentials
	ErrUnauthorized = errors.New("unauthorized")
)

// RequestError is returned when the backend answers with a non-2xx status.
// Message is the server-provided message or a generic status line.
type RequestError struct {
	StatusCode int
	Message    string
}

func (e *RequestError) Error() string {
	return e.Message
}

func (e *RequestError) Unwrap() error {
	return ErrRequestRejected
}

// NewRequestError builds a RequestError, falling back to the generic status message
func NewRequestError(statusCode int, message string) *RequestError {
	if message == "" {
		message = fmt.Sprintf("HTTP error! status: %d", statusCode)
	}
	return &RequestError{StatusCode: statusCode, Message: message}
}

// TransportError wraps a failure below the HTTP response level.
// Its message is the underlying error's message, unchanged.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return e.Err.Error()
}

func (e *TransportError) Unwrap() []error {
	return []error{ErrTransport, e.Err}
}

// FieldError is a field-level validation failure
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return e.Message
}

func (e *FieldError) Unwrap() error {
	return ErrInvalidInput
}

// InvalidInputError creates a field-level validation error
func InvalidInputError(field, message string) error {
	return &FieldError{Field: field, Message: message}
}

// UnreachableError is returned when the connectivity pre-flight gets no response.
// Err is the transport failure behind it; its message is appended unchanged.
type UnreachableError struct {
	BaseURL string
	Err     error
}

func (e *UnreachableError) Error() string {
	msg := fmt.Sprintf("Server is not reachable at %s. Please check if the server is running and accessible.", e.BaseURL)
	if e.Err != nil && e.Err.Error() != "" {
		msg += " Cause: " + e.Err.Error()
	}
	return msg
}

func (e *UnreachableError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrServerUnreachable}
	}
	return []error{ErrServerUnreachable, e.Err}
}

// Message returns err's message, or fallback when err is nil or has an empty message
func Message(err error, fallback string) string {
	if err == nil || err.Error() == "" {
		return fallback
	}
	return err.Error()
}

// Is checks if an error matches a target error (works with wrapped errors)
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target any) bool {
	return errors.As(err, target)
}
