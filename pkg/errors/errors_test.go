package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequestError(t *testing.T) {
	err := NewRequestError(404, "User not found")
	assert.Equal(t, "User not found", err.Error())
	assert.True(t, Is(err, ErrRequestRejected))

	generic := NewRequestError(502, "")
	assert.Equal(t, "HTTP error! status: 502", generic.Error())

	var reqErr *RequestError
	assert.True(t, As(fmt.Errorf("login: %w", generic), &reqErr))
	assert.Equal(t, 502, reqErr.StatusCode)
}

func TestUnreachableError(t *testing.T) {
	err := &UnreachableError{BaseURL: "http://localhost:3000"}

	assert.Equal(t,
		"Server is not reachable at http://localhost:3000. Please check if the server is running and accessible.",
		err.Error())
	assert.True(t, Is(err, ErrServerUnreachable))

	refused := &TransportError{Op: "probe", Err: errors.New("connection refused")}
	withCause := &UnreachableError{BaseURL: "http://localhost:3000", Err: refused}

	assert.Equal(t,
		"Server is not reachable at http://localhost:3000. Please check if the server is running and accessible. Cause: connection refused",
		withCause.Error())
	assert.True(t, Is(withCause, ErrServerUnreachable))
	assert.True(t, Is(withCause, ErrTransport))
	var transportErr *TransportError
	assert.True(t, As(withCause, &transportErr))
	assert.Equal(t, "probe", transportErr.Op)
}

func TestInvalidInputError(t *testing.T) {
	err := InvalidInputError("email", "Please enter your email address")

	assert.Equal(t, "Please enter your email address", err.Error())
	assert.True(t, Is(err, ErrInvalidInput))

	var fieldErr *FieldError
	assert.True(t, As(err, &fieldErr))
	assert.Equal(t, "email", fieldErr.Field)
}

func TestMessage(t *testing.T) {
	assert.Equal(t, "fallback", Message(nil, "fallback"))
	assert.Equal(t, "fallback", Message(errors.New(""), "fallback"))
	assert.Equal(t, "boom", Message(errors.New("boom"), "fallback"))
}
