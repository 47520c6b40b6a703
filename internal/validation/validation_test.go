package validation_test

import (
	"errors"
	"testing"

	"github.com/getmentor/authflow/internal/validation"
	apperrors "github.com/getmentor/authflow/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fieldMessage(t *testing.T, err error) string {
	t.Helper()
	var fieldErr *apperrors.FieldError
	require.True(t, errors.As(err, &fieldErr), "expected a field error, got %v", err)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
	return fieldErr.Message
}

func TestValidator_Email(t *testing.T) {
	v := validation.New()

	tests := []struct {
		name     string
		input    string
		expected string
		errMsg   string
	}{
		{name: "valid", input: "a@b.com", expected: "a@b.com"},
		{name: "trimmed", input: "  a@b.com \t", expected: "a@b.com"},
		{name: "subdomain", input: "first.last@mail.example.org", expected: "first.last@mail.example.org"},
		{name: "plus tag", input: "a+tag@b.io", expected: "a+tag@b.io"},
		{name: "empty", input: "", errMsg: validation.MsgEmailRequired},
		{name: "whitespace only", input: "   ", errMsg: validation.MsgEmailRequired},
		{name: "no at", input: "ab.com", errMsg: validation.MsgEmailInvalid},
		{name: "no dot in domain", input: "a@bcom", errMsg: validation.MsgEmailInvalid},
		{name: "two ats", input: "a@@b.com", errMsg: validation.MsgEmailInvalid},
		{name: "inner space", input: "a b@c.com", errMsg: validation.MsgEmailInvalid},
		{name: "inner no-break space", input: "a\u00a0b@c.com", errMsg: validation.MsgEmailInvalid},
		{name: "ideographic space in domain", input: "ab@c\u3000d.com", errMsg: validation.MsgEmailInvalid},
		{name: "nothing after dot", input: "a@b.", errMsg: validation.MsgEmailInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := v.Email(tt.input)
			if tt.errMsg != "" {
				require.Error(t, err)
				assert.Equal(t, tt.errMsg, fieldMessage(t, err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestIsValidEmail(t *testing.T) {
	assert.True(t, validation.IsValidEmail("x@y.z"))
	assert.False(t, validation.IsValidEmail("x@y"))
	assert.False(t, validation.IsValidEmail("@y.z"))
	assert.False(t, validation.IsValidEmail("x\u2003y@z.com"))
	assert.True(t, validation.IsValidEmail("élan@x.com"))
}

func TestValidator_Password(t *testing.T) {
	v := validation.New()

	tests := []struct {
		name   string
		input  string
		errMsg string
	}{
		{name: "exactly six", input: "abcdef"},
		{name: "long", input: "password123"},
		{name: "six multibyte runes", input: "пароль"},
		{name: "empty", input: "", errMsg: validation.MsgPasswordRequired},
		{name: "spaces only", input: "      ", errMsg: validation.MsgPasswordRequired},
		{name: "five", input: "abcde", errMsg: validation.MsgPasswordTooShort},
		{name: "one", input: "a", errMsg: validation.MsgPasswordTooShort},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Password(tt.input)
			if tt.errMsg != "" {
				require.Error(t, err)
				assert.Equal(t, tt.errMsg, fieldMessage(t, err))
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestValidator_Code(t *testing.T) {
	v := validation.New()

	code, err := v.Code([]string{"1", "2", "3", "4", "5", "6"})
	require.NoError(t, err)
	assert.Equal(t, "123456", code)

	_, err = v.Code([]string{"1", "2", "3", "", "5", "6"})
	require.Error(t, err)
	assert.Equal(t, validation.MsgCodeIncomplete, fieldMessage(t, err))

	_, err = v.Code([]string{"1", "2", "3", "4", "5"})
	require.Error(t, err)
	assert.Equal(t, validation.MsgCodeIncomplete, fieldMessage(t, err))

	_, err = v.Code([]string{"1", "2", "3", "4", "5", "x"})
	require.Error(t, err)
	assert.Equal(t, validation.MsgCodeNotNumeric, fieldMessage(t, err))
}

func TestValidator_Method(t *testing.T) {
	v := validation.New()

	for _, method := range []string{"call", "sms", "email"} {
		assert.NoError(t, v.Method(method), method)
	}

	err := v.Method("")
	require.Error(t, err)
	assert.Equal(t, validation.MsgMethodRequired, fieldMessage(t, err))

	assert.Error(t, v.Method("pigeon"))
}
