package flow

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaskContact(t *testing.T) {
	tests := []struct {
		name     string
		method   Method
		contact  string
		expected string
	}{
		{name: "phone", method: MethodSMS, contact: "+1 (555) 123-7805", expected: "***7805"},
		{name: "call", method: MethodCall, contact: "5551237805", expected: "***7805"},
		{name: "short phone", method: MethodSMS, contact: "12", expected: "***12"},
		{name: "email", method: MethodEmail, contact: "alice@example.com", expected: "a***@example.com"},
		{name: "email without local part", method: MethodEmail, contact: "@example.com", expected: "***"},
		{name: "multibyte first letter", method: MethodEmail, contact: "élan@x.com", expected: "é***@x.com"},
		{name: "invalid utf8 first byte", method: MethodEmail, contact: "\xc3@x.com", expected: "***@x.com"},
		{name: "empty", method: MethodEmail, contact: "  ", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, MaskContact(tt.method, tt.contact))
		})
	}
}

func TestContactOptions(t *testing.T) {
	phone := "+15551237805"
	email := "alice@example.com"

	sms := ContactOptions(MethodSMS, phone, email)
	assert.Equal(t, []ContactOption{
		{Method: MethodSMS, Contact: phone, Masked: "***7805"},
		{Method: MethodCall, Contact: phone, Masked: "***7805"},
		{Method: MethodEmail, Contact: email, Masked: "a***@example.com"},
	}, sms)

	byEmail := ContactOptions(MethodEmail, phone, email)
	assert.Equal(t, MethodEmail, byEmail[0].Method)
	assert.Len(t, byEmail, 3)

	unknown := ContactOptions(Method("pigeon"), phone, email)
	assert.Equal(t, []Method{MethodCall, MethodSMS, MethodEmail}, methodsOf(unknown))
}

func TestContactOptions_NoPhoneOnFile(t *testing.T) {
	// A phone method still offers the email when no phone is configured
	options := ContactOptions(MethodSMS, "", "a@b.com")
	assert.Equal(t, []ContactOption{{Method: MethodEmail, Contact: "a@b.com", Masked: "a***@b.com"}}, options)

	assert.Empty(t, ContactOptions(MethodCall, " ", ""))
}

func methodsOf(options []ContactOption) []Method {
	methods := make([]Method, 0, len(options))
	for _, opt := range options {
		methods = append(methods, opt.Method)
	}
	return methods
}

func TestTabShell(t *testing.T) {
	s := NewTabShell()
	assert.Equal(t, TabHome, s.Selected())

	assert.NoError(t, s.Select(TabProfile))
	assert.Equal(t, TabProfile, s.Selected())

	assert.Error(t, s.Select(Tab("Settings")))
	assert.Equal(t, TabProfile, s.Selected())
}
