package validation

import (
	"errors"
	"regexp"
	"strings"

	apperrors "github.com/getmentor/authflow/pkg/errors"
	"github.com/go-playground/validator/v10"
)

// Field-level messages shown next to the input
const (
	MsgEmailRequired    = "Please enter your email address"
	MsgEmailInvalid     = "Please enter a valid email address"
	MsgPasswordRequired = "Please enter your password"
	MsgPasswordTooShort = "Password must be at least 6 characters"
	MsgCodeIncomplete   = "Please enter the complete 6-digit code"
	MsgCodeNotNumeric   = "The code must contain digits only"
	MsgMethodRequired   = "Please choose a verification method"
	MsgNoContact        = "No phone number or email address on file to send a code to"
)

// MinPasswordLength is the shortest password sent to the server
const MinPasswordLength = 6

// CodeLength is the number of digits in a one-time code
const CodeLength = 6

var emailPattern = regexp.MustCompile(`^[^\s\p{Z}@]+@[^\s\p{Z}@]+\.[^\s\p{Z}@]+$`)

type emailForm struct {
	Email string `validate:"required,authemail"`
}

type passwordForm struct {
	Password string `validate:"required,min=6"`
}

type codeForm struct {
	Digits []string `validate:"len=6,dive,required,len=1,numeric"`
}

type methodForm struct {
	Method string `validate:"required,oneof=call sms email"`
}

// Validator runs the client-side checks that gate every network call
type Validator struct {
	validate *validator.Validate
}

// New creates a Validator with the auth-specific tags registered
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("authemail", func(fl validator.FieldLevel) bool { //nolint:errcheck // static tag name
		return IsValidEmail(fl.Field().String())
	})
	return &Validator{validate: v}
}

// IsValidEmail reports whether email matches the accepted address shape
func IsValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// Email trims email and checks it is present and well-formed.
// It returns the trimmed value that should be sent.
func (v *Validator) Email(email string) (string, error) {
	email = strings.TrimSpace(email)
	if err := v.validate.Struct(emailForm{Email: email}); err != nil {
		return "", toFieldError("email", err, map[string]string{
			"required":  MsgEmailRequired,
			"authemail": MsgEmailInvalid,
		})
	}
	return email, nil
}

// Password checks the password is present and long enough. Whitespace-only
// input counts as empty; otherwise the password is used as typed.
func (v *Validator) Password(password string) error {
	if strings.TrimSpace(password) == "" {
		return apperrors.InvalidInputError("password", MsgPasswordRequired)
	}
	if err := v.validate.Struct(passwordForm{Password: password}); err != nil {
		return toFieldError("password", err, map[string]string{
			"required": MsgPasswordRequired,
			"min":      MsgPasswordTooShort,
		})
	}
	return nil
}

// Code checks that all six slots hold a single digit and returns the joined code
func (v *Validator) Code(digits []string) (string, error) {
	if err := v.validate.Struct(codeForm{Digits: digits}); err != nil {
		return "", toFieldError("code", err, map[string]string{
			"len":      MsgCodeIncomplete,
			"required": MsgCodeIncomplete,
			"numeric":  MsgCodeNotNumeric,
		})
	}
	return strings.Join(digits, ""), nil
}

// Method checks a two-factor method was chosen
func (v *Validator) Method(method string) error {
	if err := v.validate.Struct(methodForm{Method: method}); err != nil {
		return toFieldError("method", err, map[string]string{
			"required": MsgMethodRequired,
			"oneof":    MsgMethodRequired,
		})
	}
	return nil
}

// toFieldError maps the first failed tag to its user-facing message
func toFieldError(field string, err error, messages map[string]string) error {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
		if msg, ok := messages[validationErrors[0].Tag()]; ok {
			return apperrors.InvalidInputError(field, msg)
		}
	}
	return apperrors.InvalidInputError(field, field+" is invalid")
}
