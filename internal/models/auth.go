package models

// CheckEmailRequest is the body of POST /v1/auth/login_email
type CheckEmailRequest struct {
	Email string `json:"email" binding:"required,max=255"`
}

// LoginRequest is the body of POST /v1/auth/login_password
type LoginRequest struct {
	Email    string `json:"email" binding:"required,max=255"`
	Password string `json:"password" binding:"required,max=255"`
}

// VerifyOtpRequest is the body of POST /v1/auth/verify-otp
type VerifyOtpRequest struct {
	Email string `json:"email" binding:"required,max=255"`
	Otp   string `json:"otp" binding:"required,len=6,numeric"`
}

// CheckEmailResponse is returned by the email check step
type CheckEmailResponse struct {
	Data      CheckEmailData `json:"data"`
	Timestamp string         `json:"timestamp"`
	Path      string         `json:"path"`
}

type CheckEmailData struct {
	Message     string `json:"message"`
	RedirectURL string `json:"redirectUrl"`
}

// LoginResponse is returned by the password step. Optional fields stay nil
// when the server omits them; nothing is defaulted.
type LoginResponse struct {
	Success bool           `json:"success"`
	Message *string        `json:"message,omitempty"`
	Data    *TokenEnvelope `json:"data,omitempty"`
	Error   *string        `json:"error,omitempty"`
}

// OtpVerificationResponse is returned by the code verification step
type OtpVerificationResponse struct {
	Success bool           `json:"success"`
	Data    *TokenEnvelope `json:"data,omitempty"`
	Error   *string        `json:"error,omitempty"`
}

// TokenEnvelope mirrors the backend's nested data.data wrapper
type TokenEnvelope struct {
	Data *TokenData `json:"data,omitempty"`
}

// TokenData carries the issued tokens and the user record as sent by the server
type TokenData struct {
	AccessToken  string         `json:"accessToken"`
	RefreshToken string         `json:"refreshToken"`
	User         map[string]any `json:"user"`
	Message      *string        `json:"message,omitempty"`
}

// Tokens returns the nested token payload, or nil when the server sent none
func (r *LoginResponse) Tokens() *TokenData {
	if r == nil || r.Data == nil {
		return nil
	}
	return r.Data.Data
}

// Tokens returns the nested token payload, or nil when the server sent none
func (r *OtpVerificationResponse) Tokens() *TokenData {
	if r == nil || r.Data == nil {
		return nil
	}
	return r.Data.Data
}

// ErrorResponse is the body of every rejected dev server request
type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// User is the user record the dev server returns inside token payloads
type User struct {
	ID         string `json:"id"`
	Email      string `json:"email"`
	Name       string `json:"name"`
	IsVerified bool   `json:"isVerified"`
}

// ToMap converts the user to the loosely typed form used on the wire
func (u *User) ToMap() map[string]any {
	return map[string]any{
		"id":         u.ID,
		"email":      u.Email,
		"name":       u.Name,
		"isVerified": u.IsVerified,
	}
}
