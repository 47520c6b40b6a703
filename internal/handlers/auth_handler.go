package handlers

import (
	"errors"
	"net/http"

	"github.com/getmentor/authflow/internal/middleware"
	"github.com/getmentor/authflow/internal/models"
	"github.com/getmentor/authflow/internal/services"
	"github.com/gin-gonic/gin"
)

// Messages sent back in {success:false, message}
const (
	MsgValidationFailed   = "Validation failed"
	MsgUserNotFound       = "No account found for this email"
	MsgCodeSendFailed     = "Failed to send verification code"
	MsgInvalidCredentials = "Invalid credentials"
	MsgLoginFailed        = "Login failed"
	MsgInvalidCode        = "Invalid or expired verification code"
	MsgVerifyFailed       = "OTP verification failed"
	MsgNotAuthenticated   = "Not authenticated"
)

// AuthHandler handles the auth endpoints consumed by the client
type AuthHandler struct {
	service services.AuthServiceInterface
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(service services.AuthServiceInterface) *AuthHandler {
	return &AuthHandler{
		service: service,
	}
}

// LoginEmail handles POST /v1/auth/login_email
// Issues a one-time code for a known email
func (h *AuthHandler) LoginEmail(c *gin.Context) {
	var req models.CheckEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, ParseValidationErrors(err), err)
		return
	}

	resp, err := h.service.RequestCode(c.Request.Context(), req.Email)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			respondError(c, http.StatusNotFound, MsgUserNotFound, err)
			return
		}
		respondError(c, http.StatusInternalServerError, MsgCodeSendFailed, err)
		return
	}

	resp.Path = c.Request.URL.Path
	c.JSON(http.StatusOK, resp)
}

// LoginPassword handles POST /v1/auth/login_password
// Checks the password and returns a token pair
func (h *AuthHandler) LoginPassword(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, ParseValidationErrors(err), err)
		return
	}

	resp, err := h.service.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			respondError(c, http.StatusUnauthorized, MsgInvalidCredentials, err)
			return
		}
		respondError(c, http.StatusInternalServerError, MsgLoginFailed, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// VerifyOtp handles POST /v1/auth/verify-otp
// Consumes the pending code and returns a fresh token pair
func (h *AuthHandler) VerifyOtp(c *gin.Context) {
	var req models.VerifyOtpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, ParseValidationErrors(err), err)
		return
	}

	resp, err := h.service.VerifyOtp(c.Request.Context(), req.Email, req.Otp)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCode) {
			respondError(c, http.StatusUnauthorized, MsgInvalidCode, err)
			return
		}
		respondError(c, http.StatusInternalServerError, MsgVerifyFailed, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Me handles GET /v1/auth/me
// Returns the claims of the bearer access token
func (h *AuthHandler) Me(c *gin.Context) {
	claims, ok := middleware.GetUserClaims(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, MsgNotAuthenticated, nil)
		return
	}

	var expiresAt int64
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Unix()
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"id":        claims.Subject,
			"email":     claims.Email,
			"expiresAt": expiresAt,
		},
	})
}
