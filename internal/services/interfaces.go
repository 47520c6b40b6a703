package services

import (
	"context"

	"github.com/getmentor/authflow/internal/models"
)

// AuthServiceInterface defines the interface for the dev server's auth steps
type AuthServiceInterface interface {
	RequestCode(ctx context.Context, email string) (*models.CheckEmailResponse, error)
	Login(ctx context.Context, email, password string) (*models.LoginResponse, error)
	VerifyOtp(ctx context.Context, email, otp string) (*models.OtpVerificationResponse, error)
}

// CodeStore keeps pending one-time codes
type CodeStore interface {
	Put(email, code string)
	Pending(email string) bool
	Consume(email, code string) bool
}
