package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/getmentor/authflow/internal/models"
	"github.com/getmentor/authflow/internal/repository"
	apperrors "github.com/getmentor/authflow/pkg/errors"
	"github.com/getmentor/authflow/pkg/jwt"
	"github.com/getmentor/authflow/pkg/logger"
	"github.com/getmentor/authflow/pkg/metrics"
	"go.uber.org/zap"
)

var (
	ErrUserNotFound       = repository.ErrUserNotFound
	ErrInvalidCredentials = repository.ErrInvalidCredentials
	ErrInvalidCode        = fmt.Errorf("%w: invalid or expired code", apperrors.ErrUnauthorized)
	ErrTokenIssueFailed   = errors.New("failed to issue tokens")
)

// Messages returned to the client
const (
	MsgCodeSent       = "Verification code sent to %s"
	MsgLoginSucceeded = "Login successful. Enter the code we sent to your email."
	MsgVerified       = "Account verified"
	RedirectPassword  = "/enter-password"
)

// AuthService implements the three auth steps of the dev server
type AuthService struct {
	users       repository.UserDataSource
	codes       CodeStore
	tokens      *jwt.TokenManager
	development bool

	newCode func() (string, error)
	now     func() time.Time
}

// NewAuthService creates a new AuthService. In development the issued codes are logged.
func NewAuthService(users repository.UserDataSource, codes CodeStore, tokens *jwt.TokenManager, development bool) *AuthService {
	return &AuthService{
		users:       users,
		codes:       codes,
		tokens:      tokens,
		development: development,
		newCode:     generateCode,
		now:         time.Now,
	}
}

// RequestCode checks the email belongs to a user and issues a fresh code for it
func (s *AuthService) RequestCode(ctx context.Context, email string) (*models.CheckEmailResponse, error) {
	start := time.Now()

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		logger.Warn("Code request for unknown email", zap.String("email", email), zap.Error(err))
		metrics.LoginAttempts.WithLabelValues("email", "not_found").Inc()
		return nil, err
	}

	code, err := s.newCode()
	if err != nil {
		logger.Error("Failed to generate code", zap.Error(err))
		metrics.LoginAttempts.WithLabelValues("email", "code_failed").Inc()
		return nil, fmt.Errorf("failed to generate code: %w", err)
	}
	s.codes.Put(user.Email, code)
	metrics.OneTimeCodesIssued.Inc()

	if s.development {
		logger.Info("=== DEVELOPMENT VERIFICATION CODE ===",
			zap.String("email", user.Email),
			zap.String("code", code))
	}

	metrics.LoginAttempts.WithLabelValues("email", "success").Inc()
	logger.Info("Verification code issued",
		zap.String("user_id", user.ID),
		zap.Duration("duration", time.Since(start)))

	return &models.CheckEmailResponse{
		Data: models.CheckEmailData{
			Message:     fmt.Sprintf(MsgCodeSent, user.Email),
			RedirectURL: RedirectPassword,
		},
		Timestamp: s.now().UTC().Format(time.RFC3339),
	}, nil
}

// Login checks the password and returns a token pair
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.LoginResponse, error) {
	user, err := s.users.CheckPassword(ctx, email, password)
	if err != nil {
		logger.Warn("Password login rejected", zap.String("email", email), zap.Error(err))
		metrics.LoginAttempts.WithLabelValues("password", "rejected").Inc()
		return nil, err
	}

	tokens, err := s.issueTokens(user)
	if err != nil {
		metrics.LoginAttempts.WithLabelValues("password", "token_failed").Inc()
		return nil, err
	}

	message := MsgLoginSucceeded
	tokens.Message = &message
	metrics.LoginAttempts.WithLabelValues("password", "success").Inc()
	logger.Info("Password login succeeded", zap.String("user_id", user.ID))

	return &models.LoginResponse{
		Success: true,
		Message: &message,
		Data:    &models.TokenEnvelope{Data: tokens},
	}, nil
}

// VerifyOtp consumes the pending code and returns a fresh token pair
func (s *AuthService) VerifyOtp(ctx context.Context, email, otp string) (*models.OtpVerificationResponse, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		metrics.LoginAttempts.WithLabelValues("otp", "not_found").Inc()
		return nil, ErrInvalidCode
	}

	if !s.codes.Pending(user.Email) {
		logger.Info("Code verification without a pending code", zap.String("user_id", user.ID))
		metrics.LoginAttempts.WithLabelValues("otp", "no_code").Inc()
		return nil, ErrInvalidCode
	}

	if !s.codes.Consume(user.Email, otp) {
		logger.Warn("Code verification rejected", zap.String("user_id", user.ID))
		metrics.LoginAttempts.WithLabelValues("otp", "rejected").Inc()
		return nil, ErrInvalidCode
	}

	if err := s.users.MarkVerified(ctx, user.Email); err != nil {
		return nil, fmt.Errorf("failed to mark user verified: %w", err)
	}
	user.IsVerified = true

	tokens, err := s.issueTokens(user)
	if err != nil {
		metrics.LoginAttempts.WithLabelValues("otp", "token_failed").Inc()
		return nil, err
	}

	metrics.LoginAttempts.WithLabelValues("otp", "success").Inc()
	logger.Info("Code verification succeeded", zap.String("user_id", user.ID))

	return &models.OtpVerificationResponse{
		Success: true,
		Data:    &models.TokenEnvelope{Data: tokens},
	}, nil
}

func (s *AuthService) issueTokens(user *models.User) (*models.TokenData, error) {
	pair, err := s.tokens.IssuePair(user.ID, user.Email)
	if err != nil {
		logger.Error("Failed to issue tokens", zap.String("user_id", user.ID), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrTokenIssueFailed, err)
	}
	return &models.TokenData{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		User:         user.ToMap(),
	}, nil
}

// generateCode returns a uniformly random six-digit code
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
