package services

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/getmentor/authflow/internal/cache"
	"github.com/getmentor/authflow/internal/models"
	apperrors "github.com/getmentor/authflow/pkg/errors"
	"github.com/getmentor/authflow/pkg/jwt"
	"github.com/getmentor/authflow/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-for-dev-server"

func newTestService(t *testing.T) (*AuthService, *MockUserDataSource, *cache.CodeCache, *jwt.TokenManager) {
	t.Helper()
	users := new(MockUserDataSource)
	codes := cache.NewCodeCache(time.Minute)
	tokens := jwt.NewTokenManager(testSecret, "authflow-test", 15*time.Minute, time.Hour)

	svc := NewAuthService(users, codes, tokens, true)
	svc.newCode = func() (string, error) { return "123456", nil }
	svc.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }
	return svc, users, codes, tokens
}

func demoUser() *models.User {
	return &models.User{ID: "user-1", Email: "demo@example.com", Name: "Demo"}
}

func TestAuthService_RequestCode(t *testing.T) {
	svc, users, codes, _ := newTestService(t)
	users.On("GetByEmail", mock.Anything, "demo@example.com").Return(demoUser(), nil)

	resp, err := svc.RequestCode(context.Background(), "demo@example.com")

	require.NoError(t, err)
	assert.Equal(t, "Verification code sent to demo@example.com", resp.Data.Message)
	assert.Equal(t, RedirectPassword, resp.Data.RedirectURL)
	assert.Equal(t, "2024-05-01T12:00:00Z", resp.Timestamp)
	assert.True(t, codes.Pending("demo@example.com"))
}

func TestAuthService_RequestCode_UnknownUser(t *testing.T) {
	svc, users, codes, _ := newTestService(t)
	users.On("GetByEmail", mock.Anything, "nobody@example.com").Return(nil, ErrUserNotFound)

	_, err := svc.RequestCode(context.Background(), "nobody@example.com")

	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
	assert.False(t, codes.Pending("nobody@example.com"))
}

func TestAuthService_RequestCode_GeneratorFailure(t *testing.T) {
	svc, users, _, _ := newTestService(t)
	users.On("GetByEmail", mock.Anything, "demo@example.com").Return(demoUser(), nil)
	svc.newCode = func() (string, error) { return "", errors.New("entropy exhausted") }

	_, err := svc.RequestCode(context.Background(), "demo@example.com")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "entropy exhausted")
}

func TestAuthService_Login(t *testing.T) {
	svc, users, _, tokens := newTestService(t)
	users.On("CheckPassword", mock.Anything, "demo@example.com", "password123").Return(demoUser(), nil)

	resp, err := svc.Login(context.Background(), "demo@example.com", "password123")

	require.NoError(t, err)
	assert.True(t, resp.Success)
	require.NotNil(t, resp.Message)
	assert.Equal(t, MsgLoginSucceeded, *resp.Message)

	data := resp.Tokens()
	require.NotNil(t, data)
	require.NotNil(t, data.Message)
	assert.Equal(t, "demo@example.com", data.User["email"])

	claims, err := tokens.ValidateToken(data.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, jwt.TokenTypeAccess, claims.TokenType)

	refresh, err := tokens.ValidateToken(data.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, jwt.TokenTypeRefresh, refresh.TokenType)
}

func TestAuthService_Login_Rejected(t *testing.T) {
	svc, users, _, _ := newTestService(t)
	users.On("CheckPassword", mock.Anything, "demo@example.com", "nope-nope").Return(nil, ErrInvalidCredentials)

	_, err := svc.Login(context.Background(), "demo@example.com", "nope-nope")

	assert.True(t, errors.Is(err, ErrInvalidCredentials))
	assert.True(t, errors.Is(err, apperrors.ErrUnauthorized))
}

func TestAuthService_VerifyOtp(t *testing.T) {
	svc, users, codes, _ := newTestService(t)
	users.On("GetByEmail", mock.Anything, "demo@example.com").Return(demoUser(), nil)
	users.On("MarkVerified", mock.Anything, "demo@example.com").Return(nil)
	codes.Put("demo@example.com", "123456")

	resp, err := svc.VerifyOtp(context.Background(), "demo@example.com", "123456")

	require.NoError(t, err)
	assert.True(t, resp.Success)
	data := resp.Tokens()
	require.NotNil(t, data)
	assert.NotEmpty(t, data.AccessToken)
	assert.Equal(t, true, data.User["isVerified"])
	users.AssertExpectations(t)

	_, err = svc.VerifyOtp(context.Background(), "demo@example.com", "123456")
	assert.True(t, errors.Is(err, ErrInvalidCode), "code is single use")
}

func TestAuthService_VerifyOtp_WrongCode(t *testing.T) {
	svc, users, codes, _ := newTestService(t)
	users.On("GetByEmail", mock.Anything, "demo@example.com").Return(demoUser(), nil)
	codes.Put("demo@example.com", "123456")

	_, err := svc.VerifyOtp(context.Background(), "demo@example.com", "654321")

	assert.True(t, errors.Is(err, ErrInvalidCode))
	users.AssertNotCalled(t, "MarkVerified", mock.Anything, mock.Anything)
}

func counterValue(c prometheus.Counter) float64 {
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		return -1
	}
	return m.GetCounter().GetValue()
}

func TestAuthService_VerifyOtp_NoPendingCode(t *testing.T) {
	svc, users, _, _ := newTestService(t)
	users.On("GetByEmail", mock.Anything, "demo@example.com").Return(demoUser(), nil)
	noCode := metrics.LoginAttempts.WithLabelValues("otp", "no_code")
	rejected := metrics.LoginAttempts.WithLabelValues("otp", "rejected")
	noCodeBefore, rejectedBefore := counterValue(noCode), counterValue(rejected)

	_, err := svc.VerifyOtp(context.Background(), "demo@example.com", "123456")

	assert.True(t, errors.Is(err, ErrInvalidCode))
	assert.Equal(t, noCodeBefore+1, counterValue(noCode))
	assert.Equal(t, rejectedBefore, counterValue(rejected))
	users.AssertNotCalled(t, "MarkVerified", mock.Anything, mock.Anything)
}

func TestAuthService_VerifyOtp_UnknownUser(t *testing.T) {
	svc, users, _, _ := newTestService(t)
	users.On("GetByEmail", mock.Anything, "nobody@example.com").Return(nil, ErrUserNotFound)

	_, err := svc.VerifyOtp(context.Background(), "nobody@example.com", "123456")

	assert.True(t, errors.Is(err, ErrInvalidCode))
}

func TestGenerateCode(t *testing.T) {
	pattern := regexp.MustCompile(`^\d{6}$`)
	for i := 0; i < 50; i++ {
		code, err := generateCode()
		require.NoError(t, err)
		assert.Regexp(t, pattern, code)
	}
}
