package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/getmentor/authflow/internal/cache"
	"github.com/getmentor/authflow/internal/middleware"
	"github.com/getmentor/authflow/internal/models"
	"github.com/getmentor/authflow/internal/repository"
	"github.com/getmentor/authflow/internal/services"
	"github.com/getmentor/authflow/pkg/jwt"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/time/rate"
)

// recordingCodes remembers the last code issued per email so tests can submit it
type recordingCodes struct {
	*cache.CodeCache
	mu   sync.Mutex
	last map[string]string
}

func (r *recordingCodes) Put(email, code string) {
	r.mu.Lock()
	r.last[email] = code
	r.mu.Unlock()
	r.CodeCache.Put(email, code)
}

func (r *recordingCodes) Last(email string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last[email]
}

type testServer struct {
	router *gin.Engine
	codes  *recordingCodes
	tokens *jwt.TokenManager
}

func newTestServer(t *testing.T, rps float64, burst int) *testServer {
	t.Helper()

	users, err := repository.NewUserRepository(map[string]string{"demo@example.com": "password123"}, bcrypt.MinCost)
	require.NoError(t, err)

	codes := &recordingCodes{CodeCache: cache.NewCodeCache(time.Minute), last: map[string]string{}}
	tokens := jwt.NewTokenManager("handler-test-secret", "authflow-test", 15*time.Minute, time.Hour)
	svc := services.NewAuthService(users, codes, tokens, false)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	router := gin.New()
	router.Use(middleware.RequestIDMiddleware())
	RegisterAuthRoutes(router,
		middleware.NewRateLimiter(ctx, rate.Limit(rps), burst),
		NewAuthHandler(svc),
		NewHealthHandler(func() bool { return users.Count() > 0 }),
		tokens,
	)

	return &testServer{router: router, codes: codes, tokens: tokens}
}

func (s *testServer) post(path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	s.router.ServeHTTP(w, req)
	return w
}

func TestAuthHandler_LoginEmail(t *testing.T) {
	s := newTestServer(t, 100, 100)

	w := s.post("/v1/auth/login_email", `{"email":"demo@example.com"}`)

	require.Equal(t, http.StatusOK, w.Code)
	var resp models.CheckEmailResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Verification code sent to demo@example.com", resp.Data.Message)
	assert.Equal(t, services.RedirectPassword, resp.Data.RedirectURL)
	assert.Equal(t, "/v1/auth/login_email", resp.Path)
	assert.NotEmpty(t, resp.Timestamp)
	assert.Len(t, s.codes.Last("demo@example.com"), 6)
}

func TestAuthHandler_Rejections(t *testing.T) {
	s := newTestServer(t, 100, 100)

	tests := []struct {
		name    string
		path    string
		body    string
		status  int
		message string
	}{
		{
			name:    "unknown email",
			path:    "/v1/auth/login_email",
			body:    `{"email":"nobody@example.com"}`,
			status:  http.StatusNotFound,
			message: MsgUserNotFound,
		},
		{
			name:    "missing email",
			path:    "/v1/auth/login_email",
			body:    `{}`,
			status:  http.StatusBadRequest,
			message: "email is required",
		},
		{
			name:    "not json",
			path:    "/v1/auth/login_email",
			body:    `email=demo@example.com`,
			status:  http.StatusBadRequest,
			message: "Request body must be a JSON object",
		},
		{
			name:    "wrong password",
			path:    "/v1/auth/login_password",
			body:    `{"email":"demo@example.com","password":"nope-nope"}`,
			status:  http.StatusUnauthorized,
			message: MsgInvalidCredentials,
		},
		{
			name:    "short otp",
			path:    "/v1/auth/verify-otp",
			body:    `{"email":"demo@example.com","otp":"123"}`,
			status:  http.StatusBadRequest,
			message: "otp must be exactly 6 characters",
		},
		{
			name:    "no pending code",
			path:    "/v1/auth/verify-otp",
			body:    `{"email":"demo@example.com","otp":"123456"}`,
			status:  http.StatusUnauthorized,
			message: MsgInvalidCode,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.post(tt.path, tt.body)

			assert.Equal(t, tt.status, w.Code)
			var body map[string]any
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, false, body["success"])
			assert.Equal(t, tt.message, body["message"])
		})
	}
}

func TestAuthHandler_FullSequence(t *testing.T) {
	s := newTestServer(t, 100, 100)

	require.Equal(t, http.StatusOK, s.post("/v1/auth/login_email", `{"email":"demo@example.com"}`).Code)

	w := s.post("/v1/auth/login_password", `{"email":"demo@example.com","password":"password123"}`)
	require.Equal(t, http.StatusOK, w.Code)
	var login models.LoginResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &login))
	assert.True(t, login.Success)
	require.NotNil(t, login.Tokens())
	assert.NotEmpty(t, login.Tokens().RefreshToken)

	code := s.codes.Last("demo@example.com")
	w = s.post("/v1/auth/verify-otp", `{"email":"demo@example.com","otp":"`+code+`"}`)
	require.Equal(t, http.StatusOK, w.Code)
	var verified models.OtpVerificationResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &verified))
	require.NotNil(t, verified.Tokens())
	assert.Equal(t, true, verified.Tokens().User["isVerified"])

	// The code is spent
	w = s.post("/v1/auth/verify-otp", `{"email":"demo@example.com","otp":"`+code+`"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// The access token opens /me
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/v1/auth/me", http.NoBody)
	req.Header.Set("Authorization", "Bearer "+verified.Tokens().AccessToken)
	s.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	var me struct {
		Data struct {
			Email string `json:"email"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &me))
	assert.Equal(t, "demo@example.com", me.Data.Email)
}

func TestAuthHandler_RateLimited(t *testing.T) {
	s := newTestServer(t, 0.001, 1)

	assert.Equal(t, http.StatusOK, s.post("/v1/auth/login_email", `{"email":"demo@example.com"}`).Code)

	w := s.post("/v1/auth/login_email", `{"email":"demo@example.com"}`)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.JSONEq(t, `{"success":false,"message":"`+middleware.MsgRateLimited+`"}`, w.Body.String())
}

func TestAuthHandler_Probe(t *testing.T) {
	s := newTestServer(t, 100, 100)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/", http.NoBody)
	req.Header.Set("Accept", "application/json")
	s.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))
}
