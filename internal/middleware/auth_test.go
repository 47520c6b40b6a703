package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/getmentor/authflow/pkg/jwt"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	// Set Gin to test mode
	gin.SetMode(gin.TestMode)
}

func newProtectedRouter(tm *jwt.TokenManager, handlerCalled *bool) *gin.Engine {
	router := gin.New()
	router.Use(BearerAuthMiddleware(tm))
	router.GET("/test", func(c *gin.Context) {
		*handlerCalled = true
		claims, ok := GetUserClaims(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.String(http.StatusOK, claims.Email)
	})
	return router
}

func TestBearerAuthMiddleware_ValidToken(t *testing.T) {
	tm := jwt.NewTokenManager("secret", "issuer", time.Minute, time.Hour)
	pair, err := tm.IssuePair("user-1", "a@b.com")
	require.NoError(t, err)

	handlerCalled := false
	router := newProtectedRouter(tm, &handlerCalled)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/test", http.NoBody)
	req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	router.ServeHTTP(w, req)

	assert.True(t, handlerCalled, "Handler should be called for valid token")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "a@b.com", w.Body.String())
}

func TestBearerAuthMiddleware_Rejections(t *testing.T) {
	tm := jwt.NewTokenManager("secret", "issuer", time.Minute, time.Hour)
	pair, err := tm.IssuePair("user-1", "a@b.com")
	require.NoError(t, err)

	other := jwt.NewTokenManager("other-secret", "issuer", time.Minute, time.Hour)
	foreign, err := other.IssuePair("user-1", "a@b.com")
	require.NoError(t, err)

	tests := []struct {
		name    string
		header  string
		message string
	}{
		{name: "missing header", header: "", message: "Missing access token"},
		{name: "wrong scheme", header: "Basic abc", message: "Missing access token"},
		{name: "empty bearer", header: "Bearer  ", message: "Missing access token"},
		{name: "garbage", header: "Bearer not-a-jwt", message: "Invalid access token"},
		{name: "wrong secret", header: "Bearer " + foreign.AccessToken, message: "Invalid access token"},
		{name: "refresh token", header: "Bearer " + pair.RefreshToken, message: "Invalid access token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handlerCalled := false
			router := newProtectedRouter(tm, &handlerCalled)

			w := httptest.NewRecorder()
			req := httptest.NewRequest("GET", "/test", http.NoBody)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			router.ServeHTTP(w, req)

			assert.False(t, handlerCalled)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.JSONEq(t, `{"success":false,"message":"`+tt.message+`"}`, w.Body.String())
		})
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	router := gin.New()
	router.Use(RequestIDMiddleware())
	router.GET("/test", func(c *gin.Context) {
		c.String(http.StatusOK, GetRequestID(c))
	})

	// A valid id is echoed
	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/test", http.NoBody)
	req.Header.Set(RequestIDHeader, "2f1b7c2e-3d4a-4e5f-8a9b-0c1d2e3f4a5b")
	router.ServeHTTP(w, req)
	assert.Equal(t, "2f1b7c2e-3d4a-4e5f-8a9b-0c1d2e3f4a5b", w.Header().Get(RequestIDHeader))
	assert.Equal(t, "2f1b7c2e-3d4a-4e5f-8a9b-0c1d2e3f4a5b", w.Body.String())

	// Anything else is replaced
	w = httptest.NewRecorder()
	req = httptest.NewRequest("GET", "/test", http.NoBody)
	req.Header.Set(RequestIDHeader, "<script>")
	router.ServeHTTP(w, req)
	assert.NotEqual(t, "<script>", w.Header().Get(RequestIDHeader))
	assert.Len(t, w.Header().Get(RequestIDHeader), 36)
}

func TestRateLimiter(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rl := NewRateLimiter(ctx, 0.001, 2)
	router := gin.New()
	router.Use(rl.Middleware())
	router.POST("/test", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/test", http.NoBody)
		req.RemoteAddr = "10.0.0.1:1234"
		router.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	// Another client has its own bucket
	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/test", http.NoBody)
	req.RemoteAddr = "10.0.0.2:1234"
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestBodySizeLimitMiddleware(t *testing.T) {
	router := gin.New()
	router.Use(BodySizeLimitMiddleware(8))
	router.POST("/test", func(c *gin.Context) {
		var body map[string]any
		if err := c.ShouldBindJSON(&body); err != nil {
			c.Status(http.StatusRequestEntityTooLarge)
			return
		}
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/test", strings.NewReader(`{"a":1}`))
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	req = httptest.NewRequest("POST", "/test", strings.NewReader(`{"email":"someone@example.com"}`))
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}
