package handlers

import (
	"github.com/getmentor/authflow/internal/middleware"
	"github.com/getmentor/authflow/pkg/jwt"
	"github.com/gin-gonic/gin"
)

// RegisterAuthRoutes mounts the health probe and the auth endpoints the client consumes
func RegisterAuthRoutes(
	router *gin.Engine,
	authRateLimiter *middleware.RateLimiter,
	authHandler *AuthHandler,
	healthHandler *HealthHandler,
	tokenManager *jwt.TokenManager,
) {
	router.GET("/", healthHandler.Healthcheck)

	auth := router.Group("/v1/auth")
	auth.Use(middleware.BodySizeLimitMiddleware(middleware.MaxAuthBodyBytes))
	auth.POST("/login_email", authRateLimiter.Middleware(), authHandler.LoginEmail)
	auth.POST("/login_password", authRateLimiter.Middleware(), authHandler.LoginPassword)
	auth.POST("/verify-otp", authRateLimiter.Middleware(), authHandler.VerifyOtp)
	auth.GET("/me", middleware.BearerAuthMiddleware(tokenManager), authHandler.Me)
}
