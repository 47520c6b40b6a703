package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/getmentor/authflow/internal/models"
	"github.com/getmentor/authflow/pkg/jwt"
	"github.com/getmentor/authflow/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// UserClaimsContextKey is the key used to store validated claims in context
const UserClaimsContextKey = "user_claims"

// BearerAuthMiddleware validates the access token in the Authorization header
// and adds its claims to the context
func BearerAuthMiddleware(tokenManager *jwt.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, found := strings.CutPrefix(header, "Bearer ")
		if !found || strings.TrimSpace(token) == "" {
			logger.Warn("Missing bearer token",
				zap.String("path", c.Request.URL.Path),
				zap.String("client_ip", c.ClientIP()),
			)
			_ = c.Error(fmt.Errorf("missing bearer token")) //nolint:errcheck
			c.JSON(http.StatusUnauthorized, models.ErrorResponse{Message: "Missing access token"})
			c.Abort()
			return
		}

		claims, err := tokenManager.ValidateToken(strings.TrimSpace(token))
		if err == nil && claims.TokenType != jwt.TokenTypeAccess {
			err = fmt.Errorf("%w: %s token used for access", jwt.ErrInvalidClaim, claims.TokenType)
		}
		if err != nil {
			_ = c.Error(fmt.Errorf("invalid access token: %w", err)) //nolint:errcheck

			message := "Invalid access token"
			if errors.Is(err, jwt.ErrExpiredToken) {
				message = "Access token expired"
			}
			c.JSON(http.StatusUnauthorized, models.ErrorResponse{Message: message})
			c.Abort()
			return
		}

		c.Set(UserClaimsContextKey, claims)
		c.Next()
	}
}

// GetUserClaims extracts the validated claims from context
func GetUserClaims(c *gin.Context) (*jwt.UserClaims, bool) {
	val, exists := c.Get(UserClaimsContextKey)
	if !exists {
		return nil, false
	}
	claims, ok := val.(*jwt.UserClaims)
	return claims, ok
}
