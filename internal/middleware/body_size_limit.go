package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// MaxAuthBodyBytes is the largest request body the auth endpoints accept
const MaxAuthBodyBytes int64 = 4 << 10

// BodySizeLimitMiddleware limits the size of request bodies
func BodySizeLimitMiddleware(maxBodySize int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}

		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodySize)
		c.Next()
	}
}
