package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type HealthHandler struct {
	usersReady func() bool
}

func NewHealthHandler(usersReady func() bool) *HealthHandler {
	return &HealthHandler{
		usersReady: usersReady,
	}
}

// Healthcheck answers GET /, which the client also uses as its reachability probe
func (h *HealthHandler) Healthcheck(c *gin.Context) {
	c.Header("Cache-Control", "no-cache, no-store, max-age=0, must-revalidate")

	if !h.usersReady() {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unavailable",
			"reason": "no users configured",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}
