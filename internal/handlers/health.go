package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

func (h *Handler) HealthCheck(c *gin.Context) {
	pingCtx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	checks := gin.H{"storage": "ok", "sessions": "ok"}
	status := http.StatusOK

	if err := h.Store.Ping(pingCtx); err != nil {
		log.WithError(err).Warn("Storage health check failed")
		checks["storage"] = "unavailable"
		status = http.StatusServiceUnavailable
	}

	if err := h.Sessions.Ping(pingCtx); err != nil {
		log.WithError(err).Warn("Session store health check failed")
		checks["sessions"] = "unavailable"
		status = http.StatusServiceUnavailable
	}

	state := "ok"
	if status != http.StatusOK {
		state = "degraded"
	}

	c.JSON(status, gin.H{
		"status":    state,
		"message":   "RideCrew is running",
		"checks":    checks,
		"timestamp": time.Now().Format(time.RFC3339),
	})
}
