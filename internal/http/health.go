package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"personal-calendar/internal/database"
	"personal-calendar/internal/export"
)

const healthTimeout = 2 * time.Second

func (h *Handler) health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	now := export.ISOTime(time.Now())
	if err := database.Ping(ctx, h.db); err != nil {
		h.logger.WithError(err).Warn("health check: database unreachable")
		c.JSON(http.StatusServiceUnavailable, HealthResponse{
			Status:    "error",
			Message:   "Server is running but database connection failed",
			Database:  "disconnected",
			Timestamp: now,
		})
		return
	}

	c.JSON(http.StatusOK, HealthResponse{
		Status:    "ok",
		Message:   "Server is running",
		Database:  "connected",
		Timestamp: now,
	})
}
