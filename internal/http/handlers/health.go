package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	dbPinger    Pinger
	cachePinger Pinger
}

func NewHealthHandler(dbPinger, cachePinger Pinger) *HealthHandler {
	return &HealthHandler{dbPinger: dbPinger, cachePinger: cachePinger}
}

func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "cibilbank-backend",
	})
}

func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	dbStatus := "ok"
	if h.dbPinger == nil || h.dbPinger.Ping(ctx) != nil {
		dbStatus = "error"
	}
	cacheStatus := "ok"
	if h.cachePinger == nil || h.cachePinger.Ping(ctx) != nil {
		cacheStatus = "error"
	}

	if dbStatus != "ok" || cacheStatus != "ok" {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":   "not_ready",
			"database": dbStatus,
			"cache":    cacheStatus,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   "ready",
		"database": dbStatus,
		"cache":    cacheStatus,
	})
}
