package handler

import (
	"github.com/gin-gonic/gin"

	"RescueHub/internal/models"
	"RescueHub/pkg/middleware"
	"RescueHub/pkg/response"
)

// Health pings the database and reports hub occupancy.
func (h *Handlers) Health(c *gin.Context) {
	status := gin.H{"status": "ok"}

	sqlDB, err := h.db.DB()
	if err == nil {
		err = sqlDB.Ping()
	}
	if err != nil {
		status["status"] = "degraded"
		status["database"] = err.Error()
		c.JSON(503, status)
		return
	}
	status["database"] = "ok"
	if h.hub != nil {
		status["websocket_users"] = h.hub.OnlineCount()
	}
	c.JSON(200, status)
}

func (h *Handlers) GetRateLimiterConfig(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	if !h.requireAction(c, user, models.ActionSystemConfigure) {
		return
	}
	if h.limiter == nil {
		response.NotFound(c, "rate limiter is not configured")
		return
	}
	response.Success(c, "ok", h.limiter.Config())
}

// SetRateLimiterConfig swaps the throttle configuration at runtime.
func (h *Handlers) SetRateLimiterConfig(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	if !h.requireAction(c, user, models.ActionSystemConfigure) {
		return
	}
	if h.limiter == nil {
		response.NotFound(c, "rate limiter is not configured")
		return
	}
	var cfg middleware.RateLimiterConfig
	if err := c.ShouldBindJSON(&cfg); err != nil {
		response.BadRequest(c, "invalid rate limiter config: "+err.Error())
		return
	}
	h.limiter.UpdateConfig(cfg)
	response.Success(c, "rate limiter updated", h.limiter.Config())
}
