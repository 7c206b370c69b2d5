package handler

import (
	"github.com/gin-gonic/gin"

	"RescueHub/pkg/metrics"
	"RescueHub/pkg/middleware"
)

// Register wires every route group onto the engine.
func (h *Handlers) Register(engine *gin.Engine) {
	engine.GET("/metrics", metrics.Handler())
	engine.GET("/health", h.Health)

	api := engine.Group("/api/v1")

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/register", h.RegisterUser)
		authGroup.POST("/login", h.Login)
		authGroup.POST("/refresh", h.Refresh)
		authGroup.GET("/me", middleware.AuthRequired(h.tokens), h.Me)
	}

	sos := api.Group("/sos", middleware.AuthRequired(h.tokens))
	{
		sos.POST("", h.CreateAlert)
		sos.GET("", h.ListAlerts)
		sos.GET("/:id", h.GetAlert)
		sos.PATCH("/:id", h.UpdateAlert)
		sos.DELETE("/:id", h.DeleteAlert)
		sos.POST("/:id/media", h.UploadAlertMedia)
	}

	teams := api.Group("/teams", middleware.AuthRequired(h.tokens))
	{
		teams.POST("", h.CreateTeam)
		teams.GET("", h.ListTeams)
		teams.GET("/:id", h.GetTeam)
		teams.PATCH("/:id", h.UpdateTeam)
		teams.DELETE("/:id", h.DeleteTeam)
	}

	users := api.Group("/users", middleware.AuthRequired(h.tokens))
	{
		users.GET("", h.ListUsers)
		users.GET("/:id", h.GetUser)
		users.PATCH("/:id", h.UpdateUser)
		users.DELETE("/:id", h.DeleteUser)
	}

	notifications := api.Group("/notifications", middleware.AuthRequired(h.tokens))
	{
		notifications.GET("", h.ListNotifications)
		notifications.GET("/unread-count", h.UnreadCount)
		notifications.GET("/:id", h.GetNotification)
		notifications.PATCH("/:id/read", h.MarkNotificationRead)
		notifications.POST("/read-all", h.MarkAllNotificationsRead)
		notifications.DELETE("/:id", h.DeleteNotification)
	}

	aiGroup := api.Group("/ai", middleware.AuthRequired(h.tokens))
	{
		aiGroup.POST("/analyze/text", h.AnalyzeText)
		aiGroup.POST("/analyze/voice", h.AnalyzeVoice)
		aiGroup.POST("/analyze/image", h.AnalyzeImage)
		aiGroup.POST("/generate/rescue-plan", h.GenerateRescuePlan)
		aiGroup.POST("/transcribe", h.Transcribe)
		aiGroup.GET("/test", h.AITest)
	}

	geo := api.Group("/geolocation", middleware.AuthRequired(h.tokens))
	{
		geo.GET("/nearest-teams", h.NearestTeams)
	}

	analytics := api.Group("/analytics", middleware.AuthRequired(h.tokens))
	{
		analytics.GET("/dashboard", h.Dashboard)
	}

	system := api.Group("/system", middleware.AuthRequired(h.tokens))
	{
		system.GET("/health", h.Health)
		system.GET("/rate-limiter/config", h.GetRateLimiterConfig)
		system.POST("/rate-limiter/config", h.SetRateLimiterConfig)
	}

	// Token travels in the query string because browsers cannot set
	// headers on websocket upgrades.
	engine.GET("/ws/:user_id", h.ServeWS)
}
