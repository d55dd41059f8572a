package api

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fitpulse/insights/internal/middleware"
	"github.com/fitpulse/insights/internal/models"
	"github.com/fitpulse/insights/pkg/config"
)

func SetupRouter(
	authHandler *AuthHandler,
	eventHandler *EventHandler,
	insightHandler *InsightHandler,
	eventStream *EventStream,
	cfg *config.Config,
) *gin.Engine {
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware (in order)
	router.Use(gin.Recovery())
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.RequestLogger("/health", "/ready", "/live", "/prometheus"))
	router.Use(middleware.RateLimitMiddleware(middleware.GlobalRateLimiter))

	// CORS middleware (for development)
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	// Health check endpoints (no auth required)
	healthHandler := NewHealthHandler()
	router.GET("/health", healthHandler.HealthCheck)
	router.HEAD("/health", healthHandler.HealthCheck)
	router.GET("/ready", healthHandler.ReadinessCheck)
	router.GET("/live", healthHandler.LivenessCheck)
	router.GET("/stats", healthHandler.RuntimeStats)

	// Prometheus scrape endpoint (no auth required)
	router.GET("/prometheus", gin.WrapH(promhttp.Handler()))

	// Auth endpoints (no auth required, strict rate limiting)
	auth := router.Group("/api/auth")
	auth.Use(middleware.RateLimitMiddleware(middleware.AuthRateLimiter))
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.GET("/profile", middleware.AuthMiddleware(), authHandler.GetProfile)
	}

	// API routes (authenticated)
	api := router.Group("/api")
	api.Use(middleware.AuthMiddleware())
	{
		// Event log: any authenticated caller records, admins read
		api.POST("/events", eventHandler.RecordEvent)
		api.GET("/events", middleware.RequireRole(models.RoleAdmin), eventHandler.QueryEvents)

		// Derived insights
		insights := api.Group("/insights")
		{
			atRisk := insights.Group("/at-risk", middleware.RequireRole(models.RoleAdmin))
			{
				atRisk.GET("", insightHandler.GetAtRisk)
				atRisk.POST("/detect", insightHandler.DetectAtRisk)
				atRisk.POST("/:clientID/resolve", insightHandler.ResolveAtRisk)
			}

			leakage := insights.Group("/revenue-leakage", middleware.RequireRole(models.RoleAdmin))
			{
				leakage.GET("", insightHandler.GetRevenueLeakage)
				leakage.POST("/detect", insightHandler.DetectRevenueLeakage)
				leakage.POST("/:id/recover", insightHandler.RecoverLeakage)
			}

			insights.GET("/trainer-performance",
				middleware.RequireRole(models.RoleAdmin, models.RoleTrainer),
				insightHandler.GetTrainerPerformance)

			insights.GET("/feedback-analysis",
				middleware.RequireRole(models.RoleAdmin, models.RoleTrainer),
				insightHandler.GetFeedbackAnalysis)

			feedback := insights.Group("/feedback", middleware.RequireRole(models.RoleAdmin))
			{
				feedback.POST("/:id/process", insightHandler.ProcessFeedback)
				feedback.POST("/:id/send-to-admin", insightHandler.SendFeedbackToAdmin)
			}
		}

		// Live event feed for the admin dashboard
		api.GET("/admin/events/stream",
			middleware.RequireRole(models.RoleAdmin),
			eventStream.HandleConnection)
	}

	return router
}
