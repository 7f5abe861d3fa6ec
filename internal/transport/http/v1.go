package http

import (
	"github.com/gin-gonic/gin"

	"github.com/dwarvesf/btc-strk-purchase/internal/handler"
	"github.com/dwarvesf/btc-strk-purchase/internal/utils/config"
	"github.com/dwarvesf/btc-strk-purchase/internal/utils/logger"
)

func loadV1Routes(r *gin.Engine, h *handler.Handler, appConfig *config.AppConfig, logger *logger.Logger) {
	v1 := r.Group("/api/v1")

	purchases := v1.Group("/purchases", requireProfile(logger))
	{
		purchases.POST("", h.PurchaseHandler.Start)
		purchases.GET("", h.PurchaseHandler.List)
		purchases.GET("/:id", h.PurchaseHandler.Get)
		purchases.POST("/:id/confirm", h.PurchaseHandler.Confirm)
		purchases.POST("/:id/cancel", h.PurchaseHandler.Cancel)
		purchases.POST("/:id/retry", h.PurchaseHandler.Retry)
		purchases.POST("/:id/monitoring/stop", h.PurchaseHandler.StopMonitoring)

		purchases.GET("/:id/signing", h.SigningHandler.Pending)
		purchases.POST("/:id/signing", h.SigningHandler.Submit)
		purchases.POST("/:id/signing/cancel", h.SigningHandler.Cancel)
	}

	sessions := v1.Group("/sessions", requireProfile(logger))
	{
		sessions.POST("/:chain", h.SessionHandler.Connect)
		sessions.GET("/:chain", h.SessionHandler.Load)
		sessions.POST("/:chain/activity", h.SessionHandler.Touch)
		sessions.DELETE("/:chain", h.SessionHandler.Disconnect)
	}

	swap := v1.Group("/swap")
	{
		swap.GET("/limits", h.SwapHandler.Limits)
	}

	health := v1.Group("/health")
	{
		health.GET("/db", h.HealthHandler.Database)
		health.GET("/external", h.HealthHandler.External)
		health.GET("/jobs", h.HealthHandler.Jobs)
	}

	r.GET("/healthz", h.HealthHandler.Basic)
	r.GET("/metrics", h.MetricsHandler.Handler())
}
