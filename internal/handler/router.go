package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/prohmpiriya/ringside/pkg/middleware"
)

// RouterConfig holds the middleware settings used by RegisterRoutes
type RouterConfig struct {
	JWT         middleware.JWTConfig
	Idempotency middleware.IdempotencyConfig
}

// RegisterRoutes mounts the health probes and the /api/v1 routes
func RegisterRoutes(router *gin.Engine, cfg RouterConfig, health *HealthHandler, organizer *OrganizerHandler, purchase *PurchaseHandler) {
	router.GET("/health", health.Health)
	router.GET("/ready", health.Ready)

	auth := middleware.JWTAuth(cfg.JWT)
	v1 := router.Group("/api/v1")

	drafts := v1.Group("/drafts", auth, middleware.RequireRole(middleware.RoleOrganizer))
	{
		drafts.POST("", organizer.StartDraft)
		drafts.GET("", organizer.GetDraft)
		drafts.DELETE("", organizer.DiscardDraft)
		drafts.POST("/advance", organizer.Advance)
		drafts.POST("/back", organizer.Back)
		drafts.POST("/finalize", organizer.Finalize)

		drafts.POST("/zones", organizer.AddZone)
		drafts.PUT("/zones/:zoneId", organizer.EditZone)
		drafts.DELETE("/zones/:zoneId", organizer.RemoveZone)

		drafts.POST("/matches", organizer.AddMatch)
		drafts.PUT("/matches/:matchId", organizer.EditMatch)
		drafts.DELETE("/matches/:matchId", organizer.RemoveMatch)
	}

	events := v1.Group("/events")
	{
		events.GET("/:id", purchase.GetEvent)
		events.GET("/:id/dates", purchase.GetDates)
		events.GET("/:id/matches", purchase.GetMatches)
		events.GET("/:id/availability", purchase.GetAvailability)

		events.POST("/:id/orders",
			auth,
			middleware.RequireRole(middleware.RoleCustomer),
			middleware.IdempotencyMiddleware(cfg.Idempotency),
			purchase.Checkout,
		)
		events.PUT("/:id/matches/:matchId/result",
			auth,
			middleware.RequireRole(middleware.RoleOrganizer),
			organizer.RecordResult,
		)
	}

	orders := v1.Group("/orders", auth, middleware.RequireRole(middleware.RoleCustomer))
	{
		orders.GET("/:id", purchase.GetOrder)
	}
}
