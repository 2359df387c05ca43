package api

import (
	"github.com/gin-gonic/gin"

	"github.com/charlesng35/tarotgarden/internal/app"
	"github.com/charlesng35/tarotgarden/internal/handlers"
	"github.com/charlesng35/tarotgarden/internal/middleware"
)

func registerReadingRoutes(r *gin.Engine, cfg *app.Config, deps Dependencies, svc *routeServices) {
	h := handlers.NewReadingHandler(deps.Usage, svc.subscriptions, svc.users, svc.readings, deps.Interpreter)

	limit := middleware.WindowLimit(
		deps.RateStore,
		cfg.RateLimit.ReadingsPerWindow,
		cfg.RateLimit.ReadingsWindow,
		func(c *gin.Context) string { return c.GetString(middleware.CtxDeviceIDKey) },
	)

	readings := r.Group("/api/readings")
	{
		readings.POST("", middleware.DeviceID(), middleware.OptionalAuth(deps.JWT), limit, h.Create)
		readings.GET("", middleware.Auth(deps.JWT), h.List)
	}
}

func registerSubscriptionRoutes(r *gin.Engine, deps Dependencies, svc *routeServices) {
	h := handlers.NewSubscriptionHandler(svc.subscriptions, svc.users)

	subs := r.Group("/api/subscriptions")
	subs.Use(middleware.Auth(deps.JWT))
	{
		subs.POST("/sync", h.Sync)
		subs.GET("/me", h.Me)
	}
}
