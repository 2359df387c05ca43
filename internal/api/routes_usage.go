package api

import (
	"github.com/gin-gonic/gin"

	"github.com/charlesng35/tarotgarden/internal/handlers"
	"github.com/charlesng35/tarotgarden/internal/middleware"
)

func registerUsageRoutes(r *gin.Engine, deps Dependencies, svc *routeServices) {
	h := handlers.NewUsageHandler(deps.Usage, svc.subscriptions)

	premium := r.Group("/api/usage/premium")
	premium.Use(middleware.DeviceID(), middleware.OptionalAuth(deps.JWT))
	{
		premium.GET("", h.Status)
		premium.DELETE("", h.Reset)
		premium.POST("/check", h.Check)
		premium.POST("/record", h.Record)
	}
}
