package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/tarotgarden/internal/handlers"
)

func registerAccountRoutes(r *gin.Engine, deps Dependencies, svc *routeServices) {
	h := handlers.NewAccountHandler(svc.accounts, deps.JWT)

	r.DELETE("/api/account", h.Delete)
	r.POST("/api/account/delete", h.Delete)

	// other verbs get the same bare error body as the deletion itself
	for _, method := range []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch} {
		r.Handle(method, "/api/account", h.MethodNotAllowed(http.MethodDelete))
	}
	for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodPatch, http.MethodDelete} {
		r.Handle(method, "/api/account/delete", h.MethodNotAllowed(http.MethodPost))
	}
}
