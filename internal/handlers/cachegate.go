package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/tarotgarden/internal/cachegate"
	apperrors "github.com/charlesng35/tarotgarden/pkg/errors"
	"github.com/charlesng35/tarotgarden/pkg/response"
)

// CacheGate serves every unrouted request through the gate in front of the web origin.
// Unknown /api paths stay JSON 404s instead of reaching the web build.
func CacheGate(gate *cachegate.Gate) gin.HandlerFunc {
	return func(c *gin.Context) {
		if path := c.Request.URL.Path; path == "/api" || strings.HasPrefix(path, "/api/") {
			response.Error(c, apperrors.ErrNotFound)
			return
		}
		gate.ServeHTTP(c.Writer, c.Request)
	}
}
