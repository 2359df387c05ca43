package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/charlesng35/tarotgarden/internal/cachegate"
	"github.com/charlesng35/tarotgarden/internal/monitoring"
	"github.com/charlesng35/tarotgarden/pkg/logger"
	"github.com/charlesng35/tarotgarden/pkg/response"
)

// Health reports liveness, every registered probe and the cache gate lifecycle state.
// Any probe that is down turns the response into a 503.
func Health(prober *monitoring.Prober, gate *cachegate.Gate) gin.HandlerFunc {
	return func(c *gin.Context) {
		report := prober.Evaluate(requestContext(c))

		payload := gin.H{"status": "ok", "database": "ok", "checks": report.Checks}
		status := http.StatusOK

		if report.Status != monitoring.StatusUp {
			payload["status"] = "degraded"
			for _, res := range report.Checks {
				if res.Status != monitoring.StatusUp {
					logger.WithModule("health").Warn("probe failed",
						zap.String("component", res.Component),
						zap.String("status", string(res.Status)),
						zap.String("details", res.Details),
					)
				}
			}
		}
		if report.Status == monitoring.StatusDown {
			status = http.StatusServiceUnavailable
		}
		if res, ok := report.Find("database"); ok && res.Status != monitoring.StatusUp {
			payload["database"] = "unreachable"
		}

		if gate != nil {
			payload["cache_gate"] = gin.H{
				"name":  gate.Name(),
				"mode":  gate.Mode(),
				"state": gate.State(),
			}
		}

		response.Success(c, status, payload)
	}
}
