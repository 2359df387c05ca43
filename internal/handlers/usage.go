package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/tarotgarden/internal/services"
	"github.com/charlesng35/tarotgarden/internal/usage"
	apperrors "github.com/charlesng35/tarotgarden/pkg/errors"
	"github.com/charlesng35/tarotgarden/pkg/response"
)

// UsageHandler exposes the daily premium spread quota of the calling device.
type UsageHandler struct {
	gate *usage.Gate
	subs *services.SubscriptionService
}

func NewUsageHandler(gate *usage.Gate, subs *services.SubscriptionService) *UsageHandler {
	return &UsageHandler{gate: gate, subs: subs}
}

type spreadPayload struct {
	Spread string `json:"spread" validate:"required,max=64"`
}

type usageCheckDTO struct {
	Spread     string `json:"spread"`
	Restricted bool   `json:"restricted"`
	Allowed    bool   `json:"allowed"`
	Message    string `json:"message,omitempty"`
}

// GET /api/usage/premium
func (h *UsageHandler) Status(c *gin.Context) {
	premium, err := resolvePremium(c, h.subs)
	if err != nil {
		response.Error(c, apperrors.ErrInternalServer.WithInternal(err))
		return
	}
	response.Success(c, http.StatusOK, deviceGate(c, h.gate).Status(requestContext(c), premium))
}

// POST /api/usage/premium/check
func (h *UsageHandler) Check(c *gin.Context) {
	var payload spreadPayload
	if !bindAndValidate(c, &payload) {
		return
	}
	premium, err := resolvePremium(c, h.subs)
	if err != nil {
		response.Error(c, apperrors.ErrInternalServer.WithInternal(err))
		return
	}

	ctx := requestContext(c)
	gate := deviceGate(c, h.gate)
	spread := strings.TrimSpace(payload.Spread)

	dto := usageCheckDTO{
		Spread:     spread,
		Restricted: gate.IsRestricted(spread),
		Allowed:    gate.CanUse(ctx, spread, premium),
	}
	if !dto.Allowed {
		dto.Message = gate.BuildLimitMessage(ctx)
	}
	response.Success(c, http.StatusOK, dto)
}

// POST /api/usage/premium/record
func (h *UsageHandler) Record(c *gin.Context) {
	var payload spreadPayload
	if !bindAndValidate(c, &payload) {
		return
	}
	premium, err := resolvePremium(c, h.subs)
	if err != nil {
		response.Error(c, apperrors.ErrInternalServer.WithInternal(err))
		return
	}

	ctx := requestContext(c)
	gate := deviceGate(c, h.gate)
	gate.RecordUse(ctx, strings.TrimSpace(payload.Spread))
	response.Success(c, http.StatusOK, gate.Status(ctx, premium))
}

// DELETE /api/usage/premium
func (h *UsageHandler) Reset(c *gin.Context) {
	ctx := requestContext(c)
	gate := deviceGate(c, h.gate)
	gate.ResetAll(ctx)

	premium, err := resolvePremium(c, h.subs)
	if err != nil {
		response.Error(c, apperrors.ErrInternalServer.WithInternal(err))
		return
	}
	response.Success(c, http.StatusOK, gate.Status(ctx, premium))
}
