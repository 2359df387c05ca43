package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/tarotgarden/internal/middleware"
	"github.com/charlesng35/tarotgarden/internal/models"
	"github.com/charlesng35/tarotgarden/internal/services"
	apperrors "github.com/charlesng35/tarotgarden/pkg/errors"
	"github.com/charlesng35/tarotgarden/pkg/response"
)

// SubscriptionHandler records entitlements and reports premium status.
type SubscriptionHandler struct {
	subs  *services.SubscriptionService
	users *services.UserService
}

func NewSubscriptionHandler(subs *services.SubscriptionService, users *services.UserService) *SubscriptionHandler {
	return &SubscriptionHandler{subs: subs, users: users}
}

type subscriptionStatusDTO struct {
	Premium       bool                  `json:"premium"`
	Subscriptions []models.Subscription `json:"subscriptions"`
}

// POST /api/subscriptions/sync
func (h *SubscriptionHandler) Sync(c *gin.Context) {
	var payload services.SubscriptionInput
	if !bindAndValidate(c, &payload) {
		return
	}

	ctx := requestContext(c)
	userID := currentUserID(c)
	claims, _ := middleware.ClaimsFrom(c)
	email, provider := "", ""
	if claims != nil {
		email, provider = claims.Email, claims.Provider
	}
	if _, err := h.users.EnsureUser(ctx, userID, email, provider); err != nil {
		response.Error(c, err)
		return
	}

	if _, err := h.subs.Upsert(ctx, userID, payload); err != nil {
		response.Error(c, err)
		return
	}
	h.respondStatus(c, http.StatusOK)
}

// GET /api/subscriptions/me
func (h *SubscriptionHandler) Me(c *gin.Context) {
	h.respondStatus(c, http.StatusOK)
}

func (h *SubscriptionHandler) respondStatus(c *gin.Context, status int) {
	ctx := requestContext(c)
	userID := currentUserID(c)

	premium, err := h.subs.IsPremium(ctx, userID)
	if err != nil {
		response.Error(c, apperrors.ErrInternalServer.WithInternal(err))
		return
	}
	subs, err := h.subs.ListForUser(ctx, userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, status, subscriptionStatusDTO{Premium: premium, Subscriptions: subs})
}
