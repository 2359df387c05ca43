package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/tarotgarden/internal/middleware"
	"github.com/charlesng35/tarotgarden/internal/services"
	"github.com/charlesng35/tarotgarden/internal/usage"
)

// requestContext safely returns the request context with a background fallback for tests.
func requestContext(c *gin.Context) context.Context {
	if c == nil {
		return context.Background()
	}
	if req := c.Request; req != nil {
		return req.Context()
	}
	return context.Background()
}

// currentUserID is empty for anonymous callers.
func currentUserID(c *gin.Context) string {
	return c.GetString(middleware.CtxUserIDKey)
}

// deviceGate scopes gate to the device the DeviceID middleware resolved.
func deviceGate(c *gin.Context, gate *usage.Gate) *usage.Gate {
	return gate.ForDevice(c.GetString(middleware.CtxDeviceIDKey))
}

// resolvePremium treats anonymous callers as free users.
func resolvePremium(c *gin.Context, subs *services.SubscriptionService) (bool, error) {
	userID := currentUserID(c)
	if userID == "" || subs == nil {
		return false, nil
	}
	return subs.IsPremium(requestContext(c), userID)
}
