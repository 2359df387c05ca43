package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/tarotgarden/internal/tarot"
	"github.com/charlesng35/tarotgarden/pkg/response"
)

// Spreads returns the spread catalog.
func Spreads() gin.HandlerFunc {
	return func(c *gin.Context) {
		response.Success(c, http.StatusOK, tarot.Spreads())
	}
}

// Themes returns the theme table with default questions.
func Themes() gin.HandlerFunc {
	return func(c *gin.Context) {
		response.Success(c, http.StatusOK, tarot.Themes())
	}
}
