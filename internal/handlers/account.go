package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	iauth "github.com/charlesng35/tarotgarden/internal/auth"
	"github.com/charlesng35/tarotgarden/internal/services"
)

// AccountHandler deletes the caller's account. Unlike the rest of the API it
// answers with a bare {"success":true} or {"error":"..."} body, which is what
// the mobile clients parse.
type AccountHandler struct {
	svc *services.AccountService
	jwt *iauth.JWTService
}

func NewAccountHandler(svc *services.AccountService, jwt *iauth.JWTService) *AccountHandler {
	return &AccountHandler{svc: svc, jwt: jwt}
}

// DELETE /api/account, POST /api/account/delete
func (h *AccountHandler) Delete(c *gin.Context) {
	token, ok := iauth.BearerToken(c.GetHeader("Authorization"))
	if !ok {
		h.unauthorized(c)
		return
	}
	claims, err := h.jwt.ValidateAccessToken(token)
	if err != nil {
		h.unauthorized(c)
		return
	}

	report, err := h.svc.DeleteAccount(requestContext(c), claims.UserID())
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	body := gin.H{"success": true}
	if report.Partial() {
		body["warnings"] = tableWarnings(report)
	}
	c.JSON(http.StatusOK, body)
}

// MethodNotAllowed answers an account route for any verb other than allow.
func (h *AccountHandler) MethodNotAllowed(allow string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Allow", allow)
		c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "Method not allowed"})
	}
}

func (h *AccountHandler) unauthorized(c *gin.Context) {
	c.Header("WWW-Authenticate", "Bearer")
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
}

func tableWarnings(report services.DeletionReport) []string {
	var out []string
	for _, table := range report.Tables {
		if table.Error != "" {
			out = append(out, table.Table+": "+table.Error)
		}
	}
	return out
}
