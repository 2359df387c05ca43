package middleware

import (
	"github.com/gin-gonic/gin"

	iauth "github.com/charlesng35/tarotgarden/internal/auth"
	"github.com/charlesng35/tarotgarden/pkg/errors"
	"github.com/charlesng35/tarotgarden/pkg/response"
)

const (
	CtxClaimsKey = "authClaims"
	CtxUserIDKey = "userID"
)

// Auth requires a valid bearer token and stores its claims in the context.
func Auth(jwt *iauth.JWTService) gin.HandlerFunc {
	return authenticate(jwt, true)
}

// OptionalAuth accepts anonymous requests but rejects a bearer token that does not validate.
func OptionalAuth(jwt *iauth.JWTService) gin.HandlerFunc {
	return authenticate(jwt, false)
}

func authenticate(jwt *iauth.JWTService, required bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" && !required {
			c.Next()
			return
		}

		token, ok := iauth.BearerToken(header)
		if !ok {
			unauthorized(c)
			return
		}

		claims, err := jwt.ValidateAccessToken(token)
		if err != nil {
			// every validation failure is a plain 401
			unauthorized(c)
			return
		}

		c.Set(CtxClaimsKey, claims)
		c.Set(CtxUserIDKey, claims.UserID())
		c.Next()
	}
}

func unauthorized(c *gin.Context) {
	c.Header("WWW-Authenticate", "Bearer")
	response.Error(c, errors.ErrUnauthorized)
	c.Abort()
}

// ClaimsFrom returns the validated claims, if the request carried a token.
func ClaimsFrom(c *gin.Context) (*iauth.Claims, bool) {
	v, ok := c.Get(CtxClaimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*iauth.Claims)
	return claims, ok && claims != nil
}
