package middlewares

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/learninverse/server/internal/rbac"
	"github.com/learninverse/server/internal/session"
	"github.com/learninverse/server/middleware/jwt"
)

// Context keys set by AuthMiddleware.
const (
	CtxUserID   = "user_id"
	CtxUserName = "user_name"
	CtxEmail    = "email"
	CtxRole     = "role"
)

// AuthMiddleware validates the bearer token and loads the caller's
// identity into the request context. Websocket clients cannot set
// headers, so a token query parameter is accepted as a fallback. A valid
// token without a live session counts as logged out.
func AuthMiddleware(tokens *jwt.TokenManager, sessions *session.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		var token string

		authHeader := c.GetHeader("Authorization")
		if authHeader != "" {
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) == 2 && parts[0] == "Bearer" {
				token = parts[1]
			}
		}
		if token == "" {
			token = c.Query("token")
		}
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			return
		}

		claims, err := tokens.ParseToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}

		if sessions != nil {
			ok, err := sessions.Exists(c.Request.Context(), claims.UserID)
			if err != nil || !ok {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "session expired"})
				return
			}
		}

		c.Set(CtxUserID, claims.UserID)
		c.Set(CtxUserName, claims.UserName)
		c.Set(CtxEmail, claims.UserEmail)
		c.Set(CtxRole, claims.Role)

		c.Next()
	}
}

// UserID returns the authenticated caller's ID, or "" when the request
// is unauthenticated.
func UserID(c *gin.Context) string {
	return c.GetString(CtxUserID)
}

// UserRole returns the authenticated caller's platform role.
func UserRole(c *gin.Context) rbac.Role {
	v, ok := c.Get(CtxRole)
	if !ok {
		return ""
	}
	role, ok := v.(rbac.Role)
	if !ok {
		return ""
	}
	return role
}
