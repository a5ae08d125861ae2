package middlewares

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/learninverse/server/internal/rbac"
	"github.com/learninverse/server/internal/session"
	"github.com/learninverse/server/middleware/jwt"
)

// loginPath is where unauthenticated page requests land.
const loginPath = "/login"

// RequireRole guards page routes by role floor. Unauthenticated visitors
// are redirected to the login page; authenticated visitors below the
// required role are redirected to their own dashboard; everyone else
// passes through. API clients (Accept: application/json) get status
// codes instead of redirects.
func RequireRole(required rbac.Role, tokens *jwt.TokenManager, sessions *session.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := resolveClaims(c, tokens, sessions)
		if claims == nil {
			deny(c, http.StatusUnauthorized, loginPath)
			return
		}

		if !rbac.HasRole(claims.Role, required) {
			deny(c, http.StatusForbidden, rbac.HomePath(claims.Role))
			return
		}

		c.Set(CtxUserID, claims.UserID)
		c.Set(CtxUserName, claims.UserName)
		c.Set(CtxEmail, claims.UserEmail)
		c.Set(CtxRole, claims.Role)

		c.Next()
	}
}

func resolveClaims(c *gin.Context, tokens *jwt.TokenManager, sessions *session.Store) *jwt.Claims {
	// an earlier AuthMiddleware may already have resolved the identity
	if id := c.GetString(CtxUserID); id != "" {
		return &jwt.Claims{
			UserID:    id,
			UserName:  c.GetString(CtxUserName),
			UserEmail: c.GetString(CtxEmail),
			Role:      UserRole(c),
		}
	}

	var token string
	authHeader := c.GetHeader("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && parts[0] == "Bearer" {
			token = parts[1]
		}
	}
	if token == "" {
		if cookie, err := c.Cookie("token"); err == nil {
			token = cookie
		}
	}
	if token == "" {
		token = c.Query("token")
	}
	if token == "" {
		return nil
	}

	claims, err := tokens.ParseToken(token)
	if err != nil {
		return nil
	}

	if sessions != nil {
		ok, err := sessions.Exists(c.Request.Context(), claims.UserID)
		if err != nil || !ok {
			return nil
		}
	}
	return claims
}

func deny(c *gin.Context, status int, location string) {
	if wantsJSON(c) {
		c.AbortWithStatusJSON(status, gin.H{"error": http.StatusText(status)})
		return
	}
	c.Redirect(http.StatusFound, location)
	c.Abort()
}

func wantsJSON(c *gin.Context) bool {
	return strings.Contains(c.GetHeader("Accept"), "application/json")
}
