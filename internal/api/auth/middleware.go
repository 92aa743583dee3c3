package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"
	tokens "github.com/sampark/sampark/internal/auth"
)

// Context keys set by RequireAuth.
const (
	ContextUserID  = "user_id"
	ContextIsAdmin = "is_admin"
)

// TokenVerifier validates access tokens.
type TokenVerifier interface {
	VerifyToken(raw string) (*tokens.Claims, bool)
}

// RequireAuth rejects requests without a valid access token.
// The token may be sent as "Bearer <jwt>" or as the raw jwt.
func RequireAuth(v TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := v.VerifyToken(c.GetHeader("Authorization"))
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextIsAdmin, claims.IsAdmin)
		c.Next()
	}
}

// RequireAdmin must run after RequireAuth. Non admins are treated as unauthenticated.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !c.GetBool(ContextIsAdmin) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		c.Next()
	}
}

// UserID returns the id of the authenticated caller.
func UserID(c *gin.Context) uint {
	return c.GetUint(ContextUserID)
}
