package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"RescueHub/pkg/auth"
	"RescueHub/pkg/response"
)

// Context keys populated by AuthRequired.
const (
	CtxUserID   = "user_id"
	CtxUserRole = "user_role"
)

// CORS allows browser clients from any origin.
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Authorization, Content-Type")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}

// AuthRequired validates the bearer token and stores the subject claims
// in the request context. Refresh tokens are rejected here.
func AuthRequired(tm *auth.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			response.Unauthorized(c, "missing bearer token")
			return
		}
		claims, err := tm.Parse(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			response.Unauthorized(c, "invalid or expired token")
			return
		}
		if claims.TokenType == "refresh" {
			response.Unauthorized(c, "refresh token not accepted here")
			return
		}
		c.Set(CtxUserID, claims.UserID)
		c.Set(CtxUserRole, claims.Role)
		c.Next()
	}
}

// UserID returns the authenticated user id, empty when unauthenticated.
func UserID(c *gin.Context) string {
	return c.GetString(CtxUserID)
}

// UserRole returns the authenticated user role, empty when unauthenticated.
func UserRole(c *gin.Context) string {
	return c.GetString(CtxUserRole)
}
