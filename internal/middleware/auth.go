// Package middleware holds the Gin middleware chain: bearer
// authentication, role gating, CORS, structured request logging, and
// panic recovery.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"room-reservation-api/internal/auth"
	"room-reservation-api/internal/dto"
	"room-reservation-api/internal/models"
)

const (
	ctxUserID = "userID"
	ctxRole   = "role"
)

// Auth verifies the bearer access token and stashes (userId, role) in
// the Gin context for downstream handlers and RequireRole.
func Auth(issuer *auth.TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			// allow a query-string token for the WebSocket upgrade, which
			// cannot set custom headers from a browser.
			header = "Bearer " + c.Query("token")
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.ErrorResponse{Code: "UNAUTHENTICATED", Message: "missing bearer token"})
			return
		}
		claims, err := issuer.Verify(parts[1], auth.TokenAccess)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.ErrorResponse{Code: "UNAUTHENTICATED", Message: "invalid or expired token"})
			return
		}
		c.Set(ctxUserID, claims.UserID)
		c.Set(ctxRole, claims.Role)
		c.Next()
	}
}

func UserID(c *gin.Context) int64 {
	v, _ := c.Get(ctxUserID)
	id, _ := v.(int64)
	return id
}

func Role(c *gin.Context) models.UserRole {
	v, _ := c.Get(ctxRole)
	r, _ := v.(models.UserRole)
	return r
}

// RequireRole aborts with 403 unless the authenticated caller's role is
// in allowed.
func RequireRole(allowed ...models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := Role(c)
		for _, a := range allowed {
			if role == a {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, dto.ErrorResponse{Code: "FORBIDDEN", Message: "role not permitted for this operation"})
	}
}
