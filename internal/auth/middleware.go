package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// ClaimsKey is the gin context key holding the parsed Claims.
const ClaimsKey = "claims"

// AdminAuth enforces a bearer admin token signed with HS256. active reports
// whether the admin session is still open; once it closes every token
// issued for it is refused.
func AdminAuth(signingKey, issuer string, active func() bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		authz := c.GetHeader("Authorization")
		if authz == "" || !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		tokenStr := strings.TrimSpace(authz[len("bearer "):])
		claims, err := Parse(tokenStr, signingKey, issuer)
		if err != nil || claims.Role != RoleAdmin {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		if active != nil && !active() {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "admin session closed"})
			return
		}
		c.Set(ClaimsKey, claims)
		c.Next()
	}
}
