package middleware

import (
	"github.com/gin-gonic/gin"

	"opserp/internal/core/security"
)

// RequirePermission guards routes whose handlers do not go through a domain
// service that checks the capability itself. Must run after Auth.
func RequirePermission(key security.PermissionKey) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := security.Require(security.CapabilityFrom(c.Request.Context()), key); err != nil {
			_ = c.Error(err)
			c.Abort()
			return
		}
		c.Next()
	}
}
