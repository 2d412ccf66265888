package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"canteenledger/internal/core/apperror"
	appctx "canteenledger/internal/core/context"
)

// RequirePermission guards a route with one "entity:action" permission,
// e.g. "stock:write". Admins pass unconditionally, and an "entity:*"
// grant covers every action on that entity.
func RequirePermission(permission string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := appctx.GetUser(c.Request.Context())
		if user == nil {
			_ = c.Error(apperror.NewUnauthorized("authentication required"))
			c.Abort()
			return
		}

		if user.IsAdmin || grants(user.Permissions, permission) {
			c.Next()
			return
		}

		_ = c.Error(
			apperror.NewForbidden("insufficient permissions").
				WithDetail("required_permission", permission),
		)
		c.Abort()
	}
}

// grants reports whether any granted permission covers the required one,
// exactly or through the entity-level wildcard.
func grants(granted []string, required string) bool {
	entity, _, _ := strings.Cut(required, ":")
	wildcard := entity + ":*"
	for _, p := range granted {
		if p == required || p == wildcard {
			return true
		}
	}
	return false
}
