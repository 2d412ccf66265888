package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"canteenledger/internal/core/apperror"
	appctx "canteenledger/internal/core/context"
	"canteenledger/internal/core/security"
)

// JWTValidator interface for token validation.
type JWTValidator interface {
	ValidateToken(tokenString string) (*appctx.UserContext, error)
}

// Auth middleware validates JWT tokens and populates user context.
func Auth(validator JWTValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Extract token from Authorization header
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortUnauthorized(c, "missing authorization header")
			return
		}

		// Check Bearer prefix
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			abortUnauthorized(c, "invalid authorization header format")
			return
		}

		tokenString := parts[1]

		// Validate token
		user, err := validator.ValidateToken(tokenString)
		if err != nil {
			_ = c.Error(apperror.NewUnauthorized("invalid token"))
			c.Abort()
			return
		}

		// Add user and derived access scope to context
		ctx := appctx.WithUser(c.Request.Context(), user)
		ctx = security.WithScope(ctx, security.NewAccessScope(ctx))
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// OptionalAuth validates token if present, but doesn't require it.
func OptionalAuth(validator JWTValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.Next()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			c.Next()
			return
		}

		user, err := validator.ValidateToken(parts[1])
		if err == nil && user != nil {
			ctx := appctx.WithUser(c.Request.Context(), user)
			ctx = security.WithScope(ctx, security.NewAccessScope(ctx))
			c.Request = c.Request.WithContext(ctx)
		}

		c.Next()
	}
}

// RequireRole middleware checks if user has required role.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := appctx.GetUser(c.Request.Context())
		if user == nil {
			_ = c.Error(apperror.NewUnauthorized("authentication required"))
			c.Abort()
			return
		}

		for _, required := range roles {
			for _, userRole := range user.Roles {
				if userRole == required {
					c.Next()
					return
				}
			}
		}
		_ = c.Error(
			apperror.NewForbidden("insufficient permissions").
				WithDetail("required_roles", roles),
		)
		c.Abort()
	}
}

// RequireTheaterAccess checks that the authenticated user may act on the
// theater named by the :theaterId path parameter.
func RequireTheaterAccess(param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		theaterID := c.Param(param)
		if theaterID == "" {
			_ = c.Error(apperror.NewValidation("theater id is required").WithDetail("param", param))
			c.Abort()
			return
		}

		if !appctx.HasTheaterAccess(c.Request.Context(), theaterID) {
			_ = c.Error(
				apperror.NewForbidden("no access to theater").
					WithDetail("theater_id", theaterID),
			)
			c.Abort()
			return
		}

		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, message string) {
	_ = c.Error(apperror.NewUnauthorized(message))
	c.Abort()
}
