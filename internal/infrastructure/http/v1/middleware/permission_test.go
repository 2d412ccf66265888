package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"canteenledger/internal/core/apperror"
	appctx "canteenledger/internal/core/context"
)

func permissionContext(t *testing.T, user *appctx.UserContext) *gin.Context {
	t.Helper()
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	if user != nil {
		c.Request = c.Request.WithContext(appctx.WithUser(c.Request.Context(), user))
	}
	return c
}

func TestRequirePermission(t *testing.T) {
	tests := []struct {
		name    string
		user    *appctx.UserContext
		allowed bool
	}{
		{"anonymous", nil, false},
		{"admin bypasses", &appctx.UserContext{UserID: "u1", IsAdmin: true}, true},
		{"exact grant", &appctx.UserContext{UserID: "u1", Permissions: []string{"stock:write"}}, true},
		{"entity wildcard", &appctx.UserContext{UserID: "u1", Permissions: []string{"stock:*"}}, true},
		{"other entity", &appctx.UserContext{UserID: "u1", Permissions: []string{"catalog:write"}}, false},
		{"read only", &appctx.UserContext{UserID: "u1", Permissions: []string{"stock:read"}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := permissionContext(t, tt.user)
			RequirePermission("stock:write")(c)

			if tt.allowed {
				assert.False(t, c.IsAborted())
				assert.Empty(t, c.Errors)
				return
			}

			assert.True(t, c.IsAborted())
			require.NotEmpty(t, c.Errors)
			appErr, ok := apperror.AsAppError(c.Errors.Last().Err)
			require.True(t, ok)
			if tt.user == nil {
				assert.Equal(t, apperror.CodeUnauthorized, appErr.Code)
			} else {
				assert.Equal(t, apperror.CodeForbidden, appErr.Code)
			}
		})
	}
}
