package middleware

import (
	"github.com/gin-gonic/gin"

	"canteenledger/internal/core/tx"
	"canteenledger/internal/infrastructure/storage/postgres"
)

// Database middleware injects the transaction manager into the request
// context. It MUST run before any handler that touches the database:
// repositories resolve their querier through the manager, so a missing
// manager is a programming error and panics loudly.
func Database(txManager *postgres.TxManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := tx.WithManager(c.Request.Context(), txManager)
		c.Request = c.Request.WithContext(ctx)

		// Also set in Gin context for handlers that use c.Get()
		c.Set("tx_manager", txManager)

		c.Next()
	}
}

// GetTxManagerFromContext retrieves TxManager from Gin context.
// Returns nil if not found. Use this in handlers.
func GetTxManagerFromContext(c *gin.Context) *postgres.TxManager {
	if v, exists := c.Get("tx_manager"); exists {
		if txm, ok := v.(*postgres.TxManager); ok {
			return txm
		}
	}
	return nil
}
