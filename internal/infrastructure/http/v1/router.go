// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"canteenledger/internal/core/security"
	"canteenledger/internal/domain/audit"
	"canteenledger/internal/domain/catalogs/product"
	"canteenledger/internal/domain/ledger"
	"canteenledger/internal/infrastructure/http/v1/handlers"
	"canteenledger/internal/infrastructure/http/v1/middleware"
	"canteenledger/internal/infrastructure/storage/postgres"
	"canteenledger/internal/infrastructure/storage/postgres/catalog_repo"
	"canteenledger/internal/infrastructure/storage/postgres/ledger_repo"
	"canteenledger/pkg/logger"
)

// RouterConfig holds router configuration.
type RouterConfig struct {
	// Pool is the database connection pool (health checks).
	Pool *postgres.Pool

	// TxManager drives per-request transactions.
	TxManager *postgres.TxManager

	// Logger for request logging.
	Logger *logger.Logger

	// JWTValidator for token validation.
	JWTValidator middleware.JWTValidator

	// AuditRecorder persists change records for stock and catalog
	// mutations. Optional; nil disables the audit trail.
	AuditRecorder audit.Recorder

	// PeriodPolicy guards mutations against closed accounting periods.
	// Optional; nil leaves all periods open.
	PeriodPolicy security.PeriodPolicy

	// Flags gates optional behavior (strict period close, audit trail).
	Flags security.FeatureFlagProvider
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	// Health endpoints (no auth required)
	healthHandler := handlers.NewHealthHandler(cfg.Pool)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	// Services are created once; the TxManager travels in the request
	// context so repositories always see the active transaction.
	productService := product.NewService(catalog_repo.NewProductRepo(), nil)
	ledgerService := ledger.NewService(ledger_repo.NewStockEntryRepo(), nil)

	ledger.RegisterPeriodPolicyHooks(ledgerService, cfg.PeriodPolicy, cfg.Flags)
	if cfg.AuditRecorder != nil {
		audit.RegisterStockEntryHooks(ledgerService, cfg.AuditRecorder, cfg.Flags)
		audit.RegisterProductHooks(productService, cfg.AuditRecorder, cfg.Flags)
	}

	// API v1
	v1 := router.Group("/api/v1")
	v1.Use(middleware.Database(cfg.TxManager))
	v1.Use(middleware.Auth(cfg.JWTValidator))
	{
		registerStockRoutes(v1, ledgerService, productService)
		registerCatalogRoutes(v1, productService)
	}

	return router
}

// registerStockRoutes registers the stock ledger endpoints. Every route is
// scoped to a theater and guarded by theater access.
func registerStockRoutes(rg *gin.RouterGroup, ledgerService *ledger.Service, productService *product.Service) {
	baseHandler := handlers.NewBaseHandler()
	handler := handlers.NewStockHandler(baseHandler, ledgerService, productService)

	stock := rg.Group("/stock/:theaterId")
	stock.Use(middleware.RequireTheaterAccess("theaterId"))
	{
		stock.GET("", middleware.RequirePermission("stock:read"), handler.GetTheaterStock)
		stock.GET("/:productId", middleware.RequirePermission("stock:read"), handler.GetLedger)
		stock.POST("/:productId", middleware.RequirePermission("stock:write"), handler.Create)
		stock.PUT("/:productId/:entryId", middleware.RequirePermission("stock:write"), handler.Update)
		stock.DELETE("/:productId/:entryId", middleware.RequirePermission("stock:write"), handler.Delete)
	}
}

// registerCatalogRoutes registers the product catalog endpoints.
func registerCatalogRoutes(rg *gin.RouterGroup, productService *product.Service) {
	baseHandler := handlers.NewBaseHandler()
	handler := handlers.NewProductHandler(baseHandler, productService)

	products := rg.Group("/catalog/products")
	{
		products.GET("", middleware.RequirePermission("catalog:read"), handler.List)
		products.GET("/:productId", middleware.RequirePermission("catalog:read"), handler.Get)
		products.POST("", middleware.RequirePermission("catalog:write"), handler.Create)
		products.PUT("/:productId", middleware.RequirePermission("catalog:write"), handler.Update)
		products.POST("/:productId/deletion-mark", middleware.RequirePermission("catalog:write"), handler.SetDeletionMark)
	}
}
