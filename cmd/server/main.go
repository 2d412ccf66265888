// Package main is the entry point for the canteen ledger API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"canteenledger/internal/core/security"
	"canteenledger/internal/domain/auth"
	v1 "canteenledger/internal/infrastructure/http/v1"
	"canteenledger/internal/infrastructure/storage/postgres"
	"canteenledger/pkg/logger"
)

func main() {
	// Initialize logger
	log, err := logger.New(logger.Config{
		Level:       getEnv("LOG_LEVEL", "info"),
		Development: getEnv("APP_ENV", "development") == "development",
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	log.Info("starting canteen ledger server")

	// --- Database connection ---
	dsn := mustEnv("DATABASE_URL")
	poolCfg := postgres.DefaultPoolConfig(dsn)
	if maxConns := getEnvInt("DB_MAX_CONNS", 0); maxConns > 0 {
		poolCfg.MaxConns = int32(maxConns)
	}

	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	log.Info("database connection established")

	txManager := postgres.NewTxManager(pool)

	// --- JWT validation ---
	jwtSecret := mustEnv("JWT_SECRET")
	jwtService := auth.NewJWTService(auth.DefaultJWTConfig(jwtSecret))

	// --- Audit trail ---
	auditService, err := postgres.NewAuditService(txManager)
	if err != nil {
		log.Fatalw("failed to initialize audit service", "error", err)
	}
	auditRecorder := postgres.NewAuditRecorder(auditService)

	// --- Feature flags ---
	baseFlags := security.NewInMemoryFlags()
	baseFlags.SetFlag(security.FlagAuditTrail, getEnv("AUDIT_TRAIL_ENABLED", "true") == "true")
	baseFlags.SetFlag(security.FlagStrictPeriodClose, getEnv("STRICT_PERIOD_CLOSE", "false") == "true")
	baseFlags.SetFlag(security.FlagLowStockAlerts, true)

	flags, err := security.NewConditionalFlags(baseFlags)
	if err != nil {
		log.Fatalw("failed to initialize feature flags", "error", err)
	}

	// --- Period-close policy ---
	var policy security.PeriodPolicy = security.OpenPolicy{}
	if raw := getEnv("PERIOD_CLOSED_UNTIL", ""); raw != "" {
		closedUntil, err := time.Parse("2006-01-02", raw)
		if err != nil {
			log.Fatalw("invalid PERIOD_CLOSED_UNTIL", "error", err)
		}
		policy = security.NewStrictPolicy(closedUntil)
	}

	// --- Router ---
	router := v1.NewRouter(v1.RouterConfig{
		Pool:          pool,
		TxManager:     txManager,
		Logger:        log,
		JWTValidator:  jwtService,
		AuditRecorder: auditRecorder,
		PeriodPolicy:  policy,
		Flags:         flags,
	})

	// --- HTTP Server ---
	port := getEnv("APP_PORT", "8080")
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Infow("server starting", "port", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	// Give outstanding requests 30 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func mustEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		fmt.Printf("required environment variable %s not set\n", key)
		os.Exit(1)
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var result int
		if _, err := fmt.Sscanf(value, "%d", &result); err == nil {
			return result
		}
	}
	return defaultValue
}
