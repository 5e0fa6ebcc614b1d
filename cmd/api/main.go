package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bandpay/config"
	httpHandler "bandpay/internal/adapter/http/handler"
	pgStorage "bandpay/internal/adapter/storage/postgres"
	redisStorage "bandpay/internal/adapter/storage/redis"
	"bandpay/internal/core/ports"
	"bandpay/internal/scanfeed"
	"bandpay/internal/service"
	"bandpay/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)

	log.Info().
		Str("mode", cfg.Server.Mode).
		Int("port", cfg.Server.Port).
		Msg("Starting BandPay")

	ctx := context.Background()

	// Initialize PostgreSQL pool
	pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()
	log.Info().Msg("PostgreSQL connected")

	// Initialize Redis client
	rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()
	log.Info().Msg("Redis connected")

	// Initialize repositories
	userRepo := pgStorage.NewUserRepo(pool)
	sellerRepo := pgStorage.NewSellerRepo(pool)
	txRepo := pgStorage.NewTransactionRepo(pool)
	idempotencyRepo := pgStorage.NewIdempotencyRepo(pool)
	transactor := pgStorage.NewTransactor(pool)

	// Initialize Redis stores
	idempotencyCache := redisStorage.NewIdempotencyCache(rdb)
	rateLimitStore := redisStorage.NewRateLimitStore(rdb)

	// Initialize core services
	hashSvc := service.NewArgon2HashService()
	tokenSvc := service.NewJWTTokenService(cfg.JWT.Secret, cfg.JWT.Expiry, cfg.JWT.Issuer)

	statsLoc, err := time.LoadLocation(cfg.Stats.Timezone)
	if err != nil {
		log.Fatal().Err(err).Str("timezone", cfg.Stats.Timezone).Msg("Invalid stats timezone")
	}

	// Initialize business services
	registrySvc := service.NewRegistryService(
		userRepo,
		hashSvc,
		cfg.Band.IDPrefix,
		cfg.Band.IDSuffixLen,
		cfg.Band.GenAttempts,
		log,
	)
	paymentSvc := service.NewPaymentService(
		txRepo,
		userRepo,
		idempotencyRepo,
		idempotencyCache,
		hashSvc,
		transactor,
		log,
	)
	sellerSvc := service.NewSellerService(sellerRepo, hashSvc, tokenSvc, log)
	reportingSvc := service.NewReportingService(userRepo, txRepo, statsLoc)

	// Scan feed hub (SSE + websocket fan-out)
	scanHub := scanfeed.NewHub(log)
	defer scanHub.Close()

	// Initialize health checkers
	pgHealth := pgStorage.NewHealthCheck(pool)
	redisHealth := redisStorage.NewHealthCheck(rdb)

	// Setup Gin router with all routes
	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		RegistrySvc:    registrySvc,
		PaymentSvc:     paymentSvc,
		SellerSvc:      sellerSvc,
		ReportingSvc:   reportingSvc,
		TokenSvc:       tokenSvc,
		ScanHub:        scanHub,
		RateLimitStore: rateLimitStore,
		HealthCheckers: []ports.HealthChecker{pgHealth, redisHealth},
		Logger:         log,
	})

	// HTTP Server with graceful shutdown
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}
