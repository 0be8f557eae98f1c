package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"seller-payout-service/config"
	"seller-payout-service/internal/adapter/gateway/intasend"
	httpHandler "seller-payout-service/internal/adapter/http/handler"
	pgStorage "seller-payout-service/internal/adapter/storage/postgres"
	redisStorage "seller-payout-service/internal/adapter/storage/redis"
	"seller-payout-service/internal/core/ports"
	"seller-payout-service/internal/service"
	"seller-payout-service/pkg/logger"
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
		Str("balance_policy", cfg.Withdrawal.BalancePolicy).
		Str("fee_policy", cfg.Withdrawal.FeePolicy).
		Msg("Starting Seller Payout Service")

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
	sellerRepo := pgStorage.NewSellerRepo(pool)
	orderRepo := pgStorage.NewOrderRepo(pool)
	withdrawalRepo := pgStorage.NewWithdrawalRepo(pool)
	ledgerRepo := pgStorage.NewLedgerRepo(pool)
	transactor := pgStorage.NewTransactor(pool, cfg.Withdrawal.TxMaxRetries, cfg.Withdrawal.TxBackoff, log)

	// Initialize Redis stores
	inFlightGuard := redisStorage.NewInFlightGuardStore(rdb)
	rateLimitStore := redisStorage.NewRateLimitStore(rdb)

	// Balance resolver per configured policy
	var resolver ports.BalanceResolver
	switch cfg.Withdrawal.BalancePolicy {
	case config.BalancePolicyAggregate:
		resolver = service.NewAggregateBalanceResolver(orderRepo, ledgerRepo)
	default:
		resolver = service.NewStoredBalanceResolver(sellerRepo)
	}

	feePolicy := service.NewFeePolicy(cfg.Withdrawal)
	pinSvc := service.NewArgon2PINService()

	// Payment provider client (payouts + collections)
	gateway := intasend.NewClient(cfg.Gateway, log)

	// Notification relay (disabled when no URL is configured)
	notifier := service.NewNotificationService(
		cfg.Notify.URL,
		&http.Client{Timeout: cfg.Notify.Timeout},
		log,
	)

	// Initialize business services
	withdrawalSvc := service.NewWithdrawalService(
		cfg.Withdrawal,
		sellerRepo,
		orderRepo,
		withdrawalRepo,
		ledgerRepo,
		resolver,
		feePolicy,
		gateway,
		pinSvc,
		inFlightGuard,
		notifier,
		transactor,
		log,
	)
	collectionSvc := service.NewCollectionService(orderRepo, gateway, log)

	// Initialize health checkers
	pgHealth := pgStorage.NewHealthCheck(pool)
	redisHealth := redisStorage.NewHealthCheck(rdb)

	// Setup Gin router with all routes
	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		WithdrawalSvc:  withdrawalSvc,
		CollectionSvc:  collectionSvc,
		Resolver:       resolver,
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
