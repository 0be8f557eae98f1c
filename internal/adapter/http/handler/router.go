package handler

import (
	"seller-payout-service/internal/adapter/http/middleware"
	redisStore "seller-payout-service/internal/adapter/storage/redis"
	"seller-payout-service/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	WithdrawalSvc  ports.WithdrawalService
	CollectionSvc  ports.CollectionService
	Resolver       ports.BalanceResolver
	RateLimitStore *redisStore.RateLimitStore // nil = rate limiting disabled
	HealthCheckers []ports.HealthChecker
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(1 << 20)) // 1 MB request body limit

	// Health check (deep — verifies PostgreSQL + Redis)
	r.GET("/health", HealthCheck(deps.HealthCheckers...))

	// Rate limit rules
	rules := middleware.DefaultRateLimitRules()

	// Helper: return rate limiter middleware if store is available, else noop.
	rl := func(group string) gin.HandlerFunc {
		if deps.RateLimitStore == nil {
			return func(c *gin.Context) { c.Next() }
		}
		rule, ok := rules[group]
		if !ok {
			return func(c *gin.Context) { c.Next() }
		}
		return middleware.RateLimiter(deps.RateLimitStore, group, rule, deps.Logger)
	}

	withdrawalHandler := NewWithdrawalHandler(deps.WithdrawalSvc, deps.Resolver)
	transactionHandler := NewTransactionHandler(deps.CollectionSvc)

	r.POST("/withdraw", rl("withdraw"), withdrawalHandler.Withdraw)
	r.GET("/withdrawals/:id", rl("lookup"), withdrawalHandler.GetWithdrawal)
	r.GET("/sellers/:id/balance", rl("lookup"), withdrawalHandler.GetBalance)

	r.POST("/collections/charge", rl("collections"), transactionHandler.Charge)
	r.GET("/transaction/:invoiceId", rl("lookup"), transactionHandler.GetTransaction)

	return r
}
