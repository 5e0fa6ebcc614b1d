package handler

import (
	"bandpay/internal/adapter/http/middleware"
	redisStore "bandpay/internal/adapter/storage/redis"
	"bandpay/internal/core/ports"
	"bandpay/internal/scanfeed"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	RegistrySvc    ports.RegistryService
	PaymentSvc     ports.PaymentService
	SellerSvc      ports.SellerService
	ReportingSvc   ports.ReportingService
	TokenSvc       ports.TokenService
	ScanHub        *scanfeed.Hub
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

	api := r.Group("/api")

	// --- Admin console routes (venue LAN) ---
	userHandler := NewUserHandler(deps.RegistrySvc, deps.ReportingSvc)
	users := api.Group("/users")
	{
		users.GET("/", rl("admin"), userHandler.List)
		users.POST("/create/", rl("admin"), userHandler.Create)
		users.POST("/delete/", rl("admin"), userHandler.Delete)
		users.GET("/:band_id/", rl("admin"), userHandler.Get)
		users.GET("/:band_id/transactions/", rl("admin"), userHandler.Transactions)
	}

	paymentHandler := NewPaymentHandler(deps.PaymentSvc)
	api.POST("/fund/", rl("admin"), paymentHandler.ProcessFund)
	api.POST("/block/", rl("admin"), userHandler.Block)

	statsHandler := NewStatsHandler(deps.ReportingSvc)
	api.GET("/stats/", rl("admin"), statsHandler.GetStats)

	// --- Seller routes ---
	sellerHandler := NewSellerHandler(deps.SellerSvc)
	sellers := api.Group("/sellers")
	{
		sellers.POST("/register/", rl("sellers_register"), sellerHandler.Register)
		sellers.POST("/login/", rl("sellers_login"), sellerHandler.Login)
	}

	// --- Seller session routes ---
	sellerAuth := middleware.SellerAuth(deps.TokenSvc, deps.Logger)
	sellers.GET("/me/", sellerAuth, sellerHandler.Me)
	api.POST("/payment/", sellerAuth, rl("payments"), paymentHandler.ProcessPayment)

	// --- Scan feed ---
	scanHandler := NewScanHandler(deps.ScanHub, deps.Logger)
	api.POST("/scan/", rl("scan"), scanHandler.Ingest)
	api.GET("/scan/", scanHandler.StreamSSE)
	api.GET("/scan/ws", scanHandler.StreamWS)

	return r
}
