package router

import (
	"fmt"
	"strings"

	"github.com/keeperpay/keeperpay/internal/cache"
	"github.com/keeperpay/keeperpay/internal/config"
	"github.com/keeperpay/keeperpay/internal/http/handlers"
	"github.com/keeperpay/keeperpay/internal/logger"
	"github.com/keeperpay/keeperpay/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter wires the HTTP surface.
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	handler := handlers.New(c)
	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = "kp"
	}
	createPaymentRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:payment_create", redisPrefix),
		WindowSeconds: cfg.Security.PaymentRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.PaymentRateLimit.MaxAttempts,
		BlockSeconds:  cfg.Security.PaymentRateLimit.BlockSeconds,
		Message:       "too many payment attempts",
	}
	redisClient := cache.Client()

	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	apiV1 := r.Group("/api/v1")
	{
		payments := apiV1.Group("/payments")
		{
			payments.POST("", RateLimitMiddleware(redisClient, createPaymentRule, KeyByIPAndJSONField("reservationId")), handler.CreatePayment)
			payments.POST("/webhooks/stripe", handler.StripeWebhook)
			payments.GET("", handler.ListPayments)
			payments.GET("/status/:status", handler.ListPaymentsByStatus)

			keeper := payments.Group("/keeper")
			{
				keeper.POST("/account", handler.CreateKeeperAccount)
				keeper.GET("/account/:accountId", handler.GetKeeperAccount)
				keeper.GET("/account/:accountId/link", handler.CreateKeeperAccountLink)
				keeper.GET("/account/:accountId/status", handler.CheckKeeperAccountStatus)
				keeper.GET("/account/email/:email", handler.FindKeeperAccountByEmail)
				keeper.GET("/onboarding/success", handler.HandleOnboardingSuccess)
				keeper.GET("/onboarding/refresh", handler.HandleOnboardingRefresh)
				keeper.GET("/:accountId", handler.ListPaymentsByKeeperAccount)
			}

			payments.GET("/:id", handler.GetPayment)
		}
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}
