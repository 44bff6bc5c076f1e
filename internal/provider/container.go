package provider

import (
	"github.com/keeperpay/keeperpay/internal/cache"
	"github.com/keeperpay/keeperpay/internal/config"
	"github.com/keeperpay/keeperpay/internal/logger"
	"github.com/keeperpay/keeperpay/internal/models"
	"github.com/keeperpay/keeperpay/internal/payment/stripe"
	"github.com/keeperpay/keeperpay/internal/queue"
	"github.com/keeperpay/keeperpay/internal/repository"
	"github.com/keeperpay/keeperpay/internal/service"
)

// Container is the dependency injection container.
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client

	// Repositories
	PaymentRepo repository.PaymentRepository

	// Gateway
	StripeClient *stripe.Client

	// Services
	PaymentService *service.PaymentService
}

// NewContainer wires the application dependencies.
func NewContainer(cfg *config.Config) *Container {
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
	}

	c.PaymentRepo = repository.NewPaymentRepository(models.DB)

	stripeClient, err := stripe.NewClient(stripe.Config{
		SecretKey:               cfg.Stripe.SecretKey,
		WebhookSecret:           cfg.Stripe.WebhookSecret,
		RefreshURL:              cfg.Stripe.RefreshURL,
		ReturnURL:               cfg.Stripe.ReturnURL,
		APIBaseURL:              cfg.Stripe.APIBaseURL,
		WebhookToleranceSeconds: cfg.Stripe.WebhookToleranceSeconds,
		AccountListLimit:        cfg.Stripe.AccountListLimit,
	})
	if err != nil {
		logger.Errorw("provider_init_stripe_failed", "error", err)
		panic(err)
	}
	c.StripeClient = stripeClient

	c.PaymentService = service.NewPaymentService(c.PaymentRepo, c.StripeClient, c.QueueClient)

	return c
}
