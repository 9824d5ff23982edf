package router

import (
	"context"
	"net/http"
	"time"

	"pinvault/config"
	"pinvault/internal/domain"
	"pinvault/internal/handler"
	"pinvault/internal/intent"
	"pinvault/internal/middleware"
	"pinvault/internal/repository"
	"pinvault/internal/service"
	"pinvault/pkg/cloudinary"
	"pinvault/pkg/mailer"
	"pinvault/pkg/payment"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Deps are the process-wide clients. Everything below them is built per engine so tests
// can swap any of them for fakes.
type Deps struct {
	DB        *gorm.DB
	Intents   intent.Cache
	Gateway   payment.Gateway
	Mailer    mailer.Mailer
	Escalator service.Escalator
	Uploader  cloudinary.Uploader // nil disables image cards
	Logger    *zap.Logger
}

type Services struct {
	Store        *repository.Store
	Fulfillment  *service.FulfillmentService
	Transfers    *service.TransferService
	Wallets      *service.WalletService
	Checkout     *service.CheckoutService
	Verification *service.VerificationService
	Inventory    *service.InventoryService
	Auth         *service.AuthService
	Intents      intent.Cache
	Logger       *zap.Logger
}

func NewServices(cfg *config.Config, d Deps) *Services {
	store := repository.NewStore(d.DB)
	notifier := service.NewNotificationService(store.EmailLogs, d.Mailer, d.Logger)
	fulfillment := service.NewFulfillmentService(store, d.Intents, notifier, d.Escalator, d.Logger)
	transfers := service.NewTransferService(store, d.Logger)
	return &Services{
		Store:        store,
		Fulfillment:  fulfillment,
		Transfers:    transfers,
		Wallets:      service.NewWalletService(store, d.Gateway, transfers, notifier, d.Logger),
		Checkout:     service.NewCheckoutService(store, d.Intents, d.Gateway, cfg.Redis.IntentTTL, cfg.Gateway.CallbackURL, d.Logger),
		Verification: service.NewVerificationService(d.Gateway, fulfillment, d.Logger),
		Inventory:    service.NewInventoryService(store.Cards, d.Uploader, d.Logger),
		Auth:         service.NewAuthService(&cfg.JWT, cfg.Operator),
		Intents:      d.Intents,
		Logger:       d.Logger,
	}
}

// Setup builds the engine. Background work it starts stops when ctx is done.
func Setup(ctx context.Context, cfg *config.Config, s *Services) *gin.Engine {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(cfg.Telemetry.ServiceName))
	r.Use(middleware.RequestLogger(s.Logger))

	limiter := middleware.NewIPRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	go limiter.RunSweeper(ctx, 5*time.Minute, 10*time.Minute)
	rateMw := middleware.RateLimit(limiter)

	// Handlers
	webhookHandler := handler.NewPaymentWebhookHandler(cfg.Gateway.SecretKey, s.Fulfillment, s.Transfers, s.Store.WebhookLogs, s.Logger)
	verifyHandler := handler.NewVerifyHandler(s.Verification, s.Logger)
	intentHandler := handler.NewIntentHandler(s.Intents, cfg.Redis.IntentTTL, s.Logger)
	checkoutHandler := handler.NewCheckoutHandler(s.Checkout, s.Logger)
	walletHandler := handler.NewWalletHandler(s.Wallets, s.Store.Transactions, s.Logger)
	adminHandler := handler.NewAdminHandler(s.Inventory, s.Fulfillment, s.Store.Orders, s.Logger)
	authHandler := handler.NewAuthHandler(s.Auth, s.Logger)

	authMw := middleware.AuthRequired(&cfg.JWT)
	optionalAuth := middleware.OptionalAuth(&cfg.JWT)

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	api := r.Group("/api/v1")
	{
		// Gateway pushes are not rate limited; redelivery must always get through.
		api.POST("/webhooks/payment", webhookHandler.Handle)

		api.POST("/checkout/initialize", rateMw, optionalAuth, checkoutHandler.Initialize)
		api.POST("/payments/verify", rateMw, verifyHandler.Verify)
		api.POST("/intents", rateMw, optionalAuth, intentHandler.Store)
		api.GET("/intents/:reference", rateMw, intentHandler.Get)
		api.POST("/auth/operator/login", rateMw, authHandler.OperatorLogin)

		wallet := api.Group("/wallet")
		wallet.Use(rateMw, authMw)
		{
			wallet.GET("", walletHandler.GetBalance)
			wallet.GET("/transactions", walletHandler.Transactions)
			wallet.POST("/purchase", walletHandler.Purchase)
			wallet.POST("/withdraw", walletHandler.Withdraw)
		}

		admin := api.Group("/admin")
		admin.Use(authMw, middleware.RequireRole(domain.RoleAdmin))
		{
			admin.POST("/cards", adminHandler.Restock)
			admin.POST("/cards/image", adminHandler.UploadImageCard)
			admin.GET("/cards/stock", adminHandler.Stock)
			admin.GET("/orders", adminHandler.PendingOrders)
			admin.POST("/orders/:reference/replay", adminHandler.ReplayOrder)
			admin.POST("/orders/:reference/fail", adminHandler.FailOrder)
		}
	}

	return r
}
