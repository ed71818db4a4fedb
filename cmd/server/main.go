package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	webAdapter "storefront-backoffice/internal/adapters/web"
	"storefront-backoffice/internal/app"
	"storefront-backoffice/internal/captcha"
	"storefront-backoffice/internal/config"
	"storefront-backoffice/internal/core"
	"storefront-backoffice/internal/db"
	"storefront-backoffice/internal/email"
	"storefront-backoffice/internal/newsletter"
	"storefront-backoffice/internal/sendcloud"
	"storefront-backoffice/internal/stripeapi"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("database unavailable", zap.Error(err))
	}
	defer pool.Close()

	backend := stripeapi.New(cfg.StripeSecretKey)
	carrier := sendcloud.NewClient(cfg.SendcloudPublicKey, cfg.SendcloudSecretKey, logger)

	sender := email.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword)
	mailer := email.NewMailer(sender, cfg.SMTPFrom, logger)
	emails, err := email.NewService(mailer, cfg.BaseURL, cfg.AdminEmail, cfg.AdminEmailLocale, logger)
	if err != nil {
		logger.Fatal("email service init failed", zap.Error(err))
	}
	forwarder := email.NewAccountingForwarder(mailer, cfg.AccountingEmail, logger)

	orders := core.NewOrderService(backend, logger)
	rates := core.NewRateService(backend, carrier, cfg.SendcloudFromCountry, cfg.SendcloudFromPostal, logger)
	coupons := core.NewCouponService(backend)
	stock := core.NewStockService(backend, logger)
	customers := core.NewCustomerService(backend)
	carrierOrders := core.NewCarrierService(backend, carrier, cfg.SendcloudIntegrationID, logger)
	webhooks := core.NewWebhookService(backend, carrierOrders, coupons, stock, emails, forwarder, carrier, logger)

	news := newsletter.NewService(newsletter.NewStore(pool), emails, cfg.BaseURL, logger)
	verifier := captcha.NewVerifier(cfg.RecaptchaSecretKey, logger)

	svc := app.NewAppService(backend, orders, rates, coupons, stock, customers, webhooks, emails, news, verifier, logger)

	handler := webAdapter.NewHandler(svc, webAdapter.Options{
		AllowedOrigins:        cfg.AllowedOrigins,
		JWTSecret:             cfg.JWTSecret,
		StripeWebhookSecret:   cfg.StripeWebhookSecret,
		SendcloudWebhookToken: cfg.SendcloudWebhookToken,
	}, logger)

	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("server starting", zap.String("port", cfg.ServerPort))
	if err := srv.ListenAndServe(); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
