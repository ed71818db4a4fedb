package main

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"

	"storefront-backoffice/internal/config"
	"storefront-backoffice/internal/db"
)

// Sanity-checks a deployment: configuration is complete, the database is
// reachable, and the newsletter table exists. Intended for use after
// provisioning and before starting the server.
func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[CONFIG] %v", err)
	}
	log.Println("[CONFIG] success")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("[CONNECT] %v", err)
	}
	defer pool.Close()
	log.Println("[CONNECT] success")

	var exists bool
	err = pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name = 'newsletter_subscribers')`,
	).Scan(&exists)
	if err != nil {
		log.Fatalf("[SCHEMA] failed to query schema: %v", err)
	}
	if !exists {
		log.Fatalf("[SCHEMA] newsletter_subscribers table missing; run cmd/migrate first")
	}
	log.Println("[SCHEMA] success")

	if cfg.SendcloudIntegrationID == 0 {
		log.Println("[WARN] SENDCLOUD_INTEGRATION_ID is not set; carrier orders will be created without an integration")
	}
	if cfg.AccountingEmail == "" {
		log.Println("[WARN] ACCOUNTING_EMAIL is not set; invoice PDFs will not be forwarded")
	}
	if cfg.RecaptchaSecretKey == "" {
		log.Println("[WARN] RECAPTCHA_SECRET_KEY is not set; captcha checks accept any non-empty token")
	}

	log.Println("[DONE] setup verified")
}
