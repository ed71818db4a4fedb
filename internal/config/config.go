package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config carries every externally configured value the server needs. It is
// loaded once at startup; missing required keys abort the process rather than
// surfacing later as mid-pipeline failures.
type Config struct {
	ServerPort     string
	AllowedOrigins string
	JWTSecret      string
	BaseURL        string // public site URL used in email links

	DatabaseURL string

	StripeSecretKey     string
	StripeWebhookSecret string

	SendcloudPublicKey     string
	SendcloudSecretKey     string
	SendcloudWebhookToken  string
	SendcloudIntegrationID int64
	SendcloudFromCountry   string
	SendcloudFromPostal    string

	SMTPHost     string
	SMTPPort     int
	SMTPFrom     string
	SMTPUser     string
	SMTPPassword string

	AdminEmail       string
	AdminEmailLocale string
	// AccountingEmail receives invoice and credit-note PDFs. Optional; when
	// empty the accounting forward step is skipped entirely.
	AccountingEmail string

	RecaptchaSecretKey string
}

// Load reads the configuration from the environment. Callers are expected to
// have run godotenv.Load() beforehand (cmd/server does).
func Load() (*Config, error) {
	cfg := &Config{
		ServerPort:            getDefault("SERVER_PORT", "8080"),
		AllowedOrigins:        os.Getenv("ALLOWED_ORIGINS"),
		BaseURL:               strings.TrimSuffix(getDefault("BASE_URL", "http://localhost:8080"), "/"),
		AdminEmailLocale:      getDefault("ADMIN_EMAIL_LOCALE", "en"),
		AccountingEmail:       os.Getenv("ACCOUNTING_EMAIL"),
		SMTPUser:              os.Getenv("SMTP_USER"),
		SMTPPassword:          os.Getenv("SMTP_PASSWORD"),
		SendcloudWebhookToken: os.Getenv("SENDCLOUD_WEBHOOK_TOKEN"),
		RecaptchaSecretKey:    os.Getenv("RECAPTCHA_SECRET_KEY"),
	}

	var missing []string
	required := map[string]*string{
		"JWT_SECRET":             &cfg.JWTSecret,
		"DATABASE_URL":           &cfg.DatabaseURL,
		"STRIPE_SECRET_KEY":      &cfg.StripeSecretKey,
		"STRIPE_WEBHOOK_SECRET":  &cfg.StripeWebhookSecret,
		"SENDCLOUD_PUBLIC_KEY":   &cfg.SendcloudPublicKey,
		"SENDCLOUD_SECRET_KEY":   &cfg.SendcloudSecretKey,
		"SENDCLOUD_FROM_COUNTRY": &cfg.SendcloudFromCountry,
		"SENDCLOUD_FROM_POSTAL":  &cfg.SendcloudFromPostal,
		"SMTP_HOST":              &cfg.SMTPHost,
		"SMTP_FROM":              &cfg.SMTPFrom,
		"ADMIN_EMAIL":            &cfg.AdminEmail,
	}
	for key, dst := range required {
		v := os.Getenv(key)
		if v == "" {
			missing = append(missing, key)
			continue
		}
		*dst = v
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}

	cfg.SendcloudFromCountry = strings.ToUpper(cfg.SendcloudFromCountry)
	if len(cfg.SendcloudFromCountry) != 2 {
		return nil, fmt.Errorf("SENDCLOUD_FROM_COUNTRY must be a 2-letter ISO country code, got %q", cfg.SendcloudFromCountry)
	}

	port, err := strconv.Atoi(getDefault("SMTP_PORT", "587"))
	if err != nil {
		return nil, fmt.Errorf("SMTP_PORT must be a number: %w", err)
	}
	cfg.SMTPPort = port

	if raw := os.Getenv("SENDCLOUD_INTEGRATION_ID"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("SENDCLOUD_INTEGRATION_ID must be a number: %w", err)
		}
		cfg.SendcloudIntegrationID = id
	}

	return cfg, nil
}

func getDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
