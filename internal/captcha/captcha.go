package captcha

import (
	"context"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const verifyURL = "https://www.google.com/recaptcha/api/siteverify"

// Verifier checks reCAPTCHA tokens submitted with public forms.
type Verifier interface {
	Verify(ctx context.Context, token string) bool
}

type verifier struct {
	http      *resty.Client
	secretKey string
	logger    *zap.Logger
}

// NewVerifier builds the Google reCAPTCHA verifier. An empty secret key
// disables verification and accepts every non-empty token, which keeps local
// development working without credentials.
func NewVerifier(secretKey string, logger *zap.Logger) Verifier {
	return &verifier{
		http:      resty.New().SetTimeout(10 * time.Second),
		secretKey: secretKey,
		logger:    logger,
	}
}

type verifyResponse struct {
	Success    bool     `json:"success"`
	Hostname   string   `json:"hostname"`
	ErrorCodes []string `json:"error-codes"`
}

// Verify returns false on any transport or API failure; a captcha outage
// must never let bot traffic through.
func (v *verifier) Verify(ctx context.Context, token string) bool {
	if token == "" {
		return false
	}
	if v.secretKey == "" {
		v.logger.Warn("captcha secret key not configured, accepting token unverified")
		return true
	}

	var result verifyResponse
	resp, err := v.http.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"secret":   v.secretKey,
			"response": token,
		}).
		SetResult(&result).
		Post(verifyURL)
	if err != nil {
		v.logger.Error("captcha verification request failed", zap.Error(err))
		return false
	}
	if resp.IsError() {
		v.logger.Error("captcha verification request rejected", zap.String("status", resp.Status()))
		return false
	}
	if !result.Success {
		v.logger.Warn("captcha token rejected", zap.Strings("error_codes", result.ErrorCodes))
	}
	return result.Success
}
