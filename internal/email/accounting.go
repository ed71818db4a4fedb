package email

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// AccountingForwarder mails invoice and credit note PDFs to the bookkeeping
// inbox, which ingests attachments automatically. When no inbox is configured
// the forwarder is a no-op.
type AccountingForwarder struct {
	mailer *Mailer
	http   *resty.Client
	to     string
	logger *zap.Logger
}

func NewAccountingForwarder(mailer *Mailer, to string, logger *zap.Logger) *AccountingForwarder {
	return &AccountingForwarder{
		mailer: mailer,
		http:   resty.New().SetTimeout(30 * time.Second),
		to:     to,
		logger: logger,
	}
}

// ForwardPDF downloads the document at pdfURL and mails it as an attachment.
// Download failures are logged and swallowed so a broken PDF link never
// blocks the rest of the pipeline.
func (f *AccountingForwarder) ForwardPDF(ctx context.Context, pdfURL string) error {
	if f.to == "" {
		f.logger.Warn("accounting email not configured, skipping PDF forward",
			zap.String("pdf_url", pdfURL))
		return nil
	}

	resp, err := f.http.R().SetContext(ctx).Get(pdfURL)
	if err != nil {
		f.logger.Error("failed to download PDF for accounting forward",
			zap.String("pdf_url", pdfURL),
			zap.Error(err))
		return nil
	}
	if resp.IsError() {
		f.logger.Error("failed to download PDF for accounting forward",
			zap.String("pdf_url", pdfURL),
			zap.String("status", resp.Status()))
		return nil
	}

	if err := f.mailer.sendWithAttachment(f.to, "New invoice",
		"Please find the invoice attached.", "file.pdf", resp.Body()); err != nil {
		return fmt.Errorf("failed to forward PDF to accounting: %w", err)
	}
	return nil
}
