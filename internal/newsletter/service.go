package newsletter

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"storefront-backoffice/internal/email"
)

// Service implements double-opt-in newsletter subscriptions: subscribe mails
// a verification link, verify mails the welcome, and unsubscribe (by mailed
// code) removes the row.
type Service interface {
	Subscribe(ctx context.Context, name, emailAddr, locale string) error
	Verify(ctx context.Context, code, locale string) error
	Unsubscribe(ctx context.Context, code, locale string) error
	RequestUnsubscribe(ctx context.Context, emailAddr, locale string) error
}

type service struct {
	store   *Store
	emails  email.Service
	baseURL string
	logger  *zap.Logger
}

func NewService(store *Store, emails email.Service, baseURL string, logger *zap.Logger) Service {
	return &service{
		store:   store,
		emails:  emails,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		logger:  logger,
	}
}

func (s *service) Subscribe(ctx context.Context, name, emailAddr, locale string) error {
	sub, err := s.store.Upsert(ctx, name, emailAddr)
	if err != nil {
		return err
	}
	if sub.Verified {
		// Already confirmed; nothing to resend.
		return nil
	}

	verificationURL := fmt.Sprintf("%s/%s/newsletter/verify?code=%s", s.baseURL, locale, sub.VerificationCode)
	if err := s.emails.SendNewsletterVerification(sub.Email, verificationURL, locale); err != nil {
		return fmt.Errorf("failed to send verification email: %w", err)
	}
	s.logger.Info("newsletter subscription pending verification", zap.String("email", sub.Email))
	return nil
}

func (s *service) Verify(ctx context.Context, code, locale string) error {
	sub, err := s.store.GetByVerificationCode(ctx, code)
	if err != nil {
		return err
	}
	if sub.Verified {
		return nil
	}
	if err := s.store.MarkVerified(ctx, sub.ID); err != nil {
		return err
	}

	unsubscribeURL := s.unsubscribeURL(locale, sub.UnsubscribeCode)
	if err := s.emails.SendNewsletterWelcome(sub.Email, sub.Name, unsubscribeURL, locale); err != nil {
		// The subscription is confirmed either way.
		s.logger.Error("failed to send welcome email", zap.String("email", sub.Email), zap.Error(err))
	}
	s.logger.Info("newsletter subscription verified", zap.String("email", sub.Email))
	return nil
}

func (s *service) Unsubscribe(ctx context.Context, code, locale string) error {
	sub, err := s.store.GetByUnsubscribeCode(ctx, code)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, sub.ID); err != nil {
		return err
	}
	if err := s.emails.SendNewsletterUnsubscribed(sub.Email, sub.Name, locale); err != nil {
		s.logger.Error("failed to send unsubscribed email", zap.String("email", sub.Email), zap.Error(err))
	}
	s.logger.Info("newsletter unsubscribed", zap.String("email", sub.Email))
	return nil
}

// RequestUnsubscribe mails the confirmation link to a subscriber who lost
// their original unsubscribe link.
func (s *service) RequestUnsubscribe(ctx context.Context, emailAddr, locale string) error {
	sub, err := s.store.GetByEmail(ctx, emailAddr)
	if err != nil {
		return err
	}
	unsubscribeURL := s.unsubscribeURL(locale, sub.UnsubscribeCode)
	if err := s.emails.SendNewsletterUnsubscribeConfirm(sub.Email, unsubscribeURL, locale); err != nil {
		return fmt.Errorf("failed to send unsubscribe confirmation: %w", err)
	}
	return nil
}

func (s *service) unsubscribeURL(locale, code string) string {
	return fmt.Sprintf("%s/%s/newsletter/unsubscribe?code=%s", s.baseURL, locale, code)
}
