package email

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// LineItem is one sold line rendered into order emails.
type LineItem struct {
	Description string
	Quantity    int64
	Amount      int64
	Currency    string
}

// OrderConfirmation is the payload for the customer-facing order email.
type OrderConfirmation struct {
	To        string
	Name      string
	OrderID   string
	OrderDate time.Time
	LineItems []LineItem
	Total     int64
	Currency  string
	Locale    string
}

// AdminOrderNotification is the payload for the back-office copy of an order.
type AdminOrderNotification struct {
	OrderID       string
	InvoiceID     string
	OrderDate     time.Time
	CustomerName  string
	CustomerEmail string
	LineItems     []LineItem
	Total         int64
	Currency      string
}

// TrackingUpdate is the payload for the shipment notification email.
type TrackingUpdate struct {
	To             string
	Name           string
	OrderID        string
	TrackingNumber string
	TrackingURL    string
	CarrierName    string
	Locale         string
}

// ContactMessage is a storefront contact-form submission.
type ContactMessage struct {
	Name    string
	Email   string
	Phone   string
	Subject string
	Message string
	Locale  string
}

// Service sends every transactional email the system produces. All messages
// are plain text, localized to the recipient's locale.
type Service interface {
	SendOrderConfirmation(p OrderConfirmation) error
	SendAdminOrderNotification(p AdminOrderNotification) error
	SendTrackingUpdate(p TrackingUpdate) error

	SendNewsletterVerification(to, verificationURL, locale string) error
	SendNewsletterWelcome(to, name, unsubscribeURL, locale string) error
	SendNewsletterUnsubscribeConfirm(to, unsubscribeURL, locale string) error
	SendNewsletterUnsubscribed(to, name, locale string) error

	SendContactAdminNotification(p ContactMessage) error
	SendContactUserConfirmation(p ContactMessage) error
}

type service struct {
	mailer      *Mailer
	t           *translator
	baseURL     string
	adminEmail  string
	adminLocale string
	logger      *zap.Logger
}

// NewService loads the embedded message catalogs and returns the mail
// service. BaseURL is the public storefront URL used to build links.
func NewService(mailer *Mailer, baseURL, adminEmail, adminLocale string, logger *zap.Logger) (Service, error) {
	bundle, err := newBundle()
	if err != nil {
		return nil, err
	}
	return &service{
		mailer:      mailer,
		t:           &translator{bundle: bundle},
		baseURL:     strings.TrimSuffix(baseURL, "/"),
		adminEmail:  adminEmail,
		adminLocale: adminLocale,
		logger:      logger,
	}, nil
}

func (s *service) SendOrderConfirmation(p OrderConfirmation) error {
	data := map[string]any{
		"Name":          p.Name,
		"OrderID":       p.OrderID,
		"OrderDate":     FormatDate(p.OrderDate, p.Locale),
		"Lines":         s.renderLines(p.LineItems, p.Locale),
		"Total":         FormatAmount(p.Total, p.Currency, p.Locale),
		"TrackOrderURL": s.link(p.Locale, "orders"),
		"ContactURL":    s.link(p.Locale, "contact"),
	}
	return s.mailer.send(p.To,
		s.t.localize(p.Locale, "orderEmail.customer.subject", data),
		s.t.localize(p.Locale, "orderEmail.customer.body", data))
}

func (s *service) SendAdminOrderNotification(p AdminOrderNotification) error {
	data := map[string]any{
		"OrderID":       p.OrderID,
		"InvoiceID":     p.InvoiceID,
		"OrderDate":     FormatDate(p.OrderDate, s.adminLocale),
		"CustomerName":  p.CustomerName,
		"CustomerEmail": p.CustomerEmail,
		"Lines":         s.renderLines(p.LineItems, s.adminLocale),
		"Total":         FormatAmount(p.Total, p.Currency, s.adminLocale),
		"DashboardURL":  "https://dashboard.stripe.com/invoices/" + p.InvoiceID,
	}
	return s.mailer.send(s.adminEmail,
		s.t.localize(s.adminLocale, "orderEmail.admin.subject", data),
		s.t.localize(s.adminLocale, "orderEmail.admin.body", data))
}

func (s *service) SendTrackingUpdate(p TrackingUpdate) error {
	data := map[string]any{
		"Name":           p.Name,
		"OrderID":        p.OrderID,
		"TrackingNumber": p.TrackingNumber,
		"TrackingURL":    p.TrackingURL,
		"CarrierName":    p.CarrierName,
		"ContactURL":     s.link(p.Locale, "contact"),
	}
	return s.mailer.send(p.To,
		s.t.localize(p.Locale, "trackingEmail.subject", data),
		s.t.localize(p.Locale, "trackingEmail.body", data))
}

func (s *service) SendNewsletterVerification(to, verificationURL, locale string) error {
	data := map[string]any{"VerificationURL": verificationURL}
	return s.mailer.send(to,
		s.t.localize(locale, "newsletter.email.verificationSubject", data),
		s.t.localize(locale, "newsletter.email.verificationBody", data))
}

func (s *service) SendNewsletterWelcome(to, name, unsubscribeURL, locale string) error {
	data := map[string]any{"Name": name, "UnsubscribeURL": unsubscribeURL}
	return s.mailer.send(to,
		s.t.localize(locale, "newsletter.email.welcomeSubject", data),
		s.t.localize(locale, "newsletter.email.welcomeBody", data))
}

func (s *service) SendNewsletterUnsubscribeConfirm(to, unsubscribeURL, locale string) error {
	data := map[string]any{"UnsubscribeURL": unsubscribeURL}
	return s.mailer.send(to,
		s.t.localize(locale, "newsletter.email.unsubscribeConfirmSubject", data),
		s.t.localize(locale, "newsletter.email.unsubscribeConfirmBody", data))
}

func (s *service) SendNewsletterUnsubscribed(to, name, locale string) error {
	data := map[string]any{"Name": name}
	return s.mailer.send(to,
		s.t.localize(locale, "newsletter.email.unsubscribedSubject", data),
		s.t.localize(locale, "newsletter.email.unsubscribedBody", data))
}

func (s *service) SendContactAdminNotification(p ContactMessage) error {
	data := map[string]any{
		"Name":    p.Name,
		"Email":   p.Email,
		"Phone":   p.Phone,
		"Subject": p.Subject,
		"Message": p.Message,
	}
	return s.mailer.send(s.adminEmail,
		s.t.localize(s.adminLocale, "contact.email.subject", data),
		s.t.localize(s.adminLocale, "contact.email.body", data))
}

func (s *service) SendContactUserConfirmation(p ContactMessage) error {
	data := map[string]any{"Name": p.Name, "Message": p.Message}
	return s.mailer.send(p.Email,
		s.t.localize(p.Locale, "contact.email.confirmationSubject", data),
		s.t.localize(p.Locale, "contact.email.confirmationBody", data))
}

func (s *service) renderLines(items []LineItem, locale string) string {
	var b strings.Builder
	for _, item := range items {
		fmt.Fprintf(&b, "- %d x %s: %s\n",
			item.Quantity, item.Description, FormatAmount(item.Amount, item.Currency, locale))
	}
	return b.String()
}

func (s *service) link(locale, path string) string {
	return fmt.Sprintf("%s/%s/%s", s.baseURL, locale, path)
}
