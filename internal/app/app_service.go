package app

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/stripe/stripe-go/v79"
	"go.uber.org/zap"

	"storefront-backoffice/internal/captcha"
	"storefront-backoffice/internal/core"
	"storefront-backoffice/internal/email"
	"storefront-backoffice/internal/newsletter"
	"storefront-backoffice/internal/stripeapi"
)

type appService struct {
	backend   stripeapi.Backend
	orders    core.OrderService
	rates     *core.RateService
	coupons   *core.CouponService
	stock     core.StockService
	customers core.CustomerService
	webhooks  core.WebhookService
	emails    email.Service
	news      newsletter.Service
	captcha   captcha.Verifier
	logger    *zap.Logger
}

// NewAppService wires the domain services behind the single facade the web
// adapter depends on.
func NewAppService(
	backend stripeapi.Backend,
	orders core.OrderService,
	rates *core.RateService,
	coupons *core.CouponService,
	stock core.StockService,
	customers core.CustomerService,
	webhooks core.WebhookService,
	emails email.Service,
	news newsletter.Service,
	verifier captcha.Verifier,
	logger *zap.Logger,
) ApplicationService {
	return &appService{
		backend:   backend,
		orders:    orders,
		rates:     rates,
		coupons:   coupons,
		stock:     stock,
		customers: customers,
		webhooks:  webhooks,
		emails:    emails,
		news:      news,
		captcha:   verifier,
		logger:    logger,
	}
}

func (s *appService) ListOrders(ctx context.Context, query core.OrderQuery) (*core.OrderPage, error) {
	return s.orders.ListOrders(ctx, query)
}

func (s *appService) UpdateOrder(ctx context.Context, invoiceID string, update core.OrderUpdate) (*core.Order, error) {
	return s.orders.UpdateOrder(ctx, invoiceID, update)
}

func (s *appService) GetInvoiceShippingOptions(ctx context.Context, invoiceID string) ([]core.ShippingRate, error) {
	inv, params, err := s.quoteParamsForInvoice(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if params == nil {
		s.logger.Warn("invoice has no usable destination address, returning no shipping options",
			zap.String("invoice_id", inv.ID))
		return []core.ShippingRate{}, nil
	}
	return s.rates.GetShippingOptions(ctx, *params)
}

func (s *appService) SetInvoiceShipping(ctx context.Context, invoiceID, shippingRateID string) error {
	inv, params, err := s.quoteParamsForInvoice(ctx, invoiceID)
	if err != nil {
		return err
	}
	if params == nil {
		return ErrShippingRateNotFound
	}

	// The rate id is only meaningful against a fresh quote for the same
	// destination, so re-quote and match rather than trusting the client.
	options, err := s.rates.GetShippingOptions(ctx, *params)
	if err != nil {
		return err
	}
	for _, rate := range options {
		if rate.ID != shippingRateID {
			continue
		}
		if _, err := s.backend.SetInvoiceShipping(ctx, inv.ID, core.RateData(rate)); err != nil {
			return fmt.Errorf("failed to attach shipping rate to invoice %s: %w", inv.ID, err)
		}
		return nil
	}
	return ErrShippingRateNotFound
}

// quoteParamsForInvoice loads the invoice and derives the quote destination
// from its shipping address, falling back to the customer's billing address.
// A nil QuoteParams means no address is available.
func (s *appService) quoteParamsForInvoice(ctx context.Context, invoiceID string) (*stripe.Invoice, *core.QuoteParams, error) {
	inv, err := s.backend.GetInvoice(ctx, invoiceID, "customer", "lines.data.price.product")
	if err != nil {
		return nil, nil, err
	}

	var address *stripe.Address
	if inv.ShippingDetails != nil && inv.ShippingDetails.Address != nil {
		address = inv.ShippingDetails.Address
	} else if inv.CustomerAddress != nil {
		address = inv.CustomerAddress
	} else if inv.Customer != nil && inv.Customer.Address != nil {
		address = inv.Customer.Address
	}
	if address == nil || address.Country == "" || address.PostalCode == "" {
		return inv, nil, nil
	}

	return inv, &core.QuoteParams{
		ToCountryCode: address.Country,
		ToPostalCode:  address.PostalCode,
		Items:         inv.Lines.Data,
		Customer:      inv.Customer,
	}, nil
}

func (s *appService) ApplyInvoiceDiscounts(ctx context.Context, invoiceID string) (int, error) {
	inv, err := s.backend.GetInvoice(ctx, invoiceID)
	if err != nil {
		return 0, err
	}
	if inv.Customer == nil || inv.Customer.ID == "" {
		return 0, nil
	}
	coupons, err := s.coupons.CouponsForCustomer(ctx, inv.Customer.ID)
	if err != nil {
		return 0, err
	}
	if len(coupons) == 0 {
		return 0, nil
	}
	ids := make([]string, 0, len(coupons))
	for _, c := range coupons {
		ids = append(ids, c.ID)
	}
	if err := s.backend.ApplyInvoiceCoupons(ctx, invoiceID, ids); err != nil {
		return 0, err
	}
	return len(ids), nil
}

func (s *appService) RemoveInvoiceDiscounts(ctx context.Context, invoiceID string) error {
	return s.backend.ApplyInvoiceCoupons(ctx, invoiceID, nil)
}

func (s *appService) ListStock(ctx context.Context) ([]core.StockProduct, error) {
	return s.stock.ListStock(ctx)
}

func (s *appService) SetStock(ctx context.Context, productID string, quantity int64) (*core.StockProduct, error) {
	return s.stock.SetStock(ctx, productID, quantity)
}

func (s *appService) ListCustomers(ctx context.Context, query core.CustomerQuery) (*core.CustomerPage, error) {
	return s.customers.ListCustomers(ctx, query)
}

func (s *appService) SetCustomerRole(ctx context.Context, customerID, role string) (*core.Customer, error) {
	return s.customers.SetRole(ctx, customerID, role)
}

func (s *appService) SubmitContactForm(ctx context.Context, req ContactRequest) error {
	if !s.captcha.Verify(ctx, req.CaptchaToken) {
		return ErrCaptchaFailed
	}
	msg := email.ContactMessage{
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Subject: req.Subject,
		Message: req.Message,
		Locale:  req.Locale,
	}
	// The admin copy and the sender confirmation are independent; one
	// failing must not suppress the other.
	if err := s.emails.SendContactAdminNotification(msg); err != nil {
		s.logger.Error("failed to send contact notification to admin", zap.Error(err))
	}
	if err := s.emails.SendContactUserConfirmation(msg); err != nil {
		s.logger.Error("failed to send contact confirmation to sender",
			zap.String("email", req.Email), zap.Error(err))
	}
	return nil
}

func (s *appService) SubscribeNewsletter(ctx context.Context, req SubscribeRequest) error {
	if !s.captcha.Verify(ctx, req.CaptchaToken) {
		return ErrCaptchaFailed
	}
	return s.news.Subscribe(ctx, req.Name, req.Email, req.Locale)
}

func (s *appService) VerifyNewsletter(ctx context.Context, code, locale string) error {
	return s.news.Verify(ctx, code, locale)
}

func (s *appService) UnsubscribeNewsletter(ctx context.Context, code, emailAddr, locale string) error {
	if code != "" {
		return s.news.Unsubscribe(ctx, code, locale)
	}
	return s.news.RequestUnsubscribe(ctx, emailAddr, locale)
}

func (s *appService) ProcessStripeEvent(ctx context.Context, event stripe.Event) error {
	switch event.Type {
	case "invoice.created":
		var inv stripe.Invoice
		if err := json.Unmarshal(event.Data.Raw, &inv); err != nil {
			return fmt.Errorf("failed to decode invoice from event %s: %w", event.ID, err)
		}
		return s.webhooks.HandleInvoiceCreated(ctx, &inv)
	case "invoice.finalized":
		var inv stripe.Invoice
		if err := json.Unmarshal(event.Data.Raw, &inv); err != nil {
			return fmt.Errorf("failed to decode invoice from event %s: %w", event.ID, err)
		}
		return s.webhooks.HandleInvoiceFinalized(ctx, &inv)
	case "credit_note.created":
		var note stripe.CreditNote
		if err := json.Unmarshal(event.Data.Raw, &note); err != nil {
			return fmt.Errorf("failed to decode credit note from event %s: %w", event.ID, err)
		}
		return s.webhooks.HandleCreditNoteCreated(ctx, &note)
	default:
		s.logger.Debug("ignoring unhandled provider event", zap.String("type", string(event.Type)))
		return nil
	}
}

func (s *appService) ProcessParcelEvent(ctx context.Context, ev core.ParcelStatusEvent) error {
	return s.webhooks.HandleParcelStatusChanged(ctx, ev)
}
