package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v79"
	"go.uber.org/zap"

	"storefront-backoffice/internal/email"
	"storefront-backoffice/internal/stripeapi"
)

// sendcloud status id for a delivered parcel.
const parcelStatusDelivered = 11

// ParcelStatusEvent is a carrier webhook notification that a parcel changed
// status. ExternalOrderID carries the invoice id set at order creation.
type ParcelStatusEvent struct {
	ParcelID        int64
	TrackingNumber  string
	StatusID        int64
	StatusMessage   string
	CarrierName     string
	ExternalOrderID string
}

type carrierOrderCreator interface {
	CreateOrder(ctx context.Context, inv *stripe.Invoice) (*CarrierOrder, error)
}

type trackingURLFetcher interface {
	TrackingURL(ctx context.Context, trackingNumber string) (string, error)
}

type pdfForwarder interface {
	ForwardPDF(ctx context.Context, pdfURL string) error
}

// WebhookService reconciles provider and carrier webhook events into
// fulfillment state. Each handler runs to completion or to its first hard
// failure; sub-steps recover independently so one degraded external call
// never blocks the rest of the pipeline.
type WebhookService interface {
	HandleInvoiceCreated(ctx context.Context, inv *stripe.Invoice) error
	HandleInvoiceFinalized(ctx context.Context, inv *stripe.Invoice) error
	HandleCreditNoteCreated(ctx context.Context, note *stripe.CreditNote) error
	HandleParcelStatusChanged(ctx context.Context, ev ParcelStatusEvent) error
}

type webhookService struct {
	backend   stripeapi.Backend
	carrier   carrierOrderCreator
	coupons   *CouponService
	stock     StockService
	resolver  *ProductResolver
	emails    email.Service
	forwarder pdfForwarder
	tracking  trackingURLFetcher
	logger    *zap.Logger
}

func NewWebhookService(
	backend stripeapi.Backend,
	carrier carrierOrderCreator,
	coupons *CouponService,
	stock StockService,
	emails email.Service,
	forwarder pdfForwarder,
	tracking trackingURLFetcher,
	logger *zap.Logger,
) WebhookService {
	return &webhookService{
		backend:   backend,
		carrier:   carrier,
		coupons:   coupons,
		stock:     stock,
		resolver:  NewProductResolver(backend),
		emails:    emails,
		forwarder: forwarder,
		tracking:  tracking,
		logger:    logger,
	}
}

// HandleInvoiceCreated applies the customer's role coupons to invoices
// created by hand in the provider dashboard. Invoices originating from a
// checkout session or the legacy import already carry their discounts and
// are skipped, which also guards against double application.
func (s *webhookService) HandleInvoiceCreated(ctx context.Context, inv *stripe.Invoice) error {
	s.logger.Info("invoice created", zap.String("invoice_id", inv.ID))

	meta, err := ValidateInvoiceMetadata(inv.ID, inv.Metadata)
	if err != nil {
		return err
	}
	if meta.Source == SourceCheckoutSession || meta.Source == SourceWoocommerce {
		s.logger.Info("skipping invoice with external source",
			zap.String("invoice_id", inv.ID),
			zap.String("source", meta.Source))
		return nil
	}

	if inv.Customer == nil || inv.Customer.ID == "" {
		s.logger.Error("invoice has no customer", zap.String("invoice_id", inv.ID))
		return nil
	}

	coupons, err := s.coupons.CouponsForCustomer(ctx, inv.Customer.ID)
	if err != nil {
		return fmt.Errorf("failed to search coupons for invoice %s: %w", inv.ID, err)
	}
	if len(coupons) == 0 {
		s.logger.Info("no applicable coupons",
			zap.String("invoice_id", inv.ID),
			zap.String("customer_id", inv.Customer.ID))
		return nil
	}

	ids := make([]string, len(coupons))
	for i, c := range coupons {
		ids[i] = c.ID
	}
	if err := s.backend.ApplyInvoiceCoupons(ctx, inv.ID, ids); err != nil {
		// Non-fatal: the invoice can be corrected by hand in the dashboard.
		s.logger.Error("failed to apply coupons",
			zap.String("invoice_id", inv.ID),
			zap.Strings("coupon_ids", ids),
			zap.Error(err))
		return nil
	}
	s.logger.Info("applied coupons", zap.String("invoice_id", inv.ID), zap.Strings("coupon_ids", ids))
	return nil
}

// HandleInvoiceFinalized runs the order-to-fulfillment sequence: carrier
// order, shipment metadata write-back, stock decrement, confirmation emails
// and the accounting PDF forward.
//
// Deliveries are not deduplicated. A repeated finalized event for the same
// invoice re-runs the whole sequence: it creates a second carrier order,
// decrements stock again, and resends the confirmation emails. The
// legacy-source skip above is the only guard; a real guard would need
// conditional metadata writes on the provider side, which its API does not
// offer. The carrier at least keys orders by invoice id, so the duplicate
// carrier order overwrites rather than duplicates the shipment.
func (s *webhookService) HandleInvoiceFinalized(ctx context.Context, raw *stripe.Invoice) error {
	s.logger.Info("invoice finalized", zap.String("invoice_id", raw.ID))

	meta, err := ValidateInvoiceMetadata(raw.ID, raw.Metadata)
	if err != nil {
		return err
	}
	if meta.Source == SourceWoocommerce {
		s.logger.Info("skipping legacy-imported invoice", zap.String("invoice_id", raw.ID))
		return nil
	}

	inv, err := s.backend.GetInvoice(ctx, raw.ID, "lines.data.price.product", "customer")
	if err != nil {
		return fmt.Errorf("failed to retrieve invoice %s: %w", raw.ID, err)
	}

	if inv.EffectiveAt == 0 {
		s.logger.Error("invoice has no effective date, skipping",
			zap.String("invoice_id", inv.ID),
			zap.String("status", string(inv.Status)))
		return nil
	}

	customer := inv.Customer
	if customer == nil || customer.Deleted {
		s.logger.Error("invalid customer for invoice", zap.String("invoice_id", inv.ID))
		return nil
	}
	custMeta, err := ValidateCustomerMetadata(customer.ID, customer.Metadata)
	if err != nil {
		s.logger.Error("invalid customer metadata for invoice",
			zap.String("invoice_id", inv.ID),
			zap.Error(err))
		return nil
	}
	locale := custMeta.Locale

	carrierOrder, err := s.carrier.CreateOrder(ctx, inv)
	if err != nil {
		return fmt.Errorf("carrier order for invoice %s: %w", inv.ID, err)
	}

	shipMeta := InvoiceMetadata{ShippingStatus: ShippingStatusAwaiting}
	if carrierOrder != nil {
		shipMeta.SendcloudOrderID = carrierOrder.OrderID
	}
	written := shipMeta.Map()
	// The carrier order id is the only durable shipment record; write it even
	// when empty so the status is visible in the back office.
	written[keySendcloudOrderID] = shipMeta.SendcloudOrderID
	if _, err := s.backend.UpdateInvoiceMetadata(ctx, inv.ID, written); err != nil {
		return fmt.Errorf("failed to write shipment metadata for invoice %s: %w", inv.ID, err)
	}

	var items []*stripe.InvoiceLineItem
	if inv.Lines != nil {
		items = inv.Lines.Data
	}
	if lines, err := s.resolver.ResolveLines(ctx, items); err != nil {
		s.logger.Error("failed to resolve line items for stock update",
			zap.String("invoice_id", inv.ID),
			zap.Error(err))
	} else if err := s.stock.DecrementForLines(ctx, lines); err != nil {
		s.logger.Error("failed to decrement stock",
			zap.String("invoice_id", inv.ID),
			zap.Error(err))
	}

	emailLines := make([]email.LineItem, 0, len(items))
	for _, item := range items {
		quantity := item.Quantity
		if quantity <= 0 {
			quantity = 1
		}
		name := item.Description
		if name == "" {
			name = "Product"
		}
		emailLines = append(emailLines, email.LineItem{
			Description: name,
			Quantity:    quantity,
			Amount:      item.Amount,
			Currency:    string(item.Currency),
		})
	}

	paidAt := time.Unix(inv.EffectiveAt, 0).UTC()
	if inv.StatusTransitions != nil && inv.StatusTransitions.PaidAt > 0 {
		paidAt = time.Unix(inv.StatusTransitions.PaidAt, 0).UTC()
	}

	if inv.CustomerEmail == "" {
		s.logger.Warn("invoice has no customer email, skipping confirmation",
			zap.String("invoice_id", inv.ID))
	} else {
		customerName := inv.CustomerName
		if customerName == "" {
			customerName = "Customer"
		}
		if err := s.emails.SendOrderConfirmation(email.OrderConfirmation{
			To:        inv.CustomerEmail,
			Name:      customerName,
			OrderID:   inv.ID,
			OrderDate: paidAt,
			LineItems: emailLines,
			Total:     inv.Total,
			Currency:  string(inv.Currency),
			Locale:    string(locale),
		}); err != nil {
			s.logger.Error("failed to send customer confirmation",
				zap.String("invoice_id", inv.ID),
				zap.Error(err))
		}
	}

	adminName := inv.CustomerName
	if adminName == "" {
		adminName = "N/A"
	}
	if err := s.emails.SendAdminOrderNotification(email.AdminOrderNotification{
		OrderID:       inv.ID,
		InvoiceID:     inv.ID,
		OrderDate:     time.Unix(inv.EffectiveAt, 0).UTC(),
		CustomerName:  adminName,
		CustomerEmail: inv.CustomerEmail,
		LineItems:     emailLines,
		Total:         inv.AmountPaid,
		Currency:      string(inv.Currency),
	}); err != nil {
		s.logger.Error("failed to send admin notification",
			zap.String("invoice_id", inv.ID),
			zap.Error(err))
	}

	if inv.InvoicePDF != "" {
		if err := s.forwarder.ForwardPDF(ctx, inv.InvoicePDF); err != nil {
			s.logger.Error("failed to forward invoice PDF",
				zap.String("invoice_id", inv.ID),
				zap.Error(err))
		}
	}
	return nil
}

func (s *webhookService) HandleCreditNoteCreated(ctx context.Context, note *stripe.CreditNote) error {
	if note.PDF == "" {
		s.logger.Warn("credit note has no PDF", zap.String("credit_note_id", note.ID))
		return nil
	}
	return s.forwarder.ForwardPDF(ctx, note.PDF)
}

// HandleParcelStatusChanged layers carrier tracking state onto the invoice
// the parcel was created for and notifies the customer once shipped.
func (s *webhookService) HandleParcelStatusChanged(ctx context.Context, ev ParcelStatusEvent) error {
	if ev.ExternalOrderID == "" {
		s.logger.Warn("parcel status change without external order id",
			zap.Int64("parcel_id", ev.ParcelID),
			zap.String("status", ev.StatusMessage))
		return nil
	}

	status := parcelShippingStatus(ev)

	trackingURL := ""
	if ev.TrackingNumber != "" {
		url, err := s.tracking.TrackingURL(ctx, ev.TrackingNumber)
		if err != nil {
			s.logger.Warn("failed to fetch tracking url",
				zap.String("tracking_number", ev.TrackingNumber),
				zap.Error(err))
		} else {
			trackingURL = url
		}
	}

	metadata := map[string]string{
		keyShippingStatus: status,
		keyTrackingNumber: ev.TrackingNumber,
		keyTrackingURL:    trackingURL,
	}
	if _, err := s.backend.UpdateInvoiceMetadata(ctx, ev.ExternalOrderID, metadata); err != nil {
		return fmt.Errorf("failed to write tracking metadata for invoice %s: %w", ev.ExternalOrderID, err)
	}
	s.logger.Info("updated shipment status",
		zap.String("invoice_id", ev.ExternalOrderID),
		zap.String("shipping_status", status),
		zap.String("tracking_number", ev.TrackingNumber))

	if status != ShippingStatusShipped {
		return nil
	}

	inv, err := s.backend.GetInvoice(ctx, ev.ExternalOrderID, "customer")
	if err != nil {
		s.logger.Error("failed to load invoice for tracking email",
			zap.String("invoice_id", ev.ExternalOrderID),
			zap.Error(err))
		return nil
	}
	if inv.CustomerEmail == "" {
		s.logger.Warn("invoice has no customer email, skipping tracking email",
			zap.String("invoice_id", inv.ID))
		return nil
	}

	locale := DefaultLocale
	if inv.Customer != nil && !inv.Customer.Deleted {
		if custMeta, err := ValidateCustomerMetadata(inv.Customer.ID, inv.Customer.Metadata); err == nil {
			locale = custMeta.Locale
		}
	}
	name := inv.CustomerName
	if name == "" {
		name = "Customer"
	}

	if err := s.emails.SendTrackingUpdate(email.TrackingUpdate{
		To:             inv.CustomerEmail,
		Name:           name,
		OrderID:        inv.ID,
		TrackingNumber: ev.TrackingNumber,
		TrackingURL:    trackingURL,
		CarrierName:    ev.CarrierName,
		Locale:         string(locale),
	}); err != nil {
		s.logger.Error("failed to send tracking email",
			zap.String("invoice_id", inv.ID),
			zap.Error(err))
	}
	return nil
}

func parcelShippingStatus(ev ParcelStatusEvent) string {
	if ev.StatusID == parcelStatusDelivered || strings.EqualFold(ev.StatusMessage, "delivered") {
		return ShippingStatusDelivered
	}
	return ShippingStatusShipped
}
