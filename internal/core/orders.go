package core

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v79"
	"go.uber.org/zap"

	"storefront-backoffice/internal/stripeapi"
)

// providerListLimit caps how many objects the admin projections read from the
// provider per request. Filtering and paging happen in memory on that window.
const providerListLimit = 100

// OrderQuery filters and pages the admin order listing.
type OrderQuery struct {
	Page           int
	Limit          int
	Search         string
	ShippingStatus string
}

// OrderPage is one page of the admin order listing.
type OrderPage struct {
	Orders     []Order `json:"orders"`
	Total      int     `json:"total"`
	Page       int     `json:"page"`
	Limit      int     `json:"limit"`
	TotalPages int     `json:"totalPages"`
}

// OrderUpdate patches the shipment fields layered onto an invoice. Nil leaves
// a field untouched; a pointer to "" clears it.
type OrderUpdate struct {
	ShippingStatus   *string `json:"shippingStatus"`
	TrackingNumber   *string `json:"trackingNumber"`
	TrackingURL      *string `json:"trackingUrl"`
	CarrierName      *string `json:"carrierName"`
	SendcloudOrderID *string `json:"sendcloudOrderId"`
}

// OrderService projects provider invoices into orders for the back office.
type OrderService interface {
	ListOrders(ctx context.Context, query OrderQuery) (*OrderPage, error)
	UpdateOrder(ctx context.Context, invoiceID string, update OrderUpdate) (*Order, error)
}

type orderService struct {
	backend stripeapi.Backend
	logger  *zap.Logger
}

func NewOrderService(backend stripeapi.Backend, logger *zap.Logger) OrderService {
	return &orderService{backend: backend, logger: logger}
}

func (s *orderService) ListOrders(ctx context.Context, query OrderQuery) (*OrderPage, error) {
	if query.Page < 1 {
		query.Page = 1
	}
	if query.Limit < 1 {
		query.Limit = 10
	}

	invoices, err := s.backend.ListInvoices(ctx, providerListLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}

	creditNotes := s.creditNoteURLs(ctx, invoices)

	orders := make([]Order, 0, len(invoices))
	for _, inv := range invoices {
		order := MapInvoiceToOrder(inv, creditNotes)
		if !matchesQuery(&order, query) {
			continue
		}
		orders = append(orders, order)
	}

	total := len(orders)
	totalPages := (total + query.Limit - 1) / query.Limit
	start := (query.Page - 1) * query.Limit
	if start > total {
		start = total
	}
	end := start + query.Limit
	if end > total {
		end = total
	}

	return &OrderPage{
		Orders:     orders[start:end],
		Total:      total,
		Page:       query.Page,
		Limit:      query.Limit,
		TotalPages: totalPages,
	}, nil
}

func (s *orderService) UpdateOrder(ctx context.Context, invoiceID string, update OrderUpdate) (*Order, error) {
	metadata := map[string]string{}
	assign := func(key string, v *string) {
		if v != nil {
			metadata[key] = *v
		}
	}
	assign(keyShippingStatus, update.ShippingStatus)
	assign(keyTrackingNumber, update.TrackingNumber)
	assign(keyTrackingURL, update.TrackingURL)
	assign(keyCarrierName, update.CarrierName)
	assign(keySendcloudOrderID, update.SendcloudOrderID)

	if len(metadata) > 0 {
		if _, err := s.backend.UpdateInvoiceMetadata(ctx, invoiceID, metadata); err != nil {
			return nil, fmt.Errorf("failed to update invoice %s metadata: %w", invoiceID, err)
		}
	}

	inv, err := s.backend.GetInvoice(ctx, invoiceID, "customer", "shipping_cost.shipping_rate")
	if err != nil {
		return nil, fmt.Errorf("failed to get invoice %s: %w", invoiceID, err)
	}
	notes := s.creditNoteURLs(ctx, []*stripe.Invoice{inv})
	order := MapInvoiceToOrder(inv, notes)
	return &order, nil
}

// creditNoteURLs collects credit note PDF links per invoice id. Credit notes
// are listed per customer; a listing failure degrades to no links.
func (s *orderService) creditNoteURLs(ctx context.Context, invoices []*stripe.Invoice) map[string][]string {
	byInvoice := map[string][]string{}
	seen := map[string]bool{}

	for _, inv := range invoices {
		if inv.Customer == nil || seen[inv.Customer.ID] {
			continue
		}
		seen[inv.Customer.ID] = true

		notes, err := s.backend.ListCreditNotes(ctx, inv.Customer.ID)
		if err != nil {
			s.logger.Warn("failed to list credit notes",
				zap.String("customer_id", inv.Customer.ID),
				zap.Error(err))
			continue
		}
		for _, note := range notes {
			if note.Invoice == nil || note.PDF == "" {
				continue
			}
			byInvoice[note.Invoice.ID] = append(byInvoice[note.Invoice.ID], note.PDF)
		}
	}
	for _, urls := range byInvoice {
		sort.Strings(urls)
	}
	return byInvoice
}

// MapInvoiceToOrder builds the order projection from an invoice expanded with
// customer and shipping_cost.shipping_rate. Metadata problems never fail the
// projection; unparseable shapes just fall back to defaults.
func MapInvoiceToOrder(inv *stripe.Invoice, creditNoteURLs map[string][]string) Order {
	invMeta, _ := ValidateInvoiceMetadata(inv.ID, inv.Metadata)
	if invMeta == nil {
		invMeta = &InvoiceMetadata{}
	}

	locale := DefaultLocale
	var role *string
	if inv.Customer != nil && !inv.Customer.Deleted {
		if custMeta, err := ValidateCustomerMetadata(inv.Customer.ID, inv.Customer.Metadata); err == nil {
			locale = custMeta.Locale
			if custMeta.Role != "" {
				role = &custMeta.Role
			}
		}
	}

	var carrierName *string
	if inv.ShippingCost != nil && inv.ShippingCost.ShippingRate != nil {
		name := inv.ShippingCost.ShippingRate.DisplayName
		if name == "" {
			name = inv.ShippingCost.ShippingRate.ID
		}
		carrierName = &name
	}

	creditNotesAmount := inv.PostPaymentCreditNotesAmount + inv.PrePaymentCreditNotesAmount

	shippingStatus := invMeta.ShippingStatus
	if shippingStatus == "" {
		shippingStatus = ShippingStatusAwaiting
	}
	invoiceStatus := string(inv.Status)
	if invoiceStatus == "" {
		invoiceStatus = string(stripe.InvoiceStatusDraft)
	}

	created := time.Unix(inv.Created, 0).UTC().Format(time.RFC3339)
	orderedAt := invMeta.EffectiveAt
	if inv.EffectiveAt > 0 {
		orderedAt = time.Unix(inv.EffectiveAt, 0).UTC().Format(time.RFC3339)
	}
	var paidAt *string
	if inv.StatusTransitions != nil && inv.StatusTransitions.PaidAt > 0 {
		v := time.Unix(inv.StatusTransitions.PaidAt, 0).UTC().Format(time.RFC3339)
		paidAt = &v
	}

	urls := creditNoteURLs[inv.ID]
	if urls == nil {
		urls = []string{}
	}

	return Order{
		ID:                inv.ID,
		Number:            inv.Number,
		Locale:            locale,
		StripeInvoiceID:   inv.ID,
		SendcloudOrderID:  optional(invMeta.SendcloudOrderID),
		CustomerEmail:     inv.CustomerEmail,
		CustomerName:      optional(inv.CustomerName),
		CustomerRole:      role,
		TotalAmount:       inv.Total,
		Currency:          string(inv.Currency),
		ShippingStatus:    shippingStatus,
		InvoiceStatus:     invoiceStatus,
		TrackingNumber:    optional(invMeta.TrackingNumber),
		TrackingURL:       optional(invMeta.TrackingURL),
		CarrierName:       carrierName,
		DiscountsCount:    len(inv.TotalDiscountAmounts),
		CreditNotesAmount: creditNotesAmount,
		HasCreditNotes:    creditNotesAmount > 0,
		CreditNoteURLs:    urls,
		InvoiceURL:        optional(inv.HostedInvoiceURL),
		PaidAt:            paidAt,
		OrderedAt:         orderedAt,
		CreatedAt:         created,
		UpdatedAt:         created,
	}
}

func matchesQuery(order *Order, query OrderQuery) bool {
	if query.ShippingStatus != "" && order.ShippingStatus != query.ShippingStatus {
		return false
	}
	if query.Search == "" {
		return true
	}
	needle := strings.ToLower(query.Search)
	haystacks := []string{order.CustomerEmail, order.Number, order.ID}
	if order.CustomerName != nil {
		haystacks = append(haystacks, *order.CustomerName)
	}
	for _, h := range haystacks {
		if strings.Contains(strings.ToLower(h), needle) {
			return true
		}
	}
	return false
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
