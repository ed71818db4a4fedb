package core

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v79"
	"go.uber.org/zap"

	"storefront-backoffice/internal/sendcloud"
	"storefront-backoffice/internal/stripeapi"
)

// MissingShippingRateError signals an invoice that reached fulfillment
// without a chosen shipping rate. Unlike a missing or incomplete address this
// is an upstream invariant violation, so it surfaces as a hard error instead
// of a logged null.
type MissingShippingRateError struct {
	InvoiceID string
}

func (e *MissingShippingRateError) Error() string {
	return fmt.Sprintf("invoice %s has no shipping rate set", e.InvoiceID)
}

// CarrierService creates carrier orders from finalized invoices.
type CarrierService struct {
	backend       stripeapi.Backend
	carrier       *sendcloud.Client
	resolver      *ProductResolver
	integrationID int64
	logger        *zap.Logger
}

func NewCarrierService(backend stripeapi.Backend, carrier *sendcloud.Client, integrationID int64, logger *zap.Logger) *CarrierService {
	return &CarrierService{
		backend:       backend,
		carrier:       carrier,
		resolver:      NewProductResolver(backend),
		integrationID: integrationID,
		logger:        logger,
	}
}

// CreateOrder submits a carrier order for the invoice, using the invoice id
// as the carrier-side idempotency key. Absent or incomplete addresses and any
// carrier API failure are soft: they log and return nil so fulfillment
// continues without tracking. Only a missing shipping rate is hard.
func (s *CarrierService) CreateOrder(ctx context.Context, inv *stripe.Invoice) (*CarrierOrder, error) {
	address := shippingAddress(inv)
	if address == nil {
		s.logger.Warn("no shipping address found for invoice", zap.String("invoice_id", inv.ID))
		return nil, nil
	}
	if address.Line1 == "" || address.City == "" || address.PostalCode == "" || address.Country == "" {
		s.logger.Warn("incomplete shipping address for invoice",
			zap.String("invoice_id", inv.ID),
			zap.Any("address", address))
		return nil, nil
	}

	if inv.ShippingCost == nil || inv.ShippingCost.ShippingRate == nil {
		return nil, &MissingShippingRateError{InvoiceID: inv.ID}
	}

	rate := inv.ShippingCost.ShippingRate
	if rate.DisplayName == "" && rate.Metadata == nil {
		// Unexpanded reference; fetch the full rate object.
		full, err := s.backend.GetShippingRate(ctx, rate.ID)
		if err != nil {
			s.logger.Error("failed to resolve shipping rate for invoice",
				zap.String("invoice_id", inv.ID),
				zap.String("shipping_rate_id", rate.ID),
				zap.Error(err))
			return nil, nil
		}
		rate = full
	}

	rateMeta, err := ValidateShippingRateMetadata(rate.ID, rate.Metadata)
	if err != nil {
		s.logger.Error("shipping rate metadata invalid, skipping carrier order", zap.Error(err))
		return nil, nil
	}

	var items []*stripe.InvoiceLineItem
	if inv.Lines != nil {
		items = inv.Lines.Data
	}
	lines, err := s.resolver.ResolveLines(ctx, items)
	if err == nil {
		var parcel *ParcelInfo
		parcel, err = BuildParcelInfo(lines)
		if err == nil {
			return s.submit(ctx, inv, rateMeta, rate, parcel, address, items)
		}
	}
	s.logger.Error("failed to compute parcel profile, skipping carrier order",
		zap.String("invoice_id", inv.ID),
		zap.Error(err))
	return nil, nil
}

func (s *CarrierService) submit(
	ctx context.Context,
	inv *stripe.Invoice,
	rateMeta *ShippingRateMetadata,
	rate *stripe.ShippingRate,
	parcel *ParcelInfo,
	address *stripe.Address,
	items []*stripe.InvoiceLineItem,
) (*CarrierOrder, error) {
	customerName := inv.CustomerName
	if customerName == "" {
		customerName = "Customer"
	}

	orderNumber := inv.Number
	if orderNumber == "" {
		orderNumber = inv.ID
	}

	var paidAt time.Time
	if inv.StatusTransitions != nil && inv.StatusTransitions.PaidAt > 0 {
		paidAt = time.Unix(inv.StatusTransitions.PaidAt, 0).UTC()
	} else {
		paidAt = time.Now().UTC()
	}

	req := &sendcloud.OrderRequest{
		OrderID:     inv.ID,
		OrderNumber: orderNumber,
	}
	req.OrderDetails.Integration.ID = s.integrationID
	req.OrderDetails.Status = sendcloud.StatusCode{Code: "paid"}
	req.OrderDetails.OrderCreatedAt = paidAt.Format(time.RFC3339)
	for _, item := range items {
		quantity := item.Quantity
		if quantity <= 0 {
			quantity = 1
		}
		name := item.Description
		if name == "" {
			name = "Product"
		}
		total := decimal.NewFromInt(quantity * item.Amount).Div(decimal.NewFromInt(100))
		req.OrderDetails.OrderItems = append(req.OrderDetails.OrderItems, sendcloud.OrderItem{
			Name:     name,
			Quantity: quantity,
			TotalPrice: sendcloud.Money{
				Value:    total.StringFixed(2),
				Currency: strings.ToUpper(string(item.Currency)),
			},
		})
	}

	req.PaymentDetails.TotalPrice = sendcloud.Money{
		Value:    decimal.NewFromInt(inv.AmountPaid).Div(decimal.NewFromInt(100)).StringFixed(2),
		Currency: strings.ToUpper(string(inv.Currency)),
	}
	req.PaymentDetails.Status = sendcloud.StatusCode{Code: "paid"}

	req.CustomerDetails.Name = customerName
	req.CustomerDetails.Email = inv.CustomerEmail

	req.ShippingAddress = sendcloud.Address{
		Name:         customerName,
		AddressLine1: address.Line1,
		AddressLine2: address.Line2,
		City:         address.City,
		PostalCode:   address.PostalCode,
		CountryCode:  address.Country,
		Email:        inv.CustomerEmail,
	}

	weightKg := parcel.WeightKilograms().Round(0).IntPart()
	req.ShippingDetails.Measurement = &sendcloud.Measurement{
		Weight: &sendcloud.MeasurementWeight{Value: weightKg, Unit: "kg"},
		Dimension: &sendcloud.MeasurementDimension{
			Length: parcel.MaxLength.InexactFloat64(),
			Width:  parcel.MaxWidth.InexactFloat64(),
			Height: parcel.TotalHeight.InexactFloat64(),
			Unit:   "cm",
		},
	}
	req.ShippingDetails.ShipWith = &sendcloud.ShipWith{Type: "shipping_option_code"}
	req.ShippingDetails.ShipWith.Properties.ShippingOptionCode = rateMeta.SendcloudCode

	created, err := s.carrier.CreateOrder(ctx, req)
	if err != nil {
		s.logger.Error("carrier order creation failed",
			zap.String("invoice_id", inv.ID),
			zap.Error(err))
		return nil, nil
	}

	carrierName := rate.DisplayName
	if carrierName == "" {
		carrierName = "Unknown Carrier"
	}
	return &CarrierOrder{
		OrderID:     strconv.FormatInt(created.ID, 10),
		CarrierName: carrierName,
	}, nil
}

// shippingAddress picks the invoice's shipping address, falling back to the
// billing address the customer entered.
func shippingAddress(inv *stripe.Invoice) *stripe.Address {
	if inv.ShippingDetails != nil && inv.ShippingDetails.Address != nil {
		return inv.ShippingDetails.Address
	}
	return inv.CustomerAddress
}
