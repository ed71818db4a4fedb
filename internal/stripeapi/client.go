package stripeapi

import (
	"context"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
)

// Backend is the narrow slice of the payment provider's API the back office
// consumes. Services depend on this interface rather than the SDK client so
// tests can substitute fakes; the provider remains the system of record for
// customers, products, prices, invoices and their metadata.
type Backend interface {
	GetInvoice(ctx context.Context, id string, expand ...string) (*stripe.Invoice, error)
	ListInvoices(ctx context.Context, limit int64) ([]*stripe.Invoice, error)
	UpdateInvoiceMetadata(ctx context.Context, id string, metadata map[string]string) (*stripe.Invoice, error)
	// ApplyInvoiceCoupons replaces the invoice's discounts with the given
	// coupons; an empty slice clears all discounts.
	ApplyInvoiceCoupons(ctx context.Context, id string, couponIDs []string) error
	SetInvoiceShipping(ctx context.Context, id string, shipping *ShippingRateData) (*stripe.Invoice, error)

	GetCustomer(ctx context.Context, id string) (*stripe.Customer, error)
	ListCustomers(ctx context.Context, limit int64) ([]*stripe.Customer, error)
	UpdateCustomerMetadata(ctx context.Context, id string, metadata map[string]string) (*stripe.Customer, error)

	GetProduct(ctx context.Context, id string) (*stripe.Product, error)
	ListProducts(ctx context.Context, limit int64) ([]*stripe.Product, error)
	UpdateProductMetadata(ctx context.Context, id string, metadata map[string]string) (*stripe.Product, error)

	// GetPriceWithProduct retrieves a price with its product expanded; the
	// pipeline resolves invoice line items through prices to products.
	GetPriceWithProduct(ctx context.Context, id string) (*stripe.Price, error)

	GetShippingRate(ctx context.Context, id string) (*stripe.ShippingRate, error)
	ListCoupons(ctx context.Context) ([]*stripe.Coupon, error)
	ListCreditNotes(ctx context.Context, customerID string) ([]*stripe.CreditNote, error)
}

// ShippingRateData is the payload for attaching a chosen shipping rate to an
// invoice. Amount is the customer-facing price in minor units; Metadata is
// expected to carry the carrier code and real cost for later fulfillment.
type ShippingRateData struct {
	DisplayName   string
	Amount        int64
	Currency      string
	LeadTimeHours int64
	Metadata      map[string]string
}

type stripeBackend struct {
	sc *client.API
}

// New builds a Backend on the official SDK client.
func New(secretKey string) Backend {
	sc := &client.API{}
	sc.Init(secretKey, nil)
	return &stripeBackend{sc: sc}
}

func (b *stripeBackend) GetInvoice(ctx context.Context, id string, expand ...string) (*stripe.Invoice, error) {
	params := &stripe.InvoiceParams{Params: stripe.Params{Context: ctx}}
	for _, e := range expand {
		params.AddExpand(e)
	}
	return b.sc.Invoices.Get(id, params)
}

func (b *stripeBackend) ListInvoices(ctx context.Context, limit int64) ([]*stripe.Invoice, error) {
	params := &stripe.InvoiceListParams{
		ListParams: stripe.ListParams{Context: ctx, Limit: stripe.Int64(limit)},
	}
	params.AddExpand("data.customer")
	params.AddExpand("data.shipping_cost.shipping_rate")

	var invoices []*stripe.Invoice
	iter := b.sc.Invoices.List(params)
	for iter.Next() {
		invoices = append(invoices, iter.Invoice())
	}
	return invoices, iter.Err()
}

func (b *stripeBackend) UpdateInvoiceMetadata(ctx context.Context, id string, metadata map[string]string) (*stripe.Invoice, error) {
	params := &stripe.InvoiceParams{Params: stripe.Params{Context: ctx, Metadata: metadata}}
	return b.sc.Invoices.Update(id, params)
}

func (b *stripeBackend) ApplyInvoiceCoupons(ctx context.Context, id string, couponIDs []string) error {
	params := &stripe.InvoiceParams{Params: stripe.Params{Context: ctx}}
	if len(couponIDs) == 0 {
		// An empty string clears all discounts on the invoice.
		params.AddExtra("discounts", "")
	}
	for _, c := range couponIDs {
		params.Discounts = append(params.Discounts, &stripe.InvoiceDiscountParams{Coupon: stripe.String(c)})
	}
	_, err := b.sc.Invoices.Update(id, params)
	return err
}

func (b *stripeBackend) SetInvoiceShipping(ctx context.Context, id string, shipping *ShippingRateData) (*stripe.Invoice, error) {
	params := &stripe.InvoiceParams{
		Params: stripe.Params{Context: ctx},
		ShippingCost: &stripe.InvoiceShippingCostParams{
			ShippingRateData: &stripe.InvoiceShippingCostShippingRateDataParams{
				Type:        stripe.String("fixed_amount"),
				TaxBehavior: stripe.String("unspecified"),
				DisplayName: stripe.String(shipping.DisplayName),
				FixedAmount: &stripe.InvoiceShippingCostShippingRateDataFixedAmountParams{
					Amount:   stripe.Int64(shipping.Amount),
					Currency: stripe.String(shipping.Currency),
				},
				DeliveryEstimate: &stripe.InvoiceShippingCostShippingRateDataDeliveryEstimateParams{
					Minimum: &stripe.InvoiceShippingCostShippingRateDataDeliveryEstimateMinimumParams{
						Unit:  stripe.String("hour"),
						Value: stripe.Int64(shipping.LeadTimeHours),
					},
					Maximum: &stripe.InvoiceShippingCostShippingRateDataDeliveryEstimateMaximumParams{
						Unit:  stripe.String("hour"),
						Value: stripe.Int64(shipping.LeadTimeHours + 24),
					},
				},
				Metadata: shipping.Metadata,
			},
		},
	}
	return b.sc.Invoices.Update(id, params)
}

func (b *stripeBackend) GetCustomer(ctx context.Context, id string) (*stripe.Customer, error) {
	params := &stripe.CustomerParams{Params: stripe.Params{Context: ctx}}
	return b.sc.Customers.Get(id, params)
}

func (b *stripeBackend) ListCustomers(ctx context.Context, limit int64) ([]*stripe.Customer, error) {
	params := &stripe.CustomerListParams{
		ListParams: stripe.ListParams{Context: ctx, Limit: stripe.Int64(limit)},
	}
	var customers []*stripe.Customer
	iter := b.sc.Customers.List(params)
	for iter.Next() {
		customers = append(customers, iter.Customer())
	}
	return customers, iter.Err()
}

func (b *stripeBackend) UpdateCustomerMetadata(ctx context.Context, id string, metadata map[string]string) (*stripe.Customer, error) {
	params := &stripe.CustomerParams{Params: stripe.Params{Context: ctx, Metadata: metadata}}
	return b.sc.Customers.Update(id, params)
}

func (b *stripeBackend) GetProduct(ctx context.Context, id string) (*stripe.Product, error) {
	params := &stripe.ProductParams{Params: stripe.Params{Context: ctx}}
	return b.sc.Products.Get(id, params)
}

func (b *stripeBackend) ListProducts(ctx context.Context, limit int64) ([]*stripe.Product, error) {
	params := &stripe.ProductListParams{
		ListParams: stripe.ListParams{Context: ctx, Limit: stripe.Int64(limit)},
		Active:     stripe.Bool(true),
	}
	var products []*stripe.Product
	iter := b.sc.Products.List(params)
	for iter.Next() {
		products = append(products, iter.Product())
	}
	return products, iter.Err()
}

func (b *stripeBackend) UpdateProductMetadata(ctx context.Context, id string, metadata map[string]string) (*stripe.Product, error) {
	params := &stripe.ProductParams{Params: stripe.Params{Context: ctx, Metadata: metadata}}
	return b.sc.Products.Update(id, params)
}

func (b *stripeBackend) GetPriceWithProduct(ctx context.Context, id string) (*stripe.Price, error) {
	params := &stripe.PriceParams{Params: stripe.Params{Context: ctx}}
	params.AddExpand("product")
	return b.sc.Prices.Get(id, params)
}

func (b *stripeBackend) GetShippingRate(ctx context.Context, id string) (*stripe.ShippingRate, error) {
	params := &stripe.ShippingRateParams{Params: stripe.Params{Context: ctx}}
	return b.sc.ShippingRates.Get(id, params)
}

func (b *stripeBackend) ListCoupons(ctx context.Context) ([]*stripe.Coupon, error) {
	params := &stripe.CouponListParams{
		ListParams: stripe.ListParams{Context: ctx, Limit: stripe.Int64(100)},
	}
	var coupons []*stripe.Coupon
	iter := b.sc.Coupons.List(params)
	for iter.Next() {
		coupons = append(coupons, iter.Coupon())
	}
	return coupons, iter.Err()
}

func (b *stripeBackend) ListCreditNotes(ctx context.Context, customerID string) ([]*stripe.CreditNote, error) {
	params := &stripe.CreditNoteListParams{
		ListParams: stripe.ListParams{Context: ctx, Limit: stripe.Int64(100)},
		Customer:   stripe.String(customerID),
	}
	var notes []*stripe.CreditNote
	iter := b.sc.CreditNotes.List(params)
	for iter.Next() {
		notes = append(notes, iter.CreditNote())
	}
	return notes, iter.Err()
}
