package core

import (
	"context"
	"fmt"

	"github.com/stripe/stripe-go/v79"

	"storefront-backoffice/internal/stripeapi"
)

// fakeBackend is an in-memory stripeapi.Backend for unit tests. It serves
// canned objects and records every mutation.
type fakeBackend struct {
	invoices      map[string]*stripe.Invoice
	invoiceList   []*stripe.Invoice
	customers     map[string]*stripe.Customer
	customerList  []*stripe.Customer
	products      map[string]*stripe.Product
	productList   []*stripe.Product
	prices        map[string]*stripe.Price
	shippingRates map[string]*stripe.ShippingRate
	coupons       []*stripe.Coupon
	creditNotes   map[string][]*stripe.CreditNote

	invoiceMetaWrites  map[string]map[string]string
	productMetaWrites  map[string]map[string]string
	customerMetaWrites map[string]map[string]string
	couponApplies      map[string][]string
	shippingWrites     map[string]*stripeapi.ShippingRateData

	failWith error
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		invoices:           map[string]*stripe.Invoice{},
		customers:          map[string]*stripe.Customer{},
		products:           map[string]*stripe.Product{},
		prices:             map[string]*stripe.Price{},
		shippingRates:      map[string]*stripe.ShippingRate{},
		creditNotes:        map[string][]*stripe.CreditNote{},
		invoiceMetaWrites:  map[string]map[string]string{},
		productMetaWrites:  map[string]map[string]string{},
		customerMetaWrites: map[string]map[string]string{},
		couponApplies:      map[string][]string{},
		shippingWrites:     map[string]*stripeapi.ShippingRateData{},
	}
}

func (f *fakeBackend) GetInvoice(ctx context.Context, id string, expand ...string) (*stripe.Invoice, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	inv, ok := f.invoices[id]
	if !ok {
		return nil, fmt.Errorf("invoice %s not found", id)
	}
	return inv, nil
}

func (f *fakeBackend) ListInvoices(ctx context.Context, limit int64) ([]*stripe.Invoice, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	return f.invoiceList, nil
}

func (f *fakeBackend) UpdateInvoiceMetadata(ctx context.Context, id string, metadata map[string]string) (*stripe.Invoice, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	f.invoiceMetaWrites[id] = metadata
	inv, ok := f.invoices[id]
	if !ok {
		inv = &stripe.Invoice{ID: id}
	}
	if inv.Metadata == nil {
		inv.Metadata = map[string]string{}
	}
	for k, v := range metadata {
		inv.Metadata[k] = v
	}
	return inv, nil
}

func (f *fakeBackend) ApplyInvoiceCoupons(ctx context.Context, id string, couponIDs []string) error {
	if f.failWith != nil {
		return f.failWith
	}
	f.couponApplies[id] = couponIDs
	return nil
}

func (f *fakeBackend) SetInvoiceShipping(ctx context.Context, id string, shipping *stripeapi.ShippingRateData) (*stripe.Invoice, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	f.shippingWrites[id] = shipping
	return f.invoices[id], nil
}

func (f *fakeBackend) GetCustomer(ctx context.Context, id string) (*stripe.Customer, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	c, ok := f.customers[id]
	if !ok {
		return nil, fmt.Errorf("customer %s not found", id)
	}
	return c, nil
}

func (f *fakeBackend) ListCustomers(ctx context.Context, limit int64) ([]*stripe.Customer, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	return f.customerList, nil
}

func (f *fakeBackend) UpdateCustomerMetadata(ctx context.Context, id string, metadata map[string]string) (*stripe.Customer, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	f.customerMetaWrites[id] = metadata
	c, ok := f.customers[id]
	if !ok {
		c = &stripe.Customer{ID: id}
		f.customers[id] = c
	}
	if c.Metadata == nil {
		c.Metadata = map[string]string{}
	}
	for k, v := range metadata {
		c.Metadata[k] = v
	}
	return c, nil
}

func (f *fakeBackend) GetProduct(ctx context.Context, id string) (*stripe.Product, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	p, ok := f.products[id]
	if !ok {
		return nil, fmt.Errorf("product %s not found", id)
	}
	return p, nil
}

func (f *fakeBackend) ListProducts(ctx context.Context, limit int64) ([]*stripe.Product, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	return f.productList, nil
}

func (f *fakeBackend) UpdateProductMetadata(ctx context.Context, id string, metadata map[string]string) (*stripe.Product, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	f.productMetaWrites[id] = metadata
	p, ok := f.products[id]
	if !ok {
		p = &stripe.Product{ID: id}
		f.products[id] = p
	}
	if p.Metadata == nil {
		p.Metadata = map[string]string{}
	}
	for k, v := range metadata {
		p.Metadata[k] = v
	}
	return p, nil
}

func (f *fakeBackend) GetPriceWithProduct(ctx context.Context, id string) (*stripe.Price, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	p, ok := f.prices[id]
	if !ok {
		return nil, fmt.Errorf("price %s not found", id)
	}
	return p, nil
}

func (f *fakeBackend) GetShippingRate(ctx context.Context, id string) (*stripe.ShippingRate, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	r, ok := f.shippingRates[id]
	if !ok {
		return nil, fmt.Errorf("shipping rate %s not found", id)
	}
	return r, nil
}

func (f *fakeBackend) ListCoupons(ctx context.Context) ([]*stripe.Coupon, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	return f.coupons, nil
}

func (f *fakeBackend) ListCreditNotes(ctx context.Context, customerID string) ([]*stripe.CreditNote, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	return f.creditNotes[customerID], nil
}

var _ stripeapi.Backend = (*fakeBackend)(nil)

// validProductMeta builds a metadata map passing product validation.
func validProductMeta(weightG, lengthCM, widthCM, heightCM, stock string, category ProductCategory) map[string]string {
	return map[string]string{
		"color_hex":      "#112233",
		"length_cm":      lengthCM,
		"width_cm":       widthCM,
		"height_cm":      heightCM,
		"weight_g":       weightG,
		"images":         "https://img.example/1.jpg",
		"stock_quantity": stock,
		"category":       string(category),
	}
}
