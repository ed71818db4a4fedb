package core

import (
	"context"
	"fmt"

	"github.com/stripe/stripe-go/v79"

	"storefront-backoffice/internal/stripeapi"
)

// ProductLine pairs a resolved provider product with the ordered quantity.
type ProductLine struct {
	Product  *stripe.Product
	Quantity int64
}

// ProductResolver turns invoice line items into products. Line items
// reference prices, which reference products; unexpanded references cost one
// provider round trip each. Deleted products, priceless lines, and lines
// without a positive quantity are skipped rather than failing the whole
// resolution.
type ProductResolver struct {
	backend stripeapi.Backend
}

func NewProductResolver(backend stripeapi.Backend) *ProductResolver {
	return &ProductResolver{backend: backend}
}

// ResolveLines maps invoice line items to their products, preserving order.
func (r *ProductResolver) ResolveLines(ctx context.Context, items []*stripe.InvoiceLineItem) ([]ProductLine, error) {
	var lines []ProductLine
	for _, item := range items {
		if item == nil || item.Price == nil || item.Quantity <= 0 {
			continue
		}

		product := item.Price.Product
		if !productExpanded(product) {
			price, err := r.backend.GetPriceWithProduct(ctx, item.Price.ID)
			if err != nil {
				return nil, fmt.Errorf("failed to resolve price %s: %w", item.Price.ID, err)
			}
			product = price.Product
		}
		if product == nil || product.Deleted {
			continue
		}

		lines = append(lines, ProductLine{Product: product, Quantity: item.Quantity})
	}
	return lines, nil
}

// productExpanded reports whether the product reference carries the full
// object rather than a bare id stub.
func productExpanded(p *stripe.Product) bool {
	return p != nil && (p.Name != "" || p.Metadata != nil || p.Deleted)
}
