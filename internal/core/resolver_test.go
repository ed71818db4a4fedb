package core

import (
	"context"
	"testing"

	"github.com/stripe/stripe-go/v79"
)

func TestResolveLines(t *testing.T) {
	expanded := &stripe.Product{
		ID:       "prod_1",
		Name:     "Cushion",
		Metadata: validProductMeta("500", "40", "40", "10", "8", CategoryCushion),
	}

	t.Run("non-positive quantities are skipped, not coerced", func(t *testing.T) {
		resolver := NewProductResolver(newFakeBackend())
		items := []*stripe.InvoiceLineItem{
			{ID: "il_0", Quantity: 0, Price: &stripe.Price{ID: "price_1", Product: expanded}},
			{ID: "il_neg", Quantity: -2, Price: &stripe.Price{ID: "price_1", Product: expanded}},
			{ID: "il_1", Quantity: 3, Price: &stripe.Price{ID: "price_1", Product: expanded}},
		}

		lines, err := resolver.ResolveLines(context.Background(), items)
		if err != nil {
			t.Fatalf("ResolveLines: %v", err)
		}
		if len(lines) != 1 {
			t.Fatalf("resolved %d lines, want 1", len(lines))
		}
		if lines[0].Quantity != 3 {
			t.Errorf("quantity = %d, want 3", lines[0].Quantity)
		}
	})

	t.Run("priceless lines and deleted products are skipped", func(t *testing.T) {
		resolver := NewProductResolver(newFakeBackend())
		items := []*stripe.InvoiceLineItem{
			nil,
			{ID: "il_nil", Quantity: 1},
			{ID: "il_del", Quantity: 1, Price: &stripe.Price{ID: "price_2", Product: &stripe.Product{ID: "prod_gone", Deleted: true}}},
		}

		lines, err := resolver.ResolveLines(context.Background(), items)
		if err != nil {
			t.Fatalf("ResolveLines: %v", err)
		}
		if len(lines) != 0 {
			t.Errorf("resolved %d lines, want 0", len(lines))
		}
	})

	t.Run("unexpanded products are fetched through the price", func(t *testing.T) {
		backend := newFakeBackend()
		backend.prices["price_1"] = &stripe.Price{ID: "price_1", Product: expanded}
		resolver := NewProductResolver(backend)

		items := []*stripe.InvoiceLineItem{
			{ID: "il_1", Quantity: 2, Price: &stripe.Price{ID: "price_1", Product: &stripe.Product{ID: "prod_1"}}},
		}
		lines, err := resolver.ResolveLines(context.Background(), items)
		if err != nil {
			t.Fatalf("ResolveLines: %v", err)
		}
		if len(lines) != 1 || lines[0].Product.Name != "Cushion" {
			t.Errorf("lines = %+v", lines)
		}
	})
}
