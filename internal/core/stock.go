package core

import (
	"context"
	"fmt"
	"strconv"

	"github.com/stripe/stripe-go/v79"
	"go.uber.org/zap"

	"storefront-backoffice/internal/stripeapi"
)

// ErrNegativeStock rejects admin updates that would set stock below zero.
var ErrNegativeStock = fmt.Errorf("stock quantity must not be negative")

// StockService manages product stock levels stored in product metadata.
type StockService interface {
	ListStock(ctx context.Context) ([]StockProduct, error)
	SetStock(ctx context.Context, productID string, quantity int64) (*StockProduct, error)

	// DecrementForLines reduces stock for each sold line after an order is
	// finalized. A product whose metadata fails validation is logged and
	// skipped; the remaining lines still decrement. Sales are not blocked on
	// stock, so the result may go negative.
	DecrementForLines(ctx context.Context, lines []ProductLine) error
}

type stockService struct {
	backend stripeapi.Backend
	logger  *zap.Logger
}

func NewStockService(backend stripeapi.Backend, logger *zap.Logger) StockService {
	return &stockService{backend: backend, logger: logger}
}

func (s *stockService) ListStock(ctx context.Context) ([]StockProduct, error) {
	products, err := s.backend.ListProducts(ctx, providerListLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	stock := make([]StockProduct, 0, len(products))
	for _, p := range products {
		stock = append(stock, stockProjection(p))
	}
	return stock, nil
}

func (s *stockService) SetStock(ctx context.Context, productID string, quantity int64) (*StockProduct, error) {
	if quantity < 0 {
		return nil, ErrNegativeStock
	}
	updated, err := s.backend.UpdateProductMetadata(ctx, productID, map[string]string{
		"stock_quantity": strconv.FormatInt(quantity, 10),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update stock for product %s: %w", productID, err)
	}
	proj := stockProjection(updated)
	return &proj, nil
}

func (s *stockService) DecrementForLines(ctx context.Context, lines []ProductLine) error {
	for _, line := range lines {
		meta, err := ValidateProductMetadata(line.Product.ID, line.Product.Metadata)
		if err != nil {
			s.logger.Warn("skipping stock decrement for product with invalid metadata",
				zap.String("product_id", line.Product.ID),
				zap.Error(err))
			continue
		}

		remaining := meta.StockQuantity - line.Quantity
		_, err = s.backend.UpdateProductMetadata(ctx, line.Product.ID, map[string]string{
			"stock_quantity": strconv.FormatInt(remaining, 10),
		})
		if err != nil {
			return fmt.Errorf("failed to decrement stock for product %s: %w", line.Product.ID, err)
		}
		s.logger.Info("decremented stock",
			zap.String("product_id", line.Product.ID),
			zap.Int64("quantity_sold", line.Quantity),
			zap.Int64("remaining", remaining))
	}
	return nil
}

func stockProjection(p *stripe.Product) StockProduct {
	sp := StockProduct{ID: p.ID, Name: p.Name}
	if meta, err := ValidateProductMetadata(p.ID, p.Metadata); err == nil {
		sp.StockQuantity = meta.StockQuantity
		if len(meta.Images) > 0 {
			sp.Image = meta.Images[0]
		}
	}
	return sp
}
