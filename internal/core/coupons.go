package core

import (
	"context"
	"fmt"

	"github.com/stripe/stripe-go/v79"

	"storefront-backoffice/internal/stripeapi"
)

// CouponService finds the discounts a customer is entitled to. Coupons carry
// a "role" metadata key and apply only to customers holding that role.
type CouponService struct {
	backend stripeapi.Backend
}

func NewCouponService(backend stripeapi.Backend) *CouponService {
	return &CouponService{backend: backend}
}

// CouponsForCustomer returns the valid coupons whose role matches the
// customer's role. Customers without a role get no coupons.
func (s *CouponService) CouponsForCustomer(ctx context.Context, customerID string) ([]*stripe.Coupon, error) {
	customer, err := s.backend.GetCustomer(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get customer %s: %w", customerID, err)
	}
	meta, err := ValidateCustomerMetadata(customer.ID, customer.Metadata)
	if err != nil {
		return nil, err
	}
	if meta.Role == "" {
		return nil, nil
	}

	coupons, err := s.backend.ListCoupons(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list coupons: %w", err)
	}

	var matched []*stripe.Coupon
	for _, c := range coupons {
		if !c.Valid {
			continue
		}
		if c.Metadata["role"] == meta.Role {
			matched = append(matched, c)
		}
	}
	return matched, nil
}
