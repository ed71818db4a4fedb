package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v79"

	"storefront-backoffice/internal/stripeapi"
)

// ErrUnknownRole rejects role updates outside the recognized set.
var ErrUnknownRole = fmt.Errorf("role must be %q or %q", RoleReseller, RoleRetail)

// CustomerQuery filters and pages the admin customer listing.
type CustomerQuery struct {
	Page   int
	Limit  int
	Search string
	Role   string
}

// CustomerPage is one page of the admin customer listing.
type CustomerPage struct {
	Customers  []Customer `json:"customers"`
	Total      int        `json:"total"`
	Page       int        `json:"page"`
	Limit      int        `json:"limit"`
	TotalPages int        `json:"totalPages"`
}

// CustomerService projects provider customers for the back office and
// manages the role attached to each via metadata.
type CustomerService interface {
	ListCustomers(ctx context.Context, query CustomerQuery) (*CustomerPage, error)
	SetRole(ctx context.Context, customerID, role string) (*Customer, error)
}

type customerService struct {
	backend stripeapi.Backend
}

func NewCustomerService(backend stripeapi.Backend) CustomerService {
	return &customerService{backend: backend}
}

func (s *customerService) ListCustomers(ctx context.Context, query CustomerQuery) (*CustomerPage, error) {
	if query.Page < 1 {
		query.Page = 1
	}
	if query.Limit < 1 {
		query.Limit = 10
	}
	if query.Limit > providerListLimit {
		query.Limit = providerListLimit
	}

	all, err := s.backend.ListCustomers(ctx, providerListLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}

	customers := make([]Customer, 0, len(all))
	for _, c := range all {
		if c.Deleted {
			continue
		}
		proj := customerProjection(c)
		if query.Role != "" && proj.Role != query.Role {
			continue
		}
		if query.Search != "" && !matchesCustomer(&proj, query.Search) {
			continue
		}
		customers = append(customers, proj)
	}

	total := len(customers)
	totalPages := (total + query.Limit - 1) / query.Limit
	start := (query.Page - 1) * query.Limit
	if start > total {
		start = total
	}
	end := start + query.Limit
	if end > total {
		end = total
	}

	return &CustomerPage{
		Customers:  customers[start:end],
		Total:      total,
		Page:       query.Page,
		Limit:      query.Limit,
		TotalPages: totalPages,
	}, nil
}

func (s *customerService) SetRole(ctx context.Context, customerID, role string) (*Customer, error) {
	if role != RoleReseller && role != RoleRetail {
		return nil, ErrUnknownRole
	}
	updated, err := s.backend.UpdateCustomerMetadata(ctx, customerID, map[string]string{"role": role})
	if err != nil {
		return nil, fmt.Errorf("failed to update role for customer %s: %w", customerID, err)
	}
	proj := customerProjection(updated)
	return &proj, nil
}

func customerProjection(c *stripe.Customer) Customer {
	meta, _ := ValidateCustomerMetadata(c.ID, c.Metadata)
	role := RoleRetail
	if meta != nil && meta.Role != "" {
		role = meta.Role
	}
	return Customer{
		ID:        c.ID,
		Name:      optional(c.Name),
		Email:     optional(c.Email),
		Role:      role,
		CreatedAt: time.Unix(c.Created, 0).UTC().Format(time.RFC3339),
	}
}

func matchesCustomer(c *Customer, search string) bool {
	needle := strings.ToLower(search)
	if c.Name != nil && strings.Contains(strings.ToLower(*c.Name), needle) {
		return true
	}
	if c.Email != nil && strings.Contains(strings.ToLower(*c.Email), needle) {
		return true
	}
	return strings.Contains(strings.ToLower(c.ID), needle)
}
