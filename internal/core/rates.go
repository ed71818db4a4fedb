package core

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v79"
	"go.uber.org/zap"

	"storefront-backoffice/internal/sendcloud"
	"storefront-backoffice/internal/stripeapi"
)

// defaultLeadTimeHours is assumed when the carrier quotes no lead time.
const defaultLeadTimeHours = 72

// RateService is the shipping-rate gateway: it turns an order's physical
// profile plus a destination into customer-facing shipping rates, applying
// the free-shipping policy without ever hiding the real carrier cost.
type RateService struct {
	backend     stripeapi.Backend
	carrier     *sendcloud.Client
	resolver    *ProductResolver
	fromCountry string
	fromPostal  string
	logger      *zap.Logger
}

func NewRateService(backend stripeapi.Backend, carrier *sendcloud.Client, fromCountry, fromPostal string, logger *zap.Logger) *RateService {
	return &RateService{
		backend:     backend,
		carrier:     carrier,
		resolver:    NewProductResolver(backend),
		fromCountry: fromCountry,
		fromPostal:  fromPostal,
		logger:      logger,
	}
}

// QuoteParams describe one shipping-rate request.
type QuoteParams struct {
	ToCountryCode string
	ToPostalCode  string
	Items         []*stripe.InvoiceLineItem
	// Customer, when already loaded, avoids a provider round trip;
	// otherwise CustomerID is fetched on demand.
	Customer   *stripe.Customer
	CustomerID string
}

// GetShippingOptions quotes tracked, signature-required home-delivery parcels
// for the order and maps the answers into rates sorted by lead time. A failed
// carrier call degrades to an empty list so checkout can show "no shipping
// options" instead of hard-failing.
func (s *RateService) GetShippingOptions(ctx context.Context, params QuoteParams) ([]ShippingRate, error) {
	lines, err := s.resolver.ResolveLines(ctx, params.Items)
	if err != nil {
		return nil, err
	}
	parcel, err := BuildParcelInfo(lines)
	if err != nil {
		return nil, err
	}

	customer := params.Customer
	if customer == nil && params.CustomerID != "" {
		customer, err = s.backend.GetCustomer(ctx, params.CustomerID)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve customer %s: %w", params.CustomerID, err)
		}
	}
	freeShipping := QualifiesForFreeShipping(customer, lines)

	options, err := s.carrier.GetShippingOptions(ctx, &sendcloud.ShippingOptionsRequest{
		FromCountryCode: s.fromCountry,
		ToCountryCode:   params.ToCountryCode,
		FromPostalCode:  s.fromPostal,
		ToPostalCode:    params.ToPostalCode,
		Parcels: []sendcloud.ParcelSpec{{
			Weight: sendcloud.Weight{
				Value: parcel.WeightKilograms().StringFixed(2),
				Unit:  "kg",
			},
			Dimensions: &sendcloud.Dimensions{
				Length: parcel.MaxLength.String(),
				Width:  parcel.MaxWidth.String(),
				Height: parcel.TotalHeight.String(),
				Unit:   "cm",
			},
		}},
		CalculateQuotes: true,
		Functionalities: map[string]any{
			"form_factor":     "parcel",
			"tracked":         true,
			"returns":         false,
			"b2c":             true,
			"dangerous_goods": false,
			"last_mile":       "home_delivery",
			"signature":       true,
		},
	})
	if err != nil {
		s.logger.Error("carrier quote request failed, returning no shipping options", zap.Error(err))
		return []ShippingRate{}, nil
	}

	rates := make([]ShippingRate, 0, len(options))
	for _, option := range options {
		if len(option.Quotes) == 0 {
			continue
		}
		quote := option.Quotes[0]

		price, err := decimal.NewFromString(quote.Price.Total.Value)
		if err != nil {
			s.logger.Warn("carrier quote has unparseable price, skipping option",
				zap.String("option", option.Code),
				zap.String("price", quote.Price.Total.Value))
			continue
		}
		realCost := price.Mul(decimal.NewFromInt(100)).Round(0).IntPart()

		leadTime := quote.LeadTime
		if leadTime == 0 {
			leadTime = defaultLeadTimeHours
		}

		amount := realCost
		if freeShipping {
			amount = 0
		}

		rates = append(rates, ShippingRate{
			ID:            option.Code,
			Amount:        amount,
			Currency:      strings.ToLower(quote.Price.Total.Currency),
			DisplayName:   option.Name,
			CarrierName:   option.Carrier.Name,
			SendcloudCode: option.Code,
			LeadTime:      leadTime,
			RealCost:      realCost,
		})
	}

	sort.SliceStable(rates, func(i, j int) bool {
		return rates[i].LeadTime < rates[j].LeadTime
	})
	return rates, nil
}

// RateData converts a rate into the provider-side shipping payload written
// onto invoices (or checkout sessions) when the rate is chosen.
func RateData(rate ShippingRate) *stripeapi.ShippingRateData {
	return &stripeapi.ShippingRateData{
		DisplayName:   rate.DisplayName,
		Amount:        rate.Amount,
		Currency:      rate.Currency,
		LeadTimeHours: rate.LeadTime,
		Metadata: (&ShippingRateMetadata{
			SendcloudCode: rate.SendcloudCode,
			RealCost:      fmt.Sprintf("%d", rate.RealCost),
		}).Map(),
	}
}
