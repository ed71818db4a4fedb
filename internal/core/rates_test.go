package core

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stripe/stripe-go/v79"
	"go.uber.org/zap"

	"storefront-backoffice/internal/sendcloud"
)

const shippingOptionsFixture = `{
  "data": [
    {
      "code": "dhl:express",
      "name": "DHL Express",
      "carrier": {"code": "dhl", "name": "DHL"},
      "quotes": [{"price": {"total": {"value": "18.95", "currency": "EUR"}}, "lead_time": 24}]
    },
    {
      "code": "postnl:small",
      "name": "PostNL Standard",
      "carrier": {"code": "postnl", "name": "PostNL"},
      "quotes": [{"price": {"total": {"value": "12.50", "currency": "EUR"}}}]
    },
    {
      "code": "broken:price",
      "name": "Broken",
      "carrier": {"code": "x", "name": "X"},
      "quotes": [{"price": {"total": {"value": "not-a-number", "currency": "EUR"}}}]
    },
    {
      "code": "no:quotes",
      "name": "Unquoted",
      "carrier": {"code": "y", "name": "Y"}
    }
  ]
}`

func rateTestService(t *testing.T, backend *fakeBackend) *RateService {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/shipping-options" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(shippingOptionsFixture))
	}))
	t.Cleanup(server.Close)
	carrier := sendcloud.NewClient("pk", "sk", zap.NewNop(), sendcloud.WithBaseURL(server.URL))
	return NewRateService(backend, carrier, "NL", "1000AA", zap.NewNop())
}

func quoteLines(qty int64) []*stripe.InvoiceLineItem {
	product := &stripe.Product{
		ID:       "prod_1",
		Name:     "Cushion",
		Metadata: validProductMeta("500", "40", "40", "10", "20", CategoryCushion),
	}
	return []*stripe.InvoiceLineItem{{
		ID:       "il_1",
		Quantity: qty,
		Price:    &stripe.Price{ID: "price_1", Product: product},
	}}
}

func TestRateService_GetShippingOptions(t *testing.T) {
	t.Run("maps quotes, sorted by lead time", func(t *testing.T) {
		svc := rateTestService(t, newFakeBackend())
		retail := &stripe.Customer{ID: "cus_ret", Metadata: map[string]string{"role": RoleRetail}}

		rates, err := svc.GetShippingOptions(context.Background(), QuoteParams{
			ToCountryCode: "BE",
			ToPostalCode:  "1000",
			Items:         quoteLines(2),
			Customer:      retail,
		})
		if err != nil {
			t.Fatalf("GetShippingOptions: %v", err)
		}
		// Broken price and unquoted options are dropped.
		if len(rates) != 2 {
			t.Fatalf("rates = %d, want 2: %+v", len(rates), rates)
		}
		if rates[0].ID != "dhl:express" {
			t.Errorf("first rate = %s, want the shortest lead time", rates[0].ID)
		}
		if rates[0].Amount != 1895 || rates[0].RealCost != 1895 {
			t.Errorf("dhl amount/realcost = %d/%d", rates[0].Amount, rates[0].RealCost)
		}
		if rates[1].LeadTime != defaultLeadTimeHours {
			t.Errorf("missing lead time should default to %d, got %d", defaultLeadTimeHours, rates[1].LeadTime)
		}
		if rates[1].SendcloudCode != "postnl:small" {
			t.Errorf("sendcloud code = %s", rates[1].SendcloudCode)
		}
	})

	t.Run("free shipping zeroes the price but keeps the real cost", func(t *testing.T) {
		svc := rateTestService(t, newFakeBackend())
		reseller := &stripe.Customer{ID: "cus_res", Metadata: map[string]string{"role": RoleReseller}}

		rates, err := svc.GetShippingOptions(context.Background(), QuoteParams{
			ToCountryCode: "BE",
			ToPostalCode:  "1000",
			Items:         quoteLines(6),
			Customer:      reseller,
		})
		if err != nil {
			t.Fatalf("GetShippingOptions: %v", err)
		}
		for _, rate := range rates {
			if rate.Amount != 0 {
				t.Errorf("rate %s amount = %d, want 0", rate.ID, rate.Amount)
			}
			if rate.RealCost == 0 {
				t.Errorf("rate %s real cost must be preserved", rate.ID)
			}
		}
	})

	t.Run("carrier failure degrades to no options", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "down", http.StatusServiceUnavailable)
		}))
		defer server.Close()
		carrier := sendcloud.NewClient("pk", "sk", zap.NewNop(), sendcloud.WithBaseURL(server.URL))
		svc := NewRateService(newFakeBackend(), carrier, "NL", "1000AA", zap.NewNop())

		rates, err := svc.GetShippingOptions(context.Background(), QuoteParams{
			ToCountryCode: "BE",
			ToPostalCode:  "1000",
			Items:         quoteLines(1),
		})
		if err != nil {
			t.Fatalf("GetShippingOptions: %v", err)
		}
		if len(rates) != 0 {
			t.Errorf("rates = %+v, want empty", rates)
		}
	})
}

func TestRateData(t *testing.T) {
	data := RateData(ShippingRate{
		ID:            "postnl:small",
		Amount:        0,
		Currency:      "eur",
		DisplayName:   "PostNL Standard",
		SendcloudCode: "postnl:small",
		LeadTime:      48,
		RealCost:      1250,
	})
	if data.Amount != 0 || data.LeadTimeHours != 48 {
		t.Errorf("data = %+v", data)
	}
	if data.Metadata["sendcloud_code"] != "postnl:small" || data.Metadata["real_cost"] != "1250" {
		t.Errorf("metadata = %v", data.Metadata)
	}
}
