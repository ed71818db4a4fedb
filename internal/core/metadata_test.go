package core

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateProductMetadata(t *testing.T) {
	t.Run("valid map parses and round-trips", func(t *testing.T) {
		md := validProductMeta("750.5", "40", "40.25", "12", "7", CategoryCushion)
		md["name_fr"] = "Coussin"

		pm, err := ValidateProductMetadata("prod_1", md)
		if err != nil {
			t.Fatalf("ValidateProductMetadata: %v", err)
		}
		if pm.WeightG.String() != "750.5" {
			t.Errorf("weight = %s, want 750.5", pm.WeightG)
		}
		if pm.StockQuantity != 7 {
			t.Errorf("stock = %d, want 7", pm.StockQuantity)
		}
		if pm.Category != CategoryCushion {
			t.Errorf("category = %s, want cushion", pm.Category)
		}
		if pm.Name("fallback", LocaleFR) != "Coussin" {
			t.Errorf("localized name not picked up")
		}
		if pm.Name("fallback", LocaleDE) != "fallback" {
			t.Errorf("missing locale should fall back")
		}

		back, err := ValidateProductMetadata("prod_1", pm.Map())
		if err != nil {
			t.Fatalf("re-validate after Map: %v", err)
		}
		if !back.WeightG.Equal(pm.WeightG) || back.StockQuantity != pm.StockQuantity {
			t.Errorf("Map round trip lost values: %+v vs %+v", back, pm)
		}
	})

	t.Run("reports every violation at once", func(t *testing.T) {
		_, err := ValidateProductMetadata("prod_2", map[string]string{
			"color_hex": "red",
			"weight_g":  "-3",
			"category":  "sofa",
		})
		var metaErr *MetadataError
		if !errors.As(err, &metaErr) {
			t.Fatalf("expected MetadataError, got %v", err)
		}
		// color_hex, length, width, height, weight, images, category.
		if len(metaErr.Violations) != 7 {
			t.Errorf("violations = %d, want 7: %v", len(metaErr.Violations), metaErr)
		}
		if !strings.Contains(metaErr.Error(), "prod_2") {
			t.Errorf("error should name the product: %v", metaErr)
		}
	})
}

func TestValidateInvoiceMetadata(t *testing.T) {
	t.Run("all fields optional", func(t *testing.T) {
		im, err := ValidateInvoiceMetadata("in_1", nil)
		if err != nil {
			t.Fatalf("ValidateInvoiceMetadata: %v", err)
		}
		if im.ShippingStatus != "" || im.Source != "" {
			t.Errorf("expected empty fields, got %+v", im)
		}
	})

	t.Run("visible must be binary", func(t *testing.T) {
		_, err := ValidateInvoiceMetadata("in_2", map[string]string{"visible": "yes"})
		if err == nil {
			t.Fatal("expected error for visible=yes")
		}
	})

	t.Run("Map omits unset keys", func(t *testing.T) {
		im := &InvoiceMetadata{ShippingStatus: ShippingStatusShipped}
		md := im.Map()
		if len(md) != 1 || md["shippingStatus"] != ShippingStatusShipped {
			t.Errorf("Map() = %v, want only shippingStatus", md)
		}
	})
}

func TestValidateShippingRateMetadata(t *testing.T) {
	t.Run("requires carrier code and real cost", func(t *testing.T) {
		_, err := ValidateShippingRateMetadata("shr_1", map[string]string{})
		var metaErr *MetadataError
		if !errors.As(err, &metaErr) {
			t.Fatalf("expected MetadataError, got %v", err)
		}
		if len(metaErr.Violations) != 2 {
			t.Errorf("violations = %d, want 2", len(metaErr.Violations))
		}
	})

	t.Run("valid map round-trips", func(t *testing.T) {
		sm, err := ValidateShippingRateMetadata("shr_1", map[string]string{
			"sendcloud_code": "postnl:small",
			"real_cost":      "495",
		})
		if err != nil {
			t.Fatalf("ValidateShippingRateMetadata: %v", err)
		}
		if sm.SendcloudCode != "postnl:small" || sm.RealCost != "495" {
			t.Errorf("parsed %+v", sm)
		}
	})
}

func TestParseLocale(t *testing.T) {
	tests := []struct {
		in   string
		want Locale
	}{
		{"fr", LocaleFR},
		{"nl", LocaleNL},
		{"", DefaultLocale},
		{"es", DefaultLocale},
	}
	for _, tt := range tests {
		if got := ParseLocale(tt.in); got != tt.want {
			t.Errorf("ParseLocale(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}
