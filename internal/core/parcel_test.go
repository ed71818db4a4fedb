package core

import (
	"errors"
	"testing"

	"github.com/stripe/stripe-go/v79"
)

func TestBuildParcelInfo(t *testing.T) {
	t.Run("aggregates weight and dimensions across quantities", func(t *testing.T) {
		lines := []ProductLine{
			{
				Product: &stripe.Product{
					ID:       "prod_a",
					Metadata: validProductMeta("500", "30", "20", "5", "10", CategoryCushion),
				},
				Quantity: 2,
			},
			{
				Product: &stripe.Product{
					ID:       "prod_b",
					Metadata: validProductMeta("300", "25", "22", "8", "4", CategoryCover),
				},
				Quantity: 1,
			},
		}

		parcel, err := BuildParcelInfo(lines)
		if err != nil {
			t.Fatalf("BuildParcelInfo: %v", err)
		}
		if got := parcel.TotalWeightGrams.String(); got != "1300" {
			t.Errorf("total weight = %s, want 1300", got)
		}
		if got := parcel.MaxLength.String(); got != "30" {
			t.Errorf("max length = %s, want 30", got)
		}
		if got := parcel.MaxWidth.String(); got != "22" {
			t.Errorf("max width = %s, want 22", got)
		}
		// Heights stack: 2*5 + 1*8.
		if got := parcel.TotalHeight.String(); got != "18" {
			t.Errorf("total height = %s, want 18", got)
		}
		if got := parcel.WeightKilograms().String(); got != "1.3" {
			t.Errorf("weight kg = %s, want 1.3", got)
		}
	})

	t.Run("invalid product metadata fails the computation", func(t *testing.T) {
		lines := []ProductLine{
			{
				Product:  &stripe.Product{ID: "prod_bad", Metadata: map[string]string{"weight_g": "abc"}},
				Quantity: 1,
			},
		}
		_, err := BuildParcelInfo(lines)
		var metaErr *MetadataError
		if !errors.As(err, &metaErr) {
			t.Fatalf("expected MetadataError, got %v", err)
		}
		if metaErr.EntityID != "prod_bad" {
			t.Errorf("entity id = %s, want prod_bad", metaErr.EntityID)
		}
	})

	t.Run("empty order yields a zero parcel", func(t *testing.T) {
		parcel, err := BuildParcelInfo(nil)
		if err != nil {
			t.Fatalf("BuildParcelInfo: %v", err)
		}
		if !parcel.TotalWeightGrams.IsZero() || !parcel.TotalHeight.IsZero() {
			t.Errorf("expected zero parcel, got %+v", parcel)
		}
	})
}
