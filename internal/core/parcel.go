package core

import (
	"github.com/shopspring/decimal"
)

// BuildParcelInfo aggregates per-product weight and dimensions into a single
// parcel profile: summed weight, max length, max width, and heights summed
// across quantities, as if items were stacked vertically in one box. This is
// a deliberate approximation, not bin-packing; it overestimates height for
// orders that would in practice ship side by side.
//
// Every product's metadata is validated on the way in; a product with invalid
// metadata fails the whole computation (the caller decides whether that is
// fatal).
func BuildParcelInfo(lines []ProductLine) (*ParcelInfo, error) {
	var (
		totalWeight decimal.Decimal
		maxLength   decimal.Decimal
		maxWidth    decimal.Decimal
		totalHeight decimal.Decimal
	)

	for _, line := range lines {
		md, err := ValidateProductMetadata(line.Product.ID, line.Product.Metadata)
		if err != nil {
			return nil, err
		}

		qty := decimal.NewFromInt(line.Quantity)
		totalWeight = totalWeight.Add(md.WeightG.Mul(qty))
		if md.LengthCM.GreaterThan(maxLength) {
			maxLength = md.LengthCM
		}
		if md.WidthCM.GreaterThan(maxWidth) {
			maxWidth = md.WidthCM
		}
		totalHeight = totalHeight.Add(md.HeightCM.Mul(qty))
	}

	// Round half-up to two decimals; carrier payloads carry at most cents
	// of a centimeter.
	return &ParcelInfo{
		TotalWeightGrams: totalWeight.Round(2),
		MaxLength:        maxLength.Round(2),
		MaxWidth:         maxWidth.Round(2),
		TotalHeight:      totalHeight.Round(2),
	}, nil
}

// WeightKilograms converts the gram total to kilograms for carrier payloads.
func (p *ParcelInfo) WeightKilograms() decimal.Decimal {
	return p.TotalWeightGrams.Div(decimal.NewFromInt(1000))
}
