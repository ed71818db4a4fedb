package core

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// The provider stores metadata as flat string maps with no schema
// enforcement: any field can be absent, stale, or hand-edited in the
// dashboard. Every read of external metadata goes through one of the
// validators below; nothing untyped leaks past this file.

// FieldViolation names one field that failed validation and why.
type FieldViolation struct {
	Field   string
	Message string
}

// MetadataError reports a metadata map that does not match the expected
// schema for its entity. It aborts only the operation touching that entity.
type MetadataError struct {
	EntityType string
	EntityID   string
	Violations []FieldViolation
}

func (e *MetadataError) Error() string {
	parts := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		parts[i] = v.Field + ": " + v.Message
	}
	return fmt.Sprintf("invalid %s metadata for %s: %s", e.EntityType, e.EntityID, strings.Join(parts, "; "))
}

// Invoice metadata source discriminator values with special handling.
const (
	SourceCheckoutSession = "stripe_checkout_session"
	SourceWoocommerce     = "woocommerce"
)

// Metadata keys written back onto provider objects. Collected here because
// they are the contract with the provider dashboard and the legacy importer.
const (
	keySendcloudOrderID   = "sendcloudOrderId"
	keyShippingStatus     = "shippingStatus"
	keyTrackingNumber     = "trackingNumber"
	keyTrackingURL        = "trackingUrl"
	keyCarrierName        = "carrierName"
	keyWoocommerceOrderID = "woocommerceOrderId"
	keySource             = "source"
	keyEffectiveAt        = "effectiveAt"
	keyVisible            = "visible"
)

var colorHexPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// ProductMetadata is the typed view of a product's metadata map.
type ProductMetadata struct {
	ColorHex      string
	LengthCM      decimal.Decimal
	WidthCM       decimal.Decimal
	HeightCM      decimal.Decimal
	WeightG       decimal.Decimal
	Images        []string
	StockQuantity int64
	Category      ProductCategory
	Names         map[Locale]string
	Descriptions  map[Locale]string
}

// ValidateProductMetadata parses a product's metadata map or reports every
// field violation at once.
func ValidateProductMetadata(productID string, md map[string]string) (*ProductMetadata, error) {
	var violations []FieldViolation

	pm := &ProductMetadata{
		Category:     CategoryOther,
		Names:        map[Locale]string{},
		Descriptions: map[Locale]string{},
	}

	if hex, ok := md["color_hex"]; !ok || !colorHexPattern.MatchString(hex) {
		violations = append(violations, FieldViolation{"color_hex", "must be a valid hex color code"})
	} else {
		pm.ColorHex = hex
	}

	dims := []struct {
		key string
		dst *decimal.Decimal
	}{
		{"length_cm", &pm.LengthCM},
		{"width_cm", &pm.WidthCM},
		{"height_cm", &pm.HeightCM},
		{"weight_g", &pm.WeightG},
	}
	for _, d := range dims {
		raw, ok := md[d.key]
		if !ok {
			violations = append(violations, FieldViolation{d.key, "is required"})
			continue
		}
		val, err := decimal.NewFromString(raw)
		if err != nil || val.IsNegative() {
			violations = append(violations, FieldViolation{d.key, "must be a non-negative number"})
			continue
		}
		*d.dst = val
	}

	if raw, ok := md["images"]; !ok {
		violations = append(violations, FieldViolation{"images", "is required"})
	} else {
		for _, img := range strings.Split(raw, ",") {
			if img = strings.TrimSpace(img); img != "" {
				pm.Images = append(pm.Images, img)
			}
		}
	}

	if raw, ok := md["stock_quantity"]; ok && raw != "" {
		qty, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			violations = append(violations, FieldViolation{"stock_quantity", "must be an integer"})
		} else {
			pm.StockQuantity = qty
		}
	}

	if raw, ok := md["category"]; ok && raw != "" {
		switch ProductCategory(raw) {
		case CategoryCushion, CategoryCover, CategorySpare, CategoryOther:
			pm.Category = ProductCategory(raw)
		default:
			violations = append(violations, FieldViolation{"category", "must be one of cushion, cover, spare, other"})
		}
	}

	for _, loc := range []Locale{LocaleEN, LocaleFR, LocaleDE, LocaleNL} {
		if v, ok := md["name_"+string(loc)]; ok && v != "" {
			pm.Names[loc] = v
		}
		if v, ok := md["description_"+string(loc)]; ok && v != "" {
			pm.Descriptions[loc] = v
		}
	}

	if len(violations) > 0 {
		return nil, &MetadataError{EntityType: "product", EntityID: productID, Violations: violations}
	}
	return pm, nil
}

// Map serializes the metadata back to the provider's flat string form.
// ValidateProductMetadata(id, pm.Map()) yields a value equal to pm.
func (pm *ProductMetadata) Map() map[string]string {
	md := map[string]string{
		"color_hex":      pm.ColorHex,
		"length_cm":      pm.LengthCM.String(),
		"width_cm":       pm.WidthCM.String(),
		"height_cm":      pm.HeightCM.String(),
		"weight_g":       pm.WeightG.String(),
		"images":         strings.Join(pm.Images, ","),
		"stock_quantity": strconv.FormatInt(pm.StockQuantity, 10),
		"category":       string(pm.Category),
	}
	for loc, v := range pm.Names {
		md["name_"+string(loc)] = v
	}
	for loc, v := range pm.Descriptions {
		md["description_"+string(loc)] = v
	}
	return md
}

// Name returns the product name for a locale, preferring the per-locale
// metadata override and falling back to the provider-level name.
func (pm *ProductMetadata) Name(fallback string, locale Locale) string {
	if v, ok := pm.Names[locale]; ok {
		return v
	}
	return fallback
}

// Description is the per-locale counterpart of Name for descriptions.
func (pm *ProductMetadata) Description(fallback string, locale Locale) string {
	if v, ok := pm.Descriptions[locale]; ok {
		return v
	}
	return fallback
}

// InvoiceMetadata is the typed view of an invoice's metadata map, the only
// durable record of shipment state this system keeps.
type InvoiceMetadata struct {
	SendcloudOrderID   string
	ShippingStatus     string
	TrackingNumber     string
	TrackingURL        string
	WoocommerceOrderID string
	Source             string
	EffectiveAt        string
	Visible            string
}

// ValidateInvoiceMetadata parses an invoice's metadata map. Every field is
// optional; only `visible` constrains its value.
func ValidateInvoiceMetadata(invoiceID string, md map[string]string) (*InvoiceMetadata, error) {
	im := &InvoiceMetadata{
		SendcloudOrderID:   md[keySendcloudOrderID],
		ShippingStatus:     md[keyShippingStatus],
		TrackingNumber:     md[keyTrackingNumber],
		TrackingURL:        md[keyTrackingURL],
		WoocommerceOrderID: md[keyWoocommerceOrderID],
		Source:             md[keySource],
		EffectiveAt:        md[keyEffectiveAt],
		Visible:            md[keyVisible],
	}
	if im.Visible != "" && im.Visible != "0" && im.Visible != "1" {
		return nil, &MetadataError{
			EntityType: "invoice",
			EntityID:   invoiceID,
			Violations: []FieldViolation{{"visible", `must be "0" or "1"`}},
		}
	}
	return im, nil
}

// Map serializes back to the provider's flat string form, omitting unset keys.
func (im *InvoiceMetadata) Map() map[string]string {
	md := map[string]string{}
	set := func(key, val string) {
		if val != "" {
			md[key] = val
		}
	}
	set(keySendcloudOrderID, im.SendcloudOrderID)
	set(keyShippingStatus, im.ShippingStatus)
	set(keyTrackingNumber, im.TrackingNumber)
	set(keyTrackingURL, im.TrackingURL)
	set(keyWoocommerceOrderID, im.WoocommerceOrderID)
	set(keySource, im.Source)
	set(keyEffectiveAt, im.EffectiveAt)
	set(keyVisible, im.Visible)
	return md
}

// CustomerMetadata is the typed view of a customer's metadata map.
type CustomerMetadata struct {
	Locale Locale
	Role   string
}

// ValidateCustomerMetadata parses a customer's metadata map. Both fields are
// lenient: unknown locales collapse to the default and the role is free-form.
func ValidateCustomerMetadata(customerID string, md map[string]string) (*CustomerMetadata, error) {
	_ = customerID
	return &CustomerMetadata{
		Locale: ParseLocale(md["locale"]),
		Role:   md["role"],
	}, nil
}

// Map serializes back to the provider's flat string form.
func (cm *CustomerMetadata) Map() map[string]string {
	md := map[string]string{"locale": string(cm.Locale)}
	if cm.Role != "" {
		md["role"] = cm.Role
	}
	return md
}

// ShippingRateMetadata is the typed view of the metadata this system writes
// onto provider shipping rates when a carrier quote is chosen.
type ShippingRateMetadata struct {
	SendcloudCode string
	RealCost      string
}

// ValidateShippingRateMetadata parses a shipping rate's metadata map.
func ValidateShippingRateMetadata(rateID string, md map[string]string) (*ShippingRateMetadata, error) {
	var violations []FieldViolation
	if md["sendcloud_code"] == "" {
		violations = append(violations, FieldViolation{"sendcloud_code", "is required"})
	}
	if md["real_cost"] == "" {
		violations = append(violations, FieldViolation{"real_cost", "is required"})
	}
	if len(violations) > 0 {
		return nil, &MetadataError{EntityType: "shipping rate", EntityID: rateID, Violations: violations}
	}
	return &ShippingRateMetadata{
		SendcloudCode: md["sendcloud_code"],
		RealCost:      md["real_cost"],
	}, nil
}

// Map serializes back to the provider's flat string form.
func (sm *ShippingRateMetadata) Map() map[string]string {
	return map[string]string{
		"sendcloud_code": sm.SendcloudCode,
		"real_cost":      sm.RealCost,
	}
}
