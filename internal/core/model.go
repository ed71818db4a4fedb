package core

import "github.com/shopspring/decimal"

// Locale is one of the storefront's supported languages.
type Locale string

const (
	LocaleEN Locale = "en"
	LocaleFR Locale = "fr"
	LocaleDE Locale = "de"
	LocaleNL Locale = "nl"

	DefaultLocale = LocaleEN
)

// ParseLocale maps free-form metadata input onto a supported locale,
// falling back to English for anything unrecognized.
func ParseLocale(s string) Locale {
	switch Locale(s) {
	case LocaleEN, LocaleFR, LocaleDE, LocaleNL:
		return Locale(s)
	default:
		return DefaultLocale
	}
}

// Shipping status values recognized on invoice metadata. The field is a
// free-form string on the provider side; anything else is displayed verbatim.
const (
	ShippingStatusAwaiting  = "awaiting_shipment"
	ShippingStatusShipped   = "shipped"
	ShippingStatusDelivered = "delivered"
)

// Customer roles. The role drives coupon selection and the free-shipping
// policy; unknown roles are carried through untouched.
const (
	RoleReseller = "revendeur"
	RoleRetail   = "particulier"
)

// ProductCategory classifies a product for the free-shipping rule.
type ProductCategory string

const (
	CategoryCushion ProductCategory = "cushion"
	CategoryCover   ProductCategory = "cover"
	CategorySpare   ProductCategory = "spare"
	CategoryOther   ProductCategory = "other"
)

// Order is a read projection of a provider invoice plus the shipment state
// this system layers on top via metadata. It is materialized on every read
// and never stored locally.
type Order struct {
	ID                string   `json:"id"`
	Number            string   `json:"number"`
	Locale            Locale   `json:"locale"`
	StripeInvoiceID   string   `json:"stripeInvoiceId"`
	SendcloudOrderID  *string  `json:"sendcloudOrderId"`
	CustomerEmail     string   `json:"customerEmail"`
	CustomerName      *string  `json:"customerName"`
	CustomerRole      *string  `json:"customerRole"`
	TotalAmount       int64    `json:"totalAmount"`
	Currency          string   `json:"currency"`
	ShippingStatus    string   `json:"shippingStatus"`
	InvoiceStatus     string   `json:"invoiceStatus"`
	TrackingNumber    *string  `json:"trackingNumber"`
	TrackingURL       *string  `json:"trackingUrl"`
	CarrierName       *string  `json:"carrierName"`
	DiscountsCount    int      `json:"discountsCount"`
	CreditNotesAmount int64    `json:"creditNotesAmount"`
	HasCreditNotes    bool     `json:"hasCreditNotes"`
	CreditNoteURLs    []string `json:"creditNoteUrls"`
	InvoiceURL        *string  `json:"invoiceUrl"`
	PaidAt            *string  `json:"paidAt"`
	OrderedAt         string   `json:"orderedAt,omitempty"`
	CreatedAt         string   `json:"createdAt"`
	UpdatedAt         string   `json:"updatedAt"`
}

// ShippingRate is an ephemeral carrier quote mapped into the shop's terms.
// Amount is what the customer pays (zeroed under free shipping); RealCost is
// always the carrier's unadjusted price so margins stay visible in reporting.
type ShippingRate struct {
	ID            string `json:"id"`
	Amount        int64  `json:"amount"`
	Currency      string `json:"currency"`
	DisplayName   string `json:"display_name"`
	CarrierName   string `json:"carrier_name"`
	SendcloudCode string `json:"sendcloud_code"`
	LeadTime      int64  `json:"lead_time"`
	RealCost      int64  `json:"real_cost"`
}

// ParcelInfo is the physical profile of one shipment: total weight in grams
// and a stacked dimension envelope in centimeters. Values carry two decimal
// places, rounded half-up.
type ParcelInfo struct {
	TotalWeightGrams decimal.Decimal
	MaxLength        decimal.Decimal
	MaxWidth         decimal.Decimal
	TotalHeight      decimal.Decimal
}

// CarrierOrder is the result of a successful carrier order creation.
type CarrierOrder struct {
	OrderID     string
	CarrierName string
}

// StockProduct is the admin stock-screen projection of a product.
type StockProduct struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Image         string `json:"image"`
	StockQuantity int64  `json:"stockQuantity"`
}

// Customer is the admin customer-screen projection.
type Customer struct {
	ID        string  `json:"id"`
	Name      *string `json:"name"`
	Email     *string `json:"email"`
	Role      string  `json:"role"`
	CreatedAt string  `json:"createdAt"`
}
