package sendcloud

// Types mirror the carrier's public API v3.
// https://api.sendcloud.dev/docs/sendcloud-public-api/

// Money is a carrier-side monetary value: decimal string plus ISO currency.
type Money struct {
	Value    string `json:"value"`
	Currency string `json:"currency"`
}

// Weight is a parcel weight with its unit ("kg" or "lb").
type Weight struct {
	Value string `json:"value"`
	Unit  string `json:"unit"`
}

// Dimensions is a parcel dimension envelope with its unit ("cm" or "in").
type Dimensions struct {
	Length string `json:"length"`
	Width  string `json:"width"`
	Height string `json:"height"`
	Unit   string `json:"unit"`
}

// ParcelSpec describes one parcel in a quote request.
type ParcelSpec struct {
	Dimensions *Dimensions `json:"dimensions,omitempty"`
	Weight     Weight      `json:"weight"`
}

// ShippingOptionsRequest asks the carrier for quoted shipping options
// between two postal codes for the given parcels.
type ShippingOptionsRequest struct {
	FromCountryCode string         `json:"from_country_code"`
	ToCountryCode   string         `json:"to_country_code"`
	FromPostalCode  string         `json:"from_postal_code,omitempty"`
	ToPostalCode    string         `json:"to_postal_code"`
	Parcels         []ParcelSpec   `json:"parcels"`
	CarrierCode     string         `json:"carrier_code,omitempty"`
	Functionalities map[string]any `json:"functionalities,omitempty"`
	CalculateQuotes bool           `json:"calculate_quotes"`
}

// Quote is one price/lead-time quote attached to a shipping option.
type Quote struct {
	Price struct {
		Total Money `json:"total"`
	} `json:"price"`
	LeadTime int64 `json:"lead_time,omitempty"`
}

// ShippingOption is one carrier product returned by a quote request.
// Options without quotes are possible and are filtered out by callers.
type ShippingOption struct {
	Code    string `json:"code"`
	Name    string `json:"name"`
	Carrier struct {
		Code string `json:"code"`
		Name string `json:"name"`
	} `json:"carrier"`
	Product struct {
		Code string `json:"code"`
		Name string `json:"name"`
	} `json:"product"`
	Functionalities map[string]any `json:"functionalities,omitempty"`
	Quotes          []Quote        `json:"quotes,omitempty"`
}

type shippingOptionsResponse struct {
	Data []ShippingOption `json:"data"`
}

// OrderItem is one sold line forwarded to the carrier.
type OrderItem struct {
	SKU        string `json:"sku,omitempty"`
	Name       string `json:"name"`
	Quantity   int64  `json:"quantity"`
	TotalPrice Money  `json:"total_price"`
}

// StatusCode wraps the carrier's {"code": "..."} status objects.
type StatusCode struct {
	Code string `json:"code"`
}

// MeasurementWeight is the order-level weight (numeric, unlike quote weights).
type MeasurementWeight struct {
	Value int64  `json:"value"`
	Unit  string `json:"unit"`
}

// MeasurementDimension is the order-level dimension envelope.
type MeasurementDimension struct {
	Length float64 `json:"length"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Unit   string  `json:"unit"`
}

// Measurement carries the physical profile of an order's shipment.
type Measurement struct {
	Weight    *MeasurementWeight    `json:"weight,omitempty"`
	Dimension *MeasurementDimension `json:"dimension,omitempty"`
}

// ShipWith pins the order to a previously quoted shipping option.
type ShipWith struct {
	Type       string `json:"type"`
	Properties struct {
		ShippingOptionCode string `json:"shipping_option_code,omitempty"`
	} `json:"properties"`
}

// Address is a carrier-side postal address.
type Address struct {
	Name         string `json:"name"`
	CompanyName  string `json:"company_name,omitempty"`
	AddressLine1 string `json:"address_line_1"`
	AddressLine2 string `json:"address_line_2,omitempty"`
	PostalCode   string `json:"postal_code"`
	City         string `json:"city"`
	CountryCode  string `json:"country_code"`
	Email        string `json:"email,omitempty"`
	PhoneNumber  string `json:"phone_number,omitempty"`
}

// OrderRequest creates a carrier order. OrderID doubles as the carrier-side
// idempotency key; submitting the same OrderID twice does not duplicate.
type OrderRequest struct {
	OrderID      string `json:"order_id"`
	OrderNumber  string `json:"order_number"`
	OrderDetails struct {
		Integration struct {
			ID int64 `json:"id"`
		} `json:"integration"`
		Status         StatusCode  `json:"status"`
		OrderCreatedAt string      `json:"order_created_at"`
		OrderItems     []OrderItem `json:"order_items"`
	} `json:"order_details"`
	PaymentDetails struct {
		TotalPrice Money      `json:"total_price"`
		Status     StatusCode `json:"status"`
	} `json:"payment_details"`
	CustomerDetails struct {
		Name  string `json:"name"`
		Email string `json:"email,omitempty"`
	} `json:"customer_details"`
	ShippingAddress Address `json:"shipping_address"`
	ShippingDetails struct {
		Measurement *Measurement `json:"measurement,omitempty"`
		ShipWith    *ShipWith    `json:"ship_with,omitempty"`
	} `json:"shipping_details"`
}

// CreatedOrder identifies an order accepted by the carrier.
type CreatedOrder struct {
	ID          int64  `json:"id"`
	OrderID     string `json:"order_id"`
	OrderNumber string `json:"order_number"`
}

type orderResponse struct {
	Data []CreatedOrder `json:"data"`
}

type trackingResponse struct {
	Data struct {
		TrackingNumbers []struct {
			TrackingURL string `json:"tracking_url"`
		} `json:"tracking_numbers"`
	} `json:"data"`
}
