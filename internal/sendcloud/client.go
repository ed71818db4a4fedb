package sendcloud

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const defaultBaseURL = "https://panel.sendcloud.sc/api/v3"

// Client talks to the carrier's public API v3 with basic auth. All requests
// share a 10s timeout and there is no retry policy; callers degrade
// gracefully on failure instead of blocking webhook processing.
type Client struct {
	http   *resty.Client
	logger *zap.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithBaseURL overrides the API endpoint (tests point it at a local server).
func WithBaseURL(base string) Option {
	return func(c *Client) {
		c.http.SetBaseURL(base)
	}
}

// NewClient builds a carrier client authenticated with the configured
// public/secret key pair.
func NewClient(publicKey, secretKey string, logger *zap.Logger, opts ...Option) *Client {
	c := &Client{
		http: resty.New().
			SetBaseURL(defaultBaseURL).
			SetBasicAuth(publicKey, secretKey).
			SetHeader("Content-Type", "application/json").
			SetTimeout(10 * time.Second),
		logger: logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetShippingOptions requests quoted shipping options for the given parcels.
func (c *Client) GetShippingOptions(ctx context.Context, req *ShippingOptionsRequest) ([]ShippingOption, error) {
	var out shippingOptionsResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&out).
		Post("/shipping-options")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch shipping options: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("shipping options request failed: %s: %s", resp.Status(), resp.String())
	}
	return out.Data, nil
}

// CreateOrder submits one order to the carrier. The carrier endpoint accepts
// a batch array; we always send a single order and return its created record.
func (c *Client) CreateOrder(ctx context.Context, order *OrderRequest) (*CreatedOrder, error) {
	var out orderResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody([]*OrderRequest{order}).
		SetResult(&out).
		Post("/orders")
	if err != nil {
		return nil, fmt.Errorf("failed to create carrier order: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("carrier order creation failed: %s: %s", resp.Status(), resp.String())
	}
	if len(out.Data) == 0 {
		return nil, fmt.Errorf("carrier order creation returned no data for order %s", order.OrderID)
	}

	created := out.Data[0]
	c.logger.Info("carrier order created",
		zap.Int64("carrier_order_id", created.ID),
		zap.String("order_number", created.OrderNumber))
	return &created, nil
}

// TrackingURL resolves the public tracking URL for a tracking number.
// An empty string means the carrier has no URL for it (not an error).
func (c *Client) TrackingURL(ctx context.Context, trackingNumber string) (string, error) {
	var out trackingResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&out).
		Get("/parcels/tracking/" + url.PathEscape(trackingNumber))
	if err != nil {
		return "", fmt.Errorf("failed to fetch tracking info for %s: %w", trackingNumber, err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("tracking info request failed for %s: %s", trackingNumber, resp.Status())
	}

	if nums := out.Data.TrackingNumbers; len(nums) > 0 && nums[0].TrackingURL != "" {
		return nums[0].TrackingURL, nil
	}
	c.logger.Warn("no tracking URL found", zap.String("tracking_number", trackingNumber))
	return "", nil
}
