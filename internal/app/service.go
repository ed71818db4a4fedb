package app

import (
	"context"
	"errors"

	"github.com/stripe/stripe-go/v79"

	"storefront-backoffice/internal/core"
)

// ErrCaptchaFailed rejects a public form submission whose captcha token did
// not verify.
var ErrCaptchaFailed = errors.New("captcha verification failed")

// ErrShippingRateNotFound rejects a shipping selection whose rate id is not
// among the current carrier quotes for the invoice.
var ErrShippingRateNotFound = errors.New("shipping rate not found")

// ContactRequest is a storefront contact-form submission.
type ContactRequest struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	Subject      string `json:"subject"`
	Message      string `json:"message"`
	Locale       string `json:"locale"`
	CaptchaToken string `json:"captchaToken"`
}

// SubscribeRequest is a newsletter signup.
type SubscribeRequest struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	Locale       string `json:"locale"`
	CaptchaToken string `json:"captchaToken"`
}

// ApplicationService is the single interface the web adapter calls. It
// decouples transport from business logic; implementations contain no HTTP
// concerns.
type ApplicationService interface {
	// ListOrders projects provider invoices into the admin order listing.
	ListOrders(ctx context.Context, query core.OrderQuery) (*core.OrderPage, error)

	// UpdateOrder patches shipment fields stored as invoice metadata.
	UpdateOrder(ctx context.Context, invoiceID string, update core.OrderUpdate) (*core.Order, error)

	// GetInvoiceShippingOptions quotes carrier rates against the invoice's
	// shipping or billing address.
	GetInvoiceShippingOptions(ctx context.Context, invoiceID string) ([]core.ShippingRate, error)

	// SetInvoiceShipping attaches one of the quoted rates to a draft invoice.
	SetInvoiceShipping(ctx context.Context, invoiceID, shippingRateID string) error

	// ApplyInvoiceDiscounts attaches the customer's role coupons and returns
	// how many were applied.
	ApplyInvoiceDiscounts(ctx context.Context, invoiceID string) (int, error)

	// RemoveInvoiceDiscounts clears all discounts from the invoice.
	RemoveInvoiceDiscounts(ctx context.Context, invoiceID string) error

	// ListStock returns the stock projection of every active product.
	ListStock(ctx context.Context) ([]core.StockProduct, error)

	// SetStock writes an absolute stock quantity onto a product.
	SetStock(ctx context.Context, productID string, quantity int64) (*core.StockProduct, error)

	// ListCustomers pages through provider customers with search/role filters.
	ListCustomers(ctx context.Context, query core.CustomerQuery) (*core.CustomerPage, error)

	// SetCustomerRole updates the role metadata driving coupons and shipping.
	SetCustomerRole(ctx context.Context, customerID, role string) (*core.Customer, error)

	// SubmitContactForm verifies the captcha and relays the message to the
	// admin inbox plus a confirmation to the sender.
	SubmitContactForm(ctx context.Context, req ContactRequest) error

	// SubscribeNewsletter verifies the captcha and starts double opt-in.
	SubscribeNewsletter(ctx context.Context, req SubscribeRequest) error

	// VerifyNewsletter confirms a subscription by mailed code.
	VerifyNewsletter(ctx context.Context, code, locale string) error

	// UnsubscribeNewsletter removes a subscription by mailed code; when only
	// an email is given it mails the confirmation link instead.
	UnsubscribeNewsletter(ctx context.Context, code, emailAddr, locale string) error

	// ProcessStripeEvent dispatches a verified payment-provider event to the
	// reconciliation pipeline. Unhandled event types are ignored.
	ProcessStripeEvent(ctx context.Context, event stripe.Event) error

	// ProcessParcelEvent dispatches a carrier parcel status notification.
	ProcessParcelEvent(ctx context.Context, ev core.ParcelStatusEvent) error
}
