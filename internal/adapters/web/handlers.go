package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"storefront-backoffice/internal/app"
)

// Handler holds the ApplicationService and the chi router.
type Handler struct {
	svc                 app.ApplicationService
	jwtSecret           string
	stripeWebhookSecret string
	webhookToken        string
	logger              *zap.Logger
}

// Options configures the HTTP layer.
type Options struct {
	AllowedOrigins      string
	JWTSecret           string
	StripeWebhookSecret string
	// SendcloudWebhookToken guards the carrier webhook endpoint. When empty
	// the endpoint rejects every request.
	SendcloudWebhookToken string
}

// NewHandler creates and wires the chi router with all routes.
func NewHandler(svc app.ApplicationService, opts Options, logger *zap.Logger) http.Handler {
	h := &Handler{
		svc:                 svc,
		jwtSecret:           opts.JWTSecret,
		stripeWebhookSecret: opts.StripeWebhookSecret,
		webhookToken:        opts.SendcloudWebhookToken,
		logger:              logger,
	}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Logger(logger))
	r.Use(Recoverer(logger))
	r.Use(CORS(opts.AllowedOrigins))

	r.Get("/api/health", h.health)

	// Webhooks verify their own credentials: the payment provider by payload
	// signature, the carrier by shared token. Signature verification needs the
	// raw body, so the limit is applied here rather than inside the handler.
	r.Group(func(r chi.Router) {
		r.Use(RequestBodyLimit(1 << 20))
		r.Post("/api/webhooks/stripe", h.stripeWebhook)
		r.With(h.RequireWebhookToken).Post("/api/webhooks/sendcloud", h.sendcloudWebhook)
	})

	// Public storefront endpoints.
	r.Group(func(r chi.Router) {
		r.Use(RequestBodyLimit(64 << 10))
		r.Post("/api/contact", h.contact)
		r.Post("/api/newsletter/subscribe", h.newsletterSubscribe)
		r.Get("/api/newsletter/verify", h.newsletterVerify)
		r.Post("/api/newsletter/unsubscribe", h.newsletterUnsubscribe)
	})

	// Admin endpoints behind the JWT cookie guard.
	r.Group(func(r chi.Router) {
		r.Use(h.RequireAdmin)
		r.Use(RequestBodyLimit(64 << 10))

		r.Get("/api/admin/orders", h.listOrders)
		r.Patch("/api/admin/orders/{invoiceID}", h.updateOrder)
		r.Get("/api/admin/orders/{invoiceID}/shipping-options", h.invoiceShippingOptions)
		r.Put("/api/admin/orders/{invoiceID}/shipping", h.setInvoiceShipping)
		r.Post("/api/admin/orders/{invoiceID}/discounts", h.applyInvoiceDiscounts)
		r.Delete("/api/admin/orders/{invoiceID}/discounts", h.removeInvoiceDiscounts)

		r.Get("/api/admin/stock", h.listStock)
		r.Put("/api/admin/stock/{productID}", h.setStock)

		r.Get("/api/admin/customers", h.listCustomers)
		r.Patch("/api/admin/customers/{customerID}", h.setCustomerRole)
	})

	return r
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	type response struct {
		Status string `json:"status"`
	}
	writeJSON(w, response{Status: "ok"})
}
