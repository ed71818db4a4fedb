package web

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/webhook"
	"go.uber.org/zap"

	"storefront-backoffice/internal/app"
	"storefront-backoffice/internal/core"
	"storefront-backoffice/internal/newsletter"
)

// stubService implements app.ApplicationService with overridable funcs so each
// test only wires the calls it cares about.
type stubService struct {
	listOrdersFunc          func(ctx context.Context, q core.OrderQuery) (*core.OrderPage, error)
	updateOrderFunc         func(ctx context.Context, id string, u core.OrderUpdate) (*core.Order, error)
	setInvoiceShippingFunc  func(ctx context.Context, invoiceID, rateID string) error
	setStockFunc            func(ctx context.Context, productID string, qty int64) (*core.StockProduct, error)
	submitContactFunc       func(ctx context.Context, req app.ContactRequest) error
	verifyNewsletterFunc    func(ctx context.Context, code, locale string) error
	processStripeEventFunc  func(ctx context.Context, event stripe.Event) error
	processParcelEventFunc  func(ctx context.Context, ev core.ParcelStatusEvent) error
}

func (s *stubService) ListOrders(ctx context.Context, q core.OrderQuery) (*core.OrderPage, error) {
	if s.listOrdersFunc != nil {
		return s.listOrdersFunc(ctx, q)
	}
	return &core.OrderPage{Orders: []core.Order{}}, nil
}

func (s *stubService) UpdateOrder(ctx context.Context, id string, u core.OrderUpdate) (*core.Order, error) {
	if s.updateOrderFunc != nil {
		return s.updateOrderFunc(ctx, id, u)
	}
	return &core.Order{ID: id}, nil
}

func (s *stubService) GetInvoiceShippingOptions(ctx context.Context, invoiceID string) ([]core.ShippingRate, error) {
	return nil, nil
}

func (s *stubService) SetInvoiceShipping(ctx context.Context, invoiceID, rateID string) error {
	if s.setInvoiceShippingFunc != nil {
		return s.setInvoiceShippingFunc(ctx, invoiceID, rateID)
	}
	return nil
}

func (s *stubService) ApplyInvoiceDiscounts(ctx context.Context, invoiceID string) (int, error) {
	return 0, nil
}

func (s *stubService) RemoveInvoiceDiscounts(ctx context.Context, invoiceID string) error {
	return nil
}

func (s *stubService) ListStock(ctx context.Context) ([]core.StockProduct, error) {
	return nil, nil
}

func (s *stubService) SetStock(ctx context.Context, productID string, qty int64) (*core.StockProduct, error) {
	if s.setStockFunc != nil {
		return s.setStockFunc(ctx, productID, qty)
	}
	return &core.StockProduct{ID: productID, StockQuantity: qty}, nil
}

func (s *stubService) ListCustomers(ctx context.Context, q core.CustomerQuery) (*core.CustomerPage, error) {
	return &core.CustomerPage{Customers: []core.Customer{}}, nil
}

func (s *stubService) SetCustomerRole(ctx context.Context, customerID, role string) (*core.Customer, error) {
	return &core.Customer{ID: customerID, Role: role}, nil
}

func (s *stubService) SubmitContactForm(ctx context.Context, req app.ContactRequest) error {
	if s.submitContactFunc != nil {
		return s.submitContactFunc(ctx, req)
	}
	return nil
}

func (s *stubService) SubscribeNewsletter(ctx context.Context, req app.SubscribeRequest) error {
	return nil
}

func (s *stubService) VerifyNewsletter(ctx context.Context, code, locale string) error {
	if s.verifyNewsletterFunc != nil {
		return s.verifyNewsletterFunc(ctx, code, locale)
	}
	return nil
}

func (s *stubService) UnsubscribeNewsletter(ctx context.Context, code, emailAddr, locale string) error {
	return nil
}

func (s *stubService) ProcessStripeEvent(ctx context.Context, event stripe.Event) error {
	if s.processStripeEventFunc != nil {
		return s.processStripeEventFunc(ctx, event)
	}
	return nil
}

func (s *stubService) ProcessParcelEvent(ctx context.Context, ev core.ParcelStatusEvent) error {
	if s.processParcelEventFunc != nil {
		return s.processParcelEventFunc(ctx, ev)
	}
	return nil
}

const (
	testJWTSecret     = "test-jwt-secret"
	testWebhookSecret = "whsec_test"
	testCarrierToken  = "carrier-token"
)

func newTestHandler(svc app.ApplicationService) http.Handler {
	return NewHandler(svc, Options{
		AllowedOrigins:        "https://shop.example",
		JWTSecret:             testJWTSecret,
		StripeWebhookSecret:   testWebhookSecret,
		SendcloudWebhookToken: testCarrierToken,
	}, zap.NewNop())
}

func adminCookie(t *testing.T) *http.Cookie {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "admin",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(testJWTSecret))
	require.NoError(t, err)
	return &http.Cookie{Name: "auth_token", Value: signed}
}

func TestHealth(t *testing.T) {
	h := newTestHandler(&stubService{})

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestAdminGuard(t *testing.T) {
	h := newTestHandler(&stubService{})

	t.Run("missing cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/admin/orders", nil)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		var resp errorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "UNAUTHORIZED", resp.Code)
	})

	t.Run("garbage token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/admin/orders", nil)
		req.AddCookie(&http.Cookie{Name: "auth_token", Value: "not-a-jwt"})
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("token signed with the wrong key", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "admin"})
		signed, err := token.SignedString([]byte("other-secret"))
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/api/admin/orders", nil)
		req.AddCookie(&http.Cookie{Name: "auth_token", Value: signed})
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("valid token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/admin/orders", nil)
		req.AddCookie(adminCookie(t))
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestListOrdersQuery(t *testing.T) {
	var got core.OrderQuery
	h := newTestHandler(&stubService{
		listOrdersFunc: func(ctx context.Context, q core.OrderQuery) (*core.OrderPage, error) {
			got = q
			return &core.OrderPage{Orders: []core.Order{}}, nil
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/api/admin/orders?page=3&limit=25&search=jane&shippingStatus=shipped", nil)
	req.AddCookie(adminCookie(t))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, core.OrderQuery{Page: 3, Limit: 25, Search: "jane", ShippingStatus: "shipped"}, got)

	t.Run("unknown status is rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/admin/orders?shippingStatus=teleported", nil)
		req.AddCookie(adminCookie(t))
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "VALIDATION_ERROR")
	})
}

func TestUpdateOrderValidation(t *testing.T) {
	h := newTestHandler(&stubService{})

	req := httptest.NewRequest(http.MethodPatch, "/api/admin/orders/in_1",
		strings.NewReader(`{"shippingStatus":"lost"}`))
	req.AddCookie(adminCookie(t))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "shippingStatus")
}

func TestSetInvoiceShipping(t *testing.T) {
	t.Run("missing rate id", func(t *testing.T) {
		h := newTestHandler(&stubService{})
		req := httptest.NewRequest(http.MethodPut, "/api/admin/orders/in_1/shipping",
			strings.NewReader(`{}`))
		req.AddCookie(adminCookie(t))
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "shipping_rate_id")
	})

	t.Run("stale rate id maps to 404", func(t *testing.T) {
		h := newTestHandler(&stubService{
			setInvoiceShippingFunc: func(ctx context.Context, invoiceID, rateID string) error {
				return app.ErrShippingRateNotFound
			},
		})
		req := httptest.NewRequest(http.MethodPut, "/api/admin/orders/in_1/shipping",
			strings.NewReader(`{"shipping_rate_id":"shr_gone"}`))
		req.AddCookie(adminCookie(t))
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("success", func(t *testing.T) {
		var gotInvoice, gotRate string
		h := newTestHandler(&stubService{
			setInvoiceShippingFunc: func(ctx context.Context, invoiceID, rateID string) error {
				gotInvoice, gotRate = invoiceID, rateID
				return nil
			},
		})
		req := httptest.NewRequest(http.MethodPut, "/api/admin/orders/in_1/shipping",
			strings.NewReader(`{"shipping_rate_id":"shr_1"}`))
		req.AddCookie(adminCookie(t))
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "in_1", gotInvoice)
		assert.Equal(t, "shr_1", gotRate)
	})
}

func TestSetStock(t *testing.T) {
	t.Run("quantity is required", func(t *testing.T) {
		h := newTestHandler(&stubService{})
		req := httptest.NewRequest(http.MethodPut, "/api/admin/stock/prod_1",
			strings.NewReader(`{}`))
		req.AddCookie(adminCookie(t))
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "quantity")
	})

	t.Run("negative quantity", func(t *testing.T) {
		h := newTestHandler(&stubService{
			setStockFunc: func(ctx context.Context, productID string, qty int64) (*core.StockProduct, error) {
				return nil, core.ErrNegativeStock
			},
		})
		req := httptest.NewRequest(http.MethodPut, "/api/admin/stock/prod_1",
			strings.NewReader(`{"quantity":-2}`))
		req.AddCookie(adminCookie(t))
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "zero or positive")
	})

	t.Run("success", func(t *testing.T) {
		h := newTestHandler(&stubService{})
		req := httptest.NewRequest(http.MethodPut, "/api/admin/stock/prod_1",
			strings.NewReader(`{"quantity":7}`))
		req.AddCookie(adminCookie(t))
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		var product core.StockProduct
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &product))
		assert.Equal(t, int64(7), product.StockQuantity)
	})
}

func TestContactForm(t *testing.T) {
	t.Run("collects all field violations", func(t *testing.T) {
		h := newTestHandler(&stubService{})
		req := httptest.NewRequest(http.MethodPost, "/api/contact",
			strings.NewReader(`{"email":"not-an-email"}`))
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)

		require.Equal(t, http.StatusBadRequest, w.Code)
		var resp validationResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "VALIDATION_ERROR", resp.Code)
		assert.Len(t, resp.Fields, 4)
	})

	t.Run("captcha failure", func(t *testing.T) {
		h := newTestHandler(&stubService{
			submitContactFunc: func(ctx context.Context, req app.ContactRequest) error {
				return app.ErrCaptchaFailed
			},
		})
		body := `{"name":"Jane","email":"jane@example.com","subject":"Hi","message":"Hello","captchaToken":"bad"}`
		req := httptest.NewRequest(http.MethodPost, "/api/contact", strings.NewReader(body))
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "CAPTCHA_FAILED")
	})

	t.Run("success", func(t *testing.T) {
		var got app.ContactRequest
		h := newTestHandler(&stubService{
			submitContactFunc: func(ctx context.Context, req app.ContactRequest) error {
				got = req
				return nil
			},
		})
		body := `{"name":"Jane","email":"jane@example.com","subject":"Hi","message":"Hello","locale":"fr","captchaToken":"tok"}`
		req := httptest.NewRequest(http.MethodPost, "/api/contact", strings.NewReader(body))
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "jane@example.com", got.Email)
		assert.Equal(t, "fr", got.Locale)
	})
}

func TestNewsletterVerify(t *testing.T) {
	t.Run("code is required", func(t *testing.T) {
		h := newTestHandler(&stubService{})
		req := httptest.NewRequest(http.MethodGet, "/api/newsletter/verify", nil)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown code", func(t *testing.T) {
		h := newTestHandler(&stubService{
			verifyNewsletterFunc: func(ctx context.Context, code, locale string) error {
				return newsletter.ErrNotFound
			},
		})
		req := httptest.NewRequest(http.MethodGet, "/api/newsletter/verify?code=xyz", nil)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestStripeWebhook(t *testing.T) {
	payload := fmt.Sprintf(`{"id":"evt_1","api_version":%q,"type":"invoice.created","data":{"object":{"id":"in_1"}}}`,
		stripe.APIVersion)

	t.Run("invalid signature", func(t *testing.T) {
		h := newTestHandler(&stubService{})
		req := httptest.NewRequest(http.MethodPost, "/api/webhooks/stripe", strings.NewReader(payload))
		req.Header.Set("Stripe-Signature", "t=1,v1=deadbeef")
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "INVALID_SIGNATURE")
	})

	t.Run("signed event is dispatched", func(t *testing.T) {
		var got stripe.Event
		h := newTestHandler(&stubService{
			processStripeEventFunc: func(ctx context.Context, event stripe.Event) error {
				got = event
				return nil
			},
		})
		req := httptest.NewRequest(http.MethodPost, "/api/webhooks/stripe", strings.NewReader(payload))
		req.Header.Set("Stripe-Signature", signStripePayload(payload))
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"received":true}`, w.Body.String())
		assert.Equal(t, "evt_1", got.ID)
		assert.Equal(t, stripe.EventType("invoice.created"), got.Type)
	})
}

func TestSendcloudWebhook(t *testing.T) {
	body := `{
		"action": "parcel_status_changed",
		"parcel": {
			"id": 777,
			"tracking_number": "TN123",
			"status": {"id": 5, "message": "Sorted"},
			"external_order_id": "in_1",
			"shipment": {"name": "PostNL Standard"}
		}
	}`

	t.Run("missing token", func(t *testing.T) {
		h := newTestHandler(&stubService{})
		req := httptest.NewRequest(http.MethodPost, "/api/webhooks/sendcloud", strings.NewReader(body))
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("parcel status is dispatched", func(t *testing.T) {
		var got core.ParcelStatusEvent
		h := newTestHandler(&stubService{
			processParcelEventFunc: func(ctx context.Context, ev core.ParcelStatusEvent) error {
				got = ev
				return nil
			},
		})
		req := httptest.NewRequest(http.MethodPost, "/api/webhooks/sendcloud?token="+testCarrierToken, strings.NewReader(body))
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, core.ParcelStatusEvent{
			ParcelID:        777,
			TrackingNumber:  "TN123",
			StatusID:        5,
			StatusMessage:   "Sorted",
			CarrierName:     "PostNL Standard",
			ExternalOrderID: "in_1",
		}, got)
	})

	t.Run("test webhook is acknowledged without dispatch", func(t *testing.T) {
		h := newTestHandler(&stubService{
			processParcelEventFunc: func(ctx context.Context, ev core.ParcelStatusEvent) error {
				t.Fatal("test_webhook must not reach the pipeline")
				return nil
			},
		})
		req := httptest.NewRequest(http.MethodPost, "/api/webhooks/sendcloud?token="+testCarrierToken,
			strings.NewReader(`{"action":"test_webhook"}`))
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"received":true}`, w.Body.String())
	})
}

func TestCORSPreflight(t *testing.T) {
	h := newTestHandler(&stubService{})

	req := httptest.NewRequest(http.MethodOptions, "/api/contact", nil)
	req.Header.Set("Origin", "https://shop.example")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://shop.example", w.Header().Get("Access-Control-Allow-Origin"))

	t.Run("unlisted origin gets no header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/api/contact", nil)
		req.Header.Set("Origin", "https://evil.example")
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)

		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})
}

// signStripePayload builds a valid Stripe-Signature header for the test secret.
func signStripePayload(payload string) string {
	now := time.Now()
	sig := webhook.ComputeSignature(now, []byte(payload), testWebhookSecret)
	return fmt.Sprintf("t=%d,v1=%s", now.Unix(), hex.EncodeToString(sig))
}
