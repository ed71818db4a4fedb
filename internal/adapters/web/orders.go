package web

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"storefront-backoffice/internal/app"
	"storefront-backoffice/internal/core"
)

// listOrders handles GET /api/admin/orders.
func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	query := core.OrderQuery{
		Page:           intQuery(r, "page", 1),
		Limit:          intQuery(r, "limit", 10),
		Search:         r.URL.Query().Get("search"),
		ShippingStatus: r.URL.Query().Get("shippingStatus"),
	}
	if query.ShippingStatus != "" && !validShippingStatus(query.ShippingStatus) {
		writeValidationError(w, r, []fieldError{{Field: "shippingStatus", Violation: "must be one of awaiting_shipment, shipped, delivered"}})
		return
	}

	page, err := h.svc.ListOrders(r.Context(), query)
	if err != nil {
		writeError(w, r, "failed to list orders", "INTERNAL_ERROR", http.StatusInternalServerError)
		return
	}
	writeJSON(w, page)
}

type updateOrderRequest struct {
	ShippingStatus   *string `json:"shippingStatus"`
	TrackingNumber   *string `json:"trackingNumber"`
	TrackingURL      *string `json:"trackingUrl"`
	CarrierName      *string `json:"carrierName"`
	SendcloudOrderID *string `json:"sendcloudOrderId"`
}

// updateOrder handles PATCH /api/admin/orders/{invoiceID}.
func (h *Handler) updateOrder(w http.ResponseWriter, r *http.Request) {
	invoiceID := chi.URLParam(r, "invoiceID")

	var req updateOrderRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.ShippingStatus != nil && !validShippingStatus(*req.ShippingStatus) {
		writeValidationError(w, r, []fieldError{{Field: "shippingStatus", Violation: "must be one of awaiting_shipment, shipped, delivered"}})
		return
	}

	order, err := h.svc.UpdateOrder(r.Context(), invoiceID, core.OrderUpdate{
		ShippingStatus:   req.ShippingStatus,
		TrackingNumber:   req.TrackingNumber,
		TrackingURL:      req.TrackingURL,
		CarrierName:      req.CarrierName,
		SendcloudOrderID: req.SendcloudOrderID,
	})
	if err != nil {
		writeError(w, r, "failed to update order", "INTERNAL_ERROR", http.StatusInternalServerError)
		return
	}
	writeJSON(w, order)
}

// invoiceShippingOptions handles GET /api/admin/orders/{invoiceID}/shipping-options.
func (h *Handler) invoiceShippingOptions(w http.ResponseWriter, r *http.Request) {
	invoiceID := chi.URLParam(r, "invoiceID")

	rates, err := h.svc.GetInvoiceShippingOptions(r.Context(), invoiceID)
	if err != nil {
		writeError(w, r, "failed to quote shipping options", "INTERNAL_ERROR", http.StatusInternalServerError)
		return
	}

	type response struct {
		ShippingOptions []core.ShippingRate `json:"shippingOptions"`
	}
	writeJSON(w, response{ShippingOptions: rates})
}

// setInvoiceShipping handles PUT /api/admin/orders/{invoiceID}/shipping.
func (h *Handler) setInvoiceShipping(w http.ResponseWriter, r *http.Request) {
	invoiceID := chi.URLParam(r, "invoiceID")

	var req struct {
		ShippingRateID string `json:"shipping_rate_id"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.ShippingRateID == "" {
		writeValidationError(w, r, []fieldError{{Field: "shipping_rate_id", Violation: "required"}})
		return
	}

	err := h.svc.SetInvoiceShipping(r.Context(), invoiceID, req.ShippingRateID)
	if errors.Is(err, app.ErrShippingRateNotFound) {
		writeError(w, r, "shipping rate not found", "NOT_FOUND", http.StatusNotFound)
		return
	}
	if err != nil {
		writeError(w, r, "failed to set invoice shipping", "INTERNAL_ERROR", http.StatusInternalServerError)
		return
	}

	type response struct {
		Success bool `json:"success"`
	}
	writeJSON(w, response{Success: true})
}

// applyInvoiceDiscounts handles POST /api/admin/orders/{invoiceID}/discounts.
func (h *Handler) applyInvoiceDiscounts(w http.ResponseWriter, r *http.Request) {
	invoiceID := chi.URLParam(r, "invoiceID")

	applied, err := h.svc.ApplyInvoiceDiscounts(r.Context(), invoiceID)
	if err != nil {
		writeError(w, r, "failed to apply discounts", "INTERNAL_ERROR", http.StatusInternalServerError)
		return
	}

	type response struct {
		AppliedCoupons int `json:"appliedCoupons"`
	}
	writeJSON(w, response{AppliedCoupons: applied})
}

// removeInvoiceDiscounts handles DELETE /api/admin/orders/{invoiceID}/discounts.
func (h *Handler) removeInvoiceDiscounts(w http.ResponseWriter, r *http.Request) {
	invoiceID := chi.URLParam(r, "invoiceID")

	if err := h.svc.RemoveInvoiceDiscounts(r.Context(), invoiceID); err != nil {
		writeError(w, r, "failed to remove discounts", "INTERNAL_ERROR", http.StatusInternalServerError)
		return
	}

	type response struct {
		Success bool `json:"success"`
	}
	writeJSON(w, response{Success: true})
}

func validShippingStatus(s string) bool {
	switch s {
	case core.ShippingStatusAwaiting, core.ShippingStatusShipped, core.ShippingStatusDelivered:
		return true
	}
	return false
}

// intQuery parses a positive integer query parameter, falling back to def.
func intQuery(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return def
	}
	return n
}
