package web

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"storefront-backoffice/internal/core"
)

// listStock handles GET /api/admin/stock.
func (h *Handler) listStock(w http.ResponseWriter, r *http.Request) {
	products, err := h.svc.ListStock(r.Context())
	if err != nil {
		writeError(w, r, "failed to list stock", "INTERNAL_ERROR", http.StatusInternalServerError)
		return
	}

	type response struct {
		Products []core.StockProduct `json:"products"`
	}
	writeJSON(w, response{Products: products})
}

// setStock handles PUT /api/admin/stock/{productID}.
func (h *Handler) setStock(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productID")

	var req struct {
		Quantity *int64 `json:"quantity"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Quantity == nil {
		writeValidationError(w, r, []fieldError{{Field: "quantity", Violation: "required"}})
		return
	}

	product, err := h.svc.SetStock(r.Context(), productID, *req.Quantity)
	if errors.Is(err, core.ErrNegativeStock) {
		writeValidationError(w, r, []fieldError{{Field: "quantity", Violation: "must be zero or positive"}})
		return
	}
	if err != nil {
		writeError(w, r, "failed to update stock", "INTERNAL_ERROR", http.StatusInternalServerError)
		return
	}
	writeJSON(w, product)
}

// listCustomers handles GET /api/admin/customers.
func (h *Handler) listCustomers(w http.ResponseWriter, r *http.Request) {
	query := core.CustomerQuery{
		Page:   intQuery(r, "page", 1),
		Limit:  intQuery(r, "limit", 10),
		Search: r.URL.Query().Get("search"),
		Role:   r.URL.Query().Get("role"),
	}
	if query.Role != "" && query.Role != core.RoleReseller && query.Role != core.RoleRetail {
		writeValidationError(w, r, []fieldError{{Field: "role", Violation: "must be revendeur or particulier"}})
		return
	}

	page, err := h.svc.ListCustomers(r.Context(), query)
	if err != nil {
		writeError(w, r, "failed to list customers", "INTERNAL_ERROR", http.StatusInternalServerError)
		return
	}
	writeJSON(w, page)
}

// setCustomerRole handles PATCH /api/admin/customers/{customerID}.
func (h *Handler) setCustomerRole(w http.ResponseWriter, r *http.Request) {
	customerID := chi.URLParam(r, "customerID")

	var req struct {
		Role string `json:"role"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	customer, err := h.svc.SetCustomerRole(r.Context(), customerID, req.Role)
	if errors.Is(err, core.ErrUnknownRole) {
		writeValidationError(w, r, []fieldError{{Field: "role", Violation: "must be revendeur or particulier"}})
		return
	}
	if err != nil {
		writeError(w, r, "failed to update customer role", "INTERNAL_ERROR", http.StatusInternalServerError)
		return
	}
	writeJSON(w, customer)
}
