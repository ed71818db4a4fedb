package web

import (
	"errors"
	"net/http"
	"strings"

	"storefront-backoffice/internal/app"
	"storefront-backoffice/internal/newsletter"
)

type okResponse struct {
	Success bool `json:"success"`
}

// contact handles POST /api/contact.
func (h *Handler) contact(w http.ResponseWriter, r *http.Request) {
	var req app.ContactRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	var fields []fieldError
	if req.Name == "" {
		fields = append(fields, fieldError{Field: "name", Violation: "required"})
	}
	if !validEmail(req.Email) {
		fields = append(fields, fieldError{Field: "email", Violation: "must be a valid email address"})
	}
	if req.Subject == "" {
		fields = append(fields, fieldError{Field: "subject", Violation: "required"})
	}
	if req.Message == "" {
		fields = append(fields, fieldError{Field: "message", Violation: "required"})
	}
	if len(fields) > 0 {
		writeValidationError(w, r, fields)
		return
	}

	err := h.svc.SubmitContactForm(r.Context(), req)
	if errors.Is(err, app.ErrCaptchaFailed) {
		writeError(w, r, "captcha verification failed", "CAPTCHA_FAILED", http.StatusBadRequest)
		return
	}
	if err != nil {
		writeError(w, r, "failed to submit contact form", "INTERNAL_ERROR", http.StatusInternalServerError)
		return
	}
	writeJSON(w, okResponse{Success: true})
}

// newsletterSubscribe handles POST /api/newsletter/subscribe.
func (h *Handler) newsletterSubscribe(w http.ResponseWriter, r *http.Request) {
	var req app.SubscribeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	var fields []fieldError
	if req.Name == "" {
		fields = append(fields, fieldError{Field: "name", Violation: "required"})
	}
	if !validEmail(req.Email) {
		fields = append(fields, fieldError{Field: "email", Violation: "must be a valid email address"})
	}
	if len(fields) > 0 {
		writeValidationError(w, r, fields)
		return
	}

	err := h.svc.SubscribeNewsletter(r.Context(), req)
	if errors.Is(err, app.ErrCaptchaFailed) {
		writeError(w, r, "captcha verification failed", "CAPTCHA_FAILED", http.StatusBadRequest)
		return
	}
	if err != nil {
		writeError(w, r, "failed to subscribe", "INTERNAL_ERROR", http.StatusInternalServerError)
		return
	}
	writeJSON(w, okResponse{Success: true})
}

// newsletterVerify handles GET /api/newsletter/verify?code=…&locale=….
func (h *Handler) newsletterVerify(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	if code == "" {
		writeValidationError(w, r, []fieldError{{Field: "code", Violation: "required"}})
		return
	}

	err := h.svc.VerifyNewsletter(r.Context(), code, r.URL.Query().Get("locale"))
	if errors.Is(err, newsletter.ErrNotFound) {
		writeError(w, r, "unknown verification code", "NOT_FOUND", http.StatusNotFound)
		return
	}
	if err != nil {
		writeError(w, r, "failed to verify subscription", "INTERNAL_ERROR", http.StatusInternalServerError)
		return
	}
	writeJSON(w, okResponse{Success: true})
}

// newsletterUnsubscribe handles POST /api/newsletter/unsubscribe. The body
// carries either the mailed unsubscribe code or just an email address; the
// latter triggers a confirmation email instead of removing the subscription.
func (h *Handler) newsletterUnsubscribe(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code   string `json:"code"`
		Email  string `json:"email"`
		Locale string `json:"locale"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Code == "" && !validEmail(req.Email) {
		writeValidationError(w, r, []fieldError{{Field: "email", Violation: "code or a valid email address is required"}})
		return
	}

	err := h.svc.UnsubscribeNewsletter(r.Context(), req.Code, req.Email, req.Locale)
	if errors.Is(err, newsletter.ErrNotFound) {
		writeError(w, r, "subscription not found", "NOT_FOUND", http.StatusNotFound)
		return
	}
	if err != nil {
		writeError(w, r, "failed to unsubscribe", "INTERNAL_ERROR", http.StatusInternalServerError)
		return
	}
	writeJSON(w, okResponse{Success: true})
}

func validEmail(s string) bool {
	at := strings.Index(s, "@")
	return at > 0 && strings.Contains(s[at+1:], ".")
}
