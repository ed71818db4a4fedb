package web

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/stripe/stripe-go/v79/webhook"
	"go.uber.org/zap"

	"storefront-backoffice/internal/core"
)

// stripeWebhook handles POST /api/webhooks/stripe. The payload signature is
// verified before any processing; an invalid signature is a hard 400.
func (h *Handler) stripeWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, r, "failed to read request body", "BAD_REQUEST", http.StatusBadRequest)
		return
	}

	event, err := webhook.ConstructEvent(payload, r.Header.Get("Stripe-Signature"), h.stripeWebhookSecret)
	if err != nil {
		h.logger.Warn("rejected webhook with invalid signature", zap.Error(err))
		writeError(w, r, "invalid webhook signature", "INVALID_SIGNATURE", http.StatusBadRequest)
		return
	}

	if err := h.svc.ProcessStripeEvent(r.Context(), event); err != nil {
		h.logger.Error("webhook event processing failed",
			zap.String("event_id", event.ID),
			zap.String("type", string(event.Type)),
			zap.Error(err))
		writeError(w, r, "event processing failed", "INTERNAL_ERROR", http.StatusInternalServerError)
		return
	}

	type response struct {
		Received bool `json:"received"`
	}
	writeJSON(w, response{Received: true})
}

// sendcloudPayload mirrors the carrier's webhook body. Only the parcel status
// action carries data; everything else is acknowledged and dropped.
type sendcloudPayload struct {
	Action string `json:"action"`
	Parcel struct {
		ID             int64  `json:"id"`
		TrackingNumber string `json:"tracking_number"`
		Status         struct {
			ID      int64  `json:"id"`
			Message string `json:"message"`
		} `json:"status"`
		ExternalOrderID string `json:"external_order_id"`
		Shipment        struct {
			Name string `json:"name"`
		} `json:"shipment"`
	} `json:"parcel"`
}

// sendcloudWebhook handles POST /api/webhooks/sendcloud.
func (h *Handler) sendcloudWebhook(w http.ResponseWriter, r *http.Request) {
	var payload sendcloudPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, r, "invalid JSON body", "BAD_REQUEST", http.StatusBadRequest)
		return
	}

	type response struct {
		Received bool `json:"received"`
	}

	switch payload.Action {
	case "parcel_status_changed":
		ev := core.ParcelStatusEvent{
			ParcelID:        payload.Parcel.ID,
			TrackingNumber:  payload.Parcel.TrackingNumber,
			StatusID:        payload.Parcel.Status.ID,
			StatusMessage:   payload.Parcel.Status.Message,
			CarrierName:     payload.Parcel.Shipment.Name,
			ExternalOrderID: payload.Parcel.ExternalOrderID,
		}
		if err := h.svc.ProcessParcelEvent(r.Context(), ev); err != nil {
			h.logger.Error("parcel status processing failed",
				zap.Int64("parcel_id", ev.ParcelID),
				zap.Error(err))
			writeError(w, r, "event processing failed", "INTERNAL_ERROR", http.StatusInternalServerError)
			return
		}
		writeJSON(w, response{Received: true})
	case "test_webhook":
		writeJSON(w, response{Received: true})
	default:
		h.logger.Debug("ignoring unhandled carrier webhook action", zap.String("action", payload.Action))
		writeJSON(w, response{Received: true})
	}
}
