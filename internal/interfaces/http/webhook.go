package http

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"finsync/internal/domain/webhook"
)

const maxWebhookBody = 1 << 20

// EventRouter handles one decoded webhook event.
type EventRouter interface {
	Handle(ctx context.Context, env *webhook.Envelope) error
}

type WebhookResponse struct {
	Received  bool `json:"received"`
	Processed bool `json:"processed"`
}

// WebhookHandler receives provider webhooks. Events are processed before the
// response is written so a 500 makes the provider redeliver.
type WebhookHandler struct {
	decoder *webhook.Decoder
	router  EventRouter
	timeout time.Duration
}

func NewWebhookHandler(decoder *webhook.Decoder, router EventRouter, timeout time.Duration) *WebhookHandler {
	return &WebhookHandler{decoder: decoder, router: router, timeout: timeout}
}

// HandleProviderWebhook handles POST /api/webhooks/provider
func (h *WebhookHandler) HandleProviderWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read request body")
		return
	}

	env, err := h.decoder.Decode(body)
	if err != nil {
		log.Printf("Webhook rejected: %v", err)
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx := r.Context()
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	if err := h.router.Handle(ctx, env); err != nil {
		if errors.Is(err, webhook.ErrInvalidEnvelope) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to process webhook")
		return
	}

	writeJSON(w, http.StatusOK, WebhookResponse{Received: true, Processed: true})
}
