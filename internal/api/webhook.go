package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/dmitrymomot/snapdiary/pkg/subscription"
)

const maxWebhookBody = 1 << 20 // 1 MiB

// handleWebhook verifies a storefront notification and feeds it to the
// reconciliation engine. Verification failures answer 401 so the provider
// retries only genuinely transient errors.
func (h *Handler) handleWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "failed to read payload")
		return
	}

	ev, err := h.hooks.ParseWebhook(r.Context(), payload, r.Header.Get("Paddle-Signature"))
	switch {
	case err == nil:
	case errors.Is(err, subscription.ErrWebhookVerification):
		respondWithError(w, http.StatusUnauthorized, "signature verification failed")
		return
	case errors.Is(err, subscription.ErrMalformedWebhook):
		respondWithError(w, http.StatusBadRequest, "malformed payload")
		return
	default:
		h.log.ErrorContext(r.Context(), "webhook parsing failed", "error", err)
		respondWithError(w, http.StatusInternalServerError, "webhook processing failed")
		return
	}

	if err := h.svc.ApplyStorefrontEvent(r.Context(), *ev); err != nil {
		if errors.Is(err, subscription.ErrMalformedWebhook) {
			respondWithError(w, http.StatusBadRequest, "malformed event")
			return
		}
		h.log.ErrorContext(r.Context(), "webhook reconciliation failed",
			"event", ev.ProviderEvent, "error", err)
		respondWithError(w, http.StatusInternalServerError, "webhook processing failed")
		return
	}

	w.WriteHeader(http.StatusOK)
}
