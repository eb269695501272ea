package api

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// handleEvents bridges the status and purchase broadcast streams onto a
// Server-Sent-Events connection. Streams have no replay: the client sees
// only events published after it connects.
func (h *Handler) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		respondWithError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	// Subscribe before acknowledging the stream so a client acting on the
	// 200 cannot publish ahead of its own subscription.
	ctx := r.Context()
	statuses := h.events.SubscribeStatus(ctx)
	purchases := h.events.SubscribePurchases(ctx)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-ctx.Done():
			return

		case status, open := <-statuses:
			if !open {
				return
			}
			if err := writeSSE(w, "status", status); err != nil {
				return
			}
			flusher.Flush()

		case purchase, open := <-purchases:
			if !open {
				return
			}
			if err := writeSSE(w, "purchase", purchase); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func writeSSE(w http.ResponseWriter, event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
	return err
}
