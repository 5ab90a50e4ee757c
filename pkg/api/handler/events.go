package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ams29/newagent/pkg/domain"
	"github.com/ams29/newagent/pkg/logger"
	"github.com/ams29/newagent/pkg/workers"
)

// Events streams transcript updates for one chat as server-sent events, one
// JSON snapshot per event, until the client disconnects.
type Events struct {
	broker *workers.TranscriptBroker
}

func NewEvents(broker *workers.TranscriptBroker) *Events {
	return &Events{broker: broker}
}

func (h *Events) Stream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	chatID := chi.URLParam(r, "chatID")
	updates, cancel := h.broker.Subscribe(chatID)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case update := <-updates:
			if err := writeEvent(w, update); err != nil {
				slog.ErrorContext(r.Context(), "writing transcript event", logger.Err(err))
				return
			}
			flusher.Flush()
		}
	}
}

func writeEvent(w http.ResponseWriter, update domain.TranscriptUpdate) error {
	payload := map[string]any{"messages": update.Messages}
	if update.Err != nil {
		payload["error"] = update.Err.Error()
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling transcript event: %w", err)
	}

	if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
		return fmt.Errorf("writing transcript event: %w", err)
	}
	return nil
}
