package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/nexusfarm/nexus/internal/events"
	"github.com/rs/zerolog"
)

const (
	eventStreamBuffer    = 100
	eventStreamHeartbeat = 30 * time.Second
)

// EventsStreamHandler streams bus events to administrators as Server-Sent Events.
type EventsStreamHandler struct {
	eventBus *events.Bus
	log      zerolog.Logger
}

// NewEventsStreamHandler creates a new events stream handler.
func NewEventsStreamHandler(eventBus *events.Bus, log zerolog.Logger) *EventsStreamHandler {
	return &EventsStreamHandler{
		eventBus: eventBus,
		log:      log.With().Str("component", "events_stream").Logger(),
	}
}

// typesFilter parses a comma separated types list. An empty list accepts everything.
func typesFilter(raw string) events.Filter {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	allowed := make(map[events.EventType]bool)
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			allowed[events.EventType(strings.ToUpper(t))] = true
		}
	}
	return func(e events.Event) bool {
		return allowed[e.Type]
	}
}

// ServeHTTP handles GET /api/admin/events/stream?types=ORDER_PLACED,BACKUP_COMPLETED
func (h *EventsStreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	rc := http.NewResponseController(w)
	_ = rc.SetWriteDeadline(time.Time{})

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	types := r.URL.Query().Get("types")
	eventChan, cancel := h.eventBus.Subscribe(typesFilter(types), eventStreamBuffer)
	defer cancel()

	h.log.Info().Str("types_filter", types).Msg("Client connected to event stream")

	h.send(w, map[string]interface{}{
		"type":    "connected",
		"message": "Connected to event stream",
	})
	flusher.Flush()

	heartbeat := time.NewTicker(eventStreamHeartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			h.log.Info().Msg("Client disconnected from event stream")
			return

		case event, ok := <-eventChan:
			if !ok {
				return
			}
			h.send(w, map[string]interface{}{
				"type":      string(event.Type),
				"module":    event.Module,
				"timestamp": event.Timestamp.Format(time.RFC3339),
				"data":      event.Data,
			})
			flusher.Flush()

		case <-heartbeat.C:
			h.send(w, map[string]interface{}{
				"type":      "heartbeat",
				"timestamp": time.Now().Format(time.RFC3339),
			})
			flusher.Flush()
		}
	}
}

func (h *EventsStreamHandler) send(w http.ResponseWriter, event map[string]interface{}) {
	data, err := json.Marshal(event)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to marshal event")
		data = []byte(`{"error":"failed to encode event"}`)
	}
	fmt.Fprintf(w, "data: %s\n\n", data)
}
