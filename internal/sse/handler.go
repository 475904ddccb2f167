package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"ms-gallery/internal/logger"
)

// Handler streams the moderation feed as Server-Sent Events.
type Handler struct {
	Feed      *ModerationFeed
	Logger    *logger.Logger
	Heartbeat time.Duration
}

func NewHandler(feed *ModerationFeed, log *logger.Logger) *Handler {
	return &Handler{Feed: feed, Logger: log, Heartbeat: 25 * time.Second}
}

func (h *Handler) Stream(w http.ResponseWriter, r *http.Request) {
	eventID := r.URL.Query().Get("event_id")
	rc := http.NewResponseController(w)

	// the server write timeout would otherwise cut the stream
	_ = rc.SetWriteDeadline(time.Time{})
	setupSSEHeaders(w)

	ctx := r.Context()
	events := h.Feed.Subscribe(ctx, eventID)

	fmt.Fprintf(w, "event: connected\ndata: {\"status\":\"connected\",\"event_id\":%q}\n\n", eventID)
	if err := rc.Flush(); err != nil {
		h.Logger.Error("SSE", fmt.Sprintf("Streaming unsupported: %v", err))
		return
	}
	h.Logger.Info("SSE", fmt.Sprintf("Admin connected to moderation feed (event %q)", eventID))

	heartbeat := time.NewTicker(h.Heartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case event, ok := <-events:
			if !ok {
				return
			}
			jsonData, err := json.Marshal(event)
			if err != nil {
				h.Logger.Error("SSE", fmt.Sprintf("Failed to serialize gallery event: %v", err))
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, jsonData)
			_ = rc.Flush()

		case <-heartbeat.C:
			fmt.Fprint(w, ": ping\n\n")
			_ = rc.Flush()

		case <-ctx.Done():
			h.Logger.Debug("SSE", fmt.Sprintf("Admin disconnected from moderation feed (event %q)", eventID))
			return
		}
	}
}

func setupSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream;charset=UTF-8")
	w.Header().Set("Cache-Control", "no-cache, no-store, max-age=0, must-revalidate")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Content-Type-Options", "nosniff")
}
