package handler

import (
	"net/http"

	"github.com/RaknaroK4LifeBRuv/verbo-friend-mentor/internal/auth"
	"github.com/RaknaroK4LifeBRuv/verbo-friend-mentor/internal/realtime"
)

// EventsHandler serves the SSE change feed at GET /api/events.
type EventsHandler struct {
	hub *realtime.Hub
}

func NewEventsHandler(hub *realtime.Hub) *EventsHandler {
	return &EventsHandler{hub: hub}
}

// Stream subscribes the caller to their own change events and streams
// until the connection drops.
func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	client := h.hub.Subscribe(auth.UserIDFromContext(r.Context()))
	defer h.hub.Unsubscribe(client)

	h.hub.ServeHTTP(w, r, client)
}
