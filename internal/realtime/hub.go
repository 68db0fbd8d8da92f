// Package realtime pushes change notifications to connected browsers
// over Server-Sent Events. Clients subscribe to tables they care about
// and receive an event whenever one of their rows changes, so the UI
// can refetch without polling.
package realtime

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Tables that emit change events. Clients receive events only for rows
// belonging to their own user ID.
const (
	TableUserProgress     = "user_progress"
	TableUserLessons      = "user_lessons"
	TableUserAchievements = "user_achievements"
)

// Event is one change notification delivered to a client.
type Event struct {
	Table string `json:"table"`
	Type  string `json:"type"` // INSERT or UPDATE
	Data  any    `json:"data,omitempty"`
}

// Client is one open SSE connection.
type Client struct {
	ID       uuid.UUID
	UserID   string
	Outbound chan Event
	done     chan struct{}
}

// Hub fans change events out to subscribed clients, keyed by user ID.
type Hub struct {
	mu      sync.RWMutex
	logger  *slog.Logger
	clients map[string]map[*Client]struct{}
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		logger:  logger.With("component", "realtime"),
		clients: make(map[string]map[*Client]struct{}),
	}
}

// Subscribe registers a new client for userID's events. The caller must
// eventually call Unsubscribe.
func (h *Hub) Subscribe(userID string) *Client {
	c := &Client{
		ID:       uuid.New(),
		UserID:   userID,
		Outbound: make(chan Event, 16),
		done:     make(chan struct{}),
	}

	h.mu.Lock()
	set, ok := h.clients[userID]
	if !ok {
		set = make(map[*Client]struct{})
		h.clients[userID] = set
	}
	set[c] = struct{}{}
	h.mu.Unlock()

	h.logger.Debug("sse client subscribed", "client_id", c.ID, "user_id", userID)
	return c
}

func (h *Hub) Unsubscribe(c *Client) {
	h.mu.Lock()
	if set, ok := h.clients[c.UserID]; ok {
		if _, present := set[c]; present {
			delete(set, c)
			close(c.done)
			if len(set) == 0 {
				delete(h.clients, c.UserID)
			}
		}
	}
	h.mu.Unlock()

	h.logger.Debug("sse client unsubscribed", "client_id", c.ID)
}

// Publish delivers an event to all of userID's connected clients. A
// client whose buffer is full misses the event rather than blocking the
// publisher; the next event will catch it up since clients refetch on
// every notification.
func (h *Hub) Publish(userID string, ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients[userID] {
		select {
		case c.Outbound <- ev:
		default:
			h.logger.Warn("dropping sse event, client buffer full", "client_id", c.ID, "table", ev.Table)
		}
	}
}

// ServeHTTP streams events to one client until the request context ends
// or the client is unsubscribed.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request, c *Client) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	heartbeat := time.NewTicker(25 * time.Second)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-c.done:
			return
		case <-heartbeat.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		case ev := <-c.Outbound:
			payload, err := json.Marshal(ev)
			if err != nil {
				h.logger.Warn("marshaling sse event", "error", err)
				continue
			}
			fmt.Fprintf(w, "event: change\ndata: %s\n\n", payload)
			flusher.Flush()
		}
	}
}
