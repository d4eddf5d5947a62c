package realtime

import (
	"encoding/json"
	"sync"
	"time"
)

// Client represents a single websocket client connection.
// The network conn itself is managed by the ws handler.
type Client interface {
	Send(message []byte) bool
	Close()
}

// Event types published after successful task mutations.
const (
	EventTaskCreated          = "task.created"
	EventTaskUpdated          = "task.updated"
	EventTaskCompletionToggle = "task.completion_toggled"
	EventTaskAssigned         = "task.assigned"
	EventTaskDeleted          = "task.deleted"
)

// Event is the payload pushed to subscribers.
type Event struct {
	Type       string    `json:"type"`
	TaskID     string    `json:"task_id"`
	ActorID    string    `json:"actor_id"`
	OccurredAt time.Time `json:"occurred_at"`
	Version    int       `json:"version"`
}

// Hub maintains active user connections and fans events out to them.
type Hub struct {
	mu              sync.RWMutex
	userIDToClients map[string]map[Client]struct{}
}

// NewHub returns an empty hub.
func NewHub() *Hub {
	return &Hub{userIDToClients: make(map[string]map[Client]struct{})}
}

// Register adds a client under a user ID.
func (h *Hub) Register(userID string, client Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.userIDToClients[userID]; !ok {
		h.userIDToClients[userID] = make(map[Client]struct{})
	}
	h.userIDToClients[userID][client] = struct{}{}
}

// Unregister removes a client; if user has no more clients, cleans up map.
func (h *Hub) Unregister(userID string, client Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if clients, ok := h.userIDToClients[userID]; ok {
		delete(clients, client)
		if len(clients) == 0 {
			delete(h.userIDToClients, userID)
		}
	}
}

// Connections returns the number of clients registered for userID.
func (h *Hub) Connections(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.userIDToClients[userID])
}

// Broadcast sends a message to all clients of a user. Failed writes are
// cleaned up by the owning handler when its read loop exits.
func (h *Hub) Broadcast(userID string, message []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.userIDToClients[userID] {
		c.Send(message)
	}
}

// Publish encodes evt once and broadcasts it to each distinct recipient.
func (h *Hub) Publish(evt Event, recipients ...string) {
	if evt.Version == 0 {
		evt.Version = 1
	}
	payload, err := json.Marshal(evt)
	if err != nil {
		return
	}
	seen := make(map[string]struct{}, len(recipients))
	for _, userID := range recipients {
		if userID == "" {
			continue
		}
		if _, dup := seen[userID]; dup {
			continue
		}
		seen[userID] = struct{}{}
		h.Broadcast(userID, payload)
	}
}

// CloseAll closes and forgets every client. Used at shutdown.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for userID, clients := range h.userIDToClients {
		for c := range clients {
			c.Close()
		}
		delete(h.userIDToClients, userID)
	}
}
