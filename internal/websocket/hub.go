// Package websocket pushes refresh notifications to connected household
// displays. Displays are dumb: a message tells them which part of the
// state changed and they re-fetch it over the JSON API.
package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"
)

// Message is a state-change notification broadcast to all displays.
type Message struct {
	Type string `json:"type"`
	Room string `json:"room,omitempty"`
	Task string `json:"task,omitempty"`
	User string `json:"user,omitempty"`
	Date string `json:"date,omitempty"`
}

// TaskCompleted notifies that a room task rotated to a new holder.
func TaskCompleted(room, task, nextUser string) Message {
	return Message{Type: "task_completed", Room: room, Task: task, User: nextUser}
}

// IndefiniteCompleted notifies that an indefinite task advanced a rep.
func IndefiniteCompleted(task, user string) Message {
	return Message{Type: "indefinite_completed", Task: task, User: user}
}

// ScoresChanged notifies that the fairness ledger moved.
func ScoresChanged() Message {
	return Message{Type: "scores_changed"}
}

// DateRollover notifies that the calendar day changed, so due-date
// coloring needs recomputing even though no task moved.
func DateRollover(date string) Message {
	return Message{Type: "date_rollover", Date: date}
}

// Hub maintains the set of connected displays and fans out messages.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	logger  *slog.Logger
}

// NewHub creates an empty hub.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		logger:  logger,
	}
}

// Register adds a display connection to the hub.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

// Unregister removes a display connection and closes its send channel.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

// Broadcast sends a message to every connected display.
func (h *Hub) Broadcast(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("marshal broadcast", "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			// Display buffer full; drop rather than block the mutation path.
		}
	}
}

// ClientCount returns the number of connected displays.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
