// Package realtime pushes change events to connected WebSocket clients.
package realtime

import (
	"sync"

	"github.com/gorilla/websocket"

	"moneytracker/internal/logger"
)

// Hub tracks one live WebSocket connection per user. Delivery is best
// effort: a write failure drops the connection and is never reported to
// the caller that triggered the event.
type Hub struct {
	mu    sync.Mutex
	conns map[string]*websocket.Conn
}

// NewHub creates an empty Hub.
func NewHub() *Hub {
	return &Hub{conns: make(map[string]*websocket.Conn)}
}

// Register attaches a connection for the user, closing any previous one.
func (h *Hub) Register(userID string, conn *websocket.Conn) {
	h.mu.Lock()
	old := h.conns[userID]
	h.conns[userID] = conn
	h.mu.Unlock()

	if old != nil {
		old.Close()
	}
}

// Unregister removes the user's connection if it is still the given one.
func (h *Hub) Unregister(userID string, conn *websocket.Conn) {
	h.mu.Lock()
	if h.conns[userID] == conn {
		delete(h.conns, userID)
	}
	h.mu.Unlock()
}

// Send marshals the message as JSON and writes it to the user's connection,
// if any. Implements services.Notifier. The hub lock is held for the write
// because a connection allows only one concurrent writer.
func (h *Hub) Send(userID string, message interface{}) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conn := h.conns[userID]
	if conn == nil {
		return
	}

	if err := conn.WriteJSON(message); err != nil {
		logger.Get().Debugw("dropping websocket connection after failed write",
			"user_id", userID,
			"error", err.Error(),
		)
		delete(h.conns, userID)
		conn.Close()
	}
}

// Count returns the number of live connections.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}
