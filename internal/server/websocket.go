// Package server streams the modulator's output to browsers for
// constellation monitoring: an HTTP endpoint upgrades to WebSocket and
// receives decimated I/Q points as JSON.
package server

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // local monitoring tool
	},
}

// WSMessage represents a WebSocket message.
type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// IQPayload carries a batch of decimated sample coordinates.
type IQPayload struct {
	I []float64 `json:"i"`
	Q []float64 `json:"q"`
}

// StatusPayload carries run bookkeeping for the status line.
type StatusPayload struct {
	Status     string  `json:"status"`
	Samples    int     `json:"samples"`
	SampleRate float64 `json:"sampleRate,omitempty"`
}

// WSHub manages WebSocket connections.
type WSHub struct {
	clients map[*websocket.Conn]bool
	mu      sync.RWMutex
}

// NewWSHub creates a new WebSocket hub.
func NewWSHub() *WSHub {
	return &WSHub{clients: make(map[*websocket.Conn]bool)}
}

// AddClient registers a new WebSocket connection.
func (h *WSHub) AddClient(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[conn] = true
	log.Printf("WebSocket client connected (%d total)", len(h.clients))
}

// RemoveClient removes a WebSocket connection.
func (h *WSHub) RemoveClient(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[conn]; !ok {
		return
	}
	delete(h.clients, conn)
	conn.Close()
	log.Printf("WebSocket client disconnected (%d remaining)", len(h.clients))
}

// ClientCount returns the number of connected clients.
func (h *WSHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast sends a message to all connected clients.
func (h *WSHub) Broadcast(msg WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("WebSocket marshal error: %v", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for conn := range h.clients {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			log.Printf("WebSocket write error: %v", err)
			go h.RemoveClient(conn)
		}
	}
}

// BroadcastIQ sends a batch of sample coordinates to all clients.
func (h *WSHub) BroadcastIQ(i, q []float64) {
	h.Broadcast(WSMessage{Type: "iq", Payload: IQPayload{I: i, Q: q}})
}

// BroadcastStatus sends run bookkeeping to all clients.
func (h *WSHub) BroadcastStatus(status string, samples int, sampleRate float64) {
	h.Broadcast(WSMessage{
		Type:    "status",
		Payload: StatusPayload{Status: status, Samples: samples, SampleRate: sampleRate},
	})
}
