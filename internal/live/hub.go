// Package live pushes newly submitted sightings to connected map clients.
package live

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// SightingEvent is broadcast when a checklist is submitted.
type SightingEvent struct {
	Type       string    `json:"type"`
	EventID    string    `json:"event_id"`
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	TotalCount int       `json:"total_count"`
	At         time.Time `json:"at"`
}

type Hub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
}

func NewHub() *Hub {
	return &Hub{clients: make(map[*websocket.Conn]struct{})}
}

func (h *Hub) Add(ws *websocket.Conn) {
	h.mu.Lock()
	h.clients[ws] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) Remove(ws *websocket.Conn) {
	h.mu.Lock()
	delete(h.clients, ws)
	h.mu.Unlock()
	_ = ws.Close()
}

func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) BroadcastJSON(v any) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for ws := range h.clients {
		if err := ws.WriteMessage(websocket.TextMessage, b); err != nil {
			_ = ws.Close()
			delete(h.clients, ws)
		}
	}
}
