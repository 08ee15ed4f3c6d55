// Package realtime implements the websocket fan-out channel used by
// notification dispatch. Clients connect to /ws and receive JSON envelopes
// whenever a registration changes a role's occupancy.
package realtime

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/net/websocket"
)

type envelope struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// Hub tracks connected websocket clients and broadcasts to all of them.
// It implements domain.Broadcaster.
type Hub struct {
	logger *slog.Logger

	mu      sync.RWMutex
	clients map[string]*websocket.Conn
}

// NewHub returns an empty hub.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		logger:  logger,
		clients: make(map[string]*websocket.Conn),
	}
}

// Handler returns the http.Handler that upgrades connections and keeps them
// registered until the peer disconnects. The server never reads application
// data from clients; the read loop only detects closure.
func (h *Hub) Handler() http.Handler {
	return websocket.Handler(func(conn *websocket.Conn) {
		id := uuid.New().String()
		h.add(id, conn)
		defer h.remove(id)

		buf := make([]byte, 512)
		for {
			if _, err := conn.Read(buf); err != nil {
				if err != io.EOF {
					h.logger.Debug("websocket read ended", "client_id", id, "err", err)
				}
				return
			}
		}
	})
}

// Broadcast sends the named payload to every connected client. Clients whose
// connection errors are dropped.
func (h *Hub) Broadcast(event string, payload any) {
	data, err := json.Marshal(envelope{Type: event, Payload: payload})
	if err != nil {
		h.logger.Error("broadcast marshal failed", "event", event, "err", err)
		return
	}

	h.mu.RLock()
	conns := make(map[string]*websocket.Conn, len(h.clients))
	for id, conn := range h.clients {
		conns[id] = conn
	}
	h.mu.RUnlock()

	for id, conn := range conns {
		if _, err := conn.Write(data); err != nil {
			h.logger.Debug("broadcast write failed, dropping client", "client_id", id, "err", err)
			h.remove(id)
		}
	}
}

// ClientCount reports the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) add(id string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[id] = conn
}

func (h *Hub) remove(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conn, ok := h.clients[id]; ok {
		delete(h.clients, id)
		_ = conn.Close()
	}
}
