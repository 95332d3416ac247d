package dev

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

// ReloadMessageType represents the type of reload message.
type ReloadMessageType string

const (
	// ReloadTypeUpdate announces a successful rebuild.
	ReloadTypeUpdate ReloadMessageType = "update"

	// ReloadTypeError announces a failed build.
	ReloadTypeError ReloadMessageType = "error"

	// ReloadTypeClear clears a previously announced build error.
	ReloadTypeClear ReloadMessageType = "clear"
)

// ReloadMessage is pushed to browsers via WebSocket. The channel is one-way;
// clients never send messages.
type ReloadMessage struct {
	Type    ReloadMessageType `json:"type"`
	Modules []string          `json:"modules,omitempty"`
	Hash    string            `json:"hash,omitempty"`
	Error   string            `json:"error,omitempty"`
}

// ReloadHub manages one WebSocket connection per connected browser tab.
type ReloadHub struct {
	clients  map[*websocket.Conn]bool
	mu       sync.RWMutex
	upgrader websocket.Upgrader
}

// NewReloadHub creates a new reload hub.
func NewReloadHub() *ReloadHub {
	return &ReloadHub{
		clients: make(map[*websocket.Conn]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // dev only, any origin may subscribe
			},
		},
	}
}

// HandleWebSocket handles WebSocket upgrade and connection lifetime.
func (h *ReloadHub) HandleWebSocket(w http.ResponseWriter, req *http.Request) {
	conn, err := h.upgrader.Upgrade(w, req, nil)
	if err != nil {
		return
	}

	h.mu.Lock()
	h.clients[conn] = true
	h.mu.Unlock()

	// Drain until the tab goes away. Inbound payloads are ignored.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	h.mu.Lock()
	delete(h.clients, conn)
	h.mu.Unlock()
	conn.Close()
}

// NotifyUpdate announces a successful rebuild with the changed module
// identifiers and the new build hash.
func (h *ReloadHub) NotifyUpdate(modules []string, hash string) {
	h.broadcast(ReloadMessage{Type: ReloadTypeUpdate, Modules: modules, Hash: hash})
}

// NotifyError announces a failed build to all clients.
func (h *ReloadHub) NotifyError(errMsg string) {
	h.broadcast(ReloadMessage{Type: ReloadTypeError, Error: errMsg})
}

// ClearError clears the build error state on all clients.
func (h *ReloadHub) ClearError() {
	h.broadcast(ReloadMessage{Type: ReloadTypeClear})
}

// broadcast sends a message to all connected clients. Messages to one
// connection go out in call order; a failed write drops that client.
func (h *ReloadHub) broadcast(msg ReloadMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}

	h.mu.RLock()
	clients := make([]*websocket.Conn, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	for _, client := range clients {
		if err := client.WriteMessage(websocket.TextMessage, data); err != nil {
			h.mu.Lock()
			delete(h.clients, client)
			h.mu.Unlock()
			client.Close()
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *ReloadHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close closes all client connections.
func (h *ReloadHub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		client.Close()
		delete(h.clients, client)
	}
}
