package handler

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/CageChen/foldertree/internal/tree"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WSMessage represents a WebSocket message
type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// TreeChange is the payload of a "treeChange" message.
type TreeChange struct {
	Reason string     `json:"reason"`
	Tree   *tree.Node `json:"tree"`
}

// WSHandler pushes tree changes to connected clients
type WSHandler struct {
	clients map[*websocket.Conn]bool
	mu      sync.RWMutex
	// gorilla connections allow a single concurrent writer.
	writeMu sync.Mutex
}

// NewWSHandler creates a new WebSocket handler
func NewWSHandler() *WSHandler {
	return &WSHandler{
		clients: make(map[*websocket.Conn]bool),
	}
}

// HandleWS handles WebSocket upgrade and connection
func (h *WSHandler) HandleWS(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	defer func() {
		h.removeClient(conn)
		_ = conn.Close()
	}()

	h.addClient(conn)

	// Clients only listen; reading keeps the connection alive until it closes.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

// TreeChanged implements Notifier.
func (h *WSHandler) TreeChanged(reason string, snapshot *tree.Node) {
	h.broadcast(WSMessage{
		Type:    "treeChange",
		Payload: TreeChange{Reason: reason, Tree: snapshot},
	})
}

// Clients returns the number of connected clients.
func (h *WSHandler) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *WSHandler) addClient(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[conn] = true
}

func (h *WSHandler) removeClient(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, conn)
}

func (h *WSHandler) broadcast(msg WSMessage) {
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

	h.writeMu.Lock()
	defer h.writeMu.Unlock()
	for _, client := range clients {
		if err := client.WriteMessage(websocket.TextMessage, data); err != nil {
			h.removeClient(client)
		}
	}
}
