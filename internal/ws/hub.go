package ws

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Hub fans out live updates to connected dashboards. After every ingestion
// tick the app broadcasts the tick summary so charts refresh without polling.
type Hub struct {
	mu       sync.RWMutex
	clients  map[*Client]struct{}
	logger   *zap.Logger
	upgrader websocket.Upgrader
}

// NewHub builds the hub.
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		logger:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				// Same-origin is enforced upstream by the frame-ancestors CSP;
				// the data pushed here is the same as the public API serves.
				return true
			},
		},
	}
}

// HandleWS is the HTTP handler for /ws/live.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", zap.Error(err))
		return
	}

	client := newClient(conn, h.logger, h.remove)
	h.mu.Lock()
	h.clients[client] = struct{}{}
	h.mu.Unlock()

	client.start()
	h.logger.Info("dashboard connected", zap.Int("clients", h.Count()))
}

// Broadcast marshals the payload under an event name and queues it to every
// connected client.
func (h *Hub) Broadcast(event string, payload interface{}) {
	msg, err := json.Marshal(map[string]interface{}{
		"event": event,
		"data":  payload,
	})
	if err != nil {
		h.logger.Error("failed to encode live update", zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients {
		client.enqueue(msg)
	}
}

// Count returns the number of connected clients.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	delete(h.clients, client)
	h.mu.Unlock()
}
