// Package hub maintains the set of connected UI WebSocket clients and
// broadcasts cache-invalidation and sport-change events to them.
package hub

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/itzcole03/atlas/internal/metrics"
)

const (
	// MessageTypeCacheInvalidated tells clients to refetch.
	MessageTypeCacheInvalidated = "cache.invalidated"

	// MessageTypeSportsChanged carries the refreshed available-sports list.
	MessageTypeSportsChanged = "sports.changed"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The browser UI runs on a different origin in development.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Hub maintains the set of active clients and broadcasts messages to them.
type Hub struct {
	clients   map[*Client]bool
	clientsMu sync.RWMutex

	broadcast  chan ServerMessage
	register   chan *Client
	unregister chan *Client

	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewHub creates a hub. metrics may be nil.
func NewHub(logger *slog.Logger, m *metrics.Metrics) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan ServerMessage, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		logger:     logger,
		metrics:    m,
	}
}

// Run starts the hub's main loop and blocks until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return

		case c := <-h.register:
			h.registerClient(c)

		case c := <-h.unregister:
			h.unregisterClient(c)

		case msg := <-h.broadcast:
			h.broadcastMessage(msg)
		}
	}
}

// ServeWS upgrades an HTTP request to a WebSocket connection and registers
// the client.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	c := newClient(uuid.NewString(), conn, h, h.logger)
	h.register <- c

	// The request context dies when this handler returns, so the pumps get
	// their own; they exit when the connection closes or the hub closes the
	// send channel.
	go c.WritePump(context.Background())
	go c.ReadPump(context.Background())
}

// Unregister removes a client from the hub.
func (h *Hub) Unregister(c *Client) {
	h.unregister <- c
}

// NotifyCacheInvalidated broadcasts an invalidation for one sport (or the
// wildcard). Implements unified.Notifier.
func (h *Hub) NotifyCacheInvalidated(sport string) {
	h.enqueue(ServerMessage{
		Type:      MessageTypeCacheInvalidated,
		Payload:   map[string]string{"sport": sport},
		Timestamp: time.Now(),
	})
}

// NotifySportsChanged broadcasts the refreshed available-sports list.
// Implements unified.Notifier.
func (h *Hub) NotifySportsChanged(sports []string) {
	h.enqueue(ServerMessage{
		Type:      MessageTypeSportsChanged,
		Payload:   sports,
		Timestamp: time.Now(),
	})
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	return len(h.clients)
}

func (h *Hub) enqueue(msg ServerMessage) {
	select {
	case h.broadcast <- msg:
	default:
		// Broadcast buffer full - drop message
		h.logger.Warn("broadcast buffer full, dropping message", "type", msg.Type)
	}
}

func (h *Hub) registerClient(c *Client) {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()

	h.clients[c] = true
	if h.metrics != nil {
		h.metrics.WSClients.Set(float64(len(h.clients)))
	}
	h.logger.Info("client connected", "client", c.ID, "total", len(h.clients))
}

func (h *Hub) unregisterClient(c *Client) {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()

	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.Send)
		if h.metrics != nil {
			h.metrics.WSClients.Set(float64(len(h.clients)))
		}
		h.logger.Info("client disconnected", "client", c.ID, "total", len(h.clients))
	}
}

func (h *Hub) broadcastMessage(msg ServerMessage) {
	h.clientsMu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.clientsMu.RUnlock()

	sport := sportOf(msg)

	for _, c := range clients {
		if !c.MatchesSport(sport) {
			continue
		}

		if !c.TrySend(msg) {
			// Client buffer full - they're too slow, disconnect them
			h.logger.Warn("client buffer full, disconnecting", "client", c.ID)
			go h.Unregister(c)
			continue
		}

		if h.metrics != nil {
			h.metrics.WSMessages.Inc()
		}
	}
}

func (h *Hub) shutdown() {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()

	for c := range h.clients {
		close(c.Send)
		delete(h.clients, c)
	}
	h.logger.Info("hub stopped")
}

// sportOf extracts the sport a message concerns, defaulting to the wildcard.
func sportOf(msg ServerMessage) string {
	if payload, ok := msg.Payload.(map[string]string); ok {
		if sport := payload["sport"]; sport != "" {
			return sport
		}
	}
	return "all"
}
