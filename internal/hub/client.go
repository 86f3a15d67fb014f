package hub

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 512

	// Buffer size for outbound messages
	sendBufferSize = 64
)

// ClientMessage is what connected UI clients may send: a subscription
// narrowing broadcasts to one sport.
type ClientMessage struct {
	Type  string `json:"type"` // "subscribe"
	Sport string `json:"sport,omitempty"`
}

// ServerMessage is the envelope broadcast to UI clients.
type ServerMessage struct {
	Type      string      `json:"type"` // cache.invalidated, sports.changed
	Payload   interface{} `json:"payload"`
	Timestamp time.Time   `json:"timestamp"`
}

// Client is one WebSocket connection registered with the hub.
type Client struct {
	ID   string
	Send chan ServerMessage

	conn     *websocket.Conn
	hub      *Hub
	logger   *slog.Logger
	sport    string // empty = all sports
	sportMu  sync.RWMutex
}

// newClient wires a connection to the hub.
func newClient(id string, conn *websocket.Conn, h *Hub, logger *slog.Logger) *Client {
	return &Client{
		ID:     id,
		Send:   make(chan ServerMessage, sendBufferSize),
		conn:   conn,
		hub:    h,
		logger: logger,
	}
}

// ReadPump pumps messages from the connection to the hub until the client
// disconnects.
func (c *Client) ReadPump(ctx context.Context) {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		select {
		case <-ctx.Done():
			return
		default:
			var msg ClientMessage
			if err := c.conn.ReadJSON(&msg); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					c.logger.Warn("unexpected close", "client", c.ID, "error", err)
				}
				return
			}

			if msg.Type == "subscribe" {
				c.setSport(msg.Sport)
			}
		}
	}
}

// WritePump pumps messages from the hub to the connection and keeps the
// connection alive with pings.
func (c *Client) WritePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case message, ok := <-c.Send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteJSON(message); err != nil {
				c.logger.Warn("write failed", "client", c.ID, "error", err)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// TrySend queues a message without blocking. Returns false when the
// client's buffer is full.
func (c *Client) TrySend(msg ServerMessage) bool {
	select {
	case c.Send <- msg:
		return true
	default:
		return false
	}
}

// MatchesSport reports whether this client wants events for the given
// sport. The wildcard always matches.
func (c *Client) MatchesSport(sport string) bool {
	c.sportMu.RLock()
	defer c.sportMu.RUnlock()
	return c.sport == "" || sport == "all" || c.sport == sport
}

func (c *Client) setSport(sport string) {
	c.sportMu.Lock()
	defer c.sportMu.Unlock()
	c.sport = sport
}
