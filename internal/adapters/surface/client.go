package surface

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/okian/scoreboard/pkg/logger"
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
	sendBufferSize = 256
)

// Client is one connected display.
type Client struct {
	ID          string
	conn        *websocket.Conn
	send        chan Message
	hub         *Hub
	logger      logger.Logger
	connectedAt time.Time

	mu           sync.Mutex
	closed       bool
	messagesSent int64
}

func newClient(id string, conn *websocket.Conn, hub *Hub) *Client {
	return &Client{
		ID:          id,
		conn:        conn,
		send:        make(chan Message, sendBufferSize),
		hub:         hub,
		logger:      hub.logger,
		connectedAt: time.Now(),
	}
}

// readPump reads until the peer goes away. Displays only ever send
// heartbeats.
func (c *Client) readPump(ctx context.Context) {
	defer func() {
		c.hub.Unregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg ClientMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Warn(ctx, "display closed unexpectedly", logger.String("client", c.ID), logger.Error(err))
			}
			return
		}

		switch msg.Type {
		case MessageTypeHeartbeat:
			c.trySend(Message{Type: MessageTypeHeartbeat, Timestamp: time.Now()})
		default:
			c.trySend(Message{Type: MessageTypeError, Error: "unknown message type: " + string(msg.Type), Timestamp: time.Now()})
		}
	}
}

// writePump moves messages from the hub to the connection and keeps it alive
// with pings.
func (c *Client) writePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the channel
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(message); err != nil {
				c.logger.Warn(ctx, "display write failed", logger.String("client", c.ID), logger.Error(err))
				return
			}
			c.mu.Lock()
			c.messagesSent++
			c.mu.Unlock()

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// trySend queues msg without blocking. It reports false when the client is
// too slow to keep up.
func (c *Client) trySend(msg Message) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

// close stops the write pump. It is safe to call more than once.
func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// MessagesSent returns how many messages reached the connection.
func (c *Client) MessagesSent() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.messagesSent
}
