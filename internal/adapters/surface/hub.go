package surface

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/okian/scoreboard/internal/domain/reveal"
	"github.com/okian/scoreboard/pkg/logger"
	"github.com/okian/scoreboard/pkg/metrics"
)

const broadcastBufferSize = 256

// Hub fans reveal steps out to every connected display. It is a
// reveal.Surface: a sequencer renders into the hub and the hub forwards to
// browsers. Messages since the last clear are replayed to late joiners so
// a display opened mid-reveal shows the same board as everyone else.
type Hub struct {
	logger logger.Logger

	clients   map[*Client]bool
	clientsMu sync.RWMutex

	broadcast  chan Message
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	running    atomic.Bool

	// history is only touched by the Run goroutine.
	history []Message

	totalConnections int64
	totalMessages    int64
	statsMu          sync.Mutex
}

var _ reveal.Surface = (*Hub)(nil)

// HubOption customizes a Hub.
type HubOption func(*Hub)

// WithHubLogger sets the hub logger.
func WithHubLogger(l logger.Logger) HubOption {
	return func(h *Hub) {
		if l != nil {
			h.logger = l
		}
	}
}

// NewHub creates a hub. Call Run before rendering: until Run starts,
// messages queue in a buffer of 256 and publishing fails with
// ErrDisplayNotRunning once it is full.
func NewHub(opts ...HubOption) *Hub {
	h := &Hub{
		logger:     logger.GetOr(logger.Nop()),
		clients:    make(map[*Client]bool),
		broadcast:  make(chan Message, broadcastBufferSize),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.logger = h.logger.Named("display")
	return h
}

// Run is the hub's main loop. It returns when ctx is done, closing every
// client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	h.running.Store(true)
	h.logger.Info(ctx, "display hub started")

	for {
		select {
		case <-ctx.Done():
			h.shutdown(ctx)
			return

		case c := <-h.register:
			h.registerClient(ctx, c)

		case c := <-h.unregister:
			h.unregisterClient(ctx, c)

		case msg := <-h.broadcast:
			h.broadcastMessage(ctx, msg)
		}
	}
}

// Register adds a client to the hub.
func (h *Hub) Register(c *Client) {
	select {
	case h.register <- c:
	case <-h.done:
		c.close()
	}
}

// Unregister removes a client from the hub.
func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// SetBoard announces the grid layout. It starts a new history.
func (h *Hub) SetBoard(board Board) error {
	return h.publish(Message{Type: MessageTypeBoard, Board: &board})
}

// Render implements reveal.Surface.
func (h *Hub) Render(_ context.Context, step reveal.Step) error {
	return h.publish(Message{Type: MessageTypeStep, Step: &step})
}

// Clear implements reveal.Surface.
func (h *Hub) Clear(context.Context) error {
	return h.publish(Message{Type: MessageTypeClear})
}

func (h *Hub) publish(msg Message) error {
	msg.Timestamp = time.Now()
	select {
	case <-h.done:
		return ErrDisplayClosed
	default:
	}
	if !h.running.Load() {
		select {
		case h.broadcast <- msg:
			return nil
		default:
			return ErrDisplayNotRunning
		}
	}
	select {
	case h.broadcast <- msg:
		return nil
	case <-h.done:
		return ErrDisplayClosed
	}
}

// ClientCount returns the number of connected displays.
func (h *Hub) ClientCount() int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	return len(h.clients)
}

// GetStats returns hub counters.
func (h *Hub) GetStats() map[string]any {
	h.statsMu.Lock()
	defer h.statsMu.Unlock()
	return map[string]any{
		"active_clients":     h.ClientCount(),
		"total_connections":  h.totalConnections,
		"total_messages":     h.totalMessages,
		"broadcast_capacity": cap(h.broadcast),
		"broadcast_usage":    len(h.broadcast),
	}
}

func (h *Hub) registerClient(ctx context.Context, c *Client) {
	h.clientsMu.Lock()
	h.clients[c] = true
	count := len(h.clients)
	h.clientsMu.Unlock()

	h.statsMu.Lock()
	h.totalConnections++
	h.statsMu.Unlock()

	for _, msg := range h.history {
		c.trySend(msg)
	}

	metrics.UpdateDisplayClients(count)
	h.logger.Info(ctx, "display connected", logger.String("client", c.ID), logger.Int("clients", count))
}

func (h *Hub) unregisterClient(ctx context.Context, c *Client) {
	h.clientsMu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	count := len(h.clients)
	h.clientsMu.Unlock()

	if !ok {
		return
	}
	c.close()
	metrics.UpdateDisplayClients(count)
	h.logger.Info(ctx, "display disconnected", logger.String("client", c.ID), logger.Int("clients", count))
}

func (h *Hub) broadcastMessage(ctx context.Context, msg Message) {
	switch msg.Type {
	case MessageTypeBoard:
		h.history = []Message{msg}
	case MessageTypeClear:
		// Keep the layout, drop revealed values.
		if len(h.history) > 0 && h.history[0].Type == MessageTypeBoard {
			h.history = append(h.history[:1], msg)
		} else {
			h.history = []Message{msg}
		}
	default:
		h.history = append(h.history, msg)
	}

	h.clientsMu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.clientsMu.RUnlock()

	for _, c := range clients {
		if !c.trySend(msg) {
			h.logger.Warn(ctx, "display too slow, disconnecting", logger.String("client", c.ID))
			h.unregisterClient(ctx, c)
		}
	}

	h.statsMu.Lock()
	h.totalMessages++
	h.statsMu.Unlock()
}

func (h *Hub) shutdown(ctx context.Context) {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()

	h.logger.Info(ctx, "display hub stopping", logger.Int("clients", len(h.clients)))
	for c := range h.clients {
		c.close()
		delete(h.clients, c)
	}
	metrics.UpdateDisplayClients(0)
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Displays are served from the same binary; projectors on the LAN may
	// reach it by any host name.
	CheckOrigin: func(*http.Request) bool { return true },
}

// Handler serves the websocket endpoint for a hub.
type Handler struct {
	hub *Hub
	ctx context.Context
}

// NewHandler binds client pumps to ctx rather than to the request, so they
// outlive the upgrade call.
func NewHandler(ctx context.Context, hub *Hub) *Handler {
	return &Handler{hub: hub, ctx: ctx}
}

// HandleWebSocket upgrades the connection and registers a display.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.hub.logger.Warn(r.Context(), "websocket upgrade failed", logger.Error(err))
		return
	}

	c := newClient(uuid.NewString(), conn, h.hub)
	h.hub.Register(c)

	go c.writePump(h.ctx)
	go c.readPump(h.ctx)
}
