// Package ws broadcasts orchestrator events to connected display clients.
//
// Delivery is best effort: a slow display gets frames dropped rather than
// stalling the decision pipeline, and the next frame always carries the full
// current state.
package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ericggul/moodscape/pkg/logger"
	"github.com/ericggul/moodscape/pkg/metrics"
)

const (
	writeWait  = 5 * time.Second
	pingPeriod = 30 * time.Second
)

// Frame is the wire envelope for outbound events.
type Frame struct {
	Type    string `json:"type"` // "decision" or "softReset"
	Payload any    `json:"payload"`
}

// Hub tracks connected displays and fans frames out to them.
type Hub struct {
	mu       sync.RWMutex
	clients  map[*client]struct{}
	upgrader websocket.Upgrader
	sendBuf  int
	logger   logger.Logger
}

type client struct {
	conn *websocket.Conn
	send chan []byte
	once sync.Once
}

// Option applies a configuration option to the Hub.
type Option func(*Hub)

// WithSendBuffer bounds the per-client outbound frame buffer.
func WithSendBuffer(size int) Option {
	return func(h *Hub) {
		if size > 0 {
			h.sendBuf = size
		}
	}
}

// WithLogger sets a custom logger for the hub.
func WithLogger(lg logger.Logger) Option {
	return func(h *Hub) {
		if lg != nil {
			h.logger = lg
		}
	}
}

// NewHub creates a Hub with configuration options.
func NewHub(opts ...Option) *Hub {
	h := &Hub{
		clients: make(map[*client]struct{}),
		sendBuf: 16,
		upgrader: websocket.Upgrader{
			// Displays connect from installation machines on other origins.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}

	for _, opt := range opts {
		opt(h)
	}

	if h.logger == nil {
		h.logger = logger.Get().Named("ws")
	}

	return h
}

// HandleWS upgrades the connection and serves it until the display leaves.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn(r.Context(), "websocket upgrade failed", logger.Error(err))
		return
	}

	c := &client{
		conn: conn,
		send: make(chan []byte, h.sendBuf),
	}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	count := len(h.clients)
	h.mu.Unlock()
	metrics.UpdateWSClients(count)
	h.logger.Info(r.Context(), "display connected", logger.Int("clients", count))

	go h.writePump(c)
	go h.readPump(c)
}

// Broadcast marshals one frame and fans it out. Frames to clients with a
// full buffer are dropped.
func (h *Hub) Broadcast(ctx context.Context, frameType string, payload any) error {
	raw, err := json.Marshal(Frame{Type: frameType, Payload: payload})
	if err != nil {
		return err
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		select {
		case c.send <- raw:
		default:
			metrics.RecordWSFrameDropped()
			h.logger.Debug(ctx, "dropping frame for slow display", logger.String("type", frameType))
		}
	}
	return nil
}

// ClientCount returns the number of connected displays.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every display.
func (h *Hub) Close() {
	h.mu.Lock()
	clients := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		h.drop(c)
	}
}

// writePump owns all writes to the connection.
func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		h.drop(c)
	}()

	for {
		select {
		case raw, ok := <-c.send:
			if !ok {
				return
			}
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, raw); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump discards inbound messages; displays talk to the orchestrator over
// the HTTP API, not the socket. Reading is still required to process control
// frames and notice disconnects.
func (h *Hub) readPump(c *client) {
	defer h.drop(c)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// drop unregisters and closes a client exactly once.
func (h *Hub) drop(c *client) {
	h.mu.Lock()
	_, present := h.clients[c]
	delete(h.clients, c)
	count := len(h.clients)
	h.mu.Unlock()

	c.once.Do(func() {
		close(c.send)
		_ = c.conn.Close()
	})

	if present {
		metrics.UpdateWSClients(count)
		h.logger.Info(context.Background(), "display disconnected", logger.Int("clients", count))
	}
}
