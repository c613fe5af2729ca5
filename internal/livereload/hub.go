// Package livereload notifies browsers when watch mode rebuilds an asset.
//
// Pages rendered in development mode receive the endpoint URL in their
// context and may open a websocket to it; every successful rebuild is
// broadcast as a reload message.
package livereload

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/xdevkit/xdevkit-cli/internal/logging"
)

// Path is the websocket endpoint.
const Path = "/livereload"

const (
	sendBuffer   = 16
	writeTimeout = 5 * time.Second
)

// Message is sent to every client after a rebuild.
type Message struct {
	Type      string    `json:"type"`
	Path      string    `json:"path,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub tracks connected browsers and fans out reload messages.
type Hub struct {
	mu      sync.RWMutex
	clients map[*client]struct{}
	logger  logging.Logger

	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
}

// NewHub creates a Hub.
func NewHub(logger logging.Logger) *Hub {
	if logger == nil {
		logger = logging.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())

	return &Hub{
		clients: make(map[*client]struct{}),
		logger:  logger.WithComponent("livereload"),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// ServeHTTP upgrades the request to a websocket and keeps the client
// registered until it disconnects or the hub closes.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.ctx.Err() != nil {
		http.Error(w, "Service Unavailable", http.StatusServiceUnavailable)
		return
	}

	// Pages are often opened from file:// and send Origin: null.
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns:  []string{"*"},
		CompressionMode: websocket.CompressionDisabled,
	})
	if err != nil {
		h.logger.Warn(r.Context(), err, "websocket upgrade failed", "remote", r.RemoteAddr)
		return
	}

	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}
	h.register(c)
	defer h.unregister(c)

	h.logger.Debug(r.Context(), "client connected", "remote", r.RemoteAddr, "clients", h.Clients())

	// Clients never send anything; CloseRead handles control frames and
	// cancels ctx when the connection goes away.
	ctx := conn.CloseRead(h.ctx)
	h.writePump(ctx, c)
}

func (h *Hub) writePump(ctx context.Context, c *client) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-c.send:
			if !ok {
				return
			}
			wctx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := c.conn.Write(wctx, websocket.MessageText, msg)
			cancel()
			if err != nil {
				h.logger.Debug(ctx, "write failed", "error", err.Error())
				return
			}
		}
	}
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	h.mu.Unlock()

	if ok {
		_ = c.conn.Close(websocket.StatusNormalClosure, "")
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast sends a reload message for path to every client. Clients whose
// buffer is full miss the message.
func (h *Hub) Broadcast(path string) {
	data, err := json.Marshal(Message{Type: "reload", Path: path, Timestamp: time.Now()})
	if err != nil {
		h.logger.Error(h.ctx, err, "unable to encode reload message")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			h.logger.Debug(h.ctx, "client buffer full, dropping reload")
		}
	}
}

// Close disconnects every client. Later connections are refused.
func (h *Hub) Close() {
	h.closeOnce.Do(func() {
		h.cancel()

		h.mu.Lock()
		for c := range h.clients {
			_ = c.conn.Close(websocket.StatusGoingAway, "server shutdown")
			delete(h.clients, c)
		}
		h.mu.Unlock()
	})
}
