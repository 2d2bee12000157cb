package api

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nerrad567/glowdeck/internal/state"
)

// WebSocket timing constants.
const (
	// wsWriteTimeout bounds a single frame write to a client.
	wsWriteTimeout = 5 * time.Second

	// wsPingInterval is how often idle clients are pinged.
	wsPingInterval = 30 * time.Second

	// wsPongTimeout is how long to wait for a pong before dropping a client.
	wsPongTimeout = 60 * time.Second

	// wsSendBuffer is the per-client outbound queue. A client that cannot
	// drain this many snapshots is dropped rather than allowed to stall
	// the broadcaster.
	wsSendBuffer = 8
)

// upgrader promotes HTTP connections to WebSocket. The control page is
// served same-origin, so all origins are accepted.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  512,
	WriteBufferSize: 512,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// Hub broadcasts control-state snapshots to connected WebSocket clients.
//
// Each state change pushes one JSON snapshot to every client. Slow clients
// are disconnected instead of buffered without bound.
type Hub struct {
	logger Logger

	mu      sync.Mutex
	clients map[*wsClient]struct{}
}

// wsClient is one connected WebSocket consumer.
type wsClient struct {
	conn *websocket.Conn
	send chan []byte
}

// NewHub creates an empty hub.
func NewHub(logger Logger) *Hub {
	return &Hub{
		logger:  logger,
		clients: make(map[*wsClient]struct{}),
	}
}

// Broadcast queues a snapshot for delivery to all connected clients.
// Wire this as a store change listener; it never blocks.
func (h *Hub) Broadcast(snap state.Snapshot) {
	payload, err := json.Marshal(snap)
	if err != nil {
		h.logger.Warn("encoding snapshot for broadcast", "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- payload:
		default:
			// Client is not draining; drop it.
			delete(h.clients, c)
			close(c.send)
		}
	}
}

// Shutdown closes all client connections.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}

// handleWebSocket upgrades the connection and registers the client.
// The initial snapshot is sent immediately so a fresh panel renders
// without waiting for the next change.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	c := &wsClient{
		conn: conn,
		send: make(chan []byte, wsSendBuffer),
	}

	s.hub.mu.Lock()
	s.hub.clients[c] = struct{}{}
	s.hub.mu.Unlock()

	go c.writePump()
	go c.readPump(s.hub)

	s.hub.Broadcast(s.store.Status())
}

// writePump delivers queued snapshots and pings to the client.
func (c *wsClient) writePump() {
	ticker := time.NewTicker(wsPingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close() //nolint:errcheck // Connection teardown
	}()

	for {
		select {
		case payload, ok := <-c.send:
			if !ok {
				// Hub dropped us.
				c.conn.WriteControl(websocket.CloseMessage, nil, time.Now().Add(wsWriteTimeout)) //nolint:errcheck
				return
			}
			c.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout)) //nolint:errcheck
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteTimeout)); err != nil {
				return
			}
		}
	}
}

// readPump discards inbound frames (the protocol is one-way) and keeps the
// pong deadline fresh. Returning unregisters the client.
func (c *wsClient) readPump(h *Hub) {
	defer func() {
		h.mu.Lock()
		if _, ok := h.clients[c]; ok {
			delete(h.clients, c)
			close(c.send)
		}
		h.mu.Unlock()
		c.conn.Close() //nolint:errcheck // Connection teardown
	}()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(wsPongTimeout)) //nolint:errcheck
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(wsPongTimeout))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
