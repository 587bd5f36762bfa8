// Package feed streams verdicts to WebSocket subscribers. Each connected
// client receives every verdict published after it subscribed; there is no
// replay of history.
package feed

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"pairwatch/internal/domain"
)

// Timeouts for client connections.
const (
	writeTimeout = 10 * time.Second
	pingInterval = 30 * time.Second
)

// sendBufferSize bounds per-client backlog. A client that cannot drain
// this many verdicts is dropped rather than allowed to stall the hub.
const sendBufferSize = 64

// VerdictMessage is the wire format broadcast to subscribers.
type VerdictMessage struct {
	VerdictID   string          `json:"verdict_id"`
	PairID      string          `json:"pair_id"`
	EvaluatedAt int64           `json:"evaluated_at"`
	Score       float64         `json:"score"`
	Decision    string          `json:"decision"`
	Signals     []SignalMessage `json:"signals"`
}

// SignalMessage is one signal entry in a broadcast verdict.
type SignalMessage struct {
	Name      string `json:"name"`
	Triggered bool   `json:"triggered"`
	Severity  string `json:"severity"`
	Detail    string `json:"detail,omitempty"`
}

// Hub fans verdicts out to all connected WebSocket clients.
type Hub struct {
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]struct{}
	closed  bool
}

type client struct {
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Verdicts are public within the deployment; no origin policy.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		clients: make(map[*client]struct{}),
	}
}

// ServeHTTP upgrades the request and subscribes the connection.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[feed] upgrade failed: %v", err)
		return
	}

	c := &client{
		conn: conn,
		send: make(chan []byte, sendBufferSize),
		done: make(chan struct{}),
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.Close()
		return
	}
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	go h.writeLoop(c)
	go h.readLoop(c)
}

// Broadcast publishes a verdict to every connected client. Slow clients
// are disconnected instead of blocking the caller.
func (h *Hub) Broadcast(v *domain.Verdict) {
	msg := VerdictMessage{
		VerdictID:   v.VerdictID,
		PairID:      v.PairID,
		EvaluatedAt: v.EvaluatedAt,
		Score:       v.Score,
		Decision:    string(v.Decision),
		Signals:     make([]SignalMessage, 0, len(v.Signals)),
	}
	for _, s := range v.Signals {
		msg.Signals = append(msg.Signals, SignalMessage{
			Name:      s.Name,
			Triggered: s.Triggered,
			Severity:  string(s.Severity),
			Detail:    s.Detail,
		})
	}

	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("[feed] marshal verdict: %v", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			h.dropLocked(c)
		}
	}
}

// ClientCount reports the number of connected subscribers.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every client and rejects new subscriptions.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for c := range h.clients {
		h.dropLocked(c)
	}
}

// dropLocked removes a client. Caller holds h.mu.
func (h *Hub) dropLocked(c *client) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.done)
}

// writeLoop pushes queued messages and pings until the client is dropped.
func (h *Hub) writeLoop(c *client) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				h.drop(c)
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.drop(c)
				return
			}
		case <-c.done:
			return
		}
	}
}

// readLoop discards inbound frames; its job is noticing disconnects.
func (h *Hub) readLoop(c *client) {
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			h.drop(c)
			return
		}
	}
}

func (h *Hub) drop(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dropLocked(c)
}
