package events

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// writeWait is the time allowed to write a message to the peer.
	writeWait = 10 * time.Second
	// pongWait is the time allowed to read the next pong from the peer.
	pongWait = 60 * time.Second
	// pingPeriod is the interval between pings; must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10
	// sendBufferSize is the per-client outbound queue. Slow clients that
	// fall behind by this many events are disconnected.
	sendBufferSize = 32
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origin is enforced by the CORS layer in front of the router.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Hub fans events out to the websocket subscribers of each band.
type Hub struct {
	mu sync.RWMutex
	// clients is keyed by band ID; a user can have several tabs open, so
	// the inner set holds one entry per connection.
	clients map[string]map[*client]bool

	register   chan *client
	unregister chan *client
	broadcast  chan Event

	// seq numbers outbound events so clients can detect gaps.
	seq atomic.Int64

	logger *slog.Logger
}

// NewHub creates a hub. Call Run in a goroutine before serving connections.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		clients:    make(map[string]map[*client]bool),
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan Event, 64),
		logger:     logger,
	}
}

// Run is the hub's event loop.
func (h *Hub) Run() {
	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			if h.clients[c.bandID] == nil {
				h.clients[c.bandID] = make(map[*client]bool)
			}
			h.clients[c.bandID][c] = true
			h.mu.Unlock()

		case c := <-h.unregister:
			h.mu.Lock()
			if set := h.clients[c.bandID]; set[c] {
				delete(set, c)
				close(c.send)
				if len(set) == 0 {
					delete(h.clients, c.bandID)
				}
			}
			h.mu.Unlock()

		case event := <-h.broadcast:
			payload, err := json.Marshal(event)
			if err != nil {
				h.logger.Error("failed to marshal event", "error", err)
				continue
			}

			h.mu.RLock()
			for c := range h.clients[event.BandID] {
				select {
				case c.send <- payload:
				default:
					// Client is not draining its queue; drop it.
					go func(c *client) { h.unregister <- c }(c)
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Publish implements Publisher.
func (h *Hub) Publish(event Event) {
	event.Seq = h.seq.Add(1)
	if event.At.IsZero() {
		event.At = time.Now().UTC()
	}
	h.broadcast <- event
}

// SubscriberCount returns the number of open connections for a band.
func (h *Hub) SubscriberCount(bandID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[bandID])
}

// ServeWS upgrades the request and subscribes the connection to a band's
// channel until the peer disconnects.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, bandID string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug("websocket upgrade failed", "error", err)
		return
	}

	c := &client{
		hub:    h,
		conn:   conn,
		bandID: bandID,
		send:   make(chan []byte, sendBufferSize),
	}

	h.register <- c

	go c.writePump()
	go c.readPump()
}

// client is one websocket subscription to one band's channel.
type client struct {
	hub    *Hub
	conn   *websocket.Conn
	bandID string
	send   chan []byte
}

// readPump discards inbound frames and detects disconnects. The channel is
// broadcast-only; clients never send events.
func (c *client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writePump forwards queued events to the peer and keeps the connection
// alive with pings.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
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
