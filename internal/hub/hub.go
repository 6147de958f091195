// Package hub pushes enriched wager snapshots to WebSocket subscribers so the
// dashboard doesn't have to poll between refresh ticks.
package hub

import (
	"context"
	"log"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/vkiragi/briefing/services/wager-engine/internal/orchestrator"
)

// sendBufferSize is the per-client outbound buffer. A client that falls this
// far behind is disconnected rather than allowed to block the broadcast.
const sendBufferSize = 16

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// The dashboard is served from a different origin in development
		return true
	},
}

// Hub maintains the set of active clients and broadcasts snapshots to them
type Hub struct {
	clients   map[*client]bool
	clientsMu sync.RWMutex

	broadcast  chan orchestrator.Snapshot
	register   chan *client
	unregister chan *client
}

type client struct {
	id   string
	conn *websocket.Conn
	send chan orchestrator.Snapshot
}

// New creates a hub
func New() *Hub {
	return &Hub{
		clients:    make(map[*client]bool),
		broadcast:  make(chan orchestrator.Snapshot, 64),
		register:   make(chan *client),
		unregister: make(chan *client),
	}
}

// Run starts the hub's main loop and blocks until the context is cancelled
func (h *Hub) Run(ctx context.Context) {
	log.Printf("[Hub] started")

	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return
		case c := <-h.register:
			h.registerClient(c)
		case c := <-h.unregister:
			h.unregisterClient(c)
		case snapshot := <-h.broadcast:
			h.broadcastSnapshot(snapshot)
		}
	}
}

// BroadcastSnapshot queues a snapshot for delivery to every connected client.
// Non-blocking; when the broadcast buffer is full the snapshot is dropped and
// the next tick's snapshot supersedes it.
func (h *Hub) BroadcastSnapshot(snapshot orchestrator.Snapshot) {
	select {
	case h.broadcast <- snapshot:
	default:
		log.Printf("[Hub] broadcast buffer full, dropping snapshot")
	}
}

// ServeWS upgrades an HTTP request to a WebSocket subscription
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[Hub] upgrade failed: %v", err)
		return
	}

	c := &client{
		id:   uuid.New().String(),
		conn: conn,
		send: make(chan orchestrator.Snapshot, sendBufferSize),
	}
	h.register <- c

	go c.writePump()
	go c.readPump(h)
}

func (h *Hub) registerClient(c *client) {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()

	h.clients[c] = true
	log.Printf("[Hub] client %s connected (total: %d)", c.id, len(h.clients))
}

func (h *Hub) unregisterClient(c *client) {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()

	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
		log.Printf("[Hub] client %s disconnected (total: %d)", c.id, len(h.clients))
	}
}

func (h *Hub) broadcastSnapshot(snapshot orchestrator.Snapshot) {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()

	for c := range h.clients {
		select {
		case c.send <- snapshot:
		default:
			// Slow client - skip this snapshot for it
		}
	}
}

func (h *Hub) shutdown() {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()

	for c := range h.clients {
		close(c.send)
		c.conn.Close()
	}
	h.clients = make(map[*client]bool)
	log.Printf("[Hub] shut down")
}

// writePump delivers queued snapshots to the peer
func (c *client) writePump() {
	defer c.conn.Close()

	for snapshot := range c.send {
		if err := c.conn.WriteJSON(snapshot); err != nil {
			return
		}
	}
	c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}

// readPump drains the connection so pings/closes are processed; subscribers
// are read-only.
func (c *client) readPump(h *Hub) {
	defer func() {
		h.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
