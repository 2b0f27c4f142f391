// Package events streams universe publish events to WebSocket clients.
package events

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/bobmcallan/nivesh/internal/common"
	"github.com/bobmcallan/nivesh/internal/models"
	"github.com/bobmcallan/nivesh/internal/services/universe"
)

// Event types
const (
	EventSnapshot = "snapshot" // sent once on connect
	EventSync     = "sync"     // a full batch was published
	EventUpdate   = "update"   // a single fund was refreshed or added
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Source is the universe the hub follows.
type Source interface {
	Snapshot() universe.Snapshot
	Subscribe(buffer int) (<-chan universe.Snapshot, func())
}

// Hub manages WebSocket clients and broadcasts universe events.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan models.UniverseEvent
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	stopOnce   sync.Once
	mu         sync.RWMutex
	logger     *common.Logger
}

// Client is one connected WebSocket.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// NewHub creates a new WebSocket hub.
func NewHub(logger *common.Logger) *Hub {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan models.UniverseEvent, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run is the hub's event loop. Call as a goroutine.
func (h *Hub) Run() {
	for {
		select {
		case <-h.done:
			h.mu.Lock()
			for c := range h.clients {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			n := len(h.clients)
			h.mu.Unlock()
			h.logger.Debug().Int("clients", n).Msg("Events: WebSocket client connected")

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			n := len(h.clients)
			h.mu.Unlock()
			h.logger.Debug().Int("clients", n).Msg("Events: WebSocket client disconnected")

		case event := <-h.broadcast:
			data, err := json.Marshal(event)
			if err != nil {
				h.logger.Warn().Err(err).Msg("Events: failed to marshal universe event")
				continue
			}

			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- data:
				default:
					// slow client, drop it
					delete(h.clients, client)
					close(client.send)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Stop ends the event loop and disconnects every client.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

// Broadcast queues an event for every connected client.
func (h *Hub) Broadcast(event models.UniverseEvent) {
	select {
	case h.broadcast <- event:
	default:
		h.logger.Warn().Uint64("generation", event.Generation).Msg("Events: broadcast channel full, dropping event")
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Watch subscribes to src and broadcasts an event for every snapshot it
// publishes until ctx is done or the hub stops. The subscription is in place
// when Watch returns.
func (h *Hub) Watch(ctx context.Context, src Source) {
	updates, cancel := src.Subscribe(4)
	prev := src.Snapshot()

	go func() {
		defer cancel()
		for {
			select {
			case <-ctx.Done():
				return
			case <-h.done:
				return
			case snap, ok := <-updates:
				if !ok {
					return
				}
				h.Broadcast(Diff(prev, snap))
				prev = snap
			}
		}
	}()
}

// ServeWS upgrades the connection, sends the current snapshot summary and
// registers the client for subsequent events.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, current universe.Snapshot) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("Events: WebSocket upgrade failed")
		return
	}

	client := &Client{hub: h, conn: conn, send: make(chan []byte, 16)}

	if data, err := json.Marshal(SnapshotEvent(current)); err == nil {
		client.send <- data
	}

	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// SnapshotEvent summarises a snapshot for a newly connected client.
func SnapshotEvent(s universe.Snapshot) models.UniverseEvent {
	return models.UniverseEvent{
		Type:       EventSnapshot,
		Generation: s.Generation,
		Funds:      len(s.Funds),
		SyncedAt:   s.SyncedAt,
	}
}

// Diff describes the change from prev to next. Changed lists funds that are
// new or whose live data moved.
func Diff(prev, next universe.Snapshot) models.UniverseEvent {
	ev := models.UniverseEvent{
		Type:       EventUpdate,
		Generation: next.Generation,
		Funds:      len(next.Funds),
		SyncedAt:   next.SyncedAt,
	}
	if !next.SyncedAt.Equal(prev.SyncedAt) {
		ev.Type = EventSync
	}

	before := make(map[string]time.Time, len(prev.Funds))
	for _, f := range prev.Funds {
		before[f.SchemeCode] = lastUpdated(f)
	}
	for _, f := range next.Funds {
		old, ok := before[f.SchemeCode]
		if !ok || !lastUpdated(f).Equal(old) {
			ev.Changed = append(ev.Changed, f.SchemeCode)
		}
	}
	return ev
}

func lastUpdated(f models.MutualFund) time.Time {
	if f.Live == nil {
		return time.Time{}
	}
	return f.Live.LastUpdated
}

func (c *Client) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump only watches for the connection closing.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			break
		}
	}
}
