// Package realtime bridges the in-process event bus to WebSocket
// clients, broadcasting every domain event (ReservationCreated,
// ReminderDue, ...) to every connected client; events are not filtered
// by room or by reservation owner.
package realtime

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"room-reservation-api/internal/events"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Hub owns the live WebSocket connections and relays bus events to them.
type Hub struct {
	bus    *events.Bus
	logger *slog.Logger

	mu      sync.Mutex
	clients map[*client]struct{}
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

func NewHub(bus *events.Bus, logger *slog.Logger) *Hub {
	return &Hub{bus: bus, logger: logger, clients: make(map[*client]struct{})}
}

// Serve upgrades the HTTP connection and relays bus events to it until
// the client disconnects. The caller has already authenticated the
// request; Serve does no further authorization (any authenticated user
// may watch the global event feed in this implementation).
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	c := &client{conn: conn, send: make(chan []byte, 32)}
	h.register(c)
	defer h.unregister(c)

	sub := h.bus.Subscribe()
	defer h.bus.Unsubscribe(sub)

	done := make(chan struct{})
	go h.readPump(c, done)

	for {
		select {
		case ev, ok := <-sub.Ch:
			if !ok {
				return
			}
			payload, err := json.Marshal(envelope{Topic: string(ev.Topic), Data: ev.Payload})
			if err != nil {
				continue
			}
			_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

type envelope struct {
	Topic string `json:"topic"`
	Data  any    `json:"data"`
}

// readPump drains and discards client frames, only existing to detect
// disconnects (the client never sends commands over this socket).
func (h *Hub) readPump(c *client, done chan<- struct{}) {
	defer close(done)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
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
	defer h.mu.Unlock()
	delete(h.clients, c)
	_ = c.conn.Close()
}
