// Package debugws exposes a read-only gorilla/websocket endpoint that
// streams path-registry activity for a running movie actor system, purely
// as an operational aid for watching the actor tree of a live process.
// Nothing starts it by default: a host constructs a Hub, runs it and
// serves it itself, so it carries no cost when unused.
package debugws

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	movielog "github.com/movierun/movie/internal/log"
)

var log = movielog.NewSubsystemLogger("RMTG")

// Event is one path-registry activity record streamed to connected
// clients.
type Event struct {
	Kind string `json:"kind"` // "registered" | "unregistered"
	Path string `json:"path"`
	Time string `json:"time"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Hub fans registry Events out to every connected debug client. It holds
// no reference to the actor system itself — callers feed it events via
// Publish from wherever they observe registry activity (e.g. a thin
// wrapper around path.Registry.Register/Unregister).
type Hub struct {
	mu      sync.RWMutex
	clients map[*client]struct{}

	events chan Event
	done   chan struct{}
}

type client struct {
	conn *websocket.Conn
	send chan Event
}

// NewHub constructs a Hub. Run must be called to start its dispatch loop.
func NewHub() *Hub {
	return &Hub{
		clients: make(map[*client]struct{}),
		events:  make(chan Event, 256),
		done:    make(chan struct{}),
	}
}

// Publish enqueues an event for delivery to all connected clients,
// dropping it if the internal buffer is full rather than blocking the
// caller (the registry's own register/unregister path must never stall on
// a slow debug consumer).
func (h *Hub) Publish(ev Event) {
	select {
	case h.events <- ev:
	default:
		log.DebugS(context.Background(), "Debug ws event buffer full, dropping", "kind", ev.Kind)
	}
}

// Run dispatches published events to every connected client until Stop is
// called. Intended to run on its own goroutine.
func (h *Hub) Run() {
	for {
		select {
		case <-h.done:
			h.mu.Lock()
			for c := range h.clients {
				close(c.send)
			}
			h.mu.Unlock()
			return

		case ev := <-h.events:
			h.mu.RLock()
			for c := range h.clients {
				select {
				case c.send <- ev:
				default:
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Stop shuts the hub down.
func (h *Hub) Stop() {
	close(h.done)
}

// ServeHTTP upgrades the request to a WebSocket and streams events until
// the client disconnects. Register this at "/debug/actors".
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	c := &client{conn: conn, send: make(chan Event, 32)}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.clients, c)
		h.mu.Unlock()
		_ = conn.Close()
	}()

	for ev := range c.send {
		body, err := json.Marshal(ev)
		if err != nil {
			continue
		}
		_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		if err := conn.WriteMessage(websocket.TextMessage, body); err != nil {
			return
		}
	}
}
