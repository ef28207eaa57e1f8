// # internal/session/transport/ws.go
package transport

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingEvery  = (wsPongWait * 9) / 10
	wsSendBuffer = 32
)

// Event is one push notification to WebSocket subscribers.
type Event struct {
	Type    string `json:"type"`
	Path    string `json:"path,omitempty"`
	Blocks  int    `json:"blocks,omitempty"`
	Classes int    `json:"classes,omitempty"`
	Detail  string `json:"detail,omitempty"`
	Time    string `json:"time"`
}

const (
	EventWorkspaceReloaded = "workspace.reloaded"
	EventWorkspaceRemoved  = "workspace.removed"
)

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		return true
	},
}

// Hub fans engine events out to connected WebSocket clients. A slow
// client loses its oldest undelivered event rather than stalling the
// publisher.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]chan Event
}

func NewHub() *Hub {
	return &Hub{clients: make(map[string]chan Event)}
}

// Publish delivers the event to every connected client, dropping the
// oldest buffered event per client when its channel is full. Publish
// never blocks.
func (h *Hub) Publish(ev Event) {
	if ev.Time == "" {
		ev.Time = time.Now().UTC().Format(time.RFC3339Nano)
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for id, ch := range h.clients {
		select {
		case ch <- ev:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- ev:
			default:
				slog.Debug("dropped push event", "client", id, "type", ev.Type)
			}
		}
	}
}

// ClientCount reports connected subscribers, for tests and health.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) attach() (string, chan Event) {
	id := uuid.New().String()
	ch := make(chan Event, wsSendBuffer)
	h.mu.Lock()
	h.clients[id] = ch
	h.mu.Unlock()
	return id, ch
}

func (h *Hub) detach(id string) {
	h.mu.Lock()
	delete(h.clients, id)
	h.mu.Unlock()
}

// ServeHTTP lets the hub mount directly on a router.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.HandleWS(w, r)
}

// HandleWS upgrades the request and streams events until the client
// goes away. The read loop only consumes control frames; this channel
// is push-only.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	id, events := h.attach()
	defer h.detach(id)

	if err := conn.SetReadDeadline(time.Now().Add(wsPongWait)); err != nil {
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(wsPingEvery)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-r.Context().Done():
			return
		case ev := <-events:
			if err := conn.SetWriteDeadline(time.Now().Add(wsWriteWait)); err != nil {
				return
			}
			if err := conn.WriteJSON(ev); err != nil {
				return
			}
		case <-ticker.C:
			if err := conn.SetWriteDeadline(time.Now().Add(wsWriteWait)); err != nil {
				return
			}
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
