// # internal/session/transport/ws_test.go
package transport

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestHubDeliversEvents(t *testing.T) {
	hub := NewHub()
	server := httptest.NewServer(hub)
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close()

	waitForClients(t, hub, 1)
	hub.Publish(Event{Type: EventWorkspaceReloaded, Path: "main.cfw", Blocks: 7, Classes: 2})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var ev Event
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatalf("ReadJSON failed: %v", err)
	}
	if ev.Type != EventWorkspaceReloaded {
		t.Errorf("Expected type %q, got %q", EventWorkspaceReloaded, ev.Type)
	}
	if ev.Path != "main.cfw" || ev.Blocks != 7 || ev.Classes != 2 {
		t.Errorf("Unexpected event payload: %+v", ev)
	}
	if ev.Time == "" {
		t.Error("Expected Publish to stamp the event time")
	}
}

func TestHubDropsOldestForSlowClient(t *testing.T) {
	hub := NewHub()
	id, ch := hub.attach()
	defer hub.detach(id)

	// Overfill the buffer; the oldest events must give way.
	for i := 0; i < wsSendBuffer+5; i++ {
		hub.Publish(Event{Type: EventWorkspaceReloaded, Blocks: i})
	}

	if len(ch) != wsSendBuffer {
		t.Fatalf("Expected full buffer of %d, got %d", wsSendBuffer, len(ch))
	}
	first := <-ch
	if first.Blocks != 5 {
		t.Errorf("Expected oldest surviving event to be #5, got #%d", first.Blocks)
	}
}

func TestHubDetachOnDisconnect(t *testing.T) {
	hub := NewHub()
	server := httptest.NewServer(hub)
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	waitForClients(t, hub, 1)

	conn.Close()
	waitForClients(t, hub, 0)
}

func waitForClients(t *testing.T, hub *Hub, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if hub.ClientCount() == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("Expected %d connected clients, got %d", want, hub.ClientCount())
}
