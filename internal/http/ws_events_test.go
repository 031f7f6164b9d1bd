package httpx

import (
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func dialEvents(t *testing.T, baseURL string) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(baseURL, "http") + "/ws/events"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", wsURL, err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestEventsRelayedToOtherClients(t *testing.T) {
	srv, _ := newTestServer(t)

	sender := dialEvents(t, srv.URL)
	receiver := dialEvents(t, srv.URL)

	// registration happens after the read loop starts; give the hub a beat
	time.Sleep(50 * time.Millisecond)

	event := `{"event":"newComment","taskId":"task-1"}`
	if err := sender.WriteMessage(websocket.TextMessage, []byte(event)); err != nil {
		t.Fatalf("write event: %v", err)
	}

	_ = receiver.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, payload, err := receiver.ReadMessage()
	if err != nil {
		t.Fatalf("read event: %v", err)
	}
	if string(payload) != event {
		t.Fatalf("expected event relayed verbatim, got %s", payload)
	}

	// the sender must not hear its own event
	_ = sender.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	if _, echoed, err := sender.ReadMessage(); err == nil {
		t.Fatalf("sender received its own event: %s", echoed)
	}
}
