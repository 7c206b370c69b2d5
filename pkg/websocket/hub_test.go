package websocket

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestConn(hub *Hub, userID, connID string, buffer int) *Connection {
	return &Connection{
		ID:     connID,
		UserID: userID,
		Send:   make(chan []byte, buffer),
		hub:    hub,
	}
}

func waitOnline(t *testing.T, hub *Hub, userID string, want bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if hub.IsOnline(userID) == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("user %s online state never became %v", userID, want)
}

func TestHubRegisterUnregister(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	conn := newTestConn(hub, "user-1", "conn-1", 8)
	hub.register <- conn
	waitOnline(t, hub, "user-1", true)
	assert.Equal(t, 1, hub.OnlineCount())

	hub.unregister <- conn
	waitOnline(t, hub, "user-1", false)
	assert.Equal(t, 0, hub.OnlineCount())

	// Channel is closed on unregister.
	_, open := <-conn.Send
	assert.False(t, open)
}

func TestHubSendToUserReachesAllConnections(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	c1 := newTestConn(hub, "user-1", "conn-1", 8)
	c2 := newTestConn(hub, "user-1", "conn-2", 8)
	other := newTestConn(hub, "user-2", "conn-3", 8)
	hub.register <- c1
	hub.register <- c2
	hub.register <- other
	waitOnline(t, hub, "user-1", true)
	waitOnline(t, hub, "user-2", true)

	hub.SendToUser("user-1", Event{Type: EventNewAlert, Payload: map[string]string{"id": "a1"}})

	for _, c := range []*Connection{c1, c2} {
		select {
		case raw := <-c.Send:
			var ev Event
			require.NoError(t, json.Unmarshal(raw, &ev))
			assert.Equal(t, EventNewAlert, ev.Type)
		case <-time.After(time.Second):
			t.Fatalf("connection %s received nothing", c.ID)
		}
	}

	select {
	case <-other.Send:
		t.Fatal("event leaked to another user")
	default:
	}
}

func TestHubSendToOfflineUserIsNoop(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	// Must not panic or block.
	hub.SendToUser("ghost", Event{Type: EventNotification})
}

func TestHubDropsFramesWhenBufferFull(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	conn := newTestConn(hub, "user-1", "conn-1", 1)
	hub.register <- conn
	waitOnline(t, hub, "user-1", true)

	hub.SendToUser("user-1", Event{Type: EventPong})
	// Buffer is now full; this frame must be dropped, not block.
	done := make(chan struct{})
	go func() {
		hub.SendToUser("user-1", Event{Type: EventPong})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("SendToUser blocked on a full buffer")
	}
	assert.Len(t, conn.Send, 1)
}

func TestHubSendDuringUnregisterDoesNotPanic(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	// Sends must never hit a closed Send channel, no matter how they
	// interleave with connection removal.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 500; i++ {
			hub.SendToUser("user-1", Event{Type: EventNotification})
			hub.Broadcast(Event{Type: EventAlertUpdated})
		}
	}()

	for i := 0; i < 200; i++ {
		conn := newTestConn(hub, "user-1", "conn-1", 1)
		hub.register <- conn
		hub.unregister <- conn
	}
	<-done
}

func TestHubBroadcast(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	c1 := newTestConn(hub, "user-1", "conn-1", 8)
	c2 := newTestConn(hub, "user-2", "conn-2", 8)
	hub.register <- c1
	hub.register <- c2
	waitOnline(t, hub, "user-1", true)
	waitOnline(t, hub, "user-2", true)

	hub.Broadcast(Event{Type: EventAlertUpdated})

	for _, c := range []*Connection{c1, c2} {
		select {
		case <-c.Send:
		case <-time.After(time.Second):
			t.Fatalf("connection %s missed the broadcast", c.ID)
		}
	}
}
