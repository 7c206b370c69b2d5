package websocket

import (
	"encoding/json"
	"sync"

	"github.com/sirupsen/logrus"

	"RescueHub/pkg/metrics"
)

// Event is the wire frame pushed to clients. Payload carries the
// event-specific body, already shaped for the frontend.
type Event struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"data,omitempty"`
}

const (
	EventConnected    = "connected"
	EventPong         = "pong"
	EventSubscribed   = "subscribed"
	EventNewAlert     = "new_alert"
	EventAlertUpdated = "alert_updated"
	EventNotification = "notification"
)

// Hub tracks live connections per user. A user may hold several
// connections (phone + dashboard); every frame goes to all of them.
type Hub struct {
	mu          sync.RWMutex
	connections map[string]map[string]*Connection // userID -> connID -> conn

	register   chan *Connection
	unregister chan *Connection
}

func NewHub() *Hub {
	return &Hub{
		connections: make(map[string]map[string]*Connection),
		register:    make(chan *Connection),
		unregister:  make(chan *Connection),
	}
}

// Run processes registration traffic. Call once from a goroutine.
func (h *Hub) Run() {
	for {
		select {
		case conn := <-h.register:
			h.add(conn)
		case conn := <-h.unregister:
			h.remove(conn)
		}
	}
}

func (h *Hub) add(conn *Connection) {
	h.mu.Lock()
	if h.connections[conn.UserID] == nil {
		h.connections[conn.UserID] = make(map[string]*Connection)
	}
	h.connections[conn.UserID][conn.ID] = conn
	h.mu.Unlock()

	metrics.WSConnectionOpened()
	logrus.WithFields(logrus.Fields{"user_id": conn.UserID, "conn_id": conn.ID}).Info("websocket connected")
}

func (h *Hub) remove(conn *Connection) {
	h.mu.Lock()
	if conns, ok := h.connections[conn.UserID]; ok {
		if _, ok := conns[conn.ID]; ok {
			delete(conns, conn.ID)
			close(conn.Send)
			if len(conns) == 0 {
				delete(h.connections, conn.UserID)
			}
			metrics.WSConnectionClosed()
			logrus.WithFields(logrus.Fields{"user_id": conn.UserID, "conn_id": conn.ID}).Info("websocket disconnected")
		}
	}
	h.mu.Unlock()
}

// SendToUser delivers an event to every live connection of the user.
// Delivery is best effort: slow consumers get dropped frames, offline
// users are silently skipped.
func (h *Hub) SendToUser(userID string, event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		logrus.WithError(err).Error("websocket marshal failed")
		return
	}

	// The read lock is held across the sends so remove() cannot close a
	// Send channel mid-loop. trySend never blocks, so the critical
	// section stays short.
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.connections[userID] {
		c.trySend(data)
	}
}

// Broadcast delivers an event to every connected user.
func (h *Hub) Broadcast(event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		logrus.WithError(err).Error("websocket marshal failed")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, userConns := range h.connections {
		for _, c := range userConns {
			c.trySend(data)
		}
	}
}

// IsOnline reports whether the user has at least one live connection.
func (h *Hub) IsOnline(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections[userID]) > 0
}

// OnlineCount returns the number of distinct connected users.
func (h *Hub) OnlineCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections)
}
