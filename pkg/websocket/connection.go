package websocket

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBufferSize = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Connection is one live websocket session of a user.
type Connection struct {
	ID     string
	UserID string
	conn   *websocket.Conn
	Send   chan []byte
	hub    *Hub
}

// clientFrame is what clients are allowed to send: keepalive pings and
// topic subscriptions. Everything else flows server to client.
type clientFrame struct {
	Type      string          `json:"type"`
	Topic     string          `json:"topic,omitempty"`
	Timestamp json.RawMessage `json:"timestamp,omitempty"`
}

// Serve upgrades the request and starts the read/write pumps. The
// caller must have authenticated userID already.
func Serve(hub *Hub, w http.ResponseWriter, r *http.Request, userID string) error {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	c := &Connection{
		ID:     uuid.NewString(),
		UserID: userID,
		conn:   conn,
		Send:   make(chan []byte, sendBufferSize),
		hub:    hub,
	}
	hub.register <- c

	go c.writePump()
	go c.readPump()
	return nil
}

// trySend queues a frame without blocking. Frames to a full buffer are
// dropped; the client recovers current state over REST.
func (c *Connection) trySend(data []byte) {
	select {
	case c.Send <- data:
	default:
		logrus.WithFields(logrus.Fields{"conn_id": c.ID, "user_id": c.UserID}).Warn("send buffer full, dropping frame")
	}
}

func (c *Connection) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logrus.WithError(err).Warn("websocket read error")
			}
			return
		}
		c.handleFrame(message)
	}
}

func (c *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
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

func (c *Connection) handleFrame(message []byte) {
	var frame clientFrame
	if err := json.Unmarshal(message, &frame); err != nil {
		logrus.WithError(err).Warn("unreadable websocket frame")
		return
	}

	switch frame.Type {
	case "ping":
		// The pong carries the client's own timestamp back so it can
		// measure round-trip latency.
		ts := frame.Timestamp
		if len(ts) == 0 {
			ts, _ = json.Marshal(time.Now().Unix())
		}
		c.reply(Event{Type: EventPong, Payload: map[string]json.RawMessage{"timestamp": ts}})
	case "subscribe":
		// Subscriptions are acknowledged but all events are pushed to
		// the user regardless; topics exist for frontend compatibility.
		c.reply(Event{Type: EventSubscribed, Payload: map[string]string{"topic": frame.Topic}})
	default:
		logrus.WithField("type", frame.Type).Debug("ignoring websocket frame")
	}
}

func (c *Connection) reply(event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	c.trySend(data)
}
