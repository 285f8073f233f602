package ws

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	sendBuffer = 64
)

// Upgrader is shared by every WebSocket endpoint. Browsers connect from the
// game client's origin, so the origin check is left to the edge proxy.
var Upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Hub fans messages out to WebSocket connections grouped by topic (a match id).
type Hub struct {
	mu          sync.RWMutex
	connections map[string]*Connection         // connection id -> connection
	topics      map[string]map[string]struct{} // topic -> connection ids
	logger      zerolog.Logger
}

// NewHub creates a new WebSocket hub.
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		connections: make(map[string]*Connection),
		topics:      make(map[string]map[string]struct{}),
		logger:      logger.With().Str("component", "ws_hub").Logger(),
	}
}

// Register adds a connection subscribed to topic.
func (h *Hub) Register(topic string, conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.connections[conn.ID()] = conn
	subs, ok := h.topics[topic]
	if !ok {
		subs = make(map[string]struct{})
		h.topics[topic] = subs
	}
	subs[conn.ID()] = struct{}{}
	conn.topic = topic

	h.logger.Debug().Str("conn_id", conn.ID()).Str("topic", topic).Msg("connection registered")
}

// Unregister closes and removes a connection.
func (h *Hub) Unregister(conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.connections[conn.ID()]; !ok {
		return
	}
	delete(h.connections, conn.ID())
	if subs, ok := h.topics[conn.topic]; ok {
		delete(subs, conn.ID())
		if len(subs) == 0 {
			delete(h.topics, conn.topic)
		}
	}
	conn.Close()

	h.logger.Debug().Str("conn_id", conn.ID()).Str("topic", conn.topic).Msg("connection unregistered")
}

// Publish sends msg to every connection subscribed to topic. It returns the
// number of connections the message was queued for.
func (h *Hub) Publish(topic string, msg Message) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for id := range h.topics[topic] {
		if err := h.connections[id].Send(msg); err != nil {
			h.logger.Warn().Err(err).Str("conn_id", id).Str("topic", topic).Msg("publish_send_failed")
			continue
		}
		delivered++
	}
	return delivered
}

// Subscribers reports how many connections follow topic.
func (h *Hub) Subscribers(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[topic])
}

// Close drops every connection. Used on shutdown.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, conn := range h.connections {
		conn.Close()
		delete(h.connections, id)
	}
	h.topics = make(map[string]map[string]struct{})
}

// Connection represents a WebSocket connection with send queue.
type Connection struct {
	id     string
	topic  string
	conn   *websocket.Conn
	sendCh chan Message
	mu     sync.Mutex
	closed bool
	logger zerolog.Logger
}

// NewConnection wraps a WebSocket connection.
func NewConnection(conn *websocket.Conn, logger zerolog.Logger) *Connection {
	id := uuid.NewString()
	return &Connection{
		id:     id,
		conn:   conn,
		sendCh: make(chan Message, sendBuffer),
		logger: logger.With().Str("conn_id", id).Logger(),
	}
}

// ID uniquely identifies the connection within the hub.
func (c *Connection) ID() string {
	return c.id
}

// Send queues a message for delivery.
func (c *Connection) Send(msg Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrConnectionClosed
	}

	select {
	case c.sendCh <- msg:
		return nil
	default:
		return ErrSendQueueFull
	}
}

// Close shuts down the connection.
func (c *Connection) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}

	c.closed = true
	close(c.sendCh)
}

// WritePump sends messages from the send queue and keeps the peer alive
// with pings. It returns when the queue is closed or a write fails.
func (c *Connection) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.sendCh:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				c.logger.Warn().Err(err).Msg("write error")
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ReadPump receives messages and calls the handler until the peer goes away.
func (c *Connection) ReadPump(handler func(Message) error) {
	defer c.conn.Close()

	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Warn().Err(err).Msg("read error")
			}
			return
		}

		if err := handler(msg); err != nil {
			c.logger.Warn().Err(err).Msg("message handler error")
		}
	}
}

var (
	ErrConnectionClosed = &Error{Code: "connection_closed", Message: "Connection is closed"}
	ErrSendQueueFull    = &Error{Code: "send_queue_full", Message: "Send queue is full"}
)

type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}
