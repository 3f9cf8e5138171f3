package websocket

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	// Fallback write deadline when no timeout is configured
	defaultWriteWait = 10 * time.Second

	// Fallback pong deadline when no timeout is configured
	defaultPongWait = 60 * time.Second

	// Maximum message size allowed from the peer
	maxMessageSize = 8192
)

// Client is one live WebSocket connection. Its read pump processes inbound
// frames sequentially, which is what guarantees per-connection event order.
type Client struct {
	// Transport-assigned connection id
	id string

	// The hub this client belongs to
	hub *Hub

	// The websocket connection
	conn *websocket.Conn

	// Buffered channel of outbound messages
	send chan []byte

	// Time allowed to read the next pong message from the peer
	pongWait time.Duration

	// Time allowed to write a message to the peer
	writeWait time.Duration

	logger zerolog.Logger

	// done channel signals client shutdown to in-flight sends
	done chan struct{}

	// closeOnce ensures the send channel is closed only once
	closeOnce sync.Once
}

// NewClient creates a Client for an upgraded connection. pongWait and
// writeWait come from config; non-positive values fall back to the defaults.
func NewClient(hub *Hub, conn *websocket.Conn, pongWait, writeWait time.Duration, logger zerolog.Logger) *Client {
	if pongWait <= 0 {
		pongWait = defaultPongWait
	}
	if writeWait <= 0 {
		writeWait = defaultWriteWait
	}

	id := uuid.New().String()
	return &Client{
		id:        id,
		hub:       hub,
		conn:      conn,
		send:      make(chan []byte, 64),
		pongWait:  pongWait,
		writeWait: writeWait,
		logger:    logger.With().Str("connection_id", id).Logger(),
		done:      make(chan struct{}),
	}
}

// pingPeriod is the interval between pings, kept under the pong deadline so
// a healthy peer always answers in time
func (c *Client) pingPeriod() time.Duration {
	return (c.pongWait * 9) / 10
}

// ID returns the transport-assigned connection id
func (c *Client) ID() string { return c.id }

// readPump pumps messages from the websocket connection to the event handler
func (c *Client) readPump() {
	defer func() {
		close(c.done)
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(c.pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(c.pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Debug().Err(err).Msg("websocket read error")
			}
			break
		}

		if c.hub.handler != nil {
			c.hub.handler.HandleEvent(c.id, message)
		}
	}
}

// writePump pumps messages from the hub to the websocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(c.pingPeriod())
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(c.writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(c.writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Start starts the client's read and write pumps
func (c *Client) Start() {
	go c.writePump()
	go c.readPump()
}

// Close safely closes the client's send channel (idempotent)
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		defer func() {
			recover() // absorb panic if channel was already closed
		}()
		close(c.send)
	})
}

// CloseConn closes the underlying connection, which unwinds the pumps
func (c *Client) CloseConn() {
	c.conn.Close()
}

// safeSend attempts to send a message, recovering from panic if the send
// channel is already closed
func (c *Client) safeSend(data []byte) (sent bool) {
	defer func() {
		if r := recover(); r != nil {
			sent = false
		}
	}()

	select {
	case c.send <- data:
		return true
	case <-c.done:
		return false
	default:
		return false
	}
}
