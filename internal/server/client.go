// Package server manages individual WebSocket clients, handling read/write
// pumps, rate limiting, and lifecycle control for each connection.
package server

import (
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a frame to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong before the connection is considered dead.
	pongWait = 60 * time.Second

	// Ping period; must be shorter than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Outbound frame buffer per connection. When full, deliveries are dropped.
	sendBufferSize = 256
)

// Client is one connected peer: the WebSocket connection, its buffered send
// channel, and the identity assigned when it joins a room. userID and username
// are empty until the session processes a join and are immutable afterwards.
type Client struct {
	conn           *websocket.Conn
	send           chan []byte
	hub            *Hub
	session        *Session
	addr           string
	closed         bool
	maxMessageSize int64
	rateLimiter    *rateLimiter
	rateLimit      RateLimitConfig

	userID   string
	username string
}

// NewClient creates a Client for an upgraded WebSocket connection and attaches
// a fresh session state machine. The send channel is buffered so broadcasts
// never block on a single slow peer.
func NewClient(conn *websocket.Conn, hub *Hub, addr string) *Client {
	cfg := currentConfig()
	if conn != nil {
		conn.SetReadLimit(cfg.MaxMessageSize)
	}

	client := &Client{
		conn:           conn,
		send:           make(chan []byte, sendBufferSize),
		hub:            hub,
		addr:           addr,
		maxMessageSize: cfg.MaxMessageSize,
		rateLimiter:    newRateLimiter(cfg.RateLimit.Burst, cfg.RateLimit.RefillInterval),
		rateLimit:      cfg.RateLimit,
	}
	client.session = newSession(client, hub)
	return client
}

// GetSendChan returns the client's send channel for reading outgoing frames.
func (c *Client) GetSendChan() <-chan []byte {
	return c.send
}

func (c *Client) logger() *slog.Logger {
	return c.hub.log.With("addr", c.addr)
}

// setupReadConnection configures read deadlines and the pong handler.
func (c *Client) setupReadConnection() {
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.logger().Warn("set initial read deadline", "err", err)
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
}

// handleReadError classifies a read error and returns true when the read loop
// should stop. Expected disconnects are logged at debug level only.
func (c *Client) handleReadError(err error) bool {
	if err == nil {
		return false
	}

	switch {
	case errors.Is(err, websocket.ErrReadLimit):
		c.logger().Warn("frame exceeded read limit", "limit", c.maxMessageSize)
	case websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseAbnormalClosure):
		c.logger().Debug("client disconnected", "err", err)
	case errors.Is(err, io.EOF) || isExpectedCloseError(err):
		c.logger().Debug("connection closed", "err", err)
	case websocket.IsUnexpectedCloseError(err,
		websocket.CloseGoingAway,
		websocket.CloseAbnormalClosure,
		websocket.CloseMessageTooBig):
		c.logger().Warn("unexpected close", "err", err)
	default:
		c.logger().Warn("read error", "err", err)
	}
	return true
}

// checkRateLimit reports whether the next inbound frame may be processed.
// Frames over the limit are discarded; the connection stays up.
func (c *Client) checkRateLimit() bool {
	if c.rateLimiter != nil && !c.rateLimiter.allow() {
		c.logger().Warn("rate limit exceeded; discarding frame",
			"burst", c.rateLimit.Burst, "interval", c.rateLimit.RefillInterval)
		return false
	}
	return true
}

// readPump reads frames from the peer and feeds them to the session state
// machine. It is the only goroutine that touches the session, so session state
// needs no locking. On exit the session is closed before the client
// unregisters, which covers room departure and the user-left notification.
func (c *Client) readPump() {
	defer func() {
		c.session.handleDisconnect()
		c.hub.requestUnregister(c)
		if err := c.conn.Close(); err != nil && !isExpectedCloseError(err) {
			c.logger().Warn("close connection", "err", err)
		}
	}()

	c.setupReadConnection()

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if c.handleReadError(err) {
				return
			}
			continue
		}

		if !c.checkRateLimit() {
			continue
		}

		c.session.handleInbound(raw)
	}
}

// writePump drains the send channel onto the wire and keeps the connection
// alive with periodic pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		if err := c.conn.Close(); err != nil && !isExpectedCloseError(err) {
			c.logger().Warn("close connection", "err", err)
		}
	}()

	for {
		select {
		case payload, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if !ok {
				// The hub closed the channel.
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if !c.writeFrame(payload) {
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.hub.ctx.Done():
			return
		}
	}
}

// writeFrame writes one frame per WebSocket message. Frames are never batched:
// each payload must arrive as its own parseable JSON document.
func (c *Client) writeFrame(payload []byte) bool {
	if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		if !isExpectedCloseError(err) {
			c.logger().Warn("write frame", "err", err)
		}
		return false
	}
	return true
}
