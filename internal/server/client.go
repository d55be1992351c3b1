// Package server manages individual WebSocket clients, handling read/write
// pumps, rate limiting, and lifecycle control for each connection.
package server

import (
	"errors"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	pongWait     = 60 * time.Second
	pingInterval = 54 * time.Second
	writeWait    = 10 * time.Second
)

// Client represents one WebSocket connection. It owns the transport-level
// state (pumps, send buffer, throttle) and the session the coordinator
// drives. The session field is touched only from the hub's event loop.
type Client struct {
	id      string
	conn    *websocket.Conn
	send    chan []byte
	hub     *Hub
	addr    string
	closed  bool
	limiter *frameThrottle
	log     zerolog.Logger

	session session
}

// NewClient creates a Client for the given connection. The client's send
// channel is buffered so broadcast fan-out never blocks the hub loop. The
// generated ID is the opaque handle bound into the user registry on join.
func NewClient(conn *websocket.Conn, hub *Hub, addr string) *Client {
	id := uuid.NewString()
	cfg := hub.cfg
	if conn != nil {
		conn.SetReadLimit(cfg.MaxMessageSize)
	}

	return &Client{
		id:      id,
		conn:    conn,
		send:    make(chan []byte, 256),
		hub:     hub,
		addr:    addr,
		limiter: newFrameThrottle(cfg.RateLimit),
		log:     hub.log.With().Str("conn_id", id).Str("addr", addr).Logger(),
	}
}

// readPump reads frames off the wire and hands them to the hub loop. It
// exits on any read error and triggers unregistration, which the hub treats
// as an implicit leave.
func (c *Client) readPump() {
	defer func() {
		// The hub loop may already be gone during shutdown.
		select {
		case c.hub.unregister <- c:
		case <-c.hub.ctx.Done():
		}
		if err := c.conn.Close(); err != nil && !isExpectedCloseError(err) {
			c.log.Warn().Err(err).Msg("error closing connection in readPump")
		}
	}()

	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.log.Warn().Err(err).Msg("error setting initial read deadline")
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			c.logReadError(err)
			return
		}

		if !c.limiter.allow() {
			c.log.Warn().
				Int("burst", c.hub.cfg.RateLimit.Burst).
				Dur("refill_interval", c.hub.cfg.RateLimit.RefillInterval).
				Msg("rate limit exceeded; discarding frame")
			continue
		}

		select {
		case c.hub.inbound <- inboundFrame{client: c, payload: raw}:
		case <-c.hub.ctx.Done():
			return
		}
	}
}

func (c *Client) logReadError(err error) {
	switch {
	case errors.Is(err, websocket.ErrReadLimit):
		c.log.Warn().Int64("max_message_size", c.hub.cfg.MaxMessageSize).Msg("frame exceeded maximum size")
	case websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseAbnormalClosure):
		c.log.Info().Err(err).Msg("client disconnected")
	case errors.Is(err, io.EOF) || isExpectedCloseError(err):
		c.log.Info().Err(err).Msg("connection closed")
	default:
		c.log.Warn().Err(err).Msg("WebSocket read error")
	}
}

// writePump drains the send channel onto the wire and keeps the connection
// alive with periodic pings. It exits when the send channel is closed by the
// hub or when any write fails.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		if err := c.conn.Close(); err != nil && !isExpectedCloseError(err) {
			c.log.Warn().Err(err).Msg("error closing connection in writePump")
		}
	}()

	for {
		select {
		case message, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				c.log.Warn().Err(err).Msg("error setting write deadline")
				return
			}
			if !ok {
				if err := c.conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil && !isExpectedCloseError(err) {
					c.log.Warn().Err(err).Msg("error writing close message")
				}
				return
			}
			if !c.writeFrame(message) {
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				c.log.Warn().Err(err).Msg("error setting write deadline for ping")
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				if !isExpectedCloseError(err) {
					c.log.Warn().Err(err).Msg("error writing ping message")
				}
				return
			}
		}
	}
}

// writeFrame writes one frame and any frames queued behind it, separated by
// newlines so a slow reader still receives every event.
func (c *Client) writeFrame(message []byte) bool {
	w, err := c.conn.NextWriter(websocket.TextMessage)
	if err != nil {
		c.log.Warn().Err(err).Msg("error creating writer")
		return false
	}

	if _, err := w.Write(message); err != nil {
		c.log.Warn().Err(err).Msg("error writing frame")
		return false
	}

	n := len(c.send)
	for i := 0; i < n; i++ {
		if _, err := w.Write([]byte{'\n'}); err != nil {
			c.log.Warn().Err(err).Msg("error writing frame separator")
			return false
		}
		if _, err := w.Write(<-c.send); err != nil {
			c.log.Warn().Err(err).Msg("error writing queued frame")
			return false
		}
	}

	if err := w.Close(); err != nil {
		c.log.Warn().Err(err).Msg("error closing frame writer")
		return false
	}
	return true
}
