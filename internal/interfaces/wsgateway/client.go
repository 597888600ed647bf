package wsgateway

import (
	"context"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vitalabs/competition-engine/internal/eventbus"
	"github.com/vitalabs/competition-engine/internal/platform/logging"
)

// sendBufferSize is the per-client outbound buffer; a slow reader loses its
// oldest unsent frames rather than blocking the publisher or the broker
// fan-out.
const sendBufferSize = 256

// client is one authenticated WebSocket session: one broker subscription
// fanned into one connection, plus the welcome frame and (dev-only) echo.
type client struct {
	conn   *websocket.Conn
	sub    *eventbus.Subscriber
	send   chan []byte
	userID string

	pingInterval  time.Duration
	writeDeadline time.Duration
	devEcho       bool
	logger        *logging.Logger

	closeOnce chan struct{}
}

func newClient(conn *websocket.Conn, sub *eventbus.Subscriber, userID string, g *Gateway) *client {
	return &client{
		conn:          conn,
		sub:           sub,
		send:          make(chan []byte, sendBufferSize),
		userID:        userID,
		pingInterval:  g.pingInterval,
		writeDeadline: g.writeDeadline,
		devEcho:       g.devEcho,
		logger:        g.logger,
		closeOnce:     make(chan struct{}),
	}
}

// enqueue pushes a raw frame onto the send buffer, dropping the oldest
// queued frame if the client isn't draining fast enough.
func (c *client) enqueue(payload []byte) {
	select {
	case c.send <- payload:
		return
	default:
	}

	select {
	case <-c.send:
		c.logger.Warn("ws send buffer full, dropping oldest message", "user_id", c.userID)
	default:
	}
	select {
	case c.send <- payload:
	default:
	}
}

func (c *client) close() {
	select {
	case <-c.closeOnce:
	default:
		close(c.closeOnce)
		_ = c.conn.Close()
		_ = c.sub.Close()
	}
}

// forwardBroker copies every broker message for this session onto the
// send buffer, verbatim.
func (c *client) forwardBroker(ctx context.Context) {
	for {
		select {
		case msg, ok := <-c.sub.Messages():
			if !ok {
				c.close()
				return
			}
			c.enqueue([]byte(msg.Payload))
		case <-c.closeOnce:
			return
		case <-ctx.Done():
			return
		}
	}
}

// pongWait allows two missed pings before the connection is considered
// dead.
func (c *client) pongWait() time.Duration {
	return 2 * c.pingInterval
}

// writePump is the only goroutine allowed to write to conn, per gorilla's
// single-writer requirement. It drains the send buffer and emits periodic
// pings on pingInterval.
func (c *client) writePump() {
	ticker := time.NewTicker(c.pingInterval)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.writeDeadline))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.writeDeadline))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.closeOnce:
			return
		}
	}
}

// readPump drains incoming frames so pong control frames and close frames
// are processed, resetting the read deadline on every pong (two missed
// pongs lets the deadline lapse and ReadMessage returns an error). In dev
// mode only, client frames are echoed back verbatim for smoke-testing.
func (c *client) readPump() {
	defer c.close()

	_ = c.conn.SetReadDeadline(time.Now().Add(c.pongWait()))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(c.pongWait()))
		return nil
	})

	for {
		_, payload, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		if c.devEcho {
			c.enqueue(payload)
		}
	}
}
