package ws

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"chatline/domain"
	"chatline/domain/event"
	"chatline/errors"
	"chatline/runtime"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	maxInboundBytes = 64 * 1024
)

// Conn is one live transport session: the ConnectionHandle of the realtime
// core. The write pump is the only goroutine that touches the socket's write
// side, so concurrent fan-outs cannot interleave their frames; they queue on
// the bounded send buffer instead.
type Conn struct {
	id     domain.ConnID
	socket *websocket.Conn
	send   chan []byte
	router *runtime.Router
	log    *slog.Logger

	closeOnce sync.Once
	done      chan struct{}
}

func NewConn(socket *websocket.Conn, router *runtime.Router, bufferSize int, log *slog.Logger) *Conn {
	return &Conn{
		id:     domain.ConnID(uuid.NewString()),
		socket: socket,
		send:   make(chan []byte, bufferSize),
		router: router,
		log:    log,
		done:   make(chan struct{}),
	}
}

func (c *Conn) ID() domain.ConnID {
	return c.id
}

// Consume encodes the event and enqueues it without blocking. A full buffer
// means this peer cannot keep up; the caller drops and disconnects it rather
// than stalling the fan-out.
func (c *Conn) Consume(ctx context.Context, e event.DomainEvent) error {
	payload, err := EncodeEvent(e)
	if err != nil {
		return err
	}

	select {
	case <-c.done:
		return nil
	case c.send <- payload:
		return nil
	default:
		return errors.ErrSlowConsumer
	}
}

// Close is idempotent; the router may call it on top of a read-pump
// initiated shutdown.
func (c *Conn) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.socket.Close()
	})
}

// ReadPump consumes inbound frames until the peer goes away, then runs the
// disconnect sequence exactly once. Runs on its own goroutine per connection.
func (c *Conn) ReadPump(ctx context.Context) {
	defer c.router.Disconnect(ctx, c)

	c.socket.SetReadLimit(maxInboundBytes)
	_ = c.socket.SetReadDeadline(time.Now().Add(pongWait))
	c.socket.SetPongHandler(func(string) error {
		return c.socket.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.socket.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.log.Warn("Websocket read failed", "conn", c.id, "error", err)
			}
			return
		}
		if err := c.router.HandleInbound(ctx, c, raw); err != nil {
			// Errors concern only this connection; peers never see them.
			c.log.Warn("Inbound event rejected", "conn", c.id, "error", err)
		}
	}
}

// WritePump drains the send buffer onto the socket and keeps the connection
// alive with pings. Runs on its own goroutine per connection.
func (c *Conn) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case <-c.done:
			return
		case payload := <-c.send:
			_ = c.socket.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.socket.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.socket.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.socket.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
