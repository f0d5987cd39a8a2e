package server

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/lox/bridgetable/internal/protocol"
	"github.com/lox/bridgetable/internal/table"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 8192
)

var (
	ErrConnectionClosed = errors.New("connection closed")
	ErrSendBufferFull   = errors.New("send buffer full")
)

// Connection represents a WebSocket connection to a client
type Connection struct {
	id        table.ConnID
	conn      *websocket.Conn
	send      chan *protocol.Message
	hub       *Hub
	logger    *log.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
}

// NewConnection wraps an upgraded websocket. The connection lives until
// parent is cancelled or either side closes it.
func NewConnection(parent context.Context, ws *websocket.Conn, hub *Hub, logger *log.Logger, buffer int) *Connection {
	ctx, cancel := context.WithCancel(parent)
	id := table.ConnID(uuid.NewString())

	return &Connection{
		id:     id,
		conn:   ws,
		send:   make(chan *protocol.Message, buffer),
		hub:    hub,
		logger: logger.WithPrefix("conn").With("conn", id),
		ctx:    ctx,
		cancel: cancel,
	}
}

// ID returns the connection identity used by the session.
func (c *Connection) ID() table.ConnID { return c.id }

// Start begins handling the connection
func (c *Connection) Start() {
	go c.writePump()
	go c.readPump()
}

// Close closes the connection
func (c *Connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.cancel()
		err = c.conn.Close()
	})
	return err
}

// Send queues a message for the client. A client that cannot keep up is
// disconnected rather than allowed to stall the hub.
func (c *Connection) Send(msg *protocol.Message) error {
	select {
	case <-c.ctx.Done():
		return ErrConnectionClosed
	default:
	}

	select {
	case c.send <- msg:
		return nil
	default:
		c.logger.Warn("Connection send buffer full, closing connection")
		_ = c.Close()
		return ErrSendBufferFull
	}
}

// readPump forwards frames to the hub and reports the disconnect when the
// socket goes away.
func (c *Connection) readPump() {
	defer func() {
		_ = c.Close()
		// The hub may already be gone during shutdown.
		ctx, cancel := context.WithTimeout(context.Background(), writeWait)
		defer cancel()
		_ = c.hub.Disconnect(ctx, c.id)
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, frame, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error("WebSocket error", "error", err)
			}
			return
		}
		if err := c.hub.Deliver(c.ctx, c.id, frame); err != nil {
			return
		}
	}
}

// writePump drains the send queue and keeps the peer alive with pings.
func (c *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.Close()
	}()

	for {
		select {
		case message := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(message); err != nil {
				c.logger.Debug("Failed to write message", "error", err)
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.ctx.Done():
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			return
		}
	}
}
