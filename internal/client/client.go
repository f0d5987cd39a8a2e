// Package client speaks the table protocol from the player's side.
package client

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/gorilla/websocket"

	"github.com/lox/bridgetable/internal/bridge"
	"github.com/lox/bridgetable/internal/protocol"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 54 * time.Second
	bufferSize = 256
)

var ErrSendBufferFull = errors.New("send buffer full")

// Options configures a Client.
type Options struct {
	URL               string
	ReconnectAttempts int
	ReconnectDelay    time.Duration
	Clock             quartz.Clock
}

// Client is a websocket connection to a table. When the connection drops it
// redials and reclaims its seat with the token from the last roleAssigned.
type Client struct {
	opts   Options
	logger *log.Logger
	clock  quartz.Clock

	send     chan *protocol.Message
	incoming chan *protocol.Message

	mu    sync.Mutex
	conn  *websocket.Conn
	seat  bridge.Seat
	token string

	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
}

// New creates a client. Call Connect to dial.
func New(opts Options, logger *log.Logger) *Client {
	if opts.Clock == nil {
		opts.Clock = quartz.NewReal()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Client{
		opts:     opts,
		logger:   logger.WithPrefix("client"),
		clock:    opts.Clock,
		send:     make(chan *protocol.Message, bufferSize),
		incoming: make(chan *protocol.Message, bufferSize),
		seat:     -1,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// WebsocketURL converts a server URL such as http://host:8080 into the
// table's websocket endpoint.
func WebsocketURL(server string) (string, error) {
	u, err := url.Parse(server)
	if err != nil {
		return "", fmt.Errorf("invalid server URL: %w", err)
	}
	switch u.Scheme {
	case "http", "":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	if u.Host == "" {
		return "", fmt.Errorf("invalid server URL %q: missing host", server)
	}
	if !strings.HasSuffix(u.Path, "/ws") {
		u.Path = strings.TrimSuffix(u.Path, "/") + "/ws"
	}
	return u.String(), nil
}

// Connect dials the server and starts the connection loop.
func (c *Client) Connect(ctx context.Context) error {
	conn, err := c.dial(ctx)
	if err != nil {
		return err
	}
	c.logger.Info("Connected to server", "url", c.opts.URL)
	go c.run(conn)
	return nil
}

// Messages delivers every message from the server. It is closed when the
// client gives up on the connection or is closed.
func (c *Client) Messages() <-chan *protocol.Message {
	return c.incoming
}

// Close ends the connection for good.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		c.cancel()
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.conn != nil {
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			_ = c.conn.Close()
		}
	})
	return nil
}

// Role returns the seat and token from the latest roleAssigned.
func (c *Client) Role() (bridge.Seat, string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seat, c.token, c.seat.Valid()
}

// Send queues a message for the server.
func (c *Client) Send(mt protocol.MessageType, data any) error {
	msg, err := protocol.NewMessage(mt, data, c.clock.Now())
	if err != nil {
		return err
	}
	select {
	case <-c.ctx.Done():
		return c.ctx.Err()
	default:
	}
	select {
	case c.send <- msg:
		return nil
	default:
		return ErrSendBufferFull
	}
}

func (c *Client) ChooseRole(seat bridge.Seat) error {
	return c.Send(protocol.TypeChooseRole, protocol.ChooseRole{Seat: seat})
}

func (c *Client) ToggleReady() error {
	return c.Send(protocol.TypeToggleReady, nil)
}

func (c *Client) MakeBid(bid bridge.Bid) error {
	return c.Send(protocol.TypeMakeBid, protocol.MakeBid{Bid: bid})
}

func (c *Client) PlayCard(card bridge.Card) error {
	return c.Send(protocol.TypePlayCard, protocol.PlayCard{Card: card})
}

func (c *Client) AcknowledgeScores() error {
	return c.Send(protocol.TypeAcknowledgeScores, nil)
}

func (c *Client) Reconnect(seat bridge.Seat, token string) error {
	return c.Send(protocol.TypeReconnect, protocol.Reconnect{Seat: seat, Token: token})
}

// Observe asks for one seat's hand ("N") or all of them ("ALL").
func (c *Client) Observe(target string) error {
	return c.Send(protocol.TypeObserve, protocol.Observe{Seat: target})
}

func (c *Client) dial(ctx context.Context) (*websocket.Conn, error) {
	wsURL, err := WebsocketURL(c.opts.URL)
	if err != nil {
		return nil, err
	}
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()
	return conn, nil
}

func (c *Client) run(conn *websocket.Conn) {
	defer close(c.incoming)
	for conn != nil {
		err := c.serve(conn)
		if c.ctx.Err() != nil {
			return
		}
		c.logger.Warn("Connection lost", "error", err)
		conn = c.redial()
	}
}

// serve pumps one connection until it fails.
func (c *Client) serve(conn *websocket.Conn) error {
	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		c.writePump(conn, done)
	}()

	err := c.readPump(conn)
	close(done)
	_ = conn.Close()
	wg.Wait()
	return err
}

func (c *Client) redial() *websocket.Conn {
	for attempt := 1; attempt <= c.opts.ReconnectAttempts; attempt++ {
		timer := c.clock.NewTimer(c.opts.ReconnectDelay, "client", "redial")
		select {
		case <-timer.C:
		case <-c.ctx.Done():
			timer.Stop()
			return nil
		}

		conn, err := c.dial(c.ctx)
		if err != nil {
			c.logger.Warn("Reconnect failed", "attempt", attempt, "error", err)
			continue
		}
		if seat, token, ok := c.Role(); ok {
			msg, err := protocol.NewMessage(protocol.TypeReconnect, protocol.Reconnect{Seat: seat, Token: token}, c.clock.Now())
			if err == nil {
				_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
				err = conn.WriteJSON(msg)
			}
			if err != nil {
				c.logger.Warn("Failed to reclaim seat", "seat", seat, "error", err)
				_ = conn.Close()
				continue
			}
		}
		c.logger.Info("Reconnected", "attempt", attempt)
		return conn
	}
	c.logger.Error("Giving up on server", "attempts", c.opts.ReconnectAttempts)
	return nil
}

func (c *Client) readPump(conn *websocket.Conn) error {
	for {
		var msg protocol.Message
		if err := conn.ReadJSON(&msg); err != nil {
			return err
		}
		c.logger.Debug("Received message", "type", msg.Type)

		if msg.Type == protocol.TypeRoleAssigned {
			var role protocol.RoleAssigned
			if err := msg.Bind(&role); err == nil {
				c.mu.Lock()
				c.seat, c.token = role.Seat, role.Token
				c.mu.Unlock()
			}
		}

		select {
		case c.incoming <- &msg:
		case <-c.ctx.Done():
			return c.ctx.Err()
		}
	}
}

func (c *Client) writePump(conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case msg := <-c.send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(msg); err != nil {
				c.logger.Error("Failed to write message", "error", err)
				_ = conn.Close()
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		case <-c.ctx.Done():
			return
		}
	}
}
