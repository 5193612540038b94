package client

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/brandosha/socialdistanceroom/internal/protocol"
	"github.com/brandosha/socialdistanceroom/internal/server"
)

// ErrNameTaken means the relay refused the connection because another peer
// in the room already uses the name.
var ErrNameTaken = errors.New("name already taken in this room")

// Transport carries envelopes between the peer and the rest of the room.
type Transport interface {
	Send(env *protocol.Envelope) error
	Receive() <-chan *protocol.Envelope
	Close() error
}

// Conn is the WebSocket transport to the relay.
type Conn struct {
	conn      *websocket.Conn
	send      chan *protocol.Envelope
	receive   chan *protocol.Envelope
	logger    *log.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once

	// err records why the read side stopped, written before receive is
	// closed and read only after it closes.
	err error
}

// Dial connects to the relay and joins a room. The relay URL may use http,
// https, ws, or wss schemes.
func Dial(serverURL, room, name string, logger *log.Logger) (*Conn, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return nil, fmt.Errorf("invalid server URL: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	u.Path = "/rooms/" + url.PathEscape(room) + "/" + url.PathEscape(name)

	wsConn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Conn{
		conn:    wsConn,
		send:    make(chan *protocol.Envelope, 256),
		receive: make(chan *protocol.Envelope, 256),
		logger:  logger.WithPrefix("conn"),
		ctx:     ctx,
		cancel:  cancel,
	}

	go c.readPump()
	go c.writePump()

	c.logger.Info("Connected to relay", "room", room, "name", name)
	return c, nil
}

// Send queues an envelope for the relay.
func (c *Conn) Send(env *protocol.Envelope) error {
	select {
	case c.send <- env:
		return nil
	case <-c.ctx.Done():
		return c.ctx.Err()
	default:
		return errors.New("send buffer full")
	}
}

// Receive returns the channel of envelopes from the relay. The channel is
// closed when the connection shuts down.
func (c *Conn) Receive() <-chan *protocol.Envelope {
	return c.receive
}

// Err reports why the connection ended. It is only meaningful after the
// Receive channel has closed.
func (c *Conn) Err() error {
	return c.err
}

// Close shuts the transport down.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		c.cancel()
		_ = c.conn.Close()
	})
	return nil
}

// readPump handles incoming envelopes from the relay
func (c *Conn) readPump() {
	defer func() {
		_ = c.Close()
		close(c.receive)
	}()

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
		}

		var env protocol.Envelope
		err := c.conn.ReadJSON(&env)
		if err != nil {
			var closeErr *websocket.CloseError
			if errors.As(err, &closeErr) && closeErr.Code == server.CloseNameTaken {
				c.logger.Warn("Relay rejected our name")
				c.err = ErrNameTaken
				return
			}
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error("WebSocket error", "error", err)
			}
			return
		}

		select {
		case c.receive <- &env:
		case <-c.ctx.Done():
			return
		}
	}
}

// writePump handles outgoing envelopes to the relay
func (c *Conn) writePump() {
	ticker := time.NewTicker(54 * time.Second) // Ping interval
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case env, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteJSON(env); err != nil {
				c.logger.Error("Failed to write envelope", "error", err)
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.ctx.Done():
			return
		}
	}
}

// NopTransport is a transport into an empty room, used by the local
// single-player mode. Sends vanish, nothing ever arrives.
type NopTransport struct {
	receive chan *protocol.Envelope
	once    sync.Once
}

// NewNopTransport creates a transport with no peers behind it.
func NewNopTransport() *NopTransport {
	return &NopTransport{receive: make(chan *protocol.Envelope)}
}

func (n *NopTransport) Send(env *protocol.Envelope) error  { return nil }
func (n *NopTransport) Receive() <-chan *protocol.Envelope { return n.receive }

func (n *NopTransport) Close() error {
	n.once.Do(func() { close(n.receive) })
	return nil
}
