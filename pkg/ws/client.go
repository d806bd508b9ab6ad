package ws

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/koor-works/koor-backend/pkg/config"
	"github.com/koor-works/koor-backend/pkg/logger"
)

// Conn is the subset of *websocket.Conn the hub relies on. Tests substitute
// an in-memory implementation.
type Conn interface {
	ReadMessage() (int, []byte, error)
	WriteMessage(messageType int, data []byte) error
	SetReadLimit(limit int64)
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	SetPongHandler(h func(string) error)
	Close() error
}

// InboundHandler receives every text frame a client sends.
type InboundHandler func(ctx context.Context, client *Client, payload []byte)

// Client is one WebSocket connection attached to the hub.
type Client struct {
	UserID uuid.UUID

	hub  *Hub
	conn Conn
	cfg  config.ChatConfig
	logg *logger.Logger

	send      chan []byte
	sendOnce  sync.Once
	rooms     map[string]struct{}
	onMessage InboundHandler
	onClose   func(*Client)
}

// Attach registers a new client on the hub and starts its read and write
// loops. onClose, when set, runs once after the read loop ends.
func Attach(ctx context.Context, hub *Hub, conn Conn, userID uuid.UUID, cfg config.ChatConfig, logg *logger.Logger, onMessage InboundHandler, onClose func(*Client)) *Client {
	client := &Client{
		UserID:    userID,
		hub:       hub,
		conn:      conn,
		cfg:       cfg,
		logg:      logg,
		send:      make(chan []byte, cfg.SendQueueSize),
		rooms:     make(map[string]struct{}),
		onMessage: onMessage,
		onClose:   onClose,
	}

	select {
	case hub.register <- client:
	case <-hub.done:
		conn.Close()
		return client
	}

	go client.readPump(ctx)
	go client.writePump()

	return client
}

// Send queues a payload to this client only. It reports false when the queue
// is full or already closed.
func (c *Client) Send(payload []byte) bool {
	return c.trySend(payload)
}

func (c *Client) readPump(ctx context.Context) {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
		if c.onClose != nil {
			c.onClose(c)
		}
	}()

	c.conn.SetReadLimit(c.cfg.MaxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongTimeout))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongTimeout))
	})

	for {
		msgType, payload, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logg.Warn(c.logg.WithField(ctx, "error", err.Error()), "websocket read failed")
			}
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}
		if c.onMessage != nil {
			c.onMessage(ctx, c, payload)
		}
	}
}

func (c *Client) writePump() {
	pingInterval := c.cfg.PongTimeout * 9 / 10
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) trySend(payload []byte) bool {
	defer func() { recover() }()
	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

func (c *Client) closeSend() {
	c.sendOnce.Do(func() { close(c.send) })
}
