// internal/websocket/client.go
package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
)

// Client is one authenticated websocket connection. Every client is
// implicitly subscribed to its own notifications channel; the public feed
// channel requires an explicit subscribe message.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	userID int64
	role   string

	subscriptions map[string]bool
	subMutex      sync.RWMutex

	ctx    context.Context
	cancel context.CancelFunc
	closed sync.Once
}

func NewClient(hub *Hub, conn *websocket.Conn, userID int64, role string) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Client{
		hub:           hub,
		conn:          conn,
		send:          make(chan []byte, 256),
		userID:        userID,
		role:          role,
		subscriptions: make(map[string]bool),
		ctx:           ctx,
		cancel:        cancel,
	}
	c.subscriptions[fmt.Sprintf("notifications:%d", userID)] = true
	return c
}

func (c *Client) Subscribe(channel string) {
	c.subMutex.Lock()
	defer c.subMutex.Unlock()
	c.subscriptions[channel] = true
}

func (c *Client) Unsubscribe(channel string) {
	c.subMutex.Lock()
	defer c.subMutex.Unlock()
	delete(c.subscriptions, channel)
}

func (c *Client) IsSubscribed(channel string) bool {
	c.subMutex.RLock()
	defer c.subMutex.RUnlock()
	return c.subscriptions[channel]
}

// Send enqueues a payload, dropping it if the client cannot keep up.
func (c *Client) Send(payload []byte) {
	select {
	case c.send <- payload:
	default:
		c.hub.logger.Warn("client send buffer full, dropping",
			zap.Int64("userId", c.userID),
		)
	}
}

func (c *Client) SendEvent(e *Event) {
	data, err := json.Marshal(e)
	if err != nil {
		c.hub.logger.Error("event serialization failed", zap.Error(err))
		return
	}
	c.Send(data)
}

func (c *Client) Close() {
	c.closed.Do(func() {
		c.cancel()
		close(c.send)
	})
}

// ReadPump handles incoming messages from the client.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					c.hub.logger.Warn("websocket read error",
						zap.Int64("userId", c.userID),
						zap.Error(err),
					)
				}
				return
			}
			c.handleMessage(data)
		}
	}
}

// WritePump handles outgoing messages and keepalive pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-c.ctx.Done():
			return
		case payload, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

type clientMessage struct {
	Type     string   `json:"type"`
	Channels []string `json:"channels,omitempty"`
}

func (c *Client) handleMessage(data []byte) {
	var msg clientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		c.SendEvent(NewEvent("error", "", map[string]any{"message": "invalid message"}))
		return
	}

	switch msg.Type {
	case "ping":
		c.SendEvent(NewEvent("pong", "", nil))

	case "subscribe":
		for _, channel := range msg.Channels {
			if !c.allowed(channel) {
				continue
			}
			c.Subscribe(channel)
		}
		c.SendEvent(NewEvent("subscribed", "", map[string]any{"channels": msg.Channels}))

	case "unsubscribe":
		for _, channel := range msg.Channels {
			c.Unsubscribe(channel)
		}
		c.SendEvent(NewEvent("unsubscribed", "", map[string]any{"channels": msg.Channels}))
	}
}

// allowed keeps clients out of other accounts' targeted channels.
func (c *Client) allowed(channel string) bool {
	id, ok := userChannelTarget(channel)
	if !ok {
		return true
	}
	return id == c.userID || c.role == "admin"
}
