// internal/websocket/hub.go
package websocket

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"sync"
	"time"

	"whispr-service/internal/pkg/jwt"

	"go.uber.org/zap"
)

// Event is the wire envelope pushed to connected clients.
type Event struct {
	Type      string    `json:"type"`
	Channel   string    `json:"channel,omitempty"`
	Data      any       `json:"data,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func NewEvent(eventType, channel string, data any) *Event {
	return &Event{Type: eventType, Channel: channel, Data: data, Timestamp: time.Now()}
}

// Hub tracks connected clients per account and fans realtime events out
// to them. Channels of the form "notifications:<id>" target one account;
// anything else goes to every subscribed client.
type Hub struct {
	clients map[int64]map[*Client]bool
	mu      sync.RWMutex

	Register   chan *Client
	unregister chan *Client
	broadcast  chan *broadcastMessage

	verifier *jwt.Verifier
	logger   *zap.Logger
}

type broadcastMessage struct {
	userIDs []int64 // nil targets every subscriber
	channel string
	payload []byte
}

func NewHub(verifier *jwt.Verifier, logger *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[int64]map[*Client]bool),
		Register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *broadcastMessage, 256),
		verifier:   verifier,
		logger:     logger,
	}
}

// AuthenticateClient validates the access token handed over during the
// websocket handshake.
func (h *Hub) AuthenticateClient(token string) (*jwt.Claims, error) {
	return h.verifier.VerifyAccessToken(token)
}

func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return

		case client := <-h.Register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case msg := <-h.broadcast:
			h.deliver(msg)
		}
	}
}

// Emit satisfies the realtime collaborator contract: serialize, enqueue,
// never block. When the queue is full the event is dropped and logged.
func (h *Hub) Emit(channel string, payload any) {
	data, err := json.Marshal(NewEvent("event", channel, payload))
	if err != nil {
		h.logger.Error("event serialization failed", zap.String("channel", channel), zap.Error(err))
		return
	}

	msg := &broadcastMessage{channel: channel, payload: data}
	if id, ok := userChannelTarget(channel); ok {
		msg.userIDs = []int64{id}
	}

	select {
	case h.broadcast <- msg:
	default:
		h.logger.Warn("event queue full, dropping", zap.String("channel", channel))
	}
}

// userChannelTarget extracts the account id from "<topic>:<id>" channels.
func userChannelTarget(channel string) (int64, bool) {
	i := strings.LastIndexByte(channel, ':')
	if i < 0 {
		return 0, false
	}
	id, err := strconv.ParseInt(channel[i+1:], 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.clients[client.userID] == nil {
		h.clients[client.userID] = make(map[*Client]bool)
	}
	h.clients[client.userID][client] = true

	h.logger.Info("client connected",
		zap.Int64("userId", client.userID),
		zap.Int("total", h.totalLocked()),
	)

	client.SendEvent(NewEvent("connected", "", map[string]any{
		"userId": client.userID,
		"role":   client.role,
	}))
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients, ok := h.clients[client.userID]
	if !ok {
		return
	}
	if _, exists := clients[client]; !exists {
		return
	}
	delete(clients, client)
	client.Close()
	if len(clients) == 0 {
		delete(h.clients, client.userID)
	}

	h.logger.Info("client disconnected",
		zap.Int64("userId", client.userID),
		zap.Int("total", h.totalLocked()),
	)
}

func (h *Hub) deliver(msg *broadcastMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if msg.userIDs == nil {
		for _, clients := range h.clients {
			for client := range clients {
				if client.IsSubscribed(msg.channel) {
					client.Send(msg.payload)
				}
			}
		}
		return
	}

	for _, id := range msg.userIDs {
		for client := range h.clients[id] {
			if client.IsSubscribed(msg.channel) {
				client.Send(msg.payload)
			}
		}
	}
}

func (h *Hub) shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, clients := range h.clients {
		for client := range clients {
			client.Close()
		}
	}
	h.clients = make(map[int64]map[*Client]bool)
	h.logger.Info("hub shut down")
}

// ConnectedClients reports how many connections an account holds.
func (h *Hub) ConnectedClients(userID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

// TotalClients reports the total connection count.
func (h *Hub) TotalClients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.totalLocked()
}

func (h *Hub) totalLocked() int {
	total := 0
	for _, clients := range h.clients {
		total += len(clients)
	}
	return total
}
