package notifications

import (
	"context"
	"errors"
	"sync"

	"forum/internal/observability"

	"github.com/gofiber/websocket/v2"
)

const (
	// Max connections per signed-in user
	maxConnsPerUser = 12
	// Max total connections
	maxTotalConns = 10000
)

var (
	ErrServerFull  = errors.New("server connection limit reached")
	ErrUserLimit   = errors.New("user connection limit reached")
	ErrHubShutdown = errors.New("feed hub is shutting down")
)

// Hub keeps every open feed connection. Anonymous viewers register as user 0
// and are only bounded by the global limit.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	perUser map[uint]int
	closed  bool
	log     *observability.WSLogger
}

// NewHub creates an empty feed hub.
func NewHub() *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		perUser: make(map[uint]int),
		log:     observability.NewWSLogger("feed hub"),
	}
}

// Name returns a human-readable identifier for this hub.
func (h *Hub) Name() string { return "feed hub" }

// Register adds a connection for userID.
func (h *Hub) Register(userID uint, conn *websocket.Conn) (*Client, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, ErrHubShutdown
	}
	if len(h.clients) >= maxTotalConns {
		return nil, ErrServerFull
	}
	if userID != 0 && h.perUser[userID] >= maxConnsPerUser {
		return nil, ErrUserLimit
	}

	client := NewClient(h, conn, userID)
	h.clients[client] = struct{}{}
	h.perUser[userID]++
	h.log.LogConnect(context.Background(), userID)
	return client, nil
}

// UnregisterClient removes client; calling it twice is harmless.
func (h *Hub) UnregisterClient(client *Client) {
	if client == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	h.perUser[client.UserID]--
	if h.perUser[client.UserID] <= 0 {
		delete(h.perUser, client.UserID)
	}
	h.log.LogDisconnect(context.Background(), client.UserID, "closed")
}

// ClientCount returns the number of open connections.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// BroadcastAll sends message to every connected client.
func (h *Hub) BroadcastAll(message []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		c.TrySend(message)
	}
}

// Deliver broadcasts an encoded event and counts it by type.
func (h *Hub) Deliver(message []byte) {
	event, err := DecodeEvent(message)
	if err != nil {
		h.log.LogError(context.Background(), err, "decode")
		return
	}
	observability.WebSocketEventsTotal.WithLabelValues(event.Type).Inc()
	h.BroadcastAll(message)
}

// StartWiring forwards every message on the feed channel to local clients.
func (h *Hub) StartWiring(ctx context.Context, n *Notifier) error {
	return n.StartFeedSubscriber(ctx, func(payload string) {
		h.Deliver([]byte(payload))
	})
}

// Shutdown closes all connections and rejects new ones.
func (h *Hub) Shutdown(_ context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	h.closed = true

	for client := range h.clients {
		client.Close()
	}
	h.clients = make(map[*Client]struct{})
	h.perUser = make(map[uint]int)
	return nil
}
