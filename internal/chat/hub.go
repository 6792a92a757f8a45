package chat

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/bogobit/community-server-go/internal/config"
	redisclient "github.com/bogobit/community-server-go/internal/redis"
)

const (
	HeartbeatInterval = 30 * time.Second

	EventTypeMessage   = "message"
	EventTypeConnected = "connected"
)

type Event struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Client is one live connection. It exists only after the handshake
// resolved an authenticated identity, and is owned by the Hub until
// Unsubscribe.
type Client struct {
	ID           string
	SessionToken string
	UserID       int64
	ConnectedAt  time.Time
	Events       chan Event
	Done         chan struct{}

	closeOnce sync.Once
}

func (c *Client) close() {
	c.closeOnce.Do(func() {
		close(c.Done)
	})
}

// Hub owns the connection registry and fans chat events out to every live
// client. Events travel through a redis pub/sub channel, so with several
// server instances every hub sees the same event stream in the same order.
type Hub struct {
	redis   *redisclient.Client
	clients map[*Client]bool
	byToken map[string]map[*Client]bool
	mu      sync.RWMutex
	ctx     context.Context
	cancel  context.CancelFunc
}

func NewHub(redisClient *redisclient.Client) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	h := &Hub{
		redis:   redisClient,
		clients: make(map[*Client]bool),
		byToken: make(map[string]map[*Client]bool),
		ctx:     ctx,
		cancel:  cancel,
	}
	go h.subscribeToRedis()
	return h
}

// Subscribe registers a connection for an already-authenticated identity.
// The caller must have resolved the session token first; the hub never
// creates an entry for a guest.
func (h *Hub) Subscribe(sessionToken string, userID int64) *Client {
	client := &Client{
		ID:           uuid.NewString(),
		SessionToken: sessionToken,
		UserID:       userID,
		ConnectedAt:  time.Now(),
		Events:       make(chan Event, config.ChatEventBufferSize),
		Done:         make(chan struct{}),
	}

	h.mu.Lock()
	h.clients[client] = true
	if h.byToken[sessionToken] == nil {
		h.byToken[sessionToken] = make(map[*Client]bool)
	}
	h.byToken[sessionToken][client] = true
	total := len(h.clients)
	h.mu.Unlock()

	log.Info().
		Str("connectionId", client.ID).
		Int64("userId", userID).
		Int("clientCount", total).
		Msg("chat client subscribed")

	return client
}

func (h *Hub) Unsubscribe(client *Client) {
	h.mu.Lock()
	h.remove(client)
	total := len(h.clients)
	h.mu.Unlock()

	log.Info().
		Str("connectionId", client.ID).
		Int("clientCount", total).
		Msg("chat client unsubscribed")
}

// remove must be called with h.mu held.
func (h *Hub) remove(client *Client) {
	delete(h.clients, client)
	if set, ok := h.byToken[client.SessionToken]; ok {
		delete(set, client)
		if len(set) == 0 {
			delete(h.byToken, client.SessionToken)
		}
	}
	client.close()
}

// DisconnectToken drops every live connection bound to a session token.
// Called on logout so a destroyed session cannot keep an open chat
// connection alive in another tab.
func (h *Hub) DisconnectToken(sessionToken string) {
	h.mu.Lock()
	var dropped []*Client
	for client := range h.byToken[sessionToken] {
		dropped = append(dropped, client)
	}
	for _, client := range dropped {
		h.remove(client)
	}
	h.mu.Unlock()

	if len(dropped) > 0 {
		log.Info().
			Int("count", len(dropped)).
			Msg("chat connections dropped for destroyed session")
	}
}

// Publish sends an event into the room channel. Callers serialize
// persist-then-publish themselves; redis preserves publish order per
// channel, so broadcast order equals publish order.
func (h *Hub) Publish(ctx context.Context, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return h.redis.Publish(ctx, redisclient.ChatChannel(), data).Err()
}

func (h *Hub) subscribeToRedis() {
	pubsub := h.redis.Subscribe(h.ctx, redisclient.ChatChannel())
	defer pubsub.Close()

	log.Debug().Str("channel", redisclient.ChatChannel()).Msg("redis pubsub subscribed")

	ch := pubsub.Channel()

	for {
		select {
		case <-h.ctx.Done():
			return

		case msg, ok := <-ch:
			if !ok {
				return
			}

			var event Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				log.Error().Err(err).Msg("failed to unmarshal chat event")
				continue
			}

			h.broadcast(event)
		}
	}
}

// broadcast delivers one event to a consistent snapshot of the registry.
// A client whose buffer is full is dropped and disconnected rather than
// allowed to stall delivery to everyone else.
func (h *Hub) broadcast(event Event) {
	h.mu.RLock()
	snapshot := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		snapshot = append(snapshot, client)
	}
	h.mu.RUnlock()

	var overflowed []*Client
	for _, client := range snapshot {
		select {
		case client.Events <- event:
		default:
			overflowed = append(overflowed, client)
		}
	}

	if len(overflowed) > 0 {
		h.mu.Lock()
		for _, client := range overflowed {
			h.remove(client)
		}
		h.mu.Unlock()

		for _, client := range overflowed {
			log.Warn().
				Str("connectionId", client.ID).
				Msg("client event buffer full, disconnecting slow client")
		}
	}
}

func (h *Hub) Close() {
	h.cancel()

	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		client.close()
	}
	h.clients = make(map[*Client]bool)
	h.byToken = make(map[string]map[*Client]bool)
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
