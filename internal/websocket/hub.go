package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"peoples-bill-be/internal/pkg/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const fanoutChannel = "bill_events"

// Notice is what websocket clients receive for every domain event.
type Notice struct {
	Type       string                 `json:"type"`
	Data       map[string]interface{} `json:"data"`
	OccurredAt time.Time              `json:"occurred_at"`
}

// fanoutMessage carries a serialized notice between instances. Origin lets
// an instance skip the copy it published itself.
type fanoutMessage struct {
	Origin  string          `json:"origin"`
	Message json.RawMessage `json:"message"`
}

// Hub broadcasts bill notices to every connected client. With Redis, notices
// published on one instance reach the clients of all instances.
type Hub struct {
	clients    map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex

	rdb    *redis.Client
	origin string
	logger logger.ILogger
}

func NewHub(rdb *redis.Client, log logger.ILogger) *Hub {
	return &Hub{
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		rdb:        rdb,
		origin:     uuid.NewString(),
		logger:     log,
	}
}

// Run serves registrations until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	if h.rdb != nil {
		go h.subscribeToRedis(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for c := range h.clients {
				delete(h.clients, c)
				close(c.Send)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = struct{}{}
			n := len(h.clients)
			h.mu.Unlock()
			h.logger.Debug("HUB", "Client registered", map[string]interface{}{"clients": n})

		case client := <-h.unregister:
			h.drop(client)
		}
	}
}

func (h *Hub) drop(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.Send)
	}
}

// ClientCount reports how many clients are connected to this instance.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast delivers the notice locally and to the other instances.
func (h *Hub) Broadcast(notice Notice) {
	data, err := json.Marshal(notice)
	if err != nil {
		h.logger.Error("HUB", "Failed to encode notice", map[string]interface{}{"type": notice.Type, "error": err.Error()})
		return
	}
	h.deliver(notice, data)

	if h.rdb != nil {
		payload, _ := json.Marshal(fanoutMessage{Origin: h.origin, Message: data})
		if err := h.rdb.Publish(context.Background(), fanoutChannel, payload).Err(); err != nil {
			h.logger.Warn("HUB", "Failed to fan out notice", map[string]interface{}{"error": err.Error()})
		}
	}
}

// deliver never blocks: a client whose buffer is full is disconnected.
func (h *Hub) deliver(notice Notice, data []byte) {
	var slow []*Client
	h.mu.RLock()
	for c := range h.clients {
		if !c.Filter.Matches(notice) {
			continue
		}
		select {
		case c.Send <- data:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		h.logger.Warn("HUB", "Client send buffer full, disconnecting", nil)
		h.drop(c)
	}
}

func (h *Hub) subscribeToRedis(ctx context.Context) {
	pubsub := h.rdb.Subscribe(ctx, fanoutChannel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var payload fanoutMessage
			if err := json.Unmarshal([]byte(msg.Payload), &payload); err != nil {
				h.logger.Warn("HUB", "Dropping malformed fan-out message", map[string]interface{}{"error": err.Error()})
				continue
			}
			if payload.Origin == h.origin {
				continue
			}
			var notice Notice
			if err := json.Unmarshal(payload.Message, &notice); err != nil {
				h.logger.Warn("HUB", "Dropping undecodable notice", map[string]interface{}{"error": err.Error()})
				continue
			}
			h.deliver(notice, payload.Message)
		}
	}
}
