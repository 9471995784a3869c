package chat

import (
	"context"
	"log"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Hub fans out full-channel snapshots to websocket subscribers, locally and
// across instances via Redis pub/sub.
type Hub struct {
	redis   *redis.Client
	clients map[string]map[*Client]struct{}
	mu      sync.RWMutex
}

type Client struct {
	PinID string
	Send  chan []byte
}

func NewHub(redisClient *redis.Client) *Hub {
	h := &Hub{
		redis:   redisClient,
		clients: map[string]map[*Client]struct{}{},
	}

	if redisClient != nil {
		go h.subscribeRedis()
	}
	return h
}

func (h *Hub) Subscribe(pinID string) *Client {
	client := &Client{
		PinID: pinID,
		Send:  make(chan []byte, 64),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[pinID] == nil {
		h.clients[pinID] = map[*Client]struct{}{}
	}
	h.clients[pinID][client] = struct{}{}
	return client
}

func (h *Hub) Unsubscribe(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if pinClients, ok := h.clients[client.PinID]; ok {
		delete(pinClients, client)
		if len(pinClients) == 0 {
			delete(h.clients, client.PinID)
		}
	}
	close(client.Send)
}

// Broadcast routes through Redis when configured so every instance (this one
// included) delivers via the subscription loop; otherwise fan-out is local.
func (h *Hub) Broadcast(pinID string, payload []byte) {
	if h.redis != nil {
		err := h.redis.Publish(context.Background(), redisChannel(pinID), payload).Err()
		if err == nil {
			return
		}
		log.Printf("redis publish error: %v", err)
	}
	h.deliverLocal(pinID, payload)
}

// deliverLocal holds the read lock for the whole fan-out so Unsubscribe
// cannot mutate the client set or close a Send channel mid-iteration. The
// sends are non-blocking, so the lock is never held on a full buffer.
func (h *Hub) deliverLocal(pinID string, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients[pinID] {
		select {
		case client.Send <- payload:
		default:
		}
	}
}

func (h *Hub) subscribeRedis() {
	ctx := context.Background()
	pubsub := h.redis.PSubscribe(ctx, "chats:*:broadcast")
	defer pubsub.Close()

	for msg := range pubsub.Channel() {
		if pinID := pinIDFromChannel(msg.Channel); pinID != "" {
			h.deliverLocal(pinID, []byte(msg.Payload))
		}
	}
}

func redisChannel(pinID string) string {
	return "chats:" + pinID + ":broadcast"
}

func pinIDFromChannel(ch string) string {
	// chats:{pin}:broadcast
	const prefix = "chats:"
	const suffix = ":broadcast"
	if !strings.HasPrefix(ch, prefix) || !strings.HasSuffix(ch, suffix) || len(ch) <= len(prefix)+len(suffix) {
		return ""
	}
	return ch[len(prefix) : len(ch)-len(suffix)]
}
