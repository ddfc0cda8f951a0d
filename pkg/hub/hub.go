package hub

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/teslashibe/go-figure/internal/log"
)

// DefaultClientBuffer is the per-client queue length before a client counts as slow.
const DefaultClientBuffer = 64

// Hub maintains the set of active clients and broadcasts messages to them
type Hub struct {
	// Name for logging
	name string

	// Registered clients
	clients map[*Client]bool

	// Inbound messages to broadcast
	broadcast chan Message

	// Register requests from clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Closed when Run returns
	done chan struct{}

	// Queue length for new clients
	clientBuffer int

	// Mutex for client count (read-only access from outside)
	mu sync.RWMutex

	// Diagnostics
	dropped uint64
	sent    uint64
}

// New creates a new Hub
func New(name string, clientBuffer int) *Hub {
	if clientBuffer <= 0 {
		clientBuffer = DefaultClientBuffer
	}
	return &Hub{
		name:         name,
		clients:      make(map[*Client]bool),
		broadcast:    make(chan Message, 256),
		register:     make(chan *Client),
		unregister:   make(chan *Client),
		done:         make(chan struct{}),
		clientBuffer: clientBuffer,
	}
}

// Run starts the hub's main loop and blocks until ctx is done.
// This should be called in a goroutine
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	logger := log.With("hub", h.name)

	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			h.mu.Unlock()
			logger.Info("hub stopped")
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			count := len(h.clients)
			h.mu.Unlock()
			logger.Info("client connected", "clients", count)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			count := len(h.clients)
			h.mu.Unlock()
			logger.Info("client disconnected", "clients", count)

		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
					h.sent++
				default:
					// Client's buffer is full - they're too slow
					close(client.send)
					delete(h.clients, client)
					h.dropped++
					logger.Warn("dropped slow client", "clients", len(h.clients))
				}
			}
			h.mu.Unlock()
		}
	}
}

// Broadcast sends a message to all connected clients
func (h *Hub) Broadcast(msg Message) {
	select {
	case h.broadcast <- msg:
	default:
		// Broadcast channel full - drop message
		log.Debug("broadcast channel full, dropping message", "hub", h.name)
	}
}

// BroadcastJSON encodes and broadcasts a JSON message
func (h *Hub) BroadcastJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	h.Broadcast(NewJSONMessage(data))
	return nil
}

// Subscribe registers an in-process client and returns its queue and a
// cancel func. The queue is closed when the client is dropped,
// unsubscribed or the hub stops.
func (h *Hub) Subscribe() (<-chan Message, func()) {
	c := &Client{hub: h, send: make(chan Message, h.clientBuffer)}
	if !h.join(c) {
		close(c.send)
		return c.send, func() {}
	}
	return c.send, func() { h.leave(c) }
}

func (h *Hub) join(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) leave(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Stats returns delivered and dropped counters.
func (h *Hub) Stats() (sent, dropped uint64) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.sent, h.dropped
}
