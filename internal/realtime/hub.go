package realtime

import (
	"log/slog"
	"sync"
	"time"

	"github.com/mcoot/tablesync/internal/model"
	"github.com/mcoot/tablesync/internal/services/session"
)

// HubMetrics records connection and backpressure statistics
type HubMetrics interface {
	ClientConnected(transport string)
	ClientDisconnected(transport string)
	FrameDropped(transport string)
}

// delivery is a frame bound for one client, or for everyone when client
// is nil
type delivery struct {
	client *Client
	frame  *Frame
}

// Hub is the registry of connected participants for the session. A single
// goroutine (Run) owns delivery and broadcasts share one queue with direct
// replies, so every client sees frames in the order they were enqueued.
type Hub struct {
	clients map[*Client]bool
	mu      sync.RWMutex
	logger  *slog.Logger
	metrics HubMetrics

	// Channels for managing clients
	register   chan *Client
	unregister chan *Client
	outbound   chan delivery
	done       chan struct{}
	closeOnce  sync.Once
}

// Ensure Hub can receive router broadcasts
var _ session.Broadcaster = (*Hub)(nil)

// NewHub creates a new Hub
func NewHub(logger *slog.Logger, metrics HubMetrics) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		logger:     logger.With(slog.String("component", "hub")),
		metrics:    metrics,
		register:   make(chan *Client),
		unregister: make(chan *Client),
		outbound:   make(chan delivery, 256),
		done:       make(chan struct{}),
	}
}

// Run starts the hub's event loop
func (h *Hub) Run() {
	h.logger.Info("hub started")
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			clientCount := len(h.clients)
			h.mu.Unlock()
			h.metrics.ClientConnected(string(client.transport))
			h.logger.Info("client registered",
				slog.String("client_id", client.id),
				slog.String("role", string(client.role)),
				slog.Int64("player_id", int64(client.playerID)),
				slog.String("transport", string(client.transport)),
				slog.Int("total_clients", clientCount))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				clientCount := len(h.clients)
				h.mu.Unlock()
				h.metrics.ClientDisconnected(string(client.transport))
				h.logger.Info("client unregistered",
					slog.String("client_id", client.id),
					slog.Duration("connection_duration", time.Since(client.connectedAt)),
					slog.Int("total_clients", clientCount))
			} else {
				h.mu.Unlock()
			}

		case d := <-h.outbound:
			h.mu.RLock()
			if d.client != nil {
				if h.clients[d.client] {
					h.deliver(d.client, d.frame)
				}
				h.mu.RUnlock()
				continue
			}
			sentCount := 0
			droppedCount := 0
			for client := range h.clients {
				if h.deliver(client, d.frame) {
					sentCount++
				} else {
					droppedCount++
				}
			}
			h.mu.RUnlock()
			if droppedCount > 0 {
				h.logger.Warn("broadcast partial failure",
					slog.String("event", d.frame.Event),
					slog.Int("sent", sentCount),
					slog.Int("dropped", droppedCount))
			}

		case <-h.done:
			h.mu.Lock()
			clientCount := len(h.clients)
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
				h.metrics.ClientDisconnected(string(client.transport))
			}
			h.mu.Unlock()
			h.logger.Info("hub stopped", slog.Int("disconnected_clients", clientCount))
			return
		}
	}
}

// deliver queues a frame for one client without blocking. A full queue
// drops the frame for that client only.
func (h *Hub) deliver(client *Client, frame *Frame) bool {
	select {
	case client.send <- frame:
		return true
	default:
		h.metrics.FrameDropped(string(client.transport))
		h.logger.Warn("frame dropped - client buffer full",
			slog.String("client_id", client.id),
			slog.String("event", frame.Event))
		return false
	}
}

// Register adds a client to the hub. After Close the client's queue is
// closed straight away.
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		close(client.send)
	}
}

// Unregister removes a client from the hub. Unregistering twice is safe.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Broadcast queues an event for every connected client
func (h *Hub) Broadcast(event model.Event) {
	frame, err := NewFrame(event)
	if err != nil {
		h.logger.Error("failed to encode event",
			slog.String("event", string(event.Type)),
			slog.Any("error", err))
		return
	}
	select {
	case h.outbound <- delivery{frame: frame}:
	case <-h.done:
	}
}

// SendTo queues an event for a single client
func (h *Hub) SendTo(client *Client, event model.Event) {
	frame, err := NewFrame(event)
	if err != nil {
		h.logger.Error("failed to encode reply",
			slog.String("event", string(event.Type)),
			slog.Any("error", err))
		return
	}
	select {
	case h.outbound <- delivery{client: client, frame: frame}:
	case <-h.done:
	}
}

// Close shuts down the hub and disconnects every client
func (h *Hub) Close() {
	h.closeOnce.Do(func() {
		close(h.done)
	})
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
