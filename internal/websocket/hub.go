package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"studentpulse/internal/infrastructure"
	"studentpulse/pkg/contracts/events"
)

// ErrHubStopped is returned by Publish once the hub loop has exited
var ErrHubStopped = errors.New("websocket hub stopped")

const broadcastBuffer = 64

// Hub maintains the set of active clients and broadcasts messages to them
type Hub struct {
	clients map[*Client]struct{}

	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client

	mu      sync.RWMutex
	logger  *slog.Logger
	metrics *infrastructure.BusinessMetrics

	messagesSent    int64
	messagesDropped int64

	done chan struct{}
}

// NewHub creates a new Hub. metrics may be nil.
func NewHub(logger *slog.Logger, metrics *infrastructure.BusinessMetrics) *Hub {
	return &Hub{
		clients:    make(map[*Client]struct{}),
		broadcast:  make(chan []byte, broadcastBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		logger:     logger.With(slog.String("component", "websocket.hub")),
		metrics:    metrics,
		done:       make(chan struct{}),
	}
}

// Run serves registrations and broadcasts until ctx is cancelled, then
// disconnects every client.
func (h *Hub) Run(ctx context.Context) error {
	defer h.shutdown(context.WithoutCancel(ctx))

	for {
		select {
		case <-ctx.Done():
			h.logger.Info("hub shutting down", slog.Int("clients", h.ClientCount()))
			return nil

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = struct{}{}
			count := len(h.clients)
			h.mu.Unlock()

			infrastructure.RecordWebSocketClients(ctx, h.metrics, 1)
			h.logger.InfoContext(client.context(), "client registered",
				slog.String("client_id", client.id),
				slog.String("remote_addr", client.remoteAddr),
				slog.Int("total_clients", count))

			h.greet(client)

		case client := <-h.unregister:
			if h.remove(client) {
				infrastructure.RecordWebSocketClients(ctx, h.metrics, -1)
				h.logger.InfoContext(client.context(), "client unregistered",
					slog.String("client_id", client.id),
					slog.Duration("connection_duration", time.Since(client.connectedAt)),
					slog.Int("total_clients", h.ClientCount()))
			}

		case message := <-h.broadcast:
			h.fanOut(ctx, message)
		}
	}
}

func (h *Hub) greet(client *Client) {
	msg := events.NewMessage(events.MessageTypeConnection, events.ConnectionData{
		Status:   "connected",
		ClientID: client.id,
		Message:  "Connected to StudentPulse",
	})
	msg.TraceID = client.traceID

	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("failed to marshal connection message", slog.String("error", err.Error()))
		return
	}

	select {
	case client.send <- data:
	default:
		h.logger.Warn("client buffer full, connection message dropped", slog.String("client_id", client.id))
	}
}

func (h *Hub) fanOut(ctx context.Context, message []byte) {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	delivered := 0
	for _, client := range clients {
		select {
		case client.send <- message:
			delivered++
		default:
			// slow consumer
			if h.remove(client) {
				infrastructure.RecordWebSocketClients(ctx, h.metrics, -1)
			}
			h.logger.WarnContext(client.context(), "client send buffer full, disconnecting",
				slog.String("client_id", client.id))
		}
	}

	h.mu.Lock()
	h.messagesSent += int64(delivered)
	h.messagesDropped += int64(len(clients) - delivered)
	h.mu.Unlock()

	h.logger.Debug("broadcast delivered",
		slog.Int("client_count", len(clients)),
		slog.Int("delivered", delivered),
		slog.Int("message_size", len(message)))
}

// remove deletes client and closes its send channel. It reports whether the
// client was still registered.
func (h *Hub) remove(client *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[client]; !ok {
		return false
	}
	delete(h.clients, client)
	close(client.send)
	return true
}

// shutdown disconnects the remaining clients and takes them off the
// connected-clients gauge. Unregister is a no-op once done is closed.
func (h *Hub) shutdown(ctx context.Context) {
	h.mu.Lock()
	defer h.mu.Unlock()
	infrastructure.RecordWebSocketClients(ctx, h.metrics, -int64(len(h.clients)))
	for client := range h.clients {
		close(client.send)
		delete(h.clients, client)
	}
	close(h.done)
}

// Publish queues msg for delivery to every connected client. It never
// blocks on slow clients; it fails only when the hub is stopped or the
// broadcast queue is full.
func (h *Hub) Publish(msg events.WebSocketMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal %s message: %w", msg.Type, err)
	}

	select {
	case <-h.done:
		return ErrHubStopped
	case h.broadcast <- data:
		return nil
	default:
		h.mu.Lock()
		h.messagesDropped++
		h.mu.Unlock()
		return fmt.Errorf("broadcast queue full, %s message dropped", msg.Type)
	}
}

// Register adds a client to the hub
func (h *Hub) Register(client *Client) error {
	select {
	case <-h.done:
		return ErrHubStopped
	case h.register <- client:
		return nil
	}
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(client *Client) {
	select {
	case <-h.done:
	case h.unregister <- client:
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Stats returns delivery counters for the status endpoint
func (h *Hub) Stats() map[string]interface{} {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return map[string]interface{}{
		"active_clients":   len(h.clients),
		"messages_sent":    h.messagesSent,
		"messages_dropped": h.messagesDropped,
	}
}
