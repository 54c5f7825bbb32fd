package websocket

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Hub tracks live connections and fans frames out to all of them
type Hub struct {
	clients map[*Client]bool
	mu      sync.RWMutex

	// Channels for client management
	register   chan *Client
	unregister chan *Client

	broadcast chan []byte

	// welcome yields the frames a client receives on registration
	welcome func() [][]byte

	// done is closed when Run returns
	done chan struct{}

	name     string
	observer HubObserver
	logger   *zap.Logger
}

// ErrHubStopped is returned by Publish once the hub loop has exited
var ErrHubStopped = errors.New("hub stopped")

// HubObserver receives connection and delivery counters, keyed by hub name
type HubObserver interface {
	SocketOpened(hub string)
	SocketClosed(hub string)
	SocketFrameSent(hub string)
	SocketFrameDropped(hub string)
}

type nopObserver struct{}

func (nopObserver) SocketOpened(string)       {}
func (nopObserver) SocketClosed(string)       {}
func (nopObserver) SocketFrameSent(string)    {}
func (nopObserver) SocketFrameDropped(string) {}

// HubOption configures a hub
type HubOption func(*Hub)

// WithObserver reports the hub's counters under name
func WithObserver(name string, observer HubObserver) HubOption {
	return func(h *Hub) {
		h.name = name
		h.observer = observer
	}
}

// NewHub creates a new WebSocket hub
func NewHub(logger *zap.Logger, opts ...HubOption) *Hub {
	h := &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client, 100),
		unregister: make(chan *Client, 100),
		broadcast:  make(chan []byte, 1000),
		done:       make(chan struct{}),
		name:       "default",
		observer:   nopObserver{},
		logger:     logger,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// SetWelcome sets the frames sent to every newly registered client. It is
// evaluated on the hub loop, so no broadcast can slip between the welcome
// frames and the client's registration. Call before Run.
func (h *Hub) SetWelcome(welcome func() [][]byte) {
	h.welcome = welcome
}

// Run is the hub's event loop; it returns when ctx is cancelled. It must
// be called once.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			h.logger.Info("Hub shutting down")
			h.closeAllConnections()
			return

		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case frame := <-h.broadcast:
			h.broadcastFrame(frame)

		case <-ticker.C:
			h.logger.Debug("Health check performed", zap.Int("connections", h.ConnectionCount()))
		}
	}
}

// Broadcast queues frame for every connected client without blocking.
// Frames reach each client in the order they were queued; when the queue
// is full the frame is dropped. Use it only for frames a later frame
// supersedes, such as whole views.
func (h *Hub) Broadcast(frame []byte) {
	select {
	case h.broadcast <- frame:
	default:
		h.logger.Warn("Broadcast channel full, frame dropped")
		h.observer.SocketFrameDropped(h.name)
	}
}

// Publish queues frame for every connected client, waiting for room in
// the queue. A client too slow to take it is disconnected rather than
// left behind.
func (h *Hub) Publish(ctx context.Context, frame []byte) error {
	select {
	case <-h.done:
		return ErrHubStopped
	default:
	}

	select {
	case h.broadcast <- frame:
		return nil
	case <-h.done:
		return ErrHubStopped
	case <-ctx.Done():
		h.observer.SocketFrameDropped(h.name)
		return ctx.Err()
	}
}

func (h *Hub) registerClient(client *Client) {
	if h.welcome != nil {
		for _, frame := range h.welcome() {
			select {
			case client.send <- frame:
			default:
			}
		}
	}

	h.mu.Lock()
	h.clients[client] = true
	count := len(h.clients)
	h.mu.Unlock()

	h.observer.SocketOpened(h.name)

	h.logger.Info("Client registered",
		zap.String("connectionID", client.id),
		zap.Int("connections", count),
	)
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	close(client.send)
	h.observer.SocketClosed(h.name)

	h.logger.Info("Client unregistered",
		zap.String("connectionID", client.id),
		zap.Int("remainingConnections", len(h.clients)),
	)
}

func (h *Hub) broadcastFrame(frame []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients {
		select {
		case client.send <- frame:
			h.observer.SocketFrameSent(h.name)
		default:
			// Client's send channel is full, close it
			h.observer.SocketFrameDropped(h.name)

			h.logger.Warn("Closing slow client", zap.String("connectionID", client.id))
			go func(c *Client) {
				h.unregister <- c
				c.conn.Close()
			}(client)
		}
	}
}

func (h *Hub) closeAllConnections() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		close(client.send)
		client.conn.Close()
		delete(h.clients, client)
		h.observer.SocketClosed(h.name)
	}
	h.logger.Info("All connections closed")
}

// ConnectionCount returns the number of registered clients
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
