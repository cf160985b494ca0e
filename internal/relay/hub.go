package relay

import (
	"context"
	"sort"
	"sync"

	"go.uber.org/zap"
)

// Hub tracks relay connections and the demo each one is watching.
type Hub struct {
	name       string
	clients    map[*Client]bool
	groups     map[string]map[*Client]bool // demo -> clients
	register   chan *Client
	unregister chan *Client
	quit       chan struct{}
	mu         sync.RWMutex
	logger     *zap.Logger
}

// GroupStats is the viewer count of one demo.
type GroupStats struct {
	Demo    string `json:"demo"`
	Viewers int    `json:"viewers"`
}

// NewHub creates a new Hub.
func NewHub(name string, logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		name:       name,
		clients:    make(map[*Client]bool),
		groups:     make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		quit:       make(chan struct{}),
		logger:     logger,
	}
}

// Run processes hub events. Call this in a goroutine.
// Returns when context is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.logger.Info("hub shutting down", zap.String("hub", h.name))
			h.shutdown()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			if h.groups[client.demo] == nil {
				h.groups[client.demo] = make(map[*Client]bool)
			}
			h.groups[client.demo][client] = true
			h.mu.Unlock()
			h.logger.Debug("client registered",
				zap.String("hub", h.name),
				zap.String("connID", client.connID),
				zap.String("demo", client.demo),
			)

		case client := <-h.unregister:
			h.remove(client)
		}
	}
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		if clients, ok := h.groups[client.demo]; ok {
			delete(clients, client)
			if len(clients) == 0 {
				delete(h.groups, client.demo)
			}
		}
		client.stop()
	}
	h.mu.Unlock()
	h.logger.Debug("client unregistered",
		zap.String("hub", h.name),
		zap.String("connID", client.connID),
	)
}

// shutdown stops all client connections.
func (h *Hub) shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()

	close(h.quit)
	for client := range h.clients {
		client.stop()
		delete(h.clients, client)
	}
	h.groups = make(map[string]map[*Client]bool)
}

// join registers c. It reports false once the hub has shut down.
func (h *Hub) join(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.quit:
		return false
	}
}

// leave unregisters c unless the hub has shut down.
func (h *Hub) leave(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.quit:
	}
}

// Groups returns the demos being watched, sorted by name.
func (h *Hub) Groups() []GroupStats {
	h.mu.RLock()
	defer h.mu.RUnlock()

	stats := make([]GroupStats, 0, len(h.groups))
	for demo, clients := range h.groups {
		stats = append(stats, GroupStats{Demo: demo, Viewers: len(clients)})
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].Demo < stats[j].Demo })
	return stats
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
