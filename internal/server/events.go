package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/dgnsrekt/qwdemo/internal/api/generated"
)

// Broadcaster pushes relay status to server-sent event subscribers.
type Broadcaster struct {
	broadcasterID string
	server        *Server
	logger        *zap.Logger

	mu       sync.RWMutex
	sequence int
	clients  map[*sseClient]bool

	interval time.Duration
}

// sseClient represents a connected SSE subscriber.
type sseClient struct {
	demo    string
	dataCh  chan []byte
	doneCh  chan struct{}
	flusher http.Flusher
	writer  http.ResponseWriter
}

// EnableEvents attaches a status broadcaster to the server. The router
// serves it on /relay/events; the caller runs it.
func (s *Server) EnableEvents(id string, interval time.Duration) *Broadcaster {
	s.events = &Broadcaster{
		broadcasterID: id,
		server:        s,
		logger:        s.logger,
		clients:       make(map[*sseClient]bool),
		interval:      interval,
	}
	return s.events
}

// Run starts the periodic broadcast loop.
func (b *Broadcaster) Run(ctx context.Context) {
	if b.interval <= 0 {
		return
	}
	b.logger.Info("status broadcaster starting",
		zap.String("broadcaster_id", b.broadcasterID),
		zap.Duration("interval", b.interval),
	)

	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			b.logger.Info("status broadcaster stopping")
			return
		case <-ticker.C:
			b.broadcastToAll()
		}
	}
}

// HandleSSE handles GET /relay/events. The optional "demo" query parameter
// limits the groups reported to one demo.
func (b *Broadcaster) HandleSSE(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "SSE not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	client := &sseClient{
		demo:    r.URL.Query().Get("demo"),
		dataCh:  make(chan []byte, 10),
		doneCh:  make(chan struct{}),
		flusher: flusher,
		writer:  w,
	}

	b.addClient(client)
	defer b.removeClient(client)

	b.logger.Debug("status subscriber connected",
		zap.String("demo", client.demo),
		zap.String("remote_addr", r.RemoteAddr),
	)

	// Send initial snapshot
	if err := b.sendEvent(client, "snapshot", b.buildEvent(client.demo)); err != nil {
		b.logger.Debug("failed to send snapshot", zap.Error(err))
		return
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case <-client.doneCh:
			return
		case eventData := <-client.dataCh:
			if _, err := client.writer.Write(eventData); err != nil {
				b.logger.Debug("failed to write to subscriber", zap.Error(err))
				return
			}
			client.flusher.Flush()
		}
	}
}

// Subscribers returns the number of connected subscribers.
func (b *Broadcaster) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}

func (b *Broadcaster) addClient(client *sseClient) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.clients[client] = true
}

func (b *Broadcaster) removeClient(client *sseClient) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.clients, client)
	close(client.doneCh)
}

func (b *Broadcaster) buildEvent(demo string) *generated.StatusEvent {
	b.mu.Lock()
	b.sequence++
	seq := b.sequence
	b.mu.Unlock()

	ev := &generated.StatusEvent{
		BroadcasterId: b.broadcasterID,
		Timestamp:     time.Now().UnixMilli(),
		Sequence:      seq,
		Demos:         len(b.server.catalog.List("")),
		Groups:        []generated.RelayGroup{},
	}
	if at := b.server.rescan.ScannedAt(); !at.IsZero() {
		ev.ScannedAt = &at
	}
	if b.server.relay == nil {
		return ev
	}

	hub := b.server.relay.Hub()
	ev.Clients = hub.Clients()
	for _, g := range hub.Groups() {
		if demo == "" || g.Demo == demo {
			ev.Groups = append(ev.Groups, generated.RelayGroup{Demo: g.Demo, Viewers: g.Viewers})
		}
	}
	return ev
}

func (b *Broadcaster) broadcastToAll() {
	b.mu.RLock()
	clients := make([]*sseClient, 0, len(b.clients))
	for client := range b.clients {
		clients = append(clients, client)
	}
	b.mu.RUnlock()

	for _, client := range clients {
		eventData, err := b.formatEvent("status", b.buildEvent(client.demo))
		if err != nil {
			continue
		}

		select {
		case client.dataCh <- eventData:
		default:
			// Channel full, client is slow
			b.logger.Debug("subscriber channel full, dropping event", zap.String("demo", client.demo))
		}
	}
}

func (b *Broadcaster) sendEvent(client *sseClient, eventType string, ev *generated.StatusEvent) error {
	eventData, err := b.formatEvent(eventType, ev)
	if err != nil {
		return err
	}

	if _, err := client.writer.Write(eventData); err != nil {
		return err
	}
	client.flusher.Flush()
	return nil
}

func (b *Broadcaster) formatEvent(eventType string, ev *generated.StatusEvent) ([]byte, error) {
	jsonData, err := json.Marshal(ev)
	if err != nil {
		return nil, err
	}
	return []byte(fmt.Sprintf("event: %s\nid: %d\ndata: %s\n\n", eventType, ev.Sequence, jsonData)), nil
}
