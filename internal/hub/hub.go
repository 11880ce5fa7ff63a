package hub

import (
	"context"
	"sync"
	"time"

	"github.com/XavierBriggs/fortuna/services/boxes-service/internal/client"
	"github.com/XavierBriggs/fortuna/services/boxes-service/pkg/models"
	"github.com/sirupsen/logrus"
)

const broadcastBuffer = 1000

// Hub maintains the set of active clients and broadcasts contest events to them
type Hub struct {
	clients   map[*client.Client]bool
	clientsMu sync.RWMutex

	// Inbound events from the stream consumer
	broadcast  chan models.ContestEvent
	register   chan *client.Client
	unregister chan *client.Client
	// closed when Run returns so late Register/Unregister calls don't block
	stopped chan struct{}

	log logrus.FieldLogger

	totalConnections int64
	totalMessages    int64
	metricsMu        sync.Mutex
}

// NewHub creates a new Hub instance
func NewHub(log logrus.FieldLogger) *Hub {
	return &Hub{
		clients:    make(map[*client.Client]bool),
		broadcast:  make(chan models.ContestEvent, broadcastBuffer),
		register:   make(chan *client.Client),
		unregister: make(chan *client.Client),
		stopped:    make(chan struct{}),
		log:        log.WithField("component", "hub"),
	}
}

// Run is the hub's main loop. It returns when ctx is done.
func (h *Hub) Run(ctx context.Context) {
	h.log.Info("hub started")
	defer close(h.stopped)

	go h.reportMetrics(ctx)

	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return

		case c := <-h.register:
			h.registerClient(c)

		case c := <-h.unregister:
			h.unregisterClient(c)

		case event := <-h.broadcast:
			h.broadcastEvent(event)
		}
	}
}

// Register adds a client to the hub
func (h *Hub) Register(c *client.Client) {
	select {
	case h.register <- c:
	case <-h.stopped:
	}
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(c *client.Client) {
	select {
	case h.unregister <- c:
	case <-h.stopped:
	}
}

// Broadcast queues an event for every subscribed client
func (h *Hub) Broadcast(event models.ContestEvent) {
	select {
	case h.broadcast <- event:
	default:
		h.log.WithField("contest_id", event.ContestID).Warn("broadcast buffer full, dropping event")
	}
}

func (h *Hub) registerClient(c *client.Client) {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()

	h.clients[c] = true
	h.incrementTotalConnections()

	h.log.WithField("client_id", c.ID).WithField("total", len(h.clients)).Info("client connected")
}

func (h *Hub) unregisterClient(c *client.Client) {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()

	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.Send)
		h.log.WithField("client_id", c.ID).WithField("total", len(h.clients)).Info("client disconnected")
	}
}

// broadcastEvent sends an event to the clients whose filter matches.
// A client whose buffer is full is disconnected.
func (h *Hub) broadcastEvent(event models.ContestEvent) {
	h.clientsMu.RLock()
	clients := make([]*client.Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.clientsMu.RUnlock()

	message := models.ServerMessage{
		Type:      models.MessageTypeContestEvent,
		Payload:   event,
		Timestamp: time.Now(),
	}

	sent := 0
	for _, c := range clients {
		if !c.MatchesFilter(event) {
			continue
		}

		if c.TrySend(message) {
			sent++
			continue
		}

		h.log.WithField("client_id", c.ID).Warn("client buffer full, disconnecting")
		go h.Unregister(c)
	}

	if sent > 0 {
		h.incrementTotalMessages()
	}
}

// GetMetrics returns hub metrics
func (h *Hub) GetMetrics() map[string]interface{} {
	h.clientsMu.RLock()
	activeClients := len(h.clients)
	h.clientsMu.RUnlock()

	h.metricsMu.Lock()
	totalConnections := h.totalConnections
	totalMessages := h.totalMessages
	h.metricsMu.Unlock()

	return map[string]interface{}{
		"active_clients":     activeClients,
		"total_connections":  totalConnections,
		"total_messages":     totalMessages,
		"broadcast_capacity": cap(h.broadcast),
		"broadcast_usage":    len(h.broadcast),
	}
}

// GetClientCount returns the number of active clients
func (h *Hub) GetClientCount() int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	return len(h.clients)
}

func (h *Hub) shutdown() {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()

	h.log.WithField("active_clients", len(h.clients)).Info("shutting down hub")

	for c := range h.clients {
		close(c.Send)
		delete(h.clients, c)
	}
}

func (h *Hub) reportMetrics(ctx context.Context) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m := h.GetMetrics()
			h.log.WithFields(logrus.Fields{
				"clients":           m["active_clients"],
				"total_connections": m["total_connections"],
				"messages":          m["total_messages"],
			}).Info("hub metrics")
		}
	}
}

func (h *Hub) incrementTotalConnections() {
	h.metricsMu.Lock()
	defer h.metricsMu.Unlock()
	h.totalConnections++
}

func (h *Hub) incrementTotalMessages() {
	h.metricsMu.Lock()
	defer h.metricsMu.Unlock()
	h.totalMessages++
}
