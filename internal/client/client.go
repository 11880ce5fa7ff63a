package client

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/XavierBriggs/fortuna/services/boxes-service/pkg/models"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Subscribe payloads carry contest id lists
	maxMessageSize = 4096

	sendBufferSize = 256
)

// Client is one websocket connection following contest events
type Client struct {
	ID   string
	conn *websocket.Conn
	// Send is closed by the hub when the client is unregistered
	Send chan models.ServerMessage
	hub  Hub
	log  logrus.FieldLogger

	filter   models.SubscriptionFilter
	filterMu sync.RWMutex

	connectedAt      time.Time
	messagesSent     int64
	messagesReceived int64
	lastMessageAt    time.Time
	mu               sync.Mutex
}

// Hub is the side of the broadcast hub a client talks back to
type Hub interface {
	Unregister(client *Client)
}

// NewClient creates a new client instance
func NewClient(id string, conn *websocket.Conn, hub Hub, log logrus.FieldLogger) *Client {
	return &Client{
		ID:          id,
		conn:        conn,
		Send:        make(chan models.ServerMessage, sendBufferSize),
		hub:         hub,
		log:         log.WithField("client_id", id),
		connectedAt: time.Now(),
	}
}

// ReadPump reads subscribe/unsubscribe/heartbeat messages until the peer goes away
func (c *Client) ReadPump(ctx context.Context) {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if ctx.Err() != nil {
			return
		}

		var msg models.ClientMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.log.WithError(err).Warn("unexpected close")
			}
			return
		}

		c.updateReceived()
		c.handleClientMessage(msg)
	}
}

// WritePump drains Send to the connection and keeps it alive with pings
func (c *Client) WritePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case message, ok := <-c.Send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteJSON(message); err != nil {
				c.log.WithError(err).Warn("write failed")
				return
			}

			c.updateSent()

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// TrySend queues a message without blocking.
// Returns false if the client's buffer is full.
func (c *Client) TrySend(msg models.ServerMessage) bool {
	select {
	case c.Send <- msg:
		return true
	default:
		return false
	}
}

// SetFilter replaces the client's subscription filter
func (c *Client) SetFilter(filter models.SubscriptionFilter) {
	c.filterMu.Lock()
	defer c.filterMu.Unlock()
	c.filter = filter
}

// GetFilter returns the client's current filter
func (c *Client) GetFilter() models.SubscriptionFilter {
	c.filterMu.RLock()
	defer c.filterMu.RUnlock()
	return c.filter
}

// MatchesFilter reports whether the client wants this event
func (c *Client) MatchesFilter(event models.ContestEvent) bool {
	c.filterMu.RLock()
	defer c.filterMu.RUnlock()
	return c.filter.Matches(event)
}

// GetStats returns connection statistics
func (c *Client) GetStats() models.ConnectionStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	return models.ConnectionStats{
		ClientID:          c.ID,
		ConnectedAt:       c.connectedAt,
		MessagesSent:      c.messagesSent,
		MessagesReceived:  c.messagesReceived,
		LastMessageAt:     c.lastMessageAt,
		BufferSize:        sendBufferSize,
		BufferUtilization: float64(len(c.Send)) / float64(sendBufferSize) * 100.0,
	}
}

func (c *Client) handleClientMessage(msg models.ClientMessage) {
	switch msg.Type {
	case models.MessageTypeSubscribe:
		c.handleSubscribe(msg.Payload)
	case models.MessageTypeUnsubscribe:
		c.SetFilter(models.SubscriptionFilter{})
		c.log.Info("unsubscribed")
	case models.MessageTypeHeartbeat:
		c.TrySend(models.ServerMessage{
			Type:      models.MessageTypeHeartbeat,
			Payload:   c.GetStats(),
			Timestamp: time.Now(),
		})
	default:
		c.sendError("unknown_message_type", fmt.Sprintf("unknown message type: %s", msg.Type))
	}
}

// handleSubscribe decodes {"contests": [...], "types": [...]} into the filter
func (c *Client) handleSubscribe(payload map[string]interface{}) {
	raw, err := json.Marshal(payload)
	if err != nil {
		c.sendError("invalid_filter", "failed to parse filter")
		return
	}

	var filter models.SubscriptionFilter
	if err := json.Unmarshal(raw, &filter); err != nil {
		c.sendError("invalid_filter", "failed to parse filter")
		return
	}
	for _, id := range filter.Contests {
		if id < 0 {
			c.sendError("invalid_filter", fmt.Sprintf("invalid contest id: %d", id))
			return
		}
	}

	c.SetFilter(filter)
	c.log.WithFields(logrus.Fields{
		"contests": filter.Contests,
		"types":    filter.Types,
	}).Info("subscribed")
}

func (c *Client) sendError(code, message string) {
	c.TrySend(models.ServerMessage{
		Type: models.MessageTypeError,
		Payload: models.ErrorMessage{
			Code:    code,
			Message: message,
		},
		Timestamp: time.Now(),
	})
}

func (c *Client) updateSent() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messagesSent++
	c.lastMessageAt = time.Now()
}

func (c *Client) updateReceived() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messagesReceived++
	c.lastMessageAt = time.Now()
}
