package models

import "time"

// Message types for WebSocket communication
const (
	MessageTypeContestEvent = "contest_event"
	MessageTypeSubscribe    = "subscribe"
	MessageTypeUnsubscribe  = "unsubscribe"
	MessageTypeHeartbeat    = "heartbeat"
	MessageTypeError        = "error"
)

// ClientMessage represents a message from client to server
type ClientMessage struct {
	Type    string                 `json:"type"`
	Payload map[string]interface{} `json:"payload,omitempty"`
}

// ServerMessage represents a message from server to client
type ServerMessage struct {
	Type      string      `json:"type"`
	Payload   interface{} `json:"payload,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// SubscriptionFilter selects which contests a client hears about
type SubscriptionFilter struct {
	Contests []int64     `json:"contests,omitempty"`
	Types    []EventType `json:"types,omitempty"`
}

// Matches reports whether an event passes the filter. An empty filter passes everything.
func (f SubscriptionFilter) Matches(e ContestEvent) bool {
	if len(f.Contests) > 0 {
		found := false
		for _, id := range f.Contests {
			if id == e.ContestID {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if len(f.Types) > 0 {
		for _, t := range f.Types {
			if t == e.Type {
				return true
			}
		}
		return false
	}
	return true
}

// ConnectionStats represents connection statistics
type ConnectionStats struct {
	ClientID          string    `json:"client_id"`
	ConnectedAt       time.Time `json:"connected_at"`
	MessagesSent      int64     `json:"messages_sent"`
	MessagesReceived  int64     `json:"messages_received"`
	LastMessageAt     time.Time `json:"last_message_at"`
	BufferSize        int       `json:"buffer_size"`
	BufferUtilization float64   `json:"buffer_utilization"` // Percentage
}

// ErrorMessage represents an error message
type ErrorMessage struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
