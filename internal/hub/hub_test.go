package hub_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/XavierBriggs/fortuna/services/boxes-service/internal/client"
	"github.com/XavierBriggs/fortuna/services/boxes-service/internal/hub"
	"github.com/XavierBriggs/fortuna/services/boxes-service/pkg/models"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// startHub serves websocket upgrades that register with a running hub
func startHub(t *testing.T) (*hub.Hub, string) {
	t.Helper()
	log := quietLogger()
	h := hub.NewHub(log)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go h.Run(ctx)

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		c := client.NewClient(r.URL.Query().Get("id"), conn, h, log)
		h.Register(c)
		go c.WritePump(ctx)
		go c.ReadPump(ctx)
	}))
	t.Cleanup(srv.Close)

	return h, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url, id string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url+"?id="+id, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestHub_RegisterAndDisconnect(t *testing.T) {
	h, url := startHub(t)

	conn := dial(t, url, "a")
	require.Eventually(t, func() bool { return h.GetClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	conn.Close()
	require.Eventually(t, func() bool { return h.GetClientCount() == 0 }, 2*time.Second, 10*time.Millisecond)

	m := h.GetMetrics()
	assert.Equal(t, int64(1), m["total_connections"])
}

func TestHub_BroadcastHonorsSubscription(t *testing.T) {
	h, url := startHub(t)

	subscribed := dial(t, url, "subscribed")
	other := dial(t, url, "other")
	require.Eventually(t, func() bool { return h.GetClientCount() == 2 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, subscribed.WriteJSON(models.ClientMessage{
		Type:    models.MessageTypeSubscribe,
		Payload: map[string]interface{}{"contests": []int64{7}},
	}))
	require.NoError(t, other.WriteJSON(models.ClientMessage{
		Type:    models.MessageTypeSubscribe,
		Payload: map[string]interface{}{"contests": []int64{8}},
	}))
	// heartbeats come back only after the subscribe was handled
	for _, conn := range []*websocket.Conn{subscribed, other} {
		require.NoError(t, conn.WriteJSON(models.ClientMessage{Type: models.MessageTypeHeartbeat}))
		var hb models.ServerMessage
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		require.NoError(t, conn.ReadJSON(&hb))
		assert.Equal(t, models.MessageTypeHeartbeat, hb.Type)
	}

	h.Broadcast(models.ContestEvent{ID: "e1", Type: models.EventRewardPaid, ContestID: 7, Quarter: "q1"})

	var got struct {
		Type    string              `json:"type"`
		Payload models.ContestEvent `json:"payload"`
	}
	subscribed.SetReadDeadline(time.Now().Add(2 * time.Second))
	require.NoError(t, subscribed.ReadJSON(&got))
	assert.Equal(t, models.MessageTypeContestEvent, got.Type)
	assert.Equal(t, "e1", got.Payload.ID)
	assert.Equal(t, int64(7), got.Payload.ContestID)

	// contest 8 subscriber hears nothing
	other.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	var none models.ServerMessage
	assert.Error(t, other.ReadJSON(&none))
}

func TestHub_UnknownMessageType(t *testing.T) {
	h, url := startHub(t)
	conn := dial(t, url, "a")
	require.Eventually(t, func() bool { return h.GetClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, conn.WriteJSON(models.ClientMessage{Type: "ping"}))

	var got struct {
		Type    string              `json:"type"`
		Payload models.ErrorMessage `json:"payload"`
	}
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, models.MessageTypeError, got.Type)
	assert.Equal(t, "unknown_message_type", got.Payload.Code)
}

func TestClient_MatchesFilter(t *testing.T) {
	c := client.NewClient("x", nil, nil, quietLogger())
	event := models.ContestEvent{Type: models.EventScoresUpdated, ContestID: 7}

	tests := []struct {
		name     string
		filter   models.SubscriptionFilter
		expected bool
	}{
		{"empty filter matches everything", models.SubscriptionFilter{}, true},
		{"contest matches", models.SubscriptionFilter{Contests: []int64{3, 7}}, true},
		{"contest doesn't match", models.SubscriptionFilter{Contests: []int64{3}}, false},
		{"type matches", models.SubscriptionFilter{Types: []models.EventType{models.EventScoresUpdated}}, true},
		{"type doesn't match", models.SubscriptionFilter{Types: []models.EventType{models.EventRewardPaid}}, false},
		{"both must match", models.SubscriptionFilter{Contests: []int64{7}, Types: []models.EventType{models.EventRewardPaid}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c.SetFilter(tt.filter)
			assert.Equal(t, tt.expected, c.MatchesFilter(event))
		})
	}
}
