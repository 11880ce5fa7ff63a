package consumer_test

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/XavierBriggs/fortuna/services/boxes-service/internal/consumer"
	"github.com/XavierBriggs/fortuna/services/boxes-service/internal/publisher"
	"github.com/XavierBriggs/fortuna/services/boxes-service/pkg/models"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingBroadcaster struct {
	mu     sync.Mutex
	events []models.ContestEvent
}

func (r *recordingBroadcaster) Broadcast(event models.ContestEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recordingBroadcaster) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

var testConfig = consumer.Config{
	Stream:        publisher.ContestEventsStream,
	ConsumerGroup: "boxes-service",
	ConsumerID:    "test-1",
}

func TestStreamConsumer_BroadcastsAndAcks(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// group from the start of the stream so messages added before Start are delivered
	require.NoError(t, client.XGroupCreateMkStream(ctx, testConfig.Stream, testConfig.ConsumerGroup, "0").Err())

	pub := publisher.NewStreamPublisher(client, nil)
	require.NoError(t, pub.Publish(ctx, models.ContestEvent{
		ID:        "evt-1",
		Type:      models.EventRewardPaid,
		ContestID: 7,
		Quarter:   "q1",
	}))
	require.NoError(t, client.XAdd(ctx, &redis.XAddArgs{
		Stream: testConfig.Stream,
		Values: map[string]interface{}{"data": "{not json"},
	}).Err())
	require.NoError(t, client.XAdd(ctx, &redis.XAddArgs{
		Stream: testConfig.Stream,
		Values: map[string]interface{}{"other": "field"},
	}).Err())

	b := &recordingBroadcaster{}
	sc := consumer.NewStreamConsumer(client, b, testConfig, quietLogger())

	done := make(chan error, 1)
	go func() { done <- sc.Start(ctx) }()

	require.Eventually(t, func() bool { return b.count() == 1 }, 3*time.Second, 10*time.Millisecond)
	b.mu.Lock()
	assert.Equal(t, "evt-1", b.events[0].ID)
	assert.Equal(t, int64(7), b.events[0].ContestID)
	b.mu.Unlock()

	require.Eventually(t, func() bool {
		pending, err := client.XPending(ctx, testConfig.Stream, testConfig.ConsumerGroup).Result()
		return err == nil && pending.Count == 0
	}, 3*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("consumer did not stop")
	}
}

func TestStreamConsumer_ExistingGroup(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	require.NoError(t, client.XGroupCreateMkStream(context.Background(), testConfig.Stream, testConfig.ConsumerGroup, "$").Err())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	sc := consumer.NewStreamConsumer(client, &recordingBroadcaster{}, testConfig, quietLogger())
	assert.NoError(t, sc.Start(ctx))
}
