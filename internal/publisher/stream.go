package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/XavierBriggs/fortuna/services/boxes-service/pkg/models"
	"github.com/redis/go-redis/v9"
)

// ContestEventsStream carries every contest event
const ContestEventsStream = "contests.events"

// StreamPublisher publishes contest events to a Redis stream
type StreamPublisher struct {
	client redis.Cmdable
	dedup  *Deduplicator
	stream string
}

// NewStreamPublisher creates a new stream publisher. dedup may be nil.
func NewStreamPublisher(client redis.Cmdable, dedup *Deduplicator) *StreamPublisher {
	return &StreamPublisher{
		client: client,
		dedup:  dedup,
		stream: ContestEventsStream,
	}
}

// Publish appends an event to the stream unless it was already published
func (p *StreamPublisher) Publish(ctx context.Context, event models.ContestEvent) error {
	if p.dedup != nil {
		ok, err := p.dedup.ShouldPublish(ctx, event)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling contest event: %w", err)
	}

	return p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]interface{}{
			"data":       string(data),
			"contest_id": strconv.FormatInt(event.ContestID, 10),
			"type":       string(event.Type),
		},
	}).Err()
}
