package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/XavierBriggs/fortuna/services/boxes-service/pkg/models"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const (
	batchSize     = 100
	blockDuration = 1 * time.Second
)

// Broadcaster receives decoded events. *hub.Hub satisfies it.
type Broadcaster interface {
	Broadcast(event models.ContestEvent)
}

// Config names the stream and the consumer group member
type Config struct {
	Stream        string
	ConsumerGroup string
	ConsumerID    string
}

// StreamConsumer reads contest events from a Redis stream and hands them to the hub
type StreamConsumer struct {
	redis       redis.Cmdable
	broadcaster Broadcaster
	cfg         Config
	log         logrus.FieldLogger
}

// NewStreamConsumer creates a new stream consumer
func NewStreamConsumer(redisClient redis.Cmdable, b Broadcaster, cfg Config, log logrus.FieldLogger) *StreamConsumer {
	return &StreamConsumer{
		redis:       redisClient,
		broadcaster: b,
		cfg:         cfg,
		log:         log.WithField("component", "consumer").WithField("stream", cfg.Stream),
	}
}

// Start consumes until ctx is done
func (sc *StreamConsumer) Start(ctx context.Context) error {
	if err := sc.createConsumerGroup(ctx); err != nil {
		return err
	}
	sc.log.WithField("group", sc.cfg.ConsumerGroup).Info("stream consumer started")

	for {
		if ctx.Err() != nil {
			return nil
		}

		streams, err := sc.redis.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    sc.cfg.ConsumerGroup,
			Consumer: sc.cfg.ConsumerID,
			Streams:  []string{sc.cfg.Stream, ">"},
			Count:    batchSize,
			Block:    blockDuration,
		}).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			if ctx.Err() != nil {
				return nil
			}
			sc.log.WithError(err).Warn("stream read error")
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(time.Second):
			}
			continue
		}

		for _, stream := range streams {
			for _, message := range stream.Messages {
				sc.processMessage(ctx, message)
			}
		}
	}
}

// createConsumerGroup creates the group, ignoring the error when it already exists
func (sc *StreamConsumer) createConsumerGroup(ctx context.Context) error {
	err := sc.redis.XGroupCreateMkStream(ctx, sc.cfg.Stream, sc.cfg.ConsumerGroup, "$").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return err
	}
	return nil
}

// processMessage decodes and broadcasts one message. Malformed messages are
// acked so they don't stay pending forever.
func (sc *StreamConsumer) processMessage(ctx context.Context, msg redis.XMessage) {
	defer sc.ackMessage(ctx, msg.ID)

	data, ok := msg.Values["data"].(string)
	if !ok {
		sc.log.WithField("message_id", msg.ID).Warn("message without data field")
		return
	}

	var event models.ContestEvent
	if err := json.Unmarshal([]byte(data), &event); err != nil {
		sc.log.WithError(err).WithField("message_id", msg.ID).Warn("failed to parse contest event")
		return
	}

	sc.broadcaster.Broadcast(event)
}

func (sc *StreamConsumer) ackMessage(ctx context.Context, messageID string) {
	if err := sc.redis.XAck(ctx, sc.cfg.Stream, sc.cfg.ConsumerGroup, messageID).Err(); err != nil {
		sc.log.WithError(err).WithField("message_id", messageID).Warn("failed to ack message")
	}
}
