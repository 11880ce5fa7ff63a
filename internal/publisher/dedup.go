package publisher

import (
	"context"
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/XavierBriggs/fortuna/services/boxes-service/pkg/models"
	"github.com/redis/go-redis/v9"
)

// Deduplicator suppresses repeat publications of the same state change
type Deduplicator struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewDeduplicator creates a new deduplicator
func NewDeduplicator(client redis.Cmdable, ttl time.Duration) *Deduplicator {
	return &Deduplicator{
		client: client,
		ttl:    ttl,
	}
}

// ShouldPublish claims the event's dedup key; only the first caller within
// the TTL gets true. SETNX keeps the check-and-set atomic across replicas.
func (d *Deduplicator) ShouldPublish(ctx context.Context, event models.ContestEvent) (bool, error) {
	ok, err := d.client.SetNX(ctx, d.key(event), event.ID, d.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to set dedup key: %w", err)
	}
	return ok, nil
}

// Clear removes a dedup entry
func (d *Deduplicator) Clear(ctx context.Context, event models.ContestEvent) error {
	return d.client.Del(ctx, d.key(event)).Err()
}

// key format: contests:dedup:{contest_id}:{hash}
func (d *Deduplicator) key(event models.ContestEvent) string {
	hash := sha256.Sum256([]byte(event.DedupKey()))
	return fmt.Sprintf("contests:dedup:%d:%x", event.ContestID, hash[:8])
}
