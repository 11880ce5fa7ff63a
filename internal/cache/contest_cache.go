package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/XavierBriggs/fortuna/services/boxes-service/internal/metrics"
	"github.com/XavierBriggs/fortuna/services/boxes-service/pkg/models"
	"github.com/sirupsen/logrus"
)

// TTL constants
const (
	ContestTTL = 300 * time.Second
	PlayersTTL = 300 * time.Second
)

const (
	kindContest = "contest"
	kindPlayers = "players"
)

// Options configures the contest cache
type Options struct {
	Enabled    bool
	ContestTTL time.Duration
	PlayersTTL time.Duration
}

// ContestKey is the cache key for an assembled contest
func ContestKey(contestID int64) string {
	return fmt.Sprintf("contest:%d", contestID)
}

// PlayersKey is the cache key for a contest's player roster
func PlayersKey(contestID int64) string {
	return fmt.Sprintf("contest:%d:players", contestID)
}

// ContestCache serves contest snapshots and rosters within their TTL.
// Backend failures are logged and reported as misses; nothing is returned upward.
type ContestCache struct {
	store Store
	opts  Options
	log   logrus.FieldLogger
}

// NewContestCache creates a contest cache over store
func NewContestCache(store Store, opts Options, log logrus.FieldLogger) *ContestCache {
	if opts.ContestTTL <= 0 {
		opts.ContestTTL = ContestTTL
	}
	if opts.PlayersTTL <= 0 {
		opts.PlayersTTL = PlayersTTL
	}
	return &ContestCache{
		store: store,
		opts:  opts,
		log:   log.WithField("component", "contest_cache"),
	}
}

// Enabled reports whether caching is switched on
func (c *ContestCache) Enabled() bool {
	return c.opts.Enabled && c.store != nil
}

// GetContest returns a cached contest, or false on miss
func (c *ContestCache) GetContest(ctx context.Context, contestID int64) (*models.Contest, bool) {
	var contest models.Contest
	if !c.get(ctx, kindContest, ContestKey(contestID), &contest) {
		return nil, false
	}
	return &contest, true
}

// SetContest stores a freshly assembled contest
func (c *ContestCache) SetContest(ctx context.Context, contest *models.Contest) {
	if contest == nil {
		return
	}
	c.set(ctx, kindContest, ContestKey(contest.ID), contest, c.opts.ContestTTL)
}

// GetPlayers returns a cached roster, or false on miss
func (c *ContestCache) GetPlayers(ctx context.Context, contestID int64) (*models.Players, bool) {
	var players models.Players
	if !c.get(ctx, kindPlayers, PlayersKey(contestID), &players) {
		return nil, false
	}
	return &players, true
}

// SetPlayers stores a freshly built roster
func (c *ContestCache) SetPlayers(ctx context.Context, players *models.Players) {
	if players == nil {
		return
	}
	c.set(ctx, kindPlayers, PlayersKey(players.ContestID), players, c.opts.PlayersTTL)
}

// Invalidate drops both the contest and its roster. Both deletes are attempted.
func (c *ContestCache) Invalidate(ctx context.Context, contestID int64) {
	if c.store == nil {
		return
	}
	c.del(ctx, kindContest, ContestKey(contestID))
	c.del(ctx, kindPlayers, PlayersKey(contestID))
}

func (c *ContestCache) get(ctx context.Context, kind, key string, dst interface{}) bool {
	if !c.Enabled() {
		metrics.RecordCacheLookup(kind, "disabled")
		return false
	}

	data, err := c.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, ErrMiss) {
			metrics.RecordCacheLookup(kind, "miss")
			return false
		}
		metrics.RecordCacheLookup(kind, "error")
		c.log.WithError(err).WithField("key", key).Warn("cache read failed, treating as miss")
		return false
	}

	if err := json.Unmarshal(data, dst); err != nil {
		metrics.RecordCacheLookup(kind, "error")
		c.log.WithError(err).WithField("key", key).Warn("cache entry unreadable, treating as miss")
		return false
	}

	metrics.RecordCacheLookup(kind, "hit")
	return true
}

func (c *ContestCache) set(ctx context.Context, kind, key string, value interface{}, ttl time.Duration) {
	if !c.Enabled() {
		return
	}

	data, err := json.Marshal(value)
	if err != nil {
		metrics.RecordCacheWrite(kind, "set", err)
		c.log.WithError(err).WithField("key", key).Warn("marshaling cache entry")
		return
	}

	err = c.store.Set(ctx, key, data, ttl)
	metrics.RecordCacheWrite(kind, "set", err)
	if err != nil {
		c.log.WithError(err).WithField("key", key).Warn("cache write failed")
	}
}

func (c *ContestCache) del(ctx context.Context, kind, key string) {
	err := c.store.Del(ctx, key)
	metrics.RecordCacheWrite(kind, "del", err)
	if err != nil {
		c.log.WithError(err).WithField("key", key).Warn("cache invalidation failed")
	}
}
