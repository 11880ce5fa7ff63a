package cache_test

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/XavierBriggs/fortuna/services/boxes-service/internal/cache"
	"github.com/XavierBriggs/fortuna/services/boxes-service/internal/testutil"
	"github.com/XavierBriggs/fortuna/services/boxes-service/pkg/models"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newRedisCache(t *testing.T, opts cache.Options) (*cache.ContestCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return cache.NewContestCache(cache.NewRedisStore(client), opts, quietLogger()), mr
}

func TestContestCache_RoundTrip(t *testing.T) {
	c, _ := newRedisCache(t, cache.Options{Enabled: true})
	ctx := context.Background()
	contest := testutil.ContestFixture()

	_, ok := c.GetContest(ctx, contest.ID)
	assert.False(t, ok)

	c.SetContest(ctx, contest)

	got, ok := c.GetContest(ctx, contest.ID)
	require.True(t, ok)
	assert.Equal(t, contest.ID, got.ID)
	assert.Equal(t, contest.Rows, got.Rows)
	assert.Equal(t, contest.Cols, got.Cols)
	assert.Equal(t, 0, contest.TotalRewards.Cmp(got.TotalRewards))
	assert.Equal(t, 0, contest.BoxCost.Amount.Cmp(got.BoxCost.Amount))
	assert.Equal(t, contest.BoxCost.Currency, got.BoxCost.Currency)
	assert.Equal(t, contest.BoxesAddress, got.BoxesAddress)
	assert.True(t, contest.FetchedAt.Equal(got.FetchedAt))
}

func TestContestCache_ExpiresAfterTTL(t *testing.T) {
	c, mr := newRedisCache(t, cache.Options{Enabled: true})
	ctx := context.Background()
	contest := testutil.ContestFixture()

	c.SetContest(ctx, contest)
	mr.FastForward(299 * time.Second)
	_, ok := c.GetContest(ctx, contest.ID)
	assert.True(t, ok)

	mr.FastForward(2 * time.Second)
	_, ok = c.GetContest(ctx, contest.ID)
	assert.False(t, ok)
}

func TestContestCache_InvalidateDropsContestAndPlayers(t *testing.T) {
	c, mr := newRedisCache(t, cache.Options{Enabled: true})
	ctx := context.Background()
	contest := testutil.ContestFixture()

	c.SetContest(ctx, contest)
	c.SetPlayers(ctx, &models.Players{
		ContestID:        contest.ID,
		Players:          []string{"0xabc"},
		OwnerCounts:      map[string]int{"0xabc": 2},
		TokenIDsToOwners: map[int64]string{700: "0xabc", 701: "0xabc"},
	})
	assert.True(t, mr.Exists(cache.ContestKey(contest.ID)))
	assert.True(t, mr.Exists(cache.PlayersKey(contest.ID)))

	players, ok := c.GetPlayers(ctx, contest.ID)
	require.True(t, ok)
	assert.Equal(t, "0xabc", players.TokenIDsToOwners[701])

	c.Invalidate(ctx, contest.ID)

	_, ok = c.GetContest(ctx, contest.ID)
	assert.False(t, ok)
	_, ok = c.GetPlayers(ctx, contest.ID)
	assert.False(t, ok)
}

func TestContestCache_Disabled(t *testing.T) {
	c, mr := newRedisCache(t, cache.Options{Enabled: false})
	ctx := context.Background()
	contest := testutil.ContestFixture()

	c.SetContest(ctx, contest)
	assert.False(t, mr.Exists(cache.ContestKey(contest.ID)))

	require.NoError(t, mr.Set(cache.ContestKey(contest.ID), `{"id":7}`))
	_, ok := c.GetContest(ctx, contest.ID)
	assert.False(t, ok)
}

func TestContestCache_CorruptEntryIsMiss(t *testing.T) {
	c, mr := newRedisCache(t, cache.Options{Enabled: true})
	require.NoError(t, mr.Set(cache.ContestKey(7), "{not json"))

	_, ok := c.GetContest(context.Background(), 7)
	assert.False(t, ok)
}

// failingStore errors on every call
type failingStore struct {
	deletes []string
}

func (s *failingStore) Get(ctx context.Context, key string) ([]byte, error) {
	return nil, errors.New("connection refused")
}

func (s *failingStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return errors.New("connection refused")
}

func (s *failingStore) Del(ctx context.Context, key string) error {
	s.deletes = append(s.deletes, key)
	return errors.New("connection refused")
}

func TestContestCache_BackendErrorsNeverPropagate(t *testing.T) {
	store := &failingStore{}
	c := cache.NewContestCache(store, cache.Options{Enabled: true}, quietLogger())
	ctx := context.Background()

	assert.NotPanics(t, func() {
		c.SetContest(ctx, testutil.ContestFixture())
		_, ok := c.GetContest(ctx, 7)
		assert.False(t, ok)
		c.Invalidate(ctx, 7)
	})

	// the roster delete is still attempted after the contest delete fails
	assert.Equal(t, []string{cache.ContestKey(7), cache.PlayersKey(7)}, store.deletes)
}

func TestGameCache(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	games := cache.NewGameCache(cache.NewRedisStore(client))
	ctx := context.Background()

	_, err := games.ReadGame(ctx, "401547665")
	assert.ErrorIs(t, err, cache.ErrMiss)

	live := testutil.GameFixture()
	require.NoError(t, games.WriteGame(ctx, live))
	assert.Equal(t, cache.LiveGameTTL, mr.TTL("game:401547665:summary"))

	got, err := games.ReadGame(ctx, live.GameID)
	require.NoError(t, err)
	assert.Equal(t, live.Period, got.Period)
	assert.Equal(t, live.HomeTeamAbbr, got.HomeTeamAbbr)

	final := testutil.GameFixture(func(g *models.Game) { g.Completed = true; g.Status = models.StatusFinal })
	require.NoError(t, games.WriteGame(ctx, final))
	assert.Equal(t, cache.FinalGameTTL, mr.TTL("game:401547665:summary"))
}
