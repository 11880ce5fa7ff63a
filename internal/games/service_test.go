package games_test

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/XavierBriggs/fortuna/services/boxes-service/internal/cache"
	"github.com/XavierBriggs/fortuna/services/boxes-service/internal/games"
	"github.com/XavierBriggs/fortuna/services/boxes-service/internal/testutil"
	"github.com/XavierBriggs/fortuna/services/boxes-service/pkg/models"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingFetcher struct {
	game  *models.Game
	err   error
	calls int
}

func (f *countingFetcher) FetchGame(ctx context.Context, gameID string) (*models.Game, error) {
	f.calls++
	return f.game, f.err
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func TestGame_CachesAfterFetch(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	fetcher := &countingFetcher{game: testutil.GameFixture()}
	svc := games.NewService(cache.NewGameCache(cache.NewRedisStore(client)), fetcher, quietLogger())

	first, err := svc.Game(context.Background(), "401547665")
	require.NoError(t, err)
	second, err := svc.Game(context.Background(), "401547665")
	require.NoError(t, err)

	assert.Equal(t, 1, fetcher.calls)
	assert.Equal(t, first.Period, second.Period)
	assert.True(t, mr.Exists("game:401547665:summary"))
}

func TestGame_NoCache(t *testing.T) {
	fetcher := &countingFetcher{game: testutil.GameFixture()}
	svc := games.NewService(nil, fetcher, quietLogger())

	_, err := svc.Game(context.Background(), "401547665")
	require.NoError(t, err)
	_, err = svc.Game(context.Background(), "401547665")
	require.NoError(t, err)
	assert.Equal(t, 2, fetcher.calls)
}

func TestGame_FetchError(t *testing.T) {
	svc := games.NewService(nil, &countingFetcher{err: errors.New("timeout")}, quietLogger())

	_, err := svc.Game(context.Background(), "401547665")
	assert.Error(t, err)
}
