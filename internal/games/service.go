package games

import (
	"context"
	"errors"
	"fmt"

	"github.com/XavierBriggs/fortuna/services/boxes-service/internal/cache"
	"github.com/XavierBriggs/fortuna/services/boxes-service/pkg/models"
	"github.com/sirupsen/logrus"
)

// Fetcher loads a game from the score provider
type Fetcher interface {
	FetchGame(ctx context.Context, gameID string) (*models.Game, error)
}

// Service serves live games from Redis, refreshing from ESPN on a miss
type Service struct {
	cache   *cache.GameCache
	fetcher Fetcher
	log     logrus.FieldLogger
}

// NewService creates a game service. gameCache may be nil.
func NewService(gameCache *cache.GameCache, fetcher Fetcher, log logrus.FieldLogger) *Service {
	return &Service{
		cache:   gameCache,
		fetcher: fetcher,
		log:     log.WithField("component", "games"),
	}
}

// Game returns the current state of a game
func (s *Service) Game(ctx context.Context, gameID string) (*models.Game, error) {
	if s.cache != nil {
		game, err := s.cache.ReadGame(ctx, gameID)
		if err == nil {
			return game, nil
		}
		if !errors.Is(err, cache.ErrMiss) {
			s.log.WithError(err).WithField("game_id", gameID).Warn("game cache read failed")
		}
	}

	game, err := s.fetcher.FetchGame(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("fetching game %s: %w", gameID, err)
	}

	if s.cache != nil {
		if err := s.cache.WriteGame(ctx, game); err != nil {
			s.log.WithError(err).WithField("game_id", gameID).Warn("game cache write failed")
		}
	}

	return game, nil
}
