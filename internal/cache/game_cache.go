package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/XavierBriggs/fortuna/services/boxes-service/pkg/models"
)

// Game TTLs by status
const (
	LiveGameTTL     = 30 * time.Second
	UpcomingGameTTL = 5 * time.Minute
	FinalGameTTL    = 6 * time.Hour
)

// GameCache stores ESPN game summaries keyed by game id
type GameCache struct {
	store Store
}

// NewGameCache creates a game cache
func NewGameCache(store Store) *GameCache {
	return &GameCache{
		store: store,
	}
}

// WriteGame stores a game summary with a TTL that follows its status
func (c *GameCache) WriteGame(ctx context.Context, game *models.Game) error {
	data, err := json.Marshal(game)
	if err != nil {
		return fmt.Errorf("marshaling game: %w", err)
	}

	return c.store.Set(ctx, gameKey(game.GameID), data, ttlForGame(game))
}

// ReadGame returns ErrMiss when the game is not cached
func (c *GameCache) ReadGame(ctx context.Context, gameID string) (*models.Game, error) {
	data, err := c.store.Get(ctx, gameKey(gameID))
	if err != nil {
		return nil, err
	}

	var game models.Game
	if err := json.Unmarshal(data, &game); err != nil {
		return nil, fmt.Errorf("unmarshaling game: %w", err)
	}

	return &game, nil
}

func gameKey(gameID string) string {
	return fmt.Sprintf("game:%s:summary", gameID)
}

// ttlForGame keeps live games short-lived so quarter progress stays current
func ttlForGame(game *models.Game) time.Duration {
	switch {
	case game.Completed || game.Status == models.StatusFinal:
		return FinalGameTTL
	case game.Status == models.StatusLive:
		return LiveGameTTL
	default:
		return UpcomingGameTTL
	}
}
