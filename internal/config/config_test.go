package config_test

import (
	"testing"
	"time"

	"github.com/XavierBriggs/fortuna/services/boxes-service/internal/config"
	"github.com/XavierBriggs/fortuna/services/boxes-service/internal/squares"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"SERVER_ADDR", "CORS_ORIGINS", "REDIS_URL", "RPC_URL", "CHAIN_ID",
	"CONTEST_ADDRESS", "READER_ADDRESS", "CACHE_ENABLED", "CACHE_CONTEST_TTL",
	"CACHE_PLAYERS_TTL", "PAYOUT_BASIS", "POLLER_INTERVAL", "CONSUMER_GROUP",
	"CONSUMER_ID", "ESPN_SPORT_PATH", "COINGECKO_RATE_LIMIT", "IDENTITY_DSN",
	"LOG_LEVEL", "ORACLE_JOB_ID",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := config.LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.Server.CORSOrigins)
	assert.Equal(t, "redis://localhost:6380", cfg.Redis.URL)
	assert.Equal(t, int64(84532), cfg.Chain.ChainID)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, 300*time.Second, cfg.Cache.ContestTTL)
	assert.Equal(t, 300*time.Second, cfg.Cache.PlayersTTL)
	assert.Equal(t, squares.PotFromBoxSales, cfg.Payout.Basis)
	assert.Equal(t, 15*time.Second, cfg.Poller.Interval)
	assert.Equal(t, "boxes-service", cfg.Stream.ConsumerGroup)
	assert.NotEmpty(t, cfg.Stream.ConsumerID)
	assert.Equal(t, "football/nfl", cfg.ESPN.SportPath)
	assert.Equal(t, 30, cfg.Tokens.RateLimit)
	assert.Empty(t, cfg.Identity.DSN)
	assert.Equal(t, "info", cfg.Log.Level)

	// contract addresses have no default
	assert.Error(t, cfg.Validate())
}

func TestLoadConfig_CustomValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("SERVER_ADDR", ":9090")
	t.Setenv("CORS_ORIGINS", "https://boxes.example, https://app.example ,")
	t.Setenv("CHAIN_ID", "8453")
	t.Setenv("CONTEST_ADDRESS", "0xb9647d7982cEfb104D332Ba818b8971d76E7fA1F")
	t.Setenv("READER_ADDRESS", "0x00000000000000000000000000000000000000Bb")
	t.Setenv("CACHE_ENABLED", "false")
	t.Setenv("CACHE_CONTEST_TTL", "1m")
	t.Setenv("PAYOUT_BASIS", "total_rewards")
	t.Setenv("POLLER_INTERVAL", "5s")
	t.Setenv("CONSUMER_ID", "boxes-2")

	cfg, err := config.LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, []string{"https://boxes.example", "https://app.example"}, cfg.Server.CORSOrigins)
	assert.Equal(t, int64(8453), cfg.Chain.ChainID)
	assert.Equal(t, common.HexToAddress("0xb9647d7982cEfb104D332Ba818b8971d76E7fA1F"), cfg.Chain.ContestAddress)
	assert.False(t, cfg.Cache.Enabled)
	assert.Equal(t, time.Minute, cfg.Cache.ContestTTL)
	assert.Equal(t, squares.PotFromTotalRewards, cfg.Payout.Basis)
	assert.Equal(t, 5*time.Second, cfg.Poller.Interval)
	assert.Equal(t, "boxes-2", cfg.Stream.ConsumerID)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfig_InvalidValuesFallBack(t *testing.T) {
	clearEnv(t)
	t.Setenv("CACHE_ENABLED", "sometimes")
	t.Setenv("CACHE_CONTEST_TTL", "five minutes")
	t.Setenv("POLLER_INTERVAL", "-3s")
	t.Setenv("CHAIN_ID", "base")

	cfg, err := config.LoadConfig()
	require.NoError(t, err)

	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, 300*time.Second, cfg.Cache.ContestTTL)
	assert.Equal(t, 15*time.Second, cfg.Poller.Interval)
	assert.Equal(t, int64(84532), cfg.Chain.ChainID)
}

func TestLoadConfig_Errors(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"unknown basis", "PAYOUT_BASIS", "half_pot"},
		{"bad contest address", "CONTEST_ADDRESS", "0x123"},
		{"bad reader address", "READER_ADDRESS", "reader"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.val)

			_, err := config.LoadConfig()
			assert.Error(t, err)
		})
	}
}

func TestJobIDBytes(t *testing.T) {
	o := config.OracleConfig{JobID: "fun-base-1"}
	b := o.JobIDBytes()
	assert.Equal(t, "fun-base-1", string(b[:10]))
	assert.Equal(t, byte(0), b[10])
}
