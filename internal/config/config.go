package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/XavierBriggs/fortuna/services/boxes-service/internal/squares"
	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
)

// ServerConfig holds server configuration
type ServerConfig struct {
	Addr        string
	CORSOrigins []string
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	URL string
}

// ChainConfig locates the contracts and the RPC endpoint
type ChainConfig struct {
	RPCURL         string
	ChainID        int64
	ContestAddress common.Address
	ReaderAddress  common.Address
}

// OracleConfig carries the Chainlink Functions parameters for score refreshes
type OracleConfig struct {
	SubscriptionID uint64
	GasLimit       uint32
	JobID          string
}

// CacheConfig controls the contest cache
type CacheConfig struct {
	Enabled    bool
	ContestTTL time.Duration
	PlayersTTL time.Duration
}

// PayoutConfig selects the pot that pending rewards are computed from
type PayoutConfig struct {
	Basis squares.PotBasis
}

// PollerConfig controls contest watching and claim tracking
type PollerConfig struct {
	Interval      time.Duration
	ClaimAttempts int
	ClaimDelay    time.Duration
	DedupTTL      time.Duration
}

// StreamConfig names the event stream consumer group member
type StreamConfig struct {
	ConsumerGroup string
	ConsumerID    string
}

// ESPNConfig locates the game feed
type ESPNConfig struct {
	BaseURL   string
	SportPath string
}

// TokensConfig controls token image and price lookups
type TokensConfig struct {
	CoingeckoURL string
	RateLimit    int // requests per minute
}

// IdentityConfig locates the user profile database. Empty DSN disables lookups.
type IdentityConfig struct {
	DSN string
}

// LogConfig controls logging output
type LogConfig struct {
	Level  string
	Format string
}

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Redis    RedisConfig
	Chain    ChainConfig
	Oracle   OracleConfig
	Cache    CacheConfig
	Payout   PayoutConfig
	Poller   PollerConfig
	Stream   StreamConfig
	ESPN     ESPNConfig
	Tokens   TokensConfig
	Identity IdentityConfig
	Log      LogConfig
}

// LoadConfig loads configuration from the environment, after reading a .env
// file if one exists
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	rawBasis := getEnv("PAYOUT_BASIS", string(squares.PotFromBoxSales))
	basis := squares.ParsePotBasis(rawBasis)
	if string(basis) != rawBasis {
		return nil, fmt.Errorf("PAYOUT_BASIS %q must be %s or %s", rawBasis, squares.PotFromBoxSales, squares.PotFromTotalRewards)
	}

	contest := getEnv("CONTEST_ADDRESS", "")
	if contest != "" && !common.IsHexAddress(contest) {
		return nil, fmt.Errorf("CONTEST_ADDRESS %q is not an address", contest)
	}
	reader := getEnv("READER_ADDRESS", "")
	if reader != "" && !common.IsHexAddress(reader) {
		return nil, fmt.Errorf("READER_ADDRESS %q is not an address", reader)
	}

	return &Config{
		Server: ServerConfig{
			Addr:        getEnv("SERVER_ADDR", ":8080"),
			CORSOrigins: getEnvList("CORS_ORIGINS", []string{"http://localhost:3000"}),
		},
		Redis: RedisConfig{
			URL: getEnv("REDIS_URL", "redis://localhost:6380"),
		},
		Chain: ChainConfig{
			RPCURL:         getEnv("RPC_URL", "https://sepolia.base.org"),
			ChainID:        getEnvInt64("CHAIN_ID", 84532),
			ContestAddress: common.HexToAddress(contest),
			ReaderAddress:  common.HexToAddress(reader),
		},
		Oracle: OracleConfig{
			SubscriptionID: uint64(getEnvInt64("ORACLE_SUBSCRIPTION_ID", 0)),
			GasLimit:       uint32(getEnvInt64("ORACLE_GAS_LIMIT", 300000)),
			JobID:          getEnv("ORACLE_JOB_ID", ""),
		},
		Cache: CacheConfig{
			Enabled:    getEnvBool("CACHE_ENABLED", true),
			ContestTTL: getEnvDuration("CACHE_CONTEST_TTL", 300*time.Second),
			PlayersTTL: getEnvDuration("CACHE_PLAYERS_TTL", 300*time.Second),
		},
		Payout: PayoutConfig{
			Basis: basis,
		},
		Poller: PollerConfig{
			Interval:      getEnvDuration("POLLER_INTERVAL", 15*time.Second),
			ClaimAttempts: int(getEnvInt64("CLAIM_POLL_ATTEMPTS", 20)),
			ClaimDelay:    getEnvDuration("CLAIM_POLL_DELAY", 2*time.Second),
			DedupTTL:      getEnvDuration("EVENT_DEDUP_TTL", 24*time.Hour),
		},
		Stream: StreamConfig{
			ConsumerGroup: getEnv("CONSUMER_GROUP", "boxes-service"),
			ConsumerID:    getEnv("CONSUMER_ID", hostname()),
		},
		ESPN: ESPNConfig{
			BaseURL:   getEnv("ESPN_BASE_URL", "https://site.api.espn.com/apis/site/v2/sports"),
			SportPath: getEnv("ESPN_SPORT_PATH", "football/nfl"),
		},
		Tokens: TokensConfig{
			CoingeckoURL: getEnv("COINGECKO_URL", "https://api.coingecko.com/api/v3"),
			RateLimit:    int(getEnvInt64("COINGECKO_RATE_LIMIT", 30)),
		},
		Identity: IdentityConfig{
			DSN: getEnv("IDENTITY_DSN", ""),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "text"),
		},
	}, nil
}

// Validate checks the settings the service cannot start without
func (c *Config) Validate() error {
	if c.Chain.ContestAddress == (common.Address{}) {
		return fmt.Errorf("CONTEST_ADDRESS is required")
	}
	if c.Chain.ReaderAddress == (common.Address{}) {
		return fmt.Errorf("READER_ADDRESS is required")
	}
	if c.Chain.ChainID <= 0 {
		return fmt.Errorf("CHAIN_ID must be positive")
	}
	return nil
}

// JobIDBytes left-aligns the oracle job id into 32 bytes
func (o OracleConfig) JobIDBytes() [32]byte {
	var out [32]byte
	copy(out[:], o.JobID)
	return out
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	v, err := strconv.ParseInt(getEnv(key, ""), 10, 64)
	if err != nil {
		return defaultValue
	}
	return v
}

func getEnvBool(key string, defaultValue bool) bool {
	v, err := strconv.ParseBool(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return v
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	v, err := time.ParseDuration(getEnv(key, ""))
	if err != nil || v <= 0 {
		return defaultValue
	}
	return v
}

func getEnvList(key string, defaultValue []string) []string {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func hostname() string {
	if h, err := os.Hostname(); err == nil && h != "" {
		return h
	}
	return "boxes-service-1"
}
