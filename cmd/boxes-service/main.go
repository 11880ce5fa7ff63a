package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/XavierBriggs/fortuna/services/boxes-service/internal/assembler"
	"github.com/XavierBriggs/fortuna/services/boxes-service/internal/cache"
	"github.com/XavierBriggs/fortuna/services/boxes-service/internal/chain"
	"github.com/XavierBriggs/fortuna/services/boxes-service/internal/config"
	"github.com/XavierBriggs/fortuna/services/boxes-service/internal/consumer"
	"github.com/XavierBriggs/fortuna/services/boxes-service/internal/contests"
	"github.com/XavierBriggs/fortuna/services/boxes-service/internal/games"
	"github.com/XavierBriggs/fortuna/services/boxes-service/internal/handlers"
	"github.com/XavierBriggs/fortuna/services/boxes-service/internal/hub"
	"github.com/XavierBriggs/fortuna/services/boxes-service/internal/identity"
	"github.com/XavierBriggs/fortuna/services/boxes-service/internal/logging"
	"github.com/XavierBriggs/fortuna/services/boxes-service/internal/metrics"
	"github.com/XavierBriggs/fortuna/services/boxes-service/internal/middleware"
	"github.com/XavierBriggs/fortuna/services/boxes-service/internal/poller"
	"github.com/XavierBriggs/fortuna/services/boxes-service/internal/providers/espn"
	"github.com/XavierBriggs/fortuna/services/boxes-service/internal/publisher"
	"github.com/XavierBriggs/fortuna/services/boxes-service/internal/retry"
	"github.com/XavierBriggs/fortuna/services/boxes-service/internal/squares"
	"github.com/XavierBriggs/fortuna/services/boxes-service/internal/tokens"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/redis/go-redis/v9"
)

func main() {
	fmt.Println("=== Fortuna Boxes Service ===")

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("❌ Invalid configuration: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Printf("❌ Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	log := logging.New(cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Chain
	eth, err := ethclient.DialContext(ctx, cfg.Chain.RPCURL)
	if err != nil {
		fmt.Printf("❌ Failed to connect to RPC: %v\n", err)
		os.Exit(1)
	}
	defer eth.Close()

	reader, err := chain.NewReader(eth, cfg.Chain.ContestAddress, cfg.Chain.ReaderAddress)
	if err != nil {
		fmt.Printf("❌ Failed to build contract reader: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("✓ Connected to chain %d (contest %s)\n", cfg.Chain.ChainID, cfg.Chain.ContestAddress.Hex())

	if err := verifyPayoutSchedule(ctx, reader); err != nil {
		fmt.Printf("❌ %v\n", err)
		os.Exit(1)
	}
	fmt.Println("✓ Payout schedule matches contract")

	// Redis
	redisOpts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		fmt.Printf("❌ Failed to parse Redis URL: %v\n", err)
		os.Exit(1)
	}
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		fmt.Printf("❌ Failed to connect to Redis: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("✓ Connected to Redis")

	store := cache.NewRedisStore(redisClient)
	contestCache := cache.NewContestCache(store, cache.Options{
		Enabled:    cfg.Cache.Enabled,
		ContestTTL: cfg.Cache.ContestTTL,
		PlayersTTL: cfg.Cache.PlayersTTL,
	}, log)

	// Tokens
	registry, err := tokens.LoadRegistry()
	if err != nil {
		fmt.Printf("❌ Failed to load token registry: %v\n", err)
		os.Exit(1)
	}
	coingecko := tokens.NewCoingeckoClient(cfg.Tokens.CoingeckoURL, cfg.Tokens.RateLimit)
	resolver := tokens.NewResolver(registry, coingecko, log)

	// Games
	gameSvc := games.NewService(cache.NewGameCache(store), espn.New(cfg.ESPN.BaseURL, cfg.ESPN.SportPath), log)

	deps := contests.Deps{
		Assembler: assembler.New(reader, resolver, cfg.Chain.ChainID, log),
		Chain:     reader,
		Cache:     contestCache,
		Games:     gameSvc,
		Basis:     cfg.Payout.Basis,
		Log:       log,
	}

	// Identities (optional)
	if cfg.Identity.DSN != "" {
		identities, err := identity.NewClient(cfg.Identity.DSN)
		if err != nil {
			fmt.Printf("❌ Failed to connect to identity DB: %v\n", err)
			os.Exit(1)
		}
		defer identities.Close()
		deps.Identities = identities
		fmt.Println("✓ Connected to identity DB")
	} else {
		fmt.Println("  Identity lookups disabled (IDENTITY_DSN not set)")
	}

	contestSvc := contests.NewService(deps)

	// Events
	pub := publisher.NewStreamPublisher(redisClient, publisher.NewDeduplicator(redisClient, cfg.Poller.DedupTTL))
	watcher := poller.NewWatcher(reader, contestSvc, pub, cfg.Poller.Interval, log)
	supervisor := poller.NewSupervisor(watcher, reader, contests.DefaultPageSize, time.Minute, log)
	go supervisor.Run(ctx)
	fmt.Printf("✓ Watching newest contests every %s\n", cfg.Poller.Interval)

	claims := poller.NewClaimTracker(eth, contestSvc, pub, retry.NewPolicy(cfg.Poller.ClaimAttempts, cfg.Poller.ClaimDelay), log)

	h := hub.NewHub(log)
	go h.Run(ctx)

	streamConsumer := consumer.NewStreamConsumer(redisClient, h, consumer.Config{
		Stream:        publisher.ContestEventsStream,
		ConsumerGroup: cfg.Stream.ConsumerGroup,
		ConsumerID:    cfg.Stream.ConsumerID,
	}, log)
	go func() {
		if err := streamConsumer.Start(ctx); err != nil {
			log.WithError(err).Error("stream consumer stopped")
		}
	}()
	fmt.Printf("✓ Consuming %s as %s/%s\n", publisher.ContestEventsStream, cfg.Stream.ConsumerGroup, cfg.Stream.ConsumerID)

	// HTTP
	calls, err := chain.NewCalls(cfg.Chain.ContestAddress)
	if err != nil {
		fmt.Printf("❌ Failed to build contract calls: %v\n", err)
		os.Exit(1)
	}

	handler := handlers.NewHandler(ctx, handlers.Deps{
		Contests: contestSvc,
		Calls:    calls,
		Fees:     reader,
		ScoreRequest: chain.ScoreRequest{
			SubscriptionID: cfg.Oracle.SubscriptionID,
			GasLimit:       cfg.Oracle.GasLimit,
			JobID:          cfg.Oracle.JobIDBytes(),
		},
		Claims:  claims,
		Tokens:  resolver,
		Prices:  coingecko,
		Hub:     h,
		Origins: cfg.Server.CORSOrigins,
		Log:     log,
	})

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(log))
	r.Use(chimiddleware.Recoverer)
	r.Use(metrics.InstrumentHandler)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	handler.Routes(r)

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		fmt.Printf("✓ Boxes service listening on %s\n", cfg.Server.Addr)
		fmt.Println("  Endpoints:")
		fmt.Println("    GET  /health")
		fmt.Println("    GET  /metrics")
		fmt.Println("    GET  /ws")
		fmt.Println("    GET  /api/v1/contests")
		fmt.Println("    GET  /api/v1/contests/{id}")
		fmt.Println("    POST /api/v1/contests/{id}/invalidate")
		fmt.Println("    GET  /api/v1/contests/{id}/players")
		fmt.Println("    GET  /api/v1/contests/{id}/boxes/{box}")
		fmt.Println("    GET  /api/v1/contests/{id}/winners")
		fmt.Println("    GET  /api/v1/contests/{id}/payouts")
		fmt.Println("    GET  /api/v1/contests/{id}/calls/claim")
		fmt.Println("    POST /api/v1/contests/{id}/calls/claim-boxes")
		fmt.Println("    GET  /api/v1/contests/{id}/calls/random-values")
		fmt.Println("    GET  /api/v1/contests/{id}/calls/refresh-scores")
		fmt.Println("    POST /api/v1/contests/{id}/claims")
		fmt.Println("    GET  /api/v1/claims/{tx_hash}")
		fmt.Println("    GET  /api/v1/games/{game_id}")
		fmt.Println("    GET  /api/v1/tokens")
		fmt.Println("    GET  /api/v1/tokens/{coin_id}/price")

		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			fmt.Printf("❌ Server error: %v\n", err)
			cancel()
			os.Exit(1)
		}

	case sig := <-shutdown:
		fmt.Printf("\n⚠️  Received signal: %v\n", sig)

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			fmt.Printf("⚠️  Graceful shutdown failed: %v\n", err)
			if err := srv.Close(); err != nil {
				fmt.Printf("❌ Could not stop server: %v\n", err)
			}
		}
	}

	// stop watchers, the hub and in-flight claim polls
	cancel()
	claims.Wait()

	fmt.Println("✓ Shutdown complete")
}

// verifyPayoutSchedule refuses to start when the contract's payout constants
// differ from the table rewards are computed with
func verifyPayoutSchedule(ctx context.Context, reader *chain.Reader) error {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	onchain, err := reader.PayoutSchedule(ctx)
	if err != nil {
		return fmt.Errorf("reading payout schedule: %w", err)
	}
	return squares.LocalSchedule().Verify(onchain)
}
