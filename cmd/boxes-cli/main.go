package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/XavierBriggs/fortuna/services/boxes-service/internal/assembler"
	"github.com/XavierBriggs/fortuna/services/boxes-service/internal/cache"
	"github.com/XavierBriggs/fortuna/services/boxes-service/internal/chain"
	"github.com/XavierBriggs/fortuna/services/boxes-service/internal/config"
	"github.com/XavierBriggs/fortuna/services/boxes-service/internal/contests"
	"github.com/XavierBriggs/fortuna/services/boxes-service/internal/games"
	"github.com/XavierBriggs/fortuna/services/boxes-service/internal/logging"
	"github.com/XavierBriggs/fortuna/services/boxes-service/internal/providers/espn"
	"github.com/XavierBriggs/fortuna/services/boxes-service/internal/squares"
	"github.com/XavierBriggs/fortuna/services/boxes-service/internal/tokens"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/redis/go-redis/v9"
	"github.com/urfave/cli"
)

const commandTimeout = 60 * time.Second

// env is the wiring every command shares
type env struct {
	reader  *chain.Reader
	service *contests.Service
	close   func()
}

func main() {
	app := cli.NewApp()
	app.Name = "boxes-cli"
	app.Usage = "inspect and maintain NFL boxes contests"

	idFlag := cli.Int64Flag{Name: "id", Usage: "contest id"}

	app.Commands = []cli.Command{
		{
			Name:   "contest",
			Usage:  "print the assembled contest",
			Flags:  []cli.Flag{idFlag},
			Action: withEnv(cmdContest),
		},
		{
			Name:  "evaluate",
			Usage: "evaluate one box",
			Flags: []cli.Flag{
				idFlag,
				cli.IntFlag{Name: "box", Usage: "local box index 0-99"},
			},
			Action: withEnv(cmdEvaluate),
		},
		{
			Name:   "invalidate",
			Usage:  "drop a contest's cached snapshot and roster",
			Flags:  []cli.Flag{idFlag},
			Action: withEnv(cmdInvalidate),
		},
		{
			Name:   "payouts",
			Usage:  "print the per-quarter payout table",
			Flags:  []cli.Flag{idFlag},
			Action: withEnv(cmdPayouts),
		},
		{
			Name:   "winners",
			Usage:  "print the winning box of each confirmed quarter",
			Flags:  []cli.Flag{idFlag},
			Action: withEnv(cmdWinners),
		},
		{
			Name:   "verify-schedule",
			Usage:  "compare the contract's payout constants with the local table",
			Action: withEnv(cmdVerifySchedule),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}
}

func withEnv(fn func(ctx context.Context, c *cli.Context, e *env) error) func(*cli.Context) error {
	return func(c *cli.Context) error {
		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()

		e, err := newEnv(ctx)
		if err != nil {
			return err
		}
		defer e.close()

		return fn(ctx, c, e)
	}
}

func newEnv(ctx context.Context) (*env, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log := logging.New(cfg.Log.Level, cfg.Log.Format)
	log.SetOutput(os.Stderr)

	eth, err := ethclient.DialContext(ctx, cfg.Chain.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("connecting to rpc: %w", err)
	}
	reader, err := chain.NewReader(eth, cfg.Chain.ContestAddress, cfg.Chain.ReaderAddress)
	if err != nil {
		eth.Close()
		return nil, err
	}

	redisOpts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		eth.Close()
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	redisClient := redis.NewClient(redisOpts)
	store := cache.NewRedisStore(redisClient)

	registry, err := tokens.LoadRegistry()
	if err != nil {
		eth.Close()
		redisClient.Close()
		return nil, err
	}
	resolver := tokens.NewResolver(registry, tokens.NewCoingeckoClient(cfg.Tokens.CoingeckoURL, cfg.Tokens.RateLimit), log)

	service := contests.NewService(contests.Deps{
		Assembler: assembler.New(reader, resolver, cfg.Chain.ChainID, log),
		Chain:     reader,
		Cache: cache.NewContestCache(store, cache.Options{
			Enabled:    cfg.Cache.Enabled,
			ContestTTL: cfg.Cache.ContestTTL,
			PlayersTTL: cfg.Cache.PlayersTTL,
		}, log),
		Games: games.NewService(cache.NewGameCache(store), espn.New(cfg.ESPN.BaseURL, cfg.ESPN.SportPath), log),
		Basis: cfg.Payout.Basis,
		Log:   log,
	})

	return &env{
		reader:  reader,
		service: service,
		close: func() {
			redisClient.Close()
			eth.Close()
		},
	}, nil
}

func contestID(c *cli.Context) (int64, error) {
	if !c.IsSet("id") {
		return 0, fmt.Errorf("--id is required")
	}
	return c.Int64("id"), nil
}

func cmdContest(ctx context.Context, c *cli.Context, e *env) error {
	id, err := contestID(c)
	if err != nil {
		return err
	}
	contest, err := e.service.GetOrAssembleContest(ctx, id)
	if err != nil {
		return err
	}
	return printJSON(os.Stdout, contest)
}

func cmdEvaluate(ctx context.Context, c *cli.Context, e *env) error {
	id, err := contestID(c)
	if err != nil {
		return err
	}
	if !c.IsSet("box") {
		return fmt.Errorf("--box is required")
	}
	view, err := e.service.Box(ctx, id, c.Int("box"))
	if err != nil {
		return err
	}
	return printJSON(os.Stdout, view)
}

func cmdInvalidate(ctx context.Context, c *cli.Context, e *env) error {
	id, err := contestID(c)
	if err != nil {
		return err
	}
	e.service.InvalidateContest(ctx, id)
	fmt.Printf("✓ Invalidated contest %d\n", id)
	return nil
}

func cmdPayouts(ctx context.Context, c *cli.Context, e *env) error {
	id, err := contestID(c)
	if err != nil {
		return err
	}
	payouts, err := e.service.Payouts(ctx, id)
	if err != nil {
		return err
	}
	return printJSON(os.Stdout, payouts)
}

func cmdWinners(ctx context.Context, c *cli.Context, e *env) error {
	id, err := contestID(c)
	if err != nil {
		return err
	}
	winners, err := e.service.Winners(ctx, id)
	if err != nil {
		return err
	}
	return printJSON(os.Stdout, winners)
}

func cmdVerifySchedule(ctx context.Context, c *cli.Context, e *env) error {
	onchain, err := e.reader.PayoutSchedule(ctx)
	if err != nil {
		return err
	}
	if err := squares.LocalSchedule().Verify(onchain); err != nil {
		return err
	}
	fmt.Println("✓ Payout schedule matches contract")
	return nil
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
