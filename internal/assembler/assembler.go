package assembler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/XavierBriggs/fortuna/services/boxes-service/internal/chain"
	"github.com/XavierBriggs/fortuna/services/boxes-service/internal/metrics"
	"github.com/XavierBriggs/fortuna/services/boxes-service/internal/squares"
	"github.com/XavierBriggs/fortuna/services/boxes-service/pkg/models"
	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrUpstreamUnavailable wraps any failed contract read
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	// ErrContestNotFound is returned for ids the contract has never created
	ErrContestNotFound = errors.New("contest not found")
	// ErrInvalidPermutation is returned when assigned rows or cols are not a permutation of 0-9
	ErrInvalidPermutation = errors.New("invalid permutation")
)

// ChainReader is the subset of contract reads a snapshot needs
type ChainReader interface {
	Contest(ctx context.Context, contestID int64) (*chain.ContestFields, error)
	ContestCols(ctx context.Context, contestID int64) ([]int, error)
	ContestRows(ctx context.Context, contestID int64) ([]int, error)
	BoxesAddress(ctx context.Context) (common.Address, error)
	IsRewardPaidForQuarter(ctx context.Context, contestID int64, quarter squares.Quarter) (bool, error)
	ContestCurrency(ctx context.Context, contestID int64) (*chain.Currency, error)
}

// ImageResolver maps a currency to its display image
type ImageResolver interface {
	Image(ctx context.Context, chainID int64, currency common.Address) (string, error)
}

// Assembler builds contest snapshots from parallel contract reads
type Assembler struct {
	reader  ChainReader
	images  ImageResolver
	chainID int64
	log     logrus.FieldLogger
	now     func() time.Time
}

// New creates an assembler for the given chain
func New(reader ChainReader, images ImageResolver, chainID int64, log logrus.FieldLogger) *Assembler {
	return &Assembler{
		reader:  reader,
		images:  images,
		chainID: chainID,
		log:     log.WithField("component", "assembler"),
		now:     time.Now,
	}
}

// Assemble reads every field of a contest and joins them into one snapshot.
// Any failed read fails the whole snapshot; nothing partial is returned.
func (a *Assembler) Assemble(ctx context.Context, contestID int64) (contest *models.Contest, err error) {
	start := time.Now()
	defer func() {
		metrics.RecordAssembly(time.Since(start), err)
	}()

	var (
		fields   *chain.ContestFields
		cols     []int
		rows     []int
		boxes    common.Address
		currency *chain.Currency
		paid     [4]bool
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		f, err := a.reader.Contest(gctx, contestID)
		fields = f
		return err
	})
	g.Go(func() error {
		c, err := a.reader.ContestCols(gctx, contestID)
		cols = c
		return err
	})
	g.Go(func() error {
		r, err := a.reader.ContestRows(gctx, contestID)
		rows = r
		return err
	})
	g.Go(func() error {
		b, err := a.reader.BoxesAddress(gctx)
		boxes = b
		return err
	})
	for i, q := range squares.Quarters {
		i, q := i, q
		g.Go(func() error {
			p, err := a.reader.IsRewardPaidForQuarter(gctx, contestID, q)
			paid[i] = p
			return err
		})
	}
	g.Go(func() error {
		c, err := a.reader.ContestCurrency(gctx, contestID)
		currency = c
		return err
	})

	if err := g.Wait(); err != nil {
		a.log.WithError(err).WithField("contest_id", contestID).Warn("contest assembly failed")
		return nil, fmt.Errorf("%w: assembling contest %d: %v", ErrUpstreamUnavailable, contestID, err)
	}

	if fields.Creator == (common.Address{}) {
		return nil, fmt.Errorf("%w: %d", ErrContestNotFound, contestID)
	}

	if fields.RandomValuesSet {
		if !squares.IsPermutation(rows) || !squares.IsPermutation(cols) {
			return nil, fmt.Errorf("%w: contest %d rows=%v cols=%v", ErrInvalidPermutation, contestID, rows, cols)
		}
	} else {
		rows, cols = nil, nil
	}

	image, err := a.images.Image(ctx, a.chainID, fields.BoxCurrency)
	if err != nil {
		return nil, fmt.Errorf("%w: resolving currency image: %v", ErrUpstreamUnavailable, err)
	}

	contest = &models.Contest{
		ID:      contestID,
		GameID:  fields.GameID.String(),
		Creator: fields.Creator,
		BoxCost: models.BoxCost{
			Currency: fields.BoxCurrency,
			Amount:   fields.BoxAmount,
			Decimals: currency.Decimals,
			Symbol:   currency.Symbol,
			Name:     currency.Name,
			Image:    image,
		},
		BoxesCanBeClaimed: fields.BoxesCanBeClaimed,
		RewardsPaid: models.RewardsPaid{
			Q1Paid:    paid[0],
			Q2Paid:    paid[1],
			Q3Paid:    paid[2],
			FinalPaid: paid[3],
		},
		TotalRewards:    fields.TotalRewards,
		BoxesClaimed:    fields.BoxesClaimed.Int64(),
		RandomValuesSet: fields.RandomValuesSet,
		Rows:            rows,
		Cols:            cols,
		BoxesAddress:    boxes,
		FetchedAt:       a.now().UTC(),
	}

	return contest, nil
}
