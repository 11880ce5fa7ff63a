package contests

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/XavierBriggs/fortuna/services/boxes-service/internal/assembler"
	"github.com/XavierBriggs/fortuna/services/boxes-service/internal/cache"
	"github.com/XavierBriggs/fortuna/services/boxes-service/internal/squares"
	"github.com/XavierBriggs/fortuna/services/boxes-service/pkg/models"
	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// DefaultPageSize is the listing page size when none is given
const DefaultPageSize = 10

const fanout = 10

var (
	ErrUpstreamUnavailable = assembler.ErrUpstreamUnavailable
	ErrContestNotFound     = assembler.ErrContestNotFound
)

// Assembler builds a contest snapshot from the chain
type Assembler interface {
	Assemble(ctx context.Context, contestID int64) (*models.Contest, error)
}

// ChainReader is the subset of contract reads the service makes directly
type ChainReader interface {
	ContestAddress() common.Address
	ContestIDCounter(ctx context.Context) (int64, error)
	GameScores(ctx context.Context, gameID string) (*models.ScoresOnChain, error)
	OwnerOf(ctx context.Context, boxes common.Address, tokenID int64) (common.Address, error)
}

// GameSource returns the live state of a game
type GameSource interface {
	Game(ctx context.Context, gameID string) (*models.Game, error)
}

// IdentityLookup returns public profiles for addresses
type IdentityLookup interface {
	Lookup(ctx context.Context, addresses []string) ([]models.Identity, error)
}

// Deps wires a Service. Identities may be nil.
type Deps struct {
	Assembler  Assembler
	Chain      ChainReader
	Cache      *cache.ContestCache
	Games      GameSource
	Identities IdentityLookup
	Basis      squares.PotBasis
	Log        logrus.FieldLogger
}

// Service is the read side of the contest API
type Service struct {
	assembler  Assembler
	chain      ChainReader
	cache      *cache.ContestCache
	games      GameSource
	identities IdentityLookup
	basis      squares.PotBasis
	log        logrus.FieldLogger
}

// NewService creates a contest service
func NewService(d Deps) *Service {
	basis := d.Basis
	if basis == "" {
		basis = squares.PotFromBoxSales
	}
	return &Service{
		assembler:  d.Assembler,
		chain:      d.Chain,
		cache:      d.Cache,
		games:      d.Games,
		identities: d.Identities,
		basis:      basis,
		log:        d.Log.WithField("component", "contests"),
	}
}

// Basis returns the pot basis used for pending rewards
func (s *Service) Basis() squares.PotBasis {
	return s.basis
}

// GetOrAssembleContest serves a cached snapshot or assembles and caches a fresh one
func (s *Service) GetOrAssembleContest(ctx context.Context, contestID int64) (*models.Contest, error) {
	if contestID < 0 {
		return nil, fmt.Errorf("%w: contest id %d", squares.ErrInvalidInput, contestID)
	}

	if contest, ok := s.cache.GetContest(ctx, contestID); ok {
		return contest, nil
	}

	contest, err := s.assembler.Assemble(ctx, contestID)
	if err != nil {
		return nil, err
	}

	s.cache.SetContest(ctx, contest)
	return contest, nil
}

// InvalidateContest drops the cached snapshot and roster
func (s *Service) InvalidateContest(ctx context.Context, contestID int64) {
	s.cache.Invalidate(ctx, contestID)
	s.log.WithField("contest_id", contestID).Debug("contest cache invalidated")
}

// EvaluateBox evaluates a box, applying the service's pot basis when none is set
func (s *Service) EvaluateBox(in squares.BoxInput) (models.WinResult, error) {
	if in.Basis == "" {
		in.Basis = s.basis
	}
	return squares.EvaluateBox(in)
}

// AmountForQuarter is the reward a contest pays for one quarter
func (s *Service) AmountForQuarter(ctx context.Context, contestID int64, q squares.Quarter) (*big.Int, error) {
	contest, err := s.GetOrAssembleContest(ctx, contestID)
	if err != nil {
		return nil, err
	}
	return squares.AmountForQuarter(squares.PotFor(contest, s.basis), q)
}

// Scores reads the oracle's score snapshot for a contest's game
func (s *Service) Scores(ctx context.Context, contest *models.Contest) (*models.ScoresOnChain, error) {
	scores, err := s.chain.GameScores(ctx, contest.GameID)
	if err != nil {
		return nil, fmt.Errorf("%w: reading scores for game %s: %v", ErrUpstreamUnavailable, contest.GameID, err)
	}
	return scores, nil
}

// Game returns the live game a contest tracks
func (s *Service) Game(ctx context.Context, gameID string) (*models.Game, error) {
	game, err := s.games.Game(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	return game, nil
}

// List returns one newest-first page of contests
func (s *Service) List(ctx context.Context, start *int64, limit int64) (*models.ContestPage, error) {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if start != nil && *start < 0 {
		return nil, fmt.Errorf("%w: start %d", squares.ErrInvalidInput, *start)
	}

	total, err := s.chain.ContestIDCounter(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: reading contest counter: %v", ErrUpstreamUnavailable, err)
	}

	ids := PageIDs(total, start, limit)
	page := &models.ContestPage{
		Total:    total,
		Limit:    limit,
		IDs:      ids,
		Contests: make([]*models.Contest, len(ids)),
	}
	if start != nil {
		page.Start = *start
	} else {
		page.Start = max(0, total-limit)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fanout)
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			contest, err := s.GetOrAssembleContest(gctx, id)
			if err != nil {
				return err
			}
			page.Contests[i] = contest
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return page, nil
}

// PageIDs computes the contest ids of one listing page. When start is nil
// the page begins at max(0, total-limit).
func PageIDs(total int64, start *int64, limit int64) []int64 {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	from := max(0, total-limit)
	if start != nil {
		from = *start
	}
	end := min(from+limit, total)

	ids := []int64{}
	for i := int64(0); i < end-from; i++ {
		ids = append(ids, total-1-(from+i))
	}
	return ids
}

// Roster lists who owns the boxes of a contest
func (s *Service) Roster(ctx context.Context, contestID int64) (*models.Players, error) {
	if players, ok := s.cache.GetPlayers(ctx, contestID); ok {
		return players, nil
	}

	contest, err := s.GetOrAssembleContest(ctx, contestID)
	if err != nil {
		return nil, err
	}

	owners := make([]common.Address, models.BoxesPerContest)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fanout)
	for i := 0; i < models.BoxesPerContest; i++ {
		i := i
		g.Go(func() error {
			owner, err := s.chain.OwnerOf(gctx, contest.BoxesAddress, models.TokenID(contestID, i))
			if err != nil {
				return err
			}
			owners[i] = owner
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%w: reading box owners: %v", ErrUpstreamUnavailable, err)
	}

	house := s.chain.ContestAddress()
	players := &models.Players{
		ContestID:        contestID,
		Players:          []string{},
		OwnerCounts:      make(map[string]int),
		TokenIDsToOwners: make(map[int64]string, models.BoxesPerContest),
		Identities:       []models.Identity{},
	}
	for i, owner := range owners {
		hex := owner.Hex()
		if _, seen := players.OwnerCounts[hex]; !seen && owner != house {
			players.Players = append(players.Players, hex)
		}
		players.OwnerCounts[hex]++
		players.TokenIDsToOwners[models.TokenID(contestID, i)] = hex
	}

	if s.identities != nil && len(players.Players) > 0 {
		identities, err := s.identities.Lookup(ctx, players.Players)
		if err != nil {
			s.log.WithError(err).WithField("contest_id", contestID).Warn("identity lookup failed")
		} else {
			players.Identities = identities
		}
	}

	s.cache.SetPlayers(ctx, players)
	return players, nil
}

// Box evaluates one box for display. Missing scores or game data leave the
// box in the unknown status rather than reporting it as a loser.
func (s *Service) Box(ctx context.Context, contestID int64, localIndex int) (*models.BoxView, error) {
	row, col, err := squares.BoxPosition(localIndex)
	if err != nil {
		return nil, err
	}

	contest, err := s.GetOrAssembleContest(ctx, contestID)
	if err != nil {
		return nil, err
	}

	view := &models.BoxView{
		ContestID:  contestID,
		LocalIndex: localIndex,
		TokenID:    models.TokenID(contestID, localIndex),
		Row:        row,
		Col:        col,
		Status:     models.BoxStatusUnknown,
	}
	log := s.log.WithField("contest_id", contestID).WithField("box", localIndex)

	if contest.RandomValuesSet {
		if digits, err := squares.DigitsFor(contest, row, col); err == nil {
			view.HomeDigit = &digits.Home
			view.AwayDigit = &digits.Away
		}
	}

	var owner *common.Address
	if roster, err := s.Roster(ctx, contestID); err != nil {
		log.WithError(err).Warn("roster unavailable")
	} else if hex, ok := roster.TokenIDsToOwners[view.TokenID]; ok {
		addr := common.HexToAddress(hex)
		view.Owner = hex
		view.Claimed = !strings.EqualFold(hex, s.chain.ContestAddress().Hex())
		owner = &addr
	}

	scores, err := s.Scores(ctx, contest)
	if err != nil {
		log.WithError(err).Warn("scores unavailable, box status unknown")
		return view, nil
	}

	game, err := s.games.Game(ctx, contest.GameID)
	if err != nil {
		log.WithError(err).Warn("game unavailable, box status unknown")
		return view, nil
	}
	clock, completed := squares.ProgressFor(game)

	result, err := s.EvaluateBox(squares.BoxInput{
		Row:           row,
		Col:           col,
		Contest:       contest,
		Scores:        scores,
		ProgressClock: clock,
		GameCompleted: completed,
		Owner:         owner,
	})
	if errors.Is(err, squares.ErrMissingData) {
		return view, nil
	}
	if err != nil {
		return nil, err
	}

	view.Result = &result
	view.Status = models.BoxStatusEvaluated
	return view, nil
}

// Winners lists the winning box of every quarter the oracle has confirmed
func (s *Service) Winners(ctx context.Context, contestID int64) (*models.WinnersView, error) {
	contest, err := s.GetOrAssembleContest(ctx, contestID)
	if err != nil {
		return nil, err
	}

	scores, err := s.Scores(ctx, contest)
	if err != nil {
		return nil, err
	}

	winners, err := squares.QuarterWinners(contest, scores, squares.PotFromTotalRewards)
	if err != nil {
		return nil, err
	}

	return &models.WinnersView{
		ContestID: contestID,
		QComplete: scores.QComplete,
		Winners:   winners,
	}, nil
}

// Payouts lists the per-quarter payout schedule of a contest
func (s *Service) Payouts(ctx context.Context, contestID int64) (*models.PayoutsView, error) {
	contest, err := s.GetOrAssembleContest(ctx, contestID)
	if err != nil {
		return nil, err
	}

	payouts, err := squares.QuarterPayouts(contest, s.basis)
	if err != nil {
		return nil, err
	}

	return &models.PayoutsView{
		ContestID: contestID,
		Basis:     string(s.basis),
		Pot:       models.FormatUnits(squares.PotFor(contest, s.basis), contest.BoxCost.Decimals),
		Symbol:    contest.BoxCost.Symbol,
		Payouts:   payouts,
	}, nil
}
