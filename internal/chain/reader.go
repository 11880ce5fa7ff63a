package chain

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/XavierBriggs/fortuna/services/boxes-service/internal/squares"
	"github.com/XavierBriggs/fortuna/services/boxes-service/pkg/models"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// Caller executes read-only contract calls. *ethclient.Client satisfies it.
type Caller interface {
	CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// ContestFields is the raw tuple returned by contests(uint256)
type ContestFields struct {
	ID                *big.Int
	GameID            *big.Int
	Creator           common.Address
	BoxCurrency       common.Address
	BoxAmount         *big.Int
	BoxesCanBeClaimed bool
	RewardsPaid       models.RewardsPaid
	TotalRewards      *big.Int
	BoxesClaimed      *big.Int
	RandomValuesSet   bool
}

// Currency is the human metadata of a contest's box currency
type Currency struct {
	Address  common.Address
	Decimals int
	Symbol   string
	Name     string
}

type boxCostTuple struct {
	Currency common.Address
	Amount   *big.Int
}

type rewardsPaidTuple struct {
	Q1Paid    bool
	Q2Paid    bool
	Q3Paid    bool
	FinalPaid bool
}

type gameScoreTuple struct {
	Id                *big.Int
	HomeQ1LastDigit   uint8
	HomeQ2LastDigit   uint8
	HomeQ3LastDigit   uint8
	HomeFLastDigit    uint8
	AwayQ1LastDigit   uint8
	AwayQ2LastDigit   uint8
	AwayQ3LastDigit   uint8
	AwayFLastDigit    uint8
	QComplete         uint8
	RequestInProgress bool
}

// Reader wraps the contest, reader and boxes contracts
type Reader struct {
	caller     Caller
	contest    common.Address
	reader     common.Address
	contestABI abi.ABI
	readerABI  abi.ABI
	erc721ABI  abi.ABI
}

// NewReader creates a contract reader for the given deployment
func NewReader(caller Caller, contest, reader common.Address) (*Reader, error) {
	contestABI, err := abi.JSON(strings.NewReader(ContestABI))
	if err != nil {
		return nil, fmt.Errorf("parsing contest abi: %w", err)
	}
	readerABI, err := abi.JSON(strings.NewReader(ReaderABI))
	if err != nil {
		return nil, fmt.Errorf("parsing reader abi: %w", err)
	}
	erc721ABI, err := abi.JSON(strings.NewReader(ERC721ABI))
	if err != nil {
		return nil, fmt.Errorf("parsing erc721 abi: %w", err)
	}

	return &Reader{
		caller:     caller,
		contest:    contest,
		reader:     reader,
		contestABI: contestABI,
		readerABI:  readerABI,
		erc721ABI:  erc721ABI,
	}, nil
}

// ContestAddress returns the contest contract address
func (r *Reader) ContestAddress() common.Address {
	return r.contest
}

// ContestIDCounter returns the number of contests created so far
func (r *Reader) ContestIDCounter(ctx context.Context) (int64, error) {
	out, err := r.call(ctx, &r.contestABI, r.contest, "contestIdCounter")
	if err != nil {
		return 0, err
	}
	return (*abi.ConvertType(out[0], new(*big.Int)).(**big.Int)).Int64(), nil
}

// Contest reads the core contest tuple
func (r *Reader) Contest(ctx context.Context, contestID int64) (*ContestFields, error) {
	out, err := r.call(ctx, &r.contestABI, r.contest, "contests", big.NewInt(contestID))
	if err != nil {
		return nil, err
	}

	boxCost := abi.ConvertType(out[3], new(boxCostTuple)).(*boxCostTuple)
	paid := abi.ConvertType(out[5], new(rewardsPaidTuple)).(*rewardsPaidTuple)

	return &ContestFields{
		ID:                *abi.ConvertType(out[0], new(*big.Int)).(**big.Int),
		GameID:            *abi.ConvertType(out[1], new(*big.Int)).(**big.Int),
		Creator:           *abi.ConvertType(out[2], new(common.Address)).(*common.Address),
		BoxCurrency:       boxCost.Currency,
		BoxAmount:         boxCost.Amount,
		BoxesCanBeClaimed: *abi.ConvertType(out[4], new(bool)).(*bool),
		RewardsPaid: models.RewardsPaid{
			Q1Paid:    paid.Q1Paid,
			Q2Paid:    paid.Q2Paid,
			Q3Paid:    paid.Q3Paid,
			FinalPaid: paid.FinalPaid,
		},
		TotalRewards:    *abi.ConvertType(out[6], new(*big.Int)).(**big.Int),
		BoxesClaimed:    *abi.ConvertType(out[7], new(*big.Int)).(**big.Int),
		RandomValuesSet: *abi.ConvertType(out[8], new(bool)).(*bool),
	}, nil
}

// ContestCols reads the column permutation (home digits)
func (r *Reader) ContestCols(ctx context.Context, contestID int64) ([]int, error) {
	return r.digits(ctx, "fetchContestCols", contestID)
}

// ContestRows reads the row permutation (away digits)
func (r *Reader) ContestRows(ctx context.Context, contestID int64) ([]int, error) {
	return r.digits(ctx, "fetchContestRows", contestID)
}

func (r *Reader) digits(ctx context.Context, method string, contestID int64) ([]int, error) {
	out, err := r.call(ctx, &r.contestABI, r.contest, method, big.NewInt(contestID))
	if err != nil {
		return nil, err
	}
	raw := *abi.ConvertType(out[0], new([]uint8)).(*[]uint8)
	digits := make([]int, len(raw))
	for i, d := range raw {
		digits[i] = int(d)
	}
	return digits, nil
}

// BoxesAddress returns the NFT collection that represents box ownership
func (r *Reader) BoxesAddress(ctx context.Context) (common.Address, error) {
	out, err := r.call(ctx, &r.contestABI, r.contest, "boxes")
	if err != nil {
		return common.Address{}, err
	}
	return *abi.ConvertType(out[0], new(common.Address)).(*common.Address), nil
}

// IsRewardPaidForQuarter reads one paid flag; quarter is 1-4
func (r *Reader) IsRewardPaidForQuarter(ctx context.Context, contestID int64, quarter squares.Quarter) (bool, error) {
	if !quarter.Valid() {
		return false, fmt.Errorf("%w: quarter %d", squares.ErrInvalidInput, int(quarter))
	}
	out, err := r.call(ctx, &r.contestABI, r.contest, "isRewardPaidForQuarter", big.NewInt(contestID), uint8(quarter.Index()))
	if err != nil {
		return false, err
	}
	return *abi.ConvertType(out[0], new(bool)).(*bool), nil
}

// GameIDForContest returns the external game id a contest tracks
func (r *Reader) GameIDForContest(ctx context.Context, contestID int64) (string, error) {
	out, err := r.call(ctx, &r.contestABI, r.contest, "getGameIdForContest", big.NewInt(contestID))
	if err != nil {
		return "", err
	}
	return (*abi.ConvertType(out[0], new(*big.Int)).(**big.Int)).String(), nil
}

// GameScores reads the oracle's score snapshot for a game
func (r *Reader) GameScores(ctx context.Context, gameID string) (*models.ScoresOnChain, error) {
	id, ok := new(big.Int).SetString(gameID, 10)
	if !ok {
		return nil, fmt.Errorf("%w: game id %q is not numeric", squares.ErrInvalidInput, gameID)
	}
	out, err := r.call(ctx, &r.contestABI, r.contest, "getGameScores", id)
	if err != nil {
		return nil, err
	}
	s := abi.ConvertType(out[0], new(gameScoreTuple)).(*gameScoreTuple)

	return &models.ScoresOnChain{
		GameID:            gameID,
		HomeQ1LastDigit:   int(s.HomeQ1LastDigit),
		HomeQ2LastDigit:   int(s.HomeQ2LastDigit),
		HomeQ3LastDigit:   int(s.HomeQ3LastDigit),
		HomeFLastDigit:    int(s.HomeFLastDigit),
		AwayQ1LastDigit:   int(s.AwayQ1LastDigit),
		AwayQ2LastDigit:   int(s.AwayQ2LastDigit),
		AwayQ3LastDigit:   int(s.AwayQ3LastDigit),
		AwayFLastDigit:    int(s.AwayFLastDigit),
		QComplete:         int(s.QComplete),
		RequestInProgress: s.RequestInProgress,
	}, nil
}

// ContestCurrency resolves decimals, symbol and name through the reader contract
func (r *Reader) ContestCurrency(ctx context.Context, contestID int64) (*Currency, error) {
	out, err := r.call(ctx, &r.readerABI, r.reader, "getContestCurrency", big.NewInt(contestID))
	if err != nil {
		return nil, err
	}
	decimals := *abi.ConvertType(out[1], new(*big.Int)).(**big.Int)

	return &Currency{
		Address:  *abi.ConvertType(out[0], new(common.Address)).(*common.Address),
		Decimals: int(decimals.Int64()),
		Symbol:   *abi.ConvertType(out[2], new(string)).(*string),
		Name:     *abi.ConvertType(out[3], new(string)).(*string),
	}, nil
}

// OwnerOf returns the current owner of a box token
func (r *Reader) OwnerOf(ctx context.Context, boxes common.Address, tokenID int64) (common.Address, error) {
	out, err := r.call(ctx, &r.erc721ABI, boxes, "ownerOf", big.NewInt(tokenID))
	if err != nil {
		return common.Address{}, err
	}
	return *abi.ConvertType(out[0], new(common.Address)).(*common.Address), nil
}

// VRFFee is the native value fetchRandomValues must be sent with
func (r *Reader) VRFFee(ctx context.Context) (*big.Int, error) {
	return r.uint256(ctx, "vrfFee")
}

// PayoutSchedule reads the payout constants the contract pays with
func (r *Reader) PayoutSchedule(ctx context.Context) (squares.Schedule, error) {
	var s squares.Schedule
	fields := []struct {
		method string
		dst    *int64
	}{
		{"Q1_PAYOUT", &s.Q1},
		{"Q2_PAYOUT", &s.Q2},
		{"Q3_PAYOUT", &s.Q3},
		{"FINAL_PAYOUT", &s.Final},
		{"TREASURY_FEE", &s.TreasuryFee},
		{"PERCENT_DENOMINATOR", &s.Denominator},
	}
	for _, f := range fields {
		v, err := r.uint256(ctx, f.method)
		if err != nil {
			return squares.Schedule{}, err
		}
		*f.dst = v.Int64()
	}
	return s, nil
}

func (r *Reader) uint256(ctx context.Context, method string) (*big.Int, error) {
	out, err := r.call(ctx, &r.contestABI, r.contest, method)
	if err != nil {
		return nil, err
	}
	return *abi.ConvertType(out[0], new(*big.Int)).(**big.Int), nil
}

// call packs, executes and unpacks a single view call
func (r *Reader) call(ctx context.Context, parsed *abi.ABI, to common.Address, method string, args ...interface{}) ([]interface{}, error) {
	data, err := parsed.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("packing %s: %w", method, err)
	}

	raw, err := r.caller.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("calling %s: %w", method, err)
	}

	out, err := parsed.Unpack(method, raw)
	if err != nil {
		return nil, fmt.Errorf("unpacking %s: %w", method, err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("calling %s: empty result", method)
	}

	return out, nil
}
