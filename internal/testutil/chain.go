package testutil

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/XavierBriggs/fortuna/services/boxes-service/internal/chain"
	"github.com/XavierBriggs/fortuna/services/boxes-service/pkg/models"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// ContestAddress and ReaderAddress are the fake deployment addresses
var (
	ContestAddress = common.HexToAddress("0xb9647d7982cEfb104D332Ba818b8971d76E7fA1F")
	ReaderAddress  = common.HexToAddress("0x534dc0b2ac842d411d1e15c6b794c1ecea9170c7")
)

// Responder builds a method's return values from its decoded arguments
type Responder func(args []interface{}) ([]interface{}, error)

// FakeChain answers contract calls with ABI-encoded canned values
type FakeChain struct {
	mu         sync.Mutex
	abis       []abi.ABI
	responders map[string]Responder
	calls      map[string]int
}

// NewFakeChain creates a fake that knows the contest, reader and ERC-721 ABIs
func NewFakeChain() *FakeChain {
	f := &FakeChain{
		responders: make(map[string]Responder),
		calls:      make(map[string]int),
	}
	for _, def := range []string{chain.ContestABI, chain.ReaderABI, chain.ERC721ABI} {
		parsed, err := abi.JSON(strings.NewReader(def))
		if err != nil {
			panic(err)
		}
		f.abis = append(f.abis, parsed)
	}
	return f
}

// On registers a responder for a method
func (f *FakeChain) On(method string, r Responder) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responders[method] = r
}

// Returns makes a method always return the given values
func (f *FakeChain) Returns(method string, values ...interface{}) {
	f.On(method, func([]interface{}) ([]interface{}, error) { return values, nil })
}

// Fail makes a method always revert with err
func (f *FakeChain) Fail(method string, err error) {
	f.On(method, func([]interface{}) ([]interface{}, error) { return nil, err })
}

// CallCount reports how many times a method was called
func (f *FakeChain) CallCount(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}

// CallContract implements chain.Caller
func (f *FakeChain) CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(call.Data) < 4 {
		return nil, fmt.Errorf("call data too short")
	}

	for _, parsed := range f.abis {
		method, err := parsed.MethodById(call.Data[:4])
		if err != nil {
			continue
		}
		args, err := method.Inputs.Unpack(call.Data[4:])
		if err != nil {
			return nil, fmt.Errorf("decoding %s args: %w", method.Name, err)
		}

		f.mu.Lock()
		f.calls[method.Name]++
		responder, ok := f.responders[method.Name]
		f.mu.Unlock()
		if !ok {
			return nil, fmt.Errorf("execution reverted: no response for %s", method.Name)
		}

		values, err := responder(args)
		if err != nil {
			return nil, err
		}
		return method.Outputs.Pack(values...)
	}
	return nil, fmt.Errorf("unknown selector %x", call.Data[:4])
}

// SeedContest answers every read the assembler and roster make for contest c.
// Boxes with an index listed in owners are held by that address; the rest
// belong to the contest contract.
func SeedContest(f *FakeChain, c *models.Contest, scores *models.ScoresOnChain, owners map[int]common.Address) {
	f.Returns("contestIdCounter", big.NewInt(c.ID+1))
	f.Returns("contests",
		big.NewInt(c.ID),
		mustBig(c.GameID),
		c.Creator,
		struct {
			Currency common.Address
			Amount   *big.Int
		}{c.BoxCost.Currency, c.BoxCost.Amount},
		c.BoxesCanBeClaimed,
		struct {
			Q1Paid    bool
			Q2Paid    bool
			Q3Paid    bool
			FinalPaid bool
		}{c.RewardsPaid.Q1Paid, c.RewardsPaid.Q2Paid, c.RewardsPaid.Q3Paid, c.RewardsPaid.FinalPaid},
		c.TotalRewards,
		big.NewInt(c.BoxesClaimed),
		c.RandomValuesSet,
	)
	f.Returns("fetchContestCols", toUint8s(c.Cols))
	f.Returns("fetchContestRows", toUint8s(c.Rows))
	f.Returns("boxes", c.BoxesAddress)
	f.Returns("getGameIdForContest", mustBig(c.GameID))
	f.On("isRewardPaidForQuarter", func(args []interface{}) ([]interface{}, error) {
		switch args[1].(uint8) {
		case 1:
			return []interface{}{c.RewardsPaid.Q1Paid}, nil
		case 2:
			return []interface{}{c.RewardsPaid.Q2Paid}, nil
		case 3:
			return []interface{}{c.RewardsPaid.Q3Paid}, nil
		default:
			return []interface{}{c.RewardsPaid.FinalPaid}, nil
		}
	})
	f.Returns("getContestCurrency",
		c.BoxCost.Currency,
		big.NewInt(int64(c.BoxCost.Decimals)),
		c.BoxCost.Symbol,
		c.BoxCost.Name,
		c.BoxCost.Amount,
	)
	f.On("ownerOf", func(args []interface{}) ([]interface{}, error) {
		_, local := models.LocalIndex(args[0].(*big.Int).Int64())
		if owner, ok := owners[local]; ok {
			return []interface{}{owner}, nil
		}
		return []interface{}{ContestAddress}, nil
	})
	if scores != nil {
		f.Returns("getGameScores", struct {
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
		}{
			mustBig(scores.GameID),
			uint8(scores.HomeQ1LastDigit), uint8(scores.HomeQ2LastDigit),
			uint8(scores.HomeQ3LastDigit), uint8(scores.HomeFLastDigit),
			uint8(scores.AwayQ1LastDigit), uint8(scores.AwayQ2LastDigit),
			uint8(scores.AwayQ3LastDigit), uint8(scores.AwayFLastDigit),
			uint8(scores.QComplete), scores.RequestInProgress,
		})
	}
}

func toUint8s(digits []int) []uint8 {
	out := make([]uint8, len(digits))
	for i, d := range digits {
		out[i] = uint8(d)
	}
	return out
}

func mustBig(s string) *big.Int {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		panic(fmt.Sprintf("not a number: %q", s))
	}
	return v
}
