package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/XavierBriggs/fortuna/services/boxes-service/internal/squares"
	"github.com/XavierBriggs/fortuna/services/boxes-service/pkg/models"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
)

// TxStatus is the lifecycle of a submitted transaction
type TxStatus string

const (
	TxSubmitted TxStatus = "submitted"
	TxSuccess   TxStatus = "success"
	TxFailed    TxStatus = "failed"
)

// TxRequest is an unsigned call for an external wallet to sign and send
type TxRequest struct {
	Method string         `json:"method"`
	To     common.Address `json:"to"`
	Data   hexutil.Bytes  `json:"data"`
	Value  *hexutil.Big   `json:"value"`
}

// ReceiptSource looks up mined transactions. *ethclient.Client satisfies it.
type ReceiptSource interface {
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

// ScoreRequest carries the Chainlink Functions parameters for an oracle refresh
type ScoreRequest struct {
	Args           []string
	SubscriptionID uint64
	GasLimit       uint32
	JobID          [32]byte
}

// Calls prepares contest contract transactions
type Calls struct {
	contest common.Address
	abi     abi.ABI
}

// NewCalls creates a call builder for the contest contract
func NewCalls(contest common.Address) (*Calls, error) {
	parsed, err := abi.JSON(strings.NewReader(ContestABI))
	if err != nil {
		return nil, fmt.Errorf("parsing contest abi: %w", err)
	}
	return &Calls{contest: contest, abi: parsed}, nil
}

// ClaimReward pays out every unpaid quarter a box has won
func (c *Calls) ClaimReward(contestID, tokenID int64) (*TxRequest, error) {
	boxContest, _ := models.LocalIndex(tokenID)
	if tokenID < 0 || boxContest != contestID {
		return nil, fmt.Errorf("%w: token %d does not belong to contest %d", squares.ErrInvalidInput, tokenID, contestID)
	}
	return c.build("claimReward", nil, big.NewInt(contestID), big.NewInt(tokenID))
}

// ClaimBoxes buys boxes for a player. Native-currency contests send price*count as value.
func (c *Calls) ClaimBoxes(tokenIDs []int64, player common.Address, nativePrice *big.Int) (*TxRequest, error) {
	if len(tokenIDs) == 0 {
		return nil, fmt.Errorf("%w: no boxes selected", squares.ErrInvalidInput)
	}
	if player == (common.Address{}) {
		return nil, fmt.Errorf("%w: player address is empty", squares.ErrInvalidInput)
	}
	ids := make([]*big.Int, len(tokenIDs))
	for i, id := range tokenIDs {
		ids[i] = big.NewInt(id)
	}

	var value *big.Int
	if nativePrice != nil {
		value = new(big.Int).Mul(nativePrice, big.NewInt(int64(len(tokenIDs))))
	}
	return c.build("claimBoxes", value, ids, player)
}

// FetchRandomValues asks the VRF coordinator to assign rows and cols
func (c *Calls) FetchRandomValues(contestID int64, vrfFee *big.Int) (*TxRequest, error) {
	return c.build("fetchRandomValues", vrfFee, big.NewInt(contestID))
}

// FetchFreshGameScores asks the oracle to refresh a game's score digits
func (c *Calls) FetchFreshGameScores(req ScoreRequest, gameID string) (*TxRequest, error) {
	id, ok := new(big.Int).SetString(gameID, 10)
	if !ok {
		return nil, fmt.Errorf("%w: game id %q is not numeric", squares.ErrInvalidInput, gameID)
	}
	args := req.Args
	if len(args) == 0 {
		args = []string{gameID}
	}
	return c.build("fetchFreshGameScores", nil, args, req.SubscriptionID, req.GasLimit, req.JobID, id)
}

func (c *Calls) build(method string, value *big.Int, args ...interface{}) (*TxRequest, error) {
	data, err := c.abi.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("packing %s: %w", method, err)
	}
	if value == nil {
		value = new(big.Int)
	}
	return &TxRequest{
		Method: method,
		To:     c.contest,
		Data:   data,
		Value:  (*hexutil.Big)(value),
	}, nil
}

// ReceiptStatus maps a receipt lookup to a lifecycle status.
// A missing receipt means the transaction is still pending.
func ReceiptStatus(ctx context.Context, src ReceiptSource, txHash common.Hash) (TxStatus, error) {
	receipt, err := src.TransactionReceipt(ctx, txHash)
	if err != nil {
		if errors.Is(err, ethereum.NotFound) {
			return TxSubmitted, nil
		}
		return "", fmt.Errorf("fetching receipt %s: %w", txHash.Hex(), err)
	}
	if receipt.Status == types.ReceiptStatusSuccessful {
		return TxSuccess, nil
	}
	return TxFailed, nil
}
