package squares

import (
	"math/big"

	"github.com/XavierBriggs/fortuna/services/boxes-service/pkg/models"
	"github.com/ethereum/go-ethereum/common"
)

// BoxInput is everything needed to evaluate one box
type BoxInput struct {
	Row           int
	Col           int
	Contest       *models.Contest
	Scores        *models.ScoresOnChain
	ProgressClock int  // quarters the live game has moved past, AllQuartersComplete when final
	GameCompleted bool // gates Final together with ProgressClock
	Owner         *common.Address
	Basis         PotBasis
}

// EvaluateBox decides a box's win, paid and payable status for every quarter.
// It is a pure function of its input.
func EvaluateBox(in BoxInput) (models.WinResult, error) {
	if err := checkPosition(in.Row, in.Col); err != nil {
		return models.WinResult{}, err
	}
	if in.Contest == nil || in.Scores == nil {
		return models.WinResult{}, ErrMissingData
	}

	result := models.WinResult{PendingRewardAmount: new(big.Int)}
	result.PendingRewardDisplay = models.FormatUnits(result.PendingRewardAmount, in.Contest.BoxCost.Decimals)

	if !in.Contest.RandomValuesSet {
		return result, nil
	}

	digits, err := DigitsFor(in.Contest, in.Row, in.Col)
	if err != nil {
		return models.WinResult{}, err
	}

	for _, q := range Quarters {
		home, away := q.ScoreDigits(in.Scores)
		won := digits.Home == home && digits.Away == away && in.ProgressClock >= q.Index()
		if q == Final {
			won = won && in.GameCompleted
		}
		q.set(&result.WonByQuarter, won)
		q.set(&result.UnpaidByQuarter, won && !q.Paid(in.Contest))
	}

	result.HasWon = in.Scores.QComplete > 0 && result.WonByQuarter.Any()
	result.HasUnpaidWin = result.UnpaidByQuarter.Any()

	if !result.HasWon {
		return result, nil
	}

	pot := PotFor(in.Contest, in.Basis)
	for _, q := range Quarters {
		if !q.Get(result.UnpaidByQuarter) {
			continue
		}
		q.set(&result.PayableByQuarter, in.Scores.QComplete >= q.Index())

		amount, err := AmountForQuarter(pot, q)
		if err != nil {
			return models.WinResult{}, err
		}
		result.PendingRewardAmount.Add(result.PendingRewardAmount, amount)
	}
	result.IsPayable = result.PayableByQuarter.Any()
	result.PendingRewardDisplay = models.FormatUnits(result.PendingRewardAmount, in.Contest.BoxCost.Decimals)

	return result, nil
}
