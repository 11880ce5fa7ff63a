package squares

import (
	"fmt"
	"math/big"

	"github.com/XavierBriggs/fortuna/services/boxes-service/pkg/models"
)

const (
	// PercentDenominator matches the contract's PERCENT_DENOMINATOR
	PercentDenominator = 100

	// TreasuryFeePercent is kept by the contract and never paid to boxes
	TreasuryFeePercent = 2
)

// PotBasis selects how the pot for pending rewards is derived
type PotBasis string

const (
	// PotFromBoxSales recomputes the pot as box price times boxes claimed
	PotFromBoxSales PotBasis = "box_sales"

	// PotFromTotalRewards uses the contract's running totalRewards
	PotFromTotalRewards PotBasis = "total_rewards"
)

// ParsePotBasis falls back to PotFromBoxSales for unknown values
func ParsePotBasis(s string) PotBasis {
	if PotBasis(s) == PotFromTotalRewards {
		return PotFromTotalRewards
	}
	return PotFromBoxSales
}

// PotFor returns the pot in smallest currency units
func PotFor(c *models.Contest, basis PotBasis) *big.Int {
	if c == nil {
		return new(big.Int)
	}
	if basis == PotFromTotalRewards {
		if c.TotalRewards == nil {
			return new(big.Int)
		}
		return new(big.Int).Set(c.TotalRewards)
	}
	if c.BoxCost.Amount == nil {
		return new(big.Int)
	}
	return new(big.Int).Mul(c.BoxCost.Amount, big.NewInt(c.BoxesClaimed))
}

// AmountForQuarter is floor(pot * percent / 100) in integer arithmetic
func AmountForQuarter(pot *big.Int, q Quarter) (*big.Int, error) {
	if !q.Valid() {
		return nil, fmt.Errorf("%w: unknown quarter %d", ErrInvalidInput, int(q))
	}
	if pot == nil || pot.Sign() < 0 {
		return nil, fmt.Errorf("%w: pot must be non-negative", ErrInvalidInput)
	}
	amount := new(big.Int).Mul(pot, big.NewInt(q.Percent()))
	return amount.Quo(amount, big.NewInt(PercentDenominator)), nil
}

// Schedule is a set of payout constants, usually read from the contract
type Schedule struct {
	Q1          int64
	Q2          int64
	Q3          int64
	Final       int64
	TreasuryFee int64
	Denominator int64
}

// LocalSchedule returns the table this package computes with
func LocalSchedule() Schedule {
	return Schedule{
		Q1:          Q1.Percent(),
		Q2:          Q2.Percent(),
		Q3:          Q3.Percent(),
		Final:       Final.Percent(),
		TreasuryFee: TreasuryFeePercent,
		Denominator: PercentDenominator,
	}
}

// Verify compares the local table with the contract's constants
func (s Schedule) Verify(onchain Schedule) error {
	if s != onchain {
		return fmt.Errorf("%w: local=%+v onchain=%+v", ErrInconsistentPayout, s, onchain)
	}
	return nil
}

// QuarterPayouts lists every quarter's scheduled amount for a contest
func QuarterPayouts(c *models.Contest, basis PotBasis) ([]models.QuarterPayout, error) {
	if c == nil {
		return nil, ErrMissingData
	}
	pot := PotFor(c, basis)
	payouts := make([]models.QuarterPayout, 0, len(Quarters))
	for _, q := range Quarters {
		amount, err := AmountForQuarter(pot, q)
		if err != nil {
			return nil, err
		}
		payouts = append(payouts, models.QuarterPayout{
			Quarter: q.String(),
			Percent: q.Percent(),
			Amount:  amount,
			Display: models.FormatUnits(amount, c.BoxCost.Decimals),
			Paid:    q.Paid(c),
		})
	}
	return payouts, nil
}
