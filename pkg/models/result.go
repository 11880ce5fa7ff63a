package models

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// QuarterFlags holds one boolean per quarter checkpoint
type QuarterFlags struct {
	Q1    bool `json:"q1"`
	Q2    bool `json:"q2"`
	Q3    bool `json:"q3"`
	Final bool `json:"f"`
}

// Any reports whether at least one flag is set
func (f QuarterFlags) Any() bool {
	return f.Q1 || f.Q2 || f.Q3 || f.Final
}

// WinResult is the outcome of evaluating one box
type WinResult struct {
	WonByQuarter         QuarterFlags `json:"won_by_quarter"`
	UnpaidByQuarter      QuarterFlags `json:"unpaid_by_quarter"`
	PayableByQuarter     QuarterFlags `json:"payable_by_quarter"`
	HasWon               bool         `json:"has_won"`
	HasUnpaidWin         bool         `json:"has_unpaid_win"`
	IsPayable            bool         `json:"is_payable"`
	PendingRewardAmount  *big.Int     `json:"pending_reward_amount"`
	PendingRewardDisplay string       `json:"pending_reward_display"`
}

// WinningBox identifies the box that won a quarter
type WinningBox struct {
	Quarter    string   `json:"quarter"`
	Row        int      `json:"row"`
	Col        int      `json:"col"`
	LocalIndex int      `json:"local_index"`
	TokenID    int64    `json:"token_id"`
	HomeDigit  int      `json:"home_digit"`
	AwayDigit  int      `json:"away_digit"`
	Paid       bool     `json:"paid"`
	Amount     *big.Int `json:"amount"`
	Display    string   `json:"display"`
}

// QuarterPayout is the amount scheduled for a quarter checkpoint
type QuarterPayout struct {
	Quarter string   `json:"quarter"`
	Percent int64    `json:"percent"`
	Amount  *big.Int `json:"amount"`
	Display string   `json:"display"`
	Paid    bool     `json:"paid"`
}

// FormatUnits renders a smallest-unit amount with the token's decimals
func FormatUnits(amount *big.Int, decimals int) string {
	if amount == nil {
		return "0"
	}
	return decimal.NewFromBigInt(amount, int32(-decimals)).String()
}
