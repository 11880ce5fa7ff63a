package models

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// BoxesPerContest is the size of the 10x10 grid
const BoxesPerContest = 100

// GridSize is the number of rows (and columns) in a contest grid
const GridSize = 10

// BoxCost describes the price of a single box and the currency it is paid in
type BoxCost struct {
	Currency common.Address `json:"currency"` // zero address = native token
	Amount   *big.Int       `json:"amount"`   // smallest-unit price per box
	Decimals int            `json:"decimals"`
	Symbol   string         `json:"symbol"`
	Name     string         `json:"name"`
	Image    string         `json:"image"`
}

// IsNative reports whether boxes are paid in the chain's native token
func (b BoxCost) IsNative() bool {
	return b.Currency == (common.Address{})
}

// RewardsPaid holds the four one-way paid flags
type RewardsPaid struct {
	Q1Paid    bool `json:"q1_paid"`
	Q2Paid    bool `json:"q2_paid"`
	Q3Paid    bool `json:"q3_paid"`
	FinalPaid bool `json:"final_paid"`
}

// Contest is an immutable snapshot of one betting round
type Contest struct {
	ID                int64          `json:"id"`
	GameID            string         `json:"game_id"`
	Creator           common.Address `json:"creator"`
	BoxCost           BoxCost        `json:"box_cost"`
	BoxesCanBeClaimed bool           `json:"boxes_can_be_claimed"`
	RewardsPaid       RewardsPaid    `json:"rewards_paid"`
	TotalRewards      *big.Int       `json:"total_rewards"`
	BoxesClaimed      int64          `json:"boxes_claimed"`
	RandomValuesSet   bool           `json:"random_values_set"`
	Rows              []int          `json:"rows"`
	Cols              []int          `json:"cols"`
	BoxesAddress      common.Address `json:"boxes_address"`
	FetchedAt         time.Time      `json:"fetched_at"`
}

// TokenID returns the global box token id for a local box index
func TokenID(contestID int64, localIndex int) int64 {
	return contestID*BoxesPerContest + int64(localIndex)
}

// LocalIndex converts a global token id back to its contest and grid index
func LocalIndex(tokenID int64) (contestID int64, localIndex int) {
	return tokenID / BoxesPerContest, int(tokenID % BoxesPerContest)
}

// ScoresOnChain is the oracle's snapshot for the tracked game
type ScoresOnChain struct {
	GameID            string `json:"game_id"`
	HomeQ1LastDigit   int    `json:"home_q1_last_digit"`
	HomeQ2LastDigit   int    `json:"home_q2_last_digit"`
	HomeQ3LastDigit   int    `json:"home_q3_last_digit"`
	HomeFLastDigit    int    `json:"home_f_last_digit"`
	AwayQ1LastDigit   int    `json:"away_q1_last_digit"`
	AwayQ2LastDigit   int    `json:"away_q2_last_digit"`
	AwayQ3LastDigit   int    `json:"away_q3_last_digit"`
	AwayFLastDigit    int    `json:"away_f_last_digit"`
	QComplete         int    `json:"q_complete"`
	RequestInProgress bool   `json:"request_in_progress"`
}

// Identity is the public profile attached to a player address
type Identity struct {
	Address string `json:"address"`
	Name    string `json:"name,omitempty"`
	Image   string `json:"image,omitempty"`
	Bio     string `json:"bio,omitempty"`
}

// Players is the roster of box owners in a contest
type Players struct {
	ContestID        int64            `json:"contest_id"`
	Players          []string         `json:"players"`
	OwnerCounts      map[string]int   `json:"owner_counts"`
	TokenIDsToOwners map[int64]string `json:"token_ids_to_owners"`
	Identities       []Identity       `json:"identities"`
}
