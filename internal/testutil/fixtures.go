package testutil

import (
	"math/big"
	"time"

	"github.com/XavierBriggs/fortuna/services/boxes-service/pkg/models"
	"github.com/ethereum/go-ethereum/common"
)

// USDC on Base
var USDCAddress = common.HexToAddress("0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913")

// ContestFixture creates a test Contest with sensible defaults
func ContestFixture(overrides ...func(*models.Contest)) *models.Contest {
	contest := &models.Contest{
		ID:      7,
		GameID:  "401547665",
		Creator: common.HexToAddress("0x1111111111111111111111111111111111111111"),
		BoxCost: models.BoxCost{
			Currency: USDCAddress,
			Amount:   big.NewInt(1_000_000), // 1 USDC
			Decimals: 6,
			Symbol:   "USDC",
			Name:     "USD Coin",
			Image:    "https://assets.coingecko.com/coins/images/6319/standard/usdc.png?1696506694",
		},
		BoxesCanBeClaimed: false,
		TotalRewards:      big.NewInt(100_000_000),
		BoxesClaimed:      100,
		RandomValuesSet:   true,
		Rows:              []int{3, 1, 4, 8, 5, 9, 2, 6, 0, 7},
		Cols:              []int{0, 9, 8, 7, 6, 5, 4, 3, 2, 1},
		BoxesAddress:      common.HexToAddress("0x2222222222222222222222222222222222222222"),
		FetchedAt:         time.Date(2024, 9, 8, 17, 0, 0, 0, time.UTC),
	}

	for _, override := range overrides {
		override(contest)
	}

	return contest
}

// UnsetContest is a contest whose permutation has not been assigned yet
func UnsetContest() *models.Contest {
	return ContestFixture(func(c *models.Contest) {
		c.RandomValuesSet = false
		c.BoxesCanBeClaimed = true
		c.Rows = nil
		c.Cols = nil
	})
}

// ScoresFixture creates test oracle scores with sensible defaults
func ScoresFixture(overrides ...func(*models.ScoresOnChain)) *models.ScoresOnChain {
	scores := &models.ScoresOnChain{
		GameID:          "401547665",
		HomeQ1LastDigit: 7,
		HomeQ2LastDigit: 4,
		HomeQ3LastDigit: 1,
		HomeFLastDigit:  8,
		AwayQ1LastDigit: 0,
		AwayQ2LastDigit: 3,
		AwayQ3LastDigit: 0,
		AwayFLastDigit:  7,
		QComplete:       0,
	}

	for _, override := range overrides {
		override(scores)
	}

	return scores
}

// GameFixture creates a test live NFL game
func GameFixture(overrides ...func(*models.Game)) *models.Game {
	game := &models.Game{
		GameID:       "401547665",
		Status:       models.StatusLive,
		HomeTeam:     "Kansas City Chiefs",
		HomeTeamAbbr: "KC",
		HomeTeamName: "Chiefs",
		AwayTeam:     "Baltimore Ravens",
		AwayTeamAbbr: "BAL",
		AwayTeamName: "Ravens",
		Period:       2,
		PeriodLabel:  "Q2",
		CommenceTime: time.Date(2024, 9, 6, 0, 20, 0, 0, time.UTC),
	}

	for _, override := range overrides {
		override(game)
	}

	return game
}
