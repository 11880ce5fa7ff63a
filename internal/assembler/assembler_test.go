package assembler_test

import (
	"context"
	"errors"
	"io"
	"math/big"
	"testing"

	"github.com/XavierBriggs/fortuna/services/boxes-service/internal/assembler"
	"github.com/XavierBriggs/fortuna/services/boxes-service/internal/chain"
	"github.com/XavierBriggs/fortuna/services/boxes-service/internal/testutil"
	"github.com/XavierBriggs/fortuna/services/boxes-service/pkg/models"
	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const chainID = int64(84532)

type stubImages struct {
	image string
	err   error
}

func (s stubImages) Image(ctx context.Context, chainID int64, currency common.Address) (string, error) {
	return s.image, s.err
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newAssembler(t *testing.T, fake *testutil.FakeChain, images assembler.ImageResolver) *assembler.Assembler {
	t.Helper()
	reader, err := chain.NewReader(fake, testutil.ContestAddress, testutil.ReaderAddress)
	require.NoError(t, err)
	return assembler.New(reader, images, chainID, quietLogger())
}

func TestAssemble_JoinsAllReads(t *testing.T) {
	want := testutil.ContestFixture(func(c *models.Contest) {
		c.RewardsPaid.Q2Paid = true
	})
	fake := testutil.NewFakeChain()
	testutil.SeedContest(fake, want, nil, nil)

	a := newAssembler(t, fake, stubImages{image: "https://example.com/usdc.png"})
	got, err := a.Assemble(context.Background(), want.ID)
	require.NoError(t, err)

	assert.Equal(t, want.ID, got.ID)
	assert.Equal(t, want.GameID, got.GameID)
	assert.Equal(t, want.Creator, got.Creator)
	assert.Equal(t, want.Rows, got.Rows)
	assert.Equal(t, want.Cols, got.Cols)
	assert.Equal(t, want.BoxesAddress, got.BoxesAddress)
	assert.Equal(t, want.BoxesClaimed, got.BoxesClaimed)
	assert.Equal(t, 0, want.TotalRewards.Cmp(got.TotalRewards))
	assert.Equal(t, models.RewardsPaid{Q2Paid: true}, got.RewardsPaid)
	assert.True(t, got.RandomValuesSet)
	assert.False(t, got.FetchedAt.IsZero())

	assert.Equal(t, testutil.USDCAddress, got.BoxCost.Currency)
	assert.Equal(t, 6, got.BoxCost.Decimals)
	assert.Equal(t, "USDC", got.BoxCost.Symbol)
	assert.Equal(t, "https://example.com/usdc.png", got.BoxCost.Image)
	assert.Equal(t, 0, big.NewInt(1_000_000).Cmp(got.BoxCost.Amount))

	for _, method := range []string{"contests", "fetchContestCols", "fetchContestRows", "boxes", "getContestCurrency"} {
		assert.Equal(t, 1, fake.CallCount(method), method)
	}
	assert.Equal(t, 4, fake.CallCount("isRewardPaidForQuarter"))
}

func TestAssemble_UnsetPermutationDropsDigits(t *testing.T) {
	want := testutil.UnsetContest()
	fake := testutil.NewFakeChain()
	testutil.SeedContest(fake, want, nil, nil)
	// the contract returns zeroed arrays before the VRF callback
	fake.Returns("fetchContestRows", make([]uint8, 10))
	fake.Returns("fetchContestCols", make([]uint8, 10))

	got, err := newAssembler(t, fake, stubImages{}).Assemble(context.Background(), want.ID)
	require.NoError(t, err)
	assert.False(t, got.RandomValuesSet)
	assert.Nil(t, got.Rows)
	assert.Nil(t, got.Cols)
}

func TestAssemble_AnyFailedReadFailsSnapshot(t *testing.T) {
	methods := []string{
		"contests",
		"fetchContestCols",
		"fetchContestRows",
		"boxes",
		"isRewardPaidForQuarter",
		"getContestCurrency",
	}

	for _, method := range methods {
		t.Run(method, func(t *testing.T) {
			fake := testutil.NewFakeChain()
			testutil.SeedContest(fake, testutil.ContestFixture(), nil, nil)
			fake.Fail(method, errors.New("execution reverted"))

			got, err := newAssembler(t, fake, stubImages{}).Assemble(context.Background(), 7)
			assert.Nil(t, got)
			assert.ErrorIs(t, err, assembler.ErrUpstreamUnavailable)
		})
	}
}

func TestAssemble_ImageFailure(t *testing.T) {
	fake := testutil.NewFakeChain()
	testutil.SeedContest(fake, testutil.ContestFixture(), nil, nil)

	_, err := newAssembler(t, fake, stubImages{err: errors.New("unsupported chain")}).Assemble(context.Background(), 7)
	assert.ErrorIs(t, err, assembler.ErrUpstreamUnavailable)
}

func TestAssemble_InvalidPermutation(t *testing.T) {
	fake := testutil.NewFakeChain()
	testutil.SeedContest(fake, testutil.ContestFixture(func(c *models.Contest) {
		c.Rows = []int{0, 0, 1, 2, 3, 4, 5, 6, 7, 8}
	}), nil, nil)

	_, err := newAssembler(t, fake, stubImages{}).Assemble(context.Background(), 7)
	assert.ErrorIs(t, err, assembler.ErrInvalidPermutation)
}

func TestAssemble_UnknownContest(t *testing.T) {
	fake := testutil.NewFakeChain()
	testutil.SeedContest(fake, testutil.ContestFixture(func(c *models.Contest) {
		c.Creator = common.Address{}
	}), nil, nil)

	_, err := newAssembler(t, fake, stubImages{}).Assemble(context.Background(), 7)
	assert.ErrorIs(t, err, assembler.ErrContestNotFound)
}

func TestAssemble_CanceledContext(t *testing.T) {
	fake := testutil.NewFakeChain()
	testutil.SeedContest(fake, testutil.ContestFixture(), nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newAssembler(t, fake, stubImages{}).Assemble(ctx, 7)
	assert.ErrorIs(t, err, assembler.ErrUpstreamUnavailable)
}
