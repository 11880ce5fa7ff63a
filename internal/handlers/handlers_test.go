package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/XavierBriggs/fortuna/services/boxes-service/internal/assembler"
	"github.com/XavierBriggs/fortuna/services/boxes-service/internal/chain"
	"github.com/XavierBriggs/fortuna/services/boxes-service/internal/handlers"
	"github.com/XavierBriggs/fortuna/services/boxes-service/internal/poller"
	"github.com/XavierBriggs/fortuna/services/boxes-service/internal/squares"
	"github.com/XavierBriggs/fortuna/services/boxes-service/internal/testutil"
	"github.com/XavierBriggs/fortuna/services/boxes-service/internal/tokens"
	"github.com/XavierBriggs/fortuna/services/boxes-service/pkg/models"
	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockContests implements handlers.ContestService for testing
type MockContests struct {
	contest     *models.Contest
	err         error
	invalidated []int64
	lastStart   *int64
	lastLimit   int64
}

func (m *MockContests) GetOrAssembleContest(ctx context.Context, contestID int64) (*models.Contest, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.contest == nil || m.contest.ID != contestID {
		return nil, fmt.Errorf("%w: %d", assembler.ErrContestNotFound, contestID)
	}
	return m.contest, nil
}

func (m *MockContests) InvalidateContest(ctx context.Context, contestID int64) {
	m.invalidated = append(m.invalidated, contestID)
}

func (m *MockContests) List(ctx context.Context, start *int64, limit int64) (*models.ContestPage, error) {
	m.lastStart, m.lastLimit = start, limit
	if m.err != nil {
		return nil, m.err
	}
	return &models.ContestPage{Total: 1, Limit: limit, IDs: []int64{7}, Contests: []*models.Contest{m.contest}}, nil
}

func (m *MockContests) Roster(ctx context.Context, contestID int64) (*models.Players, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &models.Players{ContestID: contestID, Players: []string{"0xabc"}}, nil
}

func (m *MockContests) Box(ctx context.Context, contestID int64, localIndex int) (*models.BoxView, error) {
	row, col, err := squares.BoxPosition(localIndex)
	if err != nil {
		return nil, err
	}
	if m.err != nil {
		return nil, m.err
	}
	return &models.BoxView{ContestID: contestID, LocalIndex: localIndex, Row: row, Col: col, Status: models.BoxStatusUnknown}, nil
}

func (m *MockContests) Winners(ctx context.Context, contestID int64) (*models.WinnersView, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &models.WinnersView{ContestID: contestID, QComplete: 1}, nil
}

func (m *MockContests) Payouts(ctx context.Context, contestID int64) (*models.PayoutsView, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &models.PayoutsView{ContestID: contestID, Basis: "box_sales"}, nil
}

func (m *MockContests) Game(ctx context.Context, gameID string) (*models.Game, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &models.Game{GameID: gameID}, nil
}

type MockClaims struct {
	tracked map[common.Hash]poller.Claim
}

func (m *MockClaims) Track(ctx context.Context, contestID int64, txHash common.Hash) poller.Claim {
	c := poller.Claim{TxHash: txHash.Hex(), ContestID: contestID, Status: chain.TxSubmitted}
	m.tracked[txHash] = c
	return c
}

func (m *MockClaims) Status(txHash common.Hash) (poller.Claim, bool) {
	c, ok := m.tracked[txHash]
	return c, ok
}

type fixedFee struct{}

func (fixedFee) VRFFee(ctx context.Context) (*big.Int, error) { return big.NewInt(1234), nil }

type fixedPrice struct{ err error }

func (f fixedPrice) Price(ctx context.Context, coinID string) (float64, error) {
	return 2500.5, f.err
}

type staticTokens struct{}

func (staticTokens) DefaultTokens() []tokens.Token {
	return []tokens.Token{{Symbol: "USDC", Decimals: 6}}
}

func newRouter(t *testing.T, contests *MockContests) (http.Handler, *MockClaims) {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)

	calls, err := chain.NewCalls(testutil.ContestAddress)
	require.NoError(t, err)

	claims := &MockClaims{tracked: map[common.Hash]poller.Claim{}}
	h := handlers.NewHandler(context.Background(), handlers.Deps{
		Contests: contests,
		Calls:    calls,
		Fees:     fixedFee{},
		Claims:   claims,
		Tokens:   staticTokens{},
		Prices:   fixedPrice{},
		Log:      log,
	})
	r := chi.NewRouter()
	h.Routes(r)
	return r, claims
}

func do(t *testing.T, router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHealthCheck(t *testing.T) {
	router, _ := newRouter(t, &MockContests{})
	rec := do(t, router, http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "boxes-service", body["service"])
}

func TestGetContest_StatusMapping(t *testing.T) {
	contest := testutil.ContestFixture()

	tests := []struct {
		name      string
		path      string
		err       error
		code      int
		retryable bool
	}{
		{"found", "/api/v1/contests/7", nil, http.StatusOK, false},
		{"not found", "/api/v1/contests/8", nil, http.StatusNotFound, false},
		{"bad id", "/api/v1/contests/abc", nil, http.StatusBadRequest, false},
		{"negative id", "/api/v1/contests/-1", nil, http.StatusBadRequest, false},
		{"upstream down", "/api/v1/contests/7", fmt.Errorf("%w: rpc", assembler.ErrUpstreamUnavailable), http.StatusServiceUnavailable, true},
		{"invalid permutation", "/api/v1/contests/7", assembler.ErrInvalidPermutation, http.StatusInternalServerError, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, _ := newRouter(t, &MockContests{contest: contest, err: tt.err})
			rec := do(t, router, http.MethodGet, tt.path, "")
			assert.Equal(t, tt.code, rec.Code)

			if tt.code != http.StatusOK {
				var errResp models.ErrorResponse
				require.NoError(t, json.NewDecoder(rec.Body).Decode(&errResp))
				assert.Equal(t, tt.code, errResp.Code)
				assert.Equal(t, tt.retryable, errResp.Retryable)
				if tt.retryable {
					assert.Equal(t, models.BoxStatusUnknown, errResp.Status)
				}
			}
		})
	}
}

func TestListContests(t *testing.T) {
	contests := &MockContests{contest: testutil.ContestFixture()}
	router, _ := newRouter(t, contests)

	rec := do(t, router, http.MethodGet, "/api/v1/contests", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, contests.lastStart)
	assert.Equal(t, int64(0), contests.lastLimit)

	rec = do(t, router, http.MethodGet, "/api/v1/contests?start=5&limit=500", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, contests.lastStart)
	assert.Equal(t, int64(5), *contests.lastStart)
	assert.Equal(t, int64(100), contests.lastLimit)

	rec = do(t, router, http.MethodGet, "/api/v1/contests?limit=ten", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestInvalidateContest(t *testing.T) {
	contests := &MockContests{}
	router, _ := newRouter(t, contests)

	rec := do(t, router, http.MethodPost, "/api/v1/contests/7/invalidate", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []int64{7}, contests.invalidated)
}

func TestGetBox(t *testing.T) {
	router, _ := newRouter(t, &MockContests{contest: testutil.ContestFixture()})

	rec := do(t, router, http.MethodGet, "/api/v1/contests/7/boxes/83", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var view models.BoxView
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&view))
	assert.Equal(t, 8, view.Row)
	assert.Equal(t, 3, view.Col)

	rec = do(t, router, http.MethodGet, "/api/v1/contests/7/boxes/100", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReadEndpoints(t *testing.T) {
	router, _ := newRouter(t, &MockContests{contest: testutil.ContestFixture()})

	for _, path := range []string{
		"/api/v1/contests/7/players",
		"/api/v1/contests/7/winners",
		"/api/v1/contests/7/payouts",
		"/api/v1/games/401547665",
		"/api/v1/tokens",
		"/api/v1/tokens/ethereum/price",
	} {
		t.Run(path, func(t *testing.T) {
			rec := do(t, router, http.MethodGet, path, "")
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		})
	}

	rec := do(t, router, http.MethodGet, "/api/v1/games/not-a-game", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestClaimRewardCall(t *testing.T) {
	router, _ := newRouter(t, &MockContests{contest: testutil.ContestFixture()})

	rec := do(t, router, http.MethodGet, "/api/v1/contests/7/calls/claim?token_id=783", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var tx chain.TxRequest
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&tx))
	assert.Equal(t, "claimReward", tx.Method)
	assert.Equal(t, testutil.ContestAddress, tx.To)
	assert.NotEmpty(t, tx.Data)

	// token from another contest
	rec = do(t, router, http.MethodGet, "/api/v1/contests/7/calls/claim?token_id=883", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestClaimBoxesCall(t *testing.T) {
	contest := testutil.ContestFixture(func(c *models.Contest) {
		c.BoxesCanBeClaimed = true
		c.BoxCost.Currency = common.Address{}
		c.BoxCost.Amount = big.NewInt(1000)
	})
	router, _ := newRouter(t, &MockContests{contest: contest})

	body := `{"boxes": [0, 17], "player": "0x00000000000000000000000000000000000000aa"}`
	rec := do(t, router, http.MethodPost, "/api/v1/contests/7/calls/claim-boxes", body)
	require.Equal(t, http.StatusOK, rec.Code)
	var tx chain.TxRequest
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&tx))
	assert.Equal(t, "claimBoxes", tx.Method)
	assert.Equal(t, int64(2000), tx.Value.ToInt().Int64())

	rec = do(t, router, http.MethodPost, "/api/v1/contests/7/calls/claim-boxes", `{"boxes": [0], "player": "nope"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRandomValuesCall(t *testing.T) {
	unset := testutil.ContestFixture(func(c *models.Contest) {
		c.RandomValuesSet = false
		c.Rows, c.Cols = nil, nil
	})
	router, _ := newRouter(t, &MockContests{contest: unset})

	rec := do(t, router, http.MethodGet, "/api/v1/contests/7/calls/random-values", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var tx chain.TxRequest
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&tx))
	assert.Equal(t, int64(1234), tx.Value.ToInt().Int64())

	router, _ = newRouter(t, &MockContests{contest: testutil.ContestFixture()})
	rec = do(t, router, http.MethodGet, "/api/v1/contests/7/calls/random-values", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestClaims(t *testing.T) {
	router, claims := newRouter(t, &MockContests{})
	hash := "0x5f1c0c1b6f3c3f2a1a9e1e3e9d1b2c3d4e5f60718293a4b5c6d7e8f90a1b2c3d"

	rec := do(t, router, http.MethodPost, "/api/v1/contests/7/claims", `{"tx_hash": "`+hash+`"}`)
	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Len(t, claims.tracked, 1)

	rec = do(t, router, http.MethodGet, "/api/v1/claims/"+hash, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var claim poller.Claim
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&claim))
	assert.Equal(t, chain.TxSubmitted, claim.Status)
	assert.Equal(t, int64(7), claim.ContestID)

	rec = do(t, router, http.MethodGet, "/api/v1/claims/0x1234", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, router, http.MethodGet, "/api/v1/claims/0x"+strings.Repeat("ab", 32), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetTokenPrice_Failure(t *testing.T) {
	log := logrus.New()
	log.SetOutput(io.Discard)
	h := handlers.NewHandler(context.Background(), handlers.Deps{
		Contests: &MockContests{},
		Tokens:   staticTokens{},
		Prices:   fixedPrice{err: errors.New("429")},
		Log:      log,
	})
	r := chi.NewRouter()
	h.Routes(r)

	rec := do(t, r, http.MethodGet, "/api/v1/tokens/ethereum/price", "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	rec = do(t, r, http.MethodGet, "/api/v1/tokens/ETH%20USD/price", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestContestEndpoints_Timeout(t *testing.T) {
	router, _ := newRouter(t, &MockContests{err: fmt.Errorf("%w: %v", assembler.ErrUpstreamUnavailable, context.DeadlineExceeded)})

	start := time.Now()
	rec := do(t, router, http.MethodGet, "/api/v1/contests/7/winners", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Less(t, time.Since(start), time.Second)
}
