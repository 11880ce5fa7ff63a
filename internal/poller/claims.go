package poller

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/XavierBriggs/fortuna/services/boxes-service/internal/chain"
	"github.com/XavierBriggs/fortuna/services/boxes-service/internal/metrics"
	"github.com/XavierBriggs/fortuna/services/boxes-service/internal/retry"
	"github.com/XavierBriggs/fortuna/services/boxes-service/pkg/models"
	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var errPending = errors.New("transaction pending")

// Claim is the tracked state of a submitted claim transaction
type Claim struct {
	TxHash      string         `json:"tx_hash"`
	ContestID   int64          `json:"contest_id"`
	Status      chain.TxStatus `json:"status"`
	Error       string         `json:"error,omitempty"`
	SubmittedAt time.Time      `json:"submitted_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// ClaimTracker follows claim transactions until their receipt lands
type ClaimTracker struct {
	receipts    chain.ReceiptSource
	invalidator Invalidator
	publisher   Publisher
	policy      *retry.Policy
	log         logrus.FieldLogger

	mu     sync.RWMutex
	claims map[common.Hash]*Claim
	wg     sync.WaitGroup
}

// NewClaimTracker creates a tracker. publisher may be nil.
func NewClaimTracker(receipts chain.ReceiptSource, invalidator Invalidator, publisher Publisher, policy *retry.Policy, log logrus.FieldLogger) *ClaimTracker {
	return &ClaimTracker{
		receipts:    receipts,
		invalidator: invalidator,
		publisher:   publisher,
		policy:      policy,
		log:         log.WithField("component", "claim_tracker"),
		claims:      make(map[common.Hash]*Claim),
	}
}

// Track records a submitted claim and polls its receipt in the background.
// Tracking the same hash twice returns the existing claim.
func (t *ClaimTracker) Track(ctx context.Context, contestID int64, txHash common.Hash) Claim {
	t.mu.Lock()
	if existing, ok := t.claims[txHash]; ok {
		claim := *existing
		t.mu.Unlock()
		return claim
	}
	now := time.Now().UTC()
	claim := &Claim{
		TxHash:      txHash.Hex(),
		ContestID:   contestID,
		Status:      chain.TxSubmitted,
		SubmittedAt: now,
		UpdatedAt:   now,
	}
	t.claims[txHash] = claim
	snapshot := *claim
	t.mu.Unlock()

	metrics.RecordClaim(string(chain.TxSubmitted))

	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		t.follow(ctx, contestID, txHash)
	}()

	return snapshot
}

// Status returns the last known state of a claim
func (t *ClaimTracker) Status(txHash common.Hash) (Claim, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	claim, ok := t.claims[txHash]
	if !ok {
		return Claim{}, false
	}
	return *claim, true
}

// Wait blocks until every tracked claim has settled or given up
func (t *ClaimTracker) Wait() {
	t.wg.Wait()
}

func (t *ClaimTracker) follow(ctx context.Context, contestID int64, txHash common.Hash) {
	log := t.log.WithField("contest_id", contestID).WithField("tx_hash", txHash.Hex())

	var status chain.TxStatus
	err := t.policy.Execute(ctx, func() error {
		s, err := chain.ReceiptStatus(ctx, t.receipts, txHash)
		if err != nil {
			return err
		}
		if s == chain.TxSubmitted {
			return errPending
		}
		status = s
		return nil
	})
	if err != nil {
		log.WithError(err).Warn("claim receipt not settled")
		t.update(txHash, chain.TxSubmitted, err.Error())
		return
	}

	t.update(txHash, status, "")
	metrics.RecordClaim(string(status))

	if status != chain.TxSuccess {
		log.Warn("claim transaction failed")
		return
	}

	t.invalidator.InvalidateContest(ctx, contestID)
	if t.publisher != nil {
		event := models.ContestEvent{
			ID:         uuid.New().String(),
			Type:       models.EventClaimConfirmed,
			ContestID:  contestID,
			TxHash:     txHash.Hex(),
			OccurredAt: time.Now().UTC(),
		}
		if err := t.publisher.Publish(ctx, event); err != nil {
			log.WithError(err).Warn("publishing claim event failed")
		}
	}
	log.Info("claim confirmed")
}

func (t *ClaimTracker) update(txHash common.Hash, status chain.TxStatus, errMsg string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if claim, ok := t.claims[txHash]; ok {
		claim.Status = status
		claim.Error = errMsg
		claim.UpdatedAt = time.Now().UTC()
	}
}
