package poller

import (
	"context"
	"sync"
	"time"

	"github.com/XavierBriggs/fortuna/services/boxes-service/internal/chain"
	"github.com/XavierBriggs/fortuna/services/boxes-service/internal/metrics"
	"github.com/XavierBriggs/fortuna/services/boxes-service/internal/squares"
	"github.com/XavierBriggs/fortuna/services/boxes-service/pkg/models"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const eventBuffer = 16

// ChainReader is what the watcher polls
type ChainReader interface {
	Contest(ctx context.Context, contestID int64) (*chain.ContestFields, error)
	GameScores(ctx context.Context, gameID string) (*models.ScoresOnChain, error)
}

// Invalidator drops cached contest state
type Invalidator interface {
	InvalidateContest(ctx context.Context, contestID int64)
}

// Publisher fans events out to other replicas and websocket clients
type Publisher interface {
	Publish(ctx context.Context, event models.ContestEvent) error
}

// Watcher polls contests for on-chain state changes
type Watcher struct {
	reader      ChainReader
	invalidator Invalidator
	publisher   Publisher
	interval    time.Duration
	log         logrus.FieldLogger
}

// NewWatcher creates a watcher. publisher may be nil.
func NewWatcher(reader ChainReader, invalidator Invalidator, publisher Publisher, interval time.Duration, log logrus.FieldLogger) *Watcher {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	return &Watcher{
		reader:      reader,
		invalidator: invalidator,
		publisher:   publisher,
		interval:    interval,
		log:         log.WithField("component", "watcher"),
	}
}

// Subscription is a cancellable handle on one watched contest
type Subscription struct {
	ContestID int64

	events chan models.ContestEvent
	done   chan struct{}
	cancel context.CancelFunc
	once   sync.Once
}

// Events delivers state changes; it is closed when the subscription ends
func (s *Subscription) Events() <-chan models.ContestEvent {
	return s.events
}

// Done is closed once polling has stopped
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

// Cancel stops polling. It is safe to call more than once.
func (s *Subscription) Cancel() {
	s.once.Do(s.cancel)
}

// snapshot is the observed state events are derived from
type snapshot struct {
	randomValuesSet bool
	paid            models.RewardsPaid
	scores          *models.ScoresOnChain
}

// Watch starts polling a contest until ctx is done or the subscription is canceled
func (w *Watcher) Watch(ctx context.Context, contestID int64) *Subscription {
	ctx, cancel := context.WithCancel(ctx)
	sub := &Subscription{
		ContestID: contestID,
		events:    make(chan models.ContestEvent, eventBuffer),
		done:      make(chan struct{}),
		cancel:    cancel,
	}

	go w.run(ctx, sub)
	return sub
}

func (w *Watcher) run(ctx context.Context, sub *Subscription) {
	defer close(sub.done)
	defer close(sub.events)

	log := w.log.WithField("contest_id", sub.ContestID)
	log.Info("watching contest")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	last := w.pollOnce(ctx, sub, nil)

	for {
		select {
		case <-ctx.Done():
			log.Info("stopped watching contest")
			return
		case <-ticker.C:
			last = w.pollOnce(ctx, sub, last)
		}
	}
}

// pollOnce reads the current state and emits the differences from prev.
// The first successful poll only establishes the baseline.
func (w *Watcher) pollOnce(ctx context.Context, sub *Subscription, prev *snapshot) *snapshot {
	log := w.log.WithField("contest_id", sub.ContestID)

	fields, err := w.reader.Contest(ctx, sub.ContestID)
	if err != nil {
		if ctx.Err() == nil {
			log.WithError(err).Warn("polling contest failed")
		}
		return prev
	}
	gameID := fields.GameID.String()

	next := &snapshot{
		randomValuesSet: fields.RandomValuesSet,
		paid:            fields.RewardsPaid,
	}

	scores, err := w.reader.GameScores(ctx, gameID)
	if err != nil {
		if ctx.Err() == nil {
			log.WithError(err).WithField("game_id", gameID).Warn("polling scores failed")
		}
		if prev != nil {
			next.scores = prev.scores
		}
	} else {
		next.scores = scores
	}

	if prev == nil {
		return next
	}

	if next.randomValuesSet && !prev.randomValuesSet {
		w.emit(ctx, sub, models.ContestEvent{Type: models.EventRandomValuesAssigned, GameID: gameID})
	}

	for _, q := range squares.Quarters {
		if paidFlag(next.paid, q) && !paidFlag(prev.paid, q) {
			w.emit(ctx, sub, models.ContestEvent{Type: models.EventRewardPaid, GameID: gameID, Quarter: q.String()})
		}
	}

	if next.scores != nil && (prev.scores == nil || *next.scores != *prev.scores) {
		w.emit(ctx, sub, models.ContestEvent{Type: models.EventScoresUpdated, GameID: gameID, Scores: next.scores})
	}

	return next
}

func (w *Watcher) emit(ctx context.Context, sub *Subscription, event models.ContestEvent) {
	event.ID = uuid.New().String()
	event.ContestID = sub.ContestID
	event.OccurredAt = time.Now().UTC()

	log := w.log.WithField("contest_id", sub.ContestID).WithField("type", event.Type)
	metrics.RecordWatcherEvent(string(event.Type))

	if event.Type == models.EventRandomValuesAssigned || event.Type == models.EventRewardPaid {
		w.invalidator.InvalidateContest(ctx, sub.ContestID)
	}

	if w.publisher != nil {
		if err := w.publisher.Publish(ctx, event); err != nil {
			log.WithError(err).Warn("publishing event failed")
		}
	}

	select {
	case sub.events <- event:
	default:
		log.Warn("subscriber not keeping up, dropping event")
	}
	log.Info("contest event")
}

func paidFlag(p models.RewardsPaid, q squares.Quarter) bool {
	return q.Paid(&models.Contest{RewardsPaid: p})
}
