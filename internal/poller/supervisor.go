package poller

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Counter reads how many contests exist
type Counter interface {
	ContestIDCounter(ctx context.Context) (int64, error)
}

// Supervisor keeps the newest contests watched, starting watches for new
// contests and dropping ones that fall out of the window
type Supervisor struct {
	watcher *Watcher
	counter Counter
	window  int64
	refresh time.Duration
	log     logrus.FieldLogger

	mu   sync.Mutex
	subs map[int64]*Subscription
}

// NewSupervisor watches the newest window contests, rechecking the counter every refresh
func NewSupervisor(watcher *Watcher, counter Counter, window int64, refresh time.Duration, log logrus.FieldLogger) *Supervisor {
	if window <= 0 {
		window = 10
	}
	if refresh <= 0 {
		refresh = time.Minute
	}
	return &Supervisor{
		watcher: watcher,
		counter: counter,
		window:  window,
		refresh: refresh,
		log:     log.WithField("component", "supervisor"),
		subs:    make(map[int64]*Subscription),
	}
}

// Run reconciles until ctx is done, then cancels every watch
func (s *Supervisor) Run(ctx context.Context) {
	ticker := time.NewTicker(s.refresh)
	defer ticker.Stop()
	defer s.stopAll()

	s.reconcile(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.reconcile(ctx)
		}
	}
}

// Watched returns the contest ids currently being watched, ascending
func (s *Supervisor) Watched() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]int64, 0, len(s.subs))
	for id := range s.subs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (s *Supervisor) reconcile(ctx context.Context) {
	total, err := s.counter.ContestIDCounter(ctx)
	if err != nil {
		if ctx.Err() == nil {
			s.log.WithError(err).Warn("reading contest counter failed")
		}
		return
	}

	want := make(map[int64]bool, s.window)
	for id := total - 1; id >= 0 && id >= total-s.window; id-- {
		want[id] = true
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for id, sub := range s.subs {
		if !want[id] {
			sub.Cancel()
			delete(s.subs, id)
		}
	}
	for id := range want {
		if _, ok := s.subs[id]; ok {
			continue
		}
		sub := s.watcher.Watch(ctx, id)
		s.subs[id] = sub
		go s.drain(sub)
	}
}

// drain consumes a subscription's local channel; events already reach
// clients through the publisher
func (s *Supervisor) drain(sub *Subscription) {
	for event := range sub.Events() {
		s.log.WithField("contest_id", event.ContestID).WithField("type", event.Type).Debug("event observed")
	}
}

func (s *Supervisor) stopAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, sub := range s.subs {
		sub.Cancel()
		delete(s.subs, id)
	}
}
