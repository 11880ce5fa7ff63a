package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Policy handles retry logic with exponential backoff
type Policy struct {
	maxAttempts  int
	initialDelay time.Duration
	maxDelay     time.Duration
}

// NewPolicy creates a new retry policy
func NewPolicy(maxAttempts int, initialDelay time.Duration) *Policy {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &Policy{
		maxAttempts:  maxAttempts,
		initialDelay: initialDelay,
		maxDelay:     30 * time.Second, // Cap at 30 seconds
	}
}

type permanent struct{ err error }

func (p permanent) Error() string { return p.err.Error() }
func (p permanent) Unwrap() error { return p.err }

// Permanent marks an error that must not be retried
func Permanent(err error) error {
	return permanent{err: err}
}

// Execute runs fn until it succeeds, returns a Permanent error, the
// attempts run out or ctx is done
func (r *Policy) Execute(ctx context.Context, fn func() error) error {
	var lastErr error
	delay := r.initialDelay

	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}

		var stop permanent
		if errors.As(err, &stop) {
			return stop.err
		}

		lastErr = err

		// Don't sleep after last attempt
		if attempt < r.maxAttempts {
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return fmt.Errorf("retry canceled after %d attempts: %w", attempt, ctx.Err())
			case <-timer.C:
			}

			delay = time.Duration(float64(delay) * 1.5)
			if delay > r.maxDelay {
				delay = r.maxDelay
			}
		}
	}

	return fmt.Errorf("failed after %d attempts: %w", r.maxAttempts, lastErr)
}
