// Package retry holds the backoff policy shared by every stage that performs
// idempotent remote reads.
package retry

import (
	"context"
	"errors"
	"time"

	"github.com/eapache/go-resiliency/retrier"

	"github.com/forest-guardian/distwise-lulc/internal/model"
)

type Policy struct {
	Attempts int
	Backoff  time.Duration
}

func DefaultPolicy() Policy {
	return Policy{Attempts: 3, Backoff: 500 * time.Millisecond}
}

// transientOnly retries errors wrapping model.ErrTransientIO and nothing else.
type transientOnly struct{}

func (transientOnly) Classify(err error) retrier.Action {
	switch {
	case err == nil:
		return retrier.Succeed
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return retrier.Fail
	case errors.Is(err, model.ErrTransientIO):
		return retrier.Retry
	default:
		return retrier.Fail
	}
}

// Do runs work until it succeeds, fails permanently or the attempts are used
// up. The last error is returned as is.
func (p Policy) Do(ctx context.Context, work func(ctx context.Context) error) error {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}
	r := retrier.New(retrier.ExponentialBackoff(attempts-1, p.Backoff), transientOnly{})
	return r.RunCtx(ctx, work)
}
