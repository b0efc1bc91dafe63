package retry

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/forest-guardian/distwise-lulc/internal/model"
)

func TestDoRetriesTransient(t *testing.T) {
	p := Policy{Attempts: 3, Backoff: time.Millisecond}
	calls := 0
	err := p.Do(context.Background(), func(context.Context) error {
		calls++
		if calls < 3 {
			return fmt.Errorf("flaky: %w", model.ErrTransientIO)
		}
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDoStopsAfterAttempts(t *testing.T) {
	p := Policy{Attempts: 3, Backoff: time.Millisecond}
	calls := 0
	err := p.Do(context.Background(), func(context.Context) error {
		calls++
		return fmt.Errorf("down: %w", model.ErrTransientIO)
	})
	assert.True(t, errors.Is(err, model.ErrTransientIO))
	assert.Equal(t, 3, calls)
}

func TestDoDoesNotRetryPermanent(t *testing.T) {
	p := Policy{Attempts: 5, Backoff: time.Millisecond}
	calls := 0
	err := p.Do(context.Background(), func(context.Context) error {
		calls++
		return fmt.Errorf("no items: %w", model.ErrNotFound)
	})
	assert.True(t, errors.Is(err, model.ErrNotFound))
	assert.Equal(t, 1, calls)
}

func TestDoSingleAttempt(t *testing.T) {
	calls := 0
	_ = Policy{}.Do(context.Background(), func(context.Context) error {
		calls++
		return model.ErrTransientIO
	})
	assert.Equal(t, 1, calls)
}
