package batch

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forest-guardian/distwise-lulc/internal/model"
	"github.com/forest-guardian/distwise-lulc/internal/stats"
)

type mapFinder map[string]bool

func (m mapFinder) Find(state, district string) (model.District, error) {
	if !m[district] {
		return model.District{}, fmt.Errorf("%s: %w", district, model.ErrNotFound)
	}
	return model.District{State: state, Name: district, CRS: model.WGS84}, nil
}

type countingRunner struct {
	active, peak atomic.Int32
	fail         string
}

func (c *countingRunner) Run(_ context.Context, d model.District, year string) (stats.Table, error) {
	n := c.active.Add(1)
	defer c.active.Add(-1)
	for {
		p := c.peak.Load()
		if n <= p || c.peak.CompareAndSwap(p, n) {
			break
		}
	}
	if d.Name == c.fail {
		return stats.Table{}, fmt.Errorf("raster: %w", model.ErrTransientIO)
	}
	return stats.Table{State: d.State, District: d.Name, Rows: []stats.Row{{ClassCode: 1, Fraction: 100}}}, nil
}

func TestBatchCollectsErrorsInOrder(t *testing.T) {
	runner := &countingRunner{fail: "Mysore"}
	finder := mapFinder{"Bangalore": true, "Mysore": true, "Udupi": true}

	var (
		mu   sync.Mutex
		seen []string
		oks  atomic.Int32
		buf  bytes.Buffer
	)
	b := New(runner, finder, Config{
		Workers:  2,
		Progress: &buf,
		OnResult: func(r Result) {
			mu.Lock()
			seen = append(seen, r.District)
			mu.Unlock()
		},
		Observe: func(ok bool) {
			if ok {
				oks.Add(1)
			}
		},
	})

	districts := []string{"Bangalore", "Mysore", "Dharwad", "Udupi"}
	results := b.Run(context.Background(), "Karnataka", districts, "2020")
	require.Len(t, results, 4)
	for i, r := range results {
		assert.Equal(t, districts[i], r.District)
		assert.Equal(t, "Karnataka", r.State)
	}
	assert.NoError(t, results[0].Err)
	assert.ErrorIs(t, results[1].Err, model.ErrTransientIO)
	assert.ErrorIs(t, results[2].Err, model.ErrNotFound)
	assert.NoError(t, results[3].Err)
	assert.Equal(t, "Udupi", results[3].Table.District)

	assert.Len(t, Failed(results), 2)
	assert.ElementsMatch(t, districts, seen)
	assert.Equal(t, int32(2), oks.Load())
	assert.LessOrEqual(t, runner.peak.Load(), int32(2))
	assert.NotEmpty(t, buf.String())
}

func TestBatchCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	results := New(&countingRunner{}, mapFinder{"A": true}, Config{}).Run(ctx, "S", []string{"A"}, "2020")
	require.Len(t, results, 1)
	assert.ErrorIs(t, results[0].Err, context.Canceled)
}

func TestBatchEmpty(t *testing.T) {
	assert.Empty(t, New(&countingRunner{}, mapFinder{}, Config{}).Run(context.Background(), "S", nil, "2020"))
}
