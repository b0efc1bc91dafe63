// Package batch runs independent stats queries for many districts on a
// bounded worker pool.
package batch

import (
	"context"
	"io"
	"sync"

	"github.com/gammazero/workerpool"
	"github.com/rs/zerolog"
	"github.com/schollz/progressbar/v3"

	"github.com/forest-guardian/distwise-lulc/internal/logger"
	"github.com/forest-guardian/distwise-lulc/internal/model"
	"github.com/forest-guardian/distwise-lulc/internal/stats"
)

type Runner interface {
	Run(ctx context.Context, d model.District, year string) (stats.Table, error)
}

type Finder interface {
	Find(state, district string) (model.District, error)
}

type Result struct {
	State    string
	District string
	Boundary model.District
	Table    stats.Table
	Err      error
}

type Config struct {
	Workers int
	// Progress receives the progress bar; nil hides it.
	Progress io.Writer
	// OnResult is called from the workers as each district finishes and
	// must be safe for concurrent use.
	OnResult func(Result)
	// Observe counts finished districts, typically into metrics.
	Observe func(ok bool)
	Logger  *zerolog.Logger
}

type Batch struct {
	runner Runner
	finder Finder
	cfg    Config
}

func New(runner Runner, finder Finder, cfg Config) *Batch {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Nop()
	}
	return &Batch{runner: runner, finder: finder, cfg: cfg}
}

// Run processes every district of state for year. One district failing does
// not stop the others; the results keep the order of districts.
func (b *Batch) Run(ctx context.Context, state string, districts []string, year string) []Result {
	results := make([]Result, len(districts))
	if len(districts) == 0 {
		return results
	}

	var (
		mu          sync.Mutex
		progressBar *progressbar.ProgressBar
	)
	if b.cfg.Progress != nil {
		progressBar = progressbar.NewOptions(len(districts),
			progressbar.OptionSetWriter(b.cfg.Progress),
			progressbar.OptionSetDescription(state+" "+year),
			progressbar.OptionShowCount(),
		)
	}

	wp := workerpool.New(b.cfg.Workers)
	for i, name := range districts {
		wp.Submit(func() {
			res := b.one(ctx, state, name, year)
			results[i] = res

			if b.cfg.OnResult != nil {
				b.cfg.OnResult(res)
			}
			if b.cfg.Observe != nil {
				b.cfg.Observe(res.Err == nil)
			}
			if progressBar != nil {
				mu.Lock()
				_ = progressBar.Add(1)
				mu.Unlock()
			}
		})
	}
	wp.StopWait()
	return results
}

func (b *Batch) one(ctx context.Context, state, name, year string) Result {
	res := Result{State: state, District: name}
	ctx = logger.WithRunID(logger.WithDistrict(ctx, name), "")
	log := logger.FromContext(ctx, b.cfg.Logger)

	if err := ctx.Err(); err != nil {
		res.Err = err
		return res
	}
	d, err := b.finder.Find(state, name)
	if err != nil {
		log.Warn().Err(err).Msg("district boundary not found")
		res.Err = err
		return res
	}
	res.Boundary = d
	res.Table, res.Err = b.runner.Run(ctx, d, year)
	if res.Err != nil {
		log.Warn().Err(res.Err).Msg("district stats failed")
	}
	return res
}

// Failed returns the results that carry an error.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if r.Err != nil {
			out = append(out, r)
		}
	}
	return out
}
