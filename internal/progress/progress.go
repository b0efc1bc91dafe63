// Package progress provides the ProgressSink implementations used by the
// command line front ends.
package progress

import (
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/schollz/progressbar/v3"

	"github.com/forest-guardian/distwise-lulc/internal/pipeline"
)

// Bar advances a terminal progress bar by one step per stage.
type Bar struct {
	bar *progressbar.ProgressBar
}

func NewBar(w io.Writer, description string) *Bar {
	return &Bar{bar: progressbar.NewOptions(len(pipeline.Stages),
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowCount(),
		progressbar.OptionOnCompletion(func() { fmt.Fprintln(w) }),
	)}
}

func (b *Bar) Report(stage string) {
	b.bar.Describe(stage)
	_ = b.bar.Add(1)
}

// Printer writes every stage on its own line.
type Printer struct {
	mu sync.Mutex
	w  io.Writer
}

func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

func (p *Printer) Report(stage string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.w, color.CyanString("  %s", stage))
}

// Log records stages as info events.
type Log struct {
	log *zerolog.Logger
}

func NewLog(log *zerolog.Logger) *Log {
	return &Log{log: log}
}

func (l *Log) Report(stage string) {
	l.log.Info().Str("stage", stage).Msg("progress")
}

// Multi fans a stage out to several sinks. nil entries are skipped.
type Multi []pipeline.ProgressSink

func (m Multi) Report(stage string) {
	for _, s := range m {
		if s != nil {
			s.Report(stage)
		}
	}
}

// Recorder keeps every stage it sees, for callers that want the trail.
type Recorder struct {
	mu     sync.Mutex
	stages []string
}

func (r *Recorder) Report(stage string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stages = append(r.stages, stage)
}

func (r *Recorder) Stages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.stages...)
}

// Completed reports whether the last stage was reached.
func (r *Recorder) Completed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.stages) > 0 && r.stages[len(r.stages)-1] == pipeline.StageReady
}
