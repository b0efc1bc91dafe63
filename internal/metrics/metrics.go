// Package metrics exposes Prometheus metrics for stats queries.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

type Provider struct {
	reg           *prometheus.Registry
	stageDuration *prometheus.HistogramVec
	queryDuration *prometheus.HistogramVec
	queries       *prometheus.CounterVec
	batchItems    *prometheus.CounterVec
}

func Init(version string) *Provider {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	if version == "" {
		version = "dev"
	}
	build := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_build_info",
			Help: "Build info for this binary (value is always 1).",
		},
		[]string{"version"},
	)
	build.WithLabelValues(version).Set(1)

	p := &Provider{
		reg: reg,
		stageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "lulc_stage_duration_seconds",
				Help:    "Duration of each stats pipeline stage in seconds.",
				Buckets: prometheus.ExponentialBuckets(0.01, 2, 14), // 10ms to ~80s
			},
			[]string{"stage"},
		),
		queryDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "lulc_query_duration_seconds",
				Help:    "Duration of whole stats queries in seconds.",
				Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
			},
			[]string{"outcome"},
		),
		queries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lulc_queries_total",
				Help: "Stats queries by outcome.",
			},
			[]string{"outcome"},
		),
		batchItems: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lulc_batch_districts_total",
				Help: "Districts processed by batch runs, by result.",
			},
			[]string{"result"},
		),
	}
	reg.MustRegister(build, p.stageDuration, p.queryDuration, p.queries, p.batchItems)
	return p
}

func (p *Provider) ObserveStage(stage string, d time.Duration) {
	p.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (p *Provider) ObserveQuery(outcome string, d time.Duration) {
	p.queries.WithLabelValues(outcome).Inc()
	p.queryDuration.WithLabelValues(outcome).Observe(d.Seconds())
}

// ObserveBatchItem counts one district of a batch run.
func (p *Provider) ObserveBatchItem(ok bool) {
	result := "ok"
	if !ok {
		result = "failed"
	}
	p.batchItems.WithLabelValues(result).Inc()
}

func (p *Provider) Handler() http.Handler {
	return promhttp.HandlerFor(p.reg, promhttp.HandlerOpts{})
}

func (p *Provider) Registerer() prometheus.Registerer { return p.reg }

// Serve exposes /metrics on addr until ctx is done. An empty addr disables
// the listener.
func (p *Provider) Serve(ctx context.Context, addr string, log *zerolog.Logger) {
	if addr == "" {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", p.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	go func() {
		log.Info().Str("addr", addr).Msg("metrics listener started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("metrics listener stopped")
		}
	}()
}
