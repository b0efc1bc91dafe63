// Package app wires the configured collaborators together and exposes the
// operations the menu and the commands offer.
package app

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/forest-guardian/distwise-lulc/internal/batch"
	"github.com/forest-guardian/distwise-lulc/internal/boundary"
	"github.com/forest-guardian/distwise-lulc/internal/cache"
	"github.com/forest-guardian/distwise-lulc/internal/catalog"
	"github.com/forest-guardian/distwise-lulc/internal/classmap"
	"github.com/forest-guardian/distwise-lulc/internal/geometry"
	"github.com/forest-guardian/distwise-lulc/internal/httpclient"
	"github.com/forest-guardian/distwise-lulc/internal/logger"
	"github.com/forest-guardian/distwise-lulc/internal/metrics"
	"github.com/forest-guardian/distwise-lulc/internal/model"
	"github.com/forest-guardian/distwise-lulc/internal/notification"
	"github.com/forest-guardian/distwise-lulc/internal/pipeline"
	"github.com/forest-guardian/distwise-lulc/internal/properties"
	"github.com/forest-guardian/distwise-lulc/internal/raster"
	"github.com/forest-guardian/distwise-lulc/internal/retry"
	"github.com/forest-guardian/distwise-lulc/internal/stats"
	"github.com/forest-guardian/distwise-lulc/internal/zonal"
	"github.com/forest-guardian/distwise-lulc/output"
)

// Boundaries is the part of the boundary loader the app needs.
type Boundaries interface {
	Find(state, district string) (model.District, error)
	LoadState(state string) (boundary.Set, error)
	Index() (boundary.Index, error)
}

type Notifier interface {
	SendSuccess(ctx context.Context, msg string) error
	SendError(ctx context.Context, msg string) error
}

type Report struct {
	Table stats.Table
	Paths output.Paths
}

type App struct {
	cfg         properties.Config
	pipeline    *pipeline.Pipeline
	reprojector pipeline.Reprojector
	boundaries  Boundaries
	notifier    Notifier
	metrics     *metrics.Provider
	log         *zerolog.Logger

	// OutDir receives the rendered artefacts; empty skips rendering.
	OutDir string
}

// New builds the production wiring: Planetary Computer catalog, GDAL raster
// and boundary readers, Discord notifications and Prometheus metrics.
func New(ctx context.Context, cfg properties.Config, log *zerolog.Logger) *App {
	if log == nil {
		log = logger.Nop()
	}
	policy := retry.Policy{Attempts: cfg.RetryAttempts, Backoff: cfg.RetryBackoff}

	outbound := httpclient.NewOutbound(cfg.HTTPTimeout)
	stacHTTP := httpclient.WithOAuth2(ctx, outbound, httpclient.OAuth2Config{
		ClientID:     cfg.StacClientID,
		ClientSecret: cfg.StacClientSecret,
		TokenURL:     cfg.StacTokenURL,
	})

	resolver := catalog.NewResolver(
		catalog.NewClient(stacHTTP, cfg.StacURL),
		catalog.NewPlanetaryComputerSigner(outbound, cfg.SASURL, cfg.SubscriptionKey),
		catalog.ResolverConfig{
			Collection: cfg.Collection,
			AssetKey:   cfg.AssetKey,
			MinYear:    cfg.MinYear,
			MaxYear:    cfg.MaxYear,
			Retry:      policy,
		},
		log,
	)

	prov := metrics.Init("dev")
	prov.Serve(ctx, cfg.MetricsAddr, log)

	reprojector := geometry.NewReprojector()
	p := pipeline.New(pipeline.Deps{
		Resolver:    resolver,
		Loader:      pipeline.FromRasterLoader(raster.NewLoader(cfg.ChunkSize, cfg.HTTPTimeout, policy, log)),
		Reprojector: reprojector,
		Extractor:   zonal.NewEngine(),
		Mapper:      classmap.New(classmap.DefaultTables()),
		Observer:    prov,
		Logger:      log,
	})

	idxCache := cache.NewFileCache[boundary.Index](filepath.Join(filepath.Dir(cfg.BoundaryPath), "cache"))

	return &App{
		cfg:         cfg,
		pipeline:    p,
		reprojector: reprojector,
		boundaries:  boundary.NewLoader(cfg.BoundaryPath, idxCache, log),
		notifier:    notification.FromProperties(outbound),
		metrics:     prov,
		log:         log,
		OutDir:      output.ResultDir(),
	}
}

// NewWith assembles an App from explicit collaborators.
func NewWith(cfg properties.Config, p *pipeline.Pipeline, r pipeline.Reprojector, b Boundaries, n Notifier, log *zerolog.Logger) *App {
	if log == nil {
		log = logger.Nop()
	}
	return &App{cfg: cfg, pipeline: p, reprojector: r, boundaries: b, notifier: n, log: log}
}

func (a *App) Config() properties.Config { return a.cfg }

// SetOutDir changes where artefacts are written; empty disables rendering.
func (a *App) SetOutDir(dir string) { a.OutDir = dir }

func (a *App) States() ([]string, error) {
	ix, err := a.boundaries.Index()
	if err != nil {
		return nil, err
	}
	return ix.StateNames(), nil
}

func (a *App) Districts(state string) ([]string, error) {
	ix, err := a.boundaries.Index()
	if err != nil {
		return nil, err
	}
	ds, ok := ix.Districts(state)
	if !ok {
		return nil, fmt.Errorf("state %q: %w", state, model.ErrNotFound)
	}
	return ds, nil
}

// Stats runs one query and renders its artefacts.
func (a *App) Stats(ctx context.Context, state, district, year string, sink pipeline.ProgressSink) (*Report, error) {
	d, err := a.boundaries.Find(state, district)
	if err != nil {
		return nil, err
	}
	return a.StatsFor(ctx, d, year, sink)
}

// StatsFor runs one query for an already resolved district boundary.
func (a *App) StatsFor(ctx context.Context, d model.District, year string, sink pipeline.ProgressSink) (*Report, error) {
	ctx = logger.WithRunID(ctx, "")
	table, err := a.pipeline.WithSink(sink).Run(ctx, d, year)
	if err != nil {
		a.notify(ctx, false, fmt.Sprintf("LULC stats for %s, %s (%s) failed: %v", d.Name, d.State, year, err))
		return nil, err
	}

	report := &Report{Table: table}
	if a.OutDir != "" {
		report.Paths, err = a.render(ctx, a.OutDir, table, d)
		if err != nil {
			a.notify(ctx, false, fmt.Sprintf("LULC stats for %s, %s (%s) computed but not rendered: %v", d.Name, d.State, year, err))
			return report, err
		}
	}
	a.notify(ctx, true, fmt.Sprintf("LULC stats for %s, %s (%s) are ready: %d classes", d.Name, d.State, year, len(table.Rows)))
	return report, nil
}

// Batch runs every district of state. Artefacts go to OutDir/<state>_<year>.
func (a *App) Batch(ctx context.Context, state, year string, progress batch.Config) ([]batch.Result, error) {
	names, err := a.Districts(state)
	if err != nil {
		return nil, err
	}

	if progress.Workers <= 0 {
		progress.Workers = a.cfg.BatchWorkers
	}
	if progress.Logger == nil {
		progress.Logger = a.log
	}
	if progress.Observe == nil && a.metrics != nil {
		progress.Observe = a.metrics.ObserveBatchItem
	}
	if a.OutDir != "" {
		dir := filepath.Join(a.OutDir, output.Slug(state)+"_"+year)
		next := progress.OnResult
		progress.OnResult = func(r batch.Result) {
			if r.Err == nil {
				if _, err := a.render(ctx, dir, r.Table, r.Boundary); err != nil {
					a.log.Warn().Err(err).Str("district", r.District).Msg("failed to render batch artefacts")
				}
			}
			if next != nil {
				next(r)
			}
		}
	}

	// one scan of the boundary dataset serves every district of the state
	outlines, err := a.boundaries.LoadState(state)
	if err != nil {
		return nil, err
	}

	runner := a.pipeline.WithSink(nil)
	results := batch.New(runner, outlines, progress).Run(ctx, state, names, year)

	failed := batch.Failed(results)
	a.notify(ctx, len(failed) == 0, fmt.Sprintf("LULC batch for %s (%s): %d of %d districts done", state, year, len(results)-len(failed), len(results)))
	return results, nil
}

func (a *App) render(ctx context.Context, dir string, t stats.Table, d model.District) (output.Paths, error) {
	geo, err := a.reprojector.Reproject(d, model.WGS84)
	if err != nil {
		return output.Paths{}, err
	}
	return output.WriteAll(ctx, dir, t, geo)
}

func (a *App) notify(ctx context.Context, ok bool, msg string) {
	if a.notifier == nil {
		return
	}
	send := a.notifier.SendError
	if ok {
		send = a.notifier.SendSuccess
	}
	if err := send(ctx, msg); err != nil {
		a.log.Warn().Err(err).Msg("failed to send notification")
	}
}
