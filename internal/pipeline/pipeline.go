// Package pipeline runs one district statistics query end to end:
// catalog, raster, reprojection, clip, extraction, class mapping.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/paulmach/orb"
	"github.com/rs/zerolog"

	"github.com/forest-guardian/distwise-lulc/internal/classmap"
	"github.com/forest-guardian/distwise-lulc/internal/logger"
	"github.com/forest-guardian/distwise-lulc/internal/model"
	"github.com/forest-guardian/distwise-lulc/internal/raster"
	"github.com/forest-guardian/distwise-lulc/internal/stats"
	"github.com/forest-guardian/distwise-lulc/internal/zonal"
)

type Resolver interface {
	Resolve(ctx context.Context, year int, bbox model.BBox) (model.AssetDescriptor, error)
}

// Dataset is an opened raster that must be closed after the query.
type Dataset interface {
	raster.Source
	Close() error
}

type Loader interface {
	Load(ctx context.Context, desc model.AssetDescriptor) (Dataset, error)
}

type Reprojector interface {
	Reproject(d model.District, target model.CRS) (model.District, error)
}

type Extractor interface {
	Extract(grid *raster.Grid, geom orb.MultiPolygon) ([]zonal.ClassFraction, error)
}

type Deps struct {
	Resolver    Resolver
	Loader      Loader
	Reprojector Reprojector
	Extractor   Extractor
	Mapper      *classmap.Mapper
	Sink        ProgressSink
	Observer    StageObserver
	Logger      *zerolog.Logger
}

// Pipeline holds only its collaborators; every Run builds its own state so
// one Pipeline may serve concurrent queries as long as the sink allows it.
type Pipeline struct {
	resolver    Resolver
	loader      Loader
	reprojector Reprojector
	extractor   Extractor
	mapper      *classmap.Mapper
	sink        ProgressSink
	observer    StageObserver
	log         *zerolog.Logger
}

func New(d Deps) *Pipeline {
	p := &Pipeline{
		resolver:    d.Resolver,
		loader:      d.Loader,
		reprojector: d.Reprojector,
		extractor:   d.Extractor,
		mapper:      d.Mapper,
		sink:        d.Sink,
		observer:    d.Observer,
		log:         d.Logger,
	}
	if p.extractor == nil {
		p.extractor = zonal.NewEngine()
	}
	if p.mapper == nil {
		p.mapper = classmap.New(classmap.DefaultTables())
	}
	if p.log == nil {
		p.log = logger.Nop()
	}
	return p
}

// WithSink returns a copy of p reporting to sink.
func (p *Pipeline) WithSink(sink ProgressSink) *Pipeline {
	cp := *p
	cp.sink = sink
	return &cp
}

// Run computes the class composition of district for year ("2017".."2024").
// The returned table is empty, not an error, when the district does not
// overlap the raster.
func (p *Pipeline) Run(ctx context.Context, district model.District, year string) (table stats.Table, err error) {
	started := time.Now()
	ctx = logger.WithDistrict(ctx, district.Name)
	log := logger.FromContext(ctx, p.log)
	defer func() {
		outcome := Outcome(err)
		if p.observer != nil {
			p.observer.ObserveQuery(outcome, time.Since(started))
		}
		if err != nil {
			log.Warn().Err(err).Str("outcome", outcome).Msg("stats query failed")
			return
		}
		log.Info().Int("rows", len(table.Rows)).Dur("took", time.Since(started)).Msg("stats query finished")
	}()

	y, err := model.ParseYear(year)
	if err != nil {
		return stats.Table{}, err
	}
	if len(district.Geometry) == 0 {
		return stats.Table{}, fmt.Errorf("district %s has no geometry: %w", district.Name, model.ErrInvalidInput)
	}

	var desc model.AssetDescriptor
	err = p.stage(ctx, log, "resolve", func() error {
		wgs, err := p.reprojector.Reproject(district, model.WGS84)
		if err != nil {
			return err
		}
		desc, err = p.resolver.Resolve(ctx, y, wgs.Bound())
		return err
	})
	if err != nil {
		return stats.Table{}, err
	}
	p.report(log, StageCatalog)

	ds, err := p.loader.Load(ctx, desc)
	if err != nil {
		return stats.Table{}, err
	}
	defer func() {
		if cerr := ds.Close(); cerr != nil {
			log.Warn().Err(cerr).Msg("failed to close raster")
		}
	}()

	var local model.District
	err = p.stage(ctx, log, "reproject", func() error {
		var err error
		local, err = p.reprojector.Reproject(district, ds.CRS())
		return err
	})
	if err != nil {
		return stats.Table{}, err
	}
	p.report(log, StageReproject)

	var grid *raster.Grid
	err = p.stage(ctx, log, "clip", func() error {
		win, err := raster.Clip(ds, local.Bound())
		if err != nil {
			return err
		}
		grid, err = win.Materialize(ctx)
		return err
	})
	if err != nil {
		return stats.Table{}, err
	}
	p.report(log, StageClip)

	var fractions []zonal.ClassFraction
	err = p.stage(ctx, log, "extract", func() error {
		var err error
		fractions, err = p.extractor.Extract(grid, local.Geometry)
		return err
	})
	if err != nil {
		return stats.Table{}, err
	}
	p.report(log, StageExtract)

	err = p.stage(ctx, log, "assemble", func() error {
		var err error
		table, err = stats.Assemble(fractions, p.mapper)
		return err
	})
	if err != nil {
		return stats.Table{}, err
	}
	table.State, table.District, table.Year = district.State, district.Name, y
	p.report(log, StageReady)
	return table, nil
}

func (p *Pipeline) stage(ctx context.Context, log *zerolog.Logger, name string, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	start := time.Now()
	err := fn()
	took := time.Since(start)
	if p.observer != nil {
		p.observer.ObserveStage(name, took)
	}
	log.Debug().Str("stage", name).Dur("took", took).Err(err).Msg("stage done")
	return err
}

// report never lets a misbehaving sink fail the query.
func (p *Pipeline) report(log *zerolog.Logger, stage string) {
	if p.sink == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Str("stage", stage).Msg("progress sink panicked")
		}
	}()
	p.sink.Report(stage)
}
