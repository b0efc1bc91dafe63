// Package zonal computes the area weighted class composition of a raster
// under a polygon, counting partially covered pixels by their exact
// covered fraction.
package zonal

import (
	"fmt"
	"math"
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/clip"
	"github.com/paulmach/orb/planar"

	"github.com/forest-guardian/distwise-lulc/internal/model"
	"github.com/forest-guardian/distwise-lulc/internal/raster"
)

// ClassFraction is the share of the covered, non nodata area holding Code.
type ClassFraction struct {
	Code     int
	Fraction float64
}

// relative tolerance for deciding a block is fully covered
const fullTolerance = 1e-9

type Engine struct{}

func NewEngine() *Engine {
	return &Engine{}
}

// Extract returns one entry per class code present under geom, sorted by
// code. geom must be in the grid's CRS. Nodata pixels are left out of both
// the class weights and the total, so the fractions sum to 1. A geometry
// that does not overlap the grid yields an empty result.
func (e *Engine) Extract(grid *raster.Grid, geom orb.MultiPolygon) ([]ClassFraction, error) {
	if grid == nil {
		return nil, fmt.Errorf("nil grid: %w", model.ErrInvalidInput)
	}
	if grid.Empty() || len(geom) == 0 {
		return []ClassFraction{}, nil
	}
	if err := grid.Validate(); err != nil {
		return nil, err
	}

	col, row, w, h, ok := grid.Transform.PixelWindow(model.FromBound(geom.Bound()), grid.Width, grid.Height)
	if !ok {
		return []ClassFraction{}, nil
	}

	acc := &accumulator{grid: grid, weights: make(map[int]float64)}
	acc.visit(geom, col, row, col+w, row+h)

	if acc.total <= 0 {
		return []ClassFraction{}, nil
	}
	out := make([]ClassFraction, 0, len(acc.weights))
	for code, wt := range acc.weights {
		if wt <= 0 {
			continue
		}
		out = append(out, ClassFraction{Code: code, Fraction: wt / acc.total})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

type accumulator struct {
	grid    *raster.Grid
	weights map[int]float64
	total   float64
}

// visit walks the pixel block [c0,c1) x [r0,r1) as a quadtree. geom has
// already been clipped to the parent block, so each level clips less.
// clip works in place on its input, and geom is shared by the sibling
// blocks and owned by the caller at the top level, so a copy is clipped.
func (a *accumulator) visit(geom orb.MultiPolygon, c0, r0, c1, r1 int) {
	block := a.grid.Transform.BlockBound(c0, r0, c1, r1)
	part := clip.MultiPolygon(block, geom.Clone())
	if len(part) == 0 {
		return
	}
	covered := planar.Area(part)
	if covered <= 0 {
		return
	}
	blockArea := boundArea(block)

	if math.Abs(blockArea-covered) <= fullTolerance*blockArea {
		for r := r0; r < r1; r++ {
			for c := c0; c < c1; c++ {
				a.add(a.grid.At(c, r), 1)
			}
		}
		return
	}

	if c1-c0 == 1 && r1-r0 == 1 {
		a.add(a.grid.At(c0, r0), math.Min(covered/blockArea, 1))
		return
	}

	cm := c0 + (c1-c0+1)/2
	rm := r0 + (r1-r0+1)/2
	a.visit(part, c0, r0, cm, rm)
	if cm < c1 {
		a.visit(part, cm, r0, c1, rm)
	}
	if rm < r1 {
		a.visit(part, c0, rm, cm, r1)
		if cm < c1 {
			a.visit(part, cm, rm, c1, r1)
		}
	}
}

func (a *accumulator) add(v int32, weight float64) {
	if a.grid.IsNoData(v) {
		return
	}
	a.weights[int(v)] += weight
	a.total += weight
}

func boundArea(b orb.Bound) float64 {
	return (b.Max.X() - b.Min.X()) * (b.Max.Y() - b.Min.Y())
}
