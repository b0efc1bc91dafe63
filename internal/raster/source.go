// Package raster loads class rasters, clips them to a bounding box and
// materialises the clipped window into memory.
package raster

import (
	"fmt"

	"github.com/forest-guardian/distwise-lulc/internal/model"
	"github.com/forest-guardian/distwise-lulc/internal/retry"
)

const DefaultChunkSize = 1024

// Source is a lazily read, single band class raster.
type Source interface {
	Size() (width, height int)
	GeoTransform() GeoTransform
	CRS() model.CRS
	NoData() (float64, bool)
	// ReadWindow fills buf (len >= w*h, row major) with pixels of the window
	// starting at column x, row y.
	ReadWindow(x, y, w, h int, buf []int32) error
}

// chunked is implemented by sources with a preferred read block.
type chunked interface {
	ChunkSize() int
}

// retrying is implemented by remote sources whose reads may fail
// transiently.
type retrying interface {
	RetryPolicy() retry.Policy
}

// Grid is a fully materialised raster window.
type Grid struct {
	Width       int
	Height      int
	Data        []int32
	Transform   GeoTransform
	SpatialRef  model.CRS
	NoDataValue float64
	HasNoData   bool
}

func (g *Grid) Size() (int, int) { return g.Width, g.Height }

func (g *Grid) GeoTransform() GeoTransform { return g.Transform }

func (g *Grid) CRS() model.CRS { return g.SpatialRef }

func (g *Grid) NoData() (float64, bool) { return g.NoDataValue, g.HasNoData }

func (g *Grid) At(col, row int) int32 { return g.Data[row*g.Width+col] }

func (g *Grid) Empty() bool { return g.Width == 0 || g.Height == 0 }

func (g *Grid) Extent() model.BBox { return g.Transform.Extent(g.Width, g.Height) }

// IsNoData reports whether v is the grid's nodata value.
func (g *Grid) IsNoData(v int32) bool {
	return g.HasNoData && float64(v) == g.NoDataValue
}

func (g *Grid) Validate() error {
	if g.Width < 0 || g.Height < 0 || len(g.Data) != g.Width*g.Height {
		return fmt.Errorf("grid %dx%d has %d cells: %w", g.Width, g.Height, len(g.Data), model.ErrInvalidInput)
	}
	return g.Transform.Validate()
}

func (g *Grid) ReadWindow(x, y, w, h int, buf []int32) error {
	if x < 0 || y < 0 || w < 0 || h < 0 || x+w > g.Width || y+h > g.Height {
		return fmt.Errorf("window %d,%d %dx%d outside %dx%d grid", x, y, w, h, g.Width, g.Height)
	}
	if len(buf) < w*h {
		return fmt.Errorf("buffer of %d cells too small for %dx%d window", len(buf), w, h)
	}
	for r := 0; r < h; r++ {
		src := g.Data[(y+r)*g.Width+x : (y+r)*g.Width+x+w]
		copy(buf[r*w:(r+1)*w], src)
	}
	return nil
}
