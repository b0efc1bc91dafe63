package raster

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"

	"github.com/forest-guardian/distwise-lulc/internal/model"
)

// GeoTransform follows the GDAL convention:
// x = gt[0] + col*gt[1] + row*gt[2], y = gt[3] + col*gt[4] + row*gt[5].
type GeoTransform [6]float64

func (gt GeoTransform) Rotated() bool {
	return gt[2] != 0 || gt[4] != 0
}

func (gt GeoTransform) Validate() error {
	if gt.Rotated() {
		return fmt.Errorf("rotated geotransform %v is not supported: %w", gt, model.ErrInvalidInput)
	}
	if gt[1] == 0 || gt[5] == 0 {
		return fmt.Errorf("geotransform %v has a zero pixel size: %w", gt, model.ErrInvalidInput)
	}
	return nil
}

// CellBound is the footprint of pixel (col, row).
func (gt GeoTransform) CellBound(col, row int) orb.Bound {
	x0 := gt[0] + float64(col)*gt[1]
	x1 := x0 + gt[1]
	y0 := gt[3] + float64(row)*gt[5]
	y1 := y0 + gt[5]
	return orb.Bound{
		Min: orb.Point{math.Min(x0, x1), math.Min(y0, y1)},
		Max: orb.Point{math.Max(x0, x1), math.Max(y0, y1)},
	}
}

// BlockBound is the footprint of the pixel block [col0,col1) x [row0,row1).
func (gt GeoTransform) BlockBound(col0, row0, col1, row1 int) orb.Bound {
	a := gt.CellBound(col0, row0)
	b := gt.CellBound(col1-1, row1-1)
	return a.Union(b)
}

// Extent of a width x height raster.
func (gt GeoTransform) Extent(width, height int) model.BBox {
	if width <= 0 || height <= 0 {
		return model.BBox{}
	}
	return model.FromBound(gt.BlockBound(0, 0, width, height))
}

// Offset returns the geotransform of the sub-grid starting at (col, row).
func (gt GeoTransform) Offset(col, row int) GeoTransform {
	out := gt
	out[0] = gt[0] + float64(col)*gt[1]
	out[3] = gt[3] + float64(row)*gt[5]
	return out
}

// PixelWindow returns the smallest pixel window of a width x height raster
// that covers bbox. ok is false when the bbox misses the raster.
func (gt GeoTransform) PixelWindow(bbox model.BBox, width, height int) (col, row, w, h int, ok bool) {
	x0 := (bbox.MinX - gt[0]) / gt[1]
	x1 := (bbox.MaxX - gt[0]) / gt[1]
	if x0 > x1 {
		x0, x1 = x1, x0
	}
	y0 := (bbox.MaxY - gt[3]) / gt[5]
	y1 := (bbox.MinY - gt[3]) / gt[5]
	if y0 > y1 {
		y0, y1 = y1, y0
	}

	c0 := clamp(int(math.Floor(x0)), 0, width)
	c1 := clamp(int(math.Ceil(x1)), 0, width)
	r0 := clamp(int(math.Floor(y0)), 0, height)
	r1 := clamp(int(math.Ceil(y1)), 0, height)
	if c1 <= c0 || r1 <= r0 {
		return 0, 0, 0, 0, false
	}
	return c0, r0, c1 - c0, r1 - r0, true
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
