package raster

import (
	"context"
	"fmt"

	"github.com/forest-guardian/distwise-lulc/internal/model"
	"github.com/forest-guardian/distwise-lulc/internal/retry"
)

// Window is a lazily read rectangular part of a Source. It carries the CRS
// of its source explicitly so it survives the clip.
type Window struct {
	src       Source
	col, row  int
	width     int
	height    int
	transform GeoTransform
	crs       model.CRS
}

// Clip restricts src to the smallest pixel window covering bbox, which must be
// expressed in the raster CRS. A bbox that misses the raster yields an empty
// window, not an error.
func Clip(src Source, bbox model.BBox) (*Window, error) {
	gt := src.GeoTransform()
	if err := gt.Validate(); err != nil {
		return nil, err
	}
	crs := src.CRS()
	if !crs.Defined() {
		return nil, fmt.Errorf("raster has no crs: %w", model.ErrCRS)
	}

	w, h := src.Size()
	col, row, ww, wh, ok := gt.PixelWindow(bbox, w, h)
	if !ok {
		return &Window{src: src, transform: gt, crs: crs}, nil
	}
	return &Window{
		src:       src,
		col:       col,
		row:       row,
		width:     ww,
		height:    wh,
		transform: gt.Offset(col, row),
		crs:       crs,
	}, nil
}

func (w *Window) Empty() bool { return w.width == 0 || w.height == 0 }

func (w *Window) Size() (int, int) { return w.width, w.height }

func (w *Window) Offset() (col, row int) { return w.col, w.row }

func (w *Window) CRS() model.CRS { return w.crs }

func (w *Window) GeoTransform() GeoTransform { return w.transform }

// Materialize reads the whole window into memory in chunks. The context is
// only consulted before the first read; once started the read runs to the end.
// Chunks failing with a transient error are retried with the source's policy.
func (w *Window) Materialize(ctx context.Context) (*Grid, error) {
	nodata, hasNoData := w.src.NoData()
	grid := &Grid{
		Width:       w.width,
		Height:      w.height,
		Transform:   w.transform,
		SpatialRef:  w.crs,
		NoDataValue: nodata,
		HasNoData:   hasNoData,
	}
	if w.Empty() {
		return grid, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	chunk := DefaultChunkSize
	if c, ok := w.src.(chunked); ok && c.ChunkSize() > 0 {
		chunk = c.ChunkSize()
	}

	policy := retry.Policy{Attempts: 1}
	if r, ok := w.src.(retrying); ok {
		policy = r.RetryPolicy()
	}
	readCtx := context.WithoutCancel(ctx)

	grid.Data = make([]int32, w.width*w.height)
	buf := make([]int32, min(chunk, w.width)*min(chunk, w.height))
	for cy := 0; cy < w.height; cy += chunk {
		ch := min(chunk, w.height-cy)
		for cx := 0; cx < w.width; cx += chunk {
			cw := min(chunk, w.width-cx)
			x, y := w.col+cx, w.row+cy
			err := policy.Do(readCtx, func(context.Context) error {
				return w.src.ReadWindow(x, y, cw, ch, buf)
			})
			if err != nil {
				return nil, fmt.Errorf("read chunk at %d,%d: %w", x, y, err)
			}
			for r := 0; r < ch; r++ {
				dst := grid.Data[(cy+r)*w.width+cx : (cy+r)*w.width+cx+cw]
				copy(dst, buf[r*cw:(r+1)*cw])
			}
		}
	}
	return grid, nil
}
