package raster

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forest-guardian/distwise-lulc/internal/model"
	"github.com/forest-guardian/distwise-lulc/internal/retry"
)

const utm43N model.CRS = "EPSG:32643"

// newGrid builds a width x height grid with 10 m pixels whose top-left corner
// is at (1000, 2000) and cell value row*width+col.
func newGrid(width, height int) *Grid {
	data := make([]int32, width*height)
	for i := range data {
		data[i] = int32(i)
	}
	return &Grid{
		Width:      width,
		Height:     height,
		Data:       data,
		Transform:  GeoTransform{1000, 10, 0, 2000, 0, -10},
		SpatialRef: utm43N,
	}
}

// smallChunks forces Materialize through several chunks.
type smallChunks struct {
	*Grid
	reads int
}

func (s *smallChunks) ChunkSize() int { return 3 }

func (s *smallChunks) ReadWindow(x, y, w, h int, buf []int32) error {
	s.reads++
	return s.Grid.ReadWindow(x, y, w, h, buf)
}

func TestPixelWindow(t *testing.T) {
	gt := GeoTransform{1000, 10, 0, 2000, 0, -10}

	col, row, w, h, ok := gt.PixelWindow(model.BBox{MinX: 1015, MinY: 1955, MaxX: 1042, MaxY: 1990}, 10, 10)
	require.True(t, ok)
	assert.Equal(t, []int{1, 1, 4, 4}, []int{col, row, w, h})

	col, row, w, h, ok = gt.PixelWindow(model.BBox{MinX: 900, MinY: 1900, MaxX: 2000, MaxY: 2100}, 10, 10)
	require.True(t, ok)
	assert.Equal(t, []int{0, 0, 10, 10}, []int{col, row, w, h}, "clamped to raster")

	_, _, _, _, ok = gt.PixelWindow(model.BBox{MinX: 0, MinY: 0, MaxX: 10, MaxY: 10}, 10, 10)
	assert.False(t, ok)
}

func TestExtentAndCellBound(t *testing.T) {
	gt := GeoTransform{1000, 10, 0, 2000, 0, -10}
	assert.Equal(t, model.BBox{MinX: 1000, MinY: 1900, MaxX: 1100, MaxY: 2000}, gt.Extent(10, 10))

	b := gt.CellBound(2, 3)
	assert.Equal(t, 1020.0, b.Min.X())
	assert.Equal(t, 1960.0, b.Min.Y())
	assert.Equal(t, 1030.0, b.Max.X())
	assert.Equal(t, 1970.0, b.Max.Y())
}

func TestClipCarriesCRSAndTransform(t *testing.T) {
	g := newGrid(10, 10)
	w, err := Clip(g, model.BBox{MinX: 1015, MinY: 1955, MaxX: 1042, MaxY: 1990})
	require.NoError(t, err)
	require.False(t, w.Empty())

	assert.Equal(t, utm43N, w.CRS())
	assert.Equal(t, GeoTransform{1010, 10, 0, 1990, 0, -10}, w.GeoTransform())

	grid, err := w.Materialize(context.Background())
	require.NoError(t, err)
	assert.Equal(t, utm43N, grid.CRS())
	assert.Equal(t, 4, grid.Width)
	assert.Equal(t, 4, grid.Height)
	assert.Equal(t, int32(11), grid.At(0, 0))
	assert.Equal(t, int32(44), grid.At(3, 3))
}

func TestClipDisjointIsEmpty(t *testing.T) {
	w, err := Clip(newGrid(10, 10), model.BBox{MinX: 0, MinY: 0, MaxX: 5, MaxY: 5})
	require.NoError(t, err)
	assert.True(t, w.Empty())

	grid, err := w.Materialize(context.Background())
	require.NoError(t, err)
	assert.True(t, grid.Empty())
	assert.Equal(t, utm43N, grid.CRS())
}

func TestClipRequiresCRS(t *testing.T) {
	g := newGrid(2, 2)
	g.SpatialRef = ""
	_, err := Clip(g, model.BBox{MinX: 1000, MinY: 1980, MaxX: 1020, MaxY: 2000})
	assert.ErrorIs(t, err, model.ErrCRS)
}

func TestClipRejectsRotation(t *testing.T) {
	g := newGrid(2, 2)
	g.Transform[2] = 0.5
	_, err := Clip(g, model.BBox{MinX: 1000, MinY: 1980, MaxX: 1020, MaxY: 2000})
	assert.ErrorIs(t, err, model.ErrInvalidInput)
}

func TestMaterializeInChunks(t *testing.T) {
	src := &smallChunks{Grid: newGrid(10, 8)}
	src.HasNoData, src.NoDataValue = true, 0

	w, err := Clip(src, src.Extent())
	require.NoError(t, err)
	grid, err := w.Materialize(context.Background())
	require.NoError(t, err)

	assert.Equal(t, src.Data, grid.Data)
	assert.Equal(t, 4*3, src.reads, "ceil(10/3) x ceil(8/3) chunks")
	assert.True(t, grid.HasNoData)
	assert.True(t, grid.IsNoData(0))
}

func TestMaterializeHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	w, err := Clip(newGrid(4, 4), model.BBox{MinX: 1000, MinY: 1960, MaxX: 1040, MaxY: 2000})
	require.NoError(t, err)
	_, err = w.Materialize(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

// flakySource fails its first failures reads with err.
type flakySource struct {
	*Grid
	policy   retry.Policy
	failures int
	err      error
	reads    int
}

func (f *flakySource) RetryPolicy() retry.Policy { return f.policy }

func (f *flakySource) ReadWindow(x, y, w, h int, buf []int32) error {
	f.reads++
	if f.reads <= f.failures {
		return fmt.Errorf("curl read: %w", f.err)
	}
	return f.Grid.ReadWindow(x, y, w, h, buf)
}

func TestMaterializeRetriesTransientReads(t *testing.T) {
	src := &flakySource{
		Grid:     newGrid(4, 4),
		policy:   retry.Policy{Attempts: 3},
		failures: 2,
		err:      model.ErrTransientIO,
	}
	w, err := Clip(src, src.Extent())
	require.NoError(t, err)

	grid, err := w.Materialize(context.Background())
	require.NoError(t, err)
	assert.Equal(t, src.Data, grid.Data)
	assert.Equal(t, 3, src.reads)
}

func TestMaterializeGivesUpAfterAttempts(t *testing.T) {
	src := &flakySource{
		Grid:     newGrid(4, 4),
		policy:   retry.Policy{Attempts: 2},
		failures: 5,
		err:      model.ErrTransientIO,
	}
	w, err := Clip(src, src.Extent())
	require.NoError(t, err)

	_, err = w.Materialize(context.Background())
	assert.ErrorIs(t, err, model.ErrTransientIO)
	assert.Equal(t, 2, src.reads)
}

func TestMaterializeDoesNotRetryPermanentErrors(t *testing.T) {
	src := &flakySource{
		Grid:     newGrid(4, 4),
		policy:   retry.Policy{Attempts: 3},
		failures: 1,
		err:      errors.New("corrupt block"),
	}
	w, err := Clip(src, src.Extent())
	require.NoError(t, err)

	_, err = w.Materialize(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, model.ErrTransientIO)
	assert.Equal(t, 1, src.reads)
}

func TestGridValidate(t *testing.T) {
	g := newGrid(3, 3)
	require.NoError(t, g.Validate())
	g.Data = g.Data[:5]
	assert.ErrorIs(t, g.Validate(), model.ErrInvalidInput)
}

func TestVsiPath(t *testing.T) {
	assert.Equal(t, "/vsicurl/https://x/a.tif?sig=1", vsiPath("https://x/a.tif?sig=1"))
	assert.Equal(t, "/data/a.tif", vsiPath("/data/a.tif"))
}

func TestLoaderHTTPConfig(t *testing.T) {
	l := NewLoader(0, 30*time.Second, retry.DefaultPolicy(), nil)
	assert.Equal(t, []string{"GDAL_HTTP_MAX_RETRY=0", "GDAL_HTTP_TIMEOUT=30"}, l.httpConfig())
	assert.Equal(t, DefaultChunkSize, l.ChunkSize)

	l = NewLoader(16, 1500*time.Millisecond, retry.DefaultPolicy(), nil)
	assert.Equal(t, []string{"GDAL_HTTP_MAX_RETRY=0", "GDAL_HTTP_TIMEOUT=2"}, l.httpConfig())

	l = NewLoader(16, 0, retry.DefaultPolicy(), nil)
	assert.Equal(t, []string{"GDAL_HTTP_MAX_RETRY=0"}, l.httpConfig())
}
