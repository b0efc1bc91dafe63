package raster

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/airbusgeo/godal"
	"github.com/rs/zerolog"

	"github.com/forest-guardian/distwise-lulc/internal/logger"
	"github.com/forest-guardian/distwise-lulc/internal/model"
	"github.com/forest-guardian/distwise-lulc/internal/retry"
)

// Dataset is a GDAL backed Source reading band 1 ("class data") on demand.
type Dataset struct {
	ds        *godal.Dataset
	band      godal.Band
	width     int
	height    int
	transform GeoTransform
	crs       model.CRS
	nodata    float64
	hasNoData bool
	chunk     int
	retry     retry.Policy
}

func (d *Dataset) Size() (int, int) { return d.width, d.height }

func (d *Dataset) GeoTransform() GeoTransform { return d.transform }

func (d *Dataset) CRS() model.CRS { return d.crs }

func (d *Dataset) NoData() (float64, bool) { return d.nodata, d.hasNoData }

func (d *Dataset) ChunkSize() int { return d.chunk }

func (d *Dataset) RetryPolicy() retry.Policy { return d.retry }

func (d *Dataset) ReadWindow(x, y, w, h int, buf []int32) error {
	if err := d.band.Read(x, y, buf[:w*h], w, h); err != nil {
		return fmt.Errorf("failed to read raster window: %v: %w", err, model.ErrTransientIO)
	}
	return nil
}

func (d *Dataset) Close() error {
	if d == nil || d.ds == nil {
		return nil
	}
	return d.ds.Close()
}

type Loader struct {
	ChunkSize int
	// HTTPTimeout bounds every remote request GDAL makes for the dataset,
	// the open as well as later block reads.
	HTTPTimeout time.Duration
	Retry       retry.Policy
	log         *zerolog.Logger
}

func NewLoader(chunkSize int, httpTimeout time.Duration, policy retry.Policy, log *zerolog.Logger) *Loader {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Loader{ChunkSize: chunkSize, HTTPTimeout: httpTimeout, Retry: policy, log: log}
}

// httpConfig is the GDAL configuration applied to the dataset. GDAL's own
// retries are off so that Retry alone decides.
func (l *Loader) httpConfig() []string {
	opts := []string{"GDAL_HTTP_MAX_RETRY=0"}
	if l.HTTPTimeout > 0 {
		secs := int(math.Ceil(l.HTTPTimeout.Seconds()))
		opts = append(opts, "GDAL_HTTP_TIMEOUT="+strconv.Itoa(secs))
	}
	return opts
}

// vsiPath maps remote hrefs onto GDAL's curl backed virtual file system.
func vsiPath(href string) string {
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return "/vsicurl/" + href
	}
	return href
}

// Load opens the asset without reading any pixel.
func (l *Loader) Load(ctx context.Context, desc model.AssetDescriptor) (*Dataset, error) {
	if !desc.Signed {
		return nil, fmt.Errorf("asset %s is not signed: %w", desc.ItemID, model.ErrInvalidInput)
	}
	path := vsiPath(desc.Href)

	var ds *godal.Dataset
	err := l.Retry.Do(ctx, func(ctx context.Context) error {
		var err error
		ds, err = godal.Open(path, godal.RasterOnly(), godal.ConfigOption(l.httpConfig()...), godal.ErrLogger(func(ec godal.ErrorCategory, code int, msg string) error {
			if ec == godal.CE_Warning {
				return nil
			}
			return fmt.Errorf("gdal error %d: %s", code, msg)
		}))
		if err != nil {
			logger.FromContext(ctx, l.log).Warn().Err(err).Str("item", desc.ItemID).Msg("raster open attempt failed")
			return fmt.Errorf("open %s: %v: %w", desc.ItemID, err, model.ErrTransientIO)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	out, err := l.wrap(ds)
	if err != nil {
		_ = ds.Close()
		return nil, fmt.Errorf("asset %s: %w", desc.ItemID, err)
	}
	return out, nil
}

func (l *Loader) wrap(ds *godal.Dataset) (*Dataset, error) {
	st := ds.Structure()
	if st.NBands < 1 {
		return nil, fmt.Errorf("raster has no band: %w", model.ErrInvalidInput)
	}

	gt, err := ds.GeoTransform()
	if err != nil {
		return nil, fmt.Errorf("geotransform: %w", err)
	}

	wkt := ds.Projection()
	if strings.TrimSpace(wkt) == "" {
		return nil, fmt.Errorf("raster has no spatial reference: %w", model.ErrCRS)
	}

	band := ds.Bands()[0]
	nodata, ok := band.NoData()

	return &Dataset{
		ds:        ds,
		band:      band,
		width:     int(st.SizeX),
		height:    int(st.SizeY),
		transform: GeoTransform(gt),
		crs:       model.CRS(wkt),
		nodata:    nodata,
		hasNoData: ok,
		chunk:     l.ChunkSize,
		retry:     l.Retry,
	}, nil
}
