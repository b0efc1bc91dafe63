package pipeline

import (
	"context"

	"github.com/forest-guardian/distwise-lulc/internal/model"
	"github.com/forest-guardian/distwise-lulc/internal/raster"
)

type rasterLoader struct {
	l *raster.Loader
}

// FromRasterLoader adapts the GDAL loader to Loader.
func FromRasterLoader(l *raster.Loader) Loader {
	return rasterLoader{l: l}
}

func (r rasterLoader) Load(ctx context.Context, desc model.AssetDescriptor) (Dataset, error) {
	ds, err := r.l.Load(ctx, desc)
	if err != nil {
		return nil, err
	}
	return ds, nil
}
