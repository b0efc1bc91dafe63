package geometry

import (
	"fmt"

	"github.com/airbusgeo/godal"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"

	"github.com/forest-guardian/distwise-lulc/internal/model"
)

// ToMultiPolygon normalises a polygon or multipolygon. Any other geometry
// type is rejected.
func ToMultiPolygon(g orb.Geometry) (orb.MultiPolygon, error) {
	switch v := g.(type) {
	case orb.Polygon:
		if len(v) == 0 {
			return nil, fmt.Errorf("empty polygon: %w", model.ErrInvalidInput)
		}
		return orb.MultiPolygon{v}, nil
	case orb.MultiPolygon:
		if len(v) == 0 {
			return nil, fmt.Errorf("empty multipolygon: %w", model.ErrInvalidInput)
		}
		return v, nil
	case nil:
		return nil, fmt.Errorf("missing geometry: %w", model.ErrInvalidInput)
	default:
		return nil, fmt.Errorf("unsupported geometry type %s: %w", g.GeoJSONType(), model.ErrInvalidInput)
	}
}

// FromGeoJSON accepts a bare geometry, a Feature or a FeatureCollection with
// exactly one feature.
func FromGeoJSON(data []byte) (orb.MultiPolygon, error) {
	if g, err := geojson.UnmarshalGeometry(data); err == nil && g.Coordinates != nil {
		return ToMultiPolygon(g.Geometry())
	}
	if f, err := geojson.UnmarshalFeature(data); err == nil && f.Geometry != nil {
		return ToMultiPolygon(f.Geometry)
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("decode geojson: %v: %w", err, model.ErrInvalidInput)
	}
	if len(fc.Features) != 1 {
		return nil, fmt.Errorf("expected one feature, got %d: %w", len(fc.Features), model.ErrInvalidInput)
	}
	return ToMultiPolygon(fc.Features[0].Geometry)
}

// FromGodal copies a GDAL geometry into orb through WKB.
func FromGodal(g *godal.Geometry) (orb.MultiPolygon, error) {
	if g == nil || g.Empty() {
		return nil, fmt.Errorf("empty geometry: %w", model.ErrInvalidInput)
	}
	raw, err := g.WKB()
	if err != nil {
		return nil, fmt.Errorf("export wkb: %v: %w", err, model.ErrDataIntegrity)
	}
	og, err := wkb.Unmarshal(raw)
	if err != nil {
		return nil, fmt.Errorf("decode wkb: %v: %w", err, model.ErrDataIntegrity)
	}
	return ToMultiPolygon(og)
}

func Bound(mp orb.MultiPolygon) model.BBox {
	return model.FromBound(mp.Bound())
}

// Centroid is the area weighted centroid of the outline.
func Centroid(mp orb.MultiPolygon) orb.Point {
	c, _ := planar.CentroidArea(mp)
	return c
}
