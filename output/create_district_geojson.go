package output

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/paulmach/orb/geojson"

	"github.com/forest-guardian/distwise-lulc/internal/boundary"
	"github.com/forest-guardian/distwise-lulc/internal/geometry"
	"github.com/forest-guardian/distwise-lulc/internal/model"
)

// WriteDistrictGeoJSON writes the district as a one feature collection with
// its names and centroid as properties.
func WriteDistrictGeoJSON(w io.Writer, d model.District) error {
	if d.CRS != model.WGS84 {
		return fmt.Errorf("geojson needs %s coordinates: %w", model.WGS84, model.ErrCRS)
	}
	c := geometry.Centroid(d.Geometry)

	f := geojson.NewFeature(d.Geometry)
	f.Properties[boundary.StateField] = d.State
	f.Properties[boundary.DistrictField] = d.Name
	f.Properties["centroid_lon"] = c[0]
	f.Properties["centroid_lat"] = c[1]

	fc := geojson.NewFeatureCollection()
	fc.Append(f)

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(fc); err != nil {
		return fmt.Errorf("failed to encode district geojson: %w", err)
	}
	return nil
}
