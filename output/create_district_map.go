package output

import (
	"fmt"
	"image/png"
	"io"
	"math"

	"github.com/fogleman/gg"
	"github.com/paulmach/orb"

	"github.com/forest-guardian/distwise-lulc/internal/geometry"
	"github.com/forest-guardian/distwise-lulc/internal/model"
)

const (
	mapSize    = 800
	mapPadding = 40.0
)

// mapProjection maps lon/lat onto the canvas with the district centroid in
// the middle. Longitudes are shrunk by cos(lat) so the outline keeps its
// shape.
type mapProjection struct {
	center orb.Point
	kx     float64
	scale  float64
}

func newMapProjection(mp orb.MultiPolygon) mapProjection {
	c := geometry.Centroid(mp)
	p := mapProjection{center: c, kx: math.Cos(c[1] * math.Pi / 180)}

	var reach float64
	for _, poly := range mp {
		for _, ring := range poly {
			for _, pt := range ring {
				reach = math.Max(reach, math.Abs(pt[0]-c[0])*p.kx)
				reach = math.Max(reach, math.Abs(pt[1]-c[1]))
			}
		}
	}
	p.scale = 1
	if reach > 0 {
		p.scale = (mapSize/2 - mapPadding) / reach
	}
	return p
}

func (p mapProjection) xy(pt orb.Point) (float64, float64) {
	return mapSize/2 + (pt[0]-p.center[0])*p.kx*p.scale,
		mapSize/2 - (pt[1]-p.center[1])*p.scale
}

// RenderDistrictMap draws the outline filled blue at half opacity, centred on
// its centroid. The district must be in geographic coordinates.
func RenderDistrictMap(w io.Writer, d model.District) error {
	if d.CRS != model.WGS84 {
		return fmt.Errorf("district map needs %s coordinates, got %.32s: %w", model.WGS84, d.CRS, model.ErrCRS)
	}
	if len(d.Geometry) == 0 {
		return fmt.Errorf("district %s has no geometry: %w", d.Name, model.ErrInvalidInput)
	}

	dc := gg.NewContext(mapSize, mapSize)
	dc.SetRGB(0.96, 0.96, 0.94)
	dc.Clear()

	proj := newMapProjection(d.Geometry)
	dc.SetFillRuleEvenOdd()
	for _, poly := range d.Geometry {
		for _, ring := range poly {
			for i, pt := range ring {
				x, y := proj.xy(pt)
				if i == 0 {
					dc.MoveTo(x, y)
				} else {
					dc.LineTo(x, y)
				}
			}
			dc.ClosePath()
		}
	}
	dc.SetRGBA(0, 0, 1, 0.5)
	dc.FillPreserve()
	dc.SetRGB(0, 0, 0.55)
	dc.SetLineWidth(1.5)
	dc.Stroke()

	dc.SetRGB(0, 0, 0)
	dc.DrawStringAnchored(fmt.Sprintf("%s, %s", d.Name, d.State), mapSize/2, mapPadding/2, 0.5, 0.5)
	c := proj.center
	dc.DrawStringAnchored(fmt.Sprintf("centroid %.4f, %.4f", c[1], c[0]), mapSize/2, mapSize-mapPadding/2, 0.5, 0.5)

	if err := png.Encode(w, dc.Image()); err != nil {
		return fmt.Errorf("failed to encode district map: %w", err)
	}
	return nil
}
