package model

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/paulmach/orb"
)

// CRS is any coordinate reference system definition GDAL accepts as user
// input: "EPSG:4326", a WKT string or a PROJ string. Empty means undefined.
type CRS string

const WGS84 CRS = "EPSG:4326"

func (c CRS) Defined() bool { return c != "" }

// BBox is an axis aligned box in the CRS of whatever it was derived from.
type BBox struct {
	MinX, MinY, MaxX, MaxY float64
}

func FromBound(b orb.Bound) BBox {
	return BBox{MinX: b.Min.X(), MinY: b.Min.Y(), MaxX: b.Max.X(), MaxY: b.Max.Y()}
}

func (b BBox) Bound() orb.Bound {
	return orb.Bound{Min: orb.Point{b.MinX, b.MinY}, Max: orb.Point{b.MaxX, b.MaxY}}
}

// Valid reports whether the box has finite coordinates and a positive area.
func (b BBox) Valid() bool {
	for _, v := range []float64{b.MinX, b.MinY, b.MaxX, b.MaxY} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return b.MinX < b.MaxX && b.MinY < b.MaxY
}

// Intersects is true when the boxes overlap with a positive area.
func (b BBox) Intersects(o BBox) bool {
	return b.MinX < o.MaxX && o.MinX < b.MaxX && b.MinY < o.MaxY && o.MinY < b.MaxY
}

func (b BBox) Slice() []float64 {
	return []float64{b.MinX, b.MinY, b.MaxX, b.MaxY}
}

func (b BBox) String() string {
	return fmt.Sprintf("[%g, %g, %g, %g]", b.MinX, b.MinY, b.MaxX, b.MaxY)
}

// District is one administrative boundary as loaded from the boundary
// dataset. It is treated as immutable: reprojection returns a copy.
type District struct {
	State    string
	Name     string
	Geometry orb.MultiPolygon
	CRS      CRS
}

func (d District) Bound() BBox {
	return FromBound(d.Geometry.Bound())
}

// AssetDescriptor identifies one raster item in the catalog.
type AssetDescriptor struct {
	ItemID     string
	Collection string
	Href       string
	MediaType  string
	Start      time.Time
	End        time.Time
	BBox       BBox
	Signed     bool
}

// ParseYear accepts exactly four ASCII digits.
func ParseYear(s string) (int, error) {
	if len(s) != 4 {
		return 0, fmt.Errorf("year %q must have 4 digits: %w", s, ErrInvalidInput)
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("year %q must be numeric: %w", s, ErrInvalidInput)
		}
	}
	y, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("parse year %q: %w", s, ErrInvalidInput)
	}
	return y, nil
}
