package zonal

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forest-guardian/distwise-lulc/internal/model"
	"github.com/forest-guardian/distwise-lulc/internal/raster"
)

// unitGrid has 1x1 pixels; pixel (c, r) covers x in [c, c+1] and
// y in [h-r-1, h-r].
func unitGrid(w, h int, data ...int32) *raster.Grid {
	return &raster.Grid{
		Width:      w,
		Height:     h,
		Data:       data,
		Transform:  raster.GeoTransform{0, 1, 0, float64(h), 0, -1},
		SpatialRef: "EPSG:32643",
	}
}

func square(x0, y0, x1, y1 float64) orb.Polygon {
	return orb.Polygon{{{x0, y0}, {x1, y0}, {x1, y1}, {x0, y1}, {x0, y0}}}
}

func sum(fs []ClassFraction) float64 {
	var s float64
	for _, f := range fs {
		s += f.Fraction
	}
	return s
}

func TestExtractFullCoverage(t *testing.T) {
	g := unitGrid(4, 4,
		1, 1, 2, 2,
		1, 1, 2, 2,
		5, 5, 5, 5,
		5, 5, 5, 5,
	)
	got, err := NewEngine().Extract(g, orb.MultiPolygon{square(-1, -1, 10, 10)})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, 1, got[0].Code)
	assert.InDelta(t, 0.25, got[0].Fraction, 1e-12)
	assert.Equal(t, 2, got[1].Code)
	assert.InDelta(t, 0.25, got[1].Fraction, 1e-12)
	assert.Equal(t, 5, got[2].Code)
	assert.InDelta(t, 0.5, got[2].Fraction, 1e-12)
}

func TestExtractPartialPixel(t *testing.T) {
	g := unitGrid(2, 1, 1, 2)
	// whole of the left pixel, half of the right one
	got, err := NewEngine().Extract(g, orb.MultiPolygon{square(0, 0, 1.5, 1)})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.InDelta(t, 2.0/3, got[0].Fraction, 1e-9)
	assert.InDelta(t, 1.0/3, got[1].Fraction, 1e-9)
}

func TestExtractTriangle(t *testing.T) {
	g := unitGrid(2, 2,
		7, 8,
		9, 10,
	)
	// lower left half of the grid: pixel 9 fully, 7 and 10 half, 8 not at all
	tri := orb.Polygon{{{0, 0}, {2, 0}, {0, 2}, {0, 0}}}
	got, err := NewEngine().Extract(g, orb.MultiPolygon{tri})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []int{7, 9, 10}, []int{got[0].Code, got[1].Code, got[2].Code})
	assert.InDelta(t, 0.25, got[0].Fraction, 1e-9)
	assert.InDelta(t, 0.5, got[1].Fraction, 1e-9)
	assert.InDelta(t, 0.25, got[2].Fraction, 1e-9)
}

func TestExtractDisjoint(t *testing.T) {
	g := unitGrid(2, 2, 1, 1, 1, 1)
	got, err := NewEngine().Extract(g, orb.MultiPolygon{square(10, 10, 12, 12)})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestExtractExcludesNoData(t *testing.T) {
	g := unitGrid(2, 2,
		0, 4,
		4, 0,
	)
	g.HasNoData, g.NoDataValue = true, 0
	got, err := NewEngine().Extract(g, orb.MultiPolygon{square(0, 0, 2, 2)})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, ClassFraction{Code: 4, Fraction: 1}, got[0])
}

func TestExtractAllNoData(t *testing.T) {
	g := unitGrid(1, 1, 0)
	g.HasNoData = true
	got, err := NewEngine().Extract(g, orb.MultiPolygon{square(0, 0, 1, 1)})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestExtractHole(t *testing.T) {
	g := unitGrid(3, 3,
		1, 1, 1,
		1, 9, 1,
		1, 1, 1,
	)
	poly := square(0, 0, 3, 3)
	poly = append(poly, orb.Ring{{1, 1}, {1, 2}, {2, 2}, {2, 1}, {1, 1}})
	got, err := NewEngine().Extract(g, orb.MultiPolygon{poly})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 1, got[0].Code)
	assert.InDelta(t, 1, got[0].Fraction, 1e-12)
}

func TestExtractMultiPolygon(t *testing.T) {
	g := unitGrid(4, 1, 1, 2, 3, 4)
	mp := orb.MultiPolygon{square(0, 0, 1, 1), square(3, 0, 4, 1)}
	got, err := NewEngine().Extract(g, mp)
	require.NoError(t, err)
	assert.Equal(t, []ClassFraction{{Code: 1, Fraction: 0.5}, {Code: 4, Fraction: 0.5}}, got)
}

// sampled estimates the class fractions under geom by testing n*n points
// per pixel for containment.
func sampled(g *raster.Grid, geom orb.MultiPolygon, n int) map[int]float64 {
	counts := map[int]float64{}
	var total float64
	for r := 0; r < g.Height; r++ {
		for c := 0; c < g.Width; c++ {
			v := g.At(c, r)
			if g.IsNoData(v) {
				continue
			}
			cell := g.Transform.CellBound(c, r)
			for i := 0; i < n; i++ {
				for j := 0; j < n; j++ {
					p := orb.Point{
						cell.Min.X() + (float64(i)+0.5)/float64(n)*(cell.Max.X()-cell.Min.X()),
						cell.Min.Y() + (float64(j)+0.5)/float64(n)*(cell.Max.Y()-cell.Min.Y()),
					}
					if planar.MultiPolygonContains(geom, p) {
						counts[int(v)]++
						total++
					}
				}
			}
		}
	}
	for code := range counts {
		counts[code] /= total
	}
	return counts
}

func star(cx, cy, outer, inner float64, points int) orb.Polygon {
	ring := make(orb.Ring, 0, 2*points+1)
	for k := 0; k < 2*points; k++ {
		rad := outer
		if k%2 == 1 {
			rad = inner
		}
		a := math.Pi/2 + float64(k)*math.Pi/float64(points)
		ring = append(ring, orb.Point{cx + rad*math.Cos(a), cy + rad*math.Sin(a)})
	}
	ring = append(ring, ring[0])
	return orb.Polygon{ring}
}

func TestExtractMatchesSampling(t *testing.T) {
	const w, h = 20, 15
	interleaved := make([]int32, w*h)
	modThree := make([]int32, w*h)
	for i := range interleaved {
		c, r := i%w, i/w
		interleaved[i] = int32((7*c+3*r)%5 + 1)
		modThree[i] = int32(i % 3)
	}

	holed := square(2.5, 2.5, 17.5, 12.5)
	holed = append(holed, orb.Ring{{6.3, 5.2}, {6.3, 9.8}, {13.7, 9.8}, {13.7, 5.2}, {6.3, 5.2}})

	cases := []struct {
		name string
		data []int32
		geom orb.MultiPolygon
	}{
		{"square", modThree, orb.MultiPolygon{square(2.5, 2.5, 17.5, 12.5)}},
		{"concave star", interleaved, orb.MultiPolygon{star(10, 7.5, 7, 3, 7)}},
		{"hole", interleaved, orb.MultiPolygon{holed}},
		{"multipolygon", interleaved, orb.MultiPolygon{
			{{{1.2, 1.1}, {8.7, 1.9}, {4.1, 9.6}, {1.2, 1.1}}},
			square(11.4, 3.3, 18.6, 13.2),
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			g := unitGrid(w, h, tc.data...)
			before := tc.geom.Clone()

			got, err := NewEngine().Extract(g, tc.geom)
			require.NoError(t, err)
			assert.Equal(t, before, tc.geom, "input geometry must not change")
			assert.InDelta(t, 1, sum(got), 1e-9)

			want := sampled(g, before, 40)
			gotByCode := map[int]float64{}
			for i, f := range got {
				gotByCode[f.Code] = f.Fraction
				if i > 0 {
					assert.Less(t, got[i-1].Code, f.Code)
				}
			}
			assert.Len(t, gotByCode, len(want))
			for code, frac := range want {
				assert.InDelta(t, frac, gotByCode[code], 5e-3, "class %d", code)
			}
		})
	}
}

func TestExtractRejectsBrokenGrid(t *testing.T) {
	g := unitGrid(2, 2, 1, 2, 3)
	_, err := NewEngine().Extract(g, orb.MultiPolygon{square(0, 0, 1, 1)})
	assert.ErrorIs(t, err, model.ErrInvalidInput)

	_, err = NewEngine().Extract(nil, nil)
	assert.ErrorIs(t, err, model.ErrInvalidInput)
}
