package model

import (
	"errors"
	"math"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseYear(t *testing.T) {
	y, err := ParseYear("2020")
	require.NoError(t, err)
	assert.Equal(t, 2020, y)

	for _, in := range []string{"", "20", "20200", "20a0", "-202", " 2020"} {
		_, err := ParseYear(in)
		assert.Truef(t, errors.Is(err, ErrInvalidInput), "input %q: %v", in, err)
	}
}

func TestBBoxValid(t *testing.T) {
	assert.True(t, BBox{77.0, 12.8, 77.5, 13.3}.Valid())
	assert.False(t, BBox{77.0, 12.8, 77.0, 13.3}.Valid(), "zero width")
	assert.False(t, BBox{77.5, 12.8, 77.0, 13.3}.Valid(), "inverted")
	assert.False(t, BBox{math.NaN(), 12.8, 77.5, 13.3}.Valid())
	assert.False(t, BBox{77.0, 12.8, math.Inf(1), 13.3}.Valid())
}

func TestBBoxIntersects(t *testing.T) {
	a := BBox{0, 0, 10, 10}
	assert.True(t, a.Intersects(BBox{5, 5, 15, 15}))
	assert.False(t, a.Intersects(BBox{10, 0, 20, 10}), "touching edges have no shared area")
	assert.False(t, a.Intersects(BBox{-5, 11, 5, 12}))
}

func TestDistrictBound(t *testing.T) {
	d := District{Geometry: orb.MultiPolygon{{{{1, 2}, {3, 2}, {3, 5}, {1, 5}, {1, 2}}}}}
	assert.Equal(t, BBox{1, 2, 3, 5}, d.Bound())
	assert.Equal(t, []float64{1, 2, 3, 5}, d.Bound().Slice())
}
