// Package geometry reprojects district boundaries and converts between the
// vector encodings the pipeline meets.
package geometry

import (
	"fmt"

	"github.com/airbusgeo/godal"
	"github.com/paulmach/orb"

	"github.com/forest-guardian/distwise-lulc/internal/model"
)

// Reprojector transforms district geometries between CRSs with GDAL/PROJ.
// It holds no state and is safe for concurrent use.
type Reprojector struct{}

func NewReprojector() *Reprojector {
	return &Reprojector{}
}

// Reproject returns a copy of d expressed in target. The input is never
// modified. Reprojecting onto the district's own CRS returns a plain clone.
func (r *Reprojector) Reproject(d model.District, target model.CRS) (model.District, error) {
	if !d.CRS.Defined() {
		return model.District{}, fmt.Errorf("district %s has no crs: %w", d.Name, model.ErrCRS)
	}
	if !target.Defined() {
		return model.District{}, fmt.Errorf("target crs is undefined: %w", model.ErrCRS)
	}

	out := d
	out.Geometry = Clone(d.Geometry)
	if d.CRS == target {
		return out, nil
	}

	src, err := godal.NewSpatialRef(string(d.CRS))
	if err != nil {
		return model.District{}, fmt.Errorf("parse source crs: %v: %w", err, model.ErrCRS)
	}
	defer src.Close()
	dst, err := godal.NewSpatialRef(string(target))
	if err != nil {
		return model.District{}, fmt.Errorf("parse target crs: %v: %w", err, model.ErrCRS)
	}
	defer dst.Close()

	out.CRS = target
	if src.IsSame(dst) {
		return out, nil
	}

	trn, err := godal.NewTransform(src, dst)
	if err != nil {
		return model.District{}, fmt.Errorf("create transform: %v: %w", err, model.ErrCRS)
	}
	defer trn.Close()

	if err := transformInPlace(trn, out.Geometry); err != nil {
		return model.District{}, fmt.Errorf("reproject %s: %w", d.Name, err)
	}
	return out, nil
}

func transformInPlace(trn *godal.Transform, mp orb.MultiPolygon) error {
	n := 0
	for _, poly := range mp {
		for _, ring := range poly {
			n += len(ring)
		}
	}
	if n == 0 {
		return nil
	}

	xs := make([]float64, 0, n)
	ys := make([]float64, 0, n)
	for _, poly := range mp {
		for _, ring := range poly {
			for _, p := range ring {
				xs = append(xs, p[0])
				ys = append(ys, p[1])
			}
		}
	}

	ok := make([]bool, n)
	if err := trn.TransformEx(xs, ys, nil, ok); err != nil {
		return fmt.Errorf("transform %d points: %v: %w", n, err, model.ErrCRS)
	}
	for i, good := range ok {
		if !good {
			return fmt.Errorf("point %d (%g, %g) could not be transformed: %w", i, xs[i], ys[i], model.ErrCRS)
		}
	}

	i := 0
	for _, poly := range mp {
		for _, ring := range poly {
			for j := range ring {
				ring[j] = orb.Point{xs[i], ys[i]}
				i++
			}
		}
	}
	return nil
}

// Clone deep copies every ring so the result shares no backing array.
func Clone(mp orb.MultiPolygon) orb.MultiPolygon {
	if mp == nil {
		return nil
	}
	out := make(orb.MultiPolygon, len(mp))
	for i, poly := range mp {
		out[i] = make(orb.Polygon, len(poly))
		for j, ring := range poly {
			out[i][j] = append(orb.Ring(nil), ring...)
		}
	}
	return out
}
