// Package output renders a finished stats table into the artefacts shown to
// the user: chart, district map, district GeoJSON and CSV.
package output

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"golang.org/x/sync/errgroup"

	"github.com/forest-guardian/distwise-lulc/internal/model"
	"github.com/forest-guardian/distwise-lulc/internal/properties"
	"github.com/forest-guardian/distwise-lulc/internal/stats"
)

type Paths struct {
	Chart   string
	Map     string
	GeoJSON string
	CSV     string
}

// ResultDir is where artefacts go unless the caller picks a directory.
func ResultDir() string {
	return properties.DataPath("result")
}

// Slug replaces everything but letters and digits with underscores.
func Slug(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return '_'
	}, strings.TrimSpace(s))
}

// BaseName builds the "<state>_<district>_<year>" file stem.
func BaseName(state, district string, year int) string {
	return fmt.Sprintf("%s_%s_%d", Slug(state), Slug(district), year)
}

func pathsFor(dir string, t stats.Table) Paths {
	base := filepath.Join(dir, BaseName(t.State, t.District, t.Year))
	return Paths{
		Chart:   base + "_chart.png",
		Map:     base + "_map.png",
		GeoJSON: base + ".geojson",
		CSV:     base + ".csv",
	}
}

// WriteAll renders the four artefacts concurrently into dir. district must be
// in geographic coordinates. The first failure cancels the others.
func WriteAll(ctx context.Context, dir string, t stats.Table, district model.District) (Paths, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return Paths{}, fmt.Errorf("failed to create result directory: %w", err)
	}
	paths := pathsFor(dir, t)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return writeFile(ctx, paths.Chart, func(w io.Writer) error { return RenderStatsChart(w, t) })
	})
	g.Go(func() error {
		return writeFile(ctx, paths.Map, func(w io.Writer) error { return RenderDistrictMap(w, district) })
	})
	g.Go(func() error {
		return writeFile(ctx, paths.GeoJSON, func(w io.Writer) error { return WriteDistrictGeoJSON(w, district) })
	})
	g.Go(func() error {
		return writeFile(ctx, paths.CSV, t.WriteCSV)
	})
	if err := g.Wait(); err != nil {
		return Paths{}, err
	}
	return paths, nil
}

func writeFile(ctx context.Context, path string, render func(io.Writer) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := render(file); err != nil {
		file.Close()
		os.Remove(path)
		return err
	}
	return file.Close()
}
