// Package boundary reads district outlines from an OGR vector dataset
// (the 2011 census district shapefile by default).
package boundary

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/airbusgeo/godal"
	"github.com/rs/zerolog"

	"github.com/forest-guardian/distwise-lulc/internal/cache"
	"github.com/forest-guardian/distwise-lulc/internal/geometry"
	"github.com/forest-guardian/distwise-lulc/internal/logger"
	"github.com/forest-guardian/distwise-lulc/internal/model"
)

const (
	StateField    = "ST_NM"
	DistrictField = "DISTRICT"
)

type State struct {
	Name      string   `json:"name"`
	Districts []string `json:"districts"`
}

// Index lists every state with its districts, both sorted.
type Index struct {
	States []State `json:"states"`
}

func (ix Index) StateNames() []string {
	out := make([]string, 0, len(ix.States))
	for _, s := range ix.States {
		out = append(out, s.Name)
	}
	return out
}

func (ix Index) Districts(state string) ([]string, bool) {
	for _, s := range ix.States {
		if s.Name == state {
			return s.Districts, true
		}
	}
	return nil, false
}

type Loader struct {
	path  string
	cache *cache.FileCache[Index]
	log   *zerolog.Logger
}

// NewLoader reads boundaries from path. c may be nil to disable caching of
// the state/district index.
func NewLoader(path string, c *cache.FileCache[Index], log *zerolog.Logger) *Loader {
	if log == nil {
		log = logger.Nop()
	}
	return &Loader{path: path, cache: c, log: log}
}

func (l *Loader) Path() string { return l.path }

// Find returns the district whose state and district names match exactly.
// Several matching features are merged into one multipolygon.
func (l *Loader) Find(state, district string) (model.District, error) {
	set, err := l.collect(func(st, dist string) bool { return st == state && dist == district })
	if err != nil {
		return model.District{}, err
	}
	return set.Find(state, district)
}

// LoadState reads every district of state in a single pass over the
// dataset, for callers that look up many districts of one state.
func (l *Loader) LoadState(state string) (Set, error) {
	set, err := l.collect(func(st, _ string) bool { return st == state })
	if err != nil {
		return nil, err
	}
	if len(set) == 0 {
		return nil, fmt.Errorf("state %q: %w", state, model.ErrNotFound)
	}
	return set, nil
}

func (l *Loader) collect(match func(state, district string) bool) (Set, error) {
	set := Set{}
	err := l.each(func(st, dist string, crs model.CRS, geom *godal.Geometry) error {
		if !match(st, dist) {
			return nil
		}
		mp, err := geometry.FromGodal(geom)
		if err != nil {
			return fmt.Errorf("district %s/%s: %w", st, dist, err)
		}
		k := setKey{st, dist}
		d, ok := set[k]
		if !ok {
			d = model.District{State: st, Name: dist}
		}
		d.Geometry = append(d.Geometry, mp...)
		d.CRS = crs
		set[k] = d
		return nil
	})
	if err != nil {
		return nil, err
	}
	return set, nil
}

type setKey struct{ state, district string }

// Set holds district outlines in memory, keyed by state and district name.
type Set map[setKey]model.District

func NewSet(districts ...model.District) Set {
	set := make(Set, len(districts))
	for _, d := range districts {
		set[setKey{d.State, d.Name}] = d
	}
	return set
}

func (s Set) Find(state, district string) (model.District, error) {
	d, ok := s[setKey{state, district}]
	if !ok || len(d.Geometry) == 0 {
		return model.District{}, fmt.Errorf("district %q in state %q: %w", district, state, model.ErrNotFound)
	}
	return d, nil
}

// Index lists the states and districts of the dataset. The result is cached
// against the dataset's path, size and modification time.
func (l *Loader) Index() (Index, error) {
	key := ""
	if l.cache != nil {
		if k, err := l.cacheKey(); err == nil {
			key = k
			if ix, ok := l.cache.Get(key); ok {
				return ix, nil
			}
		}
	}

	states := map[string]map[string]struct{}{}
	err := l.each(func(st, dist string, _ model.CRS, _ *godal.Geometry) error {
		if st == "" || dist == "" {
			return nil
		}
		if states[st] == nil {
			states[st] = map[string]struct{}{}
		}
		states[st][dist] = struct{}{}
		return nil
	})
	if err != nil {
		return Index{}, err
	}

	ix := Index{States: make([]State, 0, len(states))}
	for name, set := range states {
		s := State{Name: name, Districts: make([]string, 0, len(set))}
		for d := range set {
			s.Districts = append(s.Districts, d)
		}
		sort.Strings(s.Districts)
		ix.States = append(ix.States, s)
	}
	sort.Slice(ix.States, func(i, j int) bool { return ix.States[i].Name < ix.States[j].Name })

	if key != "" {
		if err := l.cache.Set(key, ix); err != nil {
			l.log.Warn().Err(err).Msg("failed to cache boundary index")
		}
	}
	return ix, nil
}

func (l *Loader) cacheKey() (string, error) {
	params := []interface{}{l.path}
	// attributes live in the .dbf next to a shapefile
	paths := []string{l.path}
	if strings.EqualFold(filepath.Ext(l.path), ".shp") {
		paths = append(paths, strings.TrimSuffix(l.path, filepath.Ext(l.path))+".dbf")
	}
	for _, p := range paths {
		fi, err := os.Stat(p)
		if err != nil {
			return "", err
		}
		params = append(params, fi.Size(), fi.ModTime().UnixNano())
	}
	return l.cache.GenerateKey(params...), nil
}

// each calls fn for every feature of the first layer. The geometry is only
// valid during the call.
func (l *Loader) each(fn func(state, district string, crs model.CRS, geom *godal.Geometry) error) error {
	ds, err := godal.Open(l.path, godal.VectorOnly(), godal.ErrLogger(func(ec godal.ErrorCategory, code int, msg string) error {
		if ec == godal.CE_Warning {
			return nil
		}
		return fmt.Errorf("gdal error %d: %s", code, msg)
	}))
	if err != nil {
		return fmt.Errorf("open boundaries %s: %w", l.path, err)
	}
	defer ds.Close()

	layers := ds.Layers()
	if len(layers) == 0 {
		return fmt.Errorf("boundaries %s have no layer: %w", l.path, model.ErrDataIntegrity)
	}
	layer := layers[0]
	crs := layerCRS(layer)
	if crs == "" {
		l.log.Warn().Str("path", l.path).Msg("boundary layer has no spatial reference")
	}

	layer.ResetReading()
	for {
		feat := layer.NextFeature()
		if feat == nil {
			return nil
		}
		fields := feat.Fields()
		st, dist := fieldString(fields, StateField), fieldString(fields, DistrictField)
		geom := feat.Geometry()
		err := fn(st, dist, crs, geom)
		geom.Close()
		feat.Close()
		if err != nil {
			return err
		}
	}
}

func layerCRS(layer godal.Layer) model.CRS {
	sr := layer.SpatialRef()
	if sr == nil {
		return ""
	}
	wkt, err := sr.WKT()
	if err != nil {
		return ""
	}
	return model.CRS(strings.TrimSpace(wkt))
}

func fieldString(fields map[string]godal.Field, name string) string {
	f, ok := fields[name]
	if !ok {
		return ""
	}
	return f.String()
}
