// Package classmap maps io-lulc class codes to display labels and colours.
package classmap

import (
	"fmt"
	"image/color"

	"github.com/forest-guardian/distwise-lulc/internal/model"
)

type Tables struct {
	Labels map[int]string
	Colors map[int]color.RGBA
}

// DefaultTables returns fresh copies of the io-lulc-annual-v02 tables.
// Codes 3 and 6 are unused by the product: they have a colour but no label.
func DefaultTables() Tables {
	return Tables{
		Labels: map[int]string{
			0:  "No Data",
			1:  "Water",
			2:  "Trees",
			4:  "Flooded vegetation",
			5:  "Crops",
			7:  "Built area",
			8:  "Bare ground",
			9:  "Snow/ice",
			10: "Clouds",
			11: "Rangeland",
		},
		Colors: map[int]color.RGBA{
			0:  {0, 0, 0, 0},
			1:  {65, 155, 223, 255},
			2:  {57, 125, 73, 255},
			3:  {0, 0, 0, 255},
			4:  {122, 135, 198, 255},
			5:  {228, 150, 53, 255},
			6:  {0, 0, 0, 255},
			7:  {196, 40, 27, 255},
			8:  {165, 155, 143, 255},
			9:  {168, 235, 255, 255},
			10: {97, 97, 97, 255},
			11: {227, 226, 195, 255},
		},
	}
}

// Mapper is read only after New and safe for concurrent use.
type Mapper struct {
	labels map[int]string
	colors map[int]color.RGBA
}

func New(t Tables) *Mapper {
	m := &Mapper{
		labels: make(map[int]string, len(t.Labels)),
		colors: make(map[int]color.RGBA, len(t.Colors)),
	}
	for k, v := range t.Labels {
		m.labels[k] = v
	}
	for k, v := range t.Colors {
		m.colors[k] = v
	}
	return m
}

// LabelAndColor looks up code. A missing label is reported through ok; a
// missing colour means the tables do not match the raster and is an error.
func (m *Mapper) LabelAndColor(code int) (label string, ok bool, hex string, err error) {
	c, found := m.colors[code]
	if !found {
		return "", false, "", fmt.Errorf("no colour for class code %d: %w", code, model.ErrDataIntegrity)
	}
	label, ok = m.labels[code]
	return label, ok, Hex(c), nil
}

// Color returns the raw colour of code, used by the renderers.
func (m *Mapper) Color(code int) (color.RGBA, bool) {
	c, ok := m.colors[code]
	return c, ok
}

// Hex formats the colour as #rrggbb, dropping alpha.
func Hex(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// ParseHex is the inverse of Hex. Alpha is always opaque.
func ParseHex(s string) (color.RGBA, error) {
	var c color.RGBA
	if len(s) != 7 || s[0] != '#' {
		return c, fmt.Errorf("colour %q is not #rrggbb: %w", s, model.ErrInvalidInput)
	}
	if _, err := fmt.Sscanf(s[1:], "%02x%02x%02x", &c.R, &c.G, &c.B); err != nil {
		return c, fmt.Errorf("colour %q: %v: %w", s, err, model.ErrInvalidInput)
	}
	c.A = 255
	return c, nil
}
