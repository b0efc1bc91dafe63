package catalog

import (
	"time"
)

// SearchRequest is the body of a STAC API item search.
type SearchRequest struct {
	Collections []string  `json:"collections"`
	BBox        []float64 `json:"bbox"`
	Datetime    string    `json:"datetime"`
	Limit       int       `json:"limit"`
}

// ItemCollection represents the GeoJSON FeatureCollection returned by /search
type ItemCollection struct {
	Type     string `json:"type"`
	Features []Item `json:"features"`
}

// Item represents a single STAC item
type Item struct {
	ID         string           `json:"id"`
	Collection string           `json:"collection"`
	BBox       []float64        `json:"bbox"`
	Properties ItemProperties   `json:"properties"`
	Assets     map[string]Asset `json:"assets"`
}

type ItemProperties struct {
	Datetime      *string `json:"datetime"`
	StartDatetime *string `json:"start_datetime"`
	EndDatetime   *string `json:"end_datetime"`
}

type Asset struct {
	Href  string `json:"href"`
	Type  string `json:"type"`
	Title string `json:"title,omitempty"`
}

// yearRange is the closed datetime interval covering one calendar year.
func yearRange(year int) string {
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(year, time.December, 31, 23, 59, 59, 0, time.UTC)
	return start.Format(time.RFC3339) + "/" + end.Format(time.RFC3339)
}

// temporalExtent prefers start/end datetimes and falls back to the nominal
// datetime for both ends.
func (p ItemProperties) temporalExtent() (time.Time, time.Time) {
	parse := func(s *string) time.Time {
		if s == nil {
			return time.Time{}
		}
		t, err := time.Parse(time.RFC3339, *s)
		if err != nil {
			return time.Time{}
		}
		return t
	}
	start, end := parse(p.StartDatetime), parse(p.EndDatetime)
	if start.IsZero() {
		start = parse(p.Datetime)
	}
	if end.IsZero() {
		end = parse(p.Datetime)
	}
	return start, end
}
