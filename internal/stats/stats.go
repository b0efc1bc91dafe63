// Package stats turns raw class fractions into the presentation table.
package stats

import (
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/gocarina/gocsv"

	"github.com/forest-guardian/distwise-lulc/internal/classmap"
	"github.com/forest-guardian/distwise-lulc/internal/model"
	"github.com/forest-guardian/distwise-lulc/internal/zonal"
)

// Row is one land cover class. Fraction is a percentage in [0, 100]. Label
// is nil for codes the label table does not know.
type Row struct {
	ClassCode int
	Label     *string
	Fraction  float64
	Color     string
}

// DisplayLabel is the label, or a placeholder naming the code.
func (r Row) DisplayLabel() string {
	if r.Label == nil {
		return "Class " + strconv.Itoa(r.ClassCode)
	}
	return *r.Label
}

type Table struct {
	State    string
	District string
	Year     int
	Rows     []Row
}

func (t Table) Empty() bool { return len(t.Rows) == 0 }

// Total is the sum of the percentage column.
func (t Table) Total() float64 {
	var total float64
	for _, r := range t.Rows {
		total += r.Fraction
	}
	return total
}

// Assemble converts fractions to percentages, attaches labels and colours
// and orders the rows by descending share, ties by ascending code.
func Assemble(fractions []zonal.ClassFraction, m *classmap.Mapper) (Table, error) {
	seen := make(map[int]struct{}, len(fractions))
	rows := make([]Row, 0, len(fractions))
	for _, f := range fractions {
		if _, dup := seen[f.Code]; dup {
			return Table{}, fmt.Errorf("class code %d reported twice: %w", f.Code, model.ErrDataIntegrity)
		}
		seen[f.Code] = struct{}{}

		label, ok, hex, err := m.LabelAndColor(f.Code)
		if err != nil {
			return Table{}, err
		}
		row := Row{ClassCode: f.Code, Fraction: f.Fraction * 100, Color: hex}
		if ok {
			row.Label = &label
		}
		rows = append(rows, row)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Fraction != rows[j].Fraction {
			return rows[i].Fraction > rows[j].Fraction
		}
		return rows[i].ClassCode < rows[j].ClassCode
	})
	return Table{Rows: rows}, nil
}

type csvRow struct {
	State    string  `csv:"state"`
	District string  `csv:"district"`
	Year     int     `csv:"year"`
	Code     int     `csv:"class_code"`
	Label    string  `csv:"class_label"`
	Fraction float64 `csv:"frac"`
	Color    string  `csv:"color"`
}

// WriteCSV writes the table with a header. Absent labels are empty cells.
func (t Table) WriteCSV(w io.Writer) error {
	out := make([]*csvRow, 0, len(t.Rows))
	for _, r := range t.Rows {
		row := &csvRow{
			State:    t.State,
			District: t.District,
			Year:     t.Year,
			Code:     r.ClassCode,
			Fraction: r.Fraction,
			Color:    r.Color,
		}
		if r.Label != nil {
			row.Label = *r.Label
		}
		out = append(out, row)
	}
	if err := gocsv.Marshal(&out, w); err != nil {
		return fmt.Errorf("failed to write stats csv: %w", err)
	}
	return nil
}
