package output

import (
	"fmt"
	"image/png"
	"io"
	"math"

	"github.com/fogleman/gg"

	"github.com/forest-guardian/distwise-lulc/internal/classmap"
	"github.com/forest-guardian/distwise-lulc/internal/stats"
)

const (
	chartWidth  = 1400
	chartHeight = 800

	marginLeft   = 100.0
	marginRight  = 40.0
	marginTop    = 70.0
	marginBottom = 190.0
)

type rect struct {
	X, Y, W, H float64
}

// chartScale is the percentage at the top of the y axis.
func chartScale(t stats.Table) float64 {
	top := 0.0
	for _, r := range t.Rows {
		top = math.Max(top, r.Fraction)
	}
	if top <= 0 {
		return 100
	}
	// leave room for the annotation above the tallest bar
	return math.Min(100, math.Ceil(top*1.1/10)*10)
}

func plotArea() rect {
	return rect{
		X: marginLeft,
		Y: marginTop,
		W: chartWidth - marginLeft - marginRight,
		H: chartHeight - marginTop - marginBottom,
	}
}

// barRect is the bar of row i out of n, scaled so that scale percent fills
// the plot height.
func barRect(i, n int, fraction, scale float64) rect {
	area := plotArea()
	slot := area.W / float64(n)
	w := slot * 0.8
	h := area.H * fraction / scale
	return rect{
		X: area.X + slot*float64(i) + (slot-w)/2,
		Y: area.Y + area.H - h,
		W: w,
		H: h,
	}
}

func chartTitle(t stats.Table) string {
	return fmt.Sprintf("%s - %d LULC Class-wise %% Distribution", t.District, t.Year)
}

// RenderStatsChart draws one bar per row in the class colour, annotated with
// its percentage.
func RenderStatsChart(w io.Writer, t stats.Table) error {
	dc := gg.NewContext(chartWidth, chartHeight)
	dc.SetRGB(1, 1, 1)
	dc.Clear()

	area := plotArea()
	scale := chartScale(t)

	dc.SetRGB(0, 0, 0)
	dc.DrawStringAnchored(chartTitle(t), chartWidth/2, marginTop/2, 0.5, 0.5)

	// y grid and tick labels
	dc.SetLineWidth(1)
	for i := 0; i <= 5; i++ {
		v := scale * float64(i) / 5
		y := area.Y + area.H - area.H*float64(i)/5
		dc.SetRGB(0.88, 0.88, 0.88)
		dc.DrawLine(area.X, y, area.X+area.W, y)
		dc.Stroke()
		dc.SetRGB(0, 0, 0)
		dc.DrawStringAnchored(fmt.Sprintf("%.0f", v), area.X-8, y, 1, 0.5)
	}

	if t.Empty() {
		dc.DrawStringAnchored("No land cover data for this district", area.X+area.W/2, area.Y+area.H/2, 0.5, 0.5)
	}

	for i, row := range t.Rows {
		b := barRect(i, len(t.Rows), row.Fraction, scale)
		fill, err := classmap.ParseHex(row.Color)
		if err != nil {
			return err
		}
		dc.DrawRectangle(b.X, b.Y, b.W, b.H)
		dc.SetColor(fill)
		dc.FillPreserve()
		dc.SetRGB(0, 0, 0)
		dc.SetLineWidth(1)
		dc.Stroke()

		cx := b.X + b.W/2
		dc.DrawStringAnchored(fmt.Sprintf("%.2f%%", row.Fraction), cx, b.Y-4, 0.5, 1)

		// x tick label, rotated like the original matplotlib chart
		ly := area.Y + area.H + 12
		dc.Push()
		dc.RotateAbout(gg.Radians(-30), cx, ly)
		dc.DrawStringAnchored(row.DisplayLabel(), cx, ly, 1, 0.5)
		dc.Pop()
	}

	// axes
	dc.SetRGB(0, 0, 0)
	dc.SetLineWidth(1.5)
	dc.DrawLine(area.X, area.Y, area.X, area.Y+area.H)
	dc.DrawLine(area.X, area.Y+area.H, area.X+area.W, area.Y+area.H)
	dc.Stroke()

	dc.DrawStringAnchored("Land Cover Class", area.X+area.W/2, chartHeight-24, 0.5, 0.5)
	dc.Push()
	dc.RotateAbout(gg.Radians(-90), 30, area.Y+area.H/2)
	dc.DrawStringAnchored("Percentage (%)", 30, area.Y+area.H/2, 0.5, 0.5)
	dc.Pop()

	if err := png.Encode(w, dc.Image()); err != nil {
		return fmt.Errorf("failed to encode chart: %w", err)
	}
	return nil
}
