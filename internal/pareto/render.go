package pareto

import (
	"fmt"
	"io"
	"strconv"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"lossdash/internal/palette"
)

const (
	chartWidth  = 12 * vg.Inch
	chartHeight = 7 * vg.Inch
	barWidth    = 40 // points
)

// RenderSVG draws the ranked bars as an SVG chart. Each bar takes its
// category color; values are printed above the bars.
func RenderSVG(w io.Writer, entries []Entry, title string, m Metric, colors *palette.Resolver) error {
	p := plot.New()
	p.Title.Text = title
	p.Title.TextStyle.Font.Size = vg.Points(18)
	p.X.Label.Text = "Title"
	p.Y.Label.Text = m.AxisLabel()
	p.X.Tick.Label.Rotation = -0.6
	p.X.Tick.Label.XAlign = -1
	p.Y.Min = 0

	names := make([]string, len(entries))
	labelPts := make(plotter.XYs, len(entries))
	labelTexts := make([]string, len(entries))

	// One BarChart per entry so every bar can carry its own category
	// color; the other positions stay at zero height.
	for i, e := range entries {
		names[i] = e.Title
		labelPts[i] = plotter.XY{X: float64(i), Y: e.Value}
		labelTexts[i] = strconv.FormatFloat(e.Value, 'f', -1, 64)

		vals := make(plotter.Values, len(entries))
		vals[i] = e.Value

		bars, err := plotter.NewBarChart(vals, vg.Points(barWidth))
		if err != nil {
			return fmt.Errorf("bar chart: %w", err)
		}
		bars.Color = palette.ParseHex(colors.Color(e.Category))
		bars.LineStyle.Width = 0
		p.Add(bars)
	}

	if len(entries) > 0 {
		labels, err := plotter.NewLabels(plotter.XYLabels{XYs: labelPts, Labels: labelTexts})
		if err != nil {
			return fmt.Errorf("bar labels: %w", err)
		}
		for i := range labels.TextStyle {
			labels.TextStyle[i].Font.Size = vg.Points(12)
			labels.TextStyle[i].XAlign = -0.5
		}
		labels.Offset = vg.Point{Y: vg.Points(4)}
		p.Add(labels)
	}

	p.NominalX(names...)

	wt, err := p.WriterTo(chartWidth, chartHeight, "svg")
	if err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("write chart: %w", err)
	}
	return nil
}
