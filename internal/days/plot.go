package days

import (
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/wristworn/actimetry/internal/pipeline"
)

// RenderPNG saves a static day-over-day chart to path, same layout as
// RenderHTML: hours 0-24 on x, one vertically offset set of curves per day.
func RenderPNG(daySlices [][]pipeline.MetricRow, measures []string, path string) error {
	cs, err := curvesFor(daySlices, measures)
	if err != nil {
		return err
	}

	p := plot.New()
	p.Title.Text = "Daily activity"
	p.X.Label.Text = "hour of day"
	p.Y.Label.Text = "day"
	p.X.Min, p.X.Max = 0, 24

	for _, c := range cs {
		pts := make(plotter.XYs, len(c.xs))
		for i := range c.xs {
			pts[i] = plotter.XY{X: c.xs[i], Y: c.ys[i]}
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return fmt.Errorf("building line for %s: %w", c.name, err)
		}
		line.Width = vg.Points(1)
		p.Add(line)
	}

	if err := p.Save(10*vg.Inch, 5*vg.Inch, path); err != nil {
		return fmt.Errorf("saving chart: %w", err)
	}
	return nil
}
