package days

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/wristworn/actimetry/internal/pipeline"
)

// Chart measures.
const (
	MeasureENMO    = "enmo"
	MeasureAngles  = "angles"
	MeasureNonzero = "nonzero"
)

// ErrUnknownMeasure reports chart measure names outside the recognized set.
type ErrUnknownMeasure struct {
	Names []string
}

func (e *ErrUnknownMeasure) Error() string {
	return fmt.Sprintf("unknown measures: %s (valid: %s, %s, %s)",
		strings.Join(e.Names, ", "), MeasureENMO, MeasureAngles, MeasureNonzero)
}

func validateMeasures(measures []string) error {
	var unknown []string
	for _, m := range measures {
		switch m {
		case MeasureENMO, MeasureAngles, MeasureNonzero:
		default:
			unknown = append(unknown, m)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return &ErrUnknownMeasure{Names: unknown}
	}
	return nil
}

// curve is one plotted series: hour-of-day x against a vertically offset y.
type curve struct {
	name string
	xs   []float64
	ys   []float64
}

// curves lays out the selected measures for each day, one unit of vertical
// offset per day so the days stack above each other. Angles are scaled by 180
// into (-0.5, 0.5); nonzero marks active windows at +0.5.
func curvesFor(daySlices [][]pipeline.MetricRow, measures []string) ([]curve, error) {
	if err := validateMeasures(measures); err != nil {
		return nil, err
	}
	want := map[string]bool{}
	for _, m := range measures {
		want[m] = true
	}

	var out []curve
	appendCurve := func(name string, rows []pipeline.MetricRow, offset float64, value func(*pipeline.MetricRow) (float64, bool)) {
		c := curve{name: name, xs: make([]float64, 0, len(rows)), ys: make([]float64, 0, len(rows))}
		for i := range rows {
			v, ok := value(&rows[i])
			if !ok {
				continue
			}
			c.xs = append(c.xs, HoursFromTime(rows[i].Datetime))
			c.ys = append(c.ys, v+offset)
		}
		if len(c.xs) > 0 {
			out = append(out, c)
		}
	}

	for i, rows := range daySlices {
		offset := float64(i)
		if want[MeasureNonzero] {
			appendCurve(fmt.Sprintf("day %d nonzero", i), rows, offset, func(r *pipeline.MetricRow) (float64, bool) {
				if r.ENMO == nil {
					return 0, false
				}
				if *r.ENMO > 0 {
					return 0.5, true
				}
				return 0, true
			})
		}
		if want[MeasureENMO] {
			appendCurve(fmt.Sprintf("day %d enmo", i), rows, offset, func(r *pipeline.MetricRow) (float64, bool) {
				if r.ENMO == nil {
					return 0, false
				}
				return *r.ENMO, true
			})
		}
		if want[MeasureAngles] {
			for _, axis := range []struct {
				name  string
				value func(*pipeline.MetricRow) *float64
			}{
				{"anglex", func(r *pipeline.MetricRow) *float64 { return r.AngleX }},
				{"angley", func(r *pipeline.MetricRow) *float64 { return r.AngleY }},
				{"anglez", func(r *pipeline.MetricRow) *float64 { return r.AngleZ }},
			} {
				axis := axis
				appendCurve(fmt.Sprintf("day %d %s", i, axis.name), rows, offset, func(r *pipeline.MetricRow) (float64, bool) {
					v := axis.value(r)
					if v == nil {
						return 0, false
					}
					return *v / 180, true
				})
			}
		}
	}
	return out, nil
}

// RenderHTML writes an interactive day-over-day chart to w using go-echarts.
// Each day is one vertically offset set of curves over hours 0-24.
func RenderHTML(daySlices [][]pipeline.MetricRow, measures []string, w io.Writer) error {
	cs, err := curvesFor(daySlices, measures)
	if err != nil {
		return err
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Daily activity"}),
		charts.WithXAxisOpts(opts.XAxis{Type: "value", Name: "hour of day", Min: 0, Max: 24}),
		charts.WithYAxisOpts(opts.YAxis{Type: "value", Name: "day"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	for _, c := range cs {
		data := make([]opts.LineData, len(c.xs))
		for i := range c.xs {
			data[i] = opts.LineData{Value: []interface{}{c.xs[i], c.ys[i]}}
		}
		line.AddSeries(c.name, data)
	}
	return line.Render(w)
}
