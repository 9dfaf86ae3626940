package finance

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/vicanso/go-charts/v2"
	"github.com/wcharczuk/go-chart/v2"
)

// MakeScatterChart plots every ranked symbol at (correlation, scaled covariance),
// labelled by ticker. Points with an undefined coordinate are skipped.
func MakeScatterChart(res *Result) ([]byte, error) {
	if res == nil || len(res.Ranking) == 0 {
		return nil, errors.New("nothing to plot")
	}
	xs, ys, notes := scatterPoints(res.Ranking)
	if len(xs) == 0 {
		return nil, errors.New("no finite points to plot")
	}
	yMin, yMax := paddedRange(ys)

	graph := chart.Chart{
		Title:  fmt.Sprintf("Correlation vs scaled covariance • %s • %s", res.Params.Benchmark, res.Params.Period),
		Width:  1000,
		Height: 700,
		Background: chart.Style{
			Padding: chart.Box{Top: 50, Left: 20, Right: 20, Bottom: 20},
		},
		XAxis: chart.XAxis{
			Name:  "Correlation with " + res.Params.Benchmark,
			Range: &chart.ContinuousRange{Min: -1.05, Max: 1.05},
		},
		YAxis: chart.YAxis{
			Name:  "Scaled covariance",
			Range: &chart.ContinuousRange{Min: yMin, Max: yMax},
		},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name: "symbols",
				Style: chart.Style{
					StrokeWidth: chart.Disabled,
					DotWidth:    5,
				},
				XValues: xs,
				YValues: ys,
			},
			chart.AnnotationSeries{Annotations: notes},
		},
	}
	buf := bytes.NewBuffer(nil)
	if err := graph.Render(chart.PNG, buf); err != nil {
		return nil, fmt.Errorf("scatter render: %w", err)
	}
	return buf.Bytes(), nil
}

func scatterPoints(rows []RankedMetric) (xs, ys []float64, notes []chart.Value2) {
	for _, r := range rows {
		if !finite(r.Correlation) || !finite(r.ScaledCovariance) {
			continue
		}
		xs = append(xs, r.Correlation)
		ys = append(ys, r.ScaledCovariance)
		notes = append(notes, chart.Value2{XValue: r.Correlation, YValue: r.ScaledCovariance, Label: r.Symbol})
	}
	return xs, ys, notes
}

// MakeRankingBarChart draws the scaled covariance of the top rows as bars.
func MakeRankingBarChart(res *Result, topN int) ([]byte, error) {
	if res == nil || len(res.Ranking) == 0 {
		return nil, errors.New("nothing to plot")
	}
	var labels []string
	var values []float64
	for _, r := range Top(res.Ranking, topN) {
		if !finite(r.ScaledCovariance) {
			continue
		}
		labels = append(labels, r.Symbol)
		values = append(values, math.Round(r.ScaledCovariance*1000)/1000)
	}
	if len(values) == 0 {
		return nil, errors.New("no finite scaled covariance")
	}
	p, err := charts.BarRender(
		[][]float64{values},
		charts.TitleTextOptionFunc("Scaled covariance vs "+res.Params.Benchmark, res.Params.Period.String()),
		charts.XAxisDataOptionFunc(labels),
		charts.LegendLabelsOptionFunc([]string{"scaled cov"}),
		charts.ThemeOptionFunc(charts.ThemeLight),
		charts.WidthOptionFunc(1000),
		charts.HeightOptionFunc(600),
	)
	if err != nil {
		return nil, err
	}
	return p.Bytes()
}

// MakeIndexedPriceChart draws every symbol's price rebased to 100 at its first defined
// value. Gaps are forward-filled for display only.
func MakeIndexedPriceChart(frame *PriceFrame, field PriceField, symbols []string) ([]byte, error) {
	if frame == nil || frame.Len() < 2 {
		return nil, errors.New("not enough data points")
	}
	if len(symbols) == 0 {
		symbols = frame.Symbols
	}
	xLabels := make([]string, frame.Len())
	for i, d := range frame.Dates {
		xLabels[i] = d.Format("2006-01-02")
	}

	values := make([][]float64, 0, len(symbols))
	names := make([]string, 0, len(symbols))
	gmin, gmax := math.Inf(1), math.Inf(-1)
	for _, s := range symbols {
		if !frame.Has(s) {
			continue
		}
		col := frame.Column(s, field)
		base := math.NaN()
		for _, v := range col {
			if finite(v) && v != 0 {
				base = v
				break
			}
		}
		if math.IsNaN(base) {
			continue
		}
		out := make([]float64, len(col))
		last := 100.0
		for i, v := range col {
			if finite(v) {
				last = v / base * 100
			}
			out[i] = last
			gmin = math.Min(gmin, last)
			gmax = math.Max(gmax, last)
		}
		values = append(values, out)
		names = append(names, s)
	}
	if len(values) == 0 {
		return nil, errors.New("no series to plot")
	}
	pad := (gmax - gmin) * 0.05
	if pad == 0 {
		pad = 1
	}
	yMin, yMax := gmin-pad, gmax+pad

	split := 12
	if n := frame.Len(); n < 12 {
		split = n
	}
	seriesList := charts.NewSeriesListDataFromValues(values, charts.ChartTypeLine)
	for i := range seriesList {
		seriesList[i].Name = names[i]
	}
	painter, err := charts.Render(charts.ChartOption{SeriesList: seriesList},
		charts.TitleTextOptionFunc("Indexed • 1D • since "+frame.Dates[0].Format("2006-01-02"), strings.Join(names, ", ")+" • base 100"),
		charts.XAxisOptionFunc(charts.XAxisOption{Data: xLabels, BoundaryGap: charts.FalseFlag(), SplitNumber: split}),
		charts.YAxisOptionFunc(charts.YAxisOption{Min: &yMin, Max: &yMax, DivideCount: 5}),
		charts.LegendOptionFunc(charts.LegendOption{Data: names}),
		charts.ThemeOptionFunc(charts.ThemeLight),
		charts.WidthOptionFunc(1000),
		charts.HeightOptionFunc(600),
	)
	if err != nil {
		return nil, err
	}
	return painter.Bytes()
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// paddedRange returns a range around vs that is never empty.
func paddedRange(vs []float64) (float64, float64) {
	mn, mx := vs[0], vs[0]
	for _, v := range vs[1:] {
		mn = math.Min(mn, v)
		mx = math.Max(mx, v)
	}
	pad := (mx - mn) * 0.1
	if pad == 0 {
		pad = math.Max(math.Abs(mx)*0.1, 0.1)
	}
	return mn - pad, mx + pad
}
