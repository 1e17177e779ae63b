// plots.go
package presenter

import (
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// LinePNG renders a monthly series (and optional rolling mean) as a PNG.
// The x axis is the month index into the series.
func (p *Presenter) LinePNG(values, rolling []float64, title, yLabel, file string) error {
	pl := plot.New()
	pl.Title.Text = title
	pl.X.Label.Text = "month"
	pl.Y.Label.Text = yLabel

	line, err := plotter.NewLine(indexedXYs(values, 0))
	if err != nil {
		return fmt.Errorf("failed to build series line: %w", err)
	}
	pl.Add(line)
	pl.Legend.Add(yLabel, line)

	if len(rolling) > 0 {
		maLine, err := plotter.NewLine(indexedXYs(rolling, 0))
		if err != nil {
			return fmt.Errorf("failed to build rolling-mean line: %w", err)
		}
		maLine.LineStyle.Width = vg.Points(2)
		pl.Add(maLine)
		pl.Legend.Add("rolling mean", maLine)
	}

	return pl.Save(10*vg.Inch, 4*vg.Inch, p.path(file))
}

// ScatterPNG renders x/y points with the fitted regression line
// y = alpha + beta*x on top.
func (p *Presenter) ScatterPNG(xs, ys []float64, alpha, beta float64, title, xLabel, yLabel, file string) error {
	if len(xs) != len(ys) {
		return fmt.Errorf("scatter inputs differ in length: %d vs %d", len(xs), len(ys))
	}

	pl := plot.New()
	pl.Title.Text = title
	pl.X.Label.Text = xLabel
	pl.Y.Label.Text = yLabel

	pts := make(plotter.XYs, len(xs))
	for i := range xs {
		pts[i].X = xs[i]
		pts[i].Y = ys[i]
	}

	scatter, err := plotter.NewScatter(pts)
	if err != nil {
		return fmt.Errorf("failed to build scatter: %w", err)
	}
	pl.Add(scatter)

	// regression line across the observed x range
	minX, maxX := xs[0], xs[0]
	for _, x := range xs {
		if x < minX {
			minX = x
		}
		if x > maxX {
			maxX = x
		}
	}
	fit := plotter.XYs{
		{X: minX, Y: alpha + beta*minX},
		{X: maxX, Y: alpha + beta*maxX},
	}
	fitLine, err := plotter.NewLine(fit)
	if err != nil {
		return fmt.Errorf("failed to build fit line: %w", err)
	}
	pl.Add(fitLine)
	pl.Legend.Add("linear fit", fitLine)

	return pl.Save(8*vg.Inch, 6*vg.Inch, p.path(file))
}

// ForecastPNG renders the historical series followed by the forecast and
// its confidence band. Forecast points start where history ends.
func (p *Presenter) ForecastPNG(history, forecasts, lower, upper []float64, title, yLabel, file string) error {
	pl := plot.New()
	pl.Title.Text = title
	pl.X.Label.Text = "month"
	pl.Y.Label.Text = yLabel

	histLine, err := plotter.NewLine(indexedXYs(history, 0))
	if err != nil {
		return fmt.Errorf("failed to build history line: %w", err)
	}
	pl.Add(histLine)
	pl.Legend.Add("observed", histLine)

	offset := len(history)
	fcLine, err := plotter.NewLine(indexedXYs(forecasts, offset))
	if err != nil {
		return fmt.Errorf("failed to build forecast line: %w", err)
	}
	fcLine.LineStyle.Width = vg.Points(2)
	pl.Add(fcLine)
	pl.Legend.Add("forecast", fcLine)

	for _, band := range [][]float64{lower, upper} {
		bandLine, err := plotter.NewLine(indexedXYs(band, offset))
		if err != nil {
			return fmt.Errorf("failed to build confidence band: %w", err)
		}
		bandLine.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(4)}
		pl.Add(bandLine)
	}

	return pl.Save(10*vg.Inch, 4*vg.Inch, p.path(file))
}

func indexedXYs(values []float64, offset int) plotter.XYs {
	pts := make(plotter.XYs, len(values))
	for i, v := range values {
		pts[i].X = float64(offset + i)
		pts[i].Y = v
	}
	return pts
}
