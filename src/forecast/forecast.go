// forecast.go
package forecast

import (
	"fmt"

	"github.com/sartorproj/goarima/arima"
	"github.com/sartorproj/goarima/autoarima"
	"github.com/sartorproj/goarima/timeseries"
	"gonum.org/v1/gonum/stat"

	"AirTrafficInsight/src/processor"
)

// Decomposition is the classical additive split of a monthly series.
type Decomposition struct {
	Trend    []float64
	Seasonal []float64
	Residual []float64
}

// Decompose splits the series into trend + seasonal + residual. The trend
// is the centered moving average over one seasonal period; the seasonal
// component is the per-position mean of the detrended series, normalized
// to sum to zero across a period.
func Decompose(values []float64, period int) (Decomposition, error) {
	if period <= 1 {
		return Decomposition{}, fmt.Errorf("seasonal period must be > 1, got %d", period)
	}
	if len(values) < 2*period {
		return Decomposition{}, fmt.Errorf(
			"series too short to decompose: %d points, need at least %d", len(values), 2*period)
	}

	trend := processor.RollingMean(values, period)

	// per-position mean of the detrended series
	posSums := make([]float64, period)
	posCounts := make([]int, period)
	for i, v := range values {
		posSums[i%period] += v - trend[i]
		posCounts[i%period]++
	}

	indices := make([]float64, period)
	var total float64
	for p := 0; p < period; p++ {
		indices[p] = posSums[p] / float64(posCounts[p])
		total += indices[p]
	}
	// normalize so the seasonal component sums to zero over a period
	offset := total / float64(period)
	for p := range indices {
		indices[p] -= offset
	}

	seasonal := make([]float64, len(values))
	residual := make([]float64, len(values))
	for i, v := range values {
		seasonal[i] = indices[i%period]
		residual[i] = v - trend[i] - seasonal[i]
	}

	return Decomposition{Trend: trend, Seasonal: seasonal, Residual: residual}, nil
}

// Forecast fits an automatically selected ARIMA model and predicts the
// next horizon points. Model estimation is entirely the library's.
func Forecast(values []float64, horizon int) ([]float64, error) {
	if horizon <= 0 {
		return nil, fmt.Errorf("forecast horizon must be positive, got %d", horizon)
	}

	series := timeseries.New(values)

	cfg := autoarima.DefaultConfig()
	result, err := autoarima.AutoARIMA(series, cfg)
	if err != nil {
		return nil, fmt.Errorf("auto-arima fit failed: %w", err)
	}

	forecasts, err := result.Predict(horizon)
	if err != nil {
		return nil, fmt.Errorf("forecast failed: %w", err)
	}
	return forecasts, nil
}

// ForecastARIMA fits a fixed-order ARIMA(p,d,q) model.
func ForecastARIMA(values []float64, p, d, q, horizon int) ([]float64, error) {
	series := timeseries.New(values)

	model := arima.New(p, d, q)
	if err := model.Fit(series); err != nil {
		return nil, fmt.Errorf("arima(%d,%d,%d) fit failed: %w", p, d, q, err)
	}

	forecasts, err := model.Predict(horizon)
	if err != nil {
		return nil, fmt.Errorf("forecast failed: %w", err)
	}
	return forecasts, nil
}

// ConfidenceBand puts a ±1.96σ band around a forecast, with σ taken from
// the decomposition residuals.
func ConfidenceBand(forecasts, residuals []float64) (lower, upper []float64) {
	sigma := stat.StdDev(residuals, nil)
	lower = make([]float64, len(forecasts))
	upper = make([]float64, len(forecasts))
	for i, f := range forecasts {
		lower[i] = f - 1.96*sigma
		upper[i] = f + 1.96*sigma
	}
	return lower, upper
}

// LinearTrend fits y = alpha + beta*x by ordinary least squares.
func LinearTrend(xs, ys []float64) (alpha, beta float64) {
	return stat.LinearRegression(xs, ys, nil, false)
}
