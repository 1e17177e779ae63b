// aggregate.go
package processor

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"AirTrafficInsight/src/utils"
)

// NumericColumn parses a string-typed column into floats. A value that
// does not parse is a malformed row and is rejected with its row number
// rather than silently skewing an aggregate.
func NumericColumn(df dataframe.DataFrame, name string) ([]float64, error) {
	if !utils.HasColumn(df, name) {
		return nil, fmt.Errorf("missing column %q", name)
	}

	records := df.Col(name).Records()
	values := make([]float64, len(records))
	for i, r := range records {
		r = strings.ReplaceAll(strings.TrimSpace(r), ",", "")
		if r == "" {
			values[i] = 0
			continue
		}
		v, err := strconv.ParseFloat(r, 64)
		if err != nil {
			return nil, fmt.Errorf("malformed row %d: column %q value %q is not numeric", i+1, name, r)
		}
		values[i] = v
	}
	return values, nil
}

// MonthlyTotals groups by month and sums each measure. The output is one
// row per month, sorted ascending; every monthly total equals the sum of
// the raw rows sharing that month.
func MonthlyTotals(df dataframe.DataFrame, measures []string) (dataframe.DataFrame, error) {
	months := df.Col(ColMonth).Records()

	columns := make([][]float64, len(measures))
	for j, m := range measures {
		vals, err := NumericColumn(df, m)
		if err != nil {
			return dataframe.DataFrame{}, err
		}
		columns[j] = vals
	}

	totals := make(map[string][]float64)
	var order []string
	for i, month := range months {
		row, ok := totals[month]
		if !ok {
			row = make([]float64, len(measures))
			totals[month] = row
			order = append(order, month)
		}
		for j := range measures {
			row[j] += columns[j][i]
		}
	}

	// "2006-01" sorts lexicographically in calendar order
	sort.Strings(order)

	out := []series.Series{series.New(order, series.String, ColMonth)}
	for j, m := range measures {
		sums := make([]float64, len(order))
		for i, month := range order {
			sums[i] = totals[month][j]
		}
		out = append(out, series.New(sums, series.Float, m))
	}

	return dataframe.New(out...), nil
}

// RollingMean computes a centered moving average the same length as its
// input. An even window w spans [i-w/2, i+w/2-1]; indexes past either end
// clamp to the boundary, i.e. the window is extended by repeating edge
// values rather than shrinking.
func RollingMean(values []float64, window int) []float64 {
	n := len(values)
	out := make([]float64, n)
	if n == 0 || window <= 0 {
		return out
	}

	left := window / 2
	right := window - left - 1

	for i := 0; i < n; i++ {
		sum := 0.0
		for j := i - left; j <= i+right; j++ {
			k := j
			if k < 0 {
				k = 0
			}
			if k > n-1 {
				k = n - 1
			}
			sum += values[k]
		}
		out[i] = sum / float64(window)
	}
	return out
}

// WithRollingMean appends a <measure>_MA<window> column holding the
// centered moving average of the measure.
func WithRollingMean(df dataframe.DataFrame, measure string, window int) (dataframe.DataFrame, error) {
	values, err := NumericColumn(df, measure)
	if err != nil {
		return dataframe.DataFrame{}, err
	}

	name := fmt.Sprintf("%s_MA%d", measure, window)
	return df.Mutate(series.New(RollingMean(values, window), series.Float, name)), nil
}

// TotalsBy groups by a categorical key, sums the measure, and orders the
// result by descending total. Ties keep first-appearance order.
func TotalsBy(df dataframe.DataFrame, key, measure string) (dataframe.DataFrame, error) {
	if !utils.HasColumn(df, key) {
		return dataframe.DataFrame{}, fmt.Errorf("missing column %q", key)
	}

	values, err := NumericColumn(df, measure)
	if err != nil {
		return dataframe.DataFrame{}, err
	}

	keys := df.Col(key).Records()
	sums := make(map[string]float64)
	var order []string
	for i, k := range keys {
		if _, ok := sums[k]; !ok {
			order = append(order, k)
		}
		sums[k] += values[i]
	}

	sort.SliceStable(order, func(i, j int) bool {
		return sums[order[i]] > sums[order[j]]
	})

	outSums := make([]float64, len(order))
	for i, k := range order {
		outSums[i] = sums[k]
	}

	return dataframe.New(
		series.New(order, series.String, key),
		series.New(outSums, series.Float, measure),
	), nil
}

// MeansBy groups by a categorical key and takes the arithmetic mean of
// each measure. Measures listed in floored are trip counts: their means
// are floored to whole numbers, not rounded.
func MeansBy(df dataframe.DataFrame, key string, measures []string, floored ...string) (dataframe.DataFrame, error) {
	if !utils.HasColumn(df, key) {
		return dataframe.DataFrame{}, fmt.Errorf("missing column %q", key)
	}

	columns := make([][]float64, len(measures))
	for j, m := range measures {
		vals, err := NumericColumn(df, m)
		if err != nil {
			return dataframe.DataFrame{}, err
		}
		columns[j] = vals
	}

	keys := df.Col(key).Records()
	sums := make(map[string][]float64)
	counts := make(map[string]int)
	var order []string
	for i, k := range keys {
		row, ok := sums[k]
		if !ok {
			row = make([]float64, len(measures))
			sums[k] = row
			order = append(order, k)
		}
		counts[k]++
		for j := range measures {
			row[j] += columns[j][i]
		}
	}

	out := []series.Series{series.New(order, series.String, key)}
	for j, m := range measures {
		if utils.Contains(floored, m) {
			means := make([]int, len(order))
			for i, k := range order {
				means[i] = int(math.Floor(sums[k][j] / float64(counts[k])))
			}
			out = append(out, series.New(means, series.Int, m))
			continue
		}
		means := make([]float64, len(order))
		for i, k := range order {
			means[i] = sums[k][j] / float64(counts[k])
		}
		out = append(out, series.New(means, series.Float, m))
	}

	return dataframe.New(out...), nil
}
