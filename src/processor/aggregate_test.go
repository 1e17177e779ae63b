package processor

import (
	"strings"
	"testing"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNumericColumn(t *testing.T) {
	df := dataframe.New(
		series.New([]string{"1,234", " 56 ", ""}, series.String, ColPassengersTotal),
	)

	values, err := NumericColumn(df, ColPassengersTotal)
	require.NoError(t, err)
	assert.Equal(t, []float64{1234, 56, 0}, values)
}

func TestNumericColumnRejectsMalformedRow(t *testing.T) {
	df := dataframe.New(
		series.New([]string{"10", "n/a", "30"}, series.String, ColPassengersTotal),
	)

	_, err := NumericColumn(df, ColPassengersTotal)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "malformed row 2")
}

func TestMonthlyTotalsConservation(t *testing.T) {
	df := dataframe.New(
		series.New([]string{"2005-02", "2005-01", "2005-01", "2005-02"}, series.String, ColMonth),
		series.New([]string{"10", "20", "30", "5"}, series.String, ColPassengersTotal),
	)

	monthly, err := MonthlyTotals(df, []string{ColPassengersTotal})
	require.NoError(t, err)

	// one row per month, ascending
	assert.Equal(t, []string{"2005-01", "2005-02"}, monthly.Col(ColMonth).Records())

	sums, err := NumericColumn(monthly, ColPassengersTotal)
	require.NoError(t, err)
	assert.Equal(t, []float64{50, 15}, sums)

	// the monthly totals conserve the raw grand total
	raw, err := NumericColumn(df, ColPassengersTotal)
	require.NoError(t, err)
	var rawTotal, monthlyTotal float64
	for _, v := range raw {
		rawTotal += v
	}
	for _, v := range sums {
		monthlyTotal += v
	}
	assert.Equal(t, rawTotal, monthlyTotal)
}

func TestRollingMeanWindowThree(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13}

	out := RollingMean(values, 3)
	require.Len(t, out, len(values))

	// the first point averages the extended window (1, 1, 2)
	assert.InDelta(t, 4.0/3.0, out[0], 1e-9)
	// interior points are the exact centered mean
	for i := 1; i < len(values)-1; i++ {
		assert.InDelta(t, values[i], out[i], 1e-9)
	}
	// the last point averages (12, 13, 13)
	assert.InDelta(t, 38.0/3.0, out[len(out)-1], 1e-9)
}

func TestRollingMeanConstantSeries(t *testing.T) {
	values := []float64{7, 7, 7, 7, 7, 7}

	// edge extension repeats boundary values, so a constant series stays
	// constant for every window width
	for _, window := range []int{2, 3, 12} {
		for _, v := range RollingMean(values, window) {
			assert.InDelta(t, 7.0, v, 1e-9)
		}
	}
}

func TestRollingMeanSameLength(t *testing.T) {
	values := []float64{1, 2, 3}
	assert.Len(t, RollingMean(values, 12), 3)
	assert.Len(t, RollingMean(nil, 12), 0)
}

func TestWithRollingMeanColumnName(t *testing.T) {
	df := dataframe.New(
		series.New([]string{"2005-01", "2005-02"}, series.String, ColMonth),
		series.New([]float64{10, 20}, series.Float, ColPassengersTotal),
	)

	out, err := WithRollingMean(df, ColPassengersTotal, 12)
	require.NoError(t, err)
	assert.True(t, strings.Contains(strings.Join(out.Names(), ","), ColPassengersTotal+"_MA12"))
}

func TestTotalsByDescending(t *testing.T) {
	df := dataframe.New(
		series.New([]string{"NZ", "JP", "NZ", "SG", "JP"}, series.String, ColCountry),
		series.New([]string{"50", "100", "50", "200", "200"}, series.String, ColPassengersTotal),
	)

	out, err := TotalsBy(df, ColCountry, ColPassengersTotal)
	require.NoError(t, err)

	assert.Equal(t, []string{"JP", "SG", "NZ"}, out.Col(ColCountry).Records())
	sums, err := NumericColumn(out, ColPassengersTotal)
	require.NoError(t, err)
	assert.Equal(t, []float64{300, 200, 100}, sums)
}

func TestTotalsByTiesKeepFirstAppearance(t *testing.T) {
	df := dataframe.New(
		series.New([]string{"B", "A", "C"}, series.String, ColCountry),
		series.New([]string{"10", "10", "10"}, series.String, ColPassengersTotal),
	)

	out, err := TotalsBy(df, ColCountry, ColPassengersTotal)
	require.NoError(t, err)
	assert.Equal(t, []string{"B", "A", "C"}, out.Col(ColCountry).Records())
}

func TestMeansByFlooredTripCounts(t *testing.T) {
	df := dataframe.New(
		series.New([]string{"SYD — MEL", "SYD — MEL"}, series.String, ColJourney),
		series.New([]string{"7", "8"}, series.String, ColPassengerTrips),
		series.New([]string{"700", "800"}, series.String, ColGCKM),
	)

	out, err := MeansBy(df, ColJourney,
		[]string{ColGCKM, ColPassengerTrips}, ColPassengerTrips)
	require.NoError(t, err)

	// trip counts are floored, physical measures keep their exact mean
	assert.Equal(t, []string{"7"}, out.Col(ColPassengerTrips).Records())
	dist, err := NumericColumn(out, ColGCKM)
	require.NoError(t, err)
	assert.InDelta(t, 750.0, dist[0], 1e-9)
}

func TestMeansByMissingKey(t *testing.T) {
	df := dataframe.New(
		series.New([]string{"1"}, series.String, ColPassengerTrips),
	)

	_, err := MeansBy(df, ColJourney, []string{ColPassengerTrips})
	assert.Error(t, err)
}
