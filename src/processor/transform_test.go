package processor

import (
	"testing"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerialToTime(t *testing.T) {
	assert.Equal(t, time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC), SerialToTime(0))
	assert.Equal(t, time.Date(2004, 1, 1, 0, 0, 0, 0, time.UTC), SerialToTime(37987))
	assert.Equal(t, time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), SerialToTime(43831))
}

func TestJourneyLabelDirectional(t *testing.T) {
	label := JourneyLabel("SYDNEY", "MELBOURNE")
	assert.Equal(t, "SYDNEY — MELBOURNE", label)

	// direction matters: the reverse journey is a different label
	assert.NotEqual(t, label, JourneyLabel("MELBOURNE", "SYDNEY"))
}

func internationalFrame(month, in, out, total string) dataframe.DataFrame {
	return dataframe.New(
		series.New([]string{month}, series.String, ColMonth),
		series.New([]string{"SYDNEY"}, series.String, ColAustralianPort),
		series.New([]string{"AUCKLAND"}, series.String, ColForeignPort),
		series.New([]string{"New Zealand"}, series.String, ColCountry),
		series.New([]string{in}, series.String, ColPassengersIn),
		series.New([]string{out}, series.String, ColPassengersOut),
		series.New([]string{total}, series.String, ColPassengersTotal),
	)
}

func TestTransformInternational(t *testing.T) {
	out, err := TransformInternational(internationalFrame("37987", "10", "20", "30"))
	require.NoError(t, err)

	// serial day offsets collapse to their month bucket
	assert.Equal(t, []string{"2004-01"}, out.Col(ColMonth).Records())
}

func TestTransformInternationalKeepsCalendarMonths(t *testing.T) {
	out, err := TransformInternational(internationalFrame("2004-01-01", "10", "20", "30"))
	require.NoError(t, err)
	assert.Equal(t, []string{"2004-01"}, out.Col(ColMonth).Records())
}

func TestTransformInternationalRejectsGarbageMonth(t *testing.T) {
	_, err := TransformInternational(internationalFrame("not-a-date", "10", "20", "30"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "malformed row 1")
	assert.Contains(t, err.Error(), `Month "not-a-date"`)
}

func TestTransformInternationalRejectsBadTotal(t *testing.T) {
	_, err := TransformInternational(internationalFrame("37987", "10", "20", "31"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "malformed row 1")
}

func TestTransformInternationalRejectsNegativeCounts(t *testing.T) {
	_, err := TransformInternational(internationalFrame("37987", "-1", "20", "19"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "negative passenger count")
}

func TestTransformInternationalMissingColumns(t *testing.T) {
	df := dataframe.New(
		series.New([]string{"37987"}, series.String, ColMonth),
	)

	_, err := TransformInternational(df)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing columns")
}

func TestTransformDomestic(t *testing.T) {
	df := dataframe.New(
		series.New([]string{"37987"}, series.String, ColMonth),
		series.New([]string{"SYDNEY"}, series.String, ColCity1),
		series.New([]string{"MELBOURNE"}, series.String, ColCity2),
		series.New([]string{"100"}, series.String, ColPassengerTrips),
		series.New([]string{"90"}, series.String, ColAircraftTrips),
		series.New([]string{"15000"}, series.String, ColSeats),
		series.New([]string{"70500"}, series.String, ColRPKs),
		series.New([]string{"105750"}, series.String, ColASKs),
		series.New([]string{"705"}, series.String, ColGCKM),
	)

	out, err := TransformDomestic(df)
	require.NoError(t, err)

	assert.Equal(t, []string{"2004-01"}, out.Col(ColMonth).Records())
	assert.Equal(t, []string{"SYDNEY — MELBOURNE"}, out.Col(ColJourney).Records())
}

func TestTransformDomesticRejectsGarbageMonth(t *testing.T) {
	df := dataframe.New(
		series.New([]string{"37987", "garbage"}, series.String, ColMonth),
		series.New([]string{"SYDNEY", "SYDNEY"}, series.String, ColCity1),
		series.New([]string{"MELBOURNE", "PERTH"}, series.String, ColCity2),
		series.New([]string{"100", "50"}, series.String, ColPassengerTrips),
		series.New([]string{"90", "40"}, series.String, ColAircraftTrips),
		series.New([]string{"15000", "8000"}, series.String, ColSeats),
		series.New([]string{"70500", "26000"}, series.String, ColRPKs),
		series.New([]string{"105750", "40000"}, series.String, ColASKs),
		series.New([]string{"705", "3290"}, series.String, ColGCKM),
	)

	_, err := TransformDomestic(df)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "malformed row 2")
	assert.Contains(t, err.Error(), `Month "garbage"`)
}
