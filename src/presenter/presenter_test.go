package presenter

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"AirTrafficInsight/src/geo"
	"AirTrafficInsight/src/processor"
)

func testPresenter(t *testing.T) (*Presenter, string) {
	t.Helper()
	dir := t.TempDir()
	p, err := New(dir)
	require.NoError(t, err)
	return p, dir
}

func rankedFrame() dataframe.DataFrame {
	return dataframe.New(
		series.New([]string{"New Zealand", "Japan"}, series.String, processor.ColCountry),
		series.New([]float64{300, 200}, series.Float, processor.ColPassengersTotal),
	)
}

func assertFileWritten(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestBarChart(t *testing.T) {
	p, dir := testPresenter(t)

	err := p.BarChart(rankedFrame(), processor.ColCountry, processor.ColPassengersTotal,
		"Top countries", "countries.html")
	require.NoError(t, err)
	assertFileWritten(t, filepath.Join(dir, "countries.html"))
}

func TestTimeSeriesChart(t *testing.T) {
	p, dir := testPresenter(t)

	df := dataframe.New(
		series.New([]string{"2005-01", "2005-02"}, series.String, processor.ColMonth),
		series.New([]float64{100, 110}, series.Float, processor.ColPassengersTotal),
		series.New([]float64{105, 105}, series.Float, "Passengers_Total_MA12"),
	)

	err := p.TimeSeriesChart(df, processor.ColPassengersTotal, "Passengers_Total_MA12",
		"Monthly passengers", "monthly.html")
	require.NoError(t, err)
	assertFileWritten(t, filepath.Join(dir, "monthly.html"))
}

func TestTreemap(t *testing.T) {
	p, dir := testPresenter(t)

	err := p.Treemap(rankedFrame(), processor.ColCountry, processor.ColPassengersTotal,
		"Country share", "share.html")
	require.NoError(t, err)
	assertFileWritten(t, filepath.Join(dir, "share.html"))
}

func TestChordChart(t *testing.T) {
	p, dir := testPresenter(t)

	flows := []Flow{
		{Source: "SYDNEY", Target: "MELBOURNE", Value: 100},
		{Source: "MELBOURNE", Target: "SYDNEY", Value: 90},
	}
	err := p.ChordChart(flows, "City-pair flows", "chord.html")
	require.NoError(t, err)
	assertFileWritten(t, filepath.Join(dir, "chord.html"))
}

func TestRouteMap(t *testing.T) {
	p, dir := testPresenter(t)

	markers := []CityMarker{
		{Name: "SYDNEY", Coord: geo.Coordinate{Lon: 151.21, Lat: -33.87}, Value: 100},
	}
	err := p.RouteMap(markers, "Traffic map", "map.html")
	require.NoError(t, err)
	assertFileWritten(t, filepath.Join(dir, "map.html"))
}

func TestLinePNG(t *testing.T) {
	p, dir := testPresenter(t)

	values := []float64{1, 2, 3, 4, 5}
	rolling := []float64{1, 2, 3, 4, 5}
	err := p.LinePNG(values, rolling, "Series", "passengers", "series.png")
	require.NoError(t, err)
	assertFileWritten(t, filepath.Join(dir, "series.png"))
}

func TestForecastPNG(t *testing.T) {
	p, dir := testPresenter(t)

	history := []float64{10, 11, 12, 13}
	forecasts := []float64{14, 15}
	lower := []float64{13, 14}
	upper := []float64{15, 16}

	err := p.ForecastPNG(history, forecasts, lower, upper, "Forecast", "passengers", "forecast.png")
	require.NoError(t, err)
	assertFileWritten(t, filepath.Join(dir, "forecast.png"))
}

func TestReport(t *testing.T) {
	p, _ := testPresenter(t)

	path, err := p.Report("report.xlsx", []NamedTable{
		{Name: "ByCountry", Table: rankedFrame()},
	})
	require.NoError(t, err)
	assertFileWritten(t, path)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Contains(t, f.GetSheetList(), "ByCountry")

	header, err := f.GetCellValue("ByCountry", "A1")
	require.NoError(t, err)
	assert.Equal(t, processor.ColCountry, header)

	top, err := f.GetCellValue("ByCountry", "A2")
	require.NoError(t, err)
	assert.Equal(t, "New Zealand", top)
}
