// pipeline.go
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"AirTrafficInsight/src/config"
	"AirTrafficInsight/src/datasource/file"
	"AirTrafficInsight/src/forecast"
	"AirTrafficInsight/src/geo"
	"AirTrafficInsight/src/presenter"
	"AirTrafficInsight/src/processor"
	"AirTrafficInsight/src/storage"
	"AirTrafficInsight/src/utils"
)

// Pipeline is the re-runnable entry point: file path + configuration in,
// final tables out. No implicit global state; every derived table is a
// fresh DataFrame and the loaded base table is never mutated in place.
type Pipeline struct {
	cfg      *config.Config
	dcfg     *config.DataConfig
	log      *storage.Logger
	pres     *presenter.Presenter
	geocoder *geo.Geocoder
}

func New(cfg *config.Config, dcfg *config.DataConfig, logger *storage.Logger) (*Pipeline, error) {
	pres, err := presenter.New(cfg.OutputDir)
	if err != nil {
		return nil, err
	}

	cache := geo.NewCache(time.Duration(cfg.Geocode.TTL))
	geocoder := geo.NewGeocoder(cfg.Geocode.BaseURL, time.Duration(cfg.Geocode.Timeout), cache)

	// seed coordinates known ahead of time; these never hit the network
	for name, lonLat := range dcfg.CoordinateSeeds {
		if len(lonLat) == 2 {
			geocoder.Seed(name, geo.Coordinate{Lon: lonLat[0], Lat: lonLat[1]})
		}
	}

	return &Pipeline{
		cfg:      cfg,
		dcfg:     dcfg,
		log:      logger,
		pres:     pres,
		geocoder: geocoder,
	}, nil
}

// InternationalResult holds the final tables of one international run.
type InternationalResult struct {
	Base       dataframe.DataFrame // transformed base table, immutable
	Monthly    dataframe.DataFrame // monthly totals with rolling mean
	ByCountry  dataframe.DataFrame // country totals, descending
	TopRoutes  dataframe.DataFrame // port-pair totals, top N
	ReportPath string
}

// RunInternational loads, transforms, aggregates, and renders the
// international city-pair dataset.
func (p *Pipeline) RunInternational(path string) (*InternationalResult, error) {
	raw, err := file.ReadDataset(path, p.cfg.Datasets.SheetName, p.cfg.Datasets.HeaderRow)
	if err != nil {
		return nil, fmt.Errorf("failed to load international dataset: %w", err)
	}

	base, err := processor.TransformInternational(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to transform international dataset: %w", err)
	}
	p.log.Info(fmt.Sprintf("international dataset loaded: %d rows", base.Nrow()))

	monthly, err := processor.MonthlyTotals(base, []string{
		processor.ColPassengersIn, processor.ColPassengersOut, processor.ColPassengersTotal,
	})
	if err != nil {
		return nil, err
	}
	monthly, err = processor.WithRollingMean(monthly, processor.ColPassengersTotal, p.cfg.Analysis.Window)
	if err != nil {
		return nil, err
	}

	// rankings run over the configured date range when one is set
	ranked := p.applyRange(base)
	ranked = p.dropExcluded(ranked, processor.ColAustralianPort, processor.ColForeignPort)

	byCountry, err := processor.TotalsBy(ranked, processor.ColCountry, processor.ColPassengersTotal)
	if err != nil {
		return nil, err
	}

	routes := withRouteColumn(ranked)
	routeTotals, err := processor.TotalsBy(routes, "Route", processor.ColPassengersTotal)
	if err != nil {
		return nil, err
	}
	topRoutes, err := processor.TopN(routeTotals, processor.ColPassengersTotal, p.cfg.Analysis.TopN)
	if err != nil {
		return nil, err
	}

	topCountries, err := processor.TopN(byCountry, processor.ColPassengersTotal, p.cfg.Analysis.TopN)
	if err != nil {
		return nil, err
	}

	if err := p.renderInternational(monthly, topCountries, topRoutes); err != nil {
		return nil, err
	}

	reportPath, err := p.pres.Report("international_report.xlsx", []presenter.NamedTable{
		{Name: "Monthly", Table: monthly},
		{Name: "ByCountry", Table: byCountry},
		{Name: "TopRoutes", Table: topRoutes},
	})
	if err != nil {
		return nil, err
	}

	return &InternationalResult{
		Base:       base,
		Monthly:    monthly,
		ByCountry:  byCountry,
		TopRoutes:  topRoutes,
		ReportPath: reportPath,
	}, nil
}

func (p *Pipeline) renderInternational(monthly, topCountries, topRoutes dataframe.DataFrame) error {
	maCol := fmt.Sprintf("%s_MA%d", processor.ColPassengersTotal, p.cfg.Analysis.Window)

	if err := p.pres.TimeSeriesChart(monthly, processor.ColPassengersTotal, maCol,
		"International passengers per month", "international_monthly.html"); err != nil {
		return err
	}
	if err := p.pres.BarChart(topCountries, processor.ColCountry, processor.ColPassengersTotal,
		"Top countries by passengers", "international_countries.html"); err != nil {
		return err
	}
	if err := p.pres.Treemap(topRoutes, "Route", processor.ColPassengersTotal,
		"Route share of international passengers", "international_routes.html"); err != nil {
		return err
	}

	values, err := processor.NumericColumn(monthly, processor.ColPassengersTotal)
	if err != nil {
		return err
	}
	rolling, err := processor.NumericColumn(monthly, maCol)
	if err != nil {
		return err
	}
	if err := p.pres.LinePNG(values, rolling,
		"International passengers per month", "passengers", "international_monthly.png"); err != nil {
		return err
	}

	if err := p.forecastSeries(values, "International passenger forecast",
		"international_forecast.png"); err != nil {
		// the forecast is an optional tail step, a short series should
		// not fail the whole run
		p.log.Warning(fmt.Sprintf("forecast skipped: %v", err))
	}

	markers := p.geocodeMarkers(topCountries, processor.ColCountry, processor.ColPassengersTotal)
	if len(markers) > 0 {
		if err := p.pres.RouteMap(markers, "International traffic by country",
			"international_map.html"); err != nil {
			return err
		}
	}
	return nil
}

// DomesticResult holds the final tables of one domestic run.
type DomesticResult struct {
	Base         dataframe.DataFrame
	Monthly      dataframe.DataFrame
	TopJourneys  dataframe.DataFrame
	RouteSummary dataframe.DataFrame // per-journey means: distance, seats, floored trips
	FocusCity    dataframe.DataFrame // journeys touching the configured city
	ReportPath   string
}

// RunDomestic loads, transforms, aggregates, and renders the domestic
// city-pair dataset.
func (p *Pipeline) RunDomestic(path string) (*DomesticResult, error) {
	raw, err := file.ReadDataset(path, p.cfg.Datasets.SheetName, p.cfg.Datasets.HeaderRow)
	if err != nil {
		return nil, fmt.Errorf("failed to load domestic dataset: %w", err)
	}

	base, err := processor.TransformDomestic(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to transform domestic dataset: %w", err)
	}
	p.log.Info(fmt.Sprintf("domestic dataset loaded: %d rows", base.Nrow()))

	monthly, err := processor.MonthlyTotals(base, []string{
		processor.ColPassengerTrips, processor.ColSeats, processor.ColRPKs, processor.ColASKs,
	})
	if err != nil {
		return nil, err
	}
	monthly, err = processor.WithRollingMean(monthly, processor.ColPassengerTrips, p.cfg.Analysis.Window)
	if err != nil {
		return nil, err
	}
	monthly, err = withLoadFactor(monthly)
	if err != nil {
		return nil, err
	}

	ranked := p.applyRange(base)
	ranked = p.dropExcluded(ranked, processor.ColCity1, processor.ColCity2)

	journeyTotals, err := processor.TotalsBy(ranked, processor.ColJourney, processor.ColPassengerTrips)
	if err != nil {
		return nil, err
	}
	topJourneys, err := processor.TopN(journeyTotals, processor.ColPassengerTrips, p.cfg.Analysis.TopN)
	if err != nil {
		return nil, err
	}

	routeSummary, err := processor.MeansBy(ranked, processor.ColJourney,
		[]string{processor.ColGCKM, processor.ColSeats, processor.ColPassengerTrips},
		processor.ColPassengerTrips)
	if err != nil {
		return nil, err
	}

	var focus dataframe.DataFrame
	if p.cfg.Analysis.FocusCity != "" {
		focusRows := processor.TouchingCity(ranked, p.cfg.Analysis.FocusCity)
		focusTotals, err := processor.TotalsBy(focusRows, processor.ColJourney, processor.ColPassengerTrips)
		if err != nil {
			return nil, err
		}
		focus, err = processor.TopN(focusTotals, processor.ColPassengerTrips, p.cfg.Analysis.TopN)
		if err != nil {
			return nil, err
		}
	}

	if err := p.renderDomestic(monthly, topJourneys, routeSummary); err != nil {
		return nil, err
	}

	tables := []presenter.NamedTable{
		{Name: "Monthly", Table: monthly},
		{Name: "TopJourneys", Table: topJourneys},
		{Name: "RouteSummary", Table: routeSummary},
	}
	if p.cfg.Analysis.FocusCity != "" {
		tables = append(tables, presenter.NamedTable{Name: "FocusCity", Table: focus})
	}
	reportPath, err := p.pres.Report("domestic_report.xlsx", tables)
	if err != nil {
		return nil, err
	}

	return &DomesticResult{
		Base:         base,
		Monthly:      monthly,
		TopJourneys:  topJourneys,
		RouteSummary: routeSummary,
		FocusCity:    focus,
		ReportPath:   reportPath,
	}, nil
}

func (p *Pipeline) renderDomestic(monthly, topJourneys, routeSummary dataframe.DataFrame) error {
	maCol := fmt.Sprintf("%s_MA%d", processor.ColPassengerTrips, p.cfg.Analysis.Window)

	if err := p.pres.TimeSeriesChart(monthly, processor.ColPassengerTrips, maCol,
		"Domestic passenger trips per month", "domestic_monthly.html"); err != nil {
		return err
	}
	if err := p.pres.BarChart(topJourneys, processor.ColJourney, processor.ColPassengerTrips,
		"Top domestic journeys", "domestic_journeys.html"); err != nil {
		return err
	}
	if err := p.pres.Treemap(topJourneys, processor.ColJourney, processor.ColPassengerTrips,
		"Journey share of domestic trips", "domestic_treemap.html"); err != nil {
		return err
	}

	flows := journeyFlows(topJourneys)
	if err := p.pres.ChordChart(flows, "Domestic city-pair flows", "domestic_chord.html"); err != nil {
		return err
	}

	// distance against traffic with a linear fit
	xs, err := processor.NumericColumn(routeSummary, processor.ColGCKM)
	if err != nil {
		return err
	}
	ys, err := processor.NumericColumn(routeSummary, processor.ColPassengerTrips)
	if err != nil {
		return err
	}
	alpha, beta := forecast.LinearTrend(xs, ys)
	if err := p.pres.ScatterPNG(xs, ys, alpha, beta,
		"Route distance vs mean monthly trips", "great-circle km", "mean trips",
		"domestic_distance_scatter.png"); err != nil {
		return err
	}

	markers := p.geocodeCities(flows, topJourneys)
	if len(markers) > 0 {
		if err := p.pres.RouteMap(markers, "Domestic traffic map", "domestic_map.html"); err != nil {
			return err
		}
	}

	values, err := processor.NumericColumn(monthly, processor.ColPassengerTrips)
	if err != nil {
		return err
	}
	if err := p.forecastSeries(values, "Domestic trips forecast", "domestic_forecast.png"); err != nil {
		p.log.Warning(fmt.Sprintf("forecast skipped: %v", err))
	}
	return nil
}

// forecastSeries decomposes the series, fits the auto-ARIMA model, and
// renders the forecast with its confidence band.
func (p *Pipeline) forecastSeries(values []float64, title, file string) error {
	decomp, err := forecast.Decompose(values, p.cfg.Analysis.Window)
	if err != nil {
		return err
	}

	forecasts, err := forecast.Forecast(values, p.cfg.Analysis.ForecastMonths)
	if err != nil {
		return err
	}

	lower, upper := forecast.ConfidenceBand(forecasts, decomp.Residual)
	return p.pres.ForecastPNG(values, forecasts, lower, upper, title, "passengers", file)
}

// applyRange narrows the base table to the configured [start, end) month
// range; with no range configured the full table is used.
func (p *Pipeline) applyRange(base dataframe.DataFrame) dataframe.DataFrame {
	if p.cfg.Analysis.RangeStart == "" || p.cfg.Analysis.RangeEnd == "" {
		return base
	}

	start, err := utils.ParseMonth(p.cfg.Analysis.RangeStart)
	if err != nil {
		p.log.Warning(fmt.Sprintf("bad range_start, ranking over full table: %v", err))
		return base
	}
	end, err := utils.ParseMonth(p.cfg.Analysis.RangeEnd)
	if err != nil {
		p.log.Warning(fmt.Sprintf("bad range_end, ranking over full table: %v", err))
		return base
	}

	return processor.ByDateRange(base, start, end)
}

// dropExcluded removes rows whose port (in any of the given columns) is on
// the configured exclusion list.
func (p *Pipeline) dropExcluded(df dataframe.DataFrame, cols ...string) dataframe.DataFrame {
	if len(p.dcfg.ExcludedPorts) == 0 {
		return df
	}

	colRecords := make([][]string, len(cols))
	for i, col := range cols {
		colRecords[i] = df.Col(col).Records()
	}

	var keep []int
	for row := 0; row < df.Nrow(); row++ {
		excluded := false
		for _, records := range colRecords {
			if p.dcfg.IsExcludedPort(records[row]) {
				excluded = true
				break
			}
		}
		if !excluded {
			keep = append(keep, row)
		}
	}

	if len(keep) == df.Nrow() {
		return df
	}
	return df.Subset(keep)
}

// geocodeMarkers resolves the key column of a ranked table to map markers.
// A failed lookup is logged and that entry skipped; one bad lookup does
// not block the map.
func (p *Pipeline) geocodeMarkers(df dataframe.DataFrame, keyCol, valCol string) []presenter.CityMarker {
	names := df.Col(keyCol).Records()
	values, err := processor.NumericColumn(df, valCol)
	if err != nil {
		p.log.Warning(fmt.Sprintf("map skipped: %v", err))
		return nil
	}

	var markers []presenter.CityMarker
	for i, name := range names {
		coord, err := p.lookup(name)
		if err != nil {
			p.log.Warning(err.Error())
			continue
		}
		markers = append(markers, presenter.CityMarker{Name: name, Coord: coord, Value: values[i]})
	}
	return markers
}

// geocodeCities resolves every endpoint city of the top journeys, summing
// journey traffic into each endpoint's marker.
func (p *Pipeline) geocodeCities(flows []presenter.Flow, topJourneys dataframe.DataFrame) []presenter.CityMarker {
	volumes := make(map[string]float64)
	var order []string
	for _, f := range flows {
		for _, name := range []string{f.Source, f.Target} {
			if _, ok := volumes[name]; !ok {
				order = append(order, name)
			}
			volumes[name] += f.Value
		}
	}

	var markers []presenter.CityMarker
	for _, name := range order {
		coord, err := p.lookup(name)
		if err != nil {
			p.log.Warning(err.Error())
			continue
		}
		markers = append(markers, presenter.CityMarker{Name: name, Coord: coord, Value: volumes[name]})
	}
	return markers
}

func (p *Pipeline) lookup(name string) (geo.Coordinate, error) {
	query := name
	if alias := p.dcfg.GetGeocodeAlias(name); alias != "" {
		query = alias
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return p.geocoder.Lookup(ctx, query)
}

// journeyFlows splits ranked journey labels back into directional edges.
func journeyFlows(topJourneys dataframe.DataFrame) []presenter.Flow {
	labels := topJourneys.Col(processor.ColJourney).Records()
	values, err := processor.NumericColumn(topJourneys, processor.ColPassengerTrips)
	if err != nil {
		return nil
	}

	var flows []presenter.Flow
	for i, label := range labels {
		parts := strings.Split(label, processor.JourneySeparator)
		if len(parts) != 2 {
			continue
		}
		flows = append(flows, presenter.Flow{Source: parts[0], Target: parts[1], Value: values[i]})
	}
	return flows
}

// withRouteColumn derives the port-pair label for international rankings.
func withRouteColumn(df dataframe.DataFrame) dataframe.DataFrame {
	aus := df.Col(processor.ColAustralianPort).Records()
	foreign := df.Col(processor.ColForeignPort).Records()
	routes := make([]string, len(aus))
	for i := range aus {
		routes[i] = processor.JourneyLabel(aus[i], foreign[i])
	}
	return df.Mutate(series.New(routes, series.String, "Route"))
}

// withLoadFactor appends RPKs/ASKs as a LoadFactor column.
func withLoadFactor(monthly dataframe.DataFrame) (dataframe.DataFrame, error) {
	rpk, err := processor.NumericColumn(monthly, processor.ColRPKs)
	if err != nil {
		return dataframe.DataFrame{}, err
	}
	ask, err := processor.NumericColumn(monthly, processor.ColASKs)
	if err != nil {
		return dataframe.DataFrame{}, err
	}

	lf := make([]float64, len(rpk))
	for i := range rpk {
		if ask[i] != 0 {
			lf[i] = rpk[i] / ask[i]
		}
	}
	return monthly.Mutate(series.New(lf, series.Float, "LoadFactor")), nil
}
