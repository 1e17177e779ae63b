// charts.go
package presenter

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"
	"github.com/go-gota/gota/dataframe"

	"AirTrafficInsight/src/geo"
	"AirTrafficInsight/src/processor"
)

// Presenter renders already-aggregated tables. Every table handed in is
// final: sorted, truncated, nothing left to aggregate here.
type Presenter struct {
	outputDir string
}

func New(outputDir string) (*Presenter, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output dir: %w", err)
	}
	return &Presenter{outputDir: outputDir}, nil
}

func (p *Presenter) path(file string) string {
	return filepath.Join(p.outputDir, file)
}

// Flow is one directional city-pair edge of the chord chart.
type Flow struct {
	Source string
	Target string
	Value  float64
}

// CityMarker is a geocoded city with its traffic volume for the map.
type CityMarker struct {
	Name  string
	Coord geo.Coordinate
	Value float64
}

type renderable interface {
	Render(w io.Writer) error
}

func (p *Presenter) render(chart renderable, file string) error {
	f, err := os.Create(p.path(file))
	if err != nil {
		return fmt.Errorf("failed to create chart file: %w", err)
	}
	defer f.Close()
	return chart.Render(f)
}

// BarChart renders a ranked categorical table (e.g. top countries by
// passengers) as a bar chart.
func (p *Presenter) BarChart(df dataframe.DataFrame, keyCol, valCol, title, file string) error {
	keys := df.Col(keyCol).Records()
	values, err := processor.NumericColumn(df, valCol)
	if err != nil {
		return err
	}

	data := make([]opts.BarData, len(values))
	for i, v := range values {
		data[i] = opts.BarData{Value: v}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithXAxisOpts(opts.XAxis{Name: keyCol}),
		charts.WithYAxisOpts(opts.YAxis{Name: valCol}),
	)
	bar.SetXAxis(keys).AddSeries(valCol, data)

	return p.render(bar, file)
}

// TimeSeriesChart renders a monthly measure with its rolling-mean overlay.
// maCol may be empty when no overlay is wanted.
func (p *Presenter) TimeSeriesChart(df dataframe.DataFrame, measure, maCol, title, file string) error {
	months := df.Col(processor.ColMonth).Records()
	values, err := processor.NumericColumn(df, measure)
	if err != nil {
		return err
	}

	data := make([]opts.LineData, len(values))
	for i, v := range values {
		data[i] = opts.LineData{Value: v}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithYAxisOpts(opts.YAxis{Name: measure}),
	)
	line.SetXAxis(months).AddSeries(measure, data)

	if maCol != "" {
		ma, err := processor.NumericColumn(df, maCol)
		if err != nil {
			return err
		}
		maData := make([]opts.LineData, len(ma))
		for i, v := range ma {
			maData[i] = opts.LineData{Value: v}
		}
		line.AddSeries(maCol, maData)
	}

	return p.render(line, file)
}

// Treemap renders route (or country) share of a measure.
func (p *Presenter) Treemap(df dataframe.DataFrame, keyCol, valCol, title, file string) error {
	keys := df.Col(keyCol).Records()
	values, err := processor.NumericColumn(df, valCol)
	if err != nil {
		return err
	}

	nodes := make([]opts.TreeMapNode, len(keys))
	for i, k := range keys {
		nodes[i] = opts.TreeMapNode{Name: k, Value: int(values[i])}
	}

	tm := charts.NewTreeMap()
	tm.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: title}),
	)
	tm.AddSeries(valCol, nodes)

	return p.render(tm, file)
}

// ChordChart renders directional city-pair flows as a circular graph.
// Edges stay directional: A->B and B->A are distinct flows.
func (p *Presenter) ChordChart(flows []Flow, title, file string) error {
	seen := make(map[string]bool)
	var nodes []opts.GraphNode
	links := make([]opts.GraphLink, 0, len(flows))

	for _, fl := range flows {
		for _, name := range []string{fl.Source, fl.Target} {
			if !seen[name] {
				seen[name] = true
				nodes = append(nodes, opts.GraphNode{Name: name})
			}
		}
		links = append(links, opts.GraphLink{
			Source: fl.Source,
			Target: fl.Target,
			Value:  float32(fl.Value),
		})
	}

	graph := charts.NewGraph()
	graph.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: title}),
	)
	graph.AddSeries("flows", nodes, links,
		charts.WithGraphChartOpts(opts.GraphChart{Layout: "circular"}),
	)

	return p.render(graph, file)
}

// RouteMap renders geocoded cities on a world map, sized by traffic.
// Cities whose geocoding failed are simply absent from markers.
func (p *Presenter) RouteMap(markers []CityMarker, title, file string) error {
	data := make([]opts.GeoData, len(markers))
	for i, m := range markers {
		data[i] = opts.GeoData{
			Name:  m.Name,
			Value: []float64{m.Coord.Lon, m.Coord.Lat, m.Value},
		}
	}

	g := charts.NewGeo()
	g.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithGeoComponentOpts(opts.GeoComponent{Map: "world"}),
	)
	g.AddSeries("traffic", types.ChartEffectScatter, data)

	return p.render(g, file)
}
