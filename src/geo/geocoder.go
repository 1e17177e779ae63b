// geocoder.go
package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

const DefaultBaseURL = "https://nominatim.openstreetmap.org/search"

// Coordinate is a (longitude, latitude) pair in degrees.
type Coordinate struct {
	Lon float64
	Lat float64
}

// Geocoder resolves location names against a Nominatim-style search
// endpoint. The memo cache is passed in explicitly, keyed by the input
// location string, so repeated lookups return the previous result without
// re-querying and the cache population stays testable.
type Geocoder struct {
	client  *http.Client
	baseURL string
	cache   *ttlcache.Cache[string, Coordinate]
}

// NewCache builds the key->coordinate memo store for a geocoder.
func NewCache(ttl time.Duration) *ttlcache.Cache[string, Coordinate] {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return ttlcache.New(
		ttlcache.WithTTL[string, Coordinate](ttl),
	)
}

func NewGeocoder(baseURL string, timeout time.Duration, cache *ttlcache.Cache[string, Coordinate]) *Geocoder {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 12 * time.Second
	}
	return &Geocoder{
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
		cache:   cache,
	}
}

// Seed stores a known coordinate, bypassing the network for that name.
func (g *Geocoder) Seed(name string, c Coordinate) {
	g.cache.Set(name, c, ttlcache.DefaultTTL)
}

// Cached reports whether a name is already memoized.
func (g *Geocoder) Cached(name string) bool {
	return g.cache.Get(name) != nil
}

// Lookup resolves one location name. A failure is scoped to that name:
// callers rendering a map skip the city and keep going.
func (g *Geocoder) Lookup(ctx context.Context, name string) (Coordinate, error) {
	if item := g.cache.Get(name); item != nil {
		return item.Value(), nil
	}

	coord, err := g.query(ctx, name)
	if err != nil {
		return Coordinate{}, fmt.Errorf("geocoding %q failed: %w", name, err)
	}

	g.cache.Set(name, coord, ttlcache.DefaultTTL)
	return coord, nil
}

type searchResult struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

func (g *Geocoder) query(ctx context.Context, name string) (Coordinate, error) {
	q := url.Values{}
	q.Set("q", name)
	q.Set("format", "json")
	q.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return Coordinate{}, err
	}
	req.Header.Set("User-Agent", "AirTrafficInsight/1.0")

	resp, err := g.client.Do(req)
	if err != nil {
		return Coordinate{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Coordinate{}, fmt.Errorf("unexpected status %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Coordinate{}, err
	}

	var results []searchResult
	if err := json.Unmarshal(body, &results); err != nil {
		return Coordinate{}, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(results) == 0 {
		return Coordinate{}, fmt.Errorf("no match")
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return Coordinate{}, fmt.Errorf("bad latitude %q", results[0].Lat)
	}
	lon, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return Coordinate{}, fmt.Errorf("bad longitude %q", results[0].Lon)
	}

	return Coordinate{Lon: lon, Lat: lat}, nil
}

const earthRadiusKM = 6371.0

// Haversine returns the great-circle distance between two coordinates in
// kilometres.
func Haversine(a, b Coordinate) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKM * math.Asin(math.Sqrt(h))
}
