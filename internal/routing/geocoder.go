package routing

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/cesarmartin1/crm-david/pkg/config"
	"github.com/cesarmartin1/crm-david/pkg/httpclient"
	"github.com/cesarmartin1/crm-david/pkg/resilience"
)

// ErrNoMatch is returned when a geocoder finds nothing for an address
var ErrNoMatch = errors.New("no geocoding match")

// Geocoder turns an address into a location
type Geocoder interface {
	Geocode(ctx context.Context, address string) (*Location, error)
}

// NominatimGeocoder queries an OpenStreetMap Nominatim instance
type NominatimGeocoder struct {
	client *httpclient.Client
}

// NewNominatimGeocoder creates a geocoder on client
func NewNominatimGeocoder(client *httpclient.Client) *NominatimGeocoder {
	return &NominatimGeocoder{client: client}
}

type nominatimResult struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// Geocode returns the best Nominatim match for address
func (g *NominatimGeocoder) Geocode(ctx context.Context, address string) (*Location, error) {
	q := url.Values{}
	q.Set("q", address)
	q.Set("format", "json")
	q.Set("limit", "1")

	var results []nominatimResult
	if err := g.client.GetJSON(ctx, "/search?"+q.Encode(), &results); err != nil {
		return nil, fmt.Errorf("nominatim: %w", err)
	}
	if len(results) == 0 {
		return nil, ErrNoMatch
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("nominatim: invalid latitude %q", results[0].Lat)
	}
	lng, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("nominatim: invalid longitude %q", results[0].Lon)
	}
	return &Location{
		Query:   address,
		Address: results[0].DisplayName,
		Point:   Point{Lat: lat, Lng: lng},
		Source:  "nominatim",
	}, nil
}

// GooglePlacesGeocoder uses the Places text search API
type GooglePlacesGeocoder struct {
	client *httpclient.Client
	apiKey string
}

// NewGooglePlacesGeocoder creates a geocoder on client
func NewGooglePlacesGeocoder(client *httpclient.Client, apiKey string) *GooglePlacesGeocoder {
	return &GooglePlacesGeocoder{client: client, apiKey: apiKey}
}

type placesResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Results      []struct {
		Name             string `json:"name"`
		FormattedAddress string `json:"formatted_address"`
		Geometry         struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

// Geocode returns the first Places result for address
func (g *GooglePlacesGeocoder) Geocode(ctx context.Context, address string) (*Location, error) {
	q := url.Values{}
	q.Set("query", address)
	q.Set("key", g.apiKey)

	var resp placesResponse
	if err := g.client.GetJSON(ctx, "/textsearch/json?"+q.Encode(), &resp); err != nil {
		return nil, fmt.Errorf("google places: %w", err)
	}
	switch resp.Status {
	case "OK":
	case "ZERO_RESULTS":
		return nil, ErrNoMatch
	default:
		return nil, fmt.Errorf("google places: status %s: %s", resp.Status, resp.ErrorMessage)
	}
	if len(resp.Results) == 0 {
		return nil, ErrNoMatch
	}

	r := resp.Results[0]
	addr := r.FormattedAddress
	if r.Name != "" && !strings.HasPrefix(addr, r.Name) {
		addr = r.Name + ", " + addr
	}
	return &Location{
		Query:   address,
		Address: addr,
		Point:   Point{Lat: r.Geometry.Location.Lat, Lng: r.Geometry.Location.Lng},
		Source:  "google_places",
	}, nil
}

func newBreaker(name string, cfg config.RoutingConfig) *resilience.CircuitBreaker {
	return resilience.NewCircuitBreaker(
		resilience.BuildSettings(name, cfg.BreakerIntervalS, cfg.BreakerTimeoutS, cfg.BreakerFailures, 1),
		resilience.GracefulDegradation(name),
	)
}

// NewGeocoderFromConfig returns Google Places when an API key is configured
// and Nominatim otherwise
func NewGeocoderFromConfig(cfg config.RoutingConfig) Geocoder {
	if cfg.GooglePlacesKey != "" {
		client := httpclient.NewClient(cfg.GooglePlacesURL, cfg.Timeout).
			Apply(httpclient.WithBreaker(newBreaker("google-places", cfg)))
		return NewGooglePlacesGeocoder(client, cfg.GooglePlacesKey)
	}
	client := httpclient.NewClient(cfg.NominatimURL, cfg.Timeout).Apply(
		httpclient.WithBreaker(newBreaker("nominatim", cfg)),
		httpclient.WithHeader("User-Agent", cfg.UserAgent),
	)
	return NewNominatimGeocoder(client)
}
