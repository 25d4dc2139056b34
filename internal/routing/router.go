package routing

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cesarmartin1/crm-david/pkg/config"
	"github.com/cesarmartin1/crm-david/pkg/httpclient"
)

// ErrNoRoute is returned when the router finds no route between points
var ErrNoRoute = errors.New("no route found")

// Router computes the driving route through ordered points
type Router interface {
	Route(ctx context.Context, points []Point) (*Route, error)
}

// OSRMRouter queries an OSRM server
type OSRMRouter struct {
	client  *httpclient.Client
	profile string
}

// NewOSRMRouter creates a driving router on client
func NewOSRMRouter(client *httpclient.Client) *OSRMRouter {
	return &OSRMRouter{client: client, profile: "driving"}
}

// NewRouterFromConfig builds the OSRM router with its breaker
func NewRouterFromConfig(cfg config.RoutingConfig) Router {
	client := httpclient.NewClient(cfg.OSRMURL, cfg.Timeout).
		Apply(httpclient.WithBreaker(newBreaker("osrm", cfg)))
	return NewOSRMRouter(client)
}

type osrmResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Routes  []struct {
		Distance float64 `json:"distance"`
		Duration float64 `json:"duration"`
		Geometry string  `json:"geometry"`
	} `json:"routes"`
}

// Route returns distance in km and duration in minutes
func (r *OSRMRouter) Route(ctx context.Context, points []Point) (*Route, error) {
	if len(points) < 2 {
		return nil, fmt.Errorf("osrm: at least two points required, got %d", len(points))
	}

	coords := make([]string, len(points))
	for i, p := range points {
		coords[i] = fmt.Sprintf("%.6f,%.6f", p.Lng, p.Lat)
	}
	path := fmt.Sprintf("/route/v1/%s/%s?overview=full&geometries=polyline", r.profile, strings.Join(coords, ";"))

	var resp osrmResponse
	if err := r.client.GetJSON(ctx, path, &resp); err != nil {
		var se *httpclient.StatusError
		if errors.As(err, &se) && se.StatusCode == 400 {
			return nil, ErrNoRoute
		}
		return nil, fmt.Errorf("osrm: %w", err)
	}
	if resp.Code != "Ok" || len(resp.Routes) == 0 {
		return nil, ErrNoRoute
	}

	best := resp.Routes[0]
	return &Route{
		DistanceKm: best.Distance / 1000,
		Minutes:    best.Duration / 60,
		Polyline:   best.Geometry,
	}, nil
}
