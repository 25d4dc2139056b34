package routing

import (
	"context"
	"errors"
	"math"
	"strings"

	"github.com/cesarmartin1/crm-david/pkg/logger"
	"github.com/cesarmartin1/crm-david/pkg/tracing"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var errNoDepot = errors.New("no depot address configured")

// PlaceLookup finds a frequent place by name. A nil place means none.
type PlaceLookup interface {
	FindPlace(ctx context.Context, name string) (*FrequentPlace, error)
}

// Planner decomposes a charter service into driven legs
type Planner struct {
	geocoder Geocoder
	router   Router
	places   PlaceLookup
}

// NewPlanner creates a planner. places may be nil.
func NewPlanner(geocoder Geocoder, router Router, places PlaceLookup) *Planner {
	return &Planner{geocoder: geocoder, router: router, places: places}
}

// Plan builds the legs of req and totals their time. Legs whose addresses
// or route cannot be resolved count as zero and are flagged; Plan itself
// never fails.
func (p *Planner) Plan(ctx context.Context, cfg CalculatorConfig, req RouteRequest) Plan {
	ctx, span := tracing.StartSpan(ctx, "routing.plan",
		attribute.Int("route.stops", len(req.Stops)),
		attribute.Bool("route.outbound", req.PositioningOutbound),
		attribute.Bool("route.return", req.PositioningReturn),
	)
	defer span.End()

	index := cfg.HeavyVehicleIndex
	if index <= 0 {
		index = 1
	}
	depot := strings.TrimSpace(req.Depot)
	if depot == "" {
		depot = strings.TrimSpace(cfg.DepotAddress)
	}

	memo := make(map[string]Point)
	plan := Plan{HeavyVehicleIndex: index, Legs: make([]Leg, 0, 3)}

	if req.PositioningOutbound {
		plan.Legs = append(plan.Legs, p.leg(ctx, memo, LegOutbound, depot, nil, req.Pickup, index))
	}
	plan.Legs = append(plan.Legs, p.leg(ctx, memo, LegService, req.Pickup, req.Stops, req.Dropoff, index))
	if req.PositioningReturn {
		plan.Legs = append(plan.Legs, p.leg(ctx, memo, LegReturn, req.Dropoff, nil, depot, index))
	}

	var km, driving, minutes float64
	for _, l := range plan.Legs {
		km += l.DistanceKm
		driving += l.DrivingMinutes
		minutes += l.Minutes
		if l.Failed {
			plan.Degraded = true
		}
	}
	plan.TotalKm = round2(km)
	plan.DrivingMinutes = round2(driving)
	plan.TravelMinutes = round2(minutes)
	plan.PresentationMinutes = float64(cfg.PresentationMinutes)
	if req.IncludeCleaning {
		plan.CleaningMinutes = float64(cfg.CleaningMinutes)
	}
	plan.TotalMinutes = round2(minutes + plan.PresentationMinutes + plan.CleaningMinutes)
	plan.Hours = round2(plan.TotalMinutes / 60)

	span.SetAttributes(
		attribute.Float64("route.km", plan.TotalKm),
		attribute.Float64("route.hours", plan.Hours),
		attribute.Bool("route.degraded", plan.Degraded),
	)
	return plan
}

func (p *Planner) leg(ctx context.Context, memo map[string]Point, kind, from string, via []string, to string, index float64) Leg {
	ctx, span := tracing.StartSpan(ctx, "routing.leg", attribute.String("leg.kind", kind))
	defer span.End()
	legsTotal.WithLabelValues(kind).Inc()

	leg := Leg{Kind: kind, From: from, To: to, Via: via}
	fail := func(err error) Leg {
		legsFailed.WithLabelValues(kind).Inc()
		tracing.RecordError(span, err)
		logger.WithContext(ctx).Warn("route leg failed",
			zap.String("kind", kind),
			zap.String("from", from),
			zap.String("to", to),
			zap.Error(err),
		)
		leg.Failed = true
		leg.Error = err.Error()
		return leg
	}

	if (kind == LegOutbound && from == "") || (kind == LegReturn && to == "") {
		return fail(errNoDepot)
	}

	start, err := p.resolve(ctx, memo, from)
	if err != nil {
		return fail(err)
	}
	points := []Point{start}
	for _, stop := range via {
		pt, err := p.resolve(ctx, memo, stop)
		if err != nil {
			leg.Unresolved = append(leg.Unresolved, stop)
			continue
		}
		points = append(points, pt)
	}
	end, err := p.resolve(ctx, memo, to)
	if err != nil {
		return fail(err)
	}
	points = append(points, end)

	route, err := p.router.Route(ctx, points)
	if err != nil {
		return fail(err)
	}

	leg.DistanceKm = round2(route.DistanceKm)
	leg.DrivingMinutes = round2(route.Minutes)
	leg.Minutes = round2(route.Minutes * index)
	leg.Polyline = route.Polyline
	return leg
}

// resolve turns an address into a point: frequent places first, then the
// geocoder. Results are memoised for the duration of one plan.
func (p *Planner) resolve(ctx context.Context, memo map[string]Point, address string) (Point, error) {
	key := strings.ToLower(strings.TrimSpace(address))
	if key == "" {
		return Point{}, errors.New("empty address")
	}
	if pt, ok := memo[key]; ok {
		return pt, nil
	}

	if p.places != nil {
		place, err := p.places.FindPlace(ctx, address)
		if err != nil {
			logger.WithContext(ctx).Debug("frequent place lookup failed", zap.Error(err))
		} else if place != nil {
			pt := Point{Lat: place.Lat, Lng: place.Lng}
			memo[key] = pt
			return pt, nil
		}
	}

	loc, err := p.geocoder.Geocode(ctx, address)
	if err != nil {
		return Point{}, err
	}
	memo[key] = loc.Point
	return loc.Point, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
