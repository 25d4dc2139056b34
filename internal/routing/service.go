package routing

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/cesarmartin1/crm-david/internal/tariffs"
	"github.com/cesarmartin1/crm-david/pkg/common"
	"github.com/cesarmartin1/crm-david/pkg/database"
	"github.com/cesarmartin1/crm-david/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// QuoteResult is a planned route with its price
type QuoteResult struct {
	Plan  Plan              `json:"plan"`
	Price tariffs.Breakdown `json:"price"`
}

// Service handles route planning and its configuration
type Service struct {
	repo     RepositoryInterface
	planner  *Planner
	geocoder Geocoder
	quoter   Quoter
}

// NewService creates a new routing service
func NewService(repo RepositoryInterface, geocoder Geocoder, router Router, quoter Quoter) *Service {
	return &Service{
		repo:     repo,
		planner:  NewPlanner(geocoder, router, repo),
		geocoder: geocoder,
		quoter:   quoter,
	}
}

// ParseConfig reads calculator config values, keeping defaults for missing
// or malformed keys
func ParseConfig(values map[string]string) CalculatorConfig {
	cfg := DefaultCalculatorConfig()
	cfg.DepotAddress = strings.TrimSpace(values[ConfigDepotAddress])
	if f, err := strconv.ParseFloat(values[ConfigHeavyVehicleIndex], 64); err == nil && f > 0 {
		cfg.HeavyVehicleIndex = f
	}
	if n, err := strconv.Atoi(values[ConfigPresentationMinutes]); err == nil && n >= 0 {
		cfg.PresentationMinutes = n
	}
	if n, err := strconv.Atoi(values[ConfigCleaningMinutes]); err == nil && n >= 0 {
		cfg.CleaningMinutes = n
	}
	return cfg
}

// Config returns the calculator config
func (s *Service) Config(ctx context.Context) (CalculatorConfig, error) {
	values, err := s.repo.GetConfig(ctx)
	if err != nil {
		return CalculatorConfig{}, common.NewInternalError("failed to load calculator config", err)
	}
	return ParseConfig(values), nil
}

func (s *Service) configOrDefault(ctx context.Context) CalculatorConfig {
	cfg, err := s.Config(ctx)
	if err != nil {
		logger.WithContext(ctx).Warn("calculator config unavailable, using defaults", zap.Error(err))
		return DefaultCalculatorConfig()
	}
	return cfg
}

// UpdateConfig stores the non-nil fields of req
func (s *Service) UpdateConfig(ctx context.Context, req UpdateConfigRequest) (CalculatorConfig, error) {
	values := make(map[string]string)
	if req.DepotAddress != nil {
		values[ConfigDepotAddress] = strings.TrimSpace(*req.DepotAddress)
	}
	if req.HeavyVehicleIndex != nil {
		values[ConfigHeavyVehicleIndex] = strconv.FormatFloat(*req.HeavyVehicleIndex, 'f', -1, 64)
	}
	if req.PresentationMinutes != nil {
		values[ConfigPresentationMinutes] = strconv.Itoa(*req.PresentationMinutes)
	}
	if req.CleaningMinutes != nil {
		values[ConfigCleaningMinutes] = strconv.Itoa(*req.CleaningMinutes)
	}
	if err := s.repo.SetConfig(ctx, values); err != nil {
		return CalculatorConfig{}, common.NewInternalError("failed to save calculator config", err)
	}
	return s.Config(ctx)
}

// Plan decomposes req into legs
func (s *Service) Plan(ctx context.Context, req RouteRequest) Plan {
	return s.planner.Plan(ctx, s.configOrDefault(ctx), req)
}

// Quote plans req and prices the resulting hours and km
func (s *Service) Quote(ctx context.Context, req QuoteRequest) (*QuoteResult, error) {
	in := tariffs.Input{
		ServiceType:  req.ServiceType,
		VehicleType:  req.VehicleType,
		CustomerCode: req.CustomerCode,
		ClientType:   req.ClientType,
	}
	if req.ServiceDate != "" {
		d, err := time.Parse("2006-01-02", req.ServiceDate)
		if err != nil {
			return nil, common.NewBadRequestError("invalid service_date, expected YYYY-MM-DD", err)
		}
		in.Date = d
	}

	plan := s.Plan(ctx, req.RouteRequest)
	in.Hours = plan.Hours
	in.Km = plan.TotalKm

	return &QuoteResult{Plan: plan, Price: s.quoter.Quote(ctx, in)}, nil
}

// Geocode resolves a single address
func (s *Service) Geocode(ctx context.Context, address string) (*Location, error) {
	if place, err := s.repo.FindPlace(ctx, address); err == nil && place != nil {
		return &Location{
			Query:   address,
			Address: place.Address,
			Point:   Point{Lat: place.Lat, Lng: place.Lng},
			Source:  "frequent_place",
		}, nil
	}

	loc, err := s.geocoder.Geocode(ctx, address)
	if errors.Is(err, ErrNoMatch) {
		return nil, common.NewNotFoundError("address not found", err)
	}
	if err != nil {
		return nil, common.NewServiceUnavailableError("geocoding service unavailable")
	}
	return loc, nil
}

// ListPlaces returns frequent places whose name or address contains search
func (s *Service) ListPlaces(ctx context.Context, search string) ([]FrequentPlace, error) {
	places, err := s.repo.ListPlaces(ctx)
	if err != nil {
		return nil, common.NewInternalError("failed to list frequent places", err)
	}
	term := strings.ToLower(strings.TrimSpace(search))
	if term == "" {
		return places, nil
	}
	out := make([]FrequentPlace, 0)
	for _, p := range places {
		if strings.Contains(strings.ToLower(p.Name), term) || strings.Contains(strings.ToLower(p.Address), term) {
			out = append(out, p)
		}
	}
	return out, nil
}

// CreatePlace stores a frequent place
func (s *Service) CreatePlace(ctx context.Context, p *FrequentPlace) error {
	if err := s.repo.CreatePlace(ctx, p); err != nil {
		return common.NewInternalError("failed to create frequent place", err)
	}
	return nil
}

// UpdatePlace replaces a frequent place
func (s *Service) UpdatePlace(ctx context.Context, p *FrequentPlace) error {
	if err := s.repo.UpdatePlace(ctx, p); err != nil {
		if database.IsNoRows(err) {
			return common.NewNotFoundError("frequent place not found", err)
		}
		return common.NewInternalError("failed to update frequent place", err)
	}
	return nil
}

// DeletePlace removes a frequent place
func (s *Service) DeletePlace(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.DeletePlace(ctx, id); err != nil {
		if database.IsNoRows(err) {
			return common.NewNotFoundError("frequent place not found", err)
		}
		return common.NewInternalError("failed to delete frequent place", err)
	}
	return nil
}
