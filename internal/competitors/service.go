package competitors

import (
	"context"
	"strings"
	"time"

	"github.com/cesarmartin1/crm-david/internal/tariffs"
	"github.com/cesarmartin1/crm-david/pkg/common"
	"github.com/cesarmartin1/crm-david/pkg/database"
	"github.com/cesarmartin1/crm-david/pkg/logger"
	"github.com/cesarmartin1/crm-david/pkg/validation"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service handles competitor tracking and market positioning
type Service struct {
	repo     RepositoryInterface
	quoter   Quoter
	alertPct float64
	now      func() time.Time
}

// NewService creates a new competitors service. alertPct <= 0 uses
// DefaultAlertThresholdPct.
func NewService(repo RepositoryInterface, quoter Quoter, alertPct float64) *Service {
	if alertPct <= 0 {
		alertPct = DefaultAlertThresholdPct
	}
	return &Service{repo: repo, quoter: quoter, alertPct: alertPct, now: time.Now}
}

// writeError maps repository write failures to API errors
func writeError(err error, entity string) error {
	switch {
	case err == nil:
		return nil
	case database.IsNoRows(err):
		return common.NewNotFoundError(entity+" not found", err)
	case database.IsUniqueViolation(err):
		return common.NewConflictError(entity + " already exists")
	default:
		return common.NewInternalError("failed to save "+entity, err)
	}
}

// List lists competitors
func (s *Service) List(ctx context.Context, activeOnly bool) ([]Competitor, error) {
	items, err := s.repo.ListCompetitors(ctx, activeOnly)
	if err != nil {
		return nil, common.NewInternalError("failed to list competitors", err)
	}
	return items, nil
}

// Get returns a competitor
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Competitor, error) {
	c, err := s.repo.GetCompetitor(ctx, id)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, common.NewNotFoundError("competitor not found", err)
		}
		return nil, common.NewInternalError("failed to get competitor", err)
	}
	return c, nil
}

// Create creates a competitor
func (s *Service) Create(ctx context.Context, c *Competitor) error {
	c.Name = strings.TrimSpace(c.Name)
	return writeError(s.repo.CreateCompetitor(ctx, c), "competitor")
}

// Update updates a competitor
func (s *Service) Update(ctx context.Context, c *Competitor) error {
	c.Name = strings.TrimSpace(c.Name)
	return writeError(s.repo.UpdateCompetitor(ctx, c), "competitor")
}

// Delete deletes a competitor and its quotes
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := writeError(s.repo.DeleteCompetitor(ctx, id), "competitor"); err != nil {
		return err
	}
	logger.WithContext(ctx).Info("competitor deleted", zap.String("competitor_id", id.String()))
	return nil
}

// Quotes lists the quotes of one competitor
func (s *Service) Quotes(ctx context.Context, competitorID uuid.UUID) ([]Quote, error) {
	if _, err := s.Get(ctx, competitorID); err != nil {
		return nil, err
	}
	return s.listQuotes(ctx, QuoteFilter{CompetitorID: &competitorID})
}

func (s *Service) listQuotes(ctx context.Context, f QuoteFilter) ([]Quote, error) {
	items, err := s.repo.ListQuotes(ctx, f)
	if err != nil {
		return nil, common.NewInternalError("failed to list competitor quotes", err)
	}
	return items, nil
}

// AddQuote registers a price offered by a competitor
func (s *Service) AddQuote(ctx context.Context, competitorID uuid.UUID, req CreateQuoteRequest) (*Quote, error) {
	c, err := s.Get(ctx, competitorID)
	if err != nil {
		return nil, err
	}

	q := &Quote{
		CompetitorID:    competitorID,
		CompetitorName:  c.Name,
		ServiceType:     strings.TrimSpace(req.ServiceType),
		VehicleCategory: NormaliseCategory(req.VehicleCategory),
		Price:           req.Price,
		Hours:           req.Hours,
		Km:              req.Km,
		QuotedOn:        s.now().UTC().Truncate(24 * time.Hour),
		Notes:           req.Notes,
	}
	if req.QuotedOn != "" {
		d, err := time.Parse("2006-01-02", req.QuotedOn)
		if err != nil {
			return nil, common.NewBadRequestError("invalid quoted_on, expected YYYY-MM-DD", err)
		}
		q.QuotedOn = d
	}
	q.NormalisedPrice = Normalise(q.Price, q.VehicleCategory)

	if err := s.repo.CreateQuote(ctx, q); err != nil {
		return nil, common.NewInternalError("failed to save competitor quote", err)
	}
	return q, nil
}

// DeleteQuote deletes a competitor quote
func (s *Service) DeleteQuote(ctx context.Context, id uuid.UUID) error {
	return writeError(s.repo.DeleteQuote(ctx, id), "competitor quote")
}

// Market aggregates quotes per service and category, optionally for one service
func (s *Service) Market(ctx context.Context, serviceType string) ([]MarketStat, error) {
	quotes, err := s.listQuotes(ctx, QuoteFilter{ServiceType: serviceType})
	if err != nil {
		return nil, err
	}
	return MarketStats(quotes), nil
}

// Ranking orders competitors by average normalised price
func (s *Service) Ranking(ctx context.Context) ([]RankingEntry, error) {
	competitors, err := s.List(ctx, false)
	if err != nil {
		return nil, err
	}
	quotes, err := s.listQuotes(ctx, QuoteFilter{})
	if err != nil {
		return nil, err
	}
	return Ranking(competitors, quotes), nil
}

// Position places ownPrice among the competitor quotes of a market
func (s *Service) Position(ctx context.Context, ownPrice float64, serviceType, category string) (*Position, error) {
	if strings.TrimSpace(serviceType) == "" {
		return nil, common.NewBadRequestError("service_type is required", nil)
	}
	category = NormaliseCategory(category)
	quotes, err := s.listQuotes(ctx, QuoteFilter{ServiceType: serviceType, VehicleCategory: category})
	if err != nil {
		return nil, err
	}
	p := PositionOf(ownPrice, serviceType, category, quotes, s.alertPct)
	return &p, nil
}

// Compare prices req with our tariffs and places the result in its market
func (s *Service) Compare(ctx context.Context, req CompareRequest) (*Comparison, error) {
	b := s.quoter.Quote(ctx, tariffs.Input{
		ServiceType:  req.ServiceType,
		VehicleType:  req.VehicleType,
		Hours:        req.Hours,
		Km:           req.Km,
		CustomerCode: req.CustomerCode,
		Date:         s.now(),
	})
	p, err := s.Position(ctx, b.Total, req.ServiceType, req.VehicleCategory)
	if err != nil {
		return nil, err
	}
	return &Comparison{Tariff: b, Position: *p}, nil
}

func vehicleFromRequest(competitorID uuid.UUID, req VehicleRequest) Vehicle {
	v := Vehicle{
		CompetitorID:     competitorID,
		Plate:            strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(req.Plate), " ", "")),
		VehicleType:      strings.ToUpper(strings.TrimSpace(req.VehicleType)),
		Brand:            strings.TrimSpace(req.Brand),
		Model:            strings.TrimSpace(req.Model),
		Seats:            req.Seats,
		RegistrationYear: req.RegistrationYear,
		EmissionLabel:    req.EmissionLabel,
		PMR:              req.PMR,
		WC:               req.WC,
		WiFi:             req.WiFi,
		School:           req.School,
		Notes:            req.Notes,
		IsActive:         true,
	}
	if v.VehicleType == "" {
		v.VehicleType = DefaultVehicleType
	}
	return v
}

func (s *Service) withAge(v *Vehicle) {
	v.Age = nil
	if v.RegistrationYear != nil {
		age := VehicleAge(*v.RegistrationYear, s.now())
		v.Age = &age
	}
}

// Vehicles lists the fleet of a competitor, retired vehicles included when
// includeRetired is set
func (s *Service) Vehicles(ctx context.Context, competitorID uuid.UUID, includeRetired bool) ([]Vehicle, error) {
	if _, err := s.Get(ctx, competitorID); err != nil {
		return nil, err
	}
	items, err := s.repo.ListVehicles(ctx, VehicleFilter{CompetitorID: &competitorID, ActiveOnly: !includeRetired})
	if err != nil {
		return nil, common.NewInternalError("failed to list competitor vehicles", err)
	}
	for i := range items {
		s.withAge(&items[i])
	}
	return items, nil
}

// AddVehicle registers a vehicle in a competitor's fleet
func (s *Service) AddVehicle(ctx context.Context, competitorID uuid.UUID, req VehicleRequest) (*Vehicle, error) {
	c, err := s.Get(ctx, competitorID)
	if err != nil {
		return nil, err
	}
	v := vehicleFromRequest(competitorID, req)
	if err := s.repo.CreateVehicle(ctx, &v); err != nil {
		return nil, common.NewInternalError("failed to save competitor vehicle", err)
	}
	v.CompetitorName = c.Name
	s.withAge(&v)
	return &v, nil
}

// ImportVehicles loads many vehicles of one competitor. Invalid rows are
// reported and skipped; the valid ones are written together.
func (s *Service) ImportVehicles(ctx context.Context, competitorID uuid.UUID, req ImportVehiclesRequest) (*ImportResult, error) {
	if _, err := s.Get(ctx, competitorID); err != nil {
		return nil, err
	}

	result := &ImportResult{Rejected: make([]RowError, 0)}
	vehicles := make([]Vehicle, 0, len(req.Vehicles))
	for i, row := range req.Vehicles {
		if err := validation.ValidateStruct(&row); err != nil {
			result.Rejected = append(result.Rejected, RowError{Row: i + 1, Message: err.Error()})
			continue
		}
		vehicles = append(vehicles, vehicleFromRequest(competitorID, row))
	}

	if len(vehicles) > 0 {
		n, err := s.repo.CreateVehicles(ctx, vehicles)
		if err != nil {
			return nil, common.NewInternalError("failed to import competitor vehicles", err)
		}
		result.Imported = n
	}

	logger.WithContext(ctx).Info("competitor vehicles imported",
		zap.String("competitor_id", competitorID.String()),
		zap.Int("imported", result.Imported),
		zap.Int("rejected", len(result.Rejected)),
	)
	return result, nil
}

// UpdateVehicle replaces the data of a competitor vehicle
func (s *Service) UpdateVehicle(ctx context.Context, id uuid.UUID, req VehicleRequest) (*Vehicle, error) {
	current, err := s.repo.GetVehicle(ctx, id)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, common.NewNotFoundError("competitor vehicle not found", err)
		}
		return nil, common.NewInternalError("failed to get competitor vehicle", err)
	}

	v := vehicleFromRequest(current.CompetitorID, req)
	v.ID = id
	v.CompetitorName = current.CompetitorName
	v.IsActive = current.IsActive
	v.CreatedAt = current.CreatedAt
	if err := writeError(s.repo.UpdateVehicle(ctx, &v), "competitor vehicle"); err != nil {
		return nil, err
	}
	s.withAge(&v)
	return &v, nil
}

// RetireVehicle takes a vehicle out of a competitor's active fleet
func (s *Service) RetireVehicle(ctx context.Context, id uuid.UUID) error {
	return writeError(s.repo.DeactivateVehicle(ctx, id), "competitor vehicle")
}

// FleetStats describes the active fleets of active competitors, or of one
// competitor when competitorID is set
func (s *Service) FleetStats(ctx context.Context, competitorID *uuid.UUID) ([]FleetStat, error) {
	competitors, err := s.List(ctx, true)
	if err != nil {
		return nil, err
	}
	if competitorID != nil {
		kept := make([]Competitor, 0, 1)
		for _, c := range competitors {
			if c.ID == *competitorID {
				kept = append(kept, c)
			}
		}
		competitors = kept
	}

	vehicles, err := s.repo.ListVehicles(ctx, VehicleFilter{CompetitorID: competitorID, ActiveOnly: true})
	if err != nil {
		return nil, common.NewInternalError("failed to list competitor vehicles", err)
	}
	for i := range vehicles {
		s.withAge(&vehicles[i])
	}
	return FleetStats(competitors, vehicles), nil
}

// FleetComparison sets every competitor fleet against the market totals
func (s *Service) FleetComparison(ctx context.Context) (*FleetComparison, error) {
	stats, err := s.FleetStats(ctx, nil)
	if err != nil {
		return nil, err
	}
	cmp := CompareFleets(stats)
	return &cmp, nil
}
