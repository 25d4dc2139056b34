package tariffs

import (
	"context"
	"time"

	"github.com/cesarmartin1/crm-david/pkg/common"
	"github.com/cesarmartin1/crm-david/pkg/database"
	"github.com/cesarmartin1/crm-david/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service handles rate tables and price calculation
type Service struct {
	repo RepositoryInterface
	now  func() time.Time
}

// NewService creates a new tariffs service
func NewService(repo RepositoryInterface) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Tables returns every rate table
func (s *Service) Tables(ctx context.Context) (*Tables, error) {
	t, err := s.repo.LoadTables(ctx)
	if err != nil {
		return nil, common.NewInternalError("failed to load rate tables", err)
	}
	return t, nil
}

// ServiceTypeDescriptions maps service type codes to their descriptions
func (s *Service) ServiceTypeDescriptions(ctx context.Context) (map[string]string, error) {
	t, err := s.repo.LoadTables(ctx)
	if err != nil {
		return nil, err
	}
	return t.ServiceTypeDescriptions(), nil
}

// Calculate prices a request
func (s *Service) Calculate(ctx context.Context, req CalculateRequest) (*Breakdown, error) {
	in := Input{
		ServiceType:  req.ServiceType,
		VehicleType:  req.VehicleType,
		Hours:        req.Hours,
		Km:           req.Km,
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
	b := s.Quote(ctx, in)
	return &b, nil
}

// Quote prices in and never fails: unavailable tables price with the
// defaults, and an unknown client type applies no multiplier.
func (s *Service) Quote(ctx context.Context, in Input) Breakdown {
	log := logger.WithContext(ctx)

	t, err := s.repo.LoadTables(ctx)
	if err != nil {
		log.Warn("rate tables unavailable, using default prices", zap.Error(err))
		t = &Tables{}
	}

	if in.ClientType == "" && in.CustomerCode != "" {
		code, err := s.repo.CustomerClientType(ctx, in.CustomerCode)
		if err != nil {
			log.Warn("customer client type unavailable",
				zap.String("customer_code", in.CustomerCode),
				zap.Error(err),
			)
		}
		in.ClientType = code
	}
	if in.Date.IsZero() {
		in.Date = s.now()
	}

	b := Calculate(t, in)
	calculationsTotal.WithLabelValues(string(b.RateSource)).Inc()
	return b
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

// CreateSeason creates a season
func (s *Service) CreateSeason(ctx context.Context, v *Season) error {
	return writeError(s.repo.CreateSeason(ctx, v), "season")
}

// UpdateSeason updates a season
func (s *Service) UpdateSeason(ctx context.Context, v *Season) error {
	return writeError(s.repo.UpdateSeason(ctx, v), "season")
}

// DeleteSeason deletes a season
func (s *Service) DeleteSeason(ctx context.Context, id uuid.UUID) error {
	return writeError(s.repo.DeleteSeason(ctx, id), "season")
}

// CreateVehicleType creates a vehicle type
func (s *Service) CreateVehicleType(ctx context.Context, v *VehicleType) error {
	return writeError(s.repo.CreateVehicleType(ctx, v), "vehicle type")
}

// UpdateVehicleType updates a vehicle type
func (s *Service) UpdateVehicleType(ctx context.Context, v *VehicleType) error {
	return writeError(s.repo.UpdateVehicleType(ctx, v), "vehicle type")
}

// SetVehicleTypeCosts updates the operating costs of a vehicle type
func (s *Service) SetVehicleTypeCosts(ctx context.Context, code string, costPerHour, costPerKm float64) error {
	return writeError(s.repo.SetVehicleTypeCosts(ctx, code, costPerHour, costPerKm), "vehicle type")
}

// DeleteVehicleType deactivates a vehicle type
func (s *Service) DeleteVehicleType(ctx context.Context, id uuid.UUID) error {
	return writeError(s.repo.DeleteVehicleType(ctx, id), "vehicle type")
}

// CreateClientType creates a client type
func (s *Service) CreateClientType(ctx context.Context, v *ClientType) error {
	return writeError(s.repo.CreateClientType(ctx, v), "client type")
}

// UpdateClientType updates a client type
func (s *Service) UpdateClientType(ctx context.Context, v *ClientType) error {
	return writeError(s.repo.UpdateClientType(ctx, v), "client type")
}

// DeleteClientType deletes a client type
func (s *Service) DeleteClientType(ctx context.Context, id uuid.UUID) error {
	return writeError(s.repo.DeleteClientType(ctx, id), "client type")
}

// CreateServiceType creates a service type
func (s *Service) CreateServiceType(ctx context.Context, v *ServiceType) error {
	return writeError(s.repo.CreateServiceType(ctx, v), "service type")
}

// UpdateServiceType updates a service type
func (s *Service) UpdateServiceType(ctx context.Context, v *ServiceType) error {
	return writeError(s.repo.UpdateServiceType(ctx, v), "service type")
}

// DeleteServiceType deletes a service type
func (s *Service) DeleteServiceType(ctx context.Context, id uuid.UUID) error {
	return writeError(s.repo.DeleteServiceType(ctx, id), "service type")
}

// CreateServiceRate creates a service rate
func (s *Service) CreateServiceRate(ctx context.Context, v *ServiceRate) error {
	return writeError(s.repo.CreateServiceRate(ctx, v), "service rate")
}

// UpdateServiceRate updates a service rate
func (s *Service) UpdateServiceRate(ctx context.Context, v *ServiceRate) error {
	return writeError(s.repo.UpdateServiceRate(ctx, v), "service rate")
}

// DeleteServiceRate deletes a service rate
func (s *Service) DeleteServiceRate(ctx context.Context, id uuid.UUID) error {
	return writeError(s.repo.DeleteServiceRate(ctx, id), "service rate")
}

// CreateClientRate creates a client rate
func (s *Service) CreateClientRate(ctx context.Context, v *ClientRate) error {
	return writeError(s.repo.CreateClientRate(ctx, v), "client rate")
}

// UpdateClientRate updates a client rate
func (s *Service) UpdateClientRate(ctx context.Context, v *ClientRate) error {
	return writeError(s.repo.UpdateClientRate(ctx, v), "client rate")
}

// DeleteClientRate deletes a client rate
func (s *Service) DeleteClientRate(ctx context.Context, id uuid.UUID) error {
	return writeError(s.repo.DeleteClientRate(ctx, id), "client rate")
}
