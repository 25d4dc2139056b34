package fleetcosts

import (
	"context"
	"strings"
	"time"

	"github.com/cesarmartin1/crm-david/pkg/common"
	"github.com/cesarmartin1/crm-david/pkg/database"
	"github.com/cesarmartin1/crm-david/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service handles fleet cost figures
type Service struct {
	repo RepositoryInterface
	sink CostSink
	now  func() time.Time
}

// NewService creates a new fleet cost service. sink receives vehicle type
// costs on ApplyVehicleTypeCosts.
func NewService(repo RepositoryInterface, sink CostSink) *Service {
	return &Service{repo: repo, sink: sink, now: time.Now}
}

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

func (s *Service) yearOrCurrent(year int) int {
	if year == 0 {
		return s.now().Year()
	}
	return year
}

func validYear(year int) error {
	if year < 2000 || year > 2100 {
		return common.NewBadRequestError("year must be between 2000 and 2100", nil)
	}
	return nil
}

// ListVehicles lists the fleet
func (s *Service) ListVehicles(ctx context.Context, activeOnly bool) ([]Vehicle, error) {
	items, err := s.repo.ListVehicles(ctx, activeOnly)
	if err != nil {
		return nil, common.NewInternalError("failed to list vehicles", err)
	}
	return items, nil
}

// GetVehicle returns a vehicle
func (s *Service) GetVehicle(ctx context.Context, id uuid.UUID) (*Vehicle, error) {
	v, err := s.repo.GetVehicle(ctx, id)
	if database.IsNoRows(err) {
		return nil, common.NewNotFoundError("vehicle not found", err)
	}
	if err != nil {
		return nil, common.NewInternalError("failed to get vehicle", err)
	}
	return v, nil
}

func applyVehicleRequest(v *Vehicle, req VehicleRequest) {
	v.Plate = strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(req.Plate), " ", ""))
	v.Brand = strings.TrimSpace(req.Brand)
	v.Model = strings.TrimSpace(req.Model)
	v.Seats = req.Seats
	v.VehicleTypeCode = req.VehicleTypeCode
	if req.IsActive != nil {
		v.IsActive = *req.IsActive
	}
}

// CreateVehicle adds a vehicle. Plates are stored upper-cased without spaces.
func (s *Service) CreateVehicle(ctx context.Context, req VehicleRequest) (*Vehicle, error) {
	v := &Vehicle{ID: uuid.New(), IsActive: true}
	applyVehicleRequest(v, req)
	if err := writeError(s.repo.CreateVehicle(ctx, v), "vehicle"); err != nil {
		return nil, err
	}
	return v, nil
}

// UpdateVehicle changes a vehicle
func (s *Service) UpdateVehicle(ctx context.Context, id uuid.UUID, req VehicleRequest) (*Vehicle, error) {
	v, err := s.GetVehicle(ctx, id)
	if err != nil {
		return nil, err
	}
	applyVehicleRequest(v, req)
	if err := writeError(s.repo.UpdateVehicle(ctx, v), "vehicle"); err != nil {
		return nil, err
	}
	return v, nil
}

// DeleteVehicle retires a vehicle
func (s *Service) DeleteVehicle(ctx context.Context, id uuid.UUID) error {
	return writeError(s.repo.DeleteVehicle(ctx, id), "vehicle")
}

// SetYear stores the figures of a vehicle for a fiscal year and returns its summary
func (s *Service) SetYear(ctx context.Context, id uuid.UUID, year int, req YearDataRequest) (*VehicleSummary, error) {
	if err := validYear(year); err != nil {
		return nil, err
	}
	v, err := s.GetVehicle(ctx, id)
	if err != nil {
		return nil, err
	}
	d := &YearData{
		VehicleID:       id,
		Year:            year,
		AnnualKm:        req.AnnualKm,
		ServiceHours:    req.ServiceHours,
		StaffHourlyCost: req.StaffHourlyCost,
		Acquisition:     req.Acquisition,
		Financing:       req.Financing,
		Insurance:       req.Insurance,
		Taxes:           req.Taxes,
		Maintenance:     req.Maintenance,
		Fuel:            req.Fuel,
		Tyres:           req.Tyres,
		Urea:            req.Urea,
	}
	if err := s.repo.UpsertYear(ctx, d); err != nil {
		return nil, common.NewInternalError("failed to save vehicle year", err)
	}
	summary := Summarize(*d)
	return &VehicleSummary{Vehicle: *v, Data: d, Summary: &summary}, nil
}

// VehicleSummary returns the cost summary of a vehicle for year
func (s *Service) VehicleSummary(ctx context.Context, id uuid.UUID, year int) (*VehicleSummary, error) {
	year = s.yearOrCurrent(year)
	if err := validYear(year); err != nil {
		return nil, err
	}
	v, err := s.GetVehicle(ctx, id)
	if err != nil {
		return nil, err
	}
	d, err := s.repo.GetYear(ctx, id, year)
	if err != nil {
		return nil, common.NewInternalError("failed to get vehicle year", err)
	}
	out := &VehicleSummary{Vehicle: *v, Data: d}
	if d != nil {
		summary := Summarize(*d)
		out.Summary = &summary
	}
	return out, nil
}

func (s *Service) activeRows(ctx context.Context, year int) ([]VehicleSummary, error) {
	vehicles, err := s.repo.ListVehicles(ctx, true)
	if err != nil {
		return nil, common.NewInternalError("failed to list vehicles", err)
	}
	years, err := s.repo.ListYears(ctx, year)
	if err != nil {
		return nil, common.NewInternalError("failed to list vehicle years", err)
	}
	byVehicle := make(map[uuid.UUID]YearData, len(years))
	for _, d := range years {
		byVehicle[d.VehicleID] = d
	}

	rows := make([]VehicleSummary, 0, len(vehicles))
	for _, v := range vehicles {
		row := VehicleSummary{Vehicle: v}
		if d, ok := byVehicle[v.ID]; ok {
			summary := Summarize(d)
			row.Data = &d
			row.Summary = &summary
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// FleetSummary lists the active vehicles with their costs for year
func (s *Service) FleetSummary(ctx context.Context, year int) (*FleetSummary, error) {
	year = s.yearOrCurrent(year)
	if err := validYear(year); err != nil {
		return nil, err
	}
	rows, err := s.activeRows(ctx, year)
	if err != nil {
		return nil, err
	}
	return &FleetSummary{Year: year, Vehicles: rows, Totals: Totals(rows)}, nil
}

// VehicleTypeCosts computes operating costs per tariff vehicle type for year
func (s *Service) VehicleTypeCosts(ctx context.Context, year int) ([]VehicleTypeCost, error) {
	year = s.yearOrCurrent(year)
	if err := validYear(year); err != nil {
		return nil, err
	}
	rows, err := s.activeRows(ctx, year)
	if err != nil {
		return nil, err
	}
	return VehicleTypeCosts(rows), nil
}

// ApplyVehicleTypeCosts writes the costs of year into the tariff vehicle
// types. A type the sink rejects is reported and the rest still apply.
func (s *Service) ApplyVehicleTypeCosts(ctx context.Context, year int) (*ApplyResult, error) {
	costs, err := s.VehicleTypeCosts(ctx, year)
	if err != nil {
		return nil, err
	}
	res := &ApplyResult{Year: s.yearOrCurrent(year), Applied: make([]VehicleTypeCost, 0, len(costs)), Failed: make([]string, 0)}
	for _, c := range costs {
		if err := s.sink.SetVehicleTypeCosts(ctx, c.VehicleTypeCode, c.CostPerHour, c.CostPerKm); err != nil {
			logger.WithContext(ctx).Warn("failed to apply vehicle type costs",
				zap.String("vehicle_type", c.VehicleTypeCode),
				zap.Error(err),
			)
			res.Failed = append(res.Failed, c.VehicleTypeCode)
			continue
		}
		res.Applied = append(res.Applied, c)
	}
	logger.WithContext(ctx).Info("vehicle type costs applied",
		zap.Int("year", res.Year),
		zap.Int("applied", len(res.Applied)),
		zap.Int("failed", len(res.Failed)),
	)
	return res, nil
}
