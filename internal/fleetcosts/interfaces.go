package fleetcosts

import (
	"context"

	"github.com/google/uuid"
)

// RepositoryInterface defines the fleet data operations
type RepositoryInterface interface {
	ListVehicles(ctx context.Context, activeOnly bool) ([]Vehicle, error)
	GetVehicle(ctx context.Context, id uuid.UUID) (*Vehicle, error)
	CreateVehicle(ctx context.Context, v *Vehicle) error
	UpdateVehicle(ctx context.Context, v *Vehicle) error
	DeleteVehicle(ctx context.Context, id uuid.UUID) error

	GetYear(ctx context.Context, vehicleID uuid.UUID, year int) (*YearData, error)
	ListYears(ctx context.Context, year int) ([]YearData, error)
	UpsertYear(ctx context.Context, d *YearData) error
}

// CostSink receives operating costs per tariff vehicle type
type CostSink interface {
	SetVehicleTypeCosts(ctx context.Context, code string, costPerHour, costPerKm float64) error
}
