package tariffs

import (
	"context"

	"github.com/google/uuid"
)

// RepositoryInterface defines the rate table operations
type RepositoryInterface interface {
	LoadTables(ctx context.Context) (*Tables, error)
	CustomerClientType(ctx context.Context, customerCode string) (string, error)

	CreateSeason(ctx context.Context, s *Season) error
	UpdateSeason(ctx context.Context, s *Season) error
	DeleteSeason(ctx context.Context, id uuid.UUID) error

	CreateVehicleType(ctx context.Context, v *VehicleType) error
	UpdateVehicleType(ctx context.Context, v *VehicleType) error
	DeleteVehicleType(ctx context.Context, id uuid.UUID) error
	SetVehicleTypeCosts(ctx context.Context, code string, costPerHour, costPerKm float64) error

	CreateClientType(ctx context.Context, ct *ClientType) error
	UpdateClientType(ctx context.Context, ct *ClientType) error
	DeleteClientType(ctx context.Context, id uuid.UUID) error

	CreateServiceType(ctx context.Context, st *ServiceType) error
	UpdateServiceType(ctx context.Context, st *ServiceType) error
	DeleteServiceType(ctx context.Context, id uuid.UUID) error

	CreateServiceRate(ctx context.Context, r *ServiceRate) error
	UpdateServiceRate(ctx context.Context, r *ServiceRate) error
	DeleteServiceRate(ctx context.Context, id uuid.UUID) error

	CreateClientRate(ctx context.Context, r *ClientRate) error
	UpdateClientRate(ctx context.Context, r *ClientRate) error
	DeleteClientRate(ctx context.Context, id uuid.UUID) error
}
