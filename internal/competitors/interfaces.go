package competitors

import (
	"context"

	"github.com/cesarmartin1/crm-david/internal/tariffs"
	"github.com/google/uuid"
)

// RepositoryInterface defines the competitor persistence operations
type RepositoryInterface interface {
	ListCompetitors(ctx context.Context, activeOnly bool) ([]Competitor, error)
	GetCompetitor(ctx context.Context, id uuid.UUID) (*Competitor, error)
	CreateCompetitor(ctx context.Context, c *Competitor) error
	UpdateCompetitor(ctx context.Context, c *Competitor) error
	DeleteCompetitor(ctx context.Context, id uuid.UUID) error

	ListQuotes(ctx context.Context, f QuoteFilter) ([]Quote, error)
	CreateQuote(ctx context.Context, q *Quote) error
	DeleteQuote(ctx context.Context, id uuid.UUID) error

	ListVehicles(ctx context.Context, f VehicleFilter) ([]Vehicle, error)
	GetVehicle(ctx context.Context, id uuid.UUID) (*Vehicle, error)
	CreateVehicle(ctx context.Context, v *Vehicle) error
	CreateVehicles(ctx context.Context, vehicles []Vehicle) (int, error)
	UpdateVehicle(ctx context.Context, v *Vehicle) error
	DeactivateVehicle(ctx context.Context, id uuid.UUID) error
}

// Quoter prices a service with our own tariffs
type Quoter interface {
	Quote(ctx context.Context, in tariffs.Input) tariffs.Breakdown
}
