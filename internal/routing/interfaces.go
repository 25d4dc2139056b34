package routing

import (
	"context"

	"github.com/cesarmartin1/crm-david/internal/tariffs"
	"github.com/google/uuid"
)

// RepositoryInterface defines calculator config and frequent place storage
type RepositoryInterface interface {
	PlaceLookup
	GetConfig(ctx context.Context) (map[string]string, error)
	SetConfig(ctx context.Context, values map[string]string) error
	ListPlaces(ctx context.Context) ([]FrequentPlace, error)
	CreatePlace(ctx context.Context, p *FrequentPlace) error
	UpdatePlace(ctx context.Context, p *FrequentPlace) error
	DeletePlace(ctx context.Context, id uuid.UUID) error
}

// Quoter prices planned hours and km
type Quoter interface {
	Quote(ctx context.Context, in tariffs.Input) tariffs.Breakdown
}
