package customers

import (
	"context"

	"github.com/cesarmartin1/crm-david/internal/quotes"
)

// RepositoryInterface defines the customer master data operations
type RepositoryInterface interface {
	GetCustomer(ctx context.Context, code string) (*Customer, error)
	ListCustomers(ctx context.Context, search string, limit, offset int) ([]*Customer, int64, error)
	UpsertCustomers(ctx context.Context, customers []Customer) (int, error)
	SetClientType(ctx context.Context, code string, clientTypeCode *string) error
	Deactivate(ctx context.Context, d *Deactivation) error
	Reactivate(ctx context.Context, code string) (bool, error)
	ListDeactivated(ctx context.Context) ([]Deactivation, error)
}

// LineSource provides the quote lines customers are derived from
type LineSource interface {
	ListLines(ctx context.Context) ([]quotes.QuoteLine, error)
}
