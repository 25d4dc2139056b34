package importer

import (
	"context"

	"github.com/cesarmartin1/crm-david/internal/customers"
	"github.com/cesarmartin1/crm-david/internal/quotes"
)

// QuoteWriter replaces the quote dataset
type QuoteWriter interface {
	ReplaceAll(ctx context.Context, lines []quotes.QuoteLine) (int, error)
}

// CustomerWriter upserts customer master data
type CustomerWriter interface {
	UpsertCustomers(ctx context.Context, items []customers.Customer) (int, error)
}
