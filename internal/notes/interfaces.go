package notes

import (
	"context"

	"github.com/google/uuid"
)

// RepositoryInterface defines the note persistence operations
type RepositoryInterface interface {
	ListNotes(ctx context.Context, f NoteFilter, limit, offset int) ([]Note, int64, error)
	CreateNote(ctx context.Context, n *Note) error
	DeleteNote(ctx context.Context, id uuid.UUID) error
}

// HighlightStoreInterface defines the highlight persistence operations
type HighlightStoreInterface interface {
	MarkQuote(ctx context.Context, h *HighlightedQuote) error
	UnmarkQuote(ctx context.Context, quoteCode string) (bool, error)
	GetQuote(ctx context.Context, quoteCode string) (*HighlightedQuote, error)
	ListQuotes(ctx context.Context) ([]HighlightedQuote, error)

	MarkCustomer(ctx context.Context, h *HighlightedCustomer) error
	UnmarkCustomer(ctx context.Context, customerCode string) (bool, error)
	GetCustomer(ctx context.Context, customerCode string) (*HighlightedCustomer, error)
	ListCustomers(ctx context.Context) ([]HighlightedCustomer, error)
}
