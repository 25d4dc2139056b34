package quotes

import "context"

// RepositoryInterface defines the data access needed by the quotes service
type RepositoryInterface interface {
	ListLines(ctx context.Context) ([]QuoteLine, error)
	UpdateStatus(ctx context.Context, quoteCode string, status Status) (int64, error)
	UpdateNotes(ctx context.Context, quoteCode, notes string) (int64, error)
	ReplaceAll(ctx context.Context, lines []QuoteLine) (int, error)
}

// DescriptionSource resolves service type codes to display names
type DescriptionSource interface {
	ServiceTypeDescriptions(ctx context.Context) (map[string]string, error)
}
