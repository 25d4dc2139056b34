package access

import "context"

// RepositoryInterface defines the permission and access log persistence operations
type RepositoryInterface interface {
	ListOverrides(ctx context.Context, userID string) ([]Permission, error)
	SaveOverrides(ctx context.Context, userID string, perms []Permission, updatedBy string) error
	DeleteOverrides(ctx context.Context, userID string) error

	InsertLogEntry(ctx context.Context, e *LogEntry) error
	ListLog(ctx context.Context, f LogFilter, limit, offset int) ([]LogEntry, int64, error)
}
