package quotes

import (
	"context"
	"fmt"
	"time"

	"github.com/cesarmartin1/crm-david/pkg/cache"
	"github.com/cesarmartin1/crm-david/pkg/logger"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const linesCacheKey = "quotes:lines"

var lineColumns = []string{
	"quote_code", "customer_code", "customer_name", "customer_group", "status",
	"created_on", "service_date", "amount", "agent", "service_type",
	"contact_method", "source", "email", "phone", "mobile", "notes",
}

// Repository handles database operations for quote lines. The full line set
// is cached for ttl and dropped on every write.
type Repository struct {
	db    *pgxpool.Pool
	cache cache.Store
	ttl   time.Duration
}

// NewRepository creates a new quotes repository
func NewRepository(db *pgxpool.Pool, store cache.Store, ttl time.Duration) *Repository {
	return &Repository{db: db, cache: store, ttl: ttl}
}

// ListLines returns every quote line
func (r *Repository) ListLines(ctx context.Context) ([]QuoteLine, error) {
	return cache.GetOrLoad(ctx, r.cache, linesCacheKey, r.ttl, r.loadLines)
}

func (r *Repository) loadLines(ctx context.Context) ([]QuoteLine, error) {
	query := `
		SELECT id, quote_code, customer_code, customer_name, customer_group, status,
		       created_on, service_date, amount::float8, agent, service_type,
		       contact_method, source, email, phone, mobile, notes
		FROM quote_lines
		ORDER BY created_on DESC NULLS LAST, quote_code, id
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list quote lines: %w", err)
	}
	defer rows.Close()

	lines := make([]QuoteLine, 0)
	for rows.Next() {
		var l QuoteLine
		var status string
		err := rows.Scan(
			&l.ID, &l.QuoteCode, &l.CustomerCode, &l.CustomerName, &l.CustomerGroup, &status,
			&l.CreatedAt, &l.ServiceDate, &l.Amount, &l.Agent, &l.ServiceType,
			&l.ContactMethod, &l.Source, &l.Email, &l.Phone, &l.Mobile, &l.Notes,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan quote line: %w", err)
		}
		l.Status = Status(status)
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate quote lines: %w", err)
	}
	return lines, nil
}

// UpdateStatus sets the status of every line of a quote
func (r *Repository) UpdateStatus(ctx context.Context, quoteCode string, status Status) (int64, error) {
	tag, err := r.db.Exec(ctx, `UPDATE quote_lines SET status = $2 WHERE quote_code = $1`, quoteCode, string(status))
	if err != nil {
		return 0, fmt.Errorf("failed to update quote status: %w", err)
	}
	r.invalidate(ctx)
	return tag.RowsAffected(), nil
}

// UpdateNotes sets the notes of every line of a quote
func (r *Repository) UpdateNotes(ctx context.Context, quoteCode, notes string) (int64, error) {
	tag, err := r.db.Exec(ctx, `UPDATE quote_lines SET notes = $2 WHERE quote_code = $1`, quoteCode, notes)
	if err != nil {
		return 0, fmt.Errorf("failed to update quote notes: %w", err)
	}
	r.invalidate(ctx)
	return tag.RowsAffected(), nil
}

// ReplaceAll swaps the whole dataset for lines in one transaction
func (r *Repository) ReplaceAll(ctx context.Context, lines []QuoteLine) (int, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM quote_lines`); err != nil {
		return 0, fmt.Errorf("failed to clear quote lines: %w", err)
	}

	n, err := tx.CopyFrom(ctx, pgx.Identifier{"quote_lines"}, lineColumns,
		pgx.CopyFromSlice(len(lines), func(i int) ([]any, error) {
			l := lines[i]
			return []any{
				l.QuoteCode, l.CustomerCode, l.CustomerName, l.CustomerGroup, string(l.Status),
				l.CreatedAt, l.ServiceDate, l.Amount, l.Agent, l.ServiceType,
				l.ContactMethod, l.Source, l.Email, l.Phone, l.Mobile, l.Notes,
			}, nil
		}),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to copy quote lines: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit quote import: %w", err)
	}
	r.invalidate(ctx)
	return int(n), nil
}

func (r *Repository) invalidate(ctx context.Context) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Delete(ctx, linesCacheKey); err != nil {
		logger.WithContext(ctx).Warn("failed to invalidate quote cache", zap.Error(err))
	}
}
