package notes

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// markedAtLayout keeps timestamps sortable as text
const markedAtLayout = "2006-01-02T15:04:05Z"

const highlightSchema = `
CREATE TABLE IF NOT EXISTS highlighted_quotes (
	quote_code TEXT PRIMARY KEY,
	priority   INTEGER NOT NULL DEFAULT 1,
	note       TEXT NOT NULL DEFAULT '',
	marked_at  TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS highlighted_customers (
	customer_code TEXT PRIMARY KEY,
	customer_name TEXT NOT NULL DEFAULT '',
	priority      INTEGER NOT NULL DEFAULT 1,
	note          TEXT NOT NULL DEFAULT '',
	marked_at     TEXT NOT NULL
);`

// HighlightStore keeps highlighted quotes and customers in the local
// SQLite file, available even when Postgres is not
type HighlightStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewHighlightStore creates a highlight store over db
func NewHighlightStore(db *sql.DB) *HighlightStore {
	return &HighlightStore{db: db, now: time.Now}
}

// EnsureSchema creates the highlight tables when missing
func (s *HighlightStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, highlightSchema); err != nil {
		return fmt.Errorf("failed to create highlight tables: %w", err)
	}
	return nil
}

func (s *HighlightStore) stamp() string {
	return s.now().UTC().Format(markedAtLayout)
}

func parseMarkedAt(v string) time.Time {
	t, err := time.Parse(markedAtLayout, v)
	if err != nil {
		return time.Time{}
	}
	return t
}

// MarkQuote highlights a quote, replacing an earlier mark
func (s *HighlightStore) MarkQuote(ctx context.Context, h *HighlightedQuote) error {
	stamp := s.stamp()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO highlighted_quotes (quote_code, priority, note, marked_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (quote_code) DO UPDATE SET
			priority = excluded.priority, note = excluded.note, marked_at = excluded.marked_at
	`, h.QuoteCode, h.Priority, h.Note, stamp)
	if err != nil {
		return fmt.Errorf("failed to mark quote: %w", err)
	}
	h.MarkedAt = parseMarkedAt(stamp)
	return nil
}

// UnmarkQuote removes a quote highlight, reporting whether one existed
func (s *HighlightStore) UnmarkQuote(ctx context.Context, quoteCode string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM highlighted_quotes WHERE quote_code = ?`, quoteCode)
	if err != nil {
		return false, fmt.Errorf("failed to unmark quote: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to unmark quote: %w", err)
	}
	return n > 0, nil
}

// GetQuote returns the highlight of a quote, nil when it is not highlighted
func (s *HighlightStore) GetQuote(ctx context.Context, quoteCode string) (*HighlightedQuote, error) {
	var h HighlightedQuote
	var markedAt string
	err := s.db.QueryRowContext(ctx, `
		SELECT quote_code, priority, note, marked_at FROM highlighted_quotes WHERE quote_code = ?
	`, quoteCode).Scan(&h.QuoteCode, &h.Priority, &h.Note, &markedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get highlighted quote: %w", err)
	}
	h.MarkedAt = parseMarkedAt(markedAt)
	return &h, nil
}

// ListQuotes lists highlighted quotes by priority, then most recent
func (s *HighlightStore) ListQuotes(ctx context.Context) ([]HighlightedQuote, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT quote_code, priority, note, marked_at FROM highlighted_quotes
		ORDER BY priority DESC, marked_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list highlighted quotes: %w", err)
	}
	defer rows.Close()

	items := make([]HighlightedQuote, 0)
	for rows.Next() {
		var h HighlightedQuote
		var markedAt string
		if err := rows.Scan(&h.QuoteCode, &h.Priority, &h.Note, &markedAt); err != nil {
			return nil, fmt.Errorf("failed to scan highlighted quote: %w", err)
		}
		h.MarkedAt = parseMarkedAt(markedAt)
		items = append(items, h)
	}
	return items, rows.Err()
}

// MarkCustomer highlights a customer, replacing an earlier mark
func (s *HighlightStore) MarkCustomer(ctx context.Context, h *HighlightedCustomer) error {
	stamp := s.stamp()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO highlighted_customers (customer_code, customer_name, priority, note, marked_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (customer_code) DO UPDATE SET
			customer_name = excluded.customer_name, priority = excluded.priority,
			note = excluded.note, marked_at = excluded.marked_at
	`, h.CustomerCode, h.CustomerName, h.Priority, h.Note, stamp)
	if err != nil {
		return fmt.Errorf("failed to mark customer: %w", err)
	}
	h.MarkedAt = parseMarkedAt(stamp)
	return nil
}

// UnmarkCustomer removes a customer highlight, reporting whether one existed
func (s *HighlightStore) UnmarkCustomer(ctx context.Context, customerCode string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM highlighted_customers WHERE customer_code = ?`, customerCode)
	if err != nil {
		return false, fmt.Errorf("failed to unmark customer: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to unmark customer: %w", err)
	}
	return n > 0, nil
}

// GetCustomer returns the highlight of a customer, nil when it is not highlighted
func (s *HighlightStore) GetCustomer(ctx context.Context, customerCode string) (*HighlightedCustomer, error) {
	var h HighlightedCustomer
	var markedAt string
	err := s.db.QueryRowContext(ctx, `
		SELECT customer_code, customer_name, priority, note, marked_at
		FROM highlighted_customers WHERE customer_code = ?
	`, customerCode).Scan(&h.CustomerCode, &h.CustomerName, &h.Priority, &h.Note, &markedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get highlighted customer: %w", err)
	}
	h.MarkedAt = parseMarkedAt(markedAt)
	return &h, nil
}

// ListCustomers lists highlighted customers by priority, then most recent
func (s *HighlightStore) ListCustomers(ctx context.Context) ([]HighlightedCustomer, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT customer_code, customer_name, priority, note, marked_at FROM highlighted_customers
		ORDER BY priority DESC, marked_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list highlighted customers: %w", err)
	}
	defer rows.Close()

	items := make([]HighlightedCustomer, 0)
	for rows.Next() {
		var h HighlightedCustomer
		var markedAt string
		if err := rows.Scan(&h.CustomerCode, &h.CustomerName, &h.Priority, &h.Note, &markedAt); err != nil {
			return nil, fmt.Errorf("failed to scan highlighted customer: %w", err)
		}
		h.MarkedAt = parseMarkedAt(markedAt)
		items = append(items, h)
	}
	return items, rows.Err()
}
