package customers

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

const deactivatedCacheKey = "customers:deactivated"

// Repository handles database operations for customers
type Repository struct {
	db    *pgxpool.Pool
	cache cache.Store
	ttl   time.Duration
}

// NewRepository creates a new customers repository
func NewRepository(db *pgxpool.Pool, store cache.Store, ttl time.Duration) *Repository {
	return &Repository{db: db, cache: store, ttl: ttl}
}

const customerColumns = `code, name, tax_id, city, province, country, email, customer_group,
		       client_type_code, created_at, updated_at`

func scanCustomer(row pgx.Row) (*Customer, error) {
	c := &Customer{}
	err := row.Scan(
		&c.Code, &c.Name, &c.TaxID, &c.City, &c.Province, &c.Country, &c.Email, &c.Group,
		&c.ClientTypeCode, &c.CreatedAt, &c.UpdatedAt,
	)
	return c, err
}

// GetCustomer retrieves a customer by code
func (r *Repository) GetCustomer(ctx context.Context, code string) (*Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE code = $1`
	c, err := scanCustomer(r.db.QueryRow(ctx, query, code))
	if err != nil {
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}
	return c, nil
}

// ListCustomers lists customers, optionally filtered by name or code
func (r *Repository) ListCustomers(ctx context.Context, search string, limit, offset int) ([]*Customer, int64, error) {
	where := ""
	args := []interface{}{}
	if search != "" {
		where = "WHERE code ILIKE $1 OR name ILIKE $1"
		args = append(args, "%"+search+"%")
	}

	var total int64
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM customers "+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count customers: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM customers %s ORDER BY name LIMIT $%d OFFSET $%d`,
		customerColumns, where, len(args)+1, len(args)+2)
	rows, err := r.db.Query(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list customers: %w", err)
	}
	defer rows.Close()

	items := make([]*Customer, 0)
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan customer: %w", err)
		}
		items = append(items, c)
	}
	return items, total, rows.Err()
}

// UpsertCustomers inserts or refreshes master records in one batch.
// The client type assignment is preserved.
func (r *Repository) UpsertCustomers(ctx context.Context, customers []Customer) (int, error) {
	query := `
		INSERT INTO customers (code, name, tax_id, city, province, country, email, customer_group)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (code) DO UPDATE SET
			name = EXCLUDED.name, tax_id = EXCLUDED.tax_id, city = EXCLUDED.city,
			province = EXCLUDED.province, country = EXCLUDED.country, email = EXCLUDED.email,
			customer_group = EXCLUDED.customer_group, updated_at = NOW()
	`
	batch := &pgx.Batch{}
	for _, c := range customers {
		batch.Queue(query, c.Code, c.Name, c.TaxID, c.City, c.Province, c.Country, c.Email, c.Group)
	}

	br := r.db.SendBatch(ctx, batch)
	defer br.Close()

	for range customers {
		if _, err := br.Exec(); err != nil {
			return 0, fmt.Errorf("failed to upsert customer: %w", err)
		}
	}
	return len(customers), nil
}

// SetClientType assigns or clears the client type of a customer
func (r *Repository) SetClientType(ctx context.Context, code string, clientTypeCode *string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE customers SET client_type_code = $2, updated_at = NOW() WHERE code = $1`,
		code, clientTypeCode)
	if err != nil {
		return fmt.Errorf("failed to set client type: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("failed to set client type: %w", pgx.ErrNoRows)
	}
	return nil
}

// Deactivate hides a customer from contact lists
func (r *Repository) Deactivate(ctx context.Context, d *Deactivation) error {
	query := `
		INSERT INTO deactivated_customers (customer_code, reason, deactivated_by)
		VALUES ($1, $2, $3)
		ON CONFLICT (customer_code) DO UPDATE SET
			reason = EXCLUDED.reason, deactivated_by = EXCLUDED.deactivated_by, deactivated_at = NOW()
		RETURNING deactivated_at
	`
	if err := r.db.QueryRow(ctx, query, d.CustomerCode, d.Reason, d.DeactivatedBy).Scan(&d.DeactivatedAt); err != nil {
		return fmt.Errorf("failed to deactivate customer: %w", err)
	}
	r.invalidate(ctx)
	return nil
}

// Reactivate removes a deactivation. Returns false when none existed.
func (r *Repository) Reactivate(ctx context.Context, code string) (bool, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM deactivated_customers WHERE customer_code = $1`, code)
	if err != nil {
		return false, fmt.Errorf("failed to reactivate customer: %w", err)
	}
	r.invalidate(ctx)
	return tag.RowsAffected() > 0, nil
}

// ListDeactivated returns every deactivated customer
func (r *Repository) ListDeactivated(ctx context.Context) ([]Deactivation, error) {
	return cache.GetOrLoad(ctx, r.cache, deactivatedCacheKey, r.ttl, func(ctx context.Context) ([]Deactivation, error) {
		rows, err := r.db.Query(ctx, `
			SELECT customer_code, reason, deactivated_by, deactivated_at
			FROM deactivated_customers
			ORDER BY deactivated_at DESC
		`)
		if err != nil {
			return nil, fmt.Errorf("failed to list deactivated customers: %w", err)
		}
		defer rows.Close()

		items := make([]Deactivation, 0)
		for rows.Next() {
			var d Deactivation
			if err := rows.Scan(&d.CustomerCode, &d.Reason, &d.DeactivatedBy, &d.DeactivatedAt); err != nil {
				return nil, fmt.Errorf("failed to scan deactivated customer: %w", err)
			}
			items = append(items, d)
		}
		return items, rows.Err()
	})
}

func (r *Repository) invalidate(ctx context.Context) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Delete(ctx, deactivatedCacheKey); err != nil {
		logger.WithContext(ctx).Warn("failed to invalidate customer cache", zap.Error(err))
	}
}
