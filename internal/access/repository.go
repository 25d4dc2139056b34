package access

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

const overridesCachePrefix = "access:overrides:"

// Repository handles database operations for section permissions and the
// access log. Overrides are read on every guarded request and cached per user.
type Repository struct {
	db    *pgxpool.Pool
	cache cache.Store
	ttl   time.Duration
}

// NewRepository creates a new access repository
func NewRepository(db *pgxpool.Pool, store cache.Store, ttl time.Duration) *Repository {
	return &Repository{db: db, cache: store, ttl: ttl}
}

// ListOverrides returns the permissions stored for userID
func (r *Repository) ListOverrides(ctx context.Context, userID string) ([]Permission, error) {
	return cache.GetOrLoad(ctx, r.cache, overridesCachePrefix+userID, r.ttl, func(ctx context.Context) ([]Permission, error) {
		rows, err := r.db.Query(ctx, `
			SELECT section, can_view, can_edit
			FROM section_permissions
			WHERE user_id = $1
			ORDER BY section
		`, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to list section permissions: %w", err)
		}
		defer rows.Close()

		items := make([]Permission, 0)
		for rows.Next() {
			var p Permission
			if err := rows.Scan(&p.Section, &p.CanView, &p.CanEdit); err != nil {
				return nil, fmt.Errorf("failed to scan section permission: %w", err)
			}
			items = append(items, p)
		}
		return items, rows.Err()
	})
}

// SaveOverrides upserts the permissions of userID in one transaction
func (r *Repository) SaveOverrides(ctx context.Context, userID string, perms []Permission, updatedBy string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, p := range perms {
		batch.Queue(`
			INSERT INTO section_permissions (user_id, section, can_view, can_edit, updated_by)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (user_id, section) DO UPDATE
			SET can_view = EXCLUDED.can_view, can_edit = EXCLUDED.can_edit,
			    updated_by = EXCLUDED.updated_by, updated_at = NOW()
		`, userID, p.Section, p.CanView, p.CanEdit, updatedBy)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to save section permissions: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit section permissions: %w", err)
	}
	r.invalidate(ctx, userID)
	return nil
}

// DeleteOverrides drops every stored permission of userID
func (r *Repository) DeleteOverrides(ctx context.Context, userID string) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM section_permissions WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("failed to delete section permissions: %w", err)
	}
	r.invalidate(ctx, userID)
	return nil
}

func (r *Repository) invalidate(ctx context.Context, userID string) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Delete(ctx, overridesCachePrefix+userID); err != nil {
		logger.WithContext(ctx).Warn("failed to invalidate permission cache", zap.Error(err))
	}
}

// InsertLogEntry appends an entry to the access log
func (r *Repository) InsertLogEntry(ctx context.Context, e *LogEntry) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO access_log (user_id, email, role, action, section, method, route, status, correlation_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at
	`, e.UserID, e.Email, e.Role, e.Action, e.Section, e.Method, e.Route, e.Status, e.CorrelationID,
	).Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert access log entry: %w", err)
	}
	return nil
}

const logWhere = `
		WHERE ($1 = '' OR user_id = $1)
		  AND ($2 = '' OR action = $2)
		  AND ($3 = '' OR section = $3)`

// ListLog lists one page of the access log, newest first, and the number of
// matching entries
func (r *Repository) ListLog(ctx context.Context, f LogFilter, limit, offset int) ([]LogEntry, int64, error) {
	args := []interface{}{f.UserID, f.Action, f.Section}

	var total int64
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM access_log"+logWhere, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count access log: %w", err)
	}

	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, email, role, action, section, method, route, status, correlation_id, created_at
		FROM access_log`+logWhere+`
		ORDER BY created_at DESC, id DESC
		LIMIT $4 OFFSET $5
	`, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list access log: %w", err)
	}
	defer rows.Close()

	items := make([]LogEntry, 0)
	for rows.Next() {
		var e LogEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.Email, &e.Role, &e.Action, &e.Section, &e.Method,
			&e.Route, &e.Status, &e.CorrelationID, &e.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("failed to scan access log entry: %w", err)
		}
		items = append(items, e)
	}
	return items, total, rows.Err()
}
