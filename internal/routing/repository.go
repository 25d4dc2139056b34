package routing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cesarmartin1/crm-david/pkg/cache"
	"github.com/cesarmartin1/crm-david/pkg/logger"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const (
	configCacheKey = "routing:config"
	placesCacheKey = "routing:places"
)

// Repository handles calculator config and frequent places
type Repository struct {
	db    *pgxpool.Pool
	cache cache.Store
	ttl   time.Duration
}

// NewRepository creates a new routing repository
func NewRepository(db *pgxpool.Pool, store cache.Store, ttl time.Duration) *Repository {
	return &Repository{db: db, cache: store, ttl: ttl}
}

func (r *Repository) invalidate(ctx context.Context, keys ...string) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Delete(ctx, keys...); err != nil {
		logger.WithContext(ctx).Warn("failed to invalidate routing cache", zap.Error(err))
	}
}

// GetConfig returns every calculator config key
func (r *Repository) GetConfig(ctx context.Context) (map[string]string, error) {
	return cache.GetOrLoad(ctx, r.cache, configCacheKey, r.ttl, func(ctx context.Context) (map[string]string, error) {
		rows, err := r.db.Query(ctx, `SELECT key, value FROM calculator_config`)
		if err != nil {
			return nil, fmt.Errorf("failed to load calculator config: %w", err)
		}
		defer rows.Close()

		out := make(map[string]string)
		for rows.Next() {
			var k, v string
			if err := rows.Scan(&k, &v); err != nil {
				return nil, fmt.Errorf("failed to scan calculator config: %w", err)
			}
			out[k] = v
		}
		return out, rows.Err()
	})
}

// SetConfig upserts the given keys in one batch
func (r *Repository) SetConfig(ctx context.Context, values map[string]string) error {
	if len(values) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for k, v := range values {
		batch.Queue(`
			INSERT INTO calculator_config (key, value, updated_at) VALUES ($1, $2, NOW())
			ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()
		`, k, v)
	}
	if err := r.db.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to save calculator config: %w", err)
	}
	r.invalidate(ctx, configCacheKey)
	return nil
}

// ListPlaces returns every frequent place ordered by name
func (r *Repository) ListPlaces(ctx context.Context) ([]FrequentPlace, error) {
	return cache.GetOrLoad(ctx, r.cache, placesCacheKey, r.ttl, r.loadPlaces)
}

func (r *Repository) loadPlaces(ctx context.Context) ([]FrequentPlace, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, name, address, lat, lng, place_type, created_at, updated_at
		FROM frequent_places ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list frequent places: %w", err)
	}
	defer rows.Close()

	items := make([]FrequentPlace, 0)
	for rows.Next() {
		var p FrequentPlace
		if err := rows.Scan(&p.ID, &p.Name, &p.Address, &p.Lat, &p.Lng, &p.PlaceType, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan frequent place: %w", err)
		}
		items = append(items, p)
	}
	return items, rows.Err()
}

// FindPlace returns the frequent place whose name or address equals name,
// ignoring case, or nil
func (r *Repository) FindPlace(ctx context.Context, name string) (*FrequentPlace, error) {
	places, err := r.ListPlaces(ctx)
	if err != nil {
		return nil, err
	}
	return matchPlace(places, name), nil
}

func matchPlace(places []FrequentPlace, name string) *FrequentPlace {
	needle := strings.TrimSpace(name)
	for i := range places {
		if strings.EqualFold(places[i].Name, needle) || (places[i].Address != "" && strings.EqualFold(places[i].Address, needle)) {
			return &places[i]
		}
	}
	return nil
}

// CreatePlace creates a frequent place
func (r *Repository) CreatePlace(ctx context.Context, p *FrequentPlace) error {
	p.ID = uuid.New()
	err := r.db.QueryRow(ctx, `
		INSERT INTO frequent_places (id, name, address, lat, lng, place_type)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`, p.ID, p.Name, p.Address, p.Lat, p.Lng, p.PlaceType).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create frequent place: %w", err)
	}
	r.invalidate(ctx, placesCacheKey)
	return nil
}

// UpdatePlace updates a frequent place
func (r *Repository) UpdatePlace(ctx context.Context, p *FrequentPlace) error {
	err := r.db.QueryRow(ctx, `
		UPDATE frequent_places SET name = $2, address = $3, lat = $4, lng = $5,
			place_type = $6, updated_at = NOW()
		WHERE id = $1
		RETURNING created_at, updated_at
	`, p.ID, p.Name, p.Address, p.Lat, p.Lng, p.PlaceType).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update frequent place: %w", err)
	}
	r.invalidate(ctx, placesCacheKey)
	return nil
}

// DeletePlace deletes a frequent place
func (r *Repository) DeletePlace(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM frequent_places WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete frequent place: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("failed to delete frequent place: %w", pgx.ErrNoRows)
	}
	r.invalidate(ctx, placesCacheKey)
	return nil
}
