package tariffs

import (
	"context"
	"fmt"
	"time"

	"github.com/cesarmartin1/crm-david/pkg/cache"
	"github.com/cesarmartin1/crm-david/pkg/database"
	"github.com/cesarmartin1/crm-david/pkg/logger"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const tablesCacheKey = "tariffs:tables"

// Repository handles database operations for the rate tables. All tables
// are cached together and dropped on any write.
type Repository struct {
	db    *pgxpool.Pool
	cache cache.Store
	ttl   time.Duration
}

// NewRepository creates a new tariffs repository
func NewRepository(db *pgxpool.Pool, store cache.Store, ttl time.Duration) *Repository {
	return &Repository{db: db, cache: store, ttl: ttl}
}

// LoadTables returns every rate table
func (r *Repository) LoadTables(ctx context.Context) (*Tables, error) {
	return cache.GetOrLoad(ctx, r.cache, tablesCacheKey, r.ttl, r.loadTables)
}

func (r *Repository) loadTables(ctx context.Context) (*Tables, error) {
	t := &Tables{}
	var err error

	if t.Seasons, err = r.listSeasons(ctx); err != nil {
		return nil, err
	}
	if t.VehicleTypes, err = r.listVehicleTypes(ctx); err != nil {
		return nil, err
	}
	if t.ClientTypes, err = r.listClientTypes(ctx); err != nil {
		return nil, err
	}
	if t.ServiceTypes, err = r.listServiceTypes(ctx); err != nil {
		return nil, err
	}
	if t.ServiceRates, err = r.listServiceRates(ctx); err != nil {
		return nil, err
	}
	if t.ClientRates, err = r.listClientRates(ctx); err != nil {
		return nil, err
	}
	return t, nil
}

// CustomerClientType returns the client type assigned to a customer, or ""
func (r *Repository) CustomerClientType(ctx context.Context, customerCode string) (string, error) {
	var code *string
	err := r.db.QueryRow(ctx, `SELECT client_type_code FROM customers WHERE code = $1`, customerCode).Scan(&code)
	if database.IsNoRows(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get customer client type: %w", err)
	}
	if code == nil {
		return "", nil
	}
	return *code, nil
}

func (r *Repository) invalidate(ctx context.Context) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Delete(ctx, tablesCacheKey); err != nil {
		logger.WithContext(ctx).Warn("failed to invalidate tariff cache", zap.Error(err))
	}
}

// afterWrite checks that a write touched a row and drops the cache
func (r *Repository) afterWrite(ctx context.Context, tag pgconn.CommandTag, err error, what string) error {
	if err != nil {
		return fmt.Errorf("failed to %s: %w", what, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("failed to %s: %w", what, pgx.ErrNoRows)
	}
	r.invalidate(ctx)
	return nil
}

func (r *Repository) listSeasons(ctx context.Context) ([]Season, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, name, start_day, end_day, multiplier::float8, is_active, created_at, updated_at
		FROM seasons ORDER BY start_day, name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list seasons: %w", err)
	}
	defer rows.Close()

	items := make([]Season, 0)
	for rows.Next() {
		var s Season
		if err := rows.Scan(&s.ID, &s.Name, &s.StartDay, &s.EndDay, &s.Multiplier, &s.IsActive, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan season: %w", err)
		}
		items = append(items, s)
	}
	return items, rows.Err()
}

// CreateSeason creates a new season
func (r *Repository) CreateSeason(ctx context.Context, s *Season) error {
	s.ID = uuid.New()
	err := r.db.QueryRow(ctx, `
		INSERT INTO seasons (id, name, start_day, end_day, multiplier, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`, s.ID, s.Name, s.StartDay, s.EndDay, s.Multiplier, s.IsActive).Scan(&s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create season: %w", err)
	}
	r.invalidate(ctx)
	return nil
}

// UpdateSeason updates a season
func (r *Repository) UpdateSeason(ctx context.Context, s *Season) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE seasons SET name = $2, start_day = $3, end_day = $4, multiplier = $5,
			is_active = $6, updated_at = NOW()
		WHERE id = $1
	`, s.ID, s.Name, s.StartDay, s.EndDay, s.Multiplier, s.IsActive)
	return r.afterWrite(ctx, tag, err, "update season")
}

// DeleteSeason deletes a season
func (r *Repository) DeleteSeason(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM seasons WHERE id = $1`, id)
	return r.afterWrite(ctx, tag, err, "delete season")
}

func (r *Repository) listVehicleTypes(ctx context.Context) ([]VehicleType, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, code, name, capacity, base_price::float8, price_per_hour::float8,
		       price_per_km::float8, minimum_price::float8, cost_per_hour::float8,
		       cost_per_km::float8, is_active, created_at, updated_at
		FROM vehicle_types ORDER BY capacity, code
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list vehicle types: %w", err)
	}
	defer rows.Close()

	items := make([]VehicleType, 0)
	for rows.Next() {
		var v VehicleType
		err := rows.Scan(
			&v.ID, &v.Code, &v.Name, &v.Capacity, &v.BasePrice, &v.PricePerHour,
			&v.PricePerKm, &v.MinimumPrice, &v.CostPerHour, &v.CostPerKm,
			&v.IsActive, &v.CreatedAt, &v.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan vehicle type: %w", err)
		}
		items = append(items, v)
	}
	return items, rows.Err()
}

// CreateVehicleType creates a new vehicle type
func (r *Repository) CreateVehicleType(ctx context.Context, v *VehicleType) error {
	v.ID = uuid.New()
	err := r.db.QueryRow(ctx, `
		INSERT INTO vehicle_types (id, code, name, capacity, base_price, price_per_hour,
		       price_per_km, minimum_price, cost_per_hour, cost_per_km, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at, updated_at
	`, v.ID, v.Code, v.Name, v.Capacity, v.BasePrice, v.PricePerHour,
		v.PricePerKm, v.MinimumPrice, v.CostPerHour, v.CostPerKm, v.IsActive,
	).Scan(&v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create vehicle type: %w", err)
	}
	r.invalidate(ctx)
	return nil
}

// UpdateVehicleType updates a vehicle type
func (r *Repository) UpdateVehicleType(ctx context.Context, v *VehicleType) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE vehicle_types SET
			code = $2, name = $3, capacity = $4, base_price = $5, price_per_hour = $6,
			price_per_km = $7, minimum_price = $8, cost_per_hour = $9, cost_per_km = $10,
			is_active = $11, updated_at = NOW()
		WHERE id = $1
	`, v.ID, v.Code, v.Name, v.Capacity, v.BasePrice, v.PricePerHour,
		v.PricePerKm, v.MinimumPrice, v.CostPerHour, v.CostPerKm, v.IsActive)
	return r.afterWrite(ctx, tag, err, "update vehicle type")
}

// SetVehicleTypeCosts sets the operating costs of the vehicle type with code
func (r *Repository) SetVehicleTypeCosts(ctx context.Context, code string, costPerHour, costPerKm float64) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE vehicle_types SET cost_per_hour = $2, cost_per_km = $3, updated_at = NOW()
		WHERE code = $1
	`, code, costPerHour, costPerKm)
	return r.afterWrite(ctx, tag, err, "set vehicle type costs")
}

// DeleteVehicleType soft-deletes a vehicle type
func (r *Repository) DeleteVehicleType(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `UPDATE vehicle_types SET is_active = false, updated_at = NOW() WHERE id = $1`, id)
	return r.afterWrite(ctx, tag, err, "delete vehicle type")
}

func (r *Repository) listClientTypes(ctx context.Context) ([]ClientType, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, code, name, multiplier::float8, created_at, updated_at
		FROM client_types ORDER BY code
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list client types: %w", err)
	}
	defer rows.Close()

	items := make([]ClientType, 0)
	for rows.Next() {
		var ct ClientType
		if err := rows.Scan(&ct.ID, &ct.Code, &ct.Name, &ct.Multiplier, &ct.CreatedAt, &ct.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan client type: %w", err)
		}
		items = append(items, ct)
	}
	return items, rows.Err()
}

// CreateClientType creates a new client type
func (r *Repository) CreateClientType(ctx context.Context, ct *ClientType) error {
	ct.ID = uuid.New()
	err := r.db.QueryRow(ctx, `
		INSERT INTO client_types (id, code, name, multiplier)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at
	`, ct.ID, ct.Code, ct.Name, ct.Multiplier).Scan(&ct.CreatedAt, &ct.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create client type: %w", err)
	}
	r.invalidate(ctx)
	return nil
}

// UpdateClientType updates a client type
func (r *Repository) UpdateClientType(ctx context.Context, ct *ClientType) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE client_types SET code = $2, name = $3, multiplier = $4, updated_at = NOW()
		WHERE id = $1
	`, ct.ID, ct.Code, ct.Name, ct.Multiplier)
	return r.afterWrite(ctx, tag, err, "update client type")
}

// DeleteClientType deletes a client type
func (r *Repository) DeleteClientType(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM client_types WHERE id = $1`, id)
	return r.afterWrite(ctx, tag, err, "delete client type")
}

func (r *Repository) listServiceTypes(ctx context.Context) ([]ServiceType, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, code, description, category, created_at, updated_at
		FROM service_types ORDER BY code
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list service types: %w", err)
	}
	defer rows.Close()

	items := make([]ServiceType, 0)
	for rows.Next() {
		var st ServiceType
		if err := rows.Scan(&st.ID, &st.Code, &st.Description, &st.Category, &st.CreatedAt, &st.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan service type: %w", err)
		}
		items = append(items, st)
	}
	return items, rows.Err()
}

// CreateServiceType creates a new service type
func (r *Repository) CreateServiceType(ctx context.Context, st *ServiceType) error {
	st.ID = uuid.New()
	err := r.db.QueryRow(ctx, `
		INSERT INTO service_types (id, code, description, category)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at
	`, st.ID, st.Code, st.Description, st.Category).Scan(&st.CreatedAt, &st.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create service type: %w", err)
	}
	r.invalidate(ctx)
	return nil
}

// UpdateServiceType updates a service type
func (r *Repository) UpdateServiceType(ctx context.Context, st *ServiceType) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE service_types SET code = $2, description = $3, category = $4, updated_at = NOW()
		WHERE id = $1
	`, st.ID, st.Code, st.Description, st.Category)
	return r.afterWrite(ctx, tag, err, "update service type")
}

// DeleteServiceType deletes a service type
func (r *Repository) DeleteServiceType(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM service_types WHERE id = $1`, id)
	return r.afterWrite(ctx, tag, err, "delete service type")
}

func (r *Repository) listServiceRates(ctx context.Context) ([]ServiceRate, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, service_type_code, vehicle_type_code, base_price::float8,
		       price_per_hour::float8, price_per_km::float8, minimum_price::float8,
		       created_at, updated_at
		FROM service_rates ORDER BY service_type_code, vehicle_type_code NULLS LAST
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list service rates: %w", err)
	}
	defer rows.Close()

	items := make([]ServiceRate, 0)
	for rows.Next() {
		var sr ServiceRate
		err := rows.Scan(
			&sr.ID, &sr.ServiceTypeCode, &sr.VehicleTypeCode, &sr.BasePrice,
			&sr.PricePerHour, &sr.PricePerKm, &sr.MinimumPrice, &sr.CreatedAt, &sr.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan service rate: %w", err)
		}
		items = append(items, sr)
	}
	return items, rows.Err()
}

// CreateServiceRate creates a new service rate
func (r *Repository) CreateServiceRate(ctx context.Context, sr *ServiceRate) error {
	sr.ID = uuid.New()
	err := r.db.QueryRow(ctx, `
		INSERT INTO service_rates (id, service_type_code, vehicle_type_code, base_price,
		       price_per_hour, price_per_km, minimum_price)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`, sr.ID, sr.ServiceTypeCode, sr.VehicleTypeCode, sr.BasePrice,
		sr.PricePerHour, sr.PricePerKm, sr.MinimumPrice,
	).Scan(&sr.CreatedAt, &sr.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create service rate: %w", err)
	}
	r.invalidate(ctx)
	return nil
}

// UpdateServiceRate updates a service rate
func (r *Repository) UpdateServiceRate(ctx context.Context, sr *ServiceRate) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE service_rates SET
			service_type_code = $2, vehicle_type_code = $3, base_price = $4,
			price_per_hour = $5, price_per_km = $6, minimum_price = $7, updated_at = NOW()
		WHERE id = $1
	`, sr.ID, sr.ServiceTypeCode, sr.VehicleTypeCode, sr.BasePrice,
		sr.PricePerHour, sr.PricePerKm, sr.MinimumPrice)
	return r.afterWrite(ctx, tag, err, "update service rate")
}

// DeleteServiceRate deletes a service rate
func (r *Repository) DeleteServiceRate(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM service_rates WHERE id = $1`, id)
	return r.afterWrite(ctx, tag, err, "delete service rate")
}

func (r *Repository) listClientRates(ctx context.Context) ([]ClientRate, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, customer_code, vehicle_type_code, service_type_code, base_price::float8,
		       price_per_hour::float8, price_per_km::float8, minimum_price::float8, notes,
		       created_at, updated_at
		FROM client_rates ORDER BY customer_code, vehicle_type_code NULLS LAST, service_type_code NULLS LAST
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list client rates: %w", err)
	}
	defer rows.Close()

	items := make([]ClientRate, 0)
	for rows.Next() {
		var cr ClientRate
		err := rows.Scan(
			&cr.ID, &cr.CustomerCode, &cr.VehicleTypeCode, &cr.ServiceTypeCode, &cr.BasePrice,
			&cr.PricePerHour, &cr.PricePerKm, &cr.MinimumPrice, &cr.Notes,
			&cr.CreatedAt, &cr.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan client rate: %w", err)
		}
		items = append(items, cr)
	}
	return items, rows.Err()
}

// CreateClientRate creates a new client rate
func (r *Repository) CreateClientRate(ctx context.Context, cr *ClientRate) error {
	cr.ID = uuid.New()
	err := r.db.QueryRow(ctx, `
		INSERT INTO client_rates (id, customer_code, vehicle_type_code, service_type_code,
		       base_price, price_per_hour, price_per_km, minimum_price, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at
	`, cr.ID, cr.CustomerCode, cr.VehicleTypeCode, cr.ServiceTypeCode,
		cr.BasePrice, cr.PricePerHour, cr.PricePerKm, cr.MinimumPrice, cr.Notes,
	).Scan(&cr.CreatedAt, &cr.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create client rate: %w", err)
	}
	r.invalidate(ctx)
	return nil
}

// UpdateClientRate updates a client rate
func (r *Repository) UpdateClientRate(ctx context.Context, cr *ClientRate) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE client_rates SET
			customer_code = $2, vehicle_type_code = $3, service_type_code = $4,
			base_price = $5, price_per_hour = $6, price_per_km = $7, minimum_price = $8,
			notes = $9, updated_at = NOW()
		WHERE id = $1
	`, cr.ID, cr.CustomerCode, cr.VehicleTypeCode, cr.ServiceTypeCode,
		cr.BasePrice, cr.PricePerHour, cr.PricePerKm, cr.MinimumPrice, cr.Notes)
	return r.afterWrite(ctx, tag, err, "update client rate")
}

// DeleteClientRate deletes a client rate
func (r *Repository) DeleteClientRate(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM client_rates WHERE id = $1`, id)
	return r.afterWrite(ctx, tag, err, "delete client rate")
}
