package fleetcosts

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository handles database operations for the fleet
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new fleet repository
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

func checkWrite(tag pgconn.CommandTag, err error, what string) error {
	if err != nil {
		return fmt.Errorf("failed to %s: %w", what, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("failed to %s: %w", what, pgx.ErrNoRows)
	}
	return nil
}

const vehicleColumns = `id, plate, brand, model, seats, vehicle_type_code, is_active, created_at, updated_at`

func scanVehicle(row pgx.Row) (*Vehicle, error) {
	var v Vehicle
	err := row.Scan(&v.ID, &v.Plate, &v.Brand, &v.Model, &v.Seats, &v.VehicleTypeCode,
		&v.IsActive, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// ListVehicles lists vehicles by plate
func (r *Repository) ListVehicles(ctx context.Context, activeOnly bool) ([]Vehicle, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+vehicleColumns+`
		FROM fleet_vehicles
		WHERE ($1 = false OR is_active)
		ORDER BY plate
	`, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to list vehicles: %w", err)
	}
	defer rows.Close()

	items := make([]Vehicle, 0)
	for rows.Next() {
		v, err := scanVehicle(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan vehicle: %w", err)
		}
		items = append(items, *v)
	}
	return items, rows.Err()
}

// GetVehicle retrieves a vehicle by ID
func (r *Repository) GetVehicle(ctx context.Context, id uuid.UUID) (*Vehicle, error) {
	v, err := scanVehicle(r.db.QueryRow(ctx, `SELECT `+vehicleColumns+` FROM fleet_vehicles WHERE id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get vehicle: %w", err)
	}
	return v, nil
}

// CreateVehicle inserts a vehicle
func (r *Repository) CreateVehicle(ctx context.Context, v *Vehicle) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO fleet_vehicles (id, plate, brand, model, seats, vehicle_type_code, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`, v.ID, v.Plate, v.Brand, v.Model, v.Seats, v.VehicleTypeCode, v.IsActive).Scan(&v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create vehicle: %w", err)
	}
	return nil
}

// UpdateVehicle updates a vehicle
func (r *Repository) UpdateVehicle(ctx context.Context, v *Vehicle) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE fleet_vehicles SET
			plate = $2, brand = $3, model = $4, seats = $5, vehicle_type_code = $6,
			is_active = $7, updated_at = NOW()
		WHERE id = $1
	`, v.ID, v.Plate, v.Brand, v.Model, v.Seats, v.VehicleTypeCode, v.IsActive)
	return checkWrite(tag, err, "update vehicle")
}

// DeleteVehicle retires a vehicle, keeping its history
func (r *Repository) DeleteVehicle(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `UPDATE fleet_vehicles SET is_active = false, updated_at = NOW() WHERE id = $1`, id)
	return checkWrite(tag, err, "delete vehicle")
}

const yearColumns = `
	vehicle_id, year, annual_km::float8, service_hours::float8, staff_hourly_cost::float8,
	acquisition::float8, financing::float8, insurance::float8, taxes::float8,
	maintenance::float8, fuel::float8, tyres::float8, urea::float8, updated_at`

func scanYear(row pgx.Row) (*YearData, error) {
	var d YearData
	err := row.Scan(&d.VehicleID, &d.Year, &d.AnnualKm, &d.ServiceHours, &d.StaffHourlyCost,
		&d.Acquisition, &d.Financing, &d.Insurance, &d.Taxes,
		&d.Maintenance, &d.Fuel, &d.Tyres, &d.Urea, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// GetYear returns the figures of a vehicle for year, nil when none were entered
func (r *Repository) GetYear(ctx context.Context, vehicleID uuid.UUID, year int) (*YearData, error) {
	d, err := scanYear(r.db.QueryRow(ctx,
		`SELECT `+yearColumns+` FROM fleet_vehicle_years WHERE vehicle_id = $1 AND year = $2`,
		vehicleID, year))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get vehicle year: %w", err)
	}
	return d, nil
}

// ListYears returns the figures of every vehicle for year
func (r *Repository) ListYears(ctx context.Context, year int) ([]YearData, error) {
	rows, err := r.db.Query(ctx, `SELECT `+yearColumns+` FROM fleet_vehicle_years WHERE year = $1`, year)
	if err != nil {
		return nil, fmt.Errorf("failed to list vehicle years: %w", err)
	}
	defer rows.Close()

	items := make([]YearData, 0)
	for rows.Next() {
		d, err := scanYear(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan vehicle year: %w", err)
		}
		items = append(items, *d)
	}
	return items, rows.Err()
}

// UpsertYear stores the figures of a vehicle for a year
func (r *Repository) UpsertYear(ctx context.Context, d *YearData) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO fleet_vehicle_years (
			vehicle_id, year, annual_km, service_hours, staff_hourly_cost,
			acquisition, financing, insurance, taxes, maintenance, fuel, tyres, urea
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (vehicle_id, year) DO UPDATE SET
			annual_km = EXCLUDED.annual_km, service_hours = EXCLUDED.service_hours,
			staff_hourly_cost = EXCLUDED.staff_hourly_cost, acquisition = EXCLUDED.acquisition,
			financing = EXCLUDED.financing, insurance = EXCLUDED.insurance, taxes = EXCLUDED.taxes,
			maintenance = EXCLUDED.maintenance, fuel = EXCLUDED.fuel, tyres = EXCLUDED.tyres,
			urea = EXCLUDED.urea, updated_at = NOW()
		RETURNING updated_at
	`, d.VehicleID, d.Year, d.AnnualKm, d.ServiceHours, d.StaffHourlyCost,
		d.Acquisition, d.Financing, d.Insurance, d.Taxes,
		d.Maintenance, d.Fuel, d.Tyres, d.Urea).Scan(&d.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save vehicle year: %w", err)
	}
	return nil
}
