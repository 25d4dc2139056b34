package competitors

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository handles database operations for competitors
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new competitors repository
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

const competitorColumns = `id, name, segment, zone, fleet_estimate, strengths, weaknesses, notes,
	is_active, created_at, updated_at`

func scanCompetitor(row pgx.Row) (*Competitor, error) {
	c := &Competitor{}
	err := row.Scan(&c.ID, &c.Name, &c.Segment, &c.Zone, &c.FleetEstimate, &c.Strengths,
		&c.Weaknesses, &c.Notes, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

// ListCompetitors lists competitors by name
func (r *Repository) ListCompetitors(ctx context.Context, activeOnly bool) ([]Competitor, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+competitorColumns+`
		FROM competitors
		WHERE NOT $1 OR is_active
		ORDER BY name
	`, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to list competitors: %w", err)
	}
	defer rows.Close()

	items := make([]Competitor, 0)
	for rows.Next() {
		c, err := scanCompetitor(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan competitor: %w", err)
		}
		items = append(items, *c)
	}
	return items, rows.Err()
}

// GetCompetitor returns a competitor by ID
func (r *Repository) GetCompetitor(ctx context.Context, id uuid.UUID) (*Competitor, error) {
	c, err := scanCompetitor(r.db.QueryRow(ctx, `SELECT `+competitorColumns+` FROM competitors WHERE id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get competitor: %w", err)
	}
	return c, nil
}

// CreateCompetitor creates a competitor
func (r *Repository) CreateCompetitor(ctx context.Context, c *Competitor) error {
	c.ID = uuid.New()
	err := r.db.QueryRow(ctx, `
		INSERT INTO competitors (id, name, segment, zone, fleet_estimate, strengths, weaknesses, notes, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at
	`, c.ID, c.Name, c.Segment, c.Zone, c.FleetEstimate, c.Strengths, c.Weaknesses, c.Notes, c.IsActive,
	).Scan(&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create competitor: %w", err)
	}
	return nil
}

// UpdateCompetitor updates a competitor
func (r *Repository) UpdateCompetitor(ctx context.Context, c *Competitor) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE competitors SET name = $2, segment = $3, zone = $4, fleet_estimate = $5,
			strengths = $6, weaknesses = $7, notes = $8, is_active = $9, updated_at = NOW()
		WHERE id = $1
	`, c.ID, c.Name, c.Segment, c.Zone, c.FleetEstimate, c.Strengths, c.Weaknesses, c.Notes, c.IsActive)
	return checkWrite(tag, err, "update competitor")
}

// DeleteCompetitor deletes a competitor together with its quotes
func (r *Repository) DeleteCompetitor(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM competitors WHERE id = $1`, id)
	return checkWrite(tag, err, "delete competitor")
}

// ListQuotes lists competitor quotes, newest first
func (r *Repository) ListQuotes(ctx context.Context, f QuoteFilter) ([]Quote, error) {
	where := make([]string, 0, 3)
	args := make([]interface{}, 0, 3)
	if f.CompetitorID != nil {
		args = append(args, *f.CompetitorID)
		where = append(where, fmt.Sprintf("q.competitor_id = $%d", len(args)))
	}
	if f.ServiceType != "" {
		args = append(args, f.ServiceType)
		where = append(where, fmt.Sprintf("q.service_type = $%d", len(args)))
	}
	if f.VehicleCategory != "" {
		args = append(args, f.VehicleCategory)
		where = append(where, fmt.Sprintf("q.vehicle_category = $%d", len(args)))
	}

	query := `
		SELECT q.id, q.competitor_id, c.name, q.service_type, q.vehicle_category, q.price::float8,
		       q.hours::float8, q.km::float8, q.quoted_on, q.notes, q.created_at
		FROM competitor_quotes q
		JOIN competitors c ON c.id = q.competitor_id`
	if len(where) > 0 {
		query += "\n\t\tWHERE " + strings.Join(where, " AND ")
	}
	query += "\n\t\tORDER BY q.quoted_on DESC, q.created_at DESC"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list competitor quotes: %w", err)
	}
	defer rows.Close()

	items := make([]Quote, 0)
	for rows.Next() {
		var q Quote
		err := rows.Scan(&q.ID, &q.CompetitorID, &q.CompetitorName, &q.ServiceType, &q.VehicleCategory,
			&q.Price, &q.Hours, &q.Km, &q.QuotedOn, &q.Notes, &q.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan competitor quote: %w", err)
		}
		q.NormalisedPrice = Normalise(q.Price, q.VehicleCategory)
		items = append(items, q)
	}
	return items, rows.Err()
}

// CreateQuote creates a competitor quote
func (r *Repository) CreateQuote(ctx context.Context, q *Quote) error {
	q.ID = uuid.New()
	err := r.db.QueryRow(ctx, `
		INSERT INTO competitor_quotes (id, competitor_id, service_type, vehicle_category, price,
		       hours, km, quoted_on, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at
	`, q.ID, q.CompetitorID, q.ServiceType, q.VehicleCategory, q.Price, q.Hours, q.Km, q.QuotedOn, q.Notes,
	).Scan(&q.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create competitor quote: %w", err)
	}
	return nil
}

// DeleteQuote deletes a competitor quote
func (r *Repository) DeleteQuote(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM competitor_quotes WHERE id = $1`, id)
	return checkWrite(tag, err, "delete competitor quote")
}

const vehicleColumns = `v.id, v.competitor_id, c.name, COALESCE(v.plate, ''), v.vehicle_type, v.brand, v.model,
	v.seats, v.registration_year, v.emission_label, v.pmr, v.wc, v.wifi, v.school, v.notes,
	v.is_active, v.created_at, v.updated_at`

var vehicleCopyColumns = []string{
	"id", "competitor_id", "plate", "vehicle_type", "brand", "model", "seats", "registration_year",
	"emission_label", "pmr", "wc", "wifi", "school", "notes", "is_active",
}

func scanVehicle(row pgx.Row) (*Vehicle, error) {
	v := &Vehicle{}
	err := row.Scan(&v.ID, &v.CompetitorID, &v.CompetitorName, &v.Plate, &v.VehicleType, &v.Brand,
		&v.Model, &v.Seats, &v.RegistrationYear, &v.EmissionLabel, &v.PMR, &v.WC, &v.WiFi, &v.School,
		&v.Notes, &v.IsActive, &v.CreatedAt, &v.UpdatedAt)
	return v, err
}

func nullablePlate(plate string) interface{} {
	if plate == "" {
		return nil
	}
	return plate
}

// ListVehicles lists competitor vehicles, largest first
func (r *Repository) ListVehicles(ctx context.Context, f VehicleFilter) ([]Vehicle, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+vehicleColumns+`
		FROM competitor_vehicles v
		JOIN competitors c ON c.id = v.competitor_id
		WHERE ($1::uuid IS NULL OR v.competitor_id = $1)
		  AND (NOT $2 OR v.is_active)
		ORDER BY v.seats DESC, v.created_at
	`, f.CompetitorID, f.ActiveOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to list competitor vehicles: %w", err)
	}
	defer rows.Close()

	items := make([]Vehicle, 0)
	for rows.Next() {
		v, err := scanVehicle(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan competitor vehicle: %w", err)
		}
		items = append(items, *v)
	}
	return items, rows.Err()
}

// GetVehicle returns a competitor vehicle by ID
func (r *Repository) GetVehicle(ctx context.Context, id uuid.UUID) (*Vehicle, error) {
	v, err := scanVehicle(r.db.QueryRow(ctx, `
		SELECT `+vehicleColumns+`
		FROM competitor_vehicles v
		JOIN competitors c ON c.id = v.competitor_id
		WHERE v.id = $1
	`, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get competitor vehicle: %w", err)
	}
	return v, nil
}

// CreateVehicle creates a competitor vehicle
func (r *Repository) CreateVehicle(ctx context.Context, v *Vehicle) error {
	v.ID = uuid.New()
	err := r.db.QueryRow(ctx, `
		INSERT INTO competitor_vehicles (id, competitor_id, plate, vehicle_type, brand, model, seats,
		       registration_year, emission_label, pmr, wc, wifi, school, notes, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING created_at, updated_at
	`, v.ID, v.CompetitorID, nullablePlate(v.Plate), v.VehicleType, v.Brand, v.Model, v.Seats,
		v.RegistrationYear, v.EmissionLabel, v.PMR, v.WC, v.WiFi, v.School, v.Notes, v.IsActive,
	).Scan(&v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create competitor vehicle: %w", err)
	}
	return nil
}

// CreateVehicles inserts vehicles in one transaction and returns how many
// were written
func (r *Repository) CreateVehicles(ctx context.Context, vehicles []Vehicle) (int, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	n, err := tx.CopyFrom(ctx, pgx.Identifier{"competitor_vehicles"}, vehicleCopyColumns,
		pgx.CopyFromSlice(len(vehicles), func(i int) ([]any, error) {
			v := &vehicles[i]
			v.ID = uuid.New()
			return []any{
				v.ID, v.CompetitorID, nullablePlate(v.Plate), v.VehicleType, v.Brand, v.Model, v.Seats,
				v.RegistrationYear, v.EmissionLabel, v.PMR, v.WC, v.WiFi, v.School, v.Notes, v.IsActive,
			}, nil
		}),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to copy competitor vehicles: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit competitor vehicles: %w", err)
	}
	return int(n), nil
}

// UpdateVehicle replaces a competitor vehicle
func (r *Repository) UpdateVehicle(ctx context.Context, v *Vehicle) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE competitor_vehicles SET plate = $2, vehicle_type = $3, brand = $4, model = $5, seats = $6,
			registration_year = $7, emission_label = $8, pmr = $9, wc = $10, wifi = $11, school = $12,
			notes = $13, updated_at = NOW()
		WHERE id = $1
	`, v.ID, nullablePlate(v.Plate), v.VehicleType, v.Brand, v.Model, v.Seats, v.RegistrationYear,
		v.EmissionLabel, v.PMR, v.WC, v.WiFi, v.School, v.Notes)
	return checkWrite(tag, err, "update competitor vehicle")
}

// DeactivateVehicle retires a competitor vehicle, keeping its history
func (r *Repository) DeactivateVehicle(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE competitor_vehicles SET is_active = FALSE, updated_at = NOW()
		WHERE id = $1 AND is_active
	`, id)
	return checkWrite(tag, err, "deactivate competitor vehicle")
}
