package competitors

import (
	"time"

	"github.com/cesarmartin1/crm-david/internal/tariffs"
	"github.com/google/uuid"
)

// Vehicle categories competitor quotes are filed under
const (
	CategoryStandard  = "STD"
	CategoryExecutive = "EXEC"
	CategoryVIP       = "VIP"
	CategoryMicro     = "MICRO"
	CategoryMini      = "MINI"
	CategoryGrand     = "GRAN"
)

// normalisationFactors express each category relative to a standard coach
var normalisationFactors = map[string]float64{
	CategoryStandard:  1.0,
	CategoryExecutive: 1.15,
	CategoryVIP:       1.30,
	CategoryMicro:     0.65,
	CategoryMini:      0.80,
	CategoryGrand:     1.10,
}

// DefaultAlertThresholdPct is the deviation from the market average that
// flags a position
const DefaultAlertThresholdPct = 15.0

// Competitor is a tracked rival operator
type Competitor struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name" validate:"required,max=255"`
	Segment       string    `json:"segment" validate:"max=64"`
	Zone          string    `json:"zone" validate:"max=128"`
	FleetEstimate int       `json:"fleet_estimate" validate:"gte=0"`
	Strengths     string    `json:"strengths"`
	Weaknesses    string    `json:"weaknesses"`
	Notes         string    `json:"notes"`
	IsActive      bool      `json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Quote is a price a competitor offered for a service
type Quote struct {
	ID              uuid.UUID `json:"id"`
	CompetitorID    uuid.UUID `json:"competitor_id"`
	CompetitorName  string    `json:"competitor_name,omitempty"`
	ServiceType     string    `json:"service_type"`
	VehicleCategory string    `json:"vehicle_category"`
	Price           float64   `json:"price"`
	NormalisedPrice float64   `json:"normalised_price"`
	Hours           float64   `json:"hours"`
	Km              float64   `json:"km"`
	QuotedOn        time.Time `json:"quoted_on"`
	Notes           string    `json:"notes"`
	CreatedAt       time.Time `json:"created_at"`
}

// CreateQuoteRequest registers a competitor quote
type CreateQuoteRequest struct {
	ServiceType     string  `json:"service_type" validate:"required,max=64"`
	VehicleCategory string  `json:"vehicle_category" validate:"omitempty,oneof=STD EXEC VIP MICRO MINI GRAN"`
	Price           float64 `json:"price" validate:"gt=0"`
	Hours           float64 `json:"hours" validate:"gte=0"`
	Km              float64 `json:"km" validate:"gte=0"`
	QuotedOn        string  `json:"quoted_on" validate:"omitempty,datetime=2006-01-02"`
	Notes           string  `json:"notes"`
}

// QuoteFilter narrows competitor quotes. Zero values match everything.
type QuoteFilter struct {
	CompetitorID    *uuid.UUID
	ServiceType     string
	VehicleCategory string
}

// MarketStat aggregates the quotes of one service and vehicle category
type MarketStat struct {
	ServiceType        string  `json:"service_type"`
	VehicleCategory    string  `json:"vehicle_category"`
	AvgPrice           float64 `json:"avg_price"`
	MinPrice           float64 `json:"min_price"`
	MaxPrice           float64 `json:"max_price"`
	AvgNormalisedPrice float64 `json:"avg_normalised_price"`
	Count              int     `json:"count"`
}

// RankingEntry is a competitor ordered by average normalised price
type RankingEntry struct {
	Rank               int       `json:"rank"`
	CompetitorID       uuid.UUID `json:"competitor_id"`
	Name               string    `json:"name"`
	Segment            string    `json:"segment"`
	AvgPrice           float64   `json:"avg_price"`
	AvgNormalisedPrice float64   `json:"avg_normalised_price"`
	Count              int       `json:"count"`
}

// CompetitorPrice is the average price of one competitor in a market
type CompetitorPrice struct {
	CompetitorID uuid.UUID `json:"competitor_id"`
	Name         string    `json:"name"`
	AvgPrice     float64   `json:"avg_price"`
	Count        int       `json:"count"`
}

// Position places a price among the competitor quotes of a market
type Position struct {
	ServiceType     string            `json:"service_type"`
	VehicleCategory string            `json:"vehicle_category"`
	OwnPrice        float64           `json:"own_price"`
	Count           int               `json:"count"`
	AvgPrice        float64           `json:"avg_price"`
	MinPrice        float64           `json:"min_price"`
	MaxPrice        float64           `json:"max_price"`
	Percentile      float64           `json:"percentile"`
	Delta           float64           `json:"delta"`
	DeltaPct        float64           `json:"delta_pct"`
	Alert           bool              `json:"alert"`
	Competitors     []CompetitorPrice `json:"competitors"`
}

// CompareRequest prices a service with our tariffs and positions it
type CompareRequest struct {
	ServiceType     string  `json:"service_type" validate:"required,max=64"`
	VehicleType     string  `json:"vehicle_type" validate:"required,max=32"`
	VehicleCategory string  `json:"vehicle_category" validate:"omitempty,oneof=STD EXEC VIP MICRO MINI GRAN"`
	Hours           float64 `json:"hours" validate:"gte=0"`
	Km              float64 `json:"km" validate:"gte=0"`
	CustomerCode    string  `json:"customer_code" validate:"max=64"`
}

// Comparison is our tariff next to the market
type Comparison struct {
	Tariff   tariffs.Breakdown `json:"tariff"`
	Position Position          `json:"position"`
}

// Seat bands used to classify competitor vehicles
const (
	LargeCoachSeats  = 50
	MediumCoachSeats = 30
)

// DefaultVehicleType is stored when a vehicle is registered without a type
const DefaultVehicleType = "COACH"

// Vehicle is a coach in a competitor's fleet. Age is derived from the
// registration year when the vehicle is read.
type Vehicle struct {
	ID               uuid.UUID `json:"id"`
	CompetitorID     uuid.UUID `json:"competitor_id"`
	CompetitorName   string    `json:"competitor_name,omitempty"`
	Plate            string    `json:"plate"`
	VehicleType      string    `json:"vehicle_type"`
	Brand            string    `json:"brand"`
	Model            string    `json:"model"`
	Seats            int       `json:"seats"`
	RegistrationYear *int      `json:"registration_year"`
	Age              *float64  `json:"age"`
	EmissionLabel    string    `json:"emission_label"`
	PMR              bool      `json:"pmr"`
	WC               bool      `json:"wc"`
	WiFi             bool      `json:"wifi"`
	School           bool      `json:"school"`
	Notes            string    `json:"notes"`
	IsActive         bool      `json:"is_active"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// VehicleRequest registers or replaces a competitor vehicle
type VehicleRequest struct {
	Plate            string `json:"plate" validate:"max=16"`
	VehicleType      string `json:"vehicle_type" validate:"max=32"`
	Brand            string `json:"brand" validate:"max=128"`
	Model            string `json:"model" validate:"max=128"`
	Seats            int    `json:"seats" validate:"gte=0,lte=120"`
	RegistrationYear *int   `json:"registration_year" validate:"omitempty,gte=1950,lte=2100"`
	EmissionLabel    string `json:"emission_label" validate:"omitempty,oneof=0 ECO C B"`
	PMR              bool   `json:"pmr"`
	WC               bool   `json:"wc"`
	WiFi             bool   `json:"wifi"`
	School           bool   `json:"school"`
	Notes            string `json:"notes"`
}

// ImportVehiclesRequest loads many vehicles of one competitor at once
type ImportVehiclesRequest struct {
	Vehicles []VehicleRequest `json:"vehicles" validate:"required,min=1,max=500"`
}

// RowError reports a rejected row of a bulk import
type RowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// ImportResult summarises a bulk vehicle import
type ImportResult struct {
	Imported int        `json:"imported"`
	Rejected []RowError `json:"rejected"`
}

// VehicleFilter narrows competitor vehicles
type VehicleFilter struct {
	CompetitorID *uuid.UUID
	ActiveOnly   bool
}

// FleetStat describes the active fleet of one competitor
type FleetStat struct {
	CompetitorID  uuid.UUID `json:"competitor_id"`
	Name          string    `json:"name"`
	TotalVehicles int       `json:"total_vehicles"`
	LargeCoaches  int       `json:"large_coaches"`
	MediumCoaches int       `json:"medium_coaches"`
	Microbuses    int       `json:"microbuses"`
	AvgAge        *float64  `json:"avg_age"`
	TotalSeats    int       `json:"total_seats"`
	WithPMR       int       `json:"with_pmr"`
	WithWC        int       `json:"with_wc"`
	WithWiFi      int       `json:"with_wifi"`
	School        int       `json:"school"`

	agedVehicles int
}

// MarketFleet adds up the fleets of every tracked competitor
type MarketFleet struct {
	CompetitorsWithFleet int     `json:"competitors_with_fleet"`
	TotalVehicles        int     `json:"total_vehicles"`
	TotalSeats           int     `json:"total_seats"`
	AvgAge               float64 `json:"avg_age"`
	Leader               string  `json:"leader"`
}

// FleetComparison is the fleet of each competitor next to the market totals.
// Market is nil when no competitor is tracked.
type FleetComparison struct {
	Competitors []FleetStat  `json:"competitors"`
	Market      *MarketFleet `json:"market"`
}
