package tariffs

import (
	"time"

	"github.com/google/uuid"
)

// RateSource names the table a price was resolved from
type RateSource string

const (
	SourceClientRate  RateSource = "client_rate"
	SourceServiceRate RateSource = "service_rate"
	SourceVehicleType RateSource = "vehicle_type"
	SourceDefault     RateSource = "default"
)

// Fallback prices used when no table matches
const (
	DefaultPricePerHour = 30.0
	DefaultPricePerKm   = 0.85
)

// Season applies a multiplier between two days of the year (MM-DD).
// A range whose start is after its end wraps the year end.
type Season struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name" validate:"required,max=128"`
	StartDay   string    `json:"start_day" validate:"required,month_day"`
	EndDay     string    `json:"end_day" validate:"required,month_day"`
	Multiplier float64   `json:"multiplier" validate:"gt=0"`
	IsActive   bool      `json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// VehicleType is a coach class with its base prices and operating costs
type VehicleType struct {
	ID           uuid.UUID `json:"id"`
	Code         string    `json:"code" validate:"required,max=32"`
	Name         string    `json:"name" validate:"required,max=128"`
	Capacity     int       `json:"capacity" validate:"gte=0"`
	BasePrice    float64   `json:"base_price" validate:"gte=0"`
	PricePerHour float64   `json:"price_per_hour" validate:"gte=0"`
	PricePerKm   float64   `json:"price_per_km" validate:"gte=0"`
	MinimumPrice float64   `json:"minimum_price" validate:"gte=0"`
	CostPerHour  float64   `json:"cost_per_hour" validate:"gte=0"`
	CostPerKm    float64   `json:"cost_per_km" validate:"gte=0"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ClientType carries the multiplier applied to customers of that type
type ClientType struct {
	ID         uuid.UUID `json:"id"`
	Code       string    `json:"code" validate:"required,max=32"`
	Name       string    `json:"name" validate:"required,max=128"`
	Multiplier float64   `json:"multiplier" validate:"gt=0"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// ServiceType describes a service code found in quotes
type ServiceType struct {
	ID          uuid.UUID `json:"id"`
	Code        string    `json:"code" validate:"required,max=64"`
	Description string    `json:"description" validate:"max=255"`
	Category    string    `json:"category" validate:"max=64"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Rate is a resolved set of prices
type Rate struct {
	BasePrice    float64 `json:"base_price"`
	PricePerHour float64 `json:"price_per_hour"`
	PricePerKm   float64 `json:"price_per_km"`
	MinimumPrice float64 `json:"minimum_price"`
}

// ServiceRate prices a service type, optionally for one vehicle type only.
// A nil VehicleTypeCode matches any vehicle.
type ServiceRate struct {
	ID              uuid.UUID `json:"id"`
	ServiceTypeCode string    `json:"service_type_code" validate:"required,max=64"`
	VehicleTypeCode *string   `json:"vehicle_type_code,omitempty" validate:"omitempty,max=32"`
	BasePrice       float64   `json:"base_price" validate:"gte=0"`
	PricePerHour    float64   `json:"price_per_hour" validate:"gte=0"`
	PricePerKm      float64   `json:"price_per_km" validate:"gte=0"`
	MinimumPrice    float64   `json:"minimum_price" validate:"gte=0"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Rate returns the prices of the entry
func (r ServiceRate) Rate() Rate {
	return Rate{BasePrice: r.BasePrice, PricePerHour: r.PricePerHour, PricePerKm: r.PricePerKm, MinimumPrice: r.MinimumPrice}
}

// ClientRate overrides prices for one customer. Nil vehicle or service
// codes match any value.
type ClientRate struct {
	ID              uuid.UUID `json:"id"`
	CustomerCode    string    `json:"customer_code" validate:"required,max=64"`
	VehicleTypeCode *string   `json:"vehicle_type_code,omitempty" validate:"omitempty,max=32"`
	ServiceTypeCode *string   `json:"service_type_code,omitempty" validate:"omitempty,max=64"`
	BasePrice       float64   `json:"base_price" validate:"gte=0"`
	PricePerHour    float64   `json:"price_per_hour" validate:"gte=0"`
	PricePerKm      float64   `json:"price_per_km" validate:"gte=0"`
	MinimumPrice    float64   `json:"minimum_price" validate:"gte=0"`
	Notes           string    `json:"notes" validate:"max=1000"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Rate returns the prices of the entry
func (r ClientRate) Rate() Rate {
	return Rate{BasePrice: r.BasePrice, PricePerHour: r.PricePerHour, PricePerKm: r.PricePerKm, MinimumPrice: r.MinimumPrice}
}

// Tables is the full set of rate tables a calculation reads
type Tables struct {
	Seasons      []Season      `json:"seasons"`
	VehicleTypes []VehicleType `json:"vehicle_types"`
	ClientTypes  []ClientType  `json:"client_types"`
	ServiceTypes []ServiceType `json:"service_types"`
	ServiceRates []ServiceRate `json:"service_rates"`
	ClientRates  []ClientRate  `json:"client_rates"`
}

// Input is what a price is calculated for
type Input struct {
	ServiceType  string
	VehicleType  string
	Hours        float64
	Km           float64
	CustomerCode string
	ClientType   string
	Date         time.Time
}

// Resolution is a rate together with where it came from
type Resolution struct {
	Rate   Rate       `json:"rate"`
	Source RateSource `json:"source"`
}

// Breakdown is the itemised result of a calculation
type Breakdown struct {
	ServiceType          string     `json:"service_type"`
	VehicleType          string     `json:"vehicle_type"`
	Hours                float64    `json:"hours"`
	Km                   float64    `json:"km"`
	BasePrice            float64    `json:"base_price"`
	PricePerHour         float64    `json:"price_per_hour"`
	PricePerKm           float64    `json:"price_per_km"`
	HourCost             float64    `json:"hour_cost"`
	KmCost               float64    `json:"km_cost"`
	Subtotal             float64    `json:"subtotal"`
	MinimumPrice         float64    `json:"minimum_price"`
	MinimumApplied       bool       `json:"minimum_applied"`
	Season               string     `json:"season,omitempty"`
	SeasonMultiplier     float64    `json:"season_multiplier"`
	ClientType           string     `json:"client_type,omitempty"`
	ClientTypeMultiplier float64    `json:"client_type_multiplier"`
	Total                float64    `json:"total"`
	RateSource           RateSource `json:"rate_source"`
	OperatingCost        float64    `json:"operating_cost"`
	Margin               float64    `json:"margin"`
	MarginPct            float64    `json:"margin_pct"`
}

// CalculateRequest is the body of POST /tariffs/calculate
type CalculateRequest struct {
	ServiceType  string  `json:"service_type" validate:"max=64"`
	VehicleType  string  `json:"vehicle_type" validate:"required,max=32"`
	Hours        float64 `json:"hours" validate:"gte=0"`
	Km           float64 `json:"km" validate:"gte=0"`
	CustomerCode string  `json:"customer_code" validate:"max=64"`
	ClientType   string  `json:"client_type" validate:"max=32"`
	ServiceDate  string  `json:"service_date" validate:"omitempty,datetime=2006-01-02"`
}
