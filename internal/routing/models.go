package routing

import (
	"time"

	"github.com/google/uuid"
)

// Leg kinds
const (
	LegOutbound = "outbound"
	LegService  = "service"
	LegReturn   = "return"
)

// Calculator config keys
const (
	ConfigDepotAddress        = "depot_address"
	ConfigHeavyVehicleIndex   = "heavy_vehicle_index"
	ConfigPresentationMinutes = "presentation_minutes"
	ConfigCleaningMinutes     = "cleaning_minutes"
)

// Point is a WGS84 coordinate
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Location is a geocoded address
type Location struct {
	Query   string `json:"query"`
	Address string `json:"address"`
	Point   Point  `json:"point"`
	Source  string `json:"source"`
}

// Route is the driving route between ordered points
type Route struct {
	DistanceKm float64 `json:"distance_km"`
	Minutes    float64 `json:"minutes"`
	Polyline   string  `json:"polyline,omitempty"`
}

// CalculatorConfig tunes how routes turn into billable time
type CalculatorConfig struct {
	DepotAddress        string  `json:"depot_address"`
	HeavyVehicleIndex   float64 `json:"heavy_vehicle_index"`
	PresentationMinutes int     `json:"presentation_minutes"`
	CleaningMinutes     int     `json:"cleaning_minutes"`
}

// DefaultCalculatorConfig returns the values used for missing keys
func DefaultCalculatorConfig() CalculatorConfig {
	return CalculatorConfig{
		HeavyVehicleIndex:   1.2,
		PresentationMinutes: 30,
		CleaningMinutes:     30,
	}
}

// UpdateConfigRequest is the body of PUT /routes/config. Nil fields are kept.
type UpdateConfigRequest struct {
	DepotAddress        *string  `json:"depot_address" validate:"omitempty,max=500"`
	HeavyVehicleIndex   *float64 `json:"heavy_vehicle_index" validate:"omitempty,gt=0,lte=5"`
	PresentationMinutes *int     `json:"presentation_minutes" validate:"omitempty,gte=0,lte=600"`
	CleaningMinutes     *int     `json:"cleaning_minutes" validate:"omitempty,gte=0,lte=600"`
}

// FrequentPlace is a known address that skips geocoding
type FrequentPlace struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name" validate:"required,max=255"`
	Address   string    `json:"address" validate:"max=1000"`
	Lat       float64   `json:"lat" validate:"gte=-90,lte=90"`
	Lng       float64   `json:"lng" validate:"gte=-180,lte=180"`
	PlaceType string    `json:"place_type" validate:"max=64"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RouteRequest describes a charter service to plan. An empty Depot uses the
// configured depot address.
type RouteRequest struct {
	Depot               string   `json:"depot" validate:"max=500"`
	Pickup              string   `json:"pickup" validate:"required,max=500"`
	Stops               []string `json:"stops" validate:"max=20,dive,max=500"`
	Dropoff             string   `json:"dropoff" validate:"required,max=500"`
	PositioningOutbound bool     `json:"positioning_outbound"`
	PositioningReturn   bool     `json:"positioning_return"`
	IncludeCleaning     bool     `json:"include_cleaning"`
}

// QuoteRequest plans a route and prices it
type QuoteRequest struct {
	RouteRequest
	ServiceType  string `json:"service_type" validate:"max=64"`
	VehicleType  string `json:"vehicle_type" validate:"required,max=32"`
	CustomerCode string `json:"customer_code" validate:"max=64"`
	ClientType   string `json:"client_type" validate:"max=32"`
	ServiceDate  string `json:"service_date" validate:"omitempty,datetime=2006-01-02"`
}

// Leg is one driven segment of a plan
type Leg struct {
	Kind           string   `json:"kind"`
	From           string   `json:"from"`
	To             string   `json:"to"`
	Via            []string `json:"via,omitempty"`
	Unresolved     []string `json:"unresolved,omitempty"`
	DistanceKm     float64  `json:"distance_km"`
	DrivingMinutes float64  `json:"driving_minutes"`
	Minutes        float64  `json:"minutes"`
	Polyline       string   `json:"polyline,omitempty"`
	Failed         bool     `json:"failed"`
	Error          string   `json:"error,omitempty"`
}

// Plan is the time and distance decomposition of a service
type Plan struct {
	Legs                []Leg   `json:"legs"`
	TotalKm             float64 `json:"total_km"`
	DrivingMinutes      float64 `json:"driving_minutes"`
	TravelMinutes       float64 `json:"travel_minutes"`
	PresentationMinutes float64 `json:"presentation_minutes"`
	CleaningMinutes     float64 `json:"cleaning_minutes"`
	TotalMinutes        float64 `json:"total_minutes"`
	Hours               float64 `json:"hours"`
	HeavyVehicleIndex   float64 `json:"heavy_vehicle_index"`
	Degraded            bool    `json:"degraded"`
}
