package fleetcosts

import (
	"time"

	"github.com/google/uuid"
)

// Vehicle is a coach of the own fleet
type Vehicle struct {
	ID              uuid.UUID `json:"id"`
	Plate           string    `json:"plate"`
	Brand           string    `json:"brand"`
	Model           string    `json:"model"`
	Seats           int       `json:"seats"`
	VehicleTypeCode *string   `json:"vehicle_type_code,omitempty"`
	IsActive        bool      `json:"is_active"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// VehicleRequest is the body of vehicle create and update
type VehicleRequest struct {
	Plate           string  `json:"plate" validate:"required,max=16"`
	Brand           string  `json:"brand" validate:"max=128"`
	Model           string  `json:"model" validate:"max=128"`
	Seats           int     `json:"seats" validate:"gte=0,lte=120"`
	VehicleTypeCode *string `json:"vehicle_type_code" validate:"omitempty,max=32"`
	IsActive        *bool   `json:"is_active"`
}

// YearData are the running figures and annual cost items of a vehicle in
// one fiscal year. Acquisition, financing, insurance, taxes and staff are
// time based; maintenance, fuel, tyres and urea are km based.
type YearData struct {
	VehicleID       uuid.UUID `json:"vehicle_id"`
	Year            int       `json:"year"`
	AnnualKm        float64   `json:"annual_km"`
	ServiceHours    float64   `json:"service_hours"`
	StaffHourlyCost float64   `json:"staff_hourly_cost"`
	Acquisition     float64   `json:"acquisition"`
	Financing       float64   `json:"financing"`
	Insurance       float64   `json:"insurance"`
	Taxes           float64   `json:"taxes"`
	Maintenance     float64   `json:"maintenance"`
	Fuel            float64   `json:"fuel"`
	Tyres           float64   `json:"tyres"`
	Urea            float64   `json:"urea"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// YearDataRequest is the body of PUT /fleet/vehicles/:id/years/:year
type YearDataRequest struct {
	AnnualKm        float64 `json:"annual_km" validate:"gte=0"`
	ServiceHours    float64 `json:"service_hours" validate:"gte=0"`
	StaffHourlyCost float64 `json:"staff_hourly_cost" validate:"gte=0"`
	Acquisition     float64 `json:"acquisition" validate:"gte=0"`
	Financing       float64 `json:"financing" validate:"gte=0"`
	Insurance       float64 `json:"insurance" validate:"gte=0"`
	Taxes           float64 `json:"taxes" validate:"gte=0"`
	Maintenance     float64 `json:"maintenance" validate:"gte=0"`
	Fuel            float64 `json:"fuel" validate:"gte=0"`
	Tyres           float64 `json:"tyres" validate:"gte=0"`
	Urea            float64 `json:"urea" validate:"gte=0"`
}

// CostSummary is the yearly cost of one vehicle
type CostSummary struct {
	TimeCosts   float64 `json:"time_costs"`
	KmCosts     float64 `json:"km_costs"`
	Total       float64 `json:"total"`
	CostPerHour float64 `json:"cost_per_hour"`
	CostPerKm   float64 `json:"cost_per_km"`
	Monthly     float64 `json:"monthly"`
}

// VehicleSummary is a vehicle with its figures for a year. Data and
// Summary are nil when the year has not been entered.
type VehicleSummary struct {
	Vehicle Vehicle      `json:"vehicle"`
	Data    *YearData    `json:"data,omitempty"`
	Summary *CostSummary `json:"summary,omitempty"`
}

// FleetTotals adds up the vehicles of a fleet summary
type FleetTotals struct {
	Vehicles    int     `json:"vehicles"`
	AnnualKm    float64 `json:"annual_km"`
	Hours       float64 `json:"hours"`
	TimeCosts   float64 `json:"time_costs"`
	KmCosts     float64 `json:"km_costs"`
	Total       float64 `json:"total"`
	CostPerHour float64 `json:"cost_per_hour"`
	CostPerKm   float64 `json:"cost_per_km"`
	Monthly     float64 `json:"monthly"`
}

// FleetSummary lists the active vehicles for a year
type FleetSummary struct {
	Year     int              `json:"year"`
	Vehicles []VehicleSummary `json:"vehicles"`
	Totals   FleetTotals      `json:"totals"`
}

// VehicleTypeCost is the operating cost of the vehicles of one tariff
// vehicle type. CostPerHour only carries time based costs and CostPerKm
// only km based costs.
type VehicleTypeCost struct {
	VehicleTypeCode string  `json:"vehicle_type_code"`
	Vehicles        int     `json:"vehicles"`
	CostPerHour     float64 `json:"cost_per_hour"`
	CostPerKm       float64 `json:"cost_per_km"`
}

// ApplyResult reports which vehicle types received costs
type ApplyResult struct {
	Year    int               `json:"year"`
	Applied []VehicleTypeCost `json:"applied"`
	Failed  []string          `json:"failed"`
}
