package customers

import (
	"time"
)

// Segment is the classification label derived from a customer's accepted quotes
type Segment string

const (
	SegmentProspect         Segment = "PROSPECT"
	SegmentInactive         Segment = "INACTIVE"
	SegmentReactivated      Segment = "REACTIVATED"
	SegmentHabitual         Segment = "HABITUAL"
	SegmentOccasionalActive Segment = "OCCASIONAL_ACTIVE"
)

// Segments lists every segment in display order
var Segments = []Segment{
	SegmentHabitual,
	SegmentOccasionalActive,
	SegmentReactivated,
	SegmentInactive,
	SegmentProspect,
}

// Thresholds tune the classifier
type Thresholds struct {
	ActiveMonths   int     `json:"active_months"`
	InactiveMonths int     `json:"inactive_months"`
	MinServices12m int     `json:"min_services_12m"`
	MinServices24m int     `json:"min_services_24m"`
	MinRevenue24m  float64 `json:"min_revenue_24m"`
}

// History is the accepted order history of one customer, reduced to what
// the classifier needs. Dates are quote creation dates.
type History struct {
	FirstOrder    *time.Time
	LastOrder     *time.Time
	PreviousOrder *time.Time
	Services12m   int
	Services24m   int
	Revenue24m    float64
}

// Metrics are the per-customer figures behind a classification
type Metrics struct {
	CustomerCode  string     `json:"customer_code"`
	CustomerName  string     `json:"customer_name"`
	CustomerGroup string     `json:"customer_group"`
	FirstOrder    *time.Time `json:"first_order,omitempty"`
	LastOrder     *time.Time `json:"last_order,omitempty"`
	PreviousOrder *time.Time `json:"previous_order,omitempty"`
	Services12m   int        `json:"services_12m"`
	Services24m   int        `json:"services_24m"`
	Revenue12m    float64    `json:"revenue_12m"`
	Revenue24m    float64    `json:"revenue_24m"`
	TotalServices int        `json:"total_services"`
	TotalRevenue  float64    `json:"total_revenue"`
	DaysSinceLast *int       `json:"days_since_last,omitempty"`
	Segment       Segment    `json:"segment"`
}

// SegmentCount summarises one segment
type SegmentCount struct {
	Segment   Segment `json:"segment"`
	Customers int     `json:"customers"`
	Revenue   float64 `json:"revenue"`
}

// InactiveCustomer is a customer with no recent quote activity
type InactiveCustomer struct {
	CustomerCode string    `json:"customer_code"`
	CustomerName string    `json:"customer_name"`
	Group        string    `json:"group"`
	LastActivity time.Time `json:"last_activity"`
	DaysInactive int       `json:"days_inactive"`
	Quotes       int       `json:"quotes"`
	Amount       float64   `json:"amount"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone"`
	Mobile       string    `json:"mobile"`
}

// SegmentFilter selects customers for a marketing segment. Nil bounds are open.
type SegmentFilter struct {
	Group       string   `form:"group"`
	ServiceType string   `form:"service_type"`
	MinAmount   *float64 `form:"min_amount" validate:"omitempty,gte=0"`
	MaxAmount   *float64 `form:"max_amount" validate:"omitempty,gte=0"`
}

// Contact is one row of a segmentation result
type Contact struct {
	CustomerCode string  `json:"customer_code"`
	CustomerName string  `json:"customer_name"`
	Group        string  `json:"group"`
	Email        string  `json:"email"`
	Phone        string  `json:"phone"`
	Mobile       string  `json:"mobile"`
	Quotes       int     `json:"quotes"`
	Amount       float64 `json:"amount"`
}

// Stats summarise every quote of one customer
type Stats struct {
	CustomerCode   string     `json:"customer_code"`
	TotalQuotes    int        `json:"total_quotes"`
	AcceptedQuotes int        `json:"accepted_quotes"`
	RejectedQuotes int        `json:"rejected_quotes"`
	TotalAmount    float64    `json:"total_amount"`
	AcceptedAmount float64    `json:"accepted_amount"`
	FirstDate      *time.Time `json:"first_date,omitempty"`
	LastDate       *time.Time `json:"last_date,omitempty"`
	ConversionRate float64    `json:"conversion_rate"`
}

// Customer is the master record imported from the business system
type Customer struct {
	Code           string    `json:"code"`
	Name           string    `json:"name"`
	TaxID          string    `json:"tax_id"`
	City           string    `json:"city"`
	Province       string    `json:"province"`
	Country        string    `json:"country"`
	Email          string    `json:"email"`
	Group          string    `json:"group"`
	ClientTypeCode *string   `json:"client_type_code,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// CustomerProfile is a master record with its live metrics
type CustomerProfile struct {
	Customer    *Customer `json:"customer,omitempty"`
	Metrics     *Metrics  `json:"metrics,omitempty"`
	Deactivated bool      `json:"deactivated"`
}

// Deactivation hides a customer from contact lists
type Deactivation struct {
	CustomerCode  string    `json:"customer_code"`
	Reason        string    `json:"reason"`
	DeactivatedBy string    `json:"deactivated_by"`
	DeactivatedAt time.Time `json:"deactivated_at"`
}

// DeactivateRequest is the body of POST /customers/:code/deactivate
type DeactivateRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

// SetClientTypeRequest assigns a client type used by the tariff multiplier
type SetClientTypeRequest struct {
	ClientTypeCode *string `json:"client_type_code" validate:"omitempty,max=32"`
}
