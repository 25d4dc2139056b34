package quotes

import (
	"time"
)

// Status is the quote status code exported by the business system
type Status string

const (
	StatusDraft             Status = "EL"
	StatusValued            Status = "V"
	StatusSent              Status = "E"
	StatusAccepted          Status = "A"
	StatusPartiallyAccepted Status = "AP"
	StatusRejected          Status = "R"
	StatusCancelled         Status = "AN"
)

var statusLabels = map[Status]string{
	StatusAccepted:          "Aceptado",
	StatusPartiallyAccepted: "Aceptado Parcialmente",
	StatusRejected:          "Rechazado",
	StatusSent:              "Enviado",
	StatusValued:            "Valorado",
	StatusDraft:             "En elaboracion",
	StatusCancelled:         "Anulado",
}

// Label returns the human readable status name
func (s Status) Label() string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return "Desconocido"
}

// IsAccepted reports whether the status counts as won business.
// Partially accepted quotes are always counted as accepted.
func (s Status) IsAccepted() bool {
	return s == StatusAccepted || s == StatusPartiallyAccepted
}

// IsPending reports whether the quote awaits the customer's answer
func (s Status) IsPending() bool {
	return s == StatusSent || s == StatusValued
}

// QuoteLine is one service line of a quote. Several lines share a QuoteCode.
type QuoteLine struct {
	ID            int64      `json:"id"`
	QuoteCode     string     `json:"quote_code"`
	CustomerCode  string     `json:"customer_code"`
	CustomerName  string     `json:"customer_name"`
	CustomerGroup string     `json:"customer_group"`
	Status        Status     `json:"status"`
	CreatedAt     *time.Time `json:"created_at,omitempty"`
	ServiceDate   *time.Time `json:"service_date,omitempty"`
	Amount        float64    `json:"amount"`
	Agent         string     `json:"agent"`
	ServiceType   string     `json:"service_type"`
	ContactMethod string     `json:"contact_method"`
	Source        string     `json:"source"`
	Email         string     `json:"email"`
	Phone         string     `json:"phone"`
	Mobile        string     `json:"mobile"`
	Notes         string     `json:"notes"`
}

// KPIs are the headline pipeline figures. Counts are distinct quotes,
// amounts sum every line.
type KPIs struct {
	TotalQuotes    int     `json:"total_quotes"`
	AcceptedQuotes int     `json:"accepted_quotes"`
	RejectedQuotes int     `json:"rejected_quotes"`
	PendingQuotes  int     `json:"pending_quotes"`
	ConversionRate float64 `json:"conversion_rate"`
	AcceptedAmount float64 `json:"accepted_amount"`
	TotalAmount    float64 `json:"total_amount"`
	TotalLines     int     `json:"total_lines"`
}

// Dimension selects the grouping column for conversion analysis
type Dimension string

const (
	DimensionAgent         Dimension = "agent"
	DimensionServiceType   Dimension = "service_type"
	DimensionContactMethod Dimension = "contact_method"
	DimensionSource        Dimension = "source"
	DimensionCustomerGroup Dimension = "customer_group"
)

// ConversionRow is the conversion of one dimension value
type ConversionRow struct {
	Key            string  `json:"key"`
	TotalQuotes    int     `json:"total_quotes"`
	AcceptedQuotes int     `json:"accepted_quotes"`
	AcceptedAmount float64 `json:"accepted_amount"`
	ConversionRate float64 `json:"conversion_rate"`
}

// TrendPoint counts lines per status for one creation month
type TrendPoint struct {
	Month  string         `json:"month"`
	Counts map[Status]int `json:"counts"`
	Total  int            `json:"total"`
}

// LeadTime is the anticipation between request and service of one line
type LeadTime struct {
	QuoteCode    string    `json:"quote_code"`
	CustomerName string    `json:"customer_name"`
	ServiceType  string    `json:"service_type"`
	CreatedAt    time.Time `json:"created_at"`
	ServiceDate  time.Time `json:"service_date"`
	Days         int       `json:"days"`
	Months       float64   `json:"months"`
	Amount       float64   `json:"amount"`
}

// LeadTimeStats aggregates lead times of one service type
type LeadTimeStats struct {
	ServiceType  string  `json:"service_type"`
	MeanDays     float64 `json:"mean_days"`
	MedianDays   float64 `json:"median_days"`
	MinDays      int     `json:"min_days"`
	MaxDays      int     `json:"max_days"`
	StdDevDays   float64 `json:"stddev_days"`
	Count        int     `json:"count"`
	MeanMonths   float64 `json:"mean_months"`
	MedianMonths float64 `json:"median_months"`
	Amount       float64 `json:"amount"`
}

// LeadTimeTrendPoint is the mean lead time of lines created in a month
type LeadTimeTrendPoint struct {
	Month      string  `json:"month"`
	MeanDays   float64 `json:"mean_days"`
	MeanMonths float64 `json:"mean_months"`
	Count      int     `json:"count"`
}

// Filter narrows the line set. Zero values match everything.
type Filter struct {
	Agent         string
	ServiceType   string
	CustomerGroup string
	CustomerCode  string
	Status        Status
	From          *time.Time
	To            *time.Time
}

// FilterOptions are the distinct values available for filtering
type FilterOptions struct {
	Agents         []string `json:"agents"`
	ServiceTypes   []string `json:"service_types"`
	CustomerGroups []string `json:"customer_groups"`
	ContactMethods []string `json:"contact_methods"`
	Sources        []string `json:"sources"`
	Statuses       []Status `json:"statuses"`
}

// UpdateStatusRequest is the body of PATCH /quotes/:code/status
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,quote_status"`
}

// UpdateNotesRequest is the body of PATCH /quotes/:code/notes
type UpdateNotesRequest struct {
	Notes string `json:"notes" validate:"max=4000"`
}
