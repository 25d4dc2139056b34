package incentives

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Period is the evaluation window of a bonus rule or history row
type Period string

const (
	PeriodMonthly   Period = "monthly"
	PeriodQuarterly Period = "quarterly"
)

// Metric is the figure a bonus rule compares against its threshold
type Metric string

const (
	MetricRevenue   Metric = "revenue"
	MetricOrders    Metric = "orders"
	MetricGrowthPct Metric = "growth_pct"
)

// Operator compares a metric with a threshold
type Operator string

const (
	OpGTE Operator = ">="
	OpGT  Operator = ">"
	OpLTE Operator = "<="
	OpLT  Operator = "<"
	OpEQ  Operator = "=="
)

// Valid reports whether o is a supported comparison
func (o Operator) Valid() bool {
	switch o {
	case OpGTE, OpGT, OpLTE, OpLT, OpEQ:
		return true
	}
	return false
}

// CommissionBracket maps a range of comissionable excess to a percentage.
// A nil AmountTo leaves the bracket open ended.
type CommissionBracket struct {
	ID         uuid.UUID `json:"id"`
	AmountFrom float64   `json:"amount_from" validate:"gte=0"`
	AmountTo   *float64  `json:"amount_to,omitempty" validate:"omitempty,gte=0"`
	Percent    float64   `json:"percent" validate:"gte=0,lte=100"`
	IsActive   bool      `json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// BonusRule pays Payout when Metric Operator Threshold holds for Period
type BonusRule struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name" validate:"required,max=255"`
	Period    Period    `json:"period" validate:"required,oneof=monthly quarterly"`
	Metric    Metric    `json:"metric" validate:"required,oneof=revenue orders growth_pct"`
	Operator  Operator  `json:"operator" validate:"required,max=2"`
	Threshold float64   `json:"threshold"`
	Payout    float64   `json:"payout" validate:"gte=0"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PointAction awards Points each time a salesperson performs Code
type PointAction struct {
	ID        uuid.UUID `json:"id"`
	Code      string    `json:"code" validate:"required,max=64"`
	Name      string    `json:"name" validate:"required,max=255"`
	Points    int       `json:"points"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PointEvent records one performed action
type PointEvent struct {
	ID          uuid.UUID `json:"id"`
	Salesperson string    `json:"salesperson"`
	ActionCode  string    `json:"action_code"`
	QuoteCode   string    `json:"quote_code"`
	OccurredOn  time.Time `json:"occurred_on"`
	CreatedAt   time.Time `json:"created_at"`
}

// LogPointsRequest registers a point event
type LogPointsRequest struct {
	Salesperson string `json:"salesperson" validate:"omitempty,max=128"`
	ActionCode  string `json:"action_code" validate:"required,max=64"`
	QuoteCode   string `json:"quote_code" validate:"omitempty,max=64"`
	OccurredOn  string `json:"occurred_on" validate:"omitempty,datetime=2006-01-02"`
}

// Reward can be redeemed once a salesperson holds PointsRequired
type Reward struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name" validate:"required,max=255"`
	PointsRequired int       `json:"points_required" validate:"gte=0"`
	Description    string    `json:"description"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// QuotePrize is a one-off prize tied to a specific quote
type QuotePrize struct {
	ID           uuid.UUID `json:"id"`
	QuoteCode    string    `json:"quote_code" validate:"required,max=64"`
	CustomerCode string    `json:"customer_code" validate:"omitempty,max=64"`
	Salesperson  string    `json:"salesperson" validate:"required,max=128"`
	Amount       float64   `json:"amount" validate:"gte=0"`
	Prize        float64   `json:"prize" validate:"gte=0"`
	Reason       string    `json:"reason"`
	Achieved     bool      `json:"achieved"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Config groups every incentive table the calculator reads
type Config struct {
	Brackets     []CommissionBracket `json:"brackets"`
	BonusRules   []BonusRule         `json:"bonus_rules"`
	PointActions []PointAction       `json:"point_actions"`
	Rewards      []Reward            `json:"rewards"`
}

// Totals is the accepted business of one salesperson over a window
type Totals struct {
	Revenue float64 `json:"revenue"`
	Orders  int     `json:"orders"`
}

// BonusAward is one bonus earned in a period
type BonusAward struct {
	Name   string  `json:"name"`
	Payout float64 `json:"payout"`
}

// MonthlyFigures are the month results of a salesperson
type MonthlyFigures struct {
	Revenue         float64      `json:"revenue"`
	PreviousRevenue float64      `json:"previous_revenue"`
	Orders          int          `json:"orders"`
	GrowthPct       *float64     `json:"growth_pct,omitempty"`
	Commission      float64      `json:"commission"`
	Bonuses         []BonusAward `json:"bonuses"`
	BonusTotal      float64      `json:"bonus_total"`
}

// QuarterlyFigures are the quarter results of a salesperson. Minimum is the
// revenue of the same quarter one year earlier.
type QuarterlyFigures struct {
	Quarter        int          `json:"quarter"`
	Revenue        float64      `json:"revenue"`
	Minimum        float64      `json:"minimum"`
	Excess         float64      `json:"excess"`
	Orders         int          `json:"orders"`
	GrowthPct      *float64     `json:"growth_pct,omitempty"`
	BracketPercent float64      `json:"bracket_percent"`
	Commission     float64      `json:"commission"`
	Bonuses        []BonusAward `json:"bonuses"`
	BonusTotal     float64      `json:"bonus_total"`
}

// Summary is the full incentive picture of a salesperson for one month
// and the quarter containing it
type Summary struct {
	Salesperson string           `json:"salesperson"`
	Year        int              `json:"year"`
	Month       int              `json:"month"`
	Monthly     MonthlyFigures   `json:"monthly"`
	Quarterly   QuarterlyFigures `json:"quarterly"`
	Points      int              `json:"points"`
	Rewards     []Reward         `json:"rewards"`
	Prizes      float64          `json:"prizes"`
	Total       float64          `json:"total"`
}

// LeaderboardEntry ranks one salesperson for a month
type LeaderboardEntry struct {
	Rank        int     `json:"rank"`
	Salesperson string  `json:"salesperson"`
	Revenue     float64 `json:"revenue"`
	Orders      int     `json:"orders"`
	Commission  float64 `json:"commission"`
	Bonuses     float64 `json:"bonuses"`
	Points      int     `json:"points"`
	Total       float64 `json:"total"`
}

// HistoryEntry is a stored incentive settlement
type HistoryEntry struct {
	ID          uuid.UUID       `json:"id"`
	Salesperson string          `json:"salesperson"`
	PeriodType  Period          `json:"period_type"`
	Year        int             `json:"year"`
	Period      int             `json:"period"`
	Revenue     float64         `json:"revenue"`
	Commission  float64         `json:"commission"`
	Bonuses     float64         `json:"bonuses"`
	Points      int             `json:"points"`
	Details     json.RawMessage `json:"details"`
	RecordedBy  string          `json:"recorded_by"`
	CreatedAt   time.Time       `json:"created_at"`
}

// RecordRequest settles a month or a quarter for a salesperson
type RecordRequest struct {
	Salesperson string `json:"salesperson" validate:"required,max=128"`
	PeriodType  Period `json:"period_type" validate:"required,oneof=monthly quarterly"`
	Year        int    `json:"year" validate:"required,gte=2000,lte=2100"`
	Period      int    `json:"period" validate:"required,gte=1,lte=12"`
}

// HistoryFilter narrows the stored settlements. Zero values match everything.
type HistoryFilter struct {
	Salesperson string `form:"salesperson"`
	PeriodType  Period `form:"period_type" validate:"omitempty,oneof=monthly quarterly"`
	Year        int    `form:"year" validate:"omitempty,gte=2000,lte=2100"`
}
