package incentives

import (
	"sort"
	"strings"
	"time"

	"github.com/cesarmartin1/crm-david/internal/quotes"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Settings are the built-in incentive parameters
type Settings struct {
	MonthlyRate     float64
	GrowthLowPct    float64
	GrowthLowBonus  float64
	GrowthHighPct   float64
	GrowthHighBonus float64
	PointsPerOrder  int
}

// DefaultSettings returns the standard plan: 0.5% monthly, growth tiers at
// 10% and 20%, two points per accepted order
func DefaultSettings() Settings {
	return Settings{
		MonthlyRate:     0.005,
		GrowthLowPct:    10,
		GrowthLowBonus:  100,
		GrowthHighPct:   20,
		GrowthHighBonus: 250,
		PointsPerOrder:  2,
	}
}

// Calculator evaluates commissions, bonuses and points
type Calculator struct {
	settings Settings
}

// NewCalculator creates a calculator
func NewCalculator(s Settings) Calculator {
	return Calculator{settings: s}
}

// Settings returns the calculator parameters
func (c Calculator) Settings() Settings {
	return c.settings
}

func dec(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v)
}

func cents(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}

// Quarter returns the four-month quarter (1..3) a month belongs to
func Quarter(m time.Month) int {
	return (int(m)-1)/4 + 1
}

// QuarterBounds returns the first day of quarter q and the first day after it
func QuarterBounds(year, q int) (time.Time, time.Time) {
	first := time.Month((q-1)*4 + 1)
	from := time.Date(year, first, 1, 0, 0, 0, 0, time.UTC)
	return from, from.AddDate(0, 4, 0)
}

// MonthBounds returns the first day of the month and the first day after it
func MonthBounds(year int, month time.Month) (time.Time, time.Time) {
	from := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return from, from.AddDate(0, 1, 0)
}

// GrowthPct is the growth of current over previous in percent. There is no
// growth figure without a previous period.
func GrowthPct(current, previous float64) *float64 {
	if previous <= 0 {
		return nil
	}
	g := dec(current).Sub(dec(previous)).Div(dec(previous)).Mul(hundred)
	v := cents(g)
	return &v
}

// MonthlyCommission is the flat rate applied to every accepted euro
func (c Calculator) MonthlyCommission(revenue float64) float64 {
	if revenue <= 0 {
		return 0
	}
	return cents(dec(revenue).Mul(dec(c.settings.MonthlyRate)))
}

// MonthlyBonuses pays the highest growth tier reached plus every active
// monthly rule that holds
func (c Calculator) MonthlyBonuses(current, previous float64, orders int, rules []BonusRule) []BonusAward {
	awards := make([]BonusAward, 0)
	growth := GrowthPct(current, previous)
	if growth != nil {
		switch {
		case *growth >= c.settings.GrowthHighPct:
			awards = append(awards, BonusAward{Name: "growth_high", Payout: c.settings.GrowthHighBonus})
		case *growth >= c.settings.GrowthLowPct:
			awards = append(awards, BonusAward{Name: "growth_low", Payout: c.settings.GrowthLowBonus})
		}
	}
	return append(awards, applyRules(rules, PeriodMonthly, Totals{Revenue: current, Orders: orders}, growth)...)
}

// QuarterlyCommission applies the bracket percentage to the revenue above
// minimum. Nothing is paid unless revenue exceeds minimum.
func (c Calculator) QuarterlyCommission(revenue, minimum float64, brackets []CommissionBracket) float64 {
	commission, _ := quarterlyCommission(revenue, minimum, brackets)
	return commission
}

func quarterlyCommission(revenue, minimum float64, brackets []CommissionBracket) (float64, float64) {
	if revenue <= minimum {
		return 0, 0
	}
	excess := dec(revenue).Sub(dec(minimum))
	b, ok := bracketFor(excess, brackets)
	if !ok {
		return 0, 0
	}
	return cents(excess.Mul(dec(b.Percent)).Div(hundred)), b.Percent
}

// bracketFor walks active brackets by ascending lower bound. The bracket
// containing excess wins, otherwise the last one whose upper bound is
// exceeded. Ranges are half open: [from, to).
func bracketFor(excess decimal.Decimal, brackets []CommissionBracket) (CommissionBracket, bool) {
	active := make([]CommissionBracket, 0, len(brackets))
	for _, b := range brackets {
		if b.IsActive {
			active = append(active, b)
		}
	}
	sort.SliceStable(active, func(i, j int) bool { return active[i].AmountFrom < active[j].AmountFrom })

	var found CommissionBracket
	ok := false
	for _, b := range active {
		from := dec(b.AmountFrom)
		if excess.GreaterThanOrEqual(from) && (b.AmountTo == nil || excess.LessThan(dec(*b.AmountTo))) {
			return b, true
		}
		if b.AmountTo != nil && excess.GreaterThanOrEqual(dec(*b.AmountTo)) {
			found, ok = b, true
		}
	}
	return found, ok
}

// QuarterlyBonuses pays every active quarterly rule that holds. Growth is
// measured against the same quarter one year earlier.
func (c Calculator) QuarterlyBonuses(q QuarterlyFigures, rules []BonusRule) []BonusAward {
	return applyRules(rules, PeriodQuarterly, Totals{Revenue: q.Revenue, Orders: q.Orders}, q.GrowthPct)
}

// Points awards PointsPerOrder per accepted order plus the points of every
// active action performed, counts being keyed by action code
func (c Calculator) Points(acceptedOrders int, actions []PointAction, counts map[string]int) int {
	points := acceptedOrders * c.settings.PointsPerOrder
	for _, a := range actions {
		if a.IsActive {
			points += a.Points * counts[a.Code]
		}
	}
	return points
}

func applyRules(rules []BonusRule, period Period, t Totals, growth *float64) []BonusAward {
	awards := make([]BonusAward, 0)
	for _, r := range rules {
		if !r.IsActive || r.Period != period {
			continue
		}
		var value float64
		switch r.Metric {
		case MetricRevenue:
			value = t.Revenue
		case MetricOrders:
			value = float64(t.Orders)
		case MetricGrowthPct:
			if growth == nil {
				continue
			}
			value = *growth
		default:
			continue
		}
		if compare(dec(value), r.Operator, dec(r.Threshold)) {
			awards = append(awards, BonusAward{Name: r.Name, Payout: r.Payout})
		}
	}
	return awards
}

func compare(v decimal.Decimal, op Operator, threshold decimal.Decimal) bool {
	switch op {
	case OpGTE:
		return v.GreaterThanOrEqual(threshold)
	case OpGT:
		return v.GreaterThan(threshold)
	case OpLTE:
		return v.LessThanOrEqual(threshold)
	case OpLT:
		return v.LessThan(threshold)
	case OpEQ:
		return v.Equal(threshold)
	}
	return false
}

// SumAwards totals bonus payouts
func SumAwards(awards []BonusAward) float64 {
	total := decimal.Zero
	for _, a := range awards {
		total = total.Add(dec(a.Payout))
	}
	return cents(total)
}

// Tally sums accepted lines created in [from, to) per agent. Orders are
// distinct quote codes.
func Tally(lines []quotes.QuoteLine, from, to time.Time) map[string]Totals {
	revenue := make(map[string]decimal.Decimal)
	orders := make(map[string]map[string]struct{})
	for _, l := range lines {
		agent := strings.TrimSpace(l.Agent)
		if agent == "" || !l.Status.IsAccepted() || l.CreatedAt == nil {
			continue
		}
		if l.CreatedAt.Before(from) || !l.CreatedAt.Before(to) {
			continue
		}
		revenue[agent] = revenue[agent].Add(dec(l.Amount))
		if orders[agent] == nil {
			orders[agent] = make(map[string]struct{})
		}
		orders[agent][l.QuoteCode] = struct{}{}
	}

	out := make(map[string]Totals, len(revenue))
	for agent, r := range revenue {
		out[agent] = Totals{Revenue: cents(r), Orders: len(orders[agent])}
	}
	return out
}

// Agents lists every agent with at least one line, sorted
func Agents(lines []quotes.QuoteLine) []string {
	set := make(map[string]struct{})
	for _, l := range lines {
		if a := strings.TrimSpace(l.Agent); a != "" {
			set[a] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for a := range set {
		out = append(out, a)
	}
	sort.Strings(out)
	return out
}

// Redeemable lists the active rewards affordable with points, cheapest first
func Redeemable(rewards []Reward, points int) []Reward {
	out := make([]Reward, 0)
	for _, r := range rewards {
		if r.IsActive && r.PointsRequired <= points {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].PointsRequired < out[j].PointsRequired })
	return out
}
