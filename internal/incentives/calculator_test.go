package incentives

import (
	"testing"
	"time"

	"github.com/cesarmartin1/crm-david/internal/quotes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(v float64) *float64 { return &v }

func sampleBrackets() []CommissionBracket {
	return []CommissionBracket{
		{AmountFrom: 60000, AmountTo: ptr(100000), Percent: 0.7, IsActive: true},
		{AmountFrom: 0, AmountTo: ptr(30000), Percent: 0.3, IsActive: true},
		{AmountFrom: 100000, Percent: 1.0, IsActive: true},
		{AmountFrom: 30000, AmountTo: ptr(60000), Percent: 0.5, IsActive: true},
	}
}

func day(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d
}

func line(code, agent string, status quotes.Status, created string, amount float64) quotes.QuoteLine {
	d := day(created)
	return quotes.QuoteLine{QuoteCode: code, Agent: agent, Status: status, CreatedAt: &d, Amount: amount}
}

func TestMonthlyCommission(t *testing.T) {
	c := NewCalculator(DefaultSettings())
	assert.Equal(t, 325.0, c.MonthlyCommission(65000))
	assert.Equal(t, 0.0, c.MonthlyCommission(0))
	assert.Equal(t, 0.06, c.MonthlyCommission(12.5))
}

func TestQuarterlyCommission(t *testing.T) {
	c := NewCalculator(DefaultSettings())

	tests := []struct {
		name     string
		revenue  float64
		minimum  float64
		brackets []CommissionBracket
		want     float64
	}{
		{"excess in 60k-100k bracket", 250000, 180000, sampleBrackets(), 490},
		{"excess in first bracket", 110000, 100000, sampleBrackets(), 30},
		{"open ended top bracket", 400000, 100000, sampleBrackets(), 3000},
		{"bracket lower bound is inclusive", 130000, 100000, sampleBrackets(), 150},
		{"equal to minimum pays nothing", 180000, 180000, sampleBrackets(), 0},
		{"below minimum pays nothing", 150000, 180000, sampleBrackets(), 0},
		{"no brackets", 250000, 180000, nil, 0},
		{
			"excess above every closed bracket uses the last one exceeded",
			300000, 100000,
			[]CommissionBracket{
				{AmountFrom: 0, AmountTo: ptr(50000), Percent: 0.2, IsActive: true},
				{AmountFrom: 50000, AmountTo: ptr(150000), Percent: 0.4, IsActive: true},
			},
			800,
		},
		{
			"inactive brackets are ignored",
			250000, 180000,
			[]CommissionBracket{
				{AmountFrom: 60000, AmountTo: ptr(100000), Percent: 0.7, IsActive: false},
				{AmountFrom: 0, Percent: 0.1, IsActive: true},
			},
			70,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.QuarterlyCommission(tt.revenue, tt.minimum, tt.brackets))
		})
	}
}

func TestQuarterlyCommission_NeverPaysWithoutExcess(t *testing.T) {
	c := NewCalculator(DefaultSettings())
	for _, minimum := range []float64{0, 1000, 50000, 250000} {
		for _, revenue := range []float64{0, 500, 1000, 50000, 250000} {
			if revenue <= minimum {
				assert.Zero(t, c.QuarterlyCommission(revenue, minimum, sampleBrackets()),
					"revenue %v minimum %v", revenue, minimum)
			}
		}
	}
}

func TestMonthlyBonuses(t *testing.T) {
	c := NewCalculator(DefaultSettings())
	rules := []BonusRule{
		{Name: "ten orders", Period: PeriodMonthly, Metric: MetricOrders, Operator: OpGTE, Threshold: 10, Payout: 50, IsActive: true},
		{Name: "big month", Period: PeriodMonthly, Metric: MetricRevenue, Operator: OpGT, Threshold: 100000, Payout: 200, IsActive: true},
		{Name: "quarter only", Period: PeriodQuarterly, Metric: MetricOrders, Operator: OpGTE, Threshold: 1, Payout: 999, IsActive: true},
		{Name: "disabled", Period: PeriodMonthly, Metric: MetricOrders, Operator: OpGTE, Threshold: 0, Payout: 999, IsActive: false},
	}

	t.Run("high growth pays only the high tier", func(t *testing.T) {
		awards := c.MonthlyBonuses(1250, 1000, 3, nil)
		require.Len(t, awards, 1)
		assert.Equal(t, "growth_high", awards[0].Name)
		assert.Equal(t, 250.0, awards[0].Payout)
	})

	t.Run("low growth tier", func(t *testing.T) {
		awards := c.MonthlyBonuses(1100, 1000, 3, nil)
		require.Len(t, awards, 1)
		assert.Equal(t, "growth_low", awards[0].Name)
	})

	t.Run("growth below ten percent", func(t *testing.T) {
		assert.Empty(t, c.MonthlyBonuses(1099, 1000, 3, nil))
	})

	t.Run("no previous month means no growth bonus", func(t *testing.T) {
		assert.Empty(t, c.MonthlyBonuses(5000, 0, 3, nil))
	})

	t.Run("configured monthly rules", func(t *testing.T) {
		awards := c.MonthlyBonuses(120000, 120000, 12, rules)
		names := make([]string, 0, len(awards))
		for _, a := range awards {
			names = append(names, a.Name)
		}
		assert.ElementsMatch(t, []string{"ten orders", "big month"}, names)
		assert.Equal(t, 250.0, SumAwards(awards))
	})

	t.Run("growth rule skipped without previous month", func(t *testing.T) {
		growthRule := []BonusRule{{Name: "g", Period: PeriodMonthly, Metric: MetricGrowthPct, Operator: OpLT, Threshold: 100, Payout: 10, IsActive: true}}
		assert.Empty(t, c.MonthlyBonuses(100, 0, 1, growthRule))
	})
}

func TestQuarterlyBonuses(t *testing.T) {
	c := NewCalculator(DefaultSettings())
	rules := []BonusRule{
		{Name: "growth", Period: PeriodQuarterly, Metric: MetricGrowthPct, Operator: OpGTE, Threshold: 30, Payout: 500, IsActive: true},
		{Name: "exact", Period: PeriodQuarterly, Metric: MetricOrders, Operator: OpEQ, Threshold: 40, Payout: 40, IsActive: true},
		{Name: "monthly", Period: PeriodMonthly, Metric: MetricOrders, Operator: OpGTE, Threshold: 0, Payout: 1, IsActive: true},
	}
	q := QuarterlyFigures{Revenue: 250000, Minimum: 180000, Orders: 40, GrowthPct: GrowthPct(250000, 180000)}

	awards := c.QuarterlyBonuses(q, rules)
	require.Len(t, awards, 2)
	assert.Equal(t, 540.0, SumAwards(awards))
}

func TestPoints(t *testing.T) {
	c := NewCalculator(DefaultSettings())
	actions := []PointAction{
		{Code: "visit", Points: 5, IsActive: true},
		{Code: "call", Points: 1, IsActive: true},
		{Code: "old", Points: 100, IsActive: false},
	}
	counts := map[string]int{"visit": 2, "call": 3, "old": 1}

	assert.Equal(t, 8*2+10+3, c.Points(8, actions, counts))
	assert.Equal(t, 0, c.Points(0, nil, nil))
}

func TestQuarter(t *testing.T) {
	assert.Equal(t, 1, Quarter(time.January))
	assert.Equal(t, 1, Quarter(time.April))
	assert.Equal(t, 2, Quarter(time.May))
	assert.Equal(t, 2, Quarter(time.August))
	assert.Equal(t, 3, Quarter(time.September))
	assert.Equal(t, 3, Quarter(time.December))

	from, to := QuarterBounds(2024, 2)
	assert.Equal(t, day("2024-05-01"), from)
	assert.Equal(t, day("2024-09-01"), to)
}

func TestGrowthPct(t *testing.T) {
	assert.Nil(t, GrowthPct(100, 0))
	g := GrowthPct(250000, 180000)
	require.NotNil(t, g)
	assert.Equal(t, 38.89, *g)
}

func TestTally(t *testing.T) {
	lines := []quotes.QuoteLine{
		line("Q1", "Ana", quotes.StatusAccepted, "2024-03-02", 1000),
		line("Q1", "Ana", quotes.StatusAccepted, "2024-03-02", 500),
		line("Q2", "Ana", quotes.StatusPartiallyAccepted, "2024-03-20", 250.5),
		line("Q3", "Ana", quotes.StatusRejected, "2024-03-21", 9999),
		line("Q4", "Ana", quotes.StatusAccepted, "2024-04-01", 700),
		line("Q5", " Luis ", quotes.StatusAccepted, "2024-03-31", 300),
		line("Q6", "", quotes.StatusAccepted, "2024-03-10", 1),
	}

	from, to := MonthBounds(2024, time.March)
	got := Tally(lines, from, to)
	assert.Equal(t, map[string]Totals{
		"Ana":  {Revenue: 1750.5, Orders: 2},
		"Luis": {Revenue: 300, Orders: 1},
	}, got)

	assert.Equal(t, []string{"Ana", "Luis"}, Agents(lines))
}

func TestRedeemable(t *testing.T) {
	rewards := []Reward{
		{Name: "dinner", PointsRequired: 50, IsActive: true},
		{Name: "trip", PointsRequired: 500, IsActive: true},
		{Name: "mug", PointsRequired: 10, IsActive: true},
		{Name: "gone", PointsRequired: 1, IsActive: false},
	}
	got := Redeemable(rewards, 60)
	require.Len(t, got, 2)
	assert.Equal(t, "mug", got[0].Name)
	assert.Equal(t, "dinner", got[1].Name)
}

func TestSummarize(t *testing.T) {
	lines := []quotes.QuoteLine{
		// same quarter last year
		line("L1", "Ana", quotes.StatusAccepted, "2023-02-10", 180000),
		// previous month
		line("P1", "Ana", quotes.StatusAccepted, "2024-02-10", 50000),
		// current month
		line("C1", "Ana", quotes.StatusAccepted, "2024-03-05", 40000),
		line("C2", "Ana", quotes.StatusAccepted, "2024-03-15", 25000),
		// rest of the quarter
		line("R1", "Ana", quotes.StatusAccepted, "2024-01-20", 135000),
	}
	cfg := &Config{
		Brackets:     sampleBrackets(),
		PointActions: []PointAction{{Code: "visit", Points: 5, IsActive: true}},
		Rewards:      []Reward{{Name: "mug", PointsRequired: 10, IsActive: true}},
	}
	prizes := []QuotePrize{
		{Salesperson: "Ana", Prize: 75, Achieved: true, CreatedAt: day("2024-03-20")},
		{Salesperson: "Ana", Prize: 10, Achieved: false, CreatedAt: day("2024-03-20")},
		{Salesperson: "Ana", Prize: 10, Achieved: true, CreatedAt: day("2024-02-20")},
	}

	c := NewCalculator(DefaultSettings())
	sum := c.summarize("Ana", 2024, time.March, tallyPeriods(lines, 2024, time.March), cfg,
		map[string]int{"visit": 1}, prizes)

	assert.Equal(t, 65000.0, sum.Monthly.Revenue)
	assert.Equal(t, 50000.0, sum.Monthly.PreviousRevenue)
	assert.Equal(t, 325.0, sum.Monthly.Commission)
	require.Len(t, sum.Monthly.Bonuses, 1)
	assert.Equal(t, "growth_high", sum.Monthly.Bonuses[0].Name)

	assert.Equal(t, 1, sum.Quarterly.Quarter)
	assert.Equal(t, 250000.0, sum.Quarterly.Revenue)
	assert.Equal(t, 180000.0, sum.Quarterly.Minimum)
	assert.Equal(t, 70000.0, sum.Quarterly.Excess)
	assert.Equal(t, 0.7, sum.Quarterly.BracketPercent)
	assert.Equal(t, 490.0, sum.Quarterly.Commission)

	assert.Equal(t, 2*2+5, sum.Points)
	require.Len(t, sum.Rewards, 0)
	assert.Equal(t, 75.0, sum.Prizes)
	assert.Equal(t, 325.0+250+75, sum.Total)
}
