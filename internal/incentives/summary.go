package incentives

import (
	"sort"
	"time"

	"github.com/cesarmartin1/crm-david/internal/quotes"
	"github.com/shopspring/decimal"
)

// periodTotals holds the per-agent tallies a monthly summary needs
type periodTotals struct {
	month    map[string]Totals
	previous map[string]Totals
	quarter  map[string]Totals
	lastYear map[string]Totals
}

func tallyPeriods(lines []quotes.QuoteLine, year int, month time.Month) periodTotals {
	q := Quarter(month)
	mFrom, mTo := MonthBounds(year, month)
	pFrom, pTo := MonthBounds(year, month-1)
	qFrom, qTo := QuarterBounds(year, q)
	lFrom, lTo := QuarterBounds(year-1, q)
	return periodTotals{
		month:    Tally(lines, mFrom, mTo),
		previous: Tally(lines, pFrom, pTo),
		quarter:  Tally(lines, qFrom, qTo),
		lastYear: Tally(lines, lFrom, lTo),
	}
}

// agents lists everyone with business in the month or the quarter
func (p periodTotals) agents() []string {
	set := make(map[string]struct{})
	for a := range p.month {
		set[a] = struct{}{}
	}
	for a := range p.quarter {
		set[a] = struct{}{}
	}
	out := make([]string, 0, len(set))
	for a := range set {
		out = append(out, a)
	}
	sort.Strings(out)
	return out
}

// summarize computes the month and quarter figures of one salesperson.
// Total is the month payout: commission, bonuses and achieved prizes.
func (c Calculator) summarize(salesperson string, year int, month time.Month, p periodTotals,
	cfg *Config, counts map[string]int, prizes []QuotePrize) Summary {

	cur := p.month[salesperson]
	prev := p.previous[salesperson]
	monthly := MonthlyFigures{
		Revenue:         cur.Revenue,
		PreviousRevenue: prev.Revenue,
		Orders:          cur.Orders,
		GrowthPct:       GrowthPct(cur.Revenue, prev.Revenue),
		Commission:      c.MonthlyCommission(cur.Revenue),
		Bonuses:         c.MonthlyBonuses(cur.Revenue, prev.Revenue, cur.Orders, cfg.BonusRules),
	}
	monthly.BonusTotal = SumAwards(monthly.Bonuses)

	qt := p.quarter[salesperson]
	minimum := p.lastYear[salesperson].Revenue
	quarterly := QuarterlyFigures{
		Quarter:   Quarter(month),
		Revenue:   qt.Revenue,
		Minimum:   minimum,
		Orders:    qt.Orders,
		GrowthPct: GrowthPct(qt.Revenue, minimum),
	}
	if qt.Revenue > minimum {
		quarterly.Excess = cents(dec(qt.Revenue).Sub(dec(minimum)))
	}
	quarterly.Commission, quarterly.BracketPercent = quarterlyCommission(qt.Revenue, minimum, cfg.Brackets)
	quarterly.Bonuses = c.QuarterlyBonuses(quarterly, cfg.BonusRules)
	quarterly.BonusTotal = SumAwards(quarterly.Bonuses)

	points := c.Points(cur.Orders, cfg.PointActions, counts)
	prizeTotal := achievedPrizes(prizes, salesperson, year, month)

	total := dec(monthly.Commission).Add(dec(monthly.BonusTotal)).Add(dec(prizeTotal))
	return Summary{
		Salesperson: salesperson,
		Year:        year,
		Month:       int(month),
		Monthly:     monthly,
		Quarterly:   quarterly,
		Points:      points,
		Rewards:     Redeemable(cfg.Rewards, points),
		Prizes:      prizeTotal,
		Total:       cents(total),
	}
}

// achievedPrizes sums the achieved prizes of salesperson registered in the month
func achievedPrizes(prizes []QuotePrize, salesperson string, year int, month time.Month) float64 {
	total := decimal.Zero
	for _, p := range prizes {
		if !p.Achieved || p.Salesperson != salesperson {
			continue
		}
		if p.CreatedAt.Year() != year || p.CreatedAt.Month() != month {
			continue
		}
		total = total.Add(dec(p.Prize))
	}
	return cents(total)
}

// rank orders entries by payout, then revenue, then name
func rank(entries []LeaderboardEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.Total != b.Total {
			return a.Total > b.Total
		}
		if a.Revenue != b.Revenue {
			return a.Revenue > b.Revenue
		}
		return a.Salesperson < b.Salesperson
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}
}
