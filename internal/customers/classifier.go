package customers

import (
	"sort"
	"time"

	"github.com/cesarmartin1/crm-david/internal/quotes"
)

const daysPerWindowMonth = 30

// DefaultThresholds returns the thresholds used when none are configured
func DefaultThresholds() Thresholds {
	return Thresholds{
		ActiveMonths:   12,
		InactiveMonths: 24,
		MinServices12m: 2,
		MinServices24m: 3,
		MinRevenue24m:  5000,
	}
}

// Classify maps an order history to exactly one segment. Rules are checked
// in order and the first match wins.
func Classify(h History, asOf time.Time, t Thresholds) Segment {
	if h.FirstOrder == nil || h.LastOrder == nil {
		return SegmentProspect
	}

	daysSinceLast := quotes.DaysBetween(*h.LastOrder, asOf)
	activeDays := t.ActiveMonths * daysPerWindowMonth
	inactiveDays := t.InactiveMonths * daysPerWindowMonth

	if daysSinceLast > inactiveDays {
		return SegmentInactive
	}

	if daysSinceLast <= activeDays && h.PreviousOrder != nil {
		if quotes.DaysBetween(*h.PreviousOrder, *h.LastOrder) > activeDays {
			return SegmentReactivated
		}
	}

	if daysSinceLast <= activeDays {
		if h.Services12m >= t.MinServices12m ||
			h.Services24m >= t.MinServices24m ||
			h.Revenue24m >= t.MinRevenue24m {
			return SegmentHabitual
		}
		return SegmentOccasionalActive
	}

	return SegmentInactive
}

// ClassifyLines classifies a customer from its quote lines. Only accepted
// lines are considered.
func ClassifyLines(lines []quotes.QuoteLine, asOf time.Time, t Thresholds) Segment {
	return Classify(BuildHistory(lines, asOf), asOf, t)
}

// BuildHistory reduces a customer's lines to the classifier inputs. Services
// are distinct accepted quotes dated by their earliest line; revenue sums
// accepted lines. Windows are the 365 and 730 days before asOf.
func BuildHistory(lines []quotes.QuoteLine, asOf time.Time) History {
	agg := aggregate(quotes.AcceptedLines(lines), asOf)
	return agg.history
}

type customerAggregate struct {
	history       History
	revenue12m    float64
	totalServices int
	totalRevenue  float64
}

func aggregate(accepted []quotes.QuoteLine, asOf time.Time) customerAggregate {
	cutoff12 := asOf.AddDate(0, 0, -365)
	cutoff24 := asOf.AddDate(0, 0, -730)

	quoteDates := make(map[string]time.Time)
	all := make(map[string]struct{})
	var agg customerAggregate

	for _, l := range accepted {
		all[l.QuoteCode] = struct{}{}
		agg.totalRevenue += l.Amount
		if l.CreatedAt == nil {
			continue
		}
		d := *l.CreatedAt
		if prev, ok := quoteDates[l.QuoteCode]; !ok || d.Before(prev) {
			quoteDates[l.QuoteCode] = d
		}
		if !d.Before(cutoff12) {
			agg.revenue12m += l.Amount
		}
		if !d.Before(cutoff24) {
			agg.history.Revenue24m += l.Amount
		}
	}
	agg.totalServices = len(all)

	dates := make([]time.Time, 0, len(quoteDates))
	for _, d := range quoteDates {
		dates = append(dates, d)
		if !d.Before(cutoff12) {
			agg.history.Services12m++
		}
		if !d.Before(cutoff24) {
			agg.history.Services24m++
		}
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	if n := len(dates); n > 0 {
		first, last := dates[0], dates[n-1]
		agg.history.FirstOrder = &first
		agg.history.LastOrder = &last
		if n >= 2 {
			prev := dates[n-2]
			agg.history.PreviousOrder = &prev
		}
	}
	return agg
}
