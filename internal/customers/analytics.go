package customers

import (
	"math"
	"sort"
	"time"

	"github.com/cesarmartin1/crm-david/internal/quotes"
)

// BuildMetrics computes metrics and segment for every customer code found in
// lines. Customers without accepted quotes are prospects.
func BuildMetrics(lines []quotes.QuoteLine, asOf time.Time, t Thresholds) []Metrics {
	byCustomer := groupByCustomer(lines)

	out := make([]Metrics, 0, len(byCustomer))
	for code, cl := range byCustomer {
		if cl[0].CustomerCode == "" {
			continue
		}
		m := Metrics{
			CustomerCode:  code,
			CustomerName:  firstNonEmpty(cl, func(l quotes.QuoteLine) string { return l.CustomerName }),
			CustomerGroup: firstNonEmpty(cl, func(l quotes.QuoteLine) string { return l.CustomerGroup }),
		}

		agg := aggregate(quotes.AcceptedLines(cl), asOf)
		h := agg.history
		m.FirstOrder = h.FirstOrder
		m.LastOrder = h.LastOrder
		m.PreviousOrder = h.PreviousOrder
		m.Services12m = h.Services12m
		m.Services24m = h.Services24m
		m.Revenue12m = agg.revenue12m
		m.Revenue24m = h.Revenue24m
		m.TotalServices = agg.totalServices
		m.TotalRevenue = agg.totalRevenue
		if h.LastOrder != nil {
			d := quotes.DaysBetween(*h.LastOrder, asOf)
			m.DaysSinceLast = &d
		}
		m.Segment = Classify(h, asOf, t)

		out = append(out, m)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].CustomerCode < out[j].CustomerCode })
	return out
}

// SegmentSummary counts customers and accepted revenue per segment. Every
// segment is present, in display order.
func SegmentSummary(metrics []Metrics) []SegmentCount {
	idx := make(map[Segment]int, len(Segments))
	out := make([]SegmentCount, len(Segments))
	for i, s := range Segments {
		out[i] = SegmentCount{Segment: s}
		idx[s] = i
	}
	for _, m := range metrics {
		i, ok := idx[m.Segment]
		if !ok {
			continue
		}
		out[i].Customers++
		out[i].Revenue += m.TotalRevenue
	}
	return out
}

// InactiveCustomers returns customers whose latest quote, of any status, is
// older than months×30 days before now. Sorted by amount, highest first.
func InactiveCustomers(lines []quotes.QuoteLine, months int, now time.Time) []InactiveCustomer {
	cutoff := now.AddDate(0, 0, -months*daysPerWindowMonth)

	out := make([]InactiveCustomer, 0)
	for code, cl := range groupByCustomer(lines) {
		var last *time.Time
		codes := make(map[string]struct{})
		var amount float64
		for _, l := range cl {
			codes[l.QuoteCode] = struct{}{}
			amount += l.Amount
			if l.CreatedAt != nil && (last == nil || l.CreatedAt.After(*last)) {
				d := *l.CreatedAt
				last = &d
			}
		}
		if last == nil || !last.Before(cutoff) {
			continue
		}
		out = append(out, InactiveCustomer{
			CustomerCode: code,
			CustomerName: firstNonEmpty(cl, func(l quotes.QuoteLine) string { return l.CustomerName }),
			Group:        firstNonEmpty(cl, func(l quotes.QuoteLine) string { return l.CustomerGroup }),
			LastActivity: *last,
			DaysInactive: quotes.DaysBetween(*last, now),
			Quotes:       len(codes),
			Amount:       amount,
			Email:        firstNonEmpty(cl, func(l quotes.QuoteLine) string { return l.Email }),
			Phone:        firstNonEmpty(cl, func(l quotes.QuoteLine) string { return l.Phone }),
			Mobile:       firstNonEmpty(cl, func(l quotes.QuoteLine) string { return l.Mobile }),
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Amount != out[j].Amount {
			return out[i].Amount > out[j].Amount
		}
		return out[i].CustomerCode < out[j].CustomerCode
	})
	return out
}

// Matches reports whether a line passes the segment filter. Amount bounds
// apply to the line amount.
func (f SegmentFilter) Matches(l quotes.QuoteLine) bool {
	if f.Group != "" && l.CustomerGroup != f.Group {
		return false
	}
	if f.ServiceType != "" && l.ServiceType != f.ServiceType {
		return false
	}
	if f.MinAmount != nil && l.Amount < *f.MinAmount {
		return false
	}
	if f.MaxAmount != nil && l.Amount > *f.MaxAmount {
		return false
	}
	return true
}

// Segmentation returns the reachable customers (with an email) among the
// lines matching f, sorted by amount.
func Segmentation(lines []quotes.QuoteLine, f SegmentFilter) []Contact {
	filtered := make([]quotes.QuoteLine, 0)
	for _, l := range lines {
		if l.Email != "" && f.Matches(l) {
			filtered = append(filtered, l)
		}
	}

	out := make([]Contact, 0)
	for code, cl := range groupByCustomer(filtered) {
		codes := make(map[string]struct{})
		var amount float64
		for _, l := range cl {
			codes[l.QuoteCode] = struct{}{}
			amount += l.Amount
		}
		out = append(out, Contact{
			CustomerCode: code,
			CustomerName: firstNonEmpty(cl, func(l quotes.QuoteLine) string { return l.CustomerName }),
			Group:        firstNonEmpty(cl, func(l quotes.QuoteLine) string { return l.CustomerGroup }),
			Email:        firstNonEmpty(cl, func(l quotes.QuoteLine) string { return l.Email }),
			Phone:        firstNonEmpty(cl, func(l quotes.QuoteLine) string { return l.Phone }),
			Mobile:       firstNonEmpty(cl, func(l quotes.QuoteLine) string { return l.Mobile }),
			Quotes:       len(codes),
			Amount:       amount,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Amount != out[j].Amount {
			return out[i].Amount > out[j].Amount
		}
		return out[i].CustomerCode < out[j].CustomerCode
	})
	return out
}

// ComputeStats summarises the quotes of one customer. ok is false when the
// customer has no lines.
func ComputeStats(lines []quotes.QuoteLine, customerCode string) (Stats, bool) {
	st := Stats{CustomerCode: customerCode}
	all := make(map[string]struct{})
	accepted := make(map[string]struct{})
	rejected := make(map[string]struct{})

	for _, l := range lines {
		if l.CustomerCode != customerCode {
			continue
		}
		all[l.QuoteCode] = struct{}{}
		st.TotalAmount += l.Amount
		if l.Status.IsAccepted() {
			accepted[l.QuoteCode] = struct{}{}
			st.AcceptedAmount += l.Amount
		}
		if l.Status == quotes.StatusRejected {
			rejected[l.QuoteCode] = struct{}{}
		}
		if l.CreatedAt != nil {
			d := *l.CreatedAt
			if st.FirstDate == nil || d.Before(*st.FirstDate) {
				st.FirstDate = &d
			}
			if st.LastDate == nil || d.After(*st.LastDate) {
				d2 := d
				st.LastDate = &d2
			}
		}
	}

	if len(all) == 0 {
		return st, false
	}
	st.TotalQuotes = len(all)
	st.AcceptedQuotes = len(accepted)
	st.RejectedQuotes = len(rejected)
	st.ConversionRate = math.Round(float64(st.AcceptedQuotes)/float64(st.TotalQuotes)*10000) / 100
	return st, true
}

// groupByCustomer splits lines by customer code. Lines without a code are
// grouped by customer name so they still show up in contact lists.
func groupByCustomer(lines []quotes.QuoteLine) map[string][]quotes.QuoteLine {
	out := make(map[string][]quotes.QuoteLine)
	for _, l := range lines {
		key := l.CustomerCode
		if key == "" {
			key = l.CustomerName
		}
		if key == "" {
			continue
		}
		out[key] = append(out[key], l)
	}
	return out
}

func firstNonEmpty(lines []quotes.QuoteLine, field func(quotes.QuoteLine) string) string {
	for _, l := range lines {
		if v := field(l); v != "" {
			return v
		}
	}
	return ""
}
