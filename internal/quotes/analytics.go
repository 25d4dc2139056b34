package quotes

import (
	"math"
	"sort"
	"strings"
	"time"
)

// DaysPerMonth is the average month length used to express lead times in months
const DaysPerMonth = 30.44

// ComputeKPIs counts distinct quotes per outcome and sums line amounts
func ComputeKPIs(lines []QuoteLine) KPIs {
	all := make(map[string]struct{})
	accepted := make(map[string]struct{})
	rejected := make(map[string]struct{})
	pending := make(map[string]struct{})

	var k KPIs
	for _, l := range lines {
		all[l.QuoteCode] = struct{}{}
		k.TotalAmount += l.Amount
		switch {
		case l.Status.IsAccepted():
			accepted[l.QuoteCode] = struct{}{}
			k.AcceptedAmount += l.Amount
		case l.Status == StatusRejected:
			rejected[l.QuoteCode] = struct{}{}
		case l.Status.IsPending():
			pending[l.QuoteCode] = struct{}{}
		}
	}

	k.TotalQuotes = len(all)
	k.AcceptedQuotes = len(accepted)
	k.RejectedQuotes = len(rejected)
	k.PendingQuotes = len(pending)
	k.TotalLines = len(lines)
	if k.TotalQuotes > 0 {
		k.ConversionRate = round(float64(k.AcceptedQuotes)/float64(k.TotalQuotes)*100, 2)
	}
	return k
}

// PendingLines returns the lines waiting for the customer's answer
func PendingLines(lines []QuoteLine) []QuoteLine {
	out := make([]QuoteLine, 0)
	for _, l := range lines {
		if l.Status.IsPending() {
			out = append(out, l)
		}
	}
	return out
}

// AcceptedLines returns the lines with an accepted status
func AcceptedLines(lines []QuoteLine) []QuoteLine {
	out := make([]QuoteLine, 0)
	for _, l := range lines {
		if l.Status.IsAccepted() {
			out = append(out, l)
		}
	}
	return out
}

// ValidDimension reports whether d is a supported grouping
func ValidDimension(d Dimension) bool {
	switch d {
	case DimensionAgent, DimensionServiceType, DimensionContactMethod, DimensionSource, DimensionCustomerGroup:
		return true
	}
	return false
}

func (l QuoteLine) dimension(d Dimension) string {
	switch d {
	case DimensionServiceType:
		return l.ServiceType
	case DimensionContactMethod:
		return l.ContactMethod
	case DimensionSource:
		return l.Source
	case DimensionCustomerGroup:
		return l.CustomerGroup
	default:
		return l.Agent
	}
}

// ConversionBy computes conversion per value of d. Lines without a value
// for d are ignored. Rows are sorted by total quotes, highest first.
func ConversionBy(lines []QuoteLine, d Dimension) []ConversionRow {
	type acc struct {
		all      map[string]struct{}
		accepted map[string]struct{}
		amount   float64
	}
	groups := make(map[string]*acc)

	for _, l := range lines {
		key := l.dimension(d)
		if key == "" {
			continue
		}
		g, ok := groups[key]
		if !ok {
			g = &acc{all: map[string]struct{}{}, accepted: map[string]struct{}{}}
			groups[key] = g
		}
		g.all[l.QuoteCode] = struct{}{}
		if l.Status.IsAccepted() {
			g.accepted[l.QuoteCode] = struct{}{}
			g.amount += l.Amount
		}
	}

	rows := make([]ConversionRow, 0, len(groups))
	for key, g := range groups {
		row := ConversionRow{
			Key:            key,
			TotalQuotes:    len(g.all),
			AcceptedQuotes: len(g.accepted),
			AcceptedAmount: g.amount,
		}
		if row.TotalQuotes > 0 {
			row.ConversionRate = round(float64(row.AcceptedQuotes)/float64(row.TotalQuotes)*100, 2)
		}
		rows = append(rows, row)
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].TotalQuotes != rows[j].TotalQuotes {
			return rows[i].TotalQuotes > rows[j].TotalQuotes
		}
		return rows[i].Key < rows[j].Key
	})
	return rows
}

// MonthlyTrend counts lines per status for each creation month, oldest first
func MonthlyTrend(lines []QuoteLine) []TrendPoint {
	byMonth := make(map[string]*TrendPoint)
	for _, l := range lines {
		if l.CreatedAt == nil {
			continue
		}
		month := l.CreatedAt.Format("2006-01")
		p, ok := byMonth[month]
		if !ok {
			p = &TrendPoint{Month: month, Counts: make(map[Status]int)}
			byMonth[month] = p
		}
		p.Counts[l.Status]++
		p.Total++
	}

	out := make([]TrendPoint, 0, len(byMonth))
	for _, p := range byMonth {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out
}

// LeadTimes computes request-to-service anticipation per line. Lines without
// both dates or with the service before the request are skipped.
func LeadTimes(lines []QuoteLine, acceptedOnly bool) []LeadTime {
	out := make([]LeadTime, 0)
	for _, l := range lines {
		if acceptedOnly && !l.Status.IsAccepted() {
			continue
		}
		if l.CreatedAt == nil || l.ServiceDate == nil {
			continue
		}
		days := DaysBetween(*l.CreatedAt, *l.ServiceDate)
		if days < 0 {
			continue
		}
		out = append(out, LeadTime{
			QuoteCode:    l.QuoteCode,
			CustomerName: l.CustomerName,
			ServiceType:  l.ServiceType,
			CreatedAt:    *l.CreatedAt,
			ServiceDate:  *l.ServiceDate,
			Days:         days,
			Months:       float64(days) / DaysPerMonth,
			Amount:       l.Amount,
		})
	}
	return out
}

// LeadTimeByServiceType aggregates accepted lead times per service type.
// descriptions maps service type codes to display names; unknown codes are
// shown as-is.
func LeadTimeByServiceType(lines []QuoteLine, descriptions map[string]string) []LeadTimeStats {
	groups := make(map[string][]LeadTime)
	for _, lt := range LeadTimes(lines, true) {
		label := serviceTypeLabel(lt.ServiceType, descriptions)
		groups[label] = append(groups[label], lt)
	}

	out := make([]LeadTimeStats, 0, len(groups))
	for label, items := range groups {
		days := make([]float64, len(items))
		months := make([]float64, len(items))
		st := LeadTimeStats{
			ServiceType: label,
			MinDays:     items[0].Days,
			MaxDays:     items[0].Days,
			Count:       len(items),
		}
		for i, it := range items {
			days[i] = float64(it.Days)
			months[i] = it.Months
			st.Amount += it.Amount
			if it.Days < st.MinDays {
				st.MinDays = it.Days
			}
			if it.Days > st.MaxDays {
				st.MaxDays = it.Days
			}
		}
		st.MeanDays = math.Round(mean(days))
		st.MedianDays = math.Round(median(days))
		st.StdDevDays = math.Round(stddev(days))
		st.MeanMonths = round(mean(months), 1)
		st.MedianMonths = round(median(months), 1)
		out = append(out, st)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].ServiceType < out[j].ServiceType
	})
	return out
}

// LeadTimeMonthlyTrend averages accepted lead times per request month
func LeadTimeMonthlyTrend(lines []QuoteLine) []LeadTimeTrendPoint {
	type acc struct {
		days, months float64
		n            int
	}
	groups := make(map[string]*acc)
	for _, lt := range LeadTimes(lines, true) {
		month := lt.CreatedAt.Format("2006-01")
		g, ok := groups[month]
		if !ok {
			g = &acc{}
			groups[month] = g
		}
		g.days += float64(lt.Days)
		g.months += lt.Months
		g.n++
	}

	out := make([]LeadTimeTrendPoint, 0, len(groups))
	for month, g := range groups {
		out = append(out, LeadTimeTrendPoint{
			Month:      month,
			MeanDays:   math.Round(g.days / float64(g.n)),
			MeanMonths: round(g.months/float64(g.n), 1),
			Count:      g.n,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out
}

// Apply returns the lines matching every set field of f
func (f Filter) Apply(lines []QuoteLine) []QuoteLine {
	out := make([]QuoteLine, 0, len(lines))
	for _, l := range lines {
		if f.Matches(l) {
			out = append(out, l)
		}
	}
	return out
}

// Matches reports whether l passes the filter. Date bounds are inclusive and
// exclude lines without a creation date.
func (f Filter) Matches(l QuoteLine) bool {
	if f.Agent != "" && l.Agent != f.Agent {
		return false
	}
	if f.ServiceType != "" && l.ServiceType != f.ServiceType {
		return false
	}
	if f.CustomerGroup != "" && l.CustomerGroup != f.CustomerGroup {
		return false
	}
	if f.CustomerCode != "" && l.CustomerCode != f.CustomerCode {
		return false
	}
	if f.Status != "" && l.Status != f.Status {
		return false
	}
	if f.From != nil || f.To != nil {
		if l.CreatedAt == nil {
			return false
		}
		day := truncateDay(*l.CreatedAt)
		if f.From != nil && day.Before(truncateDay(*f.From)) {
			return false
		}
		if f.To != nil && day.After(truncateDay(*f.To)) {
			return false
		}
	}
	return true
}

// Options lists the distinct non-empty values of the filterable columns
func Options(lines []QuoteLine) FilterOptions {
	agents := map[string]struct{}{}
	services := map[string]struct{}{}
	groups := map[string]struct{}{}
	contacts := map[string]struct{}{}
	sources := map[string]struct{}{}
	statuses := map[string]struct{}{}

	for _, l := range lines {
		add(agents, l.Agent)
		add(services, l.ServiceType)
		add(groups, l.CustomerGroup)
		add(contacts, l.ContactMethod)
		add(sources, l.Source)
		add(statuses, string(l.Status))
	}

	st := sortedKeys(statuses)
	out := FilterOptions{
		Agents:         sortedKeys(agents),
		ServiceTypes:   sortedKeys(services),
		CustomerGroups: sortedKeys(groups),
		ContactMethods: sortedKeys(contacts),
		Sources:        sortedKeys(sources),
		Statuses:       make([]Status, len(st)),
	}
	for i, s := range st {
		out.Statuses[i] = Status(s)
	}
	return out
}

// DaysBetween returns the number of calendar days from a to b
func DaysBetween(a, b time.Time) int {
	return int(truncateDay(b).Sub(truncateDay(a)).Hours() / 24)
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func serviceTypeLabel(code string, descriptions map[string]string) string {
	if code == "" {
		return "Sin definir"
	}
	desc := strings.TrimSpace(descriptions[code])
	if desc == "" {
		return code
	}
	r := []rune(strings.ToLower(desc))
	return strings.ToUpper(string(r[0])) + string(r[1:])
}

func add(set map[string]struct{}, v string) {
	if v != "" {
		set[v] = struct{}{}
	}
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func median(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	s := append([]float64(nil), xs...)
	sort.Float64s(s)
	mid := len(s) / 2
	if len(s)%2 == 0 {
		return (s[mid-1] + s[mid]) / 2
	}
	return s[mid]
}

// stddev is the sample standard deviation; 0 with fewer than two values
func stddev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	m := mean(xs)
	var ss float64
	for _, x := range xs {
		ss += (x - m) * (x - m)
	}
	return math.Sqrt(ss / float64(len(xs)-1))
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
