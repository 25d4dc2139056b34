package competitors

import (
	"math"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// Factor returns the normalisation factor of a vehicle category, 1 when unknown
func Factor(category string) float64 {
	if f, ok := normalisationFactors[strings.ToUpper(strings.TrimSpace(category))]; ok {
		return f
	}
	return 1.0
}

// Normalise expresses price as the equivalent standard coach price
func Normalise(price float64, category string) float64 {
	return round2(price / Factor(category))
}

// NormaliseCategory upper-cases category, defaulting to STD
func NormaliseCategory(category string) string {
	c := strings.ToUpper(strings.TrimSpace(category))
	if c == "" {
		return CategoryStandard
	}
	return c
}

type marketKey struct {
	service  string
	category string
}

// MarketStats aggregates quotes per service and vehicle category
func MarketStats(quotes []Quote) []MarketStat {
	groups := make(map[marketKey][]Quote)
	for _, q := range quotes {
		k := marketKey{q.ServiceType, NormaliseCategory(q.VehicleCategory)}
		groups[k] = append(groups[k], q)
	}

	stats := make([]MarketStat, 0, len(groups))
	for k, qs := range groups {
		s := MarketStat{
			ServiceType:     k.service,
			VehicleCategory: k.category,
			MinPrice:        qs[0].Price,
			MaxPrice:        qs[0].Price,
			Count:           len(qs),
		}
		var sum, sumNorm float64
		for _, q := range qs {
			sum += q.Price
			sumNorm += Normalise(q.Price, q.VehicleCategory)
			s.MinPrice = math.Min(s.MinPrice, q.Price)
			s.MaxPrice = math.Max(s.MaxPrice, q.Price)
		}
		s.AvgPrice = round2(sum / float64(len(qs)))
		s.AvgNormalisedPrice = round2(sumNorm / float64(len(qs)))
		stats = append(stats, s)
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].ServiceType != stats[j].ServiceType {
			return stats[i].ServiceType < stats[j].ServiceType
		}
		return stats[i].VehicleCategory < stats[j].VehicleCategory
	})
	return stats
}

// Ranking orders competitors from cheapest to most expensive average
// normalised price. Competitors without quotes are left out.
func Ranking(competitors []Competitor, quotes []Quote) []RankingEntry {
	byID := make(map[uuid.UUID]Competitor, len(competitors))
	for _, c := range competitors {
		byID[c.ID] = c
	}

	type acc struct {
		sum, sumNorm float64
		n            int
	}
	groups := make(map[uuid.UUID]*acc)
	for _, q := range quotes {
		a := groups[q.CompetitorID]
		if a == nil {
			a = &acc{}
			groups[q.CompetitorID] = a
		}
		a.sum += q.Price
		a.sumNorm += Normalise(q.Price, q.VehicleCategory)
		a.n++
	}

	out := make([]RankingEntry, 0, len(groups))
	for id, a := range groups {
		c := byID[id]
		out = append(out, RankingEntry{
			CompetitorID:       id,
			Name:               c.Name,
			Segment:            c.Segment,
			AvgPrice:           round2(a.sum / float64(a.n)),
			AvgNormalisedPrice: round2(a.sumNorm / float64(a.n)),
			Count:              a.n,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].AvgNormalisedPrice != out[j].AvgNormalisedPrice {
			return out[i].AvgNormalisedPrice < out[j].AvgNormalisedPrice
		}
		return out[i].Name < out[j].Name
	})
	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}

// PositionOf places ownPrice among the quotes of one market. quotes must
// already be restricted to that service and category. Percentile is the
// share of competitor quotes cheaper than ownPrice.
func PositionOf(ownPrice float64, service, category string, quotes []Quote, alertPct float64) Position {
	p := Position{
		ServiceType:     service,
		VehicleCategory: NormaliseCategory(category),
		OwnPrice:        round2(ownPrice),
		Competitors:     make([]CompetitorPrice, 0),
	}
	if len(quotes) == 0 {
		return p
	}

	p.Count = len(quotes)
	p.MinPrice, p.MaxPrice = quotes[0].Price, quotes[0].Price
	var sum float64
	cheaper := 0
	perCompetitor := make(map[uuid.UUID]*CompetitorPrice)
	for _, q := range quotes {
		sum += q.Price
		p.MinPrice = math.Min(p.MinPrice, q.Price)
		p.MaxPrice = math.Max(p.MaxPrice, q.Price)
		if q.Price < ownPrice {
			cheaper++
		}
		cp := perCompetitor[q.CompetitorID]
		if cp == nil {
			cp = &CompetitorPrice{CompetitorID: q.CompetitorID, Name: q.CompetitorName}
			perCompetitor[q.CompetitorID] = cp
		}
		cp.AvgPrice += q.Price
		cp.Count++
	}

	avg := sum / float64(len(quotes))
	p.AvgPrice = round2(avg)
	p.Percentile = round2(float64(cheaper) / float64(len(quotes)) * 100)
	p.Delta = round2(ownPrice - avg)
	if avg > 0 {
		p.DeltaPct = round2((ownPrice - avg) / avg * 100)
	}
	p.Alert = math.Abs(p.DeltaPct) > alertPct

	for _, cp := range perCompetitor {
		cp.AvgPrice = round2(cp.AvgPrice / float64(cp.Count))
		p.Competitors = append(p.Competitors, *cp)
	}
	sort.Slice(p.Competitors, func(i, j int) bool {
		if p.Competitors[i].AvgPrice != p.Competitors[j].AvgPrice {
			return p.Competitors[i].AvgPrice < p.Competitors[j].AvgPrice
		}
		return p.Competitors[i].Name < p.Competitors[j].Name
	})
	return p
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
