package competitors

import (
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
)

// VehicleAge is the age in years of a vehicle registered in year, counting
// the elapsed months of the current year
func VehicleAge(year int, now time.Time) float64 {
	age := float64(now.Year()-year) + float64(now.Month())/12
	return math.Max(0, round1(age))
}

// FleetStats aggregates the vehicles of each competitor, largest fleet first.
// Competitors without vehicles are listed with zero counts.
func FleetStats(competitors []Competitor, vehicles []Vehicle) []FleetStat {
	byCompetitor := make(map[uuid.UUID][]Vehicle)
	for _, v := range vehicles {
		byCompetitor[v.CompetitorID] = append(byCompetitor[v.CompetitorID], v)
	}

	stats := make([]FleetStat, 0, len(competitors))
	for _, c := range competitors {
		s := FleetStat{CompetitorID: c.ID, Name: c.Name}
		var ageSum float64
		for _, v := range byCompetitor[c.ID] {
			s.TotalVehicles++
			s.TotalSeats += v.Seats
			switch {
			case v.Seats >= LargeCoachSeats:
				s.LargeCoaches++
			case v.Seats >= MediumCoachSeats:
				s.MediumCoaches++
			default:
				s.Microbuses++
			}
			if v.Age != nil {
				ageSum += *v.Age
				s.agedVehicles++
			}
			if v.PMR {
				s.WithPMR++
			}
			if v.WC {
				s.WithWC++
			}
			if v.WiFi {
				s.WithWiFi++
			}
			if v.School {
				s.School++
			}
		}
		if s.agedVehicles > 0 {
			avg := round1(ageSum / float64(s.agedVehicles))
			s.AvgAge = &avg
		}
		stats = append(stats, s)
	}

	sort.SliceStable(stats, func(i, j int) bool {
		return stats[i].TotalVehicles > stats[j].TotalVehicles
	})
	return stats
}

// CompareFleets adds market totals to per-competitor fleet stats. The market
// age is weighted by the vehicles whose registration year is known.
func CompareFleets(stats []FleetStat) FleetComparison {
	if len(stats) == 0 {
		return FleetComparison{Competitors: []FleetStat{}}
	}

	m := &MarketFleet{}
	var ageSum float64
	var aged, leaderTotal int
	for _, s := range stats {
		if s.TotalVehicles > 0 {
			m.CompetitorsWithFleet++
		}
		m.TotalVehicles += s.TotalVehicles
		m.TotalSeats += s.TotalSeats
		if s.AvgAge != nil {
			ageSum += *s.AvgAge * float64(s.agedVehicles)
			aged += s.agedVehicles
		}
		if s.TotalVehicles > leaderTotal {
			leaderTotal = s.TotalVehicles
			m.Leader = s.Name
		}
	}
	if aged > 0 {
		m.AvgAge = round1(ageSum / float64(aged))
	}
	return FleetComparison{Competitors: stats, Market: m}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
