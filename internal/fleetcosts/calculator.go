package fleetcosts

import (
	"math"
	"sort"
)

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func (d YearData) timeCosts() float64 {
	return d.Acquisition + d.Financing + d.Insurance + d.Taxes + d.StaffHourlyCost*d.ServiceHours
}

func (d YearData) kmCosts() float64 {
	return d.Maintenance + d.Fuel + d.Tyres + d.Urea
}

// Summarize computes the yearly cost of a vehicle. Unit costs are 0 when
// the vehicle ran no hours or no km.
func Summarize(d YearData) CostSummary {
	timeCosts := d.timeCosts()
	kmCosts := d.kmCosts()
	total := timeCosts + kmCosts

	s := CostSummary{
		TimeCosts: round2(timeCosts),
		KmCosts:   round2(kmCosts),
		Total:     round2(total),
		Monthly:   round2(total / 12),
	}
	if d.ServiceHours > 0 {
		s.CostPerHour = round2(total / d.ServiceHours)
	}
	if d.AnnualKm > 0 {
		s.CostPerKm = round2(total / d.AnnualKm)
	}
	return s
}

// Totals adds up the vehicles that have figures for the year
func Totals(rows []VehicleSummary) FleetTotals {
	var t FleetTotals
	var timeCosts, kmCosts float64
	for _, r := range rows {
		t.Vehicles++
		if r.Data == nil {
			continue
		}
		t.AnnualKm += r.Data.AnnualKm
		t.Hours += r.Data.ServiceHours
		timeCosts += r.Data.timeCosts()
		kmCosts += r.Data.kmCosts()
	}
	total := timeCosts + kmCosts
	t.TimeCosts = round2(timeCosts)
	t.KmCosts = round2(kmCosts)
	t.Total = round2(total)
	t.Monthly = round2(total / 12)
	if t.Hours > 0 {
		t.CostPerHour = round2(total / t.Hours)
	}
	if t.AnnualKm > 0 {
		t.CostPerKm = round2(total / t.AnnualKm)
	}
	t.AnnualKm = round2(t.AnnualKm)
	t.Hours = round2(t.Hours)
	return t
}

// VehicleTypeCosts groups vehicles with figures by vehicle type. Time costs
// are spread over service hours and km costs over km, so adding
// hours×CostPerHour and km×CostPerKm never counts a cost twice. Vehicles
// without a type are left out.
func VehicleTypeCosts(rows []VehicleSummary) []VehicleTypeCost {
	type acc struct {
		vehicles  int
		hours     float64
		km        float64
		timeCosts float64
		kmCosts   float64
	}
	groups := make(map[string]*acc)
	for _, r := range rows {
		if r.Data == nil || r.Vehicle.VehicleTypeCode == nil || *r.Vehicle.VehicleTypeCode == "" {
			continue
		}
		code := *r.Vehicle.VehicleTypeCode
		g, ok := groups[code]
		if !ok {
			g = &acc{}
			groups[code] = g
		}
		g.vehicles++
		g.hours += r.Data.ServiceHours
		g.km += r.Data.AnnualKm
		g.timeCosts += r.Data.timeCosts()
		g.kmCosts += r.Data.kmCosts()
	}

	out := make([]VehicleTypeCost, 0, len(groups))
	for code, g := range groups {
		c := VehicleTypeCost{VehicleTypeCode: code, Vehicles: g.vehicles}
		if g.hours > 0 {
			c.CostPerHour = round2(g.timeCosts / g.hours)
		}
		if g.km > 0 {
			c.CostPerKm = round2(g.kmCosts / g.km)
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].VehicleTypeCode < out[j].VehicleTypeCode })
	return out
}
