package tariffs

import (
	"math"
	"strings"
	"time"
)

// Resolve finds the rate for in. Client overrides win over service rates,
// which win over the vehicle type's own prices; with nothing configured the
// default prices apply. Resolution never fails.
func Resolve(t *Tables, in Input) Resolution {
	if in.CustomerCode != "" {
		if r, ok := t.clientRate(in.CustomerCode, in.VehicleType, in.ServiceType); ok {
			return Resolution{Rate: r.Rate(), Source: SourceClientRate}
		}
	}
	if in.ServiceType != "" {
		if r, ok := t.serviceRate(in.ServiceType, in.VehicleType); ok {
			return Resolution{Rate: r.Rate(), Source: SourceServiceRate}
		}
	}
	if v, ok := t.VehicleType(in.VehicleType); ok {
		return Resolution{
			Rate: Rate{
				BasePrice:    v.BasePrice,
				PricePerHour: v.PricePerHour,
				PricePerKm:   v.PricePerKm,
				MinimumPrice: v.MinimumPrice,
			},
			Source: SourceVehicleType,
		}
	}
	return Resolution{
		Rate:   Rate{PricePerHour: DefaultPricePerHour, PricePerKm: DefaultPricePerKm},
		Source: SourceDefault,
	}
}

// Calculate prices in:
// max(base + hourly×hours + per_km×km, minimum) × season × client type.
func Calculate(t *Tables, in Input) Breakdown {
	res := Resolve(t, in)

	b := Breakdown{
		ServiceType:          in.ServiceType,
		VehicleType:          in.VehicleType,
		Hours:                in.Hours,
		Km:                   in.Km,
		BasePrice:            res.Rate.BasePrice,
		PricePerHour:         res.Rate.PricePerHour,
		PricePerKm:           res.Rate.PricePerKm,
		MinimumPrice:         res.Rate.MinimumPrice,
		SeasonMultiplier:     1,
		ClientTypeMultiplier: 1,
		RateSource:           res.Source,
	}
	b.HourCost = res.Rate.PricePerHour * in.Hours
	b.KmCost = res.Rate.PricePerKm * in.Km
	b.Subtotal = res.Rate.BasePrice + b.HourCost + b.KmCost

	total := b.Subtotal
	if res.Rate.MinimumPrice > 0 && total < res.Rate.MinimumPrice {
		total = res.Rate.MinimumPrice
		b.MinimumApplied = true
	}

	date := in.Date
	if date.IsZero() {
		date = time.Now()
	}
	if s, ok := t.SeasonFor(date); ok {
		b.Season = s.Name
		b.SeasonMultiplier = s.Multiplier
	}
	if ct, ok := t.ClientType(in.ClientType); ok {
		b.ClientType = ct.Code
		b.ClientTypeMultiplier = ct.Multiplier
	}

	b.Total = round2(total * b.SeasonMultiplier * b.ClientTypeMultiplier)
	b.HourCost = round2(b.HourCost)
	b.KmCost = round2(b.KmCost)
	b.Subtotal = round2(b.Subtotal)

	if v, ok := t.VehicleType(in.VehicleType); ok {
		b.OperatingCost = round2(v.CostPerHour*in.Hours + v.CostPerKm*in.Km)
	}
	b.Margin = round2(b.Total - b.OperatingCost)
	if b.Total > 0 {
		b.MarginPct = round2(b.Margin / b.Total * 100)
	}
	return b
}

// clientRate looks up a customer override from most to least specific:
// vehicle+service, vehicle only, service only, then neither.
func (t *Tables) clientRate(customer, vehicle, service string) (ClientRate, bool) {
	type key struct{ vehicle, service bool }
	order := []key{{true, true}, {true, false}, {false, true}, {false, false}}

	for _, k := range order {
		for _, r := range t.ClientRates {
			if !sameCode(r.CustomerCode, customer) {
				continue
			}
			if !matchField(r.VehicleTypeCode, vehicle, k.vehicle) {
				continue
			}
			if !matchField(r.ServiceTypeCode, service, k.service) {
				continue
			}
			return r, true
		}
	}
	return ClientRate{}, false
}

func (t *Tables) serviceRate(service, vehicle string) (ServiceRate, bool) {
	for _, specific := range []bool{true, false} {
		for _, r := range t.ServiceRates {
			if !sameCode(r.ServiceTypeCode, service) {
				continue
			}
			if matchField(r.VehicleTypeCode, vehicle, specific) {
				return r, true
			}
		}
	}
	return ServiceRate{}, false
}

// matchField reports whether field selects value. When specific is set the
// field must equal value; otherwise it must be the nil wildcard.
func matchField(field *string, value string, specific bool) bool {
	if !specific {
		return field == nil
	}
	return field != nil && value != "" && sameCode(*field, value)
}

// sameCode compares table codes ignoring case and surrounding spaces, since
// codes typed in forms and imported from the ERP differ in case.
func sameCode(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// VehicleType returns the active vehicle type with the given code
func (t *Tables) VehicleType(code string) (VehicleType, bool) {
	for _, v := range t.VehicleTypes {
		if v.IsActive && sameCode(v.Code, code) {
			return v, true
		}
	}
	return VehicleType{}, false
}

// ClientType returns the client type with the given code
func (t *Tables) ClientType(code string) (ClientType, bool) {
	if code == "" {
		return ClientType{}, false
	}
	for _, ct := range t.ClientTypes {
		if sameCode(ct.Code, code) {
			return ct, true
		}
	}
	return ClientType{}, false
}

// SeasonFor returns the first active season containing date
func (t *Tables) SeasonFor(date time.Time) (Season, bool) {
	day := date.Format("01-02")
	for _, s := range t.Seasons {
		if s.IsActive && s.Contains(day) {
			return s, true
		}
	}
	return Season{}, false
}

// Contains reports whether day (MM-DD) falls in the season
func (s Season) Contains(day string) bool {
	if s.StartDay <= s.EndDay {
		return s.StartDay <= day && day <= s.EndDay
	}
	return day >= s.StartDay || day <= s.EndDay
}

// ServiceTypeDescriptions maps service type codes to descriptions
func (t *Tables) ServiceTypeDescriptions() map[string]string {
	out := make(map[string]string, len(t.ServiceTypes))
	for _, st := range t.ServiceTypes {
		if st.Description != "" {
			out[st.Code] = st.Description
		}
	}
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
