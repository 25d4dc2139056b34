package competitors

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func floatPtr(v float64) *float64 { return &v }

func sampleCompetitors() []Competitor {
	return []Competitor{
		{ID: otherID, Name: "Other"},
		{ID: monbusID, Name: "Monbus"},
		{ID: alsaID, Name: "Alsa"},
	}
}

func sampleVehicles() []Vehicle {
	return []Vehicle{
		{CompetitorID: alsaID, Seats: 55, Age: floatPtr(4.4), PMR: true, WC: true},
		{CompetitorID: alsaID, Seats: 35, Age: floatPtr(2.0), WiFi: true},
		{CompetitorID: alsaID, Seats: 19, School: true},
		{CompetitorID: monbusID, Seats: 60, Age: floatPtr(10.0)},
	}
}

func TestVehicleAge(t *testing.T) {
	now := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 4.4, VehicleAge(2020, now))
	assert.Equal(t, 0.4, VehicleAge(2024, now))
	assert.Equal(t, 0.0, VehicleAge(2030, now))
}

func TestFleetStats(t *testing.T) {
	stats := FleetStats(sampleCompetitors(), sampleVehicles())
	require.Len(t, stats, 3)

	alsa := stats[0]
	assert.Equal(t, "Alsa", alsa.Name)
	assert.Equal(t, 3, alsa.TotalVehicles)
	assert.Equal(t, 1, alsa.LargeCoaches)
	assert.Equal(t, 1, alsa.MediumCoaches)
	assert.Equal(t, 1, alsa.Microbuses)
	assert.Equal(t, 109, alsa.TotalSeats)
	require.NotNil(t, alsa.AvgAge)
	assert.Equal(t, 3.2, *alsa.AvgAge)
	assert.Equal(t, 1, alsa.WithPMR)
	assert.Equal(t, 1, alsa.WithWC)
	assert.Equal(t, 1, alsa.WithWiFi)
	assert.Equal(t, 1, alsa.School)

	assert.Equal(t, "Monbus", stats[1].Name)
	assert.Equal(t, "Other", stats[2].Name)
	assert.Zero(t, stats[2].TotalVehicles)
	assert.Nil(t, stats[2].AvgAge)
}

func TestCompareFleets(t *testing.T) {
	cmp := CompareFleets(FleetStats(sampleCompetitors(), sampleVehicles()))
	require.NotNil(t, cmp.Market)
	assert.Equal(t, MarketFleet{
		CompetitorsWithFleet: 2,
		TotalVehicles:        4,
		TotalSeats:           169,
		AvgAge:               5.5,
		Leader:               "Alsa",
	}, *cmp.Market)

	empty := CompareFleets(nil)
	assert.Nil(t, empty.Market)
	assert.NotNil(t, empty.Competitors)

	idle := CompareFleets(FleetStats(sampleCompetitors(), nil))
	assert.Empty(t, idle.Market.Leader)
	assert.Zero(t, idle.Market.AvgAge)
}
