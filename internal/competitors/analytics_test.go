package competitors

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	alsaID   = uuid.MustParse("00000000-0000-0000-0000-000000000001")
	monbusID = uuid.MustParse("00000000-0000-0000-0000-000000000002")
	otherID  = uuid.MustParse("00000000-0000-0000-0000-000000000003")
)

func sampleQuotes() []Quote {
	return []Quote{
		{CompetitorID: alsaID, CompetitorName: "Alsa", ServiceType: "EXC", VehicleCategory: "STD", Price: 500},
		{CompetitorID: alsaID, CompetitorName: "Alsa", ServiceType: "EXC", VehicleCategory: "STD", Price: 700},
		{CompetitorID: monbusID, CompetitorName: "Monbus", ServiceType: "EXC", VehicleCategory: "STD", Price: 900},
		{CompetitorID: monbusID, CompetitorName: "Monbus", ServiceType: "EXC", VehicleCategory: "VIP", Price: 1300},
		{CompetitorID: otherID, CompetitorName: "Other", ServiceType: "TRF", VehicleCategory: "micro", Price: 130},
	}
}

func TestFactor(t *testing.T) {
	tests := []struct {
		category string
		want     float64
	}{
		{"STD", 1.0},
		{"EXEC", 1.15},
		{"VIP", 1.30},
		{"MICRO", 0.65},
		{"mini", 0.80},
		{" GRAN ", 1.10},
		{"HELICOPTER", 1.0},
		{"", 1.0},
	}
	for _, tt := range tests {
		t.Run(tt.category, func(t *testing.T) {
			assert.Equal(t, tt.want, Factor(tt.category))
		})
	}
}

func TestNormalise(t *testing.T) {
	assert.Equal(t, 1000.0, Normalise(1300, "VIP"))
	assert.Equal(t, 200.0, Normalise(130, "MICRO"))
	assert.Equal(t, 450.0, Normalise(450, "unknown"))
}

func TestMarketStats(t *testing.T) {
	stats := MarketStats(sampleQuotes())
	require.Len(t, stats, 3)

	assert.Equal(t, MarketStat{
		ServiceType: "EXC", VehicleCategory: "STD",
		AvgPrice: 700, MinPrice: 500, MaxPrice: 900, AvgNormalisedPrice: 700, Count: 3,
	}, stats[0])
	assert.Equal(t, "VIP", stats[1].VehicleCategory)
	assert.Equal(t, 1000.0, stats[1].AvgNormalisedPrice)
	assert.Equal(t, "TRF", stats[2].ServiceType)
	assert.Equal(t, "MICRO", stats[2].VehicleCategory)

	assert.Empty(t, MarketStats(nil))
}

func TestRanking(t *testing.T) {
	competitors := []Competitor{
		{ID: alsaID, Name: "Alsa", Segment: "national"},
		{ID: monbusID, Name: "Monbus", Segment: "regional"},
		{ID: otherID, Name: "Other"},
		{ID: uuid.New(), Name: "No quotes"},
	}
	ranking := Ranking(competitors, sampleQuotes())
	require.Len(t, ranking, 3)

	assert.Equal(t, "Other", ranking[0].Name)
	assert.Equal(t, 200.0, ranking[0].AvgNormalisedPrice)
	assert.Equal(t, 1, ranking[0].Rank)

	assert.Equal(t, "Alsa", ranking[1].Name)
	assert.Equal(t, 600.0, ranking[1].AvgNormalisedPrice)

	assert.Equal(t, "Monbus", ranking[2].Name)
	assert.Equal(t, 1100.0, ranking[2].AvgPrice)
	assert.Equal(t, 950.0, ranking[2].AvgNormalisedPrice)
	assert.Equal(t, 3, ranking[2].Rank)
}

func TestPositionOf(t *testing.T) {
	market := sampleQuotes()[:3]

	p := PositionOf(800, "EXC", "std", market, DefaultAlertThresholdPct)
	assert.Equal(t, "STD", p.VehicleCategory)
	assert.Equal(t, 3, p.Count)
	assert.Equal(t, 700.0, p.AvgPrice)
	assert.Equal(t, 500.0, p.MinPrice)
	assert.Equal(t, 900.0, p.MaxPrice)
	assert.Equal(t, 66.67, p.Percentile)
	assert.Equal(t, 100.0, p.Delta)
	assert.Equal(t, 14.29, p.DeltaPct)
	assert.False(t, p.Alert)
	require.Len(t, p.Competitors, 2)
	assert.Equal(t, "Alsa", p.Competitors[0].Name)
	assert.Equal(t, 600.0, p.Competitors[0].AvgPrice)

	cheap := PositionOf(400, "EXC", "STD", market, DefaultAlertThresholdPct)
	assert.Equal(t, 0.0, cheap.Percentile)
	assert.Equal(t, -42.86, cheap.DeltaPct)
	assert.True(t, cheap.Alert)
}

func TestPositionOf_EmptyMarket(t *testing.T) {
	p := PositionOf(800, "EXC", "", nil, DefaultAlertThresholdPct)
	assert.Equal(t, 0, p.Count)
	assert.Equal(t, "STD", p.VehicleCategory)
	assert.False(t, p.Alert)
	assert.NotNil(t, p.Competitors)
}
