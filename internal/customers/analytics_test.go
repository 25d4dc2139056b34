package customers

import (
	"testing"

	"github.com/cesarmartin1/crm-david/internal/quotes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleLines() []quotes.QuoteLine {
	return []quotes.QuoteLine{
		{QuoteCode: "P1", CustomerCode: "C1", CustomerName: "Colegio Sol", CustomerGroup: "SCHOOL", Status: quotes.StatusAccepted, CreatedAt: datePtr("2024-03-01"), Amount: 1200, Email: "sol@example.com", ServiceType: "EXC"},
		{QuoteCode: "P2", CustomerCode: "C1", CustomerName: "Colegio Sol", CustomerGroup: "SCHOOL", Status: quotes.StatusAccepted, CreatedAt: datePtr("2024-05-01"), Amount: 800, Email: "sol@example.com", ServiceType: "TRF"},
		{QuoteCode: "P3", CustomerCode: "C2", CustomerName: "Viajes Mar", CustomerGroup: "AGENCY", Status: quotes.StatusAccepted, CreatedAt: datePtr("2022-01-15"), Amount: 3000, Phone: "600111222", ServiceType: "EXC"},
		{QuoteCode: "P4", CustomerCode: "C2", CustomerName: "Viajes Mar", CustomerGroup: "AGENCY", Status: quotes.StatusRejected, CreatedAt: datePtr("2022-02-01"), Amount: 500, ServiceType: "EXC"},
		{QuoteCode: "P5", CustomerCode: "C3", CustomerName: "Club Norte", CustomerGroup: "SPORT", Status: quotes.StatusSent, CreatedAt: datePtr("2023-01-01"), Amount: 400, Email: "norte@example.com", ServiceType: "EXC"},
		{QuoteCode: "P6", CustomerName: "Particular", Status: quotes.StatusSent, CreatedAt: datePtr("2022-06-01"), Amount: 150, Email: "p@example.com", ServiceType: "TRF"},
	}
}

func TestBuildMetrics(t *testing.T) {
	metrics := BuildMetrics(sampleLines(), day("2024-07-01"), DefaultThresholds())

	require.Len(t, metrics, 3)
	assert.Equal(t, "C1", metrics[0].CustomerCode)
	assert.Equal(t, SegmentHabitual, metrics[0].Segment)
	assert.Equal(t, 2, metrics[0].TotalServices)
	assert.InDelta(t, 2000, metrics[0].Revenue12m, 0.001)
	require.NotNil(t, metrics[0].DaysSinceLast)
	assert.Equal(t, 61, *metrics[0].DaysSinceLast)

	assert.Equal(t, "C2", metrics[1].CustomerCode)
	assert.Equal(t, SegmentInactive, metrics[1].Segment)
	assert.InDelta(t, 3000, metrics[1].TotalRevenue, 0.001)

	assert.Equal(t, "C3", metrics[2].CustomerCode)
	assert.Equal(t, SegmentProspect, metrics[2].Segment)
	assert.Nil(t, metrics[2].DaysSinceLast)
}

func TestSegmentSummary(t *testing.T) {
	summary := SegmentSummary(BuildMetrics(sampleLines(), day("2024-07-01"), DefaultThresholds()))

	require.Len(t, summary, len(Segments))
	counts := make(map[Segment]int)
	for _, s := range summary {
		counts[s.Segment] = s.Customers
	}
	assert.Equal(t, 1, counts[SegmentHabitual])
	assert.Equal(t, 1, counts[SegmentInactive])
	assert.Equal(t, 1, counts[SegmentProspect])
	assert.Equal(t, 0, counts[SegmentReactivated])
	assert.Equal(t, SegmentHabitual, summary[0].Segment)
}

func TestInactiveCustomers(t *testing.T) {
	out := InactiveCustomers(sampleLines(), 12, day("2024-07-01"))

	require.Len(t, out, 3)
	assert.Equal(t, "C2", out[0].CustomerCode)
	assert.Equal(t, 2, out[0].Quotes)
	assert.InDelta(t, 3500, out[0].Amount, 0.001)
	assert.Equal(t, day("2022-02-01"), out[0].LastActivity)
	assert.Equal(t, "600111222", out[0].Phone)

	assert.Equal(t, "C3", out[1].CustomerCode)
	assert.Equal(t, "Particular", out[2].CustomerCode)
	assert.Equal(t, "Particular", out[2].CustomerName)
}

func TestInactiveCustomers_WiderWindow(t *testing.T) {
	out := InactiveCustomers(sampleLines(), 24, day("2024-07-01"))
	require.Len(t, out, 2)
	assert.Equal(t, "C2", out[0].CustomerCode)
	assert.Equal(t, "Particular", out[1].CustomerCode)
}

func TestSegmentation(t *testing.T) {
	f := func(v float64) *float64 { return &v }

	tests := []struct {
		name   string
		filter SegmentFilter
		want   []string
	}{
		{"no filter keeps reachable customers", SegmentFilter{}, []string{"C1", "C3", "Particular"}},
		{"by group", SegmentFilter{Group: "SCHOOL"}, []string{"C1"}},
		{"by service type", SegmentFilter{ServiceType: "TRF"}, []string{"C1", "Particular"}},
		{"line amount bounds", SegmentFilter{MinAmount: f(300), MaxAmount: f(900)}, []string{"C1", "C3"}},
		{"nothing matches", SegmentFilter{MinAmount: f(10000)}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Segmentation(sampleLines(), tt.filter)
			codes := make([]string, 0, len(got))
			for _, c := range got {
				codes = append(codes, c.CustomerCode)
			}
			assert.Equal(t, tt.want, codes)
		})
	}
}

func TestSegmentation_AmountSumsMatchingLines(t *testing.T) {
	got := Segmentation(sampleLines(), SegmentFilter{Group: "SCHOOL"})
	require.Len(t, got, 1)
	assert.Equal(t, 2, got[0].Quotes)
	assert.InDelta(t, 2000, got[0].Amount, 0.001)
	assert.Equal(t, "sol@example.com", got[0].Email)
}

func TestComputeStats(t *testing.T) {
	st, ok := ComputeStats(sampleLines(), "C2")
	require.True(t, ok)
	assert.Equal(t, 2, st.TotalQuotes)
	assert.Equal(t, 1, st.AcceptedQuotes)
	assert.Equal(t, 1, st.RejectedQuotes)
	assert.InDelta(t, 3500, st.TotalAmount, 0.001)
	assert.InDelta(t, 3000, st.AcceptedAmount, 0.001)
	assert.Equal(t, 50.0, st.ConversionRate)
	assert.Equal(t, day("2022-01-15"), *st.FirstDate)
	assert.Equal(t, day("2022-02-01"), *st.LastDate)

	_, ok = ComputeStats(sampleLines(), "missing")
	assert.False(t, ok)
}
