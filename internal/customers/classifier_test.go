package customers

import (
	"testing"
	"time"

	"github.com/cesarmartin1/crm-david/internal/quotes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d
}

func datePtr(s string) *time.Time {
	d := day(s)
	return &d
}

func accepted(code, customer, created string, amount float64) quotes.QuoteLine {
	return quotes.QuoteLine{
		QuoteCode:    code,
		CustomerCode: customer,
		Status:       quotes.StatusAccepted,
		CreatedAt:    datePtr(created),
		Amount:       amount,
	}
}

func TestClassifyLines(t *testing.T) {
	asOf := day("2024-07-01")

	tests := []struct {
		name  string
		lines []quotes.QuoteLine
		want  Segment
	}{
		{
			name:  "no lines",
			lines: nil,
			want:  SegmentProspect,
		},
		{
			name: "only pending quotes",
			lines: []quotes.QuoteLine{
				{QuoteCode: "P1", CustomerCode: "C1", Status: quotes.StatusSent, CreatedAt: datePtr("2024-06-01"), Amount: 900},
			},
			want: SegmentProspect,
		},
		{
			name: "returned after a long gap",
			lines: []quotes.QuoteLine{
				accepted("P1", "C1", "2023-01-10", 400),
				accepted("P2", "C1", "2024-06-15", 400),
			},
			want: SegmentReactivated,
		},
		{
			name: "two services in the last year",
			lines: []quotes.QuoteLine{
				accepted("P1", "C1", "2024-03-01", 400),
				accepted("P2", "C1", "2024-05-01", 400),
			},
			want: SegmentHabitual,
		},
		{
			name: "revenue threshold alone",
			lines: []quotes.QuoteLine{
				accepted("P1", "C1", "2024-05-01", 6000),
			},
			want: SegmentHabitual,
		},
		{
			name: "one small recent service",
			lines: []quotes.QuoteLine{
				accepted("P1", "C1", "2024-05-01", 500),
			},
			want: SegmentOccasionalActive,
		},
		{
			name: "several lines of one quote count once",
			lines: []quotes.QuoteLine{
				accepted("P1", "C1", "2024-05-01", 500),
				accepted("P1", "C1", "2024-05-01", 500),
				accepted("P1", "C1", "2024-05-02", 500),
			},
			want: SegmentOccasionalActive,
		},
		{
			name: "last order between the windows",
			lines: []quotes.QuoteLine{
				accepted("P1", "C1", "2023-05-01", 500),
			},
			want: SegmentInactive,
		},
		{
			name: "last order beyond the inactive window",
			lines: []quotes.QuoteLine{
				accepted("P1", "C1", "2021-01-01", 50000),
				accepted("P2", "C1", "2021-02-01", 50000),
			},
			want: SegmentInactive,
		},
		{
			name: "rejected quotes are ignored",
			lines: []quotes.QuoteLine{
				accepted("P1", "C1", "2024-05-01", 500),
				{QuoteCode: "P2", CustomerCode: "C1", Status: quotes.StatusRejected, CreatedAt: datePtr("2024-06-01"), Amount: 9000},
			},
			want: SegmentOccasionalActive,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyLines(tt.lines, asOf, DefaultThresholds()))
		})
	}
}

func TestClassify_CustomThresholds(t *testing.T) {
	asOf := day("2024-07-01")
	lines := []quotes.QuoteLine{accepted("P1", "C1", "2024-05-01", 500)}

	strict := DefaultThresholds()
	assert.Equal(t, SegmentOccasionalActive, ClassifyLines(lines, asOf, strict))

	loose := DefaultThresholds()
	loose.MinServices12m = 1
	assert.Equal(t, SegmentHabitual, ClassifyLines(lines, asOf, loose))

	short := DefaultThresholds()
	short.ActiveMonths = 1
	short.InactiveMonths = 1
	assert.Equal(t, SegmentInactive, ClassifyLines(lines, asOf, short))
}

func TestClassify_Idempotent(t *testing.T) {
	asOf := day("2024-07-01")
	lines := []quotes.QuoteLine{
		accepted("P1", "C1", "2023-01-10", 400),
		accepted("P2", "C1", "2024-06-15", 400),
	}
	first := ClassifyLines(lines, asOf, DefaultThresholds())
	for i := 0; i < 3; i++ {
		assert.Equal(t, first, ClassifyLines(lines, asOf, DefaultThresholds()))
	}
}

func TestBuildHistory(t *testing.T) {
	asOf := day("2024-07-01")
	lines := []quotes.QuoteLine{
		accepted("P1", "C1", "2022-01-01", 100),
		accepted("P2", "C1", "2023-03-01", 200),
		accepted("P3", "C1", "2024-02-01", 300),
		accepted("P3", "C1", "2024-01-20", 50),
		{QuoteCode: "P4", CustomerCode: "C1", Status: quotes.StatusPartiallyAccepted, Amount: 25},
	}

	h := BuildHistory(lines, asOf)
	require.NotNil(t, h.FirstOrder)
	require.NotNil(t, h.LastOrder)
	require.NotNil(t, h.PreviousOrder)
	assert.Equal(t, day("2022-01-01"), *h.FirstOrder)
	assert.Equal(t, day("2024-01-20"), *h.LastOrder)
	assert.Equal(t, day("2023-03-01"), *h.PreviousOrder)
	assert.Equal(t, 1, h.Services12m)
	assert.Equal(t, 2, h.Services24m)
	assert.InDelta(t, 550, h.Revenue24m, 0.001)
}

func TestBuildHistory_SingleOrder(t *testing.T) {
	h := BuildHistory([]quotes.QuoteLine{accepted("P1", "C1", "2024-05-01", 100)}, day("2024-07-01"))
	require.NotNil(t, h.LastOrder)
	assert.Nil(t, h.PreviousOrder)
	assert.Equal(t, *h.FirstOrder, *h.LastOrder)
}
